package handler

import (
	"net/http"
	"time"

	"github.com/ZertGraf/cresp/internal/pkg/logger"
	"github.com/ZertGraf/cresp/internal/service"
)

type CookieConfig struct {
	Name   string
	Domain string
	Secure bool
}

type AuthHandler struct {
	authService *service.AuthService
	cookie      CookieConfig
	logger      *logger.Logger
}

func NewAuthHandler(authService *service.AuthService, cookie CookieConfig, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cookie:      cookie,
		logger:      logger.Component("handler/auth"),
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	session, err := h.authService.Register(r.Context(), req)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	h.setCookie(w, session.Token, session.ExpiresAt)
	writeJSON(w, http.StatusCreated, session, h.logger)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginInput
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	session, err := h.authService.Login(r.Context(), req)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	h.setCookie(w, session.Token, session.ExpiresAt)
	writeJSON(w, http.StatusOK, session, h.logger)
}

// Logout only clears the cookie; tokens are stateless and expire on their own.
func (h *AuthHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	h.setCookie(w, "", time.Unix(0, 0))
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := sessionUser(w, r, h.logger)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, user, h.logger)
}

func (h *AuthHandler) setCookie(w http.ResponseWriter, value string, expires time.Time) {
	cookie := &http.Cookie{
		Name:     h.cookie.Name,
		Value:    value,
		Path:     "/",
		Domain:   h.cookie.Domain,
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if value == "" {
		cookie.MaxAge = -1
	}
	http.SetCookie(w, cookie)
}
