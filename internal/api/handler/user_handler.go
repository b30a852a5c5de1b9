package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ZertGraf/cresp/internal/pkg/logger"
	"github.com/ZertGraf/cresp/internal/service"
)

type UserHandler struct {
	userService *service.UserService
	feedService *service.FeedService
	maxBytes    int64
	logger      *logger.Logger
}

func NewUserHandler(
	userService *service.UserService,
	feedService *service.FeedService,
	maxBytes int64,
	logger *logger.Logger,
) *UserHandler {
	return &UserHandler{
		userService: userService,
		feedService: feedService,
		maxBytes:    maxBytes,
		logger:      logger.Component("handler/user"),
	}
}

func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.userService.Profile(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, profile, h.logger)
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user, ok := sessionUser(w, r, h.logger)
	if !ok {
		return
	}

	var req service.ProfileInput
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	updated, err := h.userService.UpdateProfile(r.Context(), user.UserID, req)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, updated, h.logger)
}

func (h *UserHandler) SetAvatar(w http.ResponseWriter, r *http.Request) {
	user, ok := sessionUser(w, r, h.logger)
	if !ok {
		return
	}

	form, cleanup, err := readFormFile(w, r, h.maxBytes)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	defer cleanup()

	updated, err := h.userService.SetAvatar(r.Context(), user.UserID, form.header.Filename, form.header.Size, form.file)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, updated, h.logger)
}

// Posts lists an author's posts. The author sees their own hidden posts too.
func (h *UserHandler) Posts(w http.ResponseWriter, r *http.Request) {
	q, err := parseFeedQuery(r.URL.Query())
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	page, err := h.feedService.AuthorPosts(r.Context(), chi.URLParam(r, "username"), viewerID(r), q)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, page, h.logger)
}
