package handler

import (
	"net/http"

	"github.com/ZertGraf/cresp/internal/pkg/logger"
	"github.com/ZertGraf/cresp/internal/service"
)

type OnboardingHandler struct {
	onboardingService *service.OnboardingService
	roleService       *service.RoleService
	logger            *logger.Logger
}

func NewOnboardingHandler(
	onboardingService *service.OnboardingService,
	roleService *service.RoleService,
	logger *logger.Logger,
) *OnboardingHandler {
	return &OnboardingHandler{
		onboardingService: onboardingService,
		roleService:       roleService,
		logger:            logger.Component("handler/onboarding"),
	}
}

func (h *OnboardingHandler) Roles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.roleService.List(r.Context())
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, roles, h.logger)
}

func (h *OnboardingHandler) Status(w http.ResponseWriter, r *http.Request) {
	user, ok := sessionUser(w, r, h.logger)
	if !ok {
		return
	}

	status, err := h.onboardingService.Status(r.Context(), user.UserID)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, status, h.logger)
}

func (h *OnboardingHandler) Complete(w http.ResponseWriter, r *http.Request) {
	user, ok := sessionUser(w, r, h.logger)
	if !ok {
		return
	}

	var req service.OnboardingInput
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	updated, err := h.onboardingService.Complete(r.Context(), user.UserID, req)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, updated, h.logger)
}
