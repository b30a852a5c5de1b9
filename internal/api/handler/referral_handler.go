package handler

import (
	"net/http"

	"github.com/ZertGraf/cresp/internal/pkg/logger"
	"github.com/ZertGraf/cresp/internal/service"
)

type ReferralHandler struct {
	referralService *service.ReferralService
	logger          *logger.Logger
}

func NewReferralHandler(referralService *service.ReferralService, logger *logger.Logger) *ReferralHandler {
	return &ReferralHandler{
		referralService: referralService,
		logger:          logger.Component("handler/referral"),
	}
}

func (h *ReferralHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := sessionUser(w, r, h.logger)
	if !ok {
		return
	}

	stats, err := h.referralService.Stats(r.Context(), user.UserID)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, stats, h.logger)
}
