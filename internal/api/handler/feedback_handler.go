package handler

import (
	"net/http"

	"github.com/ZertGraf/cresp/internal/pkg/logger"
	"github.com/ZertGraf/cresp/internal/service"
)

type FeedbackHandler struct {
	feedbackService *service.FeedbackService
	logger          *logger.Logger
}

func NewFeedbackHandler(feedbackService *service.FeedbackService, logger *logger.Logger) *FeedbackHandler {
	return &FeedbackHandler{
		feedbackService: feedbackService,
		logger:          logger.Component("handler/feedback"),
	}
}

func (h *FeedbackHandler) Submit(w http.ResponseWriter, r *http.Request) {
	user, ok := sessionUser(w, r, h.logger)
	if !ok {
		return
	}

	var req service.FeedbackInput
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	fb, err := h.feedbackService.Submit(r.Context(), user.UserID, req)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, fb, h.logger)
}
