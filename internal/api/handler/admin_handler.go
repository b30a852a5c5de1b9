package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ZertGraf/cresp/internal/domain"
	"github.com/ZertGraf/cresp/internal/pkg/logger"
	"github.com/ZertGraf/cresp/internal/service"
)

// AdminHandler serves the moderation queue and the feedback inbox.
type AdminHandler struct {
	moderationService *service.ModerationService
	feedbackService   *service.FeedbackService
	logger            *logger.Logger
}

func NewAdminHandler(
	moderationService *service.ModerationService,
	feedbackService *service.FeedbackService,
	logger *logger.Logger,
) *AdminHandler {
	return &AdminHandler{
		moderationService: moderationService,
		feedbackService:   feedbackService,
		logger:            logger.Component("handler/admin"),
	}
}

// Routes expects RequireAdmin to be applied by the caller.
func (h *AdminHandler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/moderation/queue", h.Queue)
	r.Get("/moderation/queue/{entryID}", h.Entry)
	r.Post("/moderation/queue/{entryID}/resolve", h.Resolve)
	r.Get("/feedback", h.Feedback)

	return r
}

type QueueResponse struct {
	Entries []*domain.QueueEntry `json:"entries"`
}

func (h *AdminHandler) Queue(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parsePage(r.URL.Query())
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	status := domain.QueueStatus(r.URL.Query().Get("status"))
	entries, err := h.moderationService.Queue(r.Context(), status, limit, offset)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, QueueResponse{Entries: entries}, h.logger)
}

func (h *AdminHandler) Entry(w http.ResponseWriter, r *http.Request) {
	entry, err := h.moderationService.Entry(r.Context(), chi.URLParam(r, "entryID"))
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, entry, h.logger)
}

func (h *AdminHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	user, ok := sessionUser(w, r, h.logger)
	if !ok {
		return
	}

	var req service.ResolveInput
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	entries, err := h.moderationService.Resolve(r.Context(), user, chi.URLParam(r, "entryID"), req)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, QueueResponse{Entries: entries}, h.logger)
}

type FeedbackListResponse struct {
	Items []*domain.Feedback `json:"items"`
}

func (h *AdminHandler) Feedback(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parsePage(r.URL.Query())
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	items, err := h.feedbackService.List(r.Context(), limit, offset)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, FeedbackListResponse{Items: items}, h.logger)
}
