package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ZertGraf/cresp/internal/pkg/logger"
	"github.com/ZertGraf/cresp/internal/service"
)

type PostHandler struct {
	postService       *service.PostService
	moderationService *service.ModerationService
	logger            *logger.Logger
}

func NewPostHandler(
	postService *service.PostService,
	moderationService *service.ModerationService,
	logger *logger.Logger,
) *PostHandler {
	return &PostHandler{
		postService:       postService,
		moderationService: moderationService,
		logger:            logger.Component("handler/post"),
	}
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := sessionUser(w, r, h.logger)
	if !ok {
		return
	}

	var req service.CreatePostInput
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	post, err := h.postService.Create(r.Context(), user, req)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, post, h.logger)
}

func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	post, err := h.postService.Get(r.Context(), chi.URLParam(r, "postID"), viewerID(r))
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, post, h.logger)
}

func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := sessionUser(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.postService.Delete(r.Context(), chi.URLParam(r, "postID"), user); err != nil {
		WriteError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PostHandler) Report(w http.ResponseWriter, r *http.Request) {
	user, ok := sessionUser(w, r, h.logger)
	if !ok {
		return
	}

	var req service.ReportInput
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	report, err := h.moderationService.Report(r.Context(), user, chi.URLParam(r, "postID"), req)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, report, h.logger)
}
