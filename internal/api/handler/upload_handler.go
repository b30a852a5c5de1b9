package handler

import (
	"net/http"

	"github.com/ZertGraf/cresp/internal/domain"
	"github.com/ZertGraf/cresp/internal/pkg/logger"
	"github.com/ZertGraf/cresp/internal/service"
)

type UploadHandler struct {
	uploadService *service.UploadService
	maxBytes      int64
	logger        *logger.Logger
}

func NewUploadHandler(uploadService *service.UploadService, maxBytes int64, logger *logger.Logger) *UploadHandler {
	return &UploadHandler{
		uploadService: uploadService,
		maxBytes:      maxBytes,
		logger:        logger.Component("handler/upload"),
	}
}

func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
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

	media, err := h.uploadService.Upload(r.Context(), service.UploadInput{
		OwnerID:  user.UserID,
		Purpose:  domain.MediaPurpose(r.FormValue("purpose")),
		Filename: form.header.Filename,
		Size:     form.header.Size,
		Body:     form.file,
	})
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, media, h.logger)
}
