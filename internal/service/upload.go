package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ZertGraf/cresp/internal/domain"
	"github.com/ZertGraf/cresp/internal/pkg/logger"
	"github.com/ZertGraf/cresp/internal/pkg/storage"
	"github.com/ZertGraf/cresp/internal/repository"
)

// sniffLen is how much of a file http.DetectContentType looks at.
const sniffLen = 512

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"video/mp4":  ".mp4",
	"video/webm": ".webm",
}

type UploadConfig struct {
	MaxBytes     int64
	AllowedTypes []string
}

type UploadInput struct {
	OwnerID  string
	Purpose  domain.MediaPurpose
	Filename string
	// Size is the declared length of Body.
	Size int64
	Body io.Reader
}

type UploadService struct {
	media   repository.MediaRepository
	store   storage.Provider
	config  UploadConfig
	allowed map[string]bool
	logger  *logger.Logger
}

func NewUploadService(
	media repository.MediaRepository,
	store storage.Provider,
	config UploadConfig,
	logger *logger.Logger,
) *UploadService {
	allowed := make(map[string]bool, len(config.AllowedTypes))
	for _, t := range config.AllowedTypes {
		allowed[strings.ToLower(strings.TrimSpace(t))] = true
	}
	return &UploadService{
		media:   media,
		store:   store,
		config:  config,
		allowed: allowed,
		logger:  logger.Component("service/upload"),
	}
}

// Upload sniffs the file type, writes the object and records its metadata.
// The stored object is removed again if the metadata insert fails.
func (s *UploadService) Upload(ctx context.Context, in UploadInput) (*domain.Media, error) {
	if in.Purpose == "" {
		in.Purpose = domain.MediaPurposePost
	}
	if in.Purpose != domain.MediaPurposePost && in.Purpose != domain.MediaPurposeAvatar {
		return nil, fmt.Errorf("%w: unknown purpose %q", domain.ErrUnsupportedMedia, in.Purpose)
	}
	if in.Size > s.config.MaxBytes {
		return nil, domain.ErrFileTooLarge
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(in.Body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]
	if n == 0 {
		return nil, fmt.Errorf("%w: empty file", domain.ErrUnsupportedMedia)
	}

	contentType, kind, err := s.classify(head)
	if err != nil {
		return nil, err
	}
	if in.Purpose == domain.MediaPurposeAvatar && kind != domain.MediaKindImage {
		return nil, fmt.Errorf("%w: avatars must be images", domain.ErrUnsupportedMedia)
	}

	media := &domain.Media{
		MediaID:     uuid.Must(uuid.NewV7()).String(),
		OwnerID:     in.OwnerID,
		Purpose:     in.Purpose,
		Kind:        kind,
		ContentType: contentType,
		SizeBytes:   in.Size,
	}
	media.StorageKey = fmt.Sprintf("%s/%s/%s%s", in.Purpose, in.OwnerID, media.MediaID, extension(contentType))

	// reading past the limit means the declared size was wrong
	body := &countingReader{r: io.LimitReader(io.MultiReader(bytes.NewReader(head), in.Body), s.config.MaxBytes+1)}

	url, err := s.store.Put(ctx, media.StorageKey, contentType, body, in.Size)
	if err != nil {
		return nil, fmt.Errorf("store object: %w", err)
	}
	if body.n > s.config.MaxBytes {
		s.discard(ctx, media.StorageKey)
		return nil, domain.ErrFileTooLarge
	}
	media.URL = url
	media.SizeBytes = body.n

	if err := s.media.Create(ctx, media); err != nil {
		s.discard(ctx, media.StorageKey)
		return nil, fmt.Errorf("create media: %w", err)
	}

	s.logger.Info("file uploaded",
		"media_id", media.MediaID,
		"owner_id", in.OwnerID,
		"purpose", in.Purpose,
		"content_type", contentType,
		"size_bytes", media.SizeBytes,
		"provider", s.store.Name(),
	)

	return media, nil
}

func (s *UploadService) classify(head []byte) (string, domain.MediaKind, error) {
	detected := http.DetectContentType(head)
	contentType, _, err := mime.ParseMediaType(detected)
	if err != nil {
		contentType = detected
	}

	if !s.allowed[contentType] {
		return "", "", fmt.Errorf("%w: %s", domain.ErrUnsupportedMedia, contentType)
	}

	switch {
	case strings.HasPrefix(contentType, "image/"):
		return contentType, domain.MediaKindImage, nil
	case strings.HasPrefix(contentType, "video/"):
		return contentType, domain.MediaKindVideo, nil
	default:
		return "", "", fmt.Errorf("%w: %s", domain.ErrUnsupportedMedia, contentType)
	}
}

func (s *UploadService) discard(ctx context.Context, key string) {
	if err := s.store.Delete(ctx, key); err != nil {
		s.logger.Warn("failed to delete stored object", "key", key, "error", err)
	}
}

func extension(contentType string) string {
	if ext, ok := extensions[contentType]; ok {
		return ext
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
