package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"

	"github.com/ZertGraf/cresp/internal/domain"
	"github.com/ZertGraf/cresp/internal/pkg/logger"
	"github.com/ZertGraf/cresp/internal/pkg/textnorm"
	"github.com/ZertGraf/cresp/internal/repository"
)

type FeedbackInput struct {
	Category domain.FeedbackCategory `json:"category"`
	Message  string                  `json:"message"`
	Rating   *int                    `json:"rating"`
	PageURL  string                  `json:"page_url"`
}

func (in *FeedbackInput) Validate() error {
	return validation.ValidateStruct(in,
		validation.Field(&in.Category, validation.Required,
			validation.In(domain.FeedbackBug, domain.FeedbackIdea, domain.FeedbackPraise, domain.FeedbackOther)),
		validation.Field(&in.Message, validation.Required, validation.RuneLength(1, 2000)),
		validation.Field(&in.Rating, validation.By(ratingInRange)),
		validation.Field(&in.PageURL, validation.RuneLength(0, 2048), is.URL),
	)
}

// ratingInRange also rejects an explicit zero, which Min treats as empty.
func ratingInRange(value interface{}) error {
	rating, _ := value.(*int)
	if rating != nil && (*rating < 1 || *rating > 5) {
		return errors.New("must be between 1 and 5")
	}
	return nil
}

type FeedbackService struct {
	repo   repository.FeedbackRepository
	logger *logger.Logger
}

func NewFeedbackService(repo repository.FeedbackRepository, logger *logger.Logger) *FeedbackService {
	return &FeedbackService{
		repo:   repo,
		logger: logger.Component("service/feedback"),
	}
}

func (s *FeedbackService) Submit(ctx context.Context, userID string, in FeedbackInput) (*domain.Feedback, error) {
	in.Message = textnorm.Multiline(in.Message)
	in.PageURL = strings.TrimSpace(in.PageURL)
	if err := in.Validate(); err != nil {
		return nil, err
	}

	feedback := &domain.Feedback{
		FeedbackID: uuid.Must(uuid.NewV7()).String(),
		Category:   in.Category,
		Message:    in.Message,
		Rating:     in.Rating,
		PageURL:    in.PageURL,
	}
	if userID != "" {
		feedback.UserID = &userID
	}

	if err := s.repo.Create(ctx, feedback); err != nil {
		return nil, fmt.Errorf("create feedback: %w", err)
	}

	s.logger.Info("feedback received",
		"feedback_id", feedback.FeedbackID,
		"category", feedback.Category,
	)

	return feedback, nil
}

// List returns feedback newest first.
func (s *FeedbackService) List(ctx context.Context, limit, offset int) ([]*domain.Feedback, error) {
	limit, offset = clampPage(limit, offset)
	items, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	return items, nil
}
