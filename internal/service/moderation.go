package service

import (
	"context"
	"fmt"
	"math"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"

	"github.com/ZertGraf/cresp/internal/domain"
	"github.com/ZertGraf/cresp/internal/pkg/logger"
	"github.com/ZertGraf/cresp/internal/pkg/textnorm"
	"github.com/ZertGraf/cresp/internal/repository"
)

type ModerationConfig struct {
	HideThreshold    float64
	NewAccountWindow time.Duration
	NewAccountFactor float64
}

// ComputeWeight is the weight one report adds to the queue: the category
// base weight, reduced for accounts younger than the new-account window,
// rounded to two decimals.
func (c ModerationConfig) ComputeWeight(category domain.ReportCategory, reporterCreatedAt, now time.Time) (float64, bool) {
	base, ok := category.BaseWeight()
	if !ok {
		return 0, false
	}

	factor := 1.0
	if now.Sub(reporterCreatedAt) < c.NewAccountWindow {
		factor = c.NewAccountFactor
	}

	return math.Round(base*factor*100) / 100, true
}

type ReportInput struct {
	Category domain.ReportCategory `json:"category"`
	Reason   string                `json:"reason"`
}

func (in *ReportInput) Validate() error {
	return validation.ValidateStruct(in,
		validation.Field(&in.Category, validation.Required, validation.In(domain.ReportCategories()...)),
		validation.Field(&in.Reason, validation.RuneLength(0, 500)),
	)
}

type ResolveInput struct {
	Action domain.ResolveAction `json:"action"`
}

func (in *ResolveInput) Validate() error {
	return validation.ValidateStruct(in,
		validation.Field(&in.Action, validation.Required, validation.In(domain.ResolveDismiss, domain.ResolveRemove)),
	)
}

type ModerationService struct {
	repo   repository.ModerationRepository
	posts  repository.PostRepository
	config ModerationConfig
	now    func() time.Time
	logger *logger.Logger
}

func NewModerationService(
	repo repository.ModerationRepository,
	posts repository.PostRepository,
	config ModerationConfig,
	logger *logger.Logger,
) *ModerationService {
	return &ModerationService{
		repo:   repo,
		posts:  posts,
		config: config,
		now:    time.Now,
		logger: logger.Component("service/moderation"),
	}
}

// Report files a report against a post the reporter can see.
func (s *ModerationService) Report(ctx context.Context, reporter *domain.User, postID string, in ReportInput) (*domain.Report, error) {
	if !reporter.Onboarded() {
		return nil, domain.ErrOnboardingRequired
	}

	in.Reason = textnorm.Multiline(in.Reason)
	if err := in.Validate(); err != nil {
		return nil, err
	}

	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	if post.AuthorID == reporter.UserID {
		return nil, domain.ErrCannotReportOwnPost
	}
	if !post.VisibleTo(reporter.UserID) {
		return nil, domain.ErrPostNotFound
	}

	weight, _ := s.config.ComputeWeight(in.Category, reporter.CreatedAt, s.now())

	report := &domain.Report{
		ReportID:   uuid.Must(uuid.NewV7()).String(),
		PostID:     postID,
		ReporterID: reporter.UserID,
		Category:   in.Category,
		Reason:     in.Reason,
		Weight:     weight,
	}

	outcome, err := s.repo.RecordReport(ctx, report, s.config.HideThreshold)
	if err != nil {
		return nil, fmt.Errorf("record report: %w", err)
	}

	s.logger.Info("post reported",
		"post_id", postID,
		"reporter_id", reporter.UserID,
		"category", in.Category,
		"weight", weight,
		"pending_weight", outcome.PendingTotal,
	)
	if outcome.PostHidden {
		s.logger.Warn("post hidden pending review",
			"post_id", postID,
			"pending_weight", outcome.PendingTotal,
			"threshold", s.config.HideThreshold,
		)
	}

	return outcome.Report, nil
}

// Queue lists entries with the given status, pending by default.
func (s *ModerationService) Queue(ctx context.Context, status domain.QueueStatus, limit, offset int) ([]*domain.QueueEntry, error) {
	if status == "" {
		status = domain.QueueStatusPending
	}
	err := validation.Validate(status,
		validation.In(domain.QueueStatusPending, domain.QueueStatusDismissed, domain.QueueStatusActioned))
	if err != nil {
		return nil, validation.Errors{"status": err}
	}

	limit, offset = clampPage(limit, offset)
	entries, err := s.repo.ListQueue(ctx, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list queue: %w", err)
	}
	return entries, nil
}

func (s *ModerationService) Entry(ctx context.Context, entryID string) (*domain.QueueEntry, error) {
	entry, err := s.repo.GetEntry(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("get queue entry: %w", err)
	}
	return entry, nil
}

// Resolve closes every pending entry for the entry's post.
func (s *ModerationService) Resolve(ctx context.Context, admin *domain.User, entryID string, in ResolveInput) ([]*domain.QueueEntry, error) {
	if !admin.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	resolved, err := s.repo.Resolve(ctx, entryID, in.Action, admin.UserID)
	if err != nil {
		return nil, fmt.Errorf("resolve entry: %w", err)
	}

	s.logger.Info("moderation entry resolved",
		"entry_id", entryID,
		"action", in.Action,
		"admin_id", admin.UserID,
		"entries", len(resolved),
	)

	return resolved, nil
}

// clampPage applies the admin list defaults.
func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = domain.DefaultPageSize
	}
	if limit > domain.MaxPageSize {
		limit = domain.MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
