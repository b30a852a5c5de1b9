package repository

import (
	"context"
	"time"

	"github.com/ZertGraf/cresp/internal/domain"
)

// UserRepository - users, their professional roles and referral bookkeeping
type UserRepository interface {
	// Create inserts the user and, when referral is not nil, records the
	// referral and bumps the referrer's counter in the same transaction.
	Create(ctx context.Context, user *domain.User, referral *domain.Referral) error
	GetByID(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByReferralCode(ctx context.Context, code string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) (*domain.User, error)
	CompleteOnboarding(ctx context.Context, userID string, update domain.ProfileUpdate, roleIDs []string) (*domain.User, error)
	SetAvatar(ctx context.Context, userID, avatarURL string) (*domain.User, error)
	SetRole(ctx context.Context, email string, role domain.UserRole) (*domain.User, error)
}

// RoleRepository - professional role catalog
type RoleRepository interface {
	List(ctx context.Context) ([]domain.ProfessionalRole, error)
	Upsert(ctx context.Context, roles []domain.ProfessionalRole) (int, error)
	ExistingIDs(ctx context.Context, roleIDs []string) ([]string, error)
}

// PostRepository - posts, portfolio details and feed queries
type PostRepository interface {
	Create(ctx context.Context, post *domain.Post, mediaIDs []string) error
	GetByID(ctx context.Context, postID string) (*domain.Post, error)
	Delete(ctx context.Context, postID string) error
	// List returns at most q.Limit posts strictly after q.Cursor in q.Sort
	// order. Returns ErrInvalidCursor if the cursor does not exist.
	List(ctx context.Context, q domain.FeedQuery) ([]*domain.Post, error)
}

// MediaRepository - uploaded media metadata
type MediaRepository interface {
	Create(ctx context.Context, media *domain.Media) error
	ListByPosts(ctx context.Context, postIDs []string) (map[string][]*domain.Media, error)
	ListOrphans(ctx context.Context, createdBefore time.Time, limit int) ([]*domain.Media, error)
	Delete(ctx context.Context, mediaID string) error
}

// ModerationRepository - reports and the aggregated moderation queue
type ModerationRepository interface {
	RecordReport(ctx context.Context, report *domain.Report, hideThreshold float64) (*domain.ReportOutcome, error)
	GetEntry(ctx context.Context, entryID string) (*domain.QueueEntry, error)
	ListQueue(ctx context.Context, status domain.QueueStatus, limit, offset int) ([]*domain.QueueEntry, error)
	Resolve(ctx context.Context, entryID string, action domain.ResolveAction, adminID string) ([]*domain.QueueEntry, error)
}

// ReferralRepository - referral history
type ReferralRepository interface {
	ListByReferrer(ctx context.Context, referrerID string) ([]*domain.Referral, error)
}

// FeedbackRepository - product feedback
type FeedbackRepository interface {
	Create(ctx context.Context, feedback *domain.Feedback) error
	List(ctx context.Context, limit, offset int) ([]*domain.Feedback, error)
}
