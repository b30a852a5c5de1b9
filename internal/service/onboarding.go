package service

import (
	"context"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/ZertGraf/cresp/internal/domain"
	"github.com/ZertGraf/cresp/internal/pkg/logger"
	"github.com/ZertGraf/cresp/internal/repository"
)

const maxRolesPerUser = 5

type OnboardingInput struct {
	ProfileInput
	RoleIDs []string `json:"role_ids"`
}

// normalize collapses repeated role IDs so the length rule counts
// distinct roles.
func (in *OnboardingInput) normalize() {
	in.ProfileInput.normalize()
	in.RoleIDs = uniqueIDs(in.RoleIDs)
}

func (in *OnboardingInput) Validate() error {
	if err := in.ProfileInput.Validate(); err != nil {
		return err
	}
	return validation.Errors{
		"display_name": validation.Validate(in.DisplayName, validation.Required),
		"role_ids":     validation.Validate(in.RoleIDs, validation.Required, validation.Length(1, maxRolesPerUser)),
	}.Filter()
}

type OnboardingStatus struct {
	Completed bool                      `json:"completed"`
	User      *domain.User              `json:"user"`
	Roles     []domain.ProfessionalRole `json:"roles"`
}

type OnboardingService struct {
	users    repository.UserRepository
	roles    *RoleService
	profiles *UserService
	logger   *logger.Logger
}

func NewOnboardingService(
	users repository.UserRepository,
	roles *RoleService,
	profiles *UserService,
	logger *logger.Logger,
) *OnboardingService {
	return &OnboardingService{
		users:    users,
		roles:    roles,
		profiles: profiles,
		logger:   logger.Component("service/onboarding"),
	}
}

// Status reports whether the user has finished onboarding, together with
// the catalog the client needs to render the form.
func (s *OnboardingService) Status(ctx context.Context, userID string) (*OnboardingStatus, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	roles, err := s.roles.List(ctx)
	if err != nil {
		return nil, err
	}

	return &OnboardingStatus{
		Completed: user.Onboarded(),
		User:      user,
		Roles:     roles,
	}, nil
}

// Complete stores the profile and role selection. Calling it again edits
// both but keeps the first completion time.
func (s *OnboardingService) Complete(ctx context.Context, userID string, in OnboardingInput) (*domain.User, error) {
	in.normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	roleIDs, err := s.roles.ResolveIDs(ctx, in.RoleIDs)
	if err != nil {
		return nil, err
	}

	user, err := s.users.CompleteOnboarding(ctx, userID, in.update(), roleIDs)
	if err != nil {
		return nil, fmt.Errorf("complete onboarding: %w", err)
	}
	s.profiles.Invalidate(user.Username)

	s.logger.Info("onboarding completed",
		"user_id", userID,
		"roles", len(roleIDs),
	)

	return user, nil
}
