package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/patrickmn/go-cache"

	"github.com/ZertGraf/cresp/internal/domain"
	"github.com/ZertGraf/cresp/internal/pkg/logger"
	"github.com/ZertGraf/cresp/internal/pkg/textnorm"
	"github.com/ZertGraf/cresp/internal/repository"
)

// ProfileInput carries editable profile fields. Nil leaves a field unchanged,
// an empty string clears an optional one.
type ProfileInput struct {
	DisplayName *string `json:"display_name"`
	Headline    *string `json:"headline"`
	Bio         *string `json:"bio"`
	Location    *string `json:"location"`
	Website     *string `json:"website"`
}

func (in *ProfileInput) normalize() {
	apply := func(p *string, fn func(string) string) {
		if p != nil {
			*p = fn(*p)
		}
	}
	apply(in.DisplayName, textnorm.Text)
	apply(in.Headline, textnorm.Text)
	apply(in.Bio, textnorm.Multiline)
	apply(in.Location, textnorm.Text)
	apply(in.Website, strings.TrimSpace)
}

func (in *ProfileInput) Validate() error {
	return validation.ValidateStruct(in,
		validation.Field(&in.DisplayName, validation.NilOrNotEmpty, validation.RuneLength(1, 60)),
		validation.Field(&in.Headline, validation.RuneLength(0, 120)),
		validation.Field(&in.Bio, validation.RuneLength(0, 1000)),
		validation.Field(&in.Location, validation.RuneLength(0, 100)),
		validation.Field(&in.Website, validation.RuneLength(0, 2048), is.URL),
	)
}

func (in *ProfileInput) update() domain.ProfileUpdate {
	return domain.ProfileUpdate{
		DisplayName: in.DisplayName,
		Headline:    in.Headline,
		Bio:         in.Bio,
		Location:    in.Location,
		Website:     in.Website,
	}
}

type UserService struct {
	repo     repository.UserRepository
	uploads  *UploadService
	profiles *cache.Cache
	logger   *logger.Logger
}

func NewUserService(
	repo repository.UserRepository,
	uploads *UploadService,
	profileTTL time.Duration,
	logger *logger.Logger,
) *UserService {
	return &UserService{
		repo:     repo,
		uploads:  uploads,
		profiles: cache.New(profileTTL, 2*profileTTL),
		logger:   logger.Component("service/user"),
	}
}

func (s *UserService) Get(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// Profile returns the public view of a user by username.
func (s *UserService) Profile(ctx context.Context, username string) (*domain.Profile, error) {
	username = textnorm.Username(username)
	if cached, ok := s.profiles.Get(username); ok {
		return cached.(*domain.Profile), nil
	}

	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	profile := &domain.Profile{
		UserSummary: user.Summary(),
		Bio:         user.Bio,
		Location:    user.Location,
		Website:     user.Website,
		Roles:       user.Roles,
		CreatedAt:   user.CreatedAt,
	}
	s.profiles.SetDefault(username, profile)

	return profile, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*domain.User, error) {
	in.normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	user, err := s.repo.UpdateProfile(ctx, userID, in.update())
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	s.Invalidate(user.Username)

	s.logger.Info("profile updated", "user_id", userID)

	return user, nil
}

// SetAvatar stores an image upload and points the user's avatar at it.
func (s *UserService) SetAvatar(ctx context.Context, userID, filename string, size int64, body io.Reader) (*domain.User, error) {
	media, err := s.uploads.Upload(ctx, UploadInput{
		OwnerID:  userID,
		Purpose:  domain.MediaPurposeAvatar,
		Filename: filename,
		Size:     size,
		Body:     body,
	})
	if err != nil {
		return nil, err
	}

	user, err := s.repo.SetAvatar(ctx, userID, media.URL)
	if err != nil {
		return nil, fmt.Errorf("set avatar: %w", err)
	}
	s.Invalidate(user.Username)

	s.logger.Info("avatar updated", "user_id", userID, "media_id", media.MediaID)

	return user, nil
}

// Invalidate drops the cached profile of username.
func (s *UserService) Invalidate(username string) {
	s.profiles.Delete(username)
}
