package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"

	"github.com/ZertGraf/cresp/internal/domain"
	"github.com/ZertGraf/cresp/internal/pkg/logger"
	"github.com/ZertGraf/cresp/internal/pkg/password"
	"github.com/ZertGraf/cresp/internal/pkg/textnorm"
	"github.com/ZertGraf/cresp/internal/pkg/token"
	"github.com/ZertGraf/cresp/internal/repository"
)

// maxCodeAttempts bounds referral code regeneration on collision.
const maxCodeAttempts = 5

var usernamePattern = regexp.MustCompile(`^[a-z0-9_]+$`)

type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *domain.User `json:"user"`
}

type RegisterInput struct {
	Email        string `json:"email"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	ReferralCode string `json:"referral_code"`
}

func (in *RegisterInput) normalize() {
	in.Email = textnorm.Email(in.Email)
	in.Username = textnorm.Username(in.Username)
	in.ReferralCode = strings.ToUpper(strings.TrimSpace(in.ReferralCode))
}

func (in *RegisterInput) Validate() error {
	return validation.ValidateStruct(in,
		validation.Field(&in.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&in.Username, validation.Required, validation.RuneLength(3, 30),
			validation.Match(usernamePattern).Error("must contain only lowercase letters, digits and underscores")),
		validation.Field(&in.Password, validation.Required, validation.Length(8, 72)),
	)
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthService struct {
	users  repository.UserRepository
	hasher *password.Hasher
	tokens *token.Issuer
	codes  func() (string, error)
	logger *logger.Logger
}

func NewAuthService(
	users repository.UserRepository,
	hasher *password.Hasher,
	tokens *token.Issuer,
	logger *logger.Logger,
) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		codes:  NewReferralCode,
		logger: logger.Component("service/auth"),
	}
}

// Register creates a member account, records the referral when a code is
// supplied and opens a session.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var referrer *domain.User
	if in.ReferralCode != "" {
		var err error
		referrer, err = s.users.GetByReferralCode(ctx, in.ReferralCode)
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidReferralCode
		}
		if err != nil {
			return nil, fmt.Errorf("resolve referral code: %w", err)
		}
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		UserID:       uuid.Must(uuid.NewV7()).String(),
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: hash,
		Role:         domain.UserRoleMember,
		Roles:        []domain.ProfessionalRole{},
	}

	var referral *domain.Referral
	if referrer != nil {
		referral = &domain.Referral{
			ReferralID: uuid.Must(uuid.NewV7()).String(),
			ReferrerID: referrer.UserID,
			Referee:    user.Summary(),
			Code:       in.ReferralCode,
		}
	}

	for attempt := 1; ; attempt++ {
		if user.ReferralCode, err = s.codes(); err != nil {
			return nil, fmt.Errorf("generate referral code: %w", err)
		}

		err = s.users.Create(ctx, user, referral)
		if !errors.Is(err, repository.ErrReferralCodeTaken) {
			break
		}
		if attempt == maxCodeAttempts {
			return nil, fmt.Errorf("referral code collision after %d attempts: %w", attempt, err)
		}
		s.logger.Debug("referral code collision, retrying", "attempt", attempt)
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user registered",
		"user_id", user.UserID,
		"referred", referrer != nil,
	)

	return s.open(user)
}

// Login checks credentials. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, textnorm.Email(in.Email))
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, in.Password); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("compare password: %w", err)
	}

	s.logger.Info("user logged in", "user_id", user.UserID)

	return s.open(user)
}

// Authenticate resolves a session token to its user.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (*domain.User, error) {
	userID, err := s.tokens.Verify(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}

	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("get session user: %w", err)
	}

	return user, nil
}

// SetAdmin grants or revokes the admin role by email.
func (s *AuthService) SetAdmin(ctx context.Context, email string, admin bool) (*domain.User, error) {
	role := domain.UserRoleMember
	if admin {
		role = domain.UserRoleAdmin
	}

	user, err := s.users.SetRole(ctx, textnorm.Email(email), role)
	if err != nil {
		return nil, fmt.Errorf("set role: %w", err)
	}

	s.logger.Info("user role changed", "user_id", user.UserID, "role", role)

	return user, nil
}

func (s *AuthService) open(user *domain.User) (*Session, error) {
	raw, expiresAt, err := s.tokens.Issue(user.UserID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{Token: raw, ExpiresAt: expiresAt, User: user}, nil
}
