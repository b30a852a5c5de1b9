package service

import (
	"context"
	"crypto/rand"
	"fmt"

	"github.com/ZertGraf/cresp/internal/domain"
	"github.com/ZertGraf/cresp/internal/pkg/logger"
	"github.com/ZertGraf/cresp/internal/repository"
)

const (
	ReferralCodeLength = 10

	// no 0/O, 1/I/L
	referralAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"
)

// NewReferralCode returns a random code drawn from an alphabet without
// easily confused characters.
func NewReferralCode() (string, error) {
	buf := make([]byte, ReferralCodeLength)
	code := make([]byte, 0, ReferralCodeLength)

	// reject bytes above the largest multiple of the alphabet size
	limit := byte(256 - 256%len(referralAlphabet))
	for len(code) < ReferralCodeLength {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			code = append(code, referralAlphabet[int(b)%len(referralAlphabet)])
			if len(code) == ReferralCodeLength {
				break
			}
		}
	}
	return string(code), nil
}

type ReferralService struct {
	users     repository.UserRepository
	referrals repository.ReferralRepository
	logger    *logger.Logger
}

func NewReferralService(
	users repository.UserRepository,
	referrals repository.ReferralRepository,
	logger *logger.Logger,
) *ReferralService {
	return &ReferralService{
		users:     users,
		referrals: referrals,
		logger:    logger.Component("service/referral"),
	}
}

// Stats returns the user's code and everyone who signed up with it.
func (s *ReferralService) Stats(ctx context.Context, userID string) (*domain.ReferralStats, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	referrals, err := s.referrals.ListByReferrer(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list referrals: %w", err)
	}

	return &domain.ReferralStats{
		Code:      user.ReferralCode,
		Count:     user.ReferralCount,
		Referrals: referrals,
	}, nil
}
