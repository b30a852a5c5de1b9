package repository

import (
	"context"
	"fmt"

	"github.com/ZertGraf/cresp/internal/domain"
	"github.com/ZertGraf/cresp/internal/pkg/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReferralRepo struct {
	db     *pgxpool.Pool
	logger *logger.Logger
}

func NewReferralRepo(db *pgxpool.Pool, logger *logger.Logger) *ReferralRepo {
	return &ReferralRepo{
		db:     db,
		logger: logger.Component("repository/referral"),
	}
}

// insertReferral records the referral and increments the referrer's counter.
func insertReferral(ctx context.Context, tx pgx.Tx, referral *domain.Referral) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO referrals (referral_id, referrer_id, referee_id, code)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`,
		referral.ReferralID,
		referral.ReferrerID,
		referral.Referee.UserID,
		referral.Code,
	).Scan(&referral.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert referral: %w", err)
	}

	result, err := tx.Exec(ctx, `
		UPDATE users SET referral_count = referral_count + 1
		WHERE user_id = $1
	`, referral.ReferrerID)
	if err != nil {
		return fmt.Errorf("increment referral count: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrInvalidReferralCode
	}

	return nil
}

// ListByReferrer returns the users referred by referrerID, newest first.
func (r *ReferralRepo) ListByReferrer(ctx context.Context, referrerID string) ([]*domain.Referral, error) {
	rows, err := r.db.Query(ctx, `
		SELECT
			rf.referral_id,
			rf.code,
			rf.created_at,
			u.user_id,
			u.username,
			u.display_name,
			u.headline,
			u.avatar_url
		FROM referrals rf
		INNER JOIN users u ON u.user_id = rf.referee_id
		WHERE rf.referrer_id = $1
		ORDER BY rf.created_at DESC
	`, referrerID)
	if err != nil {
		return nil, fmt.Errorf("query referrals: %w", err)
	}
	defer rows.Close()

	referrals := []*domain.Referral{}
	for rows.Next() {
		ref := &domain.Referral{ReferrerID: referrerID}
		if err := rows.Scan(
			&ref.ReferralID,
			&ref.Code,
			&ref.CreatedAt,
			&ref.Referee.UserID,
			&ref.Referee.Username,
			&ref.Referee.DisplayName,
			&ref.Referee.Headline,
			&ref.Referee.AvatarURL,
		); err != nil {
			return nil, fmt.Errorf("scan referral: %w", err)
		}
		referrals = append(referrals, ref)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return referrals, nil
}
