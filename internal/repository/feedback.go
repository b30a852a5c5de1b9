package repository

import (
	"context"
	"fmt"

	"github.com/ZertGraf/cresp/internal/domain"
	"github.com/ZertGraf/cresp/internal/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FeedbackRepo struct {
	db     *pgxpool.Pool
	logger *logger.Logger
}

func NewFeedbackRepo(db *pgxpool.Pool, logger *logger.Logger) *FeedbackRepo {
	return &FeedbackRepo{
		db:     db,
		logger: logger.Component("repository/feedback"),
	}
}

func (r *FeedbackRepo) Create(ctx context.Context, f *domain.Feedback) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO feedback (feedback_id, user_id, category, message, rating, page_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, f.FeedbackID, f.UserID, f.Category, f.Message, f.Rating, f.PageURL).Scan(&f.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

func (r *FeedbackRepo) List(ctx context.Context, limit, offset int) ([]*domain.Feedback, error) {
	rows, err := r.db.Query(ctx, `
		SELECT feedback_id, user_id, category, message, rating, page_url, created_at
		FROM feedback
		ORDER BY created_at DESC, feedback_id DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query feedback: %w", err)
	}
	defer rows.Close()

	items := []*domain.Feedback{}
	for rows.Next() {
		var f domain.Feedback
		if err := rows.Scan(&f.FeedbackID, &f.UserID, &f.Category, &f.Message, &f.Rating, &f.PageURL, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		items = append(items, &f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return items, nil
}
