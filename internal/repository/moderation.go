package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/ZertGraf/cresp/internal/domain"
	"github.com/ZertGraf/cresp/internal/pkg/logger"
	"github.com/ZertGraf/cresp/internal/pkg/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const queueColumns = `
	entry_id, post_id, category, report_count, total_weight, status,
	created_at, updated_at, resolved_at, resolved_by`

type ModerationRepo struct {
	db     *pgxpool.Pool
	logger *logger.Logger
}

func NewModerationRepo(db *pgxpool.Pool, logger *logger.Logger) *ModerationRepo {
	return &ModerationRepo{
		db:     db,
		logger: logger.Component("repository/moderation"),
	}
}

// RecordReport stores the report and folds its weight into the queue row
// for (post, category). A dismissed row is reopened with fresh counters.
// When the post's pending weight reaches hideThreshold a published post is
// moved to under_review.
func (r *ModerationRepo) RecordReport(ctx context.Context, report *domain.Report, hideThreshold float64) (*domain.ReportOutcome, error) {
	outcome := &domain.ReportOutcome{Report: report}

	err := postgres.WithTx(ctx, r.db, r.logger, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO moderation_reports (report_id, post_id, reporter_id, category, reason, weight)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING created_at
		`,
			report.ReportID,
			report.PostID,
			report.ReporterID,
			report.Category,
			report.Reason,
			report.Weight,
		).Scan(&report.CreatedAt)
		if err != nil {
			if _, ok := postgres.UniqueViolation(err); ok {
				return domain.ErrAlreadyReported
			}
			return fmt.Errorf("insert report: %w", err)
		}

		entry, err := scanQueueEntry(tx.QueryRow(ctx, `
			INSERT INTO moderation_queue (entry_id, post_id, category, report_count, total_weight, status)
			VALUES ($1, $2, $3, 1, $4, 'pending')
			ON CONFLICT (post_id, category)
			DO UPDATE SET
				report_count = CASE WHEN moderation_queue.status = 'dismissed'
					THEN 1 ELSE moderation_queue.report_count + 1 END,
				total_weight = CASE WHEN moderation_queue.status = 'dismissed'
					THEN EXCLUDED.total_weight ELSE moderation_queue.total_weight + EXCLUDED.total_weight END,
				status = CASE WHEN moderation_queue.status = 'dismissed'
					THEN 'pending' ELSE moderation_queue.status END,
				resolved_at = CASE WHEN moderation_queue.status = 'dismissed'
					THEN NULL ELSE moderation_queue.resolved_at END,
				resolved_by = CASE WHEN moderation_queue.status = 'dismissed'
					THEN NULL ELSE moderation_queue.resolved_by END,
				updated_at = NOW()
			RETURNING `+queueColumns,
			uuid.Must(uuid.NewV7()).String(),
			report.PostID,
			report.Category,
			report.Weight,
		))
		if err != nil {
			return fmt.Errorf("upsert queue entry: %w", err)
		}
		outcome.Entry = entry

		err = tx.QueryRow(ctx, `
			SELECT COALESCE(SUM(total_weight), 0)
			FROM moderation_queue
			WHERE post_id = $1 AND status = 'pending'
		`, report.PostID).Scan(&outcome.PendingTotal)
		if err != nil {
			return fmt.Errorf("sum pending weight: %w", err)
		}

		if outcome.PendingTotal < hideThreshold {
			return nil
		}

		result, err := tx.Exec(ctx, `
			UPDATE posts SET status = 'under_review', updated_at = NOW()
			WHERE post_id = $1 AND status = 'published'
		`, report.PostID)
		if err != nil {
			return fmt.Errorf("hide post: %w", err)
		}
		outcome.PostHidden = result.RowsAffected() > 0

		return nil
	})
	if err != nil {
		return nil, err
	}

	return outcome, nil
}

func (r *ModerationRepo) GetEntry(ctx context.Context, entryID string) (*domain.QueueEntry, error) {
	entry, err := scanQueueEntry(r.db.QueryRow(ctx, `SELECT `+queueColumns+` FROM moderation_queue WHERE entry_id = $1`, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrQueueEntryNotFound
		}
		return nil, fmt.Errorf("get queue entry: %w", err)
	}
	return entry, nil
}

// ListQueue returns entries with the given status, heaviest first.
func (r *ModerationRepo) ListQueue(ctx context.Context, status domain.QueueStatus, limit, offset int) ([]*domain.QueueEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+queueColumns+`
		FROM moderation_queue
		WHERE status = $1
		ORDER BY total_weight DESC, updated_at DESC, entry_id
		LIMIT $2 OFFSET $3
	`, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query queue: %w", err)
	}
	defer rows.Close()

	entries := []*domain.QueueEntry{}
	for rows.Next() {
		entry, err := scanQueueEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan queue entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return entries, nil
}

// Resolve closes every pending entry of the entry's post and applies the
// action to the post itself.
func (r *ModerationRepo) Resolve(ctx context.Context, entryID string, action domain.ResolveAction, adminID string) ([]*domain.QueueEntry, error) {
	status := domain.QueueStatusDismissed
	if action == domain.ResolveRemove {
		status = domain.QueueStatusActioned
	}

	var resolved []*domain.QueueEntry
	err := postgres.WithTx(ctx, r.db, r.logger, func(tx pgx.Tx) error {
		entry, err := scanQueueEntry(tx.QueryRow(ctx,
			`SELECT `+queueColumns+` FROM moderation_queue WHERE entry_id = $1 FOR UPDATE`, entryID))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrQueueEntryNotFound
			}
			return fmt.Errorf("lock queue entry: %w", err)
		}
		if entry.Status != domain.QueueStatusPending {
			return domain.ErrAlreadyResolved
		}

		rows, err := tx.Query(ctx, `
			UPDATE moderation_queue
			SET status = $1, resolved_at = NOW(), resolved_by = $2, updated_at = NOW()
			WHERE post_id = $3 AND status = 'pending'
			RETURNING `+queueColumns,
			status, adminID, entry.PostID)
		if err != nil {
			return fmt.Errorf("resolve entries: %w", err)
		}
		for rows.Next() {
			e, err := scanQueueEntry(rows)
			if err != nil {
				rows.Close()
				return fmt.Errorf("scan queue entry: %w", err)
			}
			resolved = append(resolved, e)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate rows: %w", err)
		}

		postQuery := `
			UPDATE posts SET status = 'published', updated_at = NOW()
			WHERE post_id = $1 AND status = 'under_review'`
		if action == domain.ResolveRemove {
			postQuery = `
				UPDATE posts SET status = 'removed', updated_at = NOW()
				WHERE post_id = $1`
		}
		if _, err := tx.Exec(ctx, postQuery, entry.PostID); err != nil {
			return fmt.Errorf("update post status: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return resolved, nil
}

func scanQueueEntry(row pgx.Row) (*domain.QueueEntry, error) {
	var e domain.QueueEntry
	err := row.Scan(
		&e.EntryID,
		&e.PostID,
		&e.Category,
		&e.ReportCount,
		&e.TotalWeight,
		&e.Status,
		&e.CreatedAt,
		&e.UpdatedAt,
		&e.ResolvedAt,
		&e.ResolvedBy,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
