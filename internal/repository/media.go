package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/ZertGraf/cresp/internal/domain"
	"github.com/ZertGraf/cresp/internal/pkg/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const mediaColumns = `
	media_id, owner_id, post_id, purpose, kind, storage_key, url,
	content_type, size_bytes, created_at`

type MediaRepo struct {
	db     *pgxpool.Pool
	logger *logger.Logger
}

func NewMediaRepo(db *pgxpool.Pool, logger *logger.Logger) *MediaRepo {
	return &MediaRepo{
		db:     db,
		logger: logger.Component("repository/media"),
	}
}

func (r *MediaRepo) Create(ctx context.Context, media *domain.Media) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO media (media_id, owner_id, purpose, kind, storage_key, url, content_type, size_bytes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`,
		media.MediaID,
		media.OwnerID,
		media.Purpose,
		media.Kind,
		media.StorageKey,
		media.URL,
		media.ContentType,
		media.SizeBytes,
	).Scan(&media.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert media: %w", err)
	}
	return nil
}

// ListByPosts groups the attached media of the given posts by post ID,
// each group in attachment order.
func (r *MediaRepo) ListByPosts(ctx context.Context, postIDs []string) (map[string][]*domain.Media, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+mediaColumns+`
		FROM media
		WHERE post_id = ANY($1)
		ORDER BY post_id, position
	`, postIDs)
	if err != nil {
		return nil, fmt.Errorf("query media: %w", err)
	}
	defer rows.Close()

	byPost := make(map[string][]*domain.Media, len(postIDs))
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, fmt.Errorf("scan media: %w", err)
		}
		byPost[*m.PostID] = append(byPost[*m.PostID], m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return byPost, nil
}

// ListOrphans returns post uploads that were never attached (or whose post
// was deleted) and are older than createdBefore.
func (r *MediaRepo) ListOrphans(ctx context.Context, createdBefore time.Time, limit int) ([]*domain.Media, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+mediaColumns+`
		FROM media
		WHERE post_id IS NULL
		  AND purpose = 'post'
		  AND created_at < $1
		ORDER BY created_at
		LIMIT $2
	`, createdBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("query orphan media: %w", err)
	}
	defer rows.Close()

	orphans := []*domain.Media{}
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, fmt.Errorf("scan media: %w", err)
		}
		orphans = append(orphans, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return orphans, nil
}

// Delete removes an unattached media row. Media attached in the meantime is
// left alone.
func (r *MediaRepo) Delete(ctx context.Context, mediaID string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM media WHERE media_id = $1 AND post_id IS NULL`, mediaID)
	if err != nil {
		return fmt.Errorf("delete media: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrMediaNotFound
	}
	return nil
}

func scanMedia(row pgx.Row) (*domain.Media, error) {
	var m domain.Media
	err := row.Scan(
		&m.MediaID,
		&m.OwnerID,
		&m.PostID,
		&m.Purpose,
		&m.Kind,
		&m.StorageKey,
		&m.URL,
		&m.ContentType,
		&m.SizeBytes,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
