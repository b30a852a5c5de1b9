package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ZertGraf/cresp/internal/domain"
	"github.com/ZertGraf/cresp/internal/pkg/logger"
	"github.com/ZertGraf/cresp/internal/pkg/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postSelect = `
	SELECT
		p.post_id, p.author_id, p.kind, p.content, p.visibility, p.status,
		p.created_at, p.updated_at,
		u.username, u.display_name, u.headline, u.avatar_url,
		pd.title, pd.role, pd.started_on, pd.ended_on, pd.technologies, pd.project_url
	FROM posts p
	INNER JOIN users u ON u.user_id = p.author_id
	LEFT JOIN portfolio_details pd ON pd.post_id = p.post_id`

type PostRepo struct {
	db     *pgxpool.Pool
	media  *MediaRepo
	logger *logger.Logger
}

func NewPostRepo(db *pgxpool.Pool, media *MediaRepo, logger *logger.Logger) *PostRepo {
	return &PostRepo{
		db:     db,
		media:  media,
		logger: logger.Component("repository/post"),
	}
}

// Create persists the post, its portfolio details and attaches media.
// Every media ID must be an unattached post upload owned by the author,
// otherwise nothing is written and ErrInvalidMedia is returned.
func (r *PostRepo) Create(ctx context.Context, post *domain.Post, mediaIDs []string) error {
	return postgres.WithTx(ctx, r.db, r.logger, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO posts (post_id, author_id, kind, content, visibility, status)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING created_at, updated_at
		`,
			post.PostID,
			post.AuthorID,
			post.Kind,
			post.Content,
			post.Visibility,
			post.Status,
		).Scan(&post.CreatedAt, &post.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert post: %w", err)
		}

		if p := post.Portfolio; p != nil {
			_, err := tx.Exec(ctx, `
				INSERT INTO portfolio_details (post_id, title, role, started_on, ended_on, technologies, project_url)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`, post.PostID, p.Title, p.Role, p.StartedOn, p.EndedOn, p.Technologies, p.ProjectURL)
			if err != nil {
				return fmt.Errorf("insert portfolio details: %w", err)
			}
		}

		for position, mediaID := range mediaIDs {
			result, err := tx.Exec(ctx, `
				UPDATE media
				SET post_id = $1, position = $2
				WHERE media_id = $3
				  AND owner_id = $4
				  AND purpose = 'post'
				  AND post_id IS NULL
			`, post.PostID, position, mediaID, post.AuthorID)
			if err != nil {
				return fmt.Errorf("attach media %s: %w", mediaID, err)
			}

			// not found, foreign or already attached
			if result.RowsAffected() == 0 {
				return domain.ErrInvalidMedia
			}
		}

		return nil
	})
}

// GetByID retrieves a post with author summary, portfolio details and media.
func (r *PostRepo) GetByID(ctx context.Context, postID string) (*domain.Post, error) {
	post, err := scanPost(r.db.QueryRow(ctx, postSelect+` WHERE p.post_id = $1`, postID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPostNotFound
		}
		return nil, fmt.Errorf("get post: %w", err)
	}

	media, err := r.media.ListByPosts(ctx, []string{post.PostID})
	if err != nil {
		return nil, err
	}
	post.Media = mediaOrEmpty(media[post.PostID])

	return post, nil
}

// Delete removes the post. Attached media is detached by the foreign key
// and later collected by the media janitor.
func (r *PostRepo) Delete(ctx context.Context, postID string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM posts WHERE post_id = $1`, postID)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrPostNotFound
	}
	return nil
}

// List runs a keyset query ordered by (created_at, post_id). Without an
// author filter only public published posts are returned; an author page
// also includes the viewer's own non-removed posts.
func (r *PostRepo) List(ctx context.Context, q domain.FeedQuery) ([]*domain.Post, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.AuthorID != "" {
		where = append(where, "p.author_id = "+arg(q.AuthorID))
		if q.ViewerID == q.AuthorID {
			where = append(where, "p.status <> 'removed'")
		} else {
			where = append(where, "p.visibility = 'public'", "p.status = 'published'")
		}
	} else {
		where = append(where, "p.visibility = 'public'", "p.status = 'published'")
	}

	if q.Kind != "" {
		where = append(where, "p.kind = "+arg(q.Kind))
	}

	direction, cmp := "DESC", "<"
	if q.Sort == domain.FeedSortOldest {
		direction, cmp = "ASC", ">"
	}

	if q.Cursor != "" {
		var cursorAt time.Time
		err := r.db.QueryRow(ctx, `SELECT created_at FROM posts WHERE post_id = $1`, q.Cursor).Scan(&cursorAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, domain.ErrInvalidCursor
			}
			return nil, fmt.Errorf("resolve cursor: %w", err)
		}
		where = append(where, fmt.Sprintf("(p.created_at, p.post_id) %s (%s, %s)", cmp, arg(cursorAt), arg(q.Cursor)))
	}

	query := fmt.Sprintf("%s WHERE %s ORDER BY p.created_at %s, p.post_id %s LIMIT %s",
		postSelect, strings.Join(where, " AND "), direction, direction, arg(q.Limit))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	posts := []*domain.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	if len(posts) == 0 {
		return posts, nil
	}

	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.PostID
	}
	media, err := r.media.ListByPosts(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, p := range posts {
		p.Media = mediaOrEmpty(media[p.PostID])
	}

	return posts, nil
}

func scanPost(row pgx.Row) (*domain.Post, error) {
	var (
		post   domain.Post
		author domain.UserSummary

		title, role, projectURL *string
		startedOn, endedOn      *time.Time
		technologies            []string
	)

	err := row.Scan(
		&post.PostID,
		&post.AuthorID,
		&post.Kind,
		&post.Content,
		&post.Visibility,
		&post.Status,
		&post.CreatedAt,
		&post.UpdatedAt,
		&author.Username,
		&author.DisplayName,
		&author.Headline,
		&author.AvatarURL,
		&title,
		&role,
		&startedOn,
		&endedOn,
		&technologies,
		&projectURL,
	)
	if err != nil {
		return nil, err
	}

	author.UserID = post.AuthorID
	post.Author = &author

	// portfolio columns are NULL for standard posts
	if title != nil && startedOn != nil {
		post.Portfolio = &domain.Portfolio{
			Title:        *title,
			Role:         deref(role),
			StartedOn:    *startedOn,
			EndedOn:      endedOn,
			Technologies: technologies,
			ProjectURL:   deref(projectURL),
		}
		if post.Portfolio.Technologies == nil {
			post.Portfolio.Technologies = []string{}
		}
	}

	return &post, nil
}

func mediaOrEmpty(m []*domain.Media) []*domain.Media {
	if m == nil {
		return []*domain.Media{}
	}
	return m
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
