package service

import (
	"context"
	"fmt"

	"github.com/ZertGraf/cresp/internal/domain"
	"github.com/ZertGraf/cresp/internal/pkg/logger"
	"github.com/ZertGraf/cresp/internal/pkg/textnorm"
	"github.com/ZertGraf/cresp/internal/repository"
)

type FeedService struct {
	posts  repository.PostRepository
	users  repository.UserRepository
	logger *logger.Logger
}

func NewFeedService(
	posts repository.PostRepository,
	users repository.UserRepository,
	logger *logger.Logger,
) *FeedService {
	return &FeedService{
		posts:  posts,
		users:  users,
		logger: logger.Component("service/feed"),
	}
}

// Feed returns one page of the public timeline.
func (s *FeedService) Feed(ctx context.Context, viewer *domain.User, q domain.FeedQuery) (*domain.FeedPage, error) {
	if !viewer.Onboarded() {
		return nil, domain.ErrOnboardingRequired
	}

	q.AuthorID = ""
	q.ViewerID = viewer.UserID
	return s.page(ctx, q)
}

// AuthorPosts pages through one author's posts. The author sees their
// private and moderated posts as well.
func (s *FeedService) AuthorPosts(ctx context.Context, username, viewerID string, q domain.FeedQuery) (*domain.FeedPage, error) {
	author, err := s.users.GetByUsername(ctx, textnorm.Username(username))
	if err != nil {
		return nil, fmt.Errorf("get author: %w", err)
	}

	q.AuthorID = author.UserID
	q.ViewerID = viewerID
	return s.page(ctx, q)
}

func (s *FeedService) page(ctx context.Context, q domain.FeedQuery) (*domain.FeedPage, error) {
	q = q.Normalize()
	limit := q.Limit

	// one extra row tells whether another page exists
	q.Limit = limit + 1
	posts, err := s.posts.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	if posts == nil {
		posts = []*domain.Post{}
	}

	page := &domain.FeedPage{Items: posts}
	if len(posts) > limit {
		page.Items = posts[:limit]
		next := page.Items[limit-1].PostID
		page.NextCursor = &next
	}

	s.logger.Debug("feed page served",
		"author_id", q.AuthorID,
		"items", len(page.Items),
		"has_more", page.NextCursor != nil,
	)

	return page, nil
}
