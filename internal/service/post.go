package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"

	"github.com/ZertGraf/cresp/internal/domain"
	"github.com/ZertGraf/cresp/internal/pkg/logger"
	"github.com/ZertGraf/cresp/internal/pkg/textnorm"
	"github.com/ZertGraf/cresp/internal/repository"
)

const (
	dateLayout       = "2006-01-02"
	maxMediaPerPost  = 10
	maxTechnologies  = 20
	maxTechnologyLen = 40
)

type PortfolioInput struct {
	Title        string   `json:"title"`
	Role         string   `json:"role"`
	StartedOn    string   `json:"started_on"`
	EndedOn      string   `json:"ended_on"`
	Technologies []string `json:"technologies"`
	ProjectURL   string   `json:"project_url"`
}

func (in *PortfolioInput) normalize() {
	in.Title = textnorm.Text(in.Title)
	in.Role = textnorm.Text(in.Role)
	in.StartedOn = strings.TrimSpace(in.StartedOn)
	in.EndedOn = strings.TrimSpace(in.EndedOn)
	in.ProjectURL = strings.TrimSpace(in.ProjectURL)

	techs := make([]string, 0, len(in.Technologies))
	seen := make(map[string]bool, len(in.Technologies))
	for _, t := range in.Technologies {
		t = textnorm.Text(t)
		key := strings.ToLower(t)
		if seen[key] {
			continue
		}
		seen[key] = true
		techs = append(techs, t)
	}
	in.Technologies = techs
}

func (in *PortfolioInput) Validate() error {
	return validation.ValidateStruct(in,
		validation.Field(&in.Title, validation.Required, validation.RuneLength(1, 120)),
		validation.Field(&in.Role, validation.Required, validation.RuneLength(1, 80)),
		validation.Field(&in.StartedOn, validation.Required, validation.Date(dateLayout)),
		validation.Field(&in.EndedOn, validation.Date(dateLayout), validation.By(in.endsAfterStart)),
		validation.Field(&in.Technologies, validation.Required, validation.Length(1, maxTechnologies),
			validation.By(technologiesValid)),
		validation.Field(&in.ProjectURL, validation.RuneLength(0, 2048), is.URL),
	)
}

func (in *PortfolioInput) endsAfterStart(value interface{}) error {
	ended, _ := value.(string)
	if ended == "" {
		return nil
	}
	start, err1 := time.Parse(dateLayout, in.StartedOn)
	end, err2 := time.Parse(dateLayout, ended)
	if err1 != nil || err2 != nil {
		// reported by the Date rules
		return nil
	}
	if end.Before(start) {
		return errors.New("must not be before started_on")
	}
	return nil
}

func technologiesValid(value interface{}) error {
	techs, _ := value.([]string)
	for _, t := range techs {
		if n := len([]rune(t)); n == 0 || n > maxTechnologyLen {
			return fmt.Errorf("each technology must be 1 to %d characters", maxTechnologyLen)
		}
	}
	return nil
}

func (in *PortfolioInput) portfolio() *domain.Portfolio {
	started, _ := time.Parse(dateLayout, in.StartedOn)
	p := &domain.Portfolio{
		Title:        in.Title,
		Role:         in.Role,
		StartedOn:    started,
		Technologies: in.Technologies,
		ProjectURL:   in.ProjectURL,
	}
	if in.EndedOn != "" {
		ended, _ := time.Parse(dateLayout, in.EndedOn)
		p.EndedOn = &ended
	}
	return p
}

type CreatePostInput struct {
	Kind       domain.PostKind       `json:"kind"`
	Content    string                `json:"content"`
	Visibility domain.PostVisibility `json:"visibility"`
	MediaIDs   []string              `json:"media_ids"`
	Portfolio  *PortfolioInput       `json:"portfolio"`
}

func (in *CreatePostInput) normalize() {
	in.Content = textnorm.Multiline(in.Content)
	if in.Kind == "" {
		in.Kind = domain.PostKindStandard
	}
	if in.Visibility == "" {
		in.Visibility = domain.VisibilityPublic
	}
	if in.Portfolio != nil {
		in.Portfolio.normalize()
	}
}

func (in *CreatePostInput) Validate() error {
	portfolioRules := []validation.Rule{validation.By(absent)}
	if in.Kind == domain.PostKindPortfolio {
		portfolioRules = []validation.Rule{validation.NotNil}
	}

	return validation.ValidateStruct(in,
		validation.Field(&in.Kind, validation.In(domain.PostKindStandard, domain.PostKindPortfolio)),
		validation.Field(&in.Content, validation.Required, validation.RuneLength(1, 5000)),
		validation.Field(&in.Visibility, validation.In(domain.VisibilityPublic, domain.VisibilityPrivate)),
		validation.Field(&in.MediaIDs, validation.Length(0, maxMediaPerPost), validation.By(distinctIDs)),
		validation.Field(&in.Portfolio, portfolioRules...),
	)
}

func absent(value interface{}) error {
	if p, _ := value.(*PortfolioInput); p != nil {
		return errors.New("only allowed on portfolio posts")
	}
	return nil
}

func distinctIDs(value interface{}) error {
	ids, _ := value.([]string)
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return errors.New("must not contain duplicates")
		}
		seen[id] = true
	}
	return nil
}

type PostService struct {
	posts  repository.PostRepository
	logger *logger.Logger
}

func NewPostService(posts repository.PostRepository, logger *logger.Logger) *PostService {
	return &PostService{
		posts:  posts,
		logger: logger.Component("service/post"),
	}
}

func (s *PostService) Create(ctx context.Context, author *domain.User, in CreatePostInput) (*domain.Post, error) {
	if !author.Onboarded() {
		return nil, domain.ErrOnboardingRequired
	}

	in.normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	post := &domain.Post{
		PostID:     uuid.Must(uuid.NewV7()).String(),
		AuthorID:   author.UserID,
		Kind:       in.Kind,
		Content:    in.Content,
		Visibility: in.Visibility,
		Status:     domain.PostStatusPublished,
	}
	if in.Portfolio != nil {
		post.Portfolio = in.Portfolio.portfolio()
	}

	if err := s.posts.Create(ctx, post, in.MediaIDs); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	s.logger.Info("post created",
		"post_id", post.PostID,
		"author_id", author.UserID,
		"kind", post.Kind,
		"media", len(in.MediaIDs),
	)

	created, err := s.posts.GetByID(ctx, post.PostID)
	if err != nil {
		return nil, fmt.Errorf("get created post: %w", err)
	}

	return created, nil
}

// Get returns the post if the viewer may see it. Hidden posts look the same
// as missing ones to everybody but their author.
func (s *PostService) Get(ctx context.Context, postID, viewerID string) (*domain.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	if !post.VisibleTo(viewerID) {
		return nil, domain.ErrPostNotFound
	}
	return post, nil
}

func (s *PostService) Delete(ctx context.Context, postID string, actor *domain.User) error {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return fmt.Errorf("get post: %w", err)
	}

	if post.AuthorID != actor.UserID && !actor.IsAdmin() {
		if !post.VisibleTo(actor.UserID) {
			return domain.ErrPostNotFound
		}
		return domain.ErrForbidden
	}

	if err := s.posts.Delete(ctx, postID); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}

	s.logger.Info("post deleted",
		"post_id", postID,
		"actor_id", actor.UserID,
		"by_admin", post.AuthorID != actor.UserID,
	)

	return nil
}
