package domain

import "time"

type PostKind string

const (
	PostKindStandard  PostKind = "standard"
	PostKindPortfolio PostKind = "portfolio"
)

type PostVisibility string

const (
	VisibilityPublic  PostVisibility = "public"
	VisibilityPrivate PostVisibility = "private"
)

type PostStatus string

const (
	PostStatusPublished   PostStatus = "published"
	PostStatusUnderReview PostStatus = "under_review"
	PostStatusRemoved     PostStatus = "removed"
)

type Post struct {
	PostID     string         `json:"post_id"`
	AuthorID   string         `json:"author_id"`
	Kind       PostKind       `json:"kind"`
	Content    string         `json:"content"`
	Visibility PostVisibility `json:"visibility"`
	Status     PostStatus     `json:"status"`
	Portfolio  *Portfolio     `json:"portfolio,omitempty"`
	Media      []*Media       `json:"media"`
	Author     *UserSummary   `json:"author,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// VisibleTo reports whether the viewer may read the post. Private and
// moderated posts are only visible to their author.
func (p *Post) VisibleTo(viewerID string) bool {
	if p.AuthorID == viewerID && p.Status != PostStatusRemoved {
		return true
	}
	return p.Visibility == VisibilityPublic && p.Status == PostStatusPublished
}

type Portfolio struct {
	Title        string     `json:"title"`
	Role         string     `json:"role"`
	StartedOn    time.Time  `json:"started_on"`
	EndedOn      *time.Time `json:"ended_on,omitempty"`
	Technologies []string   `json:"technologies"`
	ProjectURL   string     `json:"project_url,omitempty"`
}
