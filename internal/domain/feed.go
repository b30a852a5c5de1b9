package domain

type FeedSort string

const (
	FeedSortLatest FeedSort = "latest"
	FeedSortOldest FeedSort = "oldest"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 50
)

// FeedQuery selects one page of posts. Cursor is the ID of the last post of
// the previous page.
type FeedQuery struct {
	Cursor   string
	Limit    int
	LimitSet bool // Limit was given by the caller, even if zero
	Sort     FeedSort
	Kind     PostKind // empty means all kinds
	AuthorID string   // empty means every author
	ViewerID string   // author pages include the viewer's own hidden posts
}

// Normalize fills defaults and clamps the limit to 1..MaxPageSize. The
// default page size applies only when no limit was given.
func (q FeedQuery) Normalize() FeedQuery {
	if !q.LimitSet && q.Limit == 0 {
		q.Limit = DefaultPageSize
	}
	q.Limit = min(max(q.Limit, 1), MaxPageSize)
	q.LimitSet = true
	if q.Sort == "" {
		q.Sort = FeedSortLatest
	}
	return q
}

type FeedPage struct {
	Items      []*Post `json:"items"`
	NextCursor *string `json:"next_cursor"`
}
