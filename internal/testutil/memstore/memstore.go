// Package memstore is an in-memory implementation of the repository
// interfaces for service and handler tests. It mirrors the constraints the
// PostgreSQL schema enforces.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ZertGraf/cresp/internal/domain"
	"github.com/ZertGraf/cresp/internal/repository"
)

type Store struct {
	mu sync.Mutex

	users     map[string]*domain.User
	userRoles map[string][]string
	roles     []domain.ProfessionalRole
	posts     map[string]*domain.Post
	media     map[string]*mediaRow
	reports   []*domain.Report
	queue     map[string]*domain.QueueEntry
	referrals []*domain.Referral
	feedback  []*domain.Feedback

	// Now stamps created_at columns. Tests may replace it.
	Now func() time.Time
}

type mediaRow struct {
	domain.Media
	position int
}

func New() *Store {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var tick time.Duration
	return &Store{
		users:     map[string]*domain.User{},
		userRoles: map[string][]string{},
		posts:     map[string]*domain.Post{},
		media:     map[string]*mediaRow{},
		queue:     map[string]*domain.QueueEntry{},
		Now: func() time.Time {
			tick += time.Second
			return base.Add(tick)
		},
	}
}

func (s *Store) Users() repository.UserRepository             { return userRepo{s} }
func (s *Store) Roles() repository.RoleRepository             { return roleRepo{s} }
func (s *Store) Posts() repository.PostRepository             { return postRepo{s} }
func (s *Store) Media() repository.MediaRepository            { return mediaRepo{s} }
func (s *Store) Moderation() repository.ModerationRepository  { return moderationRepo{s} }
func (s *Store) Referrals() repository.ReferralRepository     { return referralRepo{s} }
func (s *Store) Feedback() repository.FeedbackRepository      { return feedbackRepo{s} }

// PostStatus returns the stored status of a post.
func (s *Store) PostStatus(postID string) domain.PostStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.posts[postID]; ok {
		return p.Status
	}
	return ""
}

// MediaCount returns the number of stored media rows.
func (s *Store) MediaCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.media)
}

// SetCreatedAt rewrites a row's creation time.
func (s *Store) SetCreatedAt(id string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.CreatedAt = at
	}
	if p, ok := s.posts[id]; ok {
		p.CreatedAt = at
	}
	if m, ok := s.media[id]; ok {
		m.CreatedAt = at
	}
}

// ---- users ----

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, user *domain.User, referral *domain.Referral) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		switch {
		case u.Email == user.Email:
			return domain.ErrEmailTaken
		case u.Username == user.Username:
			return domain.ErrUsernameTaken
		case u.ReferralCode == user.ReferralCode:
			return repository.ErrReferralCodeTaken
		}
	}

	var referrer *domain.User
	if referral != nil {
		var ok bool
		if referrer, ok = s.users[referral.ReferrerID]; !ok {
			return domain.ErrInvalidReferralCode
		}
	}

	now := s.Now()
	stored := *user
	stored.CreatedAt, stored.UpdatedAt = now, now
	s.users[user.UserID] = &stored
	user.CreatedAt, user.UpdatedAt = now, now

	if referral != nil {
		referral.CreatedAt = now
		ref := *referral
		s.referrals = append(s.referrals, &ref)
		referrer.ReferralCount++
	}
	return nil
}

func (r userRepo) find(match func(*domain.User) bool) (*domain.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if match(u) {
			return s.userCopy(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// userCopy returns a detached copy with roles filled in. Caller holds mu.
func (s *Store) userCopy(u *domain.User) *domain.User {
	c := *u
	c.Roles = []domain.ProfessionalRole{}
	for _, id := range s.userRoles[u.UserID] {
		for _, role := range s.roles {
			if role.RoleID == id {
				c.Roles = append(c.Roles, role)
			}
		}
	}
	return &c
}

func (r userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.UserID == id })
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Email == email })
}

func (r userRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Username == username })
}

func (r userRepo) GetByReferralCode(_ context.Context, code string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.ReferralCode == code })
}

func applyUpdate(u *domain.User, update domain.ProfileUpdate) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&u.DisplayName, update.DisplayName)
	set(&u.Headline, update.Headline)
	set(&u.Bio, update.Bio)
	set(&u.Location, update.Location)
	set(&u.Website, update.Website)
}

func (r userRepo) UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate) (*domain.User, error) {
	s := r.s
	s.mu.Lock()
	u, ok := s.users[id]
	if ok {
		applyUpdate(u, update)
		u.UpdatedAt = s.Now()
	}
	s.mu.Unlock()
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return r.GetByID(ctx, id)
}

func (r userRepo) CompleteOnboarding(ctx context.Context, id string, update domain.ProfileUpdate, roleIDs []string) (*domain.User, error) {
	s := r.s
	s.mu.Lock()
	u, ok := s.users[id]
	if ok {
		applyUpdate(u, update)
		if u.OnboardedAt == nil {
			now := s.Now()
			u.OnboardedAt = &now
		}
		s.userRoles[id] = append([]string(nil), roleIDs...)
	}
	s.mu.Unlock()
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return r.GetByID(ctx, id)
}

func (r userRepo) SetAvatar(ctx context.Context, id, avatarURL string) (*domain.User, error) {
	s := r.s
	s.mu.Lock()
	u, ok := s.users[id]
	if ok {
		u.AvatarURL = avatarURL
	}
	s.mu.Unlock()
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return r.GetByID(ctx, id)
}

func (r userRepo) SetRole(ctx context.Context, email string, role domain.UserRole) (*domain.User, error) {
	s := r.s
	s.mu.Lock()
	var found *domain.User
	for _, u := range s.users {
		if u.Email == email {
			u.Role = role
			found = u
		}
	}
	s.mu.Unlock()
	if found == nil {
		return nil, domain.ErrUserNotFound
	}
	return r.GetByEmail(ctx, email)
}

// ---- roles ----

type roleRepo struct{ s *Store }

func (r roleRepo) List(_ context.Context) ([]domain.ProfessionalRole, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]domain.ProfessionalRole{}, r.s.roles...), nil
}

func (r roleRepo) Upsert(_ context.Context, roles []domain.ProfessionalRole) (int, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := 0
	for _, role := range roles {
		replaced := false
		for i := range s.roles {
			if s.roles[i].Slug == role.Slug {
				replaced = true
				if s.roles[i].Name != role.Name || s.roles[i].Category != role.Category {
					s.roles[i].Name, s.roles[i].Category = role.Name, role.Category
					changed++
				}
			}
		}
		if !replaced {
			s.roles = append(s.roles, role)
			changed++
		}
	}
	return changed, nil
}

func (r roleRepo) ExistingIDs(_ context.Context, ids []string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing := []string{}
	for _, id := range ids {
		for _, role := range r.s.roles {
			if role.RoleID == id {
				existing = append(existing, id)
			}
		}
	}
	return existing, nil
}

// ---- posts ----

type postRepo struct{ s *Store }

func (r postRepo) Create(_ context.Context, post *domain.Post, mediaIDs []string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range mediaIDs {
		m, ok := s.media[id]
		if !ok || m.OwnerID != post.AuthorID || m.Purpose != domain.MediaPurposePost || m.PostID != nil {
			return domain.ErrInvalidMedia
		}
	}

	now := s.Now()
	post.CreatedAt, post.UpdatedAt = now, now
	stored := *post
	s.posts[post.PostID] = &stored

	for i, id := range mediaIDs {
		postID := post.PostID
		s.media[id].PostID = &postID
		s.media[id].position = i
	}
	return nil
}

// hydrate copies the post and fills author and media. Caller holds mu.
func (s *Store) hydrate(p *domain.Post) *domain.Post {
	c := *p
	if u, ok := s.users[p.AuthorID]; ok {
		summary := u.Summary()
		c.Author = &summary
	}
	c.Media = []*domain.Media{}
	var rows []*mediaRow
	for _, m := range s.media {
		if m.PostID != nil && *m.PostID == p.PostID {
			rows = append(rows, m)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].position < rows[j].position })
	for _, m := range rows {
		mc := m.Media
		c.Media = append(c.Media, &mc)
	}
	return &c
}

func (r postRepo) GetByID(_ context.Context, id string) (*domain.Post, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, domain.ErrPostNotFound
	}
	return s.hydrate(p), nil
}

func (r postRepo) Delete(_ context.Context, id string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[id]; !ok {
		return domain.ErrPostNotFound
	}
	delete(s.posts, id)
	for _, m := range s.media {
		if m.PostID != nil && *m.PostID == id {
			m.PostID = nil
		}
	}
	return nil
}

func less(a, b *domain.Post) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.PostID < b.PostID
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

func (r postRepo) List(_ context.Context, q domain.FeedQuery) ([]*domain.Post, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	var cursor *domain.Post
	if q.Cursor != "" {
		var ok bool
		if cursor, ok = s.posts[q.Cursor]; !ok {
			return nil, domain.ErrInvalidCursor
		}
	}

	var matched []*domain.Post
	for _, p := range s.posts {
		public := p.Visibility == domain.VisibilityPublic && p.Status == domain.PostStatusPublished
		switch {
		case q.AuthorID != "" && p.AuthorID != q.AuthorID:
			continue
		case q.AuthorID != "" && q.ViewerID == q.AuthorID:
			if p.Status == domain.PostStatusRemoved {
				continue
			}
		case !public:
			continue
		}
		if q.Kind != "" && p.Kind != q.Kind {
			continue
		}
		matched = append(matched, p)
	}

	oldest := q.Sort == domain.FeedSortOldest
	sort.Slice(matched, func(i, j int) bool {
		if oldest {
			return less(matched[i], matched[j])
		}
		return less(matched[j], matched[i])
	})

	out := []*domain.Post{}
	for _, p := range matched {
		if cursor != nil {
			after := less(cursor, p)
			if !oldest {
				after = less(p, cursor)
			}
			if !after {
				continue
			}
		}
		out = append(out, s.hydrate(p))
		if len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

// ---- media ----

type mediaRepo struct{ s *Store }

func (r mediaRepo) Create(_ context.Context, m *domain.Media) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	m.CreatedAt = s.Now()
	s.media[m.MediaID] = &mediaRow{Media: *m}
	return nil
}

// HasMedia reports whether a media row exists.
func (s *Store) HasMedia(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.media[id]
	return ok
}

func (r mediaRepo) ListByPosts(_ context.Context, postIDs []string) (map[string][]*domain.Media, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string][]*domain.Media{}
	for _, id := range postIDs {
		if p, ok := s.posts[id]; ok {
			out[id] = s.hydrate(p).Media
		}
	}
	return out, nil
}

func (r mediaRepo) ListOrphans(_ context.Context, before time.Time, limit int) ([]*domain.Media, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*domain.Media{}
	for _, m := range s.media {
		if m.PostID == nil && m.Purpose == domain.MediaPurposePost && m.CreatedAt.Before(before) {
			c := m.Media
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r mediaRepo) Delete(_ context.Context, id string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.media[id]
	if !ok || m.PostID != nil {
		return domain.ErrMediaNotFound
	}
	delete(s.media, id)
	return nil
}

// ---- moderation ----

type moderationRepo struct{ s *Store }

func (r moderationRepo) RecordReport(_ context.Context, report *domain.Report, threshold float64) (*domain.ReportOutcome, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.reports {
		if existing.PostID == report.PostID && existing.ReporterID == report.ReporterID {
			return nil, domain.ErrAlreadyReported
		}
	}

	now := s.Now()
	report.CreatedAt = now
	stored := *report
	s.reports = append(s.reports, &stored)

	var entry *domain.QueueEntry
	for _, e := range s.queue {
		if e.PostID == report.PostID && e.Category == report.Category {
			entry = e
		}
	}
	switch {
	case entry == nil:
		entry = &domain.QueueEntry{
			EntryID:   uuid.Must(uuid.NewV7()).String(),
			PostID:    report.PostID,
			Category:  report.Category,
			Status:    domain.QueueStatusPending,
			CreatedAt: now,
		}
		s.queue[entry.EntryID] = entry
		fallthrough
	case entry.Status == domain.QueueStatusDismissed:
		entry.ReportCount, entry.TotalWeight = 0, 0
		entry.Status = domain.QueueStatusPending
		entry.ResolvedAt, entry.ResolvedBy = nil, nil
	}
	entry.ReportCount++
	entry.TotalWeight += report.Weight
	entry.UpdatedAt = now

	entryCopy := *entry
	outcome := &domain.ReportOutcome{Report: report, Entry: &entryCopy}
	for _, e := range s.queue {
		if e.PostID == report.PostID && e.Status == domain.QueueStatusPending {
			outcome.PendingTotal += e.TotalWeight
		}
	}

	if outcome.PendingTotal >= threshold {
		if p, ok := s.posts[report.PostID]; ok && p.Status == domain.PostStatusPublished {
			p.Status = domain.PostStatusUnderReview
			outcome.PostHidden = true
		}
	}
	return outcome, nil
}

func (r moderationRepo) GetEntry(_ context.Context, id string) (*domain.QueueEntry, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.queue[id]
	if !ok {
		return nil, domain.ErrQueueEntryNotFound
	}
	c := *e
	return &c, nil
}

func (r moderationRepo) ListQueue(_ context.Context, status domain.QueueStatus, limit, offset int) ([]*domain.QueueEntry, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.QueueEntry
	for _, e := range s.queue {
		if e.Status == status {
			c := *e
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalWeight != out[j].TotalWeight {
			return out[i].TotalWeight > out[j].TotalWeight
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	if offset >= len(out) {
		return []*domain.QueueEntry{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r moderationRepo) Resolve(_ context.Context, id string, action domain.ResolveAction, adminID string) ([]*domain.QueueEntry, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.queue[id]
	if !ok {
		return nil, domain.ErrQueueEntryNotFound
	}
	if entry.Status != domain.QueueStatusPending {
		return nil, domain.ErrAlreadyResolved
	}

	status := domain.QueueStatusDismissed
	if action == domain.ResolveRemove {
		status = domain.QueueStatusActioned
	}

	now := s.Now()
	var resolved []*domain.QueueEntry
	for _, e := range s.queue {
		if e.PostID == entry.PostID && e.Status == domain.QueueStatusPending {
			e.Status = status
			e.ResolvedAt = &now
			admin := adminID
			e.ResolvedBy = &admin
			c := *e
			resolved = append(resolved, &c)
		}
	}

	if p, ok := s.posts[entry.PostID]; ok {
		switch {
		case action == domain.ResolveRemove:
			p.Status = domain.PostStatusRemoved
		case p.Status == domain.PostStatusUnderReview:
			p.Status = domain.PostStatusPublished
		}
	}
	return resolved, nil
}

// ---- referrals ----

type referralRepo struct{ s *Store }

func (r referralRepo) ListByReferrer(_ context.Context, referrerID string) ([]*domain.Referral, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*domain.Referral{}
	for i := len(s.referrals) - 1; i >= 0; i-- {
		ref := s.referrals[i]
		if ref.ReferrerID != referrerID {
			continue
		}
		c := *ref
		if u, ok := s.users[ref.Referee.UserID]; ok {
			c.Referee = u.Summary()
		}
		out = append(out, &c)
	}
	return out, nil
}

// ---- feedback ----

type feedbackRepo struct{ s *Store }

func (r feedbackRepo) Create(_ context.Context, f *domain.Feedback) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	f.CreatedAt = s.Now()
	c := *f
	s.feedback = append(s.feedback, &c)
	return nil
}

func (r feedbackRepo) List(_ context.Context, limit, offset int) ([]*domain.Feedback, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*domain.Feedback{}
	for i := len(s.feedback) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		c := *s.feedback[i]
		out = append(out, &c)
	}
	return out, nil
}

// Contains reports whether any stored feedback message contains substr.
func (s *Store) FeedbackContains(substr string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.feedback {
		if strings.Contains(f.Message, substr) {
			return true
		}
	}
	return false
}
