package service

import (
	"context"
	"errors"
	"testing"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZertGraf/cresp/internal/domain"
)

func TestModerationConfig_ComputeWeight(t *testing.T) {
	cfg := ModerationConfig{NewAccountWindow: 72 * time.Hour, NewAccountFactor: 0.5}
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		category domain.ReportCategory
		age      time.Duration
		want     float64
	}{
		{"spam established", domain.ReportSpam, 30 * 24 * time.Hour, 1.0},
		{"hate established", domain.ReportHate, 73 * time.Hour, 2.5},
		{"hate new account", domain.ReportHate, time.Hour, 1.25},
		{"other new account", domain.ReportOther, 71 * time.Hour, 0.25},
		{"window boundary counts as established", domain.ReportCopyright, 72 * time.Hour, 1.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := cfg.ComputeWeight(tt.category, now.Add(-tt.age), now)
			require.True(t, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}

	_, ok := cfg.ComputeWeight("bogus", now, now)
	assert.False(t, ok)
}

func TestModerationConfig_ComputeWeightRounds(t *testing.T) {
	cfg := ModerationConfig{NewAccountWindow: time.Hour, NewAccountFactor: 0.333}
	now := time.Now()

	got, _ := cfg.ComputeWeight(domain.ReportHate, now, now)
	assert.Equal(t, 0.83, got)
}

func TestModeration_Report(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.member(t, "alice")
	bob := f.member(t, "bob")
	post := f.post(t, alice, "questionable")

	report, err := f.moderation.Report(ctx, bob, post.PostID, ReportInput{
		Category: domain.ReportSpam,
		Reason:   " buy now ",
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, report.Weight)
	assert.Equal(t, "buy now", report.Reason)

	_, err = f.moderation.Report(ctx, bob, post.PostID, ReportInput{Category: domain.ReportHate})
	assert.ErrorIs(t, err, domain.ErrAlreadyReported)

	_, err = f.moderation.Report(ctx, alice, post.PostID, ReportInput{Category: domain.ReportSpam})
	assert.ErrorIs(t, err, domain.ErrCannotReportOwnPost)

	_, err = f.moderation.Report(ctx, bob, "missing", ReportInput{Category: domain.ReportSpam})
	assert.ErrorIs(t, err, domain.ErrPostNotFound)

	_, err = f.moderation.Report(ctx, bob, post.PostID, ReportInput{Category: "rude"})
	var verrs validation.Errors
	require.True(t, errors.As(err, &verrs))
	assert.Contains(t, verrs, "category")

	newcomer := f.register(t, "newcomer")
	_, err = f.moderation.Report(ctx, newcomer, post.PostID, ReportInput{Category: domain.ReportSpam})
	assert.ErrorIs(t, err, domain.ErrOnboardingRequired)
}

func TestModeration_NewAccountWeight(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.member(t, "alice")
	fresh := f.member(t, "fresh")
	post := f.post(t, alice, "hello")

	f.store.SetCreatedAt(fresh.UserID, f.moderation.now().Add(-time.Hour))
	fresh, err := f.users.Get(ctx, fresh.UserID)
	require.NoError(t, err)

	report, err := f.moderation.Report(ctx, fresh, post.PostID, ReportInput{Category: domain.ReportHarassment})
	require.NoError(t, err)
	assert.Equal(t, 1.0, report.Weight)
}

func TestModeration_HidesPostAtThreshold(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.member(t, "alice")
	post := f.post(t, alice, "offensive")

	// 2.5 + 2.0 stays below the threshold of 5
	r1 := f.member(t, "reporter1")
	_, err := f.moderation.Report(ctx, r1, post.PostID, ReportInput{Category: domain.ReportHate})
	require.NoError(t, err)
	r2 := f.member(t, "reporter2")
	_, err = f.moderation.Report(ctx, r2, post.PostID, ReportInput{Category: domain.ReportNudity})
	require.NoError(t, err)
	assert.Equal(t, domain.PostStatusPublished, f.store.PostStatus(post.PostID))

	r3 := f.member(t, "reporter3")
	_, err = f.moderation.Report(ctx, r3, post.PostID, ReportInput{Category: domain.ReportSpam})
	require.NoError(t, err)
	assert.Equal(t, domain.PostStatusUnderReview, f.store.PostStatus(post.PostID))

	page, err := f.feed.Feed(ctx, r1, domain.FeedQuery{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	// hidden from others, still visible to the author
	_, err = f.posts.Get(ctx, post.PostID, r1.UserID)
	assert.ErrorIs(t, err, domain.ErrPostNotFound)
	_, err = f.posts.Get(ctx, post.PostID, alice.UserID)
	assert.NoError(t, err)

	queue, err := f.moderation.Queue(ctx, "", 0, 0)
	require.NoError(t, err)
	require.Len(t, queue, 3)
	assert.Equal(t, domain.ReportHate, queue[0].Category)
}

func TestModeration_ResolveRemove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin(t, "root")
	alice := f.member(t, "alice")
	bob := f.member(t, "bob")
	post := f.post(t, alice, "bad")

	_, err := f.moderation.Report(ctx, bob, post.PostID, ReportInput{Category: domain.ReportViolence})
	require.NoError(t, err)

	queue, err := f.moderation.Queue(ctx, domain.QueueStatusPending, 10, 0)
	require.NoError(t, err)
	require.Len(t, queue, 1)

	_, err = f.moderation.Resolve(ctx, bob, queue[0].EntryID, ResolveInput{Action: domain.ResolveRemove})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	resolved, err := f.moderation.Resolve(ctx, admin, queue[0].EntryID, ResolveInput{Action: domain.ResolveRemove})
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, domain.QueueStatusActioned, resolved[0].Status)
	require.NotNil(t, resolved[0].ResolvedBy)
	assert.Equal(t, admin.UserID, *resolved[0].ResolvedBy)
	assert.Equal(t, domain.PostStatusRemoved, f.store.PostStatus(post.PostID))

	_, err = f.moderation.Resolve(ctx, admin, queue[0].EntryID, ResolveInput{Action: domain.ResolveDismiss})
	assert.ErrorIs(t, err, domain.ErrAlreadyResolved)

	entry, err := f.moderation.Entry(ctx, queue[0].EntryID)
	require.NoError(t, err)
	assert.Equal(t, domain.QueueStatusActioned, entry.Status)

	_, err = f.moderation.Entry(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrQueueEntryNotFound)

	// removed posts are gone for the author as well
	_, err = f.posts.Get(ctx, post.PostID, alice.UserID)
	assert.ErrorIs(t, err, domain.ErrPostNotFound)
}

func TestModeration_DismissRestoresAndReopens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin(t, "root")
	alice := f.member(t, "alice")
	post := f.post(t, alice, "edgy")

	for _, name := range []string{"r1", "r2", "r3"} {
		reporter := f.member(t, name+"_user")
		_, err := f.moderation.Report(ctx, reporter, post.PostID, ReportInput{Category: domain.ReportViolence})
		require.NoError(t, err)
	}
	require.Equal(t, domain.PostStatusUnderReview, f.store.PostStatus(post.PostID))

	queue, err := f.moderation.Queue(ctx, "", 10, 0)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, 3, queue[0].ReportCount)
	assert.InDelta(t, 7.5, queue[0].TotalWeight, 1e-9)

	_, err = f.moderation.Resolve(ctx, admin, queue[0].EntryID, ResolveInput{Action: domain.ResolveDismiss})
	require.NoError(t, err)
	assert.Equal(t, domain.PostStatusPublished, f.store.PostStatus(post.PostID))

	dismissed, err := f.moderation.Queue(ctx, domain.QueueStatusDismissed, 10, 0)
	require.NoError(t, err)
	assert.Len(t, dismissed, 1)

	// a fresh report reopens the row with new counters
	late := f.member(t, "late_user")
	_, err = f.moderation.Report(ctx, late, post.PostID, ReportInput{Category: domain.ReportViolence})
	require.NoError(t, err)

	queue, err = f.moderation.Queue(ctx, domain.QueueStatusPending, 10, 0)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, 1, queue[0].ReportCount)
	assert.InDelta(t, 2.5, queue[0].TotalWeight, 1e-9)
	assert.Nil(t, queue[0].ResolvedAt)
	assert.Equal(t, domain.PostStatusPublished, f.store.PostStatus(post.PostID))
}

func TestModeration_QueueValidation(t *testing.T) {
	f := newFixture(t)
	admin := f.admin(t, "root")

	_, err := f.moderation.Queue(context.Background(), "weird", 10, 0)
	var verrs validation.Errors
	require.True(t, errors.As(err, &verrs))
	assert.Contains(t, verrs, "status")

	_, err = f.moderation.Resolve(context.Background(), admin, "x", ResolveInput{Action: "ban"})
	require.True(t, errors.As(err, &verrs))
	assert.Contains(t, verrs, "action")

	_, err = f.moderation.Resolve(context.Background(), admin, "missing", ResolveInput{Action: domain.ResolveDismiss})
	assert.ErrorIs(t, err, domain.ErrQueueEntryNotFound)
}
