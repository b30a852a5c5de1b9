package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZertGraf/cresp/internal/domain"
)

func validPortfolio() *PortfolioInput {
	return &PortfolioInput{
		Title:        "Brand refresh",
		Role:         "Lead designer",
		StartedOn:    "2025-01-10",
		EndedOn:      "2025-03-01",
		Technologies: []string{"Figma", " figma ", "Blender", "Figma"},
		ProjectURL:   "https://example.com/case",
	}
}

func TestPostService_CreateStandard(t *testing.T) {
	f := newFixture(t)
	author := f.member(t, "alice")

	post, err := f.posts.Create(context.Background(), author, CreatePostInput{Content: "  hello world  "})
	require.NoError(t, err)

	assert.Equal(t, "hello world", post.Content)
	assert.Equal(t, domain.PostKindStandard, post.Kind)
	assert.Equal(t, domain.VisibilityPublic, post.Visibility)
	assert.Equal(t, domain.PostStatusPublished, post.Status)
	assert.Nil(t, post.Portfolio)
	assert.Empty(t, post.Media)
	require.NotNil(t, post.Author)
	assert.Equal(t, "alice", post.Author.Username)
}

func TestPostService_CreatePortfolio(t *testing.T) {
	f := newFixture(t)
	author := f.member(t, "alice")

	post, err := f.posts.Create(context.Background(), author, CreatePostInput{
		Kind:      domain.PostKindPortfolio,
		Content:   "case study",
		Portfolio: validPortfolio(),
	})
	require.NoError(t, err)

	require.NotNil(t, post.Portfolio)
	assert.Equal(t, []string{"Figma", "Blender"}, post.Portfolio.Technologies)
	assert.Equal(t, time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), post.Portfolio.StartedOn)
	require.NotNil(t, post.Portfolio.EndedOn)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), *post.Portfolio.EndedOn)
}

func TestPostService_CreateValidation(t *testing.T) {
	endsEarly := validPortfolio()
	endsEarly.EndedOn = "2024-12-31"

	badDate := validPortfolio()
	badDate.StartedOn = "10/01/2025"

	noTech := validPortfolio()
	noTech.Technologies = nil

	longTech := validPortfolio()
	longTech.Technologies = []string{strings.Repeat("t", 41)}

	manyTech := validPortfolio()
	manyTech.Technologies = nil
	for i := 0; i < 21; i++ {
		manyTech.Technologies = append(manyTech.Technologies, fmt.Sprintf("tech-%d", i))
	}

	tests := []struct {
		name  string
		input CreatePostInput
		field string
	}{
		{"empty content", CreatePostInput{Content: "   "}, "content"},
		{"long content", CreatePostInput{Content: strings.Repeat("a", 5001)}, "content"},
		{"unknown kind", CreatePostInput{Kind: "story", Content: "x"}, "kind"},
		{"unknown visibility", CreatePostInput{Visibility: "friends", Content: "x"}, "visibility"},
		{"portfolio on standard post", CreatePostInput{Content: "x", Portfolio: validPortfolio()}, "portfolio"},
		{"portfolio missing", CreatePostInput{Kind: domain.PostKindPortfolio, Content: "x"}, "portfolio"},
		{"ends before start", CreatePostInput{Kind: domain.PostKindPortfolio, Content: "x", Portfolio: endsEarly}, "portfolio"},
		{"bad start date", CreatePostInput{Kind: domain.PostKindPortfolio, Content: "x", Portfolio: badDate}, "portfolio"},
		{"no technologies", CreatePostInput{Kind: domain.PostKindPortfolio, Content: "x", Portfolio: noTech}, "portfolio"},
		{"long technology", CreatePostInput{Kind: domain.PostKindPortfolio, Content: "x", Portfolio: longTech}, "portfolio"},
		{"too many technologies", CreatePostInput{Kind: domain.PostKindPortfolio, Content: "x", Portfolio: manyTech}, "portfolio"},
		{"too many media", CreatePostInput{Content: "x", MediaIDs: make([]string, 11)}, "media_ids"},
		{"duplicate media", CreatePostInput{Content: "x", MediaIDs: []string{"a", "a"}}, "media_ids"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			author := f.member(t, "alice")

			_, err := f.posts.Create(context.Background(), author, tt.input)

			var verrs validation.Errors
			require.True(t, errors.As(err, &verrs), "got %v", err)
			assert.Contains(t, verrs, tt.field)
		})
	}
}

func TestPostService_CreateRequiresOnboarding(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "alice")

	_, err := f.posts.Create(context.Background(), user, CreatePostInput{Content: "hi"})
	assert.ErrorIs(t, err, domain.ErrOnboardingRequired)
}

func TestPostService_CreateAttachesMedia(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.member(t, "alice")
	bob := f.member(t, "bob")

	upload := func(owner *domain.User, purpose domain.MediaPurpose) *domain.Media {
		m, err := f.uploads.Upload(ctx, UploadInput{
			OwnerID: owner.UserID, Purpose: purpose, Size: int64(len(pngBytes)), Body: bytes.NewReader(pngBytes),
		})
		require.NoError(t, err)
		return m
	}

	first, second := upload(alice, domain.MediaPurposePost), upload(alice, domain.MediaPurposePost)

	post, err := f.posts.Create(ctx, alice, CreatePostInput{Content: "gallery", MediaIDs: []string{second.MediaID, first.MediaID}})
	require.NoError(t, err)
	require.Len(t, post.Media, 2)
	assert.Equal(t, second.MediaID, post.Media[0].MediaID)
	assert.Equal(t, first.MediaID, post.Media[1].MediaID)

	// already attached
	_, err = f.posts.Create(ctx, alice, CreatePostInput{Content: "again", MediaIDs: []string{first.MediaID}})
	assert.ErrorIs(t, err, domain.ErrInvalidMedia)

	// owned by someone else
	foreign := upload(bob, domain.MediaPurposePost)
	_, err = f.posts.Create(ctx, alice, CreatePostInput{Content: "stolen", MediaIDs: []string{foreign.MediaID}})
	assert.ErrorIs(t, err, domain.ErrInvalidMedia)

	// avatars cannot be attached
	avatar := upload(alice, domain.MediaPurposeAvatar)
	_, err = f.posts.Create(ctx, alice, CreatePostInput{Content: "avatar", MediaIDs: []string{avatar.MediaID}})
	assert.ErrorIs(t, err, domain.ErrInvalidMedia)
}

func TestPostService_GetVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.member(t, "alice")
	bob := f.member(t, "bob")

	private, err := f.posts.Create(ctx, alice, CreatePostInput{Content: "secret", Visibility: domain.VisibilityPrivate})
	require.NoError(t, err)

	got, err := f.posts.Get(ctx, private.PostID, alice.UserID)
	require.NoError(t, err)
	assert.Equal(t, private.PostID, got.PostID)

	_, err = f.posts.Get(ctx, private.PostID, bob.UserID)
	assert.ErrorIs(t, err, domain.ErrPostNotFound)

	_, err = f.posts.Get(ctx, "missing", alice.UserID)
	assert.ErrorIs(t, err, domain.ErrPostNotFound)
}

func TestPostService_Delete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.member(t, "alice")
	bob := f.member(t, "bob")
	admin := f.admin(t, "root")

	first := f.post(t, alice, "one")
	second := f.post(t, alice, "two")

	assert.ErrorIs(t, f.posts.Delete(ctx, first.PostID, bob), domain.ErrForbidden)

	require.NoError(t, f.posts.Delete(ctx, first.PostID, alice))
	_, err := f.posts.Get(ctx, first.PostID, alice.UserID)
	assert.ErrorIs(t, err, domain.ErrPostNotFound)

	require.NoError(t, f.posts.Delete(ctx, second.PostID, admin))
	assert.ErrorIs(t, f.posts.Delete(ctx, second.PostID, admin), domain.ErrPostNotFound)
}

func TestFeedService_Pagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.member(t, "alice")

	var ids []string
	for i := 0; i < 5; i++ {
		ids = append(ids, f.post(t, alice, fmt.Sprintf("post %d", i)).PostID)
	}

	page, err := f.feed.Feed(ctx, alice, domain.FeedQuery{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, ids[4], page.Items[0].PostID)
	assert.Equal(t, ids[3], page.Items[1].PostID)
	require.NotNil(t, page.NextCursor)
	assert.Equal(t, ids[3], *page.NextCursor)

	page, err = f.feed.Feed(ctx, alice, domain.FeedQuery{Limit: 2, Cursor: *page.NextCursor})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, ids[2], page.Items[0].PostID)

	page, err = f.feed.Feed(ctx, alice, domain.FeedQuery{Limit: 2, Cursor: *page.NextCursor})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, ids[0], page.Items[0].PostID)
	assert.Nil(t, page.NextCursor)

	oldest, err := f.feed.Feed(ctx, alice, domain.FeedQuery{Limit: 5, Sort: domain.FeedSortOldest})
	require.NoError(t, err)
	require.Len(t, oldest.Items, 5)
	assert.Equal(t, ids[0], oldest.Items[0].PostID)
	assert.Nil(t, oldest.NextCursor)
}

func TestFeedService_Filters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.member(t, "alice")
	bob := f.member(t, "bob")

	f.post(t, alice, "public")
	_, err := f.posts.Create(ctx, alice, CreatePostInput{Content: "private", Visibility: domain.VisibilityPrivate})
	require.NoError(t, err)
	portfolio, err := f.posts.Create(ctx, alice, CreatePostInput{
		Kind: domain.PostKindPortfolio, Content: "work", Portfolio: validPortfolio(),
	})
	require.NoError(t, err)

	page, err := f.feed.Feed(ctx, bob, domain.FeedQuery{})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)

	page, err = f.feed.Feed(ctx, bob, domain.FeedQuery{Kind: domain.PostKindPortfolio})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, portfolio.PostID, page.Items[0].PostID)

	// the author's own page includes the private post
	own, err := f.feed.AuthorPosts(ctx, "alice", alice.UserID, domain.FeedQuery{})
	require.NoError(t, err)
	assert.Len(t, own.Items, 3)

	other, err := f.feed.AuthorPosts(ctx, "alice", bob.UserID, domain.FeedQuery{})
	require.NoError(t, err)
	assert.Len(t, other.Items, 2)

	// usernames resolve the same way as on the profile page
	mixed, err := f.feed.AuthorPosts(ctx, " Alice ", bob.UserID, domain.FeedQuery{})
	require.NoError(t, err)
	assert.Len(t, mixed.Items, 2)

	_, err = f.feed.AuthorPosts(ctx, "nobody", bob.UserID, domain.FeedQuery{})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestFeedService_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	newcomer := f.register(t, "newcomer")
	_, err := f.feed.Feed(ctx, newcomer, domain.FeedQuery{})
	assert.ErrorIs(t, err, domain.ErrOnboardingRequired)

	alice := f.member(t, "alice")
	_, err = f.feed.Feed(ctx, alice, domain.FeedQuery{Cursor: "missing"})
	assert.ErrorIs(t, err, domain.ErrInvalidCursor)
}
