package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ZertGraf/cresp/internal/catalog"
	"github.com/ZertGraf/cresp/internal/domain"
	"github.com/ZertGraf/cresp/internal/pkg/logger"
	"github.com/ZertGraf/cresp/internal/pkg/password"
	"github.com/ZertGraf/cresp/internal/pkg/storage"
	"github.com/ZertGraf/cresp/internal/pkg/token"
	"github.com/ZertGraf/cresp/internal/testutil/memstore"
)

var (
	pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)
	mp4Bytes = []byte("\x00\x00\x00\x18ftypmp42\x00\x00\x00\x00mp42isom")
)

type fixture struct {
	store *memstore.Store
	local *storage.Local

	auth       *AuthService
	roles      *RoleService
	users      *UserService
	onboarding *OnboardingService
	posts      *PostService
	feed       *FeedService
	moderation *ModerationService
	uploads    *UploadService
	referrals  *ReferralService
	feedback   *FeedbackService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log := logger.Discard()
	store := memstore.New()

	issuer, err := token.NewIssuer(&token.Config{
		Secret: strings.Repeat("k", 32),
		Issuer: "cresp-test",
		TTL:    time.Hour,
	})
	require.NoError(t, err)

	local, err := storage.NewLocal(t.TempDir(), "http://files.test/uploads", log)
	require.NoError(t, err)

	f := &fixture{store: store, local: local}
	f.auth = NewAuthService(store.Users(), password.NewHasher(bcrypt.MinCost), issuer, log)
	f.roles = NewRoleService(store.Roles(), time.Minute, log)
	f.uploads = NewUploadService(store.Media(), local, UploadConfig{
		MaxBytes:     1024,
		AllowedTypes: []string{"image/png", "image/jpeg", "video/mp4"},
	}, log)
	f.users = NewUserService(store.Users(), f.uploads, time.Minute, log)
	f.onboarding = NewOnboardingService(store.Users(), f.roles, f.users, log)
	f.posts = NewPostService(store.Posts(), log)
	f.feed = NewFeedService(store.Posts(), store.Users(), log)
	f.moderation = NewModerationService(store.Moderation(), store.Posts(), ModerationConfig{
		HideThreshold:    5,
		NewAccountWindow: 72 * time.Hour,
		NewAccountFactor: 0.5,
	}, log)
	// every memstore account is months old unless a test says otherwise
	f.moderation.now = func() time.Time { return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC) }
	f.referrals = NewReferralService(store.Users(), store.Referrals(), log)
	f.feedback = NewFeedbackService(store.Feedback(), log)

	require.NoError(t, f.roles.Sync(context.Background()))

	return f
}

func (f *fixture) register(t *testing.T, username string) *domain.User {
	t.Helper()
	session, err := f.auth.Register(context.Background(), RegisterInput{
		Email:    username + "@example.com",
		Username: username,
		Password: "correct horse",
	})
	require.NoError(t, err)
	return session.User
}

// member registers and onboards a user.
func (f *fixture) member(t *testing.T, username string) *domain.User {
	t.Helper()
	user := f.register(t, username)
	name := strings.ToUpper(username[:1]) + username[1:]
	onboarded, err := f.onboarding.Complete(context.Background(), user.UserID, OnboardingInput{
		ProfileInput: ProfileInput{DisplayName: &name},
		RoleIDs:      []string{catalog.RoleID("graphic-designer")},
	})
	require.NoError(t, err)
	return onboarded
}

func (f *fixture) admin(t *testing.T, username string) *domain.User {
	t.Helper()
	user := f.member(t, username)
	admin, err := f.auth.SetAdmin(context.Background(), user.Email, true)
	require.NoError(t, err)
	return admin
}

func (f *fixture) post(t *testing.T, author *domain.User, content string) *domain.Post {
	t.Helper()
	post, err := f.posts.Create(context.Background(), author, CreatePostInput{Content: content})
	require.NoError(t, err)
	return post
}

func ptr[T any](v T) *T { return &v }
