package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZertGraf/cresp/internal/api/handler"
	"github.com/ZertGraf/cresp/internal/domain"
	"github.com/ZertGraf/cresp/internal/pkg/logger"
)

type stubAuth map[string]*domain.User

func (s stubAuth) Authenticate(_ context.Context, token string) (*domain.User, error) {
	if token == "broken" {
		return nil, errors.New("database down")
	}
	user, ok := s[token]
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	return user, nil
}

func whoami(w http.ResponseWriter, r *http.Request) {
	if user := handler.UserFrom(r.Context()); user != nil {
		_, _ = w.Write([]byte(user.Username))
		return
	}
	_, _ = w.Write([]byte("anonymous"))
}

func TestRecovery(t *testing.T) {
	h := Recovery(logger.Discard())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":{"code":"INTERNAL_ERROR","message":"internal server error"}}`, rec.Body.String())
}

func TestSession(t *testing.T) {
	now := time.Now()
	auth := stubAuth{
		"good": {UserID: "u1", Username: "ada", OnboardedAt: &now},
	}
	h := Session(auth, "sid", logger.Discard())(http.HandlerFunc(whoami))

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
		body   string
	}{
		{"no token", func(*http.Request) {}, http.StatusOK, "anonymous"},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer good") }, http.StatusOK, "ada"},
		{"lowercase scheme", func(r *http.Request) { r.Header.Set("Authorization", "bearer good") }, http.StatusOK, "ada"},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "sid", Value: "good"}) }, http.StatusOK, "ada"},
		{"other cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "x", Value: "good"}) }, http.StatusOK, "anonymous"},
		{"invalid token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer expired") }, http.StatusOK, "anonymous"},
		{"basic auth ignored", func(r *http.Request) { r.SetBasicAuth("ada", "pw") }, http.StatusOK, "anonymous"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.body, rec.Body.String())
		})
	}

	t.Run("lookup failure", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer broken")
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestGuards(t *testing.T) {
	now := time.Now()
	member := &domain.User{UserID: "m", Role: domain.UserRoleMember, OnboardedAt: &now}
	fresh := &domain.User{UserID: "f", Role: domain.UserRoleMember}
	admin := &domain.User{UserID: "a", Role: domain.UserRoleAdmin, OnboardedAt: &now}

	log := logger.Discard()
	tests := []struct {
		name   string
		guard  func(http.Handler) http.Handler
		user   *domain.User
		status int
	}{
		{"user anonymous", RequireUser(log), nil, http.StatusUnauthorized},
		{"user fresh", RequireUser(log), fresh, http.StatusOK},
		{"onboarded anonymous", RequireOnboarded(log), nil, http.StatusUnauthorized},
		{"onboarded fresh", RequireOnboarded(log), fresh, http.StatusForbidden},
		{"onboarded member", RequireOnboarded(log), member, http.StatusOK},
		{"admin member", RequireAdmin(log), member, http.StatusForbidden},
		{"admin admin", RequireAdmin(log), admin, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.user != nil {
				req = req.WithContext(handler.WithUser(req.Context(), tt.user))
			}
			rec := httptest.NewRecorder()

			tt.guard(http.HandlerFunc(whoami)).ServeHTTP(rec, req)

			require.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}
