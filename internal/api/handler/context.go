package handler

import (
	"context"
	"net/http"

	"github.com/ZertGraf/cresp/internal/domain"
	"github.com/ZertGraf/cresp/internal/pkg/logger"
)

type userKey struct{}

// WithUser stores the authenticated user on the request context.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// UserFrom returns the authenticated user, or nil for anonymous requests.
func UserFrom(ctx context.Context) *domain.User {
	user, _ := ctx.Value(userKey{}).(*domain.User)
	return user
}

func viewerID(r *http.Request) string {
	if user := UserFrom(r.Context()); user != nil {
		return user.UserID
	}
	return ""
}

// sessionUser writes UNAUTHORIZED when the route was mounted without a session.
func sessionUser(w http.ResponseWriter, r *http.Request, logger *logger.Logger) (*domain.User, bool) {
	user := UserFrom(r.Context())
	if user == nil {
		WriteError(w, domain.ErrUnauthorized, logger)
		return nil, false
	}
	return user, true
}
