package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ZertGraf/cresp/internal/api/handler"
	"github.com/ZertGraf/cresp/internal/domain"
	"github.com/ZertGraf/cresp/internal/pkg/logger"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

// Session resolves the session token from the cookie or an Authorization
// bearer header. Requests without a valid token continue anonymously;
// RequireUser decides whether that is acceptable.
func Session(auth Authenticator, cookieName string, logger *logger.Logger) func(next http.Handler) http.Handler {
	log := logger.Component("middleware/session")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r, cookieName)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				if !errors.Is(err, domain.ErrUnauthorized) {
					handler.WriteError(w, err, log)
					return
				}
				log.Debug("session rejected", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(handler.WithUser(r.Context(), user)))
		})
	}
}

func sessionToken(r *http.Request, cookieName string) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(cookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// RequireUser rejects anonymous requests with UNAUTHORIZED.
func RequireUser(logger *logger.Logger) func(next http.Handler) http.Handler {
	return guard(logger, func(user *domain.User) error {
		if user == nil {
			return domain.ErrUnauthorized
		}
		return nil
	})
}

// RequireOnboarded rejects users that have not finished onboarding.
func RequireOnboarded(logger *logger.Logger) func(next http.Handler) http.Handler {
	return guard(logger, func(user *domain.User) error {
		switch {
		case user == nil:
			return domain.ErrUnauthorized
		case !user.Onboarded():
			return domain.ErrOnboardingRequired
		}
		return nil
	})
}

func RequireAdmin(logger *logger.Logger) func(next http.Handler) http.Handler {
	return guard(logger, func(user *domain.User) error {
		switch {
		case user == nil:
			return domain.ErrUnauthorized
		case !user.IsAdmin():
			return domain.ErrForbidden
		}
		return nil
	})
}

func guard(logger *logger.Logger, check func(*domain.User) error) func(next http.Handler) http.Handler {
	log := logger.Component("middleware/auth")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := check(handler.UserFrom(r.Context())); err != nil {
				handler.WriteError(w, err, log)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
