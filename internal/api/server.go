package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/ZertGraf/cresp/internal/api/handler"
	"github.com/ZertGraf/cresp/internal/api/middleware"
	"github.com/ZertGraf/cresp/internal/pkg/logger"
)

type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
	SessionCookie  string
}

// CheckFunc reports whether a dependency is usable.
type CheckFunc func(ctx context.Context) error

type Handlers struct {
	Auth       *handler.AuthHandler
	Onboarding *handler.OnboardingHandler
	User       *handler.UserHandler
	Post       *handler.PostHandler
	Feed       *handler.FeedHandler
	Upload     *handler.UploadHandler
	Referral   *handler.ReferralHandler
	Feedback   *handler.FeedbackHandler
	Admin      *handler.AdminHandler

	// Files serves locally stored uploads under /uploads/. Nil when objects
	// live in a bucket.
	Files http.Handler
}

type HTTPServer struct {
	server *http.Server
	config *ServerConfig
	logger *logger.Logger
}

func NewHTTPServer(
	config *ServerConfig,
	handlers *Handlers,
	auth middleware.Authenticator,
	checks map[string]CheckFunc,
	logger *logger.Logger,
) *HTTPServer {
	router := NewRouter(config, handlers, auth, checks, logger)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return &HTTPServer{
		server: server,
		config: config,
		logger: logger.Component("http"),
	}
}

func (s *HTTPServer) Start(_ context.Context) error {
	s.logger.Info("starting http server", "addr", s.server.Addr)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server failed", "error", err)
		}
	}()

	return nil
}

func (s *HTTPServer) Stop(ctx context.Context) error {
	s.logger.Info("stopping http server")
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Error("http server shutdown failed", "error", err)
		return err
	}

	s.logger.Info("http server stopped")
	return nil
}

// NewRouter builds the full route tree.
func NewRouter(
	config *ServerConfig,
	h *Handlers,
	auth middleware.Authenticator,
	checks map[string]CheckFunc,
	logger *logger.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(logger.Component("http")))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Security())
	if config.RequestTimeout > 0 {
		r.Use(middleware.Timeout(config.RequestTimeout))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"healthy"}`)); err != nil {
			logger.Warn("failed to write health response", "error", err)
		}
	})
	r.Get("/ready", readiness(checks, logger.Component("http/ready")))

	if h.Files != nil {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", noListing(h.Files)))
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Session(auth, config.SessionCookie, logger))

		r.Post("/auth/register", h.Auth.Register)
		r.Post("/auth/login", h.Auth.Login)
		r.Post("/auth/logout", h.Auth.Logout)

		r.Get("/roles", h.Onboarding.Roles)
		r.Get("/users/{username}", h.User.Profile)
		r.Get("/users/{username}/posts", h.User.Posts)
		r.Get("/posts/{postID}", h.Post.Get)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser(logger))

			r.Get("/auth/me", h.Auth.Me)
			r.Get("/onboarding", h.Onboarding.Status)
			r.Post("/onboarding", h.Onboarding.Complete)
			r.Patch("/users/me", h.User.UpdateMe)
			r.Put("/users/me/avatar", h.User.SetAvatar)
			r.Post("/uploads", h.Upload.Upload)
			r.Get("/referrals/me", h.Referral.Me)
			r.Post("/feedback", h.Feedback.Submit)
			r.Delete("/posts/{postID}", h.Post.Delete)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireOnboarded(logger))

				r.Get("/feed", h.Feed.Feed)
				r.Post("/posts", h.Post.Create)
				r.Post("/posts/{postID}/reports", h.Post.Report)
			})

			r.With(middleware.RequireAdmin(logger)).Mount("/admin", h.Admin.Routes())
		})
	})

	return r
}

type readyResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}

// readiness runs every check concurrently. The first failure cancels the
// rest and is reported with its component name.
func readiness(checks map[string]CheckFunc, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			mu         sync.Mutex
			components = make(map[string]string, len(checks))
		)

		g, ctx := errgroup.WithContext(r.Context())
		for name, check := range checks {
			g.Go(func() error {
				err := check(ctx)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					components[name] = err.Error()
					return fmt.Errorf("%s: %w", name, err)
				}
				components[name] = "ok"
				return nil
			})
		}

		status, code := "ready", http.StatusOK
		if err := g.Wait(); err != nil {
			logger.Warn("readiness check failed", "error", err)
			status, code = "unavailable", http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		if err := json.NewEncoder(w).Encode(readyResponse{Status: status, Components: components}); err != nil {
			logger.Warn("failed to write readiness response", "error", err)
		}
	}
}

// noListing hides directory indexes of the upload tree.
func noListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
