package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/ZertGraf/cresp/internal/catalog"
	"github.com/ZertGraf/cresp/internal/domain"
	"github.com/ZertGraf/cresp/internal/pkg/logger"
	"github.com/ZertGraf/cresp/internal/repository"
)

const rolesCacheKey = "roles"

// RoleService serves the professional role catalog from a short lived
// cache. Concurrent misses share one database read.
type RoleService struct {
	repo   repository.RoleRepository
	cache  *cache.Cache
	group  singleflight.Group
	logger *logger.Logger
}

func NewRoleService(repo repository.RoleRepository, ttl time.Duration, logger *logger.Logger) *RoleService {
	return &RoleService{
		repo:   repo,
		cache:  cache.New(ttl, 2*ttl),
		logger: logger.Component("service/role"),
	}
}

// Sync upserts the embedded catalog by slug. Roles missing from the catalog
// are left in place since users may still reference them.
func (s *RoleService) Sync(ctx context.Context) error {
	roles, err := catalog.Roles()
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	changed, err := s.repo.Upsert(ctx, roles)
	if err != nil {
		return fmt.Errorf("upsert roles: %w", err)
	}
	s.cache.Delete(rolesCacheKey)

	s.logger.Info("role catalog synced",
		"roles", len(roles),
		"changed", changed,
	)
	return nil
}

func (s *RoleService) List(ctx context.Context) ([]domain.ProfessionalRole, error) {
	if cached, ok := s.cache.Get(rolesCacheKey); ok {
		return cached.([]domain.ProfessionalRole), nil
	}

	v, err, _ := s.group.Do(rolesCacheKey, func() (interface{}, error) {
		roles, err := s.repo.List(ctx)
		if err != nil {
			return nil, err
		}
		s.cache.SetDefault(rolesCacheKey, roles)
		return roles, nil
	})
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}

	return v.([]domain.ProfessionalRole), nil
}

// ResolveIDs collapses duplicates, keeping first-seen order, and fails with
// ErrInvalidRole if any ID is not in the catalog.
func (s *RoleService) ResolveIDs(ctx context.Context, ids []string) ([]string, error) {
	unique := uniqueIDs(ids)

	existing, err := s.repo.ExistingIDs(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("check roles: %w", err)
	}
	if len(existing) != len(unique) {
		return nil, domain.ErrInvalidRole
	}

	return unique, nil
}

// uniqueIDs drops repeats and blanks, keeping first-seen order.
func uniqueIDs(ids []string) []string {
	if ids == nil {
		return nil
	}
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
