package repository

import (
	"context"
	"fmt"

	"github.com/ZertGraf/cresp/internal/domain"
	"github.com/ZertGraf/cresp/internal/pkg/logger"
	"github.com/ZertGraf/cresp/internal/pkg/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RoleRepo struct {
	db     *pgxpool.Pool
	logger *logger.Logger
}

func NewRoleRepo(db *pgxpool.Pool, logger *logger.Logger) *RoleRepo {
	return &RoleRepo{
		db:     db,
		logger: logger.Component("repository/role"),
	}
}

func (r *RoleRepo) List(ctx context.Context) ([]domain.ProfessionalRole, error) {
	rows, err := r.db.Query(ctx, `
		SELECT role_id, slug, name, category
		FROM professional_roles
		ORDER BY category, sort_order, name
	`)
	if err != nil {
		return nil, fmt.Errorf("query roles: %w", err)
	}
	defer rows.Close()

	roles := []domain.ProfessionalRole{}
	for rows.Next() {
		var role domain.ProfessionalRole
		if err := rows.Scan(&role.RoleID, &role.Slug, &role.Name, &role.Category); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, role)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return roles, nil
}

// Upsert inserts or renames roles keyed by slug. Existing role IDs are kept
// so user assignments survive catalog edits.
func (r *RoleRepo) Upsert(ctx context.Context, roles []domain.ProfessionalRole) (int, error) {
	changed := 0
	err := postgres.WithTx(ctx, r.db, r.logger, func(tx pgx.Tx) error {
		for position, role := range roles {
			result, err := tx.Exec(ctx, `
				INSERT INTO professional_roles (role_id, slug, name, category, sort_order)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (slug)
				DO UPDATE SET
					name = EXCLUDED.name,
					category = EXCLUDED.category,
					sort_order = EXCLUDED.sort_order
				WHERE professional_roles.name IS DISTINCT FROM EXCLUDED.name
				   OR professional_roles.category IS DISTINCT FROM EXCLUDED.category
				   OR professional_roles.sort_order IS DISTINCT FROM EXCLUDED.sort_order
			`, role.RoleID, role.Slug, role.Name, role.Category, position)
			if err != nil {
				return fmt.Errorf("upsert role %s: %w", role.Slug, err)
			}
			changed += int(result.RowsAffected())
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}

// ExistingIDs returns the subset of roleIDs present in the catalog.
func (r *RoleRepo) ExistingIDs(ctx context.Context, roleIDs []string) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT role_id FROM professional_roles WHERE role_id = ANY($1)
	`, roleIDs)
	if err != nil {
		return nil, fmt.Errorf("query role ids: %w", err)
	}
	defer rows.Close()

	existing := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan role id: %w", err)
		}
		existing = append(existing, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return existing, nil
}
