package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ZertGraf/cresp/internal/domain"
	"github.com/ZertGraf/cresp/internal/pkg/logger"
	"github.com/ZertGraf/cresp/internal/pkg/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `
	u.user_id, u.email, u.username, u.password_hash, u.role,
	u.display_name, u.headline, u.bio, u.location, u.website, u.avatar_url,
	u.referral_code, u.referral_count, u.onboarded_at, u.created_at, u.updated_at`

type UserRepo struct {
	db     *pgxpool.Pool
	logger *logger.Logger
}

func NewUserRepo(db *pgxpool.Pool, logger *logger.Logger) *UserRepo {
	return &UserRepo{
		db:     db,
		logger: logger.Component("repository/user"),
	}
}

// Create persists a new user. A referral, when present, is recorded in the
// same transaction together with the referrer's counter increment.
func (r *UserRepo) Create(ctx context.Context, user *domain.User, referral *domain.Referral) error {
	err := postgres.WithTx(ctx, r.db, r.logger, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO users (user_id, email, username, password_hash, role, referral_code)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING created_at, updated_at
		`,
			user.UserID,
			user.Email,
			user.Username,
			user.PasswordHash,
			user.Role,
			user.ReferralCode,
		).Scan(&user.CreatedAt, &user.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert user: %w", err)
		}

		if referral != nil {
			if err := insertReferral(ctx, tx, referral); err != nil {
				return err
			}
		}

		return nil
	})

	if constraint, ok := postgres.UniqueViolation(err); ok {
		switch constraint {
		case "users_email_key":
			return domain.ErrEmailTaken
		case "users_username_key":
			return domain.ErrUsernameTaken
		case "users_referral_code_key":
			return ErrReferralCodeTaken
		}
	}

	return err
}

func (r *UserRepo) GetByID(ctx context.Context, userID string) (*domain.User, error) {
	return r.getOne(ctx, "u.user_id = $1", userID)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, "u.email = $1", email)
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getOne(ctx, "u.username = $1", username)
}

func (r *UserRepo) GetByReferralCode(ctx context.Context, code string) (*domain.User, error) {
	return r.getOne(ctx, "u.referral_code = $1", code)
}

func (r *UserRepo) getOne(ctx context.Context, where string, arg any) (*domain.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users u WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if user.Roles, err = userRoles(ctx, r.db, user.UserID); err != nil {
		return nil, err
	}

	return user, nil
}

// UpdateProfile applies the non-nil fields of update.
func (r *UserRepo) UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) (*domain.User, error) {
	if update.Empty() {
		return r.GetByID(ctx, userID)
	}

	if err := applyProfileUpdate(ctx, r.db, userID, update); err != nil {
		return nil, err
	}

	return r.GetByID(ctx, userID)
}

// CompleteOnboarding stores profile fields and replaces the user's roles.
// onboarded_at is set on the first call only.
func (r *UserRepo) CompleteOnboarding(ctx context.Context, userID string, update domain.ProfileUpdate, roleIDs []string) (*domain.User, error) {
	err := postgres.WithTx(ctx, r.db, r.logger, func(tx pgx.Tx) error {
		if err := applyProfileUpdate(ctx, tx, userID, update); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `
			UPDATE users SET onboarded_at = COALESCE(onboarded_at, NOW())
			WHERE user_id = $1
		`, userID); err != nil {
			return fmt.Errorf("mark onboarded: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("clear roles: %w", err)
		}

		for position, roleID := range roleIDs {
			if _, err := tx.Exec(ctx, `
				INSERT INTO user_roles (user_id, role_id, position)
				VALUES ($1, $2, $3)
			`, userID, roleID, position); err != nil {
				return fmt.Errorf("insert role %s: %w", roleID, err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, userID)
}

func (r *UserRepo) SetAvatar(ctx context.Context, userID, avatarURL string) (*domain.User, error) {
	result, err := r.db.Exec(ctx, `
		UPDATE users SET avatar_url = $1, updated_at = NOW()
		WHERE user_id = $2
	`, avatarURL, userID)
	if err != nil {
		return nil, fmt.Errorf("update avatar: %w", err)
	}
	if result.RowsAffected() == 0 {
		return nil, domain.ErrUserNotFound
	}
	return r.GetByID(ctx, userID)
}

func (r *UserRepo) SetRole(ctx context.Context, email string, role domain.UserRole) (*domain.User, error) {
	result, err := r.db.Exec(ctx, `
		UPDATE users SET role = $1, updated_at = NOW()
		WHERE email = $2
	`, role, email)
	if err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}
	if result.RowsAffected() == 0 {
		return nil, domain.ErrUserNotFound
	}
	return r.GetByEmail(ctx, email)
}

// applyProfileUpdate builds the SET clause from the non-nil fields.
func applyProfileUpdate(ctx context.Context, q querier, userID string, update domain.ProfileUpdate) error {
	fields := []struct {
		column string
		value  *string
	}{
		{"display_name", update.DisplayName},
		{"headline", update.Headline},
		{"bio", update.Bio},
		{"location", update.Location},
		{"website", update.Website},
	}

	setParts := []string{"updated_at = NOW()"}
	args := []any{userID}
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		args = append(args, *f.value)
		setParts = append(setParts, fmt.Sprintf("%s = $%d", f.column, len(args)))
	}

	query := fmt.Sprintf("UPDATE users SET %s WHERE user_id = $1", strings.Join(setParts, ", "))
	result, err := q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func userRoles(ctx context.Context, q querier, userID string) ([]domain.ProfessionalRole, error) {
	rows, err := q.Query(ctx, `
		SELECT pr.role_id, pr.slug, pr.name, pr.category
		FROM user_roles ur
		INNER JOIN professional_roles pr ON pr.role_id = ur.role_id
		WHERE ur.user_id = $1
		ORDER BY ur.position
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query user roles: %w", err)
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

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.UserID,
		&user.Email,
		&user.Username,
		&user.PasswordHash,
		&user.Role,
		&user.DisplayName,
		&user.Headline,
		&user.Bio,
		&user.Location,
		&user.Website,
		&user.AvatarURL,
		&user.ReferralCode,
		&user.ReferralCount,
		&user.OnboardedAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
