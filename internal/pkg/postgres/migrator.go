package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/tern/v2/migrate"

	"github.com/ZertGraf/cresp/internal/pkg/logger"
	"github.com/ZertGraf/cresp/migrations"
)

type MigrationConfig struct {
	Timeout   time.Duration
	TableName string
	Enabled   bool
}

// MigrationStatus compares the schema version stored in the database with
// the newest embedded migration.
type MigrationStatus struct {
	Current int32 `json:"current"`
	Latest  int32 `json:"latest"`
}

func (s MigrationStatus) Pending() int32 {
	return max(s.Latest-s.Current, 0)
}

type Migrator struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
	config *MigrationConfig
}

func NewMigrator(pool *pgxpool.Pool, config *MigrationConfig, logger *logger.Logger) *Migrator {
	return &Migrator{
		pool:   pool,
		logger: logger.Component("postgres/migrator"),
		config: config,
	}
}

// withTern hands fn a tern migrator loaded with the embedded migrations.
// The connection is held for the duration of fn.
func (m *Migrator) withTern(ctx context.Context, fn func(*migrate.Migrator) error) error {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tm, err := migrate.NewMigrator(ctx, conn.Conn(), m.config.TableName)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	if err := tm.LoadMigrations(migrations.MigrationFiles); err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	return fn(tm)
}

func status(ctx context.Context, tm *migrate.Migrator) (MigrationStatus, error) {
	current, err := tm.GetCurrentVersion(ctx)
	if err != nil {
		return MigrationStatus{}, fmt.Errorf("get current version: %w", err)
	}

	var latest int32
	for _, mig := range tm.Migrations {
		latest = max(latest, mig.Sequence)
	}
	return MigrationStatus{Current: current, Latest: latest}, nil
}

// Migrate brings the schema to the latest embedded version. It is a no-op
// when migrations are disabled in config.
func (m *Migrator) Migrate(ctx context.Context) error {
	if !m.config.Enabled {
		m.logger.Info("migrations disabled, skipping")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, m.config.Timeout)
	defer cancel()

	return m.withTern(ctx, func(tm *migrate.Migrator) error {
		before, err := status(ctx, tm)
		if err != nil {
			return err
		}
		if before.Pending() == 0 {
			m.logger.Info("database schema up to date", "version", before.Current)
			return nil
		}

		m.logger.Info("applying database migrations",
			"from_version", before.Current,
			"to_version", before.Latest,
			"pending", before.Pending(),
		)

		start := time.Now()
		tm.OnStart = func(seq int32, name, _, _ string) {
			m.logger.Debug("migration started", "sequence", seq, "name", name)
		}
		if err := tm.Migrate(ctx); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}

		m.logger.Info("migrations applied",
			"version", before.Latest,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil
	})
}

func (m *Migrator) Status(ctx context.Context) (MigrationStatus, error) {
	var st MigrationStatus
	err := m.withTern(ctx, func(tm *migrate.Migrator) error {
		var err error
		st, err = status(ctx, tm)
		return err
	})
	return st, err
}

// Health fails while embedded migrations remain unapplied.
func (m *Migrator) Health(ctx context.Context) error {
	st, err := m.Status(ctx)
	if err != nil {
		return fmt.Errorf("migration status: %w", err)
	}
	if st.Pending() > 0 {
		return fmt.Errorf("%d migrations pending", st.Pending())
	}
	return nil
}
