package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ZertGraf/cresp/internal/pkg/logger"
)

var ErrNotConnected = errors.New("postgres pool not initialized")

type Connection struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
	config *Config
}

func New(logger *logger.Logger, config *Config) (*Connection, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid postgres config: %w", err)
	}
	return &Connection{
		config: config,
		logger: logger.Component("database/postgres"),
	}, nil
}

func (c *Connection) poolConfig() (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(c.config.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	cfg.MaxConns = c.config.MaxConns
	cfg.MinConns = c.config.MinConns
	cfg.MaxConnLifetime = c.config.MaxConnLifetime
	cfg.MaxConnIdleTime = c.config.MaxConnIdleTime
	cfg.HealthCheckPeriod = c.config.HealthCheckPeriod
	if c.config.ApplicationName != "" {
		cfg.ConnConfig.RuntimeParams["application_name"] = c.config.ApplicationName
	}
	return cfg, nil
}

// Connect opens the pool and verifies it with a ping. The pool is only
// kept if the ping succeeds.
func (c *Connection) Connect(ctx context.Context) error {
	cfg, err := c.poolConfig()
	if err != nil {
		return err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("ping postgres: %w", err)
	}
	c.pool = pool

	c.logger.Info("postgres connected",
		"host", c.config.Host,
		"database", c.config.Database,
		"schema", c.config.Schema,
		"max_conns", c.config.MaxConns,
	)
	return nil
}

func (c *Connection) Pool() *pgxpool.Pool {
	if c.pool == nil {
		panic("postgres connection not established, call Connect() first")
	}
	return c.pool
}

func (c *Connection) Close() {
	if c.pool == nil {
		return
	}
	stat := c.pool.Stat()
	c.pool.Close()
	c.logger.Info("postgres connection closed",
		"acquired_total", stat.AcquireCount(),
		"canceled_acquires", stat.CanceledAcquireCount(),
	)
}

// Health pings the database through a pooled connection, bounded by the
// acquire timeout.
func (c *Connection) Health(ctx context.Context) error {
	if c.pool == nil {
		return ErrNotConnected
	}
	if c.config.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.AcquireTimeout)
		defer cancel()
	}

	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return conn.Ping(ctx)
}
