package config

import (
	"fmt"
	"github.com/ilyakaznacheev/cleanenv"
	"os"
	"time"
)

type Config struct {
	// application settings
	Environment string `env:"ENVIRONMENT" env-default:"development"`
	ServiceName string `env:"SERVICE_NAME" env-default:"cresp"`

	// logging configuration
	LogLevel     string `env:"LOG_LEVEL" env-default:"info"`
	LogFormat    string `env:"LOG_FORMAT" env-default:"text"`
	LogAddSource bool   `env:"LOG_ADD_SOURCE" env-default:"false"`

	// database connection settings
	DatabaseHost     string `env:"DATABASE_HOST" env-default:"localhost"`
	DatabasePort     int    `env:"DATABASE_PORT" env-default:"5432"`
	DatabaseUser     string `env:"DATABASE_USER" env-default:"postgres"`
	DatabasePassword string `env:"DATABASE_PASSWORD" env-required:"true"`
	DatabaseName     string `env:"DATABASE_NAME" env-default:"cresp"`
	DatabaseSchema   string `env:"DATABASE_SCHEMA" env-default:"public"`
	DatabaseSSLMode  string `env:"DATABASE_SSL_MODE" env-default:"require"`

	// database connection pool settings
	DatabaseMaxConns          int32         `env:"DATABASE_MAX_CONNS" env-default:"25"`
	DatabaseMinConns          int32         `env:"DATABASE_MIN_CONNS" env-default:"5"`
	DatabaseMaxConnLifetime   time.Duration `env:"DATABASE_MAX_CONN_LIFETIME" env-default:"1h"`
	DatabaseMaxConnIdleTime   time.Duration `env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	DatabaseHealthCheckPeriod time.Duration `env:"DATABASE_HEALTH_CHECK_PERIOD" env-default:"1m"`
	DatabaseConnectTimeout    time.Duration `env:"DATABASE_CONNECT_TIMEOUT" env-default:"30s"`
	DatabaseAcquireTimeout    time.Duration `env:"DATABASE_ACQUIRE_TIMEOUT" env-default:"10s"`

	// database migrations settings
	DatabaseMigrationEnabled bool          `env:"DATABASE_MIGRATION_ENABLED" env-default:"true"`
	DatabaseMigrationTimeout time.Duration `env:"DATABASE_MIGRATION_TIMEOUT" env-default:"5m"`
	DatabaseMigrationTable   string        `env:"DATABASE_MIGRATION_TABLE" env-default:"schema_version"`

	// http server configuration
	ServerHost           string        `env:"SERVER_HOST" env-default:"0.0.0.0"`
	ServerPort           int           `env:"SERVER_PORT" env-default:"8081"`
	ServerReadTimeout    time.Duration `env:"SERVER_READ_TIMEOUT" env-default:"30s"`
	ServerWriteTimeout   time.Duration `env:"SERVER_WRITE_TIMEOUT" env-default:"30s"`
	ServerIdleTimeout    time.Duration `env:"SERVER_IDLE_TIMEOUT" env-default:"60s"`
	ServerRequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" env-default:"30s"`

	// session tokens
	AuthSecret       string        `env:"AUTH_SECRET" env-required:"true"`
	AuthTokenTTL     time.Duration `env:"AUTH_TOKEN_TTL" env-default:"168h"`
	AuthCookieName   string        `env:"AUTH_COOKIE_NAME" env-default:"cresp_session"`
	AuthCookieSecure bool          `env:"AUTH_COOKIE_SECURE" env-default:"true"`
	AuthCookieDomain string        `env:"AUTH_COOKIE_DOMAIN" env-default:""`
	AuthBcryptCost   int           `env:"AUTH_BCRYPT_COST" env-default:"10"`

	// file storage
	StorageProvider      string `env:"STORAGE_PROVIDER" env-default:"local"`
	StorageLocalDir      string `env:"STORAGE_LOCAL_DIR" env-default:"./uploads"`
	StoragePublicBaseURL string `env:"STORAGE_PUBLIC_BASE_URL" env-default:"http://localhost:8081/uploads"`
	StorageS3Bucket      string `env:"STORAGE_S3_BUCKET" env-default:""`
	StorageS3Region      string `env:"STORAGE_S3_REGION" env-default:"us-east-1"`
	StorageS3Endpoint    string `env:"STORAGE_S3_ENDPOINT" env-default:""`
	StorageS3AccessKey   string `env:"STORAGE_S3_ACCESS_KEY" env-default:""`
	StorageS3SecretKey   string `env:"STORAGE_S3_SECRET_KEY" env-default:""`
	StorageS3PathStyle   bool   `env:"STORAGE_S3_PATH_STYLE" env-default:"false"`

	// uploads
	UploadMaxBytes     int64    `env:"UPLOAD_MAX_BYTES" env-default:"10485760"`
	UploadAllowedTypes []string `env:"UPLOAD_ALLOWED_TYPES" env-default:"image/jpeg,image/png,image/gif,image/webp,video/mp4,video/webm" env-separator:","`

	// moderation
	ModerationHideThreshold    float64       `env:"MODERATION_HIDE_THRESHOLD" env-default:"5"`
	ModerationNewAccountWindow time.Duration `env:"MODERATION_NEW_ACCOUNT_WINDOW" env-default:"72h"`
	ModerationNewAccountFactor float64       `env:"MODERATION_NEW_ACCOUNT_FACTOR" env-default:"0.5"`

	// caches
	CacheRolesTTL   time.Duration `env:"CACHE_ROLES_TTL" env-default:"10m"`
	CacheProfileTTL time.Duration `env:"CACHE_PROFILE_TTL" env-default:"30s"`

	// media janitor
	JanitorEnabled   bool          `env:"JANITOR_ENABLED" env-default:"true"`
	JanitorSchedule  string        `env:"JANITOR_SCHEDULE" env-default:"@every 1h"`
	JanitorOrphanTTL time.Duration `env:"JANITOR_ORPHAN_TTL" env-default:"24h"`
	JanitorBatchSize int           `env:"JANITOR_BATCH_SIZE" env-default:"100"`
	JanitorTimeout   time.Duration `env:"JANITOR_TIMEOUT" env-default:"10m"`
}

func New() (*Config, error) {
	var cfg Config

	// read from .env file if exists (optional)
	if err := cleanenv.ReadConfig(".env", &cfg); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read dotenv file: %w", err)
	}

	// read from environment variables (required)
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment variables: %w", err)
	}

	return &cfg, nil
}
