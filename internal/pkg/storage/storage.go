package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	. "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/ZertGraf/cresp/internal/pkg/logger"
)

const (
	ProviderLocal = "local"
	ProviderS3    = "s3"
)

var ErrInvalidKey = errors.New("invalid storage key")

// Provider stores uploaded objects and returns their public URL.
type Provider interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	Delete(ctx context.Context, key string) error
	Health(ctx context.Context) error
	Name() string
}

type Config struct {
	Provider      string
	LocalDir      string
	PublicBaseURL string

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3PathStyle bool
}

func (c *Config) Validate() error {
	return ValidateStruct(c,
		Field(&c.Provider, Required, In(ProviderLocal, ProviderS3)),
		Field(&c.PublicBaseURL, Required, is.URL),
		Field(&c.LocalDir, By(c.requiredFor(ProviderLocal))),
		Field(&c.S3Bucket, By(c.requiredFor(ProviderS3))),
		Field(&c.S3Region, By(c.requiredFor(ProviderS3))),
		Field(&c.S3Endpoint, is.URL),
	)
}

func (c *Config) requiredFor(provider string) RuleFunc {
	return func(value interface{}) error {
		if c.Provider != provider {
			return nil
		}
		return Validate(value, Required)
	}
}

// New builds the provider selected by the config.
func New(ctx context.Context, cfg *Config, log *logger.Logger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid storage config: %w", err)
	}

	switch cfg.Provider {
	case ProviderS3:
		return NewS3(ctx, cfg, log)
	default:
		return NewLocal(cfg.LocalDir, cfg.PublicBaseURL, log)
	}
}

// publicURL joins the base URL and the object key.
func publicURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}

// checkKey rejects keys that could escape the bucket or directory root.
func checkKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return ErrInvalidKey
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return ErrInvalidKey
		}
	}
	return nil
}
