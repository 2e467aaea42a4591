// Package artifact stores generated ticket artifacts (QR images) by key.
package artifact

import (
	"context"
	"errors"
	"fmt"
)

const ContentTypePNG = "image/png"

var (
	ErrInvalidKey    = errors.New("artifact: invalid key")
	ErrUnknownDriver = errors.New("artifact: unknown driver")
)

type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

type Config struct {
	Driver    string
	LocalDir  string
	PublicURL string
	S3        S3Config
}

// New returns the store selected by cfg.Driver ("local" or "s3").
func New(cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocalStore(cfg.LocalDir, cfg.PublicURL)
	case "s3":
		return NewS3Store(cfg.S3)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
