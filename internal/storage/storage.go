// Package storage stores product images in a local directory or an
// S3-compatible bucket and resolves their public URLs.
package storage

import (
	"context"
	"io"

	"github.com/dukerupert/bakehouse/internal"
)

// PutOptions carries per-object metadata.
type PutOptions struct {
	ContentType  string
	CacheControl string
}

// Storage defines the interface for file storage operations.
// Implementations can use local filesystem, S3, or any other storage backend.
type Storage interface {
	// Put stores an object and returns its public URL. Writing a key that
	// already exists is a conflict; keys are never overwritten.
	Put(ctx context.Context, key string, content io.Reader, opts PutOptions) (string, error)

	// Get retrieves an object by its key.
	// Returns an io.ReadCloser that must be closed by the caller.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes an object. Returns nil if it doesn't exist.
	Delete(ctx context.Context, key string) error

	// URL returns the public URL for a key.
	URL(key string) string

	Exists(ctx context.Context, key string) (bool, error)
}

// NewStorage creates a Storage implementation based on configuration.
func NewStorage(ctx context.Context, cfg internal.StorageConfig) (Storage, error) {
	switch cfg.Provider {
	case "local", "":
		return NewLocalStorage(cfg.LocalPath, cfg.LocalURL)
	case "s3":
		return NewS3Storage(ctx, S3Config{
			Region:      cfg.Region,
			Endpoint:    cfg.Endpoint,
			AccessKeyID: cfg.AccessKeyID,
			SecretKey:   cfg.SecretKey,
			Bucket:      cfg.Bucket,
			PublicURL:   cfg.PublicURL,
		})
	case "r2":
		if cfg.R2AccountID == "" {
			return nil, ErrR2AccountIDRequired
		}
		return NewS3Storage(ctx, S3Config{
			Region:      "auto",
			Endpoint:    R2Endpoint(cfg.R2AccountID),
			AccessKeyID: cfg.AccessKeyID,
			SecretKey:   cfg.SecretKey,
			Bucket:      cfg.Bucket,
			PublicURL:   cfg.PublicURL,
		})
	default:
		return nil, ErrUnknownProvider(cfg.Provider)
	}
}
