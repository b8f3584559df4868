// Package storage holds file payloads. Metadata and ACLs live in the filesystem catalog.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"adops/internal/config"

	"github.com/google/uuid"
)

type ObjectStorage interface {
	// Put stores body under key and returns the key it was stored under.
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	Exists(ctx context.Context, key string) (bool, error)
	GetSignedURL(ctx context.Context, key string, duration time.Duration) (string, error)
}

// NewKey returns a fresh object key for filename inside the account's prefix.
func NewKey(accountID, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return path.Join("accounts", accountID, uuid.New().String()+ext)
}

// New builds the provider selected by cfg.Storage.Provider.
func New(ctx context.Context, cfg *config.Config) (ObjectStorage, error) {
	switch strings.ToLower(cfg.Storage.Provider) {
	case "s3", "r2":
		s3cfg := cfg.Storage.S3
		return NewS3Storage(ctx, S3Options{
			BucketName: s3cfg.BucketName,
			Endpoint:   s3cfg.Endpoint,
			Region:     s3cfg.Region,
			AccessKey:  s3cfg.AccessKey,
			SecretKey:  s3cfg.SecretKey,
			PublicRead: cfg.Storage.Provider == "r2",
		})
	case "local":
		return NewLocalStorage(NewOsFs(cfg.Storage.BasePath), cfg.Server.PublicURL, cfg.JWT.Secret), nil
	}
	return nil, fmt.Errorf("unknown storage provider %q", cfg.Storage.Provider)
}
