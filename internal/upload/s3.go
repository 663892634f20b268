package upload

import (
	"context"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ObjectStore is the S3 surface the strategy needs; *storage.S3Client
// satisfies it.
type ObjectStore interface {
	Bucket() string
	UploadFile(ctx context.Context, key, path string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// S3Strategy uploads to a bucket and returns a presigned GET link.
type S3Strategy struct {
	Store   ObjectStore
	Prefix  string
	LinkTTL time.Duration
}

func (s *S3Strategy) Name() string { return "s3://" + s.Store.Bucket() }

// Key returns the object key for a local file: <prefix>/<uuid>/<basename>.
func (s *S3Strategy) Key(local string) string {
	return path.Join(strings.Trim(s.Prefix, "/"), uuid.NewString(), filepath.Base(local))
}

func (s *S3Strategy) Upload(ctx context.Context, local string) (string, error) {
	key := s.Key(local)
	if err := s.Store.UploadFile(ctx, key, local); err != nil {
		return "", err
	}
	ttl := s.LinkTTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return s.Store.PresignGet(ctx, key, ttl)
}
