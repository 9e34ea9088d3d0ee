// Package storage keeps post images in object storage and turns stored
// paths back into public URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	storage_go "github.com/supabase-community/storage-go"
)

// ImageStore uploads, resolves and removes post images by relative path
type ImageStore interface {
	Upload(ctx context.Context, path, contentType string, body io.Reader) (string, error)
	PublicURL(path string) string
	Delete(ctx context.Context, paths ...string) error
}

// Config configures the Supabase bucket
type Config struct {
	URL       string
	Key       string
	Bucket    string
	PublicURL string // optional CDN base; defaults to the bucket's public URL
}

// SupabaseStore implements ImageStore on Supabase storage
type SupabaseStore struct {
	client     *storage_go.Client
	bucket     string
	publicBase string
}

// NewSupabaseStore creates a new SupabaseStore
func NewSupabaseStore(cfg Config) (*SupabaseStore, error) {
	if cfg.URL == "" || cfg.Key == "" || cfg.Bucket == "" {
		return nil, errors.New("missing SUPABASE_URL, SUPABASE_KEY, or BUCKET_NAME")
	}

	client := storage_go.NewClient(strings.TrimRight(cfg.URL, "/")+"/storage/v1", cfg.Key, nil)
	return &SupabaseStore{
		client:     client,
		bucket:     cfg.Bucket,
		publicBase: strings.TrimRight(cfg.PublicURL, "/"),
	}, nil
}

// Upload stores body at path and returns the stored path.
// The Supabase client has no context support; ctx is checked before the call.
func (s *SupabaseStore) Upload(ctx context.Context, path, contentType string, body io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	_, err := s.client.UploadFile(s.bucket, path, body, storage_go.FileOptions{ContentType: &contentType})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", path, err)
	}
	return path, nil
}

// PublicURL returns the fully qualified URL of a stored path
func (s *SupabaseStore) PublicURL(path string) string {
	return publicURL(s.publicBase, path, func(p string) string {
		return s.client.GetPublicUrl(s.bucket, p).SignedURL
	})
}

// Delete removes stored objects; missing paths are not an error
func (s *SupabaseStore) Delete(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.client.RemoveFile(s.bucket, paths); err != nil {
		return fmt.Errorf("failed to remove %d objects: %w", len(paths), err)
	}
	return nil
}

func publicURL(base, path string, fallback func(string) string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if base == "" {
		return fallback(path)
	}
	return base + "/" + strings.TrimLeft(path, "/")
}
