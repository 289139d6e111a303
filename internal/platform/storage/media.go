// Package storage uploads merchant media to Cloud Storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"

	"github.com/matjar-app/api/internal/platform/config"
)

const defaultUploadTimeout = 30 * time.Second

// MediaStore writes product images into the configured bucket and returns
// their public URLs.
type MediaStore struct {
	client        *gcs.Client
	bucket        string
	uploadTimeout time.Duration
}

// NewMediaStore connects to Cloud Storage for the configured media bucket.
func NewMediaStore(ctx context.Context, cfg config.StorageConfig) (*MediaStore, error) {
	bucket := strings.TrimSpace(cfg.MediaBucket)
	if bucket == "" {
		return nil, errors.New("storage: media bucket is required")
	}
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage: create client: %w", err)
	}
	return &MediaStore{client: client, bucket: bucket, uploadTimeout: defaultUploadTimeout}, nil
}

// UploadProductImage stores the image under stores/<storeID>/products/ and
// returns the public object URL.
func (s *MediaStore) UploadProductImage(ctx context.Context, storeID, productID string, data []byte, contentType string) (string, error) {
	if len(data) == 0 {
		return "", errors.New("storage: image data is empty")
	}
	object := fmt.Sprintf("stores/%s/products/%s", storeID, productID)

	uploadCtx, cancel := context.WithTimeout(ctx, s.uploadTimeout)
	defer cancel()

	writer := s.client.Bucket(s.bucket).Object(object).NewWriter(uploadCtx)
	if contentType != "" {
		writer.ContentType = contentType
	}
	writer.CacheControl = "public, max-age=86400"

	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return "", fmt.Errorf("storage: write object %s: %w", object, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("storage: finalise object %s: %w", object, err)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, object), nil
}

// SignedURL issues a short-lived download URL for a private object.
func (s *MediaStore) SignedURL(object string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	url, err := s.client.Bucket(s.bucket).SignedURL(object, &gcs.SignedURLOptions{
		Method:  "GET",
		Expires: time.Now().Add(ttl),
		Scheme:  gcs.SigningSchemeV4,
	})
	if err != nil {
		return "", fmt.Errorf("storage: sign url for %s: %w", object, err)
	}
	return url, nil
}

// Close releases the underlying client.
func (s *MediaStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}
