// Package gcs writes documents to a Google Cloud Storage bucket.
package gcs

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
)

// Config captures the parameters required to write to GCS.
type Config struct {
	Bucket      string
	ContentType string
}

// BlobStore writes documents to a configured GCS bucket.
type BlobStore struct {
	client      *storage.Client
	bucket      string
	contentType string
}

// New creates a GCS-backed store from an existing client.
func New(client *storage.Client, cfg Config) (*BlobStore, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	contentType := cfg.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	return &BlobStore{client: client, bucket: cfg.Bucket, contentType: contentType}, nil
}

// Save uploads data as one object. GCS only makes the object visible once
// the writer is closed, so a failed upload never replaces the old version.
func (s *BlobStore) Save(ctx context.Context, objectName string, data []byte) error {
	if strings.TrimSpace(objectName) == "" {
		return fmt.Errorf("object name is required")
	}
	writer := s.client.Bucket(s.bucket).Object(objectName).NewWriter(ctx)
	writer.ContentType = s.contentType
	if _, err := writer.Write(data); err != nil {
		if closeErr := writer.Close(); closeErr != nil {
			return fmt.Errorf("write object %s: %w (close writer: %v)", objectName, err, closeErr)
		}
		return fmt.Errorf("write object %s: %w", objectName, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close writer for object %s: %w", objectName, err)
	}
	return nil
}

// URI returns the gs:// location of objectName.
func (s *BlobStore) URI(objectName string) string {
	return fmt.Sprintf("gs://%s/%s", s.bucket, objectName)
}
