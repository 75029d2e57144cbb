// Package storage uploads export artifacts to S3-compatible object storage.
package storage

import (
	"context"
	"errors"
	"io"
)

// Error constants.
var (
	ErrInvalidConfig = errors.New("invalid storage configuration")
	ErrUpload        = errors.New("upload failed")
)

// UploadResult describes a stored object.
type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader stores and removes objects.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)
	Delete(ctx context.Context, key string) error
	GetPublicURL(key string) string
}
