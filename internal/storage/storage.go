// Package storage persists rendered export artifacts so they can be handed
// out as time-limited download links.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

// ErrInvalidObjectName is returned for names that escape the storage root.
var ErrInvalidObjectName = errors.New("invalid object name")

// StorageClient is the interface for artifact storage operations.
// Local, GCS and S3 backends implement it.
type StorageClient interface {
	UploadFile(ctx context.Context, reader io.Reader, objectName, contentType string) (*UploadResult, error)
	DeleteFile(ctx context.Context, objectName string) error
	ReadFile(ctx context.Context, objectName string) (io.ReadCloser, error)
	GetSignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
	Close() error
}

// UploadResult contains the result of an upload operation
type UploadResult struct {
	ObjectName string `json:"object_name"`
	PublicURL  string `json:"public_url"`
	Size       int64  `json:"size"`
}

// ExportObjectName places a document artifact under its id and version so a
// new version never overwrites an older download.
func ExportObjectName(documentID string, version int, filename string) string {
	return fmt.Sprintf("exports/%s/v%d/%s", documentID, version, filename)
}

// ComplianceObjectName places a finalized compliance form artifact under its folio.
func ComplianceObjectName(folio, filename string) string {
	return fmt.Sprintf("compliance/%s/%s", folio, filename)
}

// cleanObjectName normalizes a slash-separated object name and rejects
// absolute paths and parent references.
func cleanObjectName(name string) (string, error) {
	if name == "" || strings.HasPrefix(name, "/") || strings.Contains(name, "\\") {
		return "", fmt.Errorf("%w: %q", ErrInvalidObjectName, name)
	}
	cleaned := path.Clean(name)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidObjectName, name)
	}
	return cleaned, nil
}
