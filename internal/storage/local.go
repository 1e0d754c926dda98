package storage

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/atomic"
)

// LocalStorageClient implements StorageClient on the local filesystem.
// Downloads are served by the API under baseURL and authorized by an HMAC
// over the object name and expiry.
type LocalStorageClient struct {
	basePath  string
	baseURL   string
	secretKey string
	now       func() time.Time
}

// NewLocalStorageClient creates a new local storage client
func NewLocalStorageClient(basePath, baseURL, secretKey string) (*LocalStorageClient, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	if secretKey == "" {
		secretKey = "default-local-storage-key"
	}
	if baseURL == "" {
		baseURL = "internal://storage"
	}

	return &LocalStorageClient{
		basePath:  basePath,
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		now:       time.Now,
	}, nil
}

func (l *LocalStorageClient) fullPath(objectName string) (string, string, error) {
	name, err := cleanObjectName(objectName)
	if err != nil {
		return "", "", err
	}
	return name, filepath.Join(l.basePath, filepath.FromSlash(name)), nil
}

// UploadFile writes the object atomically so readers never see a partial file.
func (l *LocalStorageClient) UploadFile(ctx context.Context, reader io.Reader, objectName, contentType string) (*UploadResult, error) {
	name, fullPath, err := l.fullPath(objectName)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	counter := &countingReader{r: reader}
	if err := atomic.WriteFile(fullPath, counter); err != nil {
		return nil, fmt.Errorf("failed to write file %s: %w", fullPath, err)
	}

	return &UploadResult{
		ObjectName: name,
		PublicURL:  fmt.Sprintf("%s/%s", l.baseURL, name),
		Size:       counter.n,
	}, nil
}

// DeleteFile removes an object. Missing objects are not an error.
func (l *LocalStorageClient) DeleteFile(ctx context.Context, objectName string) error {
	_, fullPath, err := l.fullPath(objectName)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to delete file %s: %w", fullPath, err)
	}

	l.cleanEmptyDirs(filepath.Dir(fullPath))
	return nil
}

// cleanEmptyDirs removes empty parent directories up to basePath
func (l *LocalStorageClient) cleanEmptyDirs(dir string) {
	base := filepath.Clean(l.basePath)
	for dir != base && strings.HasPrefix(dir, base) {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			break
		}
		os.Remove(dir)
		dir = filepath.Dir(dir)
	}
}

func (l *LocalStorageClient) ReadFile(ctx context.Context, objectName string) (io.ReadCloser, error) {
	_, fullPath, err := l.fullPath(objectName)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", fullPath, err)
	}
	return file, nil
}

// GetSignedURL returns baseURL/objectName with an expiry and signature.
func (l *LocalStorageClient) GetSignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	name, err := cleanObjectName(objectName)
	if err != nil {
		return "", err
	}

	expiresAt := l.now().Add(expiry).Unix()
	signature := l.sign(fmt.Sprintf("%s:%d", name, expiresAt))

	q := url.Values{}
	q.Set("expires", fmt.Sprint(expiresAt))
	q.Set("signature", signature)
	return fmt.Sprintf("%s/%s?%s", l.baseURL, name, q.Encode()), nil
}

func (l *LocalStorageClient) sign(message string) string {
	h := hmac.New(sha256.New, []byte(l.secretKey))
	h.Write([]byte(message))
	return hex.EncodeToString(h.Sum(nil))
}

// VerifySignedURL verifies that a signed URL is valid and not expired
func (l *LocalStorageClient) VerifySignedURL(objectName string, expiresAt int64, signature string) bool {
	if l.now().Unix() > expiresAt {
		return false
	}
	name, err := cleanObjectName(objectName)
	if err != nil {
		return false
	}
	expected := l.sign(fmt.Sprintf("%s:%d", name, expiresAt))
	return hmac.Equal([]byte(signature), []byte(expected))
}

// Close is a no-op for local storage.
func (l *LocalStorageClient) Close() error {
	return nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

var _ StorageClient = (*LocalStorageClient)(nil)
