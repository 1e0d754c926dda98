package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

// GCSClient stores artifacts in a Google Cloud Storage bucket.
type GCSClient struct {
	client     *gcs.Client
	bucketName string
	projectID  string
}

// NewGCSClient connects to the bucket. An empty credentialsPath falls back to
// application default credentials.
func NewGCSClient(ctx context.Context, bucketName, projectID, credentialsPath string) (*GCSClient, error) {
	if bucketName == "" {
		return nil, errors.New("gcs bucket name is required")
	}

	var opts []option.ClientOption
	if credentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	logrus.WithFields(logrus.Fields{"bucket": bucketName, "project": projectID}).Info("gcs storage connected")
	return &GCSClient{client: client, bucketName: bucketName, projectID: projectID}, nil
}

func (g *GCSClient) object(objectName string) (*gcs.ObjectHandle, string, error) {
	name, err := cleanObjectName(objectName)
	if err != nil {
		return nil, "", err
	}
	return g.client.Bucket(g.bucketName).Object(name), name, nil
}

func (g *GCSClient) UploadFile(ctx context.Context, reader io.Reader, objectName, contentType string) (*UploadResult, error) {
	obj, name, err := g.object(objectName)
	if err != nil {
		return nil, err
	}

	w := obj.NewWriter(ctx)
	w.ContentType = contentType
	size, err := io.Copy(w, reader)
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to upload %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize upload %s: %w", name, err)
	}

	return &UploadResult{
		ObjectName: name,
		PublicURL:  fmt.Sprintf("https://storage.googleapis.com/%s/%s", g.bucketName, name),
		Size:       size,
	}, nil
}

func (g *GCSClient) DeleteFile(ctx context.Context, objectName string) error {
	obj, name, err := g.object(objectName)
	if err != nil {
		return err
	}
	if err := obj.Delete(ctx); err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}
	return nil
}

func (g *GCSClient) ReadFile(ctx context.Context, objectName string) (io.ReadCloser, error) {
	obj, name, err := g.object(objectName)
	if err != nil {
		return nil, err
	}
	r, err := obj.NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	return r, nil
}

// GetSignedURL issues a V4 signed GET URL.
func (g *GCSClient) GetSignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	name, err := cleanObjectName(objectName)
	if err != nil {
		return "", err
	}
	signed, err := g.client.Bucket(g.bucketName).SignedURL(name, &gcs.SignedURLOptions{
		Method:  http.MethodGet,
		Expires: time.Now().Add(expiry),
		Scheme:  gcs.SigningSchemeV4,
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign url for %s: %w", name, err)
	}
	return signed, nil
}

func (g *GCSClient) Close() error {
	return g.client.Close()
}

var _ StorageClient = (*GCSClient)(nil)
