package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Client stores artifacts in one S3-compatible bucket using path-style
// addressing, which MinIO and Ceph gateways require.
type S3Client struct {
	s3        *s3.Client
	presigner *s3.PresignClient
	bucket    string
	endpoint  string
}

func NewS3Client(endpoint, region, bucket, accessKey, secretKey string) (*S3Client, error) {
	if endpoint == "" || bucket == "" || accessKey == "" || secretKey == "" {
		return nil, errors.New("s3 endpoint, bucket and credentials are required")
	}
	endpoint = strings.TrimRight(endpoint, "/")

	client := s3.New(s3.Options{
		Region:       region,
		BaseEndpoint: aws.String(endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		UsePathStyle: true,
	})

	return &S3Client{
		s3:        client,
		presigner: s3.NewPresignClient(client),
		bucket:    bucket,
		endpoint:  endpoint,
	}, nil
}

// UploadFile buffers the artifact so the SDK can sign a known content length.
func (c *S3Client) UploadFile(ctx context.Context, reader io.Reader, objectName, contentType string) (*UploadResult, error) {
	key, err := cleanObjectName(objectName)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("s3 read upload %s: %w", key, err)
	}

	_, err = c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 upload %s/%s: %w", c.bucket, key, err)
	}

	return &UploadResult{
		ObjectName: key,
		PublicURL:  c.endpoint + "/" + c.bucket + "/" + key,
		Size:       int64(len(data)),
	}, nil
}

func (c *S3Client) DeleteFile(ctx context.Context, objectName string) error {
	key, err := cleanObjectName(objectName)
	if err != nil {
		return err
	}
	_, err = c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s/%s: %w", c.bucket, key, err)
	}
	return nil
}

func (c *S3Client) ReadFile(ctx context.Context, objectName string) (io.ReadCloser, error) {
	key, err := cleanObjectName(objectName)
	if err != nil {
		return nil, err
	}
	out, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 download %s/%s: %w", c.bucket, key, err)
	}
	return out.Body, nil
}

// GetSignedURL generates a pre-signed GET URL (max 7 days per S3).
func (c *S3Client) GetSignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	key, err := cleanObjectName(objectName)
	if err != nil {
		return "", err
	}
	req, err := c.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("s3 presign %s/%s: %w", c.bucket, key, err)
	}
	return req.URL, nil
}

func (c *S3Client) Close() error {
	return nil
}

var _ StorageClient = (*S3Client)(nil)
