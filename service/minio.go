package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/AnTengye/lexiguide/config"
	"github.com/AnTengye/lexiguide/pkg/logger"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var (
	// ErrObjectTooLarge is returned when a stored contract exceeds max_object_bytes
	ErrObjectTooLarge = errors.New("stored contract is too large")
	// ErrObjectNotText is returned when a stored contract is not valid UTF-8 text
	ErrObjectNotText = errors.New("stored contract is not plain text")
)

// MinioService reads contract text files from an S3-compatible bucket
type MinioService struct {
	client *minio.Client
	bucket string
	config *config.MinioConfig
}

func NewMinioService(cfg *config.MinioConfig) (*MinioService, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinioService{
		client: client,
		bucket: cfg.Bucket,
		config: cfg,
	}, nil
}

// EnsureBucket checks that the contract bucket exists
func (s *MinioService) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		return fmt.Errorf("bucket %q does not exist", s.bucket)
	}
	return nil
}

// ReadText downloads a stored contract and returns its text
func (s *MinioService) ReadText(ctx context.Context, objectName string) (string, error) {
	info, err := s.client.StatObject(ctx, s.bucket, objectName, minio.StatObjectOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to stat object: %w", err)
	}
	if s.config.MaxObjectBytes > 0 && info.Size > s.config.MaxObjectBytes {
		return "", fmt.Errorf("%w: %d bytes", ErrObjectTooLarge, info.Size)
	}

	obj, err := s.client.GetObject(ctx, s.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to get object: %w", err)
	}
	defer obj.Close()

	var reader io.Reader = obj
	if s.config.MaxObjectBytes > 0 {
		reader = io.LimitReader(obj, s.config.MaxObjectBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to read object: %w", err)
	}
	if s.config.MaxObjectBytes > 0 && int64(len(data)) > s.config.MaxObjectBytes {
		return "", fmt.Errorf("%w: more than %d bytes", ErrObjectTooLarge, s.config.MaxObjectBytes)
	}
	if !utf8.Valid(data) {
		return "", ErrObjectNotText
	}

	logger.Info(ctx, "contract imported", "bucket", s.bucket, "object", objectName, "bytes", len(data))
	return string(data), nil
}
