package storage

import (
	"context"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/farellandr/runnershive/config"
)

// MinIOStore keeps images as objects in an S3 compatible bucket.
type MinIOStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
	config    UploadConfig
}

func NewMinIOStore(ctx context.Context, cfg config.MinIOConfig) (*MinIOStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.Bucket, err)
		}
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}

	return &MinIOStore{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		config:    DefaultImageUploadConfig,
	}, nil
}

func (s *MinIOStore) Save(ctx context.Context, fileHeader *multipart.FileHeader) (string, error) {
	up, err := open(fileHeader, s.config)
	if err != nil {
		return "", err
	}
	defer up.file.Close()

	key := fmt.Sprintf("events/%s%s", uuid.New().String(), up.extension)
	_, err = s.client.PutObject(ctx, s.bucket, key, up.file, up.size, minio.PutObjectOptions{ContentType: up.mimeType})
	if err != nil {
		return "", fmt.Errorf("failed to upload image %s: %w", fileHeader.Filename, err)
	}

	return key, nil
}

func (s *MinIOStore) Delete(ctx context.Context, ref string) error {
	if isPlaceholder(ref) {
		return nil
	}
	return s.client.RemoveObject(ctx, s.bucket, ref, minio.RemoveObjectOptions{})
}

func (s *MinIOStore) URL(ref string) string {
	if isPlaceholder(ref) {
		return ""
	}
	return s.publicURL + "/" + ref
}
