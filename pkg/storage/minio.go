package storage

import (
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/jarvis4everyone/subscription-backend/pkg/config"
	"github.com/jarvis4everyone/subscription-backend/pkg/logger"
)

// MinioSource serves the artifact from an S3-compatible bucket.
type MinioSource struct {
	client *minio.Client
	bucket string
	object string
}

func NewMinioSource(ctx context.Context, cfg config.DownloadConfig, logg *logger.Logger) (*MinioSource, error) {
	if cfg.MinioEndpoint == "" || cfg.MinioBucket == "" {
		return nil, fmt.Errorf("minio endpoint and bucket are required")
	}
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating minio client: %w", err)
	}
	object := cfg.MinioObject
	if object == "" {
		object = cfg.FileName
	}
	if logg != nil {
		logg.Info(ctx, fmt.Sprintf("download source: minio bucket %s", cfg.MinioBucket))
	}
	return &MinioSource{client: client, bucket: cfg.MinioBucket, object: object}, nil
}

func (s *MinioSource) Open(ctx context.Context) (*Object, error) {
	info, err := s.client.StatObject(ctx, s.bucket, s.object, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, s.bucket, s.object)
		}
		return nil, fmt.Errorf("stat object: %w", err)
	}
	obj, err := s.client.GetObject(ctx, s.bucket, s.object, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}
	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/zip"
	}
	return &Object{
		Body:        obj,
		Size:        info.Size,
		ModTime:     info.LastModified,
		ContentType: contentType,
	}, nil
}

func (s *MinioSource) Ping(ctx context.Context) error {
	found, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: bucket %s", ErrNotFound, s.bucket)
	}
	return nil
}
