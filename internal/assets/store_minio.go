package assets

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/sundayezeilo/sharelinks/internal/config"
	"github.com/sundayezeilo/sharelinks/internal/errx"
)

type minioStore struct {
	client *minio.Client
	bucket string
}

// NewObjectStore connects to the S3-compatible store holding asset
// binaries.
func NewObjectStore(cfg config.AssetsConfig) (ObjectStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object store client: %w", err)
	}
	return &minioStore{client: client, bucket: cfg.Bucket}, nil
}

// PresignDownload returns a short-lived GET URL for the object, with a
// Content-Disposition that preserves the asset's original filename.
func (s *minioStore) PresignDownload(ctx context.Context, objectKey, filename string, ttl time.Duration) (string, error) {
	const op = "assets.store.PresignDownload"

	reqParams := make(url.Values)
	reqParams.Set("response-content-disposition",
		fmt.Sprintf("attachment; filename=%q", filename))

	u, err := s.client.PresignedGetObject(ctx, s.bucket, objectKey, ttl, reqParams)
	if err != nil {
		return "", errx.E(op, errx.Unavailable, err)
	}
	return u.String(), nil
}
