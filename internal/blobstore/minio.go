package blobstore

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const contentType = "application/x-sqlite3"

// MinioStore implements Store against any S3-compatible endpoint.
type MinioStore struct {
	client *minio.Client
	bucket string
}

// MinioConfig holds the connection settings for an S3-compatible bucket.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// NewMinioStore creates a Store backed by an S3-compatible bucket.
func NewMinioStore(cfg MinioConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &MinioStore{client: client, bucket: cfg.Bucket}, nil
}

// Exists reports whether the named object is present in the bucket.
func (s *MinioStore) Exists(ctx context.Context, name string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, name, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat object %s: %w", name, err)
	}
	return true, nil
}

// Upload copies the local file into the bucket. The no-overwrite path stats
// first and fails with ErrExists when the object is present; the stat and the
// put are separate calls, so a concurrent first upload can still slip between
// them on S3 backends without conditional writes.
func (s *MinioStore) Upload(ctx context.Context, name, localPath string, overwrite bool) error {
	if !overwrite {
		exists, err := s.Exists(ctx, name)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("upload %s: %w", name, ErrExists)
		}
	}

	_, err := s.client.FPutObject(ctx, s.bucket, name, localPath, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", name, err)
	}
	return nil
}

// Download copies the named object to localPath.
func (s *MinioStore) Download(ctx context.Context, name, localPath string) error {
	err := s.client.FGetObject(ctx, s.bucket, name, localPath, minio.GetObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return fmt.Errorf("download %s: %w", name, ErrNotExist)
		}
		return fmt.Errorf("download %s: %w", name, err)
	}
	return nil
}

// PresignedURL returns a time-limited download URL for the named object.
func (s *MinioStore) PresignedURL(ctx context.Context, name string, expiry time.Duration) (string, error) {
	exists, err := s.Exists(ctx, name)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", fmt.Errorf("presign %s: %w", name, ErrNotExist)
	}

	u, err := s.client.PresignedGetObject(ctx, s.bucket, name, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", name, err)
	}
	return u.String(), nil
}

// Ping verifies the bucket is reachable and exists.
func (s *MinioStore) Ping(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("bucket check: %w", err)
	}
	if !ok {
		return fmt.Errorf("bucket %s does not exist", s.bucket)
	}
	return nil
}

func isNoSuchKey(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket"
}
