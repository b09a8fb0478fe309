package storage

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/nguyentranbao-ct/crm-assistant/internal/config"
	"github.com/nguyentranbao-ct/crm-assistant/internal/models"
)

// ObjectStore keeps user avatars.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	PresignGet(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
	// EnsureBucket creates the bucket when it does not exist yet.
	EnsureBucket(ctx context.Context) error
}

// NewObjectStore returns the MinIO store, or a store that rejects every
// call with models.ErrStorageDisabled when storage is turned off.
func NewObjectStore(cfg *config.Config) (ObjectStore, error) {
	if !cfg.Storage.Enabled {
		return disabledStore{}, nil
	}
	return NewMinioStore(cfg.Storage)
}

type MinioStore struct {
	client     *minio.Client
	bucket     string
	region     string
	presignTTL time.Duration
}

func NewMinioStore(cfg config.StorageConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}
	return &MinioStore{
		client:     client,
		bucket:     cfg.Bucket,
		region:     cfg.Region,
		presignTTL: cfg.PresignTTL,
	}, nil
}

func (m *MinioStore) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{Region: m.region}); err != nil {
		return fmt.Errorf("create bucket: %w", err)
	}
	return nil
}

func (m *MinioStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

func (m *MinioStore) PresignGet(ctx context.Context, key string) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, m.bucket, key, m.presignTTL, nil)
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return u.String(), nil
}

func (m *MinioStore) Delete(ctx context.Context, key string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

type disabledStore struct{}

func (disabledStore) Put(context.Context, string, io.Reader, int64, string) error {
	return models.ErrStorageDisabled
}

func (disabledStore) PresignGet(context.Context, string) (string, error) {
	return "", models.ErrStorageDisabled
}

func (disabledStore) Delete(context.Context, string) error {
	return models.ErrStorageDisabled
}

func (disabledStore) EnsureBucket(context.Context) error {
	return nil
}

// DataURL is a decoded "data:<mime>;base64,<payload>" image.
type DataURL struct {
	ContentType string
	Data        []byte
}

var imageExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// Extension returns the file extension of the image type.
func (d DataURL) Extension() string {
	return imageExtensions[d.ContentType]
}

// ParseImageDataURL decodes a base64 image data URL no larger than maxBytes.
func ParseImageDataURL(s string, maxBytes int64) (*DataURL, error) {
	header, payload, ok := strings.Cut(s, ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return nil, models.NewValidationError("profile image must be a base64 data URL")
	}
	contentType := strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
	if _, ok := imageExtensions[contentType]; !ok {
		return nil, models.NewValidationError("unsupported image type %q", contentType)
	}
	if int64(base64.StdEncoding.DecodedLen(len(payload))) > maxBytes+2 {
		return nil, models.NewValidationError("profile image exceeds %d bytes", maxBytes)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, models.NewValidationError("profile image is not valid base64")
	}
	if int64(len(data)) > maxBytes {
		return nil, models.NewValidationError("profile image exceeds %d bytes", maxBytes)
	}
	return &DataURL{ContentType: contentType, Data: data}, nil
}
