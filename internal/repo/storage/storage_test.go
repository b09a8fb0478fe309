package storage

import (
	"context"
	"encoding/base64"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/nguyentranbao-ct/crm-assistant/internal/config"
	"github.com/nguyentranbao-ct/crm-assistant/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseImageDataURL(t *testing.T) {
	png := base64.StdEncoding.EncodeToString([]byte("\x89PNG fake"))

	t.Run("valid png", func(t *testing.T) {
		d, err := ParseImageDataURL("data:image/png;base64,"+png, 1024)
		require.NoError(t, err)
		assert.Equal(t, "image/png", d.ContentType)
		assert.Equal(t, "png", d.Extension())
		assert.Equal(t, []byte("\x89PNG fake"), d.Data)
	})

	tests := []struct {
		name string
		in   string
		max  int64
	}{
		{"not a data url", "https://example.com/a.png", 1024},
		{"not base64", "data:image/png," + png, 1024},
		{"unsupported type", "data:text/plain;base64," + png, 1024},
		{"broken payload", "data:image/png;base64,@@@", 1024},
		{"too large", "data:image/png;base64," + base64.StdEncoding.EncodeToString(make([]byte, 64)), 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseImageDataURL(tt.in, tt.max)
			assert.ErrorIs(t, err, models.ErrValidation)
		})
	}
}

func TestDisabledStore(t *testing.T) {
	store, err := NewObjectStore(&config.Config{})
	require.NoError(t, err)

	ctx := context.Background()
	assert.NoError(t, store.EnsureBucket(ctx))
	assert.ErrorIs(t, store.Put(ctx, "k", strings.NewReader("x"), 1, "image/png"), models.ErrStorageDisabled)
	_, err = store.PresignGet(ctx, "k")
	assert.ErrorIs(t, err, models.ErrStorageDisabled)
	assert.ErrorIs(t, store.Delete(ctx, "k"), models.ErrStorageDisabled)
}

func TestMinioPresignIsOffline(t *testing.T) {
	store, err := NewMinioStore(config.StorageConfig{
		Endpoint:   "localhost:9000",
		AccessKey:  "minio",
		SecretKey:  "minio123",
		Bucket:     "avatars",
		Region:     "us-east-1",
		PresignTTL: time.Hour,
	})
	require.NoError(t, err)

	raw, err := store.PresignGet(context.Background(), "users/abc.png")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/avatars/users/abc.png", u.Path)
	assert.Equal(t, "3600", u.Query().Get("X-Amz-Expires"))
}
