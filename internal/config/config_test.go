package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadStorageConfig_Defaults(t *testing.T) {
	t.Setenv(configFileEnvKey, "")
	t.Setenv("ASSET_STORAGE_ROOT", "")

	cfg, err := LoadStorageConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultStorageRoot, cfg.Root)
	assert.Equal(t, int64(DefaultMaxUploadBytes), cfg.MaxUploadBytes)
	assert.True(t, cfg.MimeAllowed("image/png"))
	assert.True(t, cfg.MimeAllowed("IMAGE/JPEG"))
	assert.False(t, cfg.MimeAllowed("text/plain"))
}

func TestLoadStorageConfig_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assets.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[storage]
root = "/srv/assets"
max_upload_bytes = 2048
thumbnail_size = 128
allowed_mime_types = ["image/png"]
`), 0o600))

	t.Setenv(configFileEnvKey, path)
	t.Setenv("ASSET_THUMBNAIL_SIZE", "64")

	cfg, err := LoadStorageConfig()
	require.NoError(t, err)
	assert.Equal(t, "/srv/assets", cfg.Root)
	assert.Equal(t, int64(2048), cfg.MaxUploadBytes)
	assert.Equal(t, 64, cfg.ThumbnailSize)
	assert.Equal(t, DefaultPrimaryMaxWidth, cfg.PrimaryMaxWidth)
	assert.Equal(t, []string{"image/png"}, cfg.AllowedMimeTypes)
}

func TestLoadStorageConfig_InvalidEnv(t *testing.T) {
	t.Setenv(configFileEnvKey, "")
	t.Setenv("ASSET_MAX_UPLOAD_BYTES", "lots")

	_, err := LoadStorageConfig()
	assert.Error(t, err)
}

func TestStorageConfigValidate(t *testing.T) {
	cfg := DefaultStorageConfig()
	cfg.ThumbnailQuality = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultStorageConfig()
	cfg.AllowedMimeTypes = nil
	assert.Error(t, cfg.Validate())

	assert.NoError(t, DefaultStorageConfig().Validate())
}

func TestLoadAuthRuntimeConfig(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("JWT_ACCESS_TTL", "2h")

	cfg, err := LoadAuthRuntimeConfig()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, cfg.JWTAccessTTL)
	assert.Equal(t, defaultSessionCookie, cfg.SessionCookie)
}

func TestLoadAuthRuntimeConfig_ProdRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := LoadAuthRuntimeConfig()
	assert.Error(t, err)
}

func TestLoadStorageConfig_FileMimeTypesAreNormalized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assets.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[storage]
allowed_mime_types = ["Image/PNG", " image/JPEG ", ""]
`), 0o600))

	t.Setenv(configFileEnvKey, path)
	t.Setenv("ASSET_ALLOWED_MIME_TYPES", "")

	cfg, err := LoadStorageConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"image/png", "image/jpeg"}, cfg.AllowedMimeTypes)
	assert.True(t, cfg.MimeAllowed("image/png"))
	assert.False(t, cfg.MimeAllowed("image/webp"))
}

func TestStorageConfigImagingOptions(t *testing.T) {
	cfg := DefaultStorageConfig()
	cfg.PrimaryMaxWidth = 800
	cfg.ThumbnailQuality = 70

	opts := cfg.ImagingOptions()
	assert.Equal(t, 800, opts.PrimaryMaxWidth)
	assert.Equal(t, DefaultPrimaryJPEGQuality, opts.PrimaryJPEGQuality)
	assert.Equal(t, DefaultThumbnailSize, opts.ThumbnailSize)
	assert.Equal(t, 70, opts.ThumbnailQuality)
	assert.Equal(t, DefaultMaxPixels, opts.MaxPixels)
}
