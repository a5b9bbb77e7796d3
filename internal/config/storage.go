package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"profilevault/internal/pkg/imaging"
)

const (
	DefaultStorageRoot        = "./uploads/users"
	DefaultMaxUploadBytes     = 10 * 1024 * 1024
	DefaultPrimaryMaxWidth    = 1024
	DefaultPrimaryJPEGQuality = 90
	DefaultThumbnailSize      = 256
	DefaultThumbnailQuality   = 80
	DefaultMaxPixels          = 40_000_000
	DefaultCommitRetries      = 3

	configFileEnvKey = "ASSET_CONFIG_FILE"
)

// StorageConfig holds the asset store limits and layout. It is built once at startup and
// handed to each component's constructor.
type StorageConfig struct {
	Root               string   `toml:"root"`
	MaxUploadBytes     int64    `toml:"max_upload_bytes"`
	AllowedMimeTypes   []string `toml:"allowed_mime_types"`
	PrimaryMaxWidth    int      `toml:"primary_max_width"`
	PrimaryJPEGQuality int      `toml:"primary_jpeg_quality"`
	ThumbnailSize      int      `toml:"thumbnail_size"`
	ThumbnailQuality   int      `toml:"thumbnail_quality"`
	MaxPixels          int      `toml:"max_pixels"`
	CommitRetries      int      `toml:"commit_retries"`
}

type storageFile struct {
	Storage StorageConfig `toml:"storage"`
}

func DefaultStorageConfig() StorageConfig {
	return StorageConfig{
		Root:               DefaultStorageRoot,
		MaxUploadBytes:     DefaultMaxUploadBytes,
		AllowedMimeTypes:   []string{"image/jpeg", "image/png", "image/webp"},
		PrimaryMaxWidth:    DefaultPrimaryMaxWidth,
		PrimaryJPEGQuality: DefaultPrimaryJPEGQuality,
		ThumbnailSize:      DefaultThumbnailSize,
		ThumbnailQuality:   DefaultThumbnailQuality,
		MaxPixels:          DefaultMaxPixels,
		CommitRetries:      DefaultCommitRetries,
	}
}

// LoadDotEnv loads .env into the process environment. A missing file is not an error.
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("dotenv: %v", err)
	}
}

// LoadStorageConfig starts from defaults, overlays the optional TOML file named by
// ASSET_CONFIG_FILE, then applies ASSET_* environment overrides.
func LoadStorageConfig() (*StorageConfig, error) {
	cfg := DefaultStorageConfig()

	if path := strings.TrimSpace(os.Getenv(configFileEnvKey)); path != "" {
		file := storageFile{Storage: cfg}
		if _, err := toml.DecodeFile(path, &file); err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		cfg = file.Storage
		cfg.AllowedMimeTypes = normalizeMimeTypes(cfg.AllowedMimeTypes)
	}

	if err := applyStorageEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyStorageEnv(cfg *StorageConfig) error {
	if v := strings.TrimSpace(os.Getenv("ASSET_STORAGE_ROOT")); v != "" {
		cfg.Root = v
	}
	if v := strings.TrimSpace(os.Getenv("ASSET_ALLOWED_MIME_TYPES")); v != "" {
		cfg.AllowedMimeTypes = normalizeMimeTypes(strings.Split(v, ","))
	}

	var err error
	if cfg.MaxUploadBytes, err = int64Env("ASSET_MAX_UPLOAD_BYTES", cfg.MaxUploadBytes); err != nil {
		return err
	}
	ints := []struct {
		name string
		dst  *int
	}{
		{"ASSET_PRIMARY_MAX_WIDTH", &cfg.PrimaryMaxWidth},
		{"ASSET_PRIMARY_JPEG_QUALITY", &cfg.PrimaryJPEGQuality},
		{"ASSET_THUMBNAIL_SIZE", &cfg.ThumbnailSize},
		{"ASSET_THUMBNAIL_QUALITY", &cfg.ThumbnailQuality},
		{"ASSET_MAX_PIXELS", &cfg.MaxPixels},
		{"ASSET_COMMIT_RETRIES", &cfg.CommitRetries},
	}
	for _, it := range ints {
		v, err := int64Env(it.name, int64(*it.dst))
		if err != nil {
			return err
		}
		*it.dst = int(v)
	}
	return nil
}

func (c StorageConfig) Validate() error {
	if strings.TrimSpace(c.Root) == "" {
		return fmt.Errorf("storage root must not be empty")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be > 0")
	}
	if len(c.AllowedMimeTypes) == 0 {
		return fmt.Errorf("allowed mime types must not be empty")
	}
	if c.PrimaryMaxWidth <= 0 || c.ThumbnailSize <= 0 {
		return fmt.Errorf("derivative dimensions must be > 0")
	}
	if c.ThumbnailQuality < 1 || c.ThumbnailQuality > 100 {
		return fmt.Errorf("thumbnail quality must be within 1..100")
	}
	if c.PrimaryJPEGQuality < 1 || c.PrimaryJPEGQuality > 100 {
		return fmt.Errorf("primary jpeg quality must be within 1..100")
	}
	if c.MaxPixels <= 0 {
		return fmt.Errorf("max pixels must be > 0")
	}
	if c.CommitRetries < 0 {
		return fmt.Errorf("commit retries must be >= 0")
	}
	return nil
}

// ImagingOptions returns the derivative settings for imaging.NewGenerator.
func (c StorageConfig) ImagingOptions() imaging.Options {
	return imaging.Options{
		PrimaryMaxWidth:    c.PrimaryMaxWidth,
		PrimaryJPEGQuality: c.PrimaryJPEGQuality,
		ThumbnailSize:      c.ThumbnailSize,
		ThumbnailQuality:   c.ThumbnailQuality,
		MaxPixels:          c.MaxPixels,
	}
}

// MimeAllowed reports whether mimeType is in the allow-list.
func (c StorageConfig) MimeAllowed(mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	for _, t := range c.AllowedMimeTypes {
		if t == mimeType {
			return true
		}
	}
	return false
}

// normalizeMimeTypes lower-cases and trims entries and drops empty ones, matching MimeAllowed.
func normalizeMimeTypes(in []string) []string {
	var out []string
	for _, t := range in {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func int64Env(name string, fallback int64) (int64, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, raw, err)
	}
	return v, nil
}
