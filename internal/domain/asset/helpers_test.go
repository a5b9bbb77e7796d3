package asset

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"profilevault/internal/config"
	"profilevault/internal/database"
	"profilevault/internal/domain/user"
	"profilevault/internal/pkg/imaging"
	"profilevault/internal/pkg/storage"
)

type testEnv struct {
	db      *gorm.DB
	users   user.Repository
	repo    Repository
	store   *storage.LocalStore
	service *Service
	cfg     config.StorageConfig
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.ConnectWithLogger(fmt.Sprintf("file:%s?mode=memory&cache=shared", name), logger.Default.LogMode(logger.Silent))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, &user.User{}, &Asset{}, &Version{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := setupTestDB(t)

	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	cfg := config.DefaultStorageConfig()
	cfg.Root = store.Root()
	cfg.MaxUploadBytes = 512 * 1024

	users := user.NewRepository(db)
	repo := NewRepository(db)
	gen := imaging.NewGenerator(imaging.Options{PrimaryMaxWidth: 64, ThumbnailSize: 16})

	return &testEnv{
		db:      db,
		users:   users,
		repo:    repo,
		store:   store,
		service: NewService(repo, users, store, gen, cfg),
		cfg:     cfg,
	}
}

func (e *testEnv) createUser(t *testing.T, username string) *user.User {
	t.Helper()
	u := &user.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		Name:         "Test",
		LastName:     "User",
		Status:       true,
	}
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

func (e *testEnv) reloadUser(t *testing.T, id string) *user.User {
	t.Helper()
	u, err := e.users.GetByID(context.Background(), id)
	require.NoError(t, err)
	return u
}

// pngImage returns a deterministic PNG whose pixels depend on seed.
func pngImage(t *testing.T, w, h int, seed uint8) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x) + seed, G: uint8(y), B: seed, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func uploadInput(u *user.User, data []byte) UploadInput {
	return UploadInput{
		OwnerID:      u.ID,
		Principal:    u.Principal(),
		Data:         data,
		MimeType:     imaging.MimePNG,
		OriginalName: "avatar.png",
	}
}

func decodeImage(t *testing.T, b []byte) (image.Config, string) {
	t.Helper()
	cfg, format, err := image.DecodeConfig(bytes.NewReader(b))
	require.NoError(t, err)
	return cfg, format
}
