package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm/logger"

	"profilevault/internal/config"
	"profilevault/internal/database"
	"profilevault/internal/domain/asset"
	"profilevault/internal/domain/user"
	"profilevault/internal/pkg/imaging"
	"profilevault/internal/pkg/storage"
)

type cliFixture struct {
	app   *app
	store *storage.LocalStore
	owner *user.User
	sum   *asset.Summary
}

func setupCLI(t *testing.T) *cliFixture {
	t.Helper()
	db, err := database.ConnectWithLogger("file:"+t.Name()+"?mode=memory&cache=shared", logger.Default.LogMode(logger.Silent))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, &user.User{}, &asset.Asset{}, &asset.Version{}))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	users := user.NewRepository(db)
	svc := asset.NewService(asset.NewRepository(db), users, store, imaging.NewGenerator(imaging.DefaultOptions()), config.DefaultStorageConfig())

	owner := &user.User{Username: "cli", Email: "cli@example.com", PasswordHash: "x", Name: "Cli", LastName: "User", Status: true}
	require.NoError(t, users.Create(context.Background(), owner))

	var raw bytes.Buffer
	require.NoError(t, png.Encode(&raw, image.NewGray(image.Rect(0, 0, 40, 30))))
	sum, err := svc.Upload(context.Background(), asset.UploadInput{
		OwnerID:      owner.ID,
		Principal:    owner.Principal(),
		Data:         raw.Bytes(),
		MimeType:     "image/png",
		OriginalName: "cli.png",
	})
	require.NoError(t, err)

	return &cliFixture{
		app:   &app{db: db, users: users, assets: svc},
		store: store,
		owner: owner,
		sum:   sum,
	}
}

func (f *cliFixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmdWith(f.app)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionsCommand(t *testing.T) {
	f := setupCLI(t)

	out, err := f.run(t, "versions", f.owner.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "VERSION")
	assert.Contains(t, out, f.sum.PrimaryKey)

	out, err = f.run(t, "versions", f.owner.ID, "-o", "json")
	require.NoError(t, err)
	var view asset.View
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	require.Len(t, view.Versions, 1)
	assert.Equal(t, f.sum.ThumbnailKey, view.Versions[0].ThumbnailKey)
}

func TestVerifyCommand(t *testing.T) {
	f := setupCLI(t)

	out, err := f.run(t, "verify")
	require.NoError(t, err)
	assert.Contains(t, out, "all assets consistent")

	p, err := f.store.PhysicalPath(f.sum.ThumbnailKey)
	require.NoError(t, err)
	require.NoError(t, os.Remove(p))

	out, err = f.run(t, "verify", "--output", "yaml")
	assert.ErrorIs(t, err, errDivergence)

	var div []asset.Divergence
	require.NoError(t, yaml.Unmarshal([]byte(out), &div))
	require.Len(t, div, 1)
	assert.Equal(t, asset.RoleThumbnail, div[0].Role)
	assert.Equal(t, f.owner.ID, div[0].OwnerID)
}

func TestShowUserCommand(t *testing.T) {
	f := setupCLI(t)

	out, err := f.run(t, "show-user", f.owner.ID, "-o", "yaml")
	require.NoError(t, err)

	var view map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &view))
	assert.Equal(t, "Cli User", view["full_name"])
	assert.Equal(t, f.sum.AssetID, view["profile_img_id"])
	assert.NotContains(t, view, "password_hash")
}

func TestExportCommand(t *testing.T) {
	f := setupCLI(t)
	dst := filepath.Join(t.TempDir(), "thumb.jpg")

	out, err := f.run(t, "export", f.owner.ID, "thumb", dst)
	require.NoError(t, err)
	assert.Contains(t, out, "image/jpeg")

	b, err := os.ReadFile(dst)
	require.NoError(t, err)
	_, format, err := image.DecodeConfig(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)

	_, err = f.run(t, "export", f.owner.ID, "original", dst)
	assert.ErrorIs(t, err, asset.ErrInvalidInput)
}

func TestParseOutputFormat(t *testing.T) {
	f, err := parseOutputFormat("YAML")
	require.NoError(t, err)
	assert.Equal(t, outputYAML, f)

	_, err = parseOutputFormat("xml")
	assert.Error(t, err)
}
