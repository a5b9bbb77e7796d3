package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestValidateOwnerID(t *testing.T) {
	valid := []string{"42", "5b0d8c4e-2f1a-4c55-9c1e-1d8f7f2c3a10", "user_01"}
	for _, id := range valid {
		assert.NoError(t, ValidateOwnerID(id), id)
	}

	invalid := []string{"", "..", "../etc", "a/b", `a\b`, "a.b", "../../root", "user 1", string(make([]byte, 129))}
	for _, id := range invalid {
		assert.ErrorIs(t, ValidateOwnerID(id), ErrInvalidOwnerID, id)
	}
}

func TestResolve_BuildsProfileKey(t *testing.T) {
	s := newTestStore(t)

	key, err := s.Resolve("u1", PrimaryStem("abc", "png"))
	require.NoError(t, err)
	assert.Equal(t, "u1/profile/abc.png", key)

	key, err = s.Resolve("u1", ThumbnailStem("abc"))
	require.NoError(t, err)
	assert.Equal(t, "u1/profile/thumbnail_abc.jpg", key)

	p, err := s.PhysicalPath(key)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Root(), "u1", "profile", "thumbnail_abc.jpg"), p)
}

func TestResolve_RejectsTraversal(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Resolve("../u1", "x.png")
	assert.ErrorIs(t, err, ErrInvalidOwnerID)

	_, err = s.Resolve("u1", "../x.png")
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = s.PhysicalPath("u1/profile/../../x")
	assert.Error(t, err)

	_, err = s.PhysicalPath("u1/other/x.png")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestPhysicalPath_RejectsSymlinkEscape(t *testing.T) {
	s := newTestStore(t)
	outside := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(s.Root(), "u1"), 0o755))
	require.NoError(t, os.Symlink(outside, filepath.Join(s.Root(), "u1", "profile")))

	_, err := s.PhysicalPath("u1/profile/x.png")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestWrite_CreatesDirectoriesAndIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	written, err := s.Write(ctx, "u1/profile/a.png", []byte("first"))
	require.NoError(t, err)
	assert.True(t, written)

	written, err = s.Write(ctx, "u1/profile/a.png", []byte("first"))
	require.NoError(t, err)
	assert.False(t, written)

	exists, err := s.Exists(ctx, "u1/profile/a.png")
	require.NoError(t, err)
	assert.True(t, exists)

	leftovers, err := os.ReadDir(filepath.Join(s.Root(), tmpDirName))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestOpen_StreamsContent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, err := s.Write(ctx, "u1/profile/b.jpg", []byte("payload"))
	require.NoError(t, err)

	rc, size, err := s.Open(ctx, "u1/profile/b.jpg")
	require.NoError(t, err)
	defer rc.Close()

	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(body))
	assert.Equal(t, int64(len("payload")), size)
}

func TestOpen_MissingBlob(t *testing.T) {
	s := newTestStore(t)

	_, _, err := s.Open(context.Background(), "u1/profile/missing.png")
	assert.ErrorIs(t, err, ErrBlobNotFound)

	exists, err := s.Exists(context.Background(), "u1/profile/missing.png")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestWrite_HonorsCancelledContext(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Write(ctx, "u1/profile/c.png", []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)

	_, statErr := os.Stat(filepath.Join(s.Root(), "u1"))
	assert.True(t, os.IsNotExist(statErr))
}
