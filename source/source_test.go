package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDir(t *testing.T) *Dir {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("alpha"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "b.txt"), []byte("beta"), 0644))
	dir, err := NewDir(root)
	require.NoError(t, err)
	return dir
}

func TestNewDir_NotADirectory(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(f, nil, 0644))
	_, err := NewDir(f)
	assert.Error(t, err)

	_, err = NewDir(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestDir_ReadAll(t *testing.T) {
	dir := newTestDir(t)
	ctx := context.Background()

	data, err := ReadAll(ctx, dir, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "alpha", string(data))

	data, err = ReadAll(ctx, dir, "sub/b.txt")
	require.NoError(t, err)
	assert.Equal(t, "beta", string(data))
}

func TestDir_NotFound(t *testing.T) {
	dir := newTestDir(t)
	_, err := dir.Open(context.Background(), "missing.pdf")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDir_RejectsEscapes(t *testing.T) {
	dir := newTestDir(t)
	for _, name := range []string{"../secret", "/etc/passwd", "sub/../../x"} {
		_, err := dir.Open(context.Background(), name)
		assert.ErrorIs(t, err, ErrInvalidName, name)
	}
}

func TestDir_CanceledContext(t *testing.T) {
	dir := newTestDir(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := dir.Open(ctx, "a.txt")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewS3_RequiresBucket(t *testing.T) {
	_, err := NewS3(context.Background(), S3Config{})
	assert.Error(t, err)
}

func TestS3_Key(t *testing.T) {
	s := &S3{bucket: "b", prefix: "uploads"}
	assert.Equal(t, "uploads/a.pdf", s.key("a.pdf"))

	s.prefix = ""
	assert.Equal(t, "a.pdf", s.key("a.pdf"))
}

func TestFS_Open(t *testing.T) {
	src := FromFS(fstest.MapFS{"docs/a.txt": {Data: []byte("alpha")}})
	ctx := context.Background()

	data, err := ReadAll(ctx, src, "docs/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "alpha", string(data))

	_, err = src.Open(ctx, "docs/missing.txt")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = src.Open(ctx, "../a.txt")
	assert.ErrorIs(t, err, ErrInvalidName)
}
