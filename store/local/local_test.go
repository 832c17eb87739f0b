package local_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyvault/skyvault/store"
	"github.com/skyvault/skyvault/store/local"
)

// TestReadWriteRoundTrip tests atomic write and read back
func TestReadWriteRoundTrip(t *testing.T) {
	b := local.New(nil)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "deep", "nested", "file.txt")

	require.NoError(t, b.WriteBytes(ctx, path, []byte("content")))

	data, err := b.ReadBytes(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, []byte("content"), data)

	text, err := b.ReadText(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "content", text)
}

// TestWriteLeavesNoTempFiles tests that the temp file is gone after rename
func TestWriteLeavesNoTempFiles(t *testing.T) {
	b := local.New(nil)
	ctx := context.Background()
	dir := t.TempDir()

	require.NoError(t, b.WriteText(ctx, filepath.Join(dir, "a.txt"), "x"))

	names, err := b.List(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, names)
}

// TestReadMissingIsErrNotExist tests the sentinel on absent files
func TestReadMissingIsErrNotExist(t *testing.T) {
	b := local.New(nil)
	ctx := context.Background()

	_, err := b.ReadBytes(ctx, filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrNotExist))

	_, err = b.Stat(ctx, filepath.Join(t.TempDir(), "absent"))
	assert.True(t, errors.Is(err, store.ErrNotExist))
}

// TestExistsAndIsDir tests the boolean checks
func TestExistsAndIsDir(t *testing.T) {
	b := local.New(nil)
	ctx := context.Background()
	dir := t.TempDir()
	file := filepath.Join(dir, "f")

	ok, err := b.Exists(ctx, file)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, b.WriteText(ctx, file, "data"))

	ok, err = b.Exists(ctx, file)
	require.NoError(t, err)
	assert.True(t, ok)

	isDir, err := b.IsDir(ctx, dir)
	require.NoError(t, err)
	assert.True(t, isDir)

	isDir, err = b.IsDir(ctx, file)
	require.NoError(t, err)
	assert.False(t, isDir)
}

// TestCopyMoveRemove tests the file manipulation primitives
func TestCopyMoveRemove(t *testing.T) {
	b := local.New(nil)
	ctx := context.Background()
	dir := t.TempDir()
	src := filepath.Join(dir, "src")

	require.NoError(t, b.WriteText(ctx, src, "payload"))
	require.NoError(t, b.Copy(ctx, src, filepath.Join(dir, "copy")))
	require.NoError(t, b.Move(ctx, filepath.Join(dir, "copy"), filepath.Join(dir, "moved")))

	text, err := b.ReadText(ctx, filepath.Join(dir, "moved"))
	require.NoError(t, err)
	assert.Equal(t, "payload", text)

	require.NoError(t, b.Remove(ctx, src))
	ok, _ := b.Exists(ctx, src)
	assert.False(t, ok)
}

// TestListGlob tests doublestar matching over the walked tree
func TestListGlob(t *testing.T) {
	b := local.New(nil)
	ctx := context.Background()
	dir := t.TempDir()

	require.NoError(t, b.WriteText(ctx, filepath.Join(dir, "a.json"), "{}"))
	require.NoError(t, b.WriteText(ctx, filepath.Join(dir, "sub", "b.json"), "{}"))
	require.NoError(t, b.WriteText(ctx, filepath.Join(dir, "c.txt"), "x"))

	matches, err := b.ListGlob(ctx, dir, "**/*.json")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.json", "sub/b.json"}, matches)
}

// TestStat tests metadata including MIME detection
func TestStat(t *testing.T) {
	b := local.New(nil)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data.json")

	require.NoError(t, b.WriteText(ctx, path, `{"a":1}`))

	info, err := b.Stat(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, int64(7), info.Size)
	assert.False(t, info.IsDir)
	assert.False(t, info.ModTime.IsZero())
	assert.Contains(t, info.MIME, "json")
}

// TestCloudPrimitivesAreLocalNoOps tests the cloud surface of the local backend
func TestCloudPrimitivesAreLocalNoOps(t *testing.T) {
	b := local.New(nil)
	ctx := context.Background()

	resident, err := b.IsCloudResident(ctx, "/anything")
	require.NoError(t, err)
	assert.False(t, resident)

	downloaded, err := b.IsDownloaded(ctx, "/anything")
	require.NoError(t, err)
	assert.True(t, downloaded)

	assert.NoError(t, b.Download(ctx, "/anything"))
}

// TestTreeSize tests recursive size accounting
func TestTreeSize(t *testing.T) {
	b := local.New(nil)
	ctx := context.Background()
	dir := t.TempDir()

	require.NoError(t, b.WriteText(ctx, filepath.Join(dir, "a"), "12345"))
	require.NoError(t, b.WriteText(ctx, filepath.Join(dir, "sub", "b"), "123"))

	total, err := b.TreeSize(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, int64(8), total)
}
