package access_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/skyvault/skyvault/access"
	"github.com/skyvault/skyvault/kind"
	"github.com/skyvault/skyvault/result"
	"github.com/skyvault/skyvault/store"
	"github.com/skyvault/skyvault/store/local"
	"github.com/skyvault/skyvault/store/storetest"
)

func newLocalAccessor(t *testing.T) *access.Accessor {
	t.Helper()
	acc, err := access.New(filepath.Join(t.TempDir(), "vault"), access.WithBackend(local.New(nil)))
	require.NoError(t, err)
	return acc
}

// TestNewCreatesRoot tests that construction materializes the root directory
func TestNewCreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "fresh")
	b := local.New(nil)
	_, err := access.New(root, access.WithBackend(b))
	require.NoError(t, err)

	ok, err := b.IsDir(context.Background(), root)
	require.NoError(t, err)
	assert.True(t, ok)
}

// TestReadTextSafeRoundTrip tests write-then-safe-read of plain text
func TestReadTextSafeRoundTrip(t *testing.T) {
	acc := newLocalAccessor(t)
	ctx := context.Background()

	require.NoError(t, acc.Write(ctx, "hello world", "notes", kind.Text))

	r := acc.ReadTextSafe(ctx, "notes.txt")
	assert.True(t, r.Succeeded())
	assert.Equal(t, result.StatusOK, r.Status())
	text, ok := r.Payload()
	assert.True(t, ok)
	assert.Equal(t, "hello world", text)
}

// TestReadSafeMissingFile tests that absence maps to NOT_FOUND, not an error
func TestReadSafeMissingFile(t *testing.T) {
	acc := newLocalAccessor(t)
	ctx := context.Background()

	r := acc.ReadTextSafe(ctx, "missing")
	assert.Equal(t, result.StatusNotFound, r.Status())
	assert.True(t, r.IsEmpty())
	assert.False(t, r.Succeeded())
	assert.Contains(t, r.Message(), "missing")

	jr := acc.ReadJSONSafe(ctx, "missing")
	assert.Equal(t, result.StatusNotFound, jr.Status())

	br := acc.ReadBytesSafe(ctx, "missing")
	assert.Equal(t, result.StatusNotFound, br.Status())
}

// TestReadJSONObjectSafe tests object enforcement on parsed JSON
func TestReadJSONObjectSafe(t *testing.T) {
	acc := newLocalAccessor(t)
	ctx := context.Background()

	require.NoError(t, acc.Write(ctx, map[string]any{"a": 1}, "rec", kind.JSON))

	r := acc.ReadJSONObjectSafe(ctx, "rec.json")
	require.True(t, r.Succeeded())
	obj, ok := r.Payload()
	require.True(t, ok)
	assert.Equal(t, float64(1), obj["a"])
}

// TestReadJSONObjectSafeRejectsArray tests that arrays are a shape violation
func TestReadJSONObjectSafeRejectsArray(t *testing.T) {
	acc := newLocalAccessor(t)
	ctx := context.Background()

	require.NoError(t, acc.Write(ctx, "[1,2,3]", "list.json", kind.JSON))

	r := acc.ReadJSONObjectSafe(ctx, "list.json")
	assert.Equal(t, result.StatusError, r.Status())
	assert.True(t, r.IsEmpty())
	assert.Contains(t, r.Message(), "array")
}

// TestReadJSONSafeMalformed tests that parse failures become ERROR results
func TestReadJSONSafeMalformed(t *testing.T) {
	acc := newLocalAccessor(t)
	ctx := context.Background()

	require.NoError(t, acc.Write(ctx, "{not json", "broken.json", kind.JSON))

	r := acc.ReadJSONSafe(ctx, "broken.json")
	assert.Equal(t, result.StatusError, r.Status())
	assert.True(t, r.IsEmpty())
}

// TestReadImageSafeRejectsText tests the image shape check
func TestReadImageSafeRejectsText(t *testing.T) {
	acc := newLocalAccessor(t)
	ctx := context.Background()

	require.NoError(t, acc.Write(ctx, "just text", "pic", kind.Other))

	r := acc.ReadImageSafe(ctx, "pic")
	assert.Equal(t, result.StatusError, r.Status())
	assert.Contains(t, r.Message(), "expected image")
}

// TestReadImageSafeAcceptsPNG tests that real image bytes pass
func TestReadImageSafeAcceptsPNG(t *testing.T) {
	acc := newLocalAccessor(t)
	ctx := context.Background()

	// Minimal PNG header is enough for content detection
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	require.NoError(t, acc.Write(ctx, png, "shot.png", kind.Other))

	r := acc.ReadImageSafe(ctx, "shot.png")
	assert.True(t, r.Succeeded())
	data, ok := r.Payload()
	assert.True(t, ok)
	assert.Equal(t, png, data)
}

// TestRawReadPropagatesAbsence tests the fail-fast raw surface
func TestRawReadPropagatesAbsence(t *testing.T) {
	acc := newLocalAccessor(t)
	ctx := context.Background()

	_, err := acc.ReadText(ctx, "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrNotExist))

	_, err = acc.ReadJSONObject(ctx, "nope")
	require.Error(t, err)
}

// TestWriteStructuredUnderTextKind tests that object payloads serialize to
// JSON even when the declared kind is text
func TestWriteStructuredUnderTextKind(t *testing.T) {
	acc := newLocalAccessor(t)
	ctx := context.Background()

	require.NoError(t, acc.Write(ctx, map[string]any{"k": "v"}, "mixed", kind.Text))

	text, err := acc.ReadText(ctx, "mixed.txt")
	require.NoError(t, err)
	assert.JSONEq(t, `{"k":"v"}`, text)
}

// TestPathScoping tests that absolute and escaping paths cannot leave the root
func TestPathScoping(t *testing.T) {
	acc := newLocalAccessor(t)
	ctx := context.Background()

	_, err := acc.ReadText(ctx, "/etc/passwd")
	assert.Error(t, err)

	require.NoError(t, acc.Write(ctx, "scoped", "../../escape", kind.Text))
	r := acc.ReadTextSafe(ctx, "escape.txt")
	assert.True(t, r.Succeeded(), "escaping path is clamped inside the root")
}

// TestUnscopedReadWrite tests that the per-call option bypasses root
// resolution symmetrically for writes and safe reads
func TestUnscopedReadWrite(t *testing.T) {
	acc := newLocalAccessor(t)
	ctx := context.Background()
	outside := filepath.Join(t.TempDir(), "external.txt")

	require.NoError(t, acc.Write(ctx, "outside data", outside, kind.Other, access.Unscoped()))

	// A scoped read never accepts the absolute path
	r := acc.ReadTextSafe(ctx, outside)
	assert.Equal(t, result.StatusError, r.Status())
	assert.True(t, r.IsEmpty())

	r = acc.ReadTextSafe(ctx, outside, access.Unscoped())
	require.True(t, r.Succeeded())
	assert.Equal(t, "outside data", r.Value())
}

// TestExistsAndIsDirectory tests the boolean checks
func TestExistsAndIsDirectory(t *testing.T) {
	acc := newLocalAccessor(t)
	ctx := context.Background()

	assert.False(t, acc.Exists(ctx, "sub"))
	require.NoError(t, acc.MkdirAll(ctx, "sub"))
	assert.True(t, acc.Exists(ctx, "sub"))
	assert.True(t, acc.IsDirectory(ctx, "sub"))

	require.NoError(t, acc.Write(ctx, "x", "sub/file", kind.Text))
	assert.True(t, acc.Exists(ctx, "sub/file.txt"))
	assert.False(t, acc.IsDirectory(ctx, "sub/file.txt"))
}

// TestCopyRemoveList tests the thin delegations
func TestCopyRemoveList(t *testing.T) {
	acc := newLocalAccessor(t)
	ctx := context.Background()

	require.NoError(t, acc.Write(ctx, "data", "a", kind.Text))
	require.NoError(t, acc.Copy(ctx, "a.txt", "b.txt"))

	names, err := acc.ListContents(ctx, "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.txt", "b.txt"}, names)

	when, err := acc.ModificationDate(ctx, "a.txt")
	require.NoError(t, err)
	assert.False(t, when.IsZero())

	size, err := acc.Size(ctx, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(4), size)

	require.NoError(t, acc.Remove(ctx, "a.txt"))
	assert.False(t, acc.Exists(ctx, "a.txt"))
}

// TestListGlob tests glob-filtered listing
func TestListGlob(t *testing.T) {
	acc := newLocalAccessor(t)
	ctx := context.Background()

	require.NoError(t, acc.Write(ctx, "{}", "one", kind.JSON))
	require.NoError(t, acc.Write(ctx, "{}", "nested/two", kind.JSON))
	require.NoError(t, acc.Write(ctx, "text", "three", kind.Text))

	matches, err := acc.ListGlob(ctx, "", "**/*.json")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"one.json", "nested/two.json"}, matches)
}

// TestCloudDownloadHappensOnce tests that a cloud-resident, undownloaded
// file triggers exactly one download before the read
func TestCloudDownloadHappensOnce(t *testing.T) {
	m := new(storetest.MockBackend)
	m.On("MkdirAll", mock.Anything, mock.Anything).Return(nil)

	acc, err := access.New("vault", access.WithBackend(m))
	require.NoError(t, err)

	ctx := context.Background()
	m.On("Exists", ctx, "vault/notes.txt").Return(true, nil)
	m.On("IsCloudResident", ctx, "vault/notes.txt").Return(true, nil)
	m.On("IsDownloaded", ctx, "vault/notes.txt").Return(false, nil)
	m.On("Download", ctx, "vault/notes.txt").Return(nil).Once()
	m.On("ReadBytes", ctx, "vault/notes.txt").Return([]byte("cloud data"), nil)

	r := acc.ReadTextSafe(ctx, "notes.txt")
	require.True(t, r.Succeeded())
	assert.Equal(t, "cloud data", r.Value())

	m.AssertNumberOfCalls(t, "Download", 1)
	m.AssertExpectations(t)
}

// TestCloudDownloadFailureDegrades tests that a failed download resolves to
// ERROR or NOT_FOUND instead of hanging or raising
func TestCloudDownloadFailureDegrades(t *testing.T) {
	m := new(storetest.MockBackend)
	m.On("MkdirAll", mock.Anything, mock.Anything).Return(nil)

	acc, err := access.New("vault", access.WithBackend(m))
	require.NoError(t, err)

	ctx := context.Background()
	m.On("Exists", ctx, "vault/gone.txt").Return(true, nil)
	m.On("IsCloudResident", ctx, "vault/gone.txt").Return(true, nil)
	m.On("IsDownloaded", ctx, "vault/gone.txt").Return(false, nil)
	m.On("Download", ctx, "vault/gone.txt").Return(fmt.Errorf("network unreachable"))
	m.On("ReadBytes", ctx, "vault/gone.txt").
		Return(nil, fmt.Errorf("%w: vault/gone.txt", store.ErrNotExist))

	r := acc.ReadTextSafe(ctx, "gone.txt")
	assert.True(t, r.IsEmpty())
	assert.Contains(t, []result.Status{result.StatusError, result.StatusNotFound}, r.Status())
}

// TestAlreadyDownloadedSkipsDownload tests that a materialized cloud file
// reads without another download
func TestAlreadyDownloadedSkipsDownload(t *testing.T) {
	m := new(storetest.MockBackend)
	m.On("MkdirAll", mock.Anything, mock.Anything).Return(nil)

	acc, err := access.New("vault", access.WithBackend(m))
	require.NoError(t, err)

	ctx := context.Background()
	m.On("Exists", ctx, "vault/hot.txt").Return(true, nil)
	m.On("IsCloudResident", ctx, "vault/hot.txt").Return(true, nil)
	m.On("IsDownloaded", ctx, "vault/hot.txt").Return(true, nil)
	m.On("ReadBytes", ctx, "vault/hot.txt").Return([]byte("warm"), nil)

	r := acc.ReadTextSafe(ctx, "hot.txt")
	require.True(t, r.Succeeded())
	m.AssertNotCalled(t, "Download", mock.Anything, mock.Anything)
}
