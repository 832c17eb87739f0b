// Package local implements the storage backend on the local filesystem.
package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skyvault/skyvault/store"
)

// Backend is a local-disk storage backend. Nothing is cloud-resident, so
// IsCloudResident is always false and Download is a no-op.
type Backend struct {
	log *zap.Logger
}

// New creates a local backend. A nil logger is replaced with a no-op one.
func New(log *zap.Logger) *Backend {
	if log == nil {
		log = zap.NewNop()
	}
	return &Backend{log: log}
}

func (b *Backend) Exists(_ context.Context, path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (b *Backend) IsDir(_ context.Context, path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}

func (b *Backend) MkdirAll(_ context.Context, path string) error {
	return os.MkdirAll(path, 0o755)
}

func (b *Backend) ReadBytes(_ context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", store.ErrNotExist, path)
		}
		return nil, err
	}
	return data, nil
}

func (b *Backend) ReadText(ctx context.Context, path string) (string, error) {
	data, err := b.ReadBytes(ctx, path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteBytes writes atomically: bytes land in a temp file next to the
// target, then rename into place.
func (b *Backend) WriteBytes(_ context.Context, path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}

	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(path), uuid.NewString()))
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

func (b *Backend) WriteText(ctx context.Context, path string, text string) error {
	return b.WriteBytes(ctx, path, []byte(text))
}

func (b *Backend) Copy(ctx context.Context, from, to string) error {
	data, err := b.ReadBytes(ctx, from)
	if err != nil {
		return err
	}
	return b.WriteBytes(ctx, to, data)
}

func (b *Backend) Move(_ context.Context, from, to string) error {
	if err := os.MkdirAll(filepath.Dir(to), 0o755); err != nil {
		return err
	}
	return os.Rename(from, to)
}

func (b *Backend) Remove(_ context.Context, path string) error {
	return os.RemoveAll(path)
}

func (b *Backend) List(_ context.Context, path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", store.ErrNotExist, path)
		}
		return nil, err
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return names, nil
}

// ListGlob walks root with fastwalk and keeps paths whose root-relative form
// matches the doublestar pattern.
func (b *Backend) ListGlob(_ context.Context, root, pattern string) ([]string, error) {
	var matches []string
	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		ok, err := doublestar.Match(pattern, rel)
		if err != nil {
			return err
		}
		if ok {
			matches = append(matches, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

func (b *Backend) Join(elem ...string) string {
	return filepath.Join(elem...)
}

func (b *Backend) IsCloudResident(_ context.Context, _ string) (bool, error) {
	return false, nil
}

func (b *Backend) IsDownloaded(_ context.Context, _ string) (bool, error) {
	return true, nil
}

func (b *Backend) Download(_ context.Context, _ string) error {
	return nil
}

func (b *Backend) Stat(_ context.Context, path string) (store.Info, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return store.Info{}, fmt.Errorf("%w: %s", store.ErrNotExist, path)
		}
		return store.Info{}, err
	}

	info := store.Info{
		Size: fi.Size(),
		// Creation time is not portable; modification time stands in.
		ModTime:   fi.ModTime(),
		CreatedAt: fi.ModTime(),
		IsDir:     fi.IsDir(),
	}
	if !fi.IsDir() {
		if mtype, err := mimetype.DetectFile(path); err == nil {
			info.MIME = mtype.String()
		}
	}
	return info, nil
}

// TreeSize returns the total size in bytes of all regular files under root.
func (b *Backend) TreeSize(_ context.Context, root string) (int64, error) {
	var total int64
	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, root, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return 0, err
	}
	return total, nil
}
