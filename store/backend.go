package store

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors shared by backend implementations.
var (
	// ErrNotExist reports that the target path does not exist in the backend.
	ErrNotExist = errors.New("store: file does not exist")

	// ErrNotDownloaded reports that a cloud-resident object has no local
	// bytes yet. Callers must Download before reading.
	ErrNotDownloaded = errors.New("store: cloud object not materialized locally")
)

// Info holds file metadata.
type Info struct {
	Size      int64     `json:"size"`
	ModTime   time.Time `json:"modified"`
	CreatedAt time.Time `json:"created"`
	IsDir     bool      `json:"is_dir"`
	MIME      string    `json:"mime_type,omitempty"`
}

// Backend is the storage primitive collaborator the access layer delegates
// raw I/O to. Implementations operate on fully resolved paths; relative-path
// scoping happens above this interface.
//
// Read operations fail (they do not return empty data) when the target is
// absent or, for cloud backends, not yet downloaded. Download is the one
// operation expected to block for a meaningful time; it honors ctx.
type Backend interface {
	Exists(ctx context.Context, path string) (bool, error)
	IsDir(ctx context.Context, path string) (bool, error)
	MkdirAll(ctx context.Context, path string) error

	ReadBytes(ctx context.Context, path string) ([]byte, error)
	ReadText(ctx context.Context, path string) (string, error)
	WriteBytes(ctx context.Context, path string, data []byte) error
	WriteText(ctx context.Context, path string, text string) error

	Copy(ctx context.Context, from, to string) error
	Move(ctx context.Context, from, to string) error
	Remove(ctx context.Context, path string) error

	// List returns the names of the entries directly under path.
	List(ctx context.Context, path string) ([]string, error)
	// ListGlob returns paths under root matching pattern, relative to root.
	// Patterns support doublestar globs ("**/*.json").
	ListGlob(ctx context.Context, root, pattern string) ([]string, error)

	// Join joins path elements using the backend's separator convention.
	Join(elem ...string) string

	// IsCloudResident reports whether the path's bytes live in a cloud
	// store and may not be present locally.
	IsCloudResident(ctx context.Context, path string) (bool, error)
	// IsDownloaded reports whether a cloud-resident path has local bytes.
	// Always true for purely local backends.
	IsDownloaded(ctx context.Context, path string) (bool, error)
	// Download materializes a cloud-resident path locally, blocking until
	// the bytes are present or ctx is done.
	Download(ctx context.Context, path string) error

	Stat(ctx context.Context, path string) (Info, error)
}
