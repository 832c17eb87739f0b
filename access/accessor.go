package access

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/skyvault/skyvault/internal/metrics"
	"github.com/skyvault/skyvault/kind"
	"github.com/skyvault/skyvault/store"
	"github.com/skyvault/skyvault/store/local"
	"github.com/skyvault/skyvault/store/s3"
)

// Accessor resolves relative paths against a fixed root directory and
// exposes raw (error-returning) and safe (Result-returning) file access on
// top of a storage backend. The backend is chosen once at construction and
// never swapped. An Accessor holds no per-call state.
type Accessor struct {
	root    string
	backend store.Backend
	log     *zap.Logger
	metrics *metrics.Metrics
}

// Option configures an Accessor.
type Option func(*options)

type options struct {
	backend store.Backend
	cloud   *s3.Options
	log     *zap.Logger
	reg     prometheus.Registerer
}

// WithBackend pins the storage backend, skipping the cloud/local selection.
func WithBackend(b store.Backend) Option {
	return func(o *options) { o.backend = b }
}

// WithCloud requests an S3-backed cloud backend. Construction falls back to
// the local backend when the cloud backend cannot be built.
func WithCloud(opts s3.Options) Option {
	return func(o *options) { o.cloud = &opts }
}

// WithLogger sets the logger used for accessor diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithMetrics enables Prometheus counters registered against reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) { o.reg = reg }
}

// New creates an Accessor rooted at root. The root directory is created if
// absent. Backend selection is a two-step initialization: when a cloud
// configuration is supplied the S3 backend is attempted first, and on
// failure the local backend is constructed instead; only the chosen backend
// is retained.
func New(root string, opts ...Option) (*Accessor, error) {
	if root == "" {
		return nil, fmt.Errorf("access: root directory is required")
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}

	backend := o.backend
	if backend == nil {
		if o.cloud != nil {
			cloud, err := s3.New(context.Background(), *o.cloud, o.log)
			if err == nil {
				backend = cloud
			} else {
				o.log.Warn("cloud backend unavailable, using local storage", zap.Error(err))
			}
		}
		if backend == nil {
			backend = local.New(o.log)
		}
	}

	a := &Accessor{
		root:    root,
		backend: backend,
		log:     o.log,
	}
	if o.reg != nil {
		a.metrics = metrics.New(o.reg)
	}

	if err := backend.MkdirAll(context.Background(), root); err != nil {
		return nil, fmt.Errorf("access: create root %s: %w", root, err)
	}
	return a, nil
}

// Root returns the accessor's root directory.
func (a *Accessor) Root() string {
	return a.root
}

// resolve maps a caller-supplied relative path onto the root. Absolute
// paths are rejected; ".." components cannot climb above the root.
func (a *Accessor) resolve(rel string) (string, error) {
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("access: absolute path not accepted: %s", rel)
	}
	cleaned := strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(rel)), "/")
	return a.backend.Join(a.root, cleaned), nil
}

// Exists reports whether the relative path exists. Backend errors read as
// absent.
func (a *Accessor) Exists(ctx context.Context, rel string) bool {
	abs, err := a.resolve(rel)
	if err != nil {
		return false
	}
	ok, err := a.backend.Exists(ctx, abs)
	return err == nil && ok
}

// IsDirectory reports whether the relative path is a directory.
func (a *Accessor) IsDirectory(ctx context.Context, rel string) bool {
	abs, err := a.resolve(rel)
	if err != nil {
		return false
	}
	ok, err := a.backend.IsDir(ctx, abs)
	return err == nil && ok
}

// Write serializes payload and writes it under the root. There is no safe
// variant: reads routinely meet absence and latency, writes target a
// reachable root, so backend failures propagate.
//
// Serialization follows the payload's runtime shape, not the declared kind:
// strings and byte slices are written verbatim, everything else is encoded
// (JSON by default, YAML/TOML for those kinds). The kind otherwise only
// picks the canonical extension.
func (a *Accessor) Write(ctx context.Context, payload any, rel string, k kind.Kind, opts ...CallOption) error {
	cfg := applyCallOptions(opts)

	name := k.Apply(rel)
	target := name
	if !cfg.unscoped {
		var err error
		if target, err = a.resolve(name); err != nil {
			return err
		}
	}

	data, err := serialize(payload, k)
	if err != nil {
		return err
	}
	return a.backend.WriteBytes(ctx, target, data)
}

// CallOption adjusts a single read or write.
type CallOption func(*callConfig)

type callConfig struct {
	unscoped bool
}

// Unscoped passes the path to the backend verbatim instead of resolving it
// against the root. Applies to reads and writes alike; the caller owns the
// path's validity.
func Unscoped() CallOption {
	return func(c *callConfig) { c.unscoped = true }
}

func applyCallOptions(opts []CallOption) callConfig {
	var cfg callConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func serialize(payload any, k kind.Kind) ([]byte, error) {
	switch p := payload.(type) {
	case nil:
		return nil, fmt.Errorf("access: nil payload")
	case []byte:
		return p, nil
	case string:
		return []byte(p), nil
	}

	switch k {
	case kind.YAML:
		data, err := yaml.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return data, nil
	case kind.TOML:
		data, err := toml.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode toml: %w", err)
		}
		return data, nil
	default:
		// Structured payloads serialize to JSON even under a text kind.
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		return data, nil
	}
}

// Copy copies one relative path to another. Failures propagate.
func (a *Accessor) Copy(ctx context.Context, from, to string) error {
	src, err := a.resolve(from)
	if err != nil {
		return err
	}
	dst, err := a.resolve(to)
	if err != nil {
		return err
	}
	return a.backend.Copy(ctx, src, dst)
}

// Move moves one relative path to another. Failures propagate.
func (a *Accessor) Move(ctx context.Context, from, to string) error {
	src, err := a.resolve(from)
	if err != nil {
		return err
	}
	dst, err := a.resolve(to)
	if err != nil {
		return err
	}
	return a.backend.Move(ctx, src, dst)
}

// Remove deletes the relative path. Failures propagate.
func (a *Accessor) Remove(ctx context.Context, rel string) error {
	abs, err := a.resolve(rel)
	if err != nil {
		return err
	}
	return a.backend.Remove(ctx, abs)
}

// MkdirAll creates the relative directory and any missing parents.
func (a *Accessor) MkdirAll(ctx context.Context, rel string) error {
	abs, err := a.resolve(rel)
	if err != nil {
		return err
	}
	return a.backend.MkdirAll(ctx, abs)
}

// Stat returns metadata for the relative path.
func (a *Accessor) Stat(ctx context.Context, rel string) (store.Info, error) {
	abs, err := a.resolve(rel)
	if err != nil {
		return store.Info{}, err
	}
	return a.backend.Stat(ctx, abs)
}

// ModificationDate returns the last-modified time of the relative path.
func (a *Accessor) ModificationDate(ctx context.Context, rel string) (time.Time, error) {
	info, err := a.Stat(ctx, rel)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime, nil
}

// CreationDate returns the creation time of the relative path. Backends
// without creation times report the modification time.
func (a *Accessor) CreationDate(ctx context.Context, rel string) (time.Time, error) {
	info, err := a.Stat(ctx, rel)
	if err != nil {
		return time.Time{}, err
	}
	return info.CreatedAt, nil
}

// Size returns the size in bytes of the relative path.
func (a *Accessor) Size(ctx context.Context, rel string) (int64, error) {
	info, err := a.Stat(ctx, rel)
	if err != nil {
		return 0, err
	}
	return info.Size, nil
}

// ListContents returns the entry names directly under the relative path.
func (a *Accessor) ListContents(ctx context.Context, rel string) ([]string, error) {
	abs, err := a.resolve(rel)
	if err != nil {
		return nil, err
	}
	return a.backend.List(ctx, abs)
}

// ListGlob returns paths under the relative directory matching a doublestar
// pattern, relative to that directory.
func (a *Accessor) ListGlob(ctx context.Context, rel, pattern string) ([]string, error) {
	abs, err := a.resolve(rel)
	if err != nil {
		return nil, err
	}
	return a.backend.ListGlob(ctx, abs, pattern)
}
