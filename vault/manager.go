// Package vault provides a simplified file access surface keyed by content
// kind. It infers canonical extensions, routes reads through the safe
// access pipeline with kind-specific parsing, and serializes writes by the
// payload's runtime shape.
package vault

import (
	"context"
	"fmt"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"

	"github.com/skyvault/skyvault/access"
	"github.com/skyvault/skyvault/kind"
	"github.com/skyvault/skyvault/result"
)

// Manager is a typed façade over an Accessor.
type Manager struct {
	acc         *access.Accessor
	log         *zap.Logger
	defaultStub string
}

// Option configures a Manager.
type Option func(*Manager)

// WithDefaultStub sets the filename used when a write omits one.
func WithDefaultStub(name string) Option {
	return func(m *Manager) { m.defaultStub = name }
}

// WithLogger sets the manager's logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// New creates a Manager over acc.
func New(acc *access.Accessor, opts ...Option) *Manager {
	m := &Manager{acc: acc, log: zap.NewNop()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Accessor returns the underlying accessor.
func (m *Manager) Accessor() *access.Accessor {
	return m.acc
}

// PathFor returns the logical filename a read or write of file with the
// given kind resolves to. Extension application is idempotent.
func (m *Manager) PathFor(file string, k kind.Kind) string {
	return k.Apply(file)
}

// Read reads file with kind-specific parsing. Text, Log and Other kinds
// return the verbatim string; JSON parses any shape; JSONObject enforces an
// object; YAML and TOML parse into a map.
func (m *Manager) Read(ctx context.Context, file string, k kind.Kind, opts ...access.CallOption) result.Result[any] {
	name := k.Apply(file)

	switch k {
	case kind.JSON:
		return m.acc.ReadJSONSafe(ctx, name, opts...)
	case kind.JSONObject:
		return toAny(m.acc.ReadJSONObjectSafe(ctx, name, opts...))
	case kind.YAML:
		return m.parseWith(m.acc.ReadTextSafe(ctx, name, opts...), name, "yaml", func(text string) (map[string]any, error) {
			var parsed map[string]any
			err := yaml.Unmarshal([]byte(text), &parsed)
			return parsed, err
		})
	case kind.TOML:
		return m.parseWith(m.acc.ReadTextSafe(ctx, name, opts...), name, "toml", func(text string) (map[string]any, error) {
			var parsed map[string]any
			err := toml.Unmarshal([]byte(text), &parsed)
			return parsed, err
		})
	default:
		return toAny(m.acc.ReadTextSafe(ctx, name, opts...))
	}
}

// ReadText reads file as verbatim text.
func (m *Manager) ReadText(ctx context.Context, file string, opts ...access.CallOption) result.Result[string] {
	return m.acc.ReadTextSafe(ctx, kind.Text.Apply(file), opts...)
}

// ReadJSON reads file as JSON of any shape.
func (m *Manager) ReadJSON(ctx context.Context, file string, opts ...access.CallOption) result.Result[any] {
	return m.acc.ReadJSONSafe(ctx, kind.JSON.Apply(file), opts...)
}

// ReadJSONObject reads file as a JSON object.
func (m *Manager) ReadJSONObject(ctx context.Context, file string, opts ...access.CallOption) result.Result[map[string]any] {
	return m.acc.ReadJSONObjectSafe(ctx, kind.JSONObject.Apply(file), opts...)
}

// Write serializes payload and writes it under file's kind-resolved name.
// An empty file falls back to the default stub. Failures propagate; writes
// have no safe variant.
func (m *Manager) Write(ctx context.Context, payload any, file string, k kind.Kind, opts ...access.CallOption) error {
	if file == "" {
		if m.defaultStub == "" {
			return fmt.Errorf("vault: no filename given and no default stub configured")
		}
		file = m.defaultStub
	}
	return m.acc.Write(ctx, payload, file, k, opts...)
}

// Ext returns the canonical extension for k.
func (m *Manager) Ext(k kind.Kind, omitDot bool) string {
	return k.Ext(omitDot)
}

// KindFor maps an extension to its content kind. Unmapped extensions fail.
func (m *Manager) KindFor(ext string) (kind.Kind, error) {
	return kind.ForExtension(ext)
}

// toAny widens a typed result, keeping payload, status and message.
func toAny[T any](r result.Result[T]) result.Result[any] {
	if p, ok := r.Payload(); ok {
		return result.Of[any](p, r.Status()).WithMessage(r.Message())
	}
	return result.Empty[any](r.Status()).WithMessage(r.Message())
}

// parseWith applies a parser to a successful text read, converting parse
// failures into error results.
func (m *Manager) parseWith(r result.Result[string], name, format string, parse func(string) (map[string]any, error)) result.Result[any] {
	text, ok := r.Payload()
	if !ok {
		return result.Empty[any](r.Status()).WithMessage(r.Message())
	}
	parsed, err := parse(text)
	if err != nil {
		m.log.Warn("kind parse failed",
			zap.String("file", name),
			zap.String("format", format),
			zap.Error(err))
		return result.Error[any](fmt.Sprintf("parse %s in %s: %v", format, name, err))
	}
	return result.Of[any](parsed, r.Status()).WithMessage(r.Message())
}
