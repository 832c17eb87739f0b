package access

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/skyvault/skyvault/result"
	"github.com/skyvault/skyvault/store"
)

// Safe accessors never return an error for routine failure modes: missing
// files, undownloaded cloud files, and malformed content all come back as
// status-tagged results. Backend failures are absorbed into the result's
// message; nothing is re-raised.

// failure is a resolved failure ready to become an empty result.
type failure struct {
	status  result.Status
	message string
}

// fetch runs the safe pipeline up to the raw byte read: existence check,
// conditional cloud materialization, then read. A failed download is not
// distinguished from a vanished file; the subsequent read decides.
func (a *Accessor) fetch(ctx context.Context, rel string, cfg callConfig) ([]byte, *failure) {
	abs := rel
	if !cfg.unscoped {
		resolved, err := a.resolve(rel)
		if err != nil {
			return nil, &failure{result.StatusError, err.Error()}
		}
		abs = resolved
	}

	exists, err := a.backend.Exists(ctx, abs)
	if err != nil {
		return nil, &failure{result.StatusError, fmt.Sprintf("existence check for %s: %v", abs, err)}
	}
	if !exists {
		return nil, &failure{result.StatusNotFound, fmt.Sprintf("file not found: %s", abs)}
	}

	if resident, err := a.backend.IsCloudResident(ctx, abs); err == nil && resident {
		downloaded, derr := a.backend.IsDownloaded(ctx, abs)
		if derr == nil && !downloaded {
			// The one suspension point: block until the backend has the
			// bytes locally or the download fails.
			if err := a.backend.Download(ctx, abs); err != nil {
				a.metrics.RecordDownload("error")
				a.log.Debug("cloud download failed", zap.String("path", abs), zap.Error(err))
			} else {
				a.metrics.RecordDownload("ok")
			}
		}
	}

	data, err := a.backend.ReadBytes(ctx, abs)
	if err != nil {
		if errors.Is(err, store.ErrNotExist) {
			return nil, &failure{result.StatusNotFound, fmt.Sprintf("file not found: %s", abs)}
		}
		return nil, &failure{result.StatusError, fmt.Sprintf("read %s: %v", abs, err)}
	}
	return data, nil
}

func fail[T any](a *Accessor, f *failure) result.Result[T] {
	a.metrics.RecordRead(string(f.status))
	a.log.Warn("safe read failed", zap.String("status", string(f.status)), zap.String("reason", f.message))
	return result.Empty[T](f.status, f.message)
}

func succeed[T any](a *Accessor, payload T) result.Result[T] {
	a.metrics.RecordRead(string(result.StatusOK))
	return result.Ok(payload)
}

// ReadTextSafe reads the relative path as text.
func (a *Accessor) ReadTextSafe(ctx context.Context, rel string, opts ...CallOption) result.Result[string] {
	data, f := a.fetch(ctx, rel, applyCallOptions(opts))
	if f != nil {
		return fail[string](a, f)
	}
	return succeed(a, string(data))
}

// ReadBytesSafe reads the relative path's raw bytes.
func (a *Accessor) ReadBytesSafe(ctx context.Context, rel string, opts ...CallOption) result.Result[[]byte] {
	data, f := a.fetch(ctx, rel, applyCallOptions(opts))
	if f != nil {
		return fail[[]byte](a, f)
	}
	return succeed(a, data)
}

// ReadJSONSafe reads and parses the relative path as JSON of any shape.
func (a *Accessor) ReadJSONSafe(ctx context.Context, rel string, opts ...CallOption) result.Result[any] {
	data, f := a.fetch(ctx, rel, applyCallOptions(opts))
	if f != nil {
		return fail[any](a, f)
	}
	parsed, err := parseJSON(data)
	if err != nil {
		return fail[any](a, &failure{result.StatusError, err.Error()})
	}
	return succeed(a, parsed)
}

// ReadJSONObjectSafe reads the relative path as a JSON object. Any other
// runtime shape (array, scalar, null) is a shape violation reported as an
// error result, never returned as the parsed value.
func (a *Accessor) ReadJSONObjectSafe(ctx context.Context, rel string, opts ...CallOption) result.Result[map[string]any] {
	data, f := a.fetch(ctx, rel, applyCallOptions(opts))
	if f != nil {
		return fail[map[string]any](a, f)
	}
	parsed, err := parseJSON(data)
	if err != nil {
		return fail[map[string]any](a, &failure{result.StatusError, err.Error()})
	}
	obj, ok := parsed.(map[string]any)
	if !ok {
		return fail[map[string]any](a, &failure{
			result.StatusError,
			fmt.Sprintf("expected JSON object in %s, got %s", rel, jsonShape(parsed)),
		})
	}
	return succeed(a, obj)
}

// ReadImageSafe reads the relative path's bytes and verifies they hold an
// image. Non-image content is a shape violation.
func (a *Accessor) ReadImageSafe(ctx context.Context, rel string, opts ...CallOption) result.Result[[]byte] {
	data, f := a.fetch(ctx, rel, applyCallOptions(opts))
	if f != nil {
		return fail[[]byte](a, f)
	}
	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return fail[[]byte](a, &failure{
			result.StatusError,
			fmt.Sprintf("expected image in %s, got %s", rel, mtype.String()),
		})
	}
	return succeed(a, data)
}
