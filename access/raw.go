package access

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bytedance/sonic"
)

// Raw accessors delegate straight to the backend: no existence check, no
// cloud materialization, and backend failures propagate unmodified. They
// serve callers that have already established preconditions (via Exists)
// and want to skip the double check. The safe accessors are built by
// composing exactly: existence check, conditional download, raw call,
// result wrapping.

// ReadBytes reads the relative path's bytes.
func (a *Accessor) ReadBytes(ctx context.Context, rel string) ([]byte, error) {
	abs, err := a.resolve(rel)
	if err != nil {
		return nil, err
	}
	return a.backend.ReadBytes(ctx, abs)
}

// ReadText reads the relative path as text.
func (a *Accessor) ReadText(ctx context.Context, rel string) (string, error) {
	data, err := a.ReadBytes(ctx, rel)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ReadJSON reads and parses the relative path as JSON of any shape.
func (a *Accessor) ReadJSON(ctx context.Context, rel string) (any, error) {
	data, err := a.ReadBytes(ctx, rel)
	if err != nil {
		return nil, err
	}
	return parseJSON(data)
}

// ReadJSONObject reads the relative path as a JSON object. Arrays, scalars
// and null are rejected.
func (a *Accessor) ReadJSONObject(ctx context.Context, rel string) (map[string]any, error) {
	parsed, err := a.ReadJSON(ctx, rel)
	if err != nil {
		return nil, err
	}
	obj, ok := parsed.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("access: expected JSON object, got %s", jsonShape(parsed))
	}
	return obj, nil
}

// Files above this size parse with sonic instead of encoding/json.
const sonicThreshold = 10 * 1024

func parseJSON(data []byte) (any, error) {
	var parsed any
	if len(data) > sonicThreshold {
		if err := sonic.Unmarshal(data, &parsed); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
		return parsed, nil
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return parsed, nil
}

// jsonShape names the runtime shape of a parsed JSON value for diagnostics.
func jsonShape(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, int64, json.Number:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
