// Package kind declares the content kinds a file can hold and their
// canonical extensions. A kind selects a parser and an extension; it never
// changes how bytes reach the storage backend.
package kind

import (
	"fmt"
	"strings"
)

// Kind is the declared semantic type of a file's contents.
type Kind string

const (
	Text       Kind = "text"
	JSON       Kind = "json"
	JSONObject Kind = "json_object"
	Log        Kind = "log"
	YAML       Kind = "yaml"
	TOML       Kind = "toml"
	Other      Kind = "other"
)

// Fixed mapping from kind to canonical extension. Not mutable at runtime.
var extensions = map[Kind]string{
	Text:       ".txt",
	JSON:       ".json",
	JSONObject: ".json",
	Log:        ".log",
	YAML:       ".yaml",
	TOML:       ".toml",
	Other:      "",
}

var byExtension = map[string]Kind{
	".txt":  Text,
	".json": JSON,
	".log":  Log,
	".yaml": YAML,
	".yml":  YAML,
	".toml": TOML,
}

// Ext returns the canonical extension for k, with the leading dot unless
// omitDot is set. Unknown kinds map to the empty extension.
func (k Kind) Ext(omitDot bool) string {
	ext := extensions[k]
	if omitDot {
		return strings.TrimPrefix(ext, ".")
	}
	return ext
}

// Apply appends k's canonical extension to name unless name already ends
// with it. Idempotent: "a.json" with kind JSON stays "a.json".
func (k Kind) Apply(name string) string {
	ext := extensions[k]
	if ext == "" || strings.HasSuffix(name, ext) {
		return name
	}
	return name + ext
}

// ForExtension returns the kind mapped to the given extension, with or
// without a leading dot. Unmapped extensions are an error: this is a static
// lookup with no absence semantics, so it fails instead of returning a
// status.
func ForExtension(ext string) (Kind, error) {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	k, ok := byExtension[strings.ToLower(ext)]
	if !ok {
		return "", fmt.Errorf("unrecognized extension %q", ext)
	}
	return k, nil
}
