// Package access provides path-scoped, cloud-aware file access.
//
// An Accessor resolves every caller-supplied path against a fixed root
// directory and delegates raw I/O to a storage backend chosen once at
// construction (cloud-backed when configured and reachable, local
// otherwise).
//
// Two surfaces coexist:
//
//   - Raw accessors (ReadText, ReadBytes, ReadJSON, ...) delegate straight
//     to the backend and propagate its failures.
//   - Safe accessors (ReadTextSafe, ReadJSONObjectSafe, ...) run the full
//     pipeline (existence check, cloud materialization, raw read, parse)
//     and map every recognized failure onto a result.Result instead of
//     returning an error.
//
// Writes have no safe variant: write-time failures (disk full, permission
// denied) are not routine and propagate to the caller.
package access
