// Package store defines the storage backend contract the access layer is
// built on, and hosts its implementations:
//
//   - store/local: plain local-disk backend
//   - store/s3: S3-backed cloud backend with a local materialization cache
//   - store/storetest: testify-based mock backend for unit tests
//
// Backend selection happens once, at accessor construction: a cloud backend
// is attempted first when configured and the local backend is the fallback.
// The chosen backend is never swapped afterward.
package store
