package result

import (
	"go.uber.org/zap"
)

// Status classifies the outcome of a safe operation.
type Status string

const (
	StatusOK       Status = "ok"
	StatusOffline  Status = "offline"
	StatusCached   Status = "cached"
	StatusError    Status = "error"
	StatusNotFound Status = "not_found"
	StatusAPIError Status = "api_error"
)

// Succeeded reports whether the status counts as a success.
// Only OK and CACHED do; every other status is a failure regardless of payload.
func (s Status) Succeeded() bool {
	return s == StatusOK || s == StatusCached
}

var logger = zap.NewNop()

// SetLogger installs the logger used for empty-result diagnostics.
// Defaults to a no-op logger.
func SetLogger(l *zap.Logger) {
	if l != nil {
		logger = l
	}
}

// Result is an immutable status-tagged value. A Result either carries a
// payload or is empty; emptiness is independent of status. Derived results
// are produced by copy, never by mutation.
type Result[T any] struct {
	payload T
	present bool
	status  Status
	message string
}

// Of constructs a result carrying payload with the given status.
func Of[T any](payload T, status Status) Result[T] {
	return Result[T]{payload: payload, present: true, status: status}
}

// Ok constructs a successful result carrying payload.
func Ok[T any](payload T) Result[T] {
	return Of(payload, StatusOK)
}

// Empty constructs a payload-less result with the given status. If a message
// is supplied it is attached to the result and emitted as a warning at
// construction time, independent of whether the caller ever reads it.
func Empty[T any](status Status, msg ...string) Result[T] {
	r := Result[T]{status: status}
	if len(msg) > 0 && msg[0] != "" {
		r.message = msg[0]
		logger.Warn("empty result", zap.String("status", string(status)), zap.String("message", r.message))
	}
	return r
}

// NotFound constructs an empty NOT_FOUND result.
func NotFound[T any](msg ...string) Result[T] {
	return Empty[T](StatusNotFound, msg...)
}

// Error constructs an empty ERROR result.
func Error[T any](msg ...string) Result[T] {
	return Empty[T](StatusError, msg...)
}

// APIError constructs an empty API_ERROR result.
func APIError[T any](msg ...string) Result[T] {
	return Empty[T](StatusAPIError, msg...)
}

// Cached wraps a raw value with status CACHED.
func Cached[T any](payload T) Result[T] {
	return Of(payload, StatusCached)
}

// CachedFrom derives a CACHED result from an existing one, keeping its
// payload and message.
func CachedFrom[T any](r Result[T]) Result[T] {
	return r.WithStatus(StatusCached)
}

// WithStatus returns a copy of r with the status replaced. Payload and
// message carry over unchanged.
func (r Result[T]) WithStatus(status Status) Result[T] {
	r.status = status
	return r
}

// WithMessage returns a copy of r with the diagnostic message replaced.
func (r Result[T]) WithMessage(msg string) Result[T] {
	r.message = msg
	return r
}

// IsEmpty reports whether the result carries no payload.
func (r Result[T]) IsEmpty() bool {
	return !r.present
}

// Succeeded reports whether the result's status is OK or CACHED.
func (r Result[T]) Succeeded() bool {
	return r.status.Succeeded()
}

// Payload returns the carried value and whether one is present.
func (r Result[T]) Payload() (T, bool) {
	return r.payload, r.present
}

// Value returns the carried value, or the zero value when empty.
func (r Result[T]) Value() T {
	return r.payload
}

// Status returns the result's status code.
func (r Result[T]) Status() Status {
	return r.status
}

// Message returns the diagnostic message, empty unless one was set.
func (r Result[T]) Message() string {
	return r.message
}
