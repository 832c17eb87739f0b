// Package storetest provides a testify-based mock storage backend.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/skyvault/skyvault/store"
)

// MockBackend is a mock implementation of store.Backend for testing.
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Exists(ctx context.Context, path string) (bool, error) {
	args := m.Called(ctx, path)
	return args.Bool(0), args.Error(1)
}

func (m *MockBackend) IsDir(ctx context.Context, path string) (bool, error) {
	args := m.Called(ctx, path)
	return args.Bool(0), args.Error(1)
}

func (m *MockBackend) MkdirAll(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

func (m *MockBackend) ReadBytes(ctx context.Context, path string) ([]byte, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockBackend) ReadText(ctx context.Context, path string) (string, error) {
	args := m.Called(ctx, path)
	return args.String(0), args.Error(1)
}

func (m *MockBackend) WriteBytes(ctx context.Context, path string, data []byte) error {
	args := m.Called(ctx, path, data)
	return args.Error(0)
}

func (m *MockBackend) WriteText(ctx context.Context, path string, text string) error {
	args := m.Called(ctx, path, text)
	return args.Error(0)
}

func (m *MockBackend) Copy(ctx context.Context, from, to string) error {
	args := m.Called(ctx, from, to)
	return args.Error(0)
}

func (m *MockBackend) Move(ctx context.Context, from, to string) error {
	args := m.Called(ctx, from, to)
	return args.Error(0)
}

func (m *MockBackend) Remove(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

func (m *MockBackend) List(ctx context.Context, path string) ([]string, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockBackend) ListGlob(ctx context.Context, root, pattern string) ([]string, error) {
	args := m.Called(ctx, root, pattern)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockBackend) Join(elem ...string) string {
	// Path joining is deterministic; no need to stub it per test.
	joined := ""
	for _, e := range elem {
		if e == "" {
			continue
		}
		if joined == "" {
			joined = e
		} else {
			joined += "/" + e
		}
	}
	return joined
}

func (m *MockBackend) IsCloudResident(ctx context.Context, path string) (bool, error) {
	args := m.Called(ctx, path)
	return args.Bool(0), args.Error(1)
}

func (m *MockBackend) IsDownloaded(ctx context.Context, path string) (bool, error) {
	args := m.Called(ctx, path)
	return args.Bool(0), args.Error(1)
}

func (m *MockBackend) Download(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

func (m *MockBackend) Stat(ctx context.Context, path string) (store.Info, error) {
	args := m.Called(ctx, path)
	return args.Get(0).(store.Info), args.Error(1)
}

// New creates a mock backend with local-style defaults: nothing is
// cloud-resident and MkdirAll succeeds.
func New(t *testing.T) *MockBackend {
	t.Helper()
	m := new(MockBackend)

	m.On("MkdirAll", mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("IsCloudResident", mock.Anything, mock.Anything).Return(false, nil).Maybe()
	m.On("IsDownloaded", mock.Anything, mock.Anything).Return(true, nil).Maybe()

	return m
}
