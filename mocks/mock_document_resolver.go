package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"invoicevault/internal/port"
)

// MockDocumentResolver is a mock implementation of port.DocumentResolver.
type MockDocumentResolver struct {
	mock.Mock
}

func (m *MockDocumentResolver) Resolve(ctx context.Context, ref string) (*port.FetchResult, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.FetchResult), args.Error(1)
}

// MockDocumentCache is a mock implementation of port.DocumentCache.
type MockDocumentCache struct {
	mock.Mock
}

func (m *MockDocumentCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]byte), args.Bool(1), args.Error(2)
}

func (m *MockDocumentCache) Put(ctx context.Context, key string, data []byte) error {
	args := m.Called(ctx, key, data)
	return args.Error(0)
}
