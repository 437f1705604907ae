package provider

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockProvider is a mock implementation of the Provider interface for testing.
type MockProvider struct {
	mock.Mock
}

// NewMockProvider creates a new MockProvider instance.
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// Region mocks the provider region.
func (m *MockProvider) Region() string {
	args := m.Called()

	return args.String(0)
}

// CreateStateStore mocks creating the state bucket.
func (m *MockProvider) CreateStateStore(ctx context.Context, bucket string) (StateStore, error) {
	args := m.Called(ctx, bucket)

	result, ok := args.Get(0).(StateStore)
	if !ok {
		return StateStore{}, args.Error(1) //nolint:wrapcheck // Mock function, wrapping not needed
	}

	return result, args.Error(1) //nolint:wrapcheck // Mock function, wrapping not needed
}

// DeleteStateStore mocks deleting the state bucket.
func (m *MockProvider) DeleteStateStore(ctx context.Context, bucket string) error {
	args := m.Called(ctx, bucket)

	return args.Error(0) //nolint:wrapcheck // Mock function, wrapping not needed
}

// ListZones mocks listing availability zones.
func (m *MockProvider) ListZones(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)

	result, ok := args.Get(0).([]string)
	if !ok {
		return nil, args.Error(1) //nolint:wrapcheck // Mock function, wrapping not needed
	}

	return result, args.Error(1) //nolint:wrapcheck // Mock function, wrapping not needed
}
