package gateway

import (
	context "context"

	entity "github.com/amirhossein-jamali/coin-ledger/internal/domain/entity"
	mock "github.com/stretchr/testify/mock"
)

// MockEventPublisher is a mock type for the EventPublisher type
type MockEventPublisher struct {
	mock.Mock
}

// Publish provides a mock function with given fields: ctx, events
func (_m *MockEventPublisher) Publish(ctx context.Context, events []entity.LedgerEvent) error {
	ret := _m.Called(ctx, events)
	return ret.Error(0)
}

// Close provides a mock function with no fields
func (_m *MockEventPublisher) Close() error {
	ret := _m.Called()
	return ret.Error(0)
}

// NewMockEventPublisher creates a new instance of MockEventPublisher. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockEventPublisher(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockEventPublisher {
	m := &MockEventPublisher{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
