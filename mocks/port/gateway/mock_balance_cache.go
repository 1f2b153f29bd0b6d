package gateway

import (
	context "context"
	time "time"

	mock "github.com/stretchr/testify/mock"
)

// MockBalanceCache is a mock type for the BalanceCache type
type MockBalanceCache struct {
	mock.Mock
}

// Get provides a mock function with given fields: ctx, accountID
func (_m *MockBalanceCache) Get(ctx context.Context, accountID uint64) (int64, bool, error) {
	ret := _m.Called(ctx, accountID)
	return ret.Get(0).(int64), ret.Bool(1), ret.Error(2)
}

// Set provides a mock function with given fields: ctx, accountID, balance
func (_m *MockBalanceCache) Set(ctx context.Context, accountID uint64, balance int64) error {
	ret := _m.Called(ctx, accountID, balance)
	return ret.Error(0)
}

// Invalidate provides a mock function with given fields: ctx, accountIDs
func (_m *MockBalanceCache) Invalidate(ctx context.Context, accountIDs ...uint64) error {
	ret := _m.Called(ctx, accountIDs)
	return ret.Error(0)
}

// TTL provides a mock function with no fields
func (_m *MockBalanceCache) TTL() time.Duration {
	ret := _m.Called()
	return ret.Get(0).(time.Duration)
}

// NewMockBalanceCache creates a new instance of MockBalanceCache. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockBalanceCache(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockBalanceCache {
	m := &MockBalanceCache{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
