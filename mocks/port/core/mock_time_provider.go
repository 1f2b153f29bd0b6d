package core

import (
	context "context"
	time "time"

	mock "github.com/stretchr/testify/mock"
)

// MockTimeProvider is a mock type for the TimeProvider type
type MockTimeProvider struct {
	mock.Mock
}

// Now provides a mock function with no fields
func (_m *MockTimeProvider) Now() time.Time {
	ret := _m.Called()
	return ret.Get(0).(time.Time)
}

// Since provides a mock function with given fields: t
func (_m *MockTimeProvider) Since(t time.Time) time.Duration {
	ret := _m.Called(t)
	return ret.Get(0).(time.Duration)
}

// After provides a mock function with given fields: d
func (_m *MockTimeProvider) After(d time.Duration) <-chan time.Time {
	ret := _m.Called(d)
	return ret.Get(0).(<-chan time.Time)
}

// WithTimeout provides a mock function with given fields: ctx, timeout
func (_m *MockTimeProvider) WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	ret := _m.Called(ctx, timeout)
	return ret.Get(0).(context.Context), ret.Get(1).(context.CancelFunc)
}

// NewMockTimeProvider creates a new instance of MockTimeProvider. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockTimeProvider(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockTimeProvider {
	m := &MockTimeProvider{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
