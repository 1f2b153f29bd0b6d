package core

import (
	time "time"

	mock "github.com/stretchr/testify/mock"
)

// MockMetrics is a mock type for the Metrics type
type MockMetrics struct {
	mock.Mock
}

// ObserveOperation provides a mock function with given fields: operation, outcome, duration
func (_m *MockMetrics) ObserveOperation(operation string, outcome string, duration time.Duration) {
	_m.Called(operation, outcome, duration)
}

// ObserveReplay provides a mock function with given fields: operation
func (_m *MockMetrics) ObserveReplay(operation string) {
	_m.Called(operation)
}

// ObservePayoutTransition provides a mock function with given fields: status
func (_m *MockMetrics) ObservePayoutTransition(status string) {
	_m.Called(status)
}

// SetPayoutsInFlight provides a mock function with given fields: count
func (_m *MockMetrics) SetPayoutsInFlight(count int) {
	_m.Called(count)
}

// NewMockMetrics creates a new instance of MockMetrics. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockMetrics(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockMetrics {
	m := &MockMetrics{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
