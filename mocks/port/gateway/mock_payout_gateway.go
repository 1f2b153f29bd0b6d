package gateway

import (
	context "context"

	gateway "github.com/amirhossein-jamali/coin-ledger/internal/domain/port/gateway"
	mock "github.com/stretchr/testify/mock"
)

// MockPayoutGateway is a mock type for the PayoutGateway type
type MockPayoutGateway struct {
	mock.Mock
}

// Submit provides a mock function with given fields: ctx, instruction
func (_m *MockPayoutGateway) Submit(ctx context.Context, instruction gateway.PayoutInstruction) (*gateway.PayoutReceipt, error) {
	ret := _m.Called(ctx, instruction)

	var r0 *gateway.PayoutReceipt
	if rf, ok := ret.Get(0).(func(context.Context, gateway.PayoutInstruction) *gateway.PayoutReceipt); ok {
		r0 = rf(ctx, instruction)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*gateway.PayoutReceipt)
	}

	return r0, ret.Error(1)
}

// Status provides a mock function with given fields: ctx, payoutRequestID, externalRef
func (_m *MockPayoutGateway) Status(ctx context.Context, payoutRequestID string, externalRef string) (*gateway.PayoutReceipt, error) {
	ret := _m.Called(ctx, payoutRequestID, externalRef)

	var r0 *gateway.PayoutReceipt
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*gateway.PayoutReceipt)
	}

	return r0, ret.Error(1)
}

// NewMockPayoutGateway creates a new instance of MockPayoutGateway. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockPayoutGateway(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockPayoutGateway {
	m := &MockPayoutGateway{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
