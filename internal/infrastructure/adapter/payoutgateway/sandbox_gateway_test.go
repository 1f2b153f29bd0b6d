package payoutgateway

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirhossein-jamali/coin-ledger/internal/domain/port/gateway"
	"github.com/amirhossein-jamali/coin-ledger/internal/infrastructure/adapter/logger"
)

func errorsIsRejected(err error) bool {
	return errors.Is(err, gateway.ErrPayoutRejected)
}

func TestSandboxGateway(t *testing.T) {
	ctx := context.Background()
	gw := NewSandboxGateway(decimal.NewFromInt(100), false, logger.NewNoopLogger())

	receipt, err := gw.Submit(ctx, sampleInstruction())
	require.NoError(t, err)
	assert.Equal(t, gateway.ExternalAccepted, receipt.Status)

	// Resubmission returns the original receipt
	again, err := gw.Submit(ctx, sampleInstruction())
	require.NoError(t, err)
	assert.Equal(t, receipt.ExternalRef, again.ExternalRef)

	require.NoError(t, gw.Settle(sampleInstruction().PayoutRequestID, gateway.ExternalSucceeded))
	status, err := gw.Status(ctx, sampleInstruction().PayoutRequestID, receipt.ExternalRef)
	require.NoError(t, err)
	assert.Equal(t, gateway.ExternalSucceeded, status.Status)

	_, err = gw.Status(ctx, "unknown", "")
	assert.ErrorIs(t, err, gateway.ErrPayoutUnknown)

	large := sampleInstruction()
	large.PayoutRequestID = "large"
	large.Amount = decimal.NewFromInt(100)
	_, err = gw.Submit(ctx, large)
	assert.True(t, errorsIsRejected(err))
}

func TestSandboxGateway_AutoSettle(t *testing.T) {
	gw := NewSandboxGateway(decimal.Zero, true, logger.NewNoopLogger())

	receipt, err := gw.Submit(context.Background(), sampleInstruction())
	require.NoError(t, err)
	assert.Equal(t, gateway.ExternalSucceeded, receipt.Status)
}
