package gateway

import (
	"context"

	"github.com/amirhossein-jamali/coin-ledger/internal/domain/entity"
)

// EventPublisher streams committed postings to read-side consumers
type EventPublisher interface {
	Publish(ctx context.Context, events []entity.LedgerEvent) error
	Close() error
}
