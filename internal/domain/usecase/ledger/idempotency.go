package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/amirhossein-jamali/coin-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/coin-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/coin-ledger/internal/domain/port/persistence"
)

// MaxIdempotencyKeyLength bounds caller supplied keys
const MaxIdempotencyKeyLength = 128

// ValidateIdempotencyKey rejects keys that are too long or padded with whitespace.
// An empty key is valid and disables deduplication.
func ValidateIdempotencyKey(key string) error {
	if len(key) > MaxIdempotencyKeyLength || strings.TrimSpace(key) != key {
		return fmt.Errorf("%w: malformed idempotency key", errs.ErrInvalidRequest)
	}
	return nil
}

// IdempotencyHandler replays results of keyed operations
type IdempotencyHandler struct{}

// NewIdempotencyHandler creates a new IdempotencyHandler
func NewIdempotencyHandler() *IdempotencyHandler {
	return &IdempotencyHandler{}
}

// Fingerprint hashes the canonical arguments of an operation
func Fingerprint(operation string, args ...any) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, operation)
	for _, arg := range args {
		parts = append(parts, fmt.Sprint(arg))
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(sum[:])
}

// CheckIdempotency returns the stored result when the key was already used for
// the same request, nil when it is unused, and an IdempotencyConflictError when
// it was used for a different request.
func (h *IdempotencyHandler) CheckIdempotency(
	ctx context.Context,
	repo persistence.IdempotencyRepository,
	op Operation,
) (*entity.TransferResult, error) {
	record, err := repo.Find(ctx, op.IdempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("failed to look up idempotency key: %w", err)
	}
	if record == nil {
		return nil, nil
	}

	if !record.Matches(op.Name, op.Fingerprint) {
		return nil, errs.NewIdempotencyConflictError(op.IdempotencyKey, op.Name)
	}

	replay := record.Result.Clone()
	replay.Replayed = true
	return replay, nil
}

// Record stores the result of a successful keyed operation in the current unit of work
func (h *IdempotencyHandler) Record(
	ctx context.Context,
	repo persistence.IdempotencyRepository,
	op Operation,
	result *entity.TransferResult,
	now time.Time,
) error {
	return repo.Save(ctx, &entity.IdempotencyRecord{
		Key:         op.IdempotencyKey,
		Operation:   op.Name,
		Fingerprint: op.Fingerprint,
		Result:      result.Clone(),
		CreatedAt:   now,
	})
}
