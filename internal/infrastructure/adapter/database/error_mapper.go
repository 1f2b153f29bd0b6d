package database

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	errs "github.com/amirhossein-jamali/coin-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/coin-ledger/internal/infrastructure/adapter/repository"
)

// ErrorMapper maps errors raised while managing transactions and connections
// to domain errors. Row-level errors are mapped by the repositories.
type ErrorMapper struct {
	classifier *repository.ErrorClassifier
}

// NewErrorMapper creates a new ErrorMapper
func NewErrorMapper() *ErrorMapper {
	return &ErrorMapper{classifier: repository.NewErrorClassifier()}
}

// MapError maps a database error to a domain error
func (m *ErrorMapper) MapError(err error, operation string) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errs.ErrAccountNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return errs.NewStoreError(operation, err)
	case m.classifier.IsDuplicateKeyError(err):
		return errs.ErrConstraintViolation
	default:
		return m.classifier.ToDomainError(operation, err)
	}
}

func isAlreadyFinished(err error) bool {
	return strings.Contains(err.Error(), "already been committed or rolled back")
}
