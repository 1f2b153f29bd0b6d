package ledger

import (
	"context"
	"fmt"

	"github.com/amirhossein-jamali/coin-ledger/internal/domain/entity"
	coreport "github.com/amirhossein-jamali/coin-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/coin-ledger/internal/domain/port/usecase"
)

// Operation names
const (
	OpTransfer = "transfer"
	OpCredit   = "credit"
	OpDebit    = "debit"
)

// Service implements usecase.LedgerUseCase on top of the Engine
type Service struct {
	engine    *Engine
	validator *Validator
	logger    coreport.Logger
}

// NewService creates a new ledger service
func NewService(engine *Engine, logger coreport.Logger) *Service {
	return &Service{
		engine:    engine,
		validator: NewValidator(),
		logger:    logger,
	}
}

// Engine exposes the engine for processors that compose their own operations
func (s *Service) Engine() *Engine {
	return s.engine
}

// Transfer debits the source and credits the destination with a shared correlation id
func (s *Service) Transfer(ctx context.Context, req usecase.TransferRequest) (*entity.TransferResult, error) {
	if err := s.validator.ValidateTransfer(req); err != nil {
		s.logger.Info("Transfer rejected by validation", map[string]any{
			"from_account_id": req.FromAccountID,
			"to_account_id":   req.ToAccountID,
			"amount":          req.Amount,
			"error":           err.Error(),
		})
		return entity.FailedResult(err), nil
	}

	from, to := req.FromAccountID, req.ToAccountID
	return s.engine.Execute(ctx, Operation{
		Name:           OpTransfer,
		IdempotencyKey: req.IdempotencyKey,
		Fingerprint:    Fingerprint(OpTransfer, from, to, req.Amount, req.Description, req.RelatedPostID),
		AccountIDs:     []uint64{from, to},
		Apply: func(ctx context.Context, tx *Tx) (*entity.TransferResult, error) {
			debit, err := tx.Debit(entity.TransactionParams{
				AccountID:      from,
				Amount:         req.Amount,
				Kind:           entity.KindTipSent,
				Description:    req.Description,
				RelatedPostID:  req.RelatedPostID,
				CounterpartyID: &to,
			})
			if err != nil {
				return nil, err
			}

			credit, err := tx.Credit(entity.TransactionParams{
				AccountID:      to,
				Amount:         req.Amount,
				Kind:           entity.KindTipReceived,
				Description:    req.Description,
				RelatedPostID:  req.RelatedPostID,
				CounterpartyID: &from,
			})
			if err != nil {
				return nil, err
			}

			return entity.SucceededResult(fmt.Sprintf("Sent %d coins", req.Amount), debit, credit), nil
		},
	})
}

// Credit adds coins to a single account
func (s *Service) Credit(ctx context.Context, req usecase.PostingRequest) (*entity.TransferResult, error) {
	if req.Kind == "" {
		req.Kind = entity.KindPurchase
	}
	if err := s.validator.ValidateCredit(req); err != nil {
		return entity.FailedResult(err), nil
	}

	return s.engine.Execute(ctx, s.postingOperation(OpCredit, req, func(tx *Tx, params entity.TransactionParams) (*entity.Transaction, error) {
		return tx.Credit(params)
	}))
}

// Debit removes coins from a single account
func (s *Service) Debit(ctx context.Context, req usecase.PostingRequest) (*entity.TransferResult, error) {
	if req.Kind == "" {
		req.Kind = entity.KindWithdrawal
	}
	if err := s.validator.ValidateDebit(req); err != nil {
		return entity.FailedResult(err), nil
	}

	return s.engine.Execute(ctx, s.postingOperation(OpDebit, req, func(tx *Tx, params entity.TransactionParams) (*entity.Transaction, error) {
		return tx.Debit(params)
	}))
}

func (s *Service) postingOperation(
	name string,
	req usecase.PostingRequest,
	post func(tx *Tx, params entity.TransactionParams) (*entity.Transaction, error),
) Operation {
	return Operation{
		Name:           name,
		IdempotencyKey: req.IdempotencyKey,
		Fingerprint:    Fingerprint(name, req.AccountID, req.Amount, req.Kind, req.Description, req.ReferenceID),
		AccountIDs:     []uint64{req.AccountID},
		Apply: func(ctx context.Context, tx *Tx) (*entity.TransferResult, error) {
			posting, err := post(tx, entity.TransactionParams{
				AccountID:   req.AccountID,
				Amount:      req.Amount,
				Kind:        req.Kind,
				Description: req.Description,
				ReferenceID: req.ReferenceID,
			})
			if err != nil {
				return nil, err
			}
			return entity.SucceededResult(describePosting(name, posting), posting), nil
		},
	}
}

func describePosting(name string, posting *entity.Transaction) string {
	if name == OpDebit {
		return fmt.Sprintf("Debited %d coins", -posting.Amount)
	}
	return fmt.Sprintf("Credited %d coins", posting.Amount)
}

var _ usecase.LedgerUseCase = (*Service)(nil)
