package error

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for standardized API responses
const (
	// 4xxx - Business rule failures
	CodeInvalidRequest          = 4000
	CodeInsufficientBalance     = 4001
	CodeInvalidAmount           = 4002
	CodeInvalidAccountID        = 4003
	CodeSelfTransferNotAllowed  = 4004
	CodeInvalidReferralCode     = 4005
	CodeReferralAlreadyRedeemed = 4006
	CodeBelowMinimumWithdrawal  = 4007
	CodeInvalidTransactionKind  = 4008
	CodePayoutProfileMissing    = 4009
	CodeUnsupportedCurrency     = 4010
	CodeExternalPayoutFailed    = 4011
	CodeInvalidCursor           = 4012
	CodeAccountNotFound         = 4040
	CodePayoutNotFound          = 4041
	CodeIdempotencyKeyMismatch  = 4090
	CodeInvalidPayoutState      = 4091
	CodeDuplicateAccount        = 4092

	// 5xxx - Faults
	CodeInternalServer   = 5000
	CodeStoreUnavailable = 5030
)

// ErrorKind is the stable classification carried in TransferResult.Error.
type ErrorKind string

const (
	KindNone                    ErrorKind = ""
	KindInsufficientBalance     ErrorKind = "InsufficientBalance"
	KindSelfTransferNotAllowed  ErrorKind = "SelfTransferNotAllowed"
	KindInvalidReferralCode     ErrorKind = "InvalidReferralCode"
	KindReferralAlreadyRedeemed ErrorKind = "ReferralAlreadyRedeemed"
	KindBelowMinimumWithdrawal  ErrorKind = "BelowMinimumWithdrawal"
	KindDuplicateIdempotencyKey ErrorKind = "DuplicateIdempotencyKey"
	KindExternalPayoutFailed    ErrorKind = "ExternalPayoutFailed"
	KindStoreUnavailable        ErrorKind = "StoreUnavailable"
	KindInvalidAmount           ErrorKind = "InvalidAmount"
	KindAccountNotFound         ErrorKind = "AccountNotFound"
	KindIdempotencyKeyMismatch  ErrorKind = "IdempotencyKeyMismatch"
	KindPayoutProfileMissing    ErrorKind = "PayoutProfileMissing"
	KindUnsupportedCurrency     ErrorKind = "UnsupportedCurrency"
	KindInvalidTransactionKind  ErrorKind = "InvalidTransactionKind"
	KindPayoutNotFound          ErrorKind = "PayoutNotFound"
	KindInvalidPayoutState      ErrorKind = "InvalidPayoutState"
	KindDuplicateAccount        ErrorKind = "DuplicateAccount"
	KindInvalidRequest          ErrorKind = "InvalidRequest"
	KindInternal                ErrorKind = "Internal"
)

// Base error types
var (
	// ErrInsufficientBalance is returned when a debit would take a balance below zero
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrSelfTransferNotAllowed is returned when source and destination are the same account
	ErrSelfTransferNotAllowed = errors.New("cannot transfer coins to yourself")

	// ErrInvalidAmount is returned for non-positive or overflowing amounts
	ErrInvalidAmount = errors.New("amount must be a positive number of coins")

	// ErrInvalidAccountID is returned when the account ID is not a positive integer
	ErrInvalidAccountID = errors.New("account ID must be positive")

	ErrInvalidReferralCode     = errors.New("invalid referral code")
	ErrReferralAlreadyRedeemed = errors.New("referral bonus already redeemed")
	ErrBelowMinimumWithdrawal  = errors.New("amount is below the minimum withdrawal")
	ErrInvalidTransactionKind  = errors.New("invalid transaction kind")
	ErrPayoutProfileMissing    = errors.New("no payout profile linked to this account")
	ErrUnsupportedCurrency     = errors.New("unsupported payout currency")
	ErrExternalPayoutFailed    = errors.New("payout could not be completed")
	ErrInvalidCursor           = errors.New("invalid pagination cursor")
	ErrInvalidRequest          = errors.New("invalid request")

	// ErrDuplicateIdempotencyKey signals a replay. It is never surfaced to callers as a failure.
	ErrDuplicateIdempotencyKey = errors.New("idempotency key already used")

	// ErrIdempotencyKeyMismatch is returned when a key is reused with different arguments
	ErrIdempotencyKeyMismatch = errors.New("idempotency key was already used with different arguments")

	ErrAccountNotFound     = errors.New("account not found")
	ErrDuplicateAccount    = errors.New("account already exists")
	ErrPayoutNotFound      = errors.New("payout request not found")
	ErrInvalidPayoutState  = errors.New("payout request is not in a state that allows this operation")
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrLeaseHeld is returned when another worker owns a named lease
	ErrLeaseHeld = errors.New("lease is held by another worker")

	// ErrConcurrentModification is returned when an optimistic version check fails
	ErrConcurrentModification = errors.New("account was modified concurrently")

	// ErrStoreUnavailable is returned when the account store cannot be reached
	ErrStoreUnavailable = errors.New("account store unavailable")

	// ErrConstraintViolation is returned when a database constraint is violated
	ErrConstraintViolation = errors.New("database constraint violation")

	// ErrInternalServer is returned for unexpected server-side errors
	ErrInternalServer = errors.New("internal server error")
)

// ErrorCode returns standardized error codes for known errors
func ErrorCode(err error) int {
	switch {
	case errors.Is(err, ErrInsufficientBalance):
		return CodeInsufficientBalance
	case errors.Is(err, ErrInvalidAmount):
		return CodeInvalidAmount
	case errors.Is(err, ErrInvalidAccountID):
		return CodeInvalidAccountID
	case errors.Is(err, ErrSelfTransferNotAllowed):
		return CodeSelfTransferNotAllowed
	case errors.Is(err, ErrInvalidReferralCode):
		return CodeInvalidReferralCode
	case errors.Is(err, ErrReferralAlreadyRedeemed):
		return CodeReferralAlreadyRedeemed
	case errors.Is(err, ErrBelowMinimumWithdrawal):
		return CodeBelowMinimumWithdrawal
	case errors.Is(err, ErrInvalidTransactionKind):
		return CodeInvalidTransactionKind
	case errors.Is(err, ErrPayoutProfileMissing):
		return CodePayoutProfileMissing
	case errors.Is(err, ErrUnsupportedCurrency):
		return CodeUnsupportedCurrency
	case errors.Is(err, ErrExternalPayoutFailed):
		return CodeExternalPayoutFailed
	case errors.Is(err, ErrInvalidCursor):
		return CodeInvalidCursor
	case errors.Is(err, ErrInvalidRequest):
		return CodeInvalidRequest
	case errors.Is(err, ErrAccountNotFound):
		return CodeAccountNotFound
	case errors.Is(err, ErrPayoutNotFound):
		return CodePayoutNotFound
	case errors.Is(err, ErrIdempotencyKeyMismatch):
		return CodeIdempotencyKeyMismatch
	case errors.Is(err, ErrInvalidPayoutState):
		return CodeInvalidPayoutState
	case errors.Is(err, ErrDuplicateAccount):
		return CodeDuplicateAccount
	case errors.Is(err, ErrStoreUnavailable), errors.Is(err, ErrConcurrentModification):
		return CodeStoreUnavailable
	default:
		return CodeInternalServer
	}
}

// Kind maps an error onto the result taxonomy
func Kind(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrInsufficientBalance):
		return KindInsufficientBalance
	case errors.Is(err, ErrSelfTransferNotAllowed):
		return KindSelfTransferNotAllowed
	case errors.Is(err, ErrInvalidReferralCode):
		return KindInvalidReferralCode
	case errors.Is(err, ErrReferralAlreadyRedeemed):
		return KindReferralAlreadyRedeemed
	case errors.Is(err, ErrBelowMinimumWithdrawal):
		return KindBelowMinimumWithdrawal
	case errors.Is(err, ErrDuplicateIdempotencyKey):
		return KindDuplicateIdempotencyKey
	case errors.Is(err, ErrExternalPayoutFailed):
		return KindExternalPayoutFailed
	case errors.Is(err, ErrInvalidAmount):
		return KindInvalidAmount
	case errors.Is(err, ErrAccountNotFound):
		return KindAccountNotFound
	case errors.Is(err, ErrIdempotencyKeyMismatch):
		return KindIdempotencyKeyMismatch
	case errors.Is(err, ErrPayoutProfileMissing):
		return KindPayoutProfileMissing
	case errors.Is(err, ErrUnsupportedCurrency):
		return KindUnsupportedCurrency
	case errors.Is(err, ErrInvalidTransactionKind):
		return KindInvalidTransactionKind
	case errors.Is(err, ErrPayoutNotFound):
		return KindPayoutNotFound
	case errors.Is(err, ErrInvalidPayoutState):
		return KindInvalidPayoutState
	case errors.Is(err, ErrDuplicateAccount):
		return KindDuplicateAccount
	case errors.Is(err, ErrInvalidAccountID), errors.Is(err, ErrInvalidCursor), errors.Is(err, ErrInvalidRequest):
		return KindInvalidRequest
	case errors.Is(err, ErrStoreUnavailable), errors.Is(err, ErrConcurrentModification):
		return KindStoreUnavailable
	default:
		return KindInternal
	}
}

// IsBusinessRule reports whether err is an expected rule failure that belongs
// in a TransferResult rather than being returned as a fault.
func IsBusinessRule(err error) bool {
	switch Kind(err) {
	case KindNone, KindStoreUnavailable, KindInternal, KindDuplicateIdempotencyKey:
		return false
	default:
		return true
	}
}

// IsRetryable reports whether the whole operation can be safely retried
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable) || errors.Is(err, ErrConcurrentModification)
}

// Message returns the short user-facing text for err
func Message(err error) string {
	if err == nil {
		return ""
	}

	var insufficient *InsufficientBalanceError
	if errors.As(err, &insufficient) {
		return insufficient.Error()
	}

	var below *MinimumWithdrawalError
	if errors.As(err, &below) {
		return below.Error()
	}

	switch Kind(err) {
	case KindStoreUnavailable:
		return "The ledger is temporarily unavailable, please retry"
	case KindInternal:
		return "Something went wrong, please retry"
	}

	msg := err.Error()
	if msg == "" {
		return msg
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}

// InsufficientBalanceError carries the balance observed at the instant of the check
type InsufficientBalanceError struct {
	AccountID uint64
	Available int64
	Required  int64
}

// Error implements the error interface
func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("Insufficient balance: you have %d coins but need %d", e.Available, e.Required)
}

// Is checks if the target error is an ErrInsufficientBalance
func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}

// LogFields returns a map of fields for structured logging
func (e *InsufficientBalanceError) LogFields() map[string]any {
	return map[string]any{
		"error_type": "insufficient_balance",
		"account_id": e.AccountID,
		"available":  e.Available,
		"required":   e.Required,
		"error_code": CodeInsufficientBalance,
	}
}

// NewInsufficientBalanceError creates a new detailed insufficient balance error
func NewInsufficientBalanceError(accountID uint64, available, required int64) error {
	return &InsufficientBalanceError{
		AccountID: accountID,
		Available: available,
		Required:  required,
	}
}

// MinimumWithdrawalError reports the floor that was not reached
type MinimumWithdrawalError struct {
	Currency string
	Minimum  string
	Amount   string
}

func (e *MinimumWithdrawalError) Error() string {
	return fmt.Sprintf("Minimum withdrawal is %s %s, requested %s %s", e.Minimum, e.Currency, e.Amount, e.Currency)
}

// Is checks if the target error is an ErrBelowMinimumWithdrawal
func (e *MinimumWithdrawalError) Is(target error) bool {
	return target == ErrBelowMinimumWithdrawal
}

// NewMinimumWithdrawalError creates a new minimum withdrawal error
func NewMinimumWithdrawalError(currency, minimum, amount string) error {
	return &MinimumWithdrawalError{Currency: currency, Minimum: minimum, Amount: amount}
}

// IdempotencyConflictError reports a key reused for a different request
type IdempotencyConflictError struct {
	Key       string
	Operation string
}

// Error implements the error interface
func (e *IdempotencyConflictError) Error() string {
	return fmt.Sprintf("idempotency key %q was already used for a different %s request", e.Key, e.Operation)
}

// Is checks if the target error is an ErrIdempotencyKeyMismatch
func (e *IdempotencyConflictError) Is(target error) bool {
	return target == ErrIdempotencyKeyMismatch
}

// LogFields returns a map of fields for structured logging
func (e *IdempotencyConflictError) LogFields() map[string]any {
	return map[string]any{
		"error_type":      "idempotency_conflict",
		"idempotency_key": e.Key,
		"operation":       e.Operation,
		"error_code":      CodeIdempotencyKeyMismatch,
	}
}

// NewIdempotencyConflictError creates a new idempotency conflict error
func NewIdempotencyConflictError(key, operation string) error {
	return &IdempotencyConflictError{Key: key, Operation: operation}
}

// PayoutStateError reports an invalid payout status transition
type PayoutStateError struct {
	PayoutID string
	Current  string
	Target   string
}

// Error implements the error interface
func (e *PayoutStateError) Error() string {
	return fmt.Sprintf("payout %s cannot move from %s to %s", e.PayoutID, e.Current, e.Target)
}

// Is checks if the target error is an ErrInvalidPayoutState
func (e *PayoutStateError) Is(target error) bool {
	return target == ErrInvalidPayoutState
}

// LogFields returns a map of fields for structured logging
func (e *PayoutStateError) LogFields() map[string]any {
	return map[string]any{
		"error_type": "invalid_payout_state",
		"payout_id":  e.PayoutID,
		"current":    e.Current,
		"target":     e.Target,
		"error_code": CodeInvalidPayoutState,
	}
}

// NewPayoutStateError creates a new payout state error
func NewPayoutStateError(payoutID, current, target string) error {
	return &PayoutStateError{PayoutID: payoutID, Current: current, Target: target}
}

// StoreError wraps an infrastructure failure with the operation that hit it
type StoreError struct {
	Operation string
	Err       error
}

// Error implements the error interface
func (e *StoreError) Error() string {
	return fmt.Sprintf("store operation %s failed: %v", e.Operation, e.Err)
}

// Unwrap returns the underlying error
func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is matches ErrStoreUnavailable so callers can classify without unwrapping
func (e *StoreError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

// LogFields returns a map of fields for structured logging
func (e *StoreError) LogFields() map[string]any {
	return map[string]any{
		"error_type": "store_unavailable",
		"operation":  e.Operation,
		"error":      e.Err.Error(),
		"error_code": CodeStoreUnavailable,
	}
}

// NewStoreError creates a new store error
func NewStoreError(operation string, err error) error {
	return &StoreError{Operation: operation, Err: err}
}

// IsInsufficientBalanceError checks if the error is related to insufficient balance
func IsInsufficientBalanceError(err error) bool {
	return errors.Is(err, ErrInsufficientBalance)
}

// IsNotFoundError checks if the error is any "not found" type of error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrPayoutNotFound) ||
		errors.Is(err, ErrTransactionNotFound)
}

// LogFields extracts structured fields from err when it provides them
func LogFields(err error) map[string]any {
	type fielder interface {
		LogFields() map[string]any
	}

	var f fielder
	if errors.As(err, &f) {
		return f.LogFields()
	}
	return map[string]any{
		"error":      err.Error(),
		"error_code": ErrorCode(err),
	}
}
