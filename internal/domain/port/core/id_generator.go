package core

// IDGenerator produces identifiers for ledger records
type IDGenerator interface {
	// NewTransactionID returns a time-sortable identifier; later calls sort after earlier ones
	NewTransactionID() string
	// NewPayoutID returns a time-sortable payout request identifier
	NewPayoutID() string
	// NewCorrelationID links the legs of one logical operation
	NewCorrelationID() string
	// NewReferralCode returns a short human-shareable code
	NewReferralCode() string
}
