package entity

import "time"

// IdempotencyRecord remembers the result of a successful keyed operation
type IdempotencyRecord struct {
	Key         string
	Operation   string
	Fingerprint string
	Result      *TransferResult
	CreatedAt   time.Time
}

// Matches reports whether a new request is the same as the recorded one
func (r *IdempotencyRecord) Matches(operation, fingerprint string) bool {
	return r.Operation == operation && r.Fingerprint == fingerprint
}
