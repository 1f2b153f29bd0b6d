// Package memory is a process-local implementation of the persistence ports.
// Writes made inside a unit of work are staged and applied on Commit, with the
// same row locks and version checks the SQL store enforces.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/amirhossein-jamali/coin-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/coin-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/coin-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/coin-ledger/internal/domain/port/persistence"
)

// FaultFunc lets tests make an operation fail. A non-nil return is reported as a store fault.
type FaultFunc func(operation string) error

type lease struct {
	holder  string
	expires time.Time
}

// Store holds committed state
type Store struct {
	mu           sync.RWMutex
	accounts     map[uint64]*entity.Account
	codes        map[string]uint64
	transactions map[string]*entity.Transaction
	byAccount    map[uint64][]string
	idempotency  map[string]*entity.IdempotencyRecord
	payouts      map[string]*entity.PayoutRequest
	leases       map[string]lease

	rows         *rowLocks
	timeProvider core.TimeProvider
	fault        FaultFunc
}

// NewStore creates an empty store
func NewStore(timeProvider core.TimeProvider) *Store {
	return &Store{
		accounts:     make(map[uint64]*entity.Account),
		codes:        make(map[string]uint64),
		transactions: make(map[string]*entity.Transaction),
		byAccount:    make(map[uint64][]string),
		idempotency:  make(map[string]*entity.IdempotencyRecord),
		payouts:      make(map[string]*entity.PayoutRequest),
		leases:       make(map[string]lease),
		rows:         newRowLocks(),
		timeProvider: timeProvider,
	}
}

// SetFault installs a fault injector, or removes it when fn is nil
func (s *Store) SetFault(fn FaultFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = fn
}

func (s *Store) check(operation string) error {
	s.mu.RLock()
	fault := s.fault
	s.mu.RUnlock()

	if fault == nil {
		return nil
	}
	if err := fault(operation); err != nil {
		if errors.Is(err, errs.ErrStoreUnavailable) || errors.Is(err, errs.ErrConcurrentModification) {
			return err
		}
		return errs.NewStoreError(operation, err)
	}
	return nil
}

// Ping reports whether the store is reachable
func (s *Store) Ping(context.Context) error {
	return s.check("ping")
}

// UnitOfWork returns the unit of work over this store
func (s *Store) UnitOfWork() *UnitOfWork {
	return &UnitOfWork{store: s}
}

// Leases returns the lease repository over this store
func (s *Store) Leases() persistence.LeaseRepository {
	return &leaseRepository{store: s}
}

func copyAccount(a *entity.Account) *entity.Account {
	c := *a
	if a.ReferredBy != nil {
		ref := *a.ReferredBy
		c.ReferredBy = &ref
	}
	return &c
}

func copyTransaction(t *entity.Transaction) *entity.Transaction {
	c := *t
	if t.CounterpartyID != nil {
		id := *t.CounterpartyID
		c.CounterpartyID = &id
	}
	return &c
}

func copyPayout(p *entity.PayoutRequest) *entity.PayoutRequest {
	c := *p
	if p.CompletedAt != nil {
		at := *p.CompletedAt
		c.CompletedAt = &at
	}
	return &c
}

func copyRecord(r *entity.IdempotencyRecord) *entity.IdempotencyRecord {
	c := *r
	c.Result = r.Result.Clone()
	return &c
}

// rowLocks are held from LockForUpdate/LockByID until the unit of work ends
type rowLocks struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func newRowLocks() *rowLocks {
	return &rowLocks{slots: make(map[string]chan struct{})}
}

func (r *rowLocks) slot(key string) chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch, ok := r.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		r.slots[key] = ch
	}
	return ch
}

func (r *rowLocks) lock(ctx context.Context, key string) error {
	select {
	case r.slot(key) <- struct{}{}:
		return nil
	case <-ctx.Done():
		return errs.NewStoreError("lock "+key, ctx.Err())
	}
}

func (r *rowLocks) unlock(key string) {
	<-r.slot(key)
}

func accountKey(id uint64) string { return fmt.Sprintf("account:%d", id) }
func payoutKey(id string) string  { return "payout:" + id }

func sortedIDs(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
