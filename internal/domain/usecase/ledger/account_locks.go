package ledger

import (
	"context"
	"sort"
	"sync"
)

// AccountLocks serializes mutations per account inside this process. Each
// account gets its own single-slot channel; accounts are always acquired in
// ascending ID order so two transfers over the same pair cannot deadlock.
type AccountLocks struct {
	mu    sync.Mutex
	slots map[uint64]*lockSlot
}

type lockSlot struct {
	ch   chan struct{}
	refs int
}

// NewAccountLocks creates an empty lock table
func NewAccountLocks() *AccountLocks {
	return &AccountLocks{slots: make(map[uint64]*lockSlot)}
}

// Acquire locks every account in ids, waiting until ctx is done. The returned
// function releases them and must be called exactly once.
func (l *AccountLocks) Acquire(ctx context.Context, ids ...uint64) (func(), error) {
	ordered := SortedAccountIDs(ids...)
	held := make([]uint64, 0, len(ordered))

	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			l.unlock(held[i])
		}
	}

	for _, id := range ordered {
		slot := l.ref(id)
		select {
		case slot.ch <- struct{}{}:
			held = append(held, id)
		case <-ctx.Done():
			l.unref(id)
			release()
			return nil, ctx.Err()
		}
	}

	return release, nil
}

// Held reports how many accounts currently have a slot, for tests and diagnostics
func (l *AccountLocks) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}

func (l *AccountLocks) ref(id uint64) *lockSlot {
	l.mu.Lock()
	defer l.mu.Unlock()

	slot, ok := l.slots[id]
	if !ok {
		slot = &lockSlot{ch: make(chan struct{}, 1)}
		l.slots[id] = slot
	}
	slot.refs++
	return slot
}

func (l *AccountLocks) unref(id uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	slot, ok := l.slots[id]
	if !ok {
		return
	}
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, id)
	}
}

func (l *AccountLocks) unlock(id uint64) {
	l.mu.Lock()
	slot := l.slots[id]
	l.mu.Unlock()

	if slot != nil {
		<-slot.ch
	}
	l.unref(id)
}

// SortedAccountIDs returns the distinct ids in ascending order, the global lock order
func SortedAccountIDs(ids ...uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
