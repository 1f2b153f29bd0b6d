package idgen

import (
	"crypto/rand"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/amirhossein-jamali/coin-ledger/internal/domain/port/core"
)

const referralCodeLength = 10

// Generator issues ULIDs for ledger records and UUIDs for correlation ids.
// ULIDs from one Generator are strictly increasing, even within the same millisecond.
type Generator struct {
	mu           sync.Mutex
	entropy      io.Reader
	timeProvider core.TimeProvider
}

// NewGenerator creates a generator using crypto/rand as the entropy source
func NewGenerator(timeProvider core.TimeProvider) *Generator {
	return &Generator{
		entropy:      ulid.Monotonic(rand.Reader, 0),
		timeProvider: timeProvider,
	}
}

// NewTransactionID returns a monotonic ULID
func (g *Generator) NewTransactionID() string {
	return g.next()
}

// NewPayoutID returns a monotonic ULID
func (g *Generator) NewPayoutID() string {
	return g.next()
}

// NewCorrelationID returns a random UUID
func (g *Generator) NewCorrelationID() string {
	return uuid.NewString()
}

// NewReferralCode returns ten upper-case hex characters
func (g *Generator) NewReferralCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:referralCodeLength])
}

func (g *Generator) next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	return ulid.MustNew(ulid.Timestamp(g.timeProvider.Now()), g.entropy).String()
}

var _ core.IDGenerator = (*Generator)(nil)
