// Package idgen mints prefixed, time-ordered identifiers for users and tickets.
package idgen

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Prefixes distinguish the two entity kinds, as in "u01J..." and "t01J...".
const (
	UserPrefix   = "u"
	TicketPrefix = "t"
)

// Generator produces ULID-based ids from a monotonic source. Ids minted in the
// same millisecond still sort in minting order.
type Generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewGenerator returns a generator backed by crypto/rand.
func NewGenerator() *Generator {
	return &Generator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// New returns prefix followed by a ULID for the current time.
func (g *Generator) New(prefix string) string {
	return g.NewAt(prefix, time.Now().UTC())
}

// NewAt returns prefix followed by a ULID stamped with t.
func (g *Generator) NewAt(prefix string, t time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	return prefix + ulid.MustNew(ulid.Timestamp(t), g.entropy).String()
}

var (
	defaultOnce sync.Once
	defaultGen  *Generator
)

// New mints an id from the package-level generator.
func New(prefix string) string {
	defaultOnce.Do(func() { defaultGen = NewGenerator() })
	return defaultGen.New(prefix)
}
