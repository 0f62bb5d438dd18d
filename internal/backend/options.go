package backend

import (
	"log/slog"
	"time"
)

// Default simulated round-trip times.
const (
	DefaultAuthLatency   = 500 * time.Millisecond
	DefaultTicketLatency = 300 * time.Millisecond
)

// Options tunes a Service. The zero value means no latency, the wall clock,
// ULID ids and the observed update semantics.
type Options struct {
	// AuthLatency is waited after signup and login, whatever their outcome.
	AuthLatency time.Duration
	// TicketLatency is waited after a successful ticket read or write.
	TicketLatency time.Duration
	// ProtectIdentity makes UpdateTicket ignore id, userId and createdAt in
	// a patch instead of overwriting them.
	ProtectIdentity bool
	// Now overrides the clock used for createdAt stamps.
	Now func() time.Time
	// NewID overrides id minting. It receives the entity prefix.
	NewID  func(prefix string) string
	Logger *slog.Logger
}

// DefaultOptions returns options with the demo's latencies.
func DefaultOptions() Options {
	return Options{
		AuthLatency:   DefaultAuthLatency,
		TicketLatency: DefaultTicketLatency,
	}
}
