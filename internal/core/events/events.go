// Package events carries the records operations emit. Records are collected
// while an operation applies and published only after its state commits.
package events

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Type names an emitted record.
type Type string

const (
	VaultCreated      Type = "vault_created"
	OfferMade         Type = "offer_made"
	OfferAccepted     Type = "offer_accepted"
	OfferEnded        Type = "offer_ended"
	TokensListed      Type = "tokens_listed"
	SellOfferCanceled Type = "sell_offer_canceled"
	TokensPurchased   Type = "tokens_purchased"
)

// Event is one committed record. Amounts in Fields are base-10 strings in
// smallest units and addresses are 0x-prefixed hex.
type Event struct {
	Seq     uint64            `json:"seq"`
	Type    Type              `json:"type"`
	VaultID uint64            `json:"vault_id"`
	Time    time.Time         `json:"time"`
	Fields  map[string]string `json:"fields"`
}

// Sink receives committed records in sequence order.
type Sink interface {
	Publish(ctx context.Context, evts []Event) error
}

// Filter selects records. Zero values match everything.
type Filter struct {
	VaultID  *uint64
	Type     Type
	AfterSeq uint64
	Limit    int
}

// Match reports whether e passes the filter, ignoring Limit.
func (f Filter) Match(e Event) bool {
	if e.Seq <= f.AfterSeq {
		return false
	}
	if f.VaultID != nil && e.VaultID != *f.VaultID {
		return false
	}
	if f.Type != "" && e.Type != f.Type {
		return false
	}
	return true
}

// Bus numbers committed records and fans them out to its sinks. A sink
// failure is logged; the records are already committed.
type Bus struct {
	mu     sync.Mutex
	seq    uint64
	sinks  []Sink
	logger *zap.Logger
}

// NewBus creates a bus whose first record gets sequence lastSeq+1.
func NewBus(lastSeq uint64, logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{seq: lastSeq, logger: logger}
}

// Subscribe adds a sink.
func (b *Bus) Subscribe(s Sink) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sinks = append(b.sinks, s)
}

// LastSeq returns the sequence of the last published record.
func (b *Bus) LastSeq() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.seq
}

// Publish numbers evts in place and delivers them to every sink.
func (b *Bus) Publish(ctx context.Context, evts []Event) {
	if len(evts) == 0 {
		return
	}

	b.mu.Lock()
	for i := range evts {
		b.seq++
		evts[i].Seq = b.seq
	}
	sinks := append([]Sink(nil), b.sinks...)
	b.mu.Unlock()

	for _, s := range sinks {
		if err := s.Publish(ctx, evts); err != nil {
			b.logger.Warn("event sink failed",
				zap.Uint64("first_seq", evts[0].Seq),
				zap.Int("count", len(evts)),
				zap.Error(err))
		}
	}
}
