package events

import (
	"context"
	"sync"
)

// DefaultJournalSize bounds the in-memory journal.
const DefaultJournalSize = 10000

// Journal keeps the most recent records in memory.
type Journal struct {
	mu     sync.RWMutex
	events []Event
	max    int
}

// NewJournal creates a journal holding at most max records (<= 0 selects
// DefaultJournalSize).
func NewJournal(max int) *Journal {
	if max <= 0 {
		max = DefaultJournalSize
	}
	return &Journal{max: max}
}

func (j *Journal) Publish(_ context.Context, evts []Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, evts...)
	if over := len(j.events) - j.max; over > 0 {
		j.events = append([]Event(nil), j.events[over:]...)
	}
	return nil
}

// Query returns matching records in sequence order.
func (j *Journal) Query(_ context.Context, f Filter) ([]Event, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	var out []Event
	for _, e := range j.events {
		if !f.Match(e) {
			continue
		}
		out = append(out, e)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

// All returns every retained record.
func (j *Journal) All() []Event {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return append([]Event(nil), j.events...)
}
