package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// SearchTracker keeps at most one in-flight search per client. Starting a new
// search cancels the previous one for the same client key.
type SearchTracker struct {
	mu     sync.Mutex
	active map[string]*SearchTicket
}

func NewSearchTracker() *SearchTracker {
	return &SearchTracker{active: make(map[string]*SearchTicket)}
}

type SearchTicket struct {
	ID      string
	key     string
	cancel  context.CancelFunc
	tracker *SearchTracker
}

// Begin registers a new search for key and cancels whatever was running for it.
// The returned context is canceled when the search is superseded or finished.
func (t *SearchTracker) Begin(parent context.Context, key string) (context.Context, *SearchTicket) {
	ctx, cancel := context.WithCancel(parent)
	ticket := &SearchTicket{ID: uuid.NewString(), key: key, cancel: cancel, tracker: t}

	t.mu.Lock()
	if prev, ok := t.active[key]; ok {
		prev.cancel()
	}
	t.active[key] = ticket
	t.mu.Unlock()

	return ctx, ticket
}

// Current reports whether the ticket is still the latest search for its key.
func (s *SearchTicket) Current() bool {
	s.tracker.mu.Lock()
	defer s.tracker.mu.Unlock()
	return s.tracker.active[s.key] == s
}

// Finish releases the ticket. It is safe to call more than once.
func (s *SearchTicket) Finish() {
	s.cancel()
	s.tracker.mu.Lock()
	if s.tracker.active[s.key] == s {
		delete(s.tracker.active, s.key)
	}
	s.tracker.mu.Unlock()
}

// InFlight returns the number of clients with a running search.
func (t *SearchTracker) InFlight() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.active)
}
