package audit

import (
	"context"
	"sort"
	"sync"

	id "orfin/pkg/domain"
)

// InMemory keeps events in process memory, ordered by insertion.
type InMemory struct {
	mu     sync.RWMutex
	events []Event
}

// NewInMemory constructs an empty in-memory event store.
func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *InMemory) ListByUser(_ context.Context, userID id.UserID) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, e := range s.events {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
