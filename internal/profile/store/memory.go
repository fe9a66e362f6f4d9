// Package store provides profile persistence. The in-memory implementation
// backs unit tests and the default server wiring; Postgres is the durable
// option.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"orfin/internal/profile/models"
	id "orfin/pkg/domain"
	"orfin/pkg/platform/sentinel"
)

// InMemory keeps profiles in a map guarded by a mutex. It favors clarity
// over performance.
type InMemory struct {
	mu       sync.RWMutex
	profiles map[id.ProfileID]*models.Profile
}

// NewInMemory constructs an empty in-memory profile store.
func NewInMemory() *InMemory {
	return &InMemory{profiles: make(map[id.ProfileID]*models.Profile)}
}

// Create inserts the profile, rejecting a duplicate (user, name) pair with
// sentinel.ErrAlreadyUsed and a full per-user cap (archived profiles count)
// with sentinel.ErrLimitExceeded. Both checks run under the write lock so
// concurrent creates cannot slip past either.
func (s *InMemory) Create(_ context.Context, profile *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, existing := range s.profiles {
		if existing.UserID != profile.UserID {
			continue
		}
		if existing.Name == profile.Name {
			return sentinel.ErrAlreadyUsed
		}
		count++
	}
	if count >= models.MaxPerUser {
		return sentinel.ErrLimitExceeded
	}
	s.profiles[profile.ID] = clone(profile)
	return nil
}

// FindByID returns the profile only when owned by the user.
func (s *InMemory) FindByID(_ context.Context, userID id.UserID, profileID id.ProfileID) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[profileID]
	if !ok || p.UserID != userID {
		return nil, sentinel.ErrNotFound
	}
	return clone(p), nil
}

// Execute runs validate then mutate while holding the write lock so the
// check and the state change are atomic.
func (s *InMemory) Execute(_ context.Context, userID id.UserID, profileID id.ProfileID,
	validate func(*models.Profile) error, mutate func(*models.Profile)) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[profileID]
	if !ok || p.UserID != userID {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(p); err != nil {
		return nil, err
	}
	next := clone(p)
	mutate(next)
	for _, other := range s.profiles {
		if other.ID != next.ID && other.UserID == userID && other.Name == next.Name {
			return nil, sentinel.ErrAlreadyUsed
		}
	}
	s.profiles[profileID] = next
	return clone(next), nil
}

// List returns the user's profiles matching the filter, ordered by name.
func (s *InMemory) List(_ context.Context, userID id.UserID, filter models.ListFilter) ([]*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Profile
	for _, p := range s.profiles {
		if p.UserID != userID {
			continue
		}
		if p.Archived != filter.OnlyArchived {
			continue
		}
		if filter.Name != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Name)) {
			continue
		}
		out = append(out, clone(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func clone(p *models.Profile) *models.Profile {
	cp := *p
	if p.ImageNum != nil {
		n := *p.ImageNum
		cp.ImageNum = &n
	}
	return &cp
}
