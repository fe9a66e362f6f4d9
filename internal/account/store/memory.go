// Package store provides account persistence with in-memory and Postgres
// implementations.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"orfin/internal/account/models"
	"orfin/internal/tenant"
	id "orfin/pkg/domain"
	"orfin/pkg/platform/sentinel"
)

// InMemory keeps accounts in a map guarded by a mutex.
type InMemory struct {
	mu       sync.RWMutex
	accounts map[id.AccountID]*models.Account
}

// NewInMemory constructs an empty in-memory account store.
func NewInMemory() *InMemory {
	return &InMemory{accounts: make(map[id.AccountID]*models.Account)}
}

// Create inserts the account, rejecting a duplicate (tenant, name) pair
// with sentinel.ErrAlreadyUsed. Archived rows occupy the name slot too.
func (s *InMemory) Create(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nameTaken(account.Tenant, account.Name, id.AccountID{}) {
		return sentinel.ErrAlreadyUsed
	}
	s.accounts[account.ID] = clone(account)
	return nil
}

// FindByTenantAndID returns the account only when it belongs to the tenant.
func (s *InMemory) FindByTenantAndID(_ context.Context, key tenant.Key, accountID id.AccountID) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[accountID]
	if !ok || a.Tenant != key {
		return nil, sentinel.ErrNotFound
	}
	return clone(a), nil
}

// FindByUserAndID returns the account when any of the user's profiles owns
// it, for reads that are not scoped to a single profile.
func (s *InMemory) FindByUserAndID(_ context.Context, userID id.UserID, accountID id.AccountID) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[accountID]
	if !ok || a.Tenant.UserID != userID {
		return nil, sentinel.ErrNotFound
	}
	return clone(a), nil
}

// Update replaces the stored account, re-checking name uniqueness under the
// lock.
func (s *InMemory) Update(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[account.ID]; !ok {
		return sentinel.ErrNotFound
	}
	if s.nameTaken(account.Tenant, account.Name, account.ID) {
		return sentinel.ErrAlreadyUsed
	}
	s.accounts[account.ID] = clone(account)
	return nil
}

// List returns the tenant's accounts matching the filter, ordered by name.
func (s *InMemory) List(_ context.Context, key tenant.Key, filter models.ListFilter) ([]*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Account
	for _, a := range s.accounts {
		if a.Tenant != key {
			continue
		}
		if !matches(a, filter) {
			continue
		}
		out = append(out, clone(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ListByUser returns matching accounts across all of the user's profiles,
// ordered by name.
func (s *InMemory) ListByUser(_ context.Context, userID id.UserID, filter models.ListFilter) ([]*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Account
	for _, a := range s.accounts {
		if a.Tenant.UserID != userID {
			continue
		}
		if !matches(a, filter) {
			continue
		}
		out = append(out, clone(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func matches(a *models.Account, filter models.ListFilter) bool {
	if a.Archived != filter.OnlyArchived {
		return false
	}
	if filter.Name != "" && !strings.Contains(strings.ToLower(a.Name), strings.ToLower(filter.Name)) {
		return false
	}
	return true
}

// nameTaken must be called with the lock held.
func (s *InMemory) nameTaken(key tenant.Key, name string, exclude id.AccountID) bool {
	for _, a := range s.accounts {
		if a.ID != exclude && a.Tenant == key && a.Name == name {
			return true
		}
	}
	return false
}

func clone(a *models.Account) *models.Account {
	cp := *a
	return &cp
}
