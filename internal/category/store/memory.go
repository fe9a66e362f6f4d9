// Package store provides category persistence with in-memory and Postgres
// implementations. The category arena is keyed by id; parents are stored as
// optional foreign keys, never as in-memory pointers.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"orfin/internal/category/models"
	"orfin/internal/tenant"
	id "orfin/pkg/domain"
	"orfin/pkg/platform/sentinel"
	"orfin/pkg/requestcontext"
)

// InMemory keeps categories in a map guarded by a mutex.
type InMemory struct {
	mu         sync.RWMutex
	categories map[id.CategoryID]*models.Category
}

// NewInMemory constructs an empty in-memory category store.
func NewInMemory() *InMemory {
	return &InMemory{categories: make(map[id.CategoryID]*models.Category)}
}

// Create inserts the category, rejecting a duplicate (tenant, name, parent)
// tuple with sentinel.ErrAlreadyUsed. Archived rows occupy the tuple too.
func (s *InMemory) Create(_ context.Context, category *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tupleTaken(category.Tenant, category.Name, category.ParentID, id.CategoryID{}) {
		return sentinel.ErrAlreadyUsed
	}
	s.categories[category.ID] = clone(category)
	return nil
}

// FindByID looks up a category across tenants. Callers that need tenant
// scoping use FindByTenantAndID.
func (s *InMemory) FindByID(_ context.Context, categoryID id.CategoryID) (*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[categoryID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(c), nil
}

// FindByTenantAndID returns the category only when it belongs to the tenant.
func (s *InMemory) FindByTenantAndID(_ context.Context, key tenant.Key, categoryID id.CategoryID) (*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[categoryID]
	if !ok || c.Tenant != key {
		return nil, sentinel.ErrNotFound
	}
	return clone(c), nil
}

// FindByUserAndID returns the category when any of the user's profiles owns
// it, for reads that are not scoped to a single profile.
func (s *InMemory) FindByUserAndID(_ context.Context, userID id.UserID, categoryID id.CategoryID) (*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[categoryID]
	if !ok || c.Tenant.UserID != userID {
		return nil, sentinel.ErrNotFound
	}
	return clone(c), nil
}

// Exists reports whether the (tenant, name, parent) tuple is taken by any
// category other than exclude.
func (s *InMemory) Exists(_ context.Context, key tenant.Key, name string, parentID *id.CategoryID, exclude id.CategoryID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tupleTaken(key, name, parentID, exclude), nil
}

// Update replaces the stored category, re-checking the uniqueness tuple
// under the lock.
func (s *InMemory) Update(_ context.Context, category *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[category.ID]; !ok {
		return sentinel.ErrNotFound
	}
	if s.tupleTaken(category.Tenant, category.Name, category.ParentID, category.ID) {
		return sentinel.ErrAlreadyUsed
	}
	s.categories[category.ID] = clone(category)
	return nil
}

// ArchiveCascade archives the category and its direct children under the
// same tenant in one critical section, so no reader observes an archived
// parent with active children.
func (s *InMemory) ArchiveCascade(ctx context.Context, key tenant.Key, categoryID id.CategoryID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	parent, ok := s.categories[categoryID]
	if !ok || parent.Tenant != key {
		return 0, sentinel.ErrNotFound
	}
	now := requestcontext.Now(ctx)
	parent.Archived = true
	parent.UpdatedAt = now

	archived := 0
	for _, c := range s.categories {
		if c.ParentID != nil && *c.ParentID == categoryID && c.Tenant == key {
			c.Archived = true
			c.UpdatedAt = now
			archived++
		}
	}
	return archived, nil
}

// List returns the tenant's categories matching the filter, ordered by name.
func (s *InMemory) List(_ context.Context, key tenant.Key, filter models.ListFilter) ([]*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Category
	for _, c := range s.categories {
		if c.Tenant != key {
			continue
		}
		if !matches(c, filter) {
			continue
		}
		out = append(out, clone(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ListByUser returns matching categories across all of the user's profiles,
// ordered by name.
func (s *InMemory) ListByUser(_ context.Context, userID id.UserID, filter models.ListFilter) ([]*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Category
	for _, c := range s.categories {
		if c.Tenant.UserID != userID {
			continue
		}
		if !matches(c, filter) {
			continue
		}
		out = append(out, clone(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func matches(c *models.Category, filter models.ListFilter) bool {
	if c.Archived != filter.OnlyArchived {
		return false
	}
	if filter.Name != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(filter.Name)) {
		return false
	}
	return true
}

// tupleTaken must be called with the lock held.
func (s *InMemory) tupleTaken(key tenant.Key, name string, parentID *id.CategoryID, exclude id.CategoryID) bool {
	for _, c := range s.categories {
		if c.ID == exclude || c.Tenant != key || c.Name != name {
			continue
		}
		if sameParent(c.ParentID, parentID) {
			return true
		}
	}
	return false
}

func sameParent(a, b *id.CategoryID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func clone(c *models.Category) *models.Category {
	cp := *c
	if c.ParentID != nil {
		p := *c.ParentID
		cp.ParentID = &p
	}
	return &cp
}
