// Package store provides user persistence: an in-memory implementation for
// tests and the default wiring, and a PostgreSQL implementation for
// deployments.
package store

import (
	"context"
	"sync"

	"orfin/internal/user/models"
	id "orfin/pkg/domain"
	"orfin/pkg/platform/sentinel"
)

// InMemory keeps users in a mutex-guarded map.
type InMemory struct {
	mu    sync.RWMutex
	users map[id.UserID]*models.User
}

// NewInMemory constructs an empty in-memory user store.
func NewInMemory() *InMemory {
	return &InMemory{users: make(map[id.UserID]*models.User)}
}

func (s *InMemory) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == user.Email || existing.CPF == user.CPF {
			return sentinel.ErrAlreadyUsed
		}
	}
	s.users[user.ID] = clone(user)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(user), nil
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Email == email {
			return clone(user), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindByCPF(_ context.Context, cpf string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.CPF == cpf {
			return clone(user), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) Update(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.users[user.ID] = clone(user)
	return nil
}

func clone(u *models.User) *models.User {
	c := *u
	return &c
}
