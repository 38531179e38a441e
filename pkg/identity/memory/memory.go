// Package memory provides an in-memory identity.Store for testing and
// lightweight deployments. Principals are lost when the process restarts.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/portier-auth/portier/pkg/identity"
)

// Store is an in-memory principal store.
type Store struct {
	mu      sync.RWMutex
	byID    map[string]*identity.Principal
	byEmail map[string]string // email -> ID
}

// Ensure Store implements identity.Store at compile time.
var _ identity.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		byID:    make(map[string]*identity.Principal),
		byEmail: make(map[string]string),
	}
}

// Lookup resolves an identity to an active principal.
func (s *Store) Lookup(_ context.Context, email string) identity.Lookup {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return identity.Lookup{Status: identity.StatusNotFound}
	}

	p := s.byID[id]
	if !p.Active {
		return identity.Lookup{Status: identity.StatusInactive}
	}

	return identity.Lookup{Status: identity.StatusFound, Principal: p.Clone()}
}

// Create stores a new principal.
func (s *Store) Create(_ context.Context, p *identity.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[p.Email]; exists {
		return identity.ErrEmailTaken
	}

	s.byID[p.ID] = p.Clone()
	s.byEmail[p.Email] = p.ID
	return nil
}

// Get retrieves a principal by ID, active or not.
func (s *Store) Get(_ context.Context, id string) (*identity.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byID[id]
	if !ok {
		return nil, identity.ErrNotFound
	}
	return p.Clone(), nil
}

// GetByEmail retrieves a principal by email, active or not.
func (s *Store) GetByEmail(_ context.Context, email string) (*identity.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, identity.ErrNotFound
	}
	return s.byID[id].Clone(), nil
}

// List returns all principals ordered by creation time, oldest first.
func (s *Store) List(_ context.Context) ([]*identity.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*identity.Principal, 0, len(s.byID))
	for _, p := range s.byID {
		out = append(out, p.Clone())
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}

// Update replaces the stored principal identified by p.ID.
func (s *Store) Update(_ context.Context, p *identity.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.byID[p.ID]
	if !ok {
		return identity.ErrNotFound
	}

	// Email changes must not collide with another principal.
	if p.Email != current.Email {
		if _, taken := s.byEmail[p.Email]; taken {
			return identity.ErrEmailTaken
		}
		delete(s.byEmail, current.Email)
		s.byEmail[p.Email] = p.ID
	}

	s.byID[p.ID] = p.Clone()
	return nil
}

// Deactivate soft-deletes a principal by clearing its active flag.
func (s *Store) Deactivate(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[id]
	if !ok {
		return identity.ErrNotFound
	}

	p.Active = false
	return nil
}

// Delete removes a principal permanently.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[id]
	if !ok {
		return identity.ErrNotFound
	}

	delete(s.byEmail, p.Email)
	delete(s.byID, id)
	return nil
}

// HealthCheck always returns nil for the in-memory store.
func (s *Store) HealthCheck(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}
