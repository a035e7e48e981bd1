package membership

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu   sync.RWMutex
	apps map[string]*Application
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{apps: make(map[string]*Application)}
}

func (s *MemoryStore) Insert(ctx context.Context, app *Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *app
	s.apps[app.ID] = &clone
	return nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id string) (*Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.apps[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *app
	return &clone, nil
}

func (s *MemoryStore) FindActiveByEmail(ctx context.Context, email string) (*Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, app := range s.apps {
		if strings.EqualFold(app.Email, email) && app.Status != StatusRejected {
			clone := *app
			return &clone, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) UpdateStatus(ctx context.Context, id string, status Status, reviewedBy, reason string, reviewedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.apps[id]
	if !ok {
		return ErrNotFound
	}
	if app.Status != StatusPending {
		return ErrAlreadyReviewed
	}

	app.Status = status
	app.ReviewedBy = reviewedBy
	app.RejectionReason = reason
	t := reviewedAt
	app.ReviewedAt = &t
	return nil
}

func (s *MemoryStore) CountByStatus(ctx context.Context, status Status) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, app := range s.apps {
		if app.Status == status {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) CountPendingOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, app := range s.apps {
		if app.Status == StatusPending && app.CreatedAt.Before(cutoff) {
			count++
		}
	}
	return count, nil
}
