package identity

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryProvider is an in-memory Provider for tests and local development.
// Safe for concurrent use. Create enforces email uniqueness the way a correct
// external provider would, which makes it suitable for exercising the
// duplicate-guard race in tests.
type MemoryProvider struct {
	mu         sync.RWMutex
	identities map[string]*Identity // keyed by id

	// Hooks for failure injection in tests. When set, the hook's error is
	// returned before any state change.
	CreateErr error
	UpdateErr error
	DeleteErr error
	FindErr   error
}

// NewMemoryProvider creates an empty in-memory provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{identities: make(map[string]*Identity)}
}

func (m *MemoryProvider) FindByEmail(ctx context.Context, email string) (*Identity, error) {
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, id := range m.identities {
		if strings.EqualFold(id.Email, email) {
			clone := *id
			return &clone, nil
		}
	}
	return nil, nil
}

func (m *MemoryProvider) Create(ctx context.Context, email, password, firstName, lastName string, meta Metadata) (*Identity, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.identities {
		if strings.EqualFold(existing.Email, email) {
			return nil, ErrEmailTaken
		}
	}

	id := &Identity{
		ID:        uuid.NewString(),
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		Metadata:  meta,
		CreatedAt: time.Now().UTC(),
	}
	m.identities[id.ID] = id

	clone := *id
	return &clone, nil
}

func (m *MemoryProvider) Update(ctx context.Context, identityID string, meta Metadata) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.identities[identityID]
	if !ok {
		return ErrNotFound
	}
	id.Metadata = meta
	return nil
}

func (m *MemoryProvider) Delete(ctx context.Context, identityID string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.identities[identityID]; !ok {
		return ErrNotFound
	}
	delete(m.identities, identityID)
	return nil
}

func (m *MemoryProvider) Get(ctx context.Context, identityID string) (*Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.identities[identityID]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *id
	return &clone, nil
}

func (m *MemoryProvider) ListByRole(ctx context.Context, roleID string) ([]*Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Identity
	for _, id := range m.identities {
		if id.Metadata.RoleID == roleID {
			clone := *id
			out = append(out, &clone)
		}
	}
	return out, nil
}

// Count returns the number of identities currently held.
func (m *MemoryProvider) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.identities)
}
