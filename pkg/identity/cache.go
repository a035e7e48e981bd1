package identity

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedProvider is a read-through LRU cache in front of another provider.
// FindByEmail and Get hit the cache; every write invalidates the affected
// entries both before and after the backend call. The second invalidation
// evicts entries repopulated by a concurrent read that raced the write, so
// once a write commits the cache never serves the pre-write record. Negative
// lookups are not cached: the duplicate-email guard must always see the
// provider's current answer.
type CachedProvider struct {
	backend Provider
	byEmail *lru.Cache[string, *Identity]
	byID    *lru.Cache[string, *Identity]
}

// NewCachedProvider wraps backend with an LRU of the given size per index.
func NewCachedProvider(backend Provider, size int) (*CachedProvider, error) {
	byEmail, err := lru.New[string, *Identity](size)
	if err != nil {
		return nil, err
	}
	byID, err := lru.New[string, *Identity](size)
	if err != nil {
		return nil, err
	}
	return &CachedProvider{backend: backend, byEmail: byEmail, byID: byID}, nil
}

func (c *CachedProvider) FindByEmail(ctx context.Context, email string) (*Identity, error) {
	if id, ok := c.byEmail.Get(email); ok {
		return id, nil
	}

	id, err := c.backend.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if id != nil {
		c.byEmail.Add(email, id)
		c.byID.Add(id.ID, id)
	}
	return id, nil
}

func (c *CachedProvider) Create(ctx context.Context, email, password, firstName, lastName string, meta Metadata) (*Identity, error) {
	c.byEmail.Remove(email)

	id, err := c.backend.Create(ctx, email, password, firstName, lastName, meta)
	if err != nil {
		return nil, err
	}
	c.byEmail.Add(email, id)
	c.byID.Add(id.ID, id)
	return id, nil
}

func (c *CachedProvider) Update(ctx context.Context, identityID string, meta Metadata) error {
	c.invalidate(identityID)
	if err := c.backend.Update(ctx, identityID, meta); err != nil {
		return err
	}
	c.invalidate(identityID)
	return nil
}

func (c *CachedProvider) Delete(ctx context.Context, identityID string) error {
	c.invalidate(identityID)
	if err := c.backend.Delete(ctx, identityID); err != nil {
		return err
	}
	c.invalidate(identityID)
	return nil
}

func (c *CachedProvider) Get(ctx context.Context, identityID string) (*Identity, error) {
	if id, ok := c.byID.Get(identityID); ok {
		return id, nil
	}

	id, err := c.backend.Get(ctx, identityID)
	if err != nil {
		return nil, err
	}
	c.byID.Add(identityID, id)
	c.byEmail.Add(id.Email, id)
	return id, nil
}

// ListByRole always goes to the backend: the bootstrap check must never act
// on cached membership.
func (c *CachedProvider) ListByRole(ctx context.Context, roleID string) ([]*Identity, error) {
	return c.backend.ListByRole(ctx, roleID)
}

func (c *CachedProvider) invalidate(identityID string) {
	if id, ok := c.byID.Get(identityID); ok {
		c.byEmail.Remove(id.Email)
	}
	c.byID.Remove(identityID)
}
