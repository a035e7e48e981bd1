package identity

import (
	"context"
	"errors"
	"time"
)

// Metadata is the projection of identity state this system owns. The role is
// stored as a single string role id resolved through the role registry; the
// numeric level is never persisted alongside it, so the two can never
// disagree.
type Metadata struct {
	RoleID            string `json:"roleId"`
	MustResetPassword bool   `json:"mustResetPassword"`
}

// Identity is an externally managed account record. The provider owns the
// credential material; this system only reads and writes the metadata
// projection.
type Identity struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Metadata  Metadata  `json:"metadata"`
	CreatedAt time.Time `json:"created_at"`
}

// Provider is the consumed contract of the external identity provider.
//
// FindByEmail returns (nil, nil) when no identity carries the email: absence
// is an answer, not an error. Every call must respect ctx deadlines; a
// timed-out call is a provider failure, never an assumed success.
type Provider interface {
	FindByEmail(ctx context.Context, email string) (*Identity, error)
	Create(ctx context.Context, email, password, firstName, lastName string, meta Metadata) (*Identity, error)
	Update(ctx context.Context, identityID string, meta Metadata) error
	Delete(ctx context.Context, identityID string) error
	Get(ctx context.Context, identityID string) (*Identity, error)

	// ListByRole returns every identity currently holding the given role id.
	// Used by the bootstrap path to verify that no admin identity exists yet.
	ListByRole(ctx context.Context, roleID string) ([]*Identity, error)
}

var (
	// ErrNotFound is returned by Get when the identity does not exist.
	ErrNotFound = errors.New("identity not found")

	// ErrEmailTaken is returned by Create when the provider already holds an
	// identity with the email. The provider's uniqueness constraint is the
	// real safety net behind the caller-side duplicate check.
	ErrEmailTaken = errors.New("email already taken")
)
