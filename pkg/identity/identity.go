package identity

import (
	"context"
	"time"
)

// Principal is a stored account that requests can authenticate as.
type Principal struct {
	// ID is the storage identifier ("usr_" + 24 random alphanumerics).
	ID string

	// Name is the principal's display name.
	Name string

	// Email is the unique identity string. Tokens are bound to it.
	Email string

	// PasswordHash is the bcrypt hash of the password. Opaque: it is never
	// logged and never leaves the storage layer in a response.
	PasswordHash string

	// Active is false once the principal has been deactivated (soft
	// deleted). Inactive principals cannot authenticate but remain stored.
	Active bool

	CreatedAt time.Time
}

// Clone returns a copy of the principal.
func (p *Principal) Clone() *Principal {
	c := *p
	return &c
}

// LookupStatus is the outcome of a credential lookup.
type LookupStatus int

const (
	// StatusFound means an active principal exists for the identity.
	StatusFound LookupStatus = iota

	// StatusNotFound means no principal exists for the identity.
	StatusNotFound

	// StatusInactive means the principal exists but has been deactivated.
	StatusInactive

	// StatusError means the backing store failed; the identity could not be
	// checked at all. Callers on the authentication path fail closed.
	StatusError
)

// String returns the status name for logging.
func (s LookupStatus) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusNotFound:
		return "not_found"
	case StatusInactive:
		return "inactive"
	case StatusError:
		return "error"
	}
	return "unknown"
}

// Lookup carries the outcome of a credential lookup.
type Lookup struct {
	Status LookupStatus

	// Principal is populated only when Status == StatusFound.
	Principal *Principal

	// Err is populated only when Status == StatusError.
	Err error
}

// Store is the credential and account store. Lookup serves the
// authentication path; the remaining methods serve account management.
type Store interface {
	// Lookup resolves an identity to an active principal. It never returns
	// an inactive principal as found.
	Lookup(ctx context.Context, email string) Lookup

	// Create stores a new principal. Returns ErrEmailTaken if a principal
	// with the same email already exists.
	Create(ctx context.Context, p *Principal) error

	// Get retrieves a principal by ID, active or not.
	// Returns ErrNotFound if it does not exist.
	Get(ctx context.Context, id string) (*Principal, error)

	// GetByEmail retrieves a principal by email, active or not.
	// Returns ErrNotFound if it does not exist.
	GetByEmail(ctx context.Context, email string) (*Principal, error)

	// List returns all principals ordered by creation time.
	List(ctx context.Context) ([]*Principal, error)

	// Update replaces the stored principal identified by p.ID.
	// Returns ErrNotFound if it does not exist and ErrEmailTaken if the
	// new email belongs to another principal.
	Update(ctx context.Context, p *Principal) error

	// Deactivate soft-deletes a principal by clearing its active flag.
	Deactivate(ctx context.Context, id string) error

	// Delete removes a principal permanently.
	Delete(ctx context.Context, id string) error

	// HealthCheck verifies the store is reachable.
	HealthCheck(ctx context.Context) error

	// Close releases store resources.
	Close() error
}
