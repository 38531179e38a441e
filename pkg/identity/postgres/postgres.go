// Package postgres provides a PostgreSQL implementation of identity.Store
// using pgx/v5 connection pooling.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/portier-auth/portier/pkg/identity"
)

// Store is a PostgreSQL-backed principal store.
type Store struct {
	pool *pgxpool.Pool
}

// Ensure Store implements identity.Store at compile time.
var _ identity.Store = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connectivity.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// Lookup resolves an identity to an active principal. Store failures are
// reported as StatusError so the gate can fail closed instead of mistaking
// an outage for a missing principal.
func (s *Store) Lookup(ctx context.Context, email string) identity.Lookup {
	p, err := s.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, identity.ErrNotFound):
		return identity.Lookup{Status: identity.StatusNotFound}
	case err != nil:
		return identity.Lookup{Status: identity.StatusError, Err: err}
	case !p.Active:
		return identity.Lookup{Status: identity.StatusInactive}
	}
	return identity.Lookup{Status: identity.StatusFound, Principal: p}
}

// Create stores a new principal.
func (s *Store) Create(ctx context.Context, p *identity.Principal) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO principals (id, name, email, password_hash, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, p.ID, p.Name, p.Email, p.PasswordHash, p.Active, p.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return identity.ErrEmailTaken
		}
		return fmt.Errorf("inserting principal: %w", err)
	}

	return nil
}

// Get retrieves a principal by ID, active or not.
func (s *Store) Get(ctx context.Context, id string) (*identity.Principal, error) {
	return s.get(ctx, "id = $1", id)
}

// GetByEmail retrieves a principal by email, active or not.
func (s *Store) GetByEmail(ctx context.Context, email string) (*identity.Principal, error) {
	return s.get(ctx, "email = $1", email)
}

func (s *Store) get(ctx context.Context, where string, arg any) (*identity.Principal, error) {
	var p identity.Principal

	err := s.pool.QueryRow(ctx, `
		SELECT id, name, email, password_hash, active, created_at
		FROM principals
		WHERE `+where,
		arg,
	).Scan(&p.ID, &p.Name, &p.Email, &p.PasswordHash, &p.Active, &p.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, identity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying principal: %w", err)
	}

	return &p, nil
}

// List returns all principals ordered by creation time, oldest first.
func (s *Store) List(ctx context.Context) ([]*identity.Principal, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, email, password_hash, active, created_at
		FROM principals
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying principals: %w", err)
	}
	defer rows.Close()

	var out []*identity.Principal
	for rows.Next() {
		var p identity.Principal
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.PasswordHash, &p.Active, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning principal: %w", err)
		}
		out = append(out, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating principals: %w", err)
	}

	return out, nil
}

// Update replaces the stored principal identified by p.ID.
func (s *Store) Update(ctx context.Context, p *identity.Principal) error {
	result, err := s.pool.Exec(ctx, `
		UPDATE principals
		SET name = $2, email = $3, password_hash = $4, active = $5
		WHERE id = $1
	`, p.ID, p.Name, p.Email, p.PasswordHash, p.Active)

	if err != nil {
		if isUniqueViolation(err) {
			return identity.ErrEmailTaken
		}
		return fmt.Errorf("updating principal: %w", err)
	}

	if result.RowsAffected() == 0 {
		return identity.ErrNotFound
	}

	return nil
}

// Deactivate soft-deletes a principal by clearing its active flag.
func (s *Store) Deactivate(ctx context.Context, id string) error {
	result, err := s.pool.Exec(ctx,
		"UPDATE principals SET active = FALSE WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deactivating principal: %w", err)
	}

	if result.RowsAffected() == 0 {
		return identity.ErrNotFound
	}

	return nil
}

// Delete removes a principal permanently.
func (s *Store) Delete(ctx context.Context, id string) error {
	result, err := s.pool.Exec(ctx, "DELETE FROM principals WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting principal: %w", err)
	}

	if result.RowsAffected() == 0 {
		return identity.ErrNotFound
	}

	return nil
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// isUniqueViolation checks if the error is a PostgreSQL unique violation (23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
