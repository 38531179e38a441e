package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/portier-auth/portier/pkg/api"
	"github.com/portier-auth/portier/pkg/auth/token"
	"github.com/portier-auth/portier/pkg/identity"
	"github.com/portier-auth/portier/pkg/observability"
)

// errInvalidCredentials is the single failure returned for every login
// problem: unknown email, wrong password, deactivated account. Anything
// more specific would let a caller enumerate accounts.
var errInvalidCredentials = api.NewUnauthorizedError("invalid credentials")

// Service implements account management on top of an identity store and a
// token service.
type Service struct {
	store  identity.Store
	tokens *token.Service
}

// New creates an account service.
func New(store identity.Store, tokens *token.Service) *Service {
	return &Service{store: store, tokens: tokens}
}

// Signup creates a new account. The password is hashed before anything is
// stored; the plaintext is never retained.
func (s *Service) Signup(ctx context.Context, req *api.SignupRequest) (*api.User, error) {
	if apiErr := api.ValidateSignup(req); apiErr != nil {
		return nil, apiErr
	}

	hash, err := identity.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	p := &identity.Principal{
		ID:           api.NewUserID(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.store.Create(ctx, p); err != nil {
		if errors.Is(err, identity.ErrEmailTaken) {
			return nil, api.NewConflictError("email", "email already registered")
		}
		return nil, fmt.Errorf("creating principal: %w", err)
	}

	slog.Info("account created", "user_id", p.ID)

	user := api.UserFromPrincipal(p)
	return &user, nil
}

// Login verifies credentials and issues a bearer token. All failure modes
// collapse into the same generic unauthorized error.
func (s *Service) Login(ctx context.Context, req *api.LoginRequest) (*api.LoginResponse, error) {
	if apiErr := api.ValidateLogin(req); apiErr != nil {
		return nil, apiErr
	}

	p, err := s.store.GetByEmail(ctx, req.Email)
	if errors.Is(err, identity.ErrNotFound) {
		observability.LoginsTotal.WithLabelValues("failed").Inc()
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("looking up principal: %w", err)
	}

	if !p.Active || !identity.VerifyPassword(p.PasswordHash, req.Password) {
		slog.Debug("login rejected", "email_known", true)
		observability.LoginsTotal.WithLabelValues("failed").Inc()
		return nil, errInvalidCredentials
	}

	tok, err := s.tokens.Issue(p.Email)
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}

	slog.Info("login succeeded", "user_id", p.ID)
	observability.LoginsTotal.WithLabelValues("ok").Inc()
	observability.TokensIssuedTotal.Inc()

	return &api.LoginResponse{
		Token: tok,
		User:  api.UserFromPrincipal(p),
	}, nil
}

// Get returns a principal's public attributes by ID.
func (s *Service) Get(ctx context.Context, id string) (*api.User, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, mapStoreError(err)
	}
	user := api.UserFromPrincipal(p)
	return &user, nil
}

// List returns all principals' public attributes.
func (s *Service) List(ctx context.Context) (*api.UserList, error) {
	principals, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing principals: %w", err)
	}

	list := &api.UserList{Users: make([]api.User, 0, len(principals))}
	for _, p := range principals {
		list.Users = append(list.Users, api.UserFromPrincipal(p))
	}
	return list, nil
}

// Update modifies an account's name, email, and optionally its password.
func (s *Service) Update(ctx context.Context, id string, req *api.UpdateUserRequest) (*api.User, error) {
	if apiErr := api.ValidateUpdate(req); apiErr != nil {
		return nil, apiErr
	}

	p, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, mapStoreError(err)
	}

	p.Name = req.Name
	p.Email = req.Email
	if req.Password != "" {
		hash, err := identity.HashPassword(req.Password)
		if err != nil {
			return nil, fmt.Errorf("hashing password: %w", err)
		}
		p.PasswordHash = hash
	}

	if err := s.store.Update(ctx, p); err != nil {
		if errors.Is(err, identity.ErrEmailTaken) {
			return nil, api.NewConflictError("email", "email already registered")
		}
		return nil, mapStoreError(err)
	}

	slog.Info("account updated", "user_id", p.ID)

	user := api.UserFromPrincipal(p)
	return &user, nil
}

// Deactivate soft-deletes an account. Outstanding tokens for it stop
// authenticating at the gate even before they expire.
func (s *Service) Deactivate(ctx context.Context, id string) error {
	if err := s.store.Deactivate(ctx, id); err != nil {
		return mapStoreError(err)
	}
	slog.Info("account deactivated", "user_id", id)
	return nil
}

// Delete removes an account permanently.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return mapStoreError(err)
	}
	slog.Info("account deleted", "user_id", id)
	return nil
}

// mapStoreError converts store sentinels into API errors and wraps the rest.
func mapStoreError(err error) error {
	if errors.Is(err, identity.ErrNotFound) {
		return api.NewNotFoundError("user not found")
	}
	return fmt.Errorf("store: %w", err)
}
