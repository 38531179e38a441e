package config

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/portier-auth/portier/pkg/auth/token"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	// server.port must be positive.
	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be > 0, got %d", c.Server.Port))
	}

	// auth.secret is required and must decode to a usable HMAC key.
	// A missing or weak secret is a startup failure, never a silently
	// generated fallback.
	if c.Auth.Secret == "" && c.Auth.SecretFile == "" {
		errs = append(errs, fmt.Errorf("auth.secret or auth.secret_file is required"))
	} else if c.Auth.Secret != "" {
		key, err := base64.StdEncoding.DecodeString(c.Auth.Secret)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("auth.secret is not valid base64: %w", err))
		case len(key) < token.MinSecretBytes:
			errs = append(errs, fmt.Errorf("auth.secret must decode to at least %d bytes, got %d", token.MinSecretBytes, len(key)))
		}
	}

	// auth.token_lifetime must be positive.
	if c.Auth.TokenLifetime <= 0 {
		errs = append(errs, fmt.Errorf("auth.token_lifetime must be > 0, got %v", c.Auth.TokenLifetime))
	}

	// storage.type must be a known value.
	switch c.Storage.Type {
	case "memory", "postgres":
		// valid
	default:
		errs = append(errs, fmt.Errorf("storage.type must be \"memory\" or \"postgres\", got %q", c.Storage.Type))
	}

	// If storage.type is "postgres", DSN or DSNFile must be set.
	if c.Storage.Type == "postgres" {
		if c.Storage.Postgres.DSN == "" && c.Storage.Postgres.DSNFile == "" {
			errs = append(errs, fmt.Errorf("storage.postgres.dsn or storage.postgres.dsn_file is required when storage.type is \"postgres\""))
		}
	}

	return errors.Join(errs...)
}
