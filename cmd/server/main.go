// Command server runs the portier authentication service.
//
// Configuration is loaded from a YAML file and PORTIER_* environment
// variables; see pkg/config. The most common variables:
//
//	PORTIER_CONFIG          - Config file path (default: ./config.yaml)
//	PORTIER_PORT            - Listen port (default: 8080)
//	PORTIER_SECRET          - Base64-encoded HMAC signing secret (required)
//	PORTIER_TOKEN_LIFETIME  - Token lifetime, e.g. "24h" (default: 24h)
//	PORTIER_STORAGE         - Storage type: "memory" or "postgres" (default: "memory")
//	PORTIER_DSN             - PostgreSQL DSN when storage is "postgres"
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/portier-auth/portier/pkg/account"
	"github.com/portier-auth/portier/pkg/auth"
	"github.com/portier-auth/portier/pkg/auth/token"
	"github.com/portier-auth/portier/pkg/config"
	"github.com/portier-auth/portier/pkg/debug"
	"github.com/portier-auth/portier/pkg/identity"
	"github.com/portier-auth/portier/pkg/identity/memory"
	"github.com/portier-auth/portier/pkg/identity/postgres"
	"github.com/portier-auth/portier/pkg/observability"
	transporthttp "github.com/portier-auth/portier/pkg/transport/http"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	debug.Init(cfg.Logging.Debug, cfg.Logging.Level)

	// A bad signing secret or lifetime is fatal here, before the server
	// ever accepts a request.
	tokens, err := token.New(token.Config{
		Secret:   cfg.Auth.Secret,
		Lifetime: cfg.Auth.TokenLifetime,
	})
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	store, err := newStore(cfg)
	if err != nil {
		return fmt.Errorf("creating credential store: %w", err)
	}
	defer store.Close()

	accounts := account.New(store, tokens)
	adapter := transporthttp.NewAdapter(accounts, store, transporthttp.DefaultConfig())

	mux := http.NewServeMux()
	mux.Handle("/", adapter.Handler())
	if cfg.Observability.Metrics.Enabled {
		mux.Handle("GET "+cfg.Observability.Metrics.Path, promhttp.Handler())
	}

	// Request pipeline, outermost first: access logging, metrics, the
	// authentication gate, then route policy enforcement.
	policy := auth.PublicRoutes(cfg.Auth.PublicRoutes...)
	var handler http.Handler = mux
	handler = auth.Require(policy)(handler)
	handler = auth.Gate(tokens, store)(handler)
	handler = observability.MetricsMiddleware(handler)
	handler = transporthttp.LoggingMiddleware(slog.Default())(handler)

	srv := transporthttp.NewServer(handler,
		transporthttp.WithAddr(":"+strconv.Itoa(cfg.Server.Port)),
		transporthttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
		transporthttp.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
	)

	slog.Info("portier starting",
		"port", cfg.Server.Port,
		"storage", cfg.Storage.Type,
		"token_lifetime", cfg.Auth.TokenLifetime,
		"public_routes", cfg.Auth.PublicRoutes,
	)
	return srv.ListenAndServe()
}

// newStore creates the credential store selected by the configuration.
func newStore(cfg *config.Config) (identity.Store, error) {
	switch cfg.Storage.Type {
	case "postgres":
		pgCfg := postgres.Config{
			DSN:            cfg.Storage.Postgres.DSN,
			MaxConns:       cfg.Storage.Postgres.MaxConns,
			MigrateOnStart: cfg.Storage.Postgres.MigrateOnStart,
		}
		store, err := postgres.New(context.Background(), pgCfg)
		if err != nil {
			return nil, err
		}
		slog.Info("storage enabled", "type", "postgres", "max_conns", pgCfg.MaxConns)
		return store, nil

	default:
		slog.Info("storage enabled", "type", "memory")
		return memory.New(), nil
	}
}
