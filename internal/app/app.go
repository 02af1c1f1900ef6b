package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/portalchat/internal/config"
	"github.com/vovakirdan/portalchat/internal/relay"
	"github.com/vovakirdan/portalchat/internal/store"
	"github.com/vovakirdan/portalchat/internal/store/postgres"
	"github.com/vovakirdan/portalchat/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/portalchat/internal/transport/http"
)

// App wires together the relay hub, stores and the HTTP transport.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *relay.Hub
	store           store.Store
	broker          *relay.RedisBroker
	log             *zerolog.Logger
}

// OpenStore opens the store selected by cfg.DatabaseDriver.
func OpenStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.DatabaseDriver {
	case "", config.DriverSQLite:
		return sqlite.New(cfg.DatabaseDSN)
	case config.DriverPostgres:
		return postgres.New(ctx, cfg.DatabaseDSN)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.DatabaseDriver)
	}
}

// New constructs the relay application with provided configuration.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	logger.Info().Str("driver", cfg.DatabaseDriver).Msg("database initialized")

	a := &App{
		shutdownTimeout: cfg.ShutdownTimeout,
		store:           st,
		log:             logger,
	}

	var broker relay.Broker
	if cfg.RedisURL != "" {
		rb, err := relay.NewRedisBroker(ctx, cfg.RedisURL, logger)
		if err != nil {
			a.cleanup()
			return nil, fmt.Errorf("init redis broker: %w", err)
		}
		a.broker = rb
		broker = rb
		logger.Info().Msg("redis broker enabled")
	}

	a.hub = relay.NewHub(st, broker, logger)
	a.server = transporthttp.NewServer(a.hub, st, cfg, logger)
	return a, nil
}

// Seed loads the demo roster into the application's store.
func (a *App) Seed(ctx context.Context) error {
	return store.Seed(ctx, a.store)
}

// Handler exposes the HTTP handler, mainly for tests.
func (a *App) Handler() stdhttp.Handler {
	return a.server.Handler
}

// Run listens on the configured address and serves until context
// cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		a.cleanup()
		return fmt.Errorf("listen %s: %w", a.server.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve starts the hub and the HTTP server on ln and blocks until context
// cancellation or fatal error. Resources are released on return.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()

	hubErr := make(chan error, 1)
	go func() {
		hubErr <- a.hub.Run(hubCtx)
	}()

	serverErr := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", ln.Addr().String()).Msg("relay listening")
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		stopHub()
		<-hubErr
		a.cleanup()
		return err
	case err := <-hubErr:
		if shutdownErr := a.shutdown(); shutdownErr != nil {
			a.log.Warn().Err(shutdownErr).Msg("http shutdown")
		}
		a.cleanup()
		if errors.Is(err, context.Canceled) {
			return <-serverErr
		}
		return fmt.Errorf("hub: %w", err)
	case <-ctx.Done():
		err := a.shutdown()
		stopHub()
		<-hubErr
		a.cleanup()
		if err != nil {
			return err
		}
		return <-serverErr
	}
}

func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	a.log.Info().Msg("shutting down http server")
	return a.server.Shutdown(shutdownCtx)
}

// cleanup closes the broker, database and other resources.
func (a *App) cleanup() {
	if a.broker != nil {
		if err := a.broker.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close redis broker")
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
