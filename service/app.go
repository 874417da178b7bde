package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"quill/app/config"
	"quill/app/logging"
	"quill/app/repositories"
	"quill/app/routes"

	"github.com/rs/zerolog"
)

// RunAppServer parses the serve flags, opens the store and serves the API
// until SIGINT or SIGTERM. It returns the process exit code.
func RunAppServer(args []string) int {
	cfg, _, err := config.Load("serve", args)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return 2
	}

	logData, err := newLogger(cfg)
	if err != nil {
		fmt.Printf("Failed to set up logging: %v\n", err)
		return 1
	}
	defer logData.Close()
	log := logData.Logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Str("driver", cfg.Driver).Msg("failed to open store")
		return 1
	}
	defer store.Close()

	handler := routes.SetupRoutes(store, routes.Options{
		Logger:       log,
		MaxBodyBytes: cfg.MaxBodyBytes,
		CORSOrigins:  cfg.CORSOrigins,
		BcryptCost:   cfg.BcryptCost,
	})

	listener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		log.Error().Err(err).Str("addr", cfg.Addr).Msg("failed to listen")
		return 1
	}

	log.Info().Str("addr", listener.Addr().String()).Str("driver", cfg.Driver).Msg("starting blog API")
	if err := Serve(ctx, NewServer(handler), listener, cfg.ShutdownTimeout); err != nil {
		log.Error().Err(err).Msg("server error")
		return 1
	}
	log.Info().Msg("server stopped")
	return 0
}

// NewServer wraps handler in an http.Server with conservative timeouts.
func NewServer(handler http.Handler) *http.Server {
	return &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// Serve runs srv on listener until ctx is cancelled, then shuts it down,
// giving in-flight requests up to timeout to finish.
func Serve(ctx context.Context, srv *http.Server, listener net.Listener, timeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newLogger(cfg *config.Config) (*logging.LogData, error) {
	build := logging.New().Level(cfg.LogLevel).Console(cfg.LogFormat == "console")
	if cfg.LogFile != "" {
		build = build.FromPath(cfg.LogFile)
	}
	return build.Make()
}

// openStore opens the configured backend and brings its schema up to date.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*repositories.Store, error) {
	if cfg.Driver == repositories.DriverSQLite {
		if err := ensureParentDir(cfg.DSN); err != nil {
			return nil, err
		}
	}

	store, err := repositories.OpenStore(repositories.Options{
		Driver:    cfg.Driver,
		DSN:       cfg.DSN,
		BadgerDir: cfg.BadgerDir,
		Logger:    log,
	})
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return store, nil
}

// ensureParentDir creates the directory holding a file based sqlite DSN.
func ensureParentDir(dsn string) error {
	path, _, _ := strings.Cut(dsn, "?")
	path = strings.TrimPrefix(path, "file:")
	if path == "" || path == repositories.InMemory {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}
