package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/pkordes/labelcase/internal/auth"
	"github.com/pkordes/labelcase/internal/handler"
	"github.com/pkordes/labelcase/internal/middleware"
	"github.com/pkordes/labelcase/migrations"
)

func newServeCommand() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Long:  "Serve the label and item API, the admin screens and the health and metrics endpoints.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			slog.SetDefault(log)

			a, err := newApp(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer a.close()
			log.Info("database connection established")

			if migrate {
				if err := migrateUp(cmd.Context(), a, log); err != nil {
					return err
				}
			}

			issuer, err := auth.NewIssuer(cfg.AuthSecret, cfg.TokenTTL)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), a, issuer)
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}

// newRouter builds the middleware stack and mounts every route.
func newRouter(a *app, issuer *auth.Issuer) http.Handler {
	// Middleware is applied in order: RequestID → RealIP → CORS → body limit →
	// session → request log → Recoverer → form-field filters.
	// The session middleware runs before the logger so log lines carry the subject.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewCORSHandler(a.cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(a.cfg.MaxBodyBytes))
	r.Use(middleware.Authenticate(issuer, a.log))
	r.Use(middleware.NewSlogLogger(a.log))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.FilterFormFields(a.hooks))

	srv := handler.NewServer(handler.Deps{
		Labels:     a.labels,
		Items:      a.items,
		Converter:  a.plugin,
		Tokens:     issuer,
		Bulk:       a.hooks,
		DB:         a.db,
		Metrics:    promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}),
		Log:        a.log,
		SampleSize: a.cfg.SampleSize,
	})
	srv.Mount(r)
	return r
}

func serve(ctx context.Context, a *app, issuer *auth.Issuer) error {
	// Explicit timeouts prevent slowloris and resource exhaustion attacks.
	// The write timeout leaves room for a bulk conversion over a large catalog.
	srv := &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      newRouter(a, issuer),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for a signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	a.log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	a.log.Info("server stopped")
	return nil
}

func newGooseProvider(a *app) (*goose.Provider, error) {
	provider, err := goose.NewProvider(goose.DialectPostgres, a.db, migrations.FS)
	if err != nil {
		return nil, fmt.Errorf("create migration provider: %w", err)
	}
	return provider, nil
}

func migrateUp(ctx context.Context, a *app, log *slog.Logger) error {
	provider, err := newGooseProvider(a)
	if err != nil {
		return err
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	for _, r := range results {
		log.Info("migration applied", "version", r.Source.Version, "path", r.Source.Path, "duration", r.Duration)
	}
	return nil
}
