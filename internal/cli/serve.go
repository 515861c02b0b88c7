package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"case-connector/internal/handler"
	"case-connector/internal/middleware"
	"case-connector/internal/router"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var skipHealthGate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and the sync scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), skipHealthGate)
		},
	}
	cmd.Flags().BoolVar(&skipHealthGate, "skip-health-check", false, "start even when the case API is unreachable")
	return cmd
}

func runServe(ctx context.Context, skipHealthGate bool) error {
	log.Println("Starting case connector...")

	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()
	cfg := a.cfg
	log.Printf("Environment: %s", cfg.App.Environment)

	if !skipHealthGate {
		checkCtx, cancel := commandContext(ctx, cfg.CaseAPI.Timeout)
		healthy := a.caseClient.HealthCheck(checkCtx)
		cancel()
		if !healthy {
			return fmt.Errorf("case API at %s is not healthy, refusing to start", cfg.CaseAPI.BaseURL)
		}
	}

	if cfg.Schedule.Enabled {
		a.scheduler.Start()
		defer a.scheduler.Stop()
	} else {
		log.Println("Scheduler disabled, engines only run on demand")
	}

	healthHandler := handler.New(handler.Config{
		CaseAPI:  a.caseClient,
		Store:    a.cursors,
		Cache:    a.healthCache,
		CacheTTL: cfg.HealthCache.TTL,
		Version:  cfg.App.Version,
	})

	r := router.New(router.Config{
		Handler:          healthHandler,
		TimeGroupHandler: handler.NewTimeGroupHandler(a.poster),
		AdminHandler: handler.NewAdminHandler(a.scheduler,
			a.discovery.Cursor(), a.refresh.Cursor(), cfg.CursorDB.Type),
		AuthMiddleware: middleware.NewAuthMiddleware(middleware.AuthConfig{
			APIKeys: cfg.App.APIKeys,
		}),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		log.Println("Shutting down server...")
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
	return nil
}
