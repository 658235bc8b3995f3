package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"plp-bookstore/internal/daemon"
	"plp-bookstore/internal/handlers"
	"plp-bookstore/internal/utils"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the books HTTP API and export audit logs",
	Long: `Starts the HTTP API on PORT. Reads are public; price updates, deletes and
index creation need a bearer token from POST /login.

Audit log entries are exported every AUDIT_EXPORT_INTERVAL. SIGINT or
SIGTERM shuts the server down gracefully.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := connect(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET is not set, protected routes will reject every request")
	}
	utils.InitJwtSecret(cfg.JWTSecret)

	auth := handlers.AuthHandler{}
	auth.ConfigCreds.UserId = cfg.UserId
	auth.ConfigCreds.Username = cfg.UserName
	auth.ConfigCreds.UserPassword = cfg.UserPassword

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: handlers.NewRouter(handlers.RouterConfig{
			Store:       s.books,
			AuditLogger: *s.audit,
			Logger:      logger,
			Timeout:     cfg.QueryTimeout,
			Auth:        auth,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	exporter := &daemon.LogExporter{
		Coll:     s.audit.Collection,
		Logger:   logger,
		Interval: cfg.AuditExportInterval,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return exporter.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server shut down")
	return nil
}
