package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/amishk599/jobradar/internal/api"
	"github.com/amishk599/jobradar/internal/filter"
	"github.com/amishk599/jobradar/internal/store"
)

const shutdownTimeout = 10 * time.Second

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the filter API over HTTP",
	Long: "Exposes POST /v1/filter (evaluate postings against the configured or supplied criteria), " +
		"GET /v1/presets, GET /v1/history (when the archive is enabled) and GET /health.",
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: server.addr from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger := mustLoadConfig()
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine, err := buildEngine(cfg, filter.NewSlogTracer(logger))
	if err != nil {
		logger.Error("failed to build filter", "error", err)
		os.Exit(1)
	}

	var opts []api.HandlerOption
	if cfg.Archive.Enabled {
		archive, err := store.NewSQLiteArchive(cfg.Archive.Path)
		if err != nil {
			logger.Error("failed to open archive", "error", err)
			os.Exit(1)
		}
		defer archive.Close()
		opts = append(opts, api.WithHistory(archive))
	}

	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}
	srv := api.NewHTTPServer(addr, api.NewServer(api.NewHandler(engine, logger, opts...), logger))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			return err
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
			return err
		}
	}

	logger.Info("goodbye")
	return nil
}
