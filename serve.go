package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"slides/internal/api"
	"slides/internal/render"

	"github.com/spf13/cobra"
)

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the REST API, rendering endpoints and live editing sessions",
	Long: `Start the HTTP server.

  GET/PUT        /api/slides/{slideId}
  GET/POST       /api/slides/{slideId}/elements
  PUT/DELETE     /api/slides/{slideId}/elements/{elementId}
  GET            /api/slides/{slideId}/render.html|render.png
  WebSocket      /ws/slides/{slideId}

Example:
  slides serve --listen :9090`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "Address to listen on (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	d, err := openDeps(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	addr := d.cfg.Listen
	if listenAddr != "" {
		addr = listenAddr
	}

	srv := api.NewServer(api.Config{
		Store:  d.store,
		Images: d.images,
		Raster: d.raster,
		Layout: render.Layout{Reference: d.cfg.Editor.Reference, FontReference: d.cfg.Editor.FontReference},
		Editor: d.cfg.Editor,
	})
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("[Main] listening on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case sig := <-sigChan:
		log.Printf("[Main] received %s, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	// Sessions flush pending element writes before the store closes.
	srv.Close(shutdownCtx)
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
