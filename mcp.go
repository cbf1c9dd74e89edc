package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "slides/internal/mcp"
	"slides/internal/render"

	"github.com/spf13/cobra"
)

var mcpSlide string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP server on stdin/stdout",
	Long: `Run a standalone MCP server so agents can edit slides with the same
operations as the canvas. Logs go to stderr; stdout carries the protocol.

Example:
  slides mcp --slide intro`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringVar(&mcpSlide, "slide", "", "Slide to make active on start")
}

func runMCP(cmd *cobra.Command, args []string) error {
	log.SetOutput(os.Stderr)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	d, err := openDeps(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	srv := mcpserver.New(mcpserver.Deps{
		Store:  d.store,
		Images: d.images,
		Raster: d.raster,
		Layout: render.Layout{Reference: d.cfg.Editor.Reference, FontReference: d.cfg.Editor.FontReference},
		Editor: d.cfg.Editor,
		Slide:  mcpSlide,
	})
	defer func() {
		closeCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		srv.Close(closeCtx)
	}()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ServeStdio() }()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Println("[MCP] interrupted, shutting down")
		return nil
	}
}
