package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"slides/internal/assets"
	"slides/internal/config"
	"slides/internal/render"
	"slides/internal/storage"

	"github.com/spf13/cobra"
)

var configDir string

var rootCmd = &cobra.Command{
	Use:   "slides",
	Short: "Slide canvas editor backend",
	Long: `slides stores slides and their elements, serves a live editing session
over WebSocket, exposes the editor to agents over MCP and renders slides to
HTML or PNG.

Settings come from config/.env.<env> and <ENV>_* environment variables,
where ENV defaults to DEV.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Directory holding config/.env.<env> (default: working directory)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// deps are the pieces every command shares.
type deps struct {
	cfg    config.Config
	store  storage.Store
	images *assets.Loader
	raster *render.Raster
}

// loadConfig reads settings for the commands that do not need a store.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// newRaster builds the PNG renderer, registering fonts from cfg.FontDir.
func newRaster(cfg config.Config, images *assets.Loader) (*render.Raster, error) {
	raster, err := render.NewRaster(images)
	if err != nil {
		return nil, fmt.Errorf("init renderer: %w", err)
	}
	if cfg.FontDir != "" {
		if err := raster.Fonts.LoadDir(cfg.FontDir); err != nil {
			return nil, fmt.Errorf("load fonts: %w", err)
		}
		log.Printf("[Render] fonts loaded from %s", cfg.FontDir)
	}
	return raster, nil
}

// openDeps loads config and opens the store, the asset loader and the renderer.
// Local image paths resolve under <dataDir>/assets.
func openDeps(ctx context.Context) (*deps, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.DataDir != "" {
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	store, err := storage.Open(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	images := assets.NewLoader(filepath.Join(cfg.DataDir, "assets"))
	raster, err := newRaster(cfg, images)
	if err != nil {
		store.Close()
		return nil, err
	}
	log.Printf("[Main] env=%s driver=%s", cfg.Env, cfg.DB.Driver)
	return &deps{cfg: cfg, store: store, images: images, raster: raster}, nil
}

func (d *deps) Close() {
	if err := d.store.Close(); err != nil {
		log.Printf("[Main] close store: %v", err)
	}
}
