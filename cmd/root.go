package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"photovault/internal/catalog"
	"photovault/internal/config"
	"photovault/internal/dedup"
)

var catalogFlag string

var rootCmd = &cobra.Command{
	Use:   "photovault",
	Short: "A CLI tool for cataloging photos and weeding out duplicates",
	Long: `Photovault catalogs photo collections, detects duplicate and
near-duplicate images across formats (including RAW and HEIC files that
cannot be compared perceptually), and keeps a single best-quality copy of
each photo in a content-addressed vault.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&catalogFlag, "catalog", "", "Path to the catalog database (overrides config)")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}

// loadConfig resolves the effective configuration, with the --catalog flag
// taking precedence over file and environment.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if catalogFlag != "" {
		cfg.CatalogPath = catalogFlag
	}
	return cfg, nil
}

func openStore(cfg *config.Config) (*catalog.Store, error) {
	store, err := catalog.Open(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("opening catalog %s: %w", cfg.CatalogPath, err)
	}
	return store, nil
}

// signalContext returns a context cancelled on Ctrl+C or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// runGrouping loads the catalog snapshot and runs the duplicate engine over
// it. Groups are never persisted; every command that needs them recomputes
// them from current catalog state.
func runGrouping(ctx context.Context, store *catalog.Store, cfg *config.Config) ([]catalog.Photo, []dedup.Group, error) {
	photos, err := store.AllPhotos()
	if err != nil {
		return nil, nil, fmt.Errorf("loading photos: %w", err)
	}
	engine := dedup.NewEngine(dedup.Options{
		BurstWindow: time.Duration(cfg.Scan.BurstWindowSec) * time.Second,
	})
	groups, err := engine.Run(ctx, photos)
	if err != nil {
		return nil, nil, err
	}
	return photos, groups, nil
}
