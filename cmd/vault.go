package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"photovault/internal/catalog"
	"photovault/internal/vault"
)

var vaultCmd = &cobra.Command{
	Use:   "vault",
	Short: "Manage the content-addressed vault",
	Long: `The vault holds exactly one copy of each photo worth keeping: the
best-quality member of every duplicate group plus every photo without
duplicates. Files are stored under their content hash, so saves are
idempotent and never overwrite.`,
}

var vaultSetCmd = &cobra.Command{
	Use:   "set [path]",
	Short: "Set the vault directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runVaultSet,
}

var vaultShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the configured vault directory",
	RunE:  runVaultShow,
}

var vaultSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Copy canonical photos into the vault",
	RunE:  runVaultSave,
}

func init() {
	rootCmd.AddCommand(vaultCmd)
	vaultCmd.AddCommand(vaultSetCmd, vaultShowCmd, vaultSaveCmd)
}

func runVaultSet(cmd *cobra.Command, args []string) error {
	path, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.SetSetting(catalog.SettingVaultPath, path); err != nil {
		return fmt.Errorf("saving vault path: %w", err)
	}
	fmt.Printf("Vault: %s\n", path)
	return nil
}

func runVaultShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	path, err := store.Setting(catalog.SettingVaultPath)
	if err != nil {
		return err
	}
	if path == "" {
		fmt.Println("No vault configured. Use 'photovault vault set <path>'.")
		return nil
	}
	fmt.Printf("Vault: %s\n", path)
	return nil
}

func runVaultSave(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	root, err := store.Setting(catalog.SettingVaultPath)
	if err != nil {
		return err
	}
	if root == "" {
		return fmt.Errorf("no vault configured; use 'photovault vault set <path>' first")
	}

	// The vault is itself a photo directory; registering it as a source
	// keeps its contents visible to future scans. AddSource is idempotent.
	if err := os.MkdirAll(root, 0o755); err != nil {
		return err
	}
	if _, err := store.AddSource(root); err != nil {
		return fmt.Errorf("registering vault as source: %w", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	photos, groups, err := runGrouping(ctx, store, cfg)
	if err != nil {
		return err
	}
	selected := vault.SelectForExport(photos, groups)

	bar := progressbar.NewOptions(len(selected),
		progressbar.OptionSetDescription("Saving"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
	)
	copied, skipped, removed, err := vault.Save(root, selected, func(p vault.Progress) {
		_ = bar.Add(1)
	})
	_ = bar.Finish()
	fmt.Println()
	if err != nil {
		return fmt.Errorf("saving vault: %w", err)
	}

	fmt.Printf("%d copied, %d already present, %d stale removed\n", copied, skipped, removed)
	return nil
}
