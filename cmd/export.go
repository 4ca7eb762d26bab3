package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"photovault/internal/catalog"
	"photovault/internal/vault"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Manage the HEIC export tree",
	Long: `Export renders the vault selection into a date-organized tree of
HEIC files (root/YYYY/MM/DD/name.heic), suitable for importing into photo
library applications. Conversion shells out to the macOS sips tool.`,
}

var exportSetCmd = &cobra.Command{
	Use:   "set [path]",
	Short: "Set the export directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runExportSet,
}

var exportShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the configured export directory",
	RunE:  runExportShow,
}

var exportRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Convert canonical photos to HEIC",
	RunE:  runExportRun,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.AddCommand(exportSetCmd, exportShowCmd, exportRunCmd)
	exportRunCmd.Flags().Int("quality", 0, "HEIC quality 1-100 (0 = configured default)")
}

func runExportSet(cmd *cobra.Command, args []string) error {
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

	if err := store.SetSetting(catalog.SettingExportPath, path); err != nil {
		return fmt.Errorf("saving export path: %w", err)
	}
	fmt.Printf("Export: %s\n", path)
	return nil
}

func runExportShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	path, err := store.Setting(catalog.SettingExportPath)
	if err != nil {
		return err
	}
	if path == "" {
		fmt.Println("No export directory configured. Use 'photovault export set <path>'.")
		return nil
	}
	fmt.Printf("Export: %s\n", path)
	return nil
}

func runExportRun(cmd *cobra.Command, args []string) error {
	if err := vault.CheckSips(); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	quality := cfg.Export.Quality
	if q := mustGetInt(cmd, "quality"); q > 0 {
		if q > 100 {
			return fmt.Errorf("quality %d out of range 1-100", q)
		}
		quality = q
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	root, err := store.Setting(catalog.SettingExportPath)
	if err != nil {
		return err
	}
	if root == "" {
		return fmt.Errorf("no export directory configured; use 'photovault export set <path>' first")
	}

	ctx, cancel := signalContext()
	defer cancel()

	photos, groups, err := runGrouping(ctx, store, cfg)
	if err != nil {
		return err
	}
	selected := vault.SelectForExport(photos, groups)

	bar := progressbar.NewOptions(len(selected),
		progressbar.OptionSetDescription("Converting"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
	)
	res, err := vault.Export(ctx, vault.SipsRenderer{}, root, selected, quality, func(p vault.Progress) {
		_ = bar.Add(1)
	})
	_ = bar.Finish()
	fmt.Println()
	if err != nil {
		return fmt.Errorf("exporting: %w", err)
	}

	fmt.Printf("%d converted, %d already present\n", res.Converted, res.Skipped)
	return nil
}
