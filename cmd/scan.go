package cmd

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"photovault/internal/exif"
	"photovault/internal/scanner"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan all sources and regroup duplicates",
	Long: `Walks every registered source directory, hashes new or changed
files, drops records for files that disappeared, and then recomputes
duplicate groups over the whole catalog. Unchanged files are skipped by
modification time and size, so re-scans are cheap.`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().Int("workers", 0, "Parallel hashing workers (0 = one per CPU)")
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if w := mustGetInt(cmd, "workers"); w > 0 {
		cfg.Scan.Workers = w
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	sources, err := store.Sources()
	if err != nil {
		return fmt.Errorf("listing sources: %w", err)
	}
	if len(sources) == 0 {
		return fmt.Errorf("no sources registered; use 'photovault add <path>' first")
	}

	extractor, err := exif.NewExtractor()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Warning: exiftool not available, capture times will be missing")
	}
	defer extractor.Close()

	ctx, cancel := signalContext()
	defer cancel()

	for _, src := range sources {
		fmt.Printf("Scanning %s\n", src.Path)

		var bar *progressbar.ProgressBar
		sc := scanner.New(store, extractor, scanner.Options{
			Workers: cfg.Scan.Workers,
			OnProgress: func(p scanner.Progress) {
				if bar == nil {
					bar = newScanBar(p.Total)
				}
				_ = bar.Add(1)
			},
		})
		res, err := sc.ScanSource(ctx, src)
		if bar != nil {
			_ = bar.Finish()
			fmt.Println()
		}
		if err != nil {
			return fmt.Errorf("scanning %s: %w", src.Path, err)
		}
		fmt.Printf("  %d files, %d hashed, %d unchanged, %d removed\n",
			res.Found, res.Hashed, res.Skipped, res.Removed)
	}

	photos, groups, err := runGrouping(ctx, store, cfg)
	if err != nil {
		return err
	}

	duplicates := 0
	for _, g := range groups {
		duplicates += len(g.Members) - 1
	}
	fmt.Printf("\n%d photos, %d duplicate groups, %d redundant copies\n",
		len(photos), len(groups), duplicates)
	return nil
}

func newScanBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Hashing"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("photos"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)
}
