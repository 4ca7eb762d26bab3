package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show catalog statistics",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().Bool("files", false, "List every cataloged file")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := store.Stats()
	if err != nil {
		return fmt.Errorf("reading stats: %w", err)
	}

	fmt.Printf("Catalog: %s\n", cfg.CatalogPath)
	fmt.Printf("Sources: %d\n", stats.TotalSources)
	fmt.Printf("Photos:  %d\n", stats.TotalPhotos)

	if !mustGetBool(cmd, "files") {
		return nil
	}

	photos, err := store.AllPhotos()
	if err != nil {
		return fmt.Errorf("loading photos: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "\nID\tFORMAT\tSIZE\tPATH")
	for _, p := range photos {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", p.ID, p.Format, p.Size, p.Path)
	}
	return w.Flush()
}
