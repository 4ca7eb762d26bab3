package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "List duplicate groups",
	Long: `Recomputes duplicate groups over the current catalog and lists
them. Groups are identified by their ordinal within this run; they are
not persisted and the ordinals are stable only against an unchanged
catalog.`,
	RunE: runGroups,
}

func init() {
	rootCmd.AddCommand(groupsCmd)
}

func runGroups(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := signalContext()
	defer cancel()

	_, groups, err := runGrouping(ctx, store, cfg)
	if err != nil {
		return err
	}
	if len(groups) == 0 {
		fmt.Println("No duplicates found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "GROUP\tMEMBERS\tCONFIDENCE\tCANONICAL")
	for i, g := range groups {
		canonical := ""
		for _, m := range g.Members {
			if m.ID == g.CanonicalID {
				canonical = m.Path
				break
			}
		}
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\n", i+1, len(g.Members), g.Confidence, canonical)
	}
	return w.Flush()
}
