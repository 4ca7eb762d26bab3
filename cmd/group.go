package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var groupCmd = &cobra.Command{
	Use:   "group [n]",
	Short: "Show the members of one duplicate group",
	Long: `Shows every member of the n-th duplicate group as listed by
'photovault groups', with the canonical (kept) member marked.`,
	Args: cobra.ExactArgs(1),
	RunE: runGroup,
}

func init() {
	rootCmd.AddCommand(groupCmd)
}

func runGroup(cmd *cobra.Command, args []string) error {
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return fmt.Errorf("group ordinal must be a positive integer, got %q", args[0])
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

	ctx, cancel := signalContext()
	defer cancel()

	_, groups, err := runGrouping(ctx, store, cfg)
	if err != nil {
		return err
	}
	if n > len(groups) {
		return fmt.Errorf("group %d does not exist (%d groups)", n, len(groups))
	}
	g := groups[n-1]

	fmt.Printf("Group %d (%s confidence, %d members)\n", n, g.Confidence, len(g.Members))
	for _, m := range g.Members {
		marker := " "
		if m.ID == g.CanonicalID {
			marker = "*"
		}
		fmt.Printf("  %s %s (%s, %d bytes)\n", marker, m.Path, m.Format, m.Size)
	}
	fmt.Println("\n* canonical member (kept by vault save)")
	return nil
}
