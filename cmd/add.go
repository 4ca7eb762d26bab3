package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add [path]",
	Short: "Register a directory as a photo source",
	Long: `Registers a directory so that future scans will index the photos
inside it. Adding the same directory twice is a no-op.`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func init() {
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	path := args[0]

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("source path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("source path %s is not a directory", path)
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

	src, err := store.AddSource(path)
	if err != nil {
		return fmt.Errorf("registering source: %w", err)
	}

	fmt.Printf("Source #%d: %s\n", src.ID, src.Path)
	return nil
}
