package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete offline progress, quiz attempts and transcripts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		dbPath, err := resolveDBPath(cmd, cfg.Local.DBPath)
		if err != nil {
			return fmt.Errorf("resolve database path: %w", err)
		}
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			fmt.Printf("This deletes %s. Re-run with --yes to confirm.\n", dbPath)
			return nil
		}
		for _, p := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
			if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("remove %s: %w", p, err)
			}
		}
		fmt.Println("Local data removed.")
		return nil
	},
}

func init() {
	resetCmd.Flags().Bool("yes", false, "Confirm deletion")
}
