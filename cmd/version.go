package cmd

import (
	"fmt"

	"github.com/marcus/autodoist/internal/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:     "version",
	Short:   "Show version and check for updates",
	GroupID: "system",
	Args:    cobra.NoArgs,
	// No config needed
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		short, _ := cmd.Flags().GetBool("short")
		if short {
			fmt.Print(versionStr)
			return
		}

		checkUpdates, _ := cmd.Flags().GetBool("check")

		fmt.Printf("autodoist version %s\n", versionStr)

		if !checkUpdates {
			return
		}

		// Network errors are ignored
		u, err := version.CheckCached(cmd.Context(), versionStr)
		if err != nil || u == nil {
			return
		}
		fmt.Printf("\nUpdate available: %s → %s\n", u.CurrentVersion, u.LatestVersion)
		if u.UpdateCommand != "" {
			fmt.Printf("Run: %s\n", u.UpdateCommand)
		}
	},
}

func init() {
	versionCmd.Flags().Bool("short", false, "Print the version only")
	versionCmd.Flags().Bool("check", true, "Check for a newer release")
	rootCmd.AddCommand(versionCmd)
}
