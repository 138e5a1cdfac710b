package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/marcus/autodoist/internal/db"
	"github.com/marcus/autodoist/internal/output"
	"github.com/spf13/cobra"
)

var dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

var historyCmd = &cobra.Command{
	Use:     "history",
	Aliases: []string{"log"},
	Short:   "Show recent daemon cycles",
	Long: `Show the cycles recorded in the state dir. Use -f to follow a running daemon.

Examples:
  autodoist history          # Show the last 20 cycles
  autodoist history -f       # Follow new cycles in real-time
  autodoist history -f -n 0  # Follow only new cycles, skip history`,
	GroupID: "state",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		follow, _ := cmd.Flags().GetBool("follow")
		lines, _ := cmd.Flags().GetInt("lines")
		jsonOutput, _ := cmd.Flags().GetBool("json")

		stateDir, err := cfg.ResolveStateDir()
		if err != nil {
			output.Error("state dir: %v", err)
			return err
		}
		database, err := db.Open(stateDir)
		if err != nil {
			output.Error("open state: %v", err)
			return err
		}
		defer database.Close()

		var cycles []db.Cycle
		if lines > 0 {
			cycles, err = database.CycleTail(lines)
			if err != nil {
				output.Error("query history: %v", err)
				return err
			}
		}

		if jsonOutput {
			if cycles == nil {
				cycles = []db.Cycle{}
			}
			return output.JSON(cycles)
		}

		var maxID int64
		for _, c := range cycles {
			fmt.Println(output.FormatCycle(c))
			maxID = max(maxID, c.ID)
		}

		if !follow {
			if len(cycles) == 0 {
				fmt.Println("No cycles recorded.")
			}
			return nil
		}

		if maxID == 0 && lines == 0 {
			if tail, _ := database.CycleTail(1); len(tail) > 0 {
				maxID = tail[0].ID
			}
		}
		fmt.Println(dimStyle.Render("following " + stateDir + ", Ctrl+C to stop"))

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-sigCh:
				fmt.Println()
				return nil
			case <-ticker.C:
				fresh, err := database.CyclesAfter(maxID, 100)
				if err != nil {
					slog.Debug("history: poll", "err", err)
					continue
				}
				for _, c := range fresh {
					fmt.Println(output.FormatCycle(c))
					maxID = max(maxID, c.ID)
				}
			}
		}
	},
}

func init() {
	historyCmd.Flags().BoolP("follow", "f", false, "Follow new cycles in real-time")
	historyCmd.Flags().IntP("lines", "n", 20, "Number of initial cycles to show")
	historyCmd.Flags().Bool("json", false, "JSON output")
	rootCmd.AddCommand(historyCmd)
}
