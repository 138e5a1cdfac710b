package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/marcus/autodoist/internal/db"
	"github.com/marcus/autodoist/internal/engine"
	"github.com/marcus/autodoist/internal/output"
	tdsync "github.com/marcus/autodoist/internal/sync"
	"github.com/marcus/autodoist/internal/todoist"
	"github.com/spf13/cobra"
)

// readOnlyStore reads watermarks but never changes them
type readOnlyStore struct {
	tdsync.Store
}

func (readOnlyStore) SetWatermarks(map[string]string) error { return nil }

func (readOnlyStore) PruneWatermarks(map[string]bool) (int, error) { return 0, nil }

var planCmd = &cobra.Command{
	Use:     "plan",
	Aliases: []string{"preview"},
	Short:   "Compute one cycle and show the changes without writing them",
	Long: `Fetches the current projects, sections and tasks, runs one pass and prints
what the daemon would change. Nothing is written to Todoist or the state dir.`,
	GroupID: "core",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			output.Error("%v", err)
			return err
		}
		opts := engineOptions(cfg)
		if !opts.Enabled() {
			output.Warning("No functionality enabled: nothing to plan")
			return nil
		}

		var (
			database *db.DB
			err      error
		)
		stateDir, _ := cfg.ResolveStateDir()
		if cfg.NoCache || stateDir == "" {
			database, err = db.OpenMemory()
		} else {
			database, err = db.Open(stateDir)
		}
		if err != nil {
			output.Error("open state: %v", err)
			return err
		}
		defer database.Close()

		logger := newLogger(cfg, cmd.ErrOrStderr())
		source := tdsync.New(todoist.New(cfg.APIKey), readOnlyStore{database}, logger)
		snap, err := source.Fetch(cmd.Context())
		if err != nil {
			output.Error("%v", err)
			return err
		}

		res := engine.New(opts, newClassifier(cfg), logger).Plan(snap, time.Now())

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			skipped := make(map[string]string, len(res.Skipped))
			for id, err := range res.Skipped {
				skipped[id] = err.Error()
			}
			return output.JSON(map[string]any{
				"batch":   res.Batch,
				"labeled": res.Labeled,
				"skipped": skipped,
			})
		}

		width, _ := cmd.Flags().GetInt("width")
		if width <= 0 {
			width = output.Width(100)
		}

		lines := output.FormatBatch(res.Batch, snap, width)
		if len(lines) == 0 {
			output.Success("Up to date: %d items, nothing to change", len(snap.Items))
		} else {
			fmt.Print(output.SectionHeader(fmt.Sprintf("%d changes", len(lines))))
			for _, l := range lines {
				fmt.Println(l)
			}
		}

		if opts.Label != "" {
			fmt.Printf("\n%d items carry %s after this pass\n", len(res.Labeled), opts.Label)
		}

		if len(res.Skipped) > 0 {
			ids := make([]string, 0, len(res.Skipped))
			for id := range res.Skipped {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			fmt.Println()
			for _, id := range ids {
				output.Warning("skipped %s: %v", id, res.Skipped[id])
			}
		}
		return nil
	},
}

func init() {
	planCmd.Flags().Bool("json", false, "JSON output")
	planCmd.Flags().Int("width", 0, "Truncate titles to this width (default terminal width)")
	rootCmd.AddCommand(planCmd)
}
