package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/marcus/autodoist/internal/engine"
	"github.com/marcus/autodoist/internal/output"
	"github.com/marcus/autodoist/internal/suggest"
	tdsync "github.com/marcus/autodoist/internal/sync"
	"github.com/marcus/autodoist/internal/todoist"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// requiredLabels returns the labels the given options write
func requiredLabels(opts engine.Options) []string {
	var names []string
	if opts.Label != "" {
		names = append(names, opts.Label)
	}
	if opts.Regeneration != nil {
		for _, n := range opts.RegenLabels {
			if n != "" {
				names = append(names, n)
			}
		}
	}
	return names
}

// labelLister is what verifyLabels needs from the source
type labelLister interface {
	LabelNames(ctx context.Context) ([]string, error)
	EnsureLabels(ctx context.Context, names []string, confirm tdsync.ConfirmFunc) ([]string, error)
}

// verifyLabels makes sure every label the daemon writes exists. Creating the
// next-action label is confirmed interactively when stdin is a terminal.
func verifyLabels(ctx context.Context, src labelLister, opts engine.Options, logger *slog.Logger) error {
	names := requiredLabels(opts)
	if len(names) == 0 {
		return nil
	}

	existing, err := src.LabelNames(ctx)
	if err != nil {
		return fmt.Errorf("list labels: %w", err)
	}
	if opts.Label != "" && !slices.Contains(existing, opts.Label) {
		if near := suggest.Label(opts.Label, existing); len(near) > 0 {
			logger.Warn("label not found", "label", opts.Label, "similar", strings.Join(near, ", "))
		}
	}

	var confirm tdsync.ConfirmFunc
	if term.IsTerminal(int(os.Stdin.Fd())) {
		confirm = func(name string) bool {
			if name != opts.Label {
				return true
			}
			return confirmCreate(name)
		}
	}

	created, err := src.EnsureLabels(ctx, names, confirm)
	if err != nil {
		return err
	}
	if len(created) > 0 {
		logger.Info("labels created", "labels", strings.Join(created, ", "))
	}
	return nil
}

func confirmCreate(name string) bool {
	var ok bool
	err := huh.NewConfirm().
		Title(fmt.Sprintf("Label %q does not exist. Create it?", name)).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	return err == nil && ok
}

func newLabelSource() *tdsync.Source {
	return tdsync.New(todoist.New(cfg.APIKey), nil, slog.Default())
}

var labelsCmd = &cobra.Command{
	Use:     "labels",
	Aliases: []string{"label"},
	Short:   "List the labels the daemon uses and whether they exist",
	GroupID: "core",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			output.Error("%v", err)
			return err
		}

		existing, err := newLabelSource().LabelNames(cmd.Context())
		if err != nil {
			output.Error("list labels: %v", err)
			return err
		}
		slices.Sort(existing)

		opts := engineOptions(cfg)
		required := requiredLabels(opts)

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			missing := []string{}
			for _, n := range required {
				if !slices.Contains(existing, n) {
					missing = append(missing, n)
				}
			}
			return output.JSON(map[string]any{
				"existing": existing,
				"required": required,
				"missing":  missing,
			})
		}

		fmt.Print(output.SectionHeader("required"))
		if len(required) == 0 {
			fmt.Println("  (none: labelling and regeneration are off)")
		}
		for _, n := range required {
			if slices.Contains(existing, n) {
				fmt.Printf("  ✓ %s\n", n)
				continue
			}
			line := fmt.Sprintf("  ✗ %s (missing)", n)
			if near := suggest.Label(n, existing); len(near) > 0 {
				line += "  similar: " + strings.Join(near, ", ")
			}
			fmt.Println(line)
		}

		fmt.Print(output.SectionHeader("existing"))
		for _, line := range output.BulletList(existing, 2) {
			fmt.Println(line)
		}
		return nil
	},
}

var labelsEnsureCmd = &cobra.Command{
	Use:   "ensure",
	Short: "Create the labels the daemon writes when missing",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			output.Error("%v", err)
			return err
		}

		names := requiredLabels(engineOptions(cfg))
		if len(names) == 0 {
			output.Info("No labels needed: labelling and regeneration are off")
			return nil
		}

		created, err := newLabelSource().EnsureLabels(cmd.Context(), names, nil)
		if err != nil {
			output.Error("create labels: %v", err)
			return err
		}
		if len(created) == 0 {
			output.Success("All %d labels exist", len(names))
			return nil
		}
		for _, n := range created {
			output.Success("Created %s", n)
		}
		return nil
	},
}

var _ labelLister = (*tdsync.Source)(nil)

func init() {
	labelsCmd.Flags().Bool("json", false, "JSON output")
	labelsCmd.AddCommand(labelsEnsureCmd)
	rootCmd.AddCommand(labelsCmd)
}
