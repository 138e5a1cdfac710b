package cmd

import (
	"fmt"
	"strings"

	"github.com/marcus/autodoist/internal/classify"
	"github.com/marcus/autodoist/internal/config"
	"github.com/marcus/autodoist/internal/header"
	"github.com/marcus/autodoist/internal/models"
	"github.com/marcus/autodoist/internal/output"
	"github.com/spf13/cobra"
)

// conventionsMarkdown describes the title conventions for the given config
func conventionsMarkdown(c *config.Config) string {
	s := c.Suffixes
	var b strings.Builder

	b.WriteString("# Title conventions\n\n")
	b.WriteString("## Types\n\n")
	b.WriteString("End a project, section or task title with a suffix to set how its children are activated.\n\n")
	b.WriteString("| Suffix | Type | Next actions |\n|---|---|---|\n")
	fmt.Fprintf(&b, "| `%s` | parallel | every child |\n", s.Parallel)
	fmt.Fprintf(&b, "| `%s` | sequential | the first child only |\n", s.Sequential)
	fmt.Fprintf(&b, "| `%s` | p-s | every child, sequential below |\n", s.ParallelSequential)
	fmt.Fprintf(&b, "| `%s` | s-p | the first child, parallel below |\n", s.SequentialParallel)

	b.WriteString("\n## Headers\n\n")
	fmt.Fprintf(&b, "- A title starting with `%s` is a header and never gets the label.\n", strings.TrimSpace(header.Flag))
	fmt.Fprintf(&b, "- `%s` turns the task and everything beneath it into headers.\n", strings.TrimSpace(header.HeaderMarker))
	fmt.Fprintf(&b, "- `%s` removes the header flag from everything beneath the task.\n", strings.TrimSpace(header.UnheaderMarker))

	b.WriteString("\n## Start dates\n\n")
	fmt.Fprintf(&b, "- `start=<date>` withholds the label until that date (format `%s`).\n", c.DateFormat)
	b.WriteString("- `start=due-3d` or `start=due-2w` withholds it until that long before the due date.\n")
	if c.HideFuture > 0 {
		fmt.Fprintf(&b, "- Tasks due %d or more days out do not get the label.\n", c.HideFuture)
	}

	b.WriteString("\n## Recurring tasks\n\n")
	fmt.Fprintf(&b, "- Labels `%s`, `%s` and `%s` override the regeneration mode per task.\n",
		models.DefaultRegenLabels[0], models.DefaultRegenLabels[1], models.DefaultRegenLabels[2])

	if typ, _ := c.InboxType(); typ != models.TypeNone {
		fmt.Fprintf(&b, "\nThe **%s** project is treated as %s.\n", c.InboxName, typ)
	}
	return b.String()
}

var conventionsCmd = &cobra.Command{
	Use:   "conventions [title...]",
	Short: "Explain the title suffixes and markers, or classify titles",
	Long: `Without arguments, shows the conventions autodoist reads from titles.
With arguments, prints the type each title would get.

Examples:
  autodoist conventions
  autodoist conventions "Move house --" "Groceries"`,
	GroupID: "core",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.ValidateOptions(); err != nil {
			output.Error("%v", err)
			return err
		}

		if len(args) > 0 {
			c := classify.New(cfg.Suffixes, cfg.InboxName, models.TypeNone)
			for _, title := range args {
				fmt.Printf("%s  %s\n", output.FormatType(c.Name(title)), title)
			}
			return nil
		}

		fmt.Print(output.Document(conventionsMarkdown(cfg)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(conventionsCmd)
}
