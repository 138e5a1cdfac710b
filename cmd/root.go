package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/marcus/autodoist/internal/config"
	"github.com/marcus/autodoist/internal/suggest"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	versionStr string
	cfg        *config.Config
)

// SetVersion sets the version string
func SetVersion(v string) {
	versionStr = v
}

var rootCmd = &cobra.Command{
	Use:   "autodoist",
	Short: "Next-action labels and recurring sub-task regeneration for Todoist",
	Long: `autodoist - keeps Todoist tidy in the background.

Marks the next actionable task of every sequential or parallel project,
section and parent task with a label, and reopens the sub-tasks of recurring
tasks whenever they roll over to their next date.

Run without a subcommand to start the daemon.`,
	Args:              cobra.NoArgs,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
	RunE:              runDaemon,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// nameWithAliases returns "name, alias1, alias2" if aliases exist, else just "name"
func nameWithAliases(cmd *cobra.Command) string {
	if len(cmd.Aliases) > 0 {
		return cmd.Name() + ", " + strings.Join(cmd.Aliases, ", ")
	}
	return cmd.Name()
}

func init() {
	cobra.AddTemplateFunc("nameWithAliases", nameWithAliases)

	usageTemplate := `Usage:{{if .Runnable}}
  {{.UseLine}}{{end}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}{{if gt (len .Aliases) 0}}

Aliases:
  {{.NameAndAliases}}{{end}}{{if .HasExample}}

Examples:
{{.Example}}{{end}}{{if .HasAvailableSubCommands}}{{$cmds := .Commands}}{{if eq (len .Groups) 0}}

Available Commands:{{range $cmds}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad (nameWithAliases .) (add .NamePadding 8)}} {{.Short}}{{end}}{{end}}{{else}}{{range $group := .Groups}}

{{.Title}}{{range $cmds}}{{if (and (eq .GroupID $group.ID) (or .IsAvailableCommand (eq .Name "help")))}}
  {{rpad (nameWithAliases .) (add .NamePadding 8)}} {{.Short}}{{end}}{{end}}{{end}}{{if not .AllChildCommandsHaveGroup}}

Additional Commands:{{range $cmds}}{{if (and (eq .GroupID "") (or .IsAvailableCommand (eq .Name "help")))}}
  {{rpad (nameWithAliases .) (add .NamePadding 8)}} {{.Short}}{{end}}{{end}}{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}

Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableInheritedFlags}}

Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasHelpSubCommands}}

Additional help topics:{{range .Commands}}{{if .IsAdditionalHelpTopicCommand}}
  {{rpad .CommandPath .CommandPathPadding}} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableSubCommands}}

Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`
	cobra.AddTemplateFunc("add", func(a, b int) int { return a + b })
	rootCmd.SetUsageTemplate(usageTemplate)

	rootCmd.AddGroup(
		&cobra.Group{ID: "core", Title: "Core Commands:"},
		&cobra.Group{ID: "state", Title: "State Commands:"},
		&cobra.Group{ID: "system", Title: "System Commands:"},
	)
	rootCmd.SetHelpCommandGroupID("system")
	rootCmd.SetCompletionCommandGroupID("system")

	registerFlags(rootCmd.PersistentFlags())
	rootCmd.SetFlagErrorFunc(flagError)
}

// registerFlags declares the daemon settings on f
func registerFlags(f *pflag.FlagSet) {
	f.String("config", "", "Config file (default $AUTODOIST_CONFIG or ~/.config/autodoist/config.yaml)")
	f.StringP("api-key", "a", "", "Todoist API key")
	f.StringP("label", "l", "", "Next-action label; enables labelling")
	f.StringP("regeneration", "r", "", "Regenerate sub-tasks of recurring tasks: off, all, if-completed")
	f.Lookup("regeneration").NoOptDefVal = "all"
	f.IntP("end", "e", 0, "Alternate end of the day (1-24) for recurring tasks")
	f.IntP("delay", "d", config.DefaultDelay, "Seconds between cycle starts")
	f.String("pp-suffix", "", "Suffix marking parallel (default \"//\")")
	f.String("ss-suffix", "", "Suffix marking sequential (default \"--\")")
	f.String("ps-suffix", "", "Suffix marking parallel-then-sequential (default \"/-\")")
	f.String("sp-suffix", "", "Suffix marking sequential-then-parallel (default \"-/\")")
	f.String("dateformat", "", "strftime format of start=<date> (default \"%d-%m-%Y\")")
	f.Int("hide-future", 0, "Withhold the label from tasks due this many days out or more")
	f.String("inbox", "", "Type of the inbox project: none, parallel, sequential, p-s, s-p")
	f.String("state-dir", "", "Directory for the state database, lock and debug log")
	f.Bool("onetime", false, "Run one cycle and exit")
	f.Bool("nocache", false, "Keep watermarks in memory only")
	f.Bool("debug", false, "Debug logging, also written to debug.log in the state dir")
	f.Bool("dry-run", false, "Compute changes without writing them")
}

// flagError adds suggestions to unknown-flag errors
func flagError(cmd *cobra.Command, err error) error {
	msg := err.Error()
	const prefix = "unknown flag: "
	i := strings.Index(msg, prefix)
	if i < 0 {
		return err
	}
	unknown := strings.Fields(msg[i+len(prefix):])[0]

	if hint := suggest.GetFlagHint(unknown); hint != "" {
		return fmt.Errorf("%w\n  try: %s", err, hint)
	}
	var names []string
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		names = append(names, "--"+f.Name)
	})
	if s := suggest.Flag(unknown, names); len(s) > 0 {
		return fmt.Errorf("%w\n  did you mean: %s", err, strings.Join(s, ", "))
	}
	return err
}

// loadConfig builds the effective configuration.
// Priority: flags > env > config file > defaults.
func loadConfig(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		var err error
		if path, err = config.Path(); err != nil {
			return err
		}
	}

	c, err := config.Load(path)
	if err != nil {
		return err
	}
	c.ApplyEnv()
	applyFlags(cmd.Flags(), c)
	cfg = c
	return nil
}

// applyFlags copies explicitly set flags over c
func applyFlags(fs *pflag.FlagSet, c *config.Config) {
	str := func(name string, dst *string) {
		if fs.Changed(name) {
			*dst, _ = fs.GetString(name)
		}
	}
	num := func(name string, dst *int) {
		if fs.Changed(name) {
			*dst, _ = fs.GetInt(name)
		}
	}
	flag := func(name string, dst *bool) {
		if fs.Changed(name) {
			*dst, _ = fs.GetBool(name)
		}
	}

	str("api-key", &c.APIKey)
	str("label", &c.Label)
	str("regeneration", &c.Regeneration)
	num("end", &c.EndHour)
	num("delay", &c.Delay)
	str("pp-suffix", &c.Suffixes.Parallel)
	str("ss-suffix", &c.Suffixes.Sequential)
	str("ps-suffix", &c.Suffixes.ParallelSequential)
	str("sp-suffix", &c.Suffixes.SequentialParallel)
	str("dateformat", &c.DateFormat)
	num("hide-future", &c.HideFuture)
	str("inbox", &c.Inbox)
	str("state-dir", &c.StateDir)
	flag("onetime", &c.OneTime)
	flag("nocache", &c.NoCache)
	flag("debug", &c.Debug)
	flag("dry-run", &c.DryRun)
}
