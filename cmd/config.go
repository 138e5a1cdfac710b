package cmd

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/marcus/autodoist/internal/config"
	"github.com/marcus/autodoist/internal/output"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// validConfigKeys lists the keys "config set" accepts
var validConfigKeys = []string{
	"label",
	"regeneration",
	"end_hour",
	"hide_future",
	"date_format",
	"inbox",
	"inbox_name",
	"delay",
	"state_dir",
	"log_level",
	"log_format",
	"no_update_check",
	"suffixes.parallel",
	"suffixes.sequential",
	"suffixes.parallel_sequential",
	"suffixes.sequential_parallel",
}

func parseBool(val string) (bool, error) {
	switch strings.ToLower(val) {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid bool value %q (use true/false/1/0)", val)
	}
}

// setConfigValue assigns val to key on c
func setConfigValue(c *config.Config, key, val string) error {
	num := func(dst *int) error {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid number %q for %s", val, key)
		}
		*dst = n
		return nil
	}

	switch key {
	case "label":
		c.Label = val
	case "regeneration":
		c.Regeneration = val
	case "end_hour":
		return num(&c.EndHour)
	case "hide_future":
		return num(&c.HideFuture)
	case "date_format":
		c.DateFormat = val
	case "inbox":
		c.Inbox = val
	case "inbox_name":
		c.InboxName = val
	case "delay":
		return num(&c.Delay)
	case "state_dir":
		c.StateDir = val
	case "log_level":
		c.LogLevel = val
	case "log_format":
		c.LogFormat = val
	case "no_update_check":
		b, err := parseBool(val)
		if err != nil {
			return err
		}
		c.NoUpdateCheck = b
	case "suffixes.parallel":
		c.Suffixes.Parallel = val
	case "suffixes.sequential":
		c.Suffixes.Sequential = val
	case "suffixes.parallel_sequential":
		c.Suffixes.ParallelSequential = val
	case "suffixes.sequential_parallel":
		c.Suffixes.SequentialParallel = val
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

// configPath returns --config or the default path
func configPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("config"); p != "" {
		return p, nil
	}
	return config.Path()
}

var configCmd = &cobra.Command{
	Use:     "config",
	Short:   "Manage autodoist configuration",
	GroupID: "system",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long:  "Print the configuration after the file, environment and flags are merged. The API key is masked.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		shown := *cfg
		shown.APIKey = cfg.MaskedKey()
		data, err := yaml.Marshal(&shown)
		if err != nil {
			output.Error("encode config: %v", err)
			return err
		}
		fmt.Print(string(data))
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := configPath(cmd)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		fmt.Println(p)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := configPath(cmd)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(p); err == nil && !force {
			err := fmt.Errorf("%s already exists (use --force to overwrite)", p)
			output.Error("%v", err)
			return err
		}

		c := config.Default()
		c.Label = config.DefaultLabel
		if err := config.Save(p, c, false); err != nil {
			output.Error("write config: %v", err)
			return err
		}
		output.Success("Wrote %s", p)
		fmt.Println("Set your API key with TODOIST_API_KEY or --api-key.")
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a value in the config file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if !slices.Contains(validConfigKeys, key) {
			output.Error("unknown config key: %s", key)
			fmt.Println("Valid keys:", strings.Join(validConfigKeys, ", "))
			return fmt.Errorf("unknown config key: %s", key)
		}

		p, err := configPath(cmd)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		// Start from the file alone so env and flags are not persisted
		c, err := config.Load(p)
		if err != nil {
			output.Error("load config: %v", err)
			return err
		}
		if err := setConfigValue(c, key, val); err != nil {
			output.Error("%v", err)
			return err
		}
		if err := c.ValidateOptions(); err != nil {
			output.Error("%v", err)
			return err
		}
		if err := config.Save(p, c, true); err != nil {
			output.Error("write config: %v", err)
			return err
		}
		output.Success("Set %s = %s", key, val)
		return nil
	},
}

func init() {
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing file")
	configCmd.AddCommand(configShowCmd, configPathCmd, configInitCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}
