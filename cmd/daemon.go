package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/marcus/autodoist/internal/classify"
	"github.com/marcus/autodoist/internal/config"
	"github.com/marcus/autodoist/internal/db"
	"github.com/marcus/autodoist/internal/engine"
	"github.com/marcus/autodoist/internal/models"
	"github.com/marcus/autodoist/internal/output"
	"github.com/marcus/autodoist/internal/runner"
	tdsync "github.com/marcus/autodoist/internal/sync"
	"github.com/marcus/autodoist/internal/todoist"
	"github.com/marcus/autodoist/internal/version"
	"github.com/spf13/cobra"
)

const lockTimeout = 2 * time.Second

// engineOptions maps the configuration onto pass options
func engineOptions(c *config.Config) engine.Options {
	return engine.Options{
		Label:        c.Label,
		Regeneration: c.RegenMode(),
		RegenLabels:  models.DefaultRegenLabels,
		EndHour:      c.EndHour,
		HideFuture:   c.HideFuture,
		DateFormat:   c.DateFormat,
	}
}

func newClassifier(c *config.Config) *classify.Classifier {
	inboxType, _ := c.InboxType()
	return classify.New(c.Suffixes, c.InboxName, inboxType)
}

// enabledModes lists the features a configuration turns on, for the start-up log
func enabledModes(opts engine.Options) []string {
	var modes []string
	if opts.Label != "" {
		modes = append(modes, "next-action labelling ("+opts.Label+")")
	}
	if opts.Regeneration != nil {
		modes = append(modes, "regeneration ("+opts.Regeneration.String()+")")
	}
	if opts.EndHour > 0 {
		modes = append(modes, fmt.Sprintf("end of day at %d:00", opts.EndHour))
	}
	if opts.HideFuture > 0 {
		modes = append(modes, fmt.Sprintf("hide future (%d days)", opts.HideFuture))
	}
	return modes
}

// openStore opens the watermark store, in memory with --nocache. The returned
// func releases the store and the daemon lock.
func openStore(c *config.Config, stateDir string) (*db.DB, func(), error) {
	if c.NoCache {
		database, err := db.OpenMemory()
		if err != nil {
			return nil, nil, err
		}
		return database, func() { database.Close() }, nil
	}

	lock := db.NewLock(stateDir)
	if err := lock.Acquire(lockTimeout); err != nil {
		return nil, nil, err
	}
	database, err := db.Open(stateDir)
	if err != nil {
		lock.Release()
		return nil, nil, err
	}
	return database, func() {
		database.Close()
		lock.Release()
	}, nil
}

func runDaemon(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		output.Error("%v", err)
		return err
	}

	opts := engineOptions(cfg)
	if !opts.Enabled() {
		fmt.Println("Nothing to do: no functionality enabled.")
		fmt.Println("Set a label with --label to mark next actions, or --regeneration / --end for recurring tasks.")
		return nil
	}

	stateDir, err := cfg.ResolveStateDir()
	if err != nil {
		output.Error("state dir: %v", err)
		return err
	}
	logger, closeLog, err := setupLogging(cfg, stateDir)
	if err != nil {
		output.Error("set up logging: %v", err)
		return err
	}
	defer closeLog()

	logger.Info("starting", "version", versionStr, "modes", strings.Join(enabledModes(opts), ", "),
		"delay", cfg.Delay, "onetime", cfg.OneTime, "dry_run", cfg.DryRun)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !cfg.NoUpdateCheck {
		checkForUpdate(ctx, logger)
	}

	database, closeStore, err := openStore(cfg, stateDir)
	if err != nil {
		output.Error("%v", err)
		return err
	}
	defer closeStore()

	source := tdsync.New(todoist.New(cfg.APIKey), database, logger)
	if err := verifyLabels(ctx, source, opts, logger); err != nil {
		output.Error("%v", err)
		return err
	}

	eng := engine.New(opts, newClassifier(cfg), logger)
	r := runner.New(runner.Config{
		Delay:  time.Duration(cfg.Delay) * time.Second,
		Once:   cfg.OneTime,
		DryRun: cfg.DryRun,
	}, source, eng, database, logger)

	if cfg.DryRun {
		width := output.Width(100)
		r.OnPlan = func(snap *models.Snapshot, res *engine.Result) {
			for _, line := range output.FormatBatch(res.Batch, snap, width) {
				fmt.Println(line)
			}
		}
	}

	if err := r.Run(ctx); err != nil {
		output.Error("%v", err)
		return err
	}
	logger.Info("stopped")
	return nil
}

func checkForUpdate(ctx context.Context, logger *slog.Logger) {
	u, err := version.CheckCached(ctx, versionStr)
	if err != nil {
		logger.Debug("update check failed", "err", err)
		return
	}
	if u != nil {
		logger.Warn("update available", "current", u.CurrentVersion, "latest", u.LatestVersion, "run", u.UpdateCommand)
	}
}
