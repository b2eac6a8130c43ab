package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"pun_archiver/internal/config"
	"pun_archiver/internal/domain"
	"pun_archiver/internal/scheduler"
)

// Version and Commit are set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
)

type app struct {
	configPath string
	cfg        *config.Config
	logger     *slog.Logger
}

func newApp(logger *slog.Logger) *app {
	return &app{logger: logger}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:               "pun-archiver",
		Short:             "Archive pun posts from an X account into a Google Doc",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.loadConfig,
		RunE:              a.runAction,
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "config.yaml", "path to config file")

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Archive new puns once and exit",
			RunE:  a.runAction,
		},
		&cobra.Command{
			Use:   "serve",
			Short: "Archive new puns on the configured cron schedule",
			RunE:  a.serveAction,
		},
		a.watermarkCmd(),
		&cobra.Command{
			Use:               "version",
			Short:             "Print version information",
			PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "pun-archiver %s (%s)\n", Version, Commit)
			},
		},
	)

	return root
}

func (a *app) watermarkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watermark",
		Short: "Inspect or reset the last seen tweet ID",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the stored watermark",
			Args:  cobra.NoArgs,
			RunE:  a.watermarkShowAction,
		},
		&cobra.Command{
			Use:   "set <tweet-id>",
			Short: "Overwrite the last seen tweet ID",
			Args:  cobra.ExactArgs(1),
			RunE:  a.watermarkSetAction,
		},
	)
	return cmd
}

func (a *app) loadConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a.cfg = cfg
	a.logger = setupLogger(cfg.LogLevel, cfg.LogFormat)
	return nil
}

func (a *app) runAction(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	svc, cleanup, err := a.buildService(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	_, err = svc.Run(ctx)
	if errors.Is(err, domain.ErrAuth) {
		return fmt.Errorf("authentication failed: %w", err)
	}
	return err
}

func (a *app) serveAction(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	svc, cleanup, err := a.buildService(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	sched, err := scheduler.New(svc, a.cfg.Schedule.Cron, a.cfg.Schedule.Timezone, a.cfg.Schedule.RunTimeout, a.logger)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrConfig, err)
	}

	a.logger.Info("starting pun archiver",
		"account_id", a.cfg.Source.AccountID,
		"schedule", a.cfg.Schedule.Cron,
		"max_pages", a.cfg.Source.MaxPages,
	)

	if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("scheduler error: %w", err)
	}
	return nil
}

func (a *app) watermarkShowAction(cmd *cobra.Command, _ []string) error {
	store, closeStore, err := a.openWatermarks(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()

	wm, err := store.Load(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "last_seen_id:  %s\n", orNone(wm.LastSeenID))
	if wm.LastRunDate.IsZero() {
		fmt.Fprintf(out, "last_run_date: %s\n", orNone(""))
	} else {
		fmt.Fprintf(out, "last_run_date: %s\n", wm.LastRunDate.Format("01/02/2006"))
	}
	return nil
}

func (a *app) watermarkSetAction(cmd *cobra.Command, args []string) error {
	store, closeStore, err := a.openWatermarks(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()

	return store.SaveLastSeenID(cmd.Context(), args[0])
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
