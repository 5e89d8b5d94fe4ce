package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ibeckermayer/like4me/internal/app"
	"github.com/ibeckermayer/like4me/internal/config"
	"github.com/ibeckermayer/like4me/internal/report"
	"github.com/ibeckermayer/like4me/internal/types"
)

// runFlags override the config file for a single invocation
type runFlags struct {
	days         int
	maxRelations int
	maxItems     int
	comment      bool
	keepGoing    bool
	headless     bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.days, "days", 0, "only engage with items published within this many days")
	cmd.Flags().IntVar(&f.maxRelations, "max-relations", 0, "maximum relations to visit")
	cmd.Flags().IntVar(&f.maxItems, "max-items", 0, "maximum items per relation")
	cmd.Flags().BoolVar(&f.comment, "comment", false, "post a generated comment on newly liked items")
	cmd.Flags().BoolVar(&f.keepGoing, "keep-going", false, "keep running every min_interval_minutes after this run")
	cmd.Flags().BoolVar(&f.headless, "headless", false, "hide the browser window")
}

func (f *runFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("days") {
		cfg.Run.DaysLimit = f.days
	}
	if flags.Changed("max-relations") {
		cfg.Run.MaxRelations = f.maxRelations
	}
	if flags.Changed("max-items") {
		cfg.Run.MaxItemsPerRelation = f.maxItems
	}
	if flags.Changed("comment") {
		cfg.Comment.Enabled = f.comment
	}
	if flags.Changed("keep-going") {
		cfg.Run.KeepGoing = f.keepGoing
	}
	if flags.Changed("headless") {
		cfg.Browser.Headless = f.headless
	}
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one engagement pass now",
		Long: "Log in, visit each relation's recent posts and like the ones not yet liked.\n" +
			"The account secret is read from " + config.EnvSecret + " and never stored.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := opts.logger(cmd)
			cfg, err := opts.loadConfig(logger)
			if err != nil {
				return err
			}
			f.apply(cmd, cfg)

			a, err := opts.newApp(cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			result, runErr := a.RunOnce(ctx)
			if result != nil {
				if err := opts.printResult(cmd, result); err != nil {
					return err
				}
			}
			if !cfg.Run.KeepGoing || errors.Is(runErr, config.ErrInvalid) {
				return runErr
			}
			if runErr != nil {
				logger.WithError(runErr).Warn("Run failed, continuing on schedule")
			}
			return serve(ctx, cmd, a)
		},
	}
	f.register(cmd)
	return cmd
}

func newScheduleCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run every min_interval_minutes until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := opts.logger(cmd)
			cfg, err := opts.loadConfig(logger)
			if err != nil {
				return err
			}
			a, err := opts.newApp(cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			reload := make(chan os.Signal, 1)
			signal.Notify(reload, syscall.SIGHUP)
			defer signal.Stop(reload)
			go func() {
				for {
					select {
					case <-ctx.Done():
						return
					case <-reload:
						if err := a.ReloadConfig(); err != nil {
							logger.WithError(err).Error("Failed to reload config")
						}
					}
				}
			}()

			return serve(ctx, cmd, a)
		},
	}
}

// serve keeps the schedule running until ctx ends
func serve(ctx context.Context, cmd *cobra.Command, a *app.App) error {
	if err := a.StartSchedule(ctx); err != nil {
		return err
	}
	for _, job := range a.ScheduledJobs() {
		fmt.Fprintf(cmd.OutOrStdout(), "Scheduled %s, next at %s. Press Ctrl+C to stop.\n", job.Name, job.NextRun.Format(time.DateTime))
	}
	<-ctx.Done()
	a.StopSchedule()
	return nil
}

func (o *rootOptions) printResult(cmd *cobra.Command, result *types.RunResult) error {
	if o.jsonOutput() {
		return writeJSON(cmd.OutOrStdout(), result)
	}
	rep, err := report.Build(result, time.Local)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), rep.PlainBody)
	return nil
}
