package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ibeckermayer/like4me/internal/app"
	"github.com/ibeckermayer/like4me/internal/store"
)

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(a *app.App) error {
				runs, err := a.History(limit)
				if err != nil {
					return err
				}
				if runs == nil {
					runs = []store.RunSummary{}
				}
				if opts.jsonOutput() {
					return writeJSON(cmd.OutOrStdout(), runs)
				}
				if len(runs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
					return nil
				}
				for _, r := range runs {
					status := "ok"
					if !r.Success {
						status = "FAILED"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%-36s %s %-6s %6s  liked %d/%d, commented %d, skipped %d\n",
						r.RunID, r.StartedAt.Local().Format(time.DateTime), status, r.Duration().Round(time.Second),
						r.Liked, r.Processed, r.Commented, r.Skipped)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to show")

	cmd.AddCommand(newHistoryShowCmd(opts))
	cmd.AddCommand(newHistoryLastCmd(opts))
	cmd.AddCommand(newHistoryPruneCmd(opts))
	return cmd
}

func newHistoryShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "List the items engaged in one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(a *app.App) error {
				outcomes, err := a.Outcomes(args[0])
				if err != nil {
					return err
				}
				if opts.jsonOutput() {
					if outcomes == nil {
						outcomes = []store.OutcomeRecord{}
					}
					return writeJSON(cmd.OutOrStdout(), outcomes)
				}
				if len(outcomes) == 0 {
					return fmt.Errorf("no items recorded for run %s", args[0])
				}
				for _, o := range outcomes {
					result := "already liked"
					switch {
					case o.Failed:
						result = "failed"
					case o.Liked:
						result = "liked"
					}
					if o.Commented {
						result += ", commented"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%-16s %-22s %s\n", o.RelationID, result, o.ItemURL)
					if o.Reason != "" && !o.Commented {
						fmt.Fprintf(cmd.OutOrStdout(), "%-16s reason: %s\n", "", o.Reason)
					}
				}
				return nil
			})
		},
	}
}

func newHistoryLastCmd(opts *rootOptions) *cobra.Command {
	var open bool
	cmd := &cobra.Command{
		Use:   "last",
		Short: "Show the report of the most recent run",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(a *app.App) error {
				if open {
					return a.ViewLastReport()
				}
				rep, err := a.LastReport()
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), rep.PlainBody)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&open, "open", false, "open the HTML report in the default browser")
	return cmd
}

func newHistoryPruneCmd(opts *rootOptions) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete runs older than a number of days",
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 1 {
				return fmt.Errorf("--older-than must be at least 1 day, got %d", days)
			}
			return opts.withApp(cmd, func(a *app.App) error {
				n, err := a.PruneHistory(time.Now().AddDate(0, 0, -days))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d runs older than %d days.\n", n, days)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "older-than", 90, "age in days of the runs to delete")
	return cmd
}

func (o *rootOptions) withApp(cmd *cobra.Command, fn func(a *app.App) error) error {
	logger := o.logger(cmd)
	cfg, err := o.loadConfig(logger)
	if err != nil {
		return err
	}
	a, err := o.newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
