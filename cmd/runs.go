package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/reconcile-cli/internal/monitoring"
	"github.com/sells-group/reconcile-cli/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect reconcile run history",
	Long:  "Commands for listing and viewing sync-csv, sync-comments and task-types runs.",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		if st == nil {
			return eris.New("runs list: run store is disabled (store.driver=none)")
		}
		defer st.Close() //nolint:errcheck

		command, _ := cmd.Flags().GetString("command")
		status, _ := cmd.Flags().GetString("run-status")
		limit, _ := cmd.Flags().GetInt("max")

		runs, err := st.ListRuns(ctx, store.RunFilter{
			Command: command,
			Status:  store.RunStatus(status),
			Limit:   limit,
		})
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if flagJSON {
			return writeJSON(os.Stdout, runs)
		}
		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}
		formatRunsList(os.Stdout, runs)
		return nil
	},
}

// -- runs show --

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a run and its changes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		if st == nil {
			return eris.New("runs show: run store is disabled (store.driver=none)")
		}
		defer st.Close() //nolint:errcheck

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}
		changes, err := st.ListChanges(ctx, run.ID)
		if err != nil {
			return eris.Wrap(err, "runs show")
		}

		return writeJSON(os.Stdout, struct {
			*store.Run
			Changes []store.Change `json:"changes"`
		}{run, changes})
	},
}

// -- runs stats --

var runsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize run health over a lookback window",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		if st == nil {
			return eris.New("runs stats: run store is disabled (store.driver=none)")
		}
		defer st.Close() //nolint:errcheck

		hours, _ := cmd.Flags().GetInt("hours")
		if !cmd.Flags().Changed("hours") {
			hours = cfg.Monitoring.LookbackWindowHours
		}
		sendAlerts, _ := cmd.Flags().GetBool("alert")

		snap, err := monitoring.NewCollector(st).Collect(ctx, hours)
		if err != nil {
			return eris.Wrap(err, "runs stats")
		}
		alerter := monitoring.NewAlerter(cfg.Monitoring)
		alerts := alerter.Evaluate(snap)
		if sendAlerts {
			alerter.SendAlerts(ctx, alerts)
		}

		if flagJSON {
			return writeJSON(os.Stdout, struct {
				*monitoring.MetricsSnapshot
				Alerts []monitoring.Alert `json:"alerts"`
			}{snap, alerts})
		}
		formatStats(os.Stdout, snap, alerts)
		return nil
	},
}

func init() {
	runsStatsCmd.Flags().Int("hours", 24, "lookback window in hours; 0 covers all runs (default from config)")
	runsStatsCmd.Flags().Bool("alert", false, "post triggered alerts to monitoring.webhook_url")

	runsListCmd.Flags().String("command", "", "filter by command (sync-csv, sync-comments, task-types)")
	runsListCmd.Flags().String("run-status", "", "filter by run status (running, complete, failed)")
	runsListCmd.Flags().Int("max", 50, "max number of runs to display")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsStatsCmd)
	rootCmd.AddCommand(runsCmd)
}

// formatRunsList writes a tabular list of runs to w.
func formatRunsList(out io.Writer, runs []store.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tCOMMAND\tSOURCE\tSTATUS\tDRY_RUN\tPROCESSED\tAPPLIED\tFAILED\tCREATED\tDURATION")
	_, _ = fmt.Fprintln(w, "--\t-------\t------\t------\t-------\t---------\t-------\t------\t-------\t--------")

	for _, r := range runs {
		dur := r.UpdatedAt.Sub(r.CreatedAt).Round(time.Second).String()
		applied := r.Counts.Applied
		if r.DryRun {
			applied = r.Counts.Planned
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%d\t%d\t%d\t%s\t%s\n",
			truncateID(r.ID),
			r.Command,
			r.Source,
			r.Status,
			r.DryRun,
			r.Counts.Processed,
			applied,
			r.Counts.Failed,
			r.CreatedAt.Format("2006-01-02 15:04"),
			dur,
		)
	}
	_ = w.Flush()
}

// formatStats writes a run-health snapshot and any triggered alerts to w.
func formatStats(out io.Writer, snap *monitoring.MetricsSnapshot, alerts []monitoring.Alert) {
	window := "all time"
	if snap.LookbackHours > 0 {
		window = fmt.Sprintf("last %dh", snap.LookbackHours)
	}
	_, _ = fmt.Fprintf(out, "Runs (%s): %d total, %d complete, %d failed, %d running\n",
		window, snap.RunsTotal, snap.RunsComplete, snap.RunsFailed, snap.RunsRunning)
	_, _ = fmt.Fprintf(out, "Run failure rate: %.1f%%\n", snap.RunFailRate*100)
	_, _ = fmt.Fprintf(out, "Records processed: %d\n", snap.RecordsProcessed)
	_, _ = fmt.Fprintf(out, "Writes: %d applied, %d failed (%.1f%%)\n",
		snap.WritesApplied, snap.WritesFailed, snap.WriteFailRate*100)
	for _, a := range alerts {
		_, _ = fmt.Fprintf(out, "ALERT [%s] %s\n", a.Severity, a.Message)
	}
}
