package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/seo-dashboard/internal/model"
	"github.com/sells-group/seo-dashboard/internal/monitoring"
	"github.com/sells-group/seo-dashboard/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect the analysis run log",
	Long:  "Commands for listing and viewing recorded analysis runs.",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List analysis runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("runs"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		status, _ := cmd.Flags().GetString("status")
		url, _ := cmd.Flags().GetString("url")
		sessionID, _ := cmd.Flags().GetString("session")
		limit, _ := cmd.Flags().GetInt("limit")

		runs, err := st.ListRuns(ctx, store.RunFilter{
			Status:    model.RunStatus(status),
			URL:       url,
			SessionID: sessionID,
			Limit:     limit,
		})
		if err != nil {
			return eris.Wrap(err, "runs list")
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
	Short: "Show full details of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("runs"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	},
}

// -- runs stats --

var runsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate run statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("runs"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		since, _ := cmd.Flags().GetDuration("since")
		snap, err := monitoring.NewCollector(st, nil).Collect(ctx, sinceHours(since))
		if err != nil {
			return eris.Wrap(err, "runs stats")
		}

		formatRunStats(os.Stdout, snap)
		return nil
	},
}

func init() {
	runsListCmd.Flags().String("status", "", "filter by run status (running, complete, failed, superseded)")
	runsListCmd.Flags().String("url", "", "filter by analyzed URL")
	runsListCmd.Flags().String("session", "", "filter by session id")
	runsListCmd.Flags().Int("limit", 50, "max number of runs to display")

	runsStatsCmd.Flags().Duration("since", 24*time.Hour, "time window for stats (e.g. 24h, 72h, 168h)")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsStatsCmd)
	rootCmd.AddCommand(runsCmd)
}

// formatRunsList writes a tabular list of runs to w.
func formatRunsList(out io.Writer, runs []model.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tURL\tSTATUS\tSCRAPER\tSCORE\tCREATED\tDURATION")
	_, _ = fmt.Fprintln(w, "--\t---\t------\t-------\t-----\t-------\t--------")

	for _, r := range runs {
		dur := r.UpdatedAt.Sub(r.CreatedAt).Round(time.Second).String()

		url := r.URL
		if len(url) > 40 {
			url = url[:37] + "..."
		}

		score := "-"
		if r.Status == model.RunStatusComplete {
			score = fmt.Sprintf("%g", r.OverallScore)
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			truncateID(r.ID),
			url,
			r.Status,
			r.Scraper,
			score,
			r.CreatedAt.Format("2006-01-02 15:04"),
			dur,
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// sinceHours rounds a stats window up to whole hours, minimum one.
func sinceHours(d time.Duration) int {
	h := int(math.Ceil(d.Hours()))
	if h < 1 {
		return 1
	}
	return h
}

// formatRunStats writes aggregate stats to w.
func formatRunStats(out io.Writer, s *monitoring.MetricsSnapshot) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Window:\t%dh\n", s.LookbackHours)
	_, _ = fmt.Fprintf(w, "Total runs:\t%d\n", s.RunsTotal)
	_, _ = fmt.Fprintf(w, "Complete:\t%d\n", s.RunsComplete)
	_, _ = fmt.Fprintf(w, "Failed:\t%d\n", s.RunsFailed)
	_, _ = fmt.Fprintf(w, "Superseded:\t%d\n", s.RunsSuperseded)
	_, _ = fmt.Fprintf(w, "Running:\t%d\n", s.RunsRunning)
	_, _ = fmt.Fprintf(w, "Failure rate:\t%.1f%%\n", s.FailRate*100)
	_, _ = fmt.Fprintf(w, "Avg score:\t%.1f\n", s.AvgScore)

	scrapers := make([]string, 0, len(s.ByScraper))
	for name := range s.ByScraper {
		scrapers = append(scrapers, name)
	}
	sort.Strings(scrapers)
	for _, name := range scrapers {
		_, _ = fmt.Fprintf(w, "Scraper %s:\t%d\n", name, s.ByScraper[name])
	}
	_ = w.Flush()
}
