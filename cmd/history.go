package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fleetsizer/app"
	"github.com/kilianp07/fleetsizer/core/runlog"
	"github.com/kilianp07/fleetsizer/core/simulation"
	"github.com/kilianp07/fleetsizer/pkg/export"
)

var historyOpts struct {
	runID      string
	dayType    string
	failedOnly bool
	since      time.Duration
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List simulated days recorded in the run log",
	RunE:  runHistory,
}

func init() {
	f := historyCmd.Flags()
	f.StringVar(&historyOpts.runID, "run-id", "", "only days of this evaluation")
	f.StringVar(&historyOpts.dayType, "day-type", "", "only days of this type (easy, normal, hard)")
	f.BoolVar(&historyOpts.failedOnly, "failed", false, "only days without a solution")
	f.DurationVar(&historyOpts.since, "since", 0, "only days recorded within this duration")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	return withService(cmd, nil, func(ctx context.Context, svc *app.Service) error {
		if svc.RunLog == nil {
			return errors.New("no run log configured")
		}
		q := runlog.Query{RunID: historyOpts.runID, FailedOnly: historyOpts.failedOnly}
		if historyOpts.dayType != "" {
			dt, err := simulation.ParseDayType(historyOpts.dayType)
			if err != nil {
				return err
			}
			q.DayType = dt.String()
		}
		if historyOpts.since > 0 {
			q.Start = time.Now().Add(-historyOpts.since)
		}
		recs, err := svc.RunLog.Query(ctx, q)
		if err != nil {
			return err
		}
		if svc.Config.Output.Format != export.FormatText {
			return summarize(cmd.OutOrStdout(), svc, recs)
		}
		days := make([]simulation.DayResult, len(recs))
		for i, r := range recs {
			days[i] = r.Day
		}
		if err := export.WriteDaysCSV(cmd.OutOrStdout(), days); err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.ErrOrStderr(), "%d days\n", len(recs))
		return err
	})
}
