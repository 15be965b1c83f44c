package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fleetsizer/app"
	"github.com/kilianp07/fleetsizer/config"
	"github.com/kilianp07/fleetsizer/core/model"
)

var simulateOpts struct {
	problem       string
	solution      string
	metaheuristic string
	timeLimit     int
}

var simulateCmd = &cobra.Command{
	Use:   "vrp-simulate",
	Short: "Route every characteristic day of a problem with the whole vehicle pool",
	RunE:  runSimulate,
}

func init() {
	f := simulateCmd.Flags()
	f.StringVarP(&simulateOpts.problem, "characteristic-days-path", "p", "", "problem model to route")
	f.StringVarP(&simulateOpts.solution, "solution-path", "s", "", "where the routing solution is saved")
	f.StringVarP(&simulateOpts.metaheuristic, "metaheuristic", "m", "", "sa, gls, ts or gd (default from config)")
	f.IntVarP(&simulateOpts.timeLimit, "time-limit", "t", 0, "search time limit in seconds (default from config)")
	_ = simulateCmd.MarkFlagRequired("characteristic-days-path")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	configure := func(cfg *config.Config) error {
		if simulateOpts.metaheuristic != "" {
			cfg.Solver.Metaheuristic = simulateOpts.metaheuristic
		}
		if simulateOpts.timeLimit > 0 {
			cfg.Solver.TimeLimit = time.Duration(simulateOpts.timeLimit) * time.Second
		}
		return nil
	}
	return withService(cmd, configure, func(ctx context.Context, svc *app.Service) error {
		p, err := model.LoadProblem(simulateOpts.problem)
		if err != nil {
			return err
		}
		sol, err := svc.Vrp.WithRunID(newRunID()).Solve(ctx, p)
		if err != nil {
			return err
		}
		if sol != nil && simulateOpts.solution != "" {
			if err := model.SaveFile(outputPath(svc, simulateOpts.solution), sol); err != nil {
				return err
			}
		}
		return summarize(cmd.OutOrStdout(), svc, sol)
	})
}
