package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fleetsizer/app"
	"github.com/kilianp07/fleetsizer/config"
	"github.com/kilianp07/fleetsizer/core/model"
	"github.com/kilianp07/fleetsizer/core/solver"
	"github.com/kilianp07/fleetsizer/pkg/export"
)

var predictOpts struct {
	problem  string
	solution string
	method   string
	csv      string
}

var predictCmd = &cobra.Command{
	Use:   "fs-predict",
	Short: "Predict the fleet structure of characteristic days",
	RunE:  runPredict,
}

var evaluateOpts struct {
	problem string
	fleet   string
	result  string
	daysCSV string
	seed    int64
}

var evaluateCmd = &cobra.Command{
	Use:   "fs-evaluate",
	Short: "Simulate random days with the contract part of a fleet",
	RunE:  runEvaluate,
}

func init() {
	f := predictCmd.Flags()
	f.StringVarP(&predictOpts.problem, "characteristic-days-path", "p", "", "problem model with the characteristic days")
	f.StringVarP(&predictOpts.solution, "solution-path", "s", "fleet_structure.json", "where the fleet structure is saved")
	f.StringVarP(&predictOpts.method, "method", "m", "", "prediction method, one of "+strings.Join(solver.FleetMethods(), ", ")+" (default from config)")
	f.StringVar(&predictOpts.csv, "csv", "", "also export the fleet positions as CSV")
	_ = predictCmd.MarkFlagRequired("characteristic-days-path")
	rootCmd.AddCommand(predictCmd)

	f = evaluateCmd.Flags()
	f.StringVarP(&evaluateOpts.problem, "characteristic-days-path", "p", "", "problem model the fleet was predicted for")
	f.StringVarP(&evaluateOpts.fleet, "fleet-structure", "f", "fleet_structure.json", "fleet structure to evaluate")
	f.StringVarP(&evaluateOpts.result, "result-path", "s", "", "where the evaluation is saved")
	f.StringVar(&evaluateOpts.daysCSV, "days-csv", "", "also export the simulated days as CSV")
	f.Int64Var(&evaluateOpts.seed, "seed", 0, "simulation seed (default from config)")
	_ = evaluateCmd.MarkFlagRequired("characteristic-days-path")
	rootCmd.AddCommand(evaluateCmd)
}

func runPredict(cmd *cobra.Command, _ []string) error {
	return withService(cmd, nil, func(ctx context.Context, svc *app.Service) error {
		p, err := model.LoadProblem(predictOpts.problem)
		if err != nil {
			return err
		}
		fs, err := svc.FleetSolver(predictOpts.method)
		if err != nil {
			return err
		}
		runID := newRunID()
		fleet, err := solver.PredictFleet(ctx, fs, p, runID, svc.Bus, svc.Logger("fs-predict"))
		if err != nil {
			return err
		}
		if err := model.SaveFile(outputPath(svc, predictOpts.solution), fleet); err != nil {
			return err
		}
		if predictOpts.csv != "" {
			if err := writeFile(outputPath(svc, predictOpts.csv), func(f *os.File) error { return export.WriteFleetCSV(f, fleet) }); err != nil {
				return err
			}
		}
		return summarize(cmd.OutOrStdout(), svc, fleet)
	})
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	configure := func(cfg *config.Config) error {
		if cmd.Flags().Changed("seed") {
			cfg.Simulation.Seed = evaluateOpts.seed
		}
		return nil
	}
	return withService(cmd, configure, func(ctx context.Context, svc *app.Service) error {
		p, err := model.LoadProblem(evaluateOpts.problem)
		if err != nil {
			return err
		}
		fleet, err := model.LoadFleetStructure(evaluateOpts.fleet)
		if err != nil {
			return err
		}
		res, err := svc.Evaluate(ctx, newRunID(), p, fleet)
		if err != nil {
			return err
		}
		if evaluateOpts.result != "" {
			if err := model.SaveFile(outputPath(svc, evaluateOpts.result), res); err != nil {
				return err
			}
		}
		if evaluateOpts.daysCSV != "" {
			if err := writeFile(outputPath(svc, evaluateOpts.daysCSV), func(f *os.File) error { return export.WriteDaysCSV(f, res.Days) }); err != nil {
				return err
			}
		}
		return summarize(cmd.OutOrStdout(), svc, res)
	})
}

// outputPath places relative paths under the configured output directory.
func outputPath(svc *app.Service, path string) string {
	if filepath.IsAbs(path) || svc.Config.Output.Dir == "" {
		return path
	}
	return filepath.Join(svc.Config.Output.Dir, path)
}

func writeFile(path string, write func(*os.File) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
