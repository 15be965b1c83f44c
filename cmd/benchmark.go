package cmd

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fleetsizer/app"
	"github.com/kilianp07/fleetsizer/config"
	"github.com/kilianp07/fleetsizer/core/benchmark"
	"github.com/kilianp07/fleetsizer/core/model"
	"github.com/kilianp07/fleetsizer/core/solver"
	"github.com/kilianp07/fleetsizer/internal/routing"
	"github.com/kilianp07/fleetsizer/pkg/export"
)

var createDaysOpts struct {
	benchmark string
	saveTo    string
	seed      int64
}

var createDaysCmd = &cobra.Command{
	Use:   "create-characteristic-days",
	Short: "Create a characteristic days model from a Solomon benchmark",
	RunE:  runCreateDays,
}

var batchOpts struct {
	benchmarks string
	results    string
	methods    []string
	suites     []string
	evaluate   bool
}

var batchCmd = &cobra.Command{
	Use:     "batch",
	Aliases: []string{"reproduce"},
	Short:   "Predict fleets for the day order, complexity, amount and occurrence experiments",
	RunE:    runBatch,
}

var mhOpts struct {
	benchmark string
	solutions string
	mhs       []string
}

var mhCmd = &cobra.Command{
	Use:   "mh-test",
	Short: "Compare the routing metaheuristics on one easy day of a Solomon benchmark",
	RunE:  runMhTest,
}

func init() {
	f := createDaysCmd.Flags()
	f.StringVarP(&createDaysOpts.benchmark, "benchmark-path", "b", "", "Solomon benchmark file")
	f.StringVarP(&createDaysOpts.saveTo, "save-to", "s", "characteristic_days_model.json", "where the problem model is saved")
	f.Int64Var(&createDaysOpts.seed, "seed", benchmark.DefaultSeed, "random seed")
	_ = createDaysCmd.MarkFlagRequired("benchmark-path")

	f = batchCmd.Flags()
	f.StringVarP(&batchOpts.benchmarks, "benchmarks-path", "p", "", "directory holding the c51 and c101 instances (default from config)")
	f.StringVarP(&batchOpts.results, "solution-path", "s", "", "results directory (default from config)")
	f.StringSliceVarP(&batchOpts.methods, "methods", "m", []string{solver.LinearMethod, solver.DailyMethod, solver.VrpMethod}, "fleet prediction methods")
	f.StringSliceVar(&batchOpts.suites, "suite", nil, "suites to run (default all)")
	f.BoolVar(&batchOpts.evaluate, "evaluate", false, "simulate every predicted fleet")

	f = mhCmd.Flags()
	f.StringVarP(&mhOpts.benchmark, "benchmark-path", "p", "", "Solomon benchmark file")
	f.StringVarP(&mhOpts.solutions, "solution-path", "s", "", "directory where solutions are saved")
	f.StringSliceVar(&mhOpts.mhs, "metaheuristics", nil, "metaheuristics to compare (default all)")
	_ = mhCmd.MarkFlagRequired("benchmark-path")
	_ = mhCmd.MarkFlagRequired("solution-path")

	rootCmd.AddCommand(createDaysCmd, batchCmd, mhCmd)
}

func runCreateDays(cmd *cobra.Command, _ []string) error {
	inst, err := benchmark.LoadSolomon(createDaysOpts.benchmark)
	if err != nil {
		return err
	}
	p, err := benchmark.NewGenerator().Generate(inst, benchmark.DefaultDays(), rand.New(rand.NewSource(createDaysOpts.seed)))
	if err != nil {
		return err
	}
	if err := model.SaveFile(createDaysOpts.saveTo, p); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d characteristic days over %d days, %d visits saved to %s\n",
		p.CharacteristicDayCount(), p.DaysInMonth(), p.VisitCount(), createDaysOpts.saveTo)
	return err
}

func runBatch(cmd *cobra.Command, _ []string) error {
	configure := func(cfg *config.Config) error {
		if batchOpts.benchmarks != "" {
			cfg.Batch.BenchmarkDir = batchOpts.benchmarks
		}
		if batchOpts.results != "" {
			cfg.Batch.ResultsDir = batchOpts.results
		}
		return nil
	}
	return withService(cmd, configure, func(ctx context.Context, svc *app.Service) error {
		suites := benchmark.DefaultSuites()
		if len(batchOpts.suites) > 0 {
			suites = suites[:0]
			for _, name := range batchOpts.suites {
				s, err := benchmark.SuiteByName(name)
				if err != nil {
					return err
				}
				suites = append(suites, s)
			}
		}
		methods := make([]solver.FleetSolver, 0, len(batchOpts.methods))
		for _, m := range batchOpts.methods {
			fs, err := svc.FleetSolver(m)
			if err != nil {
				return err
			}
			methods = append(methods, fs)
		}
		opts := []benchmark.BatchOption{
			benchmark.WithBatchLogger(svc.Logger("batch")),
			benchmark.WithBatchBus(svc.Bus),
		}
		if batchOpts.evaluate {
			opts = append(opts, benchmark.WithEvaluation(svc.Evaluate))
		}
		runner, err := benchmark.NewRunner(svc.Config.Batch, methods, opts...)
		if err != nil {
			return err
		}
		results, err := runner.Run(ctx, suites...)
		if err != nil {
			return err
		}
		if err := model.SaveFile(filepath.Join(svc.Config.Batch.ResultsDir, "batch_results.json"), results); err != nil {
			return err
		}
		stats := benchmark.Summarize(results)
		if svc.Config.Output.Format != export.FormatText {
			return summarize(cmd.OutOrStdout(), svc, stats)
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "METHOD\tRUNS\tFEASIBLE\tMEAN COST\tSTDDEV\tMEAN VEHICLES")
		for _, s := range stats {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%.1f\t%.1f\t%.1f\n", s.Method, s.Runs, s.Feasible, s.MeanCost, s.StdDevCost, s.MeanVehicles)
		}
		return tw.Flush()
	})
}

func runMhTest(cmd *cobra.Command, _ []string) error {
	return withService(cmd, nil, func(ctx context.Context, svc *app.Service) error {
		inst, err := benchmark.LoadSolomon(mhOpts.benchmark)
		if err != nil {
			return err
		}
		p, err := benchmark.NewGenerator().Generate(inst, benchmark.ComparisonDays(), rand.New(rand.NewSource(benchmark.DefaultSeed)))
		if err != nil {
			return err
		}
		if err := model.SaveFile(filepath.Join(mhOpts.solutions, "problem_model.json"), p); err != nil {
			return err
		}
		var mhs []routing.Metaheuristic
		for _, name := range mhOpts.mhs {
			mh, err := routing.ParseMetaheuristic(name)
			if err != nil {
				return err
			}
			mhs = append(mhs, mh)
		}
		prefix := "vrp_solver_" + strings.ToLower(svc.Config.Solver.Encoding)
		results, err := benchmark.CompareMetaheuristics(ctx, svc.Vrp.WithRunID(newRunID()), p, mhs, mhOpts.solutions, prefix)
		if err != nil {
			return err
		}
		if err := model.SaveFile(filepath.Join(mhOpts.solutions, "comparison.json"), results); err != nil {
			return err
		}
		if svc.Config.Output.Format != export.FormatText {
			return summarize(cmd.OutOrStdout(), svc, results)
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "MH\tFEASIBLE\tINITIAL\tOBJECTIVE\tVEHICLES\tDROPPED\tITERATIONS\tELAPSED MS")
		for _, r := range results {
			fmt.Fprintf(tw, "%s\t%t\t%d\t%d\t%d\t%d\t%d\t%d\n",
				r.Metaheuristic, r.Feasible, r.InitialObjective, r.Objective, r.UsedVehicles, r.Dropped, r.Iterations, r.ElapsedMS)
		}
		return tw.Flush()
	})
}
