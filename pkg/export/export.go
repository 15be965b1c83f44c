// Package export renders fleets, routing solutions and evaluations for people
// and spreadsheets.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/kilianp07/fleetsizer/core/model"
	"github.com/kilianp07/fleetsizer/core/simulation"
)

// Summary formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// WriteSummary writes v as text, json or yaml. Text is supported for
// FleetStructure, VrpSolution and EvaluationResult.
func WriteSummary(w io.Writer, format string, v any) error {
	switch strings.ToLower(format) {
	case "", FormatText:
	case FormatJSON, FormatYAML, "yml":
		return model.Encode(w, format, v)
	default:
		return fmt.Errorf("unsupported summary format: %s", format)
	}
	switch x := v.(type) {
	case model.FleetStructure:
		return WriteFleetSummary(w, x)
	case *model.FleetStructure:
		return WriteFleetSummary(w, *x)
	case model.VrpSolution:
		return WriteSolutionSummary(w, &x)
	case *model.VrpSolution:
		return WriteSolutionSummary(w, x)
	case simulation.EvaluationResult:
		return WriteEvaluationSummary(w, x)
	case *simulation.EvaluationResult:
		return WriteEvaluationSummary(w, *x)
	default:
		return fmt.Errorf("no text summary for %T", v)
	}
}

// WriteFleetSummary prints one line per fleet position.
func WriteFleetSummary(w io.Writer, fs model.FleetStructure) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VEHICLE\tRENTAL\tDEPOT\tDAYS\tCOUNT\tMONTH COST")
	for _, p := range fs.FleetPositions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\n",
			p.Name, p.RentalType, p.SourceDepotName, dayRange(p.VehicleInstance), p.Count, p.MonthUsageCost*int64(p.Count))
	}
	fmt.Fprintf(tw, "total\t\t\t\t%d\t%d\n", fs.VehicleCount(), fs.EstimatedCost)
	return tw.Flush()
}

func dayRange(v model.VehicleInstance) string {
	if v.StartDay == v.EndDay {
		return strconv.Itoa(v.StartDay)
	}
	return fmt.Sprintf("%d-%d", v.StartDay, v.EndDay)
}

// WriteSolutionSummary prints the objective and the stops of every route.
// A nil solution is reported as infeasible.
func WriteSolutionSummary(w io.Writer, sol *model.VrpSolution) error {
	if sol == nil {
		_, err := fmt.Fprintln(w, "no feasible solution")
		return err
	}
	fmt.Fprintf(w, "objective %d, %d vehicles used, %d unused, %d visits dropped\n",
		sol.ObjectiveValue, len(sol.UsedVehicles), len(sol.UnusedVehicles), sol.NotVisitedClientsCount)
	for _, r := range sol.Routes {
		v := r.Vehicle
		fmt.Fprintf(w, "vehicle %d %s (%s, %s, days %s):", v.Index, v.Name, v.RentalType, v.SourceDepotName, dayRange(v.VehicleInstance))
		for _, s := range r.Stops {
			fmt.Fprintf(w, " %s@%d", s.PointName, s.Time)
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

// WriteEvaluationSummary prints the cost comparison and per-day outcomes.
func WriteEvaluationSummary(w io.Writer, res simulation.EvaluationResult) error {
	fmt.Fprintf(w, "predicted cost %d, real cost %d, overestimate %d\n",
		res.PredictedCost, res.RealCost, res.CostOverestimate)
	fmt.Fprintf(w, "day cost mean %.1f, stddev %.1f, p90 %.1f; %d failed days, %d dropped visits\n",
		res.MeanDayCost, res.StdDevDayCost, res.P90DayCost, res.FailedDays, res.DroppedVisits)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DAY\tOCC\tTYPE\tVISITS\tVEHICLES\tDROPPED\tCOST\tSTATUS")
	for _, d := range res.Days {
		status := "ok"
		if !d.Solved {
			status = "failed"
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%d\t%d\t%d\t%d\t%s\n",
			d.CharacteristicDay, d.Occurrence, d.DayType, d.Visits, d.UsedVehicles, d.NotVisitedClientsCount, d.Cost, status)
	}
	return tw.Flush()
}

// WriteFleetCSV writes one row per fleet position.
func WriteFleetCSV(w io.Writer, fs model.FleetStructure) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"name", "rental_type", "source_depot_name", "start_day", "end_day",
		"capacity", "month_usage_cost", "day_usage_cost", "cost_per_km", "count"}); err != nil {
		return err
	}
	for _, p := range fs.FleetPositions {
		rec := []string{
			p.Name,
			p.RentalType.String(),
			p.SourceDepotName,
			strconv.Itoa(p.StartDay),
			strconv.Itoa(p.EndDay),
			strconv.FormatInt(p.Capacity, 10),
			strconv.FormatInt(p.MonthUsageCost, 10),
			strconv.FormatInt(p.DayUsageCost, 10),
			strconv.FormatInt(p.CostPerKm, 10),
			strconv.Itoa(p.Count),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteDaysCSV writes one row per simulated day.
func WriteDaysCSV(w io.Writer, days []simulation.DayResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"characteristic_day", "occurrence", "day_type", "visits",
		"solved", "not_visited_clients_count", "used_vehicles", "cost", "elapsed_ms"}); err != nil {
		return err
	}
	for _, d := range days {
		rec := []string{
			strconv.Itoa(d.CharacteristicDay),
			strconv.Itoa(d.Occurrence),
			d.DayType.String(),
			strconv.Itoa(d.Visits),
			strconv.FormatBool(d.Solved),
			strconv.Itoa(d.NotVisitedClientsCount),
			strconv.Itoa(d.UsedVehicles),
			strconv.FormatInt(d.Cost, 10),
			strconv.FormatInt(d.ElapsedMS, 10),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
