package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleetsizer/core/model"
	"github.com/kilianp07/fleetsizer/core/simulation"
)

func fleet() model.FleetStructure {
	return model.FleetStructure{
		FleetPositions: []model.FleetPosition{
			{VehicleInstance: model.VehicleInstance{RentalType: model.Contract, Name: "van", Capacity: 100,
				MonthUsageCost: 2500, DayUsageCost: 100, CostPerKm: 1, SourceDepotName: "north", StartDay: 0, EndDay: 2}, Count: 2},
			{VehicleInstance: model.VehicleInstance{RentalType: model.Spot, Name: "van", Capacity: 100,
				MonthUsageCost: 750, DayUsageCost: 150, CostPerKm: 1, SourceDepotName: "north", StartDay: 1, EndDay: 1}, Count: 1},
		},
		EstimatedCost: 5750,
	}
}

func TestWriteFleetCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFleetCSV(&buf, fleet()))
	want := "name,rental_type,source_depot_name,start_day,end_day,capacity,month_usage_cost,day_usage_cost,cost_per_km,count\n" +
		"van,contract,north,0,2,100,2500,100,1,2\n" +
		"van,spot,north,1,1,100,750,150,1,1\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteDaysCSV(t *testing.T) {
	var buf bytes.Buffer
	days := []simulation.DayResult{{CharacteristicDay: 1, Occurrence: 2, DayType: simulation.Hard, Visits: 8, Solved: true, UsedVehicles: 3, Cost: 450, ElapsedMS: 12}}
	require.NoError(t, WriteDaysCSV(&buf, days))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "1,2,hard,8,true,0,3,450,12", lines[1])
}

func TestTextSummaries(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, FormatText, fleet()))
	out := buf.String()
	assert.Contains(t, out, "0-2")
	assert.Regexp(t, `total\s+3\s+5750`, out)

	buf.Reset()
	sol := &model.VrpSolution{
		ObjectiveValue: 120,
		UsedVehicles:   []model.IndexedVehicle{{VehicleInstance: fleet().FleetPositions[0].VehicleInstance}},
		Routes: []model.Route{{
			Vehicle: model.IndexedVehicle{VehicleInstance: fleet().FleetPositions[0].VehicleInstance},
			Stops:   []model.Stop{{PointName: "north", IsDepot: true}, {PointName: "c1", Time: 30}, {PointName: "north", Time: 60, IsDepot: true}},
		}},
	}
	require.NoError(t, WriteSummary(&buf, "", sol))
	assert.Contains(t, buf.String(), "objective 120, 1 vehicles used")
	assert.Contains(t, buf.String(), "north@0 c1@30 north@60")

	buf.Reset()
	require.NoError(t, WriteSolutionSummary(&buf, nil))
	assert.Equal(t, "no feasible solution\n", buf.String())

	buf.Reset()
	res := simulation.EvaluationResult{PredictedCost: 500, RealCost: 200, CostOverestimate: 300,
		Days: []simulation.DayResult{{DayType: simulation.Easy, Visits: 1}}}
	require.NoError(t, WriteSummary(&buf, FormatText, &res))
	assert.Contains(t, buf.String(), "overestimate 300")
	assert.Contains(t, buf.String(), "failed")
}

func TestWriteSummaryEncodedFormats(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, FormatJSON, fleet()))
	var got model.FleetStructure
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, fleet(), got)

	buf.Reset()
	require.NoError(t, WriteSummary(&buf, FormatYAML, fleet()))
	assert.Contains(t, buf.String(), "estimated_cost: 5750")

	assert.Error(t, WriteSummary(&buf, "xml", fleet()))
	assert.Error(t, WriteSummary(&buf, FormatText, 42))
}
