package intervals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleetsizer/core/model"
	"github.com/kilianp07/fleetsizer/core/vehicles"
	"github.com/kilianp07/fleetsizer/internal/fixture"
)

func newEncoding(t *testing.T) *Encoding {
	t.Helper()
	p := fixture.MultiDay()
	vm, err := vehicles.New(p)
	require.NoError(t, err)
	enc, err := New(p, vm)
	require.NoError(t, err)
	return enc
}

func TestNodeSpaceLayout(t *testing.T) {
	enc := newEncoding(t)
	n := enc.Nodes()

	// 3 contract vehicles over 3 days and 15 single-day spot vehicles.
	assert.Equal(t, 14, n.VisitCount())
	assert.Equal(t, 3*4+15*2, n.DepotNodeCount())
	assert.Equal(t, 14+42, n.NodeCount())
	assert.False(t, n.IsDepot(13))
	assert.True(t, n.IsDepot(14))

	tests := []struct {
		name string
		got  int
		want int
	}{
		{"vehicle start", n.VehicleStart(0), 14},
		{"vehicle end", n.VehicleEnd(0), 17},
		{"start of day 1", n.StartDepotForDay(0, 1), 15},
		{"end of day 0 is start of day 1", n.EndDepotForDay(0, 0), 15},
		{"end of day 2", n.EndDepotForDay(0, 2), 17},
		{"spot start", n.VehicleStart(3), 26},
		{"spot end", n.VehicleEnd(3), 27},
		{"depot owner", n.DepotVehicle(16), 0},
		{"visit has no owner", n.DepotVehicle(0), -1},
		{"day outside vehicle", n.StartDepotForDay(3, 5), -1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.got, tt.name)
	}
	assert.Equal(t, "depot", n.Point(20).Name)
}

func TestVisitsAreShiftedToTheirDay(t *testing.T) {
	n := newEncoding(t).Nodes()
	v := n.Visit(2)
	assert.Equal(t, 1, v.Day)
	assert.Equal(t, int64(model.DayDuration), v.FromTime)
	assert.Equal(t, int64(model.DayDuration+600), v.ToTime)
	assert.Equal(t, "m1", n.Point(2).Name)
}

func TestMatrix(t *testing.T) {
	enc := newEncoding(t)
	m := enc.Matrix()

	assert.Equal(t, int64(14), m.Distance(14, 0))
	assert.Equal(t, int64(14), m.Time(14, 0))
	assert.Equal(t, int64(14+15), m.Time(0, 14))
	assert.Equal(t, int64(21+15), m.Time(0, 1))
	assert.Equal(t, int64(10), m.Demand(0))
	assert.Equal(t, int64(15), m.Demand(1))
	assert.Equal(t, int64(-300), m.Demand(14))

	assert.Equal(t, int64(-model.MaxWorkDuration), m.Duration(0, 15))
	assert.Equal(t, int64(-model.MaxWorkDuration), m.Duration(14, 15))
	assert.Equal(t, m.Time(0, 1), m.Duration(0, 1))
	assert.Equal(t, m.Time(14, 0), m.Duration(14, 0))
	assert.Equal(t, Name, enc.Name())
}
