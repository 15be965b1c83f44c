package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleetsizer/core/factory"
	"github.com/kilianp07/fleetsizer/core/runlog"
	"github.com/kilianp07/fleetsizer/core/simulation"
)

func TestBuildQuery(t *testing.T) {
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		q         runlog.Query
		wantWhere string
		wantArgs  []any
	}{
		{"all", runlog.Query{}, "", nil},
		{"run and type", runlog.Query{RunID: "r", DayType: "hard"}, " WHERE run_id = $1 AND day_type = $2", []any{"r", "hard"}},
		{"window failed", runlog.Query{Start: at, End: at, FailedOnly: true},
			" WHERE recorded_at >= $1 AND recorded_at <= $2 AND NOT solved", []any{at, at}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, args := buildQuery(tt.q)
			assert.Equal(t, "SELECT "+columns+" FROM simulated_days"+tt.wantWhere+" ORDER BY recorded_at, characteristic_day, occurrence", q)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestRegisteredWithoutDSN(t *testing.T) {
	_, err := runlog.Open(factory.ModuleConfig{Type: "postgres"})
	assert.Error(t, err)
}

func TestStoreIntegration(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
	}
	ctx := context.Background()
	s, err := Open(ctx, dsn)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	run := uuid.NewString()
	at := time.Now().UTC().Truncate(time.Microsecond)
	rec := runlog.Record{Timestamp: at, RunID: run, Day: simulation.DayResult{
		CharacteristicDay: 2, Occurrence: 1, DayType: simulation.Hard, Visits: 8, Cost: 0,
	}}
	require.NoError(t, s.Append(ctx, rec))

	got, err := s.Query(ctx, runlog.Query{RunID: run, FailedOnly: true})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, simulation.Hard, got[0].Day.DayType)
	assert.True(t, at.Equal(got[0].Timestamp))
}
