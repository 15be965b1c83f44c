package runlog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleetsizer/core/factory"
	"github.com/kilianp07/fleetsizer/core/simulation"
)

var base = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

func records() []Record {
	return []Record{
		{Timestamp: base, RunID: "a", Day: simulation.DayResult{CharacteristicDay: 0, DayType: simulation.Easy, Visits: 2, Solved: true, Cost: 100}},
		{Timestamp: base.Add(time.Hour), RunID: "a", Day: simulation.DayResult{CharacteristicDay: 1, DayType: simulation.Hard, Visits: 8}},
		{Timestamp: base.Add(2 * time.Hour), RunID: "b", Day: simulation.DayResult{CharacteristicDay: 1, DayType: simulation.Hard, Visits: 7, Solved: true, Cost: 300}},
	}
}

func TestStoresQuery(t *testing.T) {
	stores := map[string]func(path string) (Store, error){
		"jsonl": func(path string) (Store, error) { return NewJSONLStore(path) },
		"rotating": func(path string) (Store, error) {
			return NewRotatingJSONLStore(path, 1, 2, 1)
		},
	}
	tests := []struct {
		name string
		q    Query
		want []int
	}{
		{"all", Query{}, []int{0, 1, 2}},
		{"run", Query{RunID: "a"}, []int{0, 1}},
		{"day type", Query{DayType: "hard"}, []int{1, 2}},
		{"failed", Query{FailedOnly: true}, []int{1}},
		{"window", Query{Start: base.Add(30 * time.Minute), End: base.Add(90 * time.Minute)}, []int{1}},
	}
	for name, open := range stores {
		t.Run(name, func(t *testing.T) {
			store, err := open(filepath.Join(t.TempDir(), "runs", "days.jsonl"))
			require.NoError(t, err)
			defer func() { _ = store.Close() }()
			all := records()
			for _, r := range all {
				require.NoError(t, store.Append(context.Background(), r))
			}
			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					got, err := store.Query(context.Background(), tt.q)
					require.NoError(t, err)
					var want []Record
					for _, i := range tt.want {
						want = append(want, all[i])
					}
					if diff := cmp.Diff(want, got); diff != "" {
						t.Errorf("query mismatch (-want +got):\n%s", diff)
					}
				})
			}
		})
	}
}

func TestRotatingStoreRotates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "days.jsonl")
	store, err := NewRotatingJSONLStore(path, 1, 3, 1)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	rec := records()[0]
	rec.RunID = string(make([]byte, 4096))
	for i := 0; i < 400; i++ {
		require.NoError(t, store.Append(context.Background(), rec))
	}
	files, err := filepath.Glob(filepath.Join(filepath.Dir(path), "days*.jsonl"))
	require.NoError(t, err)
	assert.Greater(t, len(files), 1)
}

func TestObserverAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "days.jsonl")
	store, err := NewJSONLStore(path)
	require.NoError(t, err)
	obs := Observer{Store: store, Now: func() time.Time { return base }}

	var o simulation.DayObserver = obs
	require.NoError(t, o.ObserveDay("run-1", simulation.DayResult{DayType: simulation.Normal, Visits: 4, Solved: true}))

	got, err := store.Query(context.Background(), Query{RunID: "run-1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, simulation.Normal, got[0].Day.DayType)
	assert.Equal(t, base, got[0].Timestamp)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"day_type":"normal"`)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(factory.ModuleConfig{})
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = Open(factory.ModuleConfig{Type: "jsonl", Conf: map[string]any{"path": filepath.Join(dir, "a.jsonl")}})
	require.NoError(t, err)
	assert.IsType(t, &JSONLStore{}, s)

	s, err = Open(factory.ModuleConfig{Type: "rotating", Conf: map[string]any{"path": filepath.Join(dir, "b.jsonl"), "max_size_mb": "2"}})
	require.NoError(t, err)
	require.IsType(t, &RotatingJSONLStore{}, s)
	assert.Equal(t, 2, s.(*RotatingJSONLStore).logger.MaxSize)
	require.NoError(t, s.Close())

	_, err = Open(factory.ModuleConfig{Type: "jsonl"})
	assert.Error(t, err)
	_, err = Open(factory.ModuleConfig{Type: "sqlite"})
	assert.Error(t, err)
}
