package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `logging:
  level: debug
  format: json
solver:
  encoding: multinode
  metaheuristic: gls
  time_limit: 45s
  seed: 9
  fleet_method:
    type: daily
    conf:
      max_stops_per_vehicle: 6
simulation:
  seed: 3
  concurrency: 4
  failed_day_penalty: 1000
metrics:
  sinks:
    - type: "nop"
cache:
  type: memory
runlog:
  type: jsonl
  conf:
    path: days.jsonl
output:
  dir: out
  format: yaml
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"logging.level", cfg.Logging.Level, "debug"},
		{"solver.encoding", cfg.Solver.Encoding, "multinode"},
		{"solver.metaheuristic", cfg.Solver.Metaheuristic, "gls"},
		{"solver.time_limit", cfg.Solver.TimeLimit, 45 * time.Second},
		{"solver.seed", cfg.Solver.Seed, int64(9)},
		{"solver.fleet_method", cfg.Solver.FleetMethod.Type, "daily"},
		{"simulation.concurrency", cfg.Simulation.Concurrency, 4},
		{"simulation.failed_day_penalty", cfg.Simulation.FailedDayPenalty, int64(1000)},
		{"metrics.sinks", len(cfg.Metrics.Sinks), 1},
		{"cache.type", cfg.Cache.Type, "memory"},
		{"runlog.type", cfg.RunLog.Type, "jsonl"},
		{"runlog.path", cfg.RunLog.Conf["path"], "days.jsonl"},
		{"output.dir", cfg.Output.Dir, "out"},
		{"output.format", cfg.Output.Format, "yaml"},
		{"batch.seed", cfg.Batch.Seed, int64(42)},
	}
	for _, c := range checks {
		assert.Equal(t, c.want, c.got, c.name)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "vrp", cfg.Solver.FleetMethod.Type)
	assert.Equal(t, "intervals", cfg.Solver.Encoding)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.Equal(t, "none", cfg.Cache.Type)
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"solver": {"metaheuristic": "sa"}}`), 0o644))
	t.Setenv("K_SOLVER__METAHEURISTIC", "ts")
	t.Setenv("K_OUTPUT__DIR", "elsewhere")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ts", cfg.Solver.Metaheuristic)
	assert.Equal(t, "elsewhere", cfg.Output.Dir)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output:\n  dir: out\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("K_OUTPUT__FORMAT=json\n"), 0o644))
	t.Cleanup(func() { _ = os.Unsetenv("K_OUTPUT__FORMAT") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, "out", cfg.Output.Dir)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := map[string]struct {
		file, data string
	}{
		"format":        {"config.toml", "x = 1"},
		"metaheuristic": {"config.yaml", "solver:\n  metaheuristic: ants\n"},
		"fleet method":  {"config.yaml", "solver:\n  fleet_method:\n    type: magic\n"},
		"summary":       {"config.yaml", "output:\n  format: xml\n"},
		"cache":         {"config.yaml", "cache:\n  type: redis\n"},
		"concurrency":   {"config.yaml", "simulation:\n  concurrency: -1\n"},
		"metrics sink":  {"config.yaml", "metrics:\n  sinks:\n    - conf: {}\n"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			require.NoError(t, os.WriteFile(path, []byte(tt.data), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}
