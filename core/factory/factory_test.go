package factory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	A     int
	Limit time.Duration
}

type sampleConf struct {
	A     int           `json:"a"`
	Limit time.Duration `json:"limit"`
}

func sampleFactory(conf map[string]any) (*sample, error) {
	var c sampleConf
	if err := Decode(conf, &c); err != nil {
		return nil, err
	}
	return &sample{A: c.A, Limit: c.Limit}, nil
}

func TestRegistryCreate(t *testing.T) {
	reg := NewRegistry[*sample]()
	require.NoError(t, reg.Register("s", sampleFactory))

	tests := []struct {
		name string
		conf map[string]any
		want sample
	}{
		{"int", map[string]any{"a": 3}, sample{A: 3}},
		{"weak int", map[string]any{"a": "4"}, sample{A: 4}},
		{"duration string", map[string]any{"limit": "90s"}, sample{Limit: 90 * time.Second}},
		{"empty", nil, sample{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst, err := reg.Create(ModuleConfig{Type: "s", Conf: tt.conf})
			require.NoError(t, err)
			assert.Equal(t, tt.want, *inst)
		})
	}
}

func TestRegistryErrors(t *testing.T) {
	reg := NewRegistry[int]()
	require.NoError(t, reg.Register("x", func(map[string]any) (int, error) { return 1, nil }))
	assert.Error(t, reg.Register("x", func(map[string]any) (int, error) { return 2, nil }))
	assert.Error(t, reg.Register("y", nil))

	_, err := reg.Create(ModuleConfig{Type: "z"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "x")
}

func TestRegistryNames(t *testing.T) {
	reg := NewRegistry[int]()
	for _, n := range []string{"vrp", "daily", "linear"} {
		require.NoError(t, reg.Register(n, func(map[string]any) (int, error) { return 0, nil }))
	}
	assert.Equal(t, []string{"daily", "linear", "vrp"}, reg.Names())
}
