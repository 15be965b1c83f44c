package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleetsizer/core/model"
	"github.com/kilianp07/fleetsizer/core/solver"
)

func solution() *model.VrpSolution {
	v := model.IndexedVehicle{VehicleInstance: model.VehicleInstance{RentalType: model.Contract, Name: "van", Capacity: 100, DayUsageCost: 100}}
	return &model.VrpSolution{
		ObjectiveValue: 140,
		UsedVehicles:   []model.IndexedVehicle{v},
		Routes: []model.Route{{Vehicle: v, Stops: []model.Stop{
			{PointName: "depot", IsDepot: true},
			{PointName: "c1", Node: 0, Time: 20, Load: 10},
		}}},
	}
}

func TestCaches(t *testing.T) {
	mr := miniredis.RunT(t)
	caches := map[string]solver.SolutionCache{
		"memory": NewMemory(),
		"redis":  NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test:", time.Hour),
	}
	for name, c := range caches {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, ok, err := c.Get(ctx, "k")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, c.Put(ctx, "k", solution()))
			got, ok, err := c.Get(ctx, "k")
			require.NoError(t, err)
			require.True(t, ok)
			if diff := cmp.Diff(solution(), got); diff != "" {
				t.Errorf("cached solution mismatch (-want +got):\n%s", diff)
			}
		})
	}
	assert.True(t, mr.Exists("test:k"))
	mr.FastForward(2 * time.Hour)
	assert.False(t, mr.Exists("test:k"))
}

func TestNew(t *testing.T) {
	mr := miniredis.RunT(t)
	tests := []struct {
		name    string
		cfg     Config
		want    any
		wantErr bool
	}{
		{"none", Config{}, nil, false},
		{"memory", Config{Type: TypeMemory}, &Memory{}, false},
		{"redis", Config{Type: TypeRedis, URL: "redis://" + mr.Addr()}, &Redis{}, false},
		{"redis without url", Config{Type: TypeRedis}, nil, true},
		{"bad url", Config{Type: TypeRedis, URL: "http://x"}, nil, true},
		{"unknown", Config{Type: "disk"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.want == nil {
				assert.Nil(t, c)
			} else {
				assert.IsType(t, tt.want, c)
			}
		})
	}
}
