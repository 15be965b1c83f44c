package solver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/kilianp07/fleetsizer/core/model"
)

// SolutionCache memoizes routing solutions. Searches are seeded, so a problem
// solved again with the same config and vehicle pool yields the same
// solution unless the time limit cut the search short.
type SolutionCache interface {
	Get(ctx context.Context, key string) (*model.VrpSolution, bool, error)
	Put(ctx context.Context, key string, sol *model.VrpSolution) error
}

// SolutionKey hashes everything a search result depends on.
func SolutionKey(p model.ProblemModel, cfg Config, pool []model.IndexedVehicle) (string, error) {
	b, err := json.Marshal(struct {
		Problem  model.ProblemModel     `json:"problem"`
		Config   Config                 `json:"config"`
		Vehicles []model.IndexedVehicle `json:"vehicles"`
	}{p, cfg, pool})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
