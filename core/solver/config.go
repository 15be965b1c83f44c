package solver

import (
	"fmt"
	"time"

	"github.com/kilianp07/fleetsizer/core/encoding/intervals"
	"github.com/kilianp07/fleetsizer/core/encoding/multinode"
	"github.com/kilianp07/fleetsizer/internal/routing"
)

// Config tunes the routing search of a VrpSolver.
type Config struct {
	Encoding       string        `json:"encoding"`
	Metaheuristic  string        `json:"metaheuristic"`
	TimeLimit      time.Duration `json:"time_limit"`
	IterationLimit int           `json:"iteration_limit"`
	Seed           int64         `json:"seed"`
	// SpotQuota overrides the number of spot vehicles offered per day when > 0.
	SpotQuota int `json:"spot_quota"`
}

// SetDefaults fills zero values.
func (c *Config) SetDefaults() {
	if c.Encoding == "" {
		c.Encoding = intervals.Name
	}
	if c.Metaheuristic == "" {
		c.Metaheuristic = routing.SimulatedAnnealing.String()
	}
	if c.TimeLimit <= 0 && c.IterationLimit <= 0 {
		c.TimeLimit = routing.DefaultTimeLimit
	}
}

// Validate checks names and limits.
func (c Config) Validate() error {
	if _, err := routing.ParseMetaheuristic(c.Metaheuristic); err != nil {
		return err
	}
	switch c.Encoding {
	case intervals.Name, multinode.Name:
	default:
		return fmt.Errorf("unknown encoding %q", c.Encoding)
	}
	if c.TimeLimit < 0 || c.IterationLimit < 0 {
		return fmt.Errorf("negative search limit")
	}
	if c.SpotQuota < 0 {
		return fmt.Errorf("negative spot quota")
	}
	return nil
}

// SearchParameters converts the config into engine parameters.
func (c Config) SearchParameters() (routing.SearchParameters, error) {
	mh, err := routing.ParseMetaheuristic(c.Metaheuristic)
	if err != nil {
		return routing.SearchParameters{}, err
	}
	params := routing.DefaultSearchParameters()
	params.Metaheuristic = mh
	params.TimeLimit = c.TimeLimit
	params.IterationLimit = c.IterationLimit
	params.Seed = c.Seed
	return params, nil
}
