package config

import (
	"fmt"
	"net"
	"slices"

	"github.com/kilianp07/fleetsizer/core/factory"
	"github.com/kilianp07/fleetsizer/core/solver"
	"github.com/kilianp07/fleetsizer/pkg/export"
)

// SolverConfig extends the routing settings with the fleet prediction method.
type SolverConfig struct {
	solver.Config `json:",squash"`
	// FleetMethod selects and configures the fleet solver used by fs-predict.
	FleetMethod factory.ModuleConfig `json:"fleet_method"`
}

// SetDefaults defaults the search and picks the vrp fleet method.
func (c *SolverConfig) SetDefaults() {
	c.Config.SetDefaults()
	if c.FleetMethod.Type == "" {
		c.FleetMethod.Type = solver.VrpMethod
	}
}

// Validate checks the search settings and the fleet method name.
func (c SolverConfig) Validate() error {
	if err := c.Config.Validate(); err != nil {
		return err
	}
	if !slices.Contains(solver.FleetMethods(), c.FleetMethod.Type) {
		return fmt.Errorf("unknown fleet method %q", c.FleetMethod.Type)
	}
	return nil
}

// OutputConfig controls where commands write artifacts and how they summarise.
type OutputConfig struct {
	Dir    string `json:"dir"`
	Format string `json:"format"`
}

// SetDefaults writes text summaries under results.
func (c *OutputConfig) SetDefaults() {
	if c.Dir == "" {
		c.Dir = "results"
	}
	if c.Format == "" {
		c.Format = export.FormatText
	}
}

// Validate checks the summary format.
func (c OutputConfig) Validate() error {
	switch c.Format {
	case export.FormatText, export.FormatJSON, export.FormatYAML:
		return nil
	default:
		return fmt.Errorf("unknown summary format %q", c.Format)
	}
}

// APIConfig configures the HTTP server of the serve command.
type APIConfig struct {
	ListenAddr string `json:"listen_addr"`
	// Token, when set, must be presented as a bearer token.
	Token string `json:"token"`
}

// SetDefaults listens on :8080.
func (c *APIConfig) SetDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
}

// Validate checks the listen address.
func (c APIConfig) Validate() error {
	if _, _, err := net.SplitHostPort(c.ListenAddr); err != nil {
		return fmt.Errorf("listen address: %w", err)
	}
	return nil
}
