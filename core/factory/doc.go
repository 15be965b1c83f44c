// Package factory provides a small generic registry used to instantiate modules
// from configuration. Modules are defined by a type string and a map of raw
// settings. Factories decode the settings into typed structs and return the
// concrete implementation.
//
// Example usage:
//
//	reg := factory.NewRegistry[FleetSolver]()
//	reg.Register("daily", func(conf map[string]any) (FleetSolver, error) {
//	    var c struct {
//	        MaxStops int `json:"max_stops_per_vehicle"`
//	    }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return newDaily(c.MaxStops), nil
//	})
//	fs, err := reg.Create(factory.ModuleConfig{Type: "daily", Conf: map[string]any{"max_stops_per_vehicle": 8}})
package factory
