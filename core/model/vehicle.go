package model

import (
	"fmt"
	"strings"
)

// RentalType distinguishes contracted vehicles from single-day spot rentals.
type RentalType string

const (
	Contract RentalType = "contract"
	Spot     RentalType = "spot"
)

// String implements fmt.Stringer.
func (r RentalType) String() string { return string(r) }

// ParseRentalType converts a user supplied string into a RentalType.
func ParseRentalType(s string) (RentalType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "contract":
		return Contract, nil
	case "spot":
		return Spot, nil
	default:
		return "", fmt.Errorf("unknown rental type %q", s)
	}
}

// VehicleInstance is one concrete vehicle available in [StartDay, EndDay].
type VehicleInstance struct {
	RentalType      RentalType `json:"rental_type" yaml:"rental_type"`
	Name            string     `json:"name" yaml:"name"`
	Capacity        int64      `json:"capacity" yaml:"capacity"`
	MonthUsageCost  int64      `json:"month_usage_cost" yaml:"month_usage_cost"`
	DayUsageCost    int64      `json:"day_usage_cost" yaml:"day_usage_cost"`
	CostPerKm       int64      `json:"cost_per_km" yaml:"cost_per_km"`
	SourceDepotName string     `json:"source_depot_name" yaml:"source_depot_name"`
	StartDay        int        `json:"start_day" yaml:"start_day"`
	EndDay          int        `json:"end_day" yaml:"end_day"`
}

// ActiveDays returns the number of days the vehicle is available.
func (v VehicleInstance) ActiveDays() int { return v.EndDay - v.StartDay + 1 }

// IsActiveOn reports whether the vehicle may work on day d.
func (v VehicleInstance) IsActiveOn(d int) bool { return d >= v.StartDay && d <= v.EndDay }

// IndexedVehicle is a vehicle instance with its position in the vehicle pool.
type IndexedVehicle struct {
	VehicleInstance `yaml:",inline"`
	Index           int `json:"index" yaml:"index"`
}
