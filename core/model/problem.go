package model

import (
	"errors"
	"fmt"
	"math"
)

// Domain constants shared by every encoding. Times are expressed in minutes.
const (
	MaxWorkDuration    = 480
	MinBreakDuration   = 480
	DayDuration        = 1440
	SpotVehiclesPerDay = 5
	DropVisitPenalty   = 1_000_000
)

var (
	// ErrUnknownVehicleType is returned when a depot references a missing catalog entry.
	ErrUnknownVehicleType = errors.New("unknown vehicle type")
	// ErrUnknownPoint is returned when a visit references a point that is neither a client nor a depot.
	ErrUnknownPoint = errors.New("unknown point")
)

// Point is a named location on the Euclidean plane.
type Point struct {
	Name string  `json:"name" yaml:"name"`
	X    float64 `json:"x" yaml:"x"`
	Y    float64 `json:"y" yaml:"y"`
}

// DistanceTo returns the truncated Euclidean distance between two points.
func (p Point) DistanceTo(o Point) int64 {
	return int64(math.Hypot(p.X-o.X, p.Y-o.Y))
}

// Depot is a point hosting vehicles, keyed by vehicle type name.
type Depot struct {
	Point    `yaml:",inline"`
	Vehicles map[string]int `json:"vehicles" yaml:"vehicles"`
}

// Client is a delivery location.
type Client struct {
	Point `yaml:",inline"`
}

// VehicleType is an immutable catalog entry.
type VehicleType struct {
	Name                  string `json:"name" yaml:"name"`
	Capacity              int64  `json:"capacity" yaml:"capacity"`
	CostPerKm             int64  `json:"cost_per_km" yaml:"cost_per_km"`
	CostAsContractVehicle int64  `json:"cost_as_contract_vehicle" yaml:"cost_as_contract_vehicle"`
	CostAsSpotVehicle     int64  `json:"cost_as_spot_vehicle" yaml:"cost_as_spot_vehicle"`
}

// Visit is one client stop inside a characteristic day. Times are minutes from the start of the day.
type Visit struct {
	PointName   string `json:"point_name" yaml:"point_name"`
	Demand      int64  `json:"demand" yaml:"demand"`
	FromTime    int64  `json:"from_time" yaml:"from_time"`
	ToTime      int64  `json:"to_time" yaml:"to_time"`
	ServiceTime int64  `json:"service_time" yaml:"service_time"`
}

// VisitWithDay is a visit placed on the linear multi-day timeline.
type VisitWithDay struct {
	Visit
	Day int
}

// NewVisitWithDay shifts the visit window by the start of its day.
func NewVisitWithDay(v Visit, day int) VisitWithDay {
	offset := int64(day) * DayDuration
	v.FromTime += offset
	v.ToTime += offset
	return VisitWithDay{Visit: v, Day: day}
}

// Day is a characteristic day: a demand profile repeated Occurrences times in the horizon.
type Day struct {
	Occurrences int     `json:"occurrences" yaml:"occurrences"`
	Visits      []Visit `json:"visits" yaml:"visits"`
}

// ProblemModel is the top-level planning input.
type ProblemModel struct {
	Budget       int64         `json:"budget" yaml:"budget"`
	MaxDistance  int64         `json:"max_distance" yaml:"max_distance"`
	Depots       []Depot       `json:"depots" yaml:"depots"`
	Clients      []Client      `json:"clients" yaml:"clients"`
	Days         []Day         `json:"days" yaml:"days"`
	VehicleTypes []VehicleType `json:"vehicle_types" yaml:"vehicle_types"`
}

// DaysInMonth is the number of calendar days covered by the characteristic days.
func (p ProblemModel) DaysInMonth() int {
	n := 0
	for _, d := range p.Days {
		n += d.Occurrences
	}
	return n
}

// CharacteristicDayCount returns the number of characteristic days.
func (p ProblemModel) CharacteristicDayCount() int { return len(p.Days) }

// LastDay is the index of the last characteristic day.
func (p ProblemModel) LastDay() int { return len(p.Days) - 1 }

// VisitCount returns the number of visits across all days.
func (p ProblemModel) VisitCount() int {
	n := 0
	for _, d := range p.Days {
		n += len(d.Visits)
	}
	return n
}

// MaxVisitsPerDay returns the largest visit count of a single characteristic day.
func (p ProblemModel) MaxVisitsPerDay() int {
	m := 0
	for _, d := range p.Days {
		if len(d.Visits) > m {
			m = len(d.Visits)
		}
	}
	return m
}

// VehicleType looks up a catalog entry by name.
func (p ProblemModel) VehicleType(name string) (VehicleType, error) {
	for _, t := range p.VehicleTypes {
		if t.Name == name {
			return t, nil
		}
	}
	return VehicleType{}, fmt.Errorf("%w: %s", ErrUnknownVehicleType, name)
}

// Point resolves a client or depot by name.
func (p ProblemModel) Point(name string) (Point, error) {
	for _, c := range p.Clients {
		if c.Name == name {
			return c.Point, nil
		}
	}
	for _, d := range p.Depots {
		if d.Name == name {
			return d.Point, nil
		}
	}
	return Point{}, fmt.Errorf("%w: %s", ErrUnknownPoint, name)
}

// Validate checks cross references between days, clients, depots and the vehicle catalog.
func (p ProblemModel) Validate() error {
	if len(p.Days) == 0 {
		return errors.New("problem has no characteristic days")
	}
	if len(p.Depots) == 0 {
		return errors.New("problem has no depots")
	}
	for _, d := range p.Depots {
		for name := range d.Vehicles {
			if _, err := p.VehicleType(name); err != nil {
				return fmt.Errorf("depot %s: %w", d.Name, err)
			}
		}
	}
	for i, d := range p.Days {
		if d.Occurrences < 0 {
			return fmt.Errorf("day %d: negative occurrences", i)
		}
		for _, v := range d.Visits {
			if _, err := p.Point(v.PointName); err != nil {
				return fmt.Errorf("day %d: %w", i, err)
			}
			if v.FromTime > v.ToTime {
				return fmt.Errorf("day %d: visit %s has an empty time window", i, v.PointName)
			}
		}
	}
	return nil
}

// FlattenVisits lists every (day, visit) pair in day order with times shifted onto the linear timeline.
func (p ProblemModel) FlattenVisits() []VisitWithDay {
	out := make([]VisitWithDay, 0, p.VisitCount())
	for day, d := range p.Days {
		for _, v := range d.Visits {
			out = append(out, NewVisitWithDay(v, day))
		}
	}
	return out
}
