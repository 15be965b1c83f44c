package benchmark

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/kilianp07/fleetsizer/core/model"
	"github.com/kilianp07/fleetsizer/core/simulation"
)

const (
	// VehiclesPerType is the number of vehicles of each type hosted by the depot.
	VehiclesPerType = 15
	// DefaultBudget bounds both the budget and the maximum route distance.
	DefaultBudget = 10_000_000
	// DefaultSeed seeds every generated problem unless overridden.
	DefaultSeed int64 = 42
)

// DayDescription asks for one characteristic day of a type repeated Occurrences times.
type DayDescription struct {
	DayType     simulation.DayType `json:"day_type" yaml:"day_type"`
	Occurrences int                `json:"occurrences" yaml:"occurrences"`
}

// String renders the description as type×occurrences.
func (d DayDescription) String() string { return fmt.Sprintf("%s×%d", d.DayType, d.Occurrences) }

// DefaultDays is the month used by create-characteristic-days.
func DefaultDays() []DayDescription {
	return []DayDescription{
		{DayType: simulation.Easy, Occurrences: 5},
		{DayType: simulation.Normal, Occurrences: 15},
		{DayType: simulation.Hard, Occurrences: 5},
	}
}

// DefaultVehicleTypes is the small/medium/large catalog offered at the depot.
func DefaultVehicleTypes() []model.VehicleType {
	return []model.VehicleType{
		{Name: "small", Capacity: 100, CostPerKm: 1, CostAsContractVehicle: 100, CostAsSpotVehicle: 150},
		{Name: "medium", Capacity: 200, CostPerKm: 2, CostAsContractVehicle: 200, CostAsSpotVehicle: 300},
		{Name: "large", Capacity: 300, CostPerKm: 3, CostAsContractVehicle: 300, CostAsSpotVehicle: 500},
	}
}

// Mutation is a visit profile applied to a randomly chosen customer.
type Mutation struct {
	FromTime    int64
	ToTime      int64
	ServiceTime int64
	Demand      int64
}

// Mutations combines the distinct window lengths, due times, positive service
// times and demands of customers. A window opens at a due time of the instance
// and is clamped to the day.
func Mutations(customers []Customer) []Mutation {
	var lengths, starts, services, demands []int64
	add := func(xs []int64, x int64) []int64 {
		for _, v := range xs {
			if v == x {
				return xs
			}
		}
		return append(xs, x)
	}
	for _, c := range customers {
		lengths = add(lengths, c.DueTime-c.ReadyTime)
		starts = add(starts, c.DueTime)
		if c.ServiceTime > 0 {
			services = add(services, c.ServiceTime)
		}
		demands = add(demands, c.Demand)
	}
	if len(services) == 0 {
		services = []int64{0}
	}

	out := make([]Mutation, 0, len(lengths)*len(starts)*len(services)*len(demands))
	for _, l := range lengths {
		for _, s := range starts {
			for _, st := range services {
				for _, d := range demands {
					from := min(s, model.DayDuration)
					to := max(from, min(s+l, model.DayDuration))
					out = append(out, Mutation{FromTime: from, ToTime: to, ServiceTime: st, Demand: d})
				}
			}
		}
	}
	return out
}

// Generator builds problem models out of a Solomon instance.
type Generator struct {
	VehicleTypes    []model.VehicleType
	VehiclesPerType int
	Budget          int64
}

// NewGenerator returns a generator with the default catalog.
func NewGenerator() *Generator {
	return &Generator{
		VehicleTypes:    DefaultVehicleTypes(),
		VehiclesPerType: VehiclesPerType,
		Budget:          DefaultBudget,
	}
}

// Generate creates one characteristic day per description. Each day visits
// DayType.VisitsCount(customers) distinct customers drawn with rng, each paired
// with a distinct random mutation.
func (g *Generator) Generate(inst Instance, days []DayDescription, rng *rand.Rand) (model.ProblemModel, error) {
	if len(days) == 0 {
		return model.ProblemModel{}, errors.New("no characteristic day requested")
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(DefaultSeed))
	}
	mutations := Mutations(inst.Customers)

	depot := model.Depot{
		Point:    model.Point{Name: depotName(inst.Depot.ID), X: inst.Depot.X, Y: inst.Depot.Y},
		Vehicles: make(map[string]int, len(g.VehicleTypes)),
	}
	for _, t := range g.VehicleTypes {
		depot.Vehicles[t.Name] = g.VehiclesPerType
	}
	p := model.ProblemModel{
		Budget:       g.Budget,
		MaxDistance:  g.Budget,
		Depots:       []model.Depot{depot},
		VehicleTypes: append([]model.VehicleType(nil), g.VehicleTypes...),
	}
	for _, c := range inst.Customers {
		p.Clients = append(p.Clients, model.Client{Point: model.Point{Name: customerName(c.ID), X: c.X, Y: c.Y}})
	}

	for _, d := range days {
		if d.Occurrences < 0 {
			return model.ProblemModel{}, fmt.Errorf("%s: negative occurrences", d.DayType)
		}
		n := min(d.DayType.VisitsCount(len(inst.Customers)), len(inst.Customers), len(mutations))
		customers := rng.Perm(len(inst.Customers))[:n]
		picked := rng.Perm(len(mutations))[:n]
		day := model.Day{Occurrences: d.Occurrences, Visits: make([]model.Visit, n)}
		for i := range n {
			c, m := inst.Customers[customers[i]], mutations[picked[i]]
			day.Visits[i] = model.Visit{
				PointName:   customerName(c.ID),
				Demand:      m.Demand,
				FromTime:    m.FromTime,
				ToTime:      m.ToTime,
				ServiceTime: m.ServiceTime,
			}
		}
		p.Days = append(p.Days, day)
	}
	if err := p.Validate(); err != nil {
		return model.ProblemModel{}, err
	}
	return p, nil
}

func customerName(id int) string { return fmt.Sprintf("customer %d", id) }

func depotName(id int) string { return fmt.Sprintf("depot %d", id) }
