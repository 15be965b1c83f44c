// Package fixture provides small problem instances shared by package tests.
package fixture

import (
	"fmt"

	"github.com/kilianp07/fleetsizer/core/model"
)

// Van is the single vehicle type used by the small fixtures.
var Van = model.VehicleType{
	Name:                  "van",
	Capacity:              100,
	CostPerKm:             1,
	CostAsContractVehicle: 100,
	CostAsSpotVehicle:     150,
}

// FiveCustomers is a one-day, single-depot instance with five customers of
// demand 10 whose windows cover the whole day.
func FiveCustomers(vans int) model.ProblemModel {
	p := model.ProblemModel{
		Budget:       10_000_000,
		MaxDistance:  10_000_000,
		Depots:       []model.Depot{{Point: model.Point{Name: "depot", X: 0, Y: 0}, Vehicles: map[string]int{"van": vans}}},
		VehicleTypes: []model.VehicleType{Van},
	}
	coords := [][2]float64{{10, 0}, {20, 0}, {20, 10}, {10, 10}, {0, 10}}
	day := model.Day{Occurrences: 1}
	for i, c := range coords {
		name := fmt.Sprintf("c%d", i+1)
		p.Clients = append(p.Clients, model.Client{Point: model.Point{Name: name, X: c[0], Y: c[1]}})
		day.Visits = append(day.Visits, model.Visit{PointName: name, Demand: 10, FromTime: 0, ToTime: model.DayDuration, ServiceTime: 10})
	}
	p.Days = []model.Day{day}
	return p
}

// TwoDayRest is a two-day instance served by one contract vehicle. The day-0
// visit closes in the evening and the day-1 visit can be served any time, so a
// rest has to happen between them.
func TwoDayRest() model.ProblemModel {
	return model.ProblemModel{
		Budget:      10_000_000,
		MaxDistance: 10_000_000,
		Depots:      []model.Depot{{Point: model.Point{Name: "depot", X: 0, Y: 0}, Vehicles: map[string]int{"van": 1}}},
		Clients: []model.Client{
			{Point: model.Point{Name: "evening", X: 10, Y: 0}},
			{Point: model.Point{Name: "anytime", X: 0, Y: 10}},
		},
		Days: []model.Day{
			{Occurrences: 1, Visits: []model.Visit{{PointName: "evening", Demand: 10, FromTime: 900, ToTime: 1000, ServiceTime: 30}}},
			{Occurrences: 1, Visits: []model.Visit{{PointName: "anytime", Demand: 10, FromTime: 0, ToTime: model.DayDuration, ServiceTime: 30}}},
		},
		VehicleTypes: []model.VehicleType{Van},
	}
}

// MultiDay is a three characteristic day instance with two vehicle types and
// varying visit counts, used by the fleet solvers and the simulator.
func MultiDay() model.ProblemModel {
	p := model.ProblemModel{
		Budget:      10_000_000,
		MaxDistance: 10_000_000,
		Depots: []model.Depot{{
			Point:    model.Point{Name: "depot", X: 50, Y: 50},
			Vehicles: map[string]int{"small": 2, "large": 1},
		}},
		VehicleTypes: []model.VehicleType{
			{Name: "small", Capacity: 100, CostPerKm: 1, CostAsContractVehicle: 100, CostAsSpotVehicle: 150},
			{Name: "large", Capacity: 300, CostPerKm: 3, CostAsContractVehicle: 300, CostAsSpotVehicle: 500},
		},
	}
	coords := [][2]float64{{40, 60}, {55, 45}, {60, 60}, {45, 40}, {65, 50}, {50, 65}, {35, 50}, {55, 35}}
	for i, c := range coords {
		p.Clients = append(p.Clients, model.Client{Point: model.Point{Name: fmt.Sprintf("m%d", i+1), X: c[0], Y: c[1]}})
	}
	counts := []struct{ visits, occ int }{{2, 5}, {4, 15}, {8, 5}}
	for _, c := range counts {
		d := model.Day{Occurrences: c.occ}
		for i := 0; i < c.visits; i++ {
			d.Visits = append(d.Visits, model.Visit{
				PointName:   p.Clients[i].Name,
				Demand:      int64(10 + 5*(i%3)),
				FromTime:    int64(60 * (i % 4)),
				ToTime:      int64(60*(i%4)) + 600,
				ServiceTime: 15,
			})
		}
		p.Days = append(p.Days, d)
	}
	return p
}
