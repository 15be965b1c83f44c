package model

// FleetPosition groups identical vehicles.
type FleetPosition struct {
	VehicleInstance `yaml:",inline"`
	Count           int `json:"count" yaml:"count"`
}

// FleetStructure is the outcome of a fleet prediction.
type FleetStructure struct {
	FleetPositions []FleetPosition `json:"fleet_positions" yaml:"fleet_positions"`
	EstimatedCost  int64           `json:"estimated_cost" yaml:"estimated_cost"`
}

// VehicleCount returns the total number of vehicles in the structure.
func (f FleetStructure) VehicleCount() int {
	n := 0
	for _, p := range f.FleetPositions {
		n += p.Count
	}
	return n
}

// ContractPositions returns only the positions rented for the whole horizon.
func (f FleetStructure) ContractPositions() []FleetPosition {
	var out []FleetPosition
	for _, p := range f.FleetPositions {
		if p.RentalType == Contract {
			out = append(out, p)
		}
	}
	return out
}

// Stop is one performed node of a route.
type Stop struct {
	PointName string `json:"point_name" yaml:"point_name"`
	Node      int    `json:"node" yaml:"node"`
	Time      int64  `json:"time" yaml:"time"`
	Load      int64  `json:"load" yaml:"load"`
	IsDepot   bool   `json:"is_depot" yaml:"is_depot"`
}

// Route is the ordered list of stops of one used vehicle.
type Route struct {
	Vehicle IndexedVehicle `json:"vehicle" yaml:"vehicle"`
	Stops   []Stop         `json:"stops" yaml:"stops"`
}

// VrpSolution is a solved routing assignment translated back into domain terms.
type VrpSolution struct {
	Routes                 []Route          `json:"routes" yaml:"routes"`
	UsedVehicles           []IndexedVehicle `json:"used_vehicles" yaml:"used_vehicles"`
	UnusedVehicles         []IndexedVehicle `json:"unused_vehicles" yaml:"unused_vehicles"`
	NotVisitedClientsCount int              `json:"not_visited_clients_count" yaml:"not_visited_clients_count"`
	ObjectiveValue         int64            `json:"objective_value" yaml:"objective_value"`
}

// UsageCost sums the day usage cost of the used vehicles.
func (s VrpSolution) UsageCost() int64 {
	var c int64
	for _, v := range s.UsedVehicles {
		c += v.DayUsageCost
	}
	return c
}
