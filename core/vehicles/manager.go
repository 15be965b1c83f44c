// Package vehicles builds the concrete pool of vehicle instances available to
// the routing model: contract vehicles valid for the whole horizon and spot
// vehicles rented for a single characteristic day.
package vehicles

import (
	"fmt"
	"sort"

	"github.com/kilianp07/fleetsizer/core/model"
)

// Option tweaks the pool generation.
type Option func(*options)

type options struct {
	spot      bool
	spotQuota int
}

// WithoutSpot builds a contract-only pool.
func WithoutSpot() Option { return func(o *options) { o.spot = false } }

// WithSpotQuota overrides the number of spot vehicles offered per day.
func WithSpotQuota(n int) Option { return func(o *options) { o.spotQuota = n } }

// Manager owns the ordered vehicle pool. It is immutable after New.
type Manager struct {
	vehicles []model.IndexedVehicle
	contract []model.IndexedVehicle
	spot     [][]model.IndexedVehicle
	maxCap   int64
}

// New generates the vehicle pool for the problem. Contract vehicles come first,
// ordered by depot then vehicle type name, followed by the spot vehicles of each day.
func New(p model.ProblemModel, opts ...Option) (*Manager, error) {
	o := options{spot: true, spotQuota: model.SpotVehiclesPerDay}
	for _, opt := range opts {
		opt(&o)
	}
	m := &Manager{spot: make([][]model.IndexedVehicle, p.CharacteristicDayCount())}
	daysInMonth := int64(p.DaysInMonth())
	lastDay := p.LastDay()

	for _, depot := range p.Depots {
		names := make([]string, 0, len(depot.Vehicles))
		for name := range depot.Vehicles {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			vt, err := p.VehicleType(name)
			if err != nil {
				return nil, fmt.Errorf("depot %s: %w", depot.Name, err)
			}
			for i := 0; i < depot.Vehicles[name]; i++ {
				m.add(model.VehicleInstance{
					RentalType:      model.Contract,
					Name:            vt.Name,
					Capacity:        vt.Capacity,
					MonthUsageCost:  vt.CostAsContractVehicle * daysInMonth,
					DayUsageCost:    vt.CostAsContractVehicle,
					CostPerKm:       vt.CostPerKm,
					SourceDepotName: depot.Name,
					StartDay:        0,
					EndDay:          lastDay,
				})
			}
		}
	}

	if o.spot && o.spotQuota > 0 && len(p.Depots) > 0 && len(p.VehicleTypes) > 0 {
		depot := p.Depots[0]
		vt := p.VehicleTypes[0]
		for day, d := range p.Days {
			for i := 0; i < o.spotQuota; i++ {
				m.add(model.VehicleInstance{
					RentalType:      model.Spot,
					Name:            vt.Name,
					Capacity:        vt.Capacity,
					MonthUsageCost:  vt.CostAsSpotVehicle * int64(d.Occurrences),
					DayUsageCost:    vt.CostAsSpotVehicle,
					CostPerKm:       vt.CostPerKm,
					SourceDepotName: depot.Name,
					StartDay:        day,
					EndDay:          day,
				})
			}
		}
	}
	return m, nil
}

func (m *Manager) add(v model.VehicleInstance) {
	iv := model.IndexedVehicle{VehicleInstance: v, Index: len(m.vehicles)}
	m.vehicles = append(m.vehicles, iv)
	if v.RentalType == model.Contract {
		m.contract = append(m.contract, iv)
	} else if v.StartDay >= 0 && v.StartDay < len(m.spot) {
		m.spot[v.StartDay] = append(m.spot[v.StartDay], iv)
	}
	if v.Capacity > m.maxCap {
		m.maxCap = v.Capacity
	}
}

// Vehicles returns the whole pool ordered by index.
func (m *Manager) Vehicles() []model.IndexedVehicle { return m.vehicles }

// Vehicle returns the vehicle with the given index.
func (m *Manager) Vehicle(i int) model.IndexedVehicle { return m.vehicles[i] }

// Count returns the pool size.
func (m *Manager) Count() int { return len(m.vehicles) }

// ContractVehicles returns the vehicles valid for the whole horizon.
func (m *Manager) ContractVehicles() []model.IndexedVehicle { return m.contract }

// SpotVehiclesForDay returns the spot vehicles rentable on day d.
func (m *Manager) SpotVehiclesForDay(d int) []model.IndexedVehicle {
	if d < 0 || d >= len(m.spot) {
		return nil
	}
	return m.spot[d]
}

// MaxVehicleCapacity is the largest capacity in the pool.
func (m *Manager) MaxVehicleCapacity() int64 { return m.maxCap }
