package solver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/kilianp07/fleetsizer/core/events"
	"github.com/kilianp07/fleetsizer/core/factory"
	"github.com/kilianp07/fleetsizer/core/logger"
	"github.com/kilianp07/fleetsizer/core/model"
	"github.com/kilianp07/fleetsizer/internal/eventbus"
)

// ErrInfeasible indicates that no fleet in the vehicle pool covers the demand.
var ErrInfeasible = errors.New("fleet infeasible")

// FleetSolver predicts the fleet structure of a problem.
type FleetSolver interface {
	Name() string
	Predict(ctx context.Context, p model.ProblemModel) (model.FleetStructure, error)
}

// vrpAware fleet solvers route the problem with the shared VrpSolver.
type vrpAware interface {
	useVrpSolver(*VrpSolver)
}

var fleetRegistry = factory.NewRegistry[FleetSolver]()

// RegisterFleetSolver adds a fleet solver factory identified by name.
func RegisterFleetSolver(name string, f factory.Factory[FleetSolver]) error {
	return fleetRegistry.Register(name, f)
}

// FleetMethods lists the registered fleet prediction methods.
func FleetMethods() []string { return fleetRegistry.Names() }

// NewFleetSolver creates the fleet solver named by cfg.Type. Solvers that
// route the problem use vrp, which must then be non nil.
func NewFleetSolver(cfg factory.ModuleConfig, vrp *VrpSolver) (FleetSolver, error) {
	if cfg.Type == "" {
		cfg.Type = VrpMethod
	}
	fs, err := fleetRegistry.Create(cfg)
	if err != nil {
		return nil, err
	}
	if va, ok := fs.(vrpAware); ok {
		if vrp == nil {
			return nil, fmt.Errorf("fleet solver %s needs a vrp solver", cfg.Type)
		}
		va.useVrpSolver(vrp)
	}
	return fs, nil
}

// Fleet prediction methods.
const (
	VrpMethod    = "vrp"
	LinearMethod = "linear"
	DailyMethod  = "daily"
)

func init() {
	_ = RegisterFleetSolver(VrpMethod, func(map[string]any) (FleetSolver, error) {
		return &VrpFleetSolver{}, nil
	})
	_ = RegisterFleetSolver(LinearMethod, func(conf map[string]any) (FleetSolver, error) {
		var c LinearConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewLinearSolver(c), nil
	})
	_ = RegisterFleetSolver(DailyMethod, func(conf map[string]any) (FleetSolver, error) {
		var c DailyConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewDailySolver(c), nil
	})
}

// PredictFleet runs fs, logs the outcome and publishes a FleetEvent.
func PredictFleet(ctx context.Context, fs FleetSolver, p model.ProblemModel, runID string, bus eventbus.EventBus, log logger.Logger) (model.FleetStructure, error) {
	ctx, span := tracer.Start(ctx, "fleet.predict")
	defer span.End()
	span.SetAttributes(attribute.String("method", fs.Name()))

	began := time.Now()
	fleet, err := fs.Predict(ctx, p)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return model.FleetStructure{}, fmt.Errorf("%s fleet prediction: %w", fs.Name(), err)
	}
	span.SetAttributes(
		attribute.Int("vehicles", fleet.VehicleCount()),
		attribute.Int64("estimated_cost", fleet.EstimatedCost),
	)
	elapsed := time.Since(began)
	if log != nil {
		log.Infof("fleet predicted by %s: %d vehicles, estimated cost %d (%s)",
			fs.Name(), fleet.VehicleCount(), fleet.EstimatedCost, elapsed.Round(time.Millisecond))
	}
	if bus != nil {
		bus.Publish(events.FleetEvent{
			RunID:         runID,
			Method:        fs.Name(),
			Vehicles:      fleet.VehicleCount(),
			EstimatedCost: fleet.EstimatedCost,
			Duration:      elapsed,
			Time:          time.Now(),
		})
	}
	return fleet, nil
}

// VrpFleetSolver sizes the fleet from the vehicles used by a routing solution
// of the whole horizon.
type VrpFleetSolver struct {
	vrp *VrpSolver
}

// NewVrpFleetSolver wraps vrp.
func NewVrpFleetSolver(vrp *VrpSolver) *VrpFleetSolver { return &VrpFleetSolver{vrp: vrp} }

func (s *VrpFleetSolver) useVrpSolver(v *VrpSolver) { s.vrp = v }

// Name implements FleetSolver.
func (s *VrpFleetSolver) Name() string { return VrpMethod }

// Predict implements FleetSolver.
func (s *VrpFleetSolver) Predict(ctx context.Context, p model.ProblemModel) (model.FleetStructure, error) {
	sol, err := s.vrp.Solve(ctx, p)
	if err != nil {
		return model.FleetStructure{}, err
	}
	if sol == nil {
		return model.FleetStructure{}, ErrInfeasible
	}
	return FleetFromVehicles(sol.UsedVehicles), nil
}

type positionKey struct {
	name     string
	rental   model.RentalType
	depot    string
	startDay int
}

// FleetFromVehicles groups vehicles by name, rental type, depot and start day
// in order of first appearance.
func FleetFromVehicles(vs []model.IndexedVehicle) model.FleetStructure {
	var fs model.FleetStructure
	pos := make(map[positionKey]int)
	for _, v := range vs {
		k := positionKey{v.Name, v.RentalType, v.SourceDepotName, v.StartDay}
		i, ok := pos[k]
		if !ok {
			i = len(fs.FleetPositions)
			pos[k] = i
			fs.FleetPositions = append(fs.FleetPositions, model.FleetPosition{VehicleInstance: v.VehicleInstance})
		}
		fs.FleetPositions[i].Count++
		fs.EstimatedCost += v.MonthUsageCost
	}
	return fs
}
