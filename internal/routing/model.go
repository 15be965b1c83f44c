package routing

import "fmt"

type transitFn func(from, to int64) int64

type disjunction struct {
	indices []int64
	penalty int64
}

// Model is a vehicle routing model over the indices of an IndexManager.
// Callbacks receive routing indices; use the manager to recover nodes.
type Model struct {
	manager   *IndexManager
	transits  []transitFn
	dims      []*Dimension
	dimByName map[string]*Dimension

	disjunctions  []disjunction
	disjunctionOf []int
	fixedCost     []int64
	arcCost       []int

	nexts          []*IntVar
	vehicles       []*IntVar
	actives        []*IntVar
	activeVehicles []*IntVar

	coupled      [][]int64
	coupledOwner []int

	solver *Solver
}

// NewModel creates an empty model. Vehicle terminals are pinned to their vehicle.
func NewModel(manager *IndexManager) *Model {
	n := manager.Size()
	nv := manager.NumVehicles()
	m := &Model{
		manager:        manager,
		dimByName:      make(map[string]*Dimension),
		disjunctionOf:  make([]int, n),
		fixedCost:      make([]int64, nv),
		arcCost:        make([]int, nv),
		nexts:          make([]*IntVar, n),
		vehicles:       make([]*IntVar, n),
		actives:        make([]*IntVar, n),
		activeVehicles: make([]*IntVar, nv),
		coupled:        make([][]int64, nv),
		coupledOwner:   make([]int, n),
	}
	for i := 0; i < n; i++ {
		m.disjunctionOf[i] = -1
		m.coupledOwner[i] = -1
		m.nexts[i] = newIntVar(kindNext, nil, int64(i), 0, int64(n-1))
		m.vehicles[i] = newIntVar(kindVehicle, nil, int64(i), -1, int64(nv-1))
		m.actives[i] = newIntVar(kindActive, nil, int64(i), 0, 1)
	}
	for v := 0; v < nv; v++ {
		m.arcCost[v] = -1
		m.activeVehicles[v] = newIntVar(kindActiveVehicle, nil, int64(v), 0, 1)
		m.vehicles[manager.StartIndex(v)].SetValues([]int64{int64(v)})
		m.vehicles[manager.EndIndex(v)].SetValues([]int64{int64(v)})
	}
	m.solver = &Solver{model: m}
	return m
}

// Manager returns the index manager of the model.
func (m *Model) Manager() *IndexManager { return m.manager }

// Size is the number of routing indices.
func (m *Model) Size() int { return m.manager.Size() }

// Vehicles returns the number of vehicles.
func (m *Model) Vehicles() int { return m.manager.NumVehicles() }

// Solver gives access to constraint factories.
func (m *Model) Solver() *Solver { return m.solver }

// RegisterTransitCallback registers an arc evaluator and returns its handle.
func (m *Model) RegisterTransitCallback(fn func(from, to int64) int64) int {
	m.transits = append(m.transits, fn)
	return len(m.transits) - 1
}

// RegisterUnaryTransitCallback registers an evaluator depending on the arc tail only.
func (m *Model) RegisterUnaryTransitCallback(fn func(index int64) int64) int {
	return m.RegisterTransitCallback(func(from, _ int64) int64 { return fn(from) })
}

// AddDimension adds a dimension with one evaluator and one capacity for every vehicle.
// It returns false when the name is taken or the evaluator is unknown.
func (m *Model) AddDimension(evaluator int, slackMax, capacity int64, fixStartCumulToZero bool, name string) bool {
	return m.addDimension(m.repeatEvaluator(evaluator), slackMax, m.repeatCapacity(capacity), fixStartCumulToZero, name)
}

// AddDimensionWithVehicleCapacity adds a dimension with a capacity per vehicle.
func (m *Model) AddDimensionWithVehicleCapacity(evaluator int, slackMax int64, capacities []int64, fixStartCumulToZero bool, name string) bool {
	return m.addDimension(m.repeatEvaluator(evaluator), slackMax, capacities, fixStartCumulToZero, name)
}

// AddDimensionWithVehicleTransits adds a dimension with an evaluator per vehicle.
func (m *Model) AddDimensionWithVehicleTransits(evaluators []int, slackMax, capacity int64, fixStartCumulToZero bool, name string) bool {
	return m.addDimension(evaluators, slackMax, m.repeatCapacity(capacity), fixStartCumulToZero, name)
}

func (m *Model) repeatEvaluator(e int) []int {
	out := make([]int, m.Vehicles())
	for i := range out {
		out[i] = e
	}
	return out
}

func (m *Model) repeatCapacity(c int64) []int64 {
	out := make([]int64, m.Vehicles())
	for i := range out {
		out[i] = c
	}
	return out
}

func (m *Model) addDimension(evaluators []int, slackMax int64, capacities []int64, fixStartZero bool, name string) bool {
	if _, ok := m.dimByName[name]; ok {
		return false
	}
	if len(evaluators) != m.Vehicles() || len(capacities) != m.Vehicles() || slackMax < 0 {
		return false
	}
	for _, e := range evaluators {
		if e < 0 || e >= len(m.transits) {
			return false
		}
	}
	d := newDimension(m, len(m.dims), name, evaluators, slackMax, capacities, fixStartZero)
	m.dims = append(m.dims, d)
	m.dimByName[name] = d
	return true
}

// HasDimension reports whether a dimension exists.
func (m *Model) HasDimension(name string) bool {
	_, ok := m.dimByName[name]
	return ok
}

// GetDimensionOrDie returns the named dimension and panics when it is missing.
func (m *Model) GetDimensionOrDie(name string) *Dimension {
	d, ok := m.dimByName[name]
	if !ok {
		panic(fmt.Sprintf("routing: unknown dimension %q", name))
	}
	return d
}

// AddDisjunction makes the indices optional: at most one of them is performed
// and penalty is paid when none is.
func (m *Model) AddDisjunction(indices []int64, penalty int64) int {
	id := len(m.disjunctions)
	for _, i := range indices {
		if m.IsStart(i) || m.IsEnd(i) {
			panic(fmt.Sprintf("routing: disjunction on vehicle terminal %d", i))
		}
		m.disjunctionOf[i] = id
	}
	m.disjunctions = append(m.disjunctions, disjunction{indices: append([]int64(nil), indices...), penalty: penalty})
	return id
}

// SetFixedCostOfVehicle sets the cost paid when the vehicle is used.
func (m *Model) SetFixedCostOfVehicle(cost int64, vehicle int) { m.fixedCost[vehicle] = cost }

// SetArcCostEvaluatorOfVehicle sets the evaluator summed over the arcs of the vehicle route.
func (m *Model) SetArcCostEvaluatorOfVehicle(evaluator, vehicle int) { m.arcCost[vehicle] = evaluator }

// SetArcCostEvaluatorOfAllVehicles uses the same arc evaluator for every vehicle.
func (m *Model) SetArcCostEvaluatorOfAllVehicles(evaluator int) {
	for v := range m.arcCost {
		m.arcCost[v] = evaluator
	}
}

// NextVar is the successor of index.
func (m *Model) NextVar(index int64) *IntVar { return m.nexts[index] }

// VehicleVar is the vehicle performing index, -1 when unperformed.
func (m *Model) VehicleVar(index int64) *IntVar { return m.vehicles[index] }

// ActiveVar is 1 when index is performed.
func (m *Model) ActiveVar(index int64) *IntVar { return m.actives[index] }

// ActiveVehicleVar is 1 when the vehicle serves at least one index.
func (m *Model) ActiveVehicleVar(vehicle int) *IntVar { return m.activeVehicles[vehicle] }

// Start returns the start index of vehicle.
func (m *Model) Start(vehicle int) int64 { return m.manager.StartIndex(vehicle) }

// End returns the end index of vehicle.
func (m *Model) End(vehicle int) int64 { return m.manager.EndIndex(vehicle) }

// IsStart reports whether index is a vehicle start.
func (m *Model) IsStart(index int64) bool {
	first := int64(m.Size() - 2*m.Vehicles())
	return index >= first && index < first+int64(m.Vehicles())
}

// IsEnd reports whether index is a vehicle end.
func (m *Model) IsEnd(index int64) bool {
	return index >= int64(m.Size()-m.Vehicles()) && index < int64(m.Size())
}

// IsVehicleUsed reports whether the vehicle route of the assignment serves any index.
func (m *Model) IsVehicleUsed(a *Assignment, vehicle int) bool {
	return a.Value(m.NextVar(m.Start(vehicle))) != m.End(vehicle)
}
