package routing

import "math"

type varKind uint8

const (
	kindCumul varKind = iota
	kindSlack
	kindNext
	kindVehicle
	kindActive
	kindActiveVehicle
)

// IntVar is a bounded integer variable of the routing model. Bounds set before
// solving restrict the search; values are read back from an Assignment.
type IntVar struct {
	kind   varKind
	dim    *Dimension
	index  int64
	min    int64
	max    int64
	values []int64
}

func newIntVar(kind varKind, dim *Dimension, index, lo, hi int64) *IntVar {
	return &IntVar{kind: kind, dim: dim, index: index, min: lo, max: hi}
}

// Index is the routing index (or vehicle for vehicle-level variables) the variable belongs to.
func (v *IntVar) Index() int64 { return v.index }

// Min returns the lower bound.
func (v *IntVar) Min() int64 { return v.min }

// Max returns the upper bound.
func (v *IntVar) Max() int64 { return v.max }

// SetMin raises the lower bound.
func (v *IntVar) SetMin(x int64) {
	if x > v.min {
		v.min = x
	}
}

// SetMax lowers the upper bound.
func (v *IntVar) SetMax(x int64) {
	if x < v.max {
		v.max = x
	}
}

// SetRange intersects the domain with [lo, hi].
func (v *IntVar) SetRange(lo, hi int64) {
	v.SetMin(lo)
	v.SetMax(hi)
}

// SetValues restricts the variable to an explicit set. On a vehicle variable
// it lists the vehicles allowed to perform the node; whether the node may be
// left unperformed is decided by disjunctions.
func (v *IntVar) SetValues(values []int64) {
	v.values = append([]int64(nil), values...)
}

// Contains reports whether x is in the domain.
func (v *IntVar) Contains(x int64) bool {
	if x < v.min || x > v.max {
		return false
	}
	if v.values == nil {
		return true
	}
	for _, y := range v.values {
		if y == x {
			return true
		}
	}
	return false
}

// IntervalVar is an interval of fixed duration starting at a cumul variable.
// While the interval lasts the vehicle stays at the node of its start variable.
type IntervalVar struct {
	start    *IntVar
	duration int64
	name     string
}

// Start returns the cumul variable the interval is anchored on.
func (iv *IntervalVar) Start() *IntVar { return iv.start }

// Duration returns the interval length.
func (iv *IntervalVar) Duration() int64 { return iv.duration }

// Name returns the interval label.
func (iv *IntervalVar) Name() string { return iv.name }

// capAdd adds with saturation at the int64 bounds.
func capAdd(a, b int64) int64 {
	c := a + b
	if a > 0 && b > 0 && c < 0 {
		return math.MaxInt64
	}
	if a < 0 && b < 0 && c >= 0 {
		return math.MinInt64
	}
	return c
}
