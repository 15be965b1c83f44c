package simulation

import (
	"math/rand"

	"github.com/kilianp07/fleetsizer/core/model"
)

// VisitUniverse returns every combination of the distinct start times, window
// lengths, demands, service times and point names found in visits. Values
// keep their order of first appearance so the universe is stable.
func VisitUniverse(visits []model.Visit) []model.Visit {
	var (
		starts, lengths, demands, services []int64
		names                              []string
	)
	seenI := func(xs []int64, x int64) []int64 {
		for _, v := range xs {
			if v == x {
				return xs
			}
		}
		return append(xs, x)
	}
	for _, v := range visits {
		starts = seenI(starts, v.FromTime)
		lengths = seenI(lengths, v.ToTime-v.FromTime)
		demands = seenI(demands, v.Demand)
		services = seenI(services, v.ServiceTime)
		found := false
		for _, n := range names {
			if n == v.PointName {
				found = true
				break
			}
		}
		if !found {
			names = append(names, v.PointName)
		}
	}

	out := make([]model.Visit, 0, len(starts)*len(lengths)*len(demands)*len(services)*len(names))
	for _, s := range starts {
		for _, l := range lengths {
			for _, d := range demands {
				for _, st := range services {
					for _, n := range names {
						out = append(out, model.Visit{PointName: n, FromTime: s, ToTime: s + l, Demand: d, ServiceTime: st})
					}
				}
			}
		}
	}
	return out
}

// sampleVisits draws n visits from universe without replacement.
func sampleVisits(rng *rand.Rand, universe []model.Visit, n int) []model.Visit {
	n = min(n, len(universe))
	idx := make([]int, len(universe))
	for i := range idx {
		idx[i] = i
	}
	out := make([]model.Visit, n)
	for i := 0; i < n; i++ {
		j := i + rng.Intn(len(idx)-i)
		idx[i], idx[j] = idx[j], idx[i]
		out[i] = universe[idx[i]]
	}
	return out
}

// visitCount draws the visit count of a simulated day uniformly in
// [0.9·target, 1.1·target], clamped to [1, limit].
func visitCount(rng *rand.Rand, target, limit int) int {
	if limit <= 0 {
		return 0
	}
	lo := int(0.9 * float64(target))
	hi := int(1.1 * float64(target))
	n := lo
	if hi > lo {
		n += rng.Intn(hi - lo + 1)
	}
	return max(1, min(n, limit))
}
