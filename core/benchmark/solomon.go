// Package benchmark derives multi-day problem models from Solomon VRPTW
// instances and runs fleet sizing and routing experiments over them.
package benchmark

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// DepotID is the customer number of the depot in a Solomon instance.
const DepotID = 0

// ErrMalformedInstance is returned when a Solomon file lacks a required section.
var ErrMalformedInstance = errors.New("malformed solomon instance")

// Customer is one row of the CUSTOMER section.
type Customer struct {
	ID          int
	X, Y        float64
	Demand      int64
	ReadyTime   int64
	DueTime     int64
	ServiceTime int64
}

// Instance is a parsed Solomon benchmark.
type Instance struct {
	Name         string
	VehicleCount int
	Capacity     int64
	Depot        Customer
	Customers    []Customer
}

// LoadSolomon reads the instance stored at path.
func LoadSolomon(path string) (Instance, error) {
	f, err := os.Open(path)
	if err != nil {
		return Instance{}, err
	}
	defer func() { _ = f.Close() }()
	inst, err := ParseSolomon(f)
	if err != nil {
		return Instance{}, fmt.Errorf("%s: %w", path, err)
	}
	return inst, nil
}

// ParseSolomon reads the Solomon text format: the instance name on the first
// non blank line, a VEHICLE section whose data row holds the vehicle number and
// capacity, then a CUSTOMER section of seven numeric columns per row. Header
// rows are recognised by their non numeric fields and skipped.
func ParseSolomon(r io.Reader) (Instance, error) {
	var (
		inst       Instance
		haveFleet  bool
		haveDepot  bool
		lineNumber int
	)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lineNumber++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if inst.Name == "" {
			inst.Name = fields[0]
			continue
		}
		nums, ok := parseNumbers(fields)
		if !ok {
			continue
		}
		switch {
		case !haveFleet && len(nums) == 2:
			inst.VehicleCount = int(nums[0])
			inst.Capacity = int64(nums[1])
			haveFleet = true
		case haveFleet && len(nums) == 7:
			c := Customer{
				ID:          int(nums[0]),
				X:           nums[1],
				Y:           nums[2],
				Demand:      int64(math.Round(nums[3])),
				ReadyTime:   int64(math.Round(nums[4])),
				DueTime:     int64(math.Round(nums[5])),
				ServiceTime: int64(math.Round(nums[6])),
			}
			if c.ID == DepotID {
				inst.Depot = c
				haveDepot = true
				continue
			}
			inst.Customers = append(inst.Customers, c)
		default:
			return Instance{}, fmt.Errorf("%w: unexpected row %d with %d columns", ErrMalformedInstance, lineNumber, len(nums))
		}
	}
	if err := sc.Err(); err != nil {
		return Instance{}, err
	}
	switch {
	case inst.Name == "":
		return Instance{}, fmt.Errorf("%w: empty input", ErrMalformedInstance)
	case !haveFleet:
		return Instance{}, fmt.Errorf("%w: missing vehicle section", ErrMalformedInstance)
	case !haveDepot:
		return Instance{}, fmt.Errorf("%w: missing depot row", ErrMalformedInstance)
	case len(inst.Customers) == 0:
		return Instance{}, fmt.Errorf("%w: no customers", ErrMalformedInstance)
	}
	return inst, nil
}

func parseNumbers(fields []string) ([]float64, bool) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}
