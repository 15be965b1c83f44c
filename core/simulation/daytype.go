package simulation

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// DayType buckets characteristic days by their share of the busiest day.
type DayType int

const (
	Easy DayType = iota
	Normal
	Hard
)

const (
	easyCoefficient   = 0.31
	normalCoefficient = 0.51
	hardCoefficient   = 1.0
)

// ErrRatioOutOfRange is returned when a day has more visits than the busiest day.
var ErrRatioOutOfRange = errors.New("visit ratio out of range")

// String implements fmt.Stringer.
func (d DayType) String() string {
	switch d {
	case Easy:
		return "easy"
	case Normal:
		return "normal"
	case Hard:
		return "hard"
	default:
		return fmt.Sprintf("DayType(%d)", int(d))
	}
}

// MarshalText encodes the day type by name.
func (d DayType) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText decodes a day type name.
func (d *DayType) UnmarshalText(b []byte) error {
	v, err := ParseDayType(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// ParseDayType accepts easy, normal and hard in any case.
func ParseDayType(s string) (DayType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return Easy, nil
	case "normal":
		return Normal, nil
	case "hard":
		return Hard, nil
	default:
		return 0, fmt.Errorf("unknown day type %q", s)
	}
}

// Coefficient is the share of the busiest day's visits a day of this type has.
func (d DayType) Coefficient() float64 {
	switch d {
	case Easy:
		return easyCoefficient
	case Normal:
		return normalCoefficient
	default:
		return hardCoefficient
	}
}

// VisitsCount returns the target visit count of the type, rounded half to even.
func (d DayType) VisitsCount(maxVisits int) int {
	return int(math.RoundToEven(d.Coefficient() * float64(maxVisits)))
}

// DetermineDayType classifies a day with visits visits when the busiest day has maxVisits.
func DetermineDayType(visits, maxVisits int) (DayType, error) {
	if maxVisits <= 0 {
		if visits == 0 {
			return Easy, nil
		}
		return 0, fmt.Errorf("%w: %d visits with an empty busiest day", ErrRatioOutOfRange, visits)
	}
	ratio := float64(visits) / float64(maxVisits)
	switch {
	case ratio <= easyCoefficient:
		return Easy, nil
	case ratio <= normalCoefficient:
		return Normal, nil
	case ratio <= hardCoefficient:
		return Hard, nil
	default:
		return 0, fmt.Errorf("%w: %d/%d", ErrRatioOutOfRange, visits, maxVisits)
	}
}
