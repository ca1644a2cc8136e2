// Package trail holds the trail data contract shared with the processing
// backend and the derived views the UI needs (summary, map overlay).
package trail

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/runtimeterrors/trailrunners/internal/segment"
)

// Validation errors
var (
	ErrMisaligned  = errors.New("trail arrays are not index-aligned")
	ErrDistance    = errors.New("invalid cumulative distance")
	ErrElevation   = errors.New("invalid elevation")
	ErrTotalTooLow = errors.New("total distance is shorter than the last cumulative distance")
)

const totalToleranceM = 1e-6

// Trail is the processed trail returned by the backend. Fields the service
// does not interpret are kept in Extra and written back out unchanged.
type Trail struct {
	CumulativeDistancesM  []float64             `json:"cumulative_distances_m"`
	CumulativeDistancesKm []float64             `json:"cumulative_distances_km,omitempty"`
	Elevations            []float64             `json:"elevations"`
	Latitudes             []float64             `json:"latitudes,omitempty"`
	Longitudes            []float64             `json:"longitudes,omitempty"`
	TotalDistanceM        float64               `json:"total_distance_m"`
	TotalDistanceKm       float64               `json:"total_distance_km,omitempty"`
	SegmentStats          []segment.BackendStat `json:"segment_stats,omitempty"`
	SegmentXPositions     []float64             `json:"segment_x_positions,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

type trailAlias Trail

var knownFields = []string{
	"cumulative_distances_m",
	"cumulative_distances_km",
	"elevations",
	"latitudes",
	"longitudes",
	"total_distance_m",
	"total_distance_km",
	"segment_stats",
	"segment_x_positions",
}

// UnmarshalJSON decodes the known fields and keeps the rest in Extra
func (t *Trail) UnmarshalJSON(data []byte) error {
	var a trailAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, k := range knownFields {
		delete(raw, k)
	}
	if len(raw) > 0 {
		a.Extra = raw
	}

	*t = Trail(a)
	return nil
}

// MarshalJSON writes the known fields followed by any preserved extras
func (t Trail) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(trailAlias(t))
	if err != nil || len(t.Extra) == 0 {
		return base, err
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, v := range t.Extra {
		if _, known := merged[k]; !known {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

// Len returns the number of samples in the trail
func (t *Trail) Len() int {
	return len(t.CumulativeDistancesM)
}

// HasCoordinates reports whether the trail carries a latitude/longitude for every sample
func (t *Trail) HasCoordinates() bool {
	n := t.Len()
	return n > 0 && len(t.Latitudes) == n && len(t.Longitudes) == n
}

// Validate checks the invariants the segmentation relies on
func (t *Trail) Validate() error {
	n := t.Len()
	if len(t.Elevations) != n {
		return fmt.Errorf("%w: %d distances, %d elevations", ErrMisaligned, n, len(t.Elevations))
	}
	if len(t.Latitudes) != 0 && len(t.Latitudes) != n {
		return fmt.Errorf("%w: %d distances, %d latitudes", ErrMisaligned, n, len(t.Latitudes))
	}
	if len(t.Longitudes) != 0 && len(t.Longitudes) != n {
		return fmt.Errorf("%w: %d distances, %d longitudes", ErrMisaligned, n, len(t.Longitudes))
	}

	prev := 0.0
	for i, d := range t.CumulativeDistancesM {
		if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
			return fmt.Errorf("%w: sample %d is %v", ErrDistance, i, d)
		}
		if d < prev {
			return fmt.Errorf("%w: sample %d (%v) is before sample %d (%v)", ErrDistance, i, d, i-1, prev)
		}
		prev = d
	}

	for i, e := range t.Elevations {
		if math.IsNaN(e) || math.IsInf(e, 0) {
			return fmt.Errorf("%w: sample %d is %v", ErrElevation, i, e)
		}
	}

	if math.IsNaN(t.TotalDistanceM) || math.IsInf(t.TotalDistanceM, 0) {
		return fmt.Errorf("%w: total is %v", ErrDistance, t.TotalDistanceM)
	}
	if n > 0 && t.TotalDistanceM > 0 && t.TotalDistanceM+totalToleranceM < prev {
		return fmt.Errorf("%w: total %.3f m, last sample %.3f m", ErrTotalTooLow, t.TotalDistanceM, prev)
	}

	return nil
}

// TotalDistance returns the supplied total, or the last cumulative distance when none was supplied
func (t *Trail) TotalDistance() float64 {
	if t.TotalDistanceM > 0 {
		return t.TotalDistanceM
	}
	if n := t.Len(); n > 0 {
		return t.CumulativeDistancesM[n-1]
	}
	return 0
}

// Series converts the trail into the segmentation input
func (t *Trail) Series() segment.Series {
	return segment.Series{
		DistancesM:     t.CumulativeDistancesM,
		ElevationsM:    t.Elevations,
		TotalDistanceM: t.TotalDistance(),
	}
}

// Source resolves the segmentation source for this trail
func (t *Trail) Source(preferBackend bool, count int) segment.Source {
	return segment.ResolveSource(t.SegmentStats, t.SegmentXPositions, preferBackend, count)
}
