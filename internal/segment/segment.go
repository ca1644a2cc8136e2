// Package segment partitions a trail's distance/elevation series into fixed
// width distance buckets, classifies each bucket by gradient difficulty and
// maps a queried distance back to its owning bucket.
package segment

import (
	"math"
	"sort"
)

// Series is the distance/elevation profile of one trail. DistancesM must be
// non-decreasing and index-aligned with ElevationsM.
type Series struct {
	DistancesM     []float64
	ElevationsM    []float64
	TotalDistanceM float64
}

// Len returns the number of usable samples
func (s Series) Len() int {
	return min(len(s.DistancesM), len(s.ElevationsM))
}

// ElevationAt linearly interpolates the elevation at distanceM. Distances
// outside the sampled range clamp to the first or last sample; only an empty
// series or NaN reports false.
func (s Series) ElevationAt(distanceM float64) (float64, bool) {
	n := s.Len()
	if n == 0 || math.IsNaN(distanceM) {
		return 0, false
	}
	d := s.DistancesM[:n]
	e := s.ElevationsM[:n]

	i := sort.SearchFloat64s(d, distanceM)
	switch {
	case i == 0:
		return e[0], true
	case i == n:
		return e[n-1], true
	case d[i] == distanceM || d[i] == d[i-1]:
		return e[i], true
	}
	f := (distanceM - d[i-1]) / (d[i] - d[i-1])
	return e[i-1] + f*(e[i]-e[i-1]), true
}

// Segment is one distance bucket of a trail annotated with its gradient
type Segment struct {
	Index          int     `json:"index"`
	StartDistanceM float64 `json:"start_distance_m"`
	EndDistanceM   float64 `json:"end_distance_m"`
	StartIndex     int     `json:"start_index"`
	// EndIndex is the last sample inside the bucket. A bucket without samples
	// collapses onto StartIndex, which may lie past EndDistanceM.
	EndIndex       int     `json:"end_index"`
	Gradient       float64 `json:"gradient"`
	ElevationGainM float64 `json:"elevation_gain_m"`
	Difficulty     Tier    `json:"difficulty"`
}

// Contains reports whether distanceM lies within the closed bounds of the segment
func (s Segment) Contains(distanceM float64) bool {
	return distanceM >= s.StartDistanceM && distanceM <= s.EndDistanceM
}

// BuildSegments splits series into count buckets of equal distance.
//
// The last bucket always ends at TotalDistanceM and owns every trailing
// sample. A bucket that contains no samples collapses onto its start sample
// and reports a zero gradient. Degenerate input (no samples, count < 1 or a
// non-positive total distance) yields no segments.
func BuildSegments(series Series, count int) []Segment {
	n := series.Len()
	total := series.TotalDistanceM
	if n == 0 || count < 1 || !(total > 0) || math.IsInf(total, 0) {
		return nil
	}

	d := series.DistancesM[:n]
	width := total / float64(count)
	segments := make([]Segment, 0, count)

	for i := 0; i < count; i++ {
		start := float64(i) * width
		end := float64(i+1) * width
		last := i == count-1
		if last {
			end = total
		}

		startIdx := firstAtOrAfter(d, start)
		endIdx := n - 1
		if !last {
			endIdx = lastAtOrBefore(d, end)
		}
		if endIdx < startIdx {
			endIdx = startIdx
		}

		segments = append(segments, newSegment(series, i, start, end, startIdx, endIdx))
	}

	return segments
}

func newSegment(series Series, index int, start, end float64, startIdx, endIdx int) Segment {
	rise := series.ElevationsM[endIdx] - series.ElevationsM[startIdx]
	run := series.DistancesM[endIdx] - series.DistancesM[startIdx]

	gradient := 0.0
	if run > 0 {
		gradient = rise / run
	}

	return Segment{
		Index:          index,
		StartDistanceM: start,
		EndDistanceM:   end,
		StartIndex:     startIdx,
		EndIndex:       endIdx,
		Gradient:       gradient,
		ElevationGainM: math.Max(0, rise),
		Difficulty:     Classify(gradient),
	}
}

// firstAtOrAfter returns the first index whose distance is >= target, or 0 when none is
func firstAtOrAfter(d []float64, target float64) int {
	i := sort.SearchFloat64s(d, target)
	if i == len(d) {
		return 0
	}
	return i
}

// lastAtOrBefore returns the last index whose distance is <= target, or -1 when none is
func lastAtOrBefore(d []float64, target float64) int {
	return sort.Search(len(d), func(j int) bool { return d[j] > target }) - 1
}

// FindSegmentAt returns the segment whose bounds contain distanceM.
// A distance on a shared boundary belongs to the lower-index segment.
func FindSegmentAt(distanceM float64, segments []Segment) (Segment, bool) {
	if len(segments) == 0 || math.IsNaN(distanceM) {
		return Segment{}, false
	}
	if distanceM < segments[0].StartDistanceM || distanceM > segments[len(segments)-1].EndDistanceM {
		return Segment{}, false
	}

	i := sort.Search(len(segments), func(j int) bool {
		return segments[j].EndDistanceM >= distanceM
	})
	if i == len(segments) || !segments[i].Contains(distanceM) {
		return Segment{}, false
	}
	return segments[i], true
}
