package segment

import (
	"fmt"
	"math"
)

// SourceKind tells where a trail's segmentation comes from
type SourceKind int

const (
	// SourceFrontend buckets the trail locally into a configured number of segments
	SourceFrontend SourceKind = iota
	// SourceBackend uses the segment statistics computed by the processing backend
	SourceBackend
)

func (k SourceKind) String() string {
	if k == SourceBackend {
		return "backend"
	}
	return "frontend"
}

// MarshalText encodes the kind as "frontend" or "backend"
func (k SourceKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// BackendStat is one entry of the backend's segment_stats array
type BackendStat struct {
	Gain      float64   `json:"gain"`
	HillCount int       `json:"hillcount"`
	RollingX  []float64 `json:"rolling_x"`
	RollingY  []float64 `json:"rolling_y"`
	Grade     float64   `json:"grade"`
}

// Source is the segmentation choice for one loaded trail: either the
// backend's statistics or a local fixed-count bucketing.
type Source struct {
	kind         SourceKind
	count        int
	stats        []BackendStat
	xPositionsKm []float64
}

// Frontend selects local bucketing into count segments
func Frontend(count int) Source {
	return Source{kind: SourceFrontend, count: count}
}

// Backend selects the backend's segment statistics. xPositionsKm holds the
// end distance of each segment in kilometres.
func Backend(stats []BackendStat, xPositionsKm []float64) Source {
	return Source{kind: SourceBackend, stats: stats, xPositionsKm: xPositionsKm}
}

// ResolveSource picks the backend statistics when preferred and usable,
// falling back to local bucketing into count segments.
func ResolveSource(stats []BackendStat, xPositionsKm []float64, preferBackend bool, count int) Source {
	if preferBackend && backendUsable(stats, xPositionsKm) {
		return Backend(stats, xPositionsKm)
	}
	return Frontend(count)
}

func backendUsable(stats []BackendStat, xPositionsKm []float64) bool {
	if len(stats) == 0 || len(stats) != len(xPositionsKm) {
		return false
	}
	prev := 0.0
	for _, x := range xPositionsKm {
		if math.IsNaN(x) || math.IsInf(x, 0) || x < prev {
			return false
		}
		prev = x
	}
	return true
}

// Kind reports which segmentation the source uses
func (s Source) Kind() SourceKind {
	return s.kind
}

// Count returns the number of segments the source produces
func (s Source) Count() int {
	if s.kind == SourceBackend {
		return len(s.stats)
	}
	return s.count
}

func (s Source) String() string {
	return fmt.Sprintf("%s(%d)", s.kind, s.Count())
}

// Segments builds the segment list of series according to the source
func (s Source) Segments(series Series) []Segment {
	if s.kind == SourceBackend {
		return backendSegments(series, s.stats, s.xPositionsKm)
	}
	return BuildSegments(series, s.count)
}

func backendSegments(series Series, stats []BackendStat, xPositionsKm []float64) []Segment {
	n := series.Len()
	if n == 0 || !backendUsable(stats, xPositionsKm) {
		return nil
	}

	d := series.DistancesM[:n]
	segments := make([]Segment, 0, len(stats))
	for i, stat := range stats {
		start := 0.0
		if i > 0 {
			start = xPositionsKm[i-1] * 1000
		}
		end := xPositionsKm[i] * 1000

		startIdx := firstAtOrAfter(d, start)
		endIdx := n - 1
		if i < len(stats)-1 {
			if j := lastAtOrBefore(d, end); j >= 0 {
				endIdx = j
			}
		}
		if endIdx < startIdx {
			endIdx = startIdx
		}

		segments = append(segments, Segment{
			Index:          i,
			StartDistanceM: start,
			EndDistanceM:   end,
			StartIndex:     startIdx,
			EndIndex:       endIdx,
			Gradient:       stat.Grade,
			ElevationGainM: stat.Gain,
			Difficulty:     Classify(stat.Grade),
		})
	}
	return segments
}
