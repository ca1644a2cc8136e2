package trail

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// flatGrade is the absolute grade below which a step counts as flat
const flatGrade = 0.01

// Summary holds the dashboard statistics for a loaded trail
type Summary struct {
	Points int `json:"points"`

	TotalDistanceM  float64 `json:"total_distance_m"`
	TotalDistanceKm float64 `json:"total_distance_km"`

	AltitudeMin    float64 `json:"altitude_min"`
	AltitudeMax    float64 `json:"altitude_max"`
	AltitudeStart  float64 `json:"altitude_start"`
	AltitudeEnd    float64 `json:"altitude_end"`
	AltitudeChange float64 `json:"altitude_change"`

	TotalAscentM  float64 `json:"total_ascent_m"`
	TotalDescentM float64 `json:"total_descent_m"`

	// Grades are in percent
	GradePercent    float64 `json:"grade_percent"`
	GradeMaxPercent float64 `json:"grade_max_percent"`
	GradeMinPercent float64 `json:"grade_min_percent"`

	ClimbDistanceM float64 `json:"climb_distance_m"`
	DownDistanceM  float64 `json:"down_distance_m"`
	FlatDistanceM  float64 `json:"flat_distance_m"`

	CenterLatitude  *float64 `json:"center_latitude,omitempty"`
	CenterLongitude *float64 `json:"center_longitude,omitempty"`
}

// Summarize computes the dashboard statistics. The trail should already
// have passed Validate.
func Summarize(t *Trail) Summary {
	n := t.Len()
	if len(t.Elevations) < n {
		n = len(t.Elevations)
	}

	total := t.TotalDistance()
	s := Summary{
		Points:          n,
		TotalDistanceM:  total,
		TotalDistanceKm: total / 1000,
	}
	if n == 0 {
		return s
	}

	elev := t.Elevations[:n]
	dist := t.CumulativeDistancesM[:n]

	s.AltitudeMin = floats.Min(elev)
	s.AltitudeMax = floats.Max(elev)
	s.AltitudeStart = elev[0]
	s.AltitudeEnd = elev[n-1]
	s.AltitudeChange = s.AltitudeEnd - s.AltitudeStart
	if total > 0 {
		s.GradePercent = s.AltitudeChange / total * 100
	}

	maxGrade, minGrade := math.Inf(-1), math.Inf(1)
	for i := 1; i < n; i++ {
		rise := elev[i] - elev[i-1]
		if rise > 0 {
			s.TotalAscentM += rise
		} else {
			s.TotalDescentM -= rise
		}

		run := dist[i] - dist[i-1]
		if run <= 0 {
			continue
		}
		grade := rise / run
		maxGrade = math.Max(maxGrade, grade)
		minGrade = math.Min(minGrade, grade)

		switch {
		case math.Abs(grade) < flatGrade:
			s.FlatDistanceM += run
		case grade > 0:
			s.ClimbDistanceM += run
		default:
			s.DownDistanceM += run
		}
	}
	if !math.IsInf(maxGrade, 0) {
		s.GradeMaxPercent = maxGrade * 100
		s.GradeMinPercent = minGrade * 100
	}

	if t.HasCoordinates() {
		lat := stat.Mean(t.Latitudes, nil)
		lon := stat.Mean(t.Longitudes, nil)
		s.CenterLatitude = &lat
		s.CenterLongitude = &lon
	}

	return s
}
