package trail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	s := Summarize(sampleTrail())

	assert.Equal(t, 5, s.Points)
	assert.Equal(t, 1000.0, s.TotalDistanceM)
	assert.Equal(t, 1.0, s.TotalDistanceKm)

	assert.Equal(t, 100.0, s.AltitudeMin)
	assert.Equal(t, 140.0, s.AltitudeMax)
	assert.Equal(t, 100.0, s.AltitudeStart)
	assert.Equal(t, 140.0, s.AltitudeEnd)
	assert.Equal(t, 40.0, s.AltitudeChange)
	assert.InDelta(t, 4.0, s.GradePercent, 1e-9)

	assert.Equal(t, 45.0, s.TotalAscentM)
	assert.Equal(t, 5.0, s.TotalDescentM)

	// Steps: +4%, -2%, +10%, +4%
	assert.InDelta(t, 10.0, s.GradeMaxPercent, 1e-9)
	assert.InDelta(t, -2.0, s.GradeMinPercent, 1e-9)
	assert.Equal(t, 750.0, s.ClimbDistanceM)
	assert.Equal(t, 250.0, s.DownDistanceM)
	assert.Equal(t, 0.0, s.FlatDistanceM)

	require.NotNil(t, s.CenterLatitude)
	require.NotNil(t, s.CenterLongitude)
	assert.InDelta(t, 46.02, *s.CenterLatitude, 1e-9)
	assert.InDelta(t, 7.02, *s.CenterLongitude, 1e-9)
}

func TestSummarizeFlatAndDuplicateSamples(t *testing.T) {
	tr := &Trail{
		CumulativeDistancesM: []float64{0, 100, 100, 300},
		Elevations:           []float64{10, 10.5, 11, 11},
	}

	s := Summarize(tr)
	assert.Equal(t, 300.0, s.TotalDistanceM)
	assert.Equal(t, 300.0, s.FlatDistanceM)
	assert.Equal(t, 0.0, s.ClimbDistanceM)
	assert.Equal(t, 1.0, s.TotalAscentM)
	assert.Nil(t, s.CenterLatitude)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(&Trail{})
	assert.Equal(t, 0, s.Points)
	assert.Equal(t, 0.0, s.AltitudeMax)
	assert.Equal(t, 0.0, s.GradeMaxPercent)
}

func TestSummarizeSinglePoint(t *testing.T) {
	s := Summarize(&Trail{CumulativeDistancesM: []float64{0}, Elevations: []float64{321}})
	assert.Equal(t, 1, s.Points)
	assert.Equal(t, 321.0, s.AltitudeMin)
	assert.Equal(t, 0.0, s.GradeMaxPercent)
	assert.Equal(t, 0.0, s.GradePercent)
}
