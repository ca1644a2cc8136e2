package segment

import (
	"encoding/json"
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSeries() Series {
	return Series{
		DistancesM:     []float64{0, 250, 500, 750, 1000},
		ElevationsM:    []float64{100, 110, 105, 130, 140},
		TotalDistanceM: 1000,
	}
}

func randomSeries(r *rand.Rand, n int) Series {
	d := make([]float64, n)
	e := make([]float64, n)
	e[0] = 200 + r.Float64()*100
	for i := 1; i < n; i++ {
		d[i] = d[i-1] + r.Float64()*40
		e[i] = e[i-1] + (r.Float64()-0.5)*12
	}
	return Series{DistancesM: d, ElevationsM: e, TotalDistanceM: d[n-1]}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		gradient float64
		expected Tier
	}{
		{"flat", 0, Easy},
		{"just below moderate", 0.0499, Easy},
		{"moderate boundary", 0.05, Moderate},
		{"moderate", 0.07, Moderate},
		{"hard boundary", 0.10, Hard},
		{"hard descent", -0.12, Hard},
		{"very hard boundary", 0.15, VeryHard},
		{"steep descent", -0.4, VeryHard},
		{"easy descent", -0.01, Easy},
		{"NaN", math.NaN(), Easy},
		{"positive infinity", math.Inf(1), VeryHard},
		{"negative infinity", math.Inf(-1), VeryHard},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.gradient)
			if got != tt.expected {
				t.Errorf("Classify(%v) = %q, expected %q", tt.gradient, got, tt.expected)
			}
			if again := Classify(tt.gradient); again != got {
				t.Errorf("Classify(%v) not stable: %q then %q", tt.gradient, got, again)
			}
		})
	}
}

func TestTierStyles(t *testing.T) {
	assert.Equal(t, "rgba(34, 197, 94, 0.3)", Easy.Color())
	assert.Equal(t, "rgba(239, 68, 68, 0.8)", VeryHard.BorderColor())
	assert.Equal(t, "rgba(249, 115, 22, 0.6)", Hard.Swatch())
	assert.Equal(t, "Very Hard", VeryHard.String())
	assert.Equal(t, "5-10%", Moderate.RangeText())

	text, err := Hard.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "hard", string(text))

	var tier Tier
	require.NoError(t, tier.UnmarshalText([]byte("Very Hard")))
	assert.Equal(t, VeryHard, tier)
	require.NoError(t, tier.UnmarshalText([]byte("moderate")))
	assert.Equal(t, Moderate, tier)
	assert.Error(t, tier.UnmarshalText([]byte("brutal")))
}

func TestBuildSegmentsTwoBuckets(t *testing.T) {
	segments := BuildSegments(sampleSeries(), 2)
	require.Len(t, segments, 2)

	first := segments[0]
	assert.Equal(t, 0, first.StartIndex)
	assert.Equal(t, 2, first.EndIndex)
	assert.Equal(t, 0.0, first.StartDistanceM)
	assert.Equal(t, 500.0, first.EndDistanceM)
	assert.InDelta(t, 0.01, first.Gradient, 1e-12)
	assert.InDelta(t, 5.0, first.ElevationGainM, 1e-12)
	assert.Equal(t, Easy, first.Difficulty)

	second := segments[1]
	assert.Equal(t, 2, second.StartIndex)
	assert.Equal(t, 4, second.EndIndex)
	assert.Equal(t, 500.0, second.StartDistanceM)
	assert.Equal(t, 1000.0, second.EndDistanceM)
	assert.InDelta(t, 0.07, second.Gradient, 1e-12)
	assert.InDelta(t, 35.0, second.ElevationGainM, 1e-12)
	assert.Equal(t, Moderate, second.Difficulty)
}

func TestBuildSegmentsSingleSegment(t *testing.T) {
	series := Series{
		DistancesM:     []float64{0, 120, 380, 910},
		ElevationsM:    []float64{50, 62, 58, 81},
		TotalDistanceM: 910,
	}

	segments := BuildSegments(series, 1)
	require.Len(t, segments, 1)
	assert.Equal(t, 0, segments[0].StartIndex)
	assert.Equal(t, 3, segments[0].EndIndex)
	assert.InDelta(t, (81.0-50.0)/910.0, segments[0].Gradient, 1e-12)
}

func TestBuildSegmentsDegenerate(t *testing.T) {
	tests := []struct {
		name   string
		series Series
		count  int
	}{
		{"empty series", Series{}, 3},
		{"zero total", Series{DistancesM: []float64{0, 0}, ElevationsM: []float64{1, 2}}, 2},
		{"negative total", Series{DistancesM: []float64{0}, ElevationsM: []float64{1}, TotalDistanceM: -5}, 2},
		{"NaN total", Series{DistancesM: []float64{0}, ElevationsM: []float64{1}, TotalDistanceM: math.NaN()}, 2},
		{"zero count", sampleSeries(), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, BuildSegments(tt.series, tt.count))
		})
	}
}

func TestBuildSegmentsCoverage(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for _, n := range []int{1, 2, 7, 150, 1200} {
		series := randomSeries(r, n)
		if series.TotalDistanceM <= 0 {
			continue
		}
		for _, k := range []int{1, 2, 3, 10, 20, 57, 200} {
			segments := BuildSegments(series, k)
			require.Len(t, segments, k, "n=%d k=%d", n, k)

			assert.Equal(t, 0.0, segments[0].StartDistanceM)
			assert.Equal(t, series.TotalDistanceM, segments[k-1].EndDistanceM)
			assert.Equal(t, n-1, segments[k-1].EndIndex, "last segment must own the final sample")

			for i, s := range segments {
				assert.Equal(t, i, s.Index)
				assert.LessOrEqual(t, s.StartIndex, s.EndIndex)
				if i > 0 {
					assert.Equal(t, segments[i-1].EndDistanceM, s.StartDistanceM, "segments must be contiguous")
				}
			}
		}
	}
}

func TestBuildSegmentsIdempotent(t *testing.T) {
	series := randomSeries(rand.New(rand.NewSource(7)), 400)

	first := BuildSegments(series, 20)
	second := BuildSegments(series, 20)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("BuildSegments is not deterministic (-first +second):\n%s", diff)
	}
}

func TestBuildSegmentsSparseSamplingCollapses(t *testing.T) {
	series := Series{
		DistancesM:     []float64{0, 1000},
		ElevationsM:    []float64{0, 50},
		TotalDistanceM: 1000,
	}

	segments := BuildSegments(series, 4)
	require.Len(t, segments, 4)

	// The middle buckets hold no samples and collapse onto the next sample.
	for _, s := range segments[1:3] {
		assert.Equal(t, s.StartIndex, s.EndIndex)
		assert.Equal(t, 0.0, s.Gradient)
		assert.Equal(t, 0.0, s.ElevationGainM)
		assert.Greater(t, series.DistancesM[s.EndIndex], s.EndDistanceM, "end index may point past the bucket end")
	}
	assert.Equal(t, 1, segments[3].EndIndex)
}

func TestBuildSegmentsTotalBeyondLastSample(t *testing.T) {
	series := Series{
		DistancesM:     []float64{0, 100},
		ElevationsM:    []float64{10, 20},
		TotalDistanceM: 1000,
	}

	segments := BuildSegments(series, 2)
	require.Len(t, segments, 2)
	// No sample reaches the second bucket, so it falls back to the first sample.
	assert.Equal(t, 0, segments[1].StartIndex)
	assert.Equal(t, 1, segments[1].EndIndex)
	assert.InDelta(t, 0.1, segments[1].Gradient, 1e-12)
}

func TestFindSegmentAt(t *testing.T) {
	segments := BuildSegments(sampleSeries(), 2)

	tests := []struct {
		name     string
		distance float64
		found    bool
		index    int
	}{
		{"trail start", 0, true, 0},
		{"inside first", 120, true, 0},
		{"shared boundary prefers lower index", 500, true, 0},
		{"just past boundary", 500.0001, true, 1},
		{"inside second", 750, true, 1},
		{"trail end", 1000, true, 1},
		{"before start", -0.5, false, 0},
		{"after end", 1000.5, false, 0},
		{"NaN", math.NaN(), false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FindSegmentAt(tt.distance, segments)
			if ok != tt.found {
				t.Fatalf("FindSegmentAt(%v) found = %v, expected %v", tt.distance, ok, tt.found)
			}
			if ok && got.Index != tt.index {
				t.Errorf("FindSegmentAt(%v) index = %d, expected %d", tt.distance, got.Index, tt.index)
			}
		})
	}
}

func TestFindSegmentAtStrictlyInside(t *testing.T) {
	series := randomSeries(rand.New(rand.NewSource(3)), 300)
	segments := BuildSegments(series, 37)

	for _, s := range segments {
		mid := (s.StartDistanceM + s.EndDistanceM) / 2
		got, ok := FindSegmentAt(mid, segments)
		require.True(t, ok)
		assert.Equal(t, s.Index, got.Index)
	}
}

func TestFindSegmentAtEmpty(t *testing.T) {
	segments := BuildSegments(Series{}, 5)
	for _, d := range []float64{0, 1, 1e6} {
		_, ok := FindSegmentAt(d, segments)
		assert.False(t, ok)
	}
}

func TestSegmentJSON(t *testing.T) {
	segments := BuildSegments(sampleSeries(), 2)

	data, err := json.Marshal(segments[1])
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "moderate", decoded["difficulty"])
	assert.Equal(t, 2.0, decoded["start_index"])
}

func TestElevationAt(t *testing.T) {
	series := sampleSeries()

	tests := []struct {
		name     string
		distance float64
		want     float64
		ok       bool
	}{
		{"first sample", 0, 100, true},
		{"on a sample", 500, 105, true},
		{"between samples", 625, 117.5, true},
		{"before start", -10, 100, true},
		{"past the end", 2000, 140, true},
		{"nan", math.NaN(), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := series.ElevationAt(tt.distance)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}

	_, ok := Series{}.ElevationAt(10)
	assert.False(t, ok)
}
