package trail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gpxHeader = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">`

func TestInspectGPX(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		points   int
		expected error
	}{
		{
			name: "track with elevation",
			body: `<trk><name>Ridge</name><trkseg>
				<trkpt lat="46.0" lon="7.0"><ele>1200</ele></trkpt>
				<trkpt lat="46.001" lon="7.0"><ele>1210</ele></trkpt>
			</trkseg></trk>`,
			points: 2,
		},
		{
			name:   "route with elevation",
			body:   `<rte><rtept lat="46.0" lon="7.0"><ele>900</ele></rtept></rte>`,
			points: 1,
		},
		{
			name:     "no points",
			body:     `<trk><name>Empty</name></trk>`,
			expected: ErrGPXEmpty,
		},
		{
			name: "first point without elevation",
			body: `<trk><trkseg>
				<trkpt lat="46.0" lon="7.0"></trkpt>
				<trkpt lat="46.001" lon="7.0"><ele>1210</ele></trkpt>
			</trkseg></trk>`,
			points:   2,
			expected: ErrGPXNoElevation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := InspectGPX([]byte(gpxHeader + tt.body + `</gpx>`))
			assert.ErrorIs(t, err, tt.expected)
			if info.Points != tt.points {
				t.Errorf("Points = %d, expected %d", info.Points, tt.points)
			}
		})
	}
}

func TestInspectGPXTrackInfo(t *testing.T) {
	body := `<trk><name>Ridge</name><trkseg>
		<trkpt lat="46.0" lon="7.0"><ele>1200</ele></trkpt>
		<trkpt lat="46.01" lon="7.0"><ele>1210</ele></trkpt>
	</trkseg></trk></gpx>`

	info, err := InspectGPX([]byte(gpxHeader + body))
	require.NoError(t, err)
	assert.Equal(t, "Ridge", info.Name)
	assert.Equal(t, 1, info.Tracks)
	assert.Equal(t, 2, info.WithElevation)
	assert.InDelta(t, 1112, info.Length2DMeters, 5)
}

func TestInspectGPXGarbage(t *testing.T) {
	_, err := InspectGPX([]byte("not xml at all"))
	assert.Error(t, err)
}
