package trail

import (
	"errors"
	"fmt"

	"github.com/tkrajina/gpxgo/gpx"
)

// GPX inspection errors
var (
	ErrGPXEmpty       = errors.New("gpx file has no track or route points")
	ErrGPXNoElevation = errors.New("gpx file has no elevation data")
)

// GPXInfo describes an uploaded GPX file before it is sent to the backend
type GPXInfo struct {
	Name           string  `json:"name"`
	Tracks         int     `json:"tracks"`
	Points         int     `json:"points"`
	WithElevation  int     `json:"with_elevation"`
	Length2DMeters float64 `json:"length_2d_m"`
}

// InspectGPX parses data and checks that it is usable for an elevation
// profile: at least one track or route point, the first one carrying an elevation.
func InspectGPX(data []byte) (GPXInfo, error) {
	g, err := gpx.ParseBytes(data)
	if err != nil {
		return GPXInfo{}, fmt.Errorf("error parsing gpx: %w", err)
	}

	info := GPXInfo{
		Name:           g.Name,
		Tracks:         len(g.Tracks),
		Length2DMeters: g.Length2D(),
	}

	firstHasElevation := false
	count := func(points []gpx.GPXPoint) {
		for _, p := range points {
			if info.Points == 0 {
				firstHasElevation = p.Elevation.NotNull()
			}
			info.Points++
			if p.Elevation.NotNull() {
				info.WithElevation++
			}
		}
	}
	for _, track := range g.Tracks {
		if info.Name == "" {
			info.Name = track.Name
		}
		for _, seg := range track.Segments {
			count(seg.Points)
		}
	}
	for _, route := range g.Routes {
		count(route.Points)
	}

	if info.Points == 0 {
		return info, ErrGPXEmpty
	}
	if !firstHasElevation {
		return info, ErrGPXNoElevation
	}
	return info, nil
}
