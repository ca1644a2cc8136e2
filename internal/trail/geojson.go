package trail

import (
	"errors"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/runtimeterrors/trailrunners/internal/segment"
)

// ErrNoCoordinates is returned when a map overlay is requested for a trail without coordinates
var ErrNoCoordinates = errors.New("trail has no coordinates")

// GeoJSON builds the map overlay for the trail: the whole track as a line,
// one line per segment colored by difficulty, and start/finish markers.
func GeoJSON(t *Trail, name string, segments []segment.Segment) (*geojson.FeatureCollection, error) {
	if !t.HasCoordinates() {
		return nil, ErrNoCoordinates
	}

	n := t.Len()
	fc := geojson.NewFeatureCollection()

	track := geojson.NewFeature(lineString(t, 0, n-1))
	track.Properties["kind"] = "track"
	track.Properties["name"] = name
	track.Properties["total_distance_m"] = t.TotalDistance()
	fc.Append(track)

	for _, s := range segments {
		if s.StartIndex < 0 || s.EndIndex >= n {
			continue
		}
		from := s.StartIndex
		if from > 0 {
			from--
		}
		f := geojson.NewFeature(lineString(t, from, s.EndIndex))
		f.Properties["kind"] = "segment"
		f.Properties["index"] = s.Index
		f.Properties["difficulty"] = s.Difficulty.String()
		f.Properties["color"] = s.Difficulty.BorderColor()
		f.Properties["gradient"] = s.Gradient
		fc.Append(f)
	}

	start := geojson.NewFeature(orb.Point{t.Longitudes[0], t.Latitudes[0]})
	start.Properties["kind"] = "start"
	start.Properties["elevation"] = t.Elevations[0]
	fc.Append(start)

	finish := geojson.NewFeature(orb.Point{t.Longitudes[n-1], t.Latitudes[n-1]})
	finish.Properties["kind"] = "finish"
	finish.Properties["elevation"] = t.Elevations[n-1]
	fc.Append(finish)

	return fc, nil
}

func lineString(t *Trail, from, to int) orb.LineString {
	ls := make(orb.LineString, 0, to-from+1)
	for i := from; i <= to; i++ {
		ls = append(ls, orb.Point{t.Longitudes[i], t.Latitudes[i]})
	}
	return ls
}
