package chart

import (
	"fmt"

	"github.com/runtimeterrors/trailrunners/internal/segment"
)

// LegendItem is one entry of the difficulty legend
type LegendItem struct {
	Difficulty segment.Tier `json:"difficulty"`
	Text       string       `json:"text"`
	Color      string       `json:"color"`
}

// Legend returns the difficulty legend, easiest tier first
func Legend() []LegendItem {
	items := make([]LegendItem, 0, len(segment.Tiers))
	for _, t := range segment.Tiers {
		items = append(items, LegendItem{
			Difficulty: t,
			Text:       fmt.Sprintf("%s (%s)", t, t.RangeText()),
			Color:      t.Swatch(),
		})
	}
	return items
}

// Tooltip returns the hover lines for a point of the profile. Gradient lines
// are only added when a segment owns distanceM.
func Tooltip(distanceM, elevationM float64, segments []segment.Segment) []string {
	lines := []string{
		fmt.Sprintf("Distance: %.2f km", distanceM/1000),
		fmt.Sprintf("Distance: %.2f m", distanceM),
		fmt.Sprintf("Elevation: %.2f m", elevationM),
	}

	s, ok := segment.FindSegmentAt(distanceM, segments)
	if !ok {
		return lines
	}
	return append(lines,
		fmt.Sprintf("Gradient: %.1f%%", s.Gradient*100),
		fmt.Sprintf("Difficulty: %s", s.Difficulty),
		fmt.Sprintf("Elevation Gain: %.1fm", s.ElevationGainM),
	)
}

// PointTooltips returns the hover lines of every sample in series
func PointTooltips(series segment.Series, segments []segment.Segment) [][]string {
	n := series.Len()
	tips := make([][]string, n)
	for i := 0; i < n; i++ {
		tips[i] = Tooltip(series.DistancesM[i], series.ElevationsM[i], segments)
	}
	return tips
}
