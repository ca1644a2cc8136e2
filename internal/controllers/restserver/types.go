package restserver

import (
	htmltemplate "html/template"

	"github.com/runtimeterrors/trailrunners/internal/chart"
	"github.com/runtimeterrors/trailrunners/internal/log"
	"github.com/runtimeterrors/trailrunners/internal/segment"
	"github.com/runtimeterrors/trailrunners/internal/trail"
)

// Segmentation source choices accepted in requests
const (
	sourceAuto     = "auto"
	sourceFrontend = "frontend"
	sourceBackend  = "backend"
)

// TrailRequest is the body of every endpoint that works on a loaded trail.
// Segments and Source are optional; the configured defaults apply when unset.
type TrailRequest struct {
	Trail     *trail.Trail `json:"trail"`
	Name      string       `json:"name,omitempty"`
	Segments  int          `json:"segments,omitempty"`
	Source    string       `json:"source,omitempty"`
	DistanceM *float64     `json:"distance_m,omitempty"`
	Width     int          `json:"width,omitempty"`
	Height    int          `json:"height,omitempty"`
}

// SegmentsResponse is returned by /api/segments
type SegmentsResponse struct {
	Segments []segment.Segment  `json:"segments"`
	Bands    []segment.Band     `json:"bands"`
	Legend   []chart.LegendItem `json:"legend"`
	Source   segment.SourceKind `json:"source"`
	Count    int                `json:"count"`
}

// LookupResponse is returned by /api/segments/lookup
type LookupResponse struct {
	DistanceM  float64         `json:"distance_m"`
	ElevationM float64         `json:"elevation_m"`
	Segment    segment.Segment `json:"segment"`
	Tooltip    []string        `json:"tooltip"`
}

// HTTPLogsResponse is returned by /api/logs/http
type HTTPLogsResponse struct {
	Logs  []log.LogEntry `json:"logs"`
	Count int            `json:"count"`
}

// pageData is passed to every page template
type pageData struct {
	Page            string
	Title           string
	Version         string
	DefaultSegments int
	MaxSegments     int
	Legend          []legendSwatch
}

// legendSwatch is a legend entry with its colour as trusted CSS, since the
// template escaper rejects rgba() in style attributes
type legendSwatch struct {
	Text  string
	Style htmltemplate.CSS
}
