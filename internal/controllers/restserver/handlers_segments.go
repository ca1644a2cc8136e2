package restserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/runtimeterrors/trailrunners/internal/chart"
	"github.com/runtimeterrors/trailrunners/internal/segment"
	"github.com/runtimeterrors/trailrunners/internal/trail"
)

var (
	errSegmentCount = errors.New("segment count out of range")
	errSource       = errors.New("unknown segmentation source")
)

// decodeTrailRequest reads and validates the trail carried by a request body
func (h *Handlers) decodeTrailRequest(w http.ResponseWriter, req *http.Request) (*TrailRequest, bool) {
	req.Body = http.MaxBytesReader(w, req.Body, h.controller.maxUploadBytes())

	var tr TrailRequest
	if err := json.NewDecoder(req.Body).Decode(&tr); err != nil {
		h.sendError(w, req, http.StatusBadRequest, "Invalid JSON payload", err)
		return nil, false
	}
	if tr.Trail == nil {
		h.sendError(w, req, http.StatusBadRequest, "A trail is required", nil)
		return nil, false
	}
	if err := tr.Trail.Validate(); err != nil {
		h.sendError(w, req, http.StatusBadRequest, "Invalid trail", err)
		return nil, false
	}
	return &tr, true
}

// resolveSource turns the requested segment count and source into a segmentation choice
func (h *Handlers) resolveSource(tr *TrailRequest) (segment.Source, error) {
	chartCfg := h.controller.cfg.Chart

	count := tr.Segments
	if count == 0 {
		count = chartCfg.DefaultSegments
	}
	if count < 1 || count > chartCfg.MaxSegments {
		return segment.Source{}, fmt.Errorf("%w: %d is not between 1 and %d", errSegmentCount, tr.Segments, chartCfg.MaxSegments)
	}

	switch tr.Source {
	case "", sourceAuto:
		return tr.Trail.Source(chartCfg.PreferBackendSegments, count), nil
	case sourceFrontend:
		return segment.Frontend(count), nil
	case sourceBackend:
		return tr.Trail.Source(true, count), nil
	default:
		return segment.Source{}, fmt.Errorf("%w: %q", errSource, tr.Source)
	}
}

// segmentTrail decodes the request and segments its trail
func (h *Handlers) segmentTrail(w http.ResponseWriter, req *http.Request) (*TrailRequest, segment.Source, []segment.Segment, bool) {
	tr, ok := h.decodeTrailRequest(w, req)
	if !ok {
		return nil, segment.Source{}, nil, false
	}

	src, err := h.resolveSource(tr)
	if err != nil {
		h.sendError(w, req, http.StatusBadRequest, "Invalid segmentation parameters", err)
		return nil, segment.Source{}, nil, false
	}

	segments := src.Segments(tr.Trail.Series())
	if segments == nil {
		segments = []segment.Segment{}
	}
	return tr, src, segments, true
}

// GetSegments splits a trail into difficulty-classified segments and their rendering bands
func (h *Handlers) GetSegments(w http.ResponseWriter, req *http.Request) {
	tr, src, segments, ok := h.segmentTrail(w, req)
	if !ok {
		return
	}

	bands := segment.GroupByDifficulty(segments, tr.Trail.Series())
	if bands == nil {
		bands = []segment.Band{}
	}

	h.writeResponse(w, req, SegmentsResponse{
		Segments: segments,
		Bands:    bands,
		Legend:   chart.Legend(),
		Source:   src.Kind(),
		Count:    len(segments),
	})
}

// LookupSegment finds the segment under a hovered distance
func (h *Handlers) LookupSegment(w http.ResponseWriter, req *http.Request) {
	tr, _, segments, ok := h.segmentTrail(w, req)
	if !ok {
		return
	}
	if tr.DistanceM == nil || math.IsNaN(*tr.DistanceM) || math.IsInf(*tr.DistanceM, 0) {
		h.sendError(w, req, http.StatusBadRequest, "A finite distance_m is required", nil)
		return
	}
	d := *tr.DistanceM

	s, found := segment.FindSegmentAt(d, segments)
	if !found {
		h.sendError(w, req, http.StatusNotFound, fmt.Sprintf("No segment at %.2f m", d), nil)
		return
	}

	elevation, _ := tr.Trail.Series().ElevationAt(d)
	h.writeResponse(w, req, LookupResponse{
		DistanceM:  d,
		ElevationM: elevation,
		Segment:    s,
		Tooltip:    chart.Tooltip(d, elevation, segments),
	})
}

// GetSummary returns the dashboard statistics of a trail
func (h *Handlers) GetSummary(w http.ResponseWriter, req *http.Request) {
	tr, ok := h.decodeTrailRequest(w, req)
	if !ok {
		return
	}
	h.writeResponse(w, req, trail.Summarize(tr.Trail))
}

// GetGeoJSON returns the map overlay of a trail with its coloured segments
func (h *Handlers) GetGeoJSON(w http.ResponseWriter, req *http.Request) {
	tr, _, segments, ok := h.segmentTrail(w, req)
	if !ok {
		return
	}

	fc, err := trail.GeoJSON(tr.Trail, trailName(tr), segments)
	if err != nil {
		if errors.Is(err, trail.ErrNoCoordinates) {
			h.sendError(w, req, http.StatusBadRequest, "Trail has no coordinates", err)
			return
		}
		h.sendError(w, req, http.StatusInternalServerError, "Error building GeoJSON", err)
		return
	}
	h.writeResponse(w, req, fc)
}

// RenderChart returns the interactive elevation chart of a trail as an HTML page
func (h *Handlers) RenderChart(w http.ResponseWriter, req *http.Request) {
	tr, _, segments, ok := h.segmentTrail(w, req)
	if !ok {
		return
	}

	series := tr.Trail.Series()
	bands := segment.GroupByDifficulty(segments, series)
	opts := chart.Options{
		Title:      trailName(tr),
		Theme:      h.controller.cfg.Chart.Theme,
		AssetsHost: h.controller.cfg.Chart.AssetsHost,
	}

	var buf bytes.Buffer
	if err := chart.RenderHTML(&buf, series, segments, bands, opts); err != nil {
		h.sendRenderError(w, req, err)
		return
	}
	h.formatter.WriteRaw(w, "text/html; charset=utf-8", buf.Bytes(), nil)
}

// RenderProfilePNG returns a static elevation profile image
func (h *Handlers) RenderProfilePNG(w http.ResponseWriter, req *http.Request) {
	tr, _, segments, ok := h.segmentTrail(w, req)
	if !ok {
		return
	}

	width, height := tr.Width, tr.Height
	if v, err := strconv.Atoi(req.URL.Query().Get("width")); err == nil {
		width = v
	}
	if v, err := strconv.Atoi(req.URL.Query().Get("height")); err == nil {
		height = v
	}

	var buf bytes.Buffer
	if err := chart.RenderPNG(&buf, tr.Trail.Series(), segments, trailName(tr), width, height); err != nil {
		h.sendRenderError(w, req, err)
		return
	}
	h.formatter.WriteRaw(w, "image/png", buf.Bytes(), nil)
}

func (h *Handlers) sendRenderError(w http.ResponseWriter, req *http.Request, err error) {
	if errors.Is(err, chart.ErrEmptySeries) {
		h.sendError(w, req, http.StatusBadRequest, "Trail has no samples", err)
		return
	}
	h.sendError(w, req, http.StatusInternalServerError, "Error rendering chart", err)
}

func trailName(tr *TrailRequest) string {
	if tr.Name != "" {
		return tr.Name
	}
	return "Trail"
}
