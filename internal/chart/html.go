// Package chart renders elevation profiles with difficulty bands, either as
// an interactive ECharts page or as a static PNG.
package chart

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/runtimeterrors/trailrunners/internal/segment"
)

// ElevationColor is the stroke of the elevation line
const ElevationColor = "#69a742"

// ErrEmptySeries is returned when there is nothing to draw
var ErrEmptySeries = errors.New("no samples to chart")

// Options controls the interactive chart page
type Options struct {
	Title      string
	Theme      string
	AssetsHost string
	Width      string
	Height     string
}

// RenderHTML writes an interactive elevation profile page to w. Each band
// becomes one filled series; the elevation line is drawn on top of them.
func RenderHTML(w io.Writer, series segment.Series, segments []segment.Segment, bands []segment.Band, o Options) error {
	n := series.Len()
	if n == 0 {
		return ErrEmptySeries
	}
	if o.Title == "" {
		o.Title = "Elevation Profile"
	}
	if o.Width == "" {
		o.Width = "1100px"
	}
	if o.Height == "" {
		o.Height = "500px"
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: o.Title, Theme: o.Theme, Width: o.Width, Height: o.Height, AssetsHost: o.AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: o.Title, Subtitle: fmt.Sprintf("%.2f km, %d segments", series.TotalDistanceM/1000, len(segments))}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:      opts.Bool(true),
			Trigger:   "axis",
			Formatter: types.FuncStr(opts.FuncOpts(tooltipFormatter(PointTooltips(series, segments)))),
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Bottom: "0"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Min: 0, Max: series.TotalDistanceM, Name: "Distance (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true), Name: "Elevation (m)", NameLocation: "middle", NameGap: 45}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside"}, opts.DataZoom{Type: "slider"}),
	)

	for _, b := range bands {
		data := make([]opts.LineData, n)
		for i := 0; i < n; i++ {
			// "-" leaves a gap so a band only covers its own segments
			var y interface{} = "-"
			if i < len(b.Elevations) && b.Elevations[i] != nil {
				y = *b.Elevations[i]
			}
			data[i] = opts.LineData{Value: []interface{}{series.DistancesM[i], y}}
		}
		line.AddSeries(b.Label, data,
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false), ConnectNulls: opts.Bool(false)}),
			charts.WithAreaStyleOpts(opts.AreaStyle{Color: b.Color}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: b.BorderColor, Width: 1}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: b.BorderColor}),
		)
	}

	profile := make([]opts.LineData, n)
	for i := 0; i < n; i++ {
		profile[i] = opts.LineData{Value: []interface{}{series.DistancesM[i], series.ElevationsM[i]}}
	}
	line.AddSeries("Elevation Profile", profile,
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
		charts.WithLineStyleOpts(opts.LineStyle{Color: ElevationColor, Width: 2}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: ElevationColor}),
	)

	if err := line.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

// tooltipFormatter builds the axis tooltip callback. The tooltip lines are
// embedded as a literal array indexed by the hovered sample. It must stay on
// one line with single quotes because the chart options are JSON encoded.
func tooltipFormatter(tips [][]string) string {
	var b strings.Builder
	b.WriteString("function (params) { var tips = [")
	for i, lines := range tips {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('[')
		for j, l := range lines {
			if j > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('\'')
			b.WriteString(jsEscaper.Replace(l))
			b.WriteByte('\'')
		}
		b.WriteByte(']')
	}
	b.WriteString("]; var p = Array.isArray(params) ? params[0] : params; if (!p) { return ''; } var t = tips[p.dataIndex]; return t ? t.join('<br/>') : ''; }")
	return b.String()
}

// Backslashes would be doubled by the JSON encoding, so quotes are replaced
// rather than escaped.
var jsEscaper = strings.NewReplacer(`\`, "/", `'`, "’", "\n", " ")
