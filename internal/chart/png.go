package chart

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/runtimeterrors/trailrunners/internal/segment"
)

// Default raster size in pixels
const (
	DefaultPNGWidth  = 1200
	DefaultPNGHeight = 500
	MaxPNGDimension  = 4000
)

const (
	pngDPI      = 96
	bandOpacity = 110
)

var elevationRGBA = color.RGBA{R: 0x69, G: 0xa7, B: 0x42, A: 0xff}

// RenderPNG writes a static elevation profile with one coloured polygon per
// segment. widthPx and heightPx fall back to the defaults when not positive.
func RenderPNG(w io.Writer, series segment.Series, segments []segment.Segment, title string, widthPx, heightPx int) error {
	n := series.Len()
	if n == 0 {
		return ErrEmptySeries
	}
	if widthPx <= 0 {
		widthPx = DefaultPNGWidth
	}
	if heightPx <= 0 {
		heightPx = DefaultPNGHeight
	}
	widthPx = min(widthPx, MaxPNGDimension)
	heightPx = min(heightPx, MaxPNGDimension)

	d := series.DistancesM[:n]
	e := series.ElevationsM[:n]

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range e {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	pad := math.Max((hi-lo)*0.1, 1)
	floor := math.Floor(lo - pad)

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Distance (m)"
	p.Y.Label.Text = "Elevation (m)"
	p.Legend.Top = true

	legended := map[segment.Tier]bool{}
	for _, s := range segments {
		from := max(0, s.StartIndex-1)
		to := min(n-1, s.EndIndex)
		if to <= from {
			continue
		}

		pts := make(plotter.XYs, 0, to-from+3)
		for j := from; j <= to; j++ {
			pts = append(pts, plotter.XY{X: d[j], Y: e[j]})
		}
		pts = append(pts, plotter.XY{X: d[to], Y: floor}, plotter.XY{X: d[from], Y: floor})

		poly, err := plotter.NewPolygon(pts)
		if err != nil {
			return fmt.Errorf("segment %d polygon: %w", s.Index, err)
		}
		poly.Color = s.Difficulty.NRGBA(bandOpacity)
		poly.LineStyle.Width = 0
		p.Add(poly)

		if !legended[s.Difficulty] {
			legended[s.Difficulty] = true
			p.Legend.Add(fmt.Sprintf("%s (%s)", s.Difficulty, s.Difficulty.RangeText()), poly)
		}
	}

	xys := make(plotter.XYs, n)
	for i := range xys {
		xys[i].X = d[i]
		xys[i].Y = e[i]
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		return fmt.Errorf("elevation line: %w", err)
	}
	line.Color = elevationRGBA
	line.Width = vg.Points(2)
	p.Add(line)
	p.Legend.Add("Elevation Profile", line)

	p.X.Min = 0
	p.X.Max = math.Max(series.TotalDistanceM, d[n-1])
	p.Y.Min = floor
	p.Y.Max = hi + pad

	wt, err := p.WriterTo(vg.Length(widthPx)*vg.Inch/pngDPI, vg.Length(heightPx)*vg.Inch/pngDPI, "png")
	if err != nil {
		return fmt.Errorf("create png writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}
