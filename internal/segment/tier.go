package segment

import (
	"fmt"
	"image/color"
	"math"
)

// Tier is the difficulty classification of a segment, derived from its absolute gradient
type Tier int

const (
	Easy Tier = iota
	Moderate
	Hard
	VeryHard
)

// Gradient breakpoints. Each tier covers a half-open interval [lower, upper).
const (
	ModerateGradient = 0.05
	HardGradient     = 0.10
	VeryHardGradient = 0.15
)

// Tiers lists every tier in ascending difficulty
var Tiers = []Tier{Easy, Moderate, Hard, VeryHard}

type tierStyle struct {
	name      string
	label     string
	rangeText string
	r, g, b   uint8
}

var tierStyles = [...]tierStyle{
	Easy:     {name: "easy", label: "Easy", rangeText: "<5%", r: 34, g: 197, b: 94},
	Moderate: {name: "moderate", label: "Moderate", rangeText: "5-10%", r: 234, g: 179, b: 8},
	Hard:     {name: "hard", label: "Hard", rangeText: "10-15%", r: 249, g: 115, b: 22},
	VeryHard: {name: "very_hard", label: "Very Hard", rangeText: ">15%", r: 239, g: 68, b: 68},
}

// Classify maps a gradient to its difficulty tier using |gradient|.
// NaN is treated as flat ground; infinities are VeryHard.
func Classify(gradient float64) Tier {
	g := math.Abs(gradient)
	switch {
	case math.IsNaN(g):
		return Easy
	case g < ModerateGradient:
		return Easy
	case g < HardGradient:
		return Moderate
	case g < VeryHardGradient:
		return Hard
	default:
		return VeryHard
	}
}

func (t Tier) style() tierStyle {
	if t < Easy || t > VeryHard {
		return tierStyles[Easy]
	}
	return tierStyles[t]
}

// String returns the display label, e.g. "Very Hard"
func (t Tier) String() string {
	return t.style().label
}

// RangeText returns the human readable gradient range of the tier
func (t Tier) RangeText() string {
	return t.style().rangeText
}

// Color returns the translucent band fill colour
func (t Tier) Color() string {
	return t.rgba(0.3)
}

// BorderColor returns the band outline colour
func (t Tier) BorderColor() string {
	return t.rgba(0.8)
}

// Swatch returns the legend swatch colour
func (t Tier) Swatch() string {
	return t.rgba(0.6)
}

func (t Tier) rgba(alpha float64) string {
	s := t.style()
	return fmt.Sprintf("rgba(%d, %d, %d, %.1f)", s.r, s.g, s.b, alpha)
}

// NRGBA returns the tier colour with the given alpha for raster rendering
func (t Tier) NRGBA(alpha uint8) color.NRGBA {
	s := t.style()
	return color.NRGBA{R: s.r, G: s.g, B: s.b, A: alpha}
}

// MarshalText encodes the tier as its machine name ("easy", "very_hard", ...)
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.style().name), nil
}

// UnmarshalText accepts either the machine name or the display label
func (t *Tier) UnmarshalText(text []byte) error {
	s := string(text)
	for _, tier := range Tiers {
		st := tierStyles[tier]
		if s == st.name || s == st.label {
			*t = tier
			return nil
		}
	}
	return fmt.Errorf("unknown difficulty tier %q", s)
}
