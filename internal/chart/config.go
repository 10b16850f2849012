// Package chart holds the chart specifications of the daily digest and their
// Chart.js v4 configuration form as accepted by QuickChart.
package chart

import (
	"encoding/json"
	"math"
)

// Config is a Chart.js configuration object.
type Config struct {
	Type    string   `json:"type"`
	Data    Data     `json:"data"`
	Options Options  `json:"options"`
	Plugins []string `json:"plugins,omitempty"`
}

type Data struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// Point is an object data point. The datalabels plugin prints Label as-is,
// so annotations never need a formatter callback.
type Point struct {
	X     string  `json:"x"`
	Y     float64 `json:"y"`
	Label string  `json:"label,omitempty"`
}

// MarshalJSON writes a non-finite Y as null, which spanGaps draws as a gap.
func (p Point) MarshalJSON() ([]byte, error) {
	out := struct {
		X     string   `json:"x"`
		Y     *float64 `json:"y"`
		Label string   `json:"label,omitempty"`
	}{X: p.X, Label: p.Label}
	if Finite(p.Y) {
		out.Y = &p.Y
	}
	return json.Marshal(out)
}

// Finite reports whether v is neither NaN nor an infinity.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

type Dataset struct {
	Label                  string         `json:"label"`
	Data                   []Point        `json:"data"`
	BorderColor            string         `json:"borderColor,omitempty"`
	BackgroundColor        string         `json:"backgroundColor,omitempty"`
	Fill                   bool           `json:"fill"`
	Tension                float64        `json:"tension,omitempty"`
	CubicInterpolationMode string         `json:"cubicInterpolationMode,omitempty"`
	PointRadius            float64        `json:"pointRadius,omitempty"`
	PointHitRadius         float64        `json:"pointHitRadius,omitempty"`
	Datalabels             *DatasetLabels `json:"datalabels,omitempty"`
}

// DatasetLabels uses the indexable form of the datalabels display option:
// one entry per data point.
type DatasetLabels struct {
	Display []bool `json:"display"`
	Align   string `json:"align,omitempty"`
	Anchor  string `json:"anchor,omitempty"`
	Color   string `json:"color,omitempty"`
	Font    *Font  `json:"font,omitempty"`
}

type Options struct {
	SpanGaps bool          `json:"spanGaps,omitempty"`
	Plugins  PluginOptions `json:"plugins"`
	Scales   Scales        `json:"scales"`
}

type PluginOptions struct {
	Legend     Legend      `json:"legend"`
	Datalabels *Datalabels `json:"datalabels,omitempty"`
}

type Legend struct {
	Display  bool   `json:"display"`
	Position string `json:"position,omitempty"`
}

type Datalabels struct {
	Anchor          string `json:"anchor,omitempty"`
	Align           string `json:"align,omitempty"`
	Color           string `json:"color,omitempty"`
	BackgroundColor string `json:"backgroundColor,omitempty"`
	BorderRadius    int    `json:"borderRadius,omitempty"`
	Padding         int    `json:"padding,omitempty"`
	Offset          int    `json:"offset,omitempty"`
	Font            *Font  `json:"font,omitempty"`
	Clip            bool   `json:"clip"`
}

type Font struct {
	Size   int    `json:"size,omitempty"`
	Weight string `json:"weight,omitempty"`
}

type Scales struct {
	Y Axis `json:"y"`
}

type Axis struct {
	BeginAtZero  bool     `json:"beginAtZero"`
	SuggestedMax *float64 `json:"suggestedMax,omitempty"`
	Ticks        *Ticks   `json:"ticks,omitempty"`
	Grid         *Grid    `json:"grid,omitempty"`
}

type Ticks struct {
	Display bool `json:"display"`
}

type Grid struct {
	Display bool   `json:"display"`
	Color   string `json:"color,omitempty"`
}
