package chart

// Kind identifies one of the fixed chart sections of the digest.
type Kind string

const (
	KindPriceTrend      Kind = "price-trend"
	KindOnlineGauges    Kind = "online-gauges"
	KindCommunityBundle Kind = "community-bundle"
	KindOperationsBar   Kind = "operations-bar"
)

// Spec is implemented by PriceTrend, OnlineGauges, CommunityBundle and OperationsBar.
type Spec interface {
	Kind() Kind
	Config() Config
}

const (
	// Width, Height and Background are the render parameters sent with every chart.
	Width      = 800
	Height     = 400
	Background = "white"
	Version    = "4"
)

// Series is one line of a trend chart. Values may be normalized; Raw holds the
// display string of the original value at the same index and is printed only at
// the indices listed in Annotate.
type Series struct {
	Name     string
	Color    string
	Values   []float64
	Raw      []string
	Annotate []int
}

// PriceTrend plots the token and reference asset prices on one hidden 0..100 axis.
type PriceTrend struct {
	Labels []string
	Series []Series
}

func (PriceTrend) Kind() Kind { return KindPriceTrend }

func (c PriceTrend) Config() Config {
	return lineConfig(c.Labels, c.Series, normalizedAxis())
}

// OnlineGauges plots current and peak online users on a real axis.
type OnlineGauges struct {
	Labels  []string
	Current Series
	Peak    Series
}

func (OnlineGauges) Kind() Kind { return KindOnlineGauges }

func (c OnlineGauges) Config() Config {
	return lineConfig(c.Labels, []Series{c.Current, c.Peak}, Axis{
		BeginAtZero: true,
		Ticks:       &Ticks{Display: true},
		Grid:        &Grid{Display: true, Color: "rgba(0,0,0,0.08)"},
	})
}

// CommunityBundle plots large holders, holders and linked addresses normalized to 0..100.
type CommunityBundle struct {
	Labels []string
	Series []Series
}

func (CommunityBundle) Kind() Kind { return KindCommunityBundle }

func (c CommunityBundle) Config() Config {
	return lineConfig(c.Labels, c.Series, normalizedAxis())
}

// Metric is one bar of the operations chart.
type Metric struct {
	Name    string
	Value   float64
	Display string
}

// OperationsBar is a bar chart of a single snapshot's counters.
type OperationsBar struct {
	Label   string
	Metrics []Metric
}

func (OperationsBar) Kind() Kind { return KindOperationsBar }

func (c OperationsBar) Config() Config {
	labels := make([]string, len(c.Metrics))
	points := make([]Point, len(c.Metrics))
	show := make([]bool, len(c.Metrics))
	for i, m := range c.Metrics {
		labels[i] = m.Name
		points[i] = Point{X: m.Name, Y: m.Value, Label: m.Display}
		show[i] = true
	}
	return Config{
		Type: "bar",
		Data: Data{
			Labels: labels,
			Datasets: []Dataset{{
				Label:           c.Label,
				Data:            points,
				BackgroundColor: "rgba(43,144,217,0.6)",
				BorderColor:     "#2b90d9",
				Datalabels:      &DatasetLabels{Display: show},
			}},
		},
		Options: Options{
			Plugins: PluginOptions{
				Legend: Legend{Display: false},
				Datalabels: &Datalabels{
					Anchor:          "end",
					Align:           "top",
					Color:           "#34495e",
					BackgroundColor: "rgba(255,255,255,0.7)",
					BorderRadius:    4,
					Padding:         3,
					Offset:          2,
					Font:            &Font{Size: 10, Weight: "bold"},
					Clip:            false,
				},
			},
			Scales: Scales{Y: Axis{BeginAtZero: true}},
		},
		Plugins: []string{"datalabels"},
	}
}

func normalizedAxis() Axis {
	suggestedMax := 100.0
	return Axis{
		BeginAtZero:  true,
		SuggestedMax: &suggestedMax,
		Ticks:        &Ticks{Display: false},
		Grid:         &Grid{Display: false},
	}
}

func lineConfig(labels []string, series []Series, y Axis) Config {
	datasets := make([]Dataset, 0, len(series))
	for _, s := range series {
		datasets = append(datasets, lineDataset(labels, s))
	}
	return Config{
		Type: "line",
		Data: Data{Labels: labels, Datasets: datasets},
		Options: Options{
			SpanGaps: true,
			Plugins:  PluginOptions{Legend: Legend{Display: true, Position: "bottom"}},
			Scales:   Scales{Y: y},
		},
		Plugins: []string{"datalabels"},
	}
}

func lineDataset(labels []string, s Series) Dataset {
	annotate := make(map[int]struct{}, len(s.Annotate))
	for _, i := range s.Annotate {
		annotate[i] = struct{}{}
	}

	points := make([]Point, len(s.Values))
	show := make([]bool, len(s.Values))
	for i, v := range s.Values {
		p := Point{Y: v}
		if i < len(labels) {
			p.X = labels[i]
		}
		if _, ok := annotate[i]; ok && i < len(s.Raw) && Finite(v) {
			p.Label = s.Raw[i]
			show[i] = true
		}
		points[i] = p
	}

	return Dataset{
		Label:                  s.Name,
		Data:                   points,
		BorderColor:            s.Color,
		Fill:                   false,
		Tension:                0.5,
		CubicInterpolationMode: "monotone",
		PointRadius:            1.5,
		PointHitRadius:         6,
		Datalabels: &DatasetLabels{
			Display: show,
			Align:   "top",
			Color:   s.Color,
			Font:    &Font{Size: 9},
		},
	}
}
