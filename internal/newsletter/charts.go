package newsletter

import (
	"time"

	"hodl-digest/internal/chart"
	"hodl-digest/internal/domain"
)

// DefaultMaxTotalPoints caps the sum of points across all series of one chart.
// QuickChart starts rejecting configs well above this.
const DefaultMaxTotalPoints = 280

const (
	priceTurningPoints  = 12
	bundleTurningPoints = 10
)

// ChartOptions configures the trend chart builders.
type ChartOptions struct {
	Location       *time.Location
	MaxTotalPoints int
}

func (o ChartOptions) budget() int {
	if o.MaxTotalPoints <= 0 {
		return DefaultMaxTotalPoints
	}
	return o.MaxTotalPoints
}

// ChartBuilder turns one day of snapshots into a chart spec, or nil when there
// is not enough data for the section.
type ChartBuilder func(rows []domain.AggregateSnapshot, opts ChartOptions) chart.Spec

// ChartBuilders lists the builders in section order.
func ChartBuilders() []ChartBuilder {
	return []ChartBuilder{
		BuildPriceTrend,
		BuildOnlineGauges,
		BuildCommunityBundle,
		BuildOperationsBar,
	}
}

// BuildPriceTrend normalizes the four prices onto one axis and annotates turning
// points with the raw prices.
func BuildPriceTrend(rows []domain.AggregateSnapshot, opts ChartOptions) chart.Spec {
	if len(rows) < 2 {
		return nil
	}
	sorted := SortSnapshots(rows)
	labels := timeLabels(sorted, opts.Location)
	v2ex := extract(sorted, func(r domain.AggregateSnapshot) float64 { return Round(r.Price, 6) })
	btc := extract(sorted, func(r domain.AggregateSnapshot) float64 { return Round(r.BTCPrice, 2) })
	sol := extract(sorted, func(r domain.AggregateSnapshot) float64 { return Round(r.SOLPrice, 3) })
	pump := extract(sorted, func(r domain.AggregateSnapshot) float64 { return Round(r.PumpPrice, 6) })

	labels, raw := Downsample(labels, [][]float64{v2ex, btc, sol, pump}, opts.budget())
	normalized := Normalize(raw)

	names := []string{"V2EX", "BTC", "SOL", "PUMP"}
	colors := []string{"#2b90d9", "#f7931a", "#14f195", "#9b59b6"}
	digits := []int{6, 2, 3, 6}

	series := make([]chart.Series, len(raw))
	for i := range raw {
		series[i] = chart.Series{
			Name:     names[i],
			Color:    colors[i],
			Values:   normalized[i],
			Raw:      displayStrings(raw[i], "$", digits[i]),
			Annotate: TurningPoints(normalized[i], priceTurningPoints),
		}
	}
	return chart.PriceTrend{Labels: labels, Series: series}
}

// BuildOnlineGauges plots current against peak online users without normalization.
func BuildOnlineGauges(rows []domain.AggregateSnapshot, opts ChartOptions) chart.Spec {
	if len(rows) < 2 {
		return nil
	}
	sorted := SortSnapshots(rows)
	labels := timeLabels(sorted, opts.Location)
	current := extract(sorted, func(r domain.AggregateSnapshot) float64 { return float64(r.CurrentOnlineUsers) })
	peak := extract(sorted, func(r domain.AggregateSnapshot) float64 { return float64(r.PeakOnlineUsers) })

	labels, series := Downsample(labels, [][]float64{current, peak}, opts.budget())
	return chart.OnlineGauges{
		Labels:  labels,
		Current: chart.Series{Name: "当前在线", Color: "#2ecc71", Values: series[0]},
		Peak:    chart.Series{Name: "峰值在线", Color: "#e74c3c", Values: series[1]},
	}
}

// BuildCommunityBundle normalizes large holders, holders and linked addresses.
func BuildCommunityBundle(rows []domain.AggregateSnapshot, opts ChartOptions) chart.Spec {
	if len(rows) < 2 {
		return nil
	}
	sorted := SortSnapshots(rows)
	labels := timeLabels(sorted, opts.Location)
	top10k := extract(sorted, func(r domain.AggregateSnapshot) float64 { return float64(r.Hodl10kAddressesCount) })
	holders := extract(sorted, func(r domain.AggregateSnapshot) float64 { return float64(r.Holders) })
	linked := extract(sorted, func(r domain.AggregateSnapshot) float64 { return float64(r.TotalSolanaAddressesLinked) })

	labels, raw := Downsample(labels, [][]float64{top10k, holders, linked}, opts.budget())
	normalized := Normalize(raw)

	names := []string{"持有≥1万地址数", "持币人数", "绑定地址总数"}
	colors := []string{"#9b59b6", "#2980b9", "#f1c40f"}

	series := make([]chart.Series, len(raw))
	for i := range raw {
		series[i] = chart.Series{
			Name:     names[i],
			Color:    colors[i],
			Values:   normalized[i],
			Raw:      displayStrings(raw[i], "", 0),
			Annotate: TurningPoints(normalized[i], bundleTurningPoints),
		}
	}
	return chart.CommunityBundle{Labels: labels, Series: series}
}

// BuildOperationsBar charts the counters of the latest snapshot.
func BuildOperationsBar(rows []domain.AggregateSnapshot, _ ChartOptions) chart.Spec {
	h, ok := domain.LatestSnapshot(rows)
	if !ok {
		return nil
	}
	values := []struct {
		name  string
		value int64
	}{
		{"$V2EX总持币人数", h.Holders},
		{"10K+HODL人数", h.Hodl10kAddressesCount},
		{"通过Solana新建账号数", h.NewAccountsViaSolana},
		{"V2EX绑定SOL地址用户数", h.TotalSolanaAddressesLinked},
		{"V2EX成员发出打赏次数", h.MemberTipsSent},
		{"V2EX成员收到打赏次数", h.MemberTipsReceived},
		{"V2EX站内通过$V2EX打赏次数", h.V2exTokenTipCount},
		{"V2EX站内通过SOL打赏次数", h.SolTipOperationsCount},
	}
	metrics := make([]chart.Metric, len(values))
	for i, v := range values {
		metrics[i] = chart.Metric{
			Name:    v.name,
			Value:   float64(v.value),
			Display: FormatNumber(float64(v.value), 0),
		}
	}
	return chart.OperationsBar{Label: "今日概览", Metrics: metrics}
}

func timeLabels(rows []domain.AggregateSnapshot, loc *time.Location) []string {
	labels := make([]string, len(rows))
	for i, r := range rows {
		labels[i] = TimeLabel(r.CreatedAt, loc)
	}
	return labels
}

func extract(rows []domain.AggregateSnapshot, field func(domain.AggregateSnapshot) float64) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = field(r)
	}
	return out
}

func displayStrings(values []float64, prefix string, digits int) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = prefix + FormatNumber(v, digits)
	}
	return out
}
