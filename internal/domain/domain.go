package domain

// Article is a rendered Markdown document ready for publishing.
type Article struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// ChartImage is a renderable chart reference. Degraded is set when the rendering
// service was unreachable and URL embeds the chart configuration inline.
type ChartImage struct {
	URL      string `json:"url"`
	Degraded bool   `json:"degraded"`
}

// ReportRunResult summarizes one generate-and-publish run.
type ReportRunResult struct {
	RunID          string `json:"run_id"`
	Title          string `json:"title"`
	Snapshots      int    `json:"snapshots"`
	ChangeEvents   int    `json:"change_events"`
	ChartsRendered int    `json:"charts_rendered"`
	ChartsDegraded int    `json:"charts_degraded"`
	Response       string `json:"response,omitempty"`
}
