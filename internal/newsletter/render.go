// Package newsletter derives and renders the daily holder digest from one day of
// snapshot rows. Everything here is a pure function of its inputs.
package newsletter

import (
	"fmt"
	"strings"
	"time"

	"hodl-digest/internal/chart"
	"hodl-digest/internal/domain"
)

// section is one chart block of the digest, in document order.
type section struct {
	kind    chart.Kind
	heading string
	alt     string
}

var chartSections = []section{
	{chart.KindPriceTrend, "聚合价格走势", "聚合价格走势"},
	{chart.KindOnlineGauges, "当天在线人数变化", "在线人数"},
	{chart.KindCommunityBundle, "社区规模变化", "规模变化"},
	{chart.KindOperationsBar, "运营数据概览", "运营数据"},
}

// RenderOptions configures the renderer.
type RenderOptions struct {
	TopHolders     int
	IncludeRemoved bool
}

// Input is everything one digest is rendered from. Charts holds the image of every
// section that could be built; missing kinds are omitted from the document.
type Input struct {
	Snapshots []domain.AggregateSnapshot
	Changes   []domain.HolderChangeEvent
	Removed   []domain.RemovedHolderRecord
	Charts    map[chart.Kind]domain.ChartImage
}

// Renderer assembles the Markdown digest.
type Renderer struct {
	opts RenderOptions
	now  func() time.Time // Injectable clock for deterministic titles
}

func NewRenderer(opts RenderOptions) *Renderer {
	if opts.TopHolders <= 0 {
		opts.TopHolders = DefaultTopHolders
	}
	return &Renderer{opts: opts, now: time.Now}
}

// WithClock sets a custom clock function for deterministic output.
func (r *Renderer) WithClock(now func() time.Time) *Renderer {
	r.now = now
	return r
}

// Title names the digest after the day before now.
func Title(now time.Time) string {
	y := now.AddDate(0, 0, -1)
	return fmt.Sprintf("$V2EX日报(%d-%d-%d)", y.Year(), int(y.Month()), y.Day())
}

func (r *Renderer) Render(in Input) domain.Article {
	parts := []string{"> 早上好！以下为昨日摘要：", ""}

	var summary []string
	if latest, ok := domain.LatestSnapshot(in.Snapshots); ok {
		summary = summaryLines(latest)
	}
	parts = append(parts, strings.Join(summary, "\n"), "")

	for _, s := range chartSections {
		img, ok := in.Charts[s.kind]
		if !ok || img.URL == "" {
			continue
		}
		parts = append(parts,
			"## "+s.heading,
			"",
			fmt.Sprintf("![%s](%s)", s.alt, img.URL),
			"",
		)
	}

	parts = append(parts, fmt.Sprintf("## TOP%d 变动信息", r.opts.TopHolders), "")
	changed := ChangedHolders(TopHolderChanges(in.Changes, r.opts.TopHolders))
	if len(changed) == 0 {
		parts = append(parts, "- 无")
	} else {
		parts = append(parts, changeTable(changed)...)
		parts = append(parts, "")
	}

	if r.opts.IncludeRemoved && len(in.Removed) > 0 {
		parts = append(parts, "## 今日移出地址", "")
		parts = append(parts, removedTable(in.Removed)...)
		parts = append(parts, "")
	}

	parts = append(parts,
		"----",
		"此报告由 [V2EX Info](https://v2ex.info) 提供数据, 由 [Newsletter Report Bot](https://v2ex.info/tools/daily-report-bot) 自动生成。",
		"",
		"此报告仅供参考，不构成任何投资建议。投资有风险，入市需谨慎。",
		"",
	)

	return domain.Article{Title: Title(r.now()), Content: strings.Join(parts, "\n")}
}

func summaryLines(h domain.AggregateSnapshot) []string {
	return []string{
		"- 持币人数：" + FormatNumber(float64(h.Holders), 0),
		"- 10k+HODL用户数：" + FormatNumber(float64(h.Hodl10kAddressesCount), 0),
		"- Solana创建用户数：" + FormatNumber(float64(h.NewAccountsViaSolana), 0),
		"- 绑定SOL地址用户数：" + FormatNumber(float64(h.TotalSolanaAddressesLinked), 0),
		"- $V2EX价格变动(24h)：" + FormatPercentage(h.PriceChange24h),
		"- 当日收盘价格：",
		"BTC - $" + FormatNumber(h.BTCPrice, 2),
		"SOL - $" + FormatNumber(h.SOLPrice, 2),
		"PUMP - $" + FormatNumber(h.PumpPrice, 4),
		"V2EX - $" + FormatNumber(h.Price, 4),
	}
}

func changeTable(rows []domain.HolderChangeEvent) []string {
	lines := []string{
		"| 排名 | 地址 | 持有数量 | 持仓比例 | 排名变化 | 数量变化 |",
		"| ---: | --- | ---: | ---: | ---: | ---: |",
	}
	for _, d := range rows {
		rank := "-"
		if d.Rank != nil {
			rank = fmt.Sprintf("#%d", *d.Rank)
		}
		rankDelta := ""
		if d.RankDelta != nil {
			rankDelta = FormatSigned(*d.RankDelta)
		}
		amountDelta := ""
		if d.AmountDelta != nil {
			amountDelta = FormatSignedCompact(float64(*d.AmountDelta))
		}
		lines = append(lines, fmt.Sprintf("| %s | %s | %s | %s | %s | %s |",
			rank,
			Shorten(d.OwnerAddress, 4, 4),
			FormatCompact(float64(d.Amount)),
			FormatPercentage(d.Percentage),
			rankDelta,
			amountDelta,
		))
	}
	return lines
}

func removedTable(rows []domain.RemovedHolderRecord) []string {
	lines := []string{
		"| 原排名 | 用户 | 持有数量 | 持仓比例 |",
		"| ---: | --- | ---: | ---: |",
	}
	for _, r := range rows {
		rank := "-"
		if r.Rank != nil {
			rank = fmt.Sprintf("#%d", *r.Rank)
		}
		lines = append(lines, fmt.Sprintf("| %s | %s | %s | %s |",
			rank,
			DisplayName(r.Username, r.OwnerAddress),
			FormatTokenAmount(r.Amount, r.Decimals),
			FormatPercentage(r.Percentage),
		))
	}
	return lines
}
