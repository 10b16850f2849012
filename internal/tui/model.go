package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hodl-digest/internal/domain"
	"hodl-digest/internal/newsletter"
	"hodl-digest/internal/service"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const fetchTimeout = 30 * time.Second

// DigestSource is the read-only part of the report service the console needs.
type DigestSource interface {
	Generate(ctx context.Context) (*service.Report, error)
	Holders(ctx context.Context, limit int) ([]domain.HolderRecord, error)
}

type Services struct {
	Reports  DigestSource
	Username string
}

type tab int

const (
	tabDigest tab = iota
	tabHolders
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).Padding(0, 1)
	tabStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Padding(0, 1)
	activeTab  = tabStyle.Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type digestMsg struct {
	report  *service.Report
	holders []domain.HolderRecord
	err     error
}

// AppModel is a scrollable preview of the current digest and holder ranking.
type AppModel struct {
	svc      Services
	viewport viewport.Model
	tab      tab
	report   *service.Report
	holders  []domain.HolderRecord
	err      error
	loading  bool
	width    int
	height   int
}

func NewAppModel(svc Services) *AppModel {
	return &AppModel{
		svc:      svc,
		viewport: viewport.New(80, 20),
		loading:  true,
	}
}

// SetSize is called before the program starts and on every resize.
func (m *AppModel) SetSize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	m.width = width
	m.height = height
	m.viewport.Width = width
	// header and footer take two lines each
	m.viewport.Height = max(height-4, 1)
}

func (m *AppModel) Init() tea.Cmd {
	return m.fetch()
}

func (m *AppModel) fetch() tea.Cmd {
	reports := m.svc.Reports
	return func() tea.Msg {
		if reports == nil {
			return digestMsg{err: fmt.Errorf("report service unavailable")}
		}
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		report, err := reports.Generate(ctx)
		if err != nil {
			return digestMsg{err: err}
		}
		holders, err := reports.Holders(ctx, newsletter.DefaultTopHolders)
		return digestMsg{report: report, holders: holders, err: err}
	}
}

func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			if m.loading {
				return m, nil
			}
			m.loading = true
			m.refreshContent()
			return m, m.fetch()
		case "tab":
			m.tab = (m.tab + 1) % 2
			m.refreshContent()
			m.viewport.GotoTop()
			return m, nil
		}
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		m.refreshContent()
		return m, nil
	case digestMsg:
		m.loading = false
		m.err = msg.err
		if msg.report != nil {
			m.report = msg.report
		}
		if msg.holders != nil {
			m.holders = msg.holders
		}
		m.refreshContent()
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *AppModel) refreshContent() {
	switch {
	case m.loading && m.report == nil:
		m.viewport.SetContent("Loading digest...")
	case m.tab == tabHolders:
		m.viewport.SetContent(holdersTable(m.holders))
	case m.report != nil:
		m.viewport.SetContent(m.report.Article.Content)
	default:
		m.viewport.SetContent("")
	}
}

func (m *AppModel) View() string {
	return m.header() + "\n" + m.viewport.View() + "\n" + m.footer()
}

func (m *AppModel) header() string {
	title := "V2EX digest"
	if m.report != nil {
		title = m.report.Article.Title
	}
	tabs := []string{"digest", "holders"}
	for i, name := range tabs {
		if tab(i) == m.tab {
			tabs[i] = activeTab.Render(name)
		} else {
			tabs[i] = tabStyle.Render(name)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, titleStyle.Render(title), strings.Join(tabs, ""))
}

func (m *AppModel) footer() string {
	status := fmt.Sprintf("%3.f%%", m.viewport.ScrollPercent()*100)
	if m.loading {
		status = "refreshing..."
	}
	line := helpStyle.Render(fmt.Sprintf("%s  r refresh • tab switch • q quit  %s", m.svc.Username, status))
	if m.err != nil {
		line = errStyle.Render("error: "+m.err.Error()) + "\n" + line
	}
	return line
}

func holdersTable(holders []domain.HolderRecord) string {
	if len(holders) == 0 {
		return "No holders recorded today."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%-6s %-20s %16s %8s %6s\n", "rank", "holder", "amount", "share", "Δrank")
	for _, h := range holders {
		rank := "-"
		if h.Rank != nil {
			rank = fmt.Sprintf("#%d", *h.Rank)
		}
		delta := "-"
		if h.RankDelta != nil {
			delta = newsletter.FormatSigned(*h.RankDelta)
		}
		fmt.Fprintf(&sb, "%-6s %-20s %16s %8s %6s\n",
			rank,
			newsletter.DisplayName(h.Username, h.OwnerAddress),
			newsletter.FormatTokenAmount(h.Amount, h.Decimals),
			newsletter.FormatPercentage(h.Percentage),
			delta,
		)
	}
	return sb.String()
}
