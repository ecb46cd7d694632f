package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hsorel/shelf/internal/domain"
	"github.com/hsorel/shelf/internal/query"
	"github.com/hsorel/shelf/internal/render"
	"github.com/hsorel/shelf/internal/seed"
)

// A terminal row stands in for this many pixels when converting the
// viewport's distance-from-bottom into the controller's threshold
// units.
const rowPixels = 10

const reconcileTimeout = 60 * time.Second

var (
	typeChoices   = []domain.MediaType{"", domain.MediaTypeGame, domain.MediaTypeMovie, domain.MediaTypeShow, domain.MediaTypeBook}
	ratingChoices = []int{query.RatingAny, 5, 4, 3, 2, 1, 0}
	sortChoices   = []domain.SortField{domain.SortDate, domain.SortTitle, domain.SortRating}
)

// ReconcileDoneMsg signals that the version check (and any reseed)
// finished.
type ReconcileDoneMsg struct {
	Reseeded bool
	Err      error
}

// QueryResultsMsg carries a finished query's ordered result set.
type QueryResultsMsg struct {
	Items []domain.Record
	Err   error
}

// Model is the catalogue browser. It is also the rendering surface
// the controller populates: rendered blocks accumulate in a viewport,
// and scrolling near the bottom extends the rendered set.
type Model struct {
	engine     *query.Engine
	reconciler *seed.Reconciler
	controller *render.Controller
	logger     *slog.Logger

	searchInput textinput.Model
	viewport    viewport.Model
	ready       bool
	width       int
	height      int

	typeIdx   int
	ratingIdx int
	sortIdx   int
	ascending bool

	// Surface state
	blocks  []string
	message string
	count   string

	reconciling bool
}

func NewModel(engine *query.Engine, reconciler *seed.Reconciler, logger *slog.Logger) *Model {
	if logger == nil {
		logger = slog.Default()
	}

	ti := textinput.New()
	ti.Placeholder = "search title or author"
	ti.Prompt = "/ "
	ti.CharLimit = 64

	m := &Model{
		engine:      engine,
		reconciler:  reconciler,
		logger:      logger,
		searchInput: ti,
		reconciling: true,
	}
	m.controller = render.NewController(m, logger)
	return m
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.reconcileCmd())
}

func (m *Model) reconcileCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
		defer cancel()
		reseeded, err := m.reconciler.Run(ctx)
		return ReconcileDoneMsg{Reseeded: reseeded, Err: err}
	}
}

func (m *Model) queryCmd() tea.Cmd {
	spec := m.spec()
	return func() tea.Msg {
		items, err := m.engine.Run(spec)
		return QueryResultsMsg{Items: items, Err: err}
	}
}

func (m *Model) spec() query.Spec {
	return query.Spec{
		Type:      typeChoices[m.typeIdx],
		Rating:    ratingChoices[m.ratingIdx],
		Sort:      sortChoices[m.sortIdx],
		Ascending: m.ascending,
		Search:    m.searchInput.Value(),
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		contentHeight := msg.Height - 4 // header, status, help
		if contentHeight < 1 {
			contentHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, contentHeight)
			m.ready = true
			m.refresh()
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = contentHeight
		}
		return m, nil

	case ReconcileDoneMsg:
		m.reconciling = false
		if msg.Err != nil {
			m.logger.Error("reconcile failed", "error", msg.Err)
			m.ShowError(loadFailureMessage(msg.Err))
			return m, nil
		}
		return m, m.queryCmd()

	case QueryResultsMsg:
		if msg.Err != nil {
			m.logger.Error("query failed", "error", msg.Err)
			m.ShowError(loadFailureMessage(msg.Err))
			return m, nil
		}
		m.controller.Reset(msg.Items)
		// If the viewport is already deep enough, fill it now rather
		// than waiting for the next scroll event.
		m.extendIfNearBottom()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		m.extendIfNearBottom()
		return m, cmd
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	if m.searchInput.Focused() {
		switch msg.Type {
		case tea.KeyEsc:
			m.searchInput.Blur()
			return m, nil
		case tea.KeyEnter:
			m.searchInput.Blur()
			return m, nil
		}
		before := m.searchInput.Value()
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		if m.searchInput.Value() != before {
			return m, tea.Batch(cmd, m.queryCmd())
		}
		return m, cmd
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "/":
		m.searchInput.Focus()
		return m, textinput.Blink
	case "t":
		m.typeIdx = (m.typeIdx + 1) % len(typeChoices)
		return m, m.queryCmd()
	case "r":
		m.ratingIdx = (m.ratingIdx + 1) % len(ratingChoices)
		return m, m.queryCmd()
	case "s":
		m.sortIdx = (m.sortIdx + 1) % len(sortChoices)
		return m, m.queryCmd()
	case "o":
		m.ascending = !m.ascending
		return m, m.queryCmd()
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	m.extendIfNearBottom()
	return m, cmd
}

// extendIfNearBottom converts the viewport position into the
// controller's pixel-distance contract and lets it decide whether to
// render another page.
func (m *Model) extendIfNearBottom() {
	if !m.ready {
		return
	}
	linesBelow := m.viewport.TotalLineCount() - (m.viewport.YOffset + m.viewport.Height)
	if linesBelow < 0 {
		linesBelow = 0
	}
	m.controller.HandleScroll(linesBelow * rowPixels)
}

// === domain.Surface ===

func (m *Model) AppendItems(items []domain.Record) {
	for _, item := range items {
		m.blocks = append(m.blocks, m.renderItem(item))
	}
	m.message = ""
	m.refresh()
}

func (m *Model) SetCount(total int) {
	m.count = fmt.Sprintf("%d entries", total)
}

func (m *Model) ShowEmpty() {
	m.blocks = nil
	m.message = "Nothing found. Adjust filters or search."
	m.refresh()
}

func (m *Model) ShowError(msg string) {
	m.blocks = nil
	m.message = errorStyle.Render(msg)
	m.refresh()
}

func (m *Model) Clear() {
	m.blocks = nil
	m.message = ""
	m.refresh()
}

func (m *Model) ScrollTop() {
	if m.ready {
		m.viewport.GotoTop()
	}
}

func (m *Model) refresh() {
	if !m.ready {
		return
	}
	if m.message != "" {
		m.viewport.SetContent("\n  " + m.message)
		return
	}
	m.viewport.SetContent(strings.Join(m.blocks, "\n"))
}

func (m *Model) renderItem(item domain.Record) string {
	year := ""
	if item.Date > 0 {
		year = dimStyle.Render(time.Unix(item.Date, 0).UTC().Format("2006"))
	}
	head := lipgloss.JoinHorizontal(lipgloss.Top,
		item.RatingEmoji(), " ",
		titleStyle.Render(item.Title), " ",
		badgeStyle.Render("["+string(item.Type)+"]"), " ",
		year,
	)
	return head + "\n  " + authorStyle.Render(item.Author) + "\n"
}

// === Frame ===

func (m *Model) View() string {
	if !m.ready {
		return "loading..."
	}

	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusView())
	return b.String()
}

func (m *Model) headerView() string {
	if m.reconciling {
		return dimStyle.Render("refreshing catalogue...")
	}
	return m.searchInput.View()
}

func (m *Model) statusView() string {
	parts := []string{
		"type: " + choiceLabel(string(typeChoices[m.typeIdx]), "all"),
		"rating: " + ratingLabel(ratingChoices[m.ratingIdx]),
		"sort: " + string(sortChoices[m.sortIdx]) + orderArrow(m.ascending),
		countStyle.Render(m.count),
	}
	help := statusStyle.Render("/ search · t type · r rating · s sort · o order · q quit")
	return statusStyle.Render(strings.Join(parts, "  ·  ")) + "\n" + help
}

func choiceLabel(v, empty string) string {
	if v == "" {
		return empty
	}
	return v
}

func ratingLabel(r int) string {
	if r == query.RatingAny {
		return "any"
	}
	return fmt.Sprintf("%d", r)
}

func orderArrow(ascending bool) string {
	if ascending {
		return " ↑"
	}
	return " ↓"
}

func loadFailureMessage(err error) string {
	return "Failed to load catalogue: " + err.Error() + ". Fix the problem and restart."
}
