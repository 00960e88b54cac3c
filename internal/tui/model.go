// Package tui provides the interactive Bubble Tea leaderboard.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"rot-leaderboard/internal/domain"
	"rot-leaderboard/internal/leaderboard"
	"rot-leaderboard/internal/render"
	"rot-leaderboard/internal/service"
)

const maxPlayerWidth = 32

var (
	captionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

var categoryCycle = []domain.Category{
	domain.CategoryAll,
	domain.CategoryTop50,
	domain.CategoryPersonality,
}

// BoardLoader refreshes a period; applied is false when a newer request
// superseded this one.
type BoardLoader interface {
	Refresh(ctx context.Context, period domain.Period) (board *service.Board, applied bool, err error)
}

type LastUpdater interface {
	LastUpdate(ctx context.Context) (string, error)
}

type boardMsg struct {
	period  domain.Period
	board   *service.Board
	applied bool
	err     error
}

type lastUpdateMsg struct {
	text string
}

// Model implements the Bubble Tea leaderboard UI.
type Model struct {
	ctx     context.Context
	loader  BoardLoader
	updates LastUpdater

	period domain.Period
	years  []string
	months []string
	state  leaderboard.ViewState

	board      *service.Board
	visible    []leaderboard.DisplayRow
	loading    bool
	errMsg     string
	lastUpdate string

	table     table.Model
	search    textinput.Model
	searching bool

	width  int
	height int
}

// NewModel constructs the UI for period with the given initial view.
func NewModel(ctx context.Context, loader BoardLoader, updates LastUpdater, period domain.Period, state leaderboard.ViewState, now time.Time) *Model {
	m := &Model{
		ctx:     ctx,
		loader:  loader,
		updates: updates,
		period:  period,
		years:   domain.YearChoices(now),
		months:  domain.MonthChoices(),
		state:   state,
		loading: true,
	}
	m.search = textinput.New()
	m.search.Prompt = "Search: "
	m.search.CharLimit = 0
	m.search.SetValue(state.Search)
	m.table = table.New(
		table.WithColumns(columnsFor(state, nil, 80)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	m.table.SetStyles(tableStyles())
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.load(m.period), m.fetchLastUpdate())
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.relayout()
		return m, nil
	case boardMsg:
		m.applyBoard(msg)
		return m, nil
	case lastUpdateMsg:
		m.lastUpdate = msg.text
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m *Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "/":
		m.searching = true
		return m, m.search.Focus()
	case "c":
		m.setState(m.state.SetCategory(nextCategory(m.state.Category)))
		return m, nil
	case "s":
		m.setState(m.state.ClickColumn(shiftColumn(m.state.Column, 1)))
		return m, nil
	case "S":
		m.setState(m.state.ClickColumn(shiftColumn(m.state.Column, -1)))
		return m, nil
	case "r":
		m.setState(m.state.ClickColumn(m.state.Column))
		return m, nil
	case "]":
		return m, m.setPeriod(m.period.Year, shift(m.months, m.period.Month, 1))
	case "[":
		return m, m.setPeriod(m.period.Year, shift(m.months, m.period.Month, -1))
	case "}":
		return m, m.setPeriod(shift(m.years, m.period.Year, 1), m.period.Month)
	case "{":
		return m, m.setPeriod(shift(m.years, m.period.Year, -1), m.period.Month)
	case "R":
		m.loading = true
		return m, m.load(m.period)
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.searching = false
		m.search.Blur()
		return m, nil
	case tea.KeyEsc:
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.setState(m.state.SetSearch(""))
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.setState(m.state.SetSearch(m.search.Value()))
	return m, cmd
}

func (m *Model) setPeriod(year, month string) tea.Cmd {
	next := domain.Period{Year: year, Month: month}
	if next == m.period {
		return nil
	}
	m.period = next
	m.loading = true
	return m.load(next)
}

func (m *Model) applyBoard(msg boardMsg) {
	if !msg.applied || msg.period != m.period {
		return
	}
	m.loading = false
	switch {
	case msg.err != nil:
		if errors.Is(msg.err, service.ErrClosed) {
			return
		}
		m.errMsg = msg.err.Error()
	case msg.board.Err != nil:
		m.errMsg = msg.board.Err.Error()
		m.board = msg.board
	default:
		m.errMsg = ""
		m.board = msg.board
	}
	m.refreshRows()
}

func (m *Model) setState(s leaderboard.ViewState) {
	m.state = s
	m.refreshRows()
}

func (m *Model) refreshRows() {
	var rows []leaderboard.DisplayRow
	if m.board != nil && m.board.Err == nil {
		rows = m.board.Rows
	}
	m.visible = leaderboard.Apply(rows, m.state)

	tableRows := make([]table.Row, 0, len(m.visible))
	for _, r := range m.visible {
		tableRows = append(tableRows, table.Row(render.Cells(r)))
	}
	m.table.SetColumns(columnsFor(m.state, m.visible, m.width))
	m.table.SetRows(tableRows)
	m.table.GotoTop()
}

func (m *Model) relayout() {
	m.table.SetColumns(columnsFor(m.state, m.visible, m.width))
	m.table.SetWidth(m.width)
	m.table.SetHeight(maxInt(1, m.height-4))
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	lines := []string{
		captionStyle.Render(m.caption()),
		helpStyle.Render(m.help()),
	}
	switch {
	case m.loading && m.board == nil:
		lines = append(lines, mutedStyle.Render("Loading leaderboard..."))
	case len(m.visible) == 0 && m.errMsg == "":
		lines = append(lines, mutedStyle.Render("No players match."))
	default:
		lines = append(lines, m.table.View())
	}
	if m.searching {
		lines = append(lines, m.search.View())
	} else if m.errMsg != "" {
		lines = append(lines, errorStyle.Render(m.errMsg))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) caption() string {
	c := render.Caption{
		Period:     m.period,
		Category:   m.state.Category,
		Shown:      len(m.visible),
		LastUpdate: m.lastUpdate,
	}
	if m.board != nil {
		c.Total = len(m.board.Rows)
		c.History = m.board.Snapshot != nil
		c.FailedChunks = len(m.board.Failures)
	}
	text := c.String()
	if m.loading {
		text += "  loading..."
	}
	return text
}

func (m *Model) help() string {
	if m.searching {
		return "enter: keep search  esc: clear search"
	}
	return "c: category  s/S: sort column  r: reverse  /: search  [ ]: month  { }: year  R: reload  q: quit"
}

func (m *Model) load(period domain.Period) tea.Cmd {
	loader, ctx := m.loader, m.ctx
	return func() tea.Msg {
		board, applied, err := loader.Refresh(ctx, period)
		return boardMsg{period: period, board: board, applied: applied, err: err}
	}
}

func (m *Model) fetchLastUpdate() tea.Cmd {
	if m.updates == nil {
		return nil
	}
	updates, ctx := m.updates, m.ctx
	return func() tea.Msg {
		text, err := updates.LastUpdate(ctx)
		if err != nil {
			return nil
		}
		return lastUpdateMsg{text: text}
	}
}

func columnsFor(state leaderboard.ViewState, rows []leaderboard.DisplayRow, width int) []table.Column {
	titles := render.HeaderTitles(state)
	widths := make([]int, len(titles))
	for i, t := range titles {
		widths[i] = lipgloss.Width(t)
	}
	for _, r := range rows {
		for i, cell := range render.Cells(r) {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	playerCap := maxPlayerWidth
	if width > 0 {
		used := 0
		for i, w := range widths {
			if i != 1 {
				used += w + 2
			}
		}
		playerCap = minInt(playerCap, maxInt(lipgloss.Width(titles[1]), width-used-2))
	}
	widths[1] = minInt(widths[1], playerCap)

	cols := make([]table.Column, len(titles))
	for i, t := range titles {
		cols[i] = table.Column{Title: t, Width: widths[i]}
	}
	return cols
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func nextCategory(c domain.Category) domain.Category {
	for i, known := range categoryCycle {
		if known == c {
			return categoryCycle[(i+1)%len(categoryCycle)]
		}
	}
	return domain.CategoryAll
}

func shiftColumn(c leaderboard.Column, delta int) leaderboard.Column {
	names := make([]string, len(leaderboard.Columns))
	for i, col := range leaderboard.Columns {
		names[i] = string(col)
	}
	return leaderboard.Column(shift(names, string(c), delta))
}

// shift moves delta steps from current through choices, wrapping around.
func shift(choices []string, current string, delta int) string {
	if len(choices) == 0 {
		return current
	}
	idx := -1
	for i, c := range choices {
		if c == current {
			idx = i
			break
		}
	}
	if idx < 0 {
		return choices[len(choices)-1]
	}
	n := len(choices)
	return choices[((idx+delta)%n+n)%n]
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Run starts the program on the alternate screen.
func Run(m *Model) error {
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}
