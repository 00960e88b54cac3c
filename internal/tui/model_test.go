package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rot-leaderboard/internal/domain"
	"rot-leaderboard/internal/leaderboard"
	"rot-leaderboard/internal/service"
)

type fakeLoader struct {
	boards  map[domain.Period]*service.Board
	applied bool
	calls   []domain.Period
}

func (f *fakeLoader) Refresh(ctx context.Context, period domain.Period) (*service.Board, bool, error) {
	f.calls = append(f.calls, period)
	return f.boards[period], f.applied, nil
}

type fakeUpdates struct{}

func (fakeUpdates) LastUpdate(ctx context.Context) (string, error) { return "2025-03-02", nil }

func intPtr(v int) *int { return &v }

var march = domain.Period{Year: "2025", Month: "03"}

func testBoard(period domain.Period) *service.Board {
	return &service.Board{
		Period: period,
		Rows: []leaderboard.DisplayRow{
			{Record: domain.PlayerRecord{Username: "p1", Category: domain.CategoryTop50}, Rank: intPtr(2), RotScore: 1},
			{Record: domain.PlayerRecord{Username: "MagnusFan", Category: domain.CategoryPersonality}, RotScore: 3},
			{Record: domain.PlayerRecord{Username: "p3", Category: domain.CategoryTop50}, Rank: intPtr(1), RotScore: 2},
		},
	}
}

func newTestModel(loader *fakeLoader) *Model {
	now := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	m := NewModel(context.Background(), loader, fakeUpdates{}, march, leaderboard.DefaultViewState(), now)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	return m
}

func usernames(rows []leaderboard.DisplayRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Username()
	}
	return out
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestLoadCommandAppliesBoard(t *testing.T) {
	loader := &fakeLoader{boards: map[domain.Period]*service.Board{march: testBoard(march)}, applied: true}
	m := newTestModel(loader)

	msg := m.load(march)()
	m.Update(msg)

	assert.False(t, m.loading)
	assert.Equal(t, []string{"MagnusFan", "p3", "p1"}, usernames(m.visible))
	assert.Len(t, m.table.Rows(), 3)
}

func TestStaleBoardIsDropped(t *testing.T) {
	m := newTestModel(&fakeLoader{})

	m.Update(boardMsg{period: march, board: testBoard(march), applied: false})
	assert.Nil(t, m.board)
	assert.True(t, m.loading)

	other := domain.Period{Year: "2025", Month: "02"}
	m.Update(boardMsg{period: other, board: testBoard(other), applied: true})
	assert.Nil(t, m.board)
}

func TestBoardErrorShown(t *testing.T) {
	m := newTestModel(&fakeLoader{})
	m.Update(boardMsg{period: march, board: &service.Board{Period: march, Err: errors.New("leaderboard unavailable: 503")}, applied: true})

	assert.Empty(t, m.visible)
	assert.Contains(t, m.View(), "leaderboard unavailable: 503")
}

func TestCategoryKeyResetsSort(t *testing.T) {
	m := newTestModel(&fakeLoader{})
	m.Update(boardMsg{period: march, board: testBoard(march), applied: true})

	m.Update(key("c"))
	assert.Equal(t, domain.CategoryTop50, m.state.Category)
	assert.Equal(t, leaderboard.ColumnRank, m.state.Column)
	assert.Equal(t, []string{"p3", "p1"}, usernames(m.visible))

	m.Update(key("c"))
	assert.Equal(t, domain.CategoryPersonality, m.state.Category)
	assert.Equal(t, []string{"MagnusFan"}, usernames(m.visible))
}

func TestSortKeys(t *testing.T) {
	m := newTestModel(&fakeLoader{})
	m.Update(boardMsg{period: march, board: testBoard(march), applied: true})

	m.Update(key("r"))
	assert.Equal(t, leaderboard.Asc, m.state.Direction)
	assert.Equal(t, []string{"p1", "p3", "MagnusFan"}, usernames(m.visible))

	m.Update(key("s"))
	assert.Equal(t, leaderboard.ColumnGames, m.state.Column)
	assert.Equal(t, leaderboard.Asc, m.state.Direction)
}

func TestSearchMode(t *testing.T) {
	m := newTestModel(&fakeLoader{})
	m.Update(boardMsg{period: march, board: testBoard(march), applied: true})

	m.Update(key("/"))
	require.True(t, m.searching)
	m.Update(key("m"))
	m.Update(key("A"))
	m.Update(key("g"))
	assert.Equal(t, "mAg", m.state.Search)
	assert.Equal(t, []string{"MagnusFan"}, usernames(m.visible))

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.searching)
	assert.Empty(t, m.state.Search)
	assert.Len(t, m.visible, 3)
}

func TestPeriodKeysReload(t *testing.T) {
	loader := &fakeLoader{boards: map[domain.Period]*service.Board{}, applied: true}
	m := newTestModel(loader)

	_, cmd := m.Update(key("]"))
	require.NotNil(t, cmd)
	assert.Equal(t, domain.Period{Year: "2025", Month: "04"}, m.period)
	assert.True(t, m.loading)
	cmd()
	assert.Equal(t, []domain.Period{{Year: "2025", Month: "04"}}, loader.calls)

	m.Update(key("{"))
	assert.Equal(t, domain.Period{Year: "2024", Month: "04"}, m.period)
}

func TestViewShowsCaption(t *testing.T) {
	m := newTestModel(&fakeLoader{})
	m.Update(boardMsg{period: march, board: testBoard(march), applied: true})
	m.Update(lastUpdateMsg{text: "2025-03-02"})

	out := m.View()
	assert.True(t, strings.Contains(out, "2025/03"))
	assert.Contains(t, out, "3 of 3 players")
	assert.Contains(t, out, "updated 2025-03-02")
}

func TestShift(t *testing.T) {
	months := domain.MonthChoices()
	assert.Equal(t, "01", shift(months, "all", 1))
	assert.Equal(t, "12", shift(months, "all", -1))
	assert.Equal(t, "all", shift(months, "12", 1))
	assert.Equal(t, "2025", shift([]string{"2024", "2025"}, "2030", 1))
}
