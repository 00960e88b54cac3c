package leaderboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rot-leaderboard/internal/domain"
)

func row(username string, cat domain.Category, rank *int, score float64) DisplayRow {
	return DisplayRow{
		Record:   domain.PlayerRecord{Username: username, Category: cat},
		Rank:     rank,
		RotScore: score,
	}
}

func usernames(rows []DisplayRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Username()
	}
	return out
}

func TestApplyCategoryFilter(t *testing.T) {
	rows := []DisplayRow{
		row("a", domain.CategoryTop50, intPtr(1), 0),
		row("b", domain.CategoryTop50, intPtr(2), 0),
		row("c", domain.CategoryPersonality, nil, 0),
	}

	got := Apply(rows, DefaultViewState().SetCategory(domain.CategoryPersonality))
	assert.Equal(t, []string{"c"}, usernames(got))

	got = Apply(rows, DefaultViewState().SetCategory(domain.CategoryAll))
	assert.Len(t, got, 3)
}

func TestApplySearchCaseInsensitive(t *testing.T) {
	rows := []DisplayRow{
		row("MagnusFan", domain.CategoryTop50, intPtr(1), 0),
		row("hikaru", domain.CategoryTop50, intPtr(2), 0),
		{Record: domain.PlayerRecord{Username: "gm_x", DisplayName: "Imagine Dragon", Category: domain.CategoryPersonality}},
	}

	got := Apply(rows, DefaultViewState().SetSearch("mAg"))
	assert.ElementsMatch(t, []string{"MagnusFan", "gm_x"}, usernames(got))

	got = Apply(rows, DefaultViewState().SetSearch("zzz"))
	assert.Empty(t, got)
}

func TestApplySearchKeepsWhitespace(t *testing.T) {
	rows := []DisplayRow{
		row("MagnusFan", domain.CategoryTop50, intPtr(1), 0),
		{Record: domain.PlayerRecord{Username: "gm_x", DisplayName: "Imagine Dragon", Category: domain.CategoryPersonality}},
	}

	assert.Empty(t, Apply(rows, DefaultViewState().SetSearch("fan ")))
	assert.Equal(t, []string{"gm_x"}, usernames(Apply(rows, DefaultViewState().SetSearch(" "))))
	assert.Equal(t, []string{"gm_x"}, usernames(Apply(rows, DefaultViewState().SetSearch("e d"))))
}

func TestApplyRankNilSortsLast(t *testing.T) {
	rows := []DisplayRow{
		row("none", domain.CategoryPersonality, nil, 0),
		row("three", domain.CategoryTop50, intPtr(3), 0),
		row("one", domain.CategoryTop50, intPtr(1), 0),
	}
	state := ViewState{Category: domain.CategoryAll, Column: ColumnRank, Direction: Asc}
	assert.Equal(t, []string{"one", "three", "none"}, usernames(Apply(rows, state)))

	state.Direction = Desc
	assert.Equal(t, []string{"none", "three", "one"}, usernames(Apply(rows, state)))
}

func TestApplyStableTies(t *testing.T) {
	rows := []DisplayRow{
		row("first", domain.CategoryTop50, intPtr(1), 0.5),
		row("second", domain.CategoryTop50, intPtr(2), 0.5),
		row("third", domain.CategoryTop50, intPtr(3), 0.9),
		row("fourth", domain.CategoryTop50, intPtr(4), 0.5),
	}
	state := ViewState{Category: domain.CategoryAll, Column: ColumnRotScore, Direction: Desc}
	assert.Equal(t, []string{"third", "first", "second", "fourth"}, usernames(Apply(rows, state)))

	state.Direction = Asc
	assert.Equal(t, []string{"first", "second", "fourth", "third"}, usernames(Apply(rows, state)))
}

func TestApplyUsernameCollation(t *testing.T) {
	rows := []DisplayRow{
		row("bravo", domain.CategoryTop50, nil, 0),
		row("Alpha", domain.CategoryTop50, nil, 0),
		row("charlie", domain.CategoryTop50, nil, 0),
	}
	state := ViewState{Category: domain.CategoryAll, Column: ColumnUsername, Direction: Asc}
	assert.Equal(t, []string{"Alpha", "bravo", "charlie"}, usernames(Apply(rows, state)))
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	rows := []DisplayRow{
		row("b", domain.CategoryTop50, intPtr(2), 0.1),
		row("a", domain.CategoryTop50, intPtr(1), 0.2),
	}
	_ = Apply(rows, ViewState{Category: domain.CategoryAll, Column: ColumnRank, Direction: Asc})
	assert.Equal(t, []string{"b", "a"}, usernames(rows))
}

func TestClickColumn(t *testing.T) {
	s := DefaultViewState()
	require.Equal(t, ColumnRotScore, s.Column)
	require.Equal(t, Desc, s.Direction)

	s = s.ClickColumn(ColumnRotScore)
	assert.Equal(t, Asc, s.Direction)
	s = s.ClickColumn(ColumnRotScore)
	assert.Equal(t, Desc, s.Direction)

	s = s.ClickColumn(ColumnBlunders)
	assert.Equal(t, ColumnBlunders, s.Column)
	assert.Equal(t, Asc, s.Direction)
}

func TestSetCategoryResetsSort(t *testing.T) {
	s := DefaultViewState().ClickColumn(ColumnUsername)

	s = s.SetCategory(domain.CategoryTop50)
	assert.Equal(t, ColumnRank, s.Column)
	assert.Equal(t, Asc, s.Direction)

	s = s.SetCategory(domain.CategoryPersonality)
	assert.Equal(t, ColumnRotScore, s.Column)
	assert.Equal(t, Desc, s.Direction)

	s = s.SetCategory(domain.CategoryAll)
	assert.Equal(t, ColumnRotScore, s.Column)
	assert.Equal(t, Desc, s.Direction)
}

func TestReducersLeaveReceiverUntouched(t *testing.T) {
	s := DefaultViewState()
	_ = s.SetCategory(domain.CategoryTop50)
	_ = s.SetSearch("x")
	_ = s.ClickColumn(ColumnGames)
	assert.Equal(t, DefaultViewState(), s)
}

func TestParseColumnAndDirection(t *testing.T) {
	c, err := ParseColumn("ROT_SCORE")
	require.NoError(t, err)
	assert.Equal(t, ColumnRotScore, c)
	_, err = ParseColumn("elo")
	assert.Error(t, err)

	d, err := ParseDirection("desc")
	require.NoError(t, err)
	assert.Equal(t, Desc, d)
	_, err = ParseDirection("up")
	assert.Error(t, err)
}

func TestParseViewState(t *testing.T) {
	s, err := ParseViewState("", "", "", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultViewState(), s)

	s, err = ParseViewState("top50", "hik", "", "")
	require.NoError(t, err)
	assert.Equal(t, ViewState{Category: domain.CategoryTop50, Search: "hik", Column: ColumnRank, Direction: Asc}, s)

	s, err = ParseViewState("all", "", "games", "")
	require.NoError(t, err)
	assert.Equal(t, ColumnGames, s.Column)
	assert.Equal(t, Asc, s.Direction)

	s, err = ParseViewState("personality", "", "rot_score", "asc")
	require.NoError(t, err)
	assert.Equal(t, ColumnRotScore, s.Column)
	assert.Equal(t, Asc, s.Direction)

	_, err = ParseViewState("blitz", "", "", "")
	assert.Error(t, err)
	_, err = ParseViewState("", "", "elo", "")
	assert.Error(t, err)
	_, err = ParseViewState("", "", "", "sideways")
	assert.Error(t, err)
}
