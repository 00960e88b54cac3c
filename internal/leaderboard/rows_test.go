package leaderboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rot-leaderboard/internal/domain"
)

func monthRecord(username string, rank *int, rating int, stats domain.StatLine) domain.PlayerRecord {
	return domain.PlayerRecord{
		Username: username,
		Rank:     rank,
		Rating:   rating,
		Country:  "NO",
		GameStats: domain.GameStats{
			"y2024": {Months: map[string]domain.PeriodStats{"m05": {PlayerTotal: &stats}}},
		},
	}
}

func TestBuildRowsEndToEnd(t *testing.T) {
	dir := domain.NewDirectory([]string{"p1", "p2"}, []string{"p3"})
	records := []domain.PlayerRecord{
		monthRecord("p1", intPtr(1), 3000, domain.StatLine{Blunders: 2, Mistakes: 1, TotalGames: 10}),
		monthRecord("p2", intPtr(2), 2900, domain.StatLine{Blunders: 1, TotalGames: 10}),
		monthRecord("p3", nil, 2500, domain.StatLine{Blunders: 5, Mistakes: 5, Inaccuracies: 5, TotalGames: 10}),
	}

	rows, unknown := BuildRows(BuildInput{
		Records:   records,
		Directory: dir,
		Period:    domain.Period{Year: "2024", Month: "05"},
	})
	require.Empty(t, unknown)
	require.Len(t, rows, 3)

	assert.InDelta(t, 0.8, rows[0].RotScore, 1e-9)
	assert.InDelta(t, 0.3, rows[1].RotScore, 1e-9)
	assert.InDelta(t, 3.0, rows[2].RotScore, 1e-9)
	assert.Equal(t, domain.CategoryTop50, rows[0].Category())
	assert.Equal(t, domain.CategoryPersonality, rows[2].Category())
	assert.Equal(t, "https://www.chess.com/member/p1", rows[0].ProfileURL)
	assert.Equal(t, "no", rows[0].CountryCode)

	got := Apply(rows, DefaultViewState())
	assert.Equal(t, []string{"p3", "p1", "p2"}, usernames(got))
}

func TestBuildRowsUnknownUsername(t *testing.T) {
	dir := domain.NewDirectory([]string{"p1"}, nil)
	rows, unknown := BuildRows(BuildInput{
		Records:   []domain.PlayerRecord{{Username: "p1"}, {Username: "ghost"}, {Username: "p1"}},
		Directory: dir,
		Period:    domain.Period{Year: "2024", Month: "all"},
	})
	assert.Len(t, rows, 1)
	assert.Equal(t, []string{"ghost"}, unknown)
}

func TestBuildRowsSnapshotOverridesRankAndRating(t *testing.T) {
	dir := domain.NewDirectory([]string{"p1"}, []string{"p3"})
	stats := domain.StatLine{Blunders: 2, Mistakes: 1, TotalGames: 10}
	snap := &domain.Snapshot{
		Date: "2024/05",
		Players: map[string]domain.SnapshotEntry{
			"p1": {Rank: intPtr(7), Rating: intPtr(2750)},
			"p3": {Rating: intPtr(2400)},
		},
	}

	rows, _ := BuildRows(BuildInput{
		Records: []domain.PlayerRecord{
			monthRecord("p1", intPtr(1), 3000, stats),
			monthRecord("p3", nil, 2500, stats),
		},
		Directory: dir,
		Snapshot:  snap,
		Period:    domain.Period{Year: "2024", Month: "05"},
	})
	require.Len(t, rows, 2)

	assert.True(t, rows[0].HasHistory)
	assert.Equal(t, 7, *rows[0].Rank)
	assert.Equal(t, 2750, rows[0].Rating)
	assert.Equal(t, 1, *rows[0].Record.Rank)
	assert.InDelta(t, 0.8, rows[0].RotScore, 1e-9)

	assert.Nil(t, rows[1].Rank)
	assert.Equal(t, 2400, rows[1].Rating)
}

func TestEffectiveDirectory(t *testing.T) {
	live := domain.NewDirectory([]string{"now1", "now2"}, []string{"pers"})

	assert.Same(t, live, EffectiveDirectory(live, nil))

	snap := &domain.Snapshot{Players: map[string]domain.SnapshotEntry{
		"old2": {Rank: intPtr(2)},
		"old1": {Rank: intPtr(1)},
		"pers": {Rating: intPtr(2000)},
	}}
	eff := EffectiveDirectory(live, snap)
	assert.Equal(t, []string{"old1", "old2", "pers"}, eff.Order)
	assert.Equal(t, domain.CategoryTop50, eff.CategoryOf("old1"))
	assert.Equal(t, domain.CategoryPersonality, eff.CategoryOf("pers"))
	assert.False(t, eff.Contains("now1"))
}

func TestEffectiveDirectoryEmptySnapshot(t *testing.T) {
	live := domain.NewDirectory([]string{"now1", "now2"}, []string{"pers"})

	eff := EffectiveDirectory(live, &domain.Snapshot{Players: map[string]domain.SnapshotEntry{}})
	assert.Equal(t, []string{"pers"}, eff.Order)
	assert.Empty(t, eff.Leaderboard)
	assert.False(t, eff.Contains("now1"))
}
