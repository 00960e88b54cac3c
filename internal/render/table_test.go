package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rot-leaderboard/internal/domain"
	"rot-leaderboard/internal/leaderboard"
)

func intPtr(v int) *int { return &v }

func sampleRows() []leaderboard.DisplayRow {
	return []leaderboard.DisplayRow{
		{
			Record:      domain.PlayerRecord{Username: "magnus", DisplayName: "Magnus C", Title: "GM"},
			Stats:       domain.StatLine{Blunders: 2, Mistakes: 3, Inaccuracies: 4},
			TotalGames:  10,
			RotScore:    1.4,
			Rank:        intPtr(1),
			Rating:      3300,
			CountryCode: "no",
		},
		{
			Record:   domain.PlayerRecord{Username: "streamer"},
			RotScore: 12.346,
		},
	}
}

func TestFormatTableAlignsColumns(t *testing.T) {
	lines := formatTable([]string{"Name", "Score"}, [][]string{{"a", "1.00"}, {"longer", "12.50"}}, map[int]bool{1: true})
	require.Len(t, lines, 3)
	assert.Equal(t, "Name    Score", lines[0])
	assert.Equal(t, "a        1.00", lines[1])
	assert.Equal(t, "longer  12.50", lines[2])
}

func TestCells(t *testing.T) {
	rows := sampleRows()
	assert.Equal(t, []string{"1", "GM Magnus C [no]", "3300", "1.40", "10", "2", "3", "4"}, Cells(rows[0]))
	assert.Equal(t, []string{"-", "streamer", "0", "12.35", "0", "0", "0", "0"}, Cells(rows[1]))
}

func TestHeaderTitlesMarkSortColumn(t *testing.T) {
	titles := HeaderTitles(leaderboard.DefaultViewState())
	assert.Equal(t, "Rot Score v", titles[3])
	assert.Equal(t, "Rank", titles[0])

	titles = HeaderTitles(leaderboard.DefaultViewState().SetCategory(domain.CategoryTop50))
	assert.Equal(t, "Rank ^", titles[0])
}

func TestWritePlain(t *testing.T) {
	var buf bytes.Buffer
	caption := Caption{
		Period:       domain.Period{Year: "2025", Month: "03"},
		Category:     domain.CategoryAll,
		Shown:        2,
		Total:        5,
		History:      true,
		FailedChunks: 1,
		LastUpdate:   "yesterday",
	}
	require.NoError(t, Write(&buf, caption, sampleRows(), leaderboard.DefaultViewState(), false))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Rot leaderboard 2025/03  all  2 of 5 players  (historical ranks)  1 batch(es) failed  updated yesterday", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Rank  Player"))
	assert.Contains(t, lines[2], "GM Magnus C [no]")
}

func TestWriteEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Caption{}, nil, leaderboard.DefaultViewState(), false))
	assert.Contains(t, buf.String(), "No players match.")
}
