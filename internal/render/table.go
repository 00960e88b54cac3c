// Package render formats leaderboard rows as aligned text.
package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"rot-leaderboard/internal/domain"
	"rot-leaderboard/internal/leaderboard"
)

// Header is one display column and the sort column it maps to.
type Header struct {
	Title  string
	Column leaderboard.Column
	Right  bool
}

var Headers = []Header{
	{Title: "Rank", Column: leaderboard.ColumnRank, Right: true},
	{Title: "Player", Column: leaderboard.ColumnUsername},
	{Title: "Rating", Column: leaderboard.ColumnRating, Right: true},
	{Title: "Rot Score", Column: leaderboard.ColumnRotScore, Right: true},
	{Title: "Games", Column: leaderboard.ColumnGames, Right: true},
	{Title: "Blunders", Column: leaderboard.ColumnBlunders, Right: true},
	{Title: "Mistakes", Column: leaderboard.ColumnMistakes, Right: true},
	{Title: "Inaccuracies", Column: leaderboard.ColumnInaccuracies, Right: true},
}

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C0C0C0")).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// HeaderTitles returns the column titles with a marker on the sorted column.
func HeaderTitles(state leaderboard.ViewState) []string {
	out := make([]string, len(Headers))
	for i, h := range Headers {
		out[i] = h.Title
		if h.Column == state.Column {
			out[i] += " " + arrow(state.Direction)
		}
	}
	return out
}

func arrow(d leaderboard.Direction) string {
	if d == leaderboard.Desc {
		return "v"
	}
	return "^"
}

// Cells formats one row in Headers order.
func Cells(r leaderboard.DisplayRow) []string {
	return []string{
		FormatRank(r.Rank),
		PlayerLabel(r),
		strconv.Itoa(r.Rating),
		FormatScore(r.RotScore),
		strconv.Itoa(r.TotalGames),
		strconv.Itoa(r.Stats.Blunders),
		strconv.Itoa(r.Stats.Mistakes),
		strconv.Itoa(r.Stats.Inaccuracies),
	}
}

func FormatRank(rank *int) string {
	if rank == nil {
		return "-"
	}
	return strconv.Itoa(*rank)
}

func FormatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', 2, 64)
}

// PlayerLabel is "<title> <name> [cc]", leaving out the parts a player lacks.
func PlayerLabel(r leaderboard.DisplayRow) string {
	parts := make([]string, 0, 3)
	if r.Record.Title != "" {
		parts = append(parts, r.Record.Title)
	}
	parts = append(parts, r.Name())
	if r.CountryCode != "" {
		parts = append(parts, "["+r.CountryCode+"]")
	}
	return strings.Join(parts, " ")
}

// Lines lays out header and rows with padded columns.
func Lines(rows []leaderboard.DisplayRow, state leaderboard.ViewState) []string {
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, Cells(r))
	}
	rightAlign := make(map[int]bool, len(Headers))
	for i, h := range Headers {
		rightAlign[i] = h.Right
	}
	return formatTable(HeaderTitles(state), cells, rightAlign)
}

func formatTable(headers []string, rows [][]string, rightAlignCols map[int]bool) []string {
	widths := make([]int, len(headers))
	for i, header := range headers {
		widths[i] = lipgloss.Width(header)
	}
	for _, row := range rows {
		for i := 0; i < len(widths) && i < len(row); i++ {
			if w := lipgloss.Width(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, formatRow(headers, widths, rightAlignCols))
	for _, row := range rows {
		lines = append(lines, formatRow(row, widths, rightAlignCols))
	}
	return lines
}

func formatRow(row []string, widths []int, rightAlignCols map[int]bool) string {
	var b strings.Builder
	for i := 0; i < len(widths); i++ {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(padCell(cell, widths[i], rightAlignCols[i]))
	}
	return strings.TrimRight(b.String(), " ")
}

func padCell(value string, width int, rightAlign bool) string {
	valueWidth := lipgloss.Width(value)
	if valueWidth >= width {
		return value
	}
	padding := strings.Repeat(" ", width-valueWidth)
	if rightAlign {
		return padding + value
	}
	return value + padding
}

// Caption summarizes what a table shows.
type Caption struct {
	Period       domain.Period
	Category     domain.Category
	Shown        int
	Total        int
	History      bool
	FailedChunks int
	LastUpdate   string
}

func (c Caption) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Rot leaderboard %s  %s  %d of %d players", c.Period, c.Category, c.Shown, c.Total)
	if c.History {
		b.WriteString("  (historical ranks)")
	}
	if c.FailedChunks > 0 {
		fmt.Fprintf(&b, "  %d batch(es) failed", c.FailedChunks)
	}
	if c.LastUpdate != "" {
		fmt.Fprintf(&b, "  updated %s", c.LastUpdate)
	}
	return b.String()
}

// Write prints caption and table. Styled output adds terminal colors.
func Write(w io.Writer, caption Caption, rows []leaderboard.DisplayRow, state leaderboard.ViewState, styled bool) error {
	lines := Lines(rows, state)
	if styled {
		lines[0] = headerStyle.Render(lines[0])
	}
	head := caption.String()
	if styled {
		head = titleStyle.Render(head)
	}
	if _, err := fmt.Fprintln(w, head); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	if len(rows) == 0 {
		empty := "No players match."
		if styled {
			empty = mutedStyle.Render(empty)
		}
		if _, err := fmt.Fprintln(w, empty); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}
