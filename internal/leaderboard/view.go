package leaderboard

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"rot-leaderboard/internal/domain"
)

type Column string

const (
	ColumnRank         Column = "rank"
	ColumnUsername     Column = "username"
	ColumnRating       Column = "rating"
	ColumnRotScore     Column = "rot_score"
	ColumnGames        Column = "games"
	ColumnBlunders     Column = "blunders"
	ColumnMistakes     Column = "mistakes"
	ColumnInaccuracies Column = "inaccuracies"
)

// Columns lists the sortable columns in display order.
var Columns = []Column{
	ColumnRank,
	ColumnUsername,
	ColumnRating,
	ColumnRotScore,
	ColumnGames,
	ColumnBlunders,
	ColumnMistakes,
	ColumnInaccuracies,
}

func ParseColumn(s string) (Column, error) {
	c := Column(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Columns {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown sort column %q", s)
}

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case Asc, Desc:
		return d, nil
	}
	return "", fmt.Errorf("unknown sort direction %q", s)
}

func (d Direction) Flip() Direction {
	if d == Asc {
		return Desc
	}
	return Asc
}

// ViewState is the filter/sort selection. Reducers return a new value and
// never touch the receiver.
type ViewState struct {
	Category  domain.Category
	Search    string
	Column    Column
	Direction Direction
}

func DefaultViewState() ViewState {
	return ViewState{}.SetCategory(domain.CategoryAll)
}

// SetCategory switches the category filter and resets the sort: rank
// ascending for top50, rot score descending otherwise.
func (s ViewState) SetCategory(c domain.Category) ViewState {
	s.Category = c
	if c == domain.CategoryTop50 {
		s.Column, s.Direction = ColumnRank, Asc
	} else {
		s.Column, s.Direction = ColumnRotScore, Desc
	}
	return s
}

func (s ViewState) SetSearch(text string) ViewState {
	s.Search = text
	return s
}

// ClickColumn toggles direction on the current column and selects a new
// column in ascending order.
func (s ViewState) ClickColumn(c Column) ViewState {
	if s.Column == c {
		s.Direction = s.Direction.Flip()
		return s
	}
	s.Column, s.Direction = c, Asc
	return s
}

// Matches reports whether row passes the category and search filters.
func (s ViewState) Matches(row DisplayRow) bool {
	if s.Category != "" && s.Category != domain.CategoryAll && row.Category() != s.Category {
		return false
	}
	q := strings.ToLower(s.Search)
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(row.Username()), q) ||
		strings.Contains(strings.ToLower(row.Record.DisplayName), q)
}

// Apply returns the visible rows for state: filtered, then stably sorted.
// The input slice is left untouched.
func Apply(rows []DisplayRow, state ViewState) []DisplayRow {
	out := make([]DisplayRow, 0, len(rows))
	for _, r := range rows {
		if state.Matches(r) {
			out = append(out, r)
		}
	}

	cmp := comparator(state.Column)
	sort.SliceStable(out, func(i, j int) bool {
		if state.Direction == Desc {
			return cmp(out[j], out[i]) < 0
		}
		return cmp(out[i], out[j]) < 0
	})
	return out
}

func comparator(c Column) func(a, b DisplayRow) int {
	switch c {
	case ColumnUsername:
		coll := collate.New(language.Und, collate.IgnoreCase)
		return func(a, b DisplayRow) int {
			return coll.CompareString(a.Username(), b.Username())
		}
	case ColumnRank:
		return func(a, b DisplayRow) int {
			return compareFloat(rankValue(a.Rank), rankValue(b.Rank))
		}
	case ColumnRating:
		return numeric(func(r DisplayRow) float64 { return float64(r.Rating) })
	case ColumnGames:
		return numeric(func(r DisplayRow) float64 { return float64(r.TotalGames) })
	case ColumnBlunders:
		return numeric(func(r DisplayRow) float64 { return float64(r.Stats.Blunders) })
	case ColumnMistakes:
		return numeric(func(r DisplayRow) float64 { return float64(r.Stats.Mistakes) })
	case ColumnInaccuracies:
		return numeric(func(r DisplayRow) float64 { return float64(r.Stats.Inaccuracies) })
	default:
		return numeric(func(r DisplayRow) float64 { return r.RotScore })
	}
}

func numeric(value func(DisplayRow) float64) func(a, b DisplayRow) int {
	return func(a, b DisplayRow) int {
		return compareFloat(value(a), value(b))
	}
}

func rankValue(rank *int) float64 {
	if rank == nil {
		return math.Inf(1)
	}
	return float64(*rank)
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// ParseViewState builds a state from user-supplied strings. Empty values keep
// the defaults SetCategory picks; a sort column without a direction sorts
// ascending, as a header click would.
func ParseViewState(category, search, column, direction string) (ViewState, error) {
	cat, err := domain.ParseCategory(category)
	if err != nil {
		return ViewState{}, err
	}
	s := DefaultViewState().SetCategory(cat).SetSearch(search)
	if column != "" {
		c, err := ParseColumn(column)
		if err != nil {
			return ViewState{}, err
		}
		if c != s.Column {
			s = s.ClickColumn(c)
		}
	}
	if direction != "" {
		d, err := ParseDirection(direction)
		if err != nil {
			return ViewState{}, err
		}
		s.Direction = d
	}
	return s, nil
}
