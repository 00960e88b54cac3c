package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

type Category string

const (
	CategoryAll         Category = "all"
	CategoryTop50       Category = "top50"
	CategoryPersonality Category = "personality"
)

func ParseCategory(s string) (Category, error) {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case CategoryAll, CategoryTop50, CategoryPersonality:
		return c, nil
	case "":
		return CategoryAll, nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// Directory is the set of known usernames for one refresh.
type Directory struct {
	Leaderboard map[string]struct{}
	Personality map[string]struct{}
	// fetch order: leaderboard first, then personality, no duplicates
	Order []string
}

func NewDirectory(leaderboard, personality []string) *Directory {
	d := &Directory{
		Leaderboard: make(map[string]struct{}, len(leaderboard)),
		Personality: make(map[string]struct{}, len(personality)),
	}
	seen := make(map[string]struct{}, len(leaderboard)+len(personality))
	for _, u := range leaderboard {
		d.Leaderboard[u] = struct{}{}
		if _, ok := seen[u]; !ok {
			seen[u] = struct{}{}
			d.Order = append(d.Order, u)
		}
	}
	for _, u := range personality {
		d.Personality[u] = struct{}{}
		if _, ok := seen[u]; !ok {
			seen[u] = struct{}{}
			d.Order = append(d.Order, u)
		}
	}
	return d
}

func (d *Directory) Contains(username string) bool {
	if _, ok := d.Leaderboard[username]; ok {
		return true
	}
	_, ok := d.Personality[username]
	return ok
}

func (d *Directory) CategoryOf(username string) Category {
	if _, ok := d.Leaderboard[username]; ok {
		return CategoryTop50
	}
	return CategoryPersonality
}

// PersonalityList returns personality usernames in fetch order.
func (d *Directory) PersonalityList() []string {
	var out []string
	for _, u := range d.Order {
		if _, ok := d.Personality[u]; ok {
			out = append(out, u)
		}
	}
	return out
}

type StatLine struct {
	Blunders     int
	Mistakes     int
	Inaccuracies int
	TotalGames   int
}

type PeriodStats struct {
	PlayerTotal *StatLine
	// period-level total_games, nil when the payload omits it
	TotalGames *int
}

type YearStats struct {
	Total  *PeriodStats
	Months map[string]PeriodStats // "m01".."m12"
}

// GameStats is keyed "y<year>".
type GameStats map[string]YearStats

type PlayerRecord struct {
	Username            string
	DisplayName         string
	Title               string
	Country             string
	Rating              int
	Rank                *int
	IsLeaderboardPlayer bool
	GameStats           GameStats
	Category            Category
}

type SnapshotEntry struct {
	Rank   *int
	Rating *int
}

type Snapshot struct {
	Date    string
	Players map[string]SnapshotEntry
}

// Usernames returns snapshot usernames ordered by historical rank, unranked
// entries last and alphabetical.
func (s *Snapshot) Usernames() []string {
	out := make([]string, 0, len(s.Players))
	for u := range s.Players {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := s.Players[out[i]].Rank, s.Players[out[j]].Rank
		switch {
		case ri != nil && rj != nil && *ri != *rj:
			return *ri < *rj
		case ri != nil && rj == nil:
			return true
		case ri == nil && rj != nil:
			return false
		}
		return out[i] < out[j]
	})
	return out
}

type RefreshRun struct {
	ID           string
	Generation   uint64
	Year         string
	Month        string
	Status       string // "ok", "partial", "failed"
	Players      int
	Unknown      int
	FailedChunks int
	HasSnapshot  bool
	Error        string
	StartedAt    time.Time
	FinishedAt   time.Time
	Failures     []ChunkFailure
}

type ChunkFailure struct {
	RunID      string
	ChunkIndex int
	Usernames  []string
	Error      string
}
