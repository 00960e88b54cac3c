package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"rot-leaderboard/internal/domain"
)

const noTitle = "None"

type PlayersResponse struct {
	LeaderboardPlayers struct {
		Active   []string `json:"active"`
		Inactive []string `json:"inactive"`
	} `json:"leaderboard_players"`
	PersonalityPlayers []string `json:"personality_players"`
}

type BatchRequest struct {
	Usernames []string `json:"usernames"`
}

type PlayerDTO struct {
	Username            string                     `json:"username"`
	PlayerName          string                     `json:"player_name"`
	PlayerTitle         *string                    `json:"player_title"`
	Country             *string                    `json:"country"`
	Rating              FlexInt                    `json:"rating"`
	PlayerRank          *FlexInt                   `json:"player_rank"`
	IsLeaderboardPlayer bool                       `json:"is_leaderboard_player"`
	GameStats           map[string]json.RawMessage `json:"game_stats"`
}

type StatLineDTO struct {
	Blunders     FlexInt `json:"blunders"`
	Mistakes     FlexInt `json:"mistakes"`
	Inaccuracies FlexInt `json:"inaccuracies"`
	TotalGames   FlexInt `json:"total_games"`
}

type SnapshotResponse struct {
	Date    string                      `json:"date"`
	Players map[string]SnapshotEntryDTO `json:"players"`
}

type SnapshotEntryDTO struct {
	PlayerRank *FlexInt `json:"player_rank"`
	Rating     *FlexInt `json:"rating"`
}

// FlexInt accepts JSON numbers (integral or not), numeric strings and null.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	s := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || v < float64(math.MinInt) || v >= -float64(math.MinInt) {
		return fmt.Errorf("invalid integer %q", s)
	}
	*f = FlexInt(int(v))
	return nil
}

func (f *FlexInt) ptr() *int {
	if f == nil {
		return nil
	}
	v := int(*f)
	return &v
}

func (d PlayerDTO) ToDomain() domain.PlayerRecord {
	rec := domain.PlayerRecord{
		Username:            d.Username,
		DisplayName:         d.PlayerName,
		Rating:              int(d.Rating),
		Rank:                d.PlayerRank.ptr(),
		IsLeaderboardPlayer: d.IsLeaderboardPlayer,
		GameStats:           parseGameStats(d.GameStats),
	}
	if d.PlayerTitle != nil && *d.PlayerTitle != noTitle {
		rec.Title = *d.PlayerTitle
	}
	if d.Country != nil {
		rec.Country = *d.Country
	}
	return rec
}

// parseGameStats is lenient: an entry that does not decode is skipped so a
// single odd period never drops the whole player.
func parseGameStats(raw map[string]json.RawMessage) domain.GameStats {
	if len(raw) == 0 {
		return nil
	}
	out := make(domain.GameStats, len(raw))
	for yearKey, yearRaw := range raw {
		if !strings.HasPrefix(yearKey, "y") {
			continue
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(yearRaw, &fields); err != nil {
			continue
		}
		year := domain.YearStats{
			Total:  parsePeriod(fields),
			Months: make(map[string]domain.PeriodStats),
		}
		for k, v := range fields {
			if !strings.HasPrefix(k, "m") {
				continue
			}
			var monthFields map[string]json.RawMessage
			if err := json.Unmarshal(v, &monthFields); err != nil {
				continue
			}
			if ps := parsePeriod(monthFields); ps != nil {
				year.Months[k] = *ps
			}
		}
		out[yearKey] = year
	}
	return out
}

func parsePeriod(fields map[string]json.RawMessage) *domain.PeriodStats {
	var ps domain.PeriodStats
	found := false
	if raw, ok := fields["player_total"]; ok {
		var line StatLineDTO
		if err := json.Unmarshal(raw, &line); err == nil {
			ps.PlayerTotal = &domain.StatLine{
				Blunders:     int(line.Blunders),
				Mistakes:     int(line.Mistakes),
				Inaccuracies: int(line.Inaccuracies),
				TotalGames:   int(line.TotalGames),
			}
			found = true
		}
	}
	if raw, ok := fields["total_games"]; ok {
		var n FlexInt
		if err := json.Unmarshal(raw, &n); err == nil {
			ps.TotalGames = n.ptr()
			found = true
		}
	}
	if !found {
		return nil
	}
	return &ps
}

// ToDomain returns nil when the payload carries no players object. An empty
// object is a real, empty snapshot.
func (r SnapshotResponse) ToDomain() *domain.Snapshot {
	if r.Players == nil {
		return nil
	}
	snap := &domain.Snapshot{
		Date:    r.Date,
		Players: make(map[string]domain.SnapshotEntry, len(r.Players)),
	}
	for u, e := range r.Players {
		snap.Players[u] = domain.SnapshotEntry{
			Rank:   e.PlayerRank.ptr(),
			Rating: e.Rating.ptr(),
		}
	}
	return snap
}
