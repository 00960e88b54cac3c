// Package leaderboard holds the pure pipeline stages: stat selection,
// scoring, row construction and the filter/sort engine. Nothing here does I/O.
package leaderboard

import (
	"fmt"
	"strings"

	"rot-leaderboard/internal/domain"
)

// SelectStats extracts the stat line and game count for period. Missing data
// at any level yields zeros.
func SelectStats(rec domain.PlayerRecord, period domain.Period) (domain.StatLine, int) {
	year, ok := rec.GameStats["y"+period.Year]
	if !ok {
		return domain.StatLine{}, 0
	}

	var ps *domain.PeriodStats
	if period.IsAllMonths() {
		ps = year.Total
	} else if m, ok := year.Months[monthKey(period.Month)]; ok {
		ps = &m
	}
	if ps == nil {
		return domain.StatLine{}, 0
	}

	var stats domain.StatLine
	if ps.PlayerTotal != nil {
		stats = *ps.PlayerTotal
	}
	games := stats.TotalGames
	if ps.TotalGames != nil {
		games = *ps.TotalGames
	}
	if games < 0 {
		games = 0
	}
	stats.TotalGames = games
	return stats, games
}

func monthKey(month string) string {
	if strings.HasPrefix(month, "m") {
		return month
	}
	if len(month) == 1 {
		return fmt.Sprintf("m0%s", month)
	}
	return "m" + month
}

type Weighting int

const (
	// WeightedSeverity scores blunders 3, mistakes 2, inaccuracies 1.
	WeightedSeverity Weighting = iota
	Unweighted
)

func ParseWeighting(s string) (Weighting, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "weighted":
		return WeightedSeverity, nil
	case "unweighted":
		return Unweighted, nil
	}
	return WeightedSeverity, fmt.Errorf("unknown score weighting %q", s)
}

func (w Weighting) String() string {
	if w == Unweighted {
		return "unweighted"
	}
	return "weighted"
}

// Score returns rot points per game, 0 when there are no games.
func (w Weighting) Score(stats domain.StatLine, totalGames int) float64 {
	if totalGames <= 0 {
		return 0
	}
	b, m, i := nonNeg(stats.Blunders), nonNeg(stats.Mistakes), nonNeg(stats.Inaccuracies)
	var points int
	if w == Unweighted {
		points = b + m + i
	} else {
		points = 3*b + 2*m + i
	}
	return float64(points) / float64(totalGames)
}

// RotScore is the canonical weighted score.
func RotScore(stats domain.StatLine, totalGames int) float64 {
	return WeightedSeverity.Score(stats, totalGames)
}

func nonNeg(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
