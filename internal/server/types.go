package server

import (
	"time"

	"rot-leaderboard/internal/domain"
	"rot-leaderboard/internal/leaderboard"
)

type LeaderboardRequest struct {
	Year      string `json:"year"`
	Month     string `json:"month"`
	Category  string `json:"category"`
	Search    string `json:"search"`
	Sort      string `json:"sort"`
	Direction string `json:"direction"`
}

type LeaderboardResponse struct {
	Period       string    `json:"period"`
	Generation   uint64    `json:"generation"`
	Category     string    `json:"category"`
	Sort         string    `json:"sort"`
	Direction    string    `json:"direction"`
	History      bool      `json:"history"`
	FailedChunks int       `json:"failed_chunks"`
	LoadedAt     time.Time `json:"loaded_at"`
	Total        int       `json:"total"`
	Rows         []Row     `json:"rows"`
}

type Row struct {
	Rank         *int    `json:"rank,omitempty"`
	Username     string  `json:"username"`
	Name         string  `json:"name"`
	Title        string  `json:"title,omitempty"`
	Country      string  `json:"country,omitempty"`
	ProfileURL   string  `json:"profile_url"`
	Category     string  `json:"category"`
	Rating       int     `json:"rating"`
	RotScore     float64 `json:"rot_score"`
	Games        int     `json:"games"`
	Blunders     int     `json:"blunders"`
	Mistakes     int     `json:"mistakes"`
	Inaccuracies int     `json:"inaccuracies"`
	Historical   bool    `json:"historical"`
}

type ListRefreshesRequest struct {
	Limit int `json:"limit"`
}

type ListRefreshesResponse struct {
	Runs []RefreshRun `json:"runs"`
}

type RefreshRun struct {
	ID           string    `json:"id"`
	Period       string    `json:"period"`
	Status       string    `json:"status"`
	Players      int       `json:"players"`
	Unknown      int       `json:"unknown"`
	FailedChunks int       `json:"failed_chunks"`
	History      bool      `json:"history"`
	Error        string    `json:"error,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	DurationMs   int64     `json:"duration_ms"`
}

func toRow(r leaderboard.DisplayRow) Row {
	return Row{
		Rank:         r.Rank,
		Username:     r.Username(),
		Name:         r.Name(),
		Title:        r.Record.Title,
		Country:      r.CountryCode,
		ProfileURL:   r.ProfileURL,
		Category:     string(r.Category()),
		Rating:       r.Rating,
		RotScore:     r.RotScore,
		Games:        r.TotalGames,
		Blunders:     r.Stats.Blunders,
		Mistakes:     r.Stats.Mistakes,
		Inaccuracies: r.Stats.Inaccuracies,
		Historical:   r.HasHistory,
	}
}

func toRefreshRun(r domain.RefreshRun) RefreshRun {
	return RefreshRun{
		ID:           r.ID,
		Period:       domain.Period{Year: r.Year, Month: r.Month}.String(),
		Status:       r.Status,
		Players:      r.Players,
		Unknown:      r.Unknown,
		FailedChunks: r.FailedChunks,
		History:      r.HasSnapshot,
		Error:        r.Error,
		StartedAt:    r.StartedAt,
		DurationMs:   r.FinishedAt.Sub(r.StartedAt).Milliseconds(),
	}
}
