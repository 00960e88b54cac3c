package leaderboard

import (
	"strings"

	"rot-leaderboard/internal/domain"
)

const profileURLPrefix = "https://www.chess.com/member/"

type DisplayRow struct {
	Record     domain.PlayerRecord
	Stats      domain.StatLine
	TotalGames int
	RotScore   float64

	// effective values, historical snapshot wins when present
	Rank   *int
	Rating int

	HasHistory  bool
	ProfileURL  string
	CountryCode string
}

func (r DisplayRow) Username() string {
	return r.Record.Username
}

func (r DisplayRow) Category() domain.Category {
	return r.Record.Category
}

// Name returns the display name, falling back to the username.
func (r DisplayRow) Name() string {
	if r.Record.DisplayName != "" {
		return r.Record.DisplayName
	}
	return r.Record.Username
}

type BuildInput struct {
	Records   []domain.PlayerRecord
	Directory *domain.Directory
	Snapshot  *domain.Snapshot
	Period    domain.Period
	Weighting Weighting
}

// BuildRows turns fetched records into display rows in input order. Records
// for usernames missing from the directory are not rowed; they are returned
// as unknown. Duplicate usernames keep the first occurrence.
func BuildRows(in BuildInput) (rows []DisplayRow, unknown []string) {
	rows = make([]DisplayRow, 0, len(in.Records))
	seen := make(map[string]struct{}, len(in.Records))

	for _, rec := range in.Records {
		if in.Directory == nil || !in.Directory.Contains(rec.Username) {
			unknown = append(unknown, rec.Username)
			continue
		}
		if _, dup := seen[rec.Username]; dup {
			continue
		}
		seen[rec.Username] = struct{}{}

		rec.Category = in.Directory.CategoryOf(rec.Username)
		rec.IsLeaderboardPlayer = rec.Category == domain.CategoryTop50

		stats, games := SelectStats(rec, in.Period)
		row := DisplayRow{
			Record:      rec,
			Stats:       stats,
			TotalGames:  games,
			RotScore:    in.Weighting.Score(stats, games),
			Rank:        rec.Rank,
			Rating:      rec.Rating,
			ProfileURL:  profileURLPrefix + rec.Username,
			CountryCode: strings.ToLower(rec.Country),
		}

		if in.Snapshot != nil {
			if entry, ok := in.Snapshot.Players[rec.Username]; ok {
				row.HasHistory = true
				row.Rank = entry.Rank
				if entry.Rating != nil {
					row.Rating = *entry.Rating
				}
			}
		}
		rows = append(rows, row)
	}
	return rows, unknown
}

// EffectiveDirectory applies the historical overlay to the live directory.
// With a snapshot the leaderboard set is the snapshot's usernames minus
// personality players, and every personality player is still fetched. An
// empty snapshot leaves only the personality players.
func EffectiveDirectory(live *domain.Directory, snap *domain.Snapshot) *domain.Directory {
	if snap == nil {
		return live
	}
	var leaderboard []string
	for _, u := range snap.Usernames() {
		if _, ok := live.Personality[u]; ok {
			continue
		}
		leaderboard = append(leaderboard, u)
	}
	return domain.NewDirectory(leaderboard, live.PersonalityList())
}
