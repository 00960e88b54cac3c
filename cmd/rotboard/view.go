package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"rot-leaderboard/internal/config"
	"rot-leaderboard/internal/domain"
	"rot-leaderboard/internal/leaderboard"
)

// resolveView merges flags, the config file and defaults, in that order.
func resolveView(cmd *cobra.Command, now time.Time) (domain.Period, leaderboard.ViewState, error) {
	fileCfg, err := config.LoadViewFile(config.DefaultViewFilePath())
	if err != nil {
		return domain.Period{}, leaderboard.ViewState{}, fmt.Errorf("failed to load config: %w", err)
	}
	return resolveViewWith(cmd, fileCfg.View, now)
}

func resolveViewWith(cmd *cobra.Command, defaults config.ViewDefaults, now time.Time) (domain.Period, leaderboard.ViewState, error) {
	applyStringConfig(cmd, "year", &viewYear, defaults.Year)
	applyStringConfig(cmd, "month", &viewMonth, defaults.Month)
	applyStringConfig(cmd, "category", &viewCategory, defaults.Category)
	applyStringConfig(cmd, "sort", &viewSort, defaults.Sort)
	applyStringConfig(cmd, "direction", &viewDirection, defaults.Direction)
	applyStringConfig(cmd, "weighting", &viewWeighting, defaults.Weighting)

	current := domain.CurrentPeriod(now)
	year, month := viewYear, viewMonth
	if year == "" {
		year = current.Year
	}
	if month == "" {
		month = current.Month
	}
	period, err := domain.ParsePeriod(year, month)
	if err != nil {
		return domain.Period{}, leaderboard.ViewState{}, fmt.Errorf("invalid period: %w", err)
	}

	state, err := leaderboard.ParseViewState(viewCategory, viewSearch, viewSort, viewDirection)
	if err != nil {
		return domain.Period{}, leaderboard.ViewState{}, err
	}
	return period, state, nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Lookup(name) == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}
