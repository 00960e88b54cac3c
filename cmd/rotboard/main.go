// Package main provides the rotboard command line client.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"rot-leaderboard/internal/api"
	"rot-leaderboard/internal/config"
	"rot-leaderboard/internal/constants"
	"rot-leaderboard/internal/database"
	"rot-leaderboard/internal/domain"
	"rot-leaderboard/internal/leaderboard"
	"rot-leaderboard/internal/logger"
	"rot-leaderboard/internal/render"
	"rot-leaderboard/internal/repository"
	"rot-leaderboard/internal/service"
	"rot-leaderboard/internal/tui"
)

var (
	viewYear      string
	viewMonth     string
	viewCategory  string
	viewSort      string
	viewDirection string
	viewSearch    string
	viewWeighting string

	showNoColor bool

	historyLimit int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "rotboard",
		Short:         "Chess rot score leaderboard",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(newShowCmd())
	rootCmd.AddCommand(newTUICmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func addViewFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&viewYear, "year", "", "year to show (default: current year)")
	cmd.Flags().StringVar(&viewMonth, "month", "", "month 01-12 or 'all' (default: current month)")
	cmd.Flags().StringVar(&viewCategory, "category", string(domain.CategoryAll), "all, top50 or personality")
	cmd.Flags().StringVar(&viewSort, "sort", "", "sort column (default depends on category)")
	cmd.Flags().StringVar(&viewDirection, "direction", "", "asc or desc")
	cmd.Flags().StringVar(&viewSearch, "search", "", "case-insensitive username or name filter")
	cmd.Flags().StringVar(&viewWeighting, "weighting", "", "weighted or unweighted (default: SCORE_WEIGHTING)")
}

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the leaderboard once",
		Args:  cobra.NoArgs,
		RunE:  runShowCmd,
	}
	addViewFlags(cmd)
	cmd.Flags().BoolVar(&showNoColor, "no-color", false, "disable colored output")
	return cmd
}

func newTUICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Browse the leaderboard interactively",
		Args:  cobra.NoArgs,
		RunE:  runTUICmd,
	}
	addViewFlags(cmd)
	return cmd
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded leaderboard refreshes",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().IntVar(&historyLimit, "limit", constants.RefreshHistoryLimit, "number of runs to list")
	return cmd
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

type pipeline struct {
	cfg       *config.Config
	logger    zerolog.Logger
	svc       *service.LeaderboardService
	refresher *service.Refresher
	db        *sql.DB
}

func (p *pipeline) Close() {
	p.refresher.Close()
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			p.logger.Warn().Err(err).Msg("error closing database connection")
		}
	}
}

// newPipeline wires the fetchers and the refresher the same way the server
// does. A database that cannot be opened only disables run recording.
func newPipeline(log zerolog.Logger, weighting string) (*pipeline, error) {
	cfg, err := config.Load(log)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if weighting != "" {
		cfg.ScoreWeighting = weighting
	}

	p := &pipeline{cfg: cfg, logger: log}
	var recorder service.RunRecorder
	if db, err := database.Open(cfg.DBPath, log); err != nil {
		log.Warn().Err(err).Msg("refresh history disabled")
	} else {
		p.db = db
		recorder = repository.NewRefreshRepository(db, log)
	}

	client := api.NewStatsClient(cfg, log)
	svc, err := service.NewLeaderboardService(client, recorder, cfg, log)
	if err != nil {
		if p.db != nil {
			_ = p.db.Close()
		}
		return nil, err
	}
	p.svc = svc
	p.refresher = service.NewRefresher(svc, cfg.BoardTTL)
	return p, nil
}

func runShowCmd(cmd *cobra.Command, _ []string) error {
	period, state, err := resolveView(cmd, time.Now())
	if err != nil {
		return err
	}

	log, closeLog := newCLILogger(os.Stderr)
	defer closeLog()

	p, err := newPipeline(log, viewWeighting)
	if err != nil {
		return err
	}
	defer p.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	board, applied, err := p.refresher.Refresh(ctx, period)
	if err != nil {
		return err
	}
	if !applied && ctx.Err() != nil {
		return ctx.Err()
	}
	if board.Err != nil {
		return board.Err
	}

	lastUpdate, _ := p.svc.LastUpdate(ctx)
	rows := leaderboard.Apply(board.Rows, state)
	caption := render.Caption{
		Period:       period,
		Category:     state.Category,
		Shown:        len(rows),
		Total:        len(board.Rows),
		History:      board.Snapshot != nil,
		FailedChunks: len(board.Failures),
		LastUpdate:   lastUpdate,
	}
	out := cmd.OutOrStdout()
	return render.Write(out, caption, rows, state, !showNoColor && isTerminal(out))
}

func runTUICmd(cmd *cobra.Command, _ []string) error {
	now := time.Now()
	period, state, err := resolveView(cmd, now)
	if err != nil {
		return err
	}

	// stderr would draw over the alternate screen
	log, closeLog := newCLILogger(io.Discard)
	defer closeLog()

	p, err := newPipeline(log, viewWeighting)
	if err != nil {
		return err
	}
	defer p.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	return tui.Run(tui.NewModel(ctx, p.refresher, p.svc, period, state, now))
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	if historyLimit <= 0 {
		return fmt.Errorf("--limit must be > 0")
	}

	log, closeLog := newCLILogger(os.Stderr)
	defer closeLog()

	cfg, err := config.Load(log)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	db, err := database.Open(cfg.DBPath, log)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	repo := repository.NewRefreshRepository(db, log)
	ctx, cancel := context.WithTimeout(cmd.Context(), constants.DatabaseTimeout)
	defer cancel()
	runs, err := repo.Recent(ctx, historyLimit)
	if err != nil {
		return err
	}
	return writeHistory(cmd.OutOrStdout(), runs)
}

func writeHistory(w io.Writer, runs []domain.RefreshRun) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No refreshes recorded.")
		return err
	}
	for _, r := range runs {
		line := fmt.Sprintf("%s  %s  %-7s  %4d players  %d unknown  %d failed chunks  %s",
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			domain.Period{Year: r.Year, Month: r.Month},
			r.Status,
			r.Players,
			r.Unknown,
			r.FailedChunks,
			r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond),
		)
		if r.HasSnapshot {
			line += "  history"
		}
		if r.Error != "" {
			line += "  error: " + r.Error
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		for _, f := range r.Failures {
			if _, err := fmt.Fprintf(w, "    chunk %d (%d players): %s\n", f.ChunkIndex, len(f.Usernames), f.Error); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
		}
	}
	return nil
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultViewFilePath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(config.DefaultViewFileTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// newCLILogger writes to LOG_FILE when set, else to fallback. The CLI stays
// quiet below warn unless LOG_LEVEL says otherwise.
func newCLILogger(fallback io.Writer) (zerolog.Logger, func()) {
	level := zerolog.WarnLevel
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(v)); err == nil && parsed != zerolog.NoLevel {
			level = parsed
		}
	}

	if path := os.Getenv("LOG_FILE"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err == nil {
			return logger.NewWithWriter(f, level), func() { _ = f.Close() }
		}
		logErrf("failed to open LOG_FILE: %v\n", err)
	}
	return logger.NewWithWriter(fallback, level), func() {}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

func logErrf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format, args...)
}
