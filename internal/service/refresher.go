package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"rot-leaderboard/internal/domain"
)

var ErrClosed = errors.New("refresher closed")

// Refresher owns the current board and enforces last-requested-period-wins:
// every Start bumps the generation and cancels the refresh in flight, and
// Commit only accepts a board from the newest generation.
type Refresher struct {
	svc *LeaderboardService
	ttl time.Duration

	mu      sync.Mutex
	gen     uint64
	cancel  context.CancelFunc
	current *Board
	closed  bool
}

func NewRefresher(svc *LeaderboardService, ttl time.Duration) *Refresher {
	return &Refresher{svc: svc, ttl: ttl}
}

// Start opens a new generation and returns the context it must run under.
func (r *Refresher) Start(parent context.Context) (context.Context, uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, 0, ErrClosed
	}
	if r.cancel != nil {
		r.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	r.gen++
	r.cancel = cancel
	return ctx, r.gen, nil
}

// Commit makes b current if it belongs to the newest generation. Stale
// boards and boards arriving after Close are dropped.
func (r *Refresher) Commit(b *Board) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || b == nil || b.Generation != r.gen {
		return false
	}
	r.current = b
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	return true
}

// Refresh loads period under a fresh generation. The returned board is always
// the one loaded for this call; applied reports whether it became current,
// which it never does when ctx or a newer refresh cancelled the load.
func (r *Refresher) Refresh(ctx context.Context, period domain.Period) (board *Board, applied bool, err error) {
	runCtx, gen, err := r.Start(ctx)
	if err != nil {
		return nil, false, err
	}
	board = r.svc.Load(runCtx, period, gen)
	// a cancelled load is missing chunks and must not become current
	if runCtx.Err() != nil {
		return board, false, nil
	}
	return board, r.Commit(board), nil
}

// Board returns the current board for period, refreshing when the period
// changed, the board is older than the ttl, or the last load failed.
func (r *Refresher) Board(ctx context.Context, period domain.Period) (*Board, error) {
	if cur := r.Current(); cur != nil && cur.Period == period && cur.Err == nil && time.Since(cur.LoadedAt) < r.ttl {
		return cur, nil
	}
	board, _, err := r.Refresh(ctx, period)
	return board, err
}

func (r *Refresher) Current() *Board {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

func (r *Refresher) Generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gen
}

// Close cancels any refresh in flight; later commits are ignored.
func (r *Refresher) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}
