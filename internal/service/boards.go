package service

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"rot-leaderboard/internal/domain"
)

// BoardCache serves boards to many independent callers. Loads run under a
// context owned by the cache, so a caller that goes away never cancels a load
// others are waiting on, and concurrent requests for one period share a
// single load. Boards are cached per period for the ttl.
type BoardCache struct {
	svc *LeaderboardService
	ttl time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	group  singleflight.Group

	mu     sync.Mutex
	gen    uint64
	boards map[domain.Period]*Board
	now    func() time.Time
}

func NewBoardCache(svc *LeaderboardService, ttl time.Duration) *BoardCache {
	ctx, cancel := context.WithCancel(context.Background())
	return &BoardCache{
		svc:    svc,
		ttl:    ttl,
		ctx:    ctx,
		cancel: cancel,
		boards: make(map[domain.Period]*Board),
		now:    time.Now,
	}
}

// Board returns a fresh cached board for period or waits for a load. ctx only
// bounds the wait.
func (c *BoardCache) Board(ctx context.Context, period domain.Period) (*Board, error) {
	if b := c.cached(period); b != nil {
		return b, nil
	}
	if c.ctx.Err() != nil {
		return nil, ErrClosed
	}

	ch := c.group.DoChan(period.String(), func() (any, error) {
		return c.load(period)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Board), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *BoardCache) load(period domain.Period) (*Board, error) {
	if b := c.cached(period); b != nil {
		return b, nil
	}

	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	b := c.svc.Load(c.ctx, period, gen)
	if c.ctx.Err() != nil {
		return nil, ErrClosed
	}
	if b.Err == nil {
		c.mu.Lock()
		c.boards[period] = b
		c.mu.Unlock()
	}
	return b, nil
}

func (c *BoardCache) cached(period domain.Period) *Board {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.boards[period]
	if !ok || c.now().Sub(b.LoadedAt) >= c.ttl {
		return nil
	}
	return b
}

// Close cancels loads in flight; later calls fail with ErrClosed.
func (c *BoardCache) Close() {
	c.cancel()
}
