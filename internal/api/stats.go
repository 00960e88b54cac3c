package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"github.com/valyala/fasthttp"

	"rot-leaderboard/internal/config"
	"rot-leaderboard/internal/constants"
	"rot-leaderboard/internal/domain"
)

// StatsClient talks to the rotten chess statistics API.
type StatsClient struct {
	baseURL      string
	batchMode    config.BatchMode
	listFlag     bool
	maxRetries   int
	retryBackoff time.Duration
	client       *fasthttp.Client
	logger       zerolog.Logger
}

func NewStatsClient(cfg *config.Config, logger zerolog.Logger) *StatsClient {
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = constants.RetryBaseBackoff
	}
	return &StatsClient{
		baseURL:      strings.TrimRight(cfg.StatsAPIURL, "/"),
		batchMode:    cfg.BatchMode,
		listFlag:     cfg.DirectoryListFlag,
		maxRetries:   cfg.MaxRetries,
		retryBackoff: backoff,
		client: &fasthttp.Client{
			Name:                "rotboard",
			MaxConnsPerHost:     16,
			ReadTimeout:         constants.ExternalAPITimeout,
			WriteTimeout:        constants.ExternalAPITimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		logger: logger.With().Str("component", "stats_api").Logger(),
	}
}

func (c *StatsClient) FetchDirectory(ctx context.Context) (*domain.Directory, error) {
	path := "/players"
	if c.listFlag {
		path += "?list=true"
	}
	body, err := c.do(ctx, "fetch directory", fasthttp.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var resp PlayersResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &FetchError{Kind: KindDeserialization, Op: "fetch directory", Err: err}
	}
	return domain.NewDirectory(resp.LeaderboardPlayers.Active, resp.PersonalityPlayers), nil
}

// FetchBatch fetches one chunk of players. The payload must be a JSON array.
func (c *StatsClient) FetchBatch(ctx context.Context, usernames []string) ([]domain.PlayerRecord, error) {
	const op = "fetch batch"
	if len(usernames) == 0 {
		return nil, nil
	}

	var (
		body []byte
		err  error
	)
	if c.batchMode == config.BatchModeGet {
		path := "/players?usernames=" + url.QueryEscape(strings.Join(usernames, ","))
		body, err = c.do(ctx, op, fasthttp.MethodGet, path, nil)
	} else {
		payload, mErr := json.Marshal(BatchRequest{Usernames: usernames})
		if mErr != nil {
			return nil, fmt.Errorf("failed to encode batch request: %w", mErr)
		}
		body, err = c.do(ctx, op, fasthttp.MethodPost, "/players/batch", payload)
	}
	if err != nil {
		return nil, err
	}

	var players []PlayerDTO
	if err := json.Unmarshal(body, &players); err != nil {
		return nil, &FetchError{Kind: KindDeserialization, Op: op, Err: err}
	}
	records := make([]domain.PlayerRecord, 0, len(players))
	for _, p := range players {
		if p.Username == "" {
			return nil, &FetchError{Kind: KindDeserialization, Op: op, Err: errors.New("player without username")}
		}
		records = append(records, p.ToDomain())
	}
	return records, nil
}

// FetchSnapshot returns the leaderboard recorded for year/month, or nil when
// none was recorded.
func (c *StatsClient) FetchSnapshot(ctx context.Context, year, month string) (*domain.Snapshot, error) {
	const op = "fetch snapshot"
	q := url.Values{}
	q.Set("year", year)
	q.Set("month", month)

	body, err := c.do(ctx, op, fasthttp.MethodGet, "/leaderboard?"+q.Encode(), nil)
	if errors.Is(err, ErrNotFound) {
		c.logger.Debug().Str("year", year).Str("month", month).Msg("no leaderboard history for period")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var resp SnapshotResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &FetchError{Kind: KindDeserialization, Op: op, Err: err}
	}
	return resp.ToDomain(), nil
}

func (c *StatsClient) FetchLastUpdate(ctx context.Context) (string, error) {
	body, err := c.do(ctx, "fetch last update", fasthttp.MethodGet, "/info/lastupdate", nil)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(string(body))
	// the endpoint may send the value JSON-quoted
	var unquoted string
	if json.Unmarshal([]byte(text), &unquoted) == nil {
		text = unquoted
	}
	return text, nil
}

func (c *StatsClient) do(ctx context.Context, op, method, path string, payload []byte) ([]byte, error) {
	backoff := retry.WithCappedDuration(constants.RetryMaxBackoff, retry.NewExponential(c.retryBackoff))
	backoff = retry.WithMaxRetries(uint64(c.maxRetries), backoff)

	var body []byte
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		b, err := c.doOnce(ctx, op, method, path, payload)
		if err == nil {
			body = b
			return nil
		}
		var fe *FetchError
		if errors.As(err, &fe) && fe.Kind == KindNetwork && (fe.Status == 0 || retryableStatus(fe.Status)) && ctx.Err() == nil {
			c.logger.Warn().Err(err).Str("op", op).Int("attempt", attempt).Msg("retrying stats api request")
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (c *StatsClient) doOnce(ctx context.Context, op, method, path string, payload []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{Kind: KindNetwork, Op: op, Err: err}
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod(method)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(payload)
	}

	start := time.Now()
	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = c.client.DoDeadline(req, resp, deadline)
	} else {
		err = c.client.DoTimeout(req, resp, constants.ExternalAPITimeout)
	}
	if err != nil {
		return nil, &FetchError{Kind: KindNetwork, Op: op, Err: err}
	}

	status := resp.StatusCode()
	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", status).
		Dur("duration", time.Since(start)).
		Msg("stats api request")

	if status == fasthttp.StatusNotFound {
		return nil, &FetchError{Kind: KindNetwork, Op: op, Status: status, Err: ErrNotFound}
	}
	if status < 200 || status >= 300 {
		return nil, &FetchError{Kind: KindNetwork, Op: op, Status: status, Err: fmt.Errorf("API error: %d", status)}
	}

	// body is owned by resp, copy before release
	body := append([]byte(nil), resp.Body()...)
	return body, nil
}
