package hirez

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"strconv"
	"strings"
	"time"

	"hirez-stats/internal/api"
	"hirez-stats/internal/constants"
	"hirez-stats/internal/ratelimit"
	"hirez-stats/internal/session"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"
)

// Names of the quota windows reported by Usage and RateLimitExceeded.
const (
	WindowDailyRequests      = "daily_requests"
	WindowDailySessions      = "daily_sessions"
	WindowConcurrentSessions = "concurrent_sessions"
)

type (
	SessionState = session.State
	Usage        = ratelimit.Usage
)

const (
	SessionNone    = session.NoSession
	SessionActive  = session.Active
	SessionExpired = session.Expired
)

// SessionInfo is a snapshot of the client's session. The ticket is omitted
// from JSON.
type SessionInfo struct {
	State      SessionState `json:"state"`
	Ticket     string       `json:"-"`
	CreatedAt  time.Time    `json:"created_at"`
	LastUsedAt time.Time    `json:"last_used_at"`
}

// Client is a read-only client for one developer account on one endpoint.
// It is safe for concurrent use.
type Client struct {
	cfg        Config
	logger     zerolog.Logger
	dispatcher *api.Dispatcher
	sessions   *session.Manager
	requests   *ratelimit.Governor
	creations  *ratelimit.Governor
}

// NewClient creates a client. No network request is made until the first
// query.
func NewClient(cfg Config) (*Client, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger.With().Str("endpoint", cfg.Endpoint.String()).Logger()
	c := &Client{
		cfg:    cfg,
		logger: logger,
		dispatcher: api.NewDispatcher(api.Config{
			DevID:     cfg.DevID,
			AuthKey:   cfg.AuthKey,
			UserAgent: cfg.UserAgent,
			Timeout:   cfg.Timeout,
			Now:       cfg.Now,
			Logger:    logger,
		}),
		requests: ratelimit.New(cfg.Now,
			ratelimit.Window{Name: WindowDailyRequests, Limit: cfg.Quotas.DailyRequests, Period: constants.QuotaPeriod},
		),
		creations: ratelimit.New(cfg.Now,
			ratelimit.Window{Name: WindowDailySessions, Limit: cfg.Quotas.DailySessions, Period: constants.QuotaPeriod},
			ratelimit.Window{Name: WindowConcurrentSessions, Limit: cfg.Quotas.ConcurrentSessions, Period: constants.SessionTimeLimit},
		),
	}
	c.sessions = session.NewManager(c.createSession, session.Options{
		Inactivity:    cfg.SessionInactivity,
		CreateTimeout: constants.SessionCreateTimeout,
		Now:           cfg.Now,
		Logger:        logger.With().Str("component", "session").Logger(),
	})
	return c, nil
}

// Close releases idle connections. The client must not be used afterwards.
func (c *Client) Close() {
	c.dispatcher.Close()
}

func (c *Client) createSession(ctx context.Context) (string, error) {
	if err := c.creations.Admit(); err != nil {
		return "", err
	}
	return c.dispatcher.CreateSession(ctx, c.cfg.Endpoint.String())
}

// admit counts one call against the daily request window.
func (c *Client) admit(method string) error {
	return c.refused(method, c.requests.Admit())
}

// check reports whether admit would succeed, without counting anything.
func (c *Client) check(method string) error {
	return c.refused(method, c.requests.Check())
}

func (c *Client) refused(method string, err error) error {
	var limitErr *RateLimitExceeded
	if errors.As(err, &limitErr) {
		c.logger.Warn().
			Str("method", method).
			Str("window", limitErr.Window).
			Dur("retry_after", limitErr.RetryAfter).
			Msg("call refused by local quota")
	}
	return err
}

func (c *Client) do(ctx context.Context, method, ticket string, params []string) ([]byte, error) {
	return c.dispatcher.Do(ctx, api.Request{
		Endpoint: c.cfg.Endpoint.String(),
		Method:   method,
		Ticket:   ticket,
		Params:   params,
	})
}

// call runs one authenticated vendor method. A rejected session is renewed
// once and the call retried once; a failed renewal surfaces as
// *SessionCreationError. A call is only counted against the daily quota once
// it has a ticket and is about to be sent.
func (c *Client) call(ctx context.Context, method string, params ...string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.check(method); err != nil {
		return nil, err
	}

	ticket, err := c.sessions.Ticket(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.admit(method); err != nil {
		return nil, err
	}

	body, err := c.do(ctx, method, ticket, params)
	if errors.Is(err, ErrSessionExpired) {
		c.logger.Warn().Str("method", method).Msg("vendor rejected session, renewing")

		ticket, err = c.sessions.Renew(ctx, ticket)
		if err != nil {
			return nil, err
		}
		if err := c.admit(method); err != nil {
			return nil, err
		}
		body, err = c.do(ctx, method, ticket, params)
		if errors.Is(err, ErrSessionExpired) {
			c.sessions.Invalidate(ticket)
		}
	}

	if accepted(err) {
		c.sessions.Touch(ticket)
	}
	if err != nil {
		return nil, err
	}
	return body, nil
}

// accepted reports whether the vendor answered with the ticket accepted. Any
// vendor reply other than a session fault counts, including not-found.
func accepted(err error) bool {
	if err == nil {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && !errors.Is(err, ErrSessionExpired)
}

func callList[T any, S schema[T]](ctx context.Context, c *Client, method string, params ...string) ([]T, error) {
	body, err := c.call(ctx, method, params...)
	if errors.Is(err, ErrNotFound) {
		return []T{}, nil
	}
	if err != nil {
		return nil, err
	}
	return mapList[T, S](method, body)
}

func callOne[T any, S schema[T]](ctx context.Context, c *Client, method string, params ...string) (*T, error) {
	body, err := c.call(ctx, method, params...)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	v, ok, err := mapOne[T, S](method, body)
	if err != nil || !ok {
		return nil, err
	}
	return &v, nil
}

// Ping checks that the endpoint is reachable. It needs no credentials and
// does not count against the quotas.
func (c *Client) Ping(ctx context.Context) (string, error) {
	body, err := c.dispatcher.Do(ctx, api.Request{
		Endpoint: c.cfg.Endpoint.String(),
		Method:   api.MethodPing,
		NoAuth:   true,
	})
	if err != nil {
		return "", err
	}
	return gjson.ParseBytes(body).String(), nil
}

// TestSession reports whether the vendor still accepts the current session.
// Unlike the queries it does not renew a rejected session; the next query
// will.
func (c *Client) TestSession(ctx context.Context) (bool, error) {
	if err := c.check("testsession"); err != nil {
		return false, err
	}
	ticket, err := c.sessions.Ticket(ctx)
	if err != nil {
		return false, err
	}
	if err := c.admit("testsession"); err != nil {
		return false, err
	}

	_, err = c.do(ctx, "testsession", ticket, nil)
	if errors.Is(err, ErrSessionExpired) {
		c.sessions.Invalidate(ticket)
		return false, nil
	}
	if accepted(err) {
		c.sessions.Touch(ticket)
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetDataUsed returns the developer's usage as counted by the vendor, and
// raises the local quota estimates to match it. The vendor always has a usage
// row, so a reply without one is a *DecodeError.
func (c *Client) GetDataUsed(ctx context.Context) (*Limits, error) {
	limits, err := callOne[Limits, limitsSchema](ctx, c, "getdataused")
	if err != nil {
		return nil, err
	}
	if limits == nil {
		return nil, &DecodeError{Method: "getdataused", Err: errNoUsageRow}
	}

	c.requests.Observe(WindowDailyRequests, limits.TotalRequests, limits.RequestLimit)
	c.creations.Observe(WindowDailySessions, limits.TotalSessions, limits.SessionCap)
	c.creations.Observe(WindowConcurrentSessions, limits.ActiveSessions, limits.ConcurrentSessions)
	c.logger.Debug().
		Int("requests_left", limits.RequestsLeft()).
		Int("sessions_left", limits.SessionsLeft()).
		Msg("quota usage synchronised")
	return limits, nil
}

// GetPlayer returns the player's profile, or nil when the vendor has no such
// player or the profile is hidden.
func (c *Client) GetPlayer(ctx context.Context, player string) (*Player, error) {
	return callOne[Player, playerSchema](ctx, c, "getplayer", player)
}

func (c *Client) GetFriends(ctx context.Context, player string) ([]Friend, error) {
	return callList[Friend, friendSchema](ctx, c, "getfriends", player)
}

func (c *Client) GetMatchHistory(ctx context.Context, player string) ([]Match, error) {
	return callList[Match, matchSchema](ctx, c, "getmatchhistory", player)
}

// GetMatchDetails returns one row per participant of the match.
func (c *Client) GetMatchDetails(ctx context.Context, matchID int64) ([]MatchPlayer, error) {
	return callList[MatchPlayer, matchPlayerSchema](ctx, c, "getmatchdetails", strconv.FormatInt(matchID, 10))
}

// GetMatchDetailsBatch fetches several matches, at most ten per vendor call
// with the calls made concurrently. Rows come back grouped in the order the
// ids were given.
func (c *Client) GetMatchDetailsBatch(ctx context.Context, matchIDs ...int64) ([]MatchPlayer, error) {
	var chunks [][]int64
	for i := 0; i < len(matchIDs); i += constants.MatchDetailsBatchSize {
		end := min(i+constants.MatchDetailsBatchSize, len(matchIDs))
		chunks = append(chunks, matchIDs[i:end])
	}

	results := make([][]MatchPlayer, len(chunks))
	g, gCtx := errgroup.WithContext(ctx)
	for i, chunk := range chunks {
		ids := make([]string, len(chunk))
		for j, id := range chunk {
			ids[j] = strconv.FormatInt(id, 10)
		}
		g.Go(func() error {
			rows, err := callList[MatchPlayer, matchPlayerSchema](gCtx, c, "getmatchdetailsbatch", strings.Join(ids, ","))
			if err != nil {
				return err
			}
			results[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		c.logger.Error().Err(err).Int("matches", len(matchIDs)).Msg("failed to fetch match details batch")
		return nil, err
	}

	order := make(map[int64]int, len(matchIDs))
	for i, id := range matchIDs {
		if _, seen := order[id]; !seen {
			order[id] = i
		}
	}
	rows := []MatchPlayer{}
	for _, chunk := range results {
		rows = append(rows, chunk...)
	}
	// the vendor does not promise to answer in request order
	slices.SortStableFunc(rows, func(a, b MatchPlayer) int {
		return cmp.Compare(order[a.MatchID], order[b.MatchID])
	})
	return rows, nil
}

func (c *Client) GetGods(ctx context.Context) ([]God, error) {
	return callList[God, godSchema](ctx, c, "getgods", c.cfg.Language.Code())
}

func (c *Client) GetChampions(ctx context.Context) ([]Champion, error) {
	return callList[Champion, championSchema](ctx, c, "getchampions", c.cfg.Language.Code())
}

func (c *Client) GetGodRanks(ctx context.Context, player string) ([]Rank, error) {
	return callList[Rank, rankSchema](ctx, c, "getgodranks", player)
}

func (c *Client) GetChampionRanks(ctx context.Context, player string) ([]Rank, error) {
	return callList[Rank, rankSchema](ctx, c, "getchampionranks", player)
}

func (c *Client) Session() SessionInfo {
	s, state := c.sessions.Snapshot()
	return SessionInfo{State: state, Ticket: s.Ticket, CreatedAt: s.CreatedAt, LastUsedAt: s.LastUsedAt}
}

// Usage returns the local quota estimates.
func (c *Client) Usage() []Usage {
	return append(c.requests.Usage(), c.creations.Usage()...)
}
