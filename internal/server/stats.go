package server

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"hirez-stats/internal/constants"
	"hirez-stats/internal/middleware"
	"hirez-stats/pkg/hirez"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// StatsClient is the part of *hirez.Client the gateway serves.
type StatsClient interface {
	Ping(ctx context.Context) (string, error)
	Session() hirez.SessionInfo
	Usage() []hirez.Usage
	GetPlayer(ctx context.Context, player string) (*hirez.Player, error)
	GetFriends(ctx context.Context, player string) ([]hirez.Friend, error)
	GetMatchHistory(ctx context.Context, player string) ([]hirez.Match, error)
	GetMatchDetails(ctx context.Context, matchID int64) ([]hirez.MatchPlayer, error)
	GetMatchDetailsBatch(ctx context.Context, matchIDs ...int64) ([]hirez.MatchPlayer, error)
	GetGods(ctx context.Context) ([]hirez.God, error)
	GetChampions(ctx context.Context) ([]hirez.Champion, error)
	GetGodRanks(ctx context.Context, player string) ([]hirez.Rank, error)
	GetChampionRanks(ctx context.Context, player string) ([]hirez.Rank, error)
}

type StatsServer struct {
	client StatsClient
	logger zerolog.Logger
}

func NewStatsServer(client *hirez.Client, logger zerolog.Logger) *StatsServer {
	return newStatsServer(client, logger)
}

func newStatsServer(client StatsClient, logger zerolog.Logger) *StatsServer {
	return &StatsServer{client: client, logger: logger}
}

type PlayerSummary struct {
	Player       *hirez.Player `json:"player"`
	TotalMatches int           `json:"total_matches"`
	KDRatio      float64       `json:"kd_ratio"`
	WinRate      float64       `json:"win_rate"`
}

type UsageResponse struct {
	Session hirez.SessionInfo `json:"session"`
	Quotas  []hirez.Usage     `json:"quotas"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *StatsServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", s.ping)
	mux.HandleFunc("GET /usage", s.usage)
	mux.HandleFunc("GET /players/{player}", s.playerSummary)
	mux.HandleFunc("GET /players/{player}/friends", playerQuery(s, friendsQuery))
	mux.HandleFunc("GET /players/{player}/matches", playerQuery(s, matchesQuery))
	mux.HandleFunc("GET /players/{player}/godranks", playerQuery(s, godRanksQuery))
	mux.HandleFunc("GET /players/{player}/championranks", playerQuery(s, championRanksQuery))
	mux.HandleFunc("GET /matches/{ids}", s.matchDetails)
	mux.HandleFunc("GET /gods", s.gods)
	mux.HandleFunc("GET /champions", s.champions)
	return mux
}

func (s *StatsServer) ping(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), constants.RequestTimeout)
	defer cancel()

	msg, err := s.client.Ping(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}

func (s *StatsServer) usage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, UsageResponse{Session: s.client.Session(), Quotas: s.client.Usage()})
}

func (s *StatsServer) playerSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), constants.RequestTimeout)
	defer cancel()

	name := r.PathValue("player")
	s.log(ctx).Info().Str("player", name).Msg("getting player summary")

	var (
		player  *hirez.Player
		matches []hirez.Match
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		player, err = s.client.GetPlayer(gCtx, name)
		return err
	})
	g.Go(func() error {
		var err error
		matches, err = s.client.GetMatchHistory(gCtx, name)
		return err
	})
	if err := g.Wait(); err != nil {
		s.writeError(w, r, err)
		return
	}
	if player == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{
			Error:     "player not found",
			RequestID: middleware.GetRequestID(r.Context()),
		})
		return
	}

	var kills, deaths, wins int
	for _, m := range matches {
		kills += m.Kills
		deaths += m.Deaths
		if strings.EqualFold(m.WinStatus, "win") {
			wins++
		}
	}
	writeJSON(w, http.StatusOK, PlayerSummary{
		Player:       player,
		TotalMatches: len(matches),
		KDRatio:      calculateKD(kills, deaths),
		WinRate:      calculateWinRate(wins, len(matches)),
	})
}

type playerQueryFunc[T any] func(c StatsClient, ctx context.Context, player string) ([]T, error)

var (
	friendsQuery       playerQueryFunc[hirez.Friend] = StatsClient.GetFriends
	matchesQuery       playerQueryFunc[hirez.Match]  = StatsClient.GetMatchHistory
	godRanksQuery      playerQueryFunc[hirez.Rank]   = StatsClient.GetGodRanks
	championRanksQuery playerQueryFunc[hirez.Rank]   = StatsClient.GetChampionRanks
)

func playerQuery[T any](s *StatsServer, query playerQueryFunc[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), constants.RequestTimeout)
		defer cancel()

		rows, err := query(s.client, ctx, r.PathValue("player"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rows)
	}
}

func (s *StatsServer) matchDetails(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), constants.RequestTimeout)
	defer cancel()

	ids, err := parseMatchIDs(r.PathValue("ids"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:     err.Error(),
			RequestID: middleware.GetRequestID(r.Context()),
		})
		return
	}

	var rows []hirez.MatchPlayer
	if len(ids) == 1 {
		rows, err = s.client.GetMatchDetails(ctx, ids[0])
	} else {
		rows, err = s.client.GetMatchDetailsBatch(ctx, ids...)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *StatsServer) gods(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), constants.RequestTimeout)
	defer cancel()

	gods, err := s.client.GetGods(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, gods)
}

func (s *StatsServer) champions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), constants.RequestTimeout)
	defer cancel()

	champions, err := s.client.GetChampions(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, champions)
}

func parseMatchIDs(raw string) ([]int64, error) {
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil || id <= 0 {
			return nil, errors.New("match ids must be positive integers")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *StatsServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusBadGateway
	var limitErr *hirez.RateLimitExceeded
	switch {
	case errors.As(err, &limitErr):
		status = http.StatusTooManyRequests
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(limitErr.RetryAfter.Seconds()))))
	case errors.Is(err, hirez.ErrThrottled):
		status = http.StatusServiceUnavailable
	case errors.Is(err, hirez.ErrInvalidRequest):
		status = http.StatusBadRequest
	}

	logger := s.log(r.Context())
	if status == http.StatusBadGateway {
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("vendor query failed")
	} else {
		logger.Warn().Err(err).Str("path", r.URL.Path).Int("status", status).Msg("vendor query refused")
	}

	writeJSON(w, status, errorResponse{Error: err.Error(), RequestID: middleware.GetRequestID(r.Context())})
}

// log returns the request logger set by the middleware, or the server's own.
func (s *StatsServer) log(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &s.logger
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func calculateKD(kills, deaths int) float64 {
	if deaths == 0 {
		return float64(kills)
	}
	return float64(kills) / float64(deaths)
}

func calculateWinRate(wins, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(wins) / float64(total)
}
