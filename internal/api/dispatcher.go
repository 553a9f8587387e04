package api

import (
	"context"
	"net/url"
	"strings"
	"time"

	"hirez-stats/internal/constants"
	"hirez-stats/internal/signature"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"github.com/valyala/fasthttp"
)

const (
	ResponseFormat = "Json"

	MethodCreateSession = "createsession"
	MethodPing          = "ping"
)

type Config struct {
	DevID     string
	AuthKey   string
	UserAgent string
	Timeout   time.Duration
	Now       func() time.Time
	Logger    zerolog.Logger
}

// Request is one vendor call. Ticket is empty for createsession, and NoAuth
// calls carry neither credentials nor a ticket.
type Request struct {
	Endpoint string
	Method   string
	Ticket   string
	Params   []string
	NoAuth   bool
}

type Dispatcher struct {
	cfg    Config
	client *fasthttp.Client
}

func NewDispatcher(cfg Config) *Dispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = constants.ExternalAPITimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Dispatcher{
		cfg: cfg,
		client: &fasthttp.Client{
			Name:                   cfg.UserAgent,
			MaxConnsPerHost:        constants.MaxConnsPerHost,
			ReadTimeout:            cfg.Timeout,
			WriteTimeout:           cfg.Timeout,
			MaxIdleConnDuration:    constants.MaxIdleConnDuration,
			DisablePathNormalizing: true,
		},
	}
}

func (d *Dispatcher) segments(r Request, timestamp string) []string {
	segs := []string{strings.TrimRight(r.Endpoint, "/"), r.Method + ResponseFormat}
	if !r.NoAuth {
		segs = append(segs, url.PathEscape(d.cfg.DevID), signature.Generate(d.cfg.DevID, r.Method, d.cfg.AuthKey, timestamp))
		if r.Ticket != "" {
			segs = append(segs, url.PathEscape(r.Ticket))
		}
		segs = append(segs, timestamp)
	}
	for _, p := range r.Params {
		segs = append(segs, url.PathEscape(p))
	}
	return segs
}

// URL builds the signed request target in the vendor's positional order:
// endpoint/methodJson/devId/signature/ticket/timestamp/params...
func (d *Dispatcher) URL(r Request, timestamp string) string {
	return strings.Join(d.segments(r, timestamp), "/")
}

func (d *Dispatcher) redactedURL(r Request, timestamp string) string {
	segs := d.segments(r, timestamp)
	if !r.NoAuth {
		segs[3] = "<signature>"
	}
	return strings.Join(segs, "/")
}

// Do performs the call and returns the raw body once it is known to be
// well-formed JSON with no failure reported in ret_msg.
func (d *Dispatcher) Do(ctx context.Context, r Request) ([]byte, error) {
	callID, err := gonanoid.New()
	if err != nil {
		callID = "unknown"
	}
	logger := d.cfg.Logger.With().Str("method", r.Method).Str("call_id", callID).Logger()

	timestamp := signature.Timestamp(d.cfg.Now())
	logger.Debug().Str("url", d.redactedURL(r, timestamp)).Msg("calling vendor")

	start := time.Now()
	status, body, err := d.get(ctx, d.URL(r, timestamp))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			logger.Debug().Err(ctxErr).Msg("vendor call abandoned")
			return nil, ctxErr
		}
		logger.Error().Err(err).Dur("duration", time.Since(start)).Msg("vendor request failed")
		return nil, &TransportError{Method: r.Method, Err: err}
	}

	if status == fasthttp.StatusTooManyRequests {
		logger.Warn().Int("status", status).Msg("vendor throttled request")
		return nil, &APIError{Method: r.Method, Kind: ErrThrottled, Message: fasthttp.StatusMessage(status)}
	}
	if status < 200 || status >= 300 {
		logger.Error().Int("status", status).Msg("vendor returned non-success status")
		return nil, &TransportError{Method: r.Method, StatusCode: status}
	}

	if err := Classify(r.Method, body); err != nil {
		logger.Warn().Err(err).Msg("vendor reported failure")
		return nil, err
	}

	logger.Debug().
		Int("status", status).
		Int("bytes", len(body)).
		Dur("duration", time.Since(start)).
		Msg("vendor request completed")
	return body, nil
}

// CreateSession asks the vendor for a new session ticket.
func (d *Dispatcher) CreateSession(ctx context.Context, endpoint string) (string, error) {
	body, err := d.Do(ctx, Request{Endpoint: endpoint, Method: MethodCreateSession})
	if err != nil {
		return "", err
	}
	ticket := gjson.GetBytes(body, "session_id")
	if ticket.Type != gjson.String || ticket.String() == "" {
		return "", &DecodeError{Method: MethodCreateSession, Err: errMissingTicket}
	}
	return ticket.String(), nil
}

func (d *Dispatcher) Close() {
	d.client.CloseIdleConnections()
}

type response struct {
	status int
	body   []byte
	err    error
}

// get runs the exchange on its own goroutine so that a cancelled ctx returns
// immediately; the goroutine owns and releases the pooled request/response.
func (d *Dispatcher) get(ctx context.Context, target string) (int, []byte, error) {
	done := make(chan response, 1)
	go func() {
		req := fasthttp.AcquireRequest()
		resp := fasthttp.AcquireResponse()
		defer fasthttp.ReleaseRequest(req)
		defer fasthttp.ReleaseResponse(resp)

		req.SetRequestURI(target)
		req.Header.SetMethod(fasthttp.MethodGet)
		req.Header.Set("Accept", "application/json")

		var err error
		if deadline, ok := ctx.Deadline(); ok {
			err = d.client.DoDeadline(req, resp, deadline)
		} else {
			err = d.client.DoTimeout(req, resp, d.cfg.Timeout)
		}
		if err != nil {
			done <- response{err: err}
			return
		}
		done <- response{status: resp.StatusCode(), body: append([]byte(nil), resp.Body()...)}
	}()

	select {
	case <-ctx.Done():
		return 0, nil, ctx.Err()
	case r := <-done:
		return r.status, r.body, r.err
	}
}
