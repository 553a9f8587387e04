package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

type State int

const (
	NoSession State = iota
	Active
	Expired
)

func (s State) String() string {
	switch s {
	case NoSession:
		return "no_session"
	case Active:
		return "active"
	case Expired:
		return "expired"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type Session struct {
	Ticket     string
	CreatedAt  time.Time
	LastUsedAt time.Time
}

// CreateFunc asks the vendor for a new session and returns its ticket.
type CreateFunc func(ctx context.Context) (string, error)

// CreationError means a session could not be established or renewed.
type CreationError struct {
	Err error
}

func (e *CreationError) Error() string {
	return fmt.Sprintf("failed to create session: %v", e.Err)
}

func (e *CreationError) Unwrap() error {
	return e.Err
}

type Options struct {
	// Inactivity is how long a ticket may sit unused before it is treated as
	// expired without asking the vendor. Zero disables proactive expiry.
	Inactivity    time.Duration
	CreateTimeout time.Duration
	Now           func() time.Time
	Logger        zerolog.Logger
}

// Manager owns the single session of one client. Renewals are coalesced, so
// callers that observe an expired session together share one creation
// request.
type Manager struct {
	create CreateFunc
	opts   Options
	group  singleflight.Group

	mu      sync.Mutex
	current *Session
	expired bool
}

func NewManager(create CreateFunc, opts Options) *Manager {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.CreateTimeout <= 0 {
		opts.CreateTimeout = 10 * time.Second
	}
	return &Manager{create: create, opts: opts}
}

func (m *Manager) liveLocked(now time.Time) bool {
	if m.current == nil {
		return false
	}
	if m.opts.Inactivity <= 0 {
		return true
	}
	return now.Sub(m.current.LastUsedAt) < m.opts.Inactivity
}

func (m *Manager) State() State {
	_, state := m.Snapshot()
	return state
}

// Snapshot returns a copy of the current session and its state.
func (m *Manager) Snapshot() (Session, State) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case m.current == nil && m.expired:
		return Session{}, Expired
	case m.current == nil:
		return Session{}, NoSession
	case !m.liveLocked(m.opts.Now()):
		return *m.current, Expired
	default:
		return *m.current, Active
	}
}

// Ticket returns the ticket of the live session, creating one when there is
// none and renewing it when it has been idle too long.
func (m *Manager) Ticket(ctx context.Context) (string, error) {
	m.mu.Lock()
	if m.liveLocked(m.opts.Now()) {
		ticket := m.current.Ticket
		m.mu.Unlock()
		return ticket, nil
	}
	var stale string
	if m.current != nil {
		stale = m.current.Ticket
		m.opts.Logger.Debug().
			Dur("idle", m.opts.Now().Sub(m.current.LastUsedAt)).
			Msg("session idle past inactivity window")
	}
	m.mu.Unlock()

	return m.renew(ctx, stale)
}

// Renew replaces the session whose ticket the vendor rejected. If another
// caller already replaced it, the newer ticket is returned without a
// creation request.
func (m *Manager) Renew(ctx context.Context, stale string) (string, error) {
	m.Invalidate(stale)
	return m.renew(ctx, stale)
}

// Invalidate marks the session expired if ticket is still the current one.
func (m *Manager) Invalidate(ticket string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil || m.current.Ticket != ticket {
		return
	}
	m.current = nil
	m.expired = true
	m.opts.Logger.Warn().Msg("session marked expired")
}

// Touch refreshes the last use of the session identified by ticket.
func (m *Manager) Touch(ticket string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil && m.current.Ticket == ticket {
		m.current.LastUsedAt = m.opts.Now()
	}
}

func (m *Manager) renew(ctx context.Context, stale string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// The creation outlives a cancelled caller so that the others waiting on
	// the same flight still get a session.
	flightCtx := context.WithoutCancel(ctx)
	ch := m.group.DoChan("session", func() (interface{}, error) {
		m.mu.Lock()
		if m.current != nil && m.current.Ticket != stale && m.liveLocked(m.opts.Now()) {
			ticket := m.current.Ticket
			m.mu.Unlock()
			return ticket, nil
		}
		m.mu.Unlock()

		createCtx, cancel := context.WithTimeout(flightCtx, m.opts.CreateTimeout)
		defer cancel()

		start := m.opts.Now()
		ticket, err := m.create(createCtx)
		if err != nil {
			m.opts.Logger.Error().Err(err).Msg("failed to create session")
			return nil, &CreationError{Err: err}
		}
		if ticket == "" {
			err := errors.New("vendor returned an empty session ticket")
			m.opts.Logger.Error().Err(err).Msg("failed to create session")
			return nil, &CreationError{Err: err}
		}

		now := m.opts.Now()
		m.mu.Lock()
		m.current = &Session{Ticket: ticket, CreatedAt: now, LastUsedAt: now}
		m.expired = false
		m.mu.Unlock()

		m.opts.Logger.Info().Dur("duration", now.Sub(start)).Msg("session created")
		return ticket, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}
