package hirez

import (
	"fmt"
	"runtime"
	"time"

	"hirez-stats/internal/constants"

	"github.com/rs/zerolog"
)

const Version = "0.3.0"

// Quotas are the local ceilings the client enforces before calling the
// vendor. A non-positive value disables that ceiling.
type Quotas struct {
	DailyRequests int
	DailySessions int
	// ConcurrentSessions bounds session creations per session lifetime, so
	// that no more than this many of our sessions can be live at once.
	ConcurrentSessions int
}

func DefaultQuotas() Quotas {
	return Quotas{
		DailyRequests:      constants.DailyRequestLimit,
		DailySessions:      constants.DailySessionLimit,
		ConcurrentSessions: constants.ConcurrentSessionLimit,
	}
}

type Config struct {
	DevID   string
	AuthKey string

	Endpoint Endpoint
	Language Language
	Quotas   *Quotas

	// SessionInactivity is how long an unused session is trusted before a
	// new one is created. Defaults to the vendor's 15 minutes.
	SessionInactivity time.Duration
	Timeout           time.Duration
	UserAgent         string

	// Logger defaults to a disabled logger.
	Logger zerolog.Logger

	// Now overrides the clock used for signatures, sessions and quotas.
	Now func() time.Time
}

func (c Config) withDefaults() (Config, error) {
	if c.DevID == "" || c.AuthKey == "" {
		return c, ErrMissingCredentials
	}
	if c.Endpoint == "" {
		c.Endpoint = EndpointSmitePC
	}
	if c.Language == 0 {
		c.Language = LanguageEnglish
	}
	if c.Quotas == nil {
		q := DefaultQuotas()
		c.Quotas = &q
	}
	if c.SessionInactivity == 0 {
		c.SessionInactivity = constants.SessionTimeLimit
	}
	if c.Timeout <= 0 {
		c.Timeout = constants.ExternalAPITimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = fmt.Sprintf("hirez-stats/%s (%s)", Version, runtime.Version())
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c, nil
}
