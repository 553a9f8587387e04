package constants

import "time"

// vendor quotas as documented for a standard developer account
const (
	DailyRequestLimit      = 7500
	DailySessionLimit      = 500
	ConcurrentSessionLimit = 50
	SessionTimeLimit       = 15 * time.Minute
	QuotaPeriod            = 24 * time.Hour
)

const (
	ExternalAPITimeout    = 10 * time.Second
	SessionCreateTimeout  = 10 * time.Second
	RequestTimeout        = 30 * time.Second
	MaxIdleConnDuration   = 1 * time.Minute
	MaxConnsPerHost       = 100
	MatchDetailsBatchSize = 10
)

const (
	ShutdownTimeout = 5 * time.Second
)
