package hirez

import (
	"errors"

	"hirez-stats/internal/api"
	"hirez-stats/internal/ratelimit"
	"hirez-stats/internal/session"
)

type (
	// SessionCreationError means no session could be established or renewed,
	// because the vendor rejected the credentials or could not be reached.
	SessionCreationError = session.CreationError

	// RateLimitExceeded is the local governor refusing a call before any
	// network request is made. RetryAfter estimates when the window resets.
	RateLimitExceeded = ratelimit.LimitError

	// TransportError covers connection failures, timeouts and non-2xx
	// statuses. It is not retried.
	TransportError = api.TransportError

	// DecodeError means the body was not JSON, or not the expected shape.
	DecodeError = api.DecodeError

	// APIError is a failure reported by the vendor in ret_msg. Match its
	// kind with errors.Is against ErrSessionExpired, ErrInvalidRequest,
	// ErrThrottled or ErrNotFound.
	APIError = api.APIError
)

var (
	// ErrSessionExpired is recovered internally with one renewal and one
	// retry; it only reaches callers when the retry is rejected too.
	ErrSessionExpired = api.ErrSessionExpired
	ErrInvalidRequest = api.ErrInvalidRequest
	// ErrThrottled is the vendor refusing a call the local governor admitted.
	ErrThrottled = api.ErrThrottled
	// ErrNotFound is reported as an empty or nil result by the query methods.
	ErrNotFound = api.ErrNotFound

	ErrMissingCredentials = errors.New("developer id and auth key are required")

	errNoUsageRow = errors.New("no usage row in reply")
)
