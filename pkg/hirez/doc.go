// Package hirez provides a read-only client for the Hi-Rez statistics API
// used by Smite and Paladins.
//
// The vendor authenticates every call with a signature and a short-lived
// session, and enforces daily quotas per developer account. The client
// hides both: sessions are created on first use and renewed transparently
// when the vendor rejects them, and calls that would exceed a quota are
// refused locally before anything is sent.
//
// # Authentication
//
// Each request path carries:
//   - the developer id
//   - an MD5 signature of devId + method + authKey + UTC timestamp
//   - the session ticket (every method except createsession)
//   - the timestamp itself, as yyyyMMddHHmmss
//
// # Basic Usage
//
//	client, err := hirez.NewClient(hirez.Config{
//	    DevID:    "1004",
//	    AuthKey:  "23DF3C7E9BD14D84BF892AD206B6755C",
//	    Endpoint: hirez.EndpointSmitePC,
//	})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	friends, err := client.GetFriends(ctx, "Dussed")
//
// # Error Handling
//
// Failures are typed. Local quota refusals are *RateLimitExceeded, failed
// session creation is *SessionCreationError, and failures reported by the
// vendor are *APIError whose kind is matched with errors.Is:
//
//	_, err := client.GetMatchHistory(ctx, player)
//	var limitErr *hirez.RateLimitExceeded
//	switch {
//	case errors.As(err, &limitErr):
//	    // wait limitErr.RetryAfter
//	case errors.Is(err, hirez.ErrThrottled):
//	    // the vendor refused the call
//	}
//
// A player or match the vendor does not know is not an error: list queries
// return an empty slice and GetPlayer returns nil.
package hirez
