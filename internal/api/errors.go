package api

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Kinds of vendor-reported failures, matched with errors.Is against an
// *APIError.
var (
	ErrSessionExpired = errors.New("session expired")
	ErrInvalidRequest = errors.New("invalid request")
	ErrThrottled      = errors.New("throttled by vendor")
	ErrNotFound       = errors.New("not found")
)

// APIError is a well-formed response whose ret_msg reports a failure.
type APIError struct {
	Method  string
	Kind    error
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %v: %s", e.Method, e.Kind, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Kind
}

// TransportError covers connection failures, timeouts and non-2xx statuses.
type TransportError struct {
	Method     string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: unexpected HTTP status %d", e.Method, e.StatusCode)
	}
	return fmt.Sprintf("%s: transport failure: %v", e.Method, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

type DecodeError struct {
	Method string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: failed to decode response: %v", e.Method, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

var (
	errNotJSON       = errors.New("body is not well-formed JSON")
	errMissingTicket = errors.New("response carries no session_id")
)

// Classify inspects the diagnostic field of a response body. Objects carry it
// at the top level, sequences on each element, and a few methods answer with
// a bare JSON string. A missing or null ret_msg is success. In a sequence the
// first element reporting a failure decides.
func Classify(method string, body []byte) error {
	if !gjson.ValidBytes(body) {
		return &DecodeError{Method: method, Err: errNotJSON}
	}

	doc := gjson.ParseBytes(body)
	switch {
	case doc.IsObject():
		return classifyResult(method, doc.Get("ret_msg"))
	case doc.IsArray():
		for _, msg := range doc.Get("#.ret_msg").Array() {
			if err := classifyResult(method, msg); err != nil {
				return err
			}
		}
		return nil
	case doc.Type == gjson.String:
		if isSessionFault(strings.ToLower(doc.String())) {
			return &APIError{Method: method, Kind: ErrSessionExpired, Message: doc.String()}
		}
		return nil
	default:
		return nil
	}
}

func classifyResult(method string, msg gjson.Result) error {
	if !msg.Exists() || msg.Type == gjson.Null {
		return nil
	}
	return classifyMessage(method, msg.String())
}

func classifyMessage(method, msg string) error {
	lower := strings.ToLower(strings.TrimSpace(msg))
	var kind error
	switch {
	case lower == "" || lower == "approved":
		return nil
	case isSessionFault(lower):
		kind = ErrSessionExpired
	case containsAny(lower, "limit reached", "request limit", "maximum number", "too many", "throttl"):
		kind = ErrThrottled
	case containsAny(lower, "not found", "no match", "no player", "does not exist", "privacy"):
		kind = ErrNotFound
	default:
		kind = ErrInvalidRequest
	}
	return &APIError{Method: method, Kind: kind, Message: msg}
}

func isSessionFault(lower string) bool {
	return strings.Contains(lower, "invalid session") || strings.Contains(lower, "session expired")
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
