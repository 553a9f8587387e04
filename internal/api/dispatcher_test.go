package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testDevID   = "1004"
	testAuthKey = "23DF3C7E9BD14D84BF892AD206B6755C"
	testStamp   = "20120927183145"
)

func fixedNow() time.Time {
	return time.Date(2012, 9, 27, 18, 31, 45, 0, time.UTC)
}

func newTestDispatcher() *Dispatcher {
	return NewDispatcher(Config{
		DevID:     testDevID,
		AuthKey:   testAuthKey,
		UserAgent: "hirez-stats-test",
		Timeout:   2 * time.Second,
		Now:       fixedNow,
	})
}

// vendorServer answers every request with status and body, recording the
// path it was asked for.
func vendorServer(t *testing.T, status int, body string, paths chan<- string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if paths != nil {
			paths <- r.URL.EscapedPath()
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestURLPositionalOrder(t *testing.T) {
	d := newTestDispatcher()

	tests := []struct {
		name string
		req  Request
		want string
	}{
		{
			name: "session call",
			req:  Request{Endpoint: "https://api.example/smiteapi.svc/", Method: "getfriends", Ticket: "ABC123", Params: []string{"Dussed"}},
			want: "https://api.example/smiteapi.svc/getfriendsJson/1004/5582bfa51dd405ffa5d7e3f5069653f1/ABC123/20120927183145/Dussed",
		},
		{
			name: "session creation",
			req:  Request{Endpoint: "https://api.example/smiteapi.svc", Method: MethodCreateSession},
			want: "https://api.example/smiteapi.svc/createsessionJson/1004/8f53249be0922c94720834771ad43f0f/20120927183145",
		},
		{
			name: "unauthenticated",
			req:  Request{Endpoint: "https://api.example/smiteapi.svc", Method: MethodPing, NoAuth: true},
			want: "https://api.example/smiteapi.svc/pingJson",
		},
		{
			name: "escaped parameters",
			req:  Request{Endpoint: "https://api.example/smiteapi.svc", Method: "getfriends", Ticket: "ABC123", Params: []string{"Big Bird/x", "1"}},
			want: "https://api.example/smiteapi.svc/getfriendsJson/1004/5582bfa51dd405ffa5d7e3f5069653f1/ABC123/20120927183145/Big%20Bird%2Fx/1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.URL(tt.req, testStamp))
		})
	}
}

func TestRedactedURLHidesSignature(t *testing.T) {
	d := newTestDispatcher()
	u := d.redactedURL(Request{Endpoint: "https://api.example/smiteapi.svc", Method: "getfriends", Ticket: "T"}, testStamp)

	assert.NotContains(t, u, "5582bfa51dd405ffa5d7e3f5069653f1")
	assert.Contains(t, u, "<signature>")
}

func TestDoReturnsBody(t *testing.T) {
	paths := make(chan string, 1)
	srv := vendorServer(t, http.StatusOK, `[{"name":"Dussed","ret_msg":null}]`, paths)
	d := newTestDispatcher()
	defer d.Close()

	body, err := d.Do(context.Background(), Request{
		Endpoint: srv.URL + "/smiteapi.svc",
		Method:   "getfriends",
		Ticket:   "ABC123",
		Params:   []string{"Dussed"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"Dussed","ret_msg":null}]`, string(body))

	segs := strings.Split(strings.TrimPrefix(<-paths, "/"), "/")
	assert.Equal(t, []string{
		"smiteapi.svc", "getfriendsJson", testDevID, "5582bfa51dd405ffa5d7e3f5069653f1", "ABC123", testStamp, "Dussed",
	}, segs)
}

func TestDoNonSuccessStatus(t *testing.T) {
	srv := vendorServer(t, http.StatusInternalServerError, `oops`, nil)
	d := newTestDispatcher()

	_, err := d.Do(context.Background(), Request{Endpoint: srv.URL, Method: "getgods", Ticket: "T"})

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, http.StatusInternalServerError, transportErr.StatusCode)
}

func TestDoVendorThrottleStatus(t *testing.T) {
	srv := vendorServer(t, http.StatusTooManyRequests, ``, nil)
	d := newTestDispatcher()

	_, err := d.Do(context.Background(), Request{Endpoint: srv.URL, Method: "getgods", Ticket: "T"})

	assert.ErrorIs(t, err, ErrThrottled)
}

func TestDoMalformedBody(t *testing.T) {
	srv := vendorServer(t, http.StatusOK, `<html>maintenance</html>`, nil)
	d := newTestDispatcher()

	_, err := d.Do(context.Background(), Request{Endpoint: srv.URL, Method: "getgods", Ticket: "T"})

	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, "getgods", decodeErr.Method)
}

func TestDoConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	d := newTestDispatcher()
	_, err := d.Do(context.Background(), Request{Endpoint: endpoint, Method: "getgods", Ticket: "T"})

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Zero(t, transportErr.StatusCode)
}

func TestDoHonoursCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()
	defer close(release)

	d := newTestDispatcher()
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := d.Do(ctx, Request{Endpoint: srv.URL, Method: "getgods", Ticket: "T"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCreateSession(t *testing.T) {
	paths := make(chan string, 1)
	srv := vendorServer(t, http.StatusOK, `{"ret_msg":"Approved","session_id":"1465AFCA32DBDB800BEE2F11B4E10E45","timestamp":"9/27/2012 6:31:45 PM"}`, paths)
	d := newTestDispatcher()

	ticket, err := d.CreateSession(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "1465AFCA32DBDB800BEE2F11B4E10E45", ticket)
	assert.Equal(t, "/createsessionJson/1004/8f53249be0922c94720834771ad43f0f/20120927183145", <-paths)
}

func TestCreateSessionRejected(t *testing.T) {
	srv := vendorServer(t, http.StatusOK, `{"ret_msg":"Invalid Developer Id","session_id":null,"timestamp":null}`, nil)
	d := newTestDispatcher()

	_, err := d.CreateSession(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestCreateSessionWithoutTicket(t *testing.T) {
	srv := vendorServer(t, http.StatusOK, `{"ret_msg":"Approved"}`, nil)
	d := newTestDispatcher()

	_, err := d.CreateSession(context.Background(), srv.URL)

	var decodeErr *DecodeError
	assert.True(t, errors.As(err, &decodeErr))
}
