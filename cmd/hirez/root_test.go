package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vendor(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasPrefix(r.URL.Path, "/pingJson"):
			w.Write([]byte(`"Ping successful"`))
		case strings.HasPrefix(r.URL.Path, "/createsessionJson/"):
			w.Write([]byte(`{"ret_msg":"Approved","session_id":"S1"}`))
		case strings.HasPrefix(r.URL.Path, "/getdatausedJson/"):
			w.Write([]byte(`[]`))
		case strings.HasPrefix(r.URL.Path, "/getfriendsJson/"):
			w.Write([]byte(`[{"account_id":"1","name":"Azathoth","player_id":"2","ret_msg":null}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	t.Setenv("HIREZ_DEV_ID", "1004")
	t.Setenv("HIREZ_AUTH_KEY", "23DF3C7E9BD14D84BF892AD206B6755C")
	t.Setenv("HIREZ_ENDPOINT", srv.URL)
	return srv
}

func execute(args ...string) (string, error) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestPingCommand(t *testing.T) {
	vendor(t)

	out, err := execute("ping")
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"Ping successful"}`, out)
}

func TestFriendsCommand(t *testing.T) {
	vendor(t)

	out, err := execute("friends", "Dussed")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "Azathoth"`)
}

func TestUsageCommandWithoutRow(t *testing.T) {
	vendor(t)

	out, err := execute("usage")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "getdataused: failed to decode response")
	assert.NotContains(t, out, "requests_left")
}

func TestCommandArguments(t *testing.T) {
	vendor(t)

	_, err := execute("friends")
	assert.Error(t, err)

	_, err = execute("match", "12", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid match id "abc"`)
}

func TestMissingCredentials(t *testing.T) {
	t.Setenv("HIREZ_DEV_ID", "")
	t.Setenv("HIREZ_AUTH_KEY", "")

	_, err := execute("ping")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HIREZ_DEV_ID")
}
