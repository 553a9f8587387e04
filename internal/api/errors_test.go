package api

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifySuccess(t *testing.T) {
	bodies := []string{
		`[]`,
		`[{"name":"Dussed","ret_msg":null}]`,
		`[{"name":"Dussed","ret_msg":null},{"name":"Azathoth"},{"name":"Bob","ret_msg":""}]`,
		`{"ret_msg":"Approved","session_id":"X"}`,
		`{"Active_Sessions":1}`,
		`"Smite API (ver 5.0) - Ping successful."`,
		`"This was a successful test with the following parameters added: ..."`,
		`42`,
	}
	for _, body := range bodies {
		assert.NoError(t, Classify("m", []byte(body)), body)
	}
}

func TestClassifyFailures(t *testing.T) {
	tests := []struct {
		body string
		kind error
	}{
		{`{"ret_msg":"Invalid session id."}`, ErrSessionExpired},
		{`[{"ret_msg":"Invalid session id.","name":null}]`, ErrSessionExpired},
		{`"Invalid session id: 1465AFCA"`, ErrSessionExpired},
		{`{"ret_msg":"Daily request limit reached"}`, ErrThrottled},
		{`{"ret_msg":"Maximum number of active sessions reached."}`, ErrThrottled},
		{`[{"ret_msg":"No Match Details: 123"}]`, ErrNotFound},
		{`[{"ret_msg":"Player Privacy Flag set for: Dussed"}]`, ErrNotFound},
		{`[{"name":"Dussed","ret_msg":null},{"ret_msg":"Invalid session id."}]`, ErrSessionExpired},
		{`[{"name":"Dussed"},{"name":"Azathoth","ret_msg":"Invalid Signature"}]`, ErrInvalidRequest},
		{`{"ret_msg":"Invalid Signature"}`, ErrInvalidRequest},
		{`{"ret_msg":"Exception while validating developer access."}`, ErrInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			err := Classify("getplayer", []byte(tt.body))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, "getplayer", apiErr.Method)
			assert.NotEmpty(t, apiErr.Message)
		})
	}
}

func TestClassifyMalformed(t *testing.T) {
	for _, body := range []string{``, `{`, `[{"a":1},`, `not json`} {
		var decodeErr *DecodeError
		assert.True(t, errors.As(Classify("m", []byte(body)), &decodeErr), body)
	}
}
