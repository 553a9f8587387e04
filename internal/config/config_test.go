package config

import (
	"testing"

	"hirez-stats/pkg/hirez"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setCredentials(t *testing.T) {
	t.Setenv("HIREZ_DEV_ID", "1004")
	t.Setenv("HIREZ_AUTH_KEY", "23DF3C7E9BD14D84BF892AD206B6755C")
}

func TestLoadDefaults(t *testing.T) {
	setCredentials(t)

	cfg, err := Load(zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "1004", cfg.DevID)
	assert.Equal(t, hirez.EndpointSmitePC, cfg.Endpoint)
	assert.Equal(t, hirez.LanguageEnglish, cfg.Language)
	assert.Equal(t, hirez.DefaultQuotas(), cfg.Quotas)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadOverrides(t *testing.T) {
	setCredentials(t)
	t.Setenv("HIREZ_ENDPOINT", "paladinspc")
	t.Setenv("HIREZ_LANGUAGE", "german")
	t.Setenv("HIREZ_DAILY_REQUEST_LIMIT", "100")
	t.Setenv("SERVER_PORT", "9000")

	cfg, err := Load(zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, hirez.EndpointPaladinsPC, cfg.Endpoint)
	assert.Equal(t, hirez.LanguageGerman, cfg.Language)
	assert.Equal(t, 100, cfg.Quotas.DailyRequests)
	assert.Equal(t, "9000", cfg.ServerPort)

	cc := cfg.ClientConfig(zerolog.Nop())
	assert.Equal(t, "1004", cc.DevID)
	require.NotNil(t, cc.Quotas)
	assert.Equal(t, 100, cc.Quotas.DailyRequests)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "missing dev id", env: map[string]string{"HIREZ_DEV_ID": "", "HIREZ_AUTH_KEY": "k"}, want: "HIREZ_DEV_ID"},
		{name: "missing auth key", env: map[string]string{"HIREZ_DEV_ID": "1", "HIREZ_AUTH_KEY": ""}, want: "HIREZ_AUTH_KEY"},
		{name: "bad endpoint", env: map[string]string{"HIREZ_ENDPOINT": "switch"}, want: "HIREZ_ENDPOINT"},
		{name: "bad language", env: map[string]string{"HIREZ_LANGUAGE": "klingon"}, want: "HIREZ_LANGUAGE"},
		{name: "bad limit", env: map[string]string{"HIREZ_DAILY_SESSION_LIMIT": "many"}, want: "HIREZ_DAILY_SESSION_LIMIT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setCredentials(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(zerolog.Nop())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
