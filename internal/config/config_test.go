package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"DB_HOST", "AIRTABLE_BASE_ID", "AIRTABLE_TOKEN", "APP_ENV", "LOG_PRETTY", "LEADERBOARD_CACHE_TTL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 30*time.Second, cfg.LeaderboardCacheTTL)
	assert.Equal(t, 5, cfg.AirtableRPS)
	assert.False(t, cfg.Production())
	assert.False(t, cfg.AirtableEnabled())
	assert.True(t, cfg.LogPretty)
	assert.Equal(t, 30*time.Second, cfg.Timeout())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AIRTABLE_BASE_ID", "app123")
	t.Setenv("AIRTABLE_TOKEN", "patSecretToken")
	t.Setenv("LEADERBOARD_CACHE_TTL", "2m")
	t.Setenv("TELEGRAM_CHAT_ID", "-1001234567890")
	t.Setenv("LOG_PRETTY", "")
	t.Setenv("SYNC_WORKERS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Production())
	assert.True(t, cfg.AirtableEnabled())
	assert.False(t, cfg.LogPretty)
	assert.Equal(t, 2*time.Minute, cfg.LeaderboardCacheTTL)
	assert.Equal(t, int64(-1001234567890), cfg.TelegramChatID)
	assert.Equal(t, 2, cfg.SyncWorkers, "unparsable values fall back to the default")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name: "Valid",
			cfg:  Config{AirtableRPS: 5, SyncWorkers: 1, RequestTimeout: 10},
		},
		{
			name:    "Base without token",
			cfg:     Config{AirtableBaseID: "app", AirtableRPS: 5, SyncWorkers: 1, RequestTimeout: 10},
			wantErr: "AIRTABLE_TOKEN",
		},
		{
			name:    "Zero workers",
			cfg:     Config{AirtableRPS: 5, RequestTimeout: 10},
			wantErr: "SYNC_WORKERS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "***", MaskSecret("short"))
	assert.Equal(t, "pat...ken", MaskSecret("patSecretToken"))
}
