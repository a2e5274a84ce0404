package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacey745/cpbot/internal/constants"
)

const validConfigJSON = `{
	"telegram": {
		"polling": true
	},
	"chats": {
		"admin_chat_id": 100,
		"fav_admin_chat_id": 200,
		"mirror_chat_id": 300,
		"master_chat_id": 400
	},
	"database": {
		"path": "data/cpbot.db"
	},
	"strings": {
		"on_start": "Привет"
	}
}`

// chdir changes to dir and restores the original working directory when the
// test ends, matching t.Chdir (which requires Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(orig) })
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	chdir(t, t.TempDir())
	require.NoError(t, os.MkdirAll("config", 0755))
	path := filepath.Join("config", "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func clearEnvOverrides(t *testing.T) {
	t.Helper()
	for _, key := range []string{"CPBOT_DB_PATH", "CPBOT_WEBHOOK_URL", "CPBOT_WEBHOOK_SECRET", "CPBOT_LOG_LEVEL", "CPBOT_ENV"} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigValid(t *testing.T) {
	clearEnvOverrides(t)
	path := writeConfig(t, validConfigJSON)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, int64(100), cfg.Chats.AdminChatID)
	assert.Equal(t, int64(400), cfg.Chats.MasterChatID)
	assert.Equal(t, "data/cpbot.db", cfg.Database.Path)
	assert.Equal(t, "Привет", cfg.Strings.OnStart)
	assert.True(t, cfg.Telegram.Polling)
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	clearEnvOverrides(t)
	path := writeConfig(t, validConfigJSON)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, constants.DefaultRetryBackoffMs, cfg.Retry.InitialBackoffMs)
	assert.Equal(t, constants.DefaultMaxBackoffMs, cfg.Retry.MaxBackoffMs)
	assert.Equal(t, constants.DefaultMaxAttempts, cfg.Retry.MaxAttempts)
}

func TestLoadConfigMissingFile(t *testing.T) {
	clearEnvOverrides(t)
	chdir(t, t.TempDir())

	_, err := LoadConfig("missing.json")
	assert.Error(t, err)
}

func TestLoadConfigRejectsTraversalPath(t *testing.T) {
	clearEnvOverrides(t)

	_, err := LoadConfig("../config.json")
	assert.Error(t, err)
}

func TestLoadConfigInvalidJSON(t *testing.T) {
	clearEnvOverrides(t)
	path := writeConfig(t, "{not json")

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name:    "missing admin chat",
			content: `{"telegram":{"polling":true},"chats":{"master_chat_id":400},"database":{"path":"data/cpbot.db"}}`,
			wantErr: ErrMissingAdminChat,
		},
		{
			name:    "missing master chat",
			content: `{"telegram":{"polling":true},"chats":{"admin_chat_id":100},"database":{"path":"data/cpbot.db"}}`,
			wantErr: ErrMissingMasterChat,
		},
		{
			name:    "missing database path",
			content: `{"telegram":{"polling":true},"chats":{"admin_chat_id":100,"master_chat_id":400}}`,
			wantErr: ErrMissingDBPath,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnvOverrides(t)
			path := writeConfig(t, tt.content)

			_, err := LoadConfig(path)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoadConfigRequiresWebhookURLWithoutPolling(t *testing.T) {
	clearEnvOverrides(t)
	path := writeConfig(t, `{"chats":{"admin_chat_id":100,"master_chat_id":400},"database":{"path":"data/cpbot.db"}}`)

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	clearEnvOverrides(t)
	path := writeConfig(t, validConfigJSON)

	t.Setenv("CPBOT_DB_PATH", "data/other.db")
	t.Setenv("CPBOT_LOG_LEVEL", "warn")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "data/other.db", cfg.Database.Path)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadConfigProductionRequiresWebhookSecret(t *testing.T) {
	clearEnvOverrides(t)
	path := writeConfig(t, `{
		"telegram": {"webhook_url": "https://example.com/webhook"},
		"chats": {"admin_chat_id": 100, "master_chat_id": 400},
		"database": {"path": "data/cpbot.db"}
	}`)

	t.Setenv("CPBOT_ENV", "production")

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "webhook secret")
}

func TestLoadConfigProductionRejectsShortWebhookSecret(t *testing.T) {
	clearEnvOverrides(t)
	path := writeConfig(t, `{
		"telegram": {"webhook_url": "https://example.com/webhook"},
		"chats": {"admin_chat_id": 100, "master_chat_id": 400},
		"database": {"path": "data/cpbot.db"}
	}`)

	t.Setenv("CPBOT_ENV", "production")
	t.Setenv("CPBOT_WEBHOOK_SECRET", "short")

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "32 characters")
}

func TestLoadConfigProductionRejectsDebugLogging(t *testing.T) {
	clearEnvOverrides(t)
	path := writeConfig(t, `{
		"telegram": {"polling": true},
		"chats": {"admin_chat_id": 100, "master_chat_id": 400},
		"database": {"path": "data/cpbot.db"},
		"log_level": "debug"
	}`)

	t.Setenv("CPBOT_ENV", "production")

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "debug logging")
}

func TestBotToken(t *testing.T) {
	t.Setenv("CPBOT_TELEGRAM_TOKEN", "")
	_, err := BotToken()
	assert.Error(t, err)

	t.Setenv("CPBOT_TELEGRAM_TOKEN", "123:abc")
	token, err := BotToken()
	require.NoError(t, err)
	assert.Equal(t, "123:abc", token)
}
