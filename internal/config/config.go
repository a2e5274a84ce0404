package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spacey745/cpbot/internal/constants"
	"github.com/spacey745/cpbot/internal/models"
	"github.com/spacey745/cpbot/internal/security"
)

var (
	ErrMissingAdminChat  = models.ConfigError{Message: "missing admin chat id"}
	ErrMissingMasterChat = models.ConfigError{Message: "missing master chat id"}
	ErrMissingDBPath     = models.ConfigError{Message: "missing database path"}
)

// LoadConfig reads the JSON config file, applies environment overrides and
// validates the result. The bot token and encryption secret never live in
// the file; they are environment-only.
func LoadConfig(path string) (*models.Config, error) {
	// Validate config file path to prevent directory traversal
	if err := security.ValidateFilePath(path); err != nil {
		return nil, fmt.Errorf("invalid config path: %w", err)
	}

	file, err := os.ReadFile(path) // #nosec G304 - Path validated by security.ValidateFilePath above
	if err != nil {
		return nil, err
	}

	var config models.Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, err
	}

	applyEnvironmentOverrides(&config)

	if err := validate(&config); err != nil {
		return nil, err
	}
	if err := validateSecurity(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func validate(c *models.Config) error {
	if c.Chats.AdminChatID == 0 {
		return ErrMissingAdminChat
	}
	if c.Chats.MasterChatID == 0 {
		return ErrMissingMasterChat
	}
	if c.Database.Path == "" {
		return ErrMissingDBPath
	}

	if !c.Telegram.Polling && c.Telegram.WebhookURL == "" {
		return models.ConfigError{Message: "webhook URL is required unless polling is enabled"}
	}

	if c.Retry.InitialBackoffMs <= 0 {
		c.Retry.InitialBackoffMs = constants.DefaultRetryBackoffMs
	}
	if c.Retry.MaxBackoffMs <= 0 {
		c.Retry.MaxBackoffMs = constants.DefaultMaxBackoffMs
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = constants.DefaultMaxAttempts
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	return nil
}

func applyEnvironmentOverrides(c *models.Config) {
	if path := os.Getenv("CPBOT_DB_PATH"); path != "" {
		c.Database.Path = path
	}
	if url := os.Getenv("CPBOT_WEBHOOK_URL"); url != "" {
		c.Telegram.WebhookURL = url
	}
	// SECURITY: the webhook secret should be set via environment variables
	if secret := os.Getenv("CPBOT_WEBHOOK_SECRET"); secret != "" {
		c.Telegram.WebhookSecret = secret
	}
	if level := os.Getenv("CPBOT_LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
}

// validateSecurity performs security-specific validation
func validateSecurity(c *models.Config) error {
	isProduction := os.Getenv("CPBOT_ENV") == "production"

	if isProduction {
		if !c.Telegram.Polling && c.Telegram.WebhookSecret == "" {
			return models.ConfigError{Message: "webhook secret is required in production (set CPBOT_WEBHOOK_SECRET environment variable)"}
		}
		if !c.Telegram.Polling && len(c.Telegram.WebhookSecret) < 32 {
			return models.ConfigError{Message: "webhook secret must be at least 32 characters long"}
		}
		if c.LogLevel == "debug" {
			return models.ConfigError{Message: "debug logging should not be used in production (security risk)"}
		}
	} else if !c.Telegram.Polling && c.Telegram.WebhookSecret == "" {
		fmt.Fprintf(os.Stderr, "WARNING: webhook secret not set. Set CPBOT_WEBHOOK_SECRET environment variable for security.\n")
	}

	return nil
}

// BotToken reads the bot token from the environment.
func BotToken() (string, error) {
	token := os.Getenv("CPBOT_TELEGRAM_TOKEN")
	if token == "" {
		return "", models.ConfigError{Message: "missing bot token (set CPBOT_TELEGRAM_TOKEN environment variable)"}
	}
	return token, nil
}
