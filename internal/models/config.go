package models

// Config holds the application configuration
type Config struct {
	Telegram         TelegramConfig `json:"telegram"`
	Chats            ChatConfig     `json:"chats"`
	Database         DatabaseConfig `json:"database"`
	Retry            RetryConfig    `json:"retry"`
	Tracing          TracingConfig  `json:"tracing"`
	Strings          CustomStrings  `json:"strings"`
	LogLevel         string         `json:"log_level"`
	StoreUserDetails bool           `json:"store_user_details"`
}

// TelegramConfig holds transport related configuration. The bot token is
// read from the environment, never from the config file.
type TelegramConfig struct {
	WebhookURL    string `json:"webhook_url"`
	WebhookSecret string `json:"webhook_secret"`
	Polling       bool   `json:"polling"`
}

// ChatConfig names the chats the relay routes between. Admin and master
// chats are required; favorite-admin and mirror chats are optional (zero
// disables them).
type ChatConfig struct {
	AdminChatID    int64 `json:"admin_chat_id"`
	FavAdminChatID int64 `json:"fav_admin_chat_id"`
	MirrorChatID   int64 `json:"mirror_chat_id"`
	MasterChatID   int64 `json:"master_chat_id"`
}

// DatabaseConfig holds database related configuration
type DatabaseConfig struct {
	Path string `json:"path"`
}

// RetryConfig holds backoff configuration for database startup and busy
// retries.
type RetryConfig struct {
	InitialBackoffMs int `json:"initialBackoffMs"`
	MaxBackoffMs     int `json:"maxBackoffMs"`
	MaxAttempts      int `json:"maxAttempts"`
}

// TracingConfig holds OpenTelemetry configuration.
type TracingConfig struct {
	ServiceName    string  `json:"service_name"`
	ServiceVersion string  `json:"service_version"`
	Environment    string  `json:"environment"`
	OTLPEndpoint   string  `json:"otlp_endpoint"`
	SampleRate     float64 `json:"sample_rate"`
	Enabled        bool    `json:"enabled"`
	UseStdout      bool    `json:"use_stdout"`
}

// CustomStrings overrides selected user-facing notices per deployment.
type CustomStrings struct {
	OnStart       string `json:"on_start"`
	OnEachMessage string `json:"on_each_message"`
}

type ConfigError struct {
	Message string
}

func (e ConfigError) Error() string {
	return e.Message
}
