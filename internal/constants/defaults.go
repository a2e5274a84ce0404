package constants

// Telegram per-message size limits, in characters.
const (
	MessageTextLimit    = 4096
	MessageCaptionLimit = 1024
)

// Marker appended to a message part when the split point falls inside a
// sentence and the continuation follows in the next message.
const EllipsisMarker = "..."

// Default retry configuration values
const (
	DefaultRetryBackoffMs        = 1000
	DefaultMaxBackoffMs          = 60000
	DefaultMaxAttempts           = 5
	DefaultDatabaseRetryAttempts = 3
)

// Default server values
const (
	DefaultServerPort            = 8081
	DefaultServerReadTimeoutSec  = 15
	DefaultServerWriteTimeoutSec = 15
	DefaultServerIdleTimeoutSec  = 60
	DefaultGracefulShutdownSec   = 30
	ServerErrorChannelSize       = 1
)

// Encryption parameters for field-level encryption at rest.
const (
	EncryptionSalt       = "cpbot-field-encryption-v1"
	EncryptionLookupSalt = "cpbot-lookup-v1"
)
