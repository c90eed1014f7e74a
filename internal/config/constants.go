package config

// Constants defining default values for application configuration
const (
	DefaultFeedURL = "https://board.annboard.net/announcements.json"

	DefaultUserAgent = "annboard-announcements/1.0"

	DefaultServerPort = 8080
	DefaultServerHost = "" // Empty string means all interfaces

	DefaultRefreshIntervalSec = 60 // Seconds between background refreshes
	DefaultRequestTimeoutSec  = 15 // HTTP request timeout, 0 disables
	DefaultMaxRetries         = 0  // Extra attempts on transport errors, 0 means single attempt

	DefaultLogLevel = "info"
)
