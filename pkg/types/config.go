package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "manuscript-history/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// JournalConfig holds settings for the local change journal.
type JournalConfig struct {
	// Dir is the directory holding journal.db.
	Dir string `json:"dir" yaml:"dir"`

	// MaxEntries caps the number of journal entries listed at once
	// (default 500).
	MaxEntries int `json:"max_entries" yaml:"max_entries"`
}

// RemoteConfig holds settings for the remote change log.
type RemoteConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the change-log service root (e.g. "https://changes.example.org/api").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// Token is the bearer token. When empty it is read from
	// .secrets/remote-token.
	Token string `json:"token,omitempty" yaml:"token,omitempty"`

	// MaxRetries is the number of attempts for rate-limited requests (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// EditorConfig holds settings for applying edits.
type EditorConfig struct {
	// Schema names the rich-text schema steps are validated against
	// ("manuscript" or "plain").
	Schema string `json:"schema" yaml:"schema"`

	// LogLevel is the slog level: debug, info, warn or error.
	LogLevel string `json:"log_level" yaml:"log_level"`
}

// Config groups all component configurations.
type Config struct {
	Journal JournalConfig `json:"journal" yaml:"journal"`
	Remote  RemoteConfig  `json:"remote" yaml:"remote"`
	Editor  EditorConfig  `json:"editor" yaml:"editor"`
}
