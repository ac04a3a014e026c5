package config

import "time"

// Config is the root configuration for a chartwatch run.
type Config struct {
	Run      RunConfig      `yaml:"run"`
	Stream   StreamConfig   `yaml:"stream"`
	API      APIConfig      `yaml:"api"`
	Database DatabaseConfig `yaml:"database"`
	Validation ValidateConfig `yaml:"validate"`
	Report   ReportConfig   `yaml:"report"`
	Notify   NotifyConfig   `yaml:"notify"`
}

// RunConfig bounds the observation window and selects the market.
type RunConfig struct {
	Duration     time.Duration `yaml:"duration"` // 0 means run until interrupted
	Market       string        `yaml:"market"`   // market ID; alternative to slugs
	Slugs        []string      `yaml:"slugs"`
	WidthMinutes int           `yaml:"width_minutes"`
}

// StreamConfig holds the live tick feed settings.
type StreamConfig struct {
	URL        string `yaml:"url"`
	Transport  string `yaml:"transport"` // "sse" or "ws"
	BufferSize int    `yaml:"buffer_size"`
}

// APIConfig holds REST API settings, used for market resolution and the
// REST-backed validation source.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"` // optional bearer token
	Timeout time.Duration `yaml:"timeout"`
}

// DatabaseConfig holds the Postgres connection used by the postgres-backed
// validation source. Unused when validation reads over REST.
type DatabaseConfig struct {
	Postgres DBConfig `yaml:"postgres"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// ValidateConfig holds cross-validation poller settings.
type ValidateConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Source      string        `yaml:"source"` // "rest" or "postgres"
	Interval    time.Duration `yaml:"interval"`
	PageSize    int           `yaml:"page_size"`
	MissedLimit int           `yaml:"missed_limit"`
}

// ReportConfig holds diagnostic reporter settings.
type ReportConfig struct {
	Interval     time.Duration `yaml:"interval"`
	LogFile      string        `yaml:"log_file"`
	SampleLimit  int           `yaml:"sample_limit"`
	FlatEps      float64       `yaml:"flat_eps"`
	FlatRunLimit int           `yaml:"flat_run_limit"`
}

// NotifyConfig holds the optional end-of-run alert channel. Both fields must
// be set together; leaving them empty disables alerts.
type NotifyConfig struct {
	TelegramToken  string `yaml:"telegram_token"`
	TelegramChatID string `yaml:"telegram_chat_id"`
}
