package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultWidthMinutes = 1

	DefaultTransport  = "sse"
	DefaultBufferSize = 4096

	DefaultAPITimeout = 10 * time.Second

	DefaultDBPort    = 5432
	DefaultDBSSLMode = "prefer"
	DefaultMaxConns  = 4
	DefaultMinConns  = 1

	DefaultValidateSource   = "rest"
	DefaultValidateInterval = 30 * time.Second
	DefaultPageSize         = 500
	DefaultMissedLimit      = 100

	DefaultReportInterval = 60 * time.Second
	DefaultSampleLimit    = 100
	DefaultFlatEps        = 1e-4
	DefaultFlatRunLimit   = 5
)

// ApplyDefaults fills in zero-valued optional fields. Flag overrides are
// applied before this, so an explicit flag value always wins.
func (c *Config) ApplyDefaults() {
	// Run defaults
	if c.Run.WidthMinutes == 0 {
		c.Run.WidthMinutes = DefaultWidthMinutes
	}

	// Stream defaults
	if c.Stream.Transport == "" {
		c.Stream.Transport = DefaultTransport
	}
	if c.Stream.BufferSize == 0 {
		c.Stream.BufferSize = DefaultBufferSize
	}

	// API defaults
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}

	// Database defaults
	applyDBDefaults(&c.Database.Postgres)

	// Validation defaults
	if c.Validation.Source == "" {
		c.Validation.Source = DefaultValidateSource
	}
	if c.Validation.Interval == 0 {
		c.Validation.Interval = DefaultValidateInterval
	}
	if c.Validation.PageSize == 0 {
		c.Validation.PageSize = DefaultPageSize
	}
	if c.Validation.MissedLimit == 0 {
		c.Validation.MissedLimit = DefaultMissedLimit
	}

	// Report defaults
	if c.Report.Interval == 0 {
		c.Report.Interval = DefaultReportInterval
	}
	if c.Report.SampleLimit == 0 {
		c.Report.SampleLimit = DefaultSampleLimit
	}
	if c.Report.FlatEps == 0 {
		c.Report.FlatEps = DefaultFlatEps
	}
	if c.Report.FlatRunLimit == 0 {
		c.Report.FlatRunLimit = DefaultFlatRunLimit
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
