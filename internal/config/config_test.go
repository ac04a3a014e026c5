package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	yaml := `
run:
  market: mkt-btc-hourly
  width_minutes: 3
stream:
  url: https://feed.example.com/stream
api:
  base_url: https://api.example.com
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Run.Market != "mkt-btc-hourly" {
		t.Errorf("Run.Market = %q, want %q", cfg.Run.Market, "mkt-btc-hourly")
	}
	if cfg.Run.WidthMinutes != 3 {
		t.Errorf("Run.WidthMinutes = %d, want 3", cfg.Run.WidthMinutes)
	}
	if cfg.Stream.URL != "https://feed.example.com/stream" {
		t.Errorf("Stream.URL = %q, want %q", cfg.Stream.URL, "https://feed.example.com/stream")
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "secret123")

	yaml := `
run:
  market: m1
stream:
  url: https://feed.example.com/stream
api:
  base_url: https://api.example.com
database:
  postgres:
    host: localhost
    name: ticks
    user: reader
    password: ${TEST_DB_PASSWORD}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Postgres.Password != "secret123" {
		t.Errorf("Database.Postgres.Password = %q, want %q", cfg.Database.Postgres.Password, "secret123")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	yaml := `
run:
  market: m1
stream:
  url: https://feed.example.com/stream
api:
  base_url: https://api.example.com
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	// Check defaults were applied
	if cfg.Run.WidthMinutes != DefaultWidthMinutes {
		t.Errorf("Run.WidthMinutes = %d, want default %d", cfg.Run.WidthMinutes, DefaultWidthMinutes)
	}
	if cfg.Stream.Transport != DefaultTransport {
		t.Errorf("Stream.Transport = %q, want default %q", cfg.Stream.Transport, DefaultTransport)
	}
	if cfg.Stream.BufferSize != DefaultBufferSize {
		t.Errorf("Stream.BufferSize = %d, want default %d", cfg.Stream.BufferSize, DefaultBufferSize)
	}
	if cfg.API.Timeout != DefaultAPITimeout {
		t.Errorf("API.Timeout = %v, want default %v", cfg.API.Timeout, DefaultAPITimeout)
	}
	if cfg.Validation.Interval != DefaultValidateInterval {
		t.Errorf("Validate.Interval = %v, want default %v", cfg.Validation.Interval, DefaultValidateInterval)
	}
	if cfg.Report.FlatRunLimit != DefaultFlatRunLimit {
		t.Errorf("Report.FlatRunLimit = %d, want default %d", cfg.Report.FlatRunLimit, DefaultFlatRunLimit)
	}
	if cfg.Database.Postgres.Port != DefaultDBPort {
		t.Errorf("Database.Postgres.Port = %d, want default %d", cfg.Database.Postgres.Port, DefaultDBPort)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		c := Config{
			Run:    RunConfig{Market: "m1"},
			Stream: StreamConfig{URL: "https://feed.example.com/stream"},
			API:    APIConfig{BaseURL: "https://api.example.com"},
		}
		c.ApplyDefaults()
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: "",
		},
		{
			name:    "slugs instead of market",
			mutate:  func(c *Config) { c.Run.Market = ""; c.Run.Slugs = []string{"btc-3pm"} },
			wantErr: "",
		},
		{
			name:    "missing market and slugs",
			mutate:  func(c *Config) { c.Run.Market = "" },
			wantErr: "run.market or run.slugs is required",
		},
		{
			name:    "missing stream url",
			mutate:  func(c *Config) { c.Stream.URL = "" },
			wantErr: "stream.url is required",
		},
		{
			name:    "bad transport",
			mutate:  func(c *Config) { c.Stream.Transport = "grpc" },
			wantErr: `stream.transport must be "sse" or "ws", got "grpc"`,
		},
		{
			name:    "bad validation source",
			mutate:  func(c *Config) { c.Validation.Source = "csv" },
			wantErr: `validate.source must be "rest" or "postgres", got "csv"`,
		},
		{
			name: "postgres source requires db config",
			mutate: func(c *Config) {
				c.Validation.Enabled = true
				c.Validation.Source = "postgres"
				c.Database.Postgres.Host = ""
			},
			wantErr: "database.postgres.host is required",
		},
		{
			name: "postgres source disabled skips db check",
			mutate: func(c *Config) {
				c.Validation.Source = "postgres"
			},
			wantErr: "",
		},
		{
			name: "min_conns exceeds max_conns",
			mutate: func(c *Config) {
				c.Validation.Enabled = true
				c.Validation.Source = "postgres"
				c.Database.Postgres = DBConfig{
					Host: "localhost", Name: "db", User: "u", Password: "p",
					MaxConns: 2, MinConns: 5,
				}
			},
			wantErr: "database.postgres.min_conns (5) cannot exceed max_conns (2)",
		},
		{
			name:    "telegram token without chat id",
			mutate:  func(c *Config) { c.Notify.TelegramToken = "tok" },
			wantErr: "notify.telegram_token and notify.telegram_chat_id must be set together",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() expected error %q, got nil", tt.wantErr)
				} else if err.Error() != tt.wantErr {
					t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}
