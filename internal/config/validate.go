package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Run.Market == "" && len(c.Run.Slugs) == 0 {
		return errors.New("run.market or run.slugs is required")
	}
	if c.Run.WidthMinutes < 1 {
		return errors.New("run.width_minutes must be >= 1")
	}
	if c.Run.Duration < 0 {
		return errors.New("run.duration cannot be negative")
	}

	if c.Stream.URL == "" {
		return errors.New("stream.url is required")
	}
	if c.Stream.Transport != "sse" && c.Stream.Transport != "ws" {
		return fmt.Errorf("stream.transport must be \"sse\" or \"ws\", got %q", c.Stream.Transport)
	}
	if c.Stream.BufferSize < 1 {
		return errors.New("stream.buffer_size must be >= 1")
	}

	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}

	switch c.Validation.Source {
	case "rest":
	case "postgres":
		if c.Validation.Enabled {
			if err := c.Database.Postgres.validate("database.postgres"); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("validate.source must be \"rest\" or \"postgres\", got %q", c.Validation.Source)
	}
	if c.Validation.PageSize < 1 {
		return errors.New("validate.page_size must be >= 1")
	}

	if c.Report.SampleLimit < 1 {
		return errors.New("report.sample_limit must be >= 1")
	}
	if c.Report.FlatRunLimit < 1 {
		return errors.New("report.flat_run_limit must be >= 1")
	}

	if (c.Notify.TelegramToken == "") != (c.Notify.TelegramChatID == "") {
		return errors.New("notify.telegram_token and notify.telegram_chat_id must be set together")
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
