package config

import (
	"fmt"
	"time"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535 (got %d)", c.Server.Port)
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for the sqlite driver")
		}
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("database.driver must be \"sqlite\" or \"postgres\" (got %q)", c.Database.Driver)
	}
	if c.Database.LockTimeout <= 0 {
		return fmt.Errorf("database.lock_timeout must be > 0 (got %s)", c.Database.LockTimeout)
	}

	if err := c.Queue.validate(); err != nil {
		return fmt.Errorf("queue: %w", err)
	}

	if c.Telemetry.Enabled && c.Telemetry.Exporter != "stdout" && c.Telemetry.Exporter != "otlp" {
		return fmt.Errorf("telemetry.exporter must be \"stdout\" or \"otlp\" (got %q)", c.Telemetry.Exporter)
	}

	return nil
}

func (q *QueueConfig) validate() error {
	if q.DailyCapacity < 1 || q.DailyCapacity > 999 {
		return fmt.Errorf("daily_capacity must be in 1..999 (got %d)", q.DailyCapacity)
	}
	if q.MinutesPerTicket <= 0 {
		return fmt.Errorf("minutes_per_ticket must be > 0 (got %d)", q.MinutesPerTicket)
	}
	if q.NoShowGrace < 0 {
		return fmt.Errorf("no_show_grace must be >= 0 (got %s)", q.NoShowGrace)
	}
	if q.NoShowGrace > 0 && q.SweepInterval <= 0 {
		return fmt.Errorf("sweep_interval must be > 0 when no_show_grace is set (got %s)", q.SweepInterval)
	}

	loc, err := time.LoadLocation(q.Timezone)
	if err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	q.Location = loc

	return nil
}
