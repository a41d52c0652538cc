package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

const validYAML = `
server:
  port: 9090
  shutdown_timeout: "3s"

database:
  driver: "sqlite"
  path: "/var/lib/queuedesk/queue.db"
  lock_timeout: "2s"

queue:
  daily_capacity: 500
  minutes_per_ticket: 10
  timezone: "America/Bogota"
  no_show_grace: "5m"
  sweep_interval: "30s"

log:
  level: "debug"
  format: "text"
`

func TestLoad_DefaultsFromEnvOnly(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_PATH", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Database.Driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Database.LockTimeout != 5*time.Second {
		t.Errorf("Database.LockTimeout = %v, want 5s", cfg.Database.LockTimeout)
	}
	if cfg.Queue.DailyCapacity != 999 {
		t.Errorf("Queue.DailyCapacity = %d, want 999", cfg.Queue.DailyCapacity)
	}
	if cfg.Queue.MinutesPerTicket != 15 {
		t.Errorf("Queue.MinutesPerTicket = %d, want 15", cfg.Queue.MinutesPerTicket)
	}
	if cfg.Queue.NoShowGrace != 0 {
		t.Errorf("Queue.NoShowGrace = %v, want 0", cfg.Queue.NoShowGrace)
	}
	if cfg.Queue.Location != time.UTC {
		t.Errorf("Queue.Location = %v, want UTC", cfg.Queue.Location)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want json", cfg.Log.Format)
	}
}

func TestLoad_FromYAML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CONFIG_PATH", writeFile(t, dir, "config.yaml", validYAML))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Database.LockTimeout != 2*time.Second {
		t.Errorf("Database.LockTimeout = %v, want 2s", cfg.Database.LockTimeout)
	}
	if cfg.Queue.DailyCapacity != 500 {
		t.Errorf("Queue.DailyCapacity = %d, want 500", cfg.Queue.DailyCapacity)
	}
	if cfg.Queue.NoShowGrace != 5*time.Minute {
		t.Errorf("Queue.NoShowGrace = %v, want 5m", cfg.Queue.NoShowGrace)
	}
	if cfg.Queue.Location == nil || cfg.Queue.Location.String() != "America/Bogota" {
		t.Errorf("Queue.Location = %v, want America/Bogota", cfg.Queue.Location)
	}
	// Unset keys keep their defaults.
	if cfg.Database.BusyTimeout != 5*time.Second {
		t.Errorf("Database.BusyTimeout = %v, want 5s", cfg.Database.BusyTimeout)
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CONFIG_PATH", writeFile(t, dir, "config.yaml", validYAML))
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("QUEUE_DAILY_CAPACITY", "250")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.Queue.DailyCapacity != 250 {
		t.Errorf("Queue.DailyCapacity = %d, want 250", cfg.Queue.DailyCapacity)
	}
}

func TestLoad_ExplicitPathMissing(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func validConfig() Config {
	return Config{
		Server:   ServerConfig{Port: 8080},
		Database: DatabaseConfig{Driver: "sqlite", Path: "q.db", LockTimeout: time.Second},
		Queue: QueueConfig{
			DailyCapacity:    999,
			MinutesPerTicket: 15,
			Timezone:         "UTC",
			SweepInterval:    time.Minute,
		},
		Telemetry: TelemetryConfig{Exporter: "stdout"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, "database.driver"},
		{"postgres without dsn", func(c *Config) { c.Database.Driver = "postgres" }, "database.dsn"},
		{"postgres with dsn", func(c *Config) {
			c.Database.Driver = "postgres"
			c.Database.DSN = "postgres://localhost/queue"
		}, ""},
		{"zero lock timeout", func(c *Config) { c.Database.LockTimeout = 0 }, "lock_timeout"},
		{"capacity above 999", func(c *Config) { c.Queue.DailyCapacity = 1000 }, "daily_capacity"},
		{"zero minutes", func(c *Config) { c.Queue.MinutesPerTicket = 0 }, "minutes_per_ticket"},
		{"negative grace", func(c *Config) { c.Queue.NoShowGrace = -time.Second }, "no_show_grace"},
		{"grace without interval", func(c *Config) {
			c.Queue.NoShowGrace = time.Minute
			c.Queue.SweepInterval = 0
		}, "sweep_interval"},
		{"bad timezone", func(c *Config) { c.Queue.Timezone = "Mars/Olympus" }, "timezone"},
		{"bad exporter", func(c *Config) {
			c.Telemetry.Enabled = true
			c.Telemetry.Exporter = "zipkin"
		}, "telemetry.exporter"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)

			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tc.wantErr)
			}
		})
	}
}

const seedYAML = `
offices:
  - id: off-1
    name: Central Registry
    code: CR
    services:
      - id: svc-1
        name: Passport Renewal
        code: PR
      - id: svc-2
        name: Land Titles
        code: LT
        active: false
  - id: off-2
    name: Harbor Annex
    code: HA
    active: false
`

func TestLoadDirectory(t *testing.T) {
	path := writeFile(t, t.TempDir(), "directory.yaml", seedYAML)

	offices, services, err := LoadDirectory(path)
	if err != nil {
		t.Fatalf("LoadDirectory() error: %v", err)
	}

	if len(offices) != 2 {
		t.Fatalf("offices = %d, want 2", len(offices))
	}
	if !offices[0].Active || offices[1].Active {
		t.Errorf("office active flags = %v/%v, want true/false", offices[0].Active, offices[1].Active)
	}
	if len(services) != 2 {
		t.Fatalf("services = %d, want 2", len(services))
	}
	if services[0].OfficeID != "off-1" {
		t.Errorf("services[0].OfficeID = %q, want off-1", services[0].OfficeID)
	}
	if !services[0].Active || services[1].Active {
		t.Errorf("service active flags = %v/%v, want true/false", services[0].Active, services[1].Active)
	}
}

func TestLoadDirectory_DuplicateService(t *testing.T) {
	seed := DirectorySeed{Offices: []OfficeSeed{
		{ID: "a", Name: "A", Services: []ServiceSeed{{ID: "s", Name: "S"}}},
		{ID: "b", Name: "B", Services: []ServiceSeed{{ID: "s", Name: "S"}}},
	}}

	if _, _, err := seed.Flatten(); err == nil {
		t.Fatal("expected duplicate service error")
	}
}

func TestFlatten_CodeDefaultsToID(t *testing.T) {
	seed := DirectorySeed{Offices: []OfficeSeed{
		{ID: "off-1", Name: "A", Services: []ServiceSeed{
			{ID: "svc-1", Name: "S1"},
			{ID: "svc-2", Name: "S2", Code: "X"},
		}},
	}}

	offices, services, err := seed.Flatten()
	if err != nil {
		t.Fatalf("Flatten() error: %v", err)
	}
	if offices[0].Code != "off-1" {
		t.Errorf("office code = %q, want off-1", offices[0].Code)
	}
	if services[0].Code != "svc-1" || services[1].Code != "X" {
		t.Errorf("service codes = %q/%q, want svc-1/X", services[0].Code, services[1].Code)
	}
}
