package config

import "time"

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Queue     QueueConfig     `yaml:"queue"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Log       LogConfig       `yaml:"log"`
	Directory DirectoryConfig `yaml:"directory"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host              string        `yaml:"host"                env:"SERVER_HOST"                env-default:"0.0.0.0"`
	Port              int           `yaml:"port"                env:"SERVER_PORT"                env-default:"8080"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" env:"SERVER_READ_HEADER_TIMEOUT" env-default:"10s"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"    env:"SERVER_SHUTDOWN_TIMEOUT"    env-default:"5s"`
}

// DatabaseConfig selects and tunes the ticket store.
type DatabaseConfig struct {
	Driver      string        `yaml:"driver"       env:"DATABASE_DRIVER"       env-default:"sqlite"`
	Path        string        `yaml:"path"         env:"DATABASE_PATH"         env-default:"queuedesk.db"`
	DSN         string        `yaml:"dsn"          env:"DATABASE_DSN"`
	MaxConns    int32         `yaml:"max_conns"    env:"DATABASE_MAX_CONNS"    env-default:"10"`
	LockTimeout time.Duration `yaml:"lock_timeout" env:"DATABASE_LOCK_TIMEOUT" env-default:"5s"`
	BusyTimeout time.Duration `yaml:"busy_timeout" env:"DATABASE_BUSY_TIMEOUT" env-default:"5s"`
}

// QueueConfig holds the numbering and wait-estimate rules.
type QueueConfig struct {
	DailyCapacity    int    `yaml:"daily_capacity"     env:"QUEUE_DAILY_CAPACITY"     env-default:"999"`
	MinutesPerTicket int    `yaml:"minutes_per_ticket" env:"QUEUE_MINUTES_PER_TICKET" env-default:"15"`
	Timezone         string `yaml:"timezone"           env:"QUEUE_TIMEZONE"           env-default:"UTC"`

	// NoShowGrace is how long a called citizen has to show up before the
	// sweep marks the ticket no_show. Zero disables the sweep.
	NoShowGrace   time.Duration `yaml:"no_show_grace"  env:"QUEUE_NO_SHOW_GRACE"  env-default:"0s"`
	SweepInterval time.Duration `yaml:"sweep_interval" env:"QUEUE_SWEEP_INTERVAL" env-default:"1m"`

	// Location is parsed from Timezone during validation.
	Location *time.Location `yaml:"-" env:"-"`
}

// TelemetryConfig holds OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled        bool   `yaml:"enabled"         env:"OTEL_ENABLED"          env-default:"false"`
	ServiceName    string `yaml:"service_name"    env:"OTEL_SERVICE_NAME"     env-default:"queuedesk"`
	ServiceVersion string `yaml:"service_version" env:"OTEL_SERVICE_VERSION"  env-default:"0.1.0"`
	Environment    string `yaml:"environment"     env:"OTEL_ENVIRONMENT"      env-default:"development"`
	Exporter       string `yaml:"exporter"        env:"OTEL_EXPORTER"         env-default:"stdout"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// DirectoryConfig points at an optional YAML file of offices and services
// loaded into the directory at startup.
type DirectoryConfig struct {
	SeedPath string `yaml:"seed_path" env:"DIRECTORY_SEED_PATH"`
}
