/*
Package config loads the attendance engine's runtime configuration.

PURPOSE:
  One Config struct for the server and the import tool, filled from (lowest
  to highest precedence):
  1. Built-in defaults
  2. An optional YAML file (config.yaml in ./config or ., or an explicit path)
  3. An optional .env file in the working directory
  4. ATTENDANCE_* environment variables (ATTENDANCE_STORE_DRIVER, ...)

KEYS:
  server.port                      HTTP port (8080)
  server.cors.allow_origins        CORS origins
  store.driver                     sqlite | postgres | memory
  store.sqlite_path                SQLite file, ":memory:" for a throwaway db
  store.postgres_dsn               PostgreSQL connection string
  store.postgres_max_conns         Pool size
  log.level / log.format           zap level, json | console
  attendance.fallback_glyph        Shown for records with an unknown type
  attendance.vacation_glyph        Shown for approved vacation days
  attendance.leave_glyph           Shown for approved leave days
  payroll.default_overtime_rate_50 Used when an employee has no rate; 0 is a valid value
  balance.default_vacation_days    Used when an employee has no entitlement

SEE ALSO:
  - logger.go: zap logger construction
  - cmd/server/main.go: Flag overrides
*/
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/payroll"
)

const envPrefix = "ATTENDANCE"

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Store      StoreConfig      `mapstructure:"store"`
	Log        LogConfig        `mapstructure:"log"`
	Attendance AttendanceConfig `mapstructure:"attendance"`
	Payroll    PayrollConfig    `mapstructure:"payroll"`
	Balance    BalanceConfig    `mapstructure:"balance"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	CORS CORSConfig `mapstructure:"cors"`
	// Scenarios enables the demo dataset endpoints.
	Scenarios bool `mapstructure:"scenarios"`
}

type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

type StoreConfig struct {
	Driver                  string `mapstructure:"driver"`
	SQLitePath              string `mapstructure:"sqlite_path"`
	PostgresDSN             string `mapstructure:"postgres_dsn"`
	PostgresMaxConns        int32  `mapstructure:"postgres_max_conns"`
	PostgresMinConns        int32  `mapstructure:"postgres_min_conns"`
	PostgresConnMaxLifetime int    `mapstructure:"postgres_conn_max_lifetime"` // minutes
	// SeedOccurrenceTypes inserts the default vocabulary on startup.
	SeedOccurrenceTypes bool `mapstructure:"seed_occurrence_types"`
}

// ConnMaxLifetime converts the configured minutes.
func (s StoreConfig) ConnMaxLifetime() time.Duration {
	return time.Duration(s.PostgresConnMaxLifetime) * time.Minute
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type AttendanceConfig struct {
	FallbackGlyph string `mapstructure:"fallback_glyph"`
	VacationGlyph string `mapstructure:"vacation_glyph"`
	LeaveGlyph    string `mapstructure:"leave_glyph"`
}

// Engine converts to the aggregator's configuration.
func (a AttendanceConfig) Engine() attendance.Config {
	rc := attendance.DefaultResolverConfig()
	rc.VacationGlyph = a.VacationGlyph
	rc.LeaveGlyph = a.LeaveGlyph
	return attendance.Config{Resolver: rc, FallbackGlyph: a.FallbackGlyph}
}

type PayrollConfig struct {
	DefaultOvertimeRate50 float64 `mapstructure:"default_overtime_rate_50"`
}

func (p PayrollConfig) Settings() payroll.Settings {
	return payroll.Settings{DefaultOvertimeRate50: generic.Set(decimal.NewFromFloat(p.DefaultOvertimeRate50))}
}

type BalanceConfig struct {
	DefaultVacationDays int `mapstructure:"default_vacation_days"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173", "http://localhost:8080"})
	v.SetDefault("server.scenarios", true)

	v.SetDefault("store.driver", DriverSQLite)
	v.SetDefault("store.sqlite_path", "attendance.db")
	v.SetDefault("store.postgres_dsn", "")
	v.SetDefault("store.postgres_max_conns", 10)
	v.SetDefault("store.postgres_min_conns", 1)
	v.SetDefault("store.postgres_conn_max_lifetime", 60)
	v.SetDefault("store.seed_occurrence_types", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("attendance.fallback_glyph", "?")
	v.SetDefault("attendance.vacation_glyph", "F")
	v.SetDefault("attendance.leave_glyph", "L")

	v.SetDefault("payroll.default_overtime_rate_50", 0.5)
	v.SetDefault("balance.default_vacation_days", 22)
}

// Load reads configuration. An empty path searches for config.yaml; a
// missing file is not an error, a malformed one is.
func Load(path string) (*Config, error) {
	// .env is optional; variables already set in the environment win.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values the engine cannot run without.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid config: server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			return errors.New("invalid config: store.sqlite_path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Store.PostgresDSN == "" {
			return errors.New("invalid config: store.postgres_dsn is required for the postgres driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("invalid config: unknown store.driver %q", c.Store.Driver)
	}
	if strings.TrimSpace(c.Attendance.FallbackGlyph) == "" ||
		strings.TrimSpace(c.Attendance.VacationGlyph) == "" ||
		strings.TrimSpace(c.Attendance.LeaveGlyph) == "" {
		return errors.New("invalid config: attendance glyphs must not be empty")
	}
	if c.Payroll.DefaultOvertimeRate50 < 0 {
		return errors.New("invalid config: payroll.default_overtime_rate_50 must not be negative")
	}
	if c.Balance.DefaultVacationDays < 0 {
		return errors.New("invalid config: balance.default_vacation_days must not be negative")
	}
	return nil
}
