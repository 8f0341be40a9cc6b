package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, config.DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "attendance.db", cfg.Store.SQLitePath)
	assert.Equal(t, "?", cfg.Attendance.FallbackGlyph)
	assert.Equal(t, 22, cfg.Balance.DefaultVacationDays)
	assert.Equal(t, "0.5", cfg.Payroll.Settings().DefaultOvertimeRate50.Decimal.String())

	engine := cfg.Attendance.Engine()
	assert.Equal(t, "F", engine.Resolver.VacationGlyph)
	assert.Equal(t, "FJ", engine.Resolver.JustifiedGlyph)
	assert.Equal(t, "?", engine.FallbackGlyph)
}

func TestLoad_FileThenEnv(t *testing.T) {
	// GIVEN: A YAML file choosing memory and a port
	//        An env var overriding the port
	// WHEN: Loading
	// THEN: The env var wins, the file fills the rest

	path := filepath.Join(t.TempDir(), "attendance.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
store:
  driver: memory
attendance:
  fallback_glyph: "X"
payroll:
  default_overtime_rate_50: 0.75
`), 0o600))
	t.Setenv("ATTENDANCE_SERVER_PORT", "9100")
	t.Setenv("ATTENDANCE_LOG_FORMAT", "console")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, config.DriverMemory, cfg.Store.Driver)
	assert.Equal(t, "X", cfg.Attendance.FallbackGlyph)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "0.75", cfg.Payroll.Settings().DefaultOvertimeRate50.Decimal.String())
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() config.Config {
		return config.Config{
			Server:     config.ServerConfig{Port: 8080},
			Store:      config.StoreConfig{Driver: config.DriverSQLite, SQLitePath: ":memory:"},
			Attendance: config.AttendanceConfig{FallbackGlyph: "?", VacationGlyph: "F", LeaveGlyph: "L"},
		}
	}

	tests := []struct {
		name   string
		mutate func(*config.Config)
		ok     bool
	}{
		{"valid", func(*config.Config) {}, true},
		{"port zero", func(c *config.Config) { c.Server.Port = 0 }, false},
		{"port too large", func(c *config.Config) { c.Server.Port = 70000 }, false},
		{"unknown driver", func(c *config.Config) { c.Store.Driver = "mysql" }, false},
		{"postgres without dsn", func(c *config.Config) { c.Store.Driver = config.DriverPostgres }, false},
		{"memory needs nothing", func(c *config.Config) { c.Store = config.StoreConfig{Driver: config.DriverMemory} }, true},
		{"blank fallback glyph", func(c *config.Config) { c.Attendance.FallbackGlyph = " " }, false},
		{"negative rate", func(c *config.Config) { c.Payroll.DefaultOvertimeRate50 = -1 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	logger, err := config.NewLogger(config.LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(-1), "debug enabled")

	logger, err = config.NewLogger(config.LogConfig{Format: "json"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(-1), "info by default")

	_, err = config.NewLogger(config.LogConfig{Level: "loud"})
	assert.Error(t, err)
}
