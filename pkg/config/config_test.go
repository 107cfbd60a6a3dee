package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/srg/imuble/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "imu", cfg.Profile)
	assert.Equal(t, 5*time.Second, cfg.ScanWindow)
	assert.Equal(t, "window", cfg.ScanPolicy)
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 10*time.Second, cfg.AdapterTimeout)
	assert.Equal(t, 20*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 5*time.Second, cfg.ReadTimeout)
	assert.True(t, cfg.CacheCharacteristics)
	assert.Equal(t, FormatCSV, cfg.OutputFormat)
	assert.Equal(t, time.Millisecond, cfg.TimestampUnit)
	assert.NoError(t, cfg.Validate())
}

func TestDefaultsMatchSession(t *testing.T) {
	opts, err := DefaultConfig().SessionOptions()
	require.NoError(t, err)
	assert.Equal(t, session.DefaultOptions(), opts, "built-in profile and defaults MUST match the session defaults")
}

func TestConfig_NewLogger(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
		expected logrus.Level
	}{
		{name: "creates logger with debug level", logLevel: "debug", expected: logrus.DebugLevel},
		{name: "creates logger with info level", logLevel: "info", expected: logrus.InfoLevel},
		{name: "creates logger with warn level", logLevel: "warn", expected: logrus.WarnLevel},
		{name: "creates logger with error level", logLevel: "error", expected: logrus.ErrorLevel},
		{name: "empty level is silent", logLevel: "", expected: logrus.PanicLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{LogLevel: tt.logLevel}

			logger := cfg.NewLogger()

			assert.NotNil(t, logger)
			assert.Equal(t, tt.expected, logger.GetLevel())

			// Verify formatter is set correctly
			formatter, ok := logger.Formatter.(*logrus.TextFormatter)
			assert.True(t, ok)
			assert.True(t, formatter.FullTimestamp)
			assert.Equal(t, time.RFC3339, formatter.TimestampFormat)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("empty path returns defaults", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "imuble.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
profile: bench
scan_window: 2s
scan_policy: first-match
poll_interval: 100ms
cache_characteristics: false
output_format: json
profiles:
  bench:
    description: Bench rig
    service: 6e400001-b5a3-f393-e0a9-e50e24dcca9e
    accel_x: 6e400002-b5a3-f393-e0a9-e50e24dcca9e
    accel_y: 6e400003-b5a3-f393-e0a9-e50e24dcca9e
    accel_z: 6e400004-b5a3-f393-e0a9-e50e24dcca9e
    time: 6e400005-b5a3-f393-e0a9-e50e24dcca9e
`), 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)
		require.NoError(t, cfg.Validate())

		assert.Equal(t, 2*time.Second, cfg.ScanWindow)
		assert.Equal(t, 100*time.Millisecond, cfg.PollInterval)
		assert.False(t, cfg.CacheCharacteristics, "an explicit false MUST survive defaults")
		assert.Equal(t, 20*time.Second, cfg.ConnectTimeout, "unset fields MUST keep defaults")
		assert.Equal(t, []string{"bench", "imu"}, cfg.ProfileNames())

		opts, err := cfg.SessionOptions()
		require.NoError(t, err)
		assert.Equal(t, uuid.MustParse("6e400001-b5a3-f393-e0a9-e50e24dcca9e"), opts.ServiceUUID)
		assert.Equal(t, uuid.MustParse("6e400005-b5a3-f393-e0a9-e50e24dcca9e"), opts.Time)
		assert.Equal(t, session.PolicyFirstMatch, opts.ScanPolicy)
		assert.False(t, opts.CacheCharacteristics)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.ErrorContains(t, err, "failed to read config")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("scan_window: [1, 2"), 0o600))
		_, err := Load(path)
		assert.ErrorContains(t, err, "failed to parse config")
	})
}

func TestConfig_Validation(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		errContains string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "json format is valid", mutate: func(c *Config) { c.OutputFormat = FormatJSON }},
		{name: "kinematics format is valid", mutate: func(c *Config) { c.OutputFormat = FormatKinematics }},
		{
			name:        "unknown format",
			mutate:      func(c *Config) { c.OutputFormat = "xml" },
			errContains: `invalid output format "xml"`,
		},
		{
			name:        "unknown policy",
			mutate:      func(c *Config) { c.ScanPolicy = "strongest" },
			errContains: `invalid scan policy "strongest"`,
		},
		{
			name:        "bad log level",
			mutate:      func(c *Config) { c.LogLevel = "chatty" },
			errContains: "invalid log level",
		},
		{
			name:        "zero poll interval",
			mutate:      func(c *Config) { c.PollInterval = 0 },
			errContains: "poll_interval must be positive",
		},
		{
			name:        "unknown profile",
			mutate:      func(c *Config) { c.Profile = "nope" },
			errContains: `unknown profile "nope"`,
		},
		{
			name: "malformed profile uuid",
			mutate: func(c *Config) {
				p := BuiltinProfiles["imu"]
				p.AccelY = "not-a-uuid"
				c.Profiles = map[string]Profile{"broken": p}
			},
			errContains: `profile "broken": accel_y UUID "not-a-uuid"`,
		},
		{
			name: "missing profile uuid",
			mutate: func(c *Config) {
				p := BuiltinProfiles["imu"]
				p.Time = ""
				c.Profiles = map[string]Profile{"imu": p}
			},
			errContains: "time UUID is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.errContains == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.errContains)
		})
	}
}

func TestFileProfileReplacesBuiltin(t *testing.T) {
	cfg := DefaultConfig()
	custom := BuiltinProfiles["imu"]
	custom.Description = "patched firmware"
	cfg.Profiles = map[string]Profile{"imu": custom}

	p, err := cfg.ActiveProfile()
	require.NoError(t, err)
	assert.Equal(t, "patched firmware", p.Description)
	assert.Equal(t, []string{"imu"}, cfg.ProfileNames())
}

func TestProfileShortUUIDs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Profile = "sig"
	cfg.Profiles = map[string]Profile{"sig": {
		Service: "0x180f",
		AccelX:  "2a19",
		AccelY:  "2a1a",
		AccelZ:  "2a1b",
		Time:    "2a2b",
	}}
	require.NoError(t, cfg.Validate())

	opts, err := cfg.SessionOptions()
	require.NoError(t, err)
	assert.Equal(t, uuid.MustParse("0000180f-0000-1000-8000-00805f9b34fb"), opts.ServiceUUID)
	assert.Equal(t, uuid.MustParse("00002a19-0000-1000-8000-00805f9b34fb"), opts.AccelX)
	assert.Equal(t, uuid.MustParse("00002a2b-0000-1000-8000-00805f9b34fb"), opts.Time, "short forms MUST expand against the Bluetooth base UUID")
}

func BenchmarkDefaultConfig(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = DefaultConfig()
	}
}
