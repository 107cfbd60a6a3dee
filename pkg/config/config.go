package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/srg/imuble/internal/device"
	"github.com/srg/imuble/session"
)

// Output formats understood by the stream command
const (
	FormatCSV        = "csv"
	FormatJSON       = "json"
	FormatKinematics = "kinematics"
)

// Config holds application configuration
type Config struct {
	LogLevel string `yaml:"log_level,omitempty"`
	Profile  string `yaml:"profile" default:"imu"`

	ScanWindow           time.Duration `yaml:"scan_window" default:"5s"`
	ScanPolicy           string        `yaml:"scan_policy" default:"window"`
	PollInterval         time.Duration `yaml:"poll_interval" default:"500ms"`
	AdapterTimeout       time.Duration `yaml:"adapter_timeout" default:"10s"`
	ConnectTimeout       time.Duration `yaml:"connect_timeout" default:"20s"`
	ReadTimeout          time.Duration `yaml:"read_timeout" default:"5s"`
	CacheCharacteristics bool          `yaml:"cache_characteristics" default:"true"`

	OutputFormat  string        `yaml:"output_format" default:"csv"` // csv, json, kinematics
	TimestampUnit time.Duration `yaml:"timestamp_unit" default:"1ms"`

	Profiles map[string]Profile `yaml:"profiles,omitempty"`
}

// Profile is a named GATT layout of an IMU peripheral
type Profile struct {
	Description string `yaml:"description,omitempty"`
	Service     string `yaml:"service"`
	AccelX      string `yaml:"accel_x"`
	AccelY      string `yaml:"accel_y"`
	AccelZ      string `yaml:"accel_z"`
	Time        string `yaml:"time"`
	GyroX       string `yaml:"gyro_x,omitempty"`
	GyroY       string `yaml:"gyro_y,omitempty"`
	GyroZ       string `yaml:"gyro_z,omitempty"`
}

// BuiltinProfiles are always available; file profiles with the same name replace them
var BuiltinProfiles = map[string]Profile{
	"imu": {
		Description: "Accelerometer peripheral with a device clock",
		Service:     session.IMUServiceUUID,
		AccelX:      session.AccelXUUID,
		AccelY:      session.AccelYUUID,
		AccelZ:      session.AccelZUUID,
		Time:        session.CurrentTimeUUID,
		GyroX:       session.GyroXUUID,
		GyroY:       session.GyroYUUID,
		GyroZ:       session.GyroZUUID,
	},
}

// DefaultConfig returns default configuration values
func DefaultConfig() *Config {
	cfg := &Config{}
	defaults.SetDefaults(cfg)
	return cfg
}

// Load reads a YAML file on top of the defaults. An empty path returns the defaults.
// The result is not validated; callers apply flag overrides first.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// AllProfiles returns built-in and file profiles merged by name
func (c *Config) AllProfiles() map[string]Profile {
	all := make(map[string]Profile, len(BuiltinProfiles)+len(c.Profiles))
	for name, p := range BuiltinProfiles {
		all[name] = p
	}
	for name, p := range c.Profiles {
		all[name] = p
	}
	return all
}

// ProfileNames returns the merged profile names, sorted
func (c *Config) ProfileNames() []string {
	all := c.AllProfiles()
	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ActiveProfile resolves the profile named by c.Profile
func (c *Config) ActiveProfile() (Profile, error) {
	p, ok := c.AllProfiles()[c.Profile]
	if !ok {
		return Profile{}, fmt.Errorf("unknown profile %q (available: %v)", c.Profile, c.ProfileNames())
	}
	return p, nil
}

// Validate checks the whole configuration, including every profile
func (c *Config) Validate() error {
	if c.LogLevel != "" {
		if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}
	}

	switch session.ScanPolicy(c.ScanPolicy) {
	case session.PolicyWindow, session.PolicyFirstMatch:
	default:
		return fmt.Errorf("invalid scan policy %q (must be %s or %s)", c.ScanPolicy, session.PolicyWindow, session.PolicyFirstMatch)
	}

	switch c.OutputFormat {
	case FormatCSV, FormatJSON, FormatKinematics:
	default:
		return fmt.Errorf("invalid output format %q (must be csv, json or kinematics)", c.OutputFormat)
	}

	durations := []struct {
		name  string
		value time.Duration
	}{
		{"scan_window", c.ScanWindow},
		{"poll_interval", c.PollInterval},
		{"adapter_timeout", c.AdapterTimeout},
		{"connect_timeout", c.ConnectTimeout},
		{"read_timeout", c.ReadTimeout},
		{"timestamp_unit", c.TimestampUnit},
	}
	for _, d := range durations {
		if d.value <= 0 {
			return fmt.Errorf("%s must be positive, got %v", d.name, d.value)
		}
	}

	for name, p := range c.Profiles {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("profile %q: %w", name, err)
		}
	}
	if _, err := c.ActiveProfile(); err != nil {
		return err
	}
	return nil
}

// requiredUUIDNames lists the profile fields parseUUIDs returns, in order
var requiredUUIDNames = []string{"service", "accel_x", "accel_y", "accel_z", "time"}

// parseUUIDs parses the required UUIDs in requiredUUIDNames order. Short
// 16/32-bit forms are accepted and expanded against the Bluetooth base UUID.
func (p Profile) parseUUIDs() ([]uuid.UUID, error) {
	parsed, err := device.ValidateUUID(p.Service, p.AccelX, p.AccelY, p.AccelZ, p.Time)
	var uerr *device.UUIDError
	if errors.As(err, &uerr) {
		name := requiredUUIDNames[uerr.Index]
		if strings.TrimSpace(uerr.Value) == "" {
			return nil, fmt.Errorf("%s UUID is required", name)
		}
		return nil, fmt.Errorf("%s UUID %q: %w", name, uerr.Value, uerr.Err)
	}
	return parsed, err
}

// Validate checks that every required UUID is present and well-formed
func (p Profile) Validate() error {
	if _, err := p.parseUUIDs(); err != nil {
		return err
	}

	for _, f := range []struct{ name, value string }{{"gyro_x", p.GyroX}, {"gyro_y", p.GyroY}, {"gyro_z", p.GyroZ}} {
		if f.value == "" {
			continue
		}
		if _, err := device.ParseUUID(f.value); err != nil {
			return fmt.Errorf("%s UUID %q: %w", f.name, f.value, err)
		}
	}
	return nil
}

// SessionOptions builds session options from the active profile and timings
func (c *Config) SessionOptions() (session.Options, error) {
	p, err := c.ActiveProfile()
	if err != nil {
		return session.Options{}, err
	}
	if err := p.Validate(); err != nil {
		return session.Options{}, fmt.Errorf("profile %q: %w", c.Profile, err)
	}
	ids, err := p.parseUUIDs()
	if err != nil {
		return session.Options{}, fmt.Errorf("profile %q: %w", c.Profile, err)
	}

	return session.Options{
		ServiceUUID:          ids[0],
		AccelX:               ids[1],
		AccelY:               ids[2],
		AccelZ:               ids[3],
		Time:                 ids[4],
		ScanWindow:           c.ScanWindow,
		ScanPolicy:           session.ScanPolicy(c.ScanPolicy),
		PollInterval:         c.PollInterval,
		AdapterTimeout:       c.AdapterTimeout,
		ConnectTimeout:       c.ConnectTimeout,
		ReadTimeout:          c.ReadTimeout,
		CacheCharacteristics: c.CacheCharacteristics,
	}, nil
}

// Level returns the configured log level; an empty or unknown value is silent
func (c *Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if c.LogLevel == "" || err != nil {
		return logrus.PanicLevel
	}
	return level
}

// NewLogger creates a configured logger instance
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(c.Level())

	// Use structured logging format
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	return logger
}
