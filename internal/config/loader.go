package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var ErrMissingCredentials = errors.New("telegram api credentials are required (" + EnvAPIID + ", " + EnvAPIHash + ")")

type Config struct {
	TDLib          TDLibConfig     `yaml:"tdlib"`
	Logger         LoggerConfig    `yaml:"logger"`
	DatabaseConfig DatabaseConfig  `yaml:"database"`
	HTTP           HTTPConfig      `yaml:"http"`
	Forward        ForwardConfig   `yaml:"forward"`
	Archive        ArchiveConfig   `yaml:"archive"`
	Scheduler      SchedulerConfig `yaml:"scheduler"`
}

// LoadConfig reads the service config, applies defaults and env overrides
// and validates it. A missing file is not an error: everything has a
// default except the credentials, which may come from the environment.
func LoadConfig(path string) (Config, error) {
	cfg := Config{}

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}

	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvAPIID); ok && strings.TrimSpace(v) != "" {
		id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 32)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvAPIID, err)
		}
		c.TDLib.APIID = int32(id)
	}
	if v, ok := lookup(EnvAPIHash); ok && strings.TrimSpace(v) != "" {
		c.TDLib.APIHash = strings.TrimSpace(v)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.TDLib.DatabaseDirectory == "" {
		c.TDLib.DatabaseDirectory = DefaultSessionDirectory + "/db"
	}
	if c.TDLib.FilesDirectory == "" {
		c.TDLib.FilesDirectory = DefaultSessionDirectory + "/files"
	}
	if c.TDLib.SystemLanguageCode == "" {
		c.TDLib.SystemLanguageCode = "en"
	}
	if c.TDLib.DeviceModel == "" {
		c.TDLib.DeviceModel = "Server"
	}
	if c.TDLib.ApplicationVersion == "" {
		c.TDLib.ApplicationVersion = "1.0.0"
	}
	if c.TDLib.HistoryPageLimit <= 0 {
		c.TDLib.HistoryPageLimit = DefaultHistoryPageLimit
	}
	if c.TDLib.HistoryPageLimit > MaxHistoryPageLimit {
		c.TDLib.HistoryPageLimit = MaxHistoryPageLimit
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = DefaultHTTPAddr
	}

	h := &c.Scheduler.Hourly
	if h.Interval.Duration == 0 {
		h.Interval.Duration = DefaultHourlyInterval
	}
	if h.Window.Duration == 0 {
		h.Window.Duration = DefaultHourlyWindow
	}
	if h.ChannelsFile == "" {
		h.ChannelsFile = DefaultChannelsFile
	}

	d := &c.Scheduler.Daily
	if d.At == "" {
		d.At = DefaultDailyAt
	}
	if d.UTCOffset == "" {
		d.UTCOffset = DefaultDailyOffset
	}
	if d.Window.Duration == 0 {
		d.Window.Duration = DefaultDailyWindow
	}
	if d.ChannelsFile == "" {
		d.ChannelsFile = h.ChannelsFile
	}
}

func (c Config) Validate() error {
	if c.TDLib.APIID == 0 || c.TDLib.APIHash == "" {
		return ErrMissingCredentials
	}
	if _, _, err := ParseClock(c.Scheduler.Daily.At); err != nil {
		return fmt.Errorf("scheduler.daily.at: %w", err)
	}
	if _, err := ParseUTCOffset(c.Scheduler.Daily.UTCOffset); err != nil {
		return fmt.Errorf("scheduler.daily.utc_offset: %w", err)
	}
	if c.Forward.RatePerSecond < 0 {
		return fmt.Errorf("forward.rate_per_second must not be negative")
	}
	return nil
}

var (
	reClock  = regexp.MustCompile(`^\s*(\d{1,2}):(\d{2})\s*$`)
	reOffset = regexp.MustCompile(`^\s*(?:UTC)?([+-])(\d{1,2})(?::?(\d{2}))?\s*$`)
)

// ParseClock parses a wall-clock time of day such as "01:00".
func ParseClock(s string) (hour, minute int, err error) {
	m := reClock.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, fmt.Errorf("invalid time of day %q (want HH:MM)", s)
	}
	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])
	if hour > 23 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid time of day %q", s)
	}
	return hour, minute, nil
}

// ParseUTCOffset turns "+03:00", "-0530" or "UTC+3" into a fixed zone.
func ParseUTCOffset(s string) (*time.Location, error) {
	if strings.EqualFold(strings.TrimSpace(s), "UTC") || strings.TrimSpace(s) == "Z" {
		return time.UTC, nil
	}
	m := reOffset.FindStringSubmatch(s)
	if m == nil {
		return nil, fmt.Errorf("invalid utc offset %q (want ±HH:MM)", s)
	}
	hours, _ := strconv.Atoi(m[2])
	minutes := 0
	if m[3] != "" {
		minutes, _ = strconv.Atoi(m[3])
	}
	if hours > 14 || minutes > 59 {
		return nil, fmt.Errorf("utc offset %q out of range", s)
	}
	seconds := hours*3600 + minutes*60
	if m[1] == "-" {
		seconds = -seconds
	}
	name := fmt.Sprintf("UTC%s%02d:%02d", m[1], hours, minutes)
	return time.FixedZone(name, seconds), nil
}
