package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	DefaultTimeZone            = "America/Chicago"
	DefaultCheckInterval       = 60   // seconds between schedule checks
	DefaultRepeatCheckInterval = 300  // seconds between escalation passes
	DefaultRepeatInterval      = 1800 // seconds between repeats of one reminder
	DefaultMaxAttempts         = 3
)

// Config keeps bot configuration. The Telegram token must never end up in
// logs; log the Config itself, String redacts it.
type Config struct {
	TgToken               string  `json:"tg_token"`
	DBConnStr             string  `json:"db_conn_str"`
	AllowedUsers          []int64 `json:"allowed_users"`
	TimeZone              string  `json:"time_zone"`
	CheckIntervalS        int     `json:"check_interval_s"`
	RepeatCheckIntervalS  int     `json:"repeat_check_interval_s"`
	RepeatIntervalS       int     `json:"repeat_interval_s"`
	MaxAttempts           int     `json:"max_attempts"`
	EnableRepeatReminders *bool   `json:"enable_repeat_reminders"`
}

// Read reads configuration from the given file and fills in defaults for
// options the file leaves out.
func Read(cfgFile string) (*Config, error) {
	raw, err := os.ReadFile(cfgFile)
	if err != nil {
		return nil, errors.Wrap(err, "failed reading configuration file")
	}

	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, errors.Wrap(err, "couldn't unmarshal configuration")
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.TimeZone == "" {
		c.TimeZone = DefaultTimeZone
	}
	if c.CheckIntervalS == 0 {
		c.CheckIntervalS = DefaultCheckInterval
	}
	if c.RepeatCheckIntervalS == 0 {
		c.RepeatCheckIntervalS = DefaultRepeatCheckInterval
	}
	if c.RepeatIntervalS == 0 {
		c.RepeatIntervalS = DefaultRepeatInterval
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.EnableRepeatReminders == nil {
		t := true
		c.EnableRepeatReminders = &t
	}
}

// Validate makes sure that all required fields are present and sane. It
// collects every problem rather than stopping at the first one.
func (c *Config) Validate() error {
	problems := []string{}
	if c.TgToken == "" {
		problems = append(problems, "tg_token is not set")
	}
	if c.DBConnStr == "" {
		problems = append(problems, "db_conn_str is not set")
	}
	if len(c.AllowedUsers) == 0 {
		problems = append(problems, "allowed_users is empty")
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		problems = append(problems, fmt.Sprintf("unknown time_zone %q", c.TimeZone))
	}
	if len(problems) > 0 {
		return errors.New("configuration is invalid: " + strings.Join(problems, ", "))
	}
	return nil
}

// Location loads the configured fixed time zone. All schedule matching and
// date stamps use this single zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, errors.Wrap(err, "failed loading time zone")
	}
	return loc, nil
}

func (c *Config) CheckInterval() time.Duration {
	return time.Duration(c.CheckIntervalS) * time.Second
}

func (c *Config) RepeatCheckInterval() time.Duration {
	return time.Duration(c.RepeatCheckIntervalS) * time.Second
}

func (c *Config) RepeatInterval() time.Duration {
	return time.Duration(c.RepeatIntervalS) * time.Second
}

func (c *Config) RepeatRemindersEnabled() bool {
	return c.EnableRepeatReminders != nil && *c.EnableRepeatReminders
}

// IsAllowed reports whether the user is on the allow-list.
func (c *Config) IsAllowed(usr int64) bool {
	for _, u := range c.AllowedUsers {
		if u == usr {
			return true
		}
	}
	return false
}

func (c *Config) String() string {
	return fmt.Sprintf("Config{TgToken:[REDACTED] AllowedUsers:%v TimeZone:%s CheckIntervalS:%d RepeatCheckIntervalS:%d RepeatIntervalS:%d MaxAttempts:%d EnableRepeatReminders:%t}",
		c.AllowedUsers, c.TimeZone, c.CheckIntervalS, c.RepeatCheckIntervalS, c.RepeatIntervalS, c.MaxAttempts, c.RepeatRemindersEnabled())
}
