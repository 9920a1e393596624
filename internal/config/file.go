package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"
)

// Config is the runtime configuration loaded from a YAML file.
// Zero values fall back to the defaults declared in this package.
type Config struct {
	// Timezone is the single authoritative IANA zone for all date logic.
	Timezone string `yaml:"timezone"`

	Source   SourceConfig   `yaml:"source"`
	Calendar CalendarConfig `yaml:"calendar"`
	State    StateConfig    `yaml:"state"`
	Notify   NotifyConfig   `yaml:"notify"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Server   ServerConfig   `yaml:"server"`
}

// SourceConfig describes where birthday records come from.
type SourceConfig struct {
	Kind          string `yaml:"kind"` // SourceKindCSV or SourceKindVCard
	Path          string `yaml:"path"` // Local file path or http(s) URL
	User          string `yaml:"user"` // HTTP Basic Auth username (remote sources)
	Pass          string `yaml:"pass"`
	SkipHeaderRow bool   `yaml:"skip_header_row"`
}

// CalendarConfig describes the mirror calendar the engine writes into.
type CalendarConfig struct {
	Path string `yaml:"path"` // Local .ics file
}

// StateConfig describes the durable key/value backend for run tracking.
type StateConfig struct {
	Dir string `yaml:"dir"` // Defaults to the user cache dir
	Key string `yaml:"key"` // Defaults to DefaultStateKey
}

// NotifyConfig describes the delivery channels.
type NotifyConfig struct {
	Channels   []string `yaml:"channels"` // ChannelKindConsole, ChannelKindWebhook
	Recipients []string `yaml:"recipients"`
	WebhookURL string   `yaml:"webhook_url"`
	Language   string   `yaml:"language"`
	SendLimit  int      `yaml:"send_limit"`
}

// ScheduleConfig describes the daemon-mode schedule.
type ScheduleConfig struct {
	DailyAt    string `yaml:"daily_at"` // "HH:MM" local time
	RunAtStart bool   `yaml:"run_at_start"`
}

// ServerConfig describes the optional ICS feed server.
type ServerConfig struct {
	Port string `yaml:"port"`
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrConfigRead, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrConfigParse, err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
	if c.State.Key == "" {
		c.State.Key = DefaultStateKey
	}
	if c.Notify.Language == "" {
		c.Notify.Language = DefaultLanguage
	}
	if c.Notify.SendLimit <= 0 {
		c.Notify.SendLimit = DefaultSendLimit
	}
	if len(c.Notify.Channels) == 0 {
		c.Notify.Channels = []string{ChannelKindConsole}
	}
	if c.Schedule.DailyAt == "" {
		c.Schedule.DailyAt = DefaultDailyAt
	}
	if c.Server.Port == "" {
		c.Server.Port = DefaultServerPort
	}
}

func (c *Config) validate() error {
	switch c.Source.Kind {
	case SourceKindCSV, SourceKindVCard:
	default:
		return fmt.Errorf("%s: %q", ErrSourceKind, c.Source.Kind)
	}
	if c.Source.Path == "" {
		return fmt.Errorf("%s", ErrSourcePath)
	}
	if c.Calendar.Path == "" {
		return fmt.Errorf("%s", ErrCalendarPath)
	}
	// One channel per kind: dispatch results are keyed by channel name,
	// so a duplicate kind would shadow its sibling's results.
	seen := make(map[string]bool, len(c.Notify.Channels))
	for _, ch := range c.Notify.Channels {
		switch ch {
		case ChannelKindConsole, ChannelKindWebhook:
		default:
			return fmt.Errorf("%s: %q", ErrChannelKind, ch)
		}
		if seen[ch] {
			return fmt.Errorf("%s: %q", ErrChannelDup, ch)
		}
		seen[ch] = true
	}
	if _, _, err := c.DailyClock(); err != nil {
		return err
	}
	return nil
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrTimezoneLoad, err)
	}
	return loc, nil
}

// DailyClock parses the "HH:MM" daily schedule into hour and minute.
func (c *Config) DailyClock() (hour, minute int, err error) {
	parts := strings.SplitN(c.Schedule.DailyAt, AddrSeparator, 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%s: %q", ErrDailyAt, c.Schedule.DailyAt)
	}
	hour, errH := strconv.Atoi(parts[0])
	minute, errM := strconv.Atoi(parts[1])
	if errH != nil || errM != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%s: %q", ErrDailyAt, c.Schedule.DailyAt)
	}
	return hour, minute, nil
}

// WebhookToken resolves the webhook bearer token.
// The environment variable wins so containerized deployments can skip the
// OS keyring entirely; the keyring miss is logged at debug because an empty
// token is a legal configuration for token-less webhooks.
func (c *Config) WebhookToken() string {
	if tok := os.Getenv(EnvWebhookToken); tok != "" {
		return tok
	}
	tok, err := keyring.Get(KeyringService, KeyringUser)
	if err != nil {
		slog.Debug(MsgKeyringMiss,
			LogKeyComponent, CompConfig,
			LogKeyError, err,
		)
		return ""
	}
	return tok
}

// StateDir returns the durable-state directory, creating the default under
// the user cache dir when unset.
func (c *Config) StateDir() (string, error) {
	if c.State.Dir != "" {
		return c.State.Dir, nil
	}
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("%s: %w", ErrCacheDir, err)
	}
	return cacheDir + string(os.PathSeparator) + AppID, nil
}
