package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"TickerPacket/internal/resample"
	"TickerPacket/internal/session"
)

// Config holds all application configuration.
type Config struct {
	WindowDays int `yaml:"window_days"`
	Session    struct {
		Timezone      string   `yaml:"timezone"`
		Open          string   `yaml:"open"`
		Close         string   `yaml:"close"`
		Weekdays      []string `yaml:"weekdays"`
		BucketMinutes int      `yaml:"bucket_minutes"`
	} `yaml:"session"`
	Source struct {
		Kind     string   `yaml:"kind"` // csv | yahoo | rest
		DataDirs []string `yaml:"data_dirs"`
		BaseURL  string   `yaml:"base_url"`
		APIKey   string   `yaml:"api_key"`
	} `yaml:"source"`
	Sections struct {
		News    bool `yaml:"news"`
		Senate  bool `yaml:"senate"`
		Finance bool `yaml:"finance"`
	} `yaml:"sections"`
	Export struct {
		Dir    string `yaml:"dir"`
		Format string `yaml:"format"` // csv | json | parquet
	} `yaml:"export"`
	Database struct {
		SQLitePath  string `yaml:"sqlite_path"`
		PostgresDSN string `yaml:"postgres_dsn"` // preferred over sqlite_path when set
	} `yaml:"database"`
	Redis struct {
		Addr       string `yaml:"addr"`
		DB         int    `yaml:"db"`
		TTLMinutes int    `yaml:"ttl_minutes"`
	} `yaml:"redis"`
	HTTP struct {
		Addr string `yaml:"addr"` // empty disables the API
	} `yaml:"http"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		Cron      string   `yaml:"cron"`
		Watchlist []string `yaml:"watchlist"`
		Workers   int      `yaml:"workers"`
	} `yaml:"schedule"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	// Sections default on; an explicit false in YAML turns them off.
	cfg.Sections.News, cfg.Sections.Senate, cfg.Sections.Finance = true, true, true

	// Explicitly set sizes are kept even when zero so Validate can reject them.
	var set explicit
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
			if err := yaml.Unmarshal(data, &set); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	// Environment variable overrides
	if v := os.Getenv("WINDOW_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, &resample.ConfigError{Field: "window_days", Reason: fmt.Sprintf("WINDOW_DAYS=%q is not an integer", v)}
		}
		cfg.WindowDays = n
		set.WindowDays = &n
	}
	if v := os.Getenv("SOURCE_KIND"); v != "" {
		cfg.Source.Kind = v
	}
	if v := os.Getenv("DATA_DIRS"); v != "" {
		cfg.Source.DataDirs = splitList(v)
	}
	if v := os.Getenv("SOURCE_BASE_URL"); v != "" {
		cfg.Source.BaseURL = v
	}
	if v := os.Getenv("SOURCE_API_KEY"); v != "" {
		cfg.Source.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("EXPORT_DIR"); v != "" {
		cfg.Export.Dir = v
	}
	if v := os.Getenv("EXPORT_FORMAT"); v != "" {
		cfg.Export.Format = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Database.PostgresDSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("PACKET_CRON"); v != "" {
		cfg.Schedule.Cron = v
	}
	if v := os.Getenv("WATCHLIST"); v != "" {
		cfg.Schedule.Watchlist = splitList(v)
	}

	// Defaults. Window and bucket sizes are only defaulted when absent;
	// zero or negative values are left for Validate to reject.
	if set.WindowDays == nil {
		cfg.WindowDays = resample.DefaultWindowDays
	}
	if cfg.Session.Timezone == "" {
		cfg.Session.Timezone = "America/New_York"
	}
	if cfg.Session.Open == "" {
		cfg.Session.Open = "09:30"
	}
	if cfg.Session.Close == "" {
		cfg.Session.Close = "16:00"
	}
	if len(cfg.Session.Weekdays) == 0 {
		cfg.Session.Weekdays = []string{"mon", "tue", "wed", "thu", "fri"}
	}
	if set.Session.BucketMinutes == nil {
		cfg.Session.BucketMinutes = int(resample.DefaultBucketWidth / time.Minute)
	}
	if cfg.Source.Kind == "" {
		cfg.Source.Kind = "csv"
	}
	if cfg.Export.Format == "" {
		cfg.Export.Format = "csv"
	}
	if cfg.Schedule.Cron == "" {
		cfg.Schedule.Cron = "0 15 16 * * 1-5"
	}
	if cfg.Schedule.Workers == 0 {
		cfg.Schedule.Workers = 4
	}

	return cfg, nil
}

// explicit records which size settings were present in the YAML or env.
type explicit struct {
	WindowDays *int `yaml:"window_days"`
	Session    struct {
		BucketMinutes *int `yaml:"bucket_minutes"`
	} `yaml:"session"`
}

// Validate checks that all settings are usable. Pipeline settings are
// reported as *resample.ConfigError.
func (c *Config) Validate() error {
	if _, err := c.Pipeline(); err != nil {
		return err
	}
	switch strings.ToLower(c.Source.Kind) {
	case "csv", "yahoo":
	case "rest":
		if c.Source.BaseURL == "" {
			return fmt.Errorf("source.base_url is required for rest source")
		}
	default:
		return fmt.Errorf("source.kind %q unsupported (csv, yahoo, rest)", c.Source.Kind)
	}
	switch strings.ToLower(c.Export.Format) {
	case "csv", "json", "parquet":
	default:
		return fmt.Errorf("export.format %q unsupported (csv, json, parquet)", c.Export.Format)
	}
	if c.Redis.TTLMinutes < 0 {
		return fmt.Errorf("redis.ttl_minutes must not be negative")
	}
	if c.Schedule.Workers < 1 {
		return fmt.Errorf("schedule.workers must be positive")
	}
	return nil
}

// ValidateDaemon adds the checks needed for scheduled runs.
func (c *Config) ValidateDaemon() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if len(c.Schedule.Watchlist) == 0 {
		return fmt.Errorf("schedule.watchlist is required")
	}
	return nil
}

// TelegramEnabled reports whether delivery credentials are set.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Pipeline converts the config into resample options.
func (c *Config) Pipeline() (resample.Options, error) {
	sess, err := c.TradingSession()
	if err != nil {
		return resample.Options{}, err
	}
	opts := resample.Options{
		Session:     sess,
		BucketWidth: time.Duration(c.Session.BucketMinutes) * time.Minute,
		WindowDays:  c.WindowDays,
	}
	if err := opts.Validate(); err != nil {
		return resample.Options{}, err
	}
	return opts, nil
}

// TradingSession builds the session definition.
func (c *Config) TradingSession() (session.Session, error) {
	loc, err := time.LoadLocation(c.Session.Timezone)
	if err != nil {
		return session.Session{}, &resample.ConfigError{Field: "session.timezone", Reason: err.Error()}
	}
	open, err := session.ParseClock(c.Session.Open)
	if err != nil {
		return session.Session{}, &resample.ConfigError{Field: "session.open", Reason: err.Error()}
	}
	closeAt, err := session.ParseClock(c.Session.Close)
	if err != nil {
		return session.Session{}, &resample.ConfigError{Field: "session.close", Reason: err.Error()}
	}
	days := make([]time.Weekday, 0, len(c.Session.Weekdays))
	for _, s := range c.Session.Weekdays {
		wd, ok := weekdays[strings.ToLower(strings.TrimSpace(s))]
		if !ok {
			return session.Session{}, &resample.ConfigError{Field: "session.weekdays", Reason: fmt.Sprintf("unknown weekday %q", s)}
		}
		days = append(days, wd)
	}
	sess := session.Session{Location: loc, Open: open, Close: closeAt, Weekdays: days}
	if err := sess.Validate(); err != nil {
		return session.Session{}, &resample.ConfigError{Field: "session", Reason: err.Error()}
	}
	return sess, nil
}

var weekdays = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
