package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the main configuration structure
type Config struct {
	SMTP      SMTPConfig      `yaml:"smtp"`
	Campaign  CampaignConfig  `yaml:"campaign"`
	HTTP      HTTPConfig      `yaml:"http"`
	Storage   StorageConfig   `yaml:"storage"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// SMTPConfig contains outbound relay settings
type SMTPConfig struct {
	Host        string        `yaml:"host"`
	Port        int           `yaml:"port"`
	Username    string        `yaml:"username"`
	Password    string        `yaml:"password"`
	SenderEmail string        `yaml:"sender_email"`
	SenderName  string        `yaml:"sender_name"`
	Timeout     time.Duration `yaml:"timeout"`
}

// CampaignConfig contains campaign content and pacing settings
type CampaignConfig struct {
	CompanyName     string        `yaml:"company_name"`
	ProductName     string        `yaml:"product_name"`
	BaseURL         string        `yaml:"base_url"`       // Public URL tracking links point at
	SchedulingLink  string        `yaml:"scheduling_link"` // Where interested contacts are redirected
	TemplatePath    string        `yaml:"template_path"`
	MaxReminders    int           `yaml:"max_reminders"`
	IntervalMinutes int           `yaml:"interval_minutes"` // Gap between reminders
	SendDelay       time.Duration `yaml:"send_delay"`       // Pause between consecutive sends
}

// HTTPConfig contains response endpoint settings
type HTTPConfig struct {
	ListenAddr   string        `yaml:"listen_addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// StorageConfig contains bbolt storage settings
type StorageConfig struct {
	Path         string `yaml:"path"`
	ContactsFile string `yaml:"contacts_file"` // Seed file loaded on startup if the store is empty
}

// SchedulerConfig contains reminder scheduler settings
type SchedulerConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or text
}

// MetricsConfig contains Prometheus metrics settings
type MetricsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"` // Default: :9090
	Path       string `yaml:"path"`        // Default: /metrics
}

// Load reads configuration from a YAML file, applies environment
// overrides and defaults, and validates the result. A missing file is
// not an error when path is empty: the environment alone can carry a
// complete configuration.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyEnv overlays environment variables onto the config. Environment
// values win over file values.
func (c *Config) applyEnv() {
	setString(&c.SMTP.Host, "SMTP_SERVER")
	setInt(&c.SMTP.Port, "SMTP_PORT")
	setString(&c.SMTP.Username, "SMTP_USERNAME")
	setString(&c.SMTP.Password, "SMTP_PASSWORD")
	setString(&c.SMTP.SenderEmail, "SENDER_EMAIL")
	setString(&c.SMTP.SenderName, "SENDER_NAME")

	setString(&c.Campaign.CompanyName, "COMPANY_NAME")
	setString(&c.Campaign.ProductName, "PRODUCT_NAME")
	setString(&c.Campaign.BaseURL, "BASE_URL")
	setString(&c.Campaign.SchedulingLink, "CALENDLY_LINK")

	if v := os.Getenv("APP_PORT"); v != "" {
		c.HTTP.ListenAddr = ":" + v
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func (c *Config) setDefaults() {
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
	if c.SMTP.Timeout == 0 {
		c.SMTP.Timeout = 30 * time.Second
	}
	if c.SMTP.SenderName == "" {
		c.SMTP.SenderName = "Sales Team"
	}

	if c.Campaign.CompanyName == "" {
		c.Campaign.CompanyName = "Our Company"
	}
	if c.Campaign.ProductName == "" {
		c.Campaign.ProductName = "our product"
	}
	if c.Campaign.BaseURL == "" {
		c.Campaign.BaseURL = "http://localhost:8000"
	}
	if c.Campaign.TemplatePath == "" {
		c.Campaign.TemplatePath = "email_template.html"
	}
	if c.Campaign.MaxReminders == 0 {
		c.Campaign.MaxReminders = 3
	}
	if c.Campaign.IntervalMinutes == 0 {
		c.Campaign.IntervalMinutes = 1
	}
	if c.Campaign.SendDelay == 0 {
		c.Campaign.SendDelay = time.Second
	}

	if c.HTTP.ListenAddr == "" {
		c.HTTP.ListenAddr = ":8000"
	}
	if c.HTTP.ReadTimeout == 0 {
		c.HTTP.ReadTimeout = 30 * time.Second
	}
	if c.HTTP.WriteTimeout == 0 {
		c.HTTP.WriteTimeout = 30 * time.Second
	}
	if c.HTTP.IdleTimeout == 0 {
		c.HTTP.IdleTimeout = 60 * time.Second
	}

	if c.Storage.Path == "" {
		c.Storage.Path = "data/outreach.db"
	}
	if c.Storage.ContactsFile == "" {
		c.Storage.ContactsFile = "contacts.json"
	}

	if c.Scheduler.PollInterval == 0 {
		c.Scheduler.PollInterval = time.Second
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}

	if c.Metrics.ListenAddr == "" {
		c.Metrics.ListenAddr = ":9090"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.SMTP.Host == "" {
		return fmt.Errorf("smtp.host is required (or set SMTP_SERVER)")
	}
	if c.SMTP.Port <= 0 || c.SMTP.Port > 65535 {
		return fmt.Errorf("invalid smtp.port: %d", c.SMTP.Port)
	}
	if c.SMTP.SenderEmail == "" {
		return fmt.Errorf("smtp.sender_email is required (or set SENDER_EMAIL)")
	}

	if c.Campaign.MaxReminders < 0 {
		return fmt.Errorf("campaign.max_reminders must not be negative")
	}
	if c.Campaign.IntervalMinutes <= 0 {
		return fmt.Errorf("campaign.interval_minutes must be positive")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging.level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid logging.format: %s (must be json or text)", c.Logging.Format)
	}

	return nil
}

// Interval returns the reminder interval as a duration.
func (c *CampaignConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}
