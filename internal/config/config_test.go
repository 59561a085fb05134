package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return cfgPath
}

func TestLoad(t *testing.T) {
	content := `
smtp:
  host: "smtp.test.com"
  port: 2587
  username: "bot"
  password: "secret"
  sender_email: "bot@test.com"
  sender_name: "Test Bot"

campaign:
  company_name: "TestCo"
  product_name: "Widget"
  base_url: "https://outreach.test.com"
  scheduling_link: "https://calendly.com/testco/demo"
  max_reminders: 5
  interval_minutes: 10
  send_delay: 2s

http:
  listen_addr: ":9000"

storage:
  path: "/tmp/test.db"

logging:
  level: "debug"
  format: "json"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.SMTP.Host != "smtp.test.com" {
		t.Errorf("SMTP.Host = %v, want smtp.test.com", cfg.SMTP.Host)
	}
	if cfg.SMTP.Port != 2587 {
		t.Errorf("SMTP.Port = %v, want 2587", cfg.SMTP.Port)
	}
	if cfg.Campaign.MaxReminders != 5 {
		t.Errorf("Campaign.MaxReminders = %v, want 5", cfg.Campaign.MaxReminders)
	}
	if cfg.Campaign.Interval() != 10*time.Minute {
		t.Errorf("Campaign.Interval() = %v, want 10m", cfg.Campaign.Interval())
	}
	if cfg.Campaign.SendDelay != 2*time.Second {
		t.Errorf("Campaign.SendDelay = %v, want 2s", cfg.Campaign.SendDelay)
	}
	if cfg.HTTP.ListenAddr != ":9000" {
		t.Errorf("HTTP.ListenAddr = %v, want :9000", cfg.HTTP.ListenAddr)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %v, want debug", cfg.Logging.Level)
	}
}

func TestLoadDefaults(t *testing.T) {
	content := `
smtp:
  host: "smtp.test.com"
  sender_email: "bot@test.com"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.SMTP.Port != 587 {
		t.Errorf("default SMTP.Port = %v, want 587", cfg.SMTP.Port)
	}
	if cfg.SMTP.Timeout != 30*time.Second {
		t.Errorf("default SMTP.Timeout = %v, want 30s", cfg.SMTP.Timeout)
	}
	if cfg.Campaign.MaxReminders != 3 {
		t.Errorf("default Campaign.MaxReminders = %v, want 3", cfg.Campaign.MaxReminders)
	}
	if cfg.Campaign.IntervalMinutes != 1 {
		t.Errorf("default Campaign.IntervalMinutes = %v, want 1", cfg.Campaign.IntervalMinutes)
	}
	if cfg.HTTP.ListenAddr != ":8000" {
		t.Errorf("default HTTP.ListenAddr = %v, want :8000", cfg.HTTP.ListenAddr)
	}
	if cfg.Scheduler.PollInterval != time.Second {
		t.Errorf("default Scheduler.PollInterval = %v, want 1s", cfg.Scheduler.PollInterval)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("default logging = %v/%v, want info/text", cfg.Logging.Level, cfg.Logging.Format)
	}
	if cfg.Metrics.ListenAddr != ":9090" || cfg.Metrics.Path != "/metrics" {
		t.Errorf("default metrics = %v %v", cfg.Metrics.ListenAddr, cfg.Metrics.Path)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	content := `
smtp:
  host: "smtp.file.com"
  sender_email: "file@test.com"
campaign:
  base_url: "http://file.test.com"
`
	t.Setenv("SMTP_SERVER", "smtp.env.com")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("SENDER_EMAIL", "env@test.com")
	t.Setenv("BASE_URL", "http://env.test.com")
	t.Setenv("CALENDLY_LINK", "https://calendly.com/env/demo")
	t.Setenv("APP_PORT", "8088")

	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.SMTP.Host != "smtp.env.com" {
		t.Errorf("SMTP.Host = %v, want env override", cfg.SMTP.Host)
	}
	if cfg.SMTP.Port != 2525 {
		t.Errorf("SMTP.Port = %v, want 2525", cfg.SMTP.Port)
	}
	if cfg.SMTP.SenderEmail != "env@test.com" {
		t.Errorf("SMTP.SenderEmail = %v, want env override", cfg.SMTP.SenderEmail)
	}
	if cfg.Campaign.BaseURL != "http://env.test.com" {
		t.Errorf("Campaign.BaseURL = %v, want env override", cfg.Campaign.BaseURL)
	}
	if cfg.Campaign.SchedulingLink != "https://calendly.com/env/demo" {
		t.Errorf("Campaign.SchedulingLink = %v, want env value", cfg.Campaign.SchedulingLink)
	}
	if cfg.HTTP.ListenAddr != ":8088" {
		t.Errorf("HTTP.ListenAddr = %v, want :8088", cfg.HTTP.ListenAddr)
	}
}

func TestLoadEnvOnly(t *testing.T) {
	t.Setenv("SMTP_SERVER", "smtp.env.com")
	t.Setenv("SENDER_EMAIL", "env@test.com")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if cfg.SMTP.Host != "smtp.env.com" {
		t.Errorf("SMTP.Host = %v, want smtp.env.com", cfg.SMTP.Host)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Error("Load() with a missing file path should fail")
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing host", func(c *Config) { c.SMTP.Host = "" }, true},
		{"missing sender", func(c *Config) { c.SMTP.SenderEmail = "" }, true},
		{"bad port", func(c *Config) { c.SMTP.Port = 70000 }, true},
		{"negative reminders", func(c *Config) { c.Campaign.MaxReminders = -1 }, true},
		{"zero interval", func(c *Config) { c.Campaign.IntervalMinutes = 0 }, true},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, true},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				SMTP: SMTPConfig{Host: "smtp.test.com", SenderEmail: "bot@test.com"},
			}
			cfg.setDefaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
