// Package config provides YAML-based configuration loading for Steward.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Admin channels supported for scheduled notifications.
const (
	ChannelWhatsApp = "whatsapp"
	ChannelSlack    = "slack"
	ChannelDiscord  = "discord"
)

// Config is the top-level Steward configuration, loaded from steward.yaml.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Server    ServerConfig    `yaml:"server"`
	Wassenger WassengerConfig `yaml:"wassenger"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Session   SessionConfig   `yaml:"session"`
	Admin     AdminConfig     `yaml:"admin"`
	Notifiers NotifiersConfig `yaml:"notifiers"`
	Reply     ReplyConfig     `yaml:"reply"`
	Webhook   WebhookConfig   `yaml:"webhook"`
}

// DatabaseConfig holds connection settings for the MySQL server.
type DatabaseConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Name         string `yaml:"name"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// ServerConfig controls the inbound webhook HTTP server.
type ServerConfig struct {
	Port          int    `yaml:"port"`
	WebhookSecret string `yaml:"webhook_secret"` // empty disables signature checks
}

// WassengerConfig holds WhatsApp gateway credentials.
type WassengerConfig struct {
	APIURL     string `yaml:"api_url"`
	APIKey     string `yaml:"api_key"`
	DeviceID   string `yaml:"device_id"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// OpenAIConfig configures the intent resolver's chat-completions backend.
type OpenAIConfig struct {
	APIURL      string   `yaml:"api_url"`
	APIKey      string   `yaml:"api_key"`
	Model       string   `yaml:"model"`
	Temperature *float64 `yaml:"temperature"` // nil means 0.7; 0 is kept
	MaxTokens   int      `yaml:"max_tokens"`
	TimeoutSec  int      `yaml:"timeout_sec"`
}

// SessionConfig controls chat session reuse and how much history is replayed.
type SessionConfig struct {
	WindowHours  int `yaml:"window_hours"`
	HistoryTurns int `yaml:"history_turns"` // negative replays the full session
}

// AdminConfig identifies where scheduled notifications go.
type AdminConfig struct {
	Contact string        `yaml:"contact"` // WhatsApp number of the administrator
	Channel string        `yaml:"channel"` // whatsapp, slack, discord
	Slack   SlackConfig   `yaml:"slack"`
	Discord DiscordConfig `yaml:"discord"`
}

// SlackConfig holds Slack bot credentials for admin notifications.
type SlackConfig struct {
	BotToken string `yaml:"bot_token"`
	Channel  string `yaml:"channel"`
}

// DiscordConfig holds Discord bot credentials for admin notifications.
type DiscordConfig struct {
	BotToken string `yaml:"bot_token"`
	Channel  string `yaml:"channel"`
}

// NotifiersConfig controls the scheduled stale-lead and completed-job jobs.
type NotifiersConfig struct {
	StaleLeadHours   int    `yaml:"stale_lead_hours"`
	StaleLeadCron    string `yaml:"stale_lead_cron"`
	CompletedJobCron string `yaml:"completed_job_cron"`
	ReportBaseURL    string `yaml:"report_base_url"`
}

// ReplyConfig controls what the inspector receives back.
type ReplyConfig struct {
	AppendActionResults bool `yaml:"append_action_results"`
}

// WebhookConfig controls inbound delivery handling.
type WebhookConfig struct {
	Dedupe        *bool `yaml:"dedupe"`          // defaults to true
	ClaimLeaseSec int   `yaml:"claim_lease_sec"` // processing claims older than this are taken over
}

// DedupeEnabled reports whether repeated deliveries of one message are dropped.
func (w WebhookConfig) DedupeEnabled() bool {
	return w.Dedupe == nil || *w.Dedupe
}

// Load reads a YAML config file from path and returns a validated Config.
// ${VAR} references are expanded from the environment before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse([]byte(os.ExpandEnv(string(data))))
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Database.Host == "" {
		c.Database.Host = "127.0.0.1"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.Database.User == "" {
		c.Database.User = "root"
	}
	if c.Database.Name == "" {
		c.Database.Name = "steward"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Wassenger.APIURL == "" {
		c.Wassenger.APIURL = "https://api.wassenger.com/v1"
	}
	if c.Wassenger.TimeoutSec == 0 {
		c.Wassenger.TimeoutSec = 30
	}
	if c.OpenAI.APIURL == "" {
		c.OpenAI.APIURL = "https://api.openai.com/v1"
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4o-mini"
	}
	if c.OpenAI.Temperature == nil {
		t := 0.7
		c.OpenAI.Temperature = &t
	}
	if c.OpenAI.MaxTokens == 0 {
		c.OpenAI.MaxTokens = 500
	}
	if c.OpenAI.TimeoutSec == 0 {
		c.OpenAI.TimeoutSec = 60
	}
	if c.Session.WindowHours == 0 {
		c.Session.WindowHours = 24
	}
	if c.Session.HistoryTurns == 0 {
		c.Session.HistoryTurns = 50
	}
	if c.Admin.Channel == "" {
		c.Admin.Channel = ChannelWhatsApp
	}
	if c.Webhook.ClaimLeaseSec == 0 {
		c.Webhook.ClaimLeaseSec = 300
	}
	if c.Notifiers.StaleLeadHours == 0 {
		c.Notifiers.StaleLeadHours = 48
	}
	if c.Notifiers.StaleLeadCron == "" {
		c.Notifiers.StaleLeadCron = "0 9 * * *"
	}
	if c.Notifiers.CompletedJobCron == "" {
		c.Notifiers.CompletedJobCron = "*/30 * * * *"
	}
	if c.Notifiers.ReportBaseURL == "" {
		c.Notifiers.ReportBaseURL = "https://reports.propertystewards.com/report"
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Wassenger.APIKey == "" {
		errs = append(errs, "wassenger.api_key is required")
	}
	if c.OpenAI.APIKey == "" {
		errs = append(errs, "openai.api_key is required")
	}
	if c.Session.WindowHours < 0 {
		errs = append(errs, "session.window_hours must be positive")
	}
	if c.Notifiers.StaleLeadHours < 0 {
		errs = append(errs, "notifiers.stale_lead_hours must be positive")
	}
	switch c.Admin.Channel {
	case ChannelWhatsApp:
		if c.Admin.Contact == "" {
			errs = append(errs, "admin.contact is required for the whatsapp channel")
		}
	case ChannelSlack:
		if c.Admin.Slack.BotToken == "" || c.Admin.Slack.Channel == "" {
			errs = append(errs, "admin.slack.bot_token and admin.slack.channel are required for the slack channel")
		}
	case ChannelDiscord:
		if c.Admin.Discord.BotToken == "" || c.Admin.Discord.Channel == "" {
			errs = append(errs, "admin.discord.bot_token and admin.discord.channel are required for the discord channel")
		}
	default:
		errs = append(errs, fmt.Sprintf("admin.channel %q is not one of whatsapp, slack, discord", c.Admin.Channel))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
