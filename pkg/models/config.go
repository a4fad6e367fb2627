package models

import "time"

// SlackConfig holds the Slack webhook used for alert notifications.
type SlackConfig struct {
	WebhookURL string `yaml:"webhook_url" mapstructure:"webhook_url"`
}

// NotificationConfig controls outbound alert notifications.
type NotificationConfig struct {
	Enabled bool        `yaml:"enabled" mapstructure:"enabled"`
	Slack   SlackConfig `yaml:"slack" mapstructure:"slack"`
}

// AlertConfig controls the periodic alert scan.
type AlertConfig struct {
	Interval   time.Duration `yaml:"interval" mapstructure:"interval"`
	LedgerPath string        `yaml:"ledger_path" mapstructure:"ledger_path"`
}

// GlobalConfig holds board-wide settings read from .boardconfig via Viper.
type GlobalConfig struct {
	DBPath        string             `yaml:"db_path" mapstructure:"db_path"`
	DefaultSort   string             `yaml:"default_sort" mapstructure:"default_sort"`
	WeekStartsOn  time.Weekday       `yaml:"week_starts_on" mapstructure:"week_starts_on"`
	Timezone      string             `yaml:"timezone" mapstructure:"timezone"`
	HTTPAddr      string             `yaml:"http_addr" mapstructure:"http_addr"`
	Alerts        AlertConfig        `yaml:"alerts" mapstructure:"alerts"`
	Notifications NotificationConfig `yaml:"notifications" mapstructure:"notifications"`
}
