// Package core contains the board's ordering and lifecycle engine: the
// working set, sort comparators, the drag controller, forwarding, archiving,
// recurring task spawning, and configuration loading.
package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/valter-silva-au/weekboard/pkg/models"
)

// ConfigurationManager loads and validates the board configuration from
// the .boardconfig file.
type ConfigurationManager interface {
	LoadGlobalConfig() (*models.GlobalConfig, error)
	ValidateConfig(cfg *models.GlobalConfig) error
}

// viperConfigManager implements ConfigurationManager using Viper.
type viperConfigManager struct {
	// basePath is the root directory where .boardconfig resides.
	basePath string
}

// NewConfigurationManager creates a ConfigurationManager that reads
// .boardconfig from basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

func defaultGlobalConfig() *models.GlobalConfig {
	return &models.GlobalConfig{
		DBPath:       "board.db",
		DefaultSort:  string(SortManual),
		WeekStartsOn: time.Monday,
		Timezone:     "UTC",
		HTTPAddr:     "127.0.0.1:8420",
		Alerts: models.AlertConfig{
			Interval:   time.Minute,
			LedgerPath: "alerts.yaml",
		},
	}
}

// LoadGlobalConfig reads .boardconfig. A missing file yields the defaults.
func (cm *viperConfigManager) LoadGlobalConfig() (*models.GlobalConfig, error) {
	cfg := defaultGlobalConfig()

	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)

	v.SetDefault("store.db_path", cfg.DBPath)
	v.SetDefault("board.default_sort", cfg.DefaultSort)
	v.SetDefault("board.week_starts_on", strings.ToLower(cfg.WeekStartsOn.String()))
	v.SetDefault("board.timezone", cfg.Timezone)
	v.SetDefault("alerts.interval", cfg.Alerts.Interval.String())
	v.SetDefault("alerts.ledger_path", cfg.Alerts.LedgerPath)
	v.SetDefault("notifications.enabled", false)
	v.SetDefault("notifications.slack.webhook_url", "")
	v.SetDefault("http.addr", cfg.HTTPAddr)

	v.SetEnvPrefix("WB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading .boardconfig: %w", err)
		}
	}

	weekday, err := ParseWeekday(v.GetString("board.week_starts_on"))
	if err != nil {
		return nil, fmt.Errorf("reading .boardconfig: board.week_starts_on: %w", err)
	}

	cfg.DBPath = v.GetString("store.db_path")
	cfg.DefaultSort = v.GetString("board.default_sort")
	cfg.WeekStartsOn = weekday
	cfg.Timezone = v.GetString("board.timezone")
	cfg.Alerts.Interval = v.GetDuration("alerts.interval")
	cfg.Alerts.LedgerPath = v.GetString("alerts.ledger_path")
	cfg.Notifications.Enabled = v.GetBool("notifications.enabled")
	cfg.Notifications.Slack.WebhookURL = v.GetString("notifications.slack.webhook_url")
	cfg.HTTPAddr = v.GetString("http.addr")

	return cfg, nil
}

// ValidateConfig checks cfg for invalid values and reports all of them.
func (cm *viperConfigManager) ValidateConfig(cfg *models.GlobalConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	if cfg.DBPath == "" {
		errs = append(errs, "store.db_path must not be empty")
	}
	if _, err := ParseSortMode(cfg.DefaultSort); err != nil {
		errs = append(errs, fmt.Sprintf("board.default_sort: %v", err))
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		errs = append(errs, fmt.Sprintf("board.timezone %q is not a known location", cfg.Timezone))
	}
	if cfg.Alerts.Interval <= 0 {
		errs = append(errs, fmt.Sprintf("alerts.interval must be positive, got %s", cfg.Alerts.Interval))
	}
	if cfg.Alerts.LedgerPath == "" {
		errs = append(errs, "alerts.ledger_path must not be empty")
	}
	if cfg.Notifications.Enabled && cfg.Notifications.Slack.WebhookURL == "" {
		errs = append(errs, "notifications.slack.webhook_url is required when notifications are enabled")
	}
	if cfg.HTTPAddr == "" {
		errs = append(errs, "http.addr must not be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ParseWeekday converts a day name such as "monday" or "Mon" into a
// time.Weekday.
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || (len(s) >= 3 && strings.HasPrefix(name, s)) {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("unknown weekday %q", s)
}

// Location resolves the configured timezone, falling back to UTC.
func Location(cfg *models.GlobalConfig) *time.Location {
	if cfg == nil || cfg.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ConfigFileName is the board configuration file looked up in the base path.
const ConfigFileName = ".boardconfig"

// ErrConfigExists is returned by WriteDefaultConfig when the file is
// already present.
var ErrConfigExists = errors.New("configuration file already exists")

// boardConfigFile is the on-disk layout of .boardconfig.
type boardConfigFile struct {
	Store struct {
		DBPath string `yaml:"db_path"`
	} `yaml:"store"`
	Board struct {
		DefaultSort  string `yaml:"default_sort"`
		WeekStartsOn string `yaml:"week_starts_on"`
		Timezone     string `yaml:"timezone"`
	} `yaml:"board"`
	Alerts struct {
		Interval   string `yaml:"interval"`
		LedgerPath string `yaml:"ledger_path"`
	} `yaml:"alerts"`
	Notifications struct {
		Enabled bool `yaml:"enabled"`
		Slack   struct {
			WebhookURL string `yaml:"webhook_url"`
		} `yaml:"slack"`
	} `yaml:"notifications"`
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
}

// WriteDefaultConfig writes a .boardconfig holding the default settings to
// basePath and returns its path. An existing file is left untouched.
func WriteDefaultConfig(basePath, timezone string) (string, error) {
	path := filepath.Join(basePath, ConfigFileName)
	if _, err := os.Stat(path); err == nil {
		return path, fmt.Errorf("writing %s: %w", path, ErrConfigExists)
	}

	def := defaultGlobalConfig()
	if timezone != "" {
		if _, err := time.LoadLocation(timezone); err != nil {
			return "", fmt.Errorf("%w: timezone %q is not a known location", ErrInvalidInput, timezone)
		}
		def.Timezone = timezone
	}

	var f boardConfigFile
	f.Store.DBPath = def.DBPath
	f.Board.DefaultSort = def.DefaultSort
	f.Board.WeekStartsOn = strings.ToLower(def.WeekStartsOn.String())
	f.Board.Timezone = def.Timezone
	f.Alerts.Interval = def.Alerts.Interval.String()
	f.Alerts.LedgerPath = def.Alerts.LedgerPath
	f.HTTP.Addr = def.HTTPAddr

	data, err := yaml.Marshal(&f)
	if err != nil {
		return "", fmt.Errorf("encoding %s: %w", ConfigFileName, err)
	}
	if err := os.MkdirAll(basePath, 0o750); err != nil {
		return "", fmt.Errorf("creating %s: %w", basePath, err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
