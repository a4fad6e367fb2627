package core

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/weekboard/pkg/models"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestLoadGlobalConfig_Defaults_WhenNoFile(t *testing.T) {
	cm := NewConfigurationManager(t.TempDir())
	cfg, err := cm.LoadGlobalConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DBPath != "board.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.WeekStartsOn != time.Monday {
		t.Errorf("WeekStartsOn = %s", cfg.WeekStartsOn)
	}
	if cfg.Alerts.Interval != time.Minute {
		t.Errorf("Alerts.Interval = %s", cfg.Alerts.Interval)
	}
	if cfg.DefaultSort != "manual" {
		t.Errorf("DefaultSort = %q", cfg.DefaultSort)
	}
	if err := cm.ValidateConfig(cfg); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoadGlobalConfig_ReadsBoardconfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".boardconfig.yaml", `
store:
  db_path: data/tasks.db
board:
  default_sort: overdue
  week_starts_on: sunday
  timezone: Europe/Berlin
alerts:
  interval: 30s
  ledger_path: state/alerts.yaml
notifications:
  enabled: true
  slack:
    webhook_url: https://hooks.slack.com/services/T/B/X
http:
  addr: ":9000"
`)
	cm := NewConfigurationManager(dir)
	cfg, err := cm.LoadGlobalConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := models.GlobalConfig{
		DBPath:       "data/tasks.db",
		DefaultSort:  "overdue",
		WeekStartsOn: time.Sunday,
		Timezone:     "Europe/Berlin",
		HTTPAddr:     ":9000",
		Alerts:       models.AlertConfig{Interval: 30 * time.Second, LedgerPath: "state/alerts.yaml"},
		Notifications: models.NotificationConfig{
			Enabled: true,
			Slack:   models.SlackConfig{WebhookURL: "https://hooks.slack.com/services/T/B/X"},
		},
	}
	if *cfg != want {
		t.Errorf("cfg = %+v\nwant %+v", *cfg, want)
	}
}

func TestLoadGlobalConfig_BadWeekday(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".boardconfig.yaml", "board:\n  week_starts_on: someday\n")
	if _, err := NewConfigurationManager(dir).LoadGlobalConfig(); err == nil {
		t.Fatal("expected error")
	}
}

func TestValidateConfig_CollectsAllErrors(t *testing.T) {
	cm := NewConfigurationManager(t.TempDir())
	cfg := &models.GlobalConfig{
		DefaultSort:   "random",
		Timezone:      "Mars/Olympus",
		Notifications: models.NotificationConfig{Enabled: true},
	}
	err := cm.ValidateConfig(cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{
		"store.db_path", "board.default_sort", "board.timezone", "alerts.interval",
		"alerts.ledger_path", "webhook_url", "http.addr",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q:\n%v", want, err)
		}
	}
	if err := cm.ValidateConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
}

func TestParseWeekday(t *testing.T) {
	tests := map[string]time.Weekday{
		"monday": time.Monday, "Mon": time.Monday, " SUNDAY ": time.Sunday, "sat": time.Saturday,
	}
	for in, want := range tests {
		got, err := ParseWeekday(in)
		if err != nil || got != want {
			t.Errorf("ParseWeekday(%q) = %s, %v", in, got, err)
		}
	}
	for _, bad := range []string{"", "mo", "funday"} {
		if _, err := ParseWeekday(bad); err == nil {
			t.Errorf("ParseWeekday(%q) should fail", bad)
		}
	}
}

func TestLocation_FallsBackToUTC(t *testing.T) {
	if Location(&models.GlobalConfig{Timezone: "nowhere"}) != time.UTC {
		t.Error("unknown zone should fall back to UTC")
	}
	if Location(nil) != time.UTC {
		t.Error("nil config should be UTC")
	}
}

func TestWriteDefaultConfig_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteDefaultConfig(dir, "Australia/Sydney")
	if err != nil {
		t.Fatalf("WriteDefaultConfig: %v", err)
	}
	if filepath.Base(path) != ConfigFileName {
		t.Errorf("path = %s", path)
	}

	cm := NewConfigurationManager(dir)
	cfg, err := cm.LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig: %v", err)
	}
	if cfg.Timezone != "Australia/Sydney" {
		t.Errorf("Timezone = %q", cfg.Timezone)
	}
	if cfg.WeekStartsOn != time.Monday || cfg.Alerts.Interval != time.Minute || cfg.HTTPAddr != "127.0.0.1:8420" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if err := cm.ValidateConfig(cfg); err != nil {
		t.Errorf("written config does not validate: %v", err)
	}
}

func TestWriteDefaultConfig_KeepsExistingFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ConfigFileName, "board:\n  week_starts_on: sunday\n")

	_, err := WriteDefaultConfig(dir, "")
	if !errors.Is(err, ErrConfigExists) {
		t.Fatalf("err = %v, want ErrConfigExists", err)
	}
	data, _ := os.ReadFile(filepath.Join(dir, ConfigFileName))
	if !strings.Contains(string(data), "sunday") {
		t.Errorf("existing file overwritten: %s", data)
	}
}

func TestWriteDefaultConfig_RejectsUnknownTimezone(t *testing.T) {
	if _, err := WriteDefaultConfig(t.TempDir(), "Mars/Olympus"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}
