package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"bandar/pkg/model"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
}

// chdir changes the working directory for the test and restores it on cleanup.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatal(err)
		}
	})
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}
	if len(cfg.Provider.Hosts) != 2 {
		t.Errorf("Expected query1 and query2 hosts, got %v", cfg.Provider.Hosts)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Scanner.Workers != DefaultConfig().Scanner.Workers {
		t.Errorf("Expected default workers, got %d", cfg.Scanner.Workers)
	}
}

func TestLoad_YAML(t *testing.T) {
	chdir(t, t.TempDir())
	path := filepath.Join(t.TempDir(), "bandar.yaml")
	writeFile(t, path, `
provider:
  rate_limit: 30
  history_days: 120
scanner:
  workers: 8
  timeout: 45s
cache:
  redis_addr: localhost:6379
  ttl: 5m
defaults:
  total_capital: 50000000
  max_allocation_per_stock: 25
  risk_tolerance: CONSERVATIVE
  take_profit_target: 12
  stop_loss_target: 6
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Provider.RateLimit != 30 || cfg.Provider.HistoryDays != 120 {
		t.Errorf("Unexpected provider config: %+v", cfg.Provider)
	}
	if cfg.Scanner.Workers != 8 || cfg.Scanner.Timeout != 45*time.Second {
		t.Errorf("Unexpected scanner config: %+v", cfg.Scanner)
	}
	if cfg.Cache.RedisAddr != "localhost:6379" || cfg.Cache.TTL != 5*time.Minute {
		t.Errorf("Unexpected cache config: %+v", cfg.Cache)
	}
	if cfg.Defaults.RiskTolerance != model.RiskConservative || cfg.Defaults.TotalCapital != 50_000_000 {
		t.Errorf("Unexpected defaults: %+v", cfg.Defaults)
	}
	// untouched sections keep their defaults
	if len(cfg.Provider.Hosts) != 2 {
		t.Errorf("Expected default hosts, got %v", cfg.Provider.Hosts)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("BANDAR_DATA_DIR", "/tmp/bandar-test")
	t.Setenv("BANDAR_REDIS_ADDR", "redis:6379")
	t.Setenv("BANDAR_REFRESH_CRON", "0 16 * * 1-5")
	t.Setenv("BANDAR_WORKERS", "3")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Store.DataDir != "/tmp/bandar-test" {
		t.Errorf("Expected data dir override, got %s", cfg.Store.DataDir)
	}
	if cfg.Cache.RedisAddr != "redis:6379" {
		t.Errorf("Expected redis override, got %s", cfg.Cache.RedisAddr)
	}
	if cfg.Schedule.RefreshCron != "0 16 * * 1-5" {
		t.Errorf("Expected cron override, got %s", cfg.Schedule.RefreshCron)
	}
	if cfg.Scanner.Workers != 3 {
		t.Errorf("Expected 3 workers, got %d", cfg.Scanner.Workers)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	// registers a restore of the variable that .env will set
	t.Setenv("BANDAR_WORKERS", "")
	os.Unsetenv("BANDAR_WORKERS")
	writeFile(t, filepath.Join(dir, ".env"), "BANDAR_WORKERS=7\n")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Scanner.Workers != 7 {
		t.Errorf("Expected workers from .env, got %d", cfg.Scanner.Workers)
	}
}

func TestLoad_BadWorkersEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("BANDAR_WORKERS", "many")

	if _, err := Load(""); err == nil {
		t.Error("Expected error for non-numeric BANDAR_WORKERS")
	}
}

func TestLoad_BadYAML(t *testing.T) {
	chdir(t, t.TempDir())
	path := filepath.Join(t.TempDir(), "bad.yaml")
	writeFile(t, path, "scanner: [oops")

	if _, err := Load(path); err == nil {
		t.Error("Expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"no hosts", func(c *Config) { c.Provider.Hosts = nil }, true},
		{"zero rate limit", func(c *Config) { c.Provider.RateLimit = 0 }, true},
		{"short history", func(c *Config) { c.Provider.HistoryDays = 10 }, true},
		{"zero workers", func(c *Config) { c.Scanner.Workers = 0 }, true},
		{"zero timeout", func(c *Config) { c.Scanner.Timeout = 0 }, true},
		{"no data dir", func(c *Config) { c.Store.DataDir = "" }, true},
		{"bad cron", func(c *Config) { c.Schedule.RefreshCron = "every day" }, true},
		{"empty cron", func(c *Config) { c.Schedule.RefreshCron = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}
