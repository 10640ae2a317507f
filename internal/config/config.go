package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"bandar/pkg/model"
)

// Config represents the application configuration
type Config struct {
	Provider ProviderConfig     `yaml:"provider"`
	Scanner  ScannerConfig      `yaml:"scanner"`
	Cache    CacheConfig        `yaml:"cache"`
	Store    StoreConfig        `yaml:"store"`
	Schedule ScheduleConfig     `yaml:"schedule"`
	Defaults model.UserSettings `yaml:"defaults"`
}

// ProviderConfig holds market data settings
type ProviderConfig struct {
	Hosts       []string      `yaml:"hosts"`        // tried in order
	RateLimit   int           `yaml:"rate_limit"`   // requests per minute per host
	HistoryDays int           `yaml:"history_days"` // daily bars requested per symbol
	Timeout     time.Duration `yaml:"timeout"`
}

// ScannerConfig holds scanner settings
type ScannerConfig struct {
	Workers int           `yaml:"workers"`
	Timeout time.Duration `yaml:"timeout"`
}

// CacheConfig holds candle cache settings. An empty RedisAddr keeps the cache in memory.
type CacheConfig struct {
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	TTL           time.Duration `yaml:"ttl"`
}

// StoreConfig holds local storage settings
type StoreConfig struct {
	DataDir string `yaml:"data_dir"`
}

// ScheduleConfig holds the watch refresh schedule (standard 5-field cron, Jakarta time)
type ScheduleConfig struct {
	RefreshCron string `yaml:"refresh_cron"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderConfig{
			Hosts: []string{
				"https://query1.finance.yahoo.com/v8/finance/chart",
				"https://query2.finance.yahoo.com/v8/finance/chart",
			},
			RateLimit:   60,
			HistoryDays: 250,
			Timeout:     15 * time.Second,
		},
		Scanner: ScannerConfig{
			Workers: 5,
			Timeout: 2 * time.Minute,
		},
		Cache: CacheConfig{
			TTL: 15 * time.Minute,
		},
		Store: StoreConfig{
			DataDir: defaultDataDir(),
		},
		Schedule: ScheduleConfig{
			RefreshCron: "*/30 9-16 * * 1-5",
		},
		Defaults: model.UserSettings{
			TotalCapital:          100_000_000,
			MaxAllocationPerStock: 20,
			RiskTolerance:         model.RiskModerate,
			TakeProfitTarget:      15,
			StopLossTarget:        7,
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".bandar"
	}
	return filepath.Join(home, ".bandar")
}

// Load loads configuration from a YAML file. A missing file means defaults.
// A .env file in the working directory is loaded first when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[CONFIG] Warning: could not load .env: %v", err)
	}

	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides file values with environment variables if set
func (c *Config) applyEnv() error {
	if dir := os.Getenv("BANDAR_DATA_DIR"); dir != "" {
		c.Store.DataDir = dir
	}
	if addr := os.Getenv("BANDAR_REDIS_ADDR"); addr != "" {
		c.Cache.RedisAddr = addr
	}
	if pw := os.Getenv("BANDAR_REDIS_PASSWORD"); pw != "" {
		c.Cache.RedisPassword = pw
	}
	if spec := os.Getenv("BANDAR_REFRESH_CRON"); spec != "" {
		c.Schedule.RefreshCron = spec
	}
	if w := os.Getenv("BANDAR_WORKERS"); w != "" {
		n, err := strconv.Atoi(w)
		if err != nil {
			return fmt.Errorf("BANDAR_WORKERS: %w", err)
		}
		c.Scanner.Workers = n
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if len(c.Provider.Hosts) == 0 {
		return fmt.Errorf("at least one provider host is required")
	}
	if c.Provider.RateLimit < 1 {
		return fmt.Errorf("provider rate_limit must be at least 1")
	}
	if c.Provider.HistoryDays < 20 {
		return fmt.Errorf("provider history_days must be at least 20, got %d", c.Provider.HistoryDays)
	}
	if c.Scanner.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	if c.Scanner.Timeout <= 0 {
		return fmt.Errorf("scanner timeout must be positive")
	}
	if c.Store.DataDir == "" {
		return fmt.Errorf("store data_dir is required")
	}
	if c.Schedule.RefreshCron != "" {
		if _, err := cron.ParseStandard(c.Schedule.RefreshCron); err != nil {
			return fmt.Errorf("invalid refresh_cron %q: %w", c.Schedule.RefreshCron, err)
		}
	}
	return nil
}
