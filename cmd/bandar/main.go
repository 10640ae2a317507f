package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"bandar/internal/cache"
	"bandar/internal/config"
	"bandar/internal/provider"
	"bandar/internal/store"
)

var (
	cfgFile string
	format  string
	verbose bool
	workers int
)

// app holds what every command needs once config is loaded
type app struct {
	cfg   *config.Config
	store *store.Store
}

var current app

func main() {
	rootCmd := &cobra.Command{
		Use:   "bandar",
		Short: "IDX equity flow analyzer and position planner",
		Long: `Bandar analyzes daily price and volume of Indonesian (IDX) stocks, scores
institutional accumulation or distribution, and plans entries and exits for
your positions.

Examples:
  bandar analyze BBCA TLKM
  bandar analyze --universe lq45
  bandar buy BBCA 9 1910
  bandar portfolio
  bandar watch`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&format, "format", "table", "output format: table, json")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "show detailed output and logs")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "number of parallel workers (default from config)")

	rootCmd.AddCommand(
		analyzeCmd(),
		portfolioCmd(),
		buyCmd(),
		sellCmd(),
		historyCmd(),
		settingsCmd(),
		exportCmd(),
		importCmd(),
		watchCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	if !verbose {
		log.SetOutput(io.Discard)
	}
	if format != "table" && format != "json" {
		return fmt.Errorf("unknown format %q (table, json)", format)
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Override config with CLI flags
	if cmd.Flags().Changed("workers") {
		cfg.Scanner.Workers = workers
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	st, err := store.New(cfg.Store.DataDir, cfg.Defaults)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}

	current = app{cfg: cfg, store: st}
	return nil
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(os.Stderr, "\nInterrupted. Stopping...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}

// newProvider builds Yahoo hosts in fallback order behind a candle cache.
// The returned func releases the cache connection.
func newProvider(ctx context.Context, cfg *config.Config) (provider.Provider, func(), error) {
	var providers []provider.Provider
	for _, host := range cfg.Provider.Hosts {
		providers = append(providers, provider.NewYahooProvider(host, cfg.Provider.RateLimit, cfg.Provider.Timeout))
	}

	fallback := provider.NewFallbackProvider(providers...)
	if !fallback.IsAvailable() {
		return nil, nil, fmt.Errorf("no available data providers")
	}

	if verbose {
		fmt.Printf("Using providers: ")
		for i, p := range fallback.Providers() {
			if i > 0 {
				fmt.Print(", ")
			}
			fmt.Print(p.Name())
		}
		fmt.Println()
	}

	var candleStore provider.CandleStore = provider.NewMemoryStore()
	closeFn := func() {}
	if cfg.Cache.RedisAddr != "" {
		rs, err := cache.NewRedisStore(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
		if err != nil {
			// the memory cache still works for this run
			fmt.Fprintf(os.Stderr, "Warning: redis unavailable, using in-memory cache: %v\n", err)
		} else {
			candleStore = rs
			closeFn = func() { rs.Close() }
		}
	}

	ttl := cfg.Cache.TTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	return provider.NewCachingProvider(fallback, candleStore, ttl, cfg.Provider.HistoryDays), closeFn, nil
}
