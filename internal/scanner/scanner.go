package scanner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"bandar/internal/analyzer"
	"bandar/internal/portfolio"
	"bandar/internal/provider"
	"bandar/pkg/model"
)

// ErrInsufficientData is returned for symbols with too little usable history
var ErrInsufficientData = errors.New("insufficient market data")

// ProgressCallback is called with progress updates
type ProgressCallback func(scanned, total int)

// Result holds per-symbol items and failures of one scan
type Result struct {
	Items    map[string]*model.PortfolioItem
	Errors   map[string]error
	Scanned  int
	ScanTime time.Duration
}

// Scanner analyzes many symbols in parallel
type Scanner struct {
	provider     provider.Provider
	settings     model.UserSettings
	available    float64
	days         int
	workers      int
	timeout      time.Duration
	progressFunc ProgressCallback
	now          func() time.Time
}

// NewScanner creates a new scanner. available is the portfolio-wide
// available capital shared by every symbol's plan.
func NewScanner(p provider.Provider, settings model.UserSettings, available float64, days, workers int, timeout time.Duration) *Scanner {
	if workers < 1 {
		workers = 1
	}
	return &Scanner{
		provider:  p,
		settings:  settings,
		available: available,
		days:      days,
		workers:   workers,
		timeout:   timeout,
		now:       time.Now,
	}
}

// SetProgressCallback sets the progress callback function
func (s *Scanner) SetProgressCallback(fn ProgressCallback) {
	s.progressFunc = fn
}

type outcome struct {
	symbol string
	item   *model.PortfolioItem
	err    error
}

// Scan analyzes each position. Zero-lot positions get a prospective analysis.
// A failing symbol is reported in Result.Errors and does not stop the rest.
func (s *Scanner) Scan(ctx context.Context, positions []model.Position) *Result {
	startTime := time.Now()
	result := &Result{
		Items:  make(map[string]*model.PortfolioItem),
		Errors: make(map[string]error),
	}
	if len(positions) == 0 {
		return result
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	jobChan := make(chan model.Position, len(positions))
	outChan := make(chan outcome, len(positions))

	for _, pos := range positions {
		jobChan <- pos
	}
	close(jobChan)

	var scannedCount int64

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pos := range jobChan {
				var out outcome
				if err := ctx.Err(); err != nil {
					out = outcome{symbol: pos.Symbol, err: fmt.Errorf("%s: %w", pos.Symbol, err)}
				} else {
					item, err := s.analyze(ctx, pos)
					out = outcome{symbol: pos.Symbol, item: item, err: err}
				}
				outChan <- out

				count := atomic.AddInt64(&scannedCount, 1)
				if s.progressFunc != nil {
					s.progressFunc(int(count), len(positions))
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(outChan)
	}()

	for out := range outChan {
		if out.err != nil {
			log.Printf("[SCANNER] %s failed: %v", out.symbol, out.err)
			result.Errors[out.symbol] = out.err
			continue
		}
		result.Items[out.symbol] = out.item
	}

	result.Scanned = len(positions)
	result.ScanTime = time.Since(startTime)
	log.Printf("[SCANNER] scanned %d symbols in %v (%d failed)",
		result.Scanned, result.ScanTime.Round(time.Millisecond), len(result.Errors))
	return result
}

// ScanSymbols runs a prospective analysis for symbols without positions
func (s *Scanner) ScanSymbols(ctx context.Context, symbols []string) *Result {
	positions := make([]model.Position, len(symbols))
	for i, sym := range symbols {
		positions[i] = model.Position{Symbol: strings.ToUpper(sym)}
	}
	return s.Scan(ctx, positions)
}

func (s *Scanner) analyze(ctx context.Context, pos model.Position) (*model.PortfolioItem, error) {
	candles, err := s.provider.GetDailyCandles(ctx, pos.Symbol, s.days)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", pos.Symbol, err)
	}

	series := model.NewPriceSeries(pos.Symbol, candles)
	if series.Len() < analyzer.MinBars {
		return nil, fmt.Errorf("%w for %s: %d usable bars, need %d",
			ErrInsufficientData, pos.Symbol, series.Len(), analyzer.MinBars)
	}

	return portfolio.Build(series, pos, s.settings, s.available, s.now()), nil
}
