package scanner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"bandar/pkg/model"
)

type fakeProvider struct {
	mu     sync.Mutex
	series map[string][]model.Candle
	errs   map[string]error
	calls  map[string]int
	delay  time.Duration
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		series: make(map[string][]model.Candle),
		errs:   make(map[string]error),
		calls:  make(map[string]int),
	}
}

func (f *fakeProvider) Name() string      { return "fake" }
func (f *fakeProvider) IsAvailable() bool { return true }
func (f *fakeProvider) RateLimit() int    { return 1000 }

func (f *fakeProvider) GetDailyCandles(ctx context.Context, symbol string, days int) ([]model.Candle, error) {
	f.mu.Lock()
	f.calls[symbol]++
	candles, err := f.series[symbol], f.errs[symbol]
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return candles, err
}

func trendingCandles(n int, start, step float64) []model.Candle {
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	candles := make([]model.Candle, n)
	for i := range candles {
		c := start + step*float64(i)
		candles[i] = model.Candle{
			Time:   base.AddDate(0, 0, i),
			Open:   c,
			High:   c * 1.01,
			Low:    c * 0.99,
			Close:  c,
			Volume: 1_000_000,
		}
	}
	return candles
}

func testSettings() model.UserSettings {
	return model.UserSettings{
		TotalCapital:          100_000_000,
		MaxAllocationPerStock: 20,
		RiskTolerance:         model.RiskModerate,
		TakeProfitTarget:      15,
		StopLossTarget:        7,
	}
}

func TestScanner_Scan(t *testing.T) {
	p := newFakeProvider()
	p.series["BBCA"] = trendingCandles(60, 9000, 10)
	p.series["TLKM"] = trendingCandles(60, 3000, -5)
	p.series["NEWS"] = trendingCandles(10, 500, 1)
	p.errs["GONE"] = errors.New("delisted")

	s := NewScanner(p, testSettings(), 50_000_000, 120, 3, 5*time.Second)

	var mu sync.Mutex
	var calls, lastTotal int
	s.SetProgressCallback(func(scanned, total int) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		lastTotal = total
	})

	held := model.Position{
		Symbol:    "BBCA",
		TotalLots: 2,
		AvgPrice:  decimal.NewFromInt(9200),
		CostBasis: decimal.NewFromInt(1_840_000),
	}
	result := s.Scan(context.Background(), []model.Position{
		held,
		{Symbol: "TLKM"},
		{Symbol: "NEWS"},
		{Symbol: "GONE"},
	})

	if result.Scanned != 4 {
		t.Errorf("Expected 4 scanned, got %d", result.Scanned)
	}
	if len(result.Items) != 2 || len(result.Errors) != 2 {
		t.Fatalf("Expected 2 items and 2 errors, got %d and %d", len(result.Items), len(result.Errors))
	}
	if calls != 4 || lastTotal != 4 {
		t.Errorf("Expected 4 progress calls with total 4, got %d calls, total %d", calls, lastTotal)
	}

	bbca := result.Items["BBCA"]
	if bbca == nil {
		t.Fatal("Expected BBCA item")
	}
	if bbca.Position.TotalLots != 2 || bbca.CurrentPrice != 9590 {
		t.Errorf("Unexpected BBCA item: lots=%d price=%v", bbca.Position.TotalLots, bbca.CurrentPrice)
	}
	if bbca.Indicators == nil || bbca.Flow == nil {
		t.Error("Expected indicators and flow analysis")
	}

	if tlkm := result.Items["TLKM"]; tlkm == nil || tlkm.Position.TotalLots != 0 {
		t.Error("Expected prospective TLKM item")
	}

	if !errors.Is(result.Errors["NEWS"], ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData for NEWS, got %v", result.Errors["NEWS"])
	}
	if result.Errors["GONE"] == nil {
		t.Error("Expected error for GONE")
	}
}

func TestScanner_EmptyInput(t *testing.T) {
	s := NewScanner(newFakeProvider(), testSettings(), 0, 120, 2, time.Second)
	result := s.Scan(context.Background(), nil)

	if result.Scanned != 0 || len(result.Items) != 0 || len(result.Errors) != 0 {
		t.Errorf("Expected empty result, got %+v", result)
	}
}

func TestScanner_ScanSymbols(t *testing.T) {
	p := newFakeProvider()
	p.series["ASII"] = trendingCandles(40, 5000, 0)

	s := NewScanner(p, testSettings(), 100_000_000, 120, 1, time.Second)
	result := s.ScanSymbols(context.Background(), []string{"asii"})

	item := result.Items["ASII"]
	if item == nil {
		t.Fatalf("Expected ASII item, errors: %v", result.Errors)
	}
	if item.Symbol != "ASII" || item.Suggestion.Action == "" {
		t.Errorf("Unexpected item: %+v", item)
	}
}

func TestScanner_Timeout(t *testing.T) {
	p := newFakeProvider()
	p.delay = time.Second
	p.series["SLOW"] = trendingCandles(60, 1000, 1)

	s := NewScanner(p, testSettings(), 0, 120, 1, 20*time.Millisecond)
	result := s.ScanSymbols(context.Background(), []string{"SLOW"})

	if !errors.Is(result.Errors["SLOW"], context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", result.Errors["SLOW"])
	}
}

func TestNewScanner_MinimumWorkers(t *testing.T) {
	s := NewScanner(newFakeProvider(), testSettings(), 0, 120, 0, time.Second)
	if s.workers != 1 {
		t.Errorf("Expected 1 worker, got %d", s.workers)
	}
}
