package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"bandar/internal/ratelimit"
	"bandar/internal/symbols"
	"bandar/pkg/model"
)

// Yahoo chart API hosts; query2 mirrors query1
const (
	YahooQuery1URL = "https://query1.finance.yahoo.com/v8/finance/chart"
	YahooQuery2URL = "https://query2.finance.yahoo.com/v8/finance/chart"
)

// jakarta is the exchange timezone (WIB, UTC+7, no DST)
var jakarta = time.FixedZone("WIB", 7*60*60)

// YahooProvider implements the Provider interface for Yahoo Finance (unofficial API)
type YahooProvider struct {
	name      string
	client    *http.Client
	baseURL   string
	limiter   *ratelimit.Limiter
	rateLimit int
}

// NewYahooProvider creates a Yahoo Finance provider against baseURL
func NewYahooProvider(baseURL string, perMinute int, timeout time.Duration) *YahooProvider {
	host := strings.TrimPrefix(strings.TrimPrefix(baseURL, "https://"), "http://")
	if i := strings.Index(host, "."); i > 0 {
		host = host[:i]
	}
	return &YahooProvider{
		name:      "yahoo-" + host,
		client:    &http.Client{Timeout: timeout},
		baseURL:   strings.TrimRight(baseURL, "/"),
		limiter:   ratelimit.NewLimiter("yahoo-"+host, perMinute),
		rateLimit: perMinute,
	}
}

// Name returns the provider name with its host (yahoo-query1)
func (p *YahooProvider) Name() string {
	return p.name
}

// IsAvailable always returns true (no API key needed)
func (p *YahooProvider) IsAvailable() bool {
	return true
}

// RateLimit returns the rate limit per minute
func (p *YahooProvider) RateLimit() int {
	return p.rateLimit
}

// yahooResponse represents the Yahoo Finance API response.
// Quote arrays hold null for halted or missing sessions.
type yahooResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol   string `json:"symbol"`
				Currency string `json:"currency"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// GetDailyCandles fetches daily bars for an IDX code
func (p *YahooProvider) GetDailyCandles(ctx context.Context, symbol string, days int) ([]model.Candle, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	// Calendar buffer for weekends and exchange holidays
	now := time.Now().In(jakarta)
	start := now.AddDate(0, 0, -(days*3/2 + 10))

	url := fmt.Sprintf("%s/%s?period1=%d&period2=%d&interval=1d&includePrePost=false",
		p.baseURL, symbols.YahooTicker(symbol), start.Unix(), now.Unix())

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Err: err, Retryable: true}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		p.limiter.SignalRateLimited()
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("rate limited"), Retryable: true}
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("status %d", resp.StatusCode), Retryable: true}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("status %d", resp.StatusCode), Retryable: false}
	}

	p.limiter.ResetBackoff()

	var data yahooResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("decoding response: %w", err), Retryable: true}
	}

	if data.Chart.Error != nil {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("%s", data.Chart.Error.Description), Retryable: false}
	}

	if len(data.Chart.Result) == 0 || len(data.Chart.Result[0].Timestamp) == 0 ||
		len(data.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, &ProviderError{Provider: p.Name(), Err: ErrNoData, Retryable: false}
	}

	result := data.Chart.Result[0]
	quotes := result.Indicators.Quote[0]

	candles := make([]model.Candle, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		open, ok1 := at(quotes.Open, i)
		high, ok2 := at(quotes.High, i)
		low, ok3 := at(quotes.Low, i)
		closePrice, ok4 := at(quotes.Close, i)
		if !ok1 || !ok2 || !ok3 || !ok4 {
			continue
		}

		var volume int64
		if i < len(quotes.Volume) && quotes.Volume[i] != nil {
			volume = *quotes.Volume[i]
		}

		candles = append(candles, model.Candle{
			Time:   time.Unix(ts, 0).In(jakarta),
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closePrice,
			Volume: volume,
		})
	}

	if len(candles) == 0 {
		return nil, &ProviderError{Provider: p.Name(), Err: ErrNoData, Retryable: false}
	}
	if days > 0 && len(candles) > days {
		candles = candles[len(candles)-days:]
	}
	return candles, nil
}

// at returns the i-th value of a nullable series
func at(values []*float64, i int) (float64, bool) {
	if i >= len(values) || values[i] == nil {
		return 0, false
	}
	return *values[i], true
}
