package provider

import (
	"context"
	"errors"
	"fmt"

	"bandar/pkg/model"
)

// Provider defines the interface for daily market data providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// GetDailyCandles fetches up to days daily OHLCV bars, oldest first
	GetDailyCandles(ctx context.Context, symbol string, days int) ([]model.Candle, error)

	// IsAvailable checks if the provider can be used
	IsAvailable() bool

	// RateLimit returns the rate limit per minute
	RateLimit() int
}

// ProviderError represents a provider-specific error
type ProviderError struct {
	Provider  string
	Err       error
	Retryable bool
}

func (e *ProviderError) Error() string {
	return e.Provider + ": " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ErrNoData is returned when the provider has no bars for a symbol
var ErrNoData = errors.New("no data available")

// IsRetryable reports whether err is a ProviderError worth retrying elsewhere
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}

// FallbackProvider tries multiple providers in order
type FallbackProvider struct {
	providers []Provider
}

// NewFallbackProvider creates a new fallback provider
func NewFallbackProvider(providers ...Provider) *FallbackProvider {
	// Filter to only available providers
	available := make([]Provider, 0, len(providers))
	for _, p := range providers {
		if p.IsAvailable() {
			available = append(available, p)
		}
	}
	return &FallbackProvider{providers: available}
}

// Name returns the combined provider name
func (f *FallbackProvider) Name() string {
	return "fallback"
}

// GetDailyCandles tries each provider in order. A non-retryable error
// (unknown symbol, no data) stops the chain.
func (f *FallbackProvider) GetDailyCandles(ctx context.Context, symbol string, days int) ([]model.Candle, error) {
	if len(f.providers) == 0 {
		return nil, fmt.Errorf("no available providers")
	}

	var lastErr error
	for _, p := range f.providers {
		data, err := p.GetDailyCandles(ctx, symbol, days)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !IsRetryable(err) {
			break
		}
	}
	return nil, lastErr
}

// IsAvailable returns true if any provider is available
func (f *FallbackProvider) IsAvailable() bool {
	return len(f.providers) > 0
}

// RateLimit returns the highest rate limit among providers
func (f *FallbackProvider) RateLimit() int {
	maxRate := 0
	for _, p := range f.providers {
		if p.RateLimit() > maxRate {
			maxRate = p.RateLimit()
		}
	}
	return maxRate
}

// Providers returns the list of underlying providers
func (f *FallbackProvider) Providers() []Provider {
	return f.providers
}
