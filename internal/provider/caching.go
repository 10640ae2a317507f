package provider

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"bandar/pkg/model"
)

// CandleStore persists fetched candles between calls. Get reports a miss
// with ok=false; expired entries are misses.
type CandleStore interface {
	Get(ctx context.Context, key string) (candles []model.Candle, ok bool, err error)
	Set(ctx context.Context, key string, candles []model.Candle, ttl time.Duration) error
}

// CachingProvider wraps a Provider with a candle cache for GetDailyCandles.
// It always fetches maxDays so one entry serves every shorter request.
type CachingProvider struct {
	inner   Provider
	store   CandleStore
	ttl     time.Duration
	maxDays int
}

// NewCachingProvider creates a caching wrapper over store
func NewCachingProvider(inner Provider, store CandleStore, ttl time.Duration, maxDays int) *CachingProvider {
	return &CachingProvider{
		inner:   inner,
		store:   store,
		ttl:     ttl,
		maxDays: maxDays,
	}
}

func (p *CachingProvider) Name() string      { return p.inner.Name() }
func (p *CachingProvider) IsAvailable() bool { return p.inner.IsAvailable() }
func (p *CachingProvider) RateLimit() int    { return p.inner.RateLimit() }

// cacheKey is per symbol and per exchange day, so a new session invalidates it
func cacheKey(symbol string, now time.Time) string {
	return "candles:" + strings.ToUpper(symbol) + ":" + now.In(jakarta).Format("2006-01-02")
}

func (p *CachingProvider) GetDailyCandles(ctx context.Context, symbol string, days int) ([]model.Candle, error) {
	key := cacheKey(symbol, time.Now())

	cached, ok, err := p.store.Get(ctx, key)
	if err != nil {
		log.Printf("[CACHE] read %s failed: %v", key, err)
	}
	if ok {
		return tail(cached, days), nil
	}

	fetchDays := p.maxDays
	if days > fetchDays {
		fetchDays = days
	}

	candles, err := p.inner.GetDailyCandles(ctx, symbol, fetchDays)
	if err != nil {
		return nil, err
	}

	if err := p.store.Set(ctx, key, candles, p.ttl); err != nil {
		log.Printf("[CACHE] write %s failed: %v", key, err)
	}

	return tail(candles, days), nil
}

func tail(candles []model.Candle, days int) []model.Candle {
	if days > 0 && len(candles) > days {
		return candles[len(candles)-days:]
	}
	return candles
}

// MemoryStore is an in-process CandleStore
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	candles []model.Candle
	expires time.Time
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get returns a live entry
func (m *MemoryStore) Get(_ context.Context, key string) ([]model.Candle, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && m.now().After(e.expires) {
		delete(m.entries, key)
		return nil, false, nil
	}
	return e.candles, true, nil
}

// Set stores candles; ttl <= 0 never expires
func (m *MemoryStore) Set(_ context.Context, key string, candles []model.Candle, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := memoryEntry{candles: candles}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.entries[key] = e
	return nil
}
