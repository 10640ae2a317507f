package symbols

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"bandar/pkg/model"
)

// Exchange is the only exchange this tool trades
const Exchange = "IDX"

// yahooSuffix marks Jakarta listings on Yahoo Finance
const yahooSuffix = ".JK"

// Normalize upper-cases a code and strips a Yahoo ".JK" suffix
func Normalize(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	return strings.TrimSuffix(s, yahooSuffix)
}

// YahooTicker maps an IDX code to its Yahoo Finance ticker (BBCA -> BBCA.JK)
func YahooTicker(symbol string) string {
	return Normalize(symbol) + yahooSuffix
}

// IsValid reports whether symbol is a plain IDX stock code (four letters)
func IsValid(symbol string) bool {
	if len(symbol) != 4 {
		return false
	}
	for _, c := range symbol {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}

// LoadSymbols normalizes, validates and de-duplicates the given codes.
// Order of first appearance is kept.
func LoadSymbols(symbols []string) ([]model.Stock, error) {
	seen := make(map[string]bool, len(symbols))
	stocks := make([]model.Stock, 0, len(symbols))

	for _, raw := range symbols {
		sym := Normalize(raw)
		if sym == "" || seen[sym] {
			continue
		}
		if !IsValid(sym) {
			return nil, fmt.Errorf("invalid IDX code: %q", raw)
		}
		seen[sym] = true
		stocks = append(stocks, model.Stock{
			Symbol:   sym,
			Name:     sym,
			Exchange: Exchange,
		})
	}
	return stocks, nil
}

// LoadFile reads a watchlist with one code per line. Blank lines and
// lines starting with # are skipped; commas also separate codes.
func LoadFile(path string) ([]model.Stock, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening watchlist: %w", err)
	}
	defer f.Close()

	var codes []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		codes = append(codes, strings.Split(line, ",")...)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading watchlist: %w", err)
	}

	return LoadSymbols(codes)
}
