package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"bandar/pkg/model"
)

func defaultSettings() model.UserSettings {
	return model.UserSettings{
		TotalCapital:          100_000_000,
		MaxAllocationPerStock: 20,
		RiskTolerance:         model.RiskModerate,
		TakeProfitTarget:      15,
		StopLossTarget:        7,
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), defaultSettings())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	return s
}

func buy(symbol string, lots int, price int64) model.Transaction {
	return model.Transaction{Symbol: symbol, Type: model.TransactionBuy, Lots: lots, Price: decimal.NewFromInt(price)}
}

func sell(symbol string, lots int, price int64) model.Transaction {
	return model.Transaction{Symbol: symbol, Type: model.TransactionSell, Lots: lots, Price: decimal.NewFromInt(price)}
}

func TestStore_AddTransaction(t *testing.T) {
	s := newTestStore(t)

	tx, err := s.AddTransaction(buy("bbca.jk", 9, 1910))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if tx.ID == "" || tx.Timestamp.IsZero() {
		t.Error("Expected generated ID and timestamp")
	}
	if tx.Symbol != "BBCA" {
		t.Errorf("Expected normalized symbol BBCA, got %s", tx.Symbol)
	}

	if _, err := s.AddTransaction(sell("BBCA", 5, 2000)); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	positions := s.Positions()
	if len(positions) != 1 || positions[0].TotalLots != 4 {
		t.Fatalf("Expected 4 lots of BBCA, got %+v", positions)
	}
	if !positions[0].AvgPrice.Equal(decimal.NewFromInt(1910)) {
		t.Errorf("Expected avg 1910, got %s", positions[0].AvgPrice)
	}
}

func TestStore_AddTransactionValidation(t *testing.T) {
	tests := []struct {
		name string
		tx   model.Transaction
	}{
		{"bad symbol", buy("BB", 1, 1000)},
		{"zero lots", buy("BBCA", 0, 1000)},
		{"negative price", buy("BBCA", 1, -5)},
		{"unknown type", model.Transaction{Symbol: "BBCA", Type: "HOLD", Lots: 1, Price: decimal.NewFromInt(1000)}},
		{"oversell", sell("TLKM", 1, 3000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			if _, err := s.AddTransaction(tt.tx); err == nil {
				t.Error("Expected error")
			}
			if len(s.Transactions()) != 0 {
				t.Error("Rejected transaction should not be stored")
			}
		})
	}
}

func TestStore_EmptyTypeIsBuy(t *testing.T) {
	s := newTestStore(t)
	tx, err := s.AddTransaction(model.Transaction{Symbol: "ASII", Lots: 2, Price: decimal.NewFromInt(5000)})
	if err != nil {
		t.Fatal(err)
	}
	if tx.Type != model.TransactionBuy {
		t.Errorf("Expected BUY, got %s", tx.Type)
	}
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, defaultSettings())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddTransaction(buy("TLKM", 3, 3000)); err != nil {
		t.Fatal(err)
	}
	custom := defaultSettings()
	custom.RiskTolerance = model.RiskAggressive
	if err := s.SaveSettings(custom); err != nil {
		t.Fatal(err)
	}

	reopened, err := New(dir, defaultSettings())
	if err != nil {
		t.Fatal(err)
	}
	if len(reopened.Transactions()) != 1 {
		t.Errorf("Expected 1 transaction, got %d", len(reopened.Transactions()))
	}
	if reopened.Settings().RiskTolerance != model.RiskAggressive {
		t.Errorf("Expected saved settings, got %+v", reopened.Settings())
	}
}

func TestStore_DeleteTransaction(t *testing.T) {
	s := newTestStore(t)
	first, _ := s.AddTransaction(buy("BBRI", 1, 4500))
	_, _ = s.AddTransaction(buy("BBRI", 1, 4600))

	if err := s.DeleteTransaction(first.ID); err != nil {
		t.Fatal(err)
	}
	txs := s.Transactions()
	if len(txs) != 1 || !txs[0].Price.Equal(decimal.NewFromInt(4600)) {
		t.Errorf("Unexpected transactions after delete: %+v", txs)
	}
	if err := s.DeleteTransaction("missing"); err == nil {
		t.Error("Expected error for unknown ID")
	}
}

func TestStore_Settings(t *testing.T) {
	s := newTestStore(t)
	if s.Settings() != defaultSettings() {
		t.Error("Expected defaults before any save")
	}

	bad := defaultSettings()
	bad.MaxAllocationPerStock = 150
	if err := s.SaveSettings(bad); err == nil {
		t.Error("Expected validation error")
	}
	if s.Settings() != defaultSettings() {
		t.Error("Failed save should not change settings")
	}
}

func TestValidateSettings(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*model.UserSettings)
		wantErr bool
	}{
		{"valid", func(s *model.UserSettings) {}, false},
		{"zero capital", func(s *model.UserSettings) { s.TotalCapital = 0 }, false},
		{"negative capital", func(s *model.UserSettings) { s.TotalCapital = -1 }, true},
		{"zero allocation", func(s *model.UserSettings) { s.MaxAllocationPerStock = 0 }, true},
		{"full allocation", func(s *model.UserSettings) { s.MaxAllocationPerStock = 100 }, false},
		{"zero take profit", func(s *model.UserSettings) { s.TakeProfitTarget = 0 }, true},
		{"stop loss 100", func(s *model.UserSettings) { s.StopLossTarget = 100 }, true},
		{"unknown risk", func(s *model.UserSettings) { s.RiskTolerance = "YOLO" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := defaultSettings()
			tt.modify(&s)
			err := ValidateSettings(s)
			if (err != nil) != tt.wantErr {
				t.Errorf("Expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestStore_ExportImportRoundTrip(t *testing.T) {
	src := newTestStore(t)
	src.now = func() time.Time { return time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC) }

	_, _ = src.AddTransaction(buy("BBCA", 9, 1910))
	_, _ = src.AddTransaction(model.Transaction{
		Symbol: "BBCA", Type: model.TransactionSell, Lots: 5,
		Price: decimal.RequireFromString("2012.5"),
	})
	settings := defaultSettings()
	settings.StopLossTarget = 5
	_ = src.SaveSettings(settings)

	path := filepath.Join(t.TempDir(), "backup.json")
	if err := src.Export(path); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	dst := newTestStore(t)
	_, _ = dst.AddTransaction(buy("TLKM", 1, 3000))
	if err := dst.Import(path); err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	want := src.Transactions()
	got := dst.Transactions()
	if len(got) != len(want) {
		t.Fatalf("Expected %d transactions, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].ID != want[i].ID || got[i].Type != want[i].Type || got[i].Lots != want[i].Lots ||
			!got[i].Price.Equal(want[i].Price) || !got[i].Timestamp.Equal(want[i].Timestamp) {
			t.Errorf("Transaction %d mismatch: want %+v, got %+v", i, want[i], got[i])
		}
	}
	if dst.Settings() != settings {
		t.Errorf("Expected imported settings %+v, got %+v", settings, dst.Settings())
	}
}

func TestStore_ImportLegacyBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.json")
	legacy := `{"transactions":[{"symbol":"bmri","lots":2,"price":"6100","timestamp":"2024-03-01T00:00:00Z"}]}`
	if err := os.WriteFile(path, []byte(legacy), 0644); err != nil {
		t.Fatal(err)
	}

	s := newTestStore(t)
	if err := s.Import(path); err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	txs := s.Transactions()
	if len(txs) != 1 || txs[0].Symbol != "BMRI" || txs[0].Type != model.TransactionBuy {
		t.Errorf("Unexpected legacy import: %+v", txs)
	}
	if s.Settings() != defaultSettings() {
		t.Error("Expected defaults when backup carries no settings")
	}
}

func TestStore_ImportInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `{"transactions":`},
		{"future version", `{"version":99,"transactions":[]}`},
		{"bad lots", `{"version":1,"transactions":[{"symbol":"BBCA","type":"BUY","lots":0,"price":"1000"}]}`},
		{"bad settings", `{"version":1,"transactions":[],"settings":{"total_capital":1,"max_allocation_per_stock":0,"risk_tolerance":"MODERATE","take_profit_target":10,"stop_loss_target":5}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.json")
			if err := os.WriteFile(path, []byte(tt.body), 0644); err != nil {
				t.Fatal(err)
			}

			s := newTestStore(t)
			_, _ = s.AddTransaction(buy("ASII", 1, 5000))

			err := s.Import(path)
			if !errors.Is(err, ErrInvalidBackup) {
				t.Errorf("Expected ErrInvalidBackup, got %v", err)
			}
			if len(s.Transactions()) != 1 {
				t.Error("Failed import should keep existing data")
			}
		})
	}
}

func TestStore_ExportWritesDefaults(t *testing.T) {
	s := newTestStore(t)
	path := filepath.Join(t.TempDir(), "out.json")
	if err := s.Export(path); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var b model.Backup
	if err := json.Unmarshal(raw, &b); err != nil {
		t.Fatal(err)
	}
	if b.Version != model.BackupVersion || b.Settings == nil || b.Transactions == nil {
		t.Errorf("Unexpected export: %+v", b)
	}
}
