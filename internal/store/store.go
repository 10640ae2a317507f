package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"bandar/internal/position"
	"bandar/internal/symbols"
	"bandar/pkg/model"
)

// ErrInvalidBackup is returned when an imported document fails validation
var ErrInvalidBackup = errors.New("invalid backup")

// Store persists transactions and settings to a single JSON file
type Store struct {
	mu       sync.RWMutex
	filepath string
	defaults model.UserSettings
	data     model.Backup
	now      func() time.Time
}

// New opens the store under dir, creating it if needed.
// defaults are returned by Settings until the user saves their own.
func New(dir string, defaults model.UserSettings) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	s := &Store{
		filepath: filepath.Join(dir, "portfolio.json"),
		defaults: defaults,
		data:     model.Backup{Version: model.BackupVersion},
		now:      time.Now,
	}

	if err := s.load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("loading %s: %w", s.filepath, err)
		}
	}

	log.Printf("[STORE] Loaded %d transactions from %s", len(s.data.Transactions), s.filepath)
	return s, nil
}

// Path returns the backing file
func (s *Store) Path() string {
	return s.filepath
}

// AddTransaction validates and appends a transaction, assigning an ID and
// timestamp when missing. Selling more lots than held is rejected.
func (s *Store) AddTransaction(tx model.Transaction) (model.Transaction, error) {
	tx.Symbol = symbols.Normalize(tx.Symbol)
	if tx.Type == "" {
		tx.Type = model.TransactionBuy
	}
	if err := validateTransaction(tx); err != nil {
		return model.Transaction{}, err
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.Timestamp.IsZero() {
		tx.Timestamp = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if tx.Type == model.TransactionSell {
		held := position.Aggregate(s.data.Transactions)[tx.Symbol].TotalLots
		if tx.Lots > held {
			return model.Transaction{}, fmt.Errorf("cannot sell %d lots of %s: %d held", tx.Lots, tx.Symbol, held)
		}
	}

	s.data.Transactions = append(s.data.Transactions, tx)
	if err := s.persist(); err != nil {
		s.data.Transactions = s.data.Transactions[:len(s.data.Transactions)-1]
		return model.Transaction{}, err
	}

	log.Printf("[STORE] Recorded %s %d lots %s @ %s", tx.Type, tx.Lots, tx.Symbol, tx.Price.String())
	return tx, nil
}

// DeleteTransaction removes a transaction by ID
func (s *Store) DeleteTransaction(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, tx := range s.data.Transactions {
		if tx.ID != id {
			continue
		}
		prev := s.data.Transactions
		s.data.Transactions = append(append([]model.Transaction{}, prev[:i]...), prev[i+1:]...)
		if err := s.persist(); err != nil {
			s.data.Transactions = prev
			return err
		}
		log.Printf("[STORE] Deleted transaction %s", id)
		return nil
	}
	return fmt.Errorf("transaction %s not found", id)
}

// Transactions returns a copy of the log in recorded order
func (s *Store) Transactions() []model.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Transaction, len(s.data.Transactions))
	copy(out, s.data.Transactions)
	return out
}

// Positions returns open positions sorted by symbol
func (s *Store) Positions() []model.Position {
	return position.AggregateSorted(s.Transactions())
}

// Settings returns the saved settings or the defaults
func (s *Store) Settings() model.UserSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.data.Settings == nil {
		return s.defaults
	}
	return *s.data.Settings
}

// SaveSettings validates and stores settings
func (s *Store) SaveSettings(settings model.UserSettings) error {
	if err := ValidateSettings(settings); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.data.Settings
	s.data.Settings = &settings
	if err := s.persist(); err != nil {
		s.data.Settings = prev
		return err
	}
	log.Printf("[STORE] Saved settings (capital=%.0f, max alloc=%.1f%%, risk=%s)",
		settings.TotalCapital, settings.MaxAllocationPerStock, settings.RiskTolerance)
	return nil
}

// Export writes a backup document to path
func (s *Store) Export(path string) error {
	s.mu.RLock()
	backup := s.data
	backup.Version = model.BackupVersion
	backup.ExportedAt = s.now()
	if backup.Settings == nil {
		settings := s.defaults
		backup.Settings = &settings
	}
	s.mu.RUnlock()

	if backup.Transactions == nil {
		backup.Transactions = []model.Transaction{}
	}

	data, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing backup: %w", err)
	}

	log.Printf("[STORE] Exported %d transactions to %s", len(backup.Transactions), path)
	return nil
}

// Import validates a backup document and replaces the store's contents with it
func (s *Store) Import(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading backup: %w", err)
	}

	var backup model.Backup
	if err := json.Unmarshal(raw, &backup); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	if err := validateBackup(&backup); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.data
	s.data = backup
	if err := s.persist(); err != nil {
		s.data = prev
		return err
	}

	log.Printf("[STORE] Imported %d transactions from %s", len(backup.Transactions), path)
	return nil
}

// Reload re-reads the file (for cross-process freshness)
func (s *Store) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = model.Backup{Version: model.BackupVersion}
	if err := s.load(); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *Store) load() error {
	raw, err := os.ReadFile(s.filepath)
	if err != nil {
		return err
	}

	var data model.Backup
	if err := json.Unmarshal(raw, &data); err != nil {
		return err
	}
	s.data = data
	return nil
}

// persist writes a temp file and renames it over the store
func (s *Store) persist() error {
	s.data.Version = model.BackupVersion
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.filepath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing store: %w", err)
	}
	if err := os.Rename(tmp, s.filepath); err != nil {
		return fmt.Errorf("replacing store: %w", err)
	}
	return nil
}
