package store

import (
	"fmt"

	"bandar/internal/symbols"
	"bandar/pkg/model"
)

func validateTransaction(tx model.Transaction) error {
	if !symbols.IsValid(tx.Symbol) {
		return fmt.Errorf("invalid IDX code: %q", tx.Symbol)
	}
	if tx.Type != model.TransactionBuy && tx.Type != model.TransactionSell {
		return fmt.Errorf("invalid transaction type: %q", tx.Type)
	}
	if tx.Lots <= 0 {
		return fmt.Errorf("lots must be positive, got %d", tx.Lots)
	}
	if !tx.Price.IsPositive() {
		return fmt.Errorf("price must be positive, got %s", tx.Price.String())
	}
	return nil
}

// ValidateSettings checks user settings ranges
func ValidateSettings(s model.UserSettings) error {
	if s.TotalCapital < 0 {
		return fmt.Errorf("total capital must not be negative")
	}
	if s.MaxAllocationPerStock <= 0 || s.MaxAllocationPerStock > 100 {
		return fmt.Errorf("max allocation per stock must be in (0, 100], got %.2f", s.MaxAllocationPerStock)
	}
	if s.TakeProfitTarget <= 0 {
		return fmt.Errorf("take profit target must be positive")
	}
	if s.StopLossTarget <= 0 || s.StopLossTarget >= 100 {
		return fmt.Errorf("stop loss target must be in (0, 100), got %.2f", s.StopLossTarget)
	}
	switch s.RiskTolerance {
	case model.RiskConservative, model.RiskModerate, model.RiskAggressive:
	default:
		return fmt.Errorf("invalid risk tolerance: %q", s.RiskTolerance)
	}
	return nil
}

// validateBackup checks a document before import. A missing version and
// entries without a type are read as legacy data. Oversells are accepted;
// aggregation clamps them.
func validateBackup(b *model.Backup) error {
	if b.Version < 0 || b.Version > model.BackupVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidBackup, b.Version)
	}

	for i := range b.Transactions {
		tx := &b.Transactions[i]
		tx.Symbol = symbols.Normalize(tx.Symbol)
		if tx.Type == "" {
			tx.Type = model.TransactionBuy
		}
		if err := validateTransaction(*tx); err != nil {
			return fmt.Errorf("%w: transaction %d: %v", ErrInvalidBackup, i, err)
		}
	}

	if b.Settings != nil {
		if err := ValidateSettings(*b.Settings); err != nil {
			return fmt.Errorf("%w: settings: %v", ErrInvalidBackup, err)
		}
	}
	if b.Transactions == nil {
		b.Transactions = []model.Transaction{}
	}
	return nil
}
