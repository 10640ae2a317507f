package position

import (
	"sort"

	"github.com/shopspring/decimal"

	"bandar/pkg/model"
)

var sharesPerLot = decimal.NewFromInt(model.SharesPerLot)

// Aggregate folds transactions into net positions per symbol using
// weighted-average cost. Transactions are applied in input order.
// Symbols whose lots drop to zero are kept with a zero position.
func Aggregate(txs []model.Transaction) map[string]model.Position {
	positions := make(map[string]model.Position)

	for _, tx := range txs {
		pos := positions[tx.Symbol]
		pos.Symbol = tx.Symbol
		positions[tx.Symbol] = apply(pos, tx)
	}

	for symbol, pos := range positions {
		pos.AvgPrice = averagePrice(pos)
		positions[symbol] = pos
	}
	return positions
}

// AggregateSorted returns the open positions (lots > 0) ordered by symbol
func AggregateSorted(txs []model.Transaction) []model.Position {
	all := Aggregate(txs)
	result := make([]model.Position, 0, len(all))
	for _, pos := range all {
		if pos.TotalLots > 0 {
			result = append(result, pos)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Symbol < result[j].Symbol
	})
	return result
}

// apply adds a single transaction to a position
func apply(pos model.Position, tx model.Transaction) model.Position {
	if tx.Lots <= 0 {
		return pos
	}

	switch tx.EffectiveType() {
	case model.TransactionSell:
		sold := tx.Lots
		if sold > pos.TotalLots {
			sold = pos.TotalLots
		}
		if sold == 0 {
			return pos
		}
		// remove the sold share of the cost basis without rounding through the average
		removed := pos.CostBasis.Mul(decimal.NewFromInt(int64(sold))).Div(decimal.NewFromInt(int64(pos.TotalLots)))
		pos.TotalLots -= sold
		pos.CostBasis = pos.CostBasis.Sub(removed)
		if pos.TotalLots == 0 {
			pos.CostBasis = decimal.Zero
		}
	default:
		pos.TotalLots += tx.Lots
		pos.CostBasis = pos.CostBasis.Add(decimal.NewFromInt(int64(tx.Lots)).Mul(sharesPerLot).Mul(tx.Price))
	}
	return pos
}

// averagePrice = costBasis / shares, 0 when nothing is held
func averagePrice(pos model.Position) decimal.Decimal {
	if pos.TotalLots <= 0 {
		return decimal.Zero
	}
	shares := decimal.NewFromInt(int64(pos.TotalLots)).Mul(sharesPerLot)
	return pos.CostBasis.DivRound(shares, 8)
}
