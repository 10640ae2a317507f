package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"bandar/internal/schedule"
	"bandar/internal/store"
	"bandar/internal/symbols"
	"bandar/pkg/model"
)

func buyCmd() *cobra.Command {
	return transactionCmd(model.TransactionBuy)
}

func sellCmd() *cobra.Command {
	return transactionCmd(model.TransactionSell)
}

func transactionCmd(txType model.TransactionType) *cobra.Command {
	var date string
	verb := strings.ToLower(string(txType))

	cmd := &cobra.Command{
		Use:   verb + " SYMBOL LOTS PRICE",
		Short: fmt.Sprintf("Record a %s transaction", txType),
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			lots, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid lots %q: %w", args[1], err)
			}
			price, err := decimal.NewFromString(args[2])
			if err != nil {
				return fmt.Errorf("invalid price %q: %w", args[2], err)
			}

			tx := model.Transaction{
				Symbol: args[0],
				Type:   txType,
				Lots:   lots,
				Price:  price,
			}
			if date != "" {
				ts, err := time.ParseInLocation("2006-01-02", date, schedule.Jakarta)
				if err != nil {
					return fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", date, err)
				}
				tx.Timestamp = ts
			}

			recorded, err := current.store.AddTransaction(tx)
			if err != nil {
				return err
			}

			if format == "json" {
				return outputJSON(recorded)
			}
			fmt.Printf("Recorded %s %d lots of %s @ %s (id %s)\n",
				recorded.Type, recorded.Lots, recorded.Symbol, recorded.Price.String(), recorded.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "trade date YYYY-MM-DD (default now)")
	return cmd
}

func historyCmd() *cobra.Command {
	var remove string

	cmd := &cobra.Command{
		Use:   "history [SYMBOL]",
		Short: "List recorded transactions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if remove != "" {
				if err := current.store.DeleteTransaction(remove); err != nil {
					return err
				}
				fmt.Printf("Deleted transaction %s\n", remove)
				return nil
			}

			txs := current.store.Transactions()
			if len(args) == 1 {
				sym := symbols.Normalize(args[0])
				filtered := txs[:0]
				for _, tx := range txs {
					if tx.Symbol == sym {
						filtered = append(filtered, tx)
					}
				}
				txs = filtered
			}

			if format == "json" {
				return outputJSON(txs)
			}
			if len(txs) == 0 {
				fmt.Println("No transactions recorded.")
				return nil
			}

			table := tablewriter.NewTable(os.Stdout,
				tablewriter.WithHeader([]string{"Date", "Symbol", "Type", "Lots", "Price", "Value", "ID"}),
			)
			for _, tx := range txs {
				value := tx.Price.Mul(decimal.NewFromInt(int64(tx.Lots * model.SharesPerLot)))
				table.Append([]string{
					tx.Timestamp.In(schedule.Jakarta).Format("2006-01-02"),
					tx.Symbol,
					string(tx.EffectiveType()),
					strconv.Itoa(tx.Lots),
					tx.Price.String(),
					humanize.Comma(value.IntPart()),
					shortID(tx.ID),
				})
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&remove, "delete", "", "delete the transaction with this ID")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 && !verbose {
		return id[:8]
	}
	return id
}

func settingsCmd() *cobra.Command {
	var (
		capital    float64
		maxAlloc   float64
		risk       string
		takeProfit float64
		stopLoss   float64
	)

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or update capital and risk settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := current.store.Settings()
			changed := false

			if cmd.Flags().Changed("capital") {
				s.TotalCapital = capital
				changed = true
			}
			if cmd.Flags().Changed("max-alloc") {
				s.MaxAllocationPerStock = maxAlloc
				changed = true
			}
			if cmd.Flags().Changed("risk") {
				s.RiskTolerance = model.RiskTolerance(strings.ToUpper(risk))
				changed = true
			}
			if cmd.Flags().Changed("take-profit") {
				s.TakeProfitTarget = takeProfit
				changed = true
			}
			if cmd.Flags().Changed("stop-loss") {
				s.StopLossTarget = stopLoss
				changed = true
			}

			if changed {
				if err := current.store.SaveSettings(s); err != nil {
					return err
				}
			}

			if format == "json" {
				return outputJSON(s)
			}
			if changed {
				fmt.Println("Settings saved.")
			}
			fmt.Printf("Total capital:     Rp %s\n", humanize.Comma(int64(s.TotalCapital)))
			fmt.Printf("Max per stock:     %.1f%%\n", s.MaxAllocationPerStock)
			fmt.Printf("Risk tolerance:    %s\n", s.RiskTolerance)
			fmt.Printf("Take-profit:       %.1f%%\n", s.TakeProfitTarget)
			fmt.Printf("Stop-loss:         %.1f%%\n", s.StopLossTarget)
			return nil
		},
	}

	cmd.Flags().Float64Var(&capital, "capital", 0, "total capital in rupiah")
	cmd.Flags().Float64Var(&maxAlloc, "max-alloc", 0, "max allocation per stock, percent")
	cmd.Flags().StringVar(&risk, "risk", "", "risk tolerance: conservative, moderate, aggressive")
	cmd.Flags().Float64Var(&takeProfit, "take-profit", 0, "take-profit target, percent")
	cmd.Flags().Float64Var(&stopLoss, "stop-loss", 0, "stop-loss target, percent")
	return cmd
}

func exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export FILE",
		Short: "Export transactions and settings to a JSON backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := current.store.Export(args[0]); err != nil {
				return err
			}
			fmt.Printf("Exported %d transactions to %s\n", len(current.store.Transactions()), args[0])
			return nil
		},
	}
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Replace transactions and settings with a JSON backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := current.store.Import(args[0]); err != nil {
				if errors.Is(err, store.ErrInvalidBackup) {
					return fmt.Errorf("%w (existing data was kept)", err)
				}
				return fmt.Errorf("importing %s: %w", args[0], err)
			}
			fmt.Printf("Imported %d transactions from %s\n", len(current.store.Transactions()), args[0])
			return nil
		},
	}
}
