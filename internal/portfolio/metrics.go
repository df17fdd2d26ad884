package portfolio

import (
	"sort"
	"time"

	"github.com/stockroomapp/stockroom_bot/internal/model"
)

// Metric helpers over a single merged entry. Obsolete and transfer-tagged
// lots carry no weight in position math but stay on the item for display.

func countableLot(lot model.Lot) bool {
	return lot.Type&(model.LotMarkObsolete|model.LotMarkTransfer) == 0
}

// TotalQuantity is the net open quantity over all countable lots.
func TotalQuantity(item model.StockItem) float64 {
	var total float64
	for _, lot := range item.Lots {
		if countableLot(lot) {
			total += lot.Quantity
		}
	}
	return total
}

// PurchasePrice is the total cost basis (price×quantity + fee) of countable
// buy lots.
func PurchasePrice(item model.StockItem) float64 {
	var total float64
	for _, lot := range item.Lots {
		if countableLot(lot) && lot.Quantity > 0 {
			total += lot.Quantity*lot.Price + lot.Fee
		}
	}
	return total
}

// AssetValue is the current market value of the open position.
func AssetValue(item model.StockItem) float64 {
	return TotalQuantity(item) * item.Quote.Price
}

// Profit is the unrealized gain of the open position against its cost basis.
// Without a quote the profit is zero rather than a full loss.
func Profit(item model.StockItem) float64 {
	if item.Quote.Price == 0 {
		return 0
	}
	quantity := TotalQuantity(item)
	if quantity <= 0 {
		return 0
	}
	var cost float64
	for _, lot := range item.Lots {
		if countableLot(lot) && lot.Quantity > 0 {
			cost += lot.Quantity*lot.Price + lot.Fee
		}
	}
	for _, lot := range item.Lots {
		if countableLot(lot) && lot.Quantity < 0 {
			cost += lot.Quantity * lot.Price
		}
	}
	return quantity*item.Quote.Price - cost
}

// ProfitPercent is Profit relative to the open cost basis.
func ProfitPercent(item model.StockItem) float64 {
	cost := PurchasePrice(item)
	if cost == 0 {
		return 0
	}
	return Profit(item) / cost * 100
}

// DividendYield prefers the user override; falls back to the quote, then 0.
func DividendYield(item model.StockItem) float64 {
	if item.Properties.AnnualDividendRate >= 0 {
		if item.Quote.Price > 0 {
			return item.Properties.AnnualDividendRate / item.Quote.Price * 100
		}
		return 0
	}
	return item.Quote.AnnualDividendYld
}

// LastActivity is the most recent lot, event or dividend timestamp.
func LastActivity(item model.StockItem) time.Time {
	var latest int64
	for _, lot := range item.Lots {
		if lot.Date > latest {
			latest = lot.Date
		}
	}
	for _, ev := range item.Events {
		if ev.Datetime > latest {
			latest = ev.Datetime
		}
	}
	for _, d := range item.Dividends {
		if d.Paydate > latest {
			latest = d.Paydate
		}
	}
	if latest == 0 {
		return time.Time{}
	}
	return time.Unix(latest, 0).UTC()
}

// FirstPurchase is the oldest countable buy lot timestamp.
func FirstPurchase(item model.StockItem) time.Time {
	var earliest int64
	for _, lot := range item.Lots {
		if countableLot(lot) && lot.Quantity > 0 && (earliest == 0 || lot.Date < earliest) {
			earliest = lot.Date
		}
	}
	if earliest == 0 {
		return time.Time{}
	}
	return time.Unix(earliest, 0).UTC()
}

// AccountSubtotal aggregates the open positions held in one brokerage
// account. Lots without an account land under the empty name.
type AccountSubtotal struct {
	Account  string
	Symbols  int
	Quantity float64
	Cost     float64
	Value    float64
	Profit   float64
}

// AccountSubtotals groups countable lots by account across the given entries,
// ordered by account name with the unnamed account first. Value and profit
// are zero for symbols without a quote.
func AccountSubtotals(items []model.StockItem) []AccountSubtotal {
	index := make(map[string]*AccountSubtotal)
	for _, item := range items {
		seen := make(map[string]bool)
		for _, lot := range item.Lots {
			if !countableLot(lot) {
				continue
			}
			sub, ok := index[lot.Account]
			if !ok {
				sub = &AccountSubtotal{Account: lot.Account}
				index[lot.Account] = sub
			}
			if !seen[lot.Account] {
				sub.Symbols++
				seen[lot.Account] = true
			}
			sub.Quantity += lot.Quantity
			if lot.Quantity > 0 {
				sub.Cost += lot.Quantity*lot.Price + lot.Fee
			} else {
				sub.Cost += lot.Quantity * lot.Price
			}
			if item.Quote.Price > 0 {
				value := lot.Quantity * item.Quote.Price
				sub.Value += value
				if lot.Quantity > 0 {
					sub.Profit += value - lot.Quantity*lot.Price - lot.Fee
				} else {
					sub.Profit += value - lot.Quantity*lot.Price
				}
			}
		}
	}

	subtotals := make([]AccountSubtotal, 0, len(index))
	for _, sub := range index {
		subtotals = append(subtotals, *sub)
	}
	sort.Slice(subtotals, func(i, j int) bool {
		return subtotals[i].Account < subtotals[j].Account
	})
	return subtotals
}

// DisplayName falls back to the symbol when no quote supplied a long name.
func DisplayName(item model.StockItem) string {
	if item.Quote.Name != "" {
		return item.Quote.Name
	}
	return item.Properties.Symbol
}
