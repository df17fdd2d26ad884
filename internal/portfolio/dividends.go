package portfolio

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stockroomapp/stockroom_bot/internal/model"
)

// DividendSummary aggregates received dividend payments per year and per
// account. Announced (not yet paid) records are kept out of the received
// totals and reported separately.
type DividendSummary struct {
	// ReceivedByYear maps year -> account -> summed amount.
	ReceivedByYear map[int]map[string]decimal.Decimal
	TotalReceived  decimal.Decimal
	Announced      decimal.Decimal
}

// SummarizeDividends folds a dividend history into per-year, per-account
// totals. Sums run on decimals so long histories do not drift.
func SummarizeDividends(dividends []model.DividendRecord) DividendSummary {
	summary := DividendSummary{ReceivedByYear: make(map[int]map[string]decimal.Decimal)}
	for _, d := range dividends {
		amount := decimal.NewFromFloat(d.Amount)
		if d.Type == model.DividendAnnounced {
			summary.Announced = summary.Announced.Add(amount)
			continue
		}
		year := time.Unix(d.Paydate, 0).UTC().Year()
		accounts, ok := summary.ReceivedByYear[year]
		if !ok {
			accounts = make(map[string]decimal.Decimal)
			summary.ReceivedByYear[year] = accounts
		}
		accounts[d.Account] = accounts[d.Account].Add(amount)
		summary.TotalReceived = summary.TotalReceived.Add(amount)
	}
	return summary
}

// ProjectedAnnualDividend is the expected yearly payout of the open position:
// annual rate per share times open quantity. The user override on the
// properties wins over the quote's rate.
func ProjectedAnnualDividend(item model.StockItem) float64 {
	rate := item.Quote.AnnualDividendRate
	if item.Properties.AnnualDividendRate >= 0 {
		rate = item.Properties.AnnualDividendRate
	}
	quantity := TotalQuantity(item)
	if rate <= 0 || quantity <= 0 {
		return 0
	}
	return rate * quantity
}

// UpcomingPayments lists announced dividends with a paydate at or after now,
// oldest first.
func UpcomingPayments(dividends []model.DividendRecord, now time.Time) []model.DividendRecord {
	var upcoming []model.DividendRecord
	cutoff := now.Unix()
	for _, d := range dividends {
		if d.Type == model.DividendAnnounced && d.Paydate >= cutoff {
			upcoming = append(upcoming, d)
		}
	}
	sort.SliceStable(upcoming, func(i, j int) bool { return upcoming[i].Paydate < upcoming[j].Paydate })
	return upcoming
}
