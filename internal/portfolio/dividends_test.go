package portfolio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockroomapp/stockroom_bot/internal/model"
)

func TestSummarizeDividendsPerYearPerAccount(t *testing.T) {
	paydate := func(year int) int64 {
		return time.Date(year, 3, 15, 0, 0, 0, 0, time.UTC).Unix()
	}
	summary := SummarizeDividends([]model.DividendRecord{
		{Amount: 10, Account: "A", Paydate: paydate(2024)},
		{Amount: 15, Account: "A", Paydate: paydate(2024)},
		{Amount: 7, Account: "B", Paydate: paydate(2024)},
		{Amount: 5, Account: "A", Paydate: paydate(2023)},
		{Amount: 99, Account: "A", Paydate: paydate(2024), Type: model.DividendAnnounced},
	})
	require.Contains(t, summary.ReceivedByYear, 2024)
	assert.Equal(t, "25", summary.ReceivedByYear[2024]["A"].String())
	assert.Equal(t, "7", summary.ReceivedByYear[2024]["B"].String())
	assert.Equal(t, "5", summary.ReceivedByYear[2023]["A"].String())
	assert.Equal(t, "37", summary.TotalReceived.String())
	assert.Equal(t, "99", summary.Announced.String())
}

func TestProjectedAnnualDividendPrefersOverride(t *testing.T) {
	item := model.StockItem{
		Properties: model.StockProperties{Symbol: "T", AnnualDividendRate: 1.11},
		Quote:      model.Quote{AnnualDividendRate: 2.22},
		Lots:       []model.Lot{{Quantity: 100, Price: 20}},
	}
	assert.InDelta(t, 111, ProjectedAnnualDividend(item), 1e-9)

	item.Properties.AnnualDividendRate = -1 // unset, quote rate applies
	assert.InDelta(t, 222, ProjectedAnnualDividend(item), 1e-9)
}

func TestProjectedAnnualDividendNoPosition(t *testing.T) {
	item := model.StockItem{
		Properties: model.StockProperties{AnnualDividendRate: -1},
		Quote:      model.Quote{AnnualDividendRate: 2},
	}
	assert.Zero(t, ProjectedAnnualDividend(item))
}

func TestUpcomingPaymentsSortedAndFiltered(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	records := []model.DividendRecord{
		{ID: 1, Amount: 5, Type: model.DividendAnnounced, Paydate: now.AddDate(0, 2, 0).Unix()},
		{ID: 2, Amount: 5, Type: model.DividendAnnounced, Paydate: now.AddDate(0, 1, 0).Unix()},
		{ID: 3, Amount: 5, Type: model.DividendAnnounced, Paydate: now.AddDate(0, -1, 0).Unix()},
		{ID: 4, Amount: 5, Type: model.DividendReceived, Paydate: now.AddDate(0, 3, 0).Unix()},
	}
	upcoming := UpcomingPayments(records, now)
	require.Len(t, upcoming, 2)
	assert.Equal(t, int64(2), upcoming[0].ID)
	assert.Equal(t, int64(1), upcoming[1].ID)
}
