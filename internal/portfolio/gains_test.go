package portfolio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockroomapp/stockroom_bot/internal/model"
)

func day(n int) int64 {
	return time.Date(2024, 1, n, 0, 0, 0, 0, time.UTC).Unix()
}

func TestCapitalGainsSimpleFifo(t *testing.T) {
	// buy 10@$5, sell 4@$8 -> gain 4*(8-5) = 12, 6@$5 stay open
	years := CapitalGains([]model.Lot{
		{Quantity: 10, Price: 5, Date: day(1)},
		{Quantity: -4, Price: 8, Date: day(2)},
	})
	require.Len(t, years, 1)
	y := years[2024]
	assert.InDelta(t, 12, y.Gain, 1e-9)
	assert.InDelta(t, 0, y.Loss, 1e-9)
	assert.Equal(t, time.Unix(day(2), 0).UTC(), y.LastTransaction)
}

func TestCapitalGainsSellSpansMultipleBuys(t *testing.T) {
	years := CapitalGains([]model.Lot{
		{Quantity: 5, Price: 10, Date: day(1)},
		{Quantity: 5, Price: 20, Date: day(2)},
		{Quantity: -8, Price: 15, Date: day(3)},
	})
	// oldest first: 5*(15-10) = +25, then 3*(15-20) = -15
	y := years[2024]
	assert.InDelta(t, 25, y.Gain, 1e-9)
	assert.InDelta(t, 15, y.Loss, 1e-9)
	assert.InDelta(t, 10, TotalGainLoss(years).Net(), 1e-9)
}

func TestCapitalGainsNotNettedPerLot(t *testing.T) {
	// gains and losses accumulate separately and net only at the top
	years := CapitalGains([]model.Lot{
		{Quantity: 1, Price: 10, Date: day(1)},
		{Quantity: 1, Price: 30, Date: day(2)},
		{Quantity: -1, Price: 20, Date: day(3)},
		{Quantity: -1, Price: 20, Date: day(4)},
	})
	total := TotalGainLoss(years)
	assert.InDelta(t, 10, total.Gain, 1e-9)
	assert.InDelta(t, 10, total.Loss, 1e-9)
	assert.InDelta(t, 0, total.Net(), 1e-9)
}

func TestCapitalGainsPerYearSplit(t *testing.T) {
	years := CapitalGains([]model.Lot{
		{Quantity: 10, Price: 5, Date: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC).Unix()},
		{Quantity: -5, Price: 8, Date: time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC).Unix()},
		{Quantity: -5, Price: 4, Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC).Unix()},
	})
	require.Len(t, years, 2)
	assert.InDelta(t, 15, years[2023].Gain, 1e-9)
	assert.InDelta(t, 5, years[2024].Loss, 1e-9)
}

func TestCapitalGainsFees(t *testing.T) {
	// buy fee is pro-rated over matched quantity, sell fee counts in full
	years := CapitalGains([]model.Lot{
		{Quantity: 10, Price: 5, Fee: 10, Date: day(1)},
		{Quantity: -4, Price: 8, Fee: 2, Date: day(2)},
	})
	y := years[2024]
	// 4*(8-5-1) = 8 gain, sell fee 2 as loss
	assert.InDelta(t, 8, y.Gain, 1e-9)
	assert.InDelta(t, 2, y.Loss, 1e-9)
}

func TestCapitalGainsZeroPriceLot(t *testing.T) {
	// price 0 is a valid zero-cost lot (mined/gifted), not missing data
	years := CapitalGains([]model.Lot{
		{Quantity: 2, Price: 0, Date: day(1)},
		{Quantity: -2, Price: 50, Date: day(2)},
	})
	assert.InDelta(t, 100, years[2024].Gain, 1e-9)
}

func TestCapitalGainsSkipsTransferLots(t *testing.T) {
	years := CapitalGains([]model.Lot{
		{Quantity: 10, Price: 5, Date: day(1), Type: model.LotMarkTransfer},
		{Quantity: -4, Price: 8, Date: day(2), Type: model.LotMarkTransfer},
	})
	assert.Empty(t, years)
}

func TestCapitalGainsCountObsoleteLots(t *testing.T) {
	// the obsolete bit marks a closed chain for display; realized results
	// stay the same with and without it
	lots := []model.Lot{
		{ID: 1, Quantity: 10, Price: 5, Date: day(1)},
		{ID: 2, Quantity: -10, Price: 8, Date: day(2)},
	}
	before := TotalGainLoss(CapitalGains(lots))
	assert.InDelta(t, 30, before.Gain, 1e-9)

	changed := TagObsoleteLots(lots)
	require.Len(t, changed, 2)
	after := TotalGainLoss(CapitalGains(lots))
	assert.InDelta(t, before.Gain, after.Gain, 1e-9)
	assert.InDelta(t, before.Loss, after.Loss, 1e-9)
}

func TestCapitalGainsOrderIndependentOnTies(t *testing.T) {
	a := CapitalGains([]model.Lot{
		{Quantity: 5, Price: 10, Date: day(1)},
		{Quantity: 5, Price: 10, Date: day(1)},
		{Quantity: -6, Price: 12, Date: day(2)},
	})
	b := CapitalGains([]model.Lot{
		{Quantity: 5, Price: 10, Date: day(1)}, // same-day equal-price buys swapped
		{Quantity: 5, Price: 10, Date: day(1)},
		{Quantity: -6, Price: 12, Date: day(2)},
	})
	assert.InDelta(t, a[2024].Gain, b[2024].Gain, 1e-9)
	assert.InDelta(t, a[2024].Loss, b[2024].Loss, 1e-9)
}

func TestTagObsoleteLotsClosedChain(t *testing.T) {
	lots := []model.Lot{
		{ID: 1, Quantity: 10, Price: 5, Date: day(1)},
		{ID: 2, Quantity: -10, Price: 8, Date: day(2)},
		{ID: 3, Quantity: 4, Price: 9, Date: day(3)},
	}
	changed := TagObsoleteLots(lots)
	require.Len(t, changed, 2)
	assert.NotZero(t, lots[0].Type&model.LotMarkObsolete)
	assert.NotZero(t, lots[1].Type&model.LotMarkObsolete)
	assert.Zero(t, lots[2].Type&model.LotMarkObsolete)
}

func TestTagObsoleteLotsOpenPositionUntouched(t *testing.T) {
	lots := []model.Lot{
		{ID: 1, Quantity: 10, Price: 5, Date: day(1)},
		{ID: 2, Quantity: -4, Price: 8, Date: day(2)},
	}
	changed := TagObsoleteLots(lots)
	assert.Empty(t, changed)
}
