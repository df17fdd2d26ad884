package portfolio

import (
	"math"
	"sort"
	"time"

	"github.com/stockroomapp/stockroom_bot/internal/model"
)

// quantityEpsilon absorbs float drift when deciding whether a position or a
// matched lot is fully consumed.
const quantityEpsilon = 0.0001

// YearGain is the realized result of one calendar year. Gains and losses are
// accumulated separately; netting happens once at the top when a headline
// figure is needed, never per matched pair.
type YearGain struct {
	Gain            float64
	Loss            float64
	LastTransaction time.Time
}

// GainLoss is the merged headline pair over all years.
type GainLoss struct {
	Gain float64
	Loss float64
}

// Net returns the single netted figure for display.
func (g GainLoss) Net() float64 {
	return g.Gain - g.Loss
}

type openLot struct {
	quantity float64
	price    float64
	feePerSh float64
}

// CapitalGains computes the realized gain/loss of a lot history using FIFO
// matching: each sell consumes the oldest unmatched buys first. Only
// transfer-tagged lots are skipped; the obsolete bit is a display marker for
// closed chains and must not change realized results. Buy fees are pro-rated
// over the matched quantity; a sell's fee counts wholly against its own sale.
// Unmatched buy quantity is the open position and contributes nothing here.
// A zero price is a valid zero-cost lot, not missing data.
func CapitalGains(lots []model.Lot) map[int]YearGain {
	ordered := make([]model.Lot, 0, len(lots))
	for _, lot := range lots {
		if lot.Type&model.LotMarkTransfer == 0 {
			ordered = append(ordered, lot)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Date < ordered[j].Date })

	years := make(map[int]YearGain)
	var open []openLot
	k := 0 // first open lot with remaining quantity

	for _, lot := range ordered {
		if lot.Quantity > quantityEpsilon {
			feePerSh := 0.0
			if lot.Quantity > 0 {
				feePerSh = lot.Fee / lot.Quantity
			}
			open = append(open, openLot{quantity: lot.Quantity, price: lot.Price, feePerSh: feePerSh})
			continue
		}
		if lot.Quantity >= -quantityEpsilon {
			continue
		}

		toSell := -lot.Quantity
		var gain, loss float64
		for toSell > quantityEpsilon && k < len(open) {
			matched := math.Min(toSell, open[k].quantity)
			delta := matched * (lot.Price - open[k].price - open[k].feePerSh)
			if delta >= 0 {
				gain += delta
			} else {
				loss -= delta
			}
			open[k].quantity -= matched
			toSell -= matched
			if open[k].quantity <= quantityEpsilon {
				k++
			}
		}
		if lot.Fee != 0 {
			loss += lot.Fee
		}

		when := time.Unix(lot.Date, 0).UTC()
		year := when.Year()
		entry := years[year]
		entry.Gain += gain
		entry.Loss += loss
		if when.After(entry.LastTransaction) {
			entry.LastTransaction = when
		}
		years[year] = entry
	}
	return years
}

// TotalGainLoss rolls the per-year results into the headline pair.
func TotalGainLoss(years map[int]YearGain) GainLoss {
	var total GainLoss
	for _, y := range years {
		total.Gain += y.Gain
		total.Loss += y.Loss
	}
	return total
}

// TagObsoleteLots marks every lot of a fully closed buy/sell chain with the
// obsolete bit. Walking the history in date order, each point where the
// running quantity returns to zero closes a chain: everything up to that
// point is obsolete and a later purchase starts a fresh position. Returns
// the lots whose tag changed, for persisting.
func TagObsoleteLots(lots []model.Lot) []model.Lot {
	ordered := make([]*model.Lot, 0, len(lots))
	for i := range lots {
		if lots[i].Type&model.LotMarkTransfer == 0 {
			ordered = append(ordered, &lots[i])
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Date < ordered[j].Date })

	var changed []model.Lot
	running := 0.0
	chainStart := 0
	for i, lot := range ordered {
		running += lot.Quantity
		if math.Abs(running) < quantityEpsilon {
			for j := chainStart; j <= i; j++ {
				if ordered[j].Type&model.LotMarkObsolete == 0 {
					ordered[j].Type |= model.LotMarkObsolete
					changed = append(changed, *ordered[j])
				}
			}
			running = 0
			chainStart = i + 1
		}
	}
	// lots ahead of the last closed chain form the open position; clear a
	// stale obsolete bit if one got there by an undone sell
	for j := chainStart; j < len(ordered); j++ {
		if ordered[j].Type&model.LotMarkObsolete != 0 {
			ordered[j].Type &^= model.LotMarkObsolete
			changed = append(changed, *ordered[j])
		}
	}
	return changed
}
