package portfolio

import (
	"math"
	"sort"
	"strings"

	"github.com/stockroomapp/stockroom_bot/internal/model"
)

// SortMode selects one of the fixed total orderings. The numeric values are
// persisted in settings, so they must stay stable.
type SortMode int

const (
	SortUnsorted SortMode = iota
	SortByName
	SortBySymbol
	SortByChangePercentDesc
	SortByPurchasePriceDesc
	SortByAssetValueDesc
	SortByProfitDesc
	SortByProfitPercentDesc
	SortByMarketCapDesc
	SortByDividendYieldDesc
	SortByGroup
	SortByMarker
	SortByActivityDesc
)

func (m SortMode) String() string {
	switch m {
	case SortByName:
		return "name"
	case SortBySymbol:
		return "symbol"
	case SortByChangePercentDesc:
		return "change %"
	case SortByPurchasePriceDesc:
		return "purchase price"
	case SortByAssetValueDesc:
		return "asset value"
	case SortByProfitDesc:
		return "profit"
	case SortByProfitPercentDesc:
		return "profit %"
	case SortByMarketCapDesc:
		return "market cap"
	case SortByDividendYieldDesc:
		return "dividend yield"
	case SortByGroup:
		return "group"
	case SortByMarker:
		return "marker"
	case SortByActivityDesc:
		return "recent activity"
	default:
		return "unsorted"
	}
}

// Sort orders a snapshot in place by the given mode. The sort is stable, so
// ties keep their incoming relative order, and re-selecting the same mode is
// idempotent.
func Sort(items []model.StockItem, mode SortMode) {
	var less func(a, b model.StockItem) bool
	switch mode {
	case SortByName:
		less = func(a, b model.StockItem) bool {
			return strings.ToLower(DisplayName(a)) < strings.ToLower(DisplayName(b))
		}
	case SortBySymbol:
		less = func(a, b model.StockItem) bool {
			return a.Properties.Symbol < b.Properties.Symbol
		}
	case SortByChangePercentDesc:
		less = descend(func(i model.StockItem) float64 { return i.Quote.ChangePercent })
	case SortByPurchasePriceDesc:
		less = descend(PurchasePrice)
	case SortByAssetValueDesc:
		less = descend(AssetValue)
	case SortByProfitDesc:
		less = descend(Profit)
	case SortByProfitPercentDesc:
		less = descend(ProfitPercent)
	case SortByMarketCapDesc:
		less = descend(func(i model.StockItem) float64 { return i.Quote.MarketCap })
	case SortByDividendYieldDesc:
		less = descend(DividendYield)
	case SortByGroup:
		less = func(a, b model.StockItem) bool {
			ha, hb := hue(a.Properties.GroupColor), hue(b.Properties.GroupColor)
			if ha != hb {
				return ha < hb
			}
			return strings.ToLower(DisplayName(a)) < strings.ToLower(DisplayName(b))
		}
	case SortByMarker:
		less = func(a, b model.StockItem) bool {
			ra, rb := markerRank(a.Properties.Marker), markerRank(b.Properties.Marker)
			if ra != rb {
				return ra < rb
			}
			return strings.ToLower(DisplayName(a)) < strings.ToLower(DisplayName(b))
		}
	case SortByActivityDesc:
		less = func(a, b model.StockItem) bool {
			return LastActivity(a).After(LastActivity(b))
		}
	default:
		return
	}
	sort.SliceStable(items, func(i, j int) bool { return less(items[i], items[j]) })
}

func descend(metric func(model.StockItem) float64) func(a, b model.StockItem) bool {
	return func(a, b model.StockItem) bool { return metric(a) > metric(b) }
}

// markerRank orders marked items first, by marker value, with the unmarked
// tail sorted by name among themselves.
func markerRank(marker int) int {
	if marker == 0 {
		return math.MaxInt32
	}
	return marker
}

// hue converts a 0xRRGGBB group color to its HSV hue in degrees so groups
// line up in rainbow order. Unassigned (0) sorts last.
func hue(color int) float64 {
	if color == 0 {
		return 361
	}
	r := float64((color>>16)&0xff) / 255
	g := float64((color>>8)&0xff) / 255
	b := float64(color&0xff) / 255
	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	if max == min {
		return 360 // grey, after all chromatic hues
	}
	var h float64
	switch max {
	case r:
		h = math.Mod((g-b)/(max-min), 6)
	case g:
		h = (b-r)/(max-min) + 2
	default:
		h = (r-g)/(max-min) + 4
	}
	h *= 60
	if h < 0 {
		h += 360
	}
	return h
}
