package model

import "time"

// Lot type bits. A lot can carry several marks at once.
const (
	LotMarkObsolete = 0x0001
	LotMarkTransfer = 0x0002
)

// Dividend record types.
const (
	DividendReceived  = 0
	DividendAnnounced = 1
)

// Dividend cycle is the number of payments per year.
const (
	DividendCycleMonthly    = 12
	DividendCycleQuarterly  = 4
	DividendCycleSemiAnnual = 2
	DividendCycleAnnual     = 1
)

// StockProperties is the per-symbol metadata row. The properties table is the
// authoritative existence source: a symbol lives in the merged view iff it has
// a properties row.
type StockProperties struct {
	Symbol             string
	Portfolio          string
	Data               string
	GroupColor         int
	Marker             int
	Notes              string
	DividendNotes      string
	AnnualDividendRate float64 // negative means unset, quoted rate applies
	AlertAbove         float64
	AlertAboveNote     string
	AlertBelow         float64
	AlertBelowNote     string
}

// Lot is a single buy (positive quantity) or sell (negative quantity)
// transaction. Updates are delete-old/insert-new, never in place.
type Lot struct {
	ID       int64
	Symbol   string
	Quantity float64
	Price    float64
	Fee      float64
	Date     int64
	Account  string
	Note     string
	Type     int
}

type Event struct {
	ID       int64
	Symbol   string
	Type     int
	Title    string
	Note     string
	Datetime int64
}

func (e Event) Due(now time.Time) bool {
	return e.Datetime <= now.Unix()
}

type DividendRecord struct {
	ID      int64
	Symbol  string
	Amount  float64
	Type    int
	Cycle   int
	Paydate int64
	Exdate  int64
	Account string
	Note    string
}

type Group struct {
	Color int
	Name  string
}

// StockItem is the unit of the merged view: exactly one per symbol.
type StockItem struct {
	Properties StockProperties
	Quote      Quote
	Lots       []Lot
	Events     []Event
	Dividends  []DividendRecord
}

// SymbolLots couples a properties row with its lots, as returned by the
// repository in one joined read.
type SymbolLots struct {
	Properties StockProperties
	Lots       []Lot
}

type SymbolEvents struct {
	Properties StockProperties
	Events     []Event
}

type SymbolDividends struct {
	Properties StockProperties
	Dividends  []DividendRecord
}

// Alert is a triggered price alert ready for delivery.
type Alert struct {
	Symbol     string
	Name       string
	AlertAbove float64
	AlertBelow float64
	Note       string
	Price      float64
}
