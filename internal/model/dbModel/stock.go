package dbModel

import "database/sql"

type StockProperties struct {
	Symbol             string  `db:"symbol"`
	Portfolio          string  `db:"portfolio"`
	Data               string  `db:"data"`
	GroupColor         int     `db:"group_color"`
	Marker             int     `db:"marker"`
	Notes              string  `db:"notes"`
	DividendNotes      string  `db:"dividend_notes"`
	AnnualDividendRate float64 `db:"annual_dividend_rate"`
	AlertAbove         float64 `db:"alert_above"`
	AlertAboveNote     string  `db:"alert_above_note"`
	AlertBelow         float64 `db:"alert_below"`
	AlertBelowNote     string  `db:"alert_below_note"`
}

type Lot struct {
	ID       int64   `db:"lot_id"`
	Symbol   string  `db:"symbol"`
	Quantity float64 `db:"quantity"`
	Price    float64 `db:"price"`
	Fee      float64 `db:"fee"`
	Date     int64   `db:"date"`
	Account  string  `db:"account"`
	Note     string  `db:"note"`
	Type     int     `db:"type"`
}

type Event struct {
	ID       int64  `db:"event_id"`
	Symbol   string `db:"symbol"`
	Type     int    `db:"type"`
	Title    string `db:"title"`
	Note     string `db:"note"`
	Datetime int64  `db:"datetime"`
}

type Dividend struct {
	ID      int64   `db:"dividend_id"`
	Symbol  string  `db:"symbol"`
	Amount  float64 `db:"amount"`
	Type    int     `db:"type"`
	Cycle   int     `db:"cycle"`
	Paydate int64   `db:"paydate"`
	Exdate  int64   `db:"exdate"`
	Account string  `db:"account"`
	Note    string  `db:"note"`
}

type Group struct {
	Color int    `db:"color"`
	Name  string `db:"name"`
}

// LotJoined is a properties row left-joined with one lot row; lot columns are
// nullable because symbols without lots still come back from the join.
type LotJoined struct {
	StockProperties
	LotID    sql.NullInt64   `db:"lot_id"`
	Quantity sql.NullFloat64 `db:"lot_quantity"`
	Price    sql.NullFloat64 `db:"lot_price"`
	Fee      sql.NullFloat64 `db:"lot_fee"`
	Date     sql.NullInt64   `db:"lot_date"`
	Account  sql.NullString  `db:"lot_account"`
	Note     sql.NullString  `db:"lot_note"`
	Type     sql.NullInt64   `db:"lot_type"`
}

type EventJoined struct {
	StockProperties
	EventID  sql.NullInt64  `db:"event_id"`
	Type     sql.NullInt64  `db:"event_type"`
	Title    sql.NullString `db:"event_title"`
	Note     sql.NullString `db:"event_note"`
	Datetime sql.NullInt64  `db:"event_datetime"`
}

type DividendJoined struct {
	StockProperties
	DividendID sql.NullInt64   `db:"dividend_id"`
	Amount     sql.NullFloat64 `db:"dividend_amount"`
	Type       sql.NullInt64   `db:"dividend_type"`
	Cycle      sql.NullInt64   `db:"dividend_cycle"`
	Paydate    sql.NullInt64   `db:"dividend_paydate"`
	Exdate     sql.NullInt64   `db:"dividend_exdate"`
	Account    sql.NullString  `db:"dividend_account"`
	Note       sql.NullString  `db:"dividend_note"`
}
