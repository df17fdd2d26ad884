package impexp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockroomapp/stockroom_bot/internal/model"
)

func TestParseJSONFullEntry(t *testing.T) {
	data := []byte(`[
		{
			"symbol": "aapl",
			"portfolio": "tech",
			"note": "core",
			"groupColor": 16711680,
			"groupName": "Red",
			"marker": 2,
			"annualDividendRate": 0.96,
			"alertAbove": 200,
			"assets": [
				{"quantity": 10, "price": 100, "fee": 1, "date": 1600000000, "account": "broker"},
				{"quantity": 5, "price": 120}
			],
			"events": [{"title": "earnings", "datetime": 1700000000}],
			"dividends": [{"amount": 2.5, "cycle": 4, "paydate": 1650000000, "account": "broker"}]
		}
	]`)
	result, err := ParseJSON(data, 100)
	require.NoError(t, err)
	require.Len(t, result.Stocks, 1)
	stock := result.Stocks[0]
	assert.Equal(t, "AAPL", stock.Properties.Symbol)
	assert.Equal(t, "tech", stock.Properties.Portfolio)
	assert.Equal(t, 0.96, stock.Properties.AnnualDividendRate)
	assert.Equal(t, 200.0, stock.Properties.AlertAbove)
	assert.Equal(t, "Red", stock.GroupName)
	assert.Len(t, stock.Lots, 2)
	assert.Len(t, stock.Events, 1)
	assert.Len(t, stock.Dividends, 1)
	assert.Zero(t, result.SkippedRows)
}

func TestParseJSONSkipsOnlyMalformedAsset(t *testing.T) {
	data := []byte(`[
		{
			"symbol": "AAPL",
			"assets": [
				{"quantity": 10, "price": 100},
				{"quantity": 5},
				{"quantity": 3, "price": 0}
			]
		}
	]`)
	result, err := ParseJSON(data, 100)
	require.NoError(t, err)
	require.Len(t, result.Stocks, 1)
	// the price-less asset is skipped; the zero-price one is a valid
	// zero-cost lot
	assert.Len(t, result.Stocks[0].Lots, 2)
	assert.Equal(t, 1, result.SkippedRows)
}

func TestParseJSONLegacyPositionHoldings(t *testing.T) {
	data := []byte(`[
		{"symbol": "MSFT", "position": {"holdings": [{"quantity": 4, "price": 50}]}}
	]`)
	result, err := ParseJSON(data, 100)
	require.NoError(t, err)
	require.Len(t, result.Stocks, 1)
	require.Len(t, result.Stocks[0].Lots, 1)
	assert.Equal(t, 4.0, result.Stocks[0].Lots[0].Quantity)
}

func TestParseJSONUnsetDividendRate(t *testing.T) {
	result, err := ParseJSON([]byte(`[{"symbol": "MSFT"}]`), 100)
	require.NoError(t, err)
	require.Len(t, result.Stocks, 1)
	assert.Equal(t, -1.0, result.Stocks[0].Properties.AnnualDividendRate)
}

func TestParseJSONSymbolLimit(t *testing.T) {
	_, err := ParseJSON([]byte(`[{"symbol": "A"}, {"symbol": "B"}]`), 1)
	assert.ErrorIs(t, err, ErrTooManySymbols)
}

func TestParseJSONInvalidSymbolSkipped(t *testing.T) {
	result, err := ParseJSON([]byte(`[{"symbol": "not a symbol!"}, {"symbol": "IBM"}]`), 100)
	require.NoError(t, err)
	require.Len(t, result.Stocks, 1)
	assert.Equal(t, "IBM", result.Stocks[0].Properties.Symbol)
	assert.Equal(t, 1, result.SkippedRows)
}

func TestParseCSVBrokerExport(t *testing.T) {
	data := []byte("Symbol,Shares,Cost Basis Per Share\nAAPL,10,\"$1,100.50\"\nMSFT,5,200\n")
	result, err := ParseCSV(data, 100)
	require.NoError(t, err)
	require.Len(t, result.Stocks, 2)
	require.Len(t, result.Stocks[0].Lots, 1)
	assert.Equal(t, 1100.50, result.Stocks[0].Lots[0].Price)
	assert.Equal(t, 10.0, result.Stocks[0].Lots[0].Quantity)
}

func TestParseCSVSkipsBadRowsAndContinues(t *testing.T) {
	data := []byte("Symbol,Quantity,Price\nAAPL,ten,100\nMSFT,5,200\n")
	result, err := ParseCSV(data, 100)
	require.NoError(t, err)
	// the AAPL row still registers the symbol; only the lot is skipped
	require.Len(t, result.Stocks, 2)
	assert.Empty(t, result.Stocks[0].Lots)
	require.Len(t, result.Stocks[1].Lots, 1)
	assert.Equal(t, 1, result.SkippedRows)
}

func TestParseCSVSymbolOnlyHeader(t *testing.T) {
	result, err := ParseCSV([]byte("Name\nAAPL\nAAPL\nMSFT\n"), 100)
	require.NoError(t, err)
	assert.Len(t, result.Stocks, 2)
}

func TestParseCSVNoSymbolColumn(t *testing.T) {
	_, err := ParseCSV([]byte("Foo,Bar\n1,2\n"), 100)
	assert.Error(t, err)
}

func TestParseTextDelimitersAndDedup(t *testing.T) {
	result, err := ParseText([]byte("AAPL, MSFT;tsla\nAAPL\tGOOG"), 100)
	require.NoError(t, err)
	require.Len(t, result.Stocks, 4)
	assert.Equal(t, "AAPL", result.Stocks[0].Properties.Symbol)
	assert.Equal(t, "TSLA", result.Stocks[2].Properties.Symbol)
}

func TestParseTextSymbolLimit(t *testing.T) {
	_, err := ParseText([]byte("A B C"), 2)
	assert.ErrorIs(t, err, ErrTooManySymbols)
}

func TestExportJSONRoundTrip(t *testing.T) {
	items := []model.StockItem{
		{
			Properties: model.StockProperties{
				Symbol: "AAPL", Portfolio: "tech", Notes: "core",
				GroupColor: 0xff0000, Marker: 1, AnnualDividendRate: 0.96,
			},
			Quote: model.Quote{Name: "Apple Inc."},
			Lots:  []model.Lot{{Symbol: "AAPL", Quantity: 10, Price: 100, Fee: 1, Date: 1600000000}},
			Dividends: []model.DividendRecord{
				{Symbol: "AAPL", Amount: 2.5, Cycle: model.DividendCycleQuarterly, Paydate: 1650000000},
			},
		},
	}
	data, err := ExportJSON(items, []model.Group{{Color: 0xff0000, Name: "Red"}})
	require.NoError(t, err)

	var entries []StockExport
	require.NoError(t, json.Unmarshal(data, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "Red", entries[0].GroupName)

	result, err := ParseJSON(data, 100)
	require.NoError(t, err)
	require.Len(t, result.Stocks, 1)
	assert.Equal(t, items[0].Properties, result.Stocks[0].Properties)
	require.Len(t, result.Stocks[0].Lots, 1)
	assert.Equal(t, items[0].Lots[0].Quantity, result.Stocks[0].Lots[0].Quantity)
}

func TestNormalizeSymbol(t *testing.T) {
	assert.Equal(t, "AAPL", NormalizeSymbol(" aapl "))
	assert.Equal(t, "BTC-USD", NormalizeSymbol("btc-usd"))
	assert.Equal(t, "^GSPC", NormalizeSymbol("^gspc"))
	assert.Equal(t, "", NormalizeSymbol("not a symbol!"))
	assert.Equal(t, "", NormalizeSymbol(""))
}
