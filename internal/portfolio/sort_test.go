package portfolio

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stockroomapp/stockroom_bot/internal/model"
)

func sortFixture() []model.StockItem {
	return []model.StockItem{
		{
			Properties: model.StockProperties{Symbol: "MSFT", GroupColor: 0x0000ff, AnnualDividendRate: -1},
			Quote:      model.Quote{Symbol: "MSFT", Name: "Microsoft", Price: 300, ChangePercent: -0.5, MarketCap: 2.2e12},
			Lots:       []model.Lot{{Quantity: 2, Price: 200, Date: 300}},
		},
		{
			Properties: model.StockProperties{Symbol: "AAPL", GroupColor: 0xff0000, Marker: 1, AnnualDividendRate: -1},
			Quote:      model.Quote{Symbol: "AAPL", Name: "Apple Inc.", Price: 150, ChangePercent: 1.2, MarketCap: 2.5e12},
			Lots:       []model.Lot{{Quantity: 10, Price: 100, Date: 100}},
		},
		{
			Properties: model.StockProperties{Symbol: "TSLA", AnnualDividendRate: -1},
			Quote:      model.Quote{Symbol: "TSLA", Name: "Tesla", Price: 200, ChangePercent: 3.4, MarketCap: 0.7e12},
			Lots:       []model.Lot{{Quantity: 1, Price: 250, Date: 200}},
		},
	}
}

func symbolsOf(items []model.StockItem) []string {
	return snapshotSymbols(items)
}

func TestSortByName(t *testing.T) {
	items := sortFixture()
	Sort(items, SortByName)
	assert.Equal(t, []string{"AAPL", "MSFT", "TSLA"}, symbolsOf(items))
}

func TestSortByChangePercentDesc(t *testing.T) {
	items := sortFixture()
	Sort(items, SortByChangePercentDesc)
	assert.Equal(t, []string{"TSLA", "AAPL", "MSFT"}, symbolsOf(items))
}

func TestSortByAssetValueDesc(t *testing.T) {
	items := sortFixture()
	Sort(items, SortByAssetValueDesc)
	// AAPL 1500, MSFT 600, TSLA 200
	assert.Equal(t, []string{"AAPL", "MSFT", "TSLA"}, symbolsOf(items))
}

func TestSortByProfitDesc(t *testing.T) {
	items := sortFixture()
	Sort(items, SortByProfitDesc)
	// AAPL +500, MSFT +200, TSLA -50
	assert.Equal(t, []string{"AAPL", "MSFT", "TSLA"}, symbolsOf(items))
}

func TestSortByMarketCapDesc(t *testing.T) {
	items := sortFixture()
	Sort(items, SortByMarketCapDesc)
	assert.Equal(t, []string{"AAPL", "MSFT", "TSLA"}, symbolsOf(items))
}

func TestSortByGroupHueThenName(t *testing.T) {
	items := sortFixture()
	Sort(items, SortByGroup)
	// red (0°) before blue (240°); ungrouped last
	assert.Equal(t, []string{"AAPL", "MSFT", "TSLA"}, symbolsOf(items))
}

func TestSortByMarkerThenName(t *testing.T) {
	items := sortFixture()
	Sort(items, SortByMarker)
	assert.Equal(t, []string{"AAPL", "MSFT", "TSLA"}, symbolsOf(items))
}

func TestSortByActivityDesc(t *testing.T) {
	items := sortFixture()
	Sort(items, SortByActivityDesc)
	assert.Equal(t, []string{"MSFT", "TSLA", "AAPL"}, symbolsOf(items))
}

func TestSortUnsortedKeepsOrder(t *testing.T) {
	items := sortFixture()
	Sort(items, SortUnsorted)
	assert.Equal(t, []string{"MSFT", "AAPL", "TSLA"}, symbolsOf(items))
}

func TestSortModeSelectionIdempotent(t *testing.T) {
	items := sortFixture()
	Sort(items, SortByChangePercentDesc)
	want := symbolsOf(items)
	Sort(items, SortByName)
	Sort(items, SortByChangePercentDesc)
	assert.Equal(t, want, symbolsOf(items))
}
