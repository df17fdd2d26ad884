package portfolio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockroomapp/stockroom_bot/internal/model"
)

func props(symbol, portfolio string) model.StockProperties {
	return model.StockProperties{Symbol: symbol, Portfolio: portfolio, AnnualDividendRate: -1}
}

func snapshotSymbols(items []model.StockItem) []string {
	symbols := make([]string, 0, len(items))
	for _, it := range items {
		symbols = append(symbols, it.Properties.Symbol)
	}
	return symbols
}

func TestStoreApplyPropertiesIsAuthoritative(t *testing.T) {
	s := NewStore()
	s.ApplyProperties([]model.StockProperties{props("AAPL", ""), props("MSFT", "")})
	assert.ElementsMatch(t, []string{"AAPL", "MSFT"}, s.Symbols())

	// dropping a symbol from the authoritative list removes it
	s.ApplyProperties([]model.StockProperties{props("AAPL", "")})
	assert.ElementsMatch(t, []string{"AAPL"}, s.Symbols())
}

func TestStoreApplyPropertiesIdempotent(t *testing.T) {
	s := NewStore()
	rows := []model.StockProperties{props("AAPL", ""), props("TSLA", "")}
	s.ApplyProperties(rows)
	first := s.Snapshot()
	s.ApplyProperties(rows)
	second := s.Snapshot()
	assert.ElementsMatch(t, first, second)
}

func TestStorePortfolioPartition(t *testing.T) {
	s := NewStore()
	s.SetSelectedPortfolio("crypto")
	s.ApplyProperties([]model.StockProperties{
		props("AAPL", ""),
		props("BTC-USD", "crypto"),
	})
	assert.ElementsMatch(t, []string{"BTC-USD"}, s.Symbols())
	assert.Equal(t, "crypto", s.SelectedPortfolio())
}

func TestStoreSelectionRevertsWhenPortfolioGone(t *testing.T) {
	s := NewStore()
	s.SetSelectedPortfolio("crypto")
	s.ApplyProperties([]model.StockProperties{props("AAPL", "")})
	assert.Equal(t, "", s.SelectedPortfolio())
	assert.ElementsMatch(t, []string{"AAPL"}, s.Symbols())
}

func TestStoreLotsCreateOnlyInSelectedPortfolio(t *testing.T) {
	s := NewStore()
	s.ApplyLots([]model.SymbolLots{
		{Properties: props("AAPL", ""), Lots: []model.Lot{{Symbol: "AAPL", Quantity: 10, Price: 5}}},
		{Properties: props("BTC-USD", "crypto"), Lots: []model.Lot{{Symbol: "BTC-USD", Quantity: 1, Price: 100}}},
	})
	assert.ElementsMatch(t, []string{"AAPL"}, s.Symbols())
	item, ok := s.Get("AAPL")
	require.True(t, ok)
	require.Len(t, item.Lots, 1)
	assert.Equal(t, 10.0, item.Lots[0].Quantity)
}

func TestStoreQuotesNeverCreate(t *testing.T) {
	s := NewStore()
	s.ApplyProperties([]model.StockProperties{props("AAPL", "")})
	s.ApplyQuotes([]model.Quote{
		{Symbol: "AAPL", Price: 150},
		{Symbol: "GHOST", Price: 1},
	})
	assert.ElementsMatch(t, []string{"AAPL"}, s.Symbols())
	item, _ := s.Get("AAPL")
	assert.Equal(t, 150.0, item.Quote.Price)
}

func TestStoreQuoteSurvivesPropertiesReapply(t *testing.T) {
	s := NewStore()
	s.ApplyProperties([]model.StockProperties{props("AAPL", "")})
	s.ApplyQuotes([]model.Quote{{Symbol: "AAPL", Price: 150}})
	s.ApplyProperties([]model.StockProperties{props("AAPL", "")})
	item, _ := s.Get("AAPL")
	assert.Equal(t, 150.0, item.Quote.Price)
}

func TestStorePublishesSnapshotOnApply(t *testing.T) {
	s := NewStore()
	ch := s.Subscribe()
	s.ApplyProperties([]model.StockProperties{props("AAPL", "")})
	select {
	case snapshot := <-ch:
		assert.ElementsMatch(t, []string{"AAPL"}, snapshotSymbols(snapshot))
	default:
		t.Fatal("expected a published snapshot")
	}

	// a lagging subscriber gets the latest snapshot, not the oldest
	s.ApplyProperties([]model.StockProperties{props("AAPL", ""), props("MSFT", "")})
	s.ApplyProperties([]model.StockProperties{props("TSLA", "")})
	select {
	case snapshot := <-ch:
		assert.ElementsMatch(t, []string{"TSLA"}, snapshotSymbols(snapshot))
	default:
		t.Fatal("expected a published snapshot")
	}
}
