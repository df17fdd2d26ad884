package portfolio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockroomapp/stockroom_bot/internal/model"
)

func filterFixture() []model.StockItem {
	return []model.StockItem{
		{
			Properties: model.StockProperties{Symbol: "AAPL", Notes: "core holding", AnnualDividendRate: -1},
			Quote:      model.Quote{Symbol: "AAPL", Name: "Apple Inc.", Price: 150, ChangePercent: 1.2},
			Lots:       []model.Lot{{Symbol: "AAPL", Quantity: 10, Price: 100, Account: "broker", Date: 1}},
		},
		{
			Properties: model.StockProperties{Symbol: "MSFT", AnnualDividendRate: -1},
			Quote:      model.Quote{Symbol: "MSFT", Name: "Microsoft", Price: 300, ChangePercent: -0.5},
		},
		{
			Properties: model.StockProperties{Symbol: "BTC-USD", AnnualDividendRate: -1},
			Quote:      model.Quote{Symbol: "BTC-USD", Name: "Bitcoin USD", Price: 40000, ChangePercent: 4.8},
			Lots:       []model.Lot{{Symbol: "BTC-USD", Quantity: 0.5, Price: 30000, Account: "exchange", Date: 2}},
		},
	}
}

func TestFilterEmptySetIsIdentity(t *testing.T) {
	items := filterFixture()
	got, err := Filter(items, nil, FilterModeAnd)
	require.NoError(t, err)
	assert.Equal(t, items, got)
}

func TestFilterAndSemantics(t *testing.T) {
	predicates := []FilterPredicate{
		{Field: FieldQuantity, Op: OpGreaterThan, Number: 0},
		{Field: FieldChangePercent, Op: OpGreaterThan, Number: 2},
	}
	got, err := Filter(filterFixture(), predicates, FilterModeAnd)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "BTC-USD", got[0].Properties.Symbol)
	// every item in an AND result passes every predicate
	for _, item := range got {
		for i := range predicates {
			pass, err := predicates[i].Eval(item)
			require.NoError(t, err)
			assert.True(t, pass)
		}
	}
}

func TestFilterOrSemantics(t *testing.T) {
	predicates := []FilterPredicate{
		{Field: FieldSymbol, Op: OpEquals, Text: "MSFT"},
		{Field: FieldChangePercent, Op: OpGreaterThan, Number: 2},
	}
	got, err := Filter(filterFixture(), predicates, FilterModeOr)
	require.NoError(t, err)
	require.Len(t, got, 2)
	// every item in an OR result passes at least one predicate
	for _, item := range got {
		any := false
		for i := range predicates {
			pass, err := predicates[i].Eval(item)
			require.NoError(t, err)
			any = any || pass
		}
		assert.True(t, any)
	}
}

func TestFilterRegex(t *testing.T) {
	got, err := Filter(filterFixture(), []FilterPredicate{
		{Field: FieldName, Op: OpMatches, Text: `(?i)^micro`},
	}, FilterModeAnd)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "MSFT", got[0].Properties.Symbol)
}

func TestFilterBadRegexFailsClosed(t *testing.T) {
	got, err := Filter(filterFixture(), []FilterPredicate{
		{Field: FieldSymbol, Op: OpEquals, Text: "AAPL"},
		{Field: FieldName, Op: OpMatches, Text: `([`},
	}, FilterModeOr)
	require.Error(t, err)
	assert.Empty(t, got)
}

func TestFilterAccountMatchesAnyLot(t *testing.T) {
	got, err := Filter(filterFixture(), []FilterPredicate{
		{Field: FieldAccount, Op: OpContains, Text: "exch"},
	}, FilterModeAnd)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "BTC-USD", got[0].Properties.Symbol)
}

func TestFilterNotePresence(t *testing.T) {
	got, err := Filter(filterFixture(), []FilterPredicate{
		{Field: FieldNote, Op: OpPresent},
	}, FilterModeAnd)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "AAPL", got[0].Properties.Symbol)
}

func TestFilterDateOperators(t *testing.T) {
	items := filterFixture()
	cutoff := time.Unix(2, 0).UTC()
	got, err := Filter(items, []FilterPredicate{
		{Field: FieldLastActivity, Op: OpBefore, Date: cutoff},
	}, FilterModeAnd)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "AAPL", got[0].Properties.Symbol)
}

func TestFilterOperatorTypeMismatchFailsClosed(t *testing.T) {
	got, err := Filter(filterFixture(), []FilterPredicate{
		{Field: FieldPrice, Op: OpMatches, Text: "150"},
	}, FilterModeAnd)
	require.Error(t, err)
	assert.Empty(t, got)
}
