package portfolio

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePredicate(t *testing.T) {
	tests := []struct {
		name string
		line string
		want FilterPredicate
	}{
		{
			name: "text contains",
			line: "symbol contains AAP",
			want: FilterPredicate{Field: FieldSymbol, Op: OpContains, Text: "AAP"},
		},
		{
			name: "numeric less-than",
			line: "profit lt 0",
			want: FilterPredicate{Field: FieldProfit, Op: OpLessThan, Number: 0},
		},
		{
			name: "numeric equals",
			line: "quantity equals 10",
			want: FilterPredicate{Field: FieldQuantity, Op: OpEquals, Number: 10},
		},
		{
			name: "text equals on text field keeps text",
			line: "note equals 42",
			want: FilterPredicate{Field: FieldNote, Op: OpEquals, Text: "42"},
		},
		{
			name: "no-operand operator",
			line: "note absent",
			want: FilterPredicate{Field: FieldNote, Op: OpAbsent},
		},
		{
			name: "date before",
			line: "purchased before 2024-06-01",
			want: FilterPredicate{Field: FieldFirstPurchase, Op: OpBefore, Date: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
		},
		{
			name: "selection",
			line: "state in REGULAR, PRE",
			want: FilterPredicate{Field: FieldMarketState, Op: OpIsOneOf, Selection: []string{"REGULAR", "PRE"}},
		},
		{
			name: "multi-word text operand",
			line: "name contains Apple Inc.",
			want: FilterPredicate{Field: FieldName, Op: OpContains, Text: "Apple Inc."},
		},
		{
			name: "case insensitive field and operator",
			line: "Symbol EQUALS MSFT",
			want: FilterPredicate{Field: FieldSymbol, Op: OpEquals, Text: "MSFT"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParsePredicate(tc.line)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParsePredicateErrors(t *testing.T) {
	lines := []string{
		"",
		"symbol",
		"nonsense equals x",
		"symbol frobnicates x",
		"symbol equals",
		"purchased before yesterday",
		"price gt expensive",
		"state in ,",
	}
	for _, line := range lines {
		_, err := ParsePredicate(line)
		assert.ErrorIs(t, err, ErrBadPredicate, "line %q", line)
	}
}

func TestFilterSetJSONRoundTrip(t *testing.T) {
	set := FilterSet{
		Name: "watch",
		Mode: FilterModeOr,
		Predicates: []FilterPredicate{
			{Field: FieldSymbol, Op: OpIsOneOf, Selection: []string{"AAPL", "MSFT"}},
			{Field: FieldChangePercent, Op: OpGreaterThan, Number: 2.5},
			{Field: FieldLastActivity, Op: OpAfter, Date: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)},
		},
	}

	payload, err := json.Marshal(set)
	require.NoError(t, err)

	var got FilterSet
	require.NoError(t, json.Unmarshal(payload, &got))
	assert.Equal(t, set, got)

	// parsed predicates still evaluate after the round trip
	pass, err := got.Predicates[0].Eval(filterFixture()[0])
	require.NoError(t, err)
	assert.True(t, pass)
}
