package portfolio

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// ErrBadPredicate is returned when a text-form predicate cannot be parsed.
var ErrBadPredicate = errors.New("cannot parse filter predicate")

var fieldNames = map[string]FilterField{
	"symbol":    FieldSymbol,
	"name":      FieldName,
	"note":      FieldNote,
	"account":   FieldAccount,
	"price":     FieldPrice,
	"change":    FieldChangePercent,
	"profit":    FieldProfit,
	"profit%":   FieldProfitPercent,
	"value":     FieldAssetValue,
	"cost":      FieldPurchasePrice,
	"yield":     FieldDividendYield,
	"marketcap": FieldMarketCap,
	"quantity":  FieldQuantity,
	"lots":      FieldLotCount,
	"events":    FieldEventCount,
	"dividends": FieldDividendCount,
	"group":     FieldGroupColor,
	"marker":    FieldMarker,
	"activity":  FieldLastActivity,
	"purchased": FieldFirstPurchase,
	"state":     FieldMarketState,
}

var opNames = map[string]FilterOp{
	"equals":       OpEquals,
	"eq":           OpEquals,
	"not-equals":   OpNotEquals,
	"ne":           OpNotEquals,
	"contains":     OpContains,
	"not-contains": OpNotContains,
	"matches":      OpMatches,
	"gt":           OpGreaterThan,
	"lt":           OpLessThan,
	"before":       OpBefore,
	"after":        OpAfter,
	"present":      OpPresent,
	"absent":       OpAbsent,
	"in":           OpIsOneOf,
}

// FieldName returns the text form used in the dialog syntax.
func (f FilterField) FieldName() string {
	for name, field := range fieldNames {
		if field == f {
			return name
		}
	}
	return "?"
}

// OpName returns the canonical text form of the operator.
func (o FilterOp) OpName() string {
	switch o {
	case OpEquals:
		return "equals"
	case OpNotEquals:
		return "not-equals"
	case OpContains:
		return "contains"
	case OpNotContains:
		return "not-contains"
	case OpMatches:
		return "matches"
	case OpGreaterThan:
		return "gt"
	case OpLessThan:
		return "lt"
	case OpBefore:
		return "before"
	case OpAfter:
		return "after"
	case OpPresent:
		return "present"
	case OpAbsent:
		return "absent"
	case OpIsOneOf:
		return "in"
	default:
		return "?"
	}
}

// ParsePredicate reads one "field operator [operand]" line. The operand is
// typed by the field: numbers for double/int fields, yyyy-mm-dd for date
// fields, comma-split list for "in", plain text otherwise.
func ParsePredicate(line string) (FilterPredicate, error) {
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) < 2 {
		return FilterPredicate{}, ErrBadPredicate
	}

	field, ok := fieldNames[strings.ToLower(fields[0])]
	if !ok {
		return FilterPredicate{}, ErrBadPredicate
	}
	op, ok := opNames[strings.ToLower(fields[1])]
	if !ok {
		return FilterPredicate{}, ErrBadPredicate
	}

	p := FilterPredicate{Field: field, Op: op}
	if op == OpPresent || op == OpAbsent {
		return p, nil
	}
	if len(fields) < 3 {
		return FilterPredicate{}, ErrBadPredicate
	}
	operand := strings.Join(fields[2:], " ")

	switch {
	case op == OpIsOneOf:
		for _, token := range strings.Split(operand, ",") {
			token = strings.TrimSpace(token)
			if token != "" {
				p.Selection = append(p.Selection, token)
			}
		}
		if len(p.Selection) == 0 {
			return FilterPredicate{}, ErrBadPredicate
		}
	case op == OpBefore || op == OpAfter:
		date, err := time.Parse("2006-01-02", operand)
		if err != nil {
			return FilterPredicate{}, ErrBadPredicate
		}
		p.Date = date
	case op == OpGreaterThan || op == OpLessThan:
		number, err := strconv.ParseFloat(operand, 64)
		if err != nil {
			return FilterPredicate{}, ErrBadPredicate
		}
		p.Number = number
	default:
		// equals on a numeric field compares numbers, otherwise text
		if number, err := strconv.ParseFloat(operand, 64); err == nil && isNumericField(field) {
			p.Number = number
		} else {
			p.Text = operand
		}
	}

	return p, nil
}

func isNumericField(field FilterField) bool {
	switch field {
	case FieldPrice, FieldChangePercent, FieldProfit, FieldProfitPercent,
		FieldAssetValue, FieldPurchasePrice, FieldDividendYield, FieldMarketCap,
		FieldQuantity, FieldLotCount, FieldEventCount, FieldDividendCount,
		FieldGroupColor, FieldMarker:
		return true
	default:
		return false
	}
}
