package portfolio

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/stockroomapp/stockroom_bot/internal/model"
)

// FilterMode combines the active predicates.
type FilterMode int

const (
	FilterModeAnd FilterMode = iota
	FilterModeOr
)

// FilterField names the attribute a predicate evaluates. Each field has a
// fixed data type; the operator set depends on that type.
type FilterField int

const (
	FieldSymbol FilterField = iota // text
	FieldName                      // text
	FieldNote                      // text
	FieldAccount                   // text
	FieldPrice                     // double
	FieldChangePercent             // double
	FieldProfit                    // double
	FieldProfitPercent             // double
	FieldAssetValue                // double
	FieldPurchasePrice             // double
	FieldDividendYield             // double
	FieldMarketCap                 // double
	FieldQuantity                  // double
	FieldLotCount                  // int
	FieldEventCount                // int
	FieldDividendCount             // int
	FieldGroupColor                // int
	FieldMarker                    // int
	FieldLastActivity              // date
	FieldFirstPurchase             // date
	FieldMarketState               // selection
)

// FilterOp is the comparison a predicate applies to its field.
type FilterOp int

const (
	OpEquals FilterOp = iota
	OpNotEquals
	OpContains
	OpNotContains
	OpMatches // regex
	OpGreaterThan
	OpLessThan
	OpBefore
	OpAfter
	OpPresent
	OpAbsent
	OpIsOneOf
)

// FilterPredicate is one user-configured condition. Text, Number, Date and
// Selection carry the operand for the respective field type; unused operands
// are ignored. The shape round-trips through JSON so named sets can be
// persisted.
type FilterPredicate struct {
	Field     FilterField `json:"field"`
	Op        FilterOp    `json:"op"`
	Text      string      `json:"text,omitempty"`
	Number    float64     `json:"number,omitempty"`
	Date      time.Time   `json:"date,omitzero"`
	Selection []string    `json:"selection,omitempty"`

	re *regexp.Regexp
}

// FilterSet is a named, persistable predicate collection.
type FilterSet struct {
	Name       string            `json:"name"`
	Mode       FilterMode        `json:"mode"`
	Predicates []FilterPredicate `json:"predicates"`
}

// Filter applies predicates to a snapshot. An empty predicate set is the
// identity. Any predicate error (bad regex, operator/field mismatch) fails
// the whole pass closed: the result is empty, never partially filtered.
func Filter(items []model.StockItem, predicates []FilterPredicate, mode FilterMode) ([]model.StockItem, error) {
	if len(predicates) == 0 {
		return items, nil
	}
	result := make([]model.StockItem, 0, len(items))
	for _, item := range items {
		pass, err := evaluate(item, predicates, mode)
		if err != nil {
			return nil, err
		}
		if pass {
			result = append(result, item)
		}
	}
	return result, nil
}

func evaluate(item model.StockItem, predicates []FilterPredicate, mode FilterMode) (bool, error) {
	for i := range predicates {
		pass, err := predicates[i].Eval(item)
		if err != nil {
			return false, err
		}
		if mode == FilterModeAnd && !pass {
			return false, nil
		}
		if mode == FilterModeOr && pass {
			return true, nil
		}
	}
	return mode == FilterModeAnd, nil
}

// Eval checks the predicate against one entry.
func (p *FilterPredicate) Eval(item model.StockItem) (bool, error) {
	switch p.Field {
	case FieldSymbol:
		return p.evalText(item.Properties.Symbol)
	case FieldName:
		return p.evalText(DisplayName(item))
	case FieldNote:
		return p.evalText(item.Properties.Notes)
	case FieldAccount:
		return p.evalAccounts(item)
	case FieldPrice:
		return p.evalNumber(item.Quote.Price)
	case FieldChangePercent:
		return p.evalNumber(item.Quote.ChangePercent)
	case FieldProfit:
		return p.evalNumber(Profit(item))
	case FieldProfitPercent:
		return p.evalNumber(ProfitPercent(item))
	case FieldAssetValue:
		return p.evalNumber(AssetValue(item))
	case FieldPurchasePrice:
		return p.evalNumber(PurchasePrice(item))
	case FieldDividendYield:
		return p.evalNumber(DividendYield(item))
	case FieldMarketCap:
		return p.evalNumber(item.Quote.MarketCap)
	case FieldQuantity:
		return p.evalNumber(TotalQuantity(item))
	case FieldLotCount:
		return p.evalNumber(float64(len(item.Lots)))
	case FieldEventCount:
		return p.evalNumber(float64(len(item.Events)))
	case FieldDividendCount:
		return p.evalNumber(float64(len(item.Dividends)))
	case FieldGroupColor:
		return p.evalNumber(float64(item.Properties.GroupColor))
	case FieldMarker:
		return p.evalNumber(float64(item.Properties.Marker))
	case FieldLastActivity:
		return p.evalDate(LastActivity(item))
	case FieldFirstPurchase:
		return p.evalDate(FirstPurchase(item))
	case FieldMarketState:
		return p.evalSelection(string(item.Quote.MarketState))
	default:
		return false, fmt.Errorf("unknown filter field %d", p.Field)
	}
}

func (p *FilterPredicate) evalText(value string) (bool, error) {
	switch p.Op {
	case OpEquals:
		return strings.EqualFold(value, p.Text), nil
	case OpNotEquals:
		return !strings.EqualFold(value, p.Text), nil
	case OpContains:
		return strings.Contains(strings.ToLower(value), strings.ToLower(p.Text)), nil
	case OpNotContains:
		return !strings.Contains(strings.ToLower(value), strings.ToLower(p.Text)), nil
	case OpMatches:
		if p.re == nil {
			re, err := regexp.Compile(p.Text)
			if err != nil {
				return false, fmt.Errorf("compile filter regex: %w", err)
			}
			p.re = re
		}
		return p.re.MatchString(value), nil
	case OpPresent:
		return value != "", nil
	case OpAbsent:
		return value == "", nil
	case OpIsOneOf:
		for _, s := range p.Selection {
			if strings.EqualFold(s, value) {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, fmt.Errorf("operator %d not valid for text field", p.Op)
	}
}

func (p *FilterPredicate) evalAccounts(item model.StockItem) (bool, error) {
	// A symbol matches when any of its lots sits in a matching account.
	for _, lot := range item.Lots {
		pass, err := p.evalText(lot.Account)
		if err != nil {
			return false, err
		}
		if pass {
			return true, nil
		}
	}
	return false, nil
}

func (p *FilterPredicate) evalNumber(value float64) (bool, error) {
	switch p.Op {
	case OpEquals:
		return value == p.Number, nil
	case OpNotEquals:
		return value != p.Number, nil
	case OpGreaterThan:
		return value > p.Number, nil
	case OpLessThan:
		return value < p.Number, nil
	case OpPresent:
		return value != 0, nil
	case OpAbsent:
		return value == 0, nil
	default:
		return false, fmt.Errorf("operator %d not valid for numeric field", p.Op)
	}
}

func (p *FilterPredicate) evalDate(value time.Time) (bool, error) {
	switch p.Op {
	case OpEquals:
		return !value.IsZero() && sameDay(value, p.Date), nil
	case OpBefore:
		return !value.IsZero() && value.Before(p.Date), nil
	case OpAfter:
		return value.After(p.Date), nil
	case OpPresent:
		return !value.IsZero(), nil
	case OpAbsent:
		return value.IsZero(), nil
	default:
		return false, fmt.Errorf("operator %d not valid for date field", p.Op)
	}
}

func (p *FilterPredicate) evalSelection(value string) (bool, error) {
	switch p.Op {
	case OpIsOneOf:
		for _, s := range p.Selection {
			if s == value {
				return true, nil
			}
		}
		return false, nil
	case OpEquals:
		return value == p.Text, nil
	case OpNotEquals:
		return value != p.Text, nil
	default:
		return false, fmt.Errorf("operator %d not valid for selection field", p.Op)
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
