package impexp

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/stockroomapp/stockroom_bot/internal/model"
)

// ErrTooManySymbols is returned when an import file exceeds the symbol limit.
var ErrTooManySymbols = errors.New("too many symbols in import file")

var symbolPattern = regexp.MustCompile(`^[A-Z0-9.^=-]{1,20}$`)

// StockExport is one symbol's complete state in the JSON interchange format.
// The same shape serves export and import; Position is a legacy import-only
// field from old backup files.
type StockExport struct {
	Symbol             string           `json:"symbol"`
	Portfolio          string           `json:"portfolio,omitempty"`
	Name               string           `json:"name,omitempty"`
	Type               int              `json:"type,omitempty"`
	Note               string           `json:"note,omitempty"`
	DividendNote       string           `json:"dividendNote,omitempty"`
	AnnualDividendRate float64          `json:"annualDividendRate,omitempty"`
	AlertAbove         float64          `json:"alertAbove,omitempty"`
	AlertAboveNote     string           `json:"alertAboveNote,omitempty"`
	AlertBelow         float64          `json:"alertBelow,omitempty"`
	AlertBelowNote     string           `json:"alertBelowNote,omitempty"`
	GroupColor         int              `json:"groupColor,omitempty"`
	GroupName          string           `json:"groupName,omitempty"`
	Marker             int              `json:"marker,omitempty"`
	Data               string           `json:"data,omitempty"`
	Assets             []AssetExport    `json:"assets,omitempty"`
	Events             []EventExport    `json:"events,omitempty"`
	Dividends          []DividendExport `json:"dividends,omitempty"`
	Position           *legacyPosition  `json:"position,omitempty"`
}

// AssetExport carries one lot. Quantity and Price are pointers so a missing
// field is distinguishable from zero: zero is a valid zero-cost lot, missing
// means the row is malformed and gets skipped.
type AssetExport struct {
	Quantity *float64 `json:"quantity"`
	Price    *float64 `json:"price"`
	Fee      float64  `json:"fee,omitempty"`
	Date     int64    `json:"date,omitempty"`
	Account  string   `json:"account,omitempty"`
	Note     string   `json:"note,omitempty"`
	Type     int      `json:"type,omitempty"`
}

type EventExport struct {
	Title    string `json:"title"`
	Datetime int64  `json:"datetime"`
	Note     string `json:"note,omitempty"`
	Type     int    `json:"type,omitempty"`
}

type DividendExport struct {
	Amount  float64 `json:"amount"`
	Cycle   int     `json:"cycle,omitempty"`
	Paydate int64   `json:"paydate"`
	Exdate  int64   `json:"exdate,omitempty"`
	Type    int     `json:"type,omitempty"`
	Account string  `json:"account,omitempty"`
	Note    string  `json:"note,omitempty"`
}

type legacyPosition struct {
	Holdings []legacyHolding `json:"holdings"`
}

type legacyHolding struct {
	Quantity *float64 `json:"quantity"`
	Price    *float64 `json:"price"`
}

// ImportedStock is the normalized result of one imported symbol.
type ImportedStock struct {
	Properties model.StockProperties
	GroupName  string
	Lots       []model.Lot
	Events     []model.Event
	Dividends  []model.DividendRecord
}

// ImportResult reports what an import pass did. Malformed rows are skipped,
// never fatal; the counts tell the user what fell through.
type ImportResult struct {
	Stocks       []ImportedStock
	SkippedRows  int
	SkippedLines []string
}

// ParseJSON reads a JSON backup. A malformed asset, event or dividend row is
// skipped while the rest of the same symbol imports; a row without a valid
// symbol is skipped entirely.
func ParseJSON(data []byte, limit int) (ImportResult, error) {
	var entries []StockExport
	if err := json.Unmarshal(data, &entries); err != nil {
		return ImportResult{}, fmt.Errorf("parse import json: %w", err)
	}
	if len(entries) > limit {
		return ImportResult{}, ErrTooManySymbols
	}

	result := ImportResult{}
	for _, entry := range entries {
		symbol := NormalizeSymbol(entry.Symbol)
		if symbol == "" {
			result.SkippedRows++
			result.SkippedLines = append(result.SkippedLines, entry.Symbol)
			continue
		}

		annualDividendRate := entry.AnnualDividendRate
		if annualDividendRate == 0 {
			annualDividendRate = -1
		}
		imported := ImportedStock{
			Properties: model.StockProperties{
				Symbol:             symbol,
				Portfolio:          entry.Portfolio,
				Data:               entry.Data,
				GroupColor:         entry.GroupColor,
				Marker:             entry.Marker,
				Notes:              entry.Note,
				DividendNotes:      entry.DividendNote,
				AnnualDividendRate: annualDividendRate,
				AlertAbove:         entry.AlertAbove,
				AlertAboveNote:     entry.AlertAboveNote,
				AlertBelow:         entry.AlertBelow,
				AlertBelowNote:     entry.AlertBelowNote,
			},
			GroupName: entry.GroupName,
		}

		for _, asset := range entry.Assets {
			if asset.Quantity == nil || asset.Price == nil || *asset.Price < 0 {
				result.SkippedRows++
				continue
			}
			imported.Lots = append(imported.Lots, model.Lot{
				Symbol:   symbol,
				Quantity: *asset.Quantity,
				Price:    *asset.Price,
				Fee:      asset.Fee,
				Date:     asset.Date,
				Account:  asset.Account,
				Note:     asset.Note,
				Type:     asset.Type,
			})
		}

		// old backups carried holdings under position
		if entry.Position != nil {
			for _, holding := range entry.Position.Holdings {
				if holding.Quantity == nil || holding.Price == nil || *holding.Price < 0 {
					result.SkippedRows++
					continue
				}
				imported.Lots = append(imported.Lots, model.Lot{
					Symbol:   symbol,
					Quantity: *holding.Quantity,
					Price:    *holding.Price,
				})
			}
		}

		for _, event := range entry.Events {
			if event.Title == "" || event.Datetime == 0 {
				result.SkippedRows++
				continue
			}
			imported.Events = append(imported.Events, model.Event{
				Symbol:   symbol,
				Type:     event.Type,
				Title:    event.Title,
				Note:     event.Note,
				Datetime: event.Datetime,
			})
		}

		for _, dividend := range entry.Dividends {
			if dividend.Amount <= 0 || dividend.Paydate == 0 {
				result.SkippedRows++
				continue
			}
			imported.Dividends = append(imported.Dividends, model.DividendRecord{
				Symbol:  symbol,
				Amount:  dividend.Amount,
				Type:    dividend.Type,
				Cycle:   dividend.Cycle,
				Paydate: dividend.Paydate,
				Exdate:  dividend.Exdate,
				Account: dividend.Account,
				Note:    dividend.Note,
			})
		}

		result.Stocks = append(result.Stocks, imported)
	}

	return result, nil
}

// ParseCSV reads a broker-style export. The header must name a symbol column
// ("Symbol" or "Name"); quantity ("Quantity" or "Shares") and price ("Price"
// or "Cost Basis Per Share") columns are optional and produce a lot when both
// parse. Currency signs and thousands separators on prices are tolerated.
func ParseCSV(data []byte, limit int) (ImportResult, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return ImportResult{}, fmt.Errorf("parse import csv: %w", err)
	}
	if len(records) == 0 {
		return ImportResult{}, errors.New("empty csv file")
	}

	symbolCol, quantityCol, priceCol := -1, -1, -1
	for i, header := range records[0] {
		switch strings.ToLower(strings.TrimSpace(header)) {
		case "symbol", "name":
			if symbolCol == -1 {
				symbolCol = i
			}
		case "quantity", "shares":
			quantityCol = i
		case "price", "cost basis per share":
			priceCol = i
		}
	}
	if symbolCol == -1 {
		return ImportResult{}, errors.New("csv header has no symbol column")
	}

	result := ImportResult{}
	seen := make(map[string]int)
	for _, record := range records[1:] {
		if symbolCol >= len(record) {
			result.SkippedRows++
			continue
		}
		symbol := NormalizeSymbol(record[symbolCol])
		if symbol == "" {
			result.SkippedRows++
			result.SkippedLines = append(result.SkippedLines, strings.Join(record, ","))
			continue
		}

		i, ok := seen[symbol]
		if !ok {
			if len(result.Stocks) >= limit {
				return ImportResult{}, ErrTooManySymbols
			}
			i = len(result.Stocks)
			seen[symbol] = i
			result.Stocks = append(result.Stocks, ImportedStock{
				Properties: model.StockProperties{Symbol: symbol, AnnualDividendRate: -1},
			})
		}

		if quantityCol == -1 || priceCol == -1 || quantityCol >= len(record) || priceCol >= len(record) {
			continue
		}
		quantity, qErr := strconv.ParseFloat(strings.TrimSpace(record[quantityCol]), 64)
		price, pErr := parsePrice(record[priceCol])
		if qErr != nil || pErr != nil || quantity == 0 {
			result.SkippedRows++
			continue
		}
		result.Stocks[i].Lots = append(result.Stocks[i].Lots, model.Lot{
			Symbol:   symbol,
			Quantity: quantity,
			Price:    price,
		})
	}

	return result, nil
}

// ParseText reads a bare symbol list: tokens separated by whitespace, commas
// or semicolons, deduplicated in input order.
func ParseText(data []byte, limit int) (ImportResult, error) {
	tokens := strings.FieldsFunc(string(data), func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})

	result := ImportResult{}
	seen := make(map[string]bool)
	for _, token := range tokens {
		symbol := NormalizeSymbol(token)
		if symbol == "" {
			result.SkippedRows++
			result.SkippedLines = append(result.SkippedLines, token)
			continue
		}
		if seen[symbol] {
			continue
		}
		if len(result.Stocks) >= limit {
			return ImportResult{}, ErrTooManySymbols
		}
		seen[symbol] = true
		result.Stocks = append(result.Stocks, ImportedStock{
			Properties: model.StockProperties{Symbol: symbol, AnnualDividendRate: -1},
		})
	}

	return result, nil
}

// ExportJSON renders the merged view into the interchange format.
func ExportJSON(items []model.StockItem, groups []model.Group) ([]byte, error) {
	groupNames := make(map[int]string, len(groups))
	for _, group := range groups {
		groupNames[group.Color] = group.Name
	}

	entries := make([]StockExport, 0, len(items))
	for _, item := range items {
		entry := StockExport{
			Symbol:         item.Properties.Symbol,
			Portfolio:      item.Properties.Portfolio,
			Name:           item.Quote.Name,
			Note:           item.Properties.Notes,
			DividendNote:   item.Properties.DividendNotes,
			AlertAbove:     item.Properties.AlertAbove,
			AlertAboveNote: item.Properties.AlertAboveNote,
			AlertBelow:     item.Properties.AlertBelow,
			AlertBelowNote: item.Properties.AlertBelowNote,
			GroupColor:     item.Properties.GroupColor,
			GroupName:      groupNames[item.Properties.GroupColor],
			Marker:         item.Properties.Marker,
			Data:           item.Properties.Data,
		}
		if item.Properties.AnnualDividendRate >= 0 {
			entry.AnnualDividendRate = item.Properties.AnnualDividendRate
		}
		for _, lot := range item.Lots {
			quantity, price := lot.Quantity, lot.Price
			entry.Assets = append(entry.Assets, AssetExport{
				Quantity: &quantity,
				Price:    &price,
				Fee:      lot.Fee,
				Date:     lot.Date,
				Account:  lot.Account,
				Note:     lot.Note,
				Type:     lot.Type,
			})
		}
		for _, event := range item.Events {
			entry.Events = append(entry.Events, EventExport{
				Title:    event.Title,
				Datetime: event.Datetime,
				Note:     event.Note,
				Type:     event.Type,
			})
		}
		for _, dividend := range item.Dividends {
			entry.Dividends = append(entry.Dividends, DividendExport{
				Amount:  dividend.Amount,
				Cycle:   dividend.Cycle,
				Paydate: dividend.Paydate,
				Exdate:  dividend.Exdate,
				Type:    dividend.Type,
				Account: dividend.Account,
				Note:    dividend.Note,
			})
		}
		entries = append(entries, entry)
	}

	return json.MarshalIndent(entries, "", "  ")
}

// NormalizeSymbol uppercases and validates a raw symbol token; invalid input
// comes back empty.
func NormalizeSymbol(raw string) string {
	symbol := strings.ToUpper(strings.TrimSpace(raw))
	symbol = strings.Trim(symbol, `"`)
	if !symbolPattern.MatchString(symbol) {
		return ""
	}
	return symbol
}

func parsePrice(raw string) (float64, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	return strconv.ParseFloat(cleaned, 64)
}
