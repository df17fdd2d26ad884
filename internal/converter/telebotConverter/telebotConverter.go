package telebotConverter

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/stockroomapp/stockroom_bot/internal/model"
	tgCallback "github.com/stockroomapp/stockroom_bot/internal/model/tg"
	"github.com/stockroomapp/stockroom_bot/internal/portfolio"
	"github.com/stockroomapp/stockroom_bot/internal/service/stockroomService"
	tele "gopkg.in/telebot.v4"
)

// SummaryResponse renders one page of the current view with per-symbol
// buttons and pagination.
func SummaryResponse(items []model.StockItem, totals stockroomService.PortfolioTotals, selectedPortfolio string, page, perPage int) (text string, markup *tele.ReplyMarkup) {
	markup = &tele.ReplyMarkup{}
	var sb strings.Builder

	if selectedPortfolio == "" {
		sb.WriteString("📊 Standard portfolio\n")
	} else {
		sb.WriteString(fmt.Sprintf("📊 Portfolio: %s\n", selectedPortfolio))
	}
	sb.WriteString(fmt.Sprintf("💰 Asset value: %.2f\n", totals.AssetValue))
	sb.WriteString(fmt.Sprintf("💵 Purchase cost: %.2f\n", totals.PurchasePrice))
	sb.WriteString(fmt.Sprintf("%s Profit: %.2f (%.2f%%)\n", profitEmoji(totals.Profit), totals.Profit, totals.ProfitPercent))
	sb.WriteString(fmt.Sprintf("🧾 Symbols: %d (%d with position)\n\n", totals.Symbols, totals.WithPosition))

	if perPage <= 0 {
		perPage = 10
	}
	from := page * perPage
	if from > len(items) {
		from = len(items)
	}
	to := from + perPage
	if to > len(items) {
		to = len(items)
	}
	pageItems := items[from:to]

	stockBtns := make([]tele.Btn, 0, len(pageItems))
	for _, item := range pageItems {
		symbol := item.Properties.Symbol
		stockBtns = append(stockBtns, markup.Data(symbol, tgCallback.StockPrefix+symbol))

		sb.WriteString(fmt.Sprintf("**%s** (%s)\n", symbol, portfolio.DisplayName(item)))
		if item.Quote.Price > 0 {
			sb.WriteString(fmt.Sprintf("   ▸ Price: %.2f (%+.2f%%)", item.Quote.Price, item.Quote.ChangePercent))
			if item.Quote.PostMarketApplied {
				sb.WriteString(" *")
			}
			sb.WriteString("\n")
		} else {
			sb.WriteString("   ▸ Price: n/a\n")
		}
		if quantity := portfolio.TotalQuantity(item); quantity > 0 {
			sb.WriteString(fmt.Sprintf("   ▸ Position: %s shares", trimFloat(quantity)))
			sb.WriteString(fmt.Sprintf(" = %.2f, profit %.2f\n", portfolio.AssetValue(item), portfolio.Profit(item)))
		}
		sb.WriteString("\n")
	}

	paginationBtns := make([]tele.Btn, 0, 2)
	if page > 0 {
		paginationBtns = append(paginationBtns, markup.Data("◀️ prev", tgCallback.PrevPagePrefix+strconv.Itoa(page-1)))
	}
	if to < len(items) {
		paginationBtns = append(paginationBtns, markup.Data("next ▶️", tgCallback.NextPagePrefix+strconv.Itoa(page+1)))
	}

	addStockBtn := markup.Data("➕ Add symbol", tgCallback.AddStock)
	refreshBtn := markup.Data("🔄 Refresh", tgCallback.RefreshList)

	rows := []tele.Row{markup.Row(addStockBtn, refreshBtn)}
	for i := 0; i < len(stockBtns); i += 4 {
		end := i + 4
		if end > len(stockBtns) {
			end = len(stockBtns)
		}
		rows = append(rows, markup.Row(stockBtns[i:end]...))
	}
	if len(paginationBtns) > 0 {
		rows = append(rows, markup.Row(paginationBtns...))
	}
	markup.Inline(rows...)

	return sb.String(), markup
}

// StockDetailsResponse renders one symbol with its lots, events, dividends
// and the per-symbol action keyboard.
func StockDetailsResponse(item model.StockItem, groupName string) (text string, markup *tele.ReplyMarkup) {
	markup = &tele.ReplyMarkup{}
	symbol := item.Properties.Symbol
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("**%s** — %s\n", symbol, portfolio.DisplayName(item)))
	if item.Properties.Portfolio != "" {
		sb.WriteString(fmt.Sprintf("📁 Portfolio: %s\n", item.Properties.Portfolio))
	}
	if groupName != "" {
		sb.WriteString(fmt.Sprintf("🎨 Group: %s\n", groupName))
	}
	if item.Properties.Marker > 0 {
		sb.WriteString(fmt.Sprintf("⭐ Marker: %d\n", item.Properties.Marker))
	}
	if item.Quote.Price > 0 {
		sb.WriteString(fmt.Sprintf("💲 %.2f %s (%+.2f, %+.2f%%), %s\n", item.Quote.Price, item.Quote.Currency, item.Quote.Change, item.Quote.ChangePercent, item.Quote.MarketState.String()))
	} else {
		sb.WriteString("💲 no quote yet\n")
	}

	if quantity := portfolio.TotalQuantity(item); quantity > 0 {
		sb.WriteString(fmt.Sprintf("\n📦 Position: %s shares\n", trimFloat(quantity)))
		sb.WriteString(fmt.Sprintf("   ▸ Purchase cost: %.2f\n", portfolio.PurchasePrice(item)))
		sb.WriteString(fmt.Sprintf("   ▸ Asset value: %.2f\n", portfolio.AssetValue(item)))
		sb.WriteString(fmt.Sprintf("   ▸ Profit: %.2f (%.2f%%)\n", portfolio.Profit(item), portfolio.ProfitPercent(item)))
	}
	if yield := portfolio.DividendYield(item); yield > 0 {
		sb.WriteString(fmt.Sprintf("   ▸ Dividend yield: %.2f%%\n", yield))
	}

	if len(item.Lots) > 0 {
		sb.WriteString("\n🧾 Lots:\n")
		for _, lot := range item.Lots {
			kind := "buy"
			if lot.Quantity < 0 {
				kind = "sell"
			}
			sb.WriteString(fmt.Sprintf("   #%d %s %s @ %.2f", lot.ID, kind, trimFloat(absFloat(lot.Quantity)), lot.Price))
			if lot.Fee > 0 {
				sb.WriteString(fmt.Sprintf(" fee %.2f", lot.Fee))
			}
			sb.WriteString(fmt.Sprintf(" (%s)", formatDate(lot.Date)))
			if lot.Type&model.LotMarkObsolete != 0 {
				sb.WriteString(" closed")
			}
			sb.WriteString("\n")
		}
	}

	if len(item.Events) > 0 {
		sb.WriteString("\n⏰ Events:\n")
		for _, event := range item.Events {
			sb.WriteString(fmt.Sprintf("   #%d %s at %s\n", event.ID, event.Title, time.Unix(event.Datetime, 0).Format("2006-01-02 15:04")))
		}
	}

	if len(item.Dividends) > 0 {
		sb.WriteString("\n💸 Dividends:\n")
		for _, dividend := range item.Dividends {
			kind := "received"
			if dividend.Type == model.DividendAnnounced {
				kind = "announced"
			}
			sb.WriteString(fmt.Sprintf("   #%d %.2f %s (%s)\n", dividend.ID, dividend.Amount, kind, formatDate(dividend.Paydate)))
		}
	}

	if item.Properties.AlertAbove > 0 || item.Properties.AlertBelow > 0 {
		sb.WriteString("\n🔔 Alerts:\n")
		if item.Properties.AlertAbove > 0 {
			sb.WriteString(fmt.Sprintf("   ▸ above %.2f\n", item.Properties.AlertAbove))
		}
		if item.Properties.AlertBelow > 0 {
			sb.WriteString(fmt.Sprintf("   ▸ below %.2f\n", item.Properties.AlertBelow))
		}
	}

	if item.Properties.Notes != "" {
		sb.WriteString(fmt.Sprintf("\n📝 %s\n", item.Properties.Notes))
	}

	markup.Inline(
		markup.Row(
			markup.Data("➕ Lot", tgCallback.AddLotPrefix+symbol),
			markup.Data("➖ Lot", tgCallback.DeleteLotPrefix+symbol),
		),
		markup.Row(
			markup.Data("⏰ Event", tgCallback.AddEventPrefix+symbol),
			markup.Data("➖ Event", tgCallback.DeleteEventPrefix+symbol),
		),
		markup.Row(
			markup.Data("💸 Dividend", tgCallback.AddDividendPrefix+symbol),
			markup.Data("➖ Dividend", tgCallback.DeleteDividendPrefix+symbol),
		),
		markup.Row(
			markup.Data("🔔 Alert", tgCallback.SetAlertPrefix+symbol),
			markup.Data("📝 Note", tgCallback.SetNotePrefix+symbol),
		),
		markup.Row(
			markup.Data("🎨 Group", tgCallback.SetGroupPrefix+symbol),
			markup.Data("⭐ Marker", tgCallback.CycleMarkerPrefix+symbol),
		),
		markup.Row(
			markup.Data("📁 Move", tgCallback.MoveStockPrefix+symbol),
			markup.Data("🗑 Delete", tgCallback.DeleteStockPrefix+symbol),
		),
		markup.Row(markup.Data("⬅️ Back", tgCallback.BackToList)),
	)

	return sb.String(), markup
}

// GainsResponse renders realized capital gains per symbol and per year.
func GainsResponse(perSymbol []stockroomService.SymbolGains, total portfolio.GainLoss) string {
	if len(perSymbol) == 0 {
		return "No realized gains yet."
	}

	var sb strings.Builder
	sb.WriteString("📈 Capital gains\n\n")
	for _, symbolGains := range perSymbol {
		sb.WriteString(fmt.Sprintf("**%s**: net %.2f\n", symbolGains.Symbol, symbolGains.Total.Net()))
		for _, year := range sortedYears(symbolGains.Years) {
			yearGain := symbolGains.Years[year]
			sb.WriteString(fmt.Sprintf("   ▸ %d: +%.2f / -%.2f\n", year, yearGain.Gain, yearGain.Loss))
		}
	}
	sb.WriteString(fmt.Sprintf("\nTotal: +%.2f / -%.2f = %.2f", total.Gain, total.Loss, total.Net()))
	return sb.String()
}

// DividendsResponse renders received, projected and upcoming dividends per
// symbol.
func DividendsResponse(summaries []stockroomService.SymbolDividendSummary) string {
	if len(summaries) == 0 {
		return "No dividends recorded yet."
	}

	var sb strings.Builder
	sb.WriteString("💸 Dividends\n\n")
	for _, summary := range summaries {
		sb.WriteString(fmt.Sprintf("**%s**: received %s", summary.Symbol, summary.Summary.TotalReceived.StringFixed(2)))
		if !summary.Summary.Announced.IsZero() {
			sb.WriteString(fmt.Sprintf(", announced %s", summary.Summary.Announced.StringFixed(2)))
		}
		if summary.Projected > 0 {
			sb.WriteString(fmt.Sprintf(", projected %.2f/year", summary.Projected))
		}
		sb.WriteString("\n")
		for _, payment := range summary.Upcoming {
			sb.WriteString(fmt.Sprintf("   ⏳ %.2f on %s\n", payment.Amount, time.Unix(payment.Paydate, 0).Format("2006-01-02")))
		}
	}
	return sb.String()
}

// PortfoliosResponse renders the portfolio picker keyboard.
func PortfoliosResponse(portfolios []string, selected string) (text string, markup *tele.ReplyMarkup) {
	markup = &tele.ReplyMarkup{}
	var sb strings.Builder
	sb.WriteString("📁 Portfolios:\n")

	rows := make([]tele.Row, 0, len(portfolios)+2)
	label := "Standard"
	if selected == "" {
		label = "✅ Standard"
	}
	rows = append(rows, markup.Row(markup.Data(label, tgCallback.SelectPortfolioPrefix)))
	for _, name := range portfolios {
		label := name
		if name == selected {
			label = "✅ " + name
		}
		rows = append(rows, markup.Row(markup.Data(label, tgCallback.SelectPortfolioPrefix+name)))
	}
	rows = append(rows, markup.Row(markup.Data("➕ New portfolio", tgCallback.NewPortfolio)))
	markup.Inline(rows...)

	return sb.String(), markup
}

// SortModesResponse renders the sort mode picker keyboard.
func SortModesResponse(current portfolio.SortMode) (text string, markup *tele.ReplyMarkup) {
	markup = &tele.ReplyMarkup{}

	modes := []portfolio.SortMode{
		portfolio.SortUnsorted,
		portfolio.SortByName,
		portfolio.SortBySymbol,
		portfolio.SortByChangePercentDesc,
		portfolio.SortByPurchasePriceDesc,
		portfolio.SortByAssetValueDesc,
		portfolio.SortByProfitDesc,
		portfolio.SortByProfitPercentDesc,
		portfolio.SortByMarketCapDesc,
		portfolio.SortByDividendYieldDesc,
		portfolio.SortByGroup,
		portfolio.SortByMarker,
		portfolio.SortByActivityDesc,
	}

	rows := make([]tele.Row, 0, (len(modes)+1)/2)
	for i := 0; i < len(modes); i += 2 {
		btns := make([]tele.Btn, 0, 2)
		for _, mode := range modes[i:min(i+2, len(modes))] {
			label := mode.String()
			if mode == current {
				label = "✅ " + label
			}
			btns = append(btns, markup.Data(label, tgCallback.SortModePrefix+strconv.Itoa(int(mode))))
		}
		rows = append(rows, markup.Row(btns...))
	}
	markup.Inline(rows...)

	return "Sort by:", markup
}

// SettingsResponse renders the toggles keyboard.
// ChartRanges are the quote history spans the chart-range setting cycles
// through; the persisted value is an index into this list.
var ChartRanges = []string{"1d", "5d", "1mo", "3mo", "1y", "5y", "max"}

func SettingsResponse(postMarket, notifications, filterAny bool, chartRange int) (text string, markup *tele.ReplyMarkup) {
	filterLabel := "Filter: match all rules"
	if filterAny {
		filterLabel = "Filter: match any rule"
	}
	if chartRange < 0 || chartRange >= len(ChartRanges) {
		chartRange = 0
	}

	markup = &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(markup.Data(toggleLabel("Post-market prices", postMarket), tgCallback.TogglePostMarket)),
		markup.Row(markup.Data(toggleLabel("Notifications", notifications), tgCallback.ToggleNotify)),
		markup.Row(markup.Data("🧩 "+filterLabel, tgCallback.ToggleFilterMode)),
		markup.Row(markup.Data("📈 Chart range: "+ChartRanges[chartRange], tgCallback.CycleChartRange)),
	)
	return "⚙️ Settings:", markup
}

// LotPickerResponse renders a delete button per lot of one symbol.
func LotPickerResponse(item model.StockItem) (text string, markup *tele.ReplyMarkup) {
	markup = &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, len(item.Lots)+1)
	for _, lot := range item.Lots {
		kind := "buy"
		if lot.Quantity < 0 {
			kind = "sell"
		}
		label := fmt.Sprintf("#%d %s %s @ %.2f (%s)", lot.ID, kind, trimFloat(absFloat(lot.Quantity)), lot.Price, formatDate(lot.Date))
		rows = append(rows, markup.Row(markup.Data(label, tgCallback.DeleteLotPrefix+item.Properties.Symbol+":"+strconv.FormatInt(lot.ID, 10))))
	}
	rows = append(rows, markup.Row(markup.Data("⬅️ Back", tgCallback.StockPrefix+item.Properties.Symbol)))
	markup.Inline(rows...)
	return "Pick the lot to delete:", markup
}

// EventPickerResponse renders a delete button per event of one symbol.
func EventPickerResponse(item model.StockItem) (text string, markup *tele.ReplyMarkup) {
	markup = &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, len(item.Events)+1)
	for _, event := range item.Events {
		label := fmt.Sprintf("#%d %s (%s)", event.ID, event.Title, time.Unix(event.Datetime, 0).Format("2006-01-02 15:04"))
		rows = append(rows, markup.Row(markup.Data(label, tgCallback.DeleteEventPrefix+item.Properties.Symbol+":"+strconv.FormatInt(event.ID, 10))))
	}
	rows = append(rows, markup.Row(markup.Data("⬅️ Back", tgCallback.StockPrefix+item.Properties.Symbol)))
	markup.Inline(rows...)
	return "Pick the event to delete:", markup
}

// DividendPickerResponse renders a delete button per dividend record of one
// symbol.
func DividendPickerResponse(item model.StockItem) (text string, markup *tele.ReplyMarkup) {
	markup = &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, len(item.Dividends)+1)
	for _, dividend := range item.Dividends {
		label := fmt.Sprintf("#%d %.2f (%s)", dividend.ID, dividend.Amount, formatDate(dividend.Paydate))
		rows = append(rows, markup.Row(markup.Data(label, tgCallback.DeleteDividendPrefix+item.Properties.Symbol+":"+strconv.FormatInt(dividend.ID, 10))))
	}
	rows = append(rows, markup.Row(markup.Data("⬅️ Back", tgCallback.StockPrefix+item.Properties.Symbol)))
	markup.Inline(rows...)
	return "Pick the dividend to delete:", markup
}

// FilterSetsResponse renders the saved filter sets with apply and delete
// buttons per set.
func FilterSetsResponse(names []string) (text string, markup *tele.ReplyMarkup) {
	markup = &tele.ReplyMarkup{}
	var sb strings.Builder
	sb.WriteString("🔍 Saved filters:\n")
	if len(names) == 0 {
		sb.WriteString("none yet\n")
	}

	rows := make([]tele.Row, 0, len(names)+2)
	for _, name := range names {
		rows = append(rows, markup.Row(
			markup.Data(name, tgCallback.ApplyFilterPrefix+name),
			markup.Data("🗑", tgCallback.DeleteFilterPrefix+name),
		))
	}
	rows = append(rows,
		markup.Row(markup.Data("➕ New filter", tgCallback.NewFilterSet)),
		markup.Row(markup.Data("⬅️ Back", tgCallback.BackToList)),
	)
	markup.Inline(rows...)

	return sb.String(), markup
}

// FilterResultResponse renders the symbols matching a saved filter set.
func FilterResultResponse(name string, items []model.StockItem) (text string, markup *tele.ReplyMarkup) {
	markup = &tele.ReplyMarkup{}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🔍 Filter *%s*: %d match(es)\n\n", name, len(items)))

	rows := make([]tele.Row, 0, len(items)/4+2)
	btns := make([]tele.Btn, 0, len(items))
	for _, item := range items {
		symbol := item.Properties.Symbol
		btns = append(btns, markup.Data(symbol, tgCallback.StockPrefix+symbol))
		sb.WriteString(fmt.Sprintf("**%s** (%s)", symbol, portfolio.DisplayName(item)))
		if item.Quote.Price > 0 {
			sb.WriteString(fmt.Sprintf(" ▸ %.2f (%+.2f%%)", item.Quote.Price, item.Quote.ChangePercent))
		}
		sb.WriteString("\n")
	}
	for len(btns) > 0 {
		n := min(4, len(btns))
		rows = append(rows, markup.Row(btns[:n]...))
		btns = btns[n:]
	}
	rows = append(rows, markup.Row(markup.Data("⬅️ Back", tgCallback.BackToList)))
	markup.Inline(rows...)

	return sb.String(), markup
}

// GroupsResponse renders the color groups with a delete button per group.
// memberCounts holds how many symbols carry each color.
func GroupsResponse(groups []model.Group, memberCounts map[int]int) (text string, markup *tele.ReplyMarkup) {
	markup = &tele.ReplyMarkup{}
	var sb strings.Builder
	sb.WriteString("🎨 Groups:\n")
	if len(groups) == 0 {
		sb.WriteString("none yet\n")
	}

	rows := make([]tele.Row, 0, len(groups)+1)
	for _, group := range groups {
		sb.WriteString(fmt.Sprintf("▸ %s: %d symbol(s)\n", group.Name, memberCounts[group.Color]))
		rows = append(rows, markup.Row(markup.Data("🗑 "+group.Name, tgCallback.DeleteGroupPrefix+strconv.Itoa(group.Color))))
	}
	rows = append(rows, markup.Row(markup.Data("⬅️ Back", tgCallback.BackToList)))
	markup.Inline(rows...)

	return sb.String(), markup
}

// AccountsResponse renders the per-account position breakdown.
func AccountsResponse(subtotals []portfolio.AccountSubtotal) (text string, markup *tele.ReplyMarkup) {
	var sb strings.Builder
	sb.WriteString("🏦 Accounts:\n\n")
	if len(subtotals) == 0 {
		sb.WriteString("no transactions yet\n")
	}
	for _, sub := range subtotals {
		name := sub.Account
		if name == "" {
			name = "Standard account"
		}
		sb.WriteString(fmt.Sprintf("**%s**\n", name))
		sb.WriteString(fmt.Sprintf("   ▸ Symbols: %d, quantity: %s\n", sub.Symbols, trimFloat(sub.Quantity)))
		sb.WriteString(fmt.Sprintf("   ▸ Cost: %.2f, value: %.2f\n", sub.Cost, sub.Value))
		sb.WriteString(fmt.Sprintf("   %s Unrealized: %.2f\n", profitEmoji(sub.Profit), sub.Profit))
	}

	markup = &tele.ReplyMarkup{}
	markup.Inline(markup.Row(markup.Data("⬅️ Back", tgCallback.BackToList)))
	return sb.String(), markup
}

func toggleLabel(name string, enabled bool) string {
	if enabled {
		return "🟢 " + name
	}
	return "🔴 " + name
}

func profitEmoji(profit float64) string {
	if profit < 0 {
		return "🔻"
	}
	return "📈"
}

func sortedYears(years map[int]portfolio.YearGain) []int {
	keys := make([]int, 0, len(years))
	for year := range years {
		keys = append(keys, year)
	}
	sort.Ints(keys)
	return keys
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func formatDate(unix int64) string {
	if unix == 0 {
		return "no date"
	}
	return time.Unix(unix, 0).Format("2006-01-02")
}
