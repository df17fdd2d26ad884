package tgCallback

// Callbacks buttons prefixes
const (
	AddStock         string = "add_stock"
	RefreshList      string = "refresh_list"
	NewPortfolio     string = "new_portfolio"
	TogglePostMarket string = "toggle_post_market"
	ToggleNotify     string = "toggle_notify"
	ToggleFilterMode string = "toggle_filter_mode"
	CycleChartRange  string = "cycle_chart_range"
	BackToList       string = "back_to_list"
	NewFilterSet     string = "new_filter_set"

	StockPrefix           string = "stock:"
	DeleteStockPrefix     string = "delete_stock:"
	AddLotPrefix          string = "add_lot:"
	DeleteLotPrefix       string = "delete_lot:"
	AddEventPrefix        string = "add_event:"
	DeleteEventPrefix     string = "delete_event:"
	AddDividendPrefix     string = "add_dividend:"
	DeleteDividendPrefix  string = "delete_dividend:"
	SetAlertPrefix        string = "set_alert:"
	SetNotePrefix         string = "set_note:"
	SetGroupPrefix        string = "set_group:"
	CycleMarkerPrefix     string = "cycle_marker:"
	DeleteGroupPrefix     string = "delete_group:"
	MoveStockPrefix       string = "move_stock:"
	SortModePrefix        string = "sort_mode:"
	SelectPortfolioPrefix string = "select_portfolio:"
	PrevPagePrefix        string = "prev_page:"
	NextPagePrefix        string = "next_page:"
	ApplyFilterPrefix     string = "apply_filter:"
	DeleteFilterPrefix    string = "delete_filter:"
)
