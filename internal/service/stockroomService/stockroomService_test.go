package stockroomService

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stockroomapp/stockroom_bot/config"
	"github.com/stockroomapp/stockroom_bot/data/repository"
	"github.com/stockroomapp/stockroom_bot/data/settings"
	"github.com/stockroomapp/stockroom_bot/internal/model"
	"github.com/stockroomapp/stockroom_bot/internal/portfolio"
	"github.com/stockroomapp/stockroom_bot/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	mu        sync.Mutex
	stocks    map[string]model.StockProperties
	lots      map[int64]model.Lot
	events    map[int64]model.Event
	dividends map[int64]model.DividendRecord
	groups    map[int]model.Group
	nextID    int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		stocks:    make(map[string]model.StockProperties),
		lots:      make(map[int64]model.Lot),
		events:    make(map[int64]model.Event),
		dividends: make(map[int64]model.DividendRecord),
		groups:    make(map[int]model.Group),
	}
}

func (r *fakeRepo) WithinTransaction(ctx context.Context, tFunc func(ctx context.Context) error) error {
	return tFunc(ctx)
}

func (r *fakeRepo) InsertStock(ctx context.Context, props model.StockProperties) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.stocks[props.Symbol]; ok {
		return repository.ErrAlreadyExists
	}
	r.stocks[props.Symbol] = props
	return nil
}

func (r *fakeRepo) UpsertStock(ctx context.Context, props model.StockProperties) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stocks[props.Symbol] = props
	return nil
}

func (r *fakeRepo) GetStock(ctx context.Context, symbol string) (model.StockProperties, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	props, ok := r.stocks[symbol]
	if !ok {
		return model.StockProperties{}, repository.ErrNotFound
	}
	return props, nil
}

func (r *fakeRepo) GetAllStocks(ctx context.Context) ([]model.StockProperties, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.StockProperties, 0, len(r.stocks))
	for _, props := range r.stocks {
		out = append(out, props)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func (r *fakeRepo) DeleteStock(ctx context.Context, symbol string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.stocks[symbol]; !ok {
		return repository.ErrNotFound
	}
	delete(r.stocks, symbol)
	for id, lot := range r.lots {
		if lot.Symbol == symbol {
			delete(r.lots, id)
		}
	}
	return nil
}

func (r *fakeRepo) GetPortfolios(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[string]struct{})
	var out []string
	for _, props := range r.stocks {
		if props.Portfolio == "" {
			continue
		}
		if _, ok := seen[props.Portfolio]; !ok {
			seen[props.Portfolio] = struct{}{}
			out = append(out, props.Portfolio)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *fakeRepo) updateStock(symbol string, update func(*model.StockProperties)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	props, ok := r.stocks[symbol]
	if !ok {
		return repository.ErrNotFound
	}
	update(&props)
	r.stocks[symbol] = props
	return nil
}

func (r *fakeRepo) UpdateStockGroup(ctx context.Context, symbol string, groupColor int) error {
	return r.updateStock(symbol, func(p *model.StockProperties) { p.GroupColor = groupColor })
}

func (r *fakeRepo) UpdateStockMarker(ctx context.Context, symbol string, marker int) error {
	return r.updateStock(symbol, func(p *model.StockProperties) { p.Marker = marker })
}

func (r *fakeRepo) UpdateStockNotes(ctx context.Context, symbol, notes string) error {
	return r.updateStock(symbol, func(p *model.StockProperties) { p.Notes = notes })
}

func (r *fakeRepo) UpdateStockAlerts(ctx context.Context, symbol string, above float64, aboveNote string, below float64, belowNote string) error {
	return r.updateStock(symbol, func(p *model.StockProperties) {
		p.AlertAbove = above
		p.AlertAboveNote = aboveNote
		p.AlertBelow = below
		p.AlertBelowNote = belowNote
	})
}

func (r *fakeRepo) UpdateStockPortfolio(ctx context.Context, symbol, portfolio string) error {
	return r.updateStock(symbol, func(p *model.StockProperties) { p.Portfolio = portfolio })
}

func (r *fakeRepo) InsertLot(ctx context.Context, lot model.Lot) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	lot.ID = r.nextID
	r.lots[lot.ID] = lot
	return lot.ID, nil
}

func (r *fakeRepo) DeleteLot(ctx context.Context, lotID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.lots[lotID]; !ok {
		return repository.ErrNotFound
	}
	delete(r.lots, lotID)
	return nil
}

func (r *fakeRepo) UpdateLotType(ctx context.Context, lotID int64, lotType int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	lot, ok := r.lots[lotID]
	if !ok {
		return repository.ErrNotFound
	}
	lot.Type = lotType
	r.lots[lotID] = lot
	return nil
}

func (r *fakeRepo) GetLots(ctx context.Context, symbol string) ([]model.Lot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Lot
	for _, lot := range r.lots {
		if lot.Symbol == symbol {
			out = append(out, lot)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *fakeRepo) GetAllLots(ctx context.Context) ([]model.SymbolLots, error) {
	stocks, _ := r.GetAllStocks(ctx)
	var out []model.SymbolLots
	for _, props := range stocks {
		lots, _ := r.GetLots(ctx, props.Symbol)
		if len(lots) > 0 {
			out = append(out, model.SymbolLots{Properties: props, Lots: lots})
		}
	}
	return out, nil
}

func (r *fakeRepo) InsertEvent(ctx context.Context, event model.Event) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	event.ID = r.nextID
	r.events[event.ID] = event
	return event.ID, nil
}

func (r *fakeRepo) DeleteEvent(ctx context.Context, eventID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[eventID]; !ok {
		return repository.ErrNotFound
	}
	delete(r.events, eventID)
	return nil
}

func (r *fakeRepo) GetDueEvents(ctx context.Context, before int64) ([]model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Event
	for _, event := range r.events {
		if event.Datetime <= before {
			out = append(out, event)
		}
	}
	return out, nil
}

func (r *fakeRepo) GetAllEvents(ctx context.Context) ([]model.SymbolEvents, error) {
	stocks, _ := r.GetAllStocks(ctx)
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.SymbolEvents
	for _, props := range stocks {
		var events []model.Event
		for _, event := range r.events {
			if event.Symbol == props.Symbol {
				events = append(events, event)
			}
		}
		if len(events) > 0 {
			out = append(out, model.SymbolEvents{Properties: props, Events: events})
		}
	}
	return out, nil
}

func (r *fakeRepo) InsertDividend(ctx context.Context, dividend model.DividendRecord) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	dividend.ID = r.nextID
	r.dividends[dividend.ID] = dividend
	return dividend.ID, nil
}

func (r *fakeRepo) DeleteDividend(ctx context.Context, dividendID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.dividends[dividendID]; !ok {
		return repository.ErrNotFound
	}
	delete(r.dividends, dividendID)
	return nil
}

func (r *fakeRepo) GetAllDividends(ctx context.Context) ([]model.SymbolDividends, error) {
	stocks, _ := r.GetAllStocks(ctx)
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.SymbolDividends
	for _, props := range stocks {
		var dividends []model.DividendRecord
		for _, dividend := range r.dividends {
			if dividend.Symbol == props.Symbol {
				dividends = append(dividends, dividend)
			}
		}
		if len(dividends) > 0 {
			out = append(out, model.SymbolDividends{Properties: props, Dividends: dividends})
		}
	}
	return out, nil
}

func (r *fakeRepo) UpsertGroup(ctx context.Context, group model.Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groups[group.Color] = group
	return nil
}

func (r *fakeRepo) GetGroups(ctx context.Context) ([]model.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Group, 0, len(r.groups))
	for _, group := range r.groups {
		out = append(out, group)
	}
	return out, nil
}

func (r *fakeRepo) DeleteGroup(ctx context.Context, color int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.groups, color)
	return nil
}

type fakeCache struct {
	mu     sync.Mutex
	quotes map[string]model.Quote
}

func newFakeCache() *fakeCache {
	return &fakeCache{quotes: make(map[string]model.Quote)}
}

func (c *fakeCache) SetQuotes(ctx context.Context, quotes []model.Quote) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, quote := range quotes {
		c.quotes[quote.Symbol] = quote
	}
	return nil
}

func (c *fakeCache) GetQuotes(ctx context.Context, symbols []string) ([]model.Quote, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []model.Quote
	for _, symbol := range symbols {
		if quote, ok := c.quotes[symbol]; ok {
			out = append(out, quote)
		}
	}
	return out, nil
}

type fakeSettings struct {
	sortMode      int
	filterMode    int
	chartRange    int
	selected      string
	postMarket    bool
	notifications bool
	filterSets    map[string]string
}

func (s *fakeSettings) GetSortMode(ctx context.Context) int               { return s.sortMode }
func (s *fakeSettings) SetSortMode(ctx context.Context, mode int) error   { s.sortMode = mode; return nil }
func (s *fakeSettings) GetFilterMode(ctx context.Context) int             { return s.filterMode }
func (s *fakeSettings) SetFilterMode(ctx context.Context, mode int) error { s.filterMode = mode; return nil }
func (s *fakeSettings) GetChartRange(ctx context.Context) int             { return s.chartRange }
func (s *fakeSettings) SetChartRange(ctx context.Context, chartRange int) error {
	s.chartRange = chartRange
	return nil
}
func (s *fakeSettings) GetSelectedPortfolio(ctx context.Context) string   { return s.selected }
func (s *fakeSettings) SetSelectedPortfolio(ctx context.Context, portfolio string) error {
	s.selected = portfolio
	return nil
}
func (s *fakeSettings) GetPostMarketEnabled(ctx context.Context) bool { return s.postMarket }
func (s *fakeSettings) SetPostMarketEnabled(ctx context.Context, enabled bool) error {
	s.postMarket = enabled
	return nil
}
func (s *fakeSettings) GetNotificationsEnabled(ctx context.Context) bool { return s.notifications }
func (s *fakeSettings) SetNotificationsEnabled(ctx context.Context, enabled bool) error {
	s.notifications = enabled
	return nil
}

func (s *fakeSettings) SaveFilterSet(ctx context.Context, name, payload string) error {
	if s.filterSets == nil {
		s.filterSets = make(map[string]string)
	}
	s.filterSets[name] = payload
	return nil
}

func (s *fakeSettings) GetFilterSet(ctx context.Context, name string) (string, error) {
	payload, ok := s.filterSets[name]
	if !ok {
		return "", settings.ErrNotFound
	}
	return payload, nil
}

func (s *fakeSettings) GetFilterSets(ctx context.Context) (map[string]string, error) {
	return s.filterSets, nil
}

func (s *fakeSettings) DeleteFilterSet(ctx context.Context, name string) error {
	delete(s.filterSets, name)
	return nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *fakeNotifier) Notify(ctx context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, text)
	return nil
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

type fakeTrigger struct {
	polls int
}

func (t *fakeTrigger) PollNow() { t.polls++ }

func newTestService(t *testing.T) (*StockroomService, *fakeRepo, *fakeNotifier, *fakeTrigger) {
	t.Helper()
	repo := newFakeRepo()
	notifier := &fakeNotifier{}
	trigger := &fakeTrigger{}
	cfg := &config.Config{ImportLimit: 100}
	srv := New(cfg, repo, newFakeCache(), &fakeSettings{notifications: true, sortMode: int(portfolio.SortBySymbol)}, portfolio.NewStore())
	srv.SetNotifier(notifier)
	srv.SetPollTrigger(trigger)
	return srv, repo, notifier, trigger
}

func symbols(items []model.StockItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Properties.Symbol)
	}
	return out
}

func TestAddStock(t *testing.T) {
	srv, _, _, trigger := newTestService(t)
	ctx := context.Background()

	require.NoError(t, srv.AddStock(ctx, "aapl"))
	assert.Equal(t, []string{"AAPL"}, symbols(srv.Snapshot(ctx)))
	assert.Equal(t, 1, trigger.polls)

	err := srv.AddStock(ctx, "AAPL")
	assert.ErrorIs(t, err, service.ErrAlreadyExists)

	err = srv.AddStock(ctx, "not a symbol!")
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestAddLotRejectsOversell(t *testing.T) {
	srv, _, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, srv.AddStock(ctx, "AAPL"))
	require.NoError(t, srv.AddLot(ctx, model.Lot{Symbol: "AAPL", Quantity: 10, Price: 5, Date: 100}))

	err := srv.AddLot(ctx, model.Lot{Symbol: "AAPL", Quantity: -11, Price: 8, Date: 200})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	require.NoError(t, srv.AddLot(ctx, model.Lot{Symbol: "AAPL", Quantity: -4, Price: 8, Date: 200}))

	item, err := srv.GetStockDetails(ctx, "AAPL")
	require.NoError(t, err)
	assert.InDelta(t, 6, portfolio.TotalQuantity(item), 1e-9)
}

func TestAddLotClosingSellTagsChain(t *testing.T) {
	srv, repo, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, srv.AddStock(ctx, "AAPL"))
	require.NoError(t, srv.AddLot(ctx, model.Lot{Symbol: "AAPL", Quantity: 10, Price: 5, Date: 100}))
	require.NoError(t, srv.AddLot(ctx, model.Lot{Symbol: "AAPL", Quantity: -10, Price: 8, Date: 200}))

	lots, err := repo.GetLots(ctx, "AAPL")
	require.NoError(t, err)
	require.Len(t, lots, 2)
	for _, lot := range lots {
		assert.NotZero(t, lot.Type&model.LotMarkObsolete, "lot %d should be tagged", lot.ID)
	}

	// the closed chain still reports its realized gain
	_, total := srv.GetCapitalGains(ctx)
	assert.InDelta(t, 30, total.Gain, 1e-9)
}

func TestAlertFiresExactlyOnce(t *testing.T) {
	srv, repo, notifier, _ := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv.WatchAlerts(ctx)

	require.NoError(t, srv.AddStock(ctx, "AAPL"))
	require.NoError(t, srv.SetAlerts(ctx, "AAPL", 100, "sell it", 0, ""))

	srv.ApplyQuotes([]model.Quote{{Symbol: "AAPL", Price: 101, Name: "Apple"}})
	require.Eventually(t, func() bool { return notifier.count() == 1 }, time.Second, 10*time.Millisecond)

	props, err := repo.GetStock(ctx, "AAPL")
	require.NoError(t, err)
	assert.Zero(t, props.AlertAbove)
	assert.Equal(t, 0.0, props.AlertBelow)

	srv.ApplyQuotes([]model.Quote{{Symbol: "AAPL", Price: 102, Name: "Apple"}})
	assert.Never(t, func() bool { return notifier.count() > 1 }, 200*time.Millisecond, 10*time.Millisecond)
}

func TestAlertBelowKeepsAboveSide(t *testing.T) {
	srv, repo, notifier, _ := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv.WatchAlerts(ctx)

	require.NoError(t, srv.AddStock(ctx, "AAPL"))
	require.NoError(t, srv.SetAlerts(ctx, "AAPL", 200, "", 100, ""))

	srv.ApplyQuotes([]model.Quote{{Symbol: "AAPL", Price: 90}})
	require.Eventually(t, func() bool { return notifier.count() == 1 }, time.Second, 10*time.Millisecond)

	props, err := repo.GetStock(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 200.0, props.AlertAbove)
	assert.Zero(t, props.AlertBelow)
}

func TestSelectPortfolioPartitionsView(t *testing.T) {
	srv, _, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, srv.AddStock(ctx, "AAPL"))
	require.NoError(t, srv.AddStock(ctx, "MSFT"))
	require.NoError(t, srv.MoveToPortfolio(ctx, "MSFT", "retirement"))

	require.NoError(t, srv.SelectPortfolio(ctx, "retirement"))
	assert.Equal(t, []string{"MSFT"}, symbols(srv.Snapshot(ctx)))
	assert.Equal(t, "retirement", srv.GetSelectedPortfolio(ctx))

	// the standard portfolio is a partition of its own, not "show all"
	require.NoError(t, srv.SelectPortfolio(ctx, ""))
	assert.Equal(t, []string{"AAPL"}, symbols(srv.Snapshot(ctx)))
}

func TestImportJSON(t *testing.T) {
	srv, repo, _, _ := newTestService(t)
	ctx := context.Background()

	data := []byte(`[
		{
			"symbol": "AAPL",
			"name": "Apple Inc.",
			"assets": [{"quantity": 10, "price": 5.5, "fee": 1}],
			"dividends": [{"amount": 2.5, "paydate": 1700000000}]
		},
		{"symbol": "MSFT"}
	]`)

	stats, err := srv.Import(ctx, "backup.json", data)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Symbols)
	assert.Equal(t, 1, stats.Lots)
	assert.Equal(t, 1, stats.Dividends)

	assert.Equal(t, []string{"AAPL", "MSFT"}, symbols(srv.Snapshot(ctx)))

	lots, err := repo.GetLots(ctx, "AAPL")
	require.NoError(t, err)
	require.Len(t, lots, 1)
	assert.Equal(t, 5.5, lots[0].Price)
}

func TestImportRejectsUnknownExtension(t *testing.T) {
	srv, _, _, _ := newTestService(t)

	_, err := srv.Import(context.Background(), "backup.xml", []byte("<xml/>"))
	assert.ErrorIs(t, err, service.ErrImportFormat)
}

func TestExportRoundTrip(t *testing.T) {
	srv, _, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, srv.AddStock(ctx, "AAPL"))
	require.NoError(t, srv.AddLot(ctx, model.Lot{Symbol: "AAPL", Quantity: 3, Price: 7, Date: 100}))

	data, err := srv.ExportJSON(ctx)
	require.NoError(t, err)

	other, _, _, _ := newTestService(t)
	stats, err := other.Import(ctx, "backup.json", data)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Symbols)
	assert.Equal(t, 1, stats.Lots)
}

func TestSweepDueEvents(t *testing.T) {
	srv, repo, notifier, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, srv.AddStock(ctx, "AAPL"))
	require.NoError(t, srv.AddEvent(ctx, model.Event{Symbol: "AAPL", Title: "earnings call", Datetime: 1}))

	require.NoError(t, srv.SweepDueEvents(ctx))
	assert.Equal(t, 1, notifier.count())

	due, err := repo.GetDueEvents(ctx, 1<<62)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestFilterSetLifecycle(t *testing.T) {
	srv, _, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, srv.AddStock(ctx, "AAPL"))
	require.NoError(t, srv.AddStock(ctx, "MSFT"))

	err := srv.SaveFilterSet(ctx, portfolio.FilterSet{Name: "apple only"})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	set := portfolio.FilterSet{
		Name: "apple only",
		Mode: portfolio.FilterModeAnd,
		Predicates: []portfolio.FilterPredicate{
			{Field: portfolio.FieldSymbol, Op: portfolio.OpContains, Text: "AAP"},
		},
	}
	require.NoError(t, srv.SaveFilterSet(ctx, set))

	names, err := srv.ListFilterSets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"apple only"}, names)

	loaded, err := srv.GetFilterSet(ctx, "apple only")
	require.NoError(t, err)
	assert.Equal(t, set, loaded)

	items, err := srv.ApplyFilterSet(ctx, "apple only")
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL"}, symbols(items))

	require.NoError(t, srv.DeleteFilterSet(ctx, "apple only"))
	_, err = srv.GetFilterSet(ctx, "apple only")
	assert.ErrorIs(t, err, service.ErrNotFound)
	_, err = srv.ApplyFilterSet(ctx, "apple only")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestDividendSummariesListUpcomingPayments(t *testing.T) {
	srv, _, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, srv.AddStock(ctx, "AAPL"))

	past := time.Now().Add(-30 * 24 * time.Hour).Unix()
	future := time.Now().Add(14 * 24 * time.Hour).Unix()
	require.NoError(t, srv.AddDividend(ctx, model.DividendRecord{Symbol: "AAPL", Amount: 0.24, Paydate: past}))
	require.NoError(t, srv.AddDividend(ctx, model.DividendRecord{Symbol: "AAPL", Amount: 0.25, Type: model.DividendAnnounced, Paydate: future}))

	summaries := srv.GetDividendSummaries(ctx)
	require.Len(t, summaries, 1)
	require.Len(t, summaries[0].Upcoming, 1)
	assert.InDelta(t, 0.25, summaries[0].Upcoming[0].Amount, 1e-9)
	assert.Equal(t, future, summaries[0].Upcoming[0].Paydate)
}

func TestFilterModeAndChartRangePersist(t *testing.T) {
	srv, _, _, _ := newTestService(t)
	ctx := context.Background()

	assert.Equal(t, portfolio.FilterModeAnd, srv.GetFilterMode(ctx))
	require.NoError(t, srv.SetFilterMode(ctx, portfolio.FilterModeOr))
	assert.Equal(t, portfolio.FilterModeOr, srv.GetFilterMode(ctx))

	assert.Equal(t, 0, srv.GetChartRange(ctx))
	require.NoError(t, srv.SetChartRange(ctx, 3))
	assert.Equal(t, 3, srv.GetChartRange(ctx))
}

func TestAccountSubtotals(t *testing.T) {
	srv, _, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, srv.AddStock(ctx, "AAPL"))
	require.NoError(t, srv.AddStock(ctx, "MSFT"))
	require.NoError(t, srv.AddLot(ctx, model.Lot{Symbol: "AAPL", Quantity: 10, Price: 100, Fee: 5, Account: "broker"}))
	require.NoError(t, srv.AddLot(ctx, model.Lot{Symbol: "MSFT", Quantity: 2, Price: 50, Account: "broker"}))
	require.NoError(t, srv.AddLot(ctx, model.Lot{Symbol: "AAPL", Quantity: 1, Price: 90}))

	subtotals := srv.GetAccountSubtotals(ctx)
	require.Len(t, subtotals, 2)

	assert.Equal(t, "", subtotals[0].Account)
	assert.Equal(t, 1, subtotals[0].Symbols)
	assert.InDelta(t, 90.0, subtotals[0].Cost, 1e-9)

	assert.Equal(t, "broker", subtotals[1].Account)
	assert.Equal(t, 2, subtotals[1].Symbols)
	assert.InDelta(t, 12.0, subtotals[1].Quantity, 1e-9)
	assert.InDelta(t, 10*100+5+2*50.0, subtotals[1].Cost, 1e-9)
}

func TestAssignAndDeleteGroup(t *testing.T) {
	srv, _, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, srv.AddStock(ctx, "AAPL"))
	require.NoError(t, srv.AddStock(ctx, "MSFT"))

	group := model.Group{Color: 4294198070, Name: "Red"}
	require.NoError(t, srv.AssignGroup(ctx, "AAPL", group))

	item, err := srv.GetStockDetails(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, group.Color, item.Properties.GroupColor)

	groups, err := srv.GetGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "Red", groups[0].Name)

	require.NoError(t, srv.DeleteGroup(ctx, group.Color))

	item, err = srv.GetStockDetails(ctx, "AAPL")
	require.NoError(t, err)
	assert.Zero(t, item.Properties.GroupColor)

	groups, err = srv.GetGroups(ctx)
	require.NoError(t, err)
	assert.Empty(t, groups)
}
