package stockroomService

import (
	"context"
	"errors"
	"log/slog"

	"github.com/stockroomapp/stockroom_bot/config"
	"github.com/stockroomapp/stockroom_bot/data/repository"
	"github.com/stockroomapp/stockroom_bot/internal/impexp"
	"github.com/stockroomapp/stockroom_bot/internal/model"
	"github.com/stockroomapp/stockroom_bot/internal/portfolio"
	"github.com/stockroomapp/stockroom_bot/internal/service"
	"github.com/stockroomapp/stockroom_bot/utils"
)

type Repository interface {
	WithinTransaction(ctx context.Context, tFunc func(ctx context.Context) error) error

	InsertStock(ctx context.Context, props model.StockProperties) error
	UpsertStock(ctx context.Context, props model.StockProperties) error
	GetStock(ctx context.Context, symbol string) (model.StockProperties, error)
	GetAllStocks(ctx context.Context) ([]model.StockProperties, error)
	DeleteStock(ctx context.Context, symbol string) error
	GetPortfolios(ctx context.Context) ([]string, error)
	UpdateStockGroup(ctx context.Context, symbol string, groupColor int) error
	UpdateStockMarker(ctx context.Context, symbol string, marker int) error
	UpdateStockNotes(ctx context.Context, symbol, notes string) error
	UpdateStockAlerts(ctx context.Context, symbol string, above float64, aboveNote string, below float64, belowNote string) error
	UpdateStockPortfolio(ctx context.Context, symbol, portfolio string) error

	InsertLot(ctx context.Context, lot model.Lot) (int64, error)
	DeleteLot(ctx context.Context, lotID int64) error
	UpdateLotType(ctx context.Context, lotID int64, lotType int) error
	GetLots(ctx context.Context, symbol string) ([]model.Lot, error)
	GetAllLots(ctx context.Context) ([]model.SymbolLots, error)

	InsertEvent(ctx context.Context, event model.Event) (int64, error)
	DeleteEvent(ctx context.Context, eventID int64) error
	GetDueEvents(ctx context.Context, before int64) ([]model.Event, error)
	GetAllEvents(ctx context.Context) ([]model.SymbolEvents, error)

	InsertDividend(ctx context.Context, dividend model.DividendRecord) (int64, error)
	DeleteDividend(ctx context.Context, dividendID int64) error
	GetAllDividends(ctx context.Context) ([]model.SymbolDividends, error)

	UpsertGroup(ctx context.Context, group model.Group) error
	GetGroups(ctx context.Context) ([]model.Group, error)
	DeleteGroup(ctx context.Context, color int) error
}

type Cache interface {
	SetQuotes(ctx context.Context, quotes []model.Quote) error
	GetQuotes(ctx context.Context, symbols []string) ([]model.Quote, error)
}

type Settings interface {
	GetSortMode(ctx context.Context) int
	SetSortMode(ctx context.Context, mode int) error
	GetFilterMode(ctx context.Context) int
	SetFilterMode(ctx context.Context, mode int) error
	GetChartRange(ctx context.Context) int
	SetChartRange(ctx context.Context, chartRange int) error
	GetSelectedPortfolio(ctx context.Context) string
	SetSelectedPortfolio(ctx context.Context, portfolio string) error
	GetPostMarketEnabled(ctx context.Context) bool
	SetPostMarketEnabled(ctx context.Context, enabled bool) error
	GetNotificationsEnabled(ctx context.Context) bool
	SetNotificationsEnabled(ctx context.Context, enabled bool) error
	SaveFilterSet(ctx context.Context, name, payload string) error
	GetFilterSet(ctx context.Context, name string) (string, error)
	GetFilterSets(ctx context.Context) (map[string]string, error)
	DeleteFilterSet(ctx context.Context, name string) error
}

// Notifier pushes alert and reminder texts to the user.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// PollTrigger asks the quote poller for an immediate refresh.
type PollTrigger interface {
	PollNow()
}

// StockroomService owns the merged portfolio view and every operation that
// mutates it. Database writes go through the repository first; the in-memory
// store is refreshed from the authoritative rows afterwards, so the view
// never drifts from the tables.
type StockroomService struct {
	cfg      *config.Config
	repo     Repository
	cache    Cache
	settings Settings
	store    *portfolio.Store
	notifier Notifier
	poller   PollTrigger

	reportGenerator ReportGenerator
	cloudStorage    CloudStorage
}

func New(cfg *config.Config, repo Repository, cache Cache, settings Settings, store *portfolio.Store) *StockroomService {
	return &StockroomService{
		cfg:      cfg,
		repo:     repo,
		cache:    cache,
		settings: settings,
		store:    store,
	}
}

// SetNotifier wires the outbound message channel; nil disables notifications.
func (s *StockroomService) SetNotifier(notifier Notifier) {
	s.notifier = notifier
}

// SetPollTrigger wires the poller so mutations can request a fresh quote.
func (s *StockroomService) SetPollTrigger(poller PollTrigger) {
	s.poller = poller
}

// Bootstrap restores the merged view on startup: persisted portfolio
// selection, all four tables, and whatever quotes are still cached.
func (s *StockroomService) Bootstrap(ctx context.Context) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "StockroomService.Bootstrap"

	slog.Debug("Bootstrap start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		slog.Debug("Bootstrap finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	s.store.SetSelectedPortfolio(s.settings.GetSelectedPortfolio(ctx))

	if err := s.refreshStore(ctx); err != nil {
		return err
	}

	cached, err := s.cache.GetQuotes(ctx, s.store.Symbols())
	if err != nil {
		slog.Error("got error from cache.GetQuotes", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
	} else if len(cached) > 0 {
		s.store.ApplyQuotes(cached)
	}

	return nil
}

// refreshStore reloads all database-backed sources into the store. Quotes
// are untouched: they belong to the poller.
func (s *StockroomService) refreshStore(ctx context.Context) error {
	rqID := utils.GetRequestIDFromCtx(ctx)

	stocks, err := s.repo.GetAllStocks(ctx)
	if err != nil {
		slog.Error("got error from repo.GetAllStocks", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return err
	}
	s.store.ApplyProperties(stocks)

	lots, err := s.repo.GetAllLots(ctx)
	if err != nil {
		slog.Error("got error from repo.GetAllLots", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return err
	}
	s.store.ApplyLots(lots)

	events, err := s.repo.GetAllEvents(ctx)
	if err != nil {
		slog.Error("got error from repo.GetAllEvents", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return err
	}
	s.store.ApplyEvents(events)

	dividends, err := s.repo.GetAllDividends(ctx)
	if err != nil {
		slog.Error("got error from repo.GetAllDividends", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return err
	}
	s.store.ApplyDividends(dividends)

	return nil
}

// Snapshot returns the merged view ordered by the persisted sort mode.
func (s *StockroomService) Snapshot(ctx context.Context) []model.StockItem {
	items := s.store.Snapshot()
	portfolio.Sort(items, portfolio.SortMode(s.settings.GetSortMode(ctx)))
	return items
}

// FilteredSnapshot applies the given predicates on top of the sorted view.
// Predicate errors fail closed: the caller gets an empty list and the error.
func (s *StockroomService) FilteredSnapshot(ctx context.Context, predicates []portfolio.FilterPredicate, mode portfolio.FilterMode) ([]model.StockItem, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	items, err := portfolio.Filter(s.store.Snapshot(), predicates, mode)
	if err != nil {
		slog.Error("filter evaluation failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return nil, err
	}
	portfolio.Sort(items, portfolio.SortMode(s.settings.GetSortMode(ctx)))
	return items, nil
}

// GetStockDetails returns a single merged entry.
func (s *StockroomService) GetStockDetails(ctx context.Context, symbol string) (model.StockItem, error) {
	item, ok := s.store.Get(symbol)
	if !ok {
		return model.StockItem{}, service.ErrNotFound
	}
	return item, nil
}

// SetSortMode persists the mode; the next Snapshot call re-sorts the last
// known view without touching the database or the network.
func (s *StockroomService) SetSortMode(ctx context.Context, mode portfolio.SortMode) error {
	return s.settings.SetSortMode(ctx, int(mode))
}

func (s *StockroomService) GetSortMode(ctx context.Context) portfolio.SortMode {
	return portfolio.SortMode(s.settings.GetSortMode(ctx))
}

// SelectPortfolio switches the active partition and reloads the view.
func (s *StockroomService) SelectPortfolio(ctx context.Context, name string) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "StockroomService.SelectPortfolio"

	slog.Debug("SelectPortfolio start", slog.String("rqID", rqID), slog.String("op", op), slog.String("portfolio", name))
	defer func() {
		slog.Debug("SelectPortfolio finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	if err := s.settings.SetSelectedPortfolio(ctx, name); err != nil {
		return err
	}
	s.store.SetSelectedPortfolio(name)

	if err := s.refreshStore(ctx); err != nil {
		return err
	}

	if s.poller != nil {
		s.poller.PollNow()
	}

	return nil
}

func (s *StockroomService) GetPortfolios(ctx context.Context) ([]string, error) {
	return s.repo.GetPortfolios(ctx)
}

func (s *StockroomService) GetSelectedPortfolio(ctx context.Context) string {
	return s.store.SelectedPortfolio()
}

// AddStock registers a new symbol in the selected portfolio.
func (s *StockroomService) AddStock(ctx context.Context, symbol string) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "StockroomService.AddStock"

	slog.Debug("AddStock start", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol))
	defer func() {
		slog.Debug("AddStock finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	symbol = impexp.NormalizeSymbol(symbol)
	if symbol == "" {
		return service.ErrInvalidInput
	}

	props := model.StockProperties{
		Symbol:             symbol,
		Portfolio:          s.store.SelectedPortfolio(),
		AnnualDividendRate: -1,
	}
	err := s.repo.InsertStock(ctx, props)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return service.ErrAlreadyExists
		}
		slog.Error("got error from repo.InsertStock", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	if err := s.refreshStore(ctx); err != nil {
		return err
	}

	if s.poller != nil {
		s.poller.PollNow()
	}

	return nil
}

// DeleteStock removes a symbol and everything attached to it.
func (s *StockroomService) DeleteStock(ctx context.Context, symbol string) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "StockroomService.DeleteStock"

	slog.Debug("DeleteStock start", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol))
	defer func() {
		slog.Debug("DeleteStock finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	err := s.repo.DeleteStock(ctx, symbol)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return service.ErrNotFound
		}
		slog.Error("got error from repo.DeleteStock", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	return s.refreshStore(ctx)
}

// MoveToPortfolio reassigns a symbol to another partition.
func (s *StockroomService) MoveToPortfolio(ctx context.Context, symbol, portfolioName string) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "StockroomService.MoveToPortfolio"

	slog.Debug("MoveToPortfolio start", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol))
	defer func() {
		slog.Debug("MoveToPortfolio finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	err := s.repo.UpdateStockPortfolio(ctx, symbol, portfolioName)
	if err != nil {
		slog.Error("got error from repo.UpdateStockPortfolio", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	return s.refreshStore(ctx)
}

func (s *StockroomService) SetNotes(ctx context.Context, symbol, notes string) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	err := s.repo.UpdateStockNotes(ctx, symbol, notes)
	if err != nil {
		slog.Error("got error from repo.UpdateStockNotes", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return err
	}
	return s.refreshStore(ctx)
}

func (s *StockroomService) SetMarker(ctx context.Context, symbol string, marker int) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	err := s.repo.UpdateStockMarker(ctx, symbol, marker)
	if err != nil {
		slog.Error("got error from repo.UpdateStockMarker", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return err
	}
	return s.refreshStore(ctx)
}

// SetAlerts stores the one-shot price alert levels; zero disables a side.
func (s *StockroomService) SetAlerts(ctx context.Context, symbol string, above float64, aboveNote string, below float64, belowNote string) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	err := s.repo.UpdateStockAlerts(ctx, symbol, above, aboveNote, below, belowNote)
	if err != nil {
		slog.Error("got error from repo.UpdateStockAlerts", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return err
	}
	return s.refreshStore(ctx)
}

// AssignGroup names a color and attaches the symbol to it.
func (s *StockroomService) AssignGroup(ctx context.Context, symbol string, group model.Group) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "StockroomService.AssignGroup"

	slog.Debug("AssignGroup start", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol))
	defer func() {
		slog.Debug("AssignGroup finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	err := s.repo.WithinTransaction(ctx, func(ctx context.Context) error {
		if group.Color != 0 {
			if err := s.repo.UpsertGroup(ctx, group); err != nil {
				return err
			}
		}
		return s.repo.UpdateStockGroup(ctx, symbol, group.Color)
	})
	if err != nil {
		slog.Error("group assignment failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	return s.refreshStore(ctx)
}

func (s *StockroomService) GetGroups(ctx context.Context) ([]model.Group, error) {
	return s.repo.GetGroups(ctx)
}

// DeleteGroup removes the group and detaches every symbol that carried its
// color.
func (s *StockroomService) DeleteGroup(ctx context.Context, color int) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "StockroomService.DeleteGroup"

	slog.Debug("DeleteGroup start", slog.String("rqID", rqID), slog.String("op", op), slog.Int("color", color))
	defer func() {
		slog.Debug("DeleteGroup finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	err := s.repo.WithinTransaction(ctx, func(ctx context.Context) error {
		stocks, err := s.repo.GetAllStocks(ctx)
		if err != nil {
			return err
		}
		for _, stock := range stocks {
			if stock.GroupColor == color {
				if err = s.repo.UpdateStockGroup(ctx, stock.Symbol, 0); err != nil {
					return err
				}
			}
		}
		return s.repo.DeleteGroup(ctx, color)
	})
	if err != nil {
		slog.Error("group deletion failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	return s.refreshStore(ctx)
}

func (s *StockroomService) SetPostMarketEnabled(ctx context.Context, enabled bool) error {
	return s.settings.SetPostMarketEnabled(ctx, enabled)
}

func (s *StockroomService) GetPostMarketEnabled(ctx context.Context) bool {
	return s.settings.GetPostMarketEnabled(ctx)
}

func (s *StockroomService) SetNotificationsEnabled(ctx context.Context, enabled bool) error {
	return s.settings.SetNotificationsEnabled(ctx, enabled)
}

func (s *StockroomService) GetNotificationsEnabled(ctx context.Context) bool {
	return s.settings.GetNotificationsEnabled(ctx)
}

// GetFilterMode is the default combine mode for filters entered without an
// explicit any/all choice.
func (s *StockroomService) GetFilterMode(ctx context.Context) portfolio.FilterMode {
	return portfolio.FilterMode(s.settings.GetFilterMode(ctx))
}

func (s *StockroomService) SetFilterMode(ctx context.Context, mode portfolio.FilterMode) error {
	return s.settings.SetFilterMode(ctx, int(mode))
}

func (s *StockroomService) GetChartRange(ctx context.Context) int {
	return s.settings.GetChartRange(ctx)
}

func (s *StockroomService) SetChartRange(ctx context.Context, chartRange int) error {
	return s.settings.SetChartRange(ctx, chartRange)
}
