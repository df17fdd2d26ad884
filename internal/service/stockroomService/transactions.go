package stockroomService

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/stockroomapp/stockroom_bot/data/repository"
	"github.com/stockroomapp/stockroom_bot/internal/model"
	"github.com/stockroomapp/stockroom_bot/internal/portfolio"
	"github.com/stockroomapp/stockroom_bot/internal/service"
	"github.com/stockroomapp/stockroom_bot/utils"
)

// AddLot records a buy (positive quantity) or sell (negative quantity).
// Selling more than the open position is rejected. After a sell that closes
// the position, the consumed chain is tagged obsolete so a later purchase
// starts fresh.
func (s *StockroomService) AddLot(ctx context.Context, lot model.Lot) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "StockroomService.AddLot"

	slog.Debug("AddLot start", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", lot.Symbol))
	defer func() {
		slog.Debug("AddLot finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	if lot.Quantity == 0 || lot.Price < 0 {
		return service.ErrInvalidInput
	}

	item, ok := s.store.Get(lot.Symbol)
	if !ok {
		return service.ErrNotFound
	}
	if lot.Quantity < 0 && -lot.Quantity > portfolio.TotalQuantity(item)+1e-9 {
		return service.ErrInvalidInput
	}

	err := s.repo.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.InsertLot(ctx, lot); err != nil {
			return err
		}
		if lot.Quantity < 0 {
			return s.retagObsolete(ctx, lot.Symbol)
		}
		return nil
	})
	if err != nil {
		slog.Error("got error from repo.InsertLot", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	return s.refreshStore(ctx)
}

// DeleteLot removes one transaction and re-derives the obsolete tags of the
// remaining history.
func (s *StockroomService) DeleteLot(ctx context.Context, symbol string, lotID int64) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "StockroomService.DeleteLot"

	slog.Debug("DeleteLot start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("lotID", lotID))
	defer func() {
		slog.Debug("DeleteLot finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	err := s.repo.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.DeleteLot(ctx, lotID); err != nil {
			return err
		}
		return s.retagObsolete(ctx, symbol)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return service.ErrNotFound
		}
		slog.Error("got error from repo.DeleteLot", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	return s.refreshStore(ctx)
}

// retagObsolete recomputes the obsolete bits of a symbol's history and
// persists the ones that changed. Runs inside the caller's transaction.
func (s *StockroomService) retagObsolete(ctx context.Context, symbol string) error {
	lots, err := s.repo.GetLots(ctx, symbol)
	if err != nil {
		return err
	}
	for _, changed := range portfolio.TagObsoleteLots(lots) {
		if err := s.repo.UpdateLotType(ctx, changed.ID, changed.Type); err != nil {
			return err
		}
	}
	return nil
}

func (s *StockroomService) AddEvent(ctx context.Context, event model.Event) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "StockroomService.AddEvent"

	slog.Debug("AddEvent start", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", event.Symbol))
	defer func() {
		slog.Debug("AddEvent finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	if event.Title == "" || event.Datetime == 0 {
		return service.ErrInvalidInput
	}

	if _, err := s.repo.InsertEvent(ctx, event); err != nil {
		slog.Error("got error from repo.InsertEvent", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	return s.refreshStore(ctx)
}

func (s *StockroomService) DeleteEvent(ctx context.Context, eventID int64) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	err := s.repo.DeleteEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return service.ErrNotFound
		}
		slog.Error("got error from repo.DeleteEvent", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return err
	}
	return s.refreshStore(ctx)
}

func (s *StockroomService) AddDividend(ctx context.Context, dividend model.DividendRecord) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "StockroomService.AddDividend"

	slog.Debug("AddDividend start", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", dividend.Symbol))
	defer func() {
		slog.Debug("AddDividend finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	if dividend.Amount <= 0 || dividend.Paydate == 0 {
		return service.ErrInvalidInput
	}

	if _, err := s.repo.InsertDividend(ctx, dividend); err != nil {
		slog.Error("got error from repo.InsertDividend", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	return s.refreshStore(ctx)
}

func (s *StockroomService) DeleteDividend(ctx context.Context, dividendID int64) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	err := s.repo.DeleteDividend(ctx, dividendID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return service.ErrNotFound
		}
		slog.Error("got error from repo.DeleteDividend", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return err
	}
	return s.refreshStore(ctx)
}

// SymbolGains is the realized result of one symbol's lot history.
type SymbolGains struct {
	Symbol string
	Years  map[int]portfolio.YearGain
	Total  portfolio.GainLoss
}

// GetCapitalGains computes FIFO realized gains for every symbol currently in
// the view, plus the portfolio-wide rollup.
func (s *StockroomService) GetCapitalGains(ctx context.Context) (perSymbol []SymbolGains, total portfolio.GainLoss) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "StockroomService.GetCapitalGains"

	slog.Debug("GetCapitalGains start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		slog.Debug("GetCapitalGains finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	items := s.Snapshot(ctx)
	for _, item := range items {
		years := portfolio.CapitalGains(item.Lots)
		if len(years) == 0 {
			continue
		}
		symbolTotal := portfolio.TotalGainLoss(years)
		perSymbol = append(perSymbol, SymbolGains{Symbol: item.Properties.Symbol, Years: years, Total: symbolTotal})
		total.Gain += symbolTotal.Gain
		total.Loss += symbolTotal.Loss
	}
	return perSymbol, total
}

// SymbolDividendSummary couples a symbol with its dividend aggregation.
type SymbolDividendSummary struct {
	Symbol    string
	Summary   portfolio.DividendSummary
	Projected float64
	Upcoming  []model.DividendRecord
}

// GetDividendSummaries aggregates received, projected and upcoming announced
// dividends per symbol over the current view.
func (s *StockroomService) GetDividendSummaries(ctx context.Context) []SymbolDividendSummary {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "StockroomService.GetDividendSummaries"

	slog.Debug("GetDividendSummaries start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		slog.Debug("GetDividendSummaries finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	var summaries []SymbolDividendSummary
	for _, item := range s.Snapshot(ctx) {
		projected := portfolio.ProjectedAnnualDividend(item)
		if len(item.Dividends) == 0 && projected == 0 {
			continue
		}
		summaries = append(summaries, SymbolDividendSummary{
			Symbol:    item.Properties.Symbol,
			Summary:   portfolio.SummarizeDividends(item.Dividends),
			Projected: projected,
			Upcoming:  portfolio.UpcomingPayments(item.Dividends, time.Now()),
		})
	}
	return summaries
}

// PortfolioTotals is the headline aggregation of the current view.
type PortfolioTotals struct {
	AssetValue    float64
	PurchasePrice float64
	Profit        float64
	ProfitPercent float64
	Symbols       int
	WithPosition  int
}

// GetTotals rolls the open positions of the current view into one figure.
func (s *StockroomService) GetTotals(ctx context.Context) PortfolioTotals {
	totals := PortfolioTotals{}
	for _, item := range s.store.Snapshot() {
		totals.Symbols++
		quantity := portfolio.TotalQuantity(item)
		if math.Abs(quantity) < 1e-9 {
			continue
		}
		totals.WithPosition++
		totals.AssetValue += portfolio.AssetValue(item)
		totals.PurchasePrice += portfolio.PurchasePrice(item)
		totals.Profit += portfolio.Profit(item)
	}
	if totals.PurchasePrice > 0 {
		totals.ProfitPercent = totals.Profit / totals.PurchasePrice * 100
	}
	return totals
}

// GetAccountSubtotals breaks the current view down by brokerage account.
func (s *StockroomService) GetAccountSubtotals(ctx context.Context) []portfolio.AccountSubtotal {
	return portfolio.AccountSubtotals(s.store.Snapshot())
}
