package stockroomService

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/stockroomapp/stockroom_bot/internal/model"
	"github.com/stockroomapp/stockroom_bot/utils"
)

// ApplyQuotes is the poller's sink. Each batch is cached, optionally
// switched to extended-hours prices, and merged into the store. The merge
// publishes a snapshot, which is what drives the alert evaluation.
func (s *StockroomService) ApplyQuotes(quotes []model.Quote) {
	ctx := utils.NewCtxWithRqID()
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "StockroomService.ApplyQuotes"

	slog.Debug("ApplyQuotes start", slog.String("rqID", rqID), slog.String("op", op), slog.Int("quotes", len(quotes)))
	defer func() {
		slog.Debug("ApplyQuotes finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	if err := s.cache.SetQuotes(ctx, quotes); err != nil {
		slog.Error("got error from cache.SetQuotes", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
	}

	if s.settings.GetPostMarketEnabled(ctx) {
		adjusted := make([]model.Quote, 0, len(quotes))
		for _, quote := range quotes {
			adjusted = append(adjusted, quote.WithExtendedHours())
		}
		quotes = adjusted
	}

	s.store.ApplyQuotes(quotes)
}

// WatchAlerts subscribes to the snapshots the store publishes and evaluates
// the price alerts on each one in a background goroutine, until the context
// is cancelled. The subscription is registered before WatchAlerts returns.
func (s *StockroomService) WatchAlerts(ctx context.Context) {
	snapshots := s.store.Subscribe()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case items := <-snapshots:
				s.checkAlerts(utils.NewCtxWithRqID(), items)
			}
		}
	}()
}

// checkAlerts fires triggered price alerts and clears them so each level
// notifies exactly once. A cleared alert stays cleared even when the price
// keeps crossing the old level. The store refresh after a clear publishes
// again; that pass finds nothing triggered, so the cycle ends there.
func (s *StockroomService) checkAlerts(ctx context.Context, items []model.StockItem) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	if s.notifier == nil || !s.settings.GetNotificationsEnabled(ctx) {
		return
	}

	fired := false
	for _, item := range items {
		quote := item.Quote
		if quote.Price <= 0 {
			continue
		}
		props := item.Properties

		var triggered []model.Alert
		above, aboveNote := props.AlertAbove, props.AlertAboveNote
		below, belowNote := props.AlertBelow, props.AlertBelowNote

		if above > 0 && quote.Price >= above {
			triggered = append(triggered, model.Alert{
				Symbol: props.Symbol, Name: quote.Name,
				AlertAbove: above, Note: aboveNote, Price: quote.Price,
			})
			above, aboveNote = 0, ""
		}
		if below > 0 && quote.Price <= below {
			triggered = append(triggered, model.Alert{
				Symbol: props.Symbol, Name: quote.Name,
				AlertBelow: below, Note: belowNote, Price: quote.Price,
			})
			below, belowNote = 0, ""
		}
		if len(triggered) == 0 {
			continue
		}

		if err := s.repo.UpdateStockAlerts(ctx, props.Symbol, above, aboveNote, below, belowNote); err != nil {
			slog.Error("got error from repo.UpdateStockAlerts", slog.String("rqID", rqID), slog.String("err", err.Error()))
			continue
		}
		fired = true

		for _, alert := range triggered {
			if err := s.notifier.Notify(ctx, formatAlert(alert)); err != nil {
				slog.Error("alert notification failed", slog.String("rqID", rqID), slog.String("symbol", alert.Symbol), slog.String("err", err.Error()))
			}
		}
	}

	if !fired {
		return
	}
	if err := s.refreshStore(ctx); err != nil {
		slog.Error("store refresh after alert clearing failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
	}
}

func formatAlert(alert model.Alert) string {
	name := alert.Name
	if name == "" {
		name = alert.Symbol
	}
	if alert.AlertAbove > 0 {
		text := fmt.Sprintf("%s rose above %.2f (now %.2f)", name, alert.AlertAbove, alert.Price)
		if alert.Note != "" {
			text += "\n" + alert.Note
		}
		return text
	}
	text := fmt.Sprintf("%s dropped below %.2f (now %.2f)", name, alert.AlertBelow, alert.Price)
	if alert.Note != "" {
		text += "\n" + alert.Note
	}
	return text
}

// SweepDueEvents notifies about events whose time has passed and deletes
// them, so each reminder fires once. Wired as a periodic scheduler job.
func (s *StockroomService) SweepDueEvents(ctx context.Context) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "StockroomService.SweepDueEvents"

	slog.Debug("SweepDueEvents start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		slog.Debug("SweepDueEvents finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	due, err := s.repo.GetDueEvents(ctx, time.Now().Unix())
	if err != nil {
		slog.Error("got error from repo.GetDueEvents", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}
	if len(due) == 0 {
		return nil
	}

	notify := s.notifier != nil && s.settings.GetNotificationsEnabled(ctx)
	for _, event := range due {
		if notify {
			text := fmt.Sprintf("%s: %s", event.Symbol, event.Title)
			if event.Note != "" {
				text += "\n" + event.Note
			}
			if err := s.notifier.Notify(ctx, text); err != nil {
				slog.Error("event notification failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
				continue
			}
		}
		if err := s.repo.DeleteEvent(ctx, event.ID); err != nil {
			slog.Error("got error from repo.DeleteEvent", slog.String("rqID", rqID), slog.String("err", err.Error()))
		}
	}

	return s.refreshStore(ctx)
}
