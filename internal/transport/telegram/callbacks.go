package telegram

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/stockroomapp/stockroom_bot/internal/converter/telebotConverter"
	"github.com/stockroomapp/stockroom_bot/internal/model"
	tgCallback "github.com/stockroomapp/stockroom_bot/internal/model/tg"
	"github.com/stockroomapp/stockroom_bot/internal/portfolio"
	"github.com/stockroomapp/stockroom_bot/internal/service"
	"github.com/stockroomapp/stockroom_bot/utils"
	tele "gopkg.in/telebot.v4"
)

// DispatchCallback routes inline keyboard presses by their data prefix.
func (ctrl *Controller) DispatchCallback(c tele.Context) error {
	defer func() { _ = c.Respond() }()

	data := strings.TrimPrefix(c.Callback().Data, "\f")

	switch {
	case data == tgCallback.AddStock:
		return ctrl.InitAddStock(c)
	case data == tgCallback.RefreshList, data == tgCallback.BackToList:
		return ctrl.renderSummary(c, 0, true)
	case data == tgCallback.NewPortfolio:
		return ctrl.initDialog(c, model.ExpectingPortfolioName, "", "Enter the portfolio name:")
	case data == tgCallback.TogglePostMarket:
		return ctrl.togglePostMarket(c)
	case data == tgCallback.ToggleNotify:
		return ctrl.toggleNotifications(c)
	case data == tgCallback.ToggleFilterMode:
		return ctrl.toggleFilterMode(c)
	case data == tgCallback.CycleChartRange:
		return ctrl.cycleChartRange(c)
	case data == tgCallback.NewFilterSet:
		return ctrl.initNewFilterSet(c)
	case strings.HasPrefix(data, tgCallback.StockPrefix):
		return ctrl.renderStockDetails(c, strings.TrimPrefix(data, tgCallback.StockPrefix), true)
	case strings.HasPrefix(data, tgCallback.DeleteStockPrefix):
		return ctrl.deleteStock(c, strings.TrimPrefix(data, tgCallback.DeleteStockPrefix))
	case strings.HasPrefix(data, tgCallback.AddLotPrefix):
		symbol := strings.TrimPrefix(data, tgCallback.AddLotPrefix)
		return ctrl.initDialog(c, model.ExpectingLot, symbol, "Enter the lot: [sell] quantity price [fee] [yyyy-mm-dd]")
	case strings.HasPrefix(data, tgCallback.DeleteLotPrefix):
		return ctrl.deleteLot(c, strings.TrimPrefix(data, tgCallback.DeleteLotPrefix))
	case strings.HasPrefix(data, tgCallback.AddEventPrefix):
		symbol := strings.TrimPrefix(data, tgCallback.AddEventPrefix)
		return ctrl.initDialog(c, model.ExpectingEvent, symbol, "Enter the event: yyyy-mm-dd HH:MM title")
	case strings.HasPrefix(data, tgCallback.DeleteEventPrefix):
		return ctrl.deleteEvent(c, strings.TrimPrefix(data, tgCallback.DeleteEventPrefix))
	case strings.HasPrefix(data, tgCallback.AddDividendPrefix):
		symbol := strings.TrimPrefix(data, tgCallback.AddDividendPrefix)
		return ctrl.initDialog(c, model.ExpectingDividend, symbol, "Enter the dividend: amount yyyy-mm-dd [announced]")
	case strings.HasPrefix(data, tgCallback.DeleteDividendPrefix):
		return ctrl.deleteDividend(c, strings.TrimPrefix(data, tgCallback.DeleteDividendPrefix))
	case strings.HasPrefix(data, tgCallback.SetAlertPrefix):
		symbol := strings.TrimPrefix(data, tgCallback.SetAlertPrefix)
		return ctrl.initDialog(c, model.ExpectingAlert, symbol, "Enter the alert: above price [note], below price [note], or clear")
	case strings.HasPrefix(data, tgCallback.SetNotePrefix):
		symbol := strings.TrimPrefix(data, tgCallback.SetNotePrefix)
		return ctrl.initDialog(c, model.ExpectingNote, symbol, "Enter the note (or clear):")
	case strings.HasPrefix(data, tgCallback.SetGroupPrefix):
		symbol := strings.TrimPrefix(data, tgCallback.SetGroupPrefix)
		return ctrl.initDialog(c, model.ExpectingGroup, symbol, "Enter the group name (or clear):")
	case strings.HasPrefix(data, tgCallback.CycleMarkerPrefix):
		return ctrl.cycleMarker(c, strings.TrimPrefix(data, tgCallback.CycleMarkerPrefix))
	case strings.HasPrefix(data, tgCallback.DeleteGroupPrefix):
		return ctrl.deleteGroup(c, strings.TrimPrefix(data, tgCallback.DeleteGroupPrefix))
	case strings.HasPrefix(data, tgCallback.MoveStockPrefix):
		symbol := strings.TrimPrefix(data, tgCallback.MoveStockPrefix)
		return ctrl.initDialog(c, model.ExpectingPortfolioName, symbol, "Enter the target portfolio name:")
	case strings.HasPrefix(data, tgCallback.SortModePrefix):
		return ctrl.selectSortMode(c, strings.TrimPrefix(data, tgCallback.SortModePrefix))
	case strings.HasPrefix(data, tgCallback.SelectPortfolioPrefix):
		return ctrl.selectPortfolio(c, strings.TrimPrefix(data, tgCallback.SelectPortfolioPrefix))
	case strings.HasPrefix(data, tgCallback.PrevPagePrefix):
		return ctrl.showPage(c, strings.TrimPrefix(data, tgCallback.PrevPagePrefix))
	case strings.HasPrefix(data, tgCallback.NextPagePrefix):
		return ctrl.showPage(c, strings.TrimPrefix(data, tgCallback.NextPagePrefix))
	case strings.HasPrefix(data, tgCallback.ApplyFilterPrefix):
		return ctrl.applyFilterSet(c, strings.TrimPrefix(data, tgCallback.ApplyFilterPrefix))
	case strings.HasPrefix(data, tgCallback.DeleteFilterPrefix):
		return ctrl.deleteFilterSet(c, strings.TrimPrefix(data, tgCallback.DeleteFilterPrefix))
	}

	slog.Error("unexpected callback data", slog.String("data", data))
	return nil
}

func (ctrl *Controller) initDialog(c tele.Context, state model.SessionState, symbol, prompt string) error {
	ctx := utils.CreateCtxWithRqID(c)
	chatSession, err := ctrl.getSessionFromTeleCtxOrStorage(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}

	chatSession.State = state
	chatSession.Symbol = symbol
	return ctrl.expectInput(c, chatSession, prompt)
}

func (ctrl *Controller) showPage(c tele.Context, raw string) error {
	page, err := strconv.Atoi(raw)
	if err != nil || page < 0 {
		page = 0
	}
	return ctrl.renderSummary(c, page, true)
}

func (ctrl *Controller) deleteStock(c tele.Context, symbol string) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	err := ctrl.stockroomService.DeleteStock(ctx, symbol)
	if err != nil && !errors.Is(err, service.ErrNotFound) {
		slog.Error("got error from stockroomService.DeleteStock", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}
	return ctrl.renderSummary(c, 0, true)
}

// deleteLot gets either "SYMBOL" (open the picker) or "SYMBOL:ID" (delete
// that lot).
func (ctrl *Controller) deleteLot(c tele.Context, data string) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	symbol, id, hasID := strings.Cut(data, ":")
	if !hasID {
		item, err := ctrl.stockroomService.GetStockDetails(ctx, symbol)
		if err != nil {
			return c.Send(internalErrMsg)
		}
		if len(item.Lots) == 0 {
			return c.Send("no lots recorded for " + symbol)
		}
		text, markup := telebotConverter.LotPickerResponse(item)
		return c.Edit(text, markup)
	}

	lotID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return c.Send(internalErrMsg)
	}
	err = ctrl.stockroomService.DeleteLot(ctx, symbol, lotID)
	if err != nil && !errors.Is(err, service.ErrNotFound) {
		slog.Error("got error from stockroomService.DeleteLot", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}
	return ctrl.renderStockDetails(c, symbol, true)
}

func (ctrl *Controller) deleteEvent(c tele.Context, data string) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	symbol, id, hasID := strings.Cut(data, ":")
	if !hasID {
		item, err := ctrl.stockroomService.GetStockDetails(ctx, symbol)
		if err != nil {
			return c.Send(internalErrMsg)
		}
		if len(item.Events) == 0 {
			return c.Send("no events recorded for " + symbol)
		}
		text, markup := telebotConverter.EventPickerResponse(item)
		return c.Edit(text, markup)
	}

	eventID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return c.Send(internalErrMsg)
	}
	err = ctrl.stockroomService.DeleteEvent(ctx, eventID)
	if err != nil && !errors.Is(err, service.ErrNotFound) {
		slog.Error("got error from stockroomService.DeleteEvent", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}
	return ctrl.renderStockDetails(c, symbol, true)
}

func (ctrl *Controller) deleteDividend(c tele.Context, data string) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	symbol, id, hasID := strings.Cut(data, ":")
	if !hasID {
		item, err := ctrl.stockroomService.GetStockDetails(ctx, symbol)
		if err != nil {
			return c.Send(internalErrMsg)
		}
		if len(item.Dividends) == 0 {
			return c.Send("no dividends recorded for " + symbol)
		}
		text, markup := telebotConverter.DividendPickerResponse(item)
		return c.Edit(text, markup)
	}

	dividendID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return c.Send(internalErrMsg)
	}
	err = ctrl.stockroomService.DeleteDividend(ctx, dividendID)
	if err != nil && !errors.Is(err, service.ErrNotFound) {
		slog.Error("got error from stockroomService.DeleteDividend", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}
	return ctrl.renderStockDetails(c, symbol, true)
}

func (ctrl *Controller) selectSortMode(c tele.Context, raw string) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	value, err := strconv.Atoi(raw)
	if err != nil {
		return c.Send(internalErrMsg)
	}
	mode := portfolio.SortMode(value)
	if err := ctrl.stockroomService.SetSortMode(ctx, mode); err != nil {
		slog.Error("got error from stockroomService.SetSortMode", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	text, markup := telebotConverter.SortModesResponse(mode)
	return c.Edit(text, markup)
}

func (ctrl *Controller) selectPortfolio(c tele.Context, name string) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	if err := ctrl.stockroomService.SelectPortfolio(ctx, name); err != nil {
		slog.Error("got error from stockroomService.SelectPortfolio", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}
	return ctrl.renderSummary(c, 0, true)
}

func (ctrl *Controller) togglePostMarket(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	enabled := !ctrl.stockroomService.GetPostMarketEnabled(ctx)
	if err := ctrl.stockroomService.SetPostMarketEnabled(ctx, enabled); err != nil {
		slog.Error("got error from stockroomService.SetPostMarketEnabled", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}
	return ctrl.renderSettings(c, true)
}

func (ctrl *Controller) toggleNotifications(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	enabled := !ctrl.stockroomService.GetNotificationsEnabled(ctx)
	if err := ctrl.stockroomService.SetNotificationsEnabled(ctx, enabled); err != nil {
		slog.Error("got error from stockroomService.SetNotificationsEnabled", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}
	return ctrl.renderSettings(c, true)
}

func (ctrl *Controller) toggleFilterMode(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	mode := portfolio.FilterModeAnd
	if ctrl.stockroomService.GetFilterMode(ctx) == portfolio.FilterModeAnd {
		mode = portfolio.FilterModeOr
	}
	if err := ctrl.stockroomService.SetFilterMode(ctx, mode); err != nil {
		slog.Error("got error from stockroomService.SetFilterMode", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}
	return ctrl.renderSettings(c, true)
}

func (ctrl *Controller) cycleChartRange(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	next := (ctrl.stockroomService.GetChartRange(ctx) + 1) % len(telebotConverter.ChartRanges)
	if err := ctrl.stockroomService.SetChartRange(ctx, next); err != nil {
		slog.Error("got error from stockroomService.SetChartRange", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}
	return ctrl.renderSettings(c, true)
}
