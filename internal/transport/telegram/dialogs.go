package telegram

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/stockroomapp/stockroom_bot/internal/model"
	"github.com/stockroomapp/stockroom_bot/internal/service"
	"github.com/stockroomapp/stockroom_bot/utils"
	tele "gopkg.in/telebot.v4"
)

var errBadInput = errors.New("bad input")

// ProcessAddLot parses "quantity price [fee] [yyyy-mm-dd]". A leading "sell"
// or a negative quantity records a sale.
func (ctrl *Controller) ProcessAddLot(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	chatSession, err := ctrl.getSessionFromTeleCtxOrStorage(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}
	symbol := chatSession.Symbol
	defer ctrl.resetState(ctx, c, chatSession)

	lot, err := parseLot(symbol, c.Message().Text)
	if err != nil {
		return c.Send("expected: [sell] quantity price [fee] [yyyy-mm-dd]")
	}

	err = ctrl.stockroomService.AddLot(ctx, lot)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			return c.Send("cannot record this lot: selling more than you hold, or bad quantity/price")
		}
		slog.Error("got error from stockroomService.AddLot", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	return ctrl.renderStockDetails(c, symbol, false)
}

func parseLot(symbol, text string) (model.Lot, error) {
	fields := strings.Fields(strings.TrimSpace(text))
	sell := false
	if len(fields) > 0 && strings.EqualFold(fields[0], "sell") {
		sell = true
		fields = fields[1:]
	}
	if len(fields) < 2 || len(fields) > 4 {
		return model.Lot{}, errBadInput
	}

	quantity, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return model.Lot{}, errBadInput
	}
	if sell && quantity > 0 {
		quantity = -quantity
	}

	price, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return model.Lot{}, errBadInput
	}

	lot := model.Lot{Symbol: symbol, Quantity: quantity, Price: price, Date: time.Now().Unix()}

	rest := fields[2:]
	if len(rest) > 0 {
		if fee, err := strconv.ParseFloat(rest[0], 64); err == nil {
			lot.Fee = fee
			rest = rest[1:]
		}
	}
	if len(rest) > 0 {
		date, err := time.Parse("2006-01-02", rest[0])
		if err != nil {
			return model.Lot{}, errBadInput
		}
		lot.Date = date.Unix()
	}

	return lot, nil
}

// ProcessAddEvent parses "yyyy-mm-dd HH:MM title...".
func (ctrl *Controller) ProcessAddEvent(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	chatSession, err := ctrl.getSessionFromTeleCtxOrStorage(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}
	symbol := chatSession.Symbol
	defer ctrl.resetState(ctx, c, chatSession)

	fields := strings.Fields(strings.TrimSpace(c.Message().Text))
	if len(fields) < 3 {
		return c.Send("expected: yyyy-mm-dd HH:MM title")
	}
	when, err := time.ParseInLocation("2006-01-02 15:04", fields[0]+" "+fields[1], time.Local)
	if err != nil {
		return c.Send("expected: yyyy-mm-dd HH:MM title")
	}

	event := model.Event{
		Symbol:   symbol,
		Title:    strings.Join(fields[2:], " "),
		Datetime: when.Unix(),
	}
	err = ctrl.stockroomService.AddEvent(ctx, event)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			return c.Send("the event needs a title and a date")
		}
		slog.Error("got error from stockroomService.AddEvent", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	return ctrl.renderStockDetails(c, symbol, false)
}

// ProcessAddDividend parses "amount yyyy-mm-dd [announced]".
func (ctrl *Controller) ProcessAddDividend(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	chatSession, err := ctrl.getSessionFromTeleCtxOrStorage(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}
	symbol := chatSession.Symbol
	defer ctrl.resetState(ctx, c, chatSession)

	fields := strings.Fields(strings.TrimSpace(c.Message().Text))
	if len(fields) < 2 || len(fields) > 3 {
		return c.Send("expected: amount yyyy-mm-dd [announced]")
	}

	amount, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return c.Send("expected: amount yyyy-mm-dd [announced]")
	}
	paydate, err := time.Parse("2006-01-02", fields[1])
	if err != nil {
		return c.Send("expected: amount yyyy-mm-dd [announced]")
	}

	dividend := model.DividendRecord{
		Symbol:  symbol,
		Amount:  amount,
		Paydate: paydate.Unix(),
	}
	if len(fields) == 3 {
		if !strings.EqualFold(fields[2], "announced") {
			return c.Send("expected: amount yyyy-mm-dd [announced]")
		}
		dividend.Type = model.DividendAnnounced
	}

	err = ctrl.stockroomService.AddDividend(ctx, dividend)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			return c.Send("the dividend needs a positive amount")
		}
		slog.Error("got error from stockroomService.AddDividend", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	return ctrl.renderStockDetails(c, symbol, false)
}

// ProcessAlert parses "above price [note]", "below price [note]" or "clear".
// Setting one side keeps the other untouched.
func (ctrl *Controller) ProcessAlert(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	chatSession, err := ctrl.getSessionFromTeleCtxOrStorage(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}
	symbol := chatSession.Symbol
	defer ctrl.resetState(ctx, c, chatSession)

	item, err := ctrl.stockroomService.GetStockDetails(ctx, symbol)
	if err != nil {
		slog.Error("got error from stockroomService.GetStockDetails", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	above := item.Properties.AlertAbove
	aboveNote := item.Properties.AlertAboveNote
	below := item.Properties.AlertBelow
	belowNote := item.Properties.AlertBelowNote

	fields := strings.Fields(strings.TrimSpace(c.Message().Text))
	switch {
	case len(fields) == 1 && strings.EqualFold(fields[0], "clear"):
		above, aboveNote, below, belowNote = 0, "", 0, ""
	case len(fields) >= 2 && strings.EqualFold(fields[0], "above"):
		above, err = strconv.ParseFloat(fields[1], 64)
		if err != nil || above <= 0 {
			return c.Send("expected: above price [note], below price [note], or clear")
		}
		aboveNote = strings.Join(fields[2:], " ")
	case len(fields) >= 2 && strings.EqualFold(fields[0], "below"):
		below, err = strconv.ParseFloat(fields[1], 64)
		if err != nil || below <= 0 {
			return c.Send("expected: above price [note], below price [note], or clear")
		}
		belowNote = strings.Join(fields[2:], " ")
	default:
		return c.Send("expected: above price [note], below price [note], or clear")
	}

	err = ctrl.stockroomService.SetAlerts(ctx, symbol, above, aboveNote, below, belowNote)
	if err != nil {
		slog.Error("got error from stockroomService.SetAlerts", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	return ctrl.renderStockDetails(c, symbol, false)
}

// ProcessNote stores the message as the symbol's note; "clear" removes it.
func (ctrl *Controller) ProcessNote(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	chatSession, err := ctrl.getSessionFromTeleCtxOrStorage(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}
	symbol := chatSession.Symbol
	defer ctrl.resetState(ctx, c, chatSession)

	notes := strings.TrimSpace(c.Message().Text)
	if strings.EqualFold(notes, "clear") {
		notes = ""
	}

	err = ctrl.stockroomService.SetNotes(ctx, symbol, notes)
	if err != nil {
		slog.Error("got error from stockroomService.SetNotes", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	return ctrl.renderStockDetails(c, symbol, false)
}

// ProcessPortfolioName handles the free-text portfolio dialog. With a symbol
// in the session it moves that symbol; otherwise it creates the portfolio by
// selecting it.
func (ctrl *Controller) ProcessPortfolioName(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	chatSession, err := ctrl.getSessionFromTeleCtxOrStorage(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}
	symbol := chatSession.Symbol
	defer ctrl.resetState(ctx, c, chatSession)

	name := strings.TrimSpace(c.Message().Text)

	if symbol != "" {
		err = ctrl.stockroomService.MoveToPortfolio(ctx, symbol, name)
		if err != nil {
			slog.Error("got error from stockroomService.MoveToPortfolio", slog.String("rqID", rqID), slog.String("err", err.Error()))
			return c.Send(internalErrMsg)
		}
		return ctrl.renderStockDetails(c, symbol, false)
	}

	err = ctrl.stockroomService.SelectPortfolio(ctx, name)
	if err != nil {
		slog.Error("got error from stockroomService.SelectPortfolio", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}
	return ctrl.renderSummary(c, 0, false)
}
