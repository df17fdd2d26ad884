package tgbot

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/stockroomapp/stockroom_bot/config"
	"github.com/stockroomapp/stockroom_bot/internal/model"
	"github.com/stockroomapp/stockroom_bot/internal/transport/telegram"
	customMW "github.com/stockroomapp/stockroom_bot/internal/transport/telegram/middleware"
	"github.com/stockroomapp/stockroom_bot/utils"
	tele "gopkg.in/telebot.v4"
	"gopkg.in/telebot.v4/middleware"
)

type Session interface {
	GetSession(ctx context.Context, key string) (model.Session, error)
	SetSession(ctx context.Context, key string, session model.Session) error
}

type TGBot struct {
	bot     *tele.Bot
	ctrl    *telegram.Controller
	session Session
	chatID  int64
}

func New(cfg *config.Config, ctrl *telegram.Controller, session Session) *TGBot {
	settings := tele.Settings{
		Token:  cfg.Telegram.Token,
		Poller: &tele.LongPoller{Timeout: cfg.Telegram.UpdTimeout},
	}

	b, err := tele.NewBot(settings)
	if err != nil {
		slog.Error("error while tele.NewBot", slog.String("err", err.Error()))
		panic(err)
	}

	return &TGBot{bot: b, ctrl: ctrl, session: session, chatID: cfg.Telegram.ChatID}
}

func (b *TGBot) Start() {
	b.bot.Use(middleware.Recover(), customMW.Logger())

	b.setupRoutes()

	go b.bot.Start()
	slog.Info("tgbot started!")
}

func (b *TGBot) Stop() {
	slog.Info("start stopping tgbot")
	b.bot.Stop()
	slog.Info("tgbot stopped")
}

// Notify pushes alert and reminder texts to the configured chat.
func (b *TGBot) Notify(ctx context.Context, text string) error {
	_, err := b.bot.Send(&tele.Chat{ID: b.chatID}, text)
	return err
}

func (b *TGBot) setupRoutes() {
	b.bot.Handle(tele.OnText, func(c tele.Context) error {
		// choose the controller method based on the dialog state
		ctx := utils.CreateCtxWithRqID(c)
		rqID := utils.GetRequestIDFromCtx(ctx)
		chatSession, err := b.session.GetSession(ctx, strconv.FormatInt(c.Chat().ID, 10))
		if err != nil {
			slog.Error("got error from session.GetSession", slog.String("rqID", rqID), slog.String("err", err.Error()))
			return c.Send("something went wrong...")
		}

		c.Set("session", chatSession)

		switch chatSession.State {
		case model.ExpectingSymbol:
			return b.ctrl.ProcessAddStock(c)
		case model.ExpectingLot:
			return b.ctrl.ProcessAddLot(c)
		case model.ExpectingPortfolioName:
			return b.ctrl.ProcessPortfolioName(c)
		case model.ExpectingEvent:
			return b.ctrl.ProcessAddEvent(c)
		case model.ExpectingDividend:
			return b.ctrl.ProcessAddDividend(c)
		case model.ExpectingAlert:
			return b.ctrl.ProcessAlert(c)
		case model.ExpectingNote:
			return b.ctrl.ProcessNote(c)
		case model.ExpectingFilter:
			return b.ctrl.ProcessFilterSet(c)
		case model.ExpectingGroup:
			return b.ctrl.ProcessGroup(c)
		default:
			slog.Error("unexpected chatSession state", slog.String("rqID", rqID), slog.Any("state", chatSession.State))
			return c.Send("enter one of the commands first, /start lists them")
		}
	})

	b.bot.Handle(tele.OnDocument, func(c tele.Context) error {
		ctx := utils.CreateCtxWithRqID(c)
		rqID := utils.GetRequestIDFromCtx(ctx)
		chatSession, err := b.session.GetSession(ctx, strconv.FormatInt(c.Chat().ID, 10))
		if err != nil {
			slog.Error("got error from session.GetSession", slog.String("rqID", rqID), slog.String("err", err.Error()))
			return c.Send("something went wrong...")
		}

		c.Set("session", chatSession)

		if chatSession.State != model.ExpectingImportFile {
			return c.Send("use /import first")
		}
		return b.ctrl.ProcessImportFile(c)
	})

	b.bot.Handle(tele.OnCallback, b.ctrl.DispatchCallback)

	b.bot.Handle("/start", b.ctrl.Start)
	b.bot.Handle("/list", b.ctrl.Summary)
	b.bot.Handle("/add", b.ctrl.InitAddStock)
	b.bot.Handle("/portfolios", b.ctrl.Portfolios)
	b.bot.Handle("/gains", b.ctrl.Gains)
	b.bot.Handle("/dividends", b.ctrl.Dividends)
	b.bot.Handle("/accounts", b.ctrl.Accounts)
	b.bot.Handle("/groups", b.ctrl.Groups)
	b.bot.Handle("/filter", b.ctrl.Filters)
	b.bot.Handle("/sort", b.ctrl.SortModes)
	b.bot.Handle("/settings", b.ctrl.Settings)
	b.bot.Handle("/import", b.ctrl.InitImport)
	b.bot.Handle("/export", b.ctrl.Export)
	b.bot.Handle("/report", b.ctrl.Report)
	b.bot.Handle("/backup", b.ctrl.Backup)
}
