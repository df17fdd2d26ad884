package telegram

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/stockroomapp/stockroom_bot/config"
	"github.com/stockroomapp/stockroom_bot/internal/converter/telebotConverter"
	"github.com/stockroomapp/stockroom_bot/internal/model"
	"github.com/stockroomapp/stockroom_bot/internal/portfolio"
	"github.com/stockroomapp/stockroom_bot/internal/service"
	"github.com/stockroomapp/stockroom_bot/internal/service/stockroomService"
	"github.com/stockroomapp/stockroom_bot/utils"
	tele "gopkg.in/telebot.v4"
)

const internalErrMsg = "something went wrong..."

type StockroomService interface {
	Snapshot(ctx context.Context) []model.StockItem
	GetTotals(ctx context.Context) stockroomService.PortfolioTotals
	GetStockDetails(ctx context.Context, symbol string) (model.StockItem, error)
	AddStock(ctx context.Context, symbol string) error
	DeleteStock(ctx context.Context, symbol string) error
	MoveToPortfolio(ctx context.Context, symbol, portfolioName string) error
	SetNotes(ctx context.Context, symbol, notes string) error
	SetAlerts(ctx context.Context, symbol string, above float64, aboveNote string, below float64, belowNote string) error
	SetMarker(ctx context.Context, symbol string, marker int) error
	AssignGroup(ctx context.Context, symbol string, group model.Group) error
	GetGroups(ctx context.Context) ([]model.Group, error)
	DeleteGroup(ctx context.Context, color int) error

	AddLot(ctx context.Context, lot model.Lot) error
	DeleteLot(ctx context.Context, symbol string, lotID int64) error
	AddEvent(ctx context.Context, event model.Event) error
	DeleteEvent(ctx context.Context, eventID int64) error
	AddDividend(ctx context.Context, dividend model.DividendRecord) error
	DeleteDividend(ctx context.Context, dividendID int64) error

	GetCapitalGains(ctx context.Context) (perSymbol []stockroomService.SymbolGains, total portfolio.GainLoss)
	GetDividendSummaries(ctx context.Context) []stockroomService.SymbolDividendSummary
	GetAccountSubtotals(ctx context.Context) []portfolio.AccountSubtotal

	SaveFilterSet(ctx context.Context, set portfolio.FilterSet) error
	ListFilterSets(ctx context.Context) ([]string, error)
	DeleteFilterSet(ctx context.Context, name string) error
	ApplyFilterSet(ctx context.Context, name string) ([]model.StockItem, error)

	GetPortfolios(ctx context.Context) ([]string, error)
	GetSelectedPortfolio(ctx context.Context) string
	SelectPortfolio(ctx context.Context, name string) error

	GetSortMode(ctx context.Context) portfolio.SortMode
	SetSortMode(ctx context.Context, mode portfolio.SortMode) error
	GetPostMarketEnabled(ctx context.Context) bool
	SetPostMarketEnabled(ctx context.Context, enabled bool) error
	GetNotificationsEnabled(ctx context.Context) bool
	SetNotificationsEnabled(ctx context.Context, enabled bool) error
	GetFilterMode(ctx context.Context) portfolio.FilterMode
	SetFilterMode(ctx context.Context, mode portfolio.FilterMode) error
	GetChartRange(ctx context.Context) int
	SetChartRange(ctx context.Context, chartRange int) error

	Import(ctx context.Context, filename string, data []byte) (stockroomService.ImportStats, error)
	ExportJSON(ctx context.Context) ([]byte, error)
	GenerateReport(ctx context.Context) (fileBytes []byte, filename string, err error)
	BackupToDrive(ctx context.Context) (downloadLink string, err error)
}

type Session interface {
	GetSession(ctx context.Context, key string) (model.Session, error)
	SetSession(ctx context.Context, key string, session model.Session) error
}

type Controller struct {
	cfg              *config.Config
	stockroomService StockroomService
	session          Session
}

func NewController(cfg *config.Config, stockroomService StockroomService, session Session) *Controller {
	return &Controller{
		cfg:              cfg,
		stockroomService: stockroomService,
		session:          session,
	}
}

func (ctrl *Controller) Start(c tele.Context) error {
	return c.Send("Hello! I keep your stock portfolio.\n\n" +
		"/list - portfolio overview\n" +
		"/add - add a symbol\n" +
		"/portfolios - switch portfolio\n" +
		"/gains - realized capital gains\n" +
		"/dividends - dividend summary\n" +
		"/accounts - per-account breakdown\n" +
		"/groups - color groups\n" +
		"/filter - saved filters\n" +
		"/sort - sort order\n" +
		"/settings - toggles\n" +
		"/import - load a backup or broker file\n" +
		"/export - JSON backup\n" +
		"/report - xlsx report\n" +
		"/backup - upload backup to cloud")
}

func (ctrl *Controller) getSessionFromTeleCtxOrStorage(ctx context.Context, c tele.Context) (model.Session, error) {
	chatSession, ok := c.Get("session").(model.Session)
	if ok {
		return chatSession, nil
	}

	rqID := utils.GetRequestIDFromCtx(ctx)
	chatSession, err := ctrl.session.GetSession(ctx, strconv.FormatInt(c.Chat().ID, 10))
	if err != nil {
		slog.Error("got error from session.GetSession", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return model.Session{}, err
	}
	return chatSession, nil
}

func (ctrl *Controller) setSession(ctx context.Context, c tele.Context, chatSession model.Session) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	err := ctrl.session.SetSession(ctx, strconv.FormatInt(c.Chat().ID, 10), chatSession)
	if err != nil {
		slog.Error("got error from session.SetSession", slog.String("rqID", rqID), slog.String("err", err.Error()))
	}
	return err
}

// expectInput moves the chat into a dialog state and prompts for the next
// message.
func (ctrl *Controller) expectInput(c tele.Context, chatSession model.Session, prompt string) error {
	ctx := utils.CreateCtxWithRqID(c)
	if err := ctrl.setSession(ctx, c, chatSession); err != nil {
		return c.Send(internalErrMsg)
	}
	return c.Send(prompt)
}

func (ctrl *Controller) resetState(ctx context.Context, c tele.Context, chatSession model.Session) {
	chatSession.State = model.DefaultState
	chatSession.Symbol = ""
	_ = ctrl.setSession(ctx, c, chatSession)
}

// Summary renders the first page of the current view.
func (ctrl *Controller) Summary(c tele.Context) error {
	return ctrl.renderSummary(c, 0, false)
}

func (ctrl *Controller) renderSummary(c tele.Context, page int, edit bool) error {
	ctx := utils.CreateCtxWithRqID(c)

	items := ctrl.stockroomService.Snapshot(ctx)
	totals := ctrl.stockroomService.GetTotals(ctx)
	selected := ctrl.stockroomService.GetSelectedPortfolio(ctx)

	text, markup := telebotConverter.SummaryResponse(items, totals, selected, page, ctrl.cfg.StocksPerPage)
	if edit {
		return c.Edit(text, markup, tele.ModeMarkdown)
	}
	return c.Send(text, markup, tele.ModeMarkdown)
}

func (ctrl *Controller) renderStockDetails(c tele.Context, symbol string, edit bool) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	item, err := ctrl.stockroomService.GetStockDetails(ctx, symbol)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.Send("symbol not found in the current portfolio")
		}
		slog.Error("got error from stockroomService.GetStockDetails", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	text, markup := telebotConverter.StockDetailsResponse(item, ctrl.groupName(ctx, item.Properties.GroupColor))
	if edit {
		return c.Edit(text, markup, tele.ModeMarkdown)
	}
	return c.Send(text, markup, tele.ModeMarkdown)
}

func (ctrl *Controller) InitAddStock(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	chatSession, err := ctrl.getSessionFromTeleCtxOrStorage(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}

	chatSession.State = model.ExpectingSymbol
	return ctrl.expectInput(c, chatSession, "Enter the symbol (AAPL, MSFT, BTC-USD...):")
}

func (ctrl *Controller) ProcessAddStock(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	chatSession, err := ctrl.getSessionFromTeleCtxOrStorage(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}
	defer ctrl.resetState(ctx, c, chatSession)

	symbol := strings.ToUpper(strings.TrimSpace(c.Message().Text))
	err = ctrl.stockroomService.AddStock(ctx, symbol)
	if err != nil {
		if errors.Is(err, service.ErrAlreadyExists) {
			return c.Send("this symbol is already in the portfolio")
		}
		if errors.Is(err, service.ErrInvalidInput) {
			return c.Send("that does not look like a valid symbol")
		}
		slog.Error("got error from stockroomService.AddStock", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	return ctrl.renderStockDetails(c, symbol, false)
}

func (ctrl *Controller) Gains(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	perSymbol, total := ctrl.stockroomService.GetCapitalGains(ctx)
	return c.Send(telebotConverter.GainsResponse(perSymbol, total), tele.ModeMarkdown)
}

func (ctrl *Controller) Dividends(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	summaries := ctrl.stockroomService.GetDividendSummaries(ctx)
	return c.Send(telebotConverter.DividendsResponse(summaries), tele.ModeMarkdown)
}

func (ctrl *Controller) Portfolios(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	portfolios, err := ctrl.stockroomService.GetPortfolios(ctx)
	if err != nil {
		slog.Error("got error from stockroomService.GetPortfolios", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	text, markup := telebotConverter.PortfoliosResponse(portfolios, ctrl.stockroomService.GetSelectedPortfolio(ctx))
	return c.Send(text, markup)
}

func (ctrl *Controller) SortModes(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	text, markup := telebotConverter.SortModesResponse(ctrl.stockroomService.GetSortMode(ctx))
	return c.Send(text, markup)
}

func (ctrl *Controller) Settings(c tele.Context) error {
	return ctrl.renderSettings(c, false)
}

func (ctrl *Controller) renderSettings(c tele.Context, edit bool) error {
	ctx := utils.CreateCtxWithRqID(c)
	text, markup := telebotConverter.SettingsResponse(
		ctrl.stockroomService.GetPostMarketEnabled(ctx),
		ctrl.stockroomService.GetNotificationsEnabled(ctx),
		ctrl.stockroomService.GetFilterMode(ctx) == portfolio.FilterModeOr,
		ctrl.stockroomService.GetChartRange(ctx),
	)
	if edit {
		return c.Edit(text, markup)
	}
	return c.Send(text, markup)
}

func (ctrl *Controller) InitImport(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	chatSession, err := ctrl.getSessionFromTeleCtxOrStorage(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}

	chatSession.State = model.ExpectingImportFile
	return ctrl.expectInput(c, chatSession, "Send the file to import (.json backup, .csv broker export, or a .txt symbol list):")
}

func (ctrl *Controller) ProcessImportFile(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	chatSession, err := ctrl.getSessionFromTeleCtxOrStorage(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}
	defer ctrl.resetState(ctx, c, chatSession)

	doc := c.Message().Document
	if doc == nil {
		return c.Send("that is not a file")
	}
	if doc.FileSize > int64(ctrl.cfg.Telegram.FileLimitInBytes) {
		return c.Send("file is too big")
	}

	reader, err := c.Bot().File(&doc.File)
	if err != nil {
		slog.Error("got error from bot.File", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		slog.Error("file read error", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	stats, err := ctrl.stockroomService.Import(ctx, doc.FileName, data)
	if err != nil {
		if errors.Is(err, service.ErrImportFormat) {
			return c.Send("unsupported file format, expected .json, .csv or .txt")
		}
		if errors.Is(err, service.ErrInvalidInput) {
			return c.Send("the file holds more symbols than the import limit allows")
		}
		slog.Error("got error from stockroomService.Import", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	reply := "Imported " + strconv.Itoa(stats.Symbols) + " symbols, " +
		strconv.Itoa(stats.Lots) + " lots, " +
		strconv.Itoa(stats.Events) + " events, " +
		strconv.Itoa(stats.Dividends) + " dividends."
	if stats.SkippedRows > 0 {
		reply += " Skipped " + strconv.Itoa(stats.SkippedRows) + " rows."
	}
	if err := c.Send(reply); err != nil {
		return err
	}
	return ctrl.renderSummary(c, 0, false)
}

func (ctrl *Controller) Export(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	data, err := ctrl.stockroomService.ExportJSON(ctx)
	if err != nil {
		slog.Error("got error from stockroomService.ExportJSON", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	doc := &tele.Document{
		File:     tele.FromReader(strings.NewReader(string(data))),
		FileName: "stockroom_" + time.Now().Format("2006-01-02") + ".json",
	}
	return c.Send(doc)
}

func (ctrl *Controller) Report(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	fileBytes, filename, err := ctrl.stockroomService.GenerateReport(ctx)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.Send("the portfolio is empty, nothing to report")
		}
		slog.Error("got error from stockroomService.GenerateReport", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	doc := &tele.Document{
		File:     tele.FromReader(strings.NewReader(string(fileBytes))),
		FileName: filename,
	}
	return c.Send(doc)
}

func (ctrl *Controller) Backup(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	link, err := ctrl.stockroomService.BackupToDrive(ctx)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.Send("cloud backup is not configured")
		}
		slog.Error("got error from stockroomService.BackupToDrive", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	return c.Send("Backup uploaded: " + link)
}
