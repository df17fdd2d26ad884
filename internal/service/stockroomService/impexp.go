package stockroomService

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/stockroomapp/stockroom_bot/data/repository"
	"github.com/stockroomapp/stockroom_bot/internal/impexp"
	"github.com/stockroomapp/stockroom_bot/internal/model"
	"github.com/stockroomapp/stockroom_bot/internal/portfolio"
	"github.com/stockroomapp/stockroom_bot/internal/reportGenerator/xlsxGenerator"
	"github.com/stockroomapp/stockroom_bot/internal/service"
	"github.com/stockroomapp/stockroom_bot/utils"
)

type ReportGenerator interface {
	Generate(ctx context.Context, data xlsxGenerator.ReportData) (fileBytes []byte, fileExtension string, err error)
}

type CloudStorage interface {
	UploadFile(ctx context.Context, reader io.Reader, filename string) (downloadLink string, err error)
	DeleteOldFiles(ctx context.Context) error
}

// SetReportGenerator wires the spreadsheet renderer.
func (s *StockroomService) SetReportGenerator(generator ReportGenerator) {
	s.reportGenerator = generator
}

// SetCloudStorage wires the backup target; nil disables backups.
func (s *StockroomService) SetCloudStorage(storage CloudStorage) {
	s.cloudStorage = storage
}

// ImportStats is what an import pass reports back to the user.
type ImportStats struct {
	Symbols     int
	Lots        int
	Events      int
	Dividends   int
	SkippedRows int
}

// Import loads a backup or broker file. The format comes from the file
// extension: .json, .csv, or anything else treated as a plain symbol list.
// Each symbol imports in its own transaction: one broken symbol does not
// roll back the rest.
func (s *StockroomService) Import(ctx context.Context, filename string, data []byte) (stats ImportStats, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "StockroomService.Import"

	slog.Debug("Import start", slog.String("rqID", rqID), slog.String("op", op), slog.String("filename", filename))
	defer func() {
		slog.Debug("Import finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	var result impexp.ImportResult
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		result, err = impexp.ParseJSON(data, s.cfg.ImportLimit)
	case ".csv":
		result, err = impexp.ParseCSV(data, s.cfg.ImportLimit)
	case ".txt", "":
		result, err = impexp.ParseText(data, s.cfg.ImportLimit)
	default:
		return ImportStats{}, service.ErrImportFormat
	}
	if err != nil {
		slog.Error("import parse failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		if errors.Is(err, impexp.ErrTooManySymbols) {
			return ImportStats{}, service.ErrInvalidInput
		}
		return ImportStats{}, service.ErrImportFormat
	}

	stats.SkippedRows = result.SkippedRows
	for _, stock := range result.Stocks {
		if importErr := s.importStock(ctx, stock, &stats); importErr != nil {
			slog.Error("symbol import failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", stock.Properties.Symbol), slog.String("err", importErr.Error()))
			stats.SkippedRows++
			continue
		}
		stats.Symbols++
	}

	if err := s.refreshStore(ctx); err != nil {
		return stats, err
	}

	if s.poller != nil {
		s.poller.PollNow()
	}

	return stats, nil
}

func (s *StockroomService) importStock(ctx context.Context, stock impexp.ImportedStock, stats *ImportStats) error {
	return s.repo.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.UpsertStock(ctx, stock.Properties); err != nil {
			return err
		}
		if stock.GroupName != "" && stock.Properties.GroupColor != 0 {
			if err := s.repo.UpsertGroup(ctx, model.Group{Color: stock.Properties.GroupColor, Name: stock.GroupName}); err != nil {
				return err
			}
		}
		for _, lot := range stock.Lots {
			if _, err := s.repo.InsertLot(ctx, lot); err != nil {
				return err
			}
			stats.Lots++
		}
		for _, event := range stock.Events {
			if _, err := s.repo.InsertEvent(ctx, event); err != nil {
				return err
			}
			stats.Events++
		}
		for _, dividend := range stock.Dividends {
			if _, err := s.repo.InsertDividend(ctx, dividend); err != nil {
				return err
			}
			stats.Dividends++
		}
		return nil
	})
}

// ExportJSON renders every symbol of every portfolio into the interchange
// format, regardless of the current selection.
func (s *StockroomService) ExportJSON(ctx context.Context) ([]byte, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "StockroomService.ExportJSON"

	slog.Debug("ExportJSON start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		slog.Debug("ExportJSON finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	items, err := s.loadAllItems(ctx)
	if err != nil {
		return nil, err
	}

	groups, err := s.repo.GetGroups(ctx)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			slog.Error("got error from repo.GetGroups", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
			return nil, err
		}
		groups = nil
	}

	return impexp.ExportJSON(items, groups)
}

// loadAllItems assembles the full cross-portfolio view from the database,
// bypassing the partition-filtered store.
func (s *StockroomService) loadAllItems(ctx context.Context) ([]model.StockItem, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	stocks, err := s.repo.GetAllStocks(ctx)
	if err != nil {
		slog.Error("got error from repo.GetAllStocks", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return nil, err
	}
	lots, err := s.repo.GetAllLots(ctx)
	if err != nil {
		slog.Error("got error from repo.GetAllLots", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return nil, err
	}
	events, err := s.repo.GetAllEvents(ctx)
	if err != nil {
		slog.Error("got error from repo.GetAllEvents", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return nil, err
	}
	dividends, err := s.repo.GetAllDividends(ctx)
	if err != nil {
		slog.Error("got error from repo.GetAllDividends", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return nil, err
	}

	index := make(map[string]int, len(stocks))
	items := make([]model.StockItem, 0, len(stocks))
	for _, props := range stocks {
		index[props.Symbol] = len(items)
		item := model.StockItem{Properties: props}
		if cached, ok := s.store.Get(props.Symbol); ok {
			item.Quote = cached.Quote
		}
		items = append(items, item)
	}
	for _, row := range lots {
		if i, ok := index[row.Properties.Symbol]; ok {
			items[i].Lots = row.Lots
		}
	}
	for _, row := range events {
		if i, ok := index[row.Properties.Symbol]; ok {
			items[i].Events = row.Events
		}
	}
	for _, row := range dividends {
		if i, ok := index[row.Properties.Symbol]; ok {
			items[i].Dividends = row.Dividends
		}
	}

	return items, nil
}

// GenerateReport renders the current view into a spreadsheet.
func (s *StockroomService) GenerateReport(ctx context.Context) (fileBytes []byte, filename string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "StockroomService.GenerateReport"

	slog.Debug("GenerateReport start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		slog.Debug("GenerateReport finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	items := s.Snapshot(ctx)
	if len(items) == 0 {
		return nil, "", service.ErrNotFound
	}

	gainYears := make(map[string]map[int]portfolio.YearGain)
	perSymbol, totals := s.GetCapitalGains(ctx)
	for _, symbolGains := range perSymbol {
		gainYears[symbolGains.Symbol] = symbolGains.Years
	}

	fileBytes, extension, err := s.reportGenerator.Generate(ctx, xlsxGenerator.ReportData{
		Items:     items,
		GainYears: gainYears,
		Totals:    totals,
	})
	if err != nil {
		slog.Error("got error from reportGenerator.Generate", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	return fileBytes, fmt.Sprintf("stockroom_%s%s", time.Now().Format("2006-01-02"), extension), nil
}

// BackupToDrive exports everything and uploads the JSON, returning the
// download link. Old backups past their TTL are removed first.
func (s *StockroomService) BackupToDrive(ctx context.Context) (downloadLink string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "StockroomService.BackupToDrive"

	slog.Debug("BackupToDrive start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		slog.Debug("BackupToDrive finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	if s.cloudStorage == nil {
		return "", service.ErrNotFound
	}

	data, err := s.ExportJSON(ctx)
	if err != nil {
		return "", err
	}

	if err := s.cloudStorage.DeleteOldFiles(ctx); err != nil {
		slog.Error("got error from cloudStorage.DeleteOldFiles", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
	}

	filename := fmt.Sprintf("stockroom_backup_%s.json", time.Now().Format("2006-01-02_15-04-05"))
	downloadLink, err = s.cloudStorage.UploadFile(ctx, bytes.NewReader(data), filename)
	if err != nil {
		slog.Error("got error from cloudStorage.UploadFile", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return "", err
	}

	return downloadLink, nil
}
