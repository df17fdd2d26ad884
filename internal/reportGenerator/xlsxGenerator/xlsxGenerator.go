package xlsxGenerator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/stockroomapp/stockroom_bot/internal/model"
	"github.com/stockroomapp/stockroom_bot/internal/portfolio"
	"github.com/stockroomapp/stockroom_bot/utils"
)

type XLSXGenerator struct{}

func New() *XLSXGenerator {
	return &XLSXGenerator{}
}

// ReportData is everything one spreadsheet needs: the merged view plus the
// precomputed aggregations.
type ReportData struct {
	Items     []model.StockItem
	GainYears map[string]map[int]portfolio.YearGain
	Totals    portfolio.GainLoss
}

func (g *XLSXGenerator) Generate(ctx context.Context, data ReportData) (fileBytes []byte, fileExtension string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "XLSXGenerator.Generate"

	if len(data.Items) == 0 {
		return nil, "", errors.New("empty portfolio")
	}

	slog.Debug("Generate start", slog.String("rqID", rqID), slog.String("op", op))

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("got error while closing file", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
	}()

	if err := g.fillPositionsSheet(ctx, f, data.Items); err != nil {
		return nil, "", err
	}
	if err := g.fillGainsSheet(ctx, f, data); err != nil {
		return nil, "", err
	}
	if err := g.fillDividendsSheet(ctx, f, data.Items); err != nil {
		return nil, "", err
	}

	// drop the default sheet so the report opens on positions
	if err := f.DeleteSheet("Sheet1"); err != nil {
		slog.Error("got error while deleting Sheet1", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		slog.Error("got error while saving file to bytes buffer", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	slog.Debug("Generate completed", slog.String("rqID", rqID), slog.String("op", op))

	return buf.Bytes(), ".xlsx", nil
}

func (g *XLSXGenerator) headerStyle(f *excelize.File, color string) (int, error) {
	return f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Font: &excelize.Font{
			Bold: true,
			Size: 11,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{color},
		},
	})
}

func (g *XLSXGenerator) fillPositionsSheet(ctx context.Context, f *excelize.File, items []model.StockItem) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "XLSXGenerator.fillPositionsSheet"

	const sheetName = "Positions"
	_, err := f.NewSheet(sheetName)
	if err != nil {
		slog.Error("got error while creating NewSheet", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	if err := f.MergeCell(sheetName, "A1", "H1"); err != nil {
		return err
	}
	f.SetCellValue(sheetName, "A1", "Positions")

	styleID, err := g.headerStyle(f, "#cfe2f3") // light blue
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A1", "A1", styleID); err != nil {
		return fmt.Errorf("apply style: %w", err)
	}

	_ = f.SetCellStr(sheetName, "A2", "symbol")
	_ = f.SetCellStr(sheetName, "B2", "name")
	_ = f.SetCellStr(sheetName, "C2", "quantity")
	_ = f.SetCellStr(sheetName, "D2", "price")
	_ = f.SetCellStr(sheetName, "E2", "asset value")
	_ = f.SetCellStr(sheetName, "F2", "purchase price")
	_ = f.SetCellStr(sheetName, "G2", "profit")
	_ = f.SetCellStr(sheetName, "H2", "profit %")

	row := 3
	for _, item := range items {
		_ = f.SetCellStr(sheetName, fmt.Sprintf("A%d", row), item.Properties.Symbol)
		_ = f.SetCellStr(sheetName, fmt.Sprintf("B%d", row), portfolio.DisplayName(item))
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), portfolio.TotalQuantity(item))
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), item.Quote.Price)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), portfolio.AssetValue(item))
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), portfolio.PurchasePrice(item))
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), portfolio.Profit(item))
		f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), portfolio.ProfitPercent(item))
		row++
	}

	return nil
}

func (g *XLSXGenerator) fillGainsSheet(ctx context.Context, f *excelize.File, data ReportData) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "XLSXGenerator.fillGainsSheet"

	const sheetName = "Capital gains"
	_, err := f.NewSheet(sheetName)
	if err != nil {
		slog.Error("got error while creating NewSheet", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	if err := f.MergeCell(sheetName, "A1", "F1"); err != nil {
		return err
	}
	f.SetCellValue(sheetName, "A1", "Realized capital gains (FIFO)")

	styleID, err := g.headerStyle(f, "#d9ead3") // light green
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A1", "A1", styleID); err != nil {
		return fmt.Errorf("apply style: %w", err)
	}

	_ = f.SetCellStr(sheetName, "A2", "symbol")
	_ = f.SetCellStr(sheetName, "B2", "year")
	_ = f.SetCellStr(sheetName, "C2", "gain")
	_ = f.SetCellStr(sheetName, "D2", "loss")
	_ = f.SetCellStr(sheetName, "E2", "net")
	_ = f.SetCellStr(sheetName, "F2", "last transaction")

	row := 3
	for _, item := range data.Items {
		years, ok := data.GainYears[item.Properties.Symbol]
		if !ok {
			continue
		}
		for year, gain := range years {
			_ = f.SetCellStr(sheetName, fmt.Sprintf("A%d", row), item.Properties.Symbol)
			f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), year)
			f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), gain.Gain)
			f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), gain.Loss)
			f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), gain.Gain-gain.Loss)
			_ = f.SetCellStr(sheetName, fmt.Sprintf("F%d", row), gain.LastTransaction.Format("2006-01-02"))
			row++
		}
	}

	row++
	_ = f.SetCellStr(sheetName, fmt.Sprintf("A%d", row), "total")
	f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), data.Totals.Gain)
	f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), data.Totals.Loss)
	f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), data.Totals.Net())

	return nil
}

func (g *XLSXGenerator) fillDividendsSheet(ctx context.Context, f *excelize.File, items []model.StockItem) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "XLSXGenerator.fillDividendsSheet"

	const sheetName = "Dividends"
	_, err := f.NewSheet(sheetName)
	if err != nil {
		slog.Error("got error while creating NewSheet", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	if err := f.MergeCell(sheetName, "A1", "F1"); err != nil {
		return err
	}
	f.SetCellValue(sheetName, "A1", "Dividend payments")

	styleID, err := g.headerStyle(f, "#f9cb9c") // light orange
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A1", "A1", styleID); err != nil {
		return fmt.Errorf("apply style: %w", err)
	}

	_ = f.SetCellStr(sheetName, "A2", "symbol")
	_ = f.SetCellStr(sheetName, "B2", "amount")
	_ = f.SetCellStr(sheetName, "C2", "paydate")
	_ = f.SetCellStr(sheetName, "D2", "cycle")
	_ = f.SetCellStr(sheetName, "E2", "account")
	_ = f.SetCellStr(sheetName, "F2", "note")

	row := 3
	for _, item := range items {
		for _, dividend := range item.Dividends {
			_ = f.SetCellStr(sheetName, fmt.Sprintf("A%d", row), dividend.Symbol)
			f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), dividend.Amount)
			_ = f.SetCellStr(sheetName, fmt.Sprintf("C%d", row), time.Unix(dividend.Paydate, 0).UTC().Format("2006-01-02"))
			f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), dividend.Cycle)
			_ = f.SetCellStr(sheetName, fmt.Sprintf("E%d", row), dividend.Account)
			_ = f.SetCellStr(sheetName, fmt.Sprintf("F%d", row), dividend.Note)
			row++
		}
	}

	return nil
}
