package postgres

import (
	"context"
	"log/slog"

	"github.com/stockroomapp/stockroom_bot/data/repository"
	"github.com/stockroomapp/stockroom_bot/internal/converter/dbConverter"
	"github.com/stockroomapp/stockroom_bot/internal/model"
	"github.com/stockroomapp/stockroom_bot/internal/model/dbModel"
	"github.com/stockroomapp/stockroom_bot/utils"
)

func (p *Postgres) InsertDividend(ctx context.Context, dividend model.DividendRecord) (dividendID int64, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `
		INSERT INTO dividends(symbol, amount, type, cycle, paydate, exdate, account, note)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING dividend_id
		`

	slog.Debug("InsertDividend start", slog.String("rqID", rqID), slog.String("symbol", dividend.Symbol))
	defer func() {
		if err != nil {
			slog.Error("InsertDividend failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("InsertDividend completed", slog.String("rqID", rqID))
		}
	}()

	err = p.txOrDb(ctx).QueryRowContext(ctx, query,
		dividend.Symbol, dividend.Amount, dividend.Type, dividend.Cycle,
		dividend.Paydate, dividend.Exdate, dividend.Account, dividend.Note,
	).Scan(&dividendID)
	if err != nil {
		return 0, err
	}

	return dividendID, nil
}

func (p *Postgres) DeleteDividend(ctx context.Context, dividendID int64) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `DELETE FROM dividends WHERE dividend_id = $1`

	slog.Debug("DeleteDividend start", slog.String("rqID", rqID), slog.Int64("dividendID", dividendID))
	defer func() {
		if err != nil {
			slog.Error("DeleteDividend failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("DeleteDividend completed", slog.String("rqID", rqID))
		}
	}()

	res, err := p.txOrDb(ctx).ExecContext(ctx, query, dividendID)
	if err != nil {
		return err
	}
	if affected, raErr := res.RowsAffected(); raErr == nil && affected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (p *Postgres) GetDividends(ctx context.Context, symbol string) (dividends []model.DividendRecord, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `
		SELECT dividend_id, symbol, amount, type, cycle, paydate, exdate, account, note
		FROM dividends
		WHERE symbol = $1
		ORDER BY paydate, dividend_id
		`

	slog.Debug("GetDividends start", slog.String("rqID", rqID), slog.String("symbol", symbol))
	defer func() {
		if err != nil {
			slog.Error("GetDividends failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetDividends completed", slog.String("rqID", rqID))
		}
	}()

	rows := []dbModel.Dividend{}
	err = p.txOrDb(ctx).SelectContext(ctx, &rows, query, symbol)
	if err != nil {
		return nil, err
	}

	dividends = make([]model.DividendRecord, 0, len(rows))
	for _, row := range rows {
		dividends = append(dividends, dbConverter.ConvertDividend(row))
	}

	return dividends, nil
}

// GetAllDividends returns every properties row together with its dividends,
// one entry per symbol.
func (p *Postgres) GetAllDividends(ctx context.Context) (result []model.SymbolDividends, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `
		SELECT s.symbol, s.portfolio, s.data, s.group_color, s.marker, s.notes, s.dividend_notes,
			s.annual_dividend_rate, s.alert_above, s.alert_above_note, s.alert_below, s.alert_below_note,
			d.dividend_id, d.amount AS dividend_amount, d.type AS dividend_type, d.cycle AS dividend_cycle,
			d.paydate AS dividend_paydate, d.exdate AS dividend_exdate, d.account AS dividend_account, d.note AS dividend_note
		FROM stocks s
		LEFT JOIN dividends d ON d.symbol = s.symbol
		ORDER BY s.symbol, d.paydate, d.dividend_id
		`

	slog.Debug("GetAllDividends start", slog.String("rqID", rqID))
	defer func() {
		if err != nil {
			slog.Error("GetAllDividends failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetAllDividends completed", slog.String("rqID", rqID))
		}
	}()

	rows := []dbModel.DividendJoined{}
	err = p.txOrDb(ctx).SelectContext(ctx, &rows, query)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int)
	for _, row := range rows {
		i, ok := index[row.Symbol]
		if !ok {
			i = len(result)
			index[row.Symbol] = i
			result = append(result, model.SymbolDividends{Properties: dbConverter.ConvertStockProperties(row.StockProperties)})
		}
		if row.DividendID.Valid {
			result[i].Dividends = append(result[i].Dividends, model.DividendRecord{
				ID:      row.DividendID.Int64,
				Symbol:  row.Symbol,
				Amount:  row.Amount.Float64,
				Type:    int(row.Type.Int64),
				Cycle:   int(row.Cycle.Int64),
				Paydate: row.Paydate.Int64,
				Exdate:  row.Exdate.Int64,
				Account: row.Account.String,
				Note:    row.Note.String,
			})
		}
	}

	return result, nil
}
