package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver

	"github.com/stockroomapp/stockroom_bot/data/repository"
	"github.com/stockroomapp/stockroom_bot/internal/converter/dbConverter"
	"github.com/stockroomapp/stockroom_bot/internal/model"
	"github.com/stockroomapp/stockroom_bot/internal/model/dbModel"
	"github.com/stockroomapp/stockroom_bot/utils"
)

const uniqueViolation = "23505"

func (p *Postgres) InsertStock(ctx context.Context, props model.StockProperties) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `
		INSERT INTO stocks(symbol, portfolio, data, group_color, marker, notes, dividend_notes,
			annual_dividend_rate, alert_above, alert_above_note, alert_below, alert_below_note)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`

	slog.Debug("InsertStock start", slog.String("rqID", rqID), slog.String("symbol", props.Symbol))
	defer func() {
		if err != nil {
			slog.Error("InsertStock failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("InsertStock completed", slog.String("rqID", rqID))
		}
	}()

	_, err = p.txOrDb(ctx).ExecContext(ctx, query,
		props.Symbol, props.Portfolio, props.Data, props.GroupColor, props.Marker,
		props.Notes, props.DividendNotes, props.AnnualDividendRate,
		props.AlertAbove, props.AlertAboveNote, props.AlertBelow, props.AlertBelowNote,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repository.ErrAlreadyExists
		}
		return err
	}

	return nil
}

func (p *Postgres) UpsertStock(ctx context.Context, props model.StockProperties) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `
		INSERT INTO stocks(symbol, portfolio, data, group_color, marker, notes, dividend_notes,
			annual_dividend_rate, alert_above, alert_above_note, alert_below, alert_below_note)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (symbol) DO UPDATE SET
			portfolio = EXCLUDED.portfolio,
			data = EXCLUDED.data,
			group_color = EXCLUDED.group_color,
			marker = EXCLUDED.marker,
			notes = EXCLUDED.notes,
			dividend_notes = EXCLUDED.dividend_notes,
			annual_dividend_rate = EXCLUDED.annual_dividend_rate,
			alert_above = EXCLUDED.alert_above,
			alert_above_note = EXCLUDED.alert_above_note,
			alert_below = EXCLUDED.alert_below,
			alert_below_note = EXCLUDED.alert_below_note
		`

	slog.Debug("UpsertStock start", slog.String("rqID", rqID), slog.String("symbol", props.Symbol))
	defer func() {
		if err != nil {
			slog.Error("UpsertStock failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("UpsertStock completed", slog.String("rqID", rqID))
		}
	}()

	_, err = p.txOrDb(ctx).ExecContext(ctx, query,
		props.Symbol, props.Portfolio, props.Data, props.GroupColor, props.Marker,
		props.Notes, props.DividendNotes, props.AnnualDividendRate,
		props.AlertAbove, props.AlertAboveNote, props.AlertBelow, props.AlertBelowNote,
	)
	return err
}

func (p *Postgres) GetStock(ctx context.Context, symbol string) (props model.StockProperties, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `
		SELECT symbol, portfolio, data, group_color, marker, notes, dividend_notes,
			annual_dividend_rate, alert_above, alert_above_note, alert_below, alert_below_note
		FROM stocks
		WHERE symbol = $1
		`

	slog.Debug("GetStock start", slog.String("rqID", rqID), slog.String("symbol", symbol))
	defer func() {
		if err != nil {
			slog.Error("GetStock failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetStock completed", slog.String("rqID", rqID))
		}
	}()

	row := dbModel.StockProperties{}
	err = p.txOrDb(ctx).QueryRowxContext(ctx, query, symbol).StructScan(&row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.StockProperties{}, repository.ErrNotFound
		}
		return model.StockProperties{}, err
	}

	return dbConverter.ConvertStockProperties(row), nil
}

func (p *Postgres) GetAllStocks(ctx context.Context) (stocks []model.StockProperties, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `
		SELECT symbol, portfolio, data, group_color, marker, notes, dividend_notes,
			annual_dividend_rate, alert_above, alert_above_note, alert_below, alert_below_note
		FROM stocks
		ORDER BY symbol
		`

	slog.Debug("GetAllStocks start", slog.String("rqID", rqID))
	defer func() {
		if err != nil {
			slog.Error("GetAllStocks failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetAllStocks completed", slog.String("rqID", rqID))
		}
	}()

	rows := []dbModel.StockProperties{}
	err = p.txOrDb(ctx).SelectContext(ctx, &rows, query)
	if err != nil {
		return nil, err
	}

	stocks = make([]model.StockProperties, 0, len(rows))
	for _, row := range rows {
		stocks = append(stocks, dbConverter.ConvertStockProperties(row))
	}

	return stocks, nil
}

func (p *Postgres) DeleteStock(ctx context.Context, symbol string) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `DELETE FROM stocks WHERE symbol = $1`

	slog.Debug("DeleteStock start", slog.String("rqID", rqID), slog.String("symbol", symbol))
	defer func() {
		if err != nil {
			slog.Error("DeleteStock failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("DeleteStock completed", slog.String("rqID", rqID))
		}
	}()

	res, err := p.txOrDb(ctx).ExecContext(ctx, query, symbol)
	if err != nil {
		return err
	}
	if affected, raErr := res.RowsAffected(); raErr == nil && affected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (p *Postgres) GetPortfolios(ctx context.Context) (portfolios []string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `SELECT DISTINCT portfolio FROM stocks ORDER BY portfolio`

	slog.Debug("GetPortfolios start", slog.String("rqID", rqID))
	defer func() {
		if err != nil {
			slog.Error("GetPortfolios failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetPortfolios completed", slog.String("rqID", rqID))
		}
	}()

	err = p.txOrDb(ctx).SelectContext(ctx, &portfolios, query)
	if err != nil {
		return nil, err
	}

	return portfolios, nil
}

func (p *Postgres) UpdateStockGroup(ctx context.Context, symbol string, groupColor int) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `UPDATE stocks SET group_color = $2 WHERE symbol = $1`

	slog.Debug("UpdateStockGroup start", slog.String("rqID", rqID), slog.String("symbol", symbol))
	defer func() {
		if err != nil {
			slog.Error("UpdateStockGroup failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("UpdateStockGroup completed", slog.String("rqID", rqID))
		}
	}()

	_, err = p.txOrDb(ctx).ExecContext(ctx, query, symbol, groupColor)
	return err
}

func (p *Postgres) UpdateStockMarker(ctx context.Context, symbol string, marker int) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `UPDATE stocks SET marker = $2 WHERE symbol = $1`

	slog.Debug("UpdateStockMarker start", slog.String("rqID", rqID), slog.String("symbol", symbol))
	defer func() {
		if err != nil {
			slog.Error("UpdateStockMarker failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("UpdateStockMarker completed", slog.String("rqID", rqID))
		}
	}()

	_, err = p.txOrDb(ctx).ExecContext(ctx, query, symbol, marker)
	return err
}

func (p *Postgres) UpdateStockNotes(ctx context.Context, symbol, notes string) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `UPDATE stocks SET notes = $2 WHERE symbol = $1`

	slog.Debug("UpdateStockNotes start", slog.String("rqID", rqID), slog.String("symbol", symbol))
	defer func() {
		if err != nil {
			slog.Error("UpdateStockNotes failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("UpdateStockNotes completed", slog.String("rqID", rqID))
		}
	}()

	_, err = p.txOrDb(ctx).ExecContext(ctx, query, symbol, notes)
	return err
}

func (p *Postgres) UpdateStockAlerts(ctx context.Context, symbol string, above float64, aboveNote string, below float64, belowNote string) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `
		UPDATE stocks
		SET alert_above = $2, alert_above_note = $3, alert_below = $4, alert_below_note = $5
		WHERE symbol = $1
		`

	slog.Debug("UpdateStockAlerts start", slog.String("rqID", rqID), slog.String("symbol", symbol))
	defer func() {
		if err != nil {
			slog.Error("UpdateStockAlerts failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("UpdateStockAlerts completed", slog.String("rqID", rqID))
		}
	}()

	_, err = p.txOrDb(ctx).ExecContext(ctx, query, symbol, above, aboveNote, below, belowNote)
	return err
}

func (p *Postgres) UpdateStockPortfolio(ctx context.Context, symbol, portfolio string) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `UPDATE stocks SET portfolio = $2 WHERE symbol = $1`

	slog.Debug("UpdateStockPortfolio start", slog.String("rqID", rqID), slog.String("symbol", symbol))
	defer func() {
		if err != nil {
			slog.Error("UpdateStockPortfolio failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("UpdateStockPortfolio completed", slog.String("rqID", rqID))
		}
	}()

	_, err = p.txOrDb(ctx).ExecContext(ctx, query, symbol, portfolio)
	return err
}
