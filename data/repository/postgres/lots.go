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

func (p *Postgres) InsertLot(ctx context.Context, lot model.Lot) (lotID int64, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `
		INSERT INTO lots(symbol, quantity, price, fee, date, account, note, type)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING lot_id
		`

	slog.Debug("InsertLot start", slog.String("rqID", rqID), slog.String("symbol", lot.Symbol))
	defer func() {
		if err != nil {
			slog.Error("InsertLot failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("InsertLot completed", slog.String("rqID", rqID))
		}
	}()

	err = p.txOrDb(ctx).QueryRowContext(ctx, query,
		lot.Symbol, lot.Quantity, lot.Price, lot.Fee, lot.Date, lot.Account, lot.Note, lot.Type,
	).Scan(&lotID)
	if err != nil {
		return 0, err
	}

	return lotID, nil
}

func (p *Postgres) DeleteLot(ctx context.Context, lotID int64) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `DELETE FROM lots WHERE lot_id = $1`

	slog.Debug("DeleteLot start", slog.String("rqID", rqID), slog.Int64("lotID", lotID))
	defer func() {
		if err != nil {
			slog.Error("DeleteLot failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("DeleteLot completed", slog.String("rqID", rqID))
		}
	}()

	res, err := p.txOrDb(ctx).ExecContext(ctx, query, lotID)
	if err != nil {
		return err
	}
	if affected, raErr := res.RowsAffected(); raErr == nil && affected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (p *Postgres) UpdateLotType(ctx context.Context, lotID int64, lotType int) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `UPDATE lots SET type = $2 WHERE lot_id = $1`

	slog.Debug("UpdateLotType start", slog.String("rqID", rqID), slog.Int64("lotID", lotID))
	defer func() {
		if err != nil {
			slog.Error("UpdateLotType failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("UpdateLotType completed", slog.String("rqID", rqID))
		}
	}()

	_, err = p.txOrDb(ctx).ExecContext(ctx, query, lotID, lotType)
	return err
}

func (p *Postgres) GetLots(ctx context.Context, symbol string) (lots []model.Lot, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `
		SELECT lot_id, symbol, quantity, price, fee, date, account, note, type
		FROM lots
		WHERE symbol = $1
		ORDER BY date, lot_id
		`

	slog.Debug("GetLots start", slog.String("rqID", rqID), slog.String("symbol", symbol))
	defer func() {
		if err != nil {
			slog.Error("GetLots failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetLots completed", slog.String("rqID", rqID))
		}
	}()

	rows := []dbModel.Lot{}
	err = p.txOrDb(ctx).SelectContext(ctx, &rows, query, symbol)
	if err != nil {
		return nil, err
	}

	lots = make([]model.Lot, 0, len(rows))
	for _, row := range rows {
		lots = append(lots, dbConverter.ConvertLot(row))
	}

	return lots, nil
}

// GetAllLots returns every properties row together with its lots, one entry
// per symbol, including symbols that have no lots yet.
func (p *Postgres) GetAllLots(ctx context.Context) (result []model.SymbolLots, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `
		SELECT s.symbol, s.portfolio, s.data, s.group_color, s.marker, s.notes, s.dividend_notes,
			s.annual_dividend_rate, s.alert_above, s.alert_above_note, s.alert_below, s.alert_below_note,
			l.lot_id, l.quantity AS lot_quantity, l.price AS lot_price, l.fee AS lot_fee,
			l.date AS lot_date, l.account AS lot_account, l.note AS lot_note, l.type AS lot_type
		FROM stocks s
		LEFT JOIN lots l ON l.symbol = s.symbol
		ORDER BY s.symbol, l.date, l.lot_id
		`

	slog.Debug("GetAllLots start", slog.String("rqID", rqID))
	defer func() {
		if err != nil {
			slog.Error("GetAllLots failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetAllLots completed", slog.String("rqID", rqID))
		}
	}()

	rows := []dbModel.LotJoined{}
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
			result = append(result, model.SymbolLots{Properties: dbConverter.ConvertStockProperties(row.StockProperties)})
		}
		if row.LotID.Valid {
			result[i].Lots = append(result[i].Lots, model.Lot{
				ID:       row.LotID.Int64,
				Symbol:   row.Symbol,
				Quantity: row.Quantity.Float64,
				Price:    row.Price.Float64,
				Fee:      row.Fee.Float64,
				Date:     row.Date.Int64,
				Account:  row.Account.String,
				Note:     row.Note.String,
				Type:     int(row.Type.Int64),
			})
		}
	}

	return result, nil
}

func (p *Postgres) DeleteLotsBySymbol(ctx context.Context, symbol string) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `DELETE FROM lots WHERE symbol = $1`

	slog.Debug("DeleteLotsBySymbol start", slog.String("rqID", rqID), slog.String("symbol", symbol))
	defer func() {
		if err != nil {
			slog.Error("DeleteLotsBySymbol failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("DeleteLotsBySymbol completed", slog.String("rqID", rqID))
		}
	}()

	_, err = p.txOrDb(ctx).ExecContext(ctx, query, symbol)
	return err
}
