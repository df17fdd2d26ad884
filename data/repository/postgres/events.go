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

func (p *Postgres) InsertEvent(ctx context.Context, event model.Event) (eventID int64, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `
		INSERT INTO events(symbol, type, title, note, datetime)
		VALUES($1, $2, $3, $4, $5)
		RETURNING event_id
		`

	slog.Debug("InsertEvent start", slog.String("rqID", rqID), slog.String("symbol", event.Symbol))
	defer func() {
		if err != nil {
			slog.Error("InsertEvent failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("InsertEvent completed", slog.String("rqID", rqID))
		}
	}()

	err = p.txOrDb(ctx).QueryRowContext(ctx, query,
		event.Symbol, event.Type, event.Title, event.Note, event.Datetime,
	).Scan(&eventID)
	if err != nil {
		return 0, err
	}

	return eventID, nil
}

func (p *Postgres) DeleteEvent(ctx context.Context, eventID int64) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `DELETE FROM events WHERE event_id = $1`

	slog.Debug("DeleteEvent start", slog.String("rqID", rqID), slog.Int64("eventID", eventID))
	defer func() {
		if err != nil {
			slog.Error("DeleteEvent failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("DeleteEvent completed", slog.String("rqID", rqID))
		}
	}()

	res, err := p.txOrDb(ctx).ExecContext(ctx, query, eventID)
	if err != nil {
		return err
	}
	if affected, raErr := res.RowsAffected(); raErr == nil && affected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// GetDueEvents returns events whose datetime has passed.
func (p *Postgres) GetDueEvents(ctx context.Context, before int64) (events []model.Event, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `
		SELECT event_id, symbol, type, title, note, datetime
		FROM events
		WHERE datetime <= $1
		ORDER BY datetime
		`

	slog.Debug("GetDueEvents start", slog.String("rqID", rqID))
	defer func() {
		if err != nil {
			slog.Error("GetDueEvents failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetDueEvents completed", slog.String("rqID", rqID))
		}
	}()

	rows := []dbModel.Event{}
	err = p.txOrDb(ctx).SelectContext(ctx, &rows, query, before)
	if err != nil {
		return nil, err
	}

	events = make([]model.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, dbConverter.ConvertEvent(row))
	}

	return events, nil
}

// GetAllEvents returns every properties row together with its events, one
// entry per symbol.
func (p *Postgres) GetAllEvents(ctx context.Context) (result []model.SymbolEvents, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `
		SELECT s.symbol, s.portfolio, s.data, s.group_color, s.marker, s.notes, s.dividend_notes,
			s.annual_dividend_rate, s.alert_above, s.alert_above_note, s.alert_below, s.alert_below_note,
			e.event_id, e.type AS event_type, e.title AS event_title, e.note AS event_note, e.datetime AS event_datetime
		FROM stocks s
		LEFT JOIN events e ON e.symbol = s.symbol
		ORDER BY s.symbol, e.datetime, e.event_id
		`

	slog.Debug("GetAllEvents start", slog.String("rqID", rqID))
	defer func() {
		if err != nil {
			slog.Error("GetAllEvents failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetAllEvents completed", slog.String("rqID", rqID))
		}
	}()

	rows := []dbModel.EventJoined{}
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
			result = append(result, model.SymbolEvents{Properties: dbConverter.ConvertStockProperties(row.StockProperties)})
		}
		if row.EventID.Valid {
			result[i].Events = append(result[i].Events, model.Event{
				ID:       row.EventID.Int64,
				Symbol:   row.Symbol,
				Type:     int(row.Type.Int64),
				Title:    row.Title.String,
				Note:     row.Note.String,
				Datetime: row.Datetime.Int64,
			})
		}
	}

	return result, nil
}
