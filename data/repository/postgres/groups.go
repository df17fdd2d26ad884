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

func (p *Postgres) UpsertGroup(ctx context.Context, group model.Group) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `
		INSERT INTO groups(color, name)
		VALUES($1, $2)
		ON CONFLICT (color) DO UPDATE SET name = EXCLUDED.name
		`

	slog.Debug("UpsertGroup start", slog.String("rqID", rqID), slog.Int("color", group.Color))
	defer func() {
		if err != nil {
			slog.Error("UpsertGroup failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("UpsertGroup completed", slog.String("rqID", rqID))
		}
	}()

	_, err = p.txOrDb(ctx).ExecContext(ctx, query, group.Color, group.Name)
	return err
}

func (p *Postgres) GetGroups(ctx context.Context) (groups []model.Group, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `SELECT color, name FROM groups ORDER BY name`

	slog.Debug("GetGroups start", slog.String("rqID", rqID))
	defer func() {
		if err != nil {
			slog.Error("GetGroups failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetGroups completed", slog.String("rqID", rqID))
		}
	}()

	rows := []dbModel.Group{}
	err = p.txOrDb(ctx).SelectContext(ctx, &rows, query)
	if err != nil {
		return nil, err
	}

	groups = make([]model.Group, 0, len(rows))
	for _, row := range rows {
		groups = append(groups, dbConverter.ConvertGroup(row))
	}

	return groups, nil
}

// DeleteGroup removes a group and detaches its member stocks.
func (p *Postgres) DeleteGroup(ctx context.Context, color int) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	slog.Debug("DeleteGroup start", slog.String("rqID", rqID), slog.Int("color", color))
	defer func() {
		if err != nil {
			slog.Error("DeleteGroup failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("DeleteGroup completed", slog.String("rqID", rqID))
		}
	}()

	_, err = p.txOrDb(ctx).ExecContext(ctx, `UPDATE stocks SET group_color = 0 WHERE group_color = $1`, color)
	if err != nil {
		return err
	}

	res, err := p.txOrDb(ctx).ExecContext(ctx, `DELETE FROM groups WHERE color = $1`, color)
	if err != nil {
		return err
	}
	if affected, raErr := res.RowsAffected(); raErr == nil && affected == 0 {
		return repository.ErrNotFound
	}

	return nil
}
