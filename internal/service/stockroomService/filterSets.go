package stockroomService

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"github.com/stockroomapp/stockroom_bot/data/settings"
	"github.com/stockroomapp/stockroom_bot/internal/model"
	"github.com/stockroomapp/stockroom_bot/internal/portfolio"
	"github.com/stockroomapp/stockroom_bot/internal/service"
	"github.com/stockroomapp/stockroom_bot/utils"
)

// SaveFilterSet persists a named predicate set as JSON. An existing set with
// the same name is overwritten.
func (s *StockroomService) SaveFilterSet(ctx context.Context, set portfolio.FilterSet) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "StockroomService.SaveFilterSet"

	set.Name = strings.TrimSpace(set.Name)
	if set.Name == "" || len(set.Predicates) == 0 {
		return service.ErrInvalidInput
	}

	payload, err := json.Marshal(set)
	if err != nil {
		slog.Error("failed to marshal filter set", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	slog.Debug("SaveFilterSet", slog.String("rqID", rqID), slog.String("op", op), slog.String("name", set.Name))
	return s.settings.SaveFilterSet(ctx, set.Name, string(payload))
}

func (s *StockroomService) GetFilterSet(ctx context.Context, name string) (portfolio.FilterSet, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	payload, err := s.settings.GetFilterSet(ctx, name)
	if err != nil {
		if errors.Is(err, settings.ErrNotFound) {
			return portfolio.FilterSet{}, service.ErrNotFound
		}
		return portfolio.FilterSet{}, err
	}

	var set portfolio.FilterSet
	if err = json.Unmarshal([]byte(payload), &set); err != nil {
		slog.Error("failed to unmarshal filter set", slog.String("rqID", rqID), slog.String("name", name), slog.String("err", err.Error()))
		return portfolio.FilterSet{}, err
	}
	return set, nil
}

// ListFilterSets returns the saved set names in alphabetical order.
func (s *StockroomService) ListFilterSets(ctx context.Context) ([]string, error) {
	sets, err := s.settings.GetFilterSets(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(sets))
	for name := range sets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *StockroomService) DeleteFilterSet(ctx context.Context, name string) error {
	return s.settings.DeleteFilterSet(ctx, name)
}

// ApplyFilterSet loads a saved set by name and evaluates it on the current
// view. Predicate errors fail closed just like FilteredSnapshot.
func (s *StockroomService) ApplyFilterSet(ctx context.Context, name string) ([]model.StockItem, error) {
	set, err := s.GetFilterSet(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.FilteredSnapshot(ctx, set.Predicates, set.Mode)
}
