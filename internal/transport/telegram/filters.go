package telegram

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stockroomapp/stockroom_bot/internal/converter/telebotConverter"
	"github.com/stockroomapp/stockroom_bot/internal/model"
	"github.com/stockroomapp/stockroom_bot/internal/portfolio"
	"github.com/stockroomapp/stockroom_bot/internal/service"
	"github.com/stockroomapp/stockroom_bot/utils"
	tele "gopkg.in/telebot.v4"
)

const filterPrompt = "Send the filter, one line per rule:\n\n" +
	"name [any|all]\n" +
	"field operator [operand]\n\n" +
	"fields: symbol, name, note, account, price, change, profit, profit%, value, cost, yield, quantity, group, purchased...\n" +
	"operators: equals, contains, matches, gt, lt, before, after, present, absent, in\n\n" +
	"example:\n" +
	"tech-losers any\n" +
	"profit lt 0\n" +
	"group equals Tech"

// Filters shows the saved filter sets.
func (ctrl *Controller) Filters(c tele.Context) error {
	return ctrl.renderFilterSets(c, false)
}

func (ctrl *Controller) renderFilterSets(c tele.Context, edit bool) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	names, err := ctrl.stockroomService.ListFilterSets(ctx)
	if err != nil {
		slog.Error("got error from stockroomService.ListFilterSets", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	text, markup := telebotConverter.FilterSetsResponse(names)
	if edit {
		return c.Edit(text, markup)
	}
	return c.Send(text, markup)
}

func (ctrl *Controller) initNewFilterSet(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	chatSession, err := ctrl.getSessionFromTeleCtxOrStorage(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}

	chatSession.State = model.ExpectingFilter
	return ctrl.expectInput(c, chatSession, filterPrompt)
}

// ProcessFilterSet parses a multi-line filter message. The first line names
// the set and may end with "any" or "all" to pick the combine mode; without
// the suffix the persisted default filter mode applies.
func (ctrl *Controller) ProcessFilterSet(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	chatSession, err := ctrl.getSessionFromTeleCtxOrStorage(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}
	defer ctrl.resetState(ctx, c, chatSession)

	set, err := parseFilterSet(c.Message().Text, ctrl.stockroomService.GetFilterMode(ctx))
	if err != nil {
		return c.Send(fmt.Sprintf("could not read the filter: %s\n\n%s", err.Error(), filterPrompt))
	}

	if err = ctrl.stockroomService.SaveFilterSet(ctx, set); err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			return c.Send("the filter needs a name and at least one rule")
		}
		slog.Error("got error from stockroomService.SaveFilterSet", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	if err = c.Send(fmt.Sprintf("filter %s saved (%d rule(s))", set.Name, len(set.Predicates))); err != nil {
		return err
	}
	return ctrl.renderFilterSets(c, false)
}

func parseFilterSet(text string, defaultMode portfolio.FilterMode) (portfolio.FilterSet, error) {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) < 2 {
		return portfolio.FilterSet{}, errBadInput
	}

	set := portfolio.FilterSet{Mode: defaultMode}
	head := strings.Fields(lines[0])
	if len(head) > 1 {
		switch {
		case strings.EqualFold(head[len(head)-1], "any"):
			set.Mode = portfolio.FilterModeOr
			head = head[:len(head)-1]
		case strings.EqualFold(head[len(head)-1], "all"):
			set.Mode = portfolio.FilterModeAnd
			head = head[:len(head)-1]
		}
	}
	set.Name = strings.Join(head, " ")

	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		predicate, err := portfolio.ParsePredicate(line)
		if err != nil {
			return portfolio.FilterSet{}, err
		}
		set.Predicates = append(set.Predicates, predicate)
	}
	return set, nil
}

func (ctrl *Controller) applyFilterSet(c tele.Context, name string) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	items, err := ctrl.stockroomService.ApplyFilterSet(ctx, name)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.Send("this filter no longer exists")
		}
		slog.Error("got error from stockroomService.ApplyFilterSet", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	text, markup := telebotConverter.FilterResultResponse(name, items)
	return c.Edit(text, markup, tele.ModeMarkdown)
}

func (ctrl *Controller) deleteFilterSet(c tele.Context, name string) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	if err := ctrl.stockroomService.DeleteFilterSet(ctx, name); err != nil {
		slog.Error("got error from stockroomService.DeleteFilterSet", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}
	return ctrl.renderFilterSets(c, true)
}

// Accounts renders the per-account position breakdown.
func (ctrl *Controller) Accounts(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	text, markup := telebotConverter.AccountsResponse(ctrl.stockroomService.GetAccountSubtotals(ctx))
	return c.Send(text, markup, tele.ModeMarkdown)
}
