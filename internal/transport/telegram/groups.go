package telegram

import (
	"context"
	"errors"
	"hash/fnv"
	"log/slog"
	"strconv"
	"strings"

	"github.com/stockroomapp/stockroom_bot/internal/converter/telebotConverter"
	"github.com/stockroomapp/stockroom_bot/internal/model"
	"github.com/stockroomapp/stockroom_bot/internal/service"
	"github.com/stockroomapp/stockroom_bot/utils"
	tele "gopkg.in/telebot.v4"
)

// groupPalette mirrors the seeded predefined colors; new groups take the
// first unused one.
var groupPalette = []int{4294198070, 4283215696, 4280391411, 4294961979, 4288423856}

const markerMax = 5

func (ctrl *Controller) groupName(ctx context.Context, color int) string {
	if color == 0 {
		return ""
	}
	groups, err := ctrl.stockroomService.GetGroups(ctx)
	if err != nil {
		return ""
	}
	for _, group := range groups {
		if group.Color == color {
			return group.Name
		}
	}
	return ""
}

// Groups renders the color groups with member counts.
func (ctrl *Controller) Groups(c tele.Context) error {
	return ctrl.renderGroups(c, false)
}

func (ctrl *Controller) renderGroups(c tele.Context, edit bool) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	groups, err := ctrl.stockroomService.GetGroups(ctx)
	if err != nil {
		slog.Error("got error from stockroomService.GetGroups", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	memberCounts := make(map[int]int)
	for _, item := range ctrl.stockroomService.Snapshot(ctx) {
		if item.Properties.GroupColor != 0 {
			memberCounts[item.Properties.GroupColor]++
		}
	}

	text, markup := telebotConverter.GroupsResponse(groups, memberCounts)
	if edit {
		return c.Edit(text, markup)
	}
	return c.Send(text, markup)
}

// ProcessGroup attaches the symbol to a group by name. An existing name
// reuses its color (renaming happens by case: the stored name is updated),
// a new name takes a free palette color, "clear" detaches the symbol.
func (ctrl *Controller) ProcessGroup(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	chatSession, err := ctrl.getSessionFromTeleCtxOrStorage(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}
	defer ctrl.resetState(ctx, c, chatSession)
	symbol := chatSession.Symbol

	name := strings.TrimSpace(c.Message().Text)
	if name == "" {
		return c.Send("enter the group name or clear")
	}

	group := model.Group{}
	if !strings.EqualFold(name, "clear") {
		groups, err := ctrl.stockroomService.GetGroups(ctx)
		if err != nil {
			slog.Error("got error from stockroomService.GetGroups", slog.String("rqID", rqID), slog.String("err", err.Error()))
			return c.Send(internalErrMsg)
		}
		group = model.Group{Color: pickGroupColor(name, groups), Name: name}
	}

	if err = ctrl.stockroomService.AssignGroup(ctx, symbol, group); err != nil {
		slog.Error("got error from stockroomService.AssignGroup", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}
	return ctrl.renderStockDetails(c, symbol, false)
}

func pickGroupColor(name string, groups []model.Group) int {
	used := make(map[int]bool, len(groups))
	for _, group := range groups {
		if strings.EqualFold(group.Name, name) {
			return group.Color
		}
		used[group.Color] = true
	}
	for _, color := range groupPalette {
		if !used[color] {
			return color
		}
	}
	// palette exhausted, derive a stable color from the name
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(name)))
	color := int(h.Sum32())
	if color == 0 {
		color = 1
	}
	return color
}

// cycleMarker steps the symbol marker 0..5 and wraps around.
func (ctrl *Controller) cycleMarker(c tele.Context, symbol string) error {
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

	marker := (item.Properties.Marker + 1) % (markerMax + 1)
	if err = ctrl.stockroomService.SetMarker(ctx, symbol, marker); err != nil {
		slog.Error("got error from stockroomService.SetMarker", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}
	return ctrl.renderStockDetails(c, symbol, true)
}

func (ctrl *Controller) deleteGroup(c tele.Context, raw string) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	color, err := strconv.Atoi(raw)
	if err != nil {
		slog.Error("bad group color in callback", slog.String("rqID", rqID), slog.String("data", raw))
		return c.Send(internalErrMsg)
	}

	if err = ctrl.stockroomService.DeleteGroup(ctx, color); err != nil {
		slog.Error("got error from stockroomService.DeleteGroup", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}
	return ctrl.renderGroups(c, true)
}
