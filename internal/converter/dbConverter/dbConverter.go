package dbConverter

import (
	"github.com/stockroomapp/stockroom_bot/internal/model"
	"github.com/stockroomapp/stockroom_bot/internal/model/dbModel"
)

func ConvertStockProperties(row dbModel.StockProperties) model.StockProperties {
	return model.StockProperties{
		Symbol:             row.Symbol,
		Portfolio:          row.Portfolio,
		Data:               row.Data,
		GroupColor:         row.GroupColor,
		Marker:             row.Marker,
		Notes:              row.Notes,
		DividendNotes:      row.DividendNotes,
		AnnualDividendRate: row.AnnualDividendRate,
		AlertAbove:         row.AlertAbove,
		AlertAboveNote:     row.AlertAboveNote,
		AlertBelow:         row.AlertBelow,
		AlertBelowNote:     row.AlertBelowNote,
	}
}

func ConvertLot(row dbModel.Lot) model.Lot {
	return model.Lot{
		ID:       row.ID,
		Symbol:   row.Symbol,
		Quantity: row.Quantity,
		Price:    row.Price,
		Fee:      row.Fee,
		Date:     row.Date,
		Account:  row.Account,
		Note:     row.Note,
		Type:     row.Type,
	}
}

func ConvertEvent(row dbModel.Event) model.Event {
	return model.Event{
		ID:       row.ID,
		Symbol:   row.Symbol,
		Type:     row.Type,
		Title:    row.Title,
		Note:     row.Note,
		Datetime: row.Datetime,
	}
}

func ConvertDividend(row dbModel.Dividend) model.DividendRecord {
	return model.DividendRecord{
		ID:      row.ID,
		Symbol:  row.Symbol,
		Amount:  row.Amount,
		Type:    row.Type,
		Cycle:   row.Cycle,
		Paydate: row.Paydate,
		Exdate:  row.Exdate,
		Account: row.Account,
		Note:    row.Note,
	}
}

func ConvertGroup(row dbModel.Group) model.Group {
	return model.Group{Color: row.Color, Name: row.Name}
}
