package ui

import (
	"context"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/tartampluch/go-wishes/internal/config"
)

type historyRow struct {
	date, name, status string
}

var historyColumns = []struct {
	title string
	width float32
}{
	{config.TKeyColDate, config.ColWidthDate},
	{config.TKeyColName, config.ColWidthName},
	{config.TKeyColStatus, config.ColWidthStatus},
}

// buildHistoryTab shows the most recent ledger entries.
func (app *WishesApp) buildHistoryTab() fyne.CanvasObject {
	table := widget.NewTable(
		func() (int, int) { return len(app.history), len(historyColumns) },
		func() fyne.CanvasObject { return widget.NewLabel(config.TablePlaceholder) },
		func(id widget.TableCellID, o fyne.CanvasObject) {
			label := o.(*widget.Label)
			if id.Row >= len(app.history) {
				label.SetText("")
				return
			}
			r := app.history[id.Row]
			switch id.Col {
			case 0:
				label.SetText(r.date)
			case 1:
				label.SetText(r.name)
			default:
				label.SetText(r.status)
			}
		},
	)
	table.ShowHeaderRow = true
	table.CreateHeader = func() fyne.CanvasObject { return widget.NewLabel(config.TablePlaceholder) }
	table.UpdateHeader = func(id widget.TableCellID, o fyne.CanvasObject) {
		if id.Col >= 0 && id.Col < len(historyColumns) {
			o.(*widget.Label).SetText(app.Translator.Msg(historyColumns[id.Col].title))
		}
	}
	for i, def := range historyColumns {
		table.SetColumnWidth(i, def.width)
	}
	app.historyTable = table

	btnRefresh := widget.NewButtonWithIcon(app.Translator.Msg(config.TKeyBtnRefresh), theme.ViewRefreshIcon(), func() {
		app.loadHistory()
		table.Refresh()
	})
	return container.NewBorder(nil, container.NewHBox(btnRefresh), nil, nil, table)
}

// loadHistory snapshots the ledger into the history rows. Without a ledger
// the tab stays empty.
func (app *WishesApp) loadHistory() {
	if app.Service.Ledger == nil {
		app.history = nil
		return
	}

	ctx := app.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	entries, err := app.Service.Ledger.List(ctx, config.HistoryListLimit)
	if err != nil {
		slog.Error(config.ErrHistoryList,
			config.LogKeyError, err,
			config.LogKeyComponent, config.CompUI)
		return
	}

	rows := make([]historyRow, len(entries))
	for i, e := range entries {
		status := string(e.Status)
		if e.Error != "" {
			status += ": " + e.Error
		}
		rows[i] = historyRow{
			date:   e.At.Local().Format(config.DateTimeFormatDisplay),
			name:   e.Name,
			status: status,
		}
	}
	app.history = rows
}
