package ui

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/tartampluch/go-wishes/internal/config"
)

// buildUpcomingTab lists birthdays within the chosen horizon, soonest first.
func (app *WishesApp) buildUpcomingTab(w fyne.Window) fyne.CanvasObject {
	horizon := NewNumericalEntry()
	horizon.SetText(strconv.Itoa(app.Upcoming.Horizon))
	horizon.Validator = func(s string) error {
		if err := app.Upcoming.SetHorizon(s); err != nil {
			return errors.New(app.Translator.Msg(config.TKeyErrHorizon))
		}
		return nil
	}

	app.upcomingList = widget.NewList(
		func() int { return len(app.Upcoming.Rows) },
		func() fyne.CanvasObject {
			return container.NewBorder(nil, nil, nil, widget.NewLabel(config.TablePlaceholder), widget.NewLabel(config.TablePlaceholder))
		},
		func(id widget.ListItemID, o fyne.CanvasObject) {
			if id >= len(app.Upcoming.Rows) {
				return
			}
			r := app.Upcoming.Rows[id]
			row := o.(*fyne.Container)
			row.Objects[0].(*widget.Label).SetText(fmt.Sprintf("%s  %s", r.Contact.Name, r.Contact.Birthday))
			row.Objects[1].(*widget.Label).SetText(app.Translator.DaysUntil(r.DaysUntil))
		},
	)
	app.upcomingStatus = widget.NewLabel(app.upcomingSummary())

	apply := func() {
		if err := horizon.Validate(); err != nil {
			dialog.ShowError(err, w)
			return
		}
		app.refreshUpcoming()
	}
	horizon.OnSubmitted = func(string) { apply() }
	btnRefresh := widget.NewButtonWithIcon(app.Translator.Msg(config.TKeyBtnRefresh), theme.ViewRefreshIcon(), apply)

	form := widget.NewForm(widget.NewFormItem(app.Translator.Msg(config.TKeyLblHorizon),
		container.NewBorder(nil, nil, nil, btnRefresh, horizon)))

	return container.NewBorder(form, app.upcomingStatus, nil, nil, app.upcomingList)
}

func (app *WishesApp) refreshUpcoming() {
	list, err := app.Service.Store.Contacts()
	if err != nil {
		slog.Error(config.ErrReload,
			config.LogKeyError, err,
			config.LogKeyComponent, config.CompUI)
		return
	}
	app.Upcoming.Refresh(list, app.Service.Now())
	app.upcomingList.Refresh()
	app.upcomingStatus.SetText(app.upcomingSummary())
}

func (app *WishesApp) upcomingSummary() string {
	return app.Translator.Plural(config.TKeyUpcomingStatus, len(app.Upcoming.Rows), map[string]any{
		config.TDataDays: app.Upcoming.Horizon,
	})
}
