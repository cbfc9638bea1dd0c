package ui

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/tartampluch/go-wishes/internal/config"
	"github.com/tartampluch/go-wishes/internal/contacts"
	"github.com/tartampluch/go-wishes/internal/greeting"
	"github.com/tartampluch/go-wishes/internal/outbox"
)

// buildTodayTab lists today's birthdays with the send and skip actions.
func (app *WishesApp) buildTodayTab(w fyne.Window) fyne.CanvasObject {
	selected := -1

	app.todayList = widget.NewList(
		func() int { return len(app.Today.Contacts) },
		func() fyne.CanvasObject {
			return container.NewBorder(nil, nil, nil, widget.NewLabel(config.TablePlaceholder), widget.NewLabel(config.TablePlaceholder))
		},
		func(id widget.ListItemID, o fyne.CanvasObject) {
			if id >= len(app.Today.Contacts) {
				return
			}
			c := app.Today.Contacts[id]
			row := o.(*fyne.Container)
			row.Objects[0].(*widget.Label).SetText(fmt.Sprintf("%s  %s", c.Name, c.Phone))
			row.Objects[1].(*widget.Label).SetText(string(app.Today.Status(c.ID)))
		},
	)
	app.todayList.OnSelected = func(id widget.ListItemID) { selected = id }
	app.todayList.OnUnselected = func(widget.ListItemID) { selected = -1 }

	app.todayStatus = widget.NewLabel("")

	picker := app.templatePicker()

	btnSend := widget.NewButtonWithIcon(app.Translator.Msg(config.TKeyBtnSend), theme.MailSendIcon(), app.SendWishes)
	btnSend.Importance = widget.HighImportance

	btnSkip := widget.NewButtonWithIcon(app.Translator.Msg(config.TKeyBtnSkip), theme.MediaSkipNextIcon(), func() {
		if selected < 0 || selected >= len(app.Today.Contacts) {
			return
		}
		app.SkipWishes(app.Today.Contacts[selected])
		app.todayList.UnselectAll()
	})

	templateRow := widget.NewForm(widget.NewFormItem(app.Translator.Msg(config.TKeyLblTemplate), picker))
	actions := container.NewGridWithColumns(config.LayoutColumnsDouble, btnSkip, btnSend)

	return container.NewBorder(templateRow, container.NewVBox(actions, app.todayStatus), nil, nil, app.todayList)
}

// templatePicker offers every cake found in the templates directory plus a
// random choice. The selection applies to this session only.
func (app *WishesApp) templatePicker() *widget.Select {
	random := app.Translator.Msg(config.TKeyTemplateRandom)
	options := []string{random}

	files, err := greeting.Templates(app.Service.Settings.TemplatesDir)
	if err != nil {
		slog.Debug(config.MsgPlainBackground,
			config.LogKeyError, err,
			config.LogKeyComponent, config.CompUI)
	}
	for _, f := range files {
		options = append(options, strings.TrimSuffix(filepath.Base(f), filepath.Ext(f)))
	}

	sel := widget.NewSelect(options, func(choice string) {
		if choice == random {
			app.Service.Settings.Template = ""
			return
		}
		app.Service.Settings.Template = choice
	})
	if t := app.Service.Settings.Template; t != "" {
		sel.SetSelected(strings.TrimSuffix(t, filepath.Ext(t)))
	} else {
		sel.SetSelected(random)
	}
	return sel
}

// SendWishes greets every pending contact of the day in the background.
// Only one run is active at a time.
func (app *WishesApp) SendWishes() {
	pending := app.Today.Pending()
	if len(pending) == 0 {
		app.setTodayStatus(app.Translator.Msg(config.TKeySendNone))
		return
	}
	if !app.sending.CompareAndSwap(false, true) {
		return
	}

	run := app.prepareDelivery(pending, func(f func()) { fyne.Do(f) })
	go func() {
		defer app.sending.Store(false)
		run()
	}()
}

// deliver sends to list synchronously. onUI must execute its argument on
// the fyne thread.
func (app *WishesApp) deliver(list []contacts.Contact, onUI func(func())) []outbox.Result {
	return app.prepareDelivery(list, onUI)()
}

// prepareDelivery builds the queue on the fyne thread, so that it captures
// the settings as they are now, and returns the blocking send step.
func (app *WishesApp) prepareDelivery(list []contacts.Contact, onUI func(func())) func() []outbox.Result {
	log := slog.With(config.LogKeyComponent, config.CompUI)

	total := len(list)
	done := 0
	app.setTodayStatus(app.progressText(0, total))

	q := app.Service.Queue(func(res outbox.Result) {
		onUI(func() {
			done++
			app.Today.Mark(res)
			app.setTodayStatus(app.progressText(done, total))
			if app.todayList != nil {
				app.todayList.Refresh()
			}
		})
	})
	ctx := app.Ctx

	return func() []outbox.Result {
		log.Info(config.MsgSendStarted, config.LogKeyCount, total)
		results := q.Run(ctx, list)

		sent := outbox.Count(results, outbox.StatusSent)
		failed := outbox.Count(results, outbox.StatusFailed)
		log.Info(config.MsgSendFinished,
			config.LogKeySent, sent,
			config.LogKeyFailed, failed)

		onUI(func() {
			summary := app.Translator.Format(config.TKeySendDone, map[string]any{
				config.TDataSent:   sent,
				config.TDataFailed: failed,
			})
			app.setTodayStatus(summary)
			app.loadHistory()
			app.refreshWidgets()
			app.App.SendNotification(fyne.NewNotification(config.AppName, summary))
		})
		return results
	}
}

// SkipWishes marks c as skipped for today.
func (app *WishesApp) SkipWishes(c contacts.Contact) {
	res := app.Service.Queue(nil).Skip(app.Ctx, c)
	app.Today.Mark(res)
	app.setTodayStatus(app.Translator.Format(config.TKeyStatusSkipped, map[string]any{config.TDataName: c.Name}))
	app.loadHistory()
	app.refreshWidgets()
}

func (app *WishesApp) progressText(done, total int) string {
	return app.Translator.Format(config.TKeySendProgress, map[string]any{
		config.TDataDone:  done,
		config.TDataTotal: total,
	})
}

func (app *WishesApp) setTodayStatus(text string) {
	if app.todayStatus != nil {
		app.todayStatus.SetText(text)
	}
}
