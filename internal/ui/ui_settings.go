package ui

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/tartampluch/go-wishes/internal/config"
	"github.com/tartampluch/go-wishes/internal/contacts"
	"github.com/tartampluch/go-wishes/internal/messenger"
)

// settingsWidgets holds references to UI elements to simplify data retrieval during save.
type settingsWidgets struct {
	langSelect    *widget.Select
	contactsEntry *widget.Entry
	templateEntry *widget.Entry
	entryPort     *NumericalEntry
	entryDelay    *NumericalEntry

	kindSelect   *widget.Select
	webhookEntry *widget.Entry
	smtpHost     *widget.Entry
	smtpUser     *widget.Entry
	smtpFrom     *widget.Entry
	gatewayEntry *widget.Entry
	secretEntry  *widget.Entry

	checkReminder *widget.Check
	entryRemValue *NumericalEntry
	selectRemUnit *widget.Select
	selectRemDir  *widget.Select
}

// ShowSettingsWindow displays the configuration dialog.
func (app *WishesApp) ShowSettingsWindow() {
	if app.settingsWindow != nil {
		slog.Debug(config.MsgSettingsFocus, config.LogKeyComponent, config.CompUISet)
		app.settingsWindow.RequestFocus()
		return
	}

	slog.Info(config.MsgSettingsOpen, config.LogKeyComponent, config.CompUISet)
	w := app.App.NewWindow(app.Translator.Msg(config.TKeyWinSettings))
	app.settingsWindow = w

	sw := app.newSettingsWidgets()

	var refreshLayout func()
	onLayoutChange := func() {
		if refreshLayout != nil {
			refreshLayout()
		}
	}

	generalCard := app.buildGeneralCard(w, sw)
	messengerCard := app.buildMessengerCard(sw, app.Service.Settings.Messenger.Kind, onLayoutChange)
	notifCard := app.buildNotifCard(sw, onLayoutChange)

	// --- Actions ---
	saveAction := func() {
		if err := sw.entryPort.Validate(); err != nil {
			dialog.ShowError(err, w)
			return
		}
		if err := app.saveSettings(sw); err != nil {
			dialog.ShowError(err, w)
			return
		}
		w.Close()
	}

	btnSave := widget.NewButtonWithIcon(app.Translator.Msg(config.TKeyBtnSave), theme.DocumentSaveIcon(), saveAction)
	btnSave.Importance = widget.HighImportance
	btnCancel := widget.NewButtonWithIcon(app.Translator.Msg(config.TKeyBtnCancel), theme.CancelIcon(), func() { w.Close() })

	footerLabel := widget.NewLabel(fmt.Sprintf(app.Translator.Msg(config.TKeyLblFooter), config.Version))
	footerLabel.Alignment = fyne.TextAlignCenter
	footerLabel.TextStyle = fyne.TextStyle{Italic: true}

	paddedContent := container.NewPadded(container.NewVBox(
		generalCard,
		messengerCard,
		notifCard,
		container.NewGridWithColumns(config.LayoutColumnsDouble, btnCancel, btnSave),
		footerLabel,
	))

	refreshLayout = func() {
		paddedContent.Refresh()
		w.Resize(fyne.NewSize(config.SettingsWindowWidth, paddedContent.MinSize().Height))
	}

	w.SetContent(paddedContent)
	w.SetFixedSize(true)
	w.SetOnClosed(func() { app.settingsWindow = nil })

	refreshLayout()
	w.Show()
}

// newSettingsWidgets creates the editable fields filled from the current
// settings.
func (app *WishesApp) newSettingsWidgets() *settingsWidgets {
	s := app.Service.Settings
	sw := &settingsWidgets{}

	// --- General ---
	sw.langSelect = widget.NewSelect(app.Translator.Languages(), nil)
	sw.langSelect.SetSelected(app.Translator.Language())

	sw.contactsEntry = widget.NewEntry()
	sw.contactsEntry.SetText(s.ContactsPath)
	sw.templateEntry = widget.NewEntry()
	sw.templateEntry.SetText(s.TemplatesDir)

	sw.entryPort = NewNumericalEntry()
	sw.entryPort.SetText(s.ServerPort)
	sw.entryPort.Validator = func(v string) error {
		return app.translatePortError(config.ValidatePort(v))
	}

	sw.entryDelay = NewNumericalEntry()
	sw.entryDelay.SetText(strconv.Itoa(int(s.SendDelay / time.Second)))

	// --- Messenger ---
	sw.kindSelect = widget.NewSelect(messenger.Kinds(), nil)
	sw.webhookEntry = widget.NewEntry()
	sw.webhookEntry.SetText(s.Messenger.WebhookURL)
	sw.webhookEntry.SetPlaceHolder(config.PlaceholderURL)
	sw.smtpHost = widget.NewEntry()
	sw.smtpHost.SetText(s.Messenger.SMTPHost)
	sw.smtpUser = widget.NewEntry()
	sw.smtpUser.SetText(s.Messenger.SMTPUser)
	sw.smtpFrom = widget.NewEntry()
	sw.smtpFrom.SetText(s.Messenger.SMTPFrom)
	sw.gatewayEntry = widget.NewEntry()
	sw.gatewayEntry.SetText(s.Messenger.Gateway)

	// The stored secret is never shown; an empty field keeps it.
	sw.secretEntry = widget.NewPasswordEntry()

	// --- Reminder ---
	sw.checkReminder = widget.NewCheck(app.Translator.Msg(config.TKeyLblEnableRem), nil)
	sw.checkReminder.Checked = s.Reminder.Enabled

	sw.entryRemValue = NewNumericalEntry()
	sw.entryRemValue.SetText(strconv.Itoa(s.Reminder.Value))

	sw.selectRemUnit = widget.NewSelect([]string{
		app.Translator.Msg(config.TKeyUnitDays),
		app.Translator.Msg(config.TKeyUnitHours),
		app.Translator.Msg(config.TKeyUnitMinutes),
	}, nil)
	switch s.Reminder.Unit {
	case config.UnitHours:
		sw.selectRemUnit.SetSelected(app.Translator.Msg(config.TKeyUnitHours))
	case config.UnitMinutes:
		sw.selectRemUnit.SetSelected(app.Translator.Msg(config.TKeyUnitMinutes))
	default:
		sw.selectRemUnit.SetSelected(app.Translator.Msg(config.TKeyUnitDays))
	}

	sw.selectRemDir = widget.NewSelect([]string{
		app.Translator.Msg(config.TKeyDirBefore),
		app.Translator.Msg(config.TKeyDirAfter),
	}, nil)
	if s.Reminder.Direction == config.DirAfter {
		sw.selectRemDir.SetSelected(app.Translator.Msg(config.TKeyDirAfter))
	} else {
		sw.selectRemDir.SetSelected(app.Translator.Msg(config.TKeyDirBefore))
	}

	return sw
}

func (app *WishesApp) translatePortError(err error) error {
	if err == nil {
		return nil
	}
	switch err.Error() {
	case config.ErrPortRequired:
		return errors.New(app.Translator.Msg(config.TKeyErrPortReq))
	case config.ErrPortNumber:
		return errors.New(app.Translator.Msg(config.TKeyErrPortNum))
	case config.ErrPortRange:
		return errors.New(app.Translator.Msg(config.TKeyErrPortRange))
	}
	return err
}

// buildGeneralCard lays out language, files, port and pacing.
func (app *WishesApp) buildGeneralCard(w fyne.Window, sw *settingsWidgets) *widget.Card {
	browseContacts := widget.NewButton(app.Translator.Msg(config.TKeyBtnBrowse), func() {
		d := dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
			if err == nil && r != nil {
				sw.contactsEntry.SetText(r.URI().Path())
				_ = r.Close()
			}
		}, w)
		d.SetFilter(storage.NewExtensionFileFilter([]string{config.ExtCSV}))
		d.Show()
	})
	browseTemplates := widget.NewButton(app.Translator.Msg(config.TKeyBtnBrowse), func() {
		dialog.ShowFolderOpen(func(u fyne.ListableURI, err error) {
			if err == nil && u != nil {
				sw.templateEntry.SetText(u.Path())
			}
		}, w)
	})

	itemLang := widget.NewFormItem(app.Translator.Msg(config.TKeyLblLanguage), sw.langSelect)
	itemLang.HintText = app.Translator.Msg(config.TKeyHelpLanguage)

	itemContacts := widget.NewFormItem(app.Translator.Msg(config.TKeyLblContacts),
		container.NewBorder(nil, nil, nil, browseContacts, sw.contactsEntry))
	itemTemplates := widget.NewFormItem(app.Translator.Msg(config.TKeyLblTemplates),
		container.NewBorder(nil, nil, nil, browseTemplates, sw.templateEntry))

	itemPort := widget.NewFormItem(app.Translator.Msg(config.TKeyLblPort), sw.entryPort)
	itemPort.HintText = app.Translator.Msg(config.TKeyHelpPort)

	widDelay := container.NewBorder(nil, nil, nil, widget.NewLabel(app.Translator.Msg(config.TKeyLblSeconds)), sw.entryDelay)
	itemDelay := widget.NewFormItem(app.Translator.Msg(config.TKeyLblDelay), widDelay)

	form := widget.NewForm(itemLang, itemContacts, itemTemplates, itemPort, itemDelay)
	return widget.NewCard(app.Translator.Msg(config.TKeyLblGeneral), "", form)
}

// buildMessengerCard shows only the fields of the selected transport.
func (app *WishesApp) buildMessengerCard(sw *settingsWidgets, kind string, onLayoutChange func()) *widget.Card {
	webhookForm := widget.NewForm(
		widget.NewFormItem(app.Translator.Msg(config.TKeyLblWebhookURL), sw.webhookEntry),
	)
	smtpForm := widget.NewForm(
		widget.NewFormItem(app.Translator.Msg(config.TKeyLblSMTPHost), sw.smtpHost),
		widget.NewFormItem(app.Translator.Msg(config.TKeyLblSMTPUser), sw.smtpUser),
		widget.NewFormItem(app.Translator.Msg(config.TKeyLblSMTPFrom), sw.smtpFrom),
		widget.NewFormItem(app.Translator.Msg(config.TKeyLblGateway), sw.gatewayEntry),
	)
	secretLabel := widget.NewLabel("")
	secretRow := container.NewBorder(nil, nil, secretLabel, nil, sw.secretEntry)

	updateVis := func(kind string) {
		webhookForm.Hide()
		smtpForm.Hide()
		secretRow.Hide()
		switch kind {
		case config.MessengerWebhook:
			webhookForm.Show()
			secretLabel.SetText(app.Translator.Msg(config.TKeyLblToken))
			secretRow.Show()
		case config.MessengerSMTP:
			smtpForm.Show()
			secretLabel.SetText(app.Translator.Msg(config.TKeyLblPass))
			secretRow.Show()
		}
		if onLayoutChange != nil {
			onLayoutChange()
		}
	}
	sw.kindSelect.OnChanged = updateVis
	sw.kindSelect.SetSelected(kind)
	updateVis(kind)

	transport := widget.NewForm(widget.NewFormItem(app.Translator.Msg(config.TKeyLblTransport), sw.kindSelect))
	return widget.NewCard(app.Translator.Msg(config.TKeyLblMessenger), "",
		container.NewVBox(transport, webhookForm, smtpForm, secretRow))
}

// buildNotifCard constructs the calendar reminder UI.
func (app *WishesApp) buildNotifCard(sw *settingsWidgets, onLayoutChange func()) *widget.Card {
	lblStart := widget.NewLabel(app.Translator.Msg(config.TKeyLblStartDay))

	// Value | Unit | Direction | "the start of the day"
	controls := container.NewHBox(sw.selectRemUnit, sw.selectRemDir, lblStart)
	row := container.NewBorder(nil, nil, nil, controls, sw.entryRemValue)

	sw.checkReminder.OnChanged = func(b bool) {
		if b {
			row.Show()
		} else {
			row.Hide()
		}
		if onLayoutChange != nil {
			onLayoutChange()
		}
	}

	if sw.checkReminder.Checked {
		row.Show()
	} else {
		row.Hide()
	}

	return widget.NewCard(app.Translator.Msg(config.TKeyLblNotif), "", container.NewVBox(sw.checkReminder, row))
}

// collectSettings maps the widgets back onto a copy of the current settings.
func (app *WishesApp) collectSettings(sw *settingsWidgets) config.Settings {
	s := app.Service.Settings

	s.Language = sw.langSelect.Selected
	s.ContactsPath = sw.contactsEntry.Text
	s.TemplatesDir = sw.templateEntry.Text
	s.ServerPort = sw.entryPort.Text
	if n, ok := sw.entryDelay.Int(); ok {
		s.SendDelay = time.Duration(n) * time.Second
	}

	s.Messenger.Kind = sw.kindSelect.Selected
	s.Messenger.WebhookURL = sw.webhookEntry.Text
	s.Messenger.SMTPHost = sw.smtpHost.Text
	s.Messenger.SMTPUser = sw.smtpUser.Text
	s.Messenger.SMTPFrom = sw.smtpFrom.Text
	s.Messenger.Gateway = sw.gatewayEntry.Text

	// An empty value disables reminders even when the box is checked.
	if v, ok := sw.entryRemValue.Int(); ok && v > 0 {
		s.Reminder.Enabled = sw.checkReminder.Checked
		s.Reminder.Value = v
	} else {
		s.Reminder.Enabled = false
	}

	s.Reminder.Unit = config.UnitDays
	switch sw.selectRemUnit.Selected {
	case app.Translator.Msg(config.TKeyUnitHours):
		s.Reminder.Unit = config.UnitHours
	case app.Translator.Msg(config.TKeyUnitMinutes):
		s.Reminder.Unit = config.UnitMinutes
	}

	s.Reminder.Direction = config.DirBefore
	if sw.selectRemDir.Selected == app.Translator.Msg(config.TKeyDirAfter) {
		s.Reminder.Direction = config.DirAfter
	}

	s.Normalize()
	return s
}

// saveSettings persists the settings, stores a new secret in the keyring
// and applies everything to the running service.
func (app *WishesApp) saveSettings(sw *settingsWidgets) error {
	slog.Info(config.MsgSettingsSave, config.LogKeyComponent, config.CompUISet)

	s := app.collectSettings(sw)
	if err := s.Validate(); err != nil {
		return app.translatePortError(err)
	}
	if err := s.Save(app.SettingsPath); err != nil {
		slog.Error(config.ErrSettingsWrite,
			config.LogKeyError, err,
			config.LogKeyComponent, config.CompUISet)
		return err
	}

	secret := sw.secretEntry.Text
	if secret != "" {
		if err := s.Messenger.StoreSecret(secret); err != nil {
			slog.Error(config.ErrKeyringWrite,
				config.LogKeyError, err,
				config.LogKeyComponent, config.CompUISet)
		}
	} else if resolved, err := s.Messenger.ResolveSecret(); err == nil {
		secret = resolved
	}

	m, err := messenger.New(s.Messenger, secret)
	if err != nil {
		return err
	}

	app.Service.Settings = s
	app.Service.Messenger = m
	if s.ContactsPath != app.Service.Store.Path() {
		app.Service.Store = contacts.NewStore(s.ContactsPath)
		if app.stopWatch != nil {
			slog.Info(config.MsgWatcherRestart,
				config.LogKeyFile, s.ContactsPath,
				config.LogKeyComponent, config.CompUISet)
			app.startWatcher()
		}
	}
	app.Upcoming.Horizon = s.HorizonDays

	app.Translator.SetLanguage(s.Language)
	app.RefreshTrayMenu()
	if app.Window != nil {
		app.Window.SetTitle(app.Translator.Msg(config.TKeyWinTitle))
		app.Window.SetContent(app.buildContent(app.Window))
	}
	app.Reload()
	return nil
}
