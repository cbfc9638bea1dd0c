package ui

import (
	"errors"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/tartampluch/go-wishes/internal/config"
	"github.com/tartampluch/go-wishes/internal/contacts"
)

// contactColumns maps table columns to the sortable fields and their titles.
var contactColumns = []struct {
	column contacts.Column
	title  string
	width  float32
}{
	{contacts.ColumnName, config.TKeyColName, config.ColWidthName},
	{contacts.ColumnPhone, config.TKeyColPhone, config.ColWidthPhone},
	{contacts.ColumnBirthday, config.TKeyColBirthday, config.ColWidthBirthday},
}

// buildContactsTab shows the searchable contact table. Tapping a header
// sorts by that column, tapping it again reverses the order.
func (app *WishesApp) buildContactsTab(w fyne.Window) fyne.CanvasObject {
	selected := -1

	search := widget.NewEntry()
	search.SetPlaceHolder(app.Translator.Msg(config.TKeyLblSearch))
	search.OnChanged = func(q string) {
		app.Contacts.SetQuery(q)
		selected = -1
		app.contactsTable.UnselectAll()
		app.contactsTable.Refresh()
	}

	table := widget.NewTable(
		func() (int, int) {
			return len(app.Contacts.Rows()), len(contactColumns)
		},
		func() fyne.CanvasObject {
			return widget.NewLabel(config.TablePlaceholder)
		},
		func(id widget.TableCellID, o fyne.CanvasObject) {
			label := o.(*widget.Label)
			c, ok := app.Contacts.Row(id.Row)
			if !ok {
				label.SetText("")
				return
			}
			label.SetText(cellText(c, contactColumns[id.Col].column))
		},
	)

	table.ShowHeaderRow = true
	table.CreateHeader = func() fyne.CanvasObject {
		return widget.NewButton(config.TablePlaceholder, func() {})
	}
	table.UpdateHeader = func(id widget.TableCellID, o fyne.CanvasObject) {
		btn := o.(*widget.Button)
		if id.Col < 0 || id.Col >= len(contactColumns) {
			return
		}
		def := contactColumns[id.Col]

		text := app.Translator.Msg(def.title)
		if col, asc, sorted := app.Contacts.SortState(); sorted && col == def.column {
			if asc {
				text += config.SortIconAsc
			} else {
				text += config.SortIconDesc
			}
		}
		btn.SetText(text)

		btn.OnTapped = func() {
			app.Contacts.ToggleSort(def.column)
			col, asc, _ := app.Contacts.SortState()
			slog.Debug(config.MsgSorted,
				config.LogKeyComponent, config.CompUI,
				config.LogKeySortCol, int(col),
				config.LogKeySortAsc, asc)
			table.Refresh()
		}
	}
	for i, def := range contactColumns {
		table.SetColumnWidth(i, def.width)
	}
	table.OnSelected = func(id widget.TableCellID) { selected = id.Row }
	table.OnUnselected = func(widget.TableCellID) { selected = -1 }
	app.contactsTable = table

	btnAdd := widget.NewButtonWithIcon(app.Translator.Msg(config.TKeyBtnAdd), theme.ContentAddIcon(), func() {
		app.showContactDialog(w, NewContactForm(contacts.Contact{}))
	})
	btnEdit := widget.NewButtonWithIcon(app.Translator.Msg(config.TKeyBtnEdit), theme.DocumentCreateIcon(), func() {
		if c, ok := app.Contacts.Row(selected); ok {
			app.showContactDialog(w, NewContactForm(c))
		}
	})
	btnDelete := widget.NewButtonWithIcon(app.Translator.Msg(config.TKeyBtnDelete), theme.DeleteIcon(), func() {
		if c, ok := app.Contacts.Row(selected); ok {
			app.confirmDelete(w, c)
		}
	})
	btnDelete.Importance = widget.DangerImportance

	actions := container.NewHBox(btnAdd, btnEdit, btnDelete)
	return container.NewBorder(search, actions, nil, nil, table)
}

func cellText(c contacts.Contact, col contacts.Column) string {
	switch col {
	case contacts.ColumnPhone:
		return c.Phone
	case contacts.ColumnBirthday:
		return c.Birthday
	default:
		return c.Name
	}
}

// showContactDialog opens the add/edit form for f.
func (app *WishesApp) showContactDialog(w fyne.Window, f *ContactForm) {
	name := widget.NewEntry()
	name.SetText(f.Name)
	phone := widget.NewEntry()
	phone.SetText(f.Phone)
	bday := widget.NewEntry()
	bday.SetText(f.Birthday)
	bday.SetPlaceHolder(config.BirthdayPlaceholder)

	itemName := widget.NewFormItem(app.Translator.Msg(config.TKeyLblName), name)
	itemPhone := widget.NewFormItem(app.Translator.Msg(config.TKeyLblPhone), phone)
	itemBday := widget.NewFormItem(app.Translator.Msg(config.TKeyLblBirthday), bday)
	itemBday.HintText = app.Translator.Msg(config.TKeyHelpBirthday)

	title := config.TKeyDlgAdd
	if f.Editing() {
		title = config.TKeyDlgEdit
	}

	d := dialog.NewForm(app.Translator.Msg(title),
		app.Translator.Msg(config.TKeyBtnSave),
		app.Translator.Msg(config.TKeyBtnCancel),
		[]*widget.FormItem{itemName, itemPhone, itemBday},
		func(ok bool) {
			if !ok {
				return
			}
			f.Name, f.Phone, f.Birthday = name.Text, phone.Text, bday.Text
			if err := app.saveContact(f); err != nil {
				dialog.ShowError(err, w)
			}
		}, w)
	d.Resize(fyne.NewSize(config.DialogWidth, d.MinSize().Height))
	d.Show()
}

// saveContact validates f and writes it to the store. The returned error is
// translated for display.
func (app *WishesApp) saveContact(f *ContactForm) error {
	errs := f.FieldErrors()
	for _, field := range []string{config.TKeyLblName, config.TKeyLblPhone, config.TKeyLblBirthday} {
		if key, bad := errs[field]; bad {
			return errors.New(app.Translator.Msg(key))
		}
	}

	c, err := f.Save(app.Service.Store)
	if err != nil {
		slog.Error(config.ErrContactSave,
			config.LogKeyError, err,
			config.LogKeyComponent, config.CompUI)
		return err
	}
	slog.Info(config.MsgContactSaved,
		config.LogKeyName, c.Name,
		config.LogKeyComponent, config.CompUI)

	app.Reload()
	return nil
}

func (app *WishesApp) confirmDelete(w fyne.Window, c contacts.Contact) {
	msg := app.Translator.Format(config.TKeyDlgDelete, map[string]any{config.TDataName: c.Name})
	dialog.ShowConfirm(app.Translator.Msg(config.TKeyDlgDeleteTitle), msg, func(ok bool) {
		if !ok {
			return
		}
		if err := app.deleteContact(c); err != nil {
			dialog.ShowError(err, w)
		}
	}, w)
}

func (app *WishesApp) deleteContact(c contacts.Contact) error {
	if _, err := app.Service.Store.DeleteByID(c.ID); err != nil {
		slog.Error(config.ErrContactDelete,
			config.LogKeyError, err,
			config.LogKeyComponent, config.CompUI)
		return err
	}
	slog.Info(config.MsgContactDeleted,
		config.LogKeyName, c.Name,
		config.LogKeyComponent, config.CompUI)
	app.Reload()
	return nil
}
