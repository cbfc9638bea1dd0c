package ui

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"github.com/tartampluch/go-wishes/internal/config"
	"github.com/tartampluch/go-wishes/internal/contacts"
	"github.com/tartampluch/go-wishes/internal/daemon"
	"github.com/tartampluch/go-wishes/internal/locale"
)

// WishesApp encapsulates the UI state, its view models and the shared
// service.
type WishesApp struct {
	App          fyne.App
	Window       fyne.Window
	Service      *daemon.Service
	Translator   *locale.Translator
	SettingsPath string
	Ctx          context.Context

	Tray desktop.App
	Menu *fyne.Menu

	TrayStatusItem   *fyne.MenuItem
	TrayShowItem     *fyne.MenuItem
	TraySendItem     *fyne.MenuItem
	TrayRefreshItem  *fyne.MenuItem
	TraySettingsItem *fyne.MenuItem

	Today    *TodayView
	Contacts *ContactsView
	Upcoming *UpcomingView

	settingsWindow fyne.Window
	sending        atomic.Bool

	// shownDay is the date the views were last computed for.
	shownDay time.Time

	stopWatch   context.CancelFunc
	watchedPath string

	// Widgets refreshed when the view models change.
	todayList      *widget.List
	todayStatus    *widget.Label
	contactsTable  *widget.Table
	upcomingList   *widget.List
	upcomingStatus *widget.Label
	historyTable   *widget.Table
	history        []historyRow
}

// NewWishesApp constructs the application around svc.
func NewWishesApp(a fyne.App, ctx context.Context, svc *daemon.Service, settingsPath string) *WishesApp {
	a.SetIcon(AppIcon())

	return &WishesApp{
		App:          a,
		Service:      svc,
		Translator:   svc.Translator,
		SettingsPath: settingsPath,
		Ctx:          ctx,
		Today:        NewTodayView(nil, svc.Now()),
		Contacts:     NewContactsView(nil),
		Upcoming:     NewUpcomingView(svc.Settings.HorizonDays),
	}
}

// Run starts the feed server and the contacts watcher, then blocks in the
// fyne main loop.
func (app *WishesApp) Run() {
	if app.Service.Server != nil {
		go func() {
			slog.Info(config.MsgServerListen,
				config.LogKeyPort, app.Service.Server.Port,
				config.LogKeyComponent, config.CompUI)

			if err := app.Service.Server.Start(app.Ctx); err != nil {
				slog.Error(config.ErrServerStartup,
					config.LogKeyError, err,
					config.LogKeyComponent, config.CompUI)
				app.notifyError()
			}
		}()
	}

	app.startWatcher()
	go app.backgroundWorker(app.Ctx, config.DayCheckInterval, fyne.Do)

	if desk, ok := app.App.(desktop.App); ok {
		app.Tray = desk
		app.Tray.SetSystemTrayIcon(app.App.Icon())
		app.setupTrayMenu()
	} else {
		slog.Warn(config.ErrTrayNotSupported, config.LogKeyComponent, config.CompUI)
	}

	app.ShowMainWindow()
	app.App.Run()
}

// startWatcher follows the current contacts file, stopping any watcher on
// a previous one. It must run on the fyne thread.
func (app *WishesApp) startWatcher() {
	if app.stopWatch != nil {
		app.stopWatch()
	}
	ctx, cancel := context.WithCancel(app.Ctx)
	app.stopWatch = cancel

	store := app.Service.Store
	app.watchedPath = store.Path()
	go func() {
		err := store.Watch(ctx, config.WatchDebounce, func([]contacts.Contact) {
			fyne.Do(app.Reload)
		})
		if err != nil {
			slog.Warn(config.ErrWatch,
				config.LogKeyError, err,
				config.LogKeyComponent, config.CompUI)
		}
	}()
}

// backgroundWorker wakes up every interval and asks the UI thread, through
// onUI, to recompute the views once the date has changed.
func (app *WishesApp) backgroundWorker(ctx context.Context, interval time.Duration, onUI func(func())) {
	log := slog.With(config.LogKeyComponent, config.CompWorker)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info(config.MsgWorkerStart, config.LogKeyInterval, interval)

	for {
		select {
		case <-ctx.Done():
			log.Info(config.MsgWorkerStop)
			return
		case <-ticker.C:
			onUI(func() { app.checkDay() })
		}
	}
}

// checkDay reloads the views when the service clock has moved to another
// date and reports whether it did.
func (app *WishesApp) checkDay() bool {
	today := dateOf(app.Service.Now())
	if today.Equal(app.shownDay) {
		return false
	}
	slog.Info(config.MsgDayChanged,
		config.LogKeyDate, today.Format(time.DateOnly),
		config.LogKeyComponent, config.CompWorker)
	app.Reload()
	return true
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ShowMainWindow opens the tabbed main window, or focuses it when open.
func (app *WishesApp) ShowMainWindow() {
	if app.Window != nil {
		app.Window.RequestFocus()
		return
	}

	slog.Info(config.MsgOpenWindow, config.LogKeyComponent, config.CompUI)
	w := app.App.NewWindow(app.Translator.Msg(config.TKeyWinTitle))
	w.Resize(fyne.NewSize(config.MainWinWidth, config.MainWinHeight))
	w.SetContent(app.buildContent(w))
	w.SetOnClosed(func() { app.Window = nil })
	app.Window = w

	app.Reload()
	w.Show()
}

func (app *WishesApp) buildContent(w fyne.Window) fyne.CanvasObject {
	return container.NewAppTabs(
		container.NewTabItem(app.Translator.Msg(config.TKeyTabToday), app.buildTodayTab(w)),
		container.NewTabItem(app.Translator.Msg(config.TKeyTabContacts), app.buildContactsTab(w)),
		container.NewTabItem(app.Translator.Msg(config.TKeyTabUpcoming), app.buildUpcomingTab(w)),
		container.NewTabItem(app.Translator.Msg(config.TKeyTabHistory), app.buildHistoryTab()),
	)
}

// Reload re-reads the store and refreshes every view. It must run on the
// fyne thread.
func (app *WishesApp) Reload() {
	list, err := app.Service.Store.Contacts()
	if err != nil {
		slog.Error(config.ErrReload,
			config.LogKeyError, err,
			config.LogKeyComponent, config.CompUI)
		app.notifyError()
		return
	}

	now := app.Service.Now()
	app.shownDay = dateOf(now)
	app.Today.Refresh(list, now)
	app.Contacts.SetContacts(list)
	app.Upcoming.Refresh(list, now)
	app.loadHistory()

	app.refreshWidgets()
	app.updateTrayStatus(len(app.Today.Contacts))

	if app.Service.Server != nil {
		if err := app.Service.RefreshFeed(); err != nil {
			slog.Error(config.ErrFeedRefresh,
				config.LogKeyError, err,
				config.LogKeyComponent, config.CompUI)
		}
	}
}

func (app *WishesApp) refreshWidgets() {
	if app.todayList != nil {
		app.todayList.Refresh()
	}
	if app.contactsTable != nil {
		app.contactsTable.Refresh()
	}
	if app.upcomingList != nil {
		app.upcomingList.Refresh()
		app.upcomingStatus.SetText(app.upcomingSummary())
	}
	if app.historyTable != nil {
		app.historyTable.Refresh()
	}
}

// setupTrayMenu constructs the system tray menu.
func (app *WishesApp) setupTrayMenu() {
	app.TrayStatusItem = fyne.NewMenuItem(app.Translator.Msg(config.TKeyTrayStatusZero), app.ShowMainWindow)
	app.TrayShowItem = fyne.NewMenuItem(app.Translator.Msg(config.TKeyMenuShow), app.ShowMainWindow)
	app.TraySendItem = fyne.NewMenuItem(app.Translator.Msg(config.TKeyMenuSend), app.SendWishes)
	app.TrayRefreshItem = fyne.NewMenuItem(app.Translator.Msg(config.TKeyMenuRefresh), func() {
		slog.Info(config.MsgManualRefresh, config.LogKeyComponent, config.CompUI)
		app.Reload()
	})
	app.TraySettingsItem = fyne.NewMenuItem(app.Translator.Msg(config.TKeyMenuSettings), app.ShowSettingsWindow)

	app.Menu = fyne.NewMenu(config.AppName,
		app.TrayStatusItem,
		fyne.NewMenuItemSeparator(),
		app.TrayShowItem,
		app.TraySendItem,
		app.TrayRefreshItem,
		app.TraySettingsItem,
	)

	if app.Tray != nil {
		app.Tray.SetSystemTrayMenu(app.Menu)
	}
}

// RefreshTrayMenu updates localized labels in the tray menu.
func (app *WishesApp) RefreshTrayMenu() {
	if app.Menu == nil {
		return
	}
	app.TrayShowItem.Label = app.Translator.Msg(config.TKeyMenuShow)
	app.TraySendItem.Label = app.Translator.Msg(config.TKeyMenuSend)
	app.TrayRefreshItem.Label = app.Translator.Msg(config.TKeyMenuRefresh)
	app.TraySettingsItem.Label = app.Translator.Msg(config.TKeyMenuSettings)
	app.updateTrayStatus(len(app.Today.Contacts))
}

// updateTrayStatus shows how many birthdays are today.
func (app *WishesApp) updateTrayStatus(count int) {
	if app.Menu == nil || app.TrayStatusItem == nil {
		return
	}

	if count == 0 {
		app.TrayStatusItem.Label = app.Translator.Msg(config.TKeyTrayStatusZero)
	} else {
		app.TrayStatusItem.Label = app.Translator.Plural(config.TKeyTrayStatus, count, nil)
	}
	app.Menu.Refresh()
}

func (app *WishesApp) notifyError() {
	app.App.SendNotification(fyne.NewNotification(config.AppName, app.Translator.Msg(config.TKeyNotifError)))
}
