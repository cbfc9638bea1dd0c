package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/tartampluch/go-wishes/internal/config"
	"github.com/tartampluch/go-wishes/internal/contacts"
	"github.com/tartampluch/go-wishes/internal/outbox"
)

// Daemon sends the day's greetings on a cron schedule, serves the calendar
// feed and keeps it fresh when the contacts file changes.
type Daemon struct {
	Service *Service

	// Schedule is a standard five-field cron spec or a descriptor such as
	// "@daily". Empty uses the service settings.
	Schedule string

	// Debounce coalesces bursts of file events. Zero uses WatchDebounce.
	Debounce time.Duration

	// OnRun observes every completed scheduled run.
	OnRun func([]outbox.Result, error)
}

// Run blocks until ctx is cancelled or one of the supervised tasks fails.
func (d *Daemon) Run(ctx context.Context) error {
	spec := d.Schedule
	if spec == "" {
		spec = d.Service.Settings.Schedule
	}
	debounce := d.Debounce
	if debounce <= 0 {
		debounce = config.WatchDebounce
	}

	// The watcher needs the directory even before the first contact is saved.
	if err := os.MkdirAll(filepath.Dir(d.Service.Store.Path()), config.DirPermUserRWX); err != nil {
		return fmt.Errorf("%s: %w", config.ErrCreateDir, err)
	}

	g, gctx := errgroup.WithContext(ctx)

	logger := cronLogger{}
	c := cron.New(cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)), cron.WithLogger(logger))
	if _, err := c.AddFunc(spec, func() { d.RunOnce(gctx) }); err != nil {
		return fmt.Errorf("%s: %q: %w", config.ErrSchedule, spec, err)
	}
	if d.Service.Server != nil {
		// Days-until values in the feed change at midnight.
		if _, err := c.AddFunc(config.FeedRefreshSchedule, d.refresh); err != nil {
			return fmt.Errorf("%s: %w", config.ErrSchedule, err)
		}
		d.refresh()

		g.Go(func() error {
			return d.Service.Server.Start(gctx)
		})
	}

	g.Go(func() error {
		c.Start()
		slog.Info(config.MsgDaemonStarted,
			config.LogKeyComponent, config.CompDaemon,
			config.LogKeySchedule, spec)
		<-gctx.Done()
		<-c.Stop().Done()
		slog.Info(config.MsgDaemonStopped, config.LogKeyComponent, config.CompDaemon)
		return nil
	})

	g.Go(func() error {
		return d.Service.Store.Watch(gctx, debounce, func([]contacts.Contact) {
			if d.Service.Server != nil {
				d.refresh()
			}
		})
	})

	return g.Wait()
}

// RunOnce greets today's birthdays and refreshes the feed.
func (d *Daemon) RunOnce(ctx context.Context) {
	log := slog.With(config.LogKeyComponent, config.CompDaemon)
	log.Info(config.MsgScheduledRun)

	results, err := d.Service.SendToday(ctx, nil)
	if err != nil {
		log.Error(config.MsgScheduledRunFailed, config.LogKeyError, err)
	} else if failed := outbox.Err(results); failed != nil {
		log.Warn(config.MsgScheduledRunFailed, config.LogKeyError, failed)
	}

	if d.Service.Server != nil {
		d.refresh()
	}
	if d.OnRun != nil {
		d.OnRun(results, err)
	}
}

func (d *Daemon) refresh() {
	if err := d.Service.RefreshFeed(); err != nil {
		slog.Error(config.ErrFeedRefresh,
			config.LogKeyComponent, config.CompDaemon,
			config.LogKeyError, err)
	}
}

// cronLogger routes cron's internal logging to slog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug(msg, append([]any{config.LogKeyComponent, config.CompCron}, keysAndValues...)...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error(msg, append([]any{config.LogKeyComponent, config.CompCron, config.LogKeyError, err}, keysAndValues...)...)
}
