// Package daemon wires the contact store, matcher, renderer, messenger and
// ledger into the operations shared by the CLI, the GUI and the scheduler.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/tartampluch/go-wishes/internal/config"
	"github.com/tartampluch/go-wishes/internal/contacts"
	"github.com/tartampluch/go-wishes/internal/engine"
	"github.com/tartampluch/go-wishes/internal/greeting"
	"github.com/tartampluch/go-wishes/internal/history"
	"github.com/tartampluch/go-wishes/internal/locale"
	"github.com/tartampluch/go-wishes/internal/messenger"
	"github.com/tartampluch/go-wishes/internal/outbox"
	"github.com/tartampluch/go-wishes/internal/server"
)

// Service holds the collaborators built from Settings.
type Service struct {
	Settings   config.Settings
	Store      *contacts.Store
	Translator *locale.Translator
	Renderer   *greeting.Renderer
	Messenger  messenger.Messenger
	Clock      engine.Clock

	// Ledger is nil when the history database is disabled.
	Ledger *history.Ledger

	// Server is optional; RefreshFeed publishes to it when set.
	Server *server.FeedServer
}

// NewService builds every collaborator. The messenger secret is resolved
// from the environment or the keyring.
func NewService(s config.Settings, tr *locale.Translator) (*Service, error) {
	if tr == nil {
		tr = locale.New(s.Language)
	}

	renderer, err := greeting.NewRenderer(s.FontPath, s.FontSize)
	if err != nil {
		return nil, err
	}

	secret, err := s.Messenger.ResolveSecret()
	if err != nil {
		slog.Warn(config.MsgSecretUnavailable,
			config.LogKeyComponent, config.CompDaemon,
			config.LogKeyError, err)
	}
	m, err := messenger.New(s.Messenger, secret)
	if err != nil {
		return nil, err
	}

	svc := &Service{
		Settings:   s,
		Store:      contacts.NewStore(s.ContactsPath),
		Translator: tr,
		Renderer:   renderer,
		Messenger:  m,
		Clock:      engine.RealClock{},
	}

	if s.HistoryPath != "" {
		ledger, err := history.Open(s.HistoryPath)
		if err != nil {
			return nil, err
		}
		svc.Ledger = ledger
	}
	return svc, nil
}

// Close releases the ledger.
func (s *Service) Close() error {
	if s.Ledger == nil {
		return nil
	}
	return s.Ledger.Close()
}

func (s *Service) clock() engine.Clock {
	if s.Clock == nil {
		return engine.RealClock{}
	}
	return s.Clock
}

// Now is the service's notion of the current time.
func (s *Service) Now() time.Time {
	return s.clock().Now()
}

// Today returns the contacts whose birthday is today, in store order.
func (s *Service) Today() ([]contacts.Contact, error) {
	list, err := s.Store.Contacts()
	if err != nil {
		return nil, err
	}
	return engine.Today(list, s.clock().Now()), nil
}

// Upcoming returns the birthdays within horizon days, soonest first.
func (s *Service) Upcoming(horizon int) ([]engine.BirthdayWindow, error) {
	list, err := s.Store.Contacts()
	if err != nil {
		return nil, err
	}
	return engine.WithinWindow(list, s.clock().Now(), horizon), nil
}

// GreetingText is the text drawn on the cake for name.
func (s *Service) GreetingText(name string) string {
	return s.batch().greetingText(name)
}

// Caption is the message sent with the image for name.
func (s *Service) Caption(name string) string {
	return s.batch().caption(name)
}

// Template resolves the cake for the next image: the configured one, else a
// random one from the templates directory. An empty result selects the plain
// background.
func (s *Service) Template() (string, error) {
	return s.batch().template()
}

// Render writes the greeting image for c and returns its path.
func (s *Service) Render(c contacts.Contact) (string, error) {
	return s.batch().render(c)
}

// Queue builds a send queue using the configured delay and ledger. The
// queue works on a copy of the settings taken here, so the caller may keep
// editing s.Settings while the queue runs in another goroutine.
func (s *Service) Queue(onProgress func(outbox.Result)) *outbox.Queue {
	b := s.batch()
	q := &outbox.Queue{
		Render:     b.render,
		Messenger:  s.Messenger,
		Caption:    b.caption,
		Delay:      b.settings.SendDelay,
		Clock:      s.clock(),
		KeepImages: b.settings.KeepImages,
		OnProgress: onProgress,
	}
	if s.Ledger != nil {
		q.Ledger = s.Ledger
	}
	return q
}

// batch freezes what rendering and captions read from the service.
type batch struct {
	settings   config.Settings
	renderer   *greeting.Renderer
	translator *locale.Translator
}

func (s *Service) batch() batch {
	return batch{settings: s.Settings, renderer: s.Renderer, translator: s.Translator}
}

func (b batch) greetingText(name string) string {
	if b.settings.GreetingFormat != "" {
		return greeting.Message(b.settings.GreetingFormat, name)
	}
	return b.translator.Greeting(name)
}

func (b batch) caption(name string) string {
	if b.settings.CaptionFormat != "" {
		return greeting.Message(b.settings.CaptionFormat, name)
	}
	return b.translator.Caption(name)
}

func (b batch) template() (string, error) {
	dir := b.settings.TemplatesDir
	if dir == "" {
		return "", nil
	}
	if b.settings.Template != "" {
		return greeting.PickTemplate(dir, b.settings.Template)
	}

	list, err := greeting.Templates(dir)
	if err != nil || len(list) == 0 {
		if err == nil {
			err = greeting.ErrNoTemplates
		}
		slog.Warn(config.MsgPlainBackground,
			config.LogKeyComponent, config.CompDaemon,
			config.LogKeyFile, dir,
			config.LogKeyError, err)
		return "", nil
	}
	return list[rand.Intn(len(list))], nil
}

func (b batch) render(c contacts.Contact) (string, error) {
	tmpl, err := b.template()
	if err != nil {
		return "", err
	}
	outDir := b.settings.OutputDir
	if outDir == "" {
		outDir = os.TempDir()
	}
	name := greeting.CardFileName(c.Name, c.Key().String())
	return b.renderer.RenderToFile(tmpl, outDir, name, b.greetingText(c.Name))
}

// SendToday greets every contact whose birthday is today and not yet
// greeted this year.
func (s *Service) SendToday(ctx context.Context, onProgress func(outbox.Result)) ([]outbox.Result, error) {
	today, err := s.Today()
	if err != nil {
		return nil, err
	}
	if len(today) == 0 {
		slog.Info(config.MsgNobodyToday, config.LogKeyComponent, config.CompDaemon)
		return nil, nil
	}
	return s.Queue(onProgress).Run(ctx, today), nil
}

// Calendar renders the iCalendar feed of every valid contact.
func (s *Service) Calendar() ([]byte, error) {
	list, err := s.Store.Contacts()
	if err != nil {
		return nil, err
	}
	cal := &engine.Calendar{
		Clock:           s.clock(),
		FormatSummary:   s.Translator.EventSummary,
		ReminderTrigger: s.Settings.Reminder.Trigger(),
	}
	data, _, err := cal.Build(list)
	return data, err
}

// RefreshFeed rebuilds the calendar and upcoming list and publishes them to
// the server.
func (s *Service) RefreshFeed() error {
	if s.Server == nil {
		return errors.New(config.ErrServerMissing)
	}
	ics, err := s.Calendar()
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrFeedRefresh, err)
	}
	upcoming, err := s.Upcoming(s.Settings.HorizonDays)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrFeedRefresh, err)
	}
	return s.Server.Update(ics, upcoming)
}
