package engine

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"time"

	"github.com/emersion/go-ical"
	"github.com/tartampluch/go-wishes/internal/birthday"
	"github.com/tartampluch/go-wishes/internal/config"
	"github.com/tartampluch/go-wishes/internal/contacts"
)

// Calendar turns the contact list into an iCalendar feed of yearly, all-day
// birthday events.
type Calendar struct {
	Clock Clock

	// FormatSummary lets the UI inject a localized event title.
	FormatSummary func(name string) string

	// ReminderTrigger is an ISO 8601 duration such as "-PT9H" or "P0D".
	// Empty disables the VALARM.
	ReminderTrigger string
}

// Build encodes one recurring event per contact with a valid birthday and
// returns the feed along with the number of birthdays falling today.
// Contacts with an unparseable birthday are logged and left out.
func (g *Calendar) Build(list []contacts.Contact) ([]byte, int, error) {
	clock := g.Clock
	if clock == nil {
		clock = RealClock{}
	}
	now := clock.Now()

	cal := ical.NewCalendar()
	cal.Props.SetText(config.PropVersion, config.ICalVersion)
	cal.Props.SetText(config.PropProdid, config.ICalProdid)
	cal.Props.SetText(config.PropXWRCalName, config.ICalCalName)
	cal.Props.SetText(config.PropCalScale, config.ICalScale)
	cal.Props.SetText(config.PropMethod, config.ICalMethod)

	refresh := ical.NewProp(config.PropRefresh)
	refresh.SetDuration(config.DefaultICalRefresh)
	cal.Props.Set(refresh)

	stamp := ical.NewProp(config.PropDTStamp)
	stamp.SetDateTime(now.UTC())

	today := 0
	for _, c := range list {
		dm, err := DayMonthOf(c)
		if err != nil {
			logSkipped([]Skipped{{Contact: c, Err: err}})
			continue
		}
		if IsToday(c, now) {
			today++
		}

		event := g.event(c, dm, now)
		event.Props.Set(stamp)
		cal.Children = append(cal.Children, event.Component)
	}

	if len(cal.Children) == 0 {
		slog.Info(config.MsgCalendarEmpty, config.LogKeyComponent, config.CompEngine)
		return []byte(config.StubVCalendar), 0, nil
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", config.ErrICalEncode, err)
	}

	slog.Info(config.MsgGenSuccess,
		config.LogKeyComponent, config.CompEngine,
		slog.Group(config.LogKeyStats,
			slog.Int(config.LogKeyTotal, len(list)),
			slog.Int(config.LogKeyFound, len(cal.Children)),
			slog.Int(config.LogKeyToday, today),
		),
	)
	return buf.Bytes(), today, nil
}

func (g *Calendar) event(c contacts.Contact, dm birthday.DayMonth, now time.Time) *ical.Event {
	event := ical.NewEvent()
	event.Props.SetText(config.PropUID, EventUID(c))

	summary := fmt.Sprintf(config.FallbackSummary, c.Name)
	if g.FormatSummary != nil {
		summary = g.FormatSummary(c.Name)
	}
	event.Props.SetText(config.PropSummary, summary)
	event.Props.SetText(config.PropDescription, c.Phone)

	// Anchor the series on this year's occurrence so the current year's
	// event is visible even once it has passed.
	start := ical.NewProp(config.PropDTStart)
	start.SetDate(dm.In(now.Year(), now.Location()))
	event.Props.Set(start)

	rule := ical.NewProp(config.PropRRule)
	rule.Value = config.RRuleYearly
	if dm.Month == time.February && dm.Day == 29 {
		rule.Value = config.RRuleYearlyLastOfFeb
	}
	event.Props.Set(rule)

	if g.ReminderTrigger != "" {
		addAlarm(event, g.ReminderTrigger, summary)
	}
	return event
}

// EventUID is derived from the persisted fields so that a feed regenerated
// from an unchanged file keeps the same identifiers.
func EventUID(c contacts.Contact) string {
	input := fmt.Sprintf(config.FormatHashInput, c.Name, c.Phone, c.Birthday, config.UIDSalt)
	hash := sha256.Sum256([]byte(input))
	return fmt.Sprintf(config.FormatUID, hash[:config.UIDHashLength], config.ICalDomain)
}

// addAlarm appends a DISPLAY alarm (notification) to the event.
func addAlarm(event *ical.Event, trigger, description string) {
	alarm := ical.NewComponent(config.ICalComponent)
	alarm.Props.SetText(config.PropAction, config.ICalAction)
	alarm.Props.SetText(config.PropDescription, description)

	// Set the value directly to avoid a VALUE=TEXT parameter.
	triggerProp := ical.NewProp(config.PropTrigger)
	triggerProp.Value = trigger
	alarm.Props.Set(triggerProp)

	event.Children = append(event.Children, alarm)
}
