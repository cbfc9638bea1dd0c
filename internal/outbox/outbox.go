// Package outbox sends greetings one at a time: a producer enumerates the
// selected contacts and a single consumer renders, sends and records each of
// them with a fixed pause between deliveries.
package outbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/tartampluch/go-wishes/internal/config"
	"github.com/tartampluch/go-wishes/internal/contacts"
	"github.com/tartampluch/go-wishes/internal/engine"
	"github.com/tartampluch/go-wishes/internal/history"
	"github.com/tartampluch/go-wishes/internal/messenger"
)

// Status is the outcome of one queued greeting.
type Status string

const (
	StatusSent      Status = "sent"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
	StatusDuplicate Status = "duplicate"
	StatusCanceled  Status = "canceled"
)

// Result reports what happened to one contact.
type Result struct {
	Contact contacts.Contact
	Status  Status
	Err     error
	At      time.Time
}

// Ledger is the subset of history.Ledger the queue needs.
type Ledger interface {
	AlreadySent(ctx context.Context, key contacts.MatchKey, year int) (bool, error)
	Record(ctx context.Context, e history.Entry) (history.Entry, error)
}

// Queue holds the collaborators of a send run. Render, Messenger and Caption
// are required.
type Queue struct {
	// Render produces the greeting image for c and returns its path.
	Render func(c contacts.Contact) (string, error)

	Messenger messenger.Messenger
	Caption   func(name string) string

	// Delay is waited between two delivery attempts, never before the first.
	Delay time.Duration

	// Ledger is optional. When set, contacts already greeted this year are
	// reported as duplicates and every attempt is recorded.
	Ledger Ledger

	Clock engine.Clock

	// KeepImages leaves rendered images on disk after sending.
	KeepImages bool

	// OnProgress is called from the consumer goroutine after each item.
	OnProgress func(Result)
}

type job struct {
	index   int
	contact contacts.Contact
}

// Run processes list in order and returns one result per contact, in the
// same order. Per-contact failures never stop the batch; cancelling ctx
// stops it, and unprocessed contacts are reported as canceled.
func (q *Queue) Run(ctx context.Context, list []contacts.Contact) []Result {
	results := make([]Result, len(list))
	for i, c := range list {
		results[i] = Result{Contact: c, Status: StatusCanceled}
	}

	jobs := make(chan job)
	go func() {
		defer close(jobs)
		for i, c := range list {
			select {
			case jobs <- job{index: i, contact: c}:
			case <-ctx.Done():
				return
			}
		}
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		q.consume(ctx, jobs, results)
	}()
	<-done

	for i := range results {
		if results[i].Status == StatusCanceled && results[i].Err == nil {
			results[i].Err = ctx.Err()
		}
	}

	slog.Info(config.MsgQueueDone,
		config.LogKeyComponent, config.CompOutbox,
		config.LogKeyTotal, len(list),
		config.LogKeySent, Count(results, StatusSent),
		config.LogKeyFailed, Count(results, StatusFailed))
	return results
}

func (q *Queue) consume(ctx context.Context, jobs <-chan job, results []Result) {
	attempted := false
	for j := range jobs {
		if ctx.Err() != nil {
			// Drain so the producer can exit.
			continue
		}

		if q.alreadySent(ctx, j.contact) {
			q.finish(results, j.index, Result{Contact: j.contact, Status: StatusDuplicate, At: q.now()})
			continue
		}

		if attempted && q.Delay > 0 {
			timer := time.NewTimer(q.Delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				continue
			}
		}
		attempted = true

		q.finish(results, j.index, q.deliver(ctx, j.contact))
	}
}

func (q *Queue) deliver(ctx context.Context, c contacts.Contact) Result {
	res := Result{Contact: c, At: q.now()}

	image, err := q.Render(c)
	if err != nil {
		res.Status, res.Err = StatusFailed, err
		q.record(ctx, res)
		return res
	}
	if !q.KeepImages {
		defer func() { _ = os.Remove(image) }()
	}

	caption := q.Caption(c.Name)
	if err := q.Messenger.Send(ctx, c.Phone, image, caption); err != nil {
		res.Status, res.Err = StatusFailed, err
		if ctx.Err() != nil {
			res.Status = StatusCanceled
		}
		q.record(ctx, res)
		return res
	}

	res.Status = StatusSent
	q.record(ctx, res)
	return res
}

// Skip records that the user chose not to greet c.
func (q *Queue) Skip(ctx context.Context, c contacts.Contact) Result {
	res := Result{Contact: c, Status: StatusSkipped, At: q.now()}
	q.record(ctx, res)
	if q.OnProgress != nil {
		q.OnProgress(res)
	}
	return res
}

func (q *Queue) finish(results []Result, i int, res Result) {
	results[i] = res

	log := slog.With(
		config.LogKeyComponent, config.CompOutbox,
		config.LogKeyName, res.Contact.Name,
		config.LogKeyStatus, string(res.Status))
	if res.Err != nil {
		log.Warn(config.MsgQueueItemFailed, config.LogKeyError, res.Err)
	} else {
		log.Info(config.MsgQueueItemDone)
	}

	if q.OnProgress != nil {
		q.OnProgress(res)
	}
}

func (q *Queue) alreadySent(ctx context.Context, c contacts.Contact) bool {
	if q.Ledger == nil {
		return false
	}
	sent, err := q.Ledger.AlreadySent(ctx, c.Key(), q.now().Year())
	if err != nil {
		slog.Warn(config.MsgLedgerUnavailable,
			config.LogKeyComponent, config.CompOutbox,
			config.LogKeyError, err)
		return false
	}
	return sent
}

func (q *Queue) record(ctx context.Context, res Result) {
	if q.Ledger == nil {
		return
	}
	entry := history.Entry{
		Name:     res.Contact.Name,
		Phone:    res.Contact.Phone,
		Birthday: res.Contact.Birthday,
		Year:     res.At.Year(),
		Status:   ledgerStatus(res.Status),
		At:       res.At,
	}
	if q.Messenger != nil {
		entry.Transport = q.Messenger.Name()
	}
	if res.Err != nil {
		entry.Error = res.Err.Error()
	}
	// The attempt happened; record it even if the run is being cancelled.
	if _, err := q.Ledger.Record(context.WithoutCancel(ctx), entry); err != nil {
		slog.Warn(config.MsgLedgerUnavailable,
			config.LogKeyComponent, config.CompOutbox,
			config.LogKeyError, err)
	}
}

func (q *Queue) now() time.Time {
	if q.Clock == nil {
		return time.Now()
	}
	return q.Clock.Now()
}

func ledgerStatus(s Status) history.Status {
	switch s {
	case StatusSent:
		return history.StatusSent
	case StatusSkipped:
		return history.StatusSkipped
	case StatusCanceled:
		return history.StatusCanceled
	default:
		return history.StatusFailed
	}
}

// Count returns how many results have status s.
func Count(results []Result, s Status) int {
	n := 0
	for _, r := range results {
		if r.Status == s {
			n++
		}
	}
	return n
}

// Err joins the errors of failed results, or returns nil.
func Err(results []Result) error {
	var errs []error
	for _, r := range results {
		if r.Status == StatusFailed && r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Contact.Name, r.Err))
		}
	}
	return errors.Join(errs...)
}
