package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-vcard"
	"github.com/tartampluch/go-wishes/internal/birthday"
	"github.com/tartampluch/go-wishes/internal/config"
	"github.com/tartampluch/go-wishes/internal/contacts"
)

// ImportResult is the outcome of reading an address book.
type ImportResult struct {
	Contacts []contacts.Contact

	// Skipped counts cards lacking a name, a phone or a usable BDAY, plus
	// cards the decoder could not read.
	Skipped int
}

// Importer converts vCard address books into contacts.
type Importer struct {
	Fetcher Fetcher
}

// Import reads source, which is either a local .vcf path or an http(s) URL.
func (im *Importer) Import(ctx context.Context, source string, cred Credentials) (ImportResult, error) {
	reader, err := im.open(ctx, source, cred)
	if err != nil {
		if ctx.Err() != nil {
			return ImportResult{}, ctx.Err()
		}
		return ImportResult{}, fmt.Errorf("%s: %w", config.ErrImportOpen, err)
	}
	defer func() { _ = reader.Close() }()

	return im.Decode(ctx, reader)
}

func (im *Importer) open(ctx context.Context, source string, cred Credentials) (io.ReadCloser, error) {
	lower := strings.ToLower(source)
	if strings.HasPrefix(lower, config.SchemeHTTP+"://") || strings.HasPrefix(lower, config.SchemeHTTPS+"://") {
		if im.Fetcher == nil {
			return nil, errors.New(config.ErrFetcherMissing)
		}
		return im.Fetcher.Fetch(ctx, source, cred)
	}
	if source == "" {
		return nil, errors.New(config.ErrImportSourceEmpty)
	}
	return os.Open(source)
}

// Decode reads every card from r. Cards missing a field are skipped; a syntax
// error ends the read but keeps what was decoded so far.
func (im *Importer) Decode(ctx context.Context, r io.Reader) (ImportResult, error) {
	var res ImportResult
	decoder := vcard.NewDecoder(r)

	for {
		if err := ctx.Err(); err != nil {
			return ImportResult{}, err
		}

		card, err := decoder.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, ErrTooLarge) {
			return ImportResult{}, err
		}
		if err != nil {
			slog.Warn(config.MsgSkippedCard,
				config.LogKeyComponent, config.CompImporter,
				config.LogKeyError, err)
			res.Skipped++
			// The decoder cannot resynchronise after a syntax error.
			break
		}

		c, ok := contactFromCard(card)
		if !ok {
			res.Skipped++
			continue
		}
		res.Contacts = append(res.Contacts, c)
	}

	slog.Info(config.MsgImportDone,
		config.LogKeyComponent, config.CompImporter,
		config.LogKeyCount, len(res.Contacts),
		config.LogKeySkipped, res.Skipped)
	return res, nil
}

// Merge inserts the imported contacts that are not already present and
// returns how many were added. Stored rows count as present when only the
// spelling of the birthday differs.
func Merge(store *contacts.Store, imported []contacts.Contact) (int, error) {
	added := 0
	for _, c := range imported {
		existing, err := store.Find(contacts.SameContact(c.Key()))
		if err != nil {
			return added, err
		}
		if len(existing) > 0 {
			continue
		}
		if _, err := store.Insert(c); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}

func contactFromCard(card vcard.Card) (contacts.Contact, bool) {
	name := strings.TrimSpace(card.PreferredValue(vcard.FieldFormattedName))
	if name == "" {
		if n := card.Name(); n != nil {
			name = strings.TrimSpace(strings.Join(nonEmpty(n.GivenName, n.AdditionalName, n.FamilyName), " "))
		}
	}
	phone := strings.TrimSpace(card.PreferredValue(vcard.FieldTelephone))
	bday := strings.TrimSpace(card.Value(vcard.FieldBirthday))

	if name == "" || phone == "" || bday == "" {
		return contacts.Contact{}, false
	}

	dm, err := parseBDAY(bday)
	if err != nil {
		slog.Debug(config.MsgSkippedDate,
			config.LogKeyComponent, config.CompImporter,
			config.LogKeyName, name,
			config.LogKeyValue, bday)
		return contacts.Contact{}, false
	}

	return contacts.Contact{Name: name, Phone: phone, Birthday: dm.String()}, true
}

// parseBDAY accepts full dates and the year-less vCard forms (--MMDD,
// --MM-DD). Year-less values are parsed against a leap year so that 29 Feb
// survives.
func parseBDAY(value string) (birthday.DayMonth, error) {
	for _, layout := range []string{
		config.DateFormatFullDash,
		config.DateFormatFullBasic,
		config.DateFormatRFC3339,
		config.DateFormatFullT,
	} {
		if t, err := time.Parse(layout, value); err == nil {
			return birthday.Of(t), nil
		}
	}

	for _, layout := range []string{config.DateFormatNoYearD, config.DateFormatNoYearB} {
		if t, err := time.Parse(config.DateFormatYear+layout, config.LeapYearText+value); err == nil {
			return birthday.Of(t), nil
		}
	}

	return birthday.DayMonth{}, fmt.Errorf("%w: %s %q", birthday.ErrInvalidDate, config.ErrDateParse, value)
}

func nonEmpty(parts ...string) []string {
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
