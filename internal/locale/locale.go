// Package locale loads the embedded translations and localizes UI labels,
// greetings and captions.
package locale

import (
	"embed"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"github.com/tartampluch/go-wishes/internal/config"
)

//go:embed locales/*.json
var localeFS embed.FS

// Translator wraps a go-i18n bundle and the localizer of the active language.
// It is safe for concurrent use.
type Translator struct {
	bundle    *i18n.Bundle
	languages []string
	matcher   language.Matcher

	mu        sync.RWMutex
	lang      string
	localizer *i18n.Localizer
}

// New loads every embedded locale and activates lang, falling back to the
// closest supported language.
func New(lang string) *Translator {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	t := &Translator{bundle: bundle}

	entries, err := localeFS.ReadDir(config.LocalesDir)
	if err != nil {
		slog.Error(config.ErrLocalesAccess,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyError, err,
		)
	}

	var tags []language.Tag
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, config.LocalePrefix) || !strings.HasSuffix(name, config.LocaleSuffix) {
			slog.Debug(config.MsgLocaleSkip,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		code := strings.TrimSuffix(strings.TrimPrefix(name, config.LocalePrefix), config.LocaleSuffix)
		tag, err := language.Parse(code)
		if err != nil {
			slog.Warn(config.MsgLocaleBadName,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
				config.LogKeyError, err,
			)
			continue
		}

		if _, err := bundle.LoadMessageFileFS(localeFS, config.LocalesDir+"/"+name); err != nil {
			slog.Error(config.ErrLocaleLoad,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
				config.LogKeyError, err,
			)
			continue
		}

		// The default language goes first so the matcher falls back to it.
		if tag == language.English {
			tags = append([]language.Tag{tag}, tags...)
			t.languages = append([]string{code}, t.languages...)
		} else {
			tags = append(tags, tag)
			t.languages = append(t.languages, code)
		}
		slog.Debug(config.MsgLocaleLoaded,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyLang, code,
		)
	}

	if len(tags) == 0 {
		tags = []language.Tag{language.English}
		t.languages = []string{config.DefaultLanguage}
	}
	t.matcher = language.NewMatcher(tags)
	t.SetLanguage(lang)
	return t
}

// Languages returns the codes of the loaded locales, default first.
func (t *Translator) Languages() []string {
	return append([]string(nil), t.languages...)
}

// Language returns the active language code.
func (t *Translator) Language() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lang
}

// SetLanguage switches the active language. Unknown or empty codes select
// the closest supported language ("fr-CA" gives "fr", "de" gives "en").
func (t *Translator) SetLanguage(lang string) {
	if strings.TrimSpace(lang) == "" {
		lang = config.DefaultLanguage
	}
	_, index, _ := t.matcher.Match(language.Make(lang))
	code := t.languages[index]

	t.mu.Lock()
	t.lang = code
	t.localizer = i18n.NewLocalizer(t.bundle, code)
	t.mu.Unlock()
}

// Msg translates key, returning the key itself when it is missing.
func (t *Translator) Msg(key string) string {
	return t.localize(&i18n.LocalizeConfig{MessageID: key})
}

// Format translates key with template data.
func (t *Translator) Format(key string, data map[string]any) string {
	return t.localize(&i18n.LocalizeConfig{MessageID: key, TemplateData: data})
}

// Plural translates a key whose text depends on count. The count is
// available to the template as .Count.
func (t *Translator) Plural(key string, count int, data map[string]any) string {
	merged := map[string]any{config.TDataCount: count}
	for k, v := range data {
		merged[k] = v
	}
	return t.localize(&i18n.LocalizeConfig{MessageID: key, TemplateData: merged, PluralCount: count})
}

// Greeting is the text drawn on the cake.
func (t *Translator) Greeting(name string) string {
	return t.Format(config.TKeyGreeting, map[string]any{config.TDataName: name})
}

// Caption is the text sent along with the image.
func (t *Translator) Caption(name string) string {
	return t.Format(config.TKeyCaption, map[string]any{config.TDataName: name})
}

// EventSummary is the title of a calendar event.
func (t *Translator) EventSummary(name string) string {
	return t.Format(config.TKeyEvtSummary, map[string]any{config.TDataName: name})
}

// DaysUntil renders a day count as "today", "tomorrow" or "in N days".
func (t *Translator) DaysUntil(days int) string {
	switch days {
	case 0:
		return t.Msg(config.TKeyDaysToday)
	case 1:
		return t.Msg(config.TKeyDaysTomorrow)
	default:
		return t.Plural(config.TKeyDaysUntil, days, nil)
	}
}

func (t *Translator) localize(lc *i18n.LocalizeConfig) string {
	t.mu.RLock()
	localizer := t.localizer
	t.mu.RUnlock()

	msg, err := localizer.Localize(lc)
	if err != nil {
		slog.Debug(config.MsgTransMissing,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyKey, lc.MessageID,
			config.LogKeyError, err,
		)
		if msg == "" {
			return lc.MessageID
		}
	}
	return msg
}
