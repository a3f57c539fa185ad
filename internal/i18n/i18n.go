// Package i18n resolves user-facing messages for the two supported locales.
//
// Keys form a closed set declared in this package; anything the server says to
// a user goes through Catalog.T so a missing translation degrades to the key
// itself instead of an empty string.
package i18n

import (
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/text/language"
)

// Locale is a supported UI language.
type Locale string

const (
	English Locale = "en"
	Arabic  Locale = "ar"
)

// DefaultLocale is used when negotiation finds nothing better.
const DefaultLocale = English

var supported = []language.Tag{language.English, language.Arabic}

var matcher = language.NewMatcher(supported)

// Negotiate picks the best supported locale for an Accept-Language header value.
func Negotiate(acceptLanguage string) Locale {
	if acceptLanguage == "" {
		return DefaultLocale
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return DefaultLocale
	}
	_, idx, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return DefaultLocale
	}
	if supported[idx] == language.Arabic {
		return Arabic
	}
	return English
}

// ParseLocale accepts an explicit locale string such as "ar" or "en-US".
func ParseLocale(s string) (Locale, bool) {
	tag, err := language.Parse(s)
	if err != nil {
		return "", false
	}
	base, _ := tag.Base()
	switch base.String() {
	case "ar":
		return Arabic, true
	case "en":
		return English, true
	}
	return "", false
}

// Dir returns the text direction for the locale.
func (l Locale) Dir() string {
	if l == Arabic {
		return "rtl"
	}
	return "ltr"
}

// Catalog translates keys. It is built once at startup and shared.
type Catalog struct {
	messages map[Locale]map[Key]string
	logger   *slog.Logger
	missing  sync.Map
}

// NewCatalog returns a catalog over the built-in English and Arabic messages.
func NewCatalog(logger *slog.Logger) *Catalog {
	return &Catalog{
		messages: map[Locale]map[Key]string{
			English: english,
			Arabic:  arabic,
		},
		logger: logger,
	}
}

// T translates key for locale, formatting args into the message when given.
// Lookups fall back to English and finally to the key itself.
func (c *Catalog) T(locale Locale, key Key, args ...any) string {
	msg, ok := c.lookup(locale, key)
	if !ok {
		c.reportMissing(locale, key)
		if msg, ok = c.lookup(DefaultLocale, key); !ok {
			msg = string(key)
		}
	}
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}

func (c *Catalog) lookup(locale Locale, key Key) (string, bool) {
	table, ok := c.messages[locale]
	if !ok {
		return "", false
	}
	msg, ok := table[key]
	return msg, ok
}

func (c *Catalog) reportMissing(locale Locale, key Key) {
	if c.logger == nil {
		return
	}
	if _, seen := c.missing.LoadOrStore(string(locale)+"/"+string(key), struct{}{}); seen {
		return
	}
	c.logger.Warn("missing translation", slog.String("locale", string(locale)), slog.String("key", string(key)))
}
