// Package i18n provides an explicit locale scope for step execution.
//
// The dispatcher derives the locale from each inbound update's language code and
// runs step logic under it; user-facing framework strings go through T. Projects
// add translations with Register at startup. Untranslated strings fall back to
// the key itself, gettext style.
package i18n

import (
	"context"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

var builder = catalog.NewBuilder(catalog.Fallback(language.English))

type ctxKey struct{}

// Register adds one translated string for the given locale code.
func Register(locale, key, translation string) error {
	tag, err := language.Parse(locale)
	if err != nil {
		return err
	}
	return builder.SetString(tag, key, translation)
}

// WithLocale returns a context scoped to the given language code. Empty or
// unparsable codes fall back to English.
func WithLocale(ctx context.Context, code string) context.Context {
	tag := language.English
	if code != "" {
		if parsed, err := language.Parse(code); err == nil {
			tag = parsed
		}
	}
	p := message.NewPrinter(tag, message.Catalog(builder))
	return context.WithValue(ctx, ctxKey{}, p)
}

// T formats key under the context's locale. Outside any locale scope it formats
// with the English fallback.
func T(ctx context.Context, key string, args ...any) string {
	p, _ := ctx.Value(ctxKey{}).(*message.Printer)
	if p == nil {
		p = message.NewPrinter(language.English, message.Catalog(builder))
	}
	return p.Sprintf(key, args...)
}
