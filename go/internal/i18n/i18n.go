package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

type ctxKey struct{}

// Translator renders user-facing summaries in the caller's language.
type Translator struct {
	bundle        *i18n.Bundle
	matcher       language.Matcher
	defaultLocale string
}

// New loads every embedded locale file.
func New(defaultLocale string) (*Translator, error) {
	if defaultLocale == "" {
		defaultLocale = "en"
	}

	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("i18n: read locales dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := localeFS.ReadFile("locales/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("i18n: read %s: %w", e.Name(), err)
		}
		if _, err := bundle.ParseMessageFileBytes(data, e.Name()); err != nil {
			return nil, fmt.Errorf("i18n: parse %s: %w", e.Name(), err)
		}
	}
	log.Debug().Int("locales", len(entries)).Str("default", defaultLocale).Msg("i18n loaded")

	return &Translator{
		bundle:        bundle,
		matcher:       language.NewMatcher(bundle.LanguageTags()),
		defaultLocale: defaultLocale,
	}, nil
}

// WithLocale returns a context carrying locale (e.g. "es", "en-GB").
func WithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, ctxKey{}, locale)
}

// LocaleFromContext returns the context locale, or the translator default.
func (t *Translator) LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKey{}).(string); ok && v != "" {
		return v
	}
	return t.defaultLocale
}

// LocaleFromRequest picks the best supported locale from Accept-Language.
func (t *Translator) LocaleFromRequest(r *http.Request) string {
	accept := r.Header.Get("Accept-Language")
	if accept == "" {
		return t.defaultLocale
	}
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return t.defaultLocale
	}
	tag, _, _ := t.matcher.Match(tags...)
	base, _ := tag.Base()
	return base.String()
}

// T translates messageID. Unknown ids come back unchanged.
func (t *Translator) T(ctx context.Context, messageID string, data map[string]any) string {
	return t.localize(ctx, &i18n.LocalizeConfig{MessageID: messageID, TemplateData: data})
}

// Plural translates messageID choosing the plural form for count.
func (t *Translator) Plural(ctx context.Context, messageID string, count int, data map[string]any) string {
	if data == nil {
		data = map[string]any{}
	}
	if _, ok := data["Count"]; !ok {
		data["Count"] = count
	}
	return t.localize(ctx, &i18n.LocalizeConfig{MessageID: messageID, PluralCount: count, TemplateData: data})
}

func (t *Translator) localize(ctx context.Context, cfg *i18n.LocalizeConfig) string {
	l := i18n.NewLocalizer(t.bundle, t.LocaleFromContext(ctx), t.defaultLocale)
	msg, err := l.Localize(cfg)
	if err != nil {
		return cfg.MessageID
	}
	return msg
}

// SubmitSummary is the count-based outcome line of a bulk submission.
func (t *Translator) SubmitSummary(ctx context.Context, accepted, failed int) string {
	data := map[string]any{"Accepted": accepted, "Failed": failed}
	if failed == 0 {
		return t.T(ctx, "SubmitAllAccepted", data)
	}
	return t.T(ctx, "SubmitSummary", data)
}
