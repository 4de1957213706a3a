// Package i18n loads the per-language UI dictionaries and applies them to the page.
package i18n

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"finitefield.org/academic-web/internal/dom"
	"finitefield.org/academic-web/internal/fetch"
)

// Dict is a nested string-keyed dictionary addressed with dotted keys.
type Dict map[string]any

// Lookup resolves a dotted key such as "home.latestTitle". It only succeeds
// when the final value is a string.
func (d Dict) Lookup(key string) (string, bool) {
	if d == nil || key == "" {
		return "", false
	}
	var cur any = map[string]any(d)
	for _, part := range strings.Split(key, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return "", false
		}
		cur, ok = m[part]
		if !ok {
			return "", false
		}
	}
	s, ok := cur.(string)
	return s, ok
}

// Text returns the string at key, or fallback when it is missing or not a string.
func (d Dict) Text(key, fallback string) string {
	if v, ok := d.Lookup(key); ok && v != "" {
		return v
	}
	return fallback
}

// Path is the location of the dictionary for lang.
func Path(lang string) string {
	return "i18n/ui." + lang + ".json"
}

// Loader fetches dictionaries.
type Loader struct {
	fetcher fetch.Fetcher
	tracer  trace.Tracer
}

// NewLoader builds a Loader on top of f.
func NewLoader(f fetch.Fetcher) *Loader {
	return &Loader{
		fetcher: f,
		tracer:  otel.Tracer("finitefield.org/academic-web/internal/i18n"),
	}
}

// Load fetches and decodes the dictionary for lang. The language code is not
// validated; an unknown code surfaces as the fetch error.
func (l *Loader) Load(ctx context.Context, lang string) (Dict, error) {
	ctx, span := l.tracer.Start(ctx, "i18n.Load", trace.WithAttributes(attribute.String("i18n.lang", lang)))
	defer span.End()

	raw, err := l.fetcher.Fetch(ctx, Path(lang))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch")
		return nil, fmt.Errorf("load localization %q: %w", lang, err)
	}
	var dict Dict
	if err := json.Unmarshal(raw, &dict); err != nil {
		err = &fetch.Error{Path: Path(lang), Err: fmt.Errorf("decode json: %w", err)}
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode")
		return nil, fmt.Errorf("load localization %q: %w", lang, err)
	}
	if dict == nil {
		dict = Dict{}
	}
	return dict, nil
}

// Apply writes dictionary strings into every [data-i18n] element of the page.
// The value goes to each attribute listed in data-i18n-attr, or to the
// element text when none is listed. Keys that do not resolve to a string are
// left untouched. The page language is set to lang and, when site.title is a
// non-empty string, the document title follows it.
func Apply(doc *dom.Document, dict Dict, lang string) {
	doc.Find("[data-i18n]").Each(func(_ int, el *goquery.Selection) {
		key, _ := el.Attr("data-i18n")
		val, ok := dict.Lookup(strings.TrimSpace(key))
		if !ok {
			return
		}
		if attrs, has := el.Attr("data-i18n-attr"); has && strings.TrimSpace(attrs) != "" {
			for _, name := range strings.Split(attrs, ",") {
				if name = strings.TrimSpace(name); name != "" {
					el.SetAttr(name, val)
				}
			}
			return
		}
		el.SetText(val)
	})
	doc.SetLang(lang)
	if title, ok := dict.Lookup("site.title"); ok && title != "" {
		doc.SetTitle(title)
	}
}
