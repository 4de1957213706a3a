package i18n

import (
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// Negotiator picks a supported language from an Accept-Language header.
type Negotiator struct {
	fallback  string
	supported []string
	matcher   language.Matcher
}

// NewNegotiator builds a negotiator. The fallback is always supported.
func NewNegotiator(fallback string, supported []string) *Negotiator {
	fallback = strings.ToLower(strings.TrimSpace(fallback))
	// fallback goes first so the matcher treats it as the default
	codes := []string{fallback}
	for _, s := range supported {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || s == fallback {
			continue
		}
		codes = append(codes, s)
	}
	tags := make([]language.Tag, 0, len(codes))
	for _, c := range codes {
		tags = append(tags, language.Make(c))
	}
	return &Negotiator{
		fallback:  fallback,
		supported: codes,
		matcher:   language.NewMatcher(tags),
	}
}

// Supported returns the supported language codes in sorted order.
func (n *Negotiator) Supported() []string {
	out := append([]string(nil), n.supported...)
	sort.Strings(out)
	return out
}

// Fallback returns the configured fallback language.
func (n *Negotiator) Fallback() string { return n.fallback }

// IsSupported reports whether lang is one of the configured codes.
func (n *Negotiator) IsSupported(lang string) bool {
	lang = strings.ToLower(strings.TrimSpace(lang))
	for _, s := range n.supported {
		if s == lang {
			return true
		}
	}
	return false
}

// Resolve chooses the best language for an Accept-Language header, honouring
// q-values, and falls back when nothing matches.
func (n *Negotiator) Resolve(acceptLang string) string {
	if strings.TrimSpace(acceptLang) == "" {
		return n.fallback
	}
	prefs, _, err := language.ParseAcceptLanguage(acceptLang)
	if err != nil || len(prefs) == 0 {
		return n.fallback
	}
	_, idx, conf := n.matcher.Match(prefs...)
	if conf == language.No || idx < 0 || idx >= len(n.supported) {
		return n.fallback
	}
	return n.supported[idx]
}
