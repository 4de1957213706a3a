package prefs

import (
	"net/http"
	"strings"
)

// Theme is the colour scheme applied to the document root.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Valid reports whether t is one of the two known themes.
func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// Toggle returns the opposite theme.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// Preferences is the resolved pair of persisted settings.
type Preferences struct {
	Language string
	Theme    Theme
}

// ResolveTheme returns the persisted theme when valid. Otherwise the OS-level
// preference decides; prefersDark is only consulted in that case and may be nil.
func ResolveTheme(store Store, prefersDark func() bool) Theme {
	if v, ok := store.Get(KeyTheme); ok {
		if t := Theme(strings.ToLower(strings.TrimSpace(v))); t.Valid() {
			return t
		}
	}
	if prefersDark != nil && prefersDark() {
		return ThemeDark
	}
	return ThemeLight
}

// ResolveLanguage returns the persisted language when supported, else fallback().
func ResolveLanguage(store Store, supported func(string) bool, fallback func() string) string {
	if v, ok := store.Get(KeyLanguage); ok {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" && (supported == nil || supported(v)) {
			return v
		}
	}
	return fallback()
}

// ColorSchemeHint is the client hint carrying the OS colour scheme preference.
const ColorSchemeHint = "Sec-CH-Prefers-Color-Scheme"

// PrefersDarkFromRequest reads the colour scheme client hint.
func PrefersDarkFromRequest(r *http.Request) func() bool {
	return func() bool {
		return strings.EqualFold(strings.Trim(r.Header.Get(ColorSchemeHint), `" `), "dark")
	}
}
