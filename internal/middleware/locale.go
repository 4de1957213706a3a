package middleware

import (
	"net/http"

	"finitefield.org/academic-web/internal/prefs"
)

// VaryPreferences sets Vary for every input a rendered page depends on: the
// language negotiation header, the preference cookies and the colour scheme
// client hint. The hint is also requested from the browser with Accept-CH.
func VaryPreferences(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// append to existing Vary if any
		h := w.Header()
		h.Add("Vary", "Accept-Language")
		h.Add("Vary", "Cookie")
		h.Add("Vary", prefs.ColorSchemeHint)
		h.Set("Accept-CH", prefs.ColorSchemeHint)
		next.ServeHTTP(w, r)
	})
}

// ContentLanguage surfaces the language a page was rendered in.
func ContentLanguage(w http.ResponseWriter, lang string) {
	if lang != "" {
		w.Header().Set("Content-Language", lang)
	}
}
