package middleware

import (
	"net/http"
)

// HTMX marks requests coming from htmx so handlers/middlewares can adapt responses
func HTMX(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		is := r.Header.Get("HX-Request") == "true"
		ctx := WithHTMX(r.Context(), is)
		if is {
			ctx = WithHTMXTarget(ctx, r.Header.Get("HX-Target"))
		}
		// responses differ between htmx and full page loads
		w.Header().Add("Vary", "HX-Request")
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Refresh asks htmx to reload the whole page once the response is processed.
func Refresh(w http.ResponseWriter) {
	w.Header().Set("HX-Refresh", "true")
}

// Reswap overrides the swap strategy declared on the triggering element.
func Reswap(w http.ResponseWriter, strategy string) {
	w.Header().Set("HX-Reswap", strategy)
}
