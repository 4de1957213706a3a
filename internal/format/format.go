package format

import (
	"fmt"
	"strings"
	"time"
)

var monthsShort = map[string][12]string{
	"en": {"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
	"it": {"gen", "feb", "mar", "apr", "mag", "giu", "lug", "ago", "set", "ott", "nov", "dic"},
}

// PostDate formats an ISO date (YYYY-MM-DD) as a two-digit day, short month
// and year in the page language, e.g. "05 Mar 2024" or "05 mar 2024".
// Empty input gives "", unparseable input is returned as written.
func PostDate(iso, lang string) string {
	iso = strings.TrimSpace(iso)
	if iso == "" {
		return ""
	}
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return iso
	}
	return FmtDate(t, lang)
}

// FmtDate formats t in the short day-month-year form of lang.
func FmtDate(t time.Time, lang string) string {
	months, ok := monthsShort[strings.ToLower(lang)]
	if !ok {
		months = monthsShort["en"]
	}
	return fmt.Sprintf("%02d %s %d", t.Day(), months[t.Month()-1], t.Year())
}

// Year returns the calendar year of t as shown in the footer.
func Year(t time.Time) string {
	return fmt.Sprintf("%d", t.Year())
}
