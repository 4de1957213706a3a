package nav

import "strings"

// Item represents a top-level navigation item.
type Item struct {
	Route    string // e.g. "/posts"
	LabelKey string // i18n key, e.g. "nav.posts"
	Fallback string // label used when the dictionary has no string for LabelKey
}

// RenderedItem is a view model for templates.
type RenderedItem struct {
	Route    string
	Href     string
	LabelKey string
	Label    string
	Active   bool
}

// Main builds the primary navigation for a site whose landing route is landing.
func Main(landing string) []Item {
	return []Item{
		{Route: landing, LabelKey: "nav.home", Fallback: "Home"},
		{Route: "/about", LabelKey: "nav.about", Fallback: "About"},
		{Route: "/posts", LabelKey: "nav.posts", Fallback: "Posts"},
		{Route: "/research", LabelKey: "nav.research", Fallback: "Research"},
		{Route: "/experience", LabelKey: "nav.experience", Fallback: "Experience"},
		{Route: "/cv", LabelKey: "nav.cv", Fallback: "CV"},
	}
}

// Build renders navigation items with active state given the collapsed
// navigation path of the current route. label resolves a key to text and may be nil.
func Build(items []Item, navPath string, label func(key, fallback string) string) []RenderedItem {
	out := make([]RenderedItem, 0, len(items))
	for _, it := range items {
		text := it.Fallback
		if label != nil {
			text = label(it.LabelKey, it.Fallback)
		}
		out = append(out, RenderedItem{
			Route:    it.Route,
			Href:     Href(it.Route),
			LabelKey: it.LabelKey,
			Label:    text,
			Active:   isActive(it.Route, navPath),
		})
	}
	return out
}

// Href turns a route into the fragment link used in the page.
func Href(route string) string {
	if strings.HasPrefix(route, "#") {
		return route
	}
	return "#" + route
}

// exact match only: detail paths are collapsed before they get here
func isActive(itemRoute, navPath string) bool {
	return itemRoute == navPath
}
