// Package router resolves URL fragments (#/path) to views and mounts their
// output into the page.
package router

import (
	"net/url"
	"strings"
)

// Kind classifies a resolved route.
type Kind int

const (
	NotFound Kind = iota
	Static
	Detail
)

func (k Kind) String() string {
	switch k {
	case Static:
		return "static"
	case Detail:
		return "detail"
	default:
		return "not_found"
	}
}

// Route is the result of parsing a fragment.
type Route struct {
	Kind       Kind
	Path       string
	Collection string
	ID         string
}

// NavPath is the path used to highlight navigation: detail routes collapse to
// their collection's list path.
func (r Route) NavPath() string {
	if r.Kind == Detail {
		return "/" + r.Collection
	}
	return r.Path
}

// Table lists the static paths and the detail collections known to a router.
type Table struct {
	Paths       []string
	Collections []string
}

func (t Table) hasPath(p string) bool {
	for _, s := range t.Paths {
		if s == p {
			return true
		}
	}
	return false
}

// Parse resolves fragment without side effects. A leading "#" is dropped and
// an empty fragment means landing. "/<collection>/<id>" with at least three
// slash-separated segments is a detail route whose id is the URL-decoded third
// segment; an id that cannot be decoded is used as written.
func Parse(fragment, landing string, table Table) Route {
	p := strings.TrimPrefix(fragment, "#")
	if p == "" {
		p = landing
	}
	for _, c := range table.Collections {
		if !strings.HasPrefix(p, "/"+c+"/") {
			continue
		}
		segments := strings.Split(p, "/")
		if len(segments) < 3 {
			continue
		}
		id, err := url.PathUnescape(segments[2])
		if err != nil {
			id = segments[2]
		}
		return Route{Kind: Detail, Path: p, Collection: c, ID: id}
	}
	if table.hasPath(p) {
		return Route{Kind: Static, Path: p}
	}
	return Route{Kind: NotFound, Path: p}
}

// DetailHref builds the fragment for a record, escaping the id.
func DetailHref(collection, id string) string {
	return "#/" + collection + "/" + url.PathEscape(id)
}
