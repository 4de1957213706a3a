// Package views renders the content region for each route. Every view is a
// function of the content snapshot, the dictionary and the language; the
// result is markup plus the bindings to apply once it is mounted.
package views

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"finitefield.org/academic-web/internal/content"
	"finitefield.org/academic-web/internal/dom"
	"finitefield.org/academic-web/internal/fetch"
	"finitefield.org/academic-web/internal/format"
	"finitefield.org/academic-web/internal/i18n"
	"finitefield.org/academic-web/internal/markdown"
	"finitefield.org/academic-web/internal/router"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var base = template.Must(template.New("views").Funcs(Context{}.funcs()).ParseFS(templateFS, "templates/*.tmpl"))

// Context is everything a view may read.
type Context struct {
	Lang     string
	Dict     i18n.Dict
	Snap     *content.Snapshot
	Markdown *markdown.Renderer
	// Fetcher serves Markdown bodies fetched while rendering.
	Fetcher fetch.Fetcher
}

// Output is a rendered view.
type Output struct {
	Markup   template.HTML
	Bindings []dom.Binding
	// Degraded is set when part of the view fell back because a lazily
	// fetched body could not be loaded.
	Degraded error
}

func (c Context) snapshot() *content.Snapshot {
	if c.Snap == nil {
		return &content.Snapshot{Lang: c.Lang}
	}
	return c.Snap
}

// Pick returns it for Italian pages and en otherwise.
func (c Context) Pick(en, it string) string {
	if c.Lang == "it" {
		return it
	}
	return en
}

// Label looks key up in the dictionary with a per-language fallback.
func (c Context) Label(key, en, it string) string {
	return c.Dict.Text(key, c.Pick(en, it))
}

func (c Context) funcs() template.FuncMap {
	return template.FuncMap{
		"t":            c.Dict.Text,
		"tl":           c.Label,
		"pick":         c.Pick,
		"date":         func(iso string) string { return format.PostDate(iso, c.Lang) },
		"detail":       router.DetailHref,
		"join":         strings.Join,
		"lang":         func() string { return c.Lang },
		"joinNonEmpty": joinNonEmpty,
		"conference": func(link string) string {
			if link == "" {
				return ""
			}
			return c.Pick("Conference", "Conferenza")
		},
		"item": func(e content.TimelineEntry, ongoing string) timelineItem {
			return timelineItem{Entry: e, Ongoing: ongoing}
		},
	}
}

type timelineItem struct {
	Entry   content.TimelineEntry
	Ongoing string
}

func joinNonEmpty(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}

func (c Context) execute(name string, data any) (template.HTML, error) {
	tmpl, err := base.Clone()
	if err != nil {
		return "", fmt.Errorf("views: clone templates: %w", err)
	}
	tmpl.Funcs(c.funcs())
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("views: render %s: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}

func (c Context) markdown() *markdown.Renderer {
	if c.Markdown == nil {
		return markdown.New()
	}
	return c.Markdown
}

// richText renders plain text with blank-line paragraphs and inline
// Markdown (**bold**, [text](url)).
func (c Context) richText(text string) (template.HTML, error) {
	return c.markdown().Render(text)
}

// fetchMarkdown fetches and renders a Markdown document.
func (c Context) fetchMarkdown(ctx context.Context, path string) (markdown.Document, error) {
	if c.Fetcher == nil {
		return markdown.Document{}, fmt.Errorf("views: no fetcher for %s", path)
	}
	src, err := fetch.Text(ctx, c.Fetcher, path)
	if err != nil {
		return markdown.Document{}, err
	}
	return c.markdown().Document(src)
}

type pageHeader struct {
	Title string
	Intro string
}
