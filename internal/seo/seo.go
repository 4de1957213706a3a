// Package seo describes pages to crawlers: meta tags, Open Graph and
// schema.org JSON-LD in the document head.
package seo

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"finitefield.org/academic-web/internal/dom"
)

type OpenGraph struct {
	Title       string
	Description string
	Image       string
	Type        string
	Locale      string
}

type Meta struct {
	Title       string
	Description string
	Canonical   string
	OG          OpenGraph
}

var ogLocales = map[string]string{
	"en": "en_GB",
	"it": "it_IT",
}

// Locale maps a site language to an Open Graph locale.
func Locale(lang string) string {
	if l, ok := ogLocales[lang]; ok {
		return l
	}
	return lang
}

// Apply writes m and the JSON-LD graphs into the head of doc, replacing what
// a previous Apply wrote. Empty values remove their tag.
func Apply(doc *dom.Document, m Meta, graphs ...map[string]any) {
	head := doc.Find("head").First()
	if head.Length() == 0 {
		return
	}
	if m.Title != "" {
		doc.SetTitle(m.Title)
	}
	og := m.OG
	if og.Title == "" {
		og.Title = m.Title
	}
	if og.Description == "" {
		og.Description = m.Description
	}
	if og.Type == "" {
		og.Type = "website"
	}

	setMeta(head, "name", "description", m.Description)
	setMeta(head, "property", "og:title", og.Title)
	setMeta(head, "property", "og:description", og.Description)
	setMeta(head, "property", "og:type", og.Type)
	setMeta(head, "property", "og:image", og.Image)
	setMeta(head, "property", "og:locale", og.Locale)
	setLink(head, "canonical", m.Canonical)

	head.Find(`script[type="application/ld+json"][data-seo]`).Remove()
	for _, g := range graphs {
		if len(g) == 0 {
			continue
		}
		if js := JSON(g); js != "" {
			head.AppendHtml(`<script type="application/ld+json" data-seo>` + js + `</script>`)
		}
	}
}

func setMeta(head *goquery.Selection, attr, key, content string) {
	sel := head.Find(`meta[` + attr + `="` + key + `"]`)
	content = strings.TrimSpace(content)
	if content == "" {
		sel.Remove()
		return
	}
	if sel.Length() == 0 {
		head.AppendHtml(`<meta ` + attr + `="` + key + `">`)
		sel = head.Find(`meta[` + attr + `="` + key + `"]`)
	}
	sel.SetAttr("content", content)
}

func setLink(head *goquery.Selection, rel, href string) {
	sel := head.Find(`link[rel="` + rel + `"]`)
	if href == "" {
		sel.Remove()
		return
	}
	if sel.Length() == 0 {
		head.AppendHtml(`<link rel="` + rel + `">`)
		sel = head.Find(`link[rel="` + rel + `"]`)
	}
	sel.SetAttr("href", href)
}
