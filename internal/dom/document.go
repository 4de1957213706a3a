// Package dom models the served page as a mutable HTML document. The content
// region is the only place views write to; the rest of the page (top bar,
// navigation, footer) is mutated through the helpers below.
package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// RegionSelector locates the content region.
const RegionSelector = "#app"

// Binding attaches declarative behaviour to elements matched inside the
// content region once a view has been mounted. Attrs are written verbatim,
// typically htmx attributes.
type Binding struct {
	Selector string
	Attrs    map[string]string
}

// Document wraps a parsed page.
type Document struct {
	root     *html.Node
	doc      *goquery.Document
	scrolled bool
}

// Parse reads a full HTML page.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return &Document{root: root, doc: goquery.NewDocumentFromNode(root)}, nil
}

// ParseString is Parse over a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Find runs a CSS selector over the whole page.
func (d *Document) Find(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

func (d *Document) region() (*goquery.Selection, error) {
	sel := d.doc.Find(RegionSelector)
	if sel.Length() == 0 {
		return nil, fmt.Errorf("page has no %s region", RegionSelector)
	}
	return sel.First(), nil
}

// ReplaceRegion swaps the content region's children for markup.
func (d *Document) ReplaceRegion(markup string) error {
	sel, err := d.region()
	if err != nil {
		return err
	}
	sel.SetHtml(markup)
	return nil
}

// RegionHTML returns the current inner HTML of the content region.
func (d *Document) RegionHTML() (string, error) {
	sel, err := d.region()
	if err != nil {
		return "", err
	}
	return sel.Html()
}

// OuterHTML returns the markup of the first element matching selector,
// including the element itself.
func (d *Document) OuterHTML(selector string) (string, error) {
	sel := d.doc.Find(selector)
	if sel.Length() == 0 {
		return "", fmt.Errorf("page has no %s element", selector)
	}
	return goquery.OuterHtml(sel.First())
}

// Wire applies bindings to elements inside the content region and returns how
// many elements were touched. Selectors that match nothing are ignored.
func (d *Document) Wire(bindings []Binding) (int, error) {
	sel, err := d.region()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, b := range bindings {
		sel.Find(b.Selector).Each(func(_ int, el *goquery.Selection) {
			for k, v := range b.Attrs {
				el.SetAttr(k, v)
			}
			n++
		})
	}
	return n, nil
}

// SetActiveRoutes marks every nav item whose data-route equals navPath.
func (d *Document) SetActiveRoutes(navPath string) {
	d.doc.Find(".nav-item[data-route]").Each(func(_ int, el *goquery.Selection) {
		route, _ := el.Attr("data-route")
		if route == navPath {
			el.AddClass("active")
			el.SetAttr("aria-current", "page")
		} else {
			el.RemoveClass("active")
			el.RemoveAttr("aria-current")
		}
	})
}

// ScrollTop requests that the viewport return to the top after this render.
func (d *Document) ScrollTop() { d.scrolled = true }

// ScrolledTop reports whether ScrollTop was called.
func (d *Document) ScrolledTop() bool { return d.scrolled }

// SetRootAttr sets an attribute on the <html> element.
func (d *Document) SetRootAttr(name, value string) {
	d.doc.Find("html").SetAttr(name, value)
}

// RootAttr reads an attribute of the <html> element.
func (d *Document) RootAttr(name string) string {
	v, _ := d.doc.Find("html").Attr(name)
	return v
}

// SetLang sets the document language.
func (d *Document) SetLang(lang string) { d.SetRootAttr("lang", lang) }

// SetTitle replaces the document title text.
func (d *Document) SetTitle(title string) {
	d.doc.Find("head title").SetText(title)
}

// Title returns the document title text.
func (d *Document) Title() string {
	return d.doc.Find("head title").Text()
}

// Render writes the full page.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// String renders the page to a string.
func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}
