// Package markdown converts Markdown and lightly marked-up text into
// sanitized HTML.
package markdown

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"gopkg.in/yaml.v3"
)

// FrontMatter is the optional YAML header of a Markdown document.
type FrontMatter struct {
	Title   string   `yaml:"title"`
	Date    string   `yaml:"date"`
	Tags    []string `yaml:"tags"`
	Summary string   `yaml:"summary"`
}

// Document is a rendered Markdown file.
type Document struct {
	FrontMatter
	Body template.HTML
}

// Renderer parses Markdown with GitHub-flavoured extensions and sanitizes
// the output. It is safe for concurrent use.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// New returns a Renderer.
func New() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
		policy: newPolicy(),
	}
}

func newPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("figure", "figcaption")
	policy.AllowAttrs("class").OnElements("figure", "figcaption", "p", "span", "code")
	policy.AllowAttrs("loading").OnElements("img")
	policy.RequireNoFollowOnLinks(true)
	return policy
}

// Render converts src to sanitized HTML. Blank lines separate paragraphs and
// raw HTML in the source never reaches the output unsanitized.
func (r *Renderer) Render(src string) (template.HTML, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("markdown: convert: %w", err)
	}
	return template.HTML(strings.TrimSpace(r.policy.Sanitize(buf.String()))), nil
}

// Document strips a leading YAML front matter block from src and renders the rest.
func (r *Renderer) Document(src string) (Document, error) {
	fm, body := splitFrontMatter(src)
	var doc Document
	if strings.TrimSpace(fm) != "" {
		if err := yaml.Unmarshal([]byte(fm), &doc.FrontMatter); err != nil {
			return Document{}, fmt.Errorf("markdown: parse front matter: %w", err)
		}
	}
	html, err := r.Render(body)
	if err != nil {
		return Document{}, err
	}
	doc.Title = strings.TrimSpace(doc.Title)
	doc.Summary = strings.TrimSpace(doc.Summary)
	doc.Body = html
	return doc, nil
}

func splitFrontMatter(input string) (string, string) {
	input = strings.TrimLeft(input, "\ufeff")
	lines := strings.Split(input, "\n")
	if strings.TrimSpace(lines[0]) != "---" {
		return "", input
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return strings.Join(lines[1:i], "\n"), strings.TrimLeft(strings.Join(lines[i+1:], "\n"), "\n\r")
		}
	}
	return "", input
}
