// Package content loads the site's JSON documents into an immutable snapshot.
package content

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"finitefield.org/academic-web/internal/fetch"
)

// Failure is one document that could not be loaded.
type Failure struct {
	Path string
	Err  error
}

// LoadError reports every document that failed during a load.
type LoadError struct {
	Lang     string
	Failures []Failure
}

func (e *LoadError) Error() string {
	paths := e.Paths()
	return fmt.Sprintf("load content %q: %d document(s) failed: %s", e.Lang, len(paths), strings.Join(paths, ", "))
}

// Paths returns the failed document paths in sorted order.
func (e *LoadError) Paths() []string {
	out := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		out = append(out, f.Path)
	}
	sort.Strings(out)
	return out
}

// Unwrap exposes each underlying failure to errors.Is and errors.As.
func (e *LoadError) Unwrap() []error {
	out := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		out = append(out, f.Err)
	}
	return out
}

// Loader fetches every content document of a language concurrently.
type Loader struct {
	fetcher fetch.Fetcher
	tracer  trace.Tracer
	now     func() time.Time
}

// NewLoader builds a Loader on top of f.
func NewLoader(f fetch.Fetcher) *Loader {
	return &Loader{
		fetcher: f,
		tracer:  otel.Tracer("finitefield.org/academic-web/internal/content"),
		now:     time.Now,
	}
}

// DataPath is the path of a language-dependent document.
func DataPath(name, lang string) string {
	return "data/" + name + "." + lang + ".json"
}

// SharedPath is the path of a language-independent document.
func SharedPath(name string) string {
	return "data/" + name + ".json"
}

// Paths lists the documents a load of lang fetches.
func Paths(lang string) []string {
	var out []string
	for _, d := range documents(&Snapshot{}, lang) {
		out = append(out, d.path)
	}
	return out
}

type document struct {
	path   string
	target any
}

func documents(s *Snapshot, lang string) []document {
	return []document{
		{DataPath("profile", lang), &s.Profile},
		{DataPath("home", lang), &s.Home},
		{DataPath("about_me", lang), &s.AboutMe},
		{DataPath("posts", lang), &s.Posts},
		{DataPath("education", lang), &s.Education},
		{DataPath("experience", lang), &s.Experience},
		{DataPath("publications", lang), &s.Publications},
		{DataPath("topics", lang), &s.Topics},
		{DataPath("talks", lang), &s.Talks},
		{DataPath("projects", lang), &s.Projects},
		{SharedPath("social"), &s.Social},
		{SharedPath("cv"), &s.CV},
	}
}

// Load fetches all documents for lang. Either every document loads and a
// complete snapshot is returned, or a *LoadError naming each failed path.
// Markdown bodies are not part of a load.
func (l *Loader) Load(ctx context.Context, lang string) (*Snapshot, error) {
	ctx, span := l.tracer.Start(ctx, "content.Load", trace.WithAttributes(attribute.String("content.lang", lang)))
	defer span.End()

	snap := &Snapshot{Lang: lang}
	docs := documents(snap, lang)

	var (
		mu       sync.Mutex
		failures []Failure
	)
	var g errgroup.Group
	for _, d := range docs {
		g.Go(func() error {
			if err := fetch.JSON(ctx, l.fetcher, d.path, d.target); err != nil {
				mu.Lock()
				failures = append(failures, Failure{Path: d.path, Err: err})
				mu.Unlock()
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		lerr := &LoadError{Lang: lang, Failures: failures}
		span.RecordError(lerr)
		span.SetStatus(codes.Error, "load failed")
		return nil, lerr
	}

	snap.LoadedAt = l.now()
	validate(snap)
	span.SetAttributes(
		attribute.Int("content.posts", len(snap.Posts)),
		attribute.Int("content.issues", len(snap.Issues)),
	)
	return snap, nil
}
