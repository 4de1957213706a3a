package router

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"finitefield.org/academic-web/internal/dom"
)

// ErrStale is returned by Request.Mount when a newer dispatch has started
// since the request was created. Its output is discarded.
var ErrStale = errors.New("router: stale render")

// Target receives view output.
type Target interface {
	Replace(markup string) error
	Wire(bindings []dom.Binding) error
	SetActive(navPath string)
	ScrollTop()
}

// View renders a static route.
type View func(ctx context.Context, req *Request) error

// DetailView renders one record of a collection.
type DetailView func(ctx context.Context, req *Request, id string) error

type detail struct {
	exists func(id string) bool
	view   DetailView
}

// Router maps fragments to views. Each dispatch is stamped with a generation
// number; only the newest dispatch may mount output.
type Router struct {
	landing string

	mu       sync.Mutex
	static   map[string]View
	details  map[string]detail
	notFound View

	gen atomic.Uint64
	// mount serializes writes to the target and the generation check.
	mount sync.Mutex
}

// New returns a Router whose empty fragment resolves to landing.
func New(landing string) *Router {
	return &Router{
		landing: landing,
		static:  map[string]View{},
		details: map[string]detail{},
	}
}

// Landing returns the landing path.
func (r *Router) Landing() string { return r.landing }

// Handle registers a static path.
func (r *Router) Handle(path string, v View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.static[path] = v
}

// HandleDetail registers a collection of "/<collection>/<id>" routes. exists
// decides whether an id refers to a record; unknown ids render not-found.
func (r *Router) HandleDetail(collection string, exists func(id string) bool, v DetailView) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.details[collection] = detail{exists: exists, view: v}
}

// NotFound registers the view for unresolved routes.
func (r *Router) NotFound(v View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notFound = v
}

// Table returns the registered paths and collections.
func (r *Router) Table() Table {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := Table{}
	for p := range r.static {
		t.Paths = append(t.Paths, p)
	}
	for c := range r.details {
		t.Collections = append(t.Collections, c)
	}
	sort.Strings(t.Paths)
	sort.Strings(t.Collections)
	return t
}

// Resolve parses fragment against the registered table.
func (r *Router) Resolve(fragment string) Route {
	return Parse(fragment, r.landing, r.Table())
}

// Generation returns the stamp of the latest dispatch.
func (r *Router) Generation() uint64 { return r.gen.Load() }

// Dispatch resolves fragment and runs its view against target. Once the view
// has mounted, navigation state follows the route and the page scrolls to the
// top. A render superseded by a newer dispatch is dropped without error.
func (r *Router) Dispatch(ctx context.Context, fragment string, target Target) (Route, error) {
	gen := r.gen.Add(1)
	route := r.Resolve(fragment)
	req := &Request{Route: route, gen: gen, router: r, target: target}

	r.mu.Lock()
	static := r.static[route.Path]
	d, hasDetail := r.details[route.Collection]
	notFound := r.notFound
	r.mu.Unlock()

	var err error
	switch {
	case route.Kind == Detail && hasDetail && (d.exists == nil || d.exists(route.ID)):
		err = d.view(ctx, req, route.ID)
	case route.Kind == Static && static != nil:
		err = static(ctx, req)
	case notFound != nil:
		err = notFound(ctx, req)
	default:
		err = req.Mount("", nil)
	}
	if errors.Is(err, ErrStale) {
		return route, nil
	}
	if err != nil {
		return route, fmt.Errorf("dispatch %s: %w", route.Path, err)
	}

	r.mount.Lock()
	defer r.mount.Unlock()
	if r.gen.Load() == gen {
		target.SetActive(route.NavPath())
		target.ScrollTop()
	}
	return route, nil
}

// Show runs v as a new dispatch without resolving a route or touching
// navigation state. Renders still in flight are superseded.
func (r *Router) Show(ctx context.Context, target Target, v View) error {
	gen := r.gen.Add(1)
	req := &Request{Route: Route{Kind: NotFound}, gen: gen, router: r, target: target}
	if err := v(ctx, req); err != nil && !errors.Is(err, ErrStale) {
		return err
	}
	return nil
}

// Request is the handle a view uses to publish its output.
type Request struct {
	Route Route

	gen    uint64
	router *Router
	target Target
}

// Current reports whether no newer dispatch has started.
func (q *Request) Current() bool {
	return q.router.gen.Load() == q.gen
}

// Mount replaces the content region with markup and applies bindings, unless
// the request has been superseded, in which case ErrStale is returned and the
// page is left untouched.
func (q *Request) Mount(markup string, bindings []dom.Binding) error {
	q.router.mount.Lock()
	defer q.router.mount.Unlock()
	if q.router.gen.Load() != q.gen {
		return ErrStale
	}
	if err := q.target.Replace(markup); err != nil {
		return err
	}
	if len(bindings) == 0 {
		return nil
	}
	return q.target.Wire(bindings)
}
