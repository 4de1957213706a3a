// Package app owns the page lifecycle: boot, language and theme switching
// and navigation. All state lives on an explicitly constructed App that the
// router views read from. Drawer and menu interactions run in the browser
// (site.js and the shell's hx-on handlers); the server only renders them closed.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"finitefield.org/academic-web/internal/config"
	"finitefield.org/academic-web/internal/content"
	"finitefield.org/academic-web/internal/dom"
	"finitefield.org/academic-web/internal/fetch"
	"finitefield.org/academic-web/internal/i18n"
	"finitefield.org/academic-web/internal/markdown"
	"finitefield.org/academic-web/internal/observability"
	"finitefield.org/academic-web/internal/prefs"
	"finitefield.org/academic-web/internal/router"
	"finitefield.org/academic-web/internal/seo"
	"finitefield.org/academic-web/internal/views"
)

// ErrUnsupportedLanguage is returned when switching to a language the site
// does not serve.
var ErrUnsupportedLanguage = errors.New("app: unsupported language")

// Options configures an App.
type Options struct {
	Site    config.SiteConfig
	Fetcher fetch.Fetcher
	// Store persists the language and theme preferences. Defaults to an
	// in-memory store.
	Store prefs.Store
	// PrefersDark reports the OS colour scheme. Only consulted when no
	// theme has been persisted.
	PrefersDark func() bool
	// AcceptLanguage picks the language when none has been persisted.
	AcceptLanguage string
	// Fragment is the location fragment dispatched at boot.
	Fragment string
	Markdown *markdown.Renderer
	Logger   *zap.Logger
	Now      func() time.Time
}

// App is the application context of one page.
type App struct {
	site        config.SiteConfig
	fetcher     fetch.Fetcher
	content     *content.Loader
	dicts       *i18n.Loader
	md          *markdown.Renderer
	store       prefs.Store
	prefersDark func() bool
	negotiator  *i18n.Negotiator
	acceptLang  string
	logger      *zap.Logger
	now         func() time.Time

	router *router.Router

	pageMu sync.Mutex
	page   *dom.Document

	mu       sync.RWMutex
	lang     string
	theme    prefs.Theme
	dict     i18n.Dict
	snap     *content.Snapshot
	fragment string
}

// New builds the page shell and the route table. Nothing is fetched until Boot.
func New(opts Options) (*App, error) {
	if opts.Fetcher == nil {
		return nil, errors.New("app: fetcher is required")
	}
	site := opts.Site
	if site.LandingPath == "" {
		site.LandingPath = "/accademico"
	}
	if site.DefaultLanguage == "" {
		site.DefaultLanguage = "en"
	}
	if len(site.Languages) == 0 {
		site.Languages = []string{"en", "it"}
	}

	a := &App{
		site:        site,
		fetcher:     opts.Fetcher,
		content:     content.NewLoader(opts.Fetcher),
		dicts:       i18n.NewLoader(opts.Fetcher),
		md:          opts.Markdown,
		store:       opts.Store,
		prefersDark: opts.PrefersDark,
		negotiator:  i18n.NewNegotiator(site.DefaultLanguage, site.Languages),
		acceptLang:  opts.AcceptLanguage,
		logger:      opts.Logger,
		now:         opts.Now,
		router:      router.New(site.LandingPath),
		fragment:    opts.Fragment,
	}
	if a.md == nil {
		a.md = markdown.New()
	}
	if a.store == nil {
		a.store = prefs.NewMemoryStore(nil)
	}
	if a.logger == nil {
		a.logger = observability.NoopLogger()
	}
	if a.now == nil {
		a.now = time.Now
	}

	shell, err := views.Shell(views.Context{Lang: site.DefaultLanguage, Markdown: a.md}, site.LandingPath, a.negotiator.Supported())
	if err != nil {
		return nil, fmt.Errorf("app: render shell: %w", err)
	}
	a.page, err = dom.ParseString(shell)
	if err != nil {
		return nil, fmt.Errorf("app: parse shell: %w", err)
	}

	a.routes()
	return a, nil
}

func (a *App) routes() {
	r := a.router
	r.Handle(a.site.LandingPath, a.view(views.Home))
	r.Handle("/about", a.ctxView(views.About))
	r.Handle("/posts", a.view(views.Posts))
	r.HandleDetail("posts", func(id string) bool { return a.Snapshot().HasPost(id) },
		func(ctx context.Context, req *router.Request, id string) error {
			out, err := views.PostDetail(ctx, a.viewContext(), id)
			if err := a.mount(req, out, err); err != nil {
				return err
			}
			if p, ok := a.Snapshot().Post(id); ok && req.Current() {
				a.describe(&p)
			}
			return nil
		})
	r.Handle("/research", a.view(views.Research))
	r.Handle("/research/publications", a.view(views.Publications))
	r.Handle("/experience", a.view(views.Experience))
	r.Handle("/cv", a.view(views.CV))
	r.Handle("/privacy", a.ctxView(views.Privacy))
	r.NotFound(a.view(views.NotFound))
}

func (a *App) view(render func(views.Context) (views.Output, error)) router.View {
	return func(_ context.Context, req *router.Request) error {
		out, err := render(a.viewContext())
		if err := a.mount(req, out, err); err != nil {
			return err
		}
		if req.Current() {
			a.describe(nil)
		}
		return nil
	}
}

func (a *App) ctxView(render func(context.Context, views.Context) (views.Output, error)) router.View {
	return func(ctx context.Context, req *router.Request) error {
		out, err := render(ctx, a.viewContext())
		if err := a.mount(req, out, err); err != nil {
			return err
		}
		if req.Current() {
			a.describe(nil)
		}
		return nil
	}
}

func (a *App) mount(req *router.Request, out views.Output, err error) error {
	if err != nil {
		return err
	}
	if out.Degraded != nil {
		a.logger.Warn("view rendered with fallback",
			zap.String("route", req.Route.Path),
			zap.Error(out.Degraded),
		)
	}
	return req.Mount(string(out.Markup), out.Bindings)
}

// describe writes the head metadata for the site, or for post when set.
func (a *App) describe(post *content.Post) {
	c := a.viewContext()
	if c.Snap == nil {
		return
	}
	snap := c.Snap
	title := c.Dict.Text("site.title", snap.Profile.Name)
	meta := seo.Meta{
		Title:       title,
		Description: a.plainText(snap.Home.Intro),
		OG:          seo.OpenGraph{Locale: seo.Locale(c.Lang)},
	}
	graphs := []map[string]any{
		seo.WebSite(title, "", c.Lang),
		seo.Person(snap.Profile, snap.Social, ""),
	}
	if post != nil {
		href := router.DetailHref("posts", post.ID.String())
		meta.Title = post.Title + " | " + title
		meta.Description = post.Abstract
		meta.OG.Type = "article"
		meta.OG.Image = post.Image
		graphs = append(graphs,
			seo.BlogPosting(*post, href, post.Image, snap.Profile.Name, c.Lang),
			seo.BreadcrumbList([]seo.BreadcrumbItem{
				{Name: c.Dict.Text("nav.home", "Home"), Item: "#" + a.site.LandingPath},
				{Name: c.Dict.Text("nav.posts", "Posts"), Item: "#/posts"},
				{Name: post.Title, Item: href},
			}),
		)
	}
	a.withPage(func(p *dom.Document) { seo.Apply(p, meta, graphs...) })
}

// plainText flattens inline Markdown to text for meta descriptions.
func (a *App) plainText(src string) string {
	if strings.TrimSpace(src) == "" {
		return ""
	}
	html, err := a.md.Render(src)
	if err != nil {
		return src
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(html)))
	if err != nil {
		return src
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func (a *App) viewContext() views.Context {
	a.mu.RLock()
	defer a.mu.RUnlock()
	lang := a.lang
	if lang == "" {
		lang = a.site.DefaultLanguage
	}
	return views.Context{
		Lang:     lang,
		Dict:     a.dict,
		Snap:     a.snap,
		Markdown: a.md,
		Fetcher:  a.fetcher,
	}
}

// Boot runs the startup sequence and renders the initial route. When the
// dictionary or the content cannot be loaded the Unavailable view is mounted
// and the load error is returned.
func (a *App) Boot(ctx context.Context) error {
	a.withPage(func(p *dom.Document) {
		p.Find("#year").SetText(strconv.Itoa(a.now().Year()))
	})

	theme := prefs.ResolveTheme(a.store, a.prefersDark)
	a.mu.Lock()
	a.theme = theme
	a.mu.Unlock()
	a.withPage(func(p *dom.Document) { p.SetRootAttr("data-theme", string(theme)) })

	lang := prefs.ResolveLanguage(a.store, a.negotiator.IsSupported, func() string {
		return a.negotiator.Resolve(a.acceptLang)
	})
	if dict, err := a.load(ctx, lang); err != nil {
		a.showUnavailable(ctx, lang, dict)
		return err
	}
	a.syncLanguage(lang)

	_, err := a.Navigate(ctx, a.Fragment())
	return err
}

// load fetches the dictionary and the content for lang and replaces both
// together. On failure the previous state is kept; when only the content
// failed the loaded dictionary is returned with the error.
func (a *App) load(ctx context.Context, lang string) (i18n.Dict, error) {
	dict, err := a.dicts.Load(ctx, lang)
	if err != nil {
		a.logger.Error("localization load failed", zap.String("lang", lang), zap.Error(err))
		return nil, err
	}
	snap, err := a.content.Load(ctx, lang)
	if err != nil {
		fields := []zap.Field{zap.String("lang", lang), zap.Error(err)}
		var loadErr *content.LoadError
		if errors.As(err, &loadErr) {
			fields = append(fields, zap.Strings("paths", loadErr.Paths()))
		}
		a.logger.Error("content load failed", fields...)
		return dict, err
	}
	for _, issue := range snap.Issues {
		a.logger.Warn("content record dropped",
			zap.String("document", issue.Document),
			zap.Int("index", issue.Index),
			zap.String("reason", issue.Reason),
		)
	}

	a.mu.Lock()
	a.lang = lang
	a.dict = dict
	a.snap = snap
	a.mu.Unlock()

	a.withPage(func(p *dom.Document) { i18n.Apply(p, dict, lang) })
	return dict, nil
}

// showUnavailable mounts the fallback view. A dictionary that did load is
// applied first so the chrome and the notice share one language.
func (a *App) showUnavailable(ctx context.Context, lang string, dict i18n.Dict) {
	c := a.viewContext()
	c.Lang = lang
	if dict != nil {
		c.Dict = dict
		a.withPage(func(p *dom.Document) { i18n.Apply(p, dict, lang) })
		a.syncLanguage(lang)
	}
	err := a.router.Show(ctx, a.target(), func(_ context.Context, req *router.Request) error {
		out, err := views.Unavailable(c)
		if err != nil {
			return err
		}
		return req.Mount(string(out.Markup), nil)
	})
	if err != nil {
		a.logger.Error("render unavailable view", zap.Error(err))
	}
}

// SwitchLanguage persists lang, reloads the dictionary and the content and
// re-renders the current route. Switching to the active language is a no-op.
func (a *App) SwitchLanguage(ctx context.Context, lang string) error {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if !a.negotiator.IsSupported(lang) {
		return fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}
	if lang == a.Lang() {
		return nil
	}
	a.store.Set(prefs.KeyLanguage, lang)
	if dict, err := a.load(ctx, lang); err != nil {
		a.showUnavailable(ctx, lang, dict)
		return err
	}
	a.syncLanguage(lang)
	_, err := a.router.Dispatch(ctx, a.Fragment(), a.target())
	return err
}

// ToggleTheme flips the theme, persists it and returns the new value. Before
// Boot the current theme is resolved first.
func (a *App) ToggleTheme() prefs.Theme {
	a.mu.Lock()
	if !a.theme.Valid() {
		a.theme = prefs.ResolveTheme(a.store, a.prefersDark)
	}
	a.theme = a.theme.Toggle()
	theme := a.theme
	a.mu.Unlock()

	a.store.Set(prefs.KeyTheme, string(theme))
	a.withPage(func(p *dom.Document) { p.SetRootAttr("data-theme", string(theme)) })
	return theme
}

// Navigate records fragment as the current location and renders its route.
// The mobile drawer is rendered closed after every navigation.
func (a *App) Navigate(ctx context.Context, fragment string) (router.Route, error) {
	a.mu.Lock()
	a.fragment = fragment
	a.mu.Unlock()
	route, err := a.router.Dispatch(ctx, fragment, a.target())
	a.closeMobileNav()
	return route, err
}

// PostList renders the post list filtered by tag.
func (a *App) PostList(tag string) (views.Output, error) {
	return views.PostList(a.viewContext(), tag)
}

// PublicationList renders the publications matching query and year.
func (a *App) PublicationList(query, year string) (views.Output, error) {
	return views.PublicationList(a.viewContext(), query, year)
}

func (a *App) syncLanguage(lang string) {
	cur := views.Language(lang)
	a.withPage(func(p *dom.Document) {
		p.Find("#langBtn .flag").SetText(cur.Flag)
		p.Find("#langBtn .lang-code").SetText(cur.Code)
		p.Find("#langMenu .lang-item").Each(func(_ int, s *goquery.Selection) {
			l, _ := s.Attr("data-lang")
			active := l == cur.Lang
			if active {
				s.AddClass("active")
			} else {
				s.RemoveClass("active")
			}
			s.SetAttr("aria-pressed", strconv.FormatBool(active))
		})
	})
}

func (a *App) closeMobileNav() {
	a.withPage(func(p *dom.Document) {
		p.Find("#mobileNav").RemoveClass("open").SetAttr("aria-hidden", "true")
		p.Find("body").RemoveClass("nav-open")
		p.Find("#navToggle").SetAttr("aria-expanded", "false")
	})
}

func (a *App) withPage(fn func(p *dom.Document)) {
	a.pageMu.Lock()
	defer a.pageMu.Unlock()
	fn(a.page)
}

// Lang returns the active language, empty before a successful load.
func (a *App) Lang() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lang
}

// Theme returns the active theme.
func (a *App) Theme() prefs.Theme {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.theme
}

// Dict returns the active dictionary.
func (a *App) Dict() i18n.Dict {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.dict
}

// Snapshot returns the active content. It is never nil.
func (a *App) Snapshot() *content.Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.snap == nil {
		return &content.Snapshot{Lang: a.lang}
	}
	return a.snap
}

// Fragment returns the current location fragment.
func (a *App) Fragment() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.fragment
}

// Supported lists the served languages.
func (a *App) Supported() []string { return a.negotiator.Supported() }

// Render writes the whole page.
func (a *App) Render(w io.Writer) error {
	a.pageMu.Lock()
	defer a.pageMu.Unlock()
	return a.page.Render(w)
}

// Region returns the markup of the content region.
func (a *App) Region() (string, error) {
	a.pageMu.Lock()
	defer a.pageMu.Unlock()
	return a.page.RegionHTML()
}

// Navigation returns the outer markup of both navigation menus, in page order.
func (a *App) Navigation() ([]string, error) {
	a.pageMu.Lock()
	defer a.pageMu.Unlock()
	out := make([]string, 0, 2)
	for _, sel := range []string{"#mainNav", "#mobileNav"} {
		html, err := a.page.OuterHTML(sel)
		if err != nil {
			return nil, err
		}
		out = append(out, html)
	}
	return out, nil
}

// Query runs fn against the page. The selection must not escape fn.
func (a *App) Query(selector string, fn func(*goquery.Selection)) {
	a.withPage(func(p *dom.Document) { fn(p.Find(selector)) })
}

func (a *App) target() router.Target { return pageTarget{a: a} }

type pageTarget struct{ a *App }

func (t pageTarget) Replace(markup string) error {
	t.a.pageMu.Lock()
	defer t.a.pageMu.Unlock()
	return t.a.page.ReplaceRegion(markup)
}

func (t pageTarget) Wire(bindings []dom.Binding) error {
	t.a.pageMu.Lock()
	defer t.a.pageMu.Unlock()
	_, err := t.a.page.Wire(bindings)
	return err
}

func (t pageTarget) SetActive(navPath string) {
	t.a.withPage(func(p *dom.Document) { p.SetActiveRoutes(navPath) })
}

func (t pageTarget) ScrollTop() {
	t.a.withPage(func(p *dom.Document) { p.ScrollTop() })
}
