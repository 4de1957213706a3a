package main

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"finitefield.org/academic-web/internal/app"
	"finitefield.org/academic-web/internal/config"
	"finitefield.org/academic-web/internal/fetch"
	"finitefield.org/academic-web/internal/markdown"
	mw "finitefield.org/academic-web/internal/middleware"
	"finitefield.org/academic-web/internal/observability"
	"finitefield.org/academic-web/internal/prefs"
	"finitefield.org/academic-web/internal/views"
)

const (
	assetsMaxAge  = 604800
	contentMaxAge = 60
)

type server struct {
	cfg     config.Config
	fetcher fetch.Fetcher
	logger  *zap.Logger
	md      *markdown.Renderer
}

func (s *server) routes() http.Handler {
	if s.md == nil {
		s.md = markdown.New()
	}
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	// If deployed behind a trusted reverse proxy/load balancer, RealIP will use
	// X-Forwarded-For to determine the client IP.
	r.Use(chimw.RealIP)
	r.Use(observability.InjectLogger(s.logger))
	r.Use(observability.Trace)
	r.Use(observability.RequestLogger)
	r.Use(observability.Recovery)
	r.Use(mw.HTMX)
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if s.cfg.Content.BaseURL == "" {
		maxAge := assetsMaxAge
		if s.cfg.Dev {
			maxAge = 0
		}
		r.Handle("/assets/*", mw.AssetsWithCache("/assets", filepath.Join(s.cfg.Content.Dir, "assets"), maxAge))
		// The content tree itself, so other instances can fetch from this one.
		r.Handle("/content/*", mw.AssetsWithCache("/content", s.cfg.Content.Dir, contentMaxAge))
	} else {
		r.Get("/assets/*", s.handleRemoteAsset)
	}

	r.Group(func(r chi.Router) {
		r.Use(mw.VaryPreferences)
		r.Get("/", s.handlePage)
		r.Get("/view", s.handleView)
		r.Get(views.PostListPath, s.handlePostList)
		r.Get(views.PublicationListPath, s.handlePublicationList)
		r.Post("/lang/{code}", s.handleLanguage)
		r.Post("/theme/toggle", s.handleTheme)
	})
	return r
}

// newApp builds the page context of one request. Preferences live in cookies.
func (s *server) newApp(w http.ResponseWriter, r *http.Request, fragment string) (*app.App, error) {
	secure := r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
	return app.New(app.Options{
		Site:           s.cfg.Site,
		Fetcher:        s.fetcher,
		Store:          prefs.NewCookieStore(w, r, secure),
		PrefersDark:    prefs.PrefersDarkFromRequest(r),
		AcceptLanguage: r.Header.Get("Accept-Language"),
		Fragment:       fragment,
		Markdown:       s.md,
		Logger:         observability.FromContext(r.Context()),
	})
}

// bootApp builds and boots the page. A failed load is logged; the page then
// carries the unavailable notice and is still served.
func (s *server) bootApp(w http.ResponseWriter, r *http.Request, fragment string) (*app.App, bool) {
	a, err := s.newApp(w, r, fragment)
	if err != nil {
		observability.FromContext(r.Context()).Error("build page", zap.Error(err))
		mw.WriteError(w, r, http.StatusInternalServerError, "page unavailable")
		return nil, false
	}
	if err := a.Boot(r.Context()); err != nil {
		observability.FromContext(r.Context()).Warn("boot failed", zap.String("fragment", fragment), zap.Error(err))
	}
	return a, true
}

func (s *server) handlePage(w http.ResponseWriter, r *http.Request) {
	a, ok := s.bootApp(w, r, "")
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	mw.ContentLanguage(w, a.Lang())
	if err := a.Render(w); err != nil {
		observability.FromContext(r.Context()).Error("render page", zap.Error(err))
	}
}

// handleView answers the fragment-change request of the content region. The
// response carries the region plus both menus as out-of-band swaps so the
// active entry follows the route.
func (s *server) handleView(w http.ResponseWriter, r *http.Request) {
	fragment := r.URL.Query().Get("path")
	if !mw.IsHTMX(r.Context()) {
		http.Redirect(w, r, "/"+fragmentOrEmpty(fragment), http.StatusSeeOther)
		return
	}
	a, ok := s.bootApp(w, r, fragment)
	if !ok {
		return
	}
	region, err := a.Region()
	if err != nil {
		mw.WriteError(w, r, http.StatusInternalServerError, "render failed")
		return
	}
	menus, err := a.Navigation()
	if err != nil {
		mw.WriteError(w, r, http.StatusInternalServerError, "render failed")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	mw.ContentLanguage(w, a.Lang())
	_, _ = io.WriteString(w, region)
	for _, m := range menus {
		_, _ = io.WriteString(w, outOfBand(m))
	}
}

func (s *server) handlePostList(w http.ResponseWriter, r *http.Request) {
	a, ok := s.bootApp(w, r, "#/posts")
	if !ok {
		return
	}
	out, err := a.PostList(r.URL.Query().Get("tag"))
	s.writeFragment(w, r, a, out, err)
}

func (s *server) handlePublicationList(w http.ResponseWriter, r *http.Request) {
	a, ok := s.bootApp(w, r, "#/research/publications")
	if !ok {
		return
	}
	q := r.URL.Query()
	out, err := a.PublicationList(q.Get("q"), q.Get("year"))
	s.writeFragment(w, r, a, out, err)
}

func (s *server) writeFragment(w http.ResponseWriter, r *http.Request, a *app.App, out views.Output, err error) {
	if err != nil {
		observability.FromContext(r.Context()).Error("render fragment", zap.Error(err))
		mw.WriteError(w, r, http.StatusInternalServerError, "render failed")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	mw.ContentLanguage(w, a.Lang())
	_, _ = io.WriteString(w, string(out.Markup))
}

// handleLanguage persists the chosen language. htmx callers reload the page,
// which keeps the location fragment and so the current route.
func (s *server) handleLanguage(w http.ResponseWriter, r *http.Request) {
	fragment := currentFragment(r)
	a, err := s.newApp(w, r, fragment)
	if err != nil {
		mw.WriteError(w, r, http.StatusInternalServerError, "page unavailable")
		return
	}
	if err := a.SwitchLanguage(r.Context(), chi.URLParam(r, "code")); err != nil {
		if errors.Is(err, app.ErrUnsupportedLanguage) {
			mw.WriteError(w, r, http.StatusBadRequest, "unsupported language")
			return
		}
		observability.FromContext(r.Context()).Warn("language switch failed", zap.Error(err))
	}
	if mw.IsHTMX(r.Context()) {
		mw.Refresh(w)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/"+fragment, http.StatusSeeOther)
}

// handleTheme flips and persists the theme. htmx callers get the new value
// as plain text and apply it to the document root.
func (s *server) handleTheme(w http.ResponseWriter, r *http.Request) {
	a, err := s.newApp(w, r, "")
	if err != nil {
		mw.WriteError(w, r, http.StatusInternalServerError, "page unavailable")
		return
	}
	theme := a.ToggleTheme()
	if mw.IsHTMX(r.Context()) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, string(theme))
		return
	}
	back := "/"
	if ref, err := url.Parse(r.Referer()); err == nil && ref.Path != "" && ref.Host == r.Host {
		back = ref.RequestURI()
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}

// handleRemoteAsset proxies static assets from the remote content origin.
func (s *server) handleRemoteAsset(w http.ResponseWriter, r *http.Request) {
	p := "assets/" + strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	body, err := s.fetcher.Fetch(r.Context(), p)
	if err != nil {
		if errors.Is(err, fetch.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		observability.FromContext(r.Context()).Warn("asset fetch failed", zap.String("path", p), zap.Error(err))
		http.Error(w, "asset unavailable", http.StatusBadGateway)
		return
	}
	if ct := mime.TypeByExtension(path.Ext(p)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(body)
}

// currentFragment reads the location fragment htmx reports in HX-Current-URL.
func currentFragment(r *http.Request) string {
	u, err := url.Parse(r.Header.Get("HX-Current-URL"))
	if err != nil || u.Fragment == "" {
		return ""
	}
	return "#" + u.Fragment
}

func fragmentOrEmpty(fragment string) string {
	if strings.HasPrefix(fragment, "#") {
		return fragment
	}
	return ""
}

func outOfBand(markup string) string {
	i := strings.IndexByte(markup, ' ')
	if i < 0 || !strings.HasPrefix(markup, "<") {
		return markup
	}
	return markup[:i] + ` hx-swap-oob="true"` + markup[i:]
}
