package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"finitefield.org/academic-web/internal/config"
	"finitefield.org/academic-web/internal/content"
	"finitefield.org/academic-web/internal/fetch"
	"finitefield.org/academic-web/internal/prefs"
	"finitefield.org/academic-web/internal/router"
)

var site = config.SiteConfig{LandingPath: "/accademico", DefaultLanguage: "en", Languages: []string{"en", "it"}}

func siteFS() fstest.MapFS {
	files := fstest.MapFS{
		"i18n/ui.en.json":  {Data: []byte(`{"site":{"title":"Ada Lovelace"},"nav":{"about":"About","posts":"Posts"}}`)},
		"i18n/ui.it.json":  {Data: []byte(`{"site":{"title":"Ada Lovelace IT"},"nav":{"about":"Chi sono","posts":"Post"}}`)},
		"data/social.json": {Data: []byte(`[]`)},
		"data/cv.json":     {Data: []byte(`{"lastUpdated":"2025-01-10"}`)},
	}
	for lang, posts := range map[string]string{
		"en": `[{"id":"a","title":"Alpha","date":"2024-01-02","content":"Hello."},{"id":"b","title":"Beta","date":"2024-03-01"}]`,
		"it": `[{"id":"a","title":"Alfa","date":"2024-01-02","content":"Ciao."},{"id":"b","title":"Beta IT","date":"2024-03-01"}]`,
	} {
		docs := map[string]string{
			"profile":      `{"name":"Ada Lovelace"}`,
			"home":         `{}`,
			"about_me":     `{"text":"hi"}`,
			"posts":        posts,
			"education":    `[]`,
			"experience":   `[]`,
			"publications": `[]`,
			"topics":       `[]`,
			"talks":        `[]`,
			"projects":     `[]`,
		}
		for name, body := range docs {
			files[content.DataPath(name, lang)] = &fstest.MapFile{Data: []byte(body)}
		}
	}
	files["data/posts/b.en.md"] = &fstest.MapFile{Data: []byte("Body of *b*.")}
	return files
}

func newApp(t *testing.T, opts Options) *App {
	t.Helper()
	if opts.Fetcher == nil {
		opts.Fetcher = fetch.NewFS(siteFS())
	}
	opts.Site = site
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	}
	a, err := New(opts)
	require.NoError(t, err)
	return a
}

func text(a *App, selector string) string {
	var out string
	a.Query(selector, func(s *goquery.Selection) { out = strings.TrimSpace(s.First().Text()) })
	return out
}

func attr(a *App, selector, name string) string {
	var out string
	a.Query(selector, func(s *goquery.Selection) { out, _ = s.First().Attr(name) })
	return out
}

func count(a *App, selector string) int {
	var n int
	a.Query(selector, func(s *goquery.Selection) { n = s.Length() })
	return n
}

func TestBootRendersLanding(t *testing.T) {
	a := newApp(t, Options{})
	require.NoError(t, a.Boot(context.Background()))

	require.Equal(t, "2026", text(a, "#year"))
	require.Equal(t, "en", a.Lang())
	require.Equal(t, "Beta", text(a, "#app .home-latest-posttitle"))
	require.Equal(t, "/accademico", attr(a, "#mainNav .nav-item.active", "data-route"))
	require.Equal(t, "Ada Lovelace", text(a, "head title"))
}

func TestBootNegotiatesLanguageWhenNothingPersisted(t *testing.T) {
	a := newApp(t, Options{AcceptLanguage: "it-IT,it;q=0.9,en;q=0.5"})
	require.NoError(t, a.Boot(context.Background()))
	require.Equal(t, "it", a.Lang())
	require.Equal(t, "IT", text(a, "#langBtn .lang-code"))
}

func TestSwitchLanguageRerendersCurrentRoute(t *testing.T) {
	store := prefs.NewMemoryStore(nil)
	a := newApp(t, Options{Store: store, Fragment: "#/posts"})
	ctx := context.Background()
	require.NoError(t, a.Boot(ctx))
	require.Equal(t, "Alpha", text(a, `#app article[data-post-id="a"] .post-card-title`))

	require.NoError(t, a.SwitchLanguage(ctx, "it"))
	require.Equal(t, "it", a.Lang())
	require.Equal(t, "Alfa", text(a, `#app article[data-post-id="a"] .post-card-title`))
	require.Equal(t, "Chi sono", text(a, `#mainNav .nav-item[data-route="/about"]`))
	require.Equal(t, "it", attr(a, "html", "lang"))
	require.Equal(t, "🇮🇹", text(a, "#langBtn .flag"))
	require.Equal(t, "true", attr(a, `#langMenu .lang-item[data-lang="it"]`, "aria-pressed"))
	require.Equal(t, "false", attr(a, `#langMenu .lang-item[data-lang="en"]`, "aria-pressed"))
	require.Equal(t, "/posts", attr(a, "#mainNav .nav-item.active", "data-route"))

	v, ok := store.Get(prefs.KeyLanguage)
	require.True(t, ok)
	require.Equal(t, "it", v)

	gen := a.router.Generation()
	require.NoError(t, a.SwitchLanguage(ctx, "it"))
	require.Equal(t, gen, a.router.Generation(), "same language does not re-render")

	require.ErrorIs(t, a.SwitchLanguage(ctx, "fr"), ErrUnsupportedLanguage)
}

func TestNavigateResolvesRoutes(t *testing.T) {
	a := newApp(t, Options{})
	ctx := context.Background()
	require.NoError(t, a.Boot(ctx))

	route, err := a.Navigate(ctx, "#/nope")
	require.NoError(t, err)
	require.Equal(t, router.NotFound, route.Kind)
	require.Equal(t, "404", text(a, "#app h1"))
	require.Zero(t, count(a, ".nav-item.active"))

	route, err = a.Navigate(ctx, "#/posts/a")
	require.NoError(t, err)
	require.Equal(t, router.Detail, route.Kind)
	require.Equal(t, "Alpha", text(a, "#app .post-page-title"))
	require.Equal(t, "/posts", attr(a, "#mainNav .nav-item.active", "data-route"))
	require.Equal(t, "Alpha | Ada Lovelace", text(a, "head title"))
	require.Equal(t, "article", attr(a, `meta[property="og:type"]`, "content"))
	require.Equal(t, 4, count(a, `script[type="application/ld+json"]`))

	_, err = a.Navigate(ctx, "#/posts/missing")
	require.NoError(t, err)
	require.Equal(t, "404", text(a, "#app h1"))
	require.Equal(t, "Ada Lovelace", text(a, "head title"))
	require.Equal(t, 2, count(a, `script[type="application/ld+json"]`))
	require.Equal(t, "#/posts/missing", a.Fragment())
}

func TestThemePersistsAcrossBoots(t *testing.T) {
	store := prefs.NewMemoryStore(nil)
	first := newApp(t, Options{Store: store, PrefersDark: func() bool { return false }})
	require.NoError(t, first.Boot(context.Background()))
	require.Equal(t, prefs.ThemeLight, first.Theme())
	_, persisted := store.Get(prefs.KeyTheme)
	require.False(t, persisted, "OS preference is not persisted")

	require.Equal(t, prefs.ThemeDark, first.ToggleTheme())
	require.Equal(t, "dark", attr(first, "html", "data-theme"))

	asked := false
	second := newApp(t, Options{Store: store, PrefersDark: func() bool { asked = true; return false }})
	require.NoError(t, second.Boot(context.Background()))
	require.Equal(t, prefs.ThemeDark, second.Theme())
	require.Equal(t, "dark", attr(second, "html", "data-theme"))
	require.False(t, asked, "persisted theme skips the OS lookup")
}

func TestBootWithoutPostsShowsPlaceholder(t *testing.T) {
	files := siteFS()
	files[content.DataPath("posts", "en")] = &fstest.MapFile{Data: []byte(`[]`)}
	a := newApp(t, Options{Fetcher: fetch.NewFS(files)})
	require.NoError(t, a.Boot(context.Background()))
	require.Equal(t, "No posts available.", text(a, "#app .home-latest-empty"))
}

func TestBootFailureMountsUnavailable(t *testing.T) {
	files := siteFS()
	delete(files, content.DataPath("talks", "en"))
	a := newApp(t, Options{Fetcher: fetch.NewFS(files)})

	err := a.Boot(context.Background())
	require.Error(t, err)
	var loadErr *content.LoadError
	require.True(t, errors.As(err, &loadErr))
	require.Equal(t, []string{content.DataPath("talks", "en")}, loadErr.Paths())
	require.Equal(t, "Content unavailable", text(a, "#app h1"))
}

func TestBootFailureOnMissingDictionary(t *testing.T) {
	files := siteFS()
	delete(files, "i18n/ui.en.json")
	a := newApp(t, Options{Fetcher: fetch.NewFS(files)})
	err := a.Boot(context.Background())
	require.ErrorIs(t, err, fetch.ErrNotFound)
	require.Equal(t, "Content unavailable", text(a, "#app h1"))
}

func TestSupersededRenderIsDiscarded(t *testing.T) {
	files := siteFS()
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	base := fetch.NewFS(files)
	blocking := fetch.Func(func(ctx context.Context, path string) ([]byte, error) {
		if path == "data/posts/b.en.md" {
			once.Do(func() { close(started) })
			<-release
		}
		return base.Fetch(ctx, path)
	})
	a := newApp(t, Options{Fetcher: blocking})
	ctx := context.Background()
	require.NoError(t, a.Boot(ctx))

	done := make(chan error, 1)
	go func() {
		_, err := a.Navigate(ctx, "#/posts/b")
		done <- err
	}()
	<-started

	_, err := a.Navigate(ctx, "#/cv")
	require.NoError(t, err)
	close(release)
	require.NoError(t, <-done)

	require.Equal(t, 2, count(a, "#app .cv-card"))
	require.Zero(t, count(a, "#app .post-page-title"))
	require.Equal(t, "/cv", attr(a, "#mainNav .nav-item.active", "data-route"))
}

func TestNavigateRendersDrawerClosed(t *testing.T) {
	a := newApp(t, Options{})
	ctx := context.Background()
	require.NoError(t, a.Boot(ctx))
	require.NotEmpty(t, attr(a, "#navToggle", "hx-on:click"))
	require.Equal(t, 1, count(a, `script[src="/assets/js/site.js"]`))

	a.Query("#mobileNav", func(s *goquery.Selection) { s.AddClass("open").SetAttr("aria-hidden", "false") })
	a.Query("body", func(s *goquery.Selection) { s.AddClass("nav-open") })
	a.Query("#navToggle", func(s *goquery.Selection) { s.SetAttr("aria-expanded", "true") })

	_, err := a.Navigate(ctx, "#/about")
	require.NoError(t, err)
	require.Zero(t, count(a, "#mobileNav.open"))
	require.Zero(t, count(a, "body.nav-open"))
	require.Equal(t, "true", attr(a, "#mobileNav", "aria-hidden"))
	require.Equal(t, "false", attr(a, "#navToggle", "aria-expanded"))
}

func TestContentFailureKeepsLoadedDictionary(t *testing.T) {
	files := siteFS()
	delete(files, content.DataPath("talks", "it"))
	a := newApp(t, Options{Fetcher: fetch.NewFS(files), AcceptLanguage: "it-IT,it;q=0.9"})

	err := a.Boot(context.Background())
	require.Error(t, err)
	require.Equal(t, "it", attr(a, "html", "lang"))
	require.Equal(t, "Chi sono", text(a, `#mainNav .nav-item[data-route="/about"]`))
	require.Equal(t, "Ada Lovelace IT", text(a, "head title"))
	require.Equal(t, "IT", text(a, "#langBtn .lang-code"))
	require.Equal(t, "Contenuto non disponibile", text(a, "#app h1"))
}

func TestPostIDIsMatchedAsWritten(t *testing.T) {
	files := siteFS()
	files[content.DataPath("posts", "en")] = &fstest.MapFile{Data: []byte(`[{"id":" a ","title":"Spaced","date":"2024-01-02","content":"x"}]`)}
	a := newApp(t, Options{Fetcher: fetch.NewFS(files)})
	ctx := context.Background()
	require.NoError(t, a.Boot(ctx))

	_, err := a.Navigate(ctx, "#/posts/%20a%20")
	require.NoError(t, err)
	require.Equal(t, "Spaced", text(a, "#app .post-page-title"))

	_, err = a.Navigate(ctx, "#/posts/a")
	require.NoError(t, err)
	require.Equal(t, "404", text(a, "#app h1"))
}

func TestNavigationMarkupTracksActiveRoute(t *testing.T) {
	a := newApp(t, Options{Fragment: "#/cv"})
	require.NoError(t, a.Boot(context.Background()))
	navs, err := a.Navigation()
	require.NoError(t, err)
	require.Len(t, navs, 2)
	require.True(t, strings.HasPrefix(navs[0], `<nav id="mainNav"`))
	require.Contains(t, navs[1], `aria-current="page"`)
}
