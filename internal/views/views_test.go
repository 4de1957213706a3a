package views

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"finitefield.org/academic-web/internal/content"
	"finitefield.org/academic-web/internal/dom"
	"finitefield.org/academic-web/internal/fetch"
	"finitefield.org/academic-web/internal/i18n"
)

func parse(t *testing.T, out Output) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(out.Markup)))
	require.NoError(t, err)
	return doc
}

func sampleSnapshot() *content.Snapshot {
	return &content.Snapshot{
		Lang:    "en",
		Profile: content.Profile{Name: "Ada Lovelace", University: "University of Pisa", Room: "304", Email: "ada@example.org"},
		Posts: []content.Post{
			{ID: "a", Title: "Alpha", Date: "2024-01-02", Tags: []string{"go"}, Content: "Hello **world**."},
			{ID: "b", Title: "Beta", Date: "2024-05-01", Tags: []string{"web"}, Image: "assets/b.png"},
			{ID: "c d", Title: "Gamma", Date: "2023-03-03", Tags: []string{"go", "web"}},
		},
		Education: []content.TimelineEntry{
			{Title: "MSc", From: "2018", To: "2023-06"},
			{Title: "PhD", From: "2023", Supervisor: "Prof. X"},
		},
		Publications: []content.Publication{
			{Title: "Graphs", Authors: "A. L.", Venue: "ICML", Year: "2023"},
			{Title: "Trees", Authors: "B. B.", Venue: "NeurIPS", Year: "2024", EventLink: "https://neurips.cc"},
		},
		CV: content.CVDocuments{LastUpdated: "2025-01-10"},
	}
}

func TestHomeShowsLatestPost(t *testing.T) {
	out, err := Home(Context{Lang: "en", Snap: sampleSnapshot()})
	require.NoError(t, err)
	doc := parse(t, out)
	require.Equal(t, "Ada Lovelace", doc.Find(".home-simple-name").Text())
	require.Equal(t, "Beta", doc.Find(".home-latest-posttitle").Text())
	href, _ := doc.Find(".home-latest-card").Attr("href")
	require.Equal(t, "#/posts/b", href)
	require.Contains(t, doc.Find(".home-latest-kicker").Text(), "01 May 2024")
	require.Contains(t, doc.Find(".home-simple-line").Last().Text(), "Room 304")
}

func TestHomeWithoutPostsIsLocalized(t *testing.T) {
	out, err := Home(Context{Lang: "it", Snap: &content.Snapshot{}})
	require.NoError(t, err)
	require.Equal(t, "Nessun post disponibile.", strings.TrimSpace(parse(t, out).Find(".home-latest-empty").Text()))

	out, err = Home(Context{Lang: "en", Snap: &content.Snapshot{}})
	require.NoError(t, err)
	require.Equal(t, "No posts available.", strings.TrimSpace(parse(t, out).Find(".home-latest-empty").Text()))

	dict := i18n.Dict{"home": map[string]any{"noPosts": "Nothing yet"}}
	out, err = Home(Context{Lang: "en", Dict: dict, Snap: &content.Snapshot{}})
	require.NoError(t, err)
	require.Equal(t, "Nothing yet", strings.TrimSpace(parse(t, out).Find(".home-latest-empty").Text()))
}

func TestPostsListAndTagFilter(t *testing.T) {
	c := Context{Lang: "en", Snap: sampleSnapshot()}
	out, err := Posts(c)
	require.NoError(t, err)
	doc := parse(t, out)
	require.Equal(t, 3, doc.Find("#tagSel option").Length(), "all plus two tags")
	require.Equal(t, 3, doc.Find("#postsList article").Length())
	require.Len(t, out.Bindings, 1)
	require.Equal(t, PostListPath, out.Bindings[0].Attrs["hx-get"])

	first := doc.Find("#postsList article").First()
	require.True(t, first.HasClass("post-card--img"))
	require.True(t, first.HasClass("post-card--right"))
	require.True(t, doc.Find("#postsList article").Eq(1).HasClass("post-card--left"))

	list, err := PostList(c, "go")
	require.NoError(t, err)
	ids := []string{}
	parse(t, list).Find("article").Each(func(_ int, s *goquery.Selection) {
		id, _ := s.Attr("data-post-id")
		ids = append(ids, id)
	})
	require.Equal(t, []string{"a", "c d"}, ids)
	href, _ := parse(t, list).Find("article").Last().Find(".post-card-link").Attr("href")
	require.Equal(t, "#/posts/c%20d", href)

	none, err := PostList(c, "Go")
	require.NoError(t, err)
	require.Equal(t, "No posts found.", strings.TrimSpace(parse(t, none).Find(".posts-empty").Text()))
}

func TestPostDetail(t *testing.T) {
	files := fstest.MapFS{
		"data/posts/b.en.md": {Data: []byte("---\ntitle: ignored\n---\nFrom *markdown*.")},
	}
	c := Context{Lang: "en", Snap: sampleSnapshot(), Fetcher: fetch.NewFS(files)}
	ctx := context.Background()

	out, err := PostDetail(ctx, c, "a")
	require.NoError(t, err)
	doc := parse(t, out)
	require.Equal(t, "Alpha", doc.Find(".post-page-title").Text())
	require.Contains(t, doc.Find(".post-page-body").Text(), "Hello world.")

	out, err = PostDetail(ctx, c, "b")
	require.NoError(t, err)
	require.NoError(t, out.Degraded)
	doc = parse(t, out)
	require.Equal(t, "Beta", doc.Find(".post-page-title").Text())
	require.Equal(t, "markdown", doc.Find(".post-page-body em").Text())

	out, err = PostDetail(ctx, c, "c d")
	require.NoError(t, err)
	require.ErrorIs(t, out.Degraded, fetch.ErrNotFound)
	require.Contains(t, parse(t, out).Find(".post-page-body").Text(), "unavailable")

	out, err = PostDetail(ctx, c, "missing")
	require.NoError(t, err)
	require.Equal(t, "404", parse(t, out).Find("h1").Text())
}

func TestExperienceOngoingFirst(t *testing.T) {
	out, err := Experience(Context{Lang: "it", Snap: sampleSnapshot()})
	require.NoError(t, err)
	doc := parse(t, out)
	items := doc.Find("#education .tl-item")
	require.Equal(t, 2, items.Length())
	require.Equal(t, "PhD", items.First().Find("h3").Text())
	require.Equal(t, "in corso", items.First().Find(".tl-ongoing").Text())
	require.Contains(t, items.First().Text(), "Supervisore:")
	require.Equal(t, "MSc", items.Eq(1).Find("h3").Text())
}

func TestPublicationsSearchBindings(t *testing.T) {
	c := Context{Lang: "en", Snap: sampleSnapshot()}
	out, err := Publications(c)
	require.NoError(t, err)
	doc := parse(t, out)
	require.Equal(t, 3, doc.Find("#pubYear option").Length())
	require.Equal(t, "Trees", strings.TrimSpace(strings.TrimPrefix(doc.Find(".pub-title").First().Text(), "Title:")))
	require.Len(t, out.Bindings, 2)
	require.Contains(t, out.Bindings[0].Attrs["hx-trigger"], "delay:180ms")

	list, err := PublicationList(c, "graph", "")
	require.NoError(t, err)
	require.Equal(t, 1, parse(t, list).Find(".pub-item").Length())

	list, err = PublicationList(c, "", "1999")
	require.NoError(t, err)
	require.Equal(t, 1, parse(t, list).Find(".pubs-empty").Length())
}

func TestResearchAndCV(t *testing.T) {
	c := Context{Lang: "en", Snap: sampleSnapshot()}
	out, err := Research(c)
	require.NoError(t, err)
	doc := parse(t, out)
	require.Equal(t, 2, doc.Find("#pubList .pub-item").Length())
	require.Contains(t, doc.Find("#pubList").Text(), "Conference")

	out, err = CV(c)
	require.NoError(t, err)
	doc = parse(t, out)
	require.Equal(t, 2, doc.Find(".cv-card").Length())
	href, _ := doc.Find(".cv-card a[download]").First().Attr("href")
	require.Equal(t, content.DefaultCVIt, href)
	require.Contains(t, doc.Find(".cv-updated").Text(), "10 Jan 2025")
}

func TestPrivacyFallsBackToDictionary(t *testing.T) {
	dict := i18n.Dict{"privacy": map[string]any{"title": "Privacy", "dataTitle": "Data", "dataText": "No tracking."}}
	c := Context{Lang: "en", Dict: dict, Snap: sampleSnapshot(), Fetcher: fetch.NewFS(fstest.MapFS{})}
	out, err := Privacy(context.Background(), c)
	require.NoError(t, err)
	require.Error(t, out.Degraded)
	doc := parse(t, out)
	require.Equal(t, "Data", doc.Find("h2").First().Text())
	require.Contains(t, doc.Text(), "No tracking.")
	require.Equal(t, "ada@example.org", doc.Find("a.btn").Text())

	c.Fetcher = fetch.NewFS(fstest.MapFS{"data/privacy.en.md": {Data: []byte("# Notice\n\nWe keep nothing.")}})
	out, err = Privacy(context.Background(), c)
	require.NoError(t, err)
	require.NoError(t, out.Degraded)
	require.Contains(t, parse(t, out).Text(), "We keep nothing.")
}

func TestUnavailableIsLocalized(t *testing.T) {
	out, err := Unavailable(Context{Lang: "it"})
	require.NoError(t, err)
	require.Equal(t, "Contenuto non disponibile", parse(t, out).Find("h1").Text())
}

func TestShellHasRegionAndNavigation(t *testing.T) {
	markup, err := Shell(Context{Lang: "it"}, "/accademico", []string{"en", "it"})
	require.NoError(t, err)
	doc, err := dom.ParseString(markup)
	require.NoError(t, err)
	require.Equal(t, 1, doc.Find("#app").Length())
	require.Equal(t, 12, doc.Find(".nav-item[data-route]").Length())
	require.Equal(t, "🇮🇹", doc.Find("#langBtn .flag").Text())
	require.True(t, doc.Find(`#langMenu .lang-item[data-lang="it"]`).HasClass("active"))
	require.Equal(t, "it", doc.RootAttr("lang"))
}
