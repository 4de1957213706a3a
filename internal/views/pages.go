package views

import (
	"context"
	"fmt"
	"html/template"
	"strings"

	"finitefield.org/academic-web/internal/content"
	"finitefield.org/academic-web/internal/dom"
	"finitefield.org/academic-web/internal/router"
)

// Fragment endpoints the interactive views bind to.
const (
	PostListPath        = "/view/posts/list"
	PublicationListPath = "/view/publications/list"
	// SearchDelay is the quiet interval of the publication search box.
	SearchDelay = "180ms"
)

type homeModel struct {
	Name    string
	Line1   string
	Line2   string
	Social  []content.SocialLink
	Latest  *content.Post
	Title   string
	Kicker  string
	NoPosts string
}

// Home renders the landing page: avatar, name, two profile lines, social
// icons and the most recent post.
func Home(c Context) (Output, error) {
	s := c.snapshot()
	m := homeModel{
		Name:    s.Profile.Name,
		Social:  s.Social,
		Title:   c.Label("home.latestTitle", "Latest posts", "Ultimi post"),
		Kicker:  c.Label("home.latestLabel", "Latest post", "Ultimo post"),
		NoPosts: c.Label("home.noPosts", "No posts available.", "Nessun post disponibile."),
	}
	m.Line1 = c.Label("home.role", "👨🏻‍🎓 PhD Student in Computer Science at", "👨🏻‍🎓 Dottorando in Informatica presso") +
		" " + orDefault(s.Profile.University, c.Pick("University of Pisa", "Università di Pisa"))
	dept := orDefault(s.Profile.Department, c.Pick("Department of Computer Science", "Dipartimento di Informatica"))
	if s.Profile.Room != "" {
		m.Line2 = "📌 " + c.Pick("Room", "Stanza") + " " + s.Profile.Room + ", " + dept
	} else {
		m.Line2 = "📌 " + dept
	}
	if posts := content.SortPostsByDate(s.Posts); len(posts) > 0 {
		m.Latest = &posts[0]
	}
	markup, err := c.execute("home", m)
	return Output{Markup: markup}, err
}

type aboutModel struct {
	Header pageHeader
	Name   string
	Body   template.HTML
}

// About renders the about page from inline text or, when the record names
// one, from a Markdown file fetched now.
func About(ctx context.Context, c Context) (Output, error) {
	s := c.snapshot()
	m := aboutModel{
		Header: pageHeader{Title: c.Label("aboutPage.title", "About me", "Chi sono"), Intro: c.Dict.Text("aboutPage.intro", "")},
		Name:   s.Profile.Name,
	}
	var degraded error
	if file := strings.TrimSpace(s.AboutMe.File); file != "" {
		doc, err := c.fetchMarkdown(ctx, file)
		if err != nil {
			degraded = fmt.Errorf("about body: %w", err)
			m.Body = unavailableParagraph(c)
		} else {
			m.Body = doc.Body
		}
	} else {
		body, err := c.richText(s.AboutMe.Text)
		if err != nil {
			return Output{}, err
		}
		m.Body = body
	}
	markup, err := c.execute("about", m)
	return Output{Markup: markup, Degraded: degraded}, err
}

type postCard struct {
	content.Post
	Href   string
	HasImg bool
	Side   string
}

type postsModel struct {
	Header      pageHeader
	FilterLabel string
	AllLabel    string
	Tags        []string
	List        template.HTML
}

type postListModel struct {
	Cards []postCard
	Empty string
}

// Posts renders the post index with its tag filter.
func Posts(c Context) (Output, error) {
	s := c.snapshot()
	list, err := PostList(c, "")
	if err != nil {
		return Output{}, err
	}
	m := postsModel{
		Header:      pageHeader{Title: c.Dict.Text("postsPage.title", "Posts"), Intro: c.Dict.Text("postsPage.intro", "")},
		FilterLabel: c.Label("postsPage.filterByTag", "Filter by tag", "Filtra per tag"),
		AllLabel:    c.Label("postsPage.allTags", "All", "Tutti"),
		Tags:        content.AllTags(s.Posts),
		List:        list.Markup,
	}
	markup, err := c.execute("posts", m)
	if err != nil {
		return Output{}, err
	}
	return Output{Markup: markup, Bindings: []dom.Binding{{
		Selector: "#tagSel",
		Attrs: map[string]string{
			"hx-get":     PostListPath,
			"hx-trigger": "change",
			"hx-target":  "#postsList",
			"hx-swap":    "innerHTML",
		},
	}}}, nil
}

// PostList renders the list of posts carrying tag, newest first. An empty
// tag lists every post.
func PostList(c Context, tag string) (Output, error) {
	s := c.snapshot()
	posts := content.PostsWithTag(content.SortPostsByDate(s.Posts), tag)
	m := postListModel{Empty: c.Label("postsPage.noItems", "No posts found.", "Nessun post trovato.")}
	for i, p := range posts {
		side := p.ImageSide
		if side != "left" && side != "right" {
			side = "left"
			if i%2 == 0 {
				side = "right"
			}
		}
		m.Cards = append(m.Cards, postCard{Post: p, Href: detailHref(p), HasImg: p.Image != "", Side: side})
	}
	markup, err := c.execute("post_list", m)
	return Output{Markup: markup}, err
}

func detailHref(p content.Post) string {
	return router.DetailHref("posts", string(p.ID))
}

type postModel struct {
	content.Post
	Body template.HTML
}

// PostBodyPath is where a post's Markdown body lives when the record does
// not name a file.
func PostBodyPath(id, lang string) string {
	return "data/posts/" + id + "." + lang + ".md"
}

// PostDetail renders one post. An unknown id renders the not-found view.
// Posts without inline content have their Markdown body fetched now.
func PostDetail(ctx context.Context, c Context, id string) (Output, error) {
	s := c.snapshot()
	p, ok := s.Post(id)
	if !ok {
		return NotFound(c)
	}
	m := postModel{Post: p}
	var degraded error
	if strings.TrimSpace(p.Content) != "" {
		body, err := c.richText(p.Content)
		if err != nil {
			return Output{}, err
		}
		m.Body = body
	} else {
		path := strings.TrimSpace(p.ContentFile)
		if path == "" {
			path = PostBodyPath(id, c.Lang)
		}
		doc, err := c.fetchMarkdown(ctx, path)
		if err != nil {
			degraded = fmt.Errorf("post %s body: %w", id, err)
			m.Body = unavailableParagraph(c)
		} else {
			m.Body = doc.Body
			if m.Title == "" {
				m.Title = doc.Title
			}
			if m.Date == "" {
				m.Date = doc.Date
			}
			if len(m.Tags) == 0 {
				m.Tags = doc.Tags
			}
		}
	}
	markup, err := c.execute("post", m)
	return Output{Markup: markup, Degraded: degraded}, err
}

type researchModel struct {
	Header           pageHeader
	PubsTitle        string
	TalksTitle       string
	ProjectsTitle    string
	TopicsTitle      string
	Publications     template.HTML
	PublicationsHref string
	Talks            []content.Talk
	TalksEmpty       string
	Topics           []string
	Projects         []content.Project
	ProjectsEmpty    string
}

// Research renders publications, talks, topics and projects.
func Research(c Context) (Output, error) {
	s := c.snapshot()
	pubs, err := PublicationList(c, "", "")
	if err != nil {
		return Output{}, err
	}
	m := researchModel{
		Header:           pageHeader{Title: c.Label("research.title", "Research", "Ricerca"), Intro: c.Dict.Text("research.intro", "")},
		PubsTitle:        c.Dict.Text("research.sections.publications", "Publications"),
		TalksTitle:       c.Dict.Text("research.sections.talks", "Talks"),
		ProjectsTitle:    c.Dict.Text("research.sections.projects", "Projects"),
		TopicsTitle:      c.Dict.Text("research.sections.topics", "Research topics"),
		Publications:     pubs.Markup,
		PublicationsHref: "#/research/publications",
		Talks:            s.Talks,
		TalksEmpty:       c.Dict.Text("talks.noItems", ""),
		Topics:           s.Topics,
		Projects:         s.Projects,
		ProjectsEmpty:    c.Dict.Text("projects.noItems", ""),
	}
	markup, err := c.execute("research", m)
	return Output{Markup: markup}, err
}

type publicationsModel struct {
	Title       string
	Back        string
	Placeholder string
	AllYears    string
	Years       []string
	List        template.HTML
}

// Publications renders the searchable publication list.
func Publications(c Context) (Output, error) {
	s := c.snapshot()
	list, err := PublicationList(c, "", "")
	if err != nil {
		return Output{}, err
	}
	m := publicationsModel{
		Title:       c.Label("section.publications", "Publications", "Pubblicazioni"),
		Back:        c.Label("action.back", "Back", "Indietro"),
		Placeholder: c.Label("publications.searchPlaceholder", "Search title, authors, venue", "Cerca titolo, autori, sede"),
		AllYears:    c.Label("publications.allYears", "All years", "Tutti gli anni"),
		Years:       content.PublicationYears(s.Publications),
		List:        list.Markup,
	}
	markup, err := c.execute("publications", m)
	if err != nil {
		return Output{}, err
	}
	return Output{Markup: markup, Bindings: []dom.Binding{
		{Selector: "#pubQ", Attrs: map[string]string{
			"hx-get":     PublicationListPath,
			"hx-trigger": "input changed delay:" + SearchDelay + ", search",
			"hx-target":  "#pubList",
			"hx-include": "#pubYear",
		}},
		{Selector: "#pubYear", Attrs: map[string]string{
			"hx-get":     PublicationListPath,
			"hx-trigger": "change",
			"hx-target":  "#pubList",
			"hx-include": "#pubQ",
		}},
	}}, nil
}

type publicationListModel struct {
	Items []content.Publication
	Empty string
}

// PublicationList renders publications matching query and year, newest first.
func PublicationList(c Context, query, year string) (Output, error) {
	s := c.snapshot()
	items := content.FilterPublications(content.SortPublications(s.Publications), query, year)
	m := publicationListModel{Items: items, Empty: c.Label("publications.noItems", "No publications found.", "Nessuna pubblicazione trovata.")}
	markup, err := c.execute("publication_list", m)
	return Output{Markup: markup}, err
}

type timelineModel struct {
	Header         pageHeader
	EducationTitle string
	ExpTitle       string
	Education      []content.TimelineEntry
	Experience     []content.TimelineEntry
	Ongoing        string
}

// Experience renders the education and experience timelines, most recent
// first with ongoing entries on top.
func Experience(c Context) (Output, error) {
	s := c.snapshot()
	title := c.Dict.Text("experiencePage.title", c.Dict.Text("section.education", "Education & Experience"))
	m := timelineModel{
		Header:         pageHeader{Title: title, Intro: c.Dict.Text("experiencePage.intro", "")},
		EducationTitle: c.Dict.Text("experiencePage.educationTitle", "Education"),
		ExpTitle:       c.Dict.Text("experiencePage.experienceTitle", "Experience"),
		Education:      content.SortTimeline(s.Education),
		Experience:     content.SortTimeline(s.Experience),
		Ongoing:        c.Label("labels.ongoing", "ongoing", "in corso"),
	}
	markup, err := c.execute("experience", m)
	return Output{Markup: markup}, err
}

type cvDoc struct {
	Label string
	Href  string
}

type cvModel struct {
	Header      pageHeader
	Docs        []cvDoc
	Open        string
	Download    string
	LastUpdated string
}

// CV renders the two curriculum documents with open and download links.
func CV(c Context) (Output, error) {
	cv := c.snapshot().CV.WithDefaults()
	m := cvModel{
		Header: pageHeader{Title: "Curriculum Vitae", Intro: c.Dict.Text("cv.intro", "")},
		Docs: []cvDoc{
			{Label: c.Dict.Text("cv.itLabel", "Italian CV"), Href: cv.It},
			{Label: c.Dict.Text("cv.enLabel", "English CV"), Href: cv.En},
		},
		Open:        c.Dict.Text("actions.openNewTab", "Open in a new tab"),
		Download:    c.Dict.Text("actions.downloadPdf", "Download PDF"),
		LastUpdated: cv.LastUpdated,
	}
	markup, err := c.execute("cv", m)
	return Output{Markup: markup}, err
}

type privacySection struct {
	Title string
	Text  string
}

type privacyModel struct {
	Title    string
	Intro    string
	Body     template.HTML
	Sections []privacySection
	Email    string
}

// PrivacyPath is the Markdown privacy notice for lang.
func PrivacyPath(lang string) string {
	return "data/privacy." + lang + ".md"
}

// Privacy renders the Markdown privacy notice, falling back to the
// dictionary's privacy sections when the document cannot be fetched.
func Privacy(ctx context.Context, c Context) (Output, error) {
	m := privacyModel{
		Title: c.Dict.Text("privacy.title", "Privacy"),
		Email: c.snapshot().Profile.Email,
	}
	var degraded error
	doc, err := c.fetchMarkdown(ctx, PrivacyPath(c.Lang))
	if err == nil {
		m.Body = doc.Body
		if doc.Title != "" {
			m.Title = doc.Title
		}
	} else {
		degraded = fmt.Errorf("privacy body: %w", err)
		m.Intro = c.Dict.Text("privacy.intro", "")
		for _, k := range []string{"data", "links", "contact"} {
			m.Sections = append(m.Sections, privacySection{
				Title: c.Dict.Text("privacy."+k+"Title", ""),
				Text:  c.Dict.Text("privacy."+k+"Text", ""),
			})
		}
	}
	markup, err := c.execute("privacy", m)
	return Output{Markup: markup, Degraded: degraded}, err
}

type statusModel struct {
	Title string
	Text  string
}

// NotFound renders the not-found view.
func NotFound(c Context) (Output, error) {
	markup, err := c.execute("status", statusModel{
		Title: c.Dict.Text("errors.notFoundTitle", "404"),
		Text:  c.Label("errors.notFoundText", "Page not found.", "Pagina non trovata."),
	})
	return Output{Markup: markup}, err
}

// Unavailable renders the visible fallback shown when content cannot be loaded.
func Unavailable(c Context) (Output, error) {
	markup, err := c.execute("status", statusModel{
		Title: c.Label("errors.unavailableTitle", "Content unavailable", "Contenuto non disponibile"),
		Text:  c.Label("errors.unavailableText", "The content could not be loaded. Please try again later.", "Non è stato possibile caricare i contenuti. Riprova più tardi."),
	})
	return Output{Markup: markup}, err
}

func unavailableParagraph(c Context) template.HTML {
	text := c.Label("errors.bodyUnavailable", "This content is currently unavailable.", "Questo contenuto non è al momento disponibile.")
	return template.HTML(`<p class="pub-meta">` + template.HTMLEscapeString(text) + `</p>`)
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
