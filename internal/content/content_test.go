package content

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"finitefield.org/academic-web/internal/fetch"
)

func siteFS(lang string) fstest.MapFS {
	files := fstest.MapFS{
		"data/social.json": {Data: []byte(`[{"label":"GitHub","href":"https://github.com/x","icon":"github.svg","newTab":true},{"label":"broken"}]`)},
		"data/cv.json":     {Data: []byte(`{"lastUpdated":"2025-01-10"}`)},
	}
	docs := map[string]string{
		"profile":      `{"name":"Ada Lovelace","university":"University of Pisa"}`,
		"home":         `{"intro":"hello"}`,
		"about_me":     `{"text":"first\n\nsecond"}`,
		"posts":        `[{"id":"a","title":"A","date":"2024-01-02","tags":["go","web"]},{"id":7,"title":"Seven","date":"2024-05-01","tags":["Go"]},{"id":"b","title":"B"},{"title":"no id"}]`,
		"education":    `[{"title":"BSc","from":"2015","to":"2018"},{"title":"PhD","from":"2023"},{"title":"MSc","from":"2018","to":"2023-06"}]`,
		"experience":   `[{"title":"Intern","company":"Acme","from":"2022-01","to":"2022-06"},{"title":"","from":"2020"}]`,
		"publications": `[{"title":"Graphs","authors":"A. L.","venue":"ICML","year":2023},{"title":"Trees","authors":"B. B.","venue":"NeurIPS","year":"2024"},{"title":"Notes","venue":"arXiv"}]`,
		"topics":       `["ml","",  "graphs"]`,
		"talks":        `[{"event":"Workshop","city":"Pisa","country":"Italy"}]`,
		"projects":     `[{"title":"tool","repo":"https://github.com/x/tool","languages":["Go"]}]`,
	}
	for name, body := range docs {
		files[DataPath(name, lang)] = &fstest.MapFile{Data: []byte(body)}
	}
	return files
}

func TestLoadBuildsValidatedSnapshot(t *testing.T) {
	l := NewLoader(fetch.NewFS(siteFS("en")))
	snap, err := l.Load(context.Background(), "en")
	require.NoError(t, err)

	require.Equal(t, "en", snap.Lang)
	require.Equal(t, "Ada Lovelace", snap.Profile.Name)
	require.Len(t, snap.Posts, 3, "post without id is dropped")
	p, ok := snap.Post("7")
	require.True(t, ok, "numeric ids compare as strings")
	require.Equal(t, "Seven", p.Title)
	require.False(t, snap.HasPost("missing"))

	require.Len(t, snap.Experience, 1)
	require.Equal(t, []string{"ml", "graphs"}, snap.Topics)
	require.Len(t, snap.Social, 1)
	require.Equal(t, DefaultCVIt, snap.CV.It)
	require.Equal(t, DefaultCVEn, snap.CV.En)
	require.Equal(t, "2025-01-10", snap.CV.LastUpdated)
	require.NotEmpty(t, snap.Issues)
}

func TestLoadFailsWholeAndReportsEveryPath(t *testing.T) {
	files := siteFS("en")
	delete(files, DataPath("talks", "en"))
	delete(files, SharedPath("cv"))
	files[DataPath("topics", "en")] = &fstest.MapFile{Data: []byte(`{not json`)}

	l := NewLoader(fetch.NewFS(files))
	snap, err := l.Load(context.Background(), "en")
	require.Nil(t, snap)

	var lerr *LoadError
	require.True(t, errors.As(err, &lerr))
	require.Equal(t, []string{"data/cv.json", "data/talks.en.json", "data/topics.en.json"}, lerr.Paths())
	require.ErrorIs(t, err, fetch.ErrNotFound)
}

func TestLoadUnknownLanguageFails(t *testing.T) {
	l := NewLoader(fetch.NewFS(siteFS("en")))
	_, err := l.Load(context.Background(), "fr")
	var lerr *LoadError
	require.ErrorAs(t, err, &lerr)
	require.Len(t, lerr.Failures, 10, "every language-dependent document is reported")
}

func TestSortingIsIdempotent(t *testing.T) {
	posts := []Post{{ID: "x", Date: "2023-01-01"}, {ID: "y"}, {ID: "z", Date: "2024-03-01"}}
	once := SortPostsByDate(posts)
	require.Equal(t, once, SortPostsByDate(once))
	require.Equal(t, Scalar("z"), once[0].ID)
	require.Equal(t, Scalar("y"), once[2].ID, "missing dates sort as oldest")
	require.Equal(t, Scalar("x"), posts[0].ID, "input is not mutated")

	pubs := []Publication{{Title: "a"}, {Title: "b", Year: "2021"}, {Title: "c", Year: "2024"}}
	sorted := SortPublications(pubs)
	require.Equal(t, sorted, SortPublications(sorted))
	require.Equal(t, "c", sorted[0].Title)
	require.Equal(t, "a", sorted[2].Title)
}

func TestSortTimelinePutsOngoingFirst(t *testing.T) {
	entries := []TimelineEntry{
		{Title: "MSc", From: "2018", To: "2023-06"},
		{Title: "PhD", From: "2023"},
		{Title: "BSc", From: "2015", To: "2018"},
	}
	sorted := SortTimeline(entries)
	require.Equal(t, "PhD", sorted[0].Title)
	require.True(t, sorted[0].Ongoing())
	require.Equal(t, "MSc", sorted[1].Title)
	require.Equal(t, sorted, SortTimeline(sorted))
}

func TestPostsWithTagIsExact(t *testing.T) {
	posts := []Post{
		{ID: "1", Tags: []string{"go", "web"}},
		{ID: "2", Tags: []string{"Go"}},
		{ID: "3"},
	}
	got := PostsWithTag(posts, "go")
	require.Len(t, got, 1)
	require.Equal(t, Scalar("1"), got[0].ID)
	require.Len(t, PostsWithTag(posts, ""), 3)
	require.Equal(t, []string{"Go", "go", "web"}, AllTags(posts))
}

func TestFilterPublications(t *testing.T) {
	pubs := []Publication{
		{Title: "Graph Networks", Authors: "Lovelace", Venue: "ICML", Year: "2023"},
		{Title: "Trees", Authors: "Babbage", Venue: "NeurIPS", Year: "2024"},
	}
	require.Len(t, FilterPublications(pubs, "graph", ""), 1)
	require.Len(t, FilterPublications(pubs, "NEURIPS", ""), 1)
	require.Len(t, FilterPublications(pubs, "", "2023"), 1)
	require.Empty(t, FilterPublications(pubs, "trees", "2023"))
	require.Len(t, FilterPublications(pubs, "", ""), 2)
	require.Equal(t, []string{"2024", "2023"}, PublicationYears(pubs))
}

func TestPostIDsCompareAsWritten(t *testing.T) {
	var posts []Post
	require.NoError(t, json.Unmarshal([]byte(`[{"id":" a ","title":"Spaced"},{"id":7,"title":"Seven"}]`), &posts))
	snap := &Snapshot{Posts: posts}

	p, ok := snap.Post(" a ")
	require.True(t, ok)
	require.Equal(t, "Spaced", p.Title)
	require.False(t, snap.HasPost("a"))
	require.True(t, snap.HasPost("7"))
}
