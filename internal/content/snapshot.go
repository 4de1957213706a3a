package content

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Snapshot is the content of the site in one language. It is built once per
// load and never mutated afterwards.
type Snapshot struct {
	Lang     string
	LoadedAt time.Time

	Profile      Profile
	Home         HomeText
	AboutMe      AboutMe
	Posts        []Post
	Education    []TimelineEntry
	Experience   []TimelineEntry
	Publications []Publication
	Topics       []string
	Talks        []Talk
	Projects     []Project
	Social       []SocialLink
	CV           CVDocuments

	// Issues lists records dropped or flagged during validation.
	Issues []Issue
}

// Post returns the post whose id equals id.
func (s *Snapshot) Post(id string) (Post, bool) {
	if s == nil {
		return Post{}, false
	}
	for _, p := range s.Posts {
		if string(p.ID) == id {
			return p, true
		}
	}
	return Post{}, false
}

// HasPost reports whether a post with id exists.
func (s *Snapshot) HasPost(id string) bool {
	_, ok := s.Post(id)
	return ok
}

// SortPostsByDate returns a copy of posts ordered by date, newest first.
// ISO dates compare lexically; posts without a date come last.
func SortPostsByDate(posts []Post) []Post {
	out := append([]Post(nil), posts...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date > out[j].Date
	})
	return out
}

// OngoingSentinel orders entries without an end date ahead of any dated one.
const OngoingSentinel = "9999"

func timelineKey(e TimelineEntry) string {
	if e.Ongoing() {
		return OngoingSentinel
	}
	return e.To
}

// SortTimeline returns a copy of entries ordered by end date, most recent
// first, with ongoing entries at the top.
func SortTimeline(entries []TimelineEntry) []TimelineEntry {
	out := append([]TimelineEntry(nil), entries...)
	sort.SliceStable(out, func(i, j int) bool {
		return timelineKey(out[i]) > timelineKey(out[j])
	})
	return out
}

// SortPublications returns a copy of pubs ordered by year, newest first.
// Publications without a numeric year come last.
func SortPublications(pubs []Publication) []Publication {
	out := append([]Publication(nil), pubs...)
	sort.SliceStable(out, func(i, j int) bool {
		yi, _ := out[i].Year.Int()
		yj, _ := out[j].Year.Int()
		return yi > yj
	})
	return out
}

// PostsWithTag keeps the posts carrying tag exactly. An empty tag keeps all.
func PostsWithTag(posts []Post, tag string) []Post {
	if tag == "" {
		return append([]Post(nil), posts...)
	}
	out := make([]Post, 0, len(posts))
	for _, p := range posts {
		if p.HasTag(tag) {
			out = append(out, p)
		}
	}
	return out
}

// AllTags returns the distinct tags of posts in sorted order.
func AllTags(posts []Post) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, p := range posts {
		for _, t := range p.Tags {
			if _, ok := seen[t]; ok || t == "" {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}

// FilterPublications matches query case-insensitively against title, authors
// and venue, and year exactly against the publication year. Empty arguments
// match everything.
func FilterPublications(pubs []Publication, query, year string) []Publication {
	q := strings.ToLower(strings.TrimSpace(query))
	year = strings.TrimSpace(year)
	out := make([]Publication, 0, len(pubs))
	for _, p := range pubs {
		if year != "" && p.Year.String() != year {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(p.Title), q) &&
			!strings.Contains(strings.ToLower(p.Authors), q) &&
			!strings.Contains(strings.ToLower(p.Venue), q) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// PublicationYears returns the distinct years, newest first.
func PublicationYears(pubs []Publication) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, p := range pubs {
		y := p.Year.String()
		if y == "" {
			continue
		}
		if _, ok := seen[y]; ok {
			continue
		}
		seen[y] = struct{}{}
		out = append(out, y)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, errA := strconv.Atoi(out[i])
		b, errB := strconv.Atoi(out[j])
		if errA != nil || errB != nil {
			return out[i] > out[j]
		}
		return a > b
	})
	return out
}
