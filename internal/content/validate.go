package content

import (
	"fmt"
	"strings"
)

// Issue describes a record that failed validation.
type Issue struct {
	Document string
	Index    int
	Reason   string
}

func (i Issue) String() string {
	if i.Index < 0 {
		return fmt.Sprintf("%s: %s", i.Document, i.Reason)
	}
	return fmt.Sprintf("%s[%d]: %s", i.Document, i.Index, i.Reason)
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

// validate drops records missing required fields and records why.
func validate(s *Snapshot) {
	var issues []Issue
	report := func(doc string, idx int, reason string) {
		issues = append(issues, Issue{Document: doc, Index: idx, Reason: reason})
	}

	if blank(s.Profile.Name) {
		report("profile", -1, "missing name")
	}

	seen := map[Scalar]struct{}{}
	posts := s.Posts[:0:0]
	for i, p := range s.Posts {
		switch {
		case blank(string(p.ID)):
			report("posts", i, "missing id")
		case blank(p.Title):
			report("posts", i, "missing title")
		default:
			if _, dup := seen[p.ID]; dup {
				report("posts", i, fmt.Sprintf("duplicate id %q", p.ID))
				continue
			}
			seen[p.ID] = struct{}{}
			posts = append(posts, p)
		}
	}
	s.Posts = posts

	s.Education = keepTimeline("education", s.Education, report)
	s.Experience = keepTimeline("experience", s.Experience, report)

	pubs := s.Publications[:0:0]
	for i, p := range s.Publications {
		if blank(p.Title) {
			report("publications", i, "missing title")
			continue
		}
		pubs = append(pubs, p)
	}
	s.Publications = pubs

	talks := s.Talks[:0:0]
	for i, t := range s.Talks {
		if blank(t.Event) {
			report("talks", i, "missing event")
			continue
		}
		talks = append(talks, t)
	}
	s.Talks = talks

	projects := s.Projects[:0:0]
	for i, p := range s.Projects {
		if blank(p.Title) {
			report("projects", i, "missing title")
			continue
		}
		projects = append(projects, p)
	}
	s.Projects = projects

	topics := s.Topics[:0:0]
	for i, t := range s.Topics {
		if blank(t) {
			report("topics", i, "empty topic")
			continue
		}
		topics = append(topics, t)
	}
	s.Topics = topics

	social := s.Social[:0:0]
	for i, l := range s.Social {
		if blank(l.Href) {
			report("social", i, "missing href")
			continue
		}
		social = append(social, l)
	}
	s.Social = social

	s.CV = s.CV.WithDefaults()
	s.Issues = issues
}

func keepTimeline(doc string, entries []TimelineEntry, report func(string, int, string)) []TimelineEntry {
	out := entries[:0:0]
	for i, e := range entries {
		switch {
		case blank(e.Title):
			report(doc, i, "missing title")
		case blank(e.From):
			report(doc, i, "missing from")
		default:
			out = append(out, e)
		}
	}
	return out
}
