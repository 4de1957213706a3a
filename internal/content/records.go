package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Scalar is a JSON value that may be written either as a string or as a
// number, such as post ids and publication years. Strings are kept as
// written; lookups compare them byte for byte.
type Scalar string

func (s *Scalar) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = Scalar(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("scalar: expected string or number, got %s", b)
	}
	*s = Scalar(n.String())
	return nil
}

func (s Scalar) String() string { return string(s) }

// Int parses the value as an integer; ok is false when it is empty or not numeric.
func (s Scalar) Int() (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(string(s)))
	if err != nil {
		return 0, false
	}
	return n, true
}

type Profile struct {
	Name       string `json:"name"`
	University string `json:"university"`
	Department string `json:"department"`
	Email      string `json:"email"`
	Room       string `json:"room"`
}

type HomeText struct {
	Intro string `json:"intro"`
}

// AboutMe carries either inline text or a reference to a Markdown document.
type AboutMe struct {
	Text string `json:"text"`
	File string `json:"file"`
}

type Post struct {
	ID          Scalar   `json:"id"`
	Title       string   `json:"title"`
	Date        string   `json:"date"`
	Abstract    string   `json:"abstract"`
	Content     string   `json:"content"`
	ContentFile string   `json:"contentFile"`
	Tags        []string `json:"tags"`
	Image       string   `json:"image"`
	ImageSide   string   `json:"imageSide"`
}

// HasTag reports whether the post carries tag exactly.
func (p Post) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// TimelineEntry is an education or experience record.
type TimelineEntry struct {
	Title          string   `json:"title"`
	Institution    string   `json:"institution"`
	Company        string   `json:"company"`
	City           string   `json:"city"`
	From           string   `json:"from"`
	To             string   `json:"to"`
	FinalGrade     string   `json:"finalGrade"`
	Topic          string   `json:"topic"`
	Thesis         string   `json:"thesis"`
	Supervisor     string   `json:"supervisor"`
	Opponent       string   `json:"opponent"`
	Specialization []string `json:"specialization"`
}

// Ongoing reports whether the entry has no end date.
func (e TimelineEntry) Ongoing() bool { return strings.TrimSpace(e.To) == "" }

// Organisation returns the company, or the institution when there is none.
func (e TimelineEntry) Organisation() string {
	if e.Company != "" {
		return e.Company
	}
	return e.Institution
}

type Publication struct {
	Title     string   `json:"title"`
	Authors   string   `json:"authors"`
	Venue     string   `json:"venue"`
	Year      Scalar   `json:"year"`
	Event     string   `json:"event"`
	City      string   `json:"city"`
	Country   string   `json:"country"`
	Date      string   `json:"date"`
	Type      string   `json:"type"`
	Desc      string   `json:"desc"`
	Keywords  []string `json:"keywords"`
	EventLink string   `json:"eventLink"`
	Arxiv     string   `json:"arxiv"`
	Code      string   `json:"code"`
	ShortPDF  string   `json:"shortPdf"`
	PosterPDF string   `json:"posterPdf"`
	PDF       string   `json:"pdf"`
	DOI       string   `json:"doi"`
}

type Talk struct {
	Event       string `json:"event"`
	Institution string `json:"institution"`
	Venue       string `json:"venue"`
	City        string `json:"city"`
	Country     string `json:"country"`
	Date        string `json:"date"`
	Role        string `json:"role"`
	Type        string `json:"type"`
	TalkTitle   string `json:"talkTitle"`
	Subtitle    string `json:"subtitle"`
	Link        string `json:"link"`
	Poster      string `json:"poster"`
}

type Project struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Repo        string   `json:"repo"`
	Topics      []string `json:"topics"`
	Languages   []string `json:"languages"`
}

type SocialLink struct {
	Label  string `json:"label"`
	Href   string `json:"href"`
	Icon   string `json:"icon"`
	NewTab bool   `json:"newTab"`
}

// CVDocuments points at the two curriculum PDFs.
type CVDocuments struct {
	It          string `json:"it"`
	En          string `json:"en"`
	LastUpdated string `json:"lastUpdated"`
}

const (
	DefaultCVIt = "assets/cv-it.pdf"
	DefaultCVEn = "assets/cv-en.pdf"
)

// WithDefaults fills in the default document paths.
func (c CVDocuments) WithDefaults() CVDocuments {
	if strings.TrimSpace(c.It) == "" {
		c.It = DefaultCVIt
	}
	if strings.TrimSpace(c.En) == "" {
		c.En = DefaultCVEn
	}
	return c
}
