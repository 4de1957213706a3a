package seo

import (
	"encoding/json"

	"finitefield.org/academic-web/internal/content"
)

// JSON marshals v to a compact JSON string. It returns an empty string on error.
// json.Marshal escapes <, > and &, so the result is safe inside a script tag.
func JSON(v any) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// Person returns the schema of the site owner. Social links become sameAs.
func Person(p content.Profile, social []content.SocialLink, url string) map[string]any {
	if p.Name == "" {
		return nil
	}
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "Person",
		"name":     p.Name,
	}
	if url != "" {
		m["url"] = url
	}
	if p.Email != "" {
		m["email"] = "mailto:" + p.Email
	}
	if p.University != "" {
		org := map[string]any{"@type": "CollegeOrUniversity", "name": p.University}
		if p.Department != "" {
			org["department"] = map[string]any{"@type": "Organization", "name": p.Department}
		}
		m["affiliation"] = org
	}
	var same []string
	for _, s := range social {
		if s.Href != "" && !isMailto(s.Href) {
			same = append(same, s.Href)
		}
	}
	if len(same) > 0 {
		m["sameAs"] = same
	}
	return m
}

func isMailto(href string) bool {
	return len(href) >= 7 && (href[:7] == "mailto:" || href[:7] == "MAILTO:")
}

// WebSite returns a minimal WebSite schema.
func WebSite(name, url, lang string) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     name,
	}
	if url != "" {
		m["url"] = url
	}
	if lang != "" {
		m["inLanguage"] = lang
	}
	return m
}

// BreadcrumbItem maps name and item URL.
type BreadcrumbItem struct {
	Name string
	Item string
}

// BreadcrumbList builds schema.org BreadcrumbList.
func BreadcrumbList(items []BreadcrumbItem) map[string]any {
	el := make([]map[string]any, 0, len(items))
	for i, it := range items {
		el = append(el, map[string]any{
			"@type":    "ListItem",
			"position": i + 1,
			"name":     it.Name,
			"item":     it.Item,
		})
	}
	return map[string]any{
		"@context":        "https://schema.org",
		"@type":           "BreadcrumbList",
		"itemListElement": el,
	}
}

// BlogPosting returns the schema of one post.
func BlogPosting(p content.Post, url, imageURL, authorName, lang string) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "BlogPosting",
		"headline": p.Title,
	}
	if url != "" {
		m["url"] = url
	}
	if imageURL != "" {
		m["image"] = imageURL
	}
	if authorName != "" {
		m["author"] = map[string]any{"@type": "Person", "name": authorName}
	}
	if p.Date != "" {
		m["datePublished"] = p.Date
	}
	if p.Abstract != "" {
		m["abstract"] = p.Abstract
	}
	if len(p.Tags) > 0 {
		m["keywords"] = p.Tags
	}
	if lang != "" {
		m["inLanguage"] = lang
	}
	return m
}
