package views

import (
	"strings"

	"finitefield.org/academic-web/internal/nav"
)

// LanguageOption is an entry of the language menu.
type LanguageOption struct {
	Lang   string
	Flag   string
	Code   string
	Active bool
}

var flags = map[string]string{
	"en": "🇬🇧",
	"it": "🇮🇹",
}

// Language describes lang for the language button.
func Language(lang string) LanguageOption {
	lang = strings.ToLower(lang)
	flag, ok := flags[lang]
	if !ok {
		flag = "🌐"
	}
	return LanguageOption{Lang: lang, Flag: flag, Code: strings.ToUpper(lang)}
}

// Languages builds the language menu with current marked active.
func Languages(supported []string, current string) []LanguageOption {
	out := make([]LanguageOption, 0, len(supported))
	for _, l := range supported {
		opt := Language(l)
		opt.Active = opt.Lang == current
		out = append(out, opt)
	}
	return out
}

// ShellData is the page frame around the content region.
type ShellData struct {
	Title     string
	Landing   string
	Nav       []nav.RenderedItem
	Languages []LanguageOption
	Current   LanguageOption
}

// Shell renders the full page with an empty content region.
func Shell(c Context, landing string, supported []string) (string, error) {
	data := ShellData{
		Title:     c.Dict.Text("site.title", "Academic website"),
		Landing:   landing,
		Nav:       nav.Build(nav.Main(landing), "", c.Dict.Text),
		Languages: Languages(supported, c.Lang),
		Current:   Language(c.Lang),
	}
	out, err := c.execute("shell", data)
	return string(out), err
}
