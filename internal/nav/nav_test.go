package nav

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildMarksCollapsedPathActive(t *testing.T) {
	items := Build(Main("/accademico"), "/posts", func(key, fallback string) string {
		if key == "nav.posts" {
			return "Articoli"
		}
		return fallback
	})
	require.Len(t, items, 6)

	var active []string
	for _, it := range items {
		if it.Active {
			active = append(active, it.Route)
		}
	}
	require.Equal(t, []string{"/posts"}, active)
	require.Equal(t, "#/posts", items[2].Href)
	require.Equal(t, "Articoli", items[2].Label)
	require.Equal(t, "About", items[1].Label)
	require.Equal(t, "#/accademico", items[0].Href)
}

func TestBuildNothingActiveOnUnknownPath(t *testing.T) {
	for _, it := range Build(Main("/home"), "/nope", nil) {
		require.False(t, it.Active)
	}
}
