package textutil

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DisplayArtist collapses whitespace and title-cases an artist name for
// notifications and mail subjects.
func DisplayArtist(artist string) string {
	artist = strings.Join(strings.Fields(artist), " ")
	if artist == "" {
		return "Unknown Artist"
	}
	return cases.Title(language.Und).String(artist)
}
