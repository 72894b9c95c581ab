package supermod

import (
	"fmt"
	"strings"
)

// Release is an Album enriched with the newsletter fields read from the
// weekly albums spreadsheet.
type Release struct {
	Album
	Length          string   `json:"length,omitempty"`
	Countries       []string `json:"countries,omitempty"`
	FFO             []string `json:"ffo,omitempty"`
	GenreCategories []string `json:"genre_categories,omitempty"`
}

// NewRelease builds a Release from the raw spreadsheet fields. Empty
// optional fields stay empty.
func NewRelease(artist, title, genres, releaseDate, length, countries, ffo, categories string) Release {
	r := Release{Album: NewAlbum(artist, title, genres, releaseDate)}
	if length != "" {
		r.Length = HandleLength(length)
	}
	if countries != "" {
		r.Countries = HandleInput(countries)
	}
	if ffo != "" {
		r.FFO = HandleInput(ffo)
	}
	if categories != "" {
		r.GenreCategories = handleGenreCategories(categories)
	}
	return r
}

// NewsFormat renders the release as a newsletter line. A country that has no
// flag emoji mapping degrades the whole line to an error rendering so the
// newsletter still posts; it never fails outright.
func (r Release) NewsFormat() string {
	flags := make([]string, 0, len(r.Countries))
	for _, country := range r.Countries {
		flag, ok := discordCountryFlags[country]
		if !ok {
			return fmt.Sprintf(
				"**ERROR:** Something went wrong with album %s by %s from %s "+
					"(Genre: %s, Release date: %s).",
				r.Title,
				r.Artist,
				strings.Join(r.Countries, ", "),
				strings.Join(r.Genres, ", "),
				r.ReleaseDate,
			)
		}
		flags = append(flags, flag)
	}
	return strings.Join(flags, "  ") + fmt.Sprintf(
		"  | %s - '%s' (Genre: %s)",
		r.Artist,
		r.Title,
		strings.Join(r.Genres, ", "),
	)
}

// IsError reports whether NewsFormat degrades to the error rendering.
func (r Release) IsError() bool {
	return strings.HasPrefix(r.NewsFormat(), "**ERROR:**")
}
