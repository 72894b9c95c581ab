package supermod

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// titleSmallWords are words kept lowercase when title-casing, unless they
// start or end the string.
var titleSmallWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "as": {}, "at": {}, "but": {}, "by": {},
	"en": {}, "for": {}, "if": {}, "in": {}, "nor": {}, "of": {}, "on": {},
	"or": {}, "per": {}, "the": {}, "to": {}, "v": {}, "vs": {}, "via": {},
}

var titleCaser = cases.Title(language.English, cases.NoLower)

// Album is the base record for anything the bot tracks: a normalized
// artist/title pair, a genre list and a free-form release date.
type Album struct {
	Artist      string   `json:"artist"`
	Title       string   `json:"title"`
	Genres      []string `json:"genres"`
	ReleaseDate string   `json:"release_date"`
}

// NewAlbum normalizes the raw field values into an Album. Genres is the raw
// genre field as written by the submitter ("Black/Shoegaze", "Doom, Drone").
func NewAlbum(artist, title, genres, releaseDate string) Album {
	return Album{
		Artist:      MakeTitle(artist),
		Title:       MakeTitle(title),
		Genres:      HandleGenres(genres),
		ReleaseDate: strings.TrimSpace(releaseDate),
	}
}

// MakeTitle title-cases the input unless it is written entirely in capitals,
// in which case it is taken as intentional styling and returned as-is.
func MakeTitle(s string) string {
	s = strings.TrimSpace(s)
	if s == strings.ToUpper(s) {
		return s
	}
	words := strings.Fields(s)
	for i, word := range words {
		lower := strings.ToLower(word)
		if _, small := titleSmallWords[lower]; small && i > 0 && i < len(words)-1 {
			words[i] = lower
			continue
		}
		if word == strings.ToUpper(word) {
			// acronyms and stylized caps stay as written
			continue
		}
		words[i] = titleCaser.String(lower)
	}
	return strings.Join(words, " ")
}

// HandleInput splits a multi-value field on "/" and ", " and title-cases
// each entry.
func HandleInput(s string) []string {
	parts := strings.Split(strings.ReplaceAll(s, "/", ", "), ", ")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		out = append(out, MakeTitle(part))
	}
	return out
}

// HandleGenres normalizes a raw genre field, appending " Metal" to bare
// metal subgenre names.
func HandleGenres(s string) []string {
	genres := HandleInput(s)
	for i, genre := range genres {
		if _, ok := metalGenres[genre]; ok {
			genres[i] = genre + " Metal"
		}
	}
	return genres
}

// HandleLength maps the shorthand length values used in the newsletter
// spreadsheet to their full display names. Unrecognized values pass through
// verbatim.
func HandleLength(length string) string {
	switch strings.TrimSpace(length) {
	case "Live":
		return "Live Album"
	case "Other":
		return "Other Release"
	case "Deluxe":
		return "Deluxe Edition"
	case "Greatest Hits":
		return "Greatest Hits Album"
	case "Cover", "Covers", "Covers Album":
		return "Cover Album"
	case "Anniversary":
		return "Anniversary Edition"
	case "Unreleased":
		return "Unreleased Album"
	default:
		return strings.TrimSpace(length)
	}
}

// handleGenreCategories maps spreadsheet shorthand to canonical genre
// category names.
func handleGenreCategories(s string) []string {
	categories := HandleInput(s)
	for i, category := range categories {
		if canonical, ok := genreCategories[category]; ok {
			categories[i] = canonical
		}
	}
	return categories
}
