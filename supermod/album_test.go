package supermod

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMakeTitle(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Lowercase input is title-cased",
			input:    "abbey road",
			expected: "Abbey Road",
		},
		{
			name:     "Small words stay lowercase mid-string",
			input:    "dark side of the moon",
			expected: "Dark Side of the Moon",
		},
		{
			name:     "Small word at the start is capitalized",
			input:    "the dark side",
			expected: "The Dark Side",
		},
		{
			name:     "Small word at the end is capitalized",
			input:    "what it leads to",
			expected: "What It Leads To",
		},
		{
			name:     "All-caps string passes through unchanged",
			input:    "OK COMPUTER",
			expected: "OK COMPUTER",
		},
		{
			name:     "Acronym inside a mixed string is kept",
			input:    "OK computer",
			expected: "OK Computer",
		},
		{
			name:     "Surrounding whitespace is trimmed",
			input:    "  abbey road  ",
			expected: "Abbey Road",
		},
	}
	for _, tc := range testCases {
		t.Run(
			tc.name, func(t *testing.T) {
				assert.Equal(t, tc.expected, MakeTitle(tc.input))
			},
		)
	}
}

func TestHandleGenres(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "Bare metal subgenre gets the Metal suffix",
			input:    "Black",
			expected: []string{"Black Metal"},
		},
		{
			name:     "Already-suffixed genre is untouched",
			input:    "Black Metal, Shoegaze",
			expected: []string{"Black Metal", "Shoegaze"},
		},
		{
			name:     "Slash-separated genres are split",
			input:    "Doom/Drone",
			expected: []string{"Doom Metal", "Drone"},
		},
		{
			name:     "Non-metal genre passes through",
			input:    "Shoegaze",
			expected: []string{"Shoegaze"},
		},
	}
	for _, tc := range testCases {
		t.Run(
			tc.name, func(t *testing.T) {
				assert.Equal(t, tc.expected, HandleGenres(tc.input))
			},
		)
	}
}

func TestHandleLength(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{input: "Live", expected: "Live Album"},
		{input: "Other", expected: "Other Release"},
		{input: "Deluxe", expected: "Deluxe Edition"},
		{input: "Covers", expected: "Cover Album"},
		{input: "LP", expected: "LP"},
		{input: "EP", expected: "EP"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, HandleLength(tc.input))
	}
}

func TestNewAlbum(t *testing.T) {
	album := NewAlbum(
		"the beatles", "abbey road", "Rock", " 1969 ",
	)
	assert.Equal(t, "The Beatles", album.Artist)
	assert.Equal(t, "Abbey Road", album.Title)
	assert.Equal(t, []string{"Rock"}, album.Genres)
	assert.Equal(t, "1969", album.ReleaseDate)
}

func TestReleaseNewsFormat(t *testing.T) {
	release := NewRelease(
		"Converge", "Jane Doe", "Metalcore", "9/4/2001",
		"LP", "USA", "Botch", "Core",
	)
	line := release.NewsFormat()
	assert.False(t, release.IsError())
	assert.Contains(t, line, "Converge - 'Jane Doe' (Genre: Metalcore)")

	unknown := NewRelease(
		"Somebody", "Something", "Rock", "1/1/2024",
		"LP", "Atlantis", "", "",
	)
	assert.True(t, unknown.IsError())
	assert.Contains(t, unknown.NewsFormat(), "**ERROR:**")
}
