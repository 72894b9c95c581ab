package supermod

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostSplitShortText(t *testing.T) {
	posts := PostSplit("short message", 2000)
	require.Len(t, posts, 1)
	assert.Equal(t, "short message", posts[0])
}

func TestPostSplitPrefersNewlines(t *testing.T) {
	text := "first line\nsecond line\nthird line"
	posts := PostSplit(text, 25)
	require.Len(t, posts, 2)
	assert.Equal(t, "first line\nsecond line", posts[0])
	assert.Equal(t, "third line", posts[1])
}

func TestPostSplitFallsBackToSentences(t *testing.T) {
	text := "One sentence. Another sentence. A third one."
	posts := PostSplit(text, 20)
	require.Len(t, posts, 3)
	assert.Equal(t, "One sentence.", posts[0])
	assert.Equal(t, "Another sentence.", posts[1])
	assert.Equal(t, "A third one.", posts[2])
}

func TestPostSplitRespectsLimit(t *testing.T) {
	text := strings.Repeat("some words on a line\n", 400)
	for _, post := range PostSplit(text, discordMaxMessageLength) {
		assert.LessOrEqual(
			t, utf8.RuneCountInString(post), discordMaxMessageLength,
		)
	}
}

func TestParseIndexTokens(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "Single index",
			input:    "reject 2",
			expected: []string{"2"},
		},
		{
			name:     "Multiple indices",
			input:    "reject 2, 4",
			expected: []string{"2", "4"},
		},
		{
			name:     "Stray characters around digits",
			input:    "2a, 4.",
			expected: []string{"2", "4"},
		},
	}
	for _, tc := range testCases {
		t.Run(
			tc.name, func(t *testing.T) {
				indices, err := parseIndexTokens(tc.input)
				require.NoError(t, err)
				assert.Equal(t, tc.expected, indices)
			},
		)
	}
}

func TestParseIndexTokensNoDigits(t *testing.T) {
	_, err := parseIndexTokens("reject this, 4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reject this")
}

func TestDigitsOnly(t *testing.T) {
	assert.Equal(t, "123456", digitsOnly("<@!123456>"))
	assert.Equal(t, "", digitsOnly("nothing here"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abcdef", 3))
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.Equal(t, "héll", truncate("héllo", 4))
}

func TestJumpURL(t *testing.T) {
	assert.Equal(
		t,
		"https://discord.com/channels/1/2/3",
		jumpURL("1", "2", "3"),
	)
}
