package supermod

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func submissionMessage(content string) *discordgo.Message {
	return &discordgo.Message{
		ID:        "111111111111111111",
		ChannelID: "222222222222222222",
		Content:   content,
		Author: &discordgo.User{
			ID:         "123456789012345678",
			Username:   "listener",
			GlobalName: "Listener",
		},
	}
}

func TestParseSubmission(t *testing.T) {
	result := ParseSubmission(
		submissionMessage("abbey road // the beatles // 1969 // Rock // new"),
	)
	sub, ok := result.(*Submission)
	require.True(t, ok, "expected a submission, got %T", result)

	assert.Equal(t, "Abbey Road", sub.Title)
	assert.Equal(t, "The Beatles", sub.Artist)
	assert.Equal(t, "1969", sub.ReleaseDate)
	assert.Equal(t, []string{"Rock"}, sub.Genres)
	assert.Equal(t, MasterlistNew, sub.Masterlist)
	assert.True(t, sub.MasterlistOK)
	assert.Equal(t, RequestAdd, sub.Request)
	assert.Equal(t, "Listener", sub.SubmitterName)
	assert.Equal(t, "123456789012345678", sub.SubmitterID)
}

func TestParseSubmissionReplace(t *testing.T) {
	result := ParseSubmission(
		submissionMessage(
			"replace my old pick with: paranoid // black sabbath // 1970 // Heavy // classic",
		),
	)
	sub, ok := result.(*Submission)
	require.True(t, ok, "expected a submission, got %T", result)

	assert.Equal(t, RequestReplace, sub.Request)
	assert.Equal(t, "Paranoid", sub.Title)
	assert.Equal(t, "Black Sabbath", sub.Artist)
	assert.Equal(t, []string{"Heavy Metal"}, sub.Genres)
	assert.Equal(t, MasterlistClassic, sub.Masterlist)
}

func TestParseSubmissionErrors(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{
			name:    "Too few fields",
			content: "abbey road // the beatles // 1969 // Rock",
		},
		{
			name:    "Too many fields",
			content: "a // b // c // d // e // f",
		},
		{
			name:    "Empty field",
			content: "abbey road // // 1969 // Rock // new",
		},
		{
			name:    "Replace prefix without 'with'",
			content: "replace everything",
		},
		{
			name:    "Plain chatter",
			content: "has anyone heard the new album?",
		},
	}
	for _, tc := range testCases {
		t.Run(
			tc.name, func(t *testing.T) {
				msg := submissionMessage(tc.content)
				result := ParseSubmission(msg)
				subErr, ok := result.(*SubmissionError)
				require.True(t, ok, "expected an error, got %T", result)
				assert.Same(t, msg, subErr.OriginMessage())
			},
		)
	}
}

func TestParseSubmissionUnknownMasterlist(t *testing.T) {
	result := ParseSubmission(
		submissionMessage("abbey road // the beatles // 1969 // Rock // bogus"),
	)
	sub, ok := result.(*Submission)
	require.True(t, ok)
	assert.False(t, sub.MasterlistOK)
}

func TestParseMasterlistPost(t *testing.T) {
	sub, err := ParseMasterlistPost(
		"Abbey Road _by_ The Beatles (1969) (Rock) <@!123456789012345678>",
		MasterlistNew,
	)
	require.NoError(t, err)
	assert.Equal(t, "Abbey Road", sub.Title)
	assert.Equal(t, "The Beatles", sub.Artist)
	assert.Equal(t, "1969", sub.ReleaseDate)
	assert.Equal(t, []string{"Rock"}, sub.Genres)
	assert.Equal(t, "123456789012345678", sub.SubmitterID)
	assert.Equal(t, MasterlistNew, sub.Masterlist)
	assert.True(t, sub.MasterlistOK)
}

func TestMasterlistPostRoundTrip(t *testing.T) {
	original := &Submission{
		Album:        NewAlbum("the beatles", "abbey road", "Rock", "1969"),
		SubmitterID:  "123456789012345678",
		Masterlist:   MasterlistNew,
		MasterlistOK: true,
		Request:      RequestAdd,
	}
	parsed, err := ParseMasterlistPost(original.MasterlistFormat(), MasterlistNew)
	require.NoError(t, err)
	assert.Equal(t, original.Title, parsed.Title)
	assert.Equal(t, original.Artist, parsed.Artist)
	assert.Equal(t, original.ReleaseDate, parsed.ReleaseDate)
	assert.Equal(t, original.Genres, parsed.Genres)
	assert.Equal(t, original.SubmitterID, parsed.SubmitterID)
}

func TestParseMasterlistPostErrors(t *testing.T) {
	testCases := []string{
		"Abbey Road by The Beatles (1969) (Rock) <@!1>",
		"Abbey Road _by_ The Beatles",
		"Abbey Road _by_ The Beatles (1969) (Rock)",
		"edited into something else entirely",
	}
	for _, content := range testCases {
		_, err := ParseMasterlistPost(content, MasterlistNew)
		assert.Error(t, err, "content: %s", content)
	}
}

func TestSheetRow(t *testing.T) {
	sub := &Submission{
		Album:         NewAlbum("converge", "jane doe", "Metalcore", "2001"),
		SubmitterName: "Listener",
		SubmitterID:   "123",
	}
	row := sub.SheetRow("456")
	require.Len(t, row, sheetColumnCount)
	assert.Equal(
		t,
		[]string{"Jane Doe", "Converge", "Metalcore", "2001", "Listener", "123", "456"},
		row,
	)
}

func TestChecklistLine(t *testing.T) {
	sub := &Submission{
		Album:         NewAlbum("the beatles", "abbey road", "Rock", "1969"),
		SubmitterName: "Listener",
		SubmitterID:   "123",
		Masterlist:    MasterlistNew,
		MasterlistOK:  true,
		Request:       RequestAdd,
	}
	line := sub.ChecklistLine()
	assert.Contains(t, line, "Abbey Road _by_ The Beatles (1969) (Rock)")
	assert.Contains(t, line, "**Listener** (123)")
	assert.Contains(t, line, "request: **add** in **NEW**")
	assert.Contains(t, line, sub.SearchLink())
}

func TestParseMasterlist(t *testing.T) {
	for _, masterlist := range Masterlists {
		parsed, ok := ParseMasterlist(string(masterlist))
		assert.True(t, ok)
		assert.Equal(t, masterlist, parsed)
	}
	_, ok := ParseMasterlist("bogus")
	assert.False(t, ok)

	assert.Equal(t, "NEW", MasterlistNew.Upper())
}
