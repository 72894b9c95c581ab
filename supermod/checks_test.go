package supermod

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func checkFixture() *checkData {
	return newCheckData(
		map[Masterlist][][]string{
			MasterlistNew: {
				{"Jane Doe", "Converge", "Metalcore", "2001", "Someone", "555", "900"},
				{"Blackwater Park", "Opeth", "Progressive Metal", "2001", "Someone Else", "777", "901"},
			},
		},
		[][]string{
			{"Abbey Road", "The Beatles", "12"},
		},
	)
}

func newSubmission(title, artist, submitterID string, request RequestKind) *Submission {
	return &Submission{
		Album:        NewAlbum(artist, title, "Rock", "1969"),
		SubmitterID:  submitterID,
		Masterlist:   MasterlistNew,
		MasterlistOK: true,
		Request:      request,
	}
}

func TestCheckSubmission(t *testing.T) {
	testCases := []struct {
		name        string
		sub         *Submission
		expected    Warning
		expectedRef string
	}{
		{
			name:        "Clean submission",
			sub:         newSubmission("Lateralus", "Tool", "111", RequestAdd),
			expected:    WarningNone,
			expectedRef: "",
		},
		{
			name:        "Previously discussed album",
			sub:         newSubmission("Abbey Road", "The Beatles", "111", RequestAdd),
			expected:    WarningDiscussed,
			expectedRef: "12",
		},
		{
			name:        "Album already in the masterlist",
			sub:         newSubmission("Jane Doe", "Converge", "111", RequestAdd),
			expected:    WarningDuplicate,
			expectedRef: "900",
		},
		{
			name:        "Submitter already in the masterlist",
			sub:         newSubmission("Lateralus", "Tool", "777", RequestAdd),
			expected:    WarningAlreadySubmitted,
			expectedRef: "901",
		},
		{
			name:        "Replacement is exempt from the repeat-submitter check",
			sub:         newSubmission("Lateralus", "Tool", "777", RequestReplace),
			expected:    WarningNone,
			expectedRef: "",
		},
		{
			name:        "Replacement still hits the duplicate check",
			sub:         newSubmission("Jane Doe", "Converge", "555", RequestReplace),
			expected:    WarningDuplicate,
			expectedRef: "900",
		},
	}
	for _, tc := range testCases {
		t.Run(
			tc.name, func(t *testing.T) {
				checkFixture().checkSubmission(tc.sub)
				assert.Equal(t, tc.expected, tc.sub.Warning)
				assert.Equal(t, tc.expectedRef, tc.sub.WarningRef)
			},
		)
	}
}

// A submission matching both the discussed list and an existing
// masterlist entry reports only the discussed warning.
func TestCheckSubmissionPriority(t *testing.T) {
	cd := newCheckData(
		map[Masterlist][][]string{
			MasterlistNew: {
				{"Abbey Road", "The Beatles", "Rock", "1969", "Someone", "555", "900"},
			},
		},
		[][]string{
			{"Abbey Road", "The Beatles", "7"},
		},
	)
	sub := newSubmission("Abbey Road", "The Beatles", "555", RequestAdd)
	cd.checkSubmission(sub)
	assert.Equal(t, WarningDiscussed, sub.Warning)
	assert.Equal(t, "7", sub.WarningRef)
}

func TestCheckDataSkipsShortRows(t *testing.T) {
	cd := newCheckData(
		map[Masterlist][][]string{
			MasterlistNew: {
				{"Too", "Short"},
			},
		},
		[][]string{
			{"Also", "Short"},
		},
	)
	assert.Empty(t, cd.existing[MasterlistNew])
	assert.Empty(t, cd.discussed)
}

func TestWarningStrings(t *testing.T) {
	assert.Equal(t, "none", WarningNone.String())
	assert.Equal(t, "discussed", WarningDiscussed.String())
	assert.Equal(t, "duplicate", WarningDuplicate.String())
	assert.Equal(t, "user already in masterlist", WarningAlreadySubmitted.String())
}

func TestWarningMessages(t *testing.T) {
	sub := newSubmission("Jane Doe", "Converge", "555", RequestAdd)
	sub.SubmitterName = "Listener"
	sub.Warning = WarningDiscussed
	sub.WarningRef = "12"
	assert.Contains(
		t,
		WarningDiscussed.checklistNote(sub, ""),
		"discussed already on week 12",
	)
	assert.Contains(
		t,
		WarningDuplicate.submitReply(sub, "https://example.com/post"),
		"seems to be in NEW already",
	)
	assert.Contains(
		t,
		WarningAlreadySubmitted.submitReply(sub, "https://example.com/post"),
		"You seem to have a submission in NEW already",
	)
	assert.Contains(
		t,
		WarningAlreadySubmitted.checklistNote(sub, "https://example.com/post"),
		"Listener (555)",
	)
}
