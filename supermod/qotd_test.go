package supermod

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQOTDPick(t *testing.T) {
	rows := [][]string{
		{"Type", "Repeatable", "Content", "Uses"},
		{"Question", "N", "What got you into music?", "2"},
		{"Question", "N", "", ""},
		{"Activity", "N", "Share a song you love.", ""},
	}
	row, question, err := qotdPick(rows)
	require.NoError(t, err)
	assert.Equal(t, 3, row)
	assert.Equal(t, "Share a song you love.", question[qotdColContent])
}

func TestQOTDPickRepeatable(t *testing.T) {
	rows := [][]string{
		{"Question", "Y", "What are you listening to?", "14"},
	}
	row, _, err := qotdPick(rows)
	require.NoError(t, err)
	assert.Equal(t, 0, row)
}

func TestQOTDPickExhausted(t *testing.T) {
	rows := [][]string{
		{"Question", "N", "What got you into music?", "1"},
		{"Question", "N", "", ""},
	}
	_, _, err := qotdPick(rows)
	assert.ErrorIs(t, err, errNoQuestions)
}

func TestQOTDInteractApprove(t *testing.T) {
	su, session, sheetsClient := newTestSupermod(t)
	wks := sheetsClient.seed(
		testQOTDURL, "tab-0", [][]string{
			{"Question", "Y", "What are you listening to?", "3"},
		},
	)

	done := make(chan error, 1)
	go func() {
		done <- su.qotdInteract(context.Background(), testApprovalChannel, time.Minute)
	}()

	waitForSent(t, session, testApprovalChannel, 1)
	waitForHandlers(t, session, 1)
	proposal := session.sentTo(testApprovalChannel)[0]
	assert.Equal(t, "What are you listening to?", proposal)

	session.receiveReaction("msg-1", "staff-user", emojiUsed)
	require.NoError(t, <-done)

	posts := session.sentTo("qotd-channel")
	require.Len(t, posts, 1)
	assert.Contains(t, posts[0], "__**Question of the Day")
	assert.Contains(t, posts[0], "What are you listening to?")

	rows := wks.currentRows()
	assert.Equal(t, "4", rows[0][qotdColUses])

	reports := session.sentTo(testApprovalChannel)
	assert.Contains(t, reports[len(reports)-1], "QOTD has been posted")
}

func TestQOTDInteractReject(t *testing.T) {
	su, session, sheetsClient := newTestSupermod(t)
	wks := sheetsClient.seed(
		testQOTDURL, "tab-0", [][]string{
			{"Question", "Y", "What are you listening to?", "3"},
		},
	)

	done := make(chan error, 1)
	go func() {
		done <- su.qotdInteract(context.Background(), testApprovalChannel, time.Minute)
	}()

	waitForSent(t, session, testApprovalChannel, 1)
	waitForHandlers(t, session, 1)
	session.receiveReaction("msg-1", "staff-user", emojiRejected)
	require.NoError(t, <-done)

	assert.Empty(t, session.sentTo("qotd-channel"))
	rows := wks.currentRows()
	assert.Equal(t, "3", rows[0][qotdColUses])

	reports := session.sentTo(testApprovalChannel)
	assert.Equal(t, "The QOTD was rejected.", reports[len(reports)-1])
}
