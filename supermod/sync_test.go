package supermod

import (
	"context"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func masterlistPost(id, content string) *discordgo.Message {
	return &discordgo.Message{
		ID:        id,
		ChannelID: "new-channel",
		Content:   content,
	}
}

func TestUpdateSubsSheet(t *testing.T) {
	su, session, sheetsClient := newTestSupermod(t)
	session.users["777"] = &discordgo.User{ID: "777", GlobalName: "Listener"}
	session.users["888"] = &discordgo.User{ID: "888", Username: "someone_else"}

	session.seedMessage(
		masterlistPost("post-1", "OK Computer _by_ Radiohead (1997) (Rock) <@!777>"),
	)
	session.seedMessage(
		masterlistPost("post-2", "Jane Doe _by_ Converge (2001) (Metalcore) <@!888>"),
	)
	session.seedMessage(masterlistPost("post-3", "just a chat message"))

	require.NoError(
		t,
		su.updateSubsSheet(context.Background(), testApprovalChannel, MasterlistNew),
	)

	rows := sheetsClient.tab(testSubmissionsURL, "NEW").currentRows()
	require.Len(t, rows, 3)
	assert.Equal(t, sheetHeader, rows[0])
	// channel history is served newest first
	assert.Equal(
		t,
		[]string{
			"Jane Doe", "Converge", "Metalcore", "2001",
			"someone_else", "888", "post-2",
		},
		rows[1],
	)
	assert.Equal(
		t,
		[]string{
			"OK Computer", "Radiohead", "Rock", "1997",
			"Listener", "777", "post-1",
		},
		rows[2],
	)

	reports := session.sentTo(testApprovalChannel)
	require.Len(t, reports, 4)
	assert.Equal(t, "Updating NEW sheet.", reports[0])
	assert.Equal(t, "NEW sheet updated.", reports[1])
	assert.Equal(t, "Problem subs in NEW:", reports[2])
	assert.Contains(t, reports[3], "post-3")
}

func TestUpdateSubsSheetReplacesOldRows(t *testing.T) {
	su, session, sheetsClient := newTestSupermod(t)
	session.users["777"] = &discordgo.User{ID: "777", GlobalName: "Listener"}
	sheetsClient.seed(
		testSubmissionsURL, "NEW", [][]string{
			sheetHeader,
			{"Stale", "Row", "Rock", "1990", "Gone", "999", "stale-post"},
		},
	)
	session.seedMessage(
		masterlistPost("post-1", "OK Computer _by_ Radiohead (1997) (Rock) <@!777>"),
	)

	require.NoError(
		t,
		su.updateSubsSheet(context.Background(), testApprovalChannel, MasterlistNew),
	)

	rows := sheetsClient.tab(testSubmissionsURL, "NEW").currentRows()
	require.Len(t, rows, 2)
	assert.Equal(t, "OK Computer", rows[1][0])
}

func TestSheetToMasterlist(t *testing.T) {
	su, session, sheetsClient := newTestSupermod(t)
	sheetsClient.seed(
		testSubmissionsURL, "NEW", [][]string{
			sheetHeader,
			{"OK Computer", "Radiohead", "Rock", "1997", "Listener", "777", "post-1"},
			{"Jane Doe", "Converge", "Metalcore", "2001", "Someone", "888", "post-2"},
		},
	)
	session.seedMessage(masterlistPost("post-1", "OK Computer _by_ Radiohead (1997) (Rock) <@!777>"))
	session.seedMessage(masterlistPost("post-2", "Jane Doe _by_ Converge (2001) (Metalcore) <@!888>"))

	require.NoError(
		t,
		su.sheetToMasterlist(context.Background(), testApprovalChannel, MasterlistNew),
	)

	assert.Contains(t, session.deleted, "new-channel/post-1")
	assert.Contains(t, session.deleted, "new-channel/post-2")

	posts := session.sentTo("new-channel")
	require.Len(t, posts, 2)
	assert.ElementsMatch(
		t,
		[]string{
			"OK Computer _by_ Radiohead (1997) (Rock) <@!777>",
			"Jane Doe _by_ Converge (2001) (Metalcore) <@!888>",
		},
		posts,
	)

	reports := session.sentTo(testApprovalChannel)
	require.Len(t, reports, 2)
	assert.Equal(t, "Updating NEW masterlist.", reports[0])
	assert.Equal(
		t, "NEW masterlist has been updated in a random order.", reports[1],
	)
}

func TestRunSheetSyncSkipsWhenPaused(t *testing.T) {
	su, session, _ := newTestSupermod(t)
	su.paused.Store(true)

	su.runSheetSync(context.Background())
	assert.Empty(t, session.sentTo(testApprovalChannel))
}

func TestRunSheetSyncSkipsWhenUpdating(t *testing.T) {
	su, session, _ := newTestSupermod(t)
	require.True(t, su.beginUpdate())
	defer su.endUpdate()

	su.runSheetSync(context.Background())
	assert.Empty(t, session.sentTo(testApprovalChannel))
}
