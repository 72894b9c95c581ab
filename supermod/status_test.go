package supermod

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmissionsOpen(t *testing.T) {
	// 2026-08-23 is a Sunday
	sunday := time.Date(2026, time.August, 23, 12, 0, 0, 0, time.UTC)
	assert.True(t, submissionsOpen(sunday))
	assert.True(t, submissionsOpen(sunday.AddDate(0, 0, 3)))  // Wednesday
	assert.False(t, submissionsOpen(sunday.AddDate(0, 0, 4))) // Thursday
	assert.False(t, submissionsOpen(sunday.AddDate(0, 0, 6))) // Saturday
}

func TestPluralizeDays(t *testing.T) {
	noon := time.Date(2026, time.August, 23, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "3 days", pluralizeDays(3, noon))
	assert.Equal(t, "1 day", pluralizeDays(1, noon))
	assert.Equal(t, "12 hours", pluralizeDays(0, noon))

	lateEvening := time.Date(2026, time.August, 23, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "less than an hour", pluralizeDays(0, lateEvening))
}

func TestAnnounceSubmissionsClosed(t *testing.T) {
	su, session, _ := newTestSupermod(t)
	su.config.Discord.ListenersRoleID = "listeners-role"
	su.config.Discord.Channels.Announcements = "announce-channel"

	require.NoError(t, su.announceSubmissionsClosed(context.Background()))

	posts := session.sentTo("announce-channel")
	require.Len(t, posts, 1)
	assert.Contains(t, posts[0], "<@&listeners-role>")
	assert.Contains(t, posts[0], "<#"+testSubmissionsChannel+">")
	assert.Contains(t, posts[0], "<#voted-channel>")
	assert.Contains(t, posts[0], "voting is open")
}

func TestAnnounceSubmissionsOpen(t *testing.T) {
	su, session, _ := newTestSupermod(t)
	su.config.Discord.ListenersRoleID = "listeners-role"
	su.config.Discord.Channels.Announcements = "announce-channel"
	su.config.Discord.Channels.WeeklyPlaylist = "playlist-channel"
	su.config.Discord.Channels.Ratings = "ratings-channel"
	su.config.Discord.Channels.FAQs = "faqs-channel"
	su.config.Discord.Channels.StaffHelp = "staff-help-channel"

	require.NoError(t, su.announceSubmissionsOpen(context.Background()))

	posts := session.sentTo("announce-channel")
	require.Len(t, posts, 1)
	assert.Contains(t, posts[0], "<#playlist-channel>")
	assert.Contains(t, posts[0], "<#ratings-channel>")
	assert.Contains(t, posts[0], "weekly picks are now available")
}
