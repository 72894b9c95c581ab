package supermod

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Submissions open at the start of Sunday and close at the start of
// Thursday, community time.
const (
	submissionsOpenDay   = time.Sunday
	submissionsClosedDay = time.Thursday
)

func channelMention(channelID string) string {
	return fmt.Sprintf("<#%s>", channelID)
}

func roleMention(roleID string) string {
	return fmt.Sprintf("<@&%s>", roleID)
}

// submissionsOpen reports whether the submission window is open at the
// given time.
func submissionsOpen(now time.Time) bool {
	return now.Weekday() < submissionsClosedDay
}

// announceSubmissionsOpen posts the weekly picks-are-up notice.
func (su *Supermod) announceSubmissionsOpen(ctx context.Context) error {
	channels := su.config.Discord.Channels
	message := fmt.Sprintf(
		"Hello %s! Voting has closed and our new weekly picks are now available "+
			"in the Albums Under Review category, located below %s. "+
			"When you have listened to an album in full, head to %s "+
			"and submit your score. "+
			"Check the %s and the individual channel descriptions, "+
			"or head to %s if you need further assistance.",
		roleMention(su.config.Discord.ListenersRoleID),
		channelMention(channels.WeeklyPlaylist),
		channelMention(channels.Ratings),
		channelMention(channels.FAQs),
		channelMention(channels.StaffHelp),
	)
	if err := su.discord.channelMessageSend(
		channels.Announcements, message,
	); err != nil {
		return err
	}
	su.logger.InfoContext(
		ctx, "submissions open announcement posted",
		"date", su.now().Format(time.DateOnly),
	)
	return nil
}

// announceSubmissionsClosed posts the voting-is-open notice.
func (su *Supermod) announceSubmissionsClosed(ctx context.Context) error {
	channels := su.config.Discord.Channels
	message := fmt.Sprintf(
		"Hello %s! %s is now closed and voting is open. "+
			"Head to %s where you can vote up to 10 albums "+
			"using the :thumbsup: emoji. The winning album will be revealed "+
			"along with the random picks during the upcoming weekend and will "+
			"be reviewed next week.",
		roleMention(su.config.Discord.ListenersRoleID),
		channelMention(channels.Submissions),
		channelMention(channels.MasterlistChannel(MasterlistVoted)),
	)
	if err := su.discord.channelMessageSend(
		channels.Announcements, message,
	); err != nil {
		return err
	}
	su.logger.InfoContext(
		ctx, "submissions closed announcement posted",
		"date", su.now().Format(time.DateOnly),
	)
	return nil
}

// commandSubsStatus reports whether the submission window is currently
// open and when it changes next.
func (su *Supermod) commandSubsStatus(
	_ context.Context,
	m *discordgo.MessageCreate,
	_ string,
) error {
	now := su.now()
	if submissionsOpen(now) {
		days := int(submissionsClosedDay-now.Weekday()+7) % 7
		return su.discord.channelMessageSend(
			m.ChannelID,
			fmt.Sprintf(
				"Submissions are open. They close at the start of Thursday (in %s).",
				pluralizeDays(days, now),
			),
		)
	}
	days := int(submissionsOpenDay-now.Weekday()+7) % 7
	return su.discord.channelMessageSend(
		m.ChannelID,
		fmt.Sprintf(
			"Submissions are closed and voting is open. "+
				"Submissions reopen at the start of Sunday (in %s).",
			pluralizeDays(days, now),
		),
	)
}

// pluralizeDays renders a countdown in days, falling back to hours on
// the final day.
func pluralizeDays(days int, now time.Time) string {
	if days == 0 {
		midnight := time.Date(
			now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location(),
		).AddDate(0, 0, 1)
		hours := int(midnight.Sub(now).Hours())
		if hours <= 1 {
			return "less than an hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}
