package supermod

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/lmittmann/tint"
)

// sheetHeader is the first row of every masterlist worksheet.
var sheetHeader = []string{
	"Title",
	"Artist",
	"Genre",
	"Year",
	"Submitter Name",
	"Submitter ID",
	"Message ID",
}

// commandUpdateSheet rebuilds one or all masterlist worksheets from the
// Discord channel contents.
func (su *Supermod) commandUpdateSheet(
	ctx context.Context,
	m *discordgo.MessageCreate,
	args string,
) error {
	arg := strings.ToLower(strings.TrimSpace(args))

	if !su.beginUpdate() {
		return errUpdateInProgress
	}
	defer su.endUpdate()

	if arg == "" {
		for _, masterlist := range Masterlists {
			if err := su.updateSubsSheet(ctx, m.ChannelID, masterlist); err != nil {
				return err
			}
		}
		return nil
	}
	masterlist, ok := ParseMasterlist(arg)
	if !ok {
		return su.discord.channelMessageSend(
			m.ChannelID,
			"Please provide a valid masterlist name, or no name if you wish to update "+
				"all masterlists from the sheet data.",
		)
	}
	return su.updateSubsSheet(ctx, m.ChannelID, masterlist)
}

// commandUpdateMasterlist reposts one or all masterlist channels from
// the worksheet contents in a random order, then rebuilds the
// worksheets so the rows point at the fresh messages.
func (su *Supermod) commandUpdateMasterlist(
	ctx context.Context,
	m *discordgo.MessageCreate,
	args string,
) error {
	arg := strings.ToLower(strings.TrimSpace(args))

	if !su.beginUpdate() {
		return errUpdateInProgress
	}
	defer su.endUpdate()

	refresh := func(masterlist Masterlist) error {
		if err := su.sheetToMasterlist(ctx, m.ChannelID, masterlist); err != nil {
			return err
		}
		return su.updateSubsSheet(ctx, m.ChannelID, masterlist)
	}

	if arg == "" {
		for _, masterlist := range Masterlists {
			if err := refresh(masterlist); err != nil {
				return err
			}
		}
		return nil
	}
	masterlist, ok := ParseMasterlist(arg)
	if !ok {
		return su.discord.channelMessageSend(
			m.ChannelID,
			"Please provide a valid masterlist name, or no name if you wish to update "+
				"all masterlists from the sheet data.",
		)
	}
	return refresh(masterlist)
}

// updateSubsSheet clears a masterlist worksheet and repopulates it from
// the channel history. Posts that fail to parse are reported by jump
// URL rather than aborting the rebuild.
func (su *Supermod) updateSubsSheet(
	ctx context.Context,
	reportChannelID string,
	masterlist Masterlist,
) error {
	logger := su.logger.With("masterlist", masterlist)
	logger.InfoContext(ctx, "updating worksheet")
	if err := su.discord.channelMessageSend(
		reportChannelID, fmt.Sprintf("Updating %s sheet.", masterlist.Upper()),
	); err != nil {
		return err
	}

	channelID := su.config.Discord.Channels.MasterlistChannel(masterlist)
	if channelID == "" {
		return fmt.Errorf("no channel configured for masterlist %s", masterlist)
	}

	wks := su.masterlistWorksheet(masterlist)
	if err := wks.Clear(ctx); err != nil {
		return err
	}
	if err := wks.AppendRow(ctx, sheetHeader); err != nil {
		return err
	}

	msgs, err := su.discord.channelHistory(channelID)
	if err != nil {
		return err
	}

	var problemSubs []string
	for _, msg := range msgs {
		sub, parseErr := ParseMasterlistPost(msg.Content, masterlist)
		if parseErr == nil {
			parseErr = su.resolveSubmitterName(sub)
		}
		if parseErr != nil {
			logger.WarnContext(
				ctx, "skipping unparseable masterlist post",
				"message_id", msg.ID,
				tint.Err(parseErr),
			)
			problemSubs = append(
				problemSubs,
				jumpURL(su.config.Discord.GuildID, channelID, msg.ID),
			)
			continue
		}
		if err = wks.AppendRow(ctx, sub.SheetRow(msg.ID)); err != nil {
			return err
		}
	}

	logger.InfoContext(ctx, "worksheet updated")
	if err = su.discord.channelMessageSend(
		reportChannelID, fmt.Sprintf("%s sheet updated.", masterlist.Upper()),
	); err != nil {
		return err
	}

	if len(problemSubs) > 0 {
		if err = su.discord.channelMessageSend(
			reportChannelID,
			fmt.Sprintf("Problem subs in %s:", masterlist.Upper()),
		); err != nil {
			return err
		}
		return su.discord.sendLong(
			reportChannelID, strings.Join(problemSubs, "\n"),
		)
	}
	return nil
}

// resolveSubmitterName fills in the submitter's display name, which a
// masterlist post only carries as a user ID mention.
func (su *Supermod) resolveSubmitterName(sub *Submission) error {
	user, err := su.discord.session.User(sub.SubmitterID)
	if err != nil {
		return err
	}
	sub.SubmitterName = displayName(user)
	return nil
}

// sheetToMasterlist purges a masterlist channel and reposts its
// worksheet rows in a random order. The reposted messages get their
// worksheet rows rebuilt by a following updateSubsSheet pass.
func (su *Supermod) sheetToMasterlist(
	ctx context.Context,
	reportChannelID string,
	masterlist Masterlist,
) error {
	logger := su.logger.With("masterlist", masterlist)
	logger.InfoContext(ctx, "updating masterlist channel")
	if err := su.discord.channelMessageSend(
		reportChannelID,
		fmt.Sprintf("Updating %s masterlist.", masterlist.Upper()),
	); err != nil {
		return err
	}

	channelID := su.config.Discord.Channels.MasterlistChannel(masterlist)
	if channelID == "" {
		return fmt.Errorf("no channel configured for masterlist %s", masterlist)
	}

	msgs, err := su.discord.session.ChannelMessages(
		channelID, channelMessagesPageLimit, "", "", "",
	)
	if err != nil {
		return err
	}
	for _, msg := range msgs {
		if err = su.discord.session.ChannelMessageDelete(channelID, msg.ID); err != nil {
			return err
		}
	}

	rows, err := su.masterlistWorksheet(masterlist).Rows(ctx)
	if err != nil {
		return err
	}
	albums := dataRows(rows)
	rand.Shuffle(
		len(albums), func(i, j int) {
			albums[i], albums[j] = albums[j], albums[i]
		},
	)
	for _, row := range albums {
		if len(row) < 6 {
			continue
		}
		sub := &Submission{
			Album:         NewAlbum(row[1], row[0], row[2], row[3]),
			SubmitterName: row[4],
			SubmitterID:   row[5],
			Masterlist:    masterlist,
			MasterlistOK:  true,
			Request:       RequestAdd,
		}
		if _, err = su.discord.session.ChannelMessageSend(
			channelID, sub.MasterlistFormat(),
		); err != nil {
			return err
		}
	}

	logger.InfoContext(ctx, "masterlist channel updated")
	return su.discord.channelMessageSend(
		reportChannelID,
		fmt.Sprintf(
			"%s masterlist has been updated in a random order.", masterlist.Upper(),
		),
	)
}

// runSheetSync is the scheduled worksheet rebuild. It skips the run
// entirely when the bot is paused or a moderator flow holds the update
// guard.
func (su *Supermod) runSheetSync(ctx context.Context) {
	if su.Paused() {
		su.logger.InfoContext(ctx, "sheet sync skipped, bot paused")
		return
	}
	if !su.beginUpdate() {
		su.logger.InfoContext(ctx, "sheet sync skipped, update in progress")
		return
	}
	defer su.endUpdate()

	reportChannelID := su.config.Discord.Channels.Approval
	for _, masterlist := range Masterlists {
		if err := su.updateSubsSheet(ctx, reportChannelID, masterlist); err != nil {
			su.logger.ErrorContext(
				ctx, "scheduled sheet sync failed",
				"masterlist", masterlist,
				tint.Err(err),
			)
			return
		}
	}
}
