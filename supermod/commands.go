package supermod

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// commandHello is a liveness check with some character.
func (su *Supermod) commandHello(
	_ context.Context,
	m *discordgo.MessageCreate,
	_ string,
) error {
	return su.discord.channelMessageSend(
		m.ChannelID, "It's fine now. Why? Because I am here!",
	)
}

// masterlistWorksheet returns the worksheet mirroring the given
// masterlist's channel.
func (su *Supermod) masterlistWorksheet(masterlist Masterlist) Worksheet {
	return su.sheets.Worksheet(
		su.config.Sheets.SubmissionsURL, masterlist.WorksheetTitle(),
	)
}

// commandMySubs reports the caller's current submission in one
// masterlist, or in all of them when no masterlist is given.
func (su *Supermod) commandMySubs(
	ctx context.Context,
	m *discordgo.MessageCreate,
	args string,
) error {
	retrieve := func(masterlist Masterlist) (string, error) {
		rows, err := su.masterlistWorksheet(masterlist).Rows(ctx)
		if err != nil {
			return "", err
		}
		for i, row := range rows {
			if i == 0 || len(row) < sheetColumnCount {
				continue
			}
			if row[5] == m.Author.ID {
				return fmt.Sprintf(
					"%s: %s by %s (%s) (%s)",
					masterlist.Upper(), row[0], row[1], row[2], row[3],
				), nil
			}
		}
		return fmt.Sprintf("%s: No submission.", masterlist.Upper()), nil
	}

	if args == "" {
		lines := make([]string, 0, len(Masterlists))
		for _, masterlist := range Masterlists {
			line, err := retrieve(masterlist)
			if err != nil {
				return err
			}
			lines = append(lines, line)
		}
		return su.discord.sendLong(
			m.ChannelID,
			fmt.Sprintf(
				"<@!%s> submissions:\n\n%s",
				m.Author.ID,
				strings.Join(lines, "\n"),
			),
		)
	}

	masterlist, ok := ParseMasterlist(args)
	if !ok {
		return su.discord.channelMessageSend(
			m.ChannelID,
			"Please provide a valid masterlist name, or no name if you wish "+
				"to see all your submissions.",
		)
	}
	line, err := retrieve(masterlist)
	if err != nil {
		return err
	}
	return su.discord.channelMessageSend(
		m.ChannelID,
		fmt.Sprintf("<@!%s> submission for %s", m.Author.ID, line),
	)
}

// commandSubmit lets a staff member add a submission manually, using
// the usual submission format.
func (su *Supermod) commandSubmit(
	ctx context.Context,
	m *discordgo.MessageCreate,
	_ string,
) error {
	if !su.beginUpdate() {
		return errUpdateInProgress
	}
	defer su.endUpdate()

	err := su.discord.channelMessageSend(
		m.ChannelID,
		"You have 5 minutes to respond with your submission, "+
			"or with 'stop' to stop the submission process.",
	)
	if err != nil {
		return err
	}

	response, err := su.discord.AwaitMessage(
		ctx, m.ChannelID, m.Author.ID, su.config.Discord.PromptTimeout,
	)
	if err != nil {
		return err
	}
	if strings.EqualFold(strings.TrimSpace(response.Content), "stop") {
		return su.discord.channelMessageSend(
			m.ChannelID, "The submission process has stopped.",
		)
	}

	var sub *Submission
	switch result := ParseSubmission(response).(type) {
	case *Submission:
		sub = result
	case *SubmissionError:
		return su.discord.channelMessageSend(
			m.ChannelID,
			"There is something wrong with the format of your submission.",
		)
	}
	if !sub.MasterlistOK {
		return su.discord.channelMessageSend(
			m.ChannelID,
			"There is something wrong with the format of your submission.",
		)
	}

	cd, err := su.fetchCheckData(ctx, scopeOne(sub.Masterlist))
	if err != nil {
		return err
	}
	cd.checkSubmission(sub)
	if sub.Warning != WarningNone {
		return su.discord.channelMessageSend(
			m.ChannelID,
			sub.Warning.submitReply(sub, su.warningLink(sub)),
		)
	}

	return su.submitAlbum(ctx, sub, m.Author.ID)
}

// warningLink builds the jump URL for the conflicting masterlist post a
// duplicate or repeat-submitter warning refers to.
func (su *Supermod) warningLink(sub *Submission) string {
	if sub.Warning != WarningDuplicate && sub.Warning != WarningAlreadySubmitted {
		return ""
	}
	return jumpURL(
		su.config.Discord.GuildID,
		su.config.Discord.Channels.MasterlistChannel(sub.Masterlist),
		sub.WarningRef,
	)
}

// commandGetRandom picks a random album from a masterlist, or one from
// each masterlist except 'voted' when no masterlist is given.
func (su *Supermod) commandGetRandom(
	ctx context.Context,
	m *discordgo.MessageCreate,
	args string,
) error {
	pick := func(masterlist Masterlist) error {
		sub, err := su.randomAlbum(ctx, masterlist)
		if err != nil {
			return err
		}
		return su.discord.channelMessageSend(
			m.ChannelID,
			fmt.Sprintf("%s choice: %s", masterlist.Upper(), sub.MasterlistFormat()),
		)
	}

	if args == "" {
		for _, masterlist := range Masterlists {
			if masterlist == MasterlistVoted {
				continue
			}
			if err := pick(masterlist); err != nil {
				return err
			}
		}
		return nil
	}

	masterlist, ok := ParseMasterlist(args)
	if !ok {
		return su.discord.channelMessageSend(
			m.ChannelID,
			"Please provide a valid masterlist name, or no name if you wish "+
				"to get a random album from every masterlist (except 'voted').",
		)
	}
	return pick(masterlist)
}

// randomAlbum picks a random data row from a masterlist's worksheet.
func (su *Supermod) randomAlbum(
	ctx context.Context,
	masterlist Masterlist,
) (*Submission, error) {
	rows, err := su.masterlistWorksheet(masterlist).Rows(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("no submissions in %s", masterlist.Upper())
	}
	row := rows[1+rand.Intn(len(rows)-1)]
	if len(row) < sheetColumnCount {
		return nil, fmt.Errorf("malformed row in %s", masterlist.Upper())
	}
	sub := &Submission{
		Album:         NewAlbum(row[1], row[0], row[2], row[3]),
		SubmitterName: row[4],
		SubmitterID:   row[5],
		Masterlist:    masterlist,
		MasterlistOK:  true,
	}
	return sub, nil
}
