package supermod

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

// The question worksheet's columns: type ("Question" or "Activity"),
// repeatable flag ("Y" or "N"), content, and times used.
const (
	qotdColType = iota
	qotdColRepeatable
	qotdColContent
	qotdColUses
)

var errNoQuestions = errors.New("no eligible questions left")

// qotdPick chooses a random eligible question. Non-repeatable questions
// that have already been used are passed over.
func qotdPick(rows [][]string) (int, []string, error) {
	var eligible []int
	for i, row := range rows {
		if cell(row, qotdColContent) == "" {
			continue
		}
		switch cell(row, qotdColRepeatable) {
		case "Y":
			eligible = append(eligible, i)
		case "N":
			if cell(row, qotdColUses) == "" {
				eligible = append(eligible, i)
			}
		}
	}
	if len(eligible) == 0 {
		return 0, nil, errNoQuestions
	}
	picked := eligible[rand.Intn(len(eligible))]
	return picked, rows[picked], nil
}

// qotdWorksheet is the first tab of the questions spreadsheet.
func (su *Supermod) qotdWorksheet(ctx context.Context) (Worksheet, error) {
	return su.sheets.WorksheetByIndex(ctx, su.config.Sheets.QOTDURL, 0)
}

// markQuestionUsed increments the question's use counter.
func markQuestionUsed(
	ctx context.Context,
	wks Worksheet,
	rows [][]string,
	row int,
) error {
	uses, _ := strconv.Atoi(cell(rows[row], qotdColUses))
	return wks.UpdateCell(ctx, row, qotdColUses, strconv.Itoa(uses+1))
}

// postQOTD publishes a question to the QOTD channel and marks it used.
// overwrite substitutes an edited text while still counting the use
// against the original question.
func (su *Supermod) postQOTD(
	ctx context.Context,
	wks Worksheet,
	rows [][]string,
	row int,
	overwrite string,
	reportChannelID string,
) error {
	content := cell(rows[row], qotdColContent)
	if overwrite != "" {
		content = overwrite
	}
	now := su.now()
	dateStr := fmt.Sprintf(
		"%02d/%d/%d", int(now.Month()), now.Day(), now.Year(),
	)
	if err := su.discord.channelMessageSend(
		su.config.Discord.Channels.QOTD,
		fmt.Sprintf(
			"__**%s of the Day %s:**__\n\n%s",
			cell(rows[row], qotdColType), dateStr, content,
		),
	); err != nil {
		return err
	}
	if err := markQuestionUsed(ctx, wks, rows, row); err != nil {
		return err
	}
	return su.discord.channelMessageSend(
		reportChannelID, fmt.Sprintf("QOTD has been posted (%s).", dateStr),
	)
}

// qotdInteract proposes a random question in the given channel and acts
// on the moderator's reaction: a checkmark posts it, an X rejects it,
// and the E marker collects an edited version to post instead.
func (su *Supermod) qotdInteract(
	ctx context.Context,
	channelID string,
	timeout time.Duration,
) error {
	wks, err := su.qotdWorksheet(ctx)
	if err != nil {
		return err
	}
	rows, err := wks.Rows(ctx)
	if err != nil {
		return err
	}
	row, question, err := qotdPick(rows)
	if err != nil {
		return err
	}

	proposal, err := su.discord.session.ChannelMessageSend(
		channelID, cell(question, qotdColContent),
	)
	if err != nil {
		return err
	}
	for _, emoji := range []string{emojiUsed, emojiRejected, emojiEdited} {
		if err = su.discord.session.MessageReactionAdd(
			channelID, proposal.ID, emoji,
		); err != nil {
			return err
		}
	}

	verdict, reactorID, err := su.discord.AwaitReaction(
		ctx, proposal.ID, "",
		[]string{emojiUsed, emojiRejected, emojiEdited},
		timeout,
	)
	if err != nil {
		return err
	}
	switch verdict {
	case emojiUsed:
		return su.postQOTD(ctx, wks, rows, row, "", channelID)
	case emojiRejected:
		return su.discord.channelMessageSend(channelID, "The QOTD was rejected.")
	case emojiEdited:
		return su.qotdEdit(ctx, wks, rows, row, channelID, reactorID)
	}
	return nil
}

// qotdEdit collects an edited question text from the reacting moderator
// and posts it after a second confirmation pass.
func (su *Supermod) qotdEdit(
	ctx context.Context,
	wks Worksheet,
	rows [][]string,
	row int,
	channelID string,
	editorID string,
) error {
	kind := strings.ToLower(cell(rows[row], qotdColType))
	if err := su.discord.channelMessageSend(
		channelID,
		fmt.Sprintf(
			"Respond with an edited version of the %s "+
				"which I will post instead (I will mark the original %s "+
				"as used in the spreadsheet without changing its template). "+
				"Respond with 'stop' if you want me to stop waiting for a response.",
			kind, kind,
		),
	); err != nil {
		return err
	}

	response, err := su.discord.AwaitMessage(
		ctx, channelID, editorID, 10*time.Minute,
	)
	if err != nil {
		return err
	}
	if strings.EqualFold(strings.TrimSpace(response.Content), "stop") {
		return su.discord.channelMessageSend(
			channelID, "The QOTD editing process has stopped.",
		)
	}

	if err = su.discord.channelMessageSend(
		channelID, "The following will be posted as QOTD:",
	); err != nil {
		return err
	}
	preview, err := su.discord.session.ChannelMessageSend(
		channelID, response.Content,
	)
	if err != nil {
		return err
	}
	for _, emoji := range []string{emojiUsed, emojiRejected} {
		if err = su.discord.session.MessageReactionAdd(
			channelID, preview.ID, emoji,
		); err != nil {
			return err
		}
	}

	verdict, _, err := su.discord.AwaitReaction(
		ctx, preview.ID, "",
		[]string{emojiUsed, emojiRejected},
		time.Minute,
	)
	if err != nil {
		return err
	}
	if verdict == emojiUsed {
		return su.postQOTD(ctx, wks, rows, row, response.Content, channelID)
	}
	return su.discord.channelMessageSend(channelID, "The QOTD was rejected.")
}

// commandQOTD runs the question approval flow in the invoking channel.
func (su *Supermod) commandQOTD(
	ctx context.Context,
	m *discordgo.MessageCreate,
	_ string,
) error {
	return su.qotdInteract(ctx, m.ChannelID, time.Minute)
}

// commandQOTDAdd walks a moderator through adding a question to the
// spreadsheet.
func (su *Supermod) commandQOTDAdd(
	ctx context.Context,
	m *discordgo.MessageCreate,
	_ string,
) error {
	if err := su.discord.channelMessageSend(
		m.ChannelID, "Respond with 'stop' at any point to stop the process.",
	); err != nil {
		return err
	}

	stopped := "The QOTD submission process has stopped."
	confused := "I don't know what you mean by '%s'. " +
		"Please start the QOTD submission process again."

	prompt := func(text string, timeout time.Duration) (string, bool, error) {
		if err := su.discord.channelMessageSend(m.ChannelID, text); err != nil {
			return "", false, err
		}
		response, err := su.discord.AwaitMessage(
			ctx, m.ChannelID, m.Author.ID, timeout,
		)
		if err != nil {
			return "", false, err
		}
		if strings.EqualFold(strings.TrimSpace(response.Content), "stop") {
			return "", true, su.discord.channelMessageSend(m.ChannelID, stopped)
		}
		return response.Content, false, nil
	}

	answer, stop, err := prompt("QOTD type (Question / Activity):", 30*time.Second)
	if err != nil || stop {
		return err
	}
	var qotdType string
	switch {
	case strings.HasPrefix(strings.ToLower(answer), "q"):
		qotdType = "Question"
	case strings.HasPrefix(strings.ToLower(answer), "a"):
		qotdType = "Activity"
	default:
		return su.discord.channelMessageSend(
			m.ChannelID, fmt.Sprintf(confused, answer),
		)
	}

	answer, stop, err = prompt("Repeatable (Yes / No):", 30*time.Second)
	if err != nil || stop {
		return err
	}
	var repeatable, repeatableLong string
	switch {
	case strings.HasPrefix(strings.ToLower(answer), "y"):
		repeatable, repeatableLong = "Y", "repeatable"
	case strings.HasPrefix(strings.ToLower(answer), "n"):
		repeatable, repeatableLong = "N", "non-repeatable"
	default:
		return su.discord.channelMessageSend(
			m.ChannelID, fmt.Sprintf(confused, answer),
		)
	}

	content, stop, err := prompt("QOTD content:", 3*time.Minute)
	if err != nil || stop {
		return err
	}

	answer, stop, err = prompt(
		fmt.Sprintf(
			"The %s '%s' (%s) will be added to the spreadsheet. "+
				"Do you want to submit (y/n)?",
			strings.ToLower(qotdType), content, repeatableLong,
		),
		30*time.Second,
	)
	if err != nil || stop {
		return err
	}
	switch {
	case strings.HasPrefix(strings.ToLower(answer), "y"):
		wks, err := su.qotdWorksheet(ctx)
		if err != nil {
			return err
		}
		if err = wks.AppendRow(
			ctx, []string{qotdType, repeatable, content},
		); err != nil {
			return err
		}
		return su.discord.channelMessageSend(
			m.ChannelID, "The QOTD was added to the spreadsheet.",
		)
	case strings.HasPrefix(strings.ToLower(answer), "n"):
		return su.discord.channelMessageSend(
			m.ChannelID, "The QOTD was not added to the spreadsheet.",
		)
	default:
		return su.discord.channelMessageSend(
			m.ChannelID, fmt.Sprintf(confused, answer),
		)
	}
}

// commandQOTDReset zeroes the use counter of every question.
func (su *Supermod) commandQOTDReset(
	ctx context.Context,
	m *discordgo.MessageCreate,
	_ string,
) error {
	wks, err := su.qotdWorksheet(ctx)
	if err != nil {
		return err
	}
	rows, err := wks.Rows(ctx)
	if err != nil {
		return err
	}
	for i, row := range rows {
		if cell(row, qotdColContent) == "" {
			continue
		}
		if err = wks.UpdateCell(ctx, i, qotdColUses, "0"); err != nil {
			return err
		}
	}
	return su.discord.channelMessageSend(
		m.ChannelID, "Number of uses for all questions set to 0.",
	)
}
