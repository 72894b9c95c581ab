package supermod

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// scopeKind selects which pending submissions an approval run covers.
type scopeKind int

const (
	// scopeAll covers every unreacted message in the submissions channel
	scopeAll scopeKind = iota

	// scopeMasterlist covers unreacted submissions for one masterlist
	scopeMasterlist

	// scopeErrors covers unreacted messages that failed to parse
	scopeErrors

	// scopeHalted covers messages previously parked with the halt marker
	scopeHalted
)

// approvalScope is the parsed scope argument of the approval command.
type approvalScope struct {
	kind       scopeKind
	masterlist Masterlist
}

func scopeOne(masterlist Masterlist) approvalScope {
	return approvalScope{kind: scopeMasterlist, masterlist: masterlist}
}

// parseApprovalScope interprets the approval command's optional
// argument: empty for everything, a masterlist name, 'error', or
// 'halted'.
func parseApprovalScope(arg string) (approvalScope, bool) {
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "":
		return approvalScope{kind: scopeAll}, true
	case "error":
		return approvalScope{kind: scopeErrors}, true
	case "halted":
		return approvalScope{kind: scopeHalted}, true
	}
	masterlist, ok := ParseMasterlist(arg)
	if !ok {
		return approvalScope{}, false
	}
	return scopeOne(masterlist), true
}

// includes reports whether a parse result belongs to the scope.
func (s approvalScope) includes(result ParseResult) bool {
	switch s.kind {
	case scopeAll, scopeHalted:
		return true
	case scopeErrors:
		_, isErr := result.(*SubmissionError)
		return isErr
	case scopeMasterlist:
		sub, isSub := result.(*Submission)
		return isSub && sub.MasterlistOK && sub.Masterlist == s.masterlist
	default:
		return false
	}
}

// emptyMessage is what the moderator sees when the scope matches no
// pending submissions.
func (s approvalScope) emptyMessage() string {
	switch s.kind {
	case scopeErrors:
		return "There are no new submissions with errors."
	case scopeHalted:
		return "There are no halted submissions."
	case scopeMasterlist:
		return fmt.Sprintf(
			"There are no new submissions for the %s masterlist.",
			s.masterlist.Upper(),
		)
	default:
		return "There are no new submissions."
	}
}

// pendingEntry is one numbered line of the moderator checklist.
type pendingEntry struct {
	index  string
	result ParseResult
}

// decision is the typed form of the moderator's verdict message.
type decision int

const (
	decisionUnknown decision = iota
	decisionStop
	decisionApprove
	decisionReject
	decisionHalt
	decisionUnhalt
)

// decodeDecision classifies a verdict by its leading keyword. Index
// arguments, if any, stay in the content and are parsed separately.
func decodeDecision(content string) decision {
	lowered := strings.ToLower(strings.TrimSpace(content))
	switch {
	case strings.HasPrefix(lowered, "stop"):
		return decisionStop
	case strings.HasPrefix(lowered, "ok"):
		return decisionApprove
	case strings.HasPrefix(lowered, "reject"):
		return decisionReject
	case strings.HasPrefix(lowered, "unhalt"):
		return decisionUnhalt
	case strings.HasPrefix(lowered, "halt"):
		return decisionHalt
	default:
		return decisionUnknown
	}
}

// fetchCheckData reads the worksheet rows the submission checks compare
// against. The masterlist worksheets are read per scope; the
// discussed-albums worksheet is always read when configured.
func (su *Supermod) fetchCheckData(
	ctx context.Context,
	scope approvalScope,
) (*checkData, error) {
	existing := map[Masterlist][][]string{}
	switch scope.kind {
	case scopeAll, scopeHalted:
		for _, masterlist := range Masterlists {
			rows, err := su.masterlistWorksheet(masterlist).Rows(ctx)
			if err != nil {
				return nil, err
			}
			existing[masterlist] = dataRows(rows)
		}
	case scopeMasterlist:
		rows, err := su.masterlistWorksheet(scope.masterlist).Rows(ctx)
		if err != nil {
			return nil, err
		}
		existing[scope.masterlist] = dataRows(rows)
	case scopeErrors:
		// parse failures have nothing to check against
	}

	var discussed [][]string
	if su.config.Sheets.AlbumsURL != "" && scope.kind != scopeErrors {
		wks, err := su.sheets.WorksheetByIndex(ctx, su.config.Sheets.AlbumsURL, 0)
		if err != nil {
			return nil, err
		}
		rows, err := wks.Rows(ctx)
		if err != nil {
			return nil, err
		}
		discussed = dataRows(rows)
	}

	return newCheckData(existing, discussed), nil
}

// dataRows strips the header row.
func dataRows(rows [][]string) [][]string {
	if len(rows) == 0 {
		return nil
	}
	return rows[1:]
}

// collectPending fetches the submissions channel and numbers the
// messages the scope covers. Halted scope keeps messages carrying the
// halt marker; every other scope keeps messages with no reactions.
func (su *Supermod) collectPending(scope approvalScope) ([]pendingEntry, error) {
	msgs, err := su.discord.session.ChannelMessages(
		su.config.Discord.Channels.Submissions,
		channelMessagesPageLimit,
		"", "", "",
	)
	if err != nil {
		return nil, err
	}

	var entries []pendingEntry
	for _, msg := range msgs {
		if scope.kind == scopeHalted {
			if !hasReaction(msg, emojiHalted) {
				continue
			}
		} else if !unprocessed(msg) {
			continue
		}
		result := ParseSubmission(msg)
		if !scope.includes(result) {
			continue
		}
		entries = append(
			entries, pendingEntry{
				index:  fmt.Sprint(len(entries) + 1),
				result: result,
			},
		)
	}
	return entries, nil
}

// commandSubs fetches pending submissions, posts the checklist, and
// waits for the moderator's verdict.
func (su *Supermod) commandSubs(
	ctx context.Context,
	m *discordgo.MessageCreate,
	args string,
) error {
	scope, ok := parseApprovalScope(args)
	if !ok {
		return su.discord.channelMessageSend(
			m.ChannelID,
			"Please provide a valid masterlist, or 'error' if you want to fetch all "+
				"new submissions with errors, or no masterlist if you want to fetch all "+
				"new submissions from all lists (including those with errors).",
		)
	}

	if !su.beginUpdate() {
		return errUpdateInProgress
	}
	defer su.endUpdate()

	entries, err := su.collectPending(scope)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return su.discord.channelMessageSend(m.ChannelID, scope.emptyMessage())
	}

	cd, err := su.fetchCheckData(ctx, scope)
	if err != nil {
		return err
	}

	checklist := make([]string, 0, len(entries))
	for _, entry := range entries {
		switch result := entry.result.(type) {
		case *SubmissionError:
			origin := result.OriginMessage()
			checklist = append(
				checklist, fmt.Sprintf(
					"**%s.** Something went wrong with submission <%s>.",
					entry.index,
					jumpURL(m.GuildID, origin.ChannelID, origin.ID),
				),
			)
		case *Submission:
			cd.checkSubmission(result)
			line := fmt.Sprintf("**%s.** %s", entry.index, result.ChecklistLine())
			if result.Warning != WarningNone {
				line += "\n" + result.Warning.checklistNote(
					result, su.warningLink(result),
				)
			}
			checklist = append(checklist, line)
		}
	}
	if err = su.discord.sendLong(
		m.ChannelID, strings.Join(checklist, "\n\n"),
	); err != nil {
		return err
	}

	thirdOption := "· 'halt' followed by the numbers of the submissions you want to halt " +
		"for later consideration (separated by ',');\n"
	if scope.kind == scopeHalted {
		thirdOption = "· 'unhalt' followed by the numbers of the submissions you want to unhalt " +
			"(separated by ',');\n"
	}
	err = su.discord.channelMessageSend(
		m.ChannelID,
		"You have 30 minutes to respond with one of:\n"+
			"· 'ok' in order to approve all submissions without errors or warnings;\n"+
			"· 'reject' followed by the numbers of the submissions you want to reject "+
			"(separated by ',');\n"+
			thirdOption+
			"· 'stop' in order to stop the process.",
	)
	if err != nil {
		return err
	}

	response, err := su.discord.AwaitMessage(
		ctx, m.ChannelID, m.Author.ID, su.config.Discord.DecisionTimeout,
	)
	if err != nil {
		return err
	}

	switch decodeDecision(response.Content) {
	case decisionStop:
		return su.discord.channelMessageSend(
			m.ChannelID, "The submissions approval process has stopped.",
		)
	case decisionApprove:
		return su.approveAll(ctx, m, scope, entries)
	case decisionReject:
		return su.markByIndex(
			ctx, m, entries, response.Content, actionReject,
		)
	case decisionHalt:
		if scope.kind == scopeHalted {
			break
		}
		return su.markByIndex(
			ctx, m, entries, response.Content, actionHalt,
		)
	case decisionUnhalt:
		if scope.kind != scopeHalted {
			break
		}
		return su.markByIndex(
			ctx, m, entries, response.Content, actionUnhalt,
		)
	}
	return su.discord.channelMessageSend(
		m.ChannelID,
		fmt.Sprintf(
			"I don't know what you mean by '%s'. "+
				"Please start the submissions approval process again.",
			response.Content,
		),
	)
}

// approveAll posts every clean submission in scope to its masterlist.
func (su *Supermod) approveAll(
	ctx context.Context,
	m *discordgo.MessageCreate,
	scope approvalScope,
	entries []pendingEntry,
) error {
	if scope.kind == scopeErrors {
		return su.discord.channelMessageSend(
			m.ChannelID, "I can't add submissions with errors to the masterlist.",
		)
	}

	for _, entry := range entries {
		sub, isSub := entry.result.(*Submission)
		if !isSub || !sub.MasterlistOK || sub.Warning != WarningNone {
			continue
		}
		if scope.kind == scopeMasterlist && sub.Masterlist != scope.masterlist {
			continue
		}
		if scope.kind == scopeHalted {
			origin := sub.OriginMessage()
			if err := su.discord.session.MessageReactionsRemoveEmoji(
				origin.ChannelID, origin.ID, emojiHalted,
			); err != nil {
				return err
			}
		}
		if err := su.submitAlbum(ctx, sub, m.Author.ID); err != nil {
			return err
		}
	}

	if scope.kind == scopeMasterlist {
		return su.discord.channelMessageSend(
			m.ChannelID,
			fmt.Sprintf(
				"All new submissions without errors or warnings were added to the %s masterlist.",
				scope.masterlist.Upper(),
			),
		)
	}
	return su.discord.channelMessageSend(
		m.ChannelID,
		"All new submissions without errors or warnings were added to the masterlists.",
	)
}

// markByIndex applies a reject, halt or unhalt verdict to the numbered
// entries named in the verdict message.
func (su *Supermod) markByIndex(
	ctx context.Context,
	m *discordgo.MessageCreate,
	entries []pendingEntry,
	content string,
	action string,
) error {
	indices, err := parseIndexTokens(content)
	if err != nil {
		return err
	}

	byIndex := make(map[string]pendingEntry, len(entries))
	for _, entry := range entries {
		byIndex[entry.index] = entry
	}

	for _, index := range indices {
		entry, ok := byIndex[index]
		if !ok {
			return fmt.Errorf("no pending submission numbered %s", index)
		}
		origin := entry.result.OriginMessage()
		switch action {
		case actionReject:
			err = su.discord.session.MessageReactionAdd(
				origin.ChannelID, origin.ID, emojiRejected,
			)
		case actionHalt:
			err = su.discord.session.MessageReactionAdd(
				origin.ChannelID, origin.ID, emojiHalted,
			)
		case actionUnhalt:
			err = su.discord.session.MessageReactionsRemoveEmoji(
				origin.ChannelID, origin.ID, emojiHalted,
			)
		}
		if err != nil {
			return err
		}
		su.recordVerdict(ctx, entry.result, action, m.Author.ID)
	}

	verb := map[string]string{
		actionReject: "rejected",
		actionHalt:   "halted",
		actionUnhalt: "unhalted",
	}[action]
	if len(indices) == 1 {
		return su.discord.channelMessageSend(
			m.ChannelID, fmt.Sprintf("Album %s was %s.", indices[0], verb),
		)
	}
	return su.discord.channelMessageSend(
		m.ChannelID,
		fmt.Sprintf("Albums %s were %s.", strings.Join(indices, ", "), verb),
	)
}

// recordVerdict writes an audit row for a moderation decision.
func (su *Supermod) recordVerdict(
	ctx context.Context,
	result ParseResult,
	action string,
	moderatorID string,
) {
	record := &ModerationAction{
		Action:      action,
		ModeratorID: moderatorID,
	}
	if origin := result.OriginMessage(); origin != nil {
		record.MessageID = origin.ID
	}
	if sub, isSub := result.(*Submission); isSub {
		record.Masterlist = string(sub.Masterlist)
		record.Title = sub.Title
		record.Artist = sub.Artist
		record.SubmitterID = sub.SubmitterID
	}
	su.writeDB.RecordAction(ctx, record)
}

// submitAlbum posts an accepted submission to its masterlist channel and
// mirrors it into the spreadsheet. Replacement requests first remove the
// submitter's previous post and row.
func (su *Supermod) submitAlbum(
	ctx context.Context,
	sub *Submission,
	moderatorID string,
) error {
	wks := su.masterlistWorksheet(sub.Masterlist)
	channelID := su.config.Discord.Channels.MasterlistChannel(sub.Masterlist)
	if channelID == "" {
		return fmt.Errorf("no channel configured for masterlist %s", sub.Masterlist)
	}

	if sub.Request == RequestReplace {
		if err := su.removePreviousSubmission(ctx, sub, wks, channelID, moderatorID); err != nil {
			return err
		}
	}

	posted, err := su.discord.session.ChannelMessageSend(
		channelID, sub.MasterlistFormat(),
	)
	if err != nil {
		return err
	}
	if err = wks.AppendRow(ctx, sub.SheetRow(posted.ID)); err != nil {
		return err
	}

	if origin := sub.OriginMessage(); origin != nil {
		if err = su.discord.session.MessageReactionAdd(
			origin.ChannelID, origin.ID, emojiAccepted,
		); err != nil {
			return err
		}
	}

	record := &ModerationAction{
		Action:      actionAccept,
		Masterlist:  string(sub.Masterlist),
		Title:       sub.Title,
		Artist:      sub.Artist,
		SubmitterID: sub.SubmitterID,
		MessageID:   posted.ID,
		ModeratorID: moderatorID,
	}
	su.writeDB.RecordAction(ctx, record)
	return nil
}

// removePreviousSubmission deletes the submitter's existing masterlist
// post and worksheet row ahead of a replacement. The outgoing row is
// logged before deletion so a failed replacement can be reconstructed.
func (su *Supermod) removePreviousSubmission(
	ctx context.Context,
	sub *Submission,
	wks Worksheet,
	channelID string,
	moderatorID string,
) error {
	rows, err := wks.Rows(ctx)
	if err != nil {
		return err
	}
	for i, row := range rows {
		if i == 0 || len(row) < sheetColumnCount || row[5] != sub.SubmitterID {
			continue
		}
		su.logger.InfoContext(
			ctx,
			"removing replaced submission",
			"masterlist", sub.Masterlist,
			"row", strings.Join(row, " | "),
		)
		if err = su.discord.session.ChannelMessageDelete(channelID, row[6]); err != nil {
			return err
		}
		if err = wks.DeleteRow(ctx, i); err != nil {
			return err
		}
		su.writeDB.RecordAction(
			ctx, &ModerationAction{
				Action:      actionReplace,
				Masterlist:  string(sub.Masterlist),
				Title:       row[0],
				Artist:      row[1],
				SubmitterID: sub.SubmitterID,
				MessageID:   row[6],
				ModeratorID: moderatorID,
			},
		)
		return nil
	}
	return nil
}
