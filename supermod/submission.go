package supermod

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// RequestKind distinguishes a fresh submission from a replacement of the
// submitter's existing masterlist entry.
type RequestKind string

const (
	RequestAdd     RequestKind = "add"
	RequestReplace RequestKind = "replace"
)

// ParseResult is either a *Submission or a *SubmissionError. Parsing a batch
// of channel messages yields one ParseResult per message; malformed messages
// become SubmissionError values so the rest of the batch survives.
type ParseResult interface {
	isParseResult()

	// OriginMessage returns the channel message the result was parsed from.
	// May be nil for submissions rebuilt from spreadsheet rows.
	OriginMessage() *discordgo.Message
}

// Submission is a parsed album submission under moderator review. It exists
// only for the duration of a review cycle; its durable representations are
// the spreadsheet row appended on acceptance and the rendered masterlist
// post.
type Submission struct {
	Album
	SubmitterName string
	SubmitterID   string
	Masterlist    Masterlist

	// MasterlistOK is false when the masterlist field was missing or not one
	// of the fixed set.
	MasterlistOK bool

	Request RequestKind
	Warning Warning

	// WarningRef carries the week number (discussed) or the conflicting
	// message ID (duplicate / already submitted) attached by the cross-check
	// engine.
	WarningRef string

	// message is the originating submissions-channel message; not owned.
	message *discordgo.Message
}

func (*Submission) isParseResult() {}

func (s *Submission) OriginMessage() *discordgo.Message { return s.message }

// SubmissionError marks a message that could not be parsed as a submission.
type SubmissionError struct {
	message *discordgo.Message
}

func (*SubmissionError) isParseResult() {}

func (e *SubmissionError) OriginMessage() *discordgo.Message { return e.message }

var errBadSubmissionFormat = errors.New("submission does not have 5 '//'-delimited fields")

// ParseSubmission parses a submissions-channel message into a Submission, or
// a SubmissionError if the wire format does not hold. The wire format is
//
//	[replace ... with ][:]Title // Artist // Date // Genres // Masterlist
func ParseSubmission(m *discordgo.Message) ParseResult {
	sub, err := parseSubmissionText(m.Content)
	if err != nil {
		return &SubmissionError{message: m}
	}
	sub.message = m
	if m.Author != nil {
		sub.SubmitterName = displayName(m.Author)
		sub.SubmitterID = m.Author.ID
	}
	return sub
}

func parseSubmissionText(content string) (*Submission, error) {
	request := RequestAdd
	text := content
	if strings.HasPrefix(strings.ToLower(text), "replace") {
		request = RequestReplace
		idx := strings.Index(strings.ToLower(text), "with")
		if idx < 0 {
			return nil, errBadSubmissionFormat
		}
		text = text[idx+len("with"):]
	}
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, ":")

	fields := strings.Split(text, "//")
	if len(fields) != 5 {
		return nil, errBadSubmissionFormat
	}
	for _, field := range fields {
		if strings.TrimSpace(field) == "" {
			return nil, errBadSubmissionFormat
		}
	}

	sub := &Submission{
		Album:   NewAlbum(fields[1], fields[0], fields[3], fields[2]),
		Request: request,
	}
	sub.Masterlist, sub.MasterlistOK = ParseMasterlist(fields[4])
	return sub, nil
}

// displayName mirrors discord's display-name resolution: the global name
// when set, otherwise the username.
func displayName(u *discordgo.User) string {
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

// SearchLink returns a google search URL for the album, included in the
// moderator checklist.
func (s *Submission) SearchLink() string {
	return "https://www.google.com/search?q=" + url.QueryEscape(s.Artist+" "+s.Title)
}

// MasterlistFormatNoMention renders the masterlist post without the
// submitter mention.
func (s *Submission) MasterlistFormatNoMention() string {
	return fmt.Sprintf(
		"%s _by_ %s (%s) (%s)",
		s.Title,
		s.Artist,
		s.ReleaseDate,
		strings.Join(s.Genres, ", "),
	)
}

// MasterlistFormat renders the full masterlist post. Reconciliation jobs
// reverse-parse this exact template, so its shape is load-bearing.
func (s *Submission) MasterlistFormat() string {
	return s.MasterlistFormatNoMention() + fmt.Sprintf(" <@!%s>", s.SubmitterID)
}

// ChecklistLine renders the moderator checklist entry for this submission.
func (s *Submission) ChecklistLine() string {
	return fmt.Sprintf(
		"Album: **%s**, submitted by **%s** (%s), request: **%s** in **%s**, link: %s",
		s.MasterlistFormatNoMention(),
		s.SubmitterName,
		s.SubmitterID,
		s.Request,
		s.Masterlist.Upper(),
		s.SearchLink(),
	)
}

// sheetColumnCount is the number of columns in a masterlist worksheet
// row: title, artist, genres, release date, submitter name, submitter
// ID, and the masterlist post's message ID.
const sheetColumnCount = 7

// SheetRow renders the spreadsheet row appended when the submission is
// accepted. postedMessageID is the ID of the masterlist post.
func (s *Submission) SheetRow(postedMessageID string) []string {
	return []string{
		s.Title,
		s.Artist,
		strings.Join(s.Genres, ", "),
		s.ReleaseDate,
		s.SubmitterName,
		s.SubmitterID,
		postedMessageID,
	}
}

var errBadMasterlistPost = errors.New("message does not match the masterlist post template")

// ParseMasterlistPost reverse-parses a bot-authored masterlist post
// (`Title _by_ Artist (Date) (Genres) <@!ID>`) back into a Submission.
// Manual edits that break the template surface as an error; the caller
// collects those as problem rows instead of aborting the batch.
func ParseMasterlistPost(content string, masterlist Masterlist) (*Submission, error) {
	title, rest, found := strings.Cut(content, "_by_")
	if !found {
		return nil, errBadMasterlistPost
	}
	artist, rest, found := strings.Cut(rest, "(")
	if !found {
		return nil, errBadMasterlistPost
	}
	date, rest, found := strings.Cut(rest, ")")
	if !found {
		return nil, errBadMasterlistPost
	}
	genres, rest, err := nextParenField(rest)
	if err != nil {
		return nil, err
	}
	submitterID := digitsOnly(rest)
	if submitterID == "" {
		return nil, errBadMasterlistPost
	}

	sub := &Submission{
		Album:       NewAlbum(artist, title, genres, date),
		SubmitterID: submitterID,
		Masterlist:  masterlist,
	}
	sub.MasterlistOK = true
	return sub, nil
}

// nextParenField extracts the next "(...)" group from s, returning the group
// content and the remainder after the closing parenthesis.
func nextParenField(s string) (field, rest string, err error) {
	_, after, found := strings.Cut(s, "(")
	if !found {
		return "", "", errBadMasterlistPost
	}
	field, rest, found = strings.Cut(after, ")")
	if !found {
		return "", "", errBadMasterlistPost
	}
	return field, rest, nil
}
