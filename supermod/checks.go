package supermod

import "fmt"

// Warning identifies the reason a pending submission needs moderator
// attention before it can be approved.
type Warning int

const (
	// WarningNone means the submission passed every check.
	WarningNone Warning = iota

	// WarningDiscussed means the album already appears on the list of
	// albums the server has discussed in a previous week.
	WarningDiscussed

	// WarningDuplicate means the album is already posted in the target
	// masterlist.
	WarningDuplicate

	// WarningAlreadySubmitted means the submitter already has an album in
	// the target masterlist.
	WarningAlreadySubmitted
)

func (w Warning) String() string {
	switch w {
	case WarningNone:
		return "none"
	case WarningDiscussed:
		return "discussed"
	case WarningDuplicate:
		return "duplicate"
	case WarningAlreadySubmitted:
		return "user already in masterlist"
	default:
		return fmt.Sprintf("Warning(%d)", int(w))
	}
}

// sheetEntry is one masterlist row as read back from the submissions
// spreadsheet, reduced to the columns the checks compare against.
type sheetEntry struct {
	Title       string
	Artist      string
	SubmitterID string
	MessageID   string
}

// discussedAlbum is one row of the discussed-albums worksheet.
type discussedAlbum struct {
	Title  string
	Artist string
	Week   string
}

// checkData holds everything checkSubmission compares a pending
// submission against. It is fetched once per approval run so repeated
// checks do not re-read the spreadsheet.
type checkData struct {
	existing  map[Masterlist][]sheetEntry
	discussed []discussedAlbum
}

// newCheckData builds checkData from raw worksheet rows. Masterlist rows
// follow the sheet column order (title, artist, genres, date, submitter
// name, submitter ID, message ID); discussed rows are (title, artist,
// week). Header rows must already be stripped. Rows too short to carry
// the compared columns are skipped.
func newCheckData(
	existingRows map[Masterlist][][]string,
	discussedRows [][]string,
) *checkData {
	cd := &checkData{
		existing: make(map[Masterlist][]sheetEntry, len(existingRows)),
	}
	for masterlist, rows := range existingRows {
		entries := make([]sheetEntry, 0, len(rows))
		for _, row := range rows {
			if len(row) < sheetColumnCount {
				continue
			}
			entries = append(
				entries, sheetEntry{
					Title:       row[0],
					Artist:      row[1],
					SubmitterID: row[5],
					MessageID:   row[6],
				},
			)
		}
		cd.existing[masterlist] = entries
	}
	for _, row := range discussedRows {
		if len(row) < 3 {
			continue
		}
		cd.discussed = append(
			cd.discussed, discussedAlbum{
				Title:  row[0],
				Artist: row[1],
				Week:   row[2],
			},
		)
	}
	return cd
}

// checkSubmission runs the approval checks in fixed order (discussed,
// then duplicate, then repeat submitter) and records the first failure
// on the submission. The repeat-submitter check does not apply to
// replacement requests, since those remove the prior entry.
func (cd *checkData) checkSubmission(sub *Submission) {
	for _, d := range cd.discussed {
		if d.Title == sub.Title && d.Artist == sub.Artist {
			sub.Warning = WarningDiscussed
			sub.WarningRef = d.Week
			return
		}
	}

	entries := cd.existing[sub.Masterlist]
	for _, e := range entries {
		if e.Title == sub.Title && e.Artist == sub.Artist {
			sub.Warning = WarningDuplicate
			sub.WarningRef = e.MessageID
			return
		}
	}

	if sub.Request == RequestReplace {
		return
	}
	for _, e := range entries {
		if e.SubmitterID == sub.SubmitterID {
			sub.Warning = WarningAlreadySubmitted
			sub.WarningRef = e.MessageID
			return
		}
	}
}

// checklistNote renders the moderator-facing warning line appended to a
// checklist entry. link is the jump URL of the conflicting masterlist
// post and is ignored for WarningDiscussed.
func (w Warning) checklistNote(sub *Submission, link string) string {
	switch w {
	case WarningDiscussed:
		return fmt.Sprintf(
			"**WARNING:** This album seems to have been discussed already on week %s.",
			sub.WarningRef,
		)
	case WarningDuplicate:
		return fmt.Sprintf(
			"**WARNING:** This album seems to be in %s already. "+
				"Link to existing submission: <%s>.",
			sub.Masterlist.Upper(),
			link,
		)
	case WarningAlreadySubmitted:
		return fmt.Sprintf(
			"**WARNING:** %s (%s) seems to have a submission in %s already. "+
				"Link to existing submission: <%s>.",
			sub.SubmitterName,
			sub.SubmitterID,
			sub.Masterlist.Upper(),
			link,
		)
	default:
		return ""
	}
}

// submitReply renders the warning shown to the submitter themselves when
// the submit command runs the checks.
func (w Warning) submitReply(sub *Submission, link string) string {
	switch w {
	case WarningDiscussed:
		return fmt.Sprintf(
			"**WARNING:** This album seems to have been discussed already on week %s.",
			sub.WarningRef,
		)
	case WarningDuplicate:
		return fmt.Sprintf(
			"**WARNING:** This album seems to be in %s already. "+
				"Link to existing submission: <%s>.",
			sub.Masterlist.Upper(),
			link,
		)
	case WarningAlreadySubmitted:
		return fmt.Sprintf(
			"**WARNING:** You seem to have a submission in %s already. "+
				"Link to existing submission: <%s>.",
			sub.Masterlist.Upper(),
			link,
		)
	default:
		return ""
	}
}
