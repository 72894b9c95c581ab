package supermod

import "strings"

// Masterlist identifies one of the fixed album categories. Each masterlist is
// bound to one discord channel and one worksheet of the submissions
// spreadsheet (the worksheet title is the upper-cased masterlist name).
type Masterlist string

const (
	MasterlistVoted    Masterlist = "voted"
	MasterlistNew      Masterlist = "new"
	MasterlistModern   Masterlist = "modern"
	MasterlistClassic  Masterlist = "classic"
	MasterlistTheme    Masterlist = "theme"
	MasterlistAnything Masterlist = "anything"
)

// Masterlists lists every masterlist in display order.
var Masterlists = []Masterlist{
	MasterlistVoted,
	MasterlistNew,
	MasterlistModern,
	MasterlistClassic,
	MasterlistTheme,
	MasterlistAnything,
}

// ParseMasterlist normalizes a masterlist name from user input. The second
// return value is false for names outside the fixed set.
func ParseMasterlist(s string) (Masterlist, bool) {
	m := Masterlist(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Masterlists {
		if m == known {
			return m, true
		}
	}
	return "", false
}

func (m Masterlist) String() string { return string(m) }

// WorksheetTitle returns the title of the worksheet backing this masterlist.
func (m Masterlist) WorksheetTitle() string { return strings.ToUpper(string(m)) }

// Upper is the display form used in bot replies ("NEW masterlist").
func (m Masterlist) Upper() string { return strings.ToUpper(string(m)) }
