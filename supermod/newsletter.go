package supermod

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

const (
	newsletterContributeLine = "Feel free to contribute to our ever-growing " +
		"newsletter by a DM to Seffial!"
	newsletterInviteLine  = "https://discord.com/invite/atDujWqf9P"
	newsletterClosingLine = "Happy Listening!"

	// newsletterFirstYear is the earliest year the albums spreadsheet
	// covers.
	newsletterFirstYear = 2021

	// newsHeaderRows is how many rows of the weekly albums worksheet are
	// headers and notes rather than releases.
	newsHeaderRows = 5
)

// weekNumber is the one-based week of the year, counted in whole
// seven-day blocks from January 1st.
func weekNumber(date time.Time) int {
	startOfYear := time.Date(date.Year(), 1, 1, 0, 0, 0, 0, date.Location())
	return int(date.Sub(startOfYear).Hours())/(24*7) + 1
}

// endOfWeek returns the last day of the date's week along with the week
// number.
func endOfWeek(date time.Time) (time.Time, int) {
	week := weekNumber(date)
	startOfYear := time.Date(date.Year(), 1, 1, 0, 0, 0, 0, date.Location())
	return startOfYear.AddDate(0, 0, 7*week-1), week
}

// parseSheetDate parses the M/D/YYYY dates the spreadsheets use.
func parseSheetDate(value string) (time.Time, error) {
	return time.Parse("1/2/2006", strings.TrimSpace(value))
}

// weekCheck reports whether the date string falls in the given week.
// Unparseable dates never match.
func weekCheck(value string, week int) bool {
	date, err := parseSheetDate(value)
	if err != nil {
		return false
	}
	return weekNumber(date) == week
}

// cell reads a column that may be missing from a short row.
func cell(row []string, col int) string {
	if col >= len(row) {
		return ""
	}
	return row[col]
}

// newsGet extracts the releases of the given week from the albums
// worksheet. Rows without an artist and "..." filler rows are skipped.
func newsGet(rows [][]string, week int) []Release {
	var releases []Release
	for i, row := range rows {
		if i < newsHeaderRows {
			continue
		}
		artist := cell(row, 0)
		if artist == "" || artist == "..." {
			continue
		}
		if !weekCheck(cell(row, 2), week) {
			continue
		}
		releases = append(
			releases, NewRelease(
				artist,
				cell(row, 1),
				cell(row, 4),
				cell(row, 2),
				cell(row, 3),
				cell(row, 6),
				cell(row, 7),
				cell(row, 11),
			),
		)
	}
	return releases
}

// splitByLength groups release lines by release length, LPs first, then
// EPs, then any other length in encounter order. Releases with a broken
// line or no length come back separately as errors.
func splitByLength(releases []Release, doubleSpacing bool) (string, []string) {
	order := []string{"LP", "EP"}
	byLength := map[string][]string{"LP": nil, "EP": nil}
	var errors []string
	for _, release := range releases {
		line := release.NewsFormat()
		if release.IsError() || release.Length == "" {
			errors = append(errors, line)
			continue
		}
		if _, ok := byLength[release.Length]; !ok {
			order = append(order, release.Length)
		}
		byLength[release.Length] = append(byLength[release.Length], line)
	}

	spacing := "\n"
	if doubleSpacing {
		spacing = "\n\n"
	}
	var sections []string
	for _, length := range order {
		lines := byLength[length]
		if len(lines) == 0 {
			continue
		}
		sections = append(
			sections,
			fmt.Sprintf("__*New %s:*__", pluralize(length))+
				spacing+strings.Join(lines, spacing),
		)
	}
	return strings.Join(sections, spacing+spacing), errors
}

// newsletterOptions tweak the rendering for the different outlets the
// newsletter goes to.
type newsletterOptions struct {
	endingMessage     string
	doubleSpacing     bool
	omitContribution  bool
	withDiscordInvite bool
}

// newsletterCreate renders the week's newsletter as channel-sized posts
// plus a combined errors message, empty when every line rendered.
func newsletterCreate(
	rows [][]string,
	date time.Time,
	opts newsletterOptions,
) ([]string, string) {
	titleDay, week := endOfWeek(date)
	releases := newsGet(rows, week)
	body, errors := splitByLength(releases, opts.doubleSpacing)

	spacing := "\n"
	if opts.doubleSpacing {
		spacing = "\n\n"
	}
	post := fmt.Sprintf(
		"**__Omnivoracious Listeners New Music Newsletter (Week of %s %d%s):__**",
		titleDay.Format("January"),
		titleDay.Day(),
		ordinalSuffix(titleDay.Day()),
	) + spacing + spacing + body
	if opts.endingMessage != "" {
		post += spacing + spacing + opts.endingMessage
	}
	if !opts.omitContribution {
		post += spacing + spacing + newsletterContributeLine
	}
	if opts.withDiscordInvite {
		post += spacing + spacing + newsletterInviteLine
	}
	post += spacing + spacing + newsletterClosingLine

	return PostSplit(post, discordMaxMessageLength), strings.Join(errors, "\n")
}

// newsWorksheetTitle is the albums worksheet tab for a year.
func newsWorksheetTitle(year int) string {
	return fmt.Sprintf("%d OL Rock Albums List", year)
}

// postNewsletter renders and sends the newsletter for the given date to
// the given channel.
func (su *Supermod) postNewsletter(
	ctx context.Context,
	channelID string,
	date time.Time,
	opts newsletterOptions,
) error {
	wks := su.sheets.Worksheet(
		su.config.Sheets.NewsURL, newsWorksheetTitle(date.Year()),
	)
	rows, err := wks.Rows(ctx)
	if err != nil {
		return err
	}
	posts, errorsMessage := newsletterCreate(rows, date, opts)
	for _, post := range posts {
		if err = su.discord.channelMessageSend(channelID, post); err != nil {
			return err
		}
	}
	if errorsMessage != "" {
		return su.discord.sendLong(channelID, errorsMessage)
	}
	return nil
}

// commandNews fetches the newsletter for the current week, or for the
// week of an explicitly given M/D/YYYY date.
func (su *Supermod) commandNews(
	ctx context.Context,
	m *discordgo.MessageCreate,
	args string,
) error {
	date := su.now()
	if arg := strings.TrimSpace(args); arg != "" {
		parsed, err := parseSheetDate(arg)
		if err != nil {
			return su.discord.channelMessageSend(
				m.ChannelID,
				"Please make sure your date is in the correct format (M/D/YYYY).",
			)
		}
		if parsed.Year() < newsletterFirstYear {
			return su.discord.channelMessageSend(
				m.ChannelID,
				"The OL Newsletter only contains albums released in 2021 or later.",
			)
		}
		date = parsed
	}
	return su.postNewsletter(ctx, m.ChannelID, date, newsletterOptions{})
}

// commandNewsFull posts the current week's official newsletter with a
// staff-provided closing message appended.
func (su *Supermod) commandNewsFull(
	ctx context.Context,
	m *discordgo.MessageCreate,
	args string,
) error {
	ending := strings.TrimSpace(args)
	if ending == "" {
		return su.discord.channelMessageSend(
			m.ChannelID,
			"To add a message to this week's official newsletter, "+
				"write it after the 'news_full' command (e.g. news_full 'message').",
		)
	}
	channelID := su.config.Discord.Channels.Newsletter
	if channelID == "" {
		channelID = m.ChannelID
	}
	if err := su.postNewsletter(
		ctx, channelID, su.now(), newsletterOptions{endingMessage: ending},
	); err != nil {
		return err
	}
	if channelID == m.ChannelID {
		return nil
	}
	return su.discord.channelMessageSend(
		m.ChannelID, "The newsletter has been posted.",
	)
}

// commandNewsFullReddit is commandNewsFull with reddit-friendly spacing,
// the server invite, and no contribution plug.
func (su *Supermod) commandNewsFullReddit(
	ctx context.Context,
	m *discordgo.MessageCreate,
	args string,
) error {
	ending := strings.TrimSpace(args)
	if ending == "" {
		return su.discord.channelMessageSend(
			m.ChannelID,
			"To add a message to this week's official newsletter, "+
				"write it after the 'news_full' command (e.g. news_full 'message').",
		)
	}
	return su.postNewsletter(
		ctx, m.ChannelID, su.now(), newsletterOptions{
			endingMessage:     ending,
			doubleSpacing:     true,
			omitContribution:  true,
			withDiscordInvite: true,
		},
	)
}

// newsByGenre splits the week's releases into per-genre-category posts.
// Returned keys are genre category names; the errors message combines
// every broken line once.
func newsByGenre(rows [][]string, date time.Time) (map[string]string, []string, string) {
	titleDay, week := endOfWeek(date)
	releases := newsGet(rows, week)

	var categoryOrder []string
	byCategory := map[string][]Release{}
	for _, release := range releases {
		for _, category := range release.GenreCategories {
			if _, ok := byCategory[category]; !ok {
				categoryOrder = append(categoryOrder, category)
			}
			byCategory[category] = append(byCategory[category], release)
		}
	}

	posts := map[string]string{}
	var allErrors []string
	seen := map[string]bool{}
	for _, category := range categoryOrder {
		body, errors := splitByLength(byCategory[category], false)
		posts[category] = fmt.Sprintf(
			"**__Stuff you might be into this week (%s %d%s) (%s):__**\n\n%s",
			titleDay.Format("January"),
			titleDay.Day(),
			ordinalSuffix(titleDay.Day()),
			category,
			body,
		)
		for _, line := range errors {
			if !seen[line] {
				seen[line] = true
				allErrors = append(allErrors, line)
			}
		}
	}
	return posts, categoryOrder, strings.Join(allErrors, "\n")
}

// commandNewsByGenre previews the per-genre newsletters, or posts each
// to its genre channel when called with 'post'.
func (su *Supermod) commandNewsByGenre(
	ctx context.Context,
	m *discordgo.MessageCreate,
	args string,
) error {
	post := strings.TrimSpace(strings.ToLower(args)) == "post"

	wks := su.sheets.Worksheet(
		su.config.Sheets.NewsURL, newsWorksheetTitle(su.now().Year()),
	)
	rows, err := wks.Rows(ctx)
	if err != nil {
		return err
	}
	posts, categoryOrder, errorsMessage := newsByGenre(rows, su.now())

	for _, category := range categoryOrder {
		channelID := m.ChannelID
		if post {
			channelID = su.config.Discord.Channels.GenreNewsletters[category]
			if channelID == "" {
				return fmt.Errorf("no channel configured for genre category %s", category)
			}
		}
		if err = su.discord.sendLong(channelID, posts[category]); err != nil {
			return err
		}
	}
	if post {
		if err = su.discord.channelMessageSend(
			m.ChannelID,
			"The genre newsletters have been posted in their respective channels.",
		); err != nil {
			return err
		}
	}
	if errorsMessage != "" {
		return su.discord.sendLong(m.ChannelID, errorsMessage)
	}
	return nil
}

// ordinalSuffix is the English ordinal suffix for a day of the month.
func ordinalSuffix(day int) string {
	switch day {
	case 1, 21, 31:
		return "st"
	case 2, 22:
		return "nd"
	case 3, 23:
		return "rd"
	default:
		return "th"
	}
}

// pluralize forms the plural of a release length label.
func pluralize(s string) string {
	if s == "" {
		return s
	}
	switch s[len(s)-1] {
	case 's', 'x', 'z':
		return s + "es"
	}
	if strings.HasSuffix(s, "sh") || strings.HasSuffix(s, "ch") {
		return s + "es"
	}
	return s + "s"
}
