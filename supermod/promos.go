package supermod

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/lmittmann/tint"
)

// The promo worksheet's columns: creator name, embed flag ("Y"/"N"),
// post title, post content, day of month ("last" for the month's final
// day), hour, and the space-separated member mentions the promo belongs
// to ("N/A" for none).
const (
	promoColCreator = iota
	promoColEmbed
	promoColTitle
	promoColContent
	promoColDay
	promoColHour
	promoColMembers
)

const promoEmbedColor = 0x3498DB

// promoWorksheet is the second tab of the questions spreadsheet.
func (su *Supermod) promoWorksheet(ctx context.Context) (Worksheet, error) {
	return su.sheets.WorksheetByIndex(ctx, su.config.Sheets.PromosURL, 1)
}

// promoDue reports whether the row's scheduled day and hour match the
// given time. A day of "last" resolves to the month's final day.
func promoDue(row []string, now time.Time) bool {
	dayField := strings.TrimSpace(cell(row, promoColDay))
	if strings.HasPrefix(strings.ToLower(dayField), "last") {
		lastDay := time.Date(
			now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location(),
		).AddDate(0, 1, -1).Day()
		dayField = strconv.Itoa(lastDay)
	}
	day, err := strconv.Atoi(dayField)
	if err != nil {
		return false
	}
	hourField, _, _ := strings.Cut(
		strings.TrimSpace(cell(row, promoColHour)), ":",
	)
	hour, err := strconv.Atoi(hourField)
	if err != nil {
		return false
	}
	return now.Day() == day && now.Hour() == hour
}

// promoEmbed renders a promo as an embed, splitting the member mentions
// and content across continuation fields that stay under the embed
// field limit.
func promoEmbed(row []string) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{Color: promoEmbedColor}
	chunks := PostSplit(
		cell(row, promoColMembers)+"\n\n"+cell(row, promoColContent),
		discordMaxFieldLength,
	)
	for i, chunk := range chunks {
		name := "​"
		if i == 0 {
			name = cell(row, promoColTitle)
		}
		embed.Fields = append(
			embed.Fields, &discordgo.MessageEmbedField{
				Name:  name,
				Value: chunk,
			},
		)
	}
	return embed
}

// verifyPromoMembers checks that every mentioned member is still in the
// guild.
func (su *Supermod) verifyPromoMembers(row []string) bool {
	for _, mention := range strings.Fields(cell(row, promoColMembers)) {
		memberID := digitsOnly(mention)
		if memberID == "" {
			return false
		}
		if _, err := su.discord.session.GuildMember(
			su.config.Discord.GuildID, memberID,
		); err != nil {
			return false
		}
	}
	return true
}

// postPromo sends one due promo, either as an embed or as plain text.
func (su *Supermod) postPromo(row []string) error {
	channelID := su.config.Discord.Channels.Promos

	if cell(row, promoColMembers) == "N/A" {
		return su.discord.channelMessageSend(
			channelID,
			fmt.Sprintf(
				"**%s**\n\n%s",
				cell(row, promoColTitle), cell(row, promoColContent),
			),
		)
	}

	if !su.verifyPromoMembers(row) {
		channelID = su.config.Discord.Channels.RejectedPromos
		if err := su.discord.channelMessageSend(
			channelID,
			"The following promo will not be posted because I can't "+
				"find at least one of its related members in the server:",
		); err != nil {
			return err
		}
	}

	if strings.HasPrefix(strings.ToLower(cell(row, promoColEmbed)), "y") {
		_, err := su.discord.session.ChannelMessageSendComplex(
			channelID, &discordgo.MessageSend{
				Embeds: []*discordgo.MessageEmbed{promoEmbed(row)},
			},
		)
		return err
	}
	return su.discord.channelMessageSend(
		channelID,
		fmt.Sprintf(
			"**%s**\n\n%s", cell(row, promoColTitle), cell(row, promoColContent),
		),
	)
}

// runPromos posts every promo scheduled for the current day and hour.
func (su *Supermod) runPromos(ctx context.Context) {
	wks, err := su.promoWorksheet(ctx)
	if err != nil {
		su.logger.ErrorContext(ctx, "error opening promo worksheet", tint.Err(err))
		return
	}
	rows, err := wks.Rows(ctx)
	if err != nil {
		su.logger.ErrorContext(ctx, "error reading promo worksheet", tint.Err(err))
		return
	}
	now := su.now()
	for _, row := range dataRows(rows) {
		trimmed := make([]string, len(row))
		for i, value := range row {
			trimmed[i] = strings.TrimSpace(value)
		}
		if !promoDue(trimmed, now) {
			continue
		}
		if err = su.postPromo(trimmed); err != nil {
			su.logger.ErrorContext(
				ctx, "error posting promo",
				"creator", cell(trimmed, promoColCreator),
				tint.Err(err),
			)
		}
	}
}

// commandPromoAdd walks a moderator through scheduling a promo.
func (su *Supermod) commandPromoAdd(
	ctx context.Context,
	m *discordgo.MessageCreate,
	_ string,
) error {
	if err := su.discord.channelMessageSend(
		m.ChannelID, "Respond with 'stop' at any point to stop the process.",
	); err != nil {
		return err
	}

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
			return "", true, su.discord.channelMessageSend(
				m.ChannelID, "The promo submission process has stopped.",
			)
		}
		return strings.TrimSpace(response.Content), false, nil
	}

	creator, stop, err := prompt("Creator / partner name:", 30*time.Second)
	if err != nil || stop {
		return err
	}
	embedAnswer, stop, err := prompt(
		"Post as an embed (Yes / No):", 30*time.Second,
	)
	if err != nil || stop {
		return err
	}
	var embedFlag string
	switch {
	case strings.HasPrefix(strings.ToLower(embedAnswer), "y"):
		embedFlag = "Y"
	case strings.HasPrefix(strings.ToLower(embedAnswer), "n"):
		embedFlag = "N"
	default:
		return su.discord.channelMessageSend(
			m.ChannelID,
			fmt.Sprintf(
				"I don't know what you mean by '%s'. "+
					"Please start the promo submission process again.",
				embedAnswer,
			),
		)
	}
	title, stop, err := prompt("Promo title:", 3*time.Minute)
	if err != nil || stop {
		return err
	}
	content, stop, err := prompt("Promo content:", 10*time.Minute)
	if err != nil || stop {
		return err
	}
	day, stop, err := prompt(
		"Day of the month to post on (a number, or 'last' for the last day):",
		30*time.Second,
	)
	if err != nil || stop {
		return err
	}
	hour, stop, err := prompt(
		"Hour to post at (0-23):", 30*time.Second,
	)
	if err != nil || stop {
		return err
	}
	members, stop, err := prompt(
		"Related members (mentions separated by spaces, or 'N/A'):",
		time.Minute,
	)
	if err != nil || stop {
		return err
	}

	wks, err := su.promoWorksheet(ctx)
	if err != nil {
		return err
	}
	if err = wks.AppendRow(
		ctx, []string{creator, embedFlag, title, content, day, hour, members},
	); err != nil {
		return err
	}
	return su.discord.channelMessageSend(
		m.ChannelID,
		fmt.Sprintf("The promo for %s was added to the spreadsheet.", creator),
	)
}
