package supermod

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/discordgo"
)

// errPromptTimeout is returned when an interactive command's follow-up
// window elapses without a qualifying message or reaction.
var errPromptTimeout = errors.New("prompt timed out")

// promptTimeoutMessage is what the user sees when the window elapses.
const promptTimeoutMessage = "Time has run out."

// AwaitMessage blocks until the given author posts in the given channel,
// the timeout elapses, or ctx is canceled. The handler is removed before
// returning.
func (d *Discord) AwaitMessage(
	ctx context.Context,
	channelID string,
	authorID string,
	timeout time.Duration,
) (*discordgo.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	replies := make(chan *discordgo.Message, 1)
	removeHandler := d.session.AddHandler(
		func(_ *discordgo.Session, m *discordgo.MessageCreate) {
			if m.ChannelID != channelID || m.Author == nil || m.Author.ID != authorID {
				return
			}
			select {
			case replies <- m.Message:
			default:
			}
		},
	)
	defer removeHandler()

	select {
	case msg := <-replies:
		return msg, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, errPromptTimeout
		}
		return nil, ctx.Err()
	}
}

// AwaitReaction blocks until someone reacts to the given message with
// one of the allowed emoji, the timeout elapses, or ctx is canceled. An
// empty userID accepts any user other than the bot itself. It returns
// the emoji name and the reacting user's ID.
func (d *Discord) AwaitReaction(
	ctx context.Context,
	messageID string,
	userID string,
	allowed []string,
	timeout time.Duration,
) (string, string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type reaction struct {
		emoji  string
		userID string
	}
	reactions := make(chan reaction, 1)
	removeHandler := d.session.AddHandler(
		func(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
			if r.MessageID != messageID {
				return
			}
			if userID == "" {
				if s.State != nil && s.State.User != nil && r.UserID == s.State.User.ID {
					return
				}
			} else if r.UserID != userID {
				return
			}
			for _, emoji := range allowed {
				if r.Emoji.Name == emoji {
					select {
					case reactions <- reaction{emoji: emoji, userID: r.UserID}:
					default:
					}
					return
				}
			}
		},
	)
	defer removeHandler()

	select {
	case got := <-reactions:
		return got.emoji, got.userID, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", "", errPromptTimeout
		}
		return "", "", ctx.Err()
	}
}
