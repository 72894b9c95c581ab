package supermod

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/require"
)

// sentMessage records one outgoing channel message.
type sentMessage struct {
	channelID string
	content   string
}

// sentComplexMessage records one outgoing embed or other complex send.
type sentComplexMessage struct {
	channelID string
	data      *discordgo.MessageSend
}

// fakeSession is an in-memory DiscordSessionHandler. Messages sent
// through it land in the per-channel stores that ChannelMessages serves,
// and registered event handlers can be fired from the test with
// receiveMessage and receiveReaction.
type fakeSession struct {
	mu sync.Mutex

	sent        []sentMessage
	sentComplex []sentComplexMessage
	deleted     []string
	reactions   map[string][]string

	// messages holds channel history, newest first
	messages map[string][]*discordgo.Message

	users   map[string]*discordgo.User
	members map[string]*discordgo.Member

	handlers []any
	nextID   int
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		reactions: map[string][]string{},
		messages:  map[string][]*discordgo.Message{},
		users:     map[string]*discordgo.User{},
		members:   map[string]*discordgo.Member{},
	}
}

func (f *fakeSession) Open() error  { return nil }
func (f *fakeSession) Close() error { return nil }

func (f *fakeSession) AddHandler(handler any) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := len(f.handlers)
	f.handlers = append(f.handlers, handler)
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.handlers[i] = nil
	}
}

func (f *fakeSession) ChannelMessageSend(
	channelID string,
	message string,
	_ ...discordgo.RequestOption,
) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	msg := &discordgo.Message{
		ID:        fmt.Sprintf("msg-%d", f.nextID),
		ChannelID: channelID,
		Content:   message,
	}
	f.sent = append(f.sent, sentMessage{channelID: channelID, content: message})
	f.messages[channelID] = append(
		[]*discordgo.Message{msg}, f.messages[channelID]...,
	)
	return msg, nil
}

func (f *fakeSession) ChannelMessageSendComplex(
	channelID string,
	data *discordgo.MessageSend,
	_ ...discordgo.RequestOption,
) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.sentComplex = append(
		f.sentComplex, sentComplexMessage{channelID: channelID, data: data},
	)
	return &discordgo.Message{
		ID:        fmt.Sprintf("msg-%d", f.nextID),
		ChannelID: channelID,
	}, nil
}

func (f *fakeSession) ChannelMessage(
	channelID string,
	messageID string,
	_ ...discordgo.RequestOption,
) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, msg := range f.messages[channelID] {
		if msg.ID == messageID {
			return msg, nil
		}
	}
	return nil, fmt.Errorf("no message %s in channel %s", messageID, channelID)
}

func (f *fakeSession) ChannelMessages(
	channelID string,
	limit int,
	beforeID string,
	_ string,
	_ string,
	_ ...discordgo.RequestOption,
) ([]*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := f.messages[channelID]
	if beforeID != "" {
		for i, msg := range msgs {
			if msg.ID == beforeID {
				msgs = msgs[i+1:]
				break
			}
		}
	}
	if len(msgs) > limit {
		msgs = msgs[:limit]
	}
	out := make([]*discordgo.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (f *fakeSession) ChannelMessageDelete(
	channelID string,
	messageID string,
	_ ...discordgo.RequestOption,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, channelID+"/"+messageID)
	msgs := f.messages[channelID]
	for i, msg := range msgs {
		if msg.ID == messageID {
			f.messages[channelID] = append(msgs[:i:i], msgs[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeSession) MessageReactionAdd(
	channelID string,
	messageID string,
	emojiID string,
	_ ...discordgo.RequestOption,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := channelID + "/" + messageID
	f.reactions[key] = append(f.reactions[key], emojiID)
	return nil
}

func (f *fakeSession) MessageReactionsRemoveEmoji(
	channelID string,
	messageID string,
	emojiID string,
	_ ...discordgo.RequestOption,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := channelID + "/" + messageID
	kept := f.reactions[key][:0]
	for _, emoji := range f.reactions[key] {
		if emoji != emojiID {
			kept = append(kept, emoji)
		}
	}
	f.reactions[key] = kept
	return nil
}

func (f *fakeSession) GuildMember(
	_ string,
	userID string,
	_ ...discordgo.RequestOption,
) (*discordgo.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	member, ok := f.members[userID]
	if !ok {
		return nil, fmt.Errorf("no member %s", userID)
	}
	return member, nil
}

func (f *fakeSession) User(
	userID string,
	_ ...discordgo.RequestOption,
) (*discordgo.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return nil, fmt.Errorf("no user %s", userID)
	}
	return user, nil
}

func (f *fakeSession) UpdateCustomStatus(string) error { return nil }

func (f *fakeSession) SetLogLevel(slog.Level) error { return nil }

// seedMessage adds a message to a channel's history without recording it
// as sent by the bot. Newest messages should be seeded last.
func (f *fakeSession) seedMessage(msg *discordgo.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[msg.ChannelID] = append(
		[]*discordgo.Message{msg}, f.messages[msg.ChannelID]...,
	)
}

// sentTo returns every message sent to the channel, in order.
func (f *fakeSession) sentTo(channelID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, msg := range f.sent {
		if msg.channelID == channelID {
			out = append(out, msg.content)
		}
	}
	return out
}

func (f *fakeSession) reactionsOn(channelID, messageID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.reactions[channelID+"/"+messageID]...)
}

func (f *fakeSession) currentHandlers() []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]any, 0, len(f.handlers))
	for _, h := range f.handlers {
		if h != nil {
			out = append(out, h)
		}
	}
	return out
}

// receiveMessage fires the registered MessageCreate handlers as if the
// given user had posted in the channel.
func (f *fakeSession) receiveMessage(channelID, authorID, content string) {
	m := &discordgo.MessageCreate{
		Message: &discordgo.Message{
			ChannelID: channelID,
			Content:   content,
			Author:    &discordgo.User{ID: authorID},
		},
	}
	for _, h := range f.currentHandlers() {
		if handler, ok := h.(func(*discordgo.Session, *discordgo.MessageCreate)); ok {
			handler(&discordgo.Session{}, m)
		}
	}
}

// receiveReaction fires the registered MessageReactionAdd handlers.
func (f *fakeSession) receiveReaction(messageID, userID, emoji string) {
	r := &discordgo.MessageReactionAdd{
		MessageReaction: &discordgo.MessageReaction{
			MessageID: messageID,
			UserID:    userID,
			Emoji:     discordgo.Emoji{Name: emoji},
		},
	}
	for _, h := range f.currentHandlers() {
		if handler, ok := h.(func(*discordgo.Session, *discordgo.MessageReactionAdd)); ok {
			handler(&discordgo.Session{}, r)
		}
	}
}

// fakeWorksheet is an in-memory Worksheet.
type fakeWorksheet struct {
	mu    sync.Mutex
	title string
	rows  [][]string
}

func (w *fakeWorksheet) Title() string { return w.title }

func (w *fakeWorksheet) Rows(context.Context) ([][]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([][]string, len(w.rows))
	for i, row := range w.rows {
		out[i] = append([]string(nil), row...)
	}
	return out, nil
}

func (w *fakeWorksheet) AppendRow(_ context.Context, row []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rows = append(w.rows, append([]string(nil), row...))
	return nil
}

func (w *fakeWorksheet) Clear(context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rows = nil
	return nil
}

func (w *fakeWorksheet) UpdateCell(_ context.Context, row, col int, value string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for len(w.rows) <= row {
		w.rows = append(w.rows, nil)
	}
	for len(w.rows[row]) <= col {
		w.rows[row] = append(w.rows[row], "")
	}
	w.rows[row][col] = value
	return nil
}

func (w *fakeWorksheet) DeleteRow(_ context.Context, row int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if row < 0 || row >= len(w.rows) {
		return fmt.Errorf("no row %d", row)
	}
	w.rows = append(w.rows[:row:row], w.rows[row+1:]...)
	return nil
}

func (w *fakeWorksheet) currentRows() [][]string {
	rows, _ := w.Rows(context.Background())
	return rows
}

// fakeSheets hands out fakeWorksheet tabs, creating them on first use.
// WorksheetByIndex resolves to a tab titled "tab-<index>".
type fakeSheets struct {
	mu   sync.Mutex
	tabs map[string]*fakeWorksheet
}

func newFakeSheets() *fakeSheets {
	return &fakeSheets{tabs: map[string]*fakeWorksheet{}}
}

func (f *fakeSheets) Worksheet(url string, title string) Worksheet {
	return f.tab(url, title)
}

func (f *fakeSheets) WorksheetByIndex(
	_ context.Context,
	url string,
	index int,
) (Worksheet, error) {
	return f.tab(url, fmt.Sprintf("tab-%d", index)), nil
}

func (f *fakeSheets) tab(url string, title string) *fakeWorksheet {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := url + "|" + title
	wks, ok := f.tabs[key]
	if !ok {
		wks = &fakeWorksheet{title: title}
		f.tabs[key] = wks
	}
	return wks
}

func (f *fakeSheets) seed(url string, title string, rows [][]string) *fakeWorksheet {
	wks := f.tab(url, title)
	wks.mu.Lock()
	defer wks.mu.Unlock()
	wks.rows = rows
	return wks
}

const (
	testGuildID            = "test-guild"
	testSubmissionsChannel = "submissions-channel"
	testApprovalChannel    = "approval-channel"
	testModeratorID        = "moderator-id"
	testSubmissionsURL     = "submissions-sheet"
	testAlbumsURL          = "albums-sheet"
	testQOTDURL            = "qotd-sheet"
)

// newTestSupermod builds a Supermod wired to in-memory fakes and a
// throwaway SQLite database.
func newTestSupermod(t *testing.T) (*Supermod, *fakeSession, *fakeSheets) {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Discord.GuildID = testGuildID
	cfg.Discord.StaffRoleID = "staff-role"
	cfg.Discord.Channels.Submissions = testSubmissionsChannel
	cfg.Discord.Channels.Approval = testApprovalChannel
	cfg.Discord.Channels.QOTD = "qotd-channel"
	cfg.Discord.Channels.Promos = "promos-channel"
	cfg.Discord.Channels.RejectedPromos = "rejected-promos-channel"
	for _, masterlist := range Masterlists {
		cfg.Discord.Channels.Masterlists[string(masterlist)] = string(masterlist) + "-channel"
	}
	cfg.Sheets.SubmissionsURL = testSubmissionsURL
	cfg.Sheets.AlbumsURL = testAlbumsURL
	cfg.Sheets.QOTDURL = testQOTDURL
	cfg.Sheets.PromosURL = testQOTDURL
	cfg.Sheets.NewsURL = "news-sheet"

	db, err := CreateDB(
		context.Background(),
		dbTypeSQLite,
		filepath.Join(t.TempDir(), "supermod_test.sqlite3"),
	)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	session := newFakeSession()
	sheetsClient := newFakeSheets()

	su := &Supermod{
		config:        cfg,
		db:            db,
		writeDB:       newDatabase(db, logger, false),
		logger:        logger,
		logHandler:    logger.Handler(),
		sheets:        sheetsClient,
		location:      time.UTC,
		signalReady:   make(chan struct{}, 1),
		eventShutdown: make(chan struct{}, 1),
	}
	su.discord = &Discord{
		session: session,
		config:  cfg.Discord,
		logger:  logger,
		su:      su,
	}
	return su, session, sheetsClient
}

// waitForSent blocks until the channel has received at least n messages.
func waitForSent(t *testing.T, session *fakeSession, channelID string, n int) {
	t.Helper()
	require.Eventually(
		t, func() bool {
			return len(session.sentTo(channelID)) >= n
		},
		5*time.Second,
		10*time.Millisecond,
	)
}

// waitForHandlers blocks until at least n event handlers are registered,
// meaning a prompt is waiting on a reply or reaction.
func waitForHandlers(t *testing.T, session *fakeSession, n int) {
	t.Helper()
	require.Eventually(
		t, func() bool {
			return len(session.currentHandlers()) >= n
		},
		5*time.Second,
		10*time.Millisecond,
	)
}
