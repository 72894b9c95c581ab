package supermod

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/lmittmann/tint"
	"gorm.io/gorm"
)

var (
	// When building, set these like:
	// -ldflags "-X github.com/pk-470/Supermod/supermod.Version=$$(date +'%Y%m%d')"

	Version   = "dev"
	CommitSHA = "unknown"
	BuildTime = "unknown"
)

var (
	defaultLogWriter io.Writer = os.Stdout
)

// genericErrorMessage is sent to the channel when a command handler
// fails for a reason the user can't fix.
const genericErrorMessage = "Something went wrong. Please try again."

// updateBusyMessage is sent when a command that rewrites the
// masterlists is invoked while another such operation is running.
const updateBusyMessage = "An update is already in progress. Please try again later."

// errUpdateInProgress is returned by masterlist-mutating operations
// that lost the race for the update guard.
var errUpdateInProgress = errors.New("update already in progress")

// botCommand is one prefix command. Staff-only commands silently ignore
// invocations from members without the staff role.
type botCommand struct {
	handler   func(ctx context.Context, m *discordgo.MessageCreate, args string) error
	staffOnly bool
}

// Supermod is the main application struct. It coordinates the Discord
// gateway, the spreadsheet mirror, the database, the scheduled jobs and
// the admin API.
type Supermod struct {
	config *Config

	db      *gorm.DB
	writeDB *database

	// Standard logger. Missing loggers will try to use this,
	// and fall back to slog.Default()
	logger *slog.Logger

	// Handler to use for the above
	logHandler slog.Handler

	// Handles discord integration, sessions
	discord *Discord

	// Handles the Google Sheets mirror
	sheets SheetsClient

	// Provides the back-end API
	api *API

	// location is the timezone the schedules run in
	location *time.Location

	// Persisted operator state
	state *BotState

	// If true, the scheduled jobs skip their next firing
	paused atomic.Bool

	// signalStop enables an explicit stop signal to be sent to the bot,
	// such as by the `/api/quit` endpoint
	signalStop chan struct{}

	// signalReady has a value sent on it when Run is called, after the
	// database, sheets client, discord session and scheduled jobs are
	// all up
	signalReady chan struct{}

	// A signal is sent on this channel when the shutdown function
	// finishes
	eventShutdown chan struct{}

	// prevents Run from executing concurrently
	runMu sync.Mutex

	// updateMu serializes operations that rewrite the masterlists: the
	// approval flow, the spreadsheet sync and the masterlist repost.
	// Acquired with TryLock, so a second invocation reports busy
	// instead of queueing.
	updateMu sync.Mutex

	commands map[string]botCommand

	// The time Run was called
	startedAt time.Time
}

// New initializes a Supermod instance from the given config. The
// database and network connections are established later, in Run.
func New(config *Config) (*Supermod, error) {
	var errs []error

	switch config.DatabaseType {
	case dbTypeSQLite, dbTypePostgres:
		//
	default:
		errs = append(
			errs,
			errors.New("invalid database type (must be 'sqlite' or 'postgres')"),
		)
	}

	if config.HTTPClient == nil {
		config.HTTPClient = http.DefaultClient
	}

	su := &Supermod{
		config:        config,
		signalReady:   make(chan struct{}, 1),
		eventShutdown: make(chan struct{}, 1),
	}

	su.logHandler = newLogHandler(defaultLogWriter, su.config.LogLevel)
	su.logger = slog.New(su.logHandler)
	slog.SetDefault(su.logger)

	su.config.Discord.httpClient = su.config.HTTPClient

	disc := newDiscord(su.config.Discord)
	discordgo.Logger = discordgoLoggerFunc(
		context.Background(),
		newLogHandler(
			defaultLogWriter, su.config.Discord.DiscordGoLogLevel,
		).WithAttrs([]slog.Attr{slog.String(loggerNameKey, "discordgo")}),
	)
	disc.logger = slog.New(
		newLogHandler(defaultLogWriter, su.config.Discord.LogLevel),
	).With(loggerNameKey, "discord")
	su.discord = disc
	disc.su = su

	su.commands = map[string]botCommand{
		"hello":             {handler: su.commandHello},
		"my_subs":           {handler: su.commandMySubs},
		"submit":            {handler: su.commandSubmit, staffOnly: true},
		"get_random":        {handler: su.commandGetRandom, staffOnly: true},
		"subs":              {handler: su.commandSubs, staffOnly: true},
		"subs_status":       {handler: su.commandSubsStatus, staffOnly: true},
		"update_sheet":      {handler: su.commandUpdateSheet, staffOnly: true},
		"update_masterlist": {handler: su.commandUpdateMasterlist, staffOnly: true},
		"qotd":              {handler: su.commandQOTD, staffOnly: true},
		"qotd_add":          {handler: su.commandQOTDAdd, staffOnly: true},
		"qotd_reset":        {handler: su.commandQOTDReset, staffOnly: true},
		"news":              {handler: su.commandNews},
		"news_full":         {handler: su.commandNewsFull, staffOnly: true},
		"news_full_reddit":  {handler: su.commandNewsFullReddit, staffOnly: true},
		"news_by_genre":     {handler: su.commandNewsByGenre, staffOnly: true},
		"promo_add":         {handler: su.commandPromoAdd, staffOnly: true},
	}

	if config.API.Enabled {
		api, err := newAPI(su, config.API)
		if err != nil {
			errs = append(errs, err)
		}
		su.api = api
	}

	return su, errors.Join(errs...)
}

func (su *Supermod) ValidateConfig() error {
	return structValidator.Struct(su.config)
}

// Paused reports whether the scheduled jobs are paused.
func (su *Supermod) Paused() bool {
	return su.paused.Load()
}

// SetPaused updates the pause flag in memory and in the database.
func (su *Supermod) SetPaused(ctx context.Context, paused bool) error {
	su.paused.Store(paused)
	return su.writeDB.SetPaused(ctx, su.state, paused)
}

// Run starts the bot and blocks until ctx is canceled or a stop signal
// is received, then shuts down gracefully.
func (su *Supermod) Run(ctx context.Context) error {
	// prevents concurrent runs
	su.runMu.Lock()
	defer su.runMu.Unlock()

	su.signalStop = make(chan struct{}, 1)
	su.startedAt = time.Now()
	logger := su.logger

	if err := su.ValidateConfig(); err != nil {
		logger.Error("invalid config", tint.Err(err))
		return err
	}

	location, err := time.LoadLocation(su.config.Timezone)
	if err != nil {
		logger.Error("invalid timezone", tint.Err(err))
		return err
	}
	su.location = location

	ctx = WithLogger(ctx, logger)
	logger.LogAttrs(ctx, slog.LevelInfo, "starting", slog.Any("config", su.config))
	if su.signalReady == nil {
		su.signalReady = make(chan struct{}, 1)
	}

	// this is the 'runtime' context, which triggers a graceful shutdown
	// when canceled
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-su.signalStop:
			su.logger.Warn("got stop signal, canceling")
			cancel()
		case <-ctx.Done():
			su.logger.Warn("context canceled, sending stop signal")
			su.signalStop <- struct{}{}
		}
	}()

	runtimeWG := &sync.WaitGroup{}

	if su.api != nil {
		go func() {
			httpErr := su.api.Serve(ctx)
			if httpErr != nil && !errors.Is(httpErr, http.ErrServerClosed) {
				su.logger.ErrorContext(ctx, "error serving api HTTP", tint.Err(httpErr))
			}
		}()
	}

	startCtx, startCancel := context.WithTimeout(ctx, su.config.StartupTimeout)
	defer startCancel()

	initErr := make(chan error, 1)
	go func() {
		logger.Debug("initializing run...")
		initErr <- su.initRun(startCtx)
	}()

	select {
	case <-startCtx.Done():
		return fmt.Errorf("startup cancelled or timed out")
	case err = <-initErr:
		if err != nil {
			logger.ErrorContext(ctx, "init error", tint.Err(err))
			return err
		}
		logger.InfoContext(ctx, "init complete")
	}

	// Open the discord websocket connection
	su.logger.InfoContext(ctx, "connecting to discord")
	removeHandlers := []func(){
		su.discord.session.AddHandler(su.discord.handlerConnect()),
		su.discord.session.AddHandler(su.discord.handlerDisconnect()),
		su.discord.session.AddHandler(su.handlerMessageCreate(ctx)),
	}
	su.discord.discordgoRemoveHandlerFuncs = removeHandlers
	if err = su.discord.session.Open(); err != nil {
		logger.ErrorContext(ctx, "error connecting to discord!", tint.Err(err))
		return fmt.Errorf("error connecting to discord: %w", err)
	}

	su.startSchedules(ctx, runtimeWG)

	su.signalReady <- struct{}{}
	su.logger.InfoContext(ctx, "sent ready signal")

	<-ctx.Done()

	return su.shutdown(runtimeWG)
}

// initRun establishes the database and sheets connections and loads the
// persisted state.
func (su *Supermod) initRun(ctx context.Context) error {
	db, err := CreateDB(ctx, su.config.DatabaseType, su.config.Database)
	if err != nil {
		return fmt.Errorf("error initializing database: %w", err)
	}
	su.db = db
	su.writeDB = newDatabase(
		db,
		slog.New(newLogHandler(defaultLogWriter, su.config.DatabaseLogLevel)),
		su.config.DatabaseType == dbTypePostgres,
	)

	state, err := su.writeDB.State(ctx)
	if err != nil {
		return fmt.Errorf("error loading bot state: %w", err)
	}
	su.state = state
	su.paused.Store(state.Paused)

	sheetsClient, err := newSheets(
		ctx,
		su.config.Sheets,
		newLogHandler(defaultLogWriter, su.config.Sheets.LogLevel),
	)
	if err != nil {
		return fmt.Errorf("error initializing sheets client: %w", err)
	}
	su.sheets = sheetsClient

	session, err := su.discord.newSession()
	if err != nil {
		return err
	}
	su.discord.session = session

	return nil
}

func (su *Supermod) shutdown(runtimeWG *sync.WaitGroup) error {
	logger := su.logger
	logger.Warn("shutting down")

	for _, removeHandler := range su.discord.discordgoRemoveHandlerFuncs {
		removeHandler()
	}
	if err := su.discord.session.Close(); err != nil {
		logger.Error("error closing discord session", tint.Err(err))
	}

	if su.api != nil {
		apiCtx, apiCancel := context.WithTimeout(
			context.Background(), su.config.ShutdownTimeout,
		)
		defer apiCancel()
		if err := su.api.Shutdown(apiCtx); err != nil {
			logger.Error("error shutting down api", tint.Err(err))
		}
	}

	done := make(chan struct{}, 1)
	go func() {
		runtimeWG.Wait()
		done <- struct{}{}
	}()
	select {
	case <-done:
		logger.Info("all runtime goroutines finished")
	case <-time.After(su.config.ShutdownTimeout):
		logger.Warn("shutdown timeout elapsed before goroutines finished")
	}

	su.eventShutdown <- struct{}{}
	logger.Warn("shutdown complete")
	return nil
}

// handlerMessageCreate routes prefix commands. Commands run in their
// own goroutine so a slow interactive flow (like the approval command)
// doesn't block the gateway event loop.
func (su *Supermod) handlerMessageCreate(ctx context.Context) func(
	s *discordgo.Session,
	m *discordgo.MessageCreate,
) {
	prefix := su.config.Discord.CommandPrefix
	return func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil || m.Author.Bot {
			return
		}
		if s.State != nil && s.State.User != nil && m.Author.ID == s.State.User.ID {
			return
		}
		if m.GuildID != su.config.Discord.GuildID {
			return
		}
		if !strings.HasPrefix(m.Content, prefix) {
			return
		}

		name, args, _ := strings.Cut(
			strings.TrimPrefix(m.Content, prefix), " ",
		)
		name = strings.ToLower(strings.TrimSpace(name))
		command, ok := su.commands[name]
		if !ok {
			return
		}
		if command.staffOnly && !su.isStaff(m.Member) {
			return
		}

		logger := su.logger.With(
			"command", name,
			"user_id", m.Author.ID,
			"channel_id", m.ChannelID,
		)
		go func() {
			defer func() {
				if rc := recover(); rc != nil {
					logger.Error(
						"panic in command handler",
						"panic", rc,
						"stack", string(debug.Stack()),
					)
					_ = su.discord.channelMessageSend(m.ChannelID, genericErrorMessage)
				}
			}()
			if err := command.handler(
				WithLogger(ctx, logger), m, strings.TrimSpace(args),
			); err != nil {
				switch {
				case errors.Is(err, errPromptTimeout):
					_ = su.discord.channelMessageSend(m.ChannelID, promptTimeoutMessage)
				case errors.Is(err, errUpdateInProgress):
					_ = su.discord.channelMessageSend(m.ChannelID, updateBusyMessage)
				default:
					logger.Error("command failed", tint.Err(err))
					_ = su.discord.channelMessageSend(m.ChannelID, genericErrorMessage)
				}
			}
		}()
	}
}

// isStaff reports whether the member carries the configured staff role.
func (su *Supermod) isStaff(member *discordgo.Member) bool {
	if member == nil {
		return false
	}
	for _, role := range member.Roles {
		if role == su.config.Discord.StaffRoleID {
			return true
		}
	}
	return false
}

// beginUpdate claims the masterlist update guard without blocking.
func (su *Supermod) beginUpdate() bool {
	return su.updateMu.TryLock()
}

func (su *Supermod) endUpdate() {
	su.updateMu.Unlock()
}

// now returns the current time in the configured timezone.
func (su *Supermod) now() time.Time {
	return time.Now().In(su.location)
}
