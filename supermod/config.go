//nolint:lll // struct tags can't be split
package supermod

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gin-contrib/cors"
)

const (
	EnvvarSetEnvPrefix     = "SUPERMOD_ENV_PREFIX"
	DefaultEnvPrefix       = "SM"
	DefaultDatabaseType    = "sqlite"
	DefaultDatabase        = "supermod.sqlite3"
	DefaultLogLevel        = slog.LevelInfo
	DefaultStartupTimeout  = 30 * time.Second
	DefaultShutdownTimeout = 60 * time.Second

	DefaultCommandPrefix = ","
	DefaultTimezone      = "America/Toronto"

	// DefaultPromptTimeout bounds how long interactive commands wait for
	// the follow-up message that carries the actual submission.
	DefaultPromptTimeout = 5 * time.Minute

	// DefaultDecisionTimeout bounds how long the approval command waits
	// for the moderator's verdict.
	DefaultDecisionTimeout = 30 * time.Minute

	DefaultDiscordGatewayIntent = discordgo.IntentsAllWithoutPrivileged |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsMessageContent
	DefaultDiscordCustomStatus = "Spinning this week's albums"
	discordMaxMessageLength    = 2000
	discordMaxFieldLength      = 1024

	DefaultQOTDHour          = 6
	DefaultSheetSyncInterval = 12 * time.Hour

	// DefaultSheetAppendInterval paces row appends so bulk syncs stay
	// under the Sheets API write quota.
	DefaultSheetAppendInterval = time.Second

	DefaultReadTimeout       = 5 * time.Second
	DefaultReadHeaderTimeout = 5 * time.Second
	DefaultWriteTimeout      = 10 * time.Second
	DefaultIdleTimeout       = 30 * time.Second
	DefaultAPIListen         = "127.0.0.1:5000"
	defaultListenNetwork     = "tcp"

	DefaultDatabaseSlowThreshold = 200 * time.Millisecond
	DefaultDatabaseLogLevel      = slog.LevelInfo
	DefaultDiscordLogLevel       = slog.LevelWarn
	DefaultDiscordgoLogLevel     = slog.LevelWarn
	DefaultAPILogLevel           = slog.LevelInfo
	DefaultSheetsLogLevel        = slog.LevelInfo
)

var (
	DefaultCORSAllowMethods = []string{
		http.MethodGet,
		http.MethodPost,
		http.MethodOptions,
		http.MethodHead,
	}
	DefaultCORSAllowHeaders = []string{
		"Origin",
		"Content-Length",
		"Content-Type",
		"Accept",
		"Authorization",
		"X-Requested-With",
		"Cache-Control",
		xRequestIDHeader,
	}
	DefaultCORSExposeHeaders = []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		xRequestIDHeader,
		"Location",
	}
	DefaultCORSMaxAge = 12 * time.Hour
)

type Config struct {
	// Database connection string
	Database string `yaml:"database" mapstructure:"database" json:"database"`

	// DatabaseType specifies the type of database, either 'sqlite' or 'postgres'
	DatabaseType string `yaml:"database_type" mapstructure:"database_type" json:"database_type" binding:"oneof=sqlite postgres"`

	// DatabaseLogLevel sets the log level for database operations
	DatabaseLogLevel *slog.LevelVar `yaml:"database_log_level" mapstructure:"database_log_level" json:"database_log_level"`

	// DatabaseSlowThreshold is the duration threshold for identifying slow database queries
	DatabaseSlowThreshold time.Duration `yaml:"database_slow_threshold" mapstructure:"database_slow_threshold" json:"database_slow_threshold"`

	// Timezone the schedules run in. Week numbering, QOTD posting and the
	// submission window all use this location.
	Timezone string `yaml:"timezone" mapstructure:"timezone" json:"timezone" binding:"required"`

	// Discord configures aspects of the Discord bot itself
	Discord *DiscordConfig `yaml:"discord" mapstructure:"discord" json:"discord"`

	// Sheets configures the Google Sheets integration
	Sheets *SheetsConfig `yaml:"sheets" mapstructure:"sheets" json:"sheets"`

	// API configures the backend API server
	API *APIConfig `yaml:"api" mapstructure:"api" json:"api"`

	// LogLevel is the base log level, for the default logger
	LogLevel *slog.LevelVar `yaml:"log_level" mapstructure:"log_level" json:"log_level"`

	// StartupTimeout sets a limit on the amount of time the bot has to
	// initialize. If this is passed, the bot will abort startup.
	StartupTimeout time.Duration `yaml:"startup_timeout" mapstructure:"startup_timeout" json:"startup_timeout"`

	// ShutdownTimeout is the time to allow for a graceful shutdown. After this
	// elapses, the bot will force close all connections and exit.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout" json:"shutdown_timeout"`

	HTTPClient *http.Client `log:"[redacted]"`
}

func (c Config) LogValue() slog.Value {
	return structToSlogValue(c)
}

// DiscordConfig configures the discord bot itself.
//
//nolint:lll // can't break tags
type DiscordConfig struct {
	// Discord bot token (from the 'Bot' tab in the discord dev portal)
	Token string `yaml:"token" mapstructure:"token" json:"token" log:"[redacted]" binding:"required"`

	// GuildID is the server the bot moderates. Commands from other guilds
	// are ignored.
	GuildID string `yaml:"guild_id" mapstructure:"guild_id" json:"guild_id" binding:"required"`

	// StaffRoleID gates the moderator commands
	StaffRoleID string `yaml:"staff_role_id" mapstructure:"staff_role_id" json:"staff_role_id" binding:"required"`

	// ListenersRoleID is mentioned in scheduled announcements
	ListenersRoleID string `yaml:"listeners_role_id" mapstructure:"listeners_role_id" json:"listeners_role_id"`

	// CommandPrefix is the character(s) a message must start with to be
	// treated as a command
	CommandPrefix string `yaml:"command_prefix" mapstructure:"command_prefix" json:"command_prefix"`

	// PromptTimeout bounds interactive command follow-ups
	PromptTimeout time.Duration `yaml:"prompt_timeout" mapstructure:"prompt_timeout" json:"prompt_timeout"`

	// DecisionTimeout bounds the approval command's wait for a verdict
	DecisionTimeout time.Duration `yaml:"decision_timeout" mapstructure:"decision_timeout" json:"decision_timeout"`

	// CustomStatus is set as the bot's activity on connect
	CustomStatus string `yaml:"custom_status" mapstructure:"custom_status" json:"custom_status"`

	// Channels maps each bot function to its channel ID
	Channels ChannelConfig `yaml:"channels" mapstructure:"channels" json:"channels"`

	// Base discord logging level
	LogLevel *slog.LevelVar `yaml:"log_level" mapstructure:"log_level" json:"log_level"`

	// Log level for the `discordgo` library's logger
	DiscordGoLogLevel *slog.LevelVar `yaml:"discordgo_log_level" mapstructure:"discordgo_log_level" json:"discordgo_log_level"`

	// Discord gateway intents. See: https://discord.com/developers/docs/topics/gateway#gateway-intents
	GatewayIntents discordgo.Intent `yaml:"gateway_intents" mapstructure:"gateway_intents" json:"gateway_intents"`

	httpClient *http.Client
}

// ChannelConfig names every channel the bot reads from or posts to.
//
//nolint:lll // can't break tags
type ChannelConfig struct {
	// Submissions is where members post new album submissions
	Submissions string `yaml:"submissions" mapstructure:"submissions" json:"submissions" binding:"required"`

	// Approval is the staff channel where scheduled jobs report their
	// progress
	Approval string `yaml:"approval" mapstructure:"approval" json:"approval" binding:"required"`

	// Masterlists maps a masterlist name (voted, new, modern, classic,
	// theme, anything) to the channel holding its posts
	Masterlists map[string]string `yaml:"masterlists" mapstructure:"masterlists" json:"masterlists" binding:"required"`

	// Announcements receives the weekly open/close notices
	Announcements string `yaml:"announcements" mapstructure:"announcements" json:"announcements"`

	// QOTD receives the question of the day
	QOTD string `yaml:"qotd" mapstructure:"qotd" json:"qotd"`

	// Newsletter receives the weekly new-release roundup
	Newsletter string `yaml:"newsletter" mapstructure:"newsletter" json:"newsletter"`

	// GenreNewsletters maps a genre category to the channel that receives
	// its slice of the newsletter. Categories without an entry fold into
	// the main newsletter channel.
	GenreNewsletters map[string]string `yaml:"genre_newsletters" mapstructure:"genre_newsletters" json:"genre_newsletters"`

	// Promos receives approved promos on the hourly schedule
	Promos string `yaml:"promos" mapstructure:"promos" json:"promos"`

	// RejectedPromos receives promos whose author has left the server
	RejectedPromos string `yaml:"rejected_promos" mapstructure:"rejected_promos" json:"rejected_promos"`

	// WeeklyPlaylist, Ratings, FAQs and StaffHelp are referenced by the
	// weekly announcement messages
	WeeklyPlaylist string `yaml:"weekly_playlist" mapstructure:"weekly_playlist" json:"weekly_playlist"`
	Ratings        string `yaml:"ratings" mapstructure:"ratings" json:"ratings"`
	FAQs           string `yaml:"faqs" mapstructure:"faqs" json:"faqs"`
	StaffHelp      string `yaml:"staff_help" mapstructure:"staff_help" json:"staff_help"`
}

// MasterlistChannel returns the channel ID for a masterlist, or "" if
// the masterlist has no configured channel.
func (c ChannelConfig) MasterlistChannel(masterlist Masterlist) string {
	return c.Masterlists[string(masterlist)]
}

// SheetsConfig configures the Google Sheets the bot mirrors its state
// into.
//
//nolint:lll // can't break tags
type SheetsConfig struct {
	// CredentialsFile is the path to a service-account JSON key
	CredentialsFile string `yaml:"credentials_file" mapstructure:"credentials_file" json:"credentials_file" log:"[redacted]" binding:"required"`

	// SubmissionsURL is the spreadsheet with one worksheet per masterlist
	SubmissionsURL string `yaml:"submissions_url" mapstructure:"submissions_url" json:"submissions_url" binding:"required"`

	// AlbumsURL is the spreadsheet tracking already-discussed albums
	AlbumsURL string `yaml:"albums_url" mapstructure:"albums_url" json:"albums_url"`

	// QOTDURL is the spreadsheet holding the question pool
	QOTDURL string `yaml:"qotd_url" mapstructure:"qotd_url" json:"qotd_url"`

	// NewsURL is the spreadsheet holding upcoming release data
	NewsURL string `yaml:"news_url" mapstructure:"news_url" json:"news_url"`

	// PromosURL is the spreadsheet holding the promo queue
	PromosURL string `yaml:"promos_url" mapstructure:"promos_url" json:"promos_url"`

	// AppendInterval paces row appends during bulk syncs
	AppendInterval time.Duration `yaml:"append_interval" mapstructure:"append_interval" json:"append_interval"`

	// SyncInterval is how often the masterlist channels are mirrored
	// into the spreadsheet
	SyncInterval time.Duration `yaml:"sync_interval" mapstructure:"sync_interval" json:"sync_interval"`

	// The logging level for sheet operations
	LogLevel *slog.LevelVar `yaml:"log_level" mapstructure:"log_level" json:"log_level"`
}

// APIConfig configures the backend API server
//
//nolint:lll // can't break tags
type APIConfig struct {
	// Enabled determines whether the API server runs at all
	Enabled bool `yaml:"enabled" mapstructure:"enabled" json:"enabled"`

	// The address and port on which the server should listen (e.g., "127.0.0.1:5000").
	Listen string `yaml:"listen" mapstructure:"listen" json:"listen" binding:"required_if=Enabled true,hostname|filepath"`

	// The network type for listening (e.g., "tcp", "tcp4", "tcp6", "unix").
	ListenNetwork string `yaml:"listen_network" mapstructure:"listen_network" json:"listen_network" binding:"required_if=Enabled true,oneof=tcp tcp4 tcp6 unix"`

	// Token is the bearer token required on every request
	Token string `yaml:"token" mapstructure:"token" json:"token" log:"[redacted]" binding:"required_if=Enabled true"`

	// The logging level for the API server.
	LogLevel *slog.LevelVar `yaml:"log_level" mapstructure:"log_level" json:"log_level"`

	// Cross-origin configuration
	CORS CORSConfig `yaml:"cors" mapstructure:"cors" json:"cors"`

	// Maximum duration for reading the entire request, including the body.
	ReadTimeout time.Duration `yaml:"read_timeout" mapstructure:"read_timeout" json:"read_timeout" binding:"required_if=Enabled true,min=1s"`

	// Amount of time allowed to read request headers.
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" mapstructure:"read_header_timeout" json:"read_header_timeout"  binding:"required_if=Enabled true,min=1s"`

	// Maximum duration before timing out writes of the response.
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout" json:"write_timeout"  binding:"required_if=Enabled true,min=1s"`

	// Maximum amount of time to wait for the next request when keep-alives are enabled.
	IdleTimeout time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout" json:"idle_timeout"  binding:"required_if=Enabled true,min=1s"`

	// Development switches gin out of release mode
	Development bool `yaml:"development" mapstructure:"development" json:"development"`
}

// CORSConfig specifies cross-origin resource sharing settings
type CORSConfig struct {
	AllowOrigins     []string      `yaml:"allow_origins" mapstructure:"allow_origins" json:"allow_origins"`
	AllowMethods     []string      `yaml:"allow_methods" mapstructure:"allow_methods" json:"allow_methods"`
	AllowHeaders     []string      `yaml:"allow_headers" mapstructure:"allow_headers" json:"allow_headers"`
	ExposeHeaders    []string      `yaml:"expose_headers" mapstructure:"expose_headers" json:"expose_headers"`
	AllowCredentials bool          `yaml:"allow_credentials" mapstructure:"allow_credentials" json:"allow_credentials"`
	MaxAge           time.Duration `yaml:"max_age" mapstructure:"max_age" json:"max_age"`
}

func (c CORSConfig) GINConfig() cors.Config {
	return cors.Config{
		AllowOrigins:     c.AllowOrigins,
		AllowMethods:     c.AllowMethods,
		AllowHeaders:     c.AllowHeaders,
		MaxAge:           c.MaxAge,
		ExposeHeaders:    c.ExposeHeaders,
		AllowCredentials: c.AllowCredentials,
	}
}

func DefaultCORSConfig() CORSConfig {
	defaultMethods := make([]string, len(DefaultCORSAllowMethods))
	copy(defaultMethods, DefaultCORSAllowMethods)

	defaultHeaders := make([]string, len(DefaultCORSAllowHeaders))
	copy(defaultHeaders, DefaultCORSAllowHeaders)

	defaultExpose := make([]string, len(DefaultCORSExposeHeaders))
	copy(defaultExpose, DefaultCORSExposeHeaders)

	return CORSConfig{
		AllowOrigins:  []string{},
		AllowMethods:  defaultMethods,
		AllowHeaders:  defaultHeaders,
		ExposeHeaders: defaultExpose,
		MaxAge:        DefaultCORSMaxAge,
	}
}

// DefaultConfig returns a Config with all default settings populated
func DefaultConfig() *Config {
	mainLogLevel := &slog.LevelVar{}
	discordLogLevel := &slog.LevelVar{}
	discordgoLogLevel := &slog.LevelVar{}
	dbLogLevel := &slog.LevelVar{}
	apiLogLevel := &slog.LevelVar{}
	sheetsLogLevel := &slog.LevelVar{}

	mainLogLevel.Set(DefaultLogLevel)
	discordLogLevel.Set(DefaultDiscordLogLevel)
	discordgoLogLevel.Set(DefaultDiscordgoLogLevel)
	dbLogLevel.Set(DefaultDatabaseLogLevel)
	apiLogLevel.Set(DefaultAPILogLevel)
	sheetsLogLevel.Set(DefaultSheetsLogLevel)

	return &Config{
		DatabaseType:          DefaultDatabaseType,
		Database:              DefaultDatabase,
		DatabaseLogLevel:      dbLogLevel,
		DatabaseSlowThreshold: DefaultDatabaseSlowThreshold,
		Timezone:              DefaultTimezone,
		LogLevel:              mainLogLevel,
		StartupTimeout:        DefaultStartupTimeout,
		ShutdownTimeout:       DefaultShutdownTimeout,
		Discord: &DiscordConfig{
			CommandPrefix:     DefaultCommandPrefix,
			PromptTimeout:     DefaultPromptTimeout,
			DecisionTimeout:   DefaultDecisionTimeout,
			CustomStatus:      DefaultDiscordCustomStatus,
			GatewayIntents:    DefaultDiscordGatewayIntent,
			LogLevel:          discordLogLevel,
			DiscordGoLogLevel: discordgoLogLevel,
			Channels: ChannelConfig{
				Masterlists:      map[string]string{},
				GenreNewsletters: map[string]string{},
			},
		},
		Sheets: &SheetsConfig{
			AppendInterval: DefaultSheetAppendInterval,
			SyncInterval:   DefaultSheetSyncInterval,
			LogLevel:       sheetsLogLevel,
		},
		API: &APIConfig{
			Listen:            DefaultAPIListen,
			ListenNetwork:     defaultListenNetwork,
			LogLevel:          apiLogLevel,
			ReadHeaderTimeout: DefaultReadHeaderTimeout,
			ReadTimeout:       DefaultReadTimeout,
			WriteTimeout:      DefaultWriteTimeout,
			IdleTimeout:       DefaultIdleTimeout,
			CORS:              DefaultCORSConfig(),
		},
	}
}
