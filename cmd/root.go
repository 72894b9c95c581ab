package cmd

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"reflect"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/pk-470/Supermod/supermod"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfg        = supermod.DefaultConfig()
	configFile string
)

var rootCmd = &cobra.Command{
	Use: "supermod [flags]",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		err := viper.Unmarshal(
			cfg,
			viper.DecodeHook(
				mapstructure.ComposeDecodeHookFunc(
					mapstructure.StringToTimeDurationHookFunc(),
					LevelToStringHookFunc(),
				),
			),
		)
		if err != nil {
			log.Fatalln(err)
		}
	},
}

func getLogLevel(level string) (slog.Level, error) {
	switch level {
	case slog.LevelDebug.String():
		return slog.LevelDebug, nil
	case slog.LevelInfo.String():
		return slog.LevelInfo, nil
	case slog.LevelWarn.String():
		return slog.LevelWarn, nil
	case slog.LevelError.String():
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %s", level)
	}
}

func LevelToStringHookFunc() mapstructure.DecodeHookFuncType {
	return func(
		f reflect.Type,
		t reflect.Type,
		data any,
	) (any, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		if t.Kind() != reflect.Ptr {
			return data, nil
		}
		if t.Elem() != reflect.TypeOf(slog.LevelVar{}) {
			return data, nil
		}
		lvl, err := getLogLevel(data.(string))
		if err != nil {
			return nil, fmt.Errorf("invalid log level: %s", data)
		}
		lvlVar := &slog.LevelVar{}
		lvlVar.Set(lvl)
		return lvlVar, nil
	}
}

func Execute() {
	ctx, cancel := context.WithCancel(context.Background())
	rootCmd.SetContext(ctx)
	signals := make(chan os.Signal, 1)
	signal.Notify(
		signals,
		os.Interrupt,
		syscall.SIGHUP,
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer func() {
		signal.Stop(signals)
		cancel()
	}()
	go func() {
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
			//
		}
	}()
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func initConfig() {
	if configFile == "" {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found")
		}
	} else {
		fmt.Println("loading env from file", configFile)
		if err := godotenv.Load(configFile); err != nil {
			log.Println("No .env file found")
		}
	}

	viper.SetDefault("database", supermod.DefaultDatabase)
	viper.SetDefault("database_type", supermod.DefaultDatabaseType)
	viper.SetDefault(
		"database_slow_threshold",
		supermod.DefaultDatabaseSlowThreshold,
	)
	viper.SetDefault(
		"database_log_level",
		supermod.DefaultDatabaseLogLevel.String(),
	)
	viper.SetDefault("timezone", supermod.DefaultTimezone)
	viper.SetDefault("log_level", supermod.DefaultLogLevel.String())
	viper.SetDefault("startup_timeout", supermod.DefaultStartupTimeout)
	viper.SetDefault("shutdown_timeout", supermod.DefaultShutdownTimeout)

	// Discord config
	viper.SetDefault("discord.token", "")
	viper.SetDefault("discord.guild_id", "")
	viper.SetDefault("discord.staff_role_id", "")
	viper.SetDefault("discord.listeners_role_id", "")
	viper.SetDefault("discord.command_prefix", supermod.DefaultCommandPrefix)
	viper.SetDefault("discord.prompt_timeout", supermod.DefaultPromptTimeout)
	viper.SetDefault("discord.decision_timeout", supermod.DefaultDecisionTimeout)
	viper.SetDefault("discord.custom_status", supermod.DefaultDiscordCustomStatus)
	viper.SetDefault(
		"discord.log_level",
		supermod.DefaultDiscordLogLevel.String(),
	)
	viper.SetDefault(
		"discord.discordgo_log_level",
		supermod.DefaultDiscordgoLogLevel.String(),
	)
	viper.SetDefault(
		"discord.gateway_intents",
		supermod.DefaultDiscordGatewayIntent,
	)

	// Sheets config
	viper.SetDefault("sheets.credentials_file", "")
	viper.SetDefault("sheets.submissions_url", "")
	viper.SetDefault("sheets.albums_url", "")
	viper.SetDefault("sheets.qotd_url", "")
	viper.SetDefault("sheets.news_url", "")
	viper.SetDefault("sheets.promos_url", "")
	viper.SetDefault(
		"sheets.append_interval",
		supermod.DefaultSheetAppendInterval,
	)
	viper.SetDefault("sheets.sync_interval", supermod.DefaultSheetSyncInterval)
	viper.SetDefault("sheets.log_level", supermod.DefaultSheetsLogLevel.String())

	// API config
	viper.SetDefault("api.enabled", false)
	viper.SetDefault("api.listen", supermod.DefaultAPIListen)
	viper.SetDefault("api.listen_network", "tcp")
	viper.SetDefault("api.token", "")
	viper.SetDefault("api.log_level", supermod.DefaultAPILogLevel.String())
	viper.SetDefault("api.read_timeout", supermod.DefaultReadTimeout)
	viper.SetDefault(
		"api.read_header_timeout",
		supermod.DefaultReadHeaderTimeout,
	)
	viper.SetDefault("api.write_timeout", supermod.DefaultWriteTimeout)
	viper.SetDefault("api.idle_timeout", supermod.DefaultIdleTimeout)
	viper.SetDefault("api.development", false)

	// API: CORS config
	viper.SetDefault(
		"api.cors.allow_headers",
		supermod.DefaultCORSAllowHeaders,
	)
	viper.SetDefault(
		"api.cors.allow_methods",
		supermod.DefaultCORSAllowMethods,
	)
	viper.SetDefault(
		"api.cors.expose_headers",
		supermod.DefaultCORSExposeHeaders,
	)
	viper.SetDefault("api.cors.allow_origins", []string{})
	viper.SetDefault("api.cors.max_age", supermod.DefaultCORSMaxAge)
	viper.SetDefault("api.cors.allow_credentials", false)

	envPrefix := os.Getenv(supermod.EnvvarSetEnvPrefix)
	if envPrefix == "" {
		envPrefix = supermod.DefaultEnvPrefix
	}
	viper.SetEnvPrefix(envPrefix)

	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)
	viper.AutomaticEnv()

	// Convert values to correct types
	viper.Set(
		"api.cors.allow_headers",
		viper.GetStringSlice("api.cors.allow_headers"),
	)
	viper.Set(
		"api.cors.allow_origins",
		viper.GetStringSlice("api.cors.allow_origins"),
	)
	viper.Set(
		"api.cors.allow_methods",
		viper.GetStringSlice("api.cors.allow_methods"),
	)
	viper.Set(
		"api.cors.expose_headers",
		viper.GetStringSlice("api.cors.expose_headers"),
	)

	for _, key := range []string{
		"log_level",
		"database_log_level",
		"discord.log_level",
		"discord.discordgo_log_level",
		"sheets.log_level",
		"api.log_level",
	} {
		logLevelVar, err := levelStringToLevelVar(viper.GetString(key))
		if err != nil {
			log.Fatalf("error parsing %s: %v", key, err)
		}
		viper.Set(key, logLevelVar)
	}
}

func levelStringToLevelVar(lvl string) (*slog.LevelVar, error) {
	level := &slog.LevelVar{}
	err := level.UnmarshalText([]byte(lvl))
	return level, err
}

//nolint:gochecknoinits
func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(
		&configFile,
		"config",
		"",
		"Config file to use",
	)
}
