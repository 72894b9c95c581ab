package supermod

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lmittmann/tint"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	dbTypeSQLite   = "sqlite"
	dbTypePostgres = "postgres"
)

var (
	sqliteMaxOpenConns    = 1
	sqliteMaxIdleConns    = 1
	sqliteMaxConnLifetime = 5 * time.Minute
	sqliteExecPragma      = []string{
		"pragma journal_mode=WAL;",
		"pragma synchronous = normal;",
		"pragma temp_store = memory;",
		"pragma foreign_keys = ON;",
	}
)

// ModelUnixTime is an embeddable model with Unix timestamps for
// creation, update, and deletion.
type ModelUnixTime struct {
	CreatedAt int64          `gorm:"autoCreateTime:milli" json:"created_at,omitempty"`
	UpdatedAt int64          `gorm:"autoUpdateTime:milli" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

type ModelUintID struct {
	ID uint `gorm:"primaryKey" json:"id"`
}

// BotState is the single persisted row of operator-togglable state.
// Pausing stops the scheduled jobs (QOTD, promos, sheet sync, weekly
// announcements) without taking the bot offline.
type BotState struct {
	ModelUintID
	ModelUnixTime
	Paused bool `json:"paused"`
}

// ModerationAction is an audit record of every decision taken on a
// submission, whether by a moderator verdict or a scheduled sync.
type ModerationAction struct {
	ModelUintID
	ModelUnixTime
	Action      string `json:"action" gorm:"index"`
	Masterlist  string `json:"masterlist"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	SubmitterID string `json:"submitter_id" gorm:"index"`
	MessageID   string `json:"message_id"`
	ModeratorID string `json:"moderator_id"`
	Detail      string `json:"detail,omitempty"`
}

const (
	actionAccept  = "accept"
	actionReject  = "reject"
	actionHalt    = "halt"
	actionUnhalt  = "unhalt"
	actionReplace = "replace"
	actionSync    = "sync"
)

// database wraps the GORM connection. SQLite runs with a single
// connection, so writes are serialized behind the mutex unless the
// backend supports concurrent writers.
type database struct {
	db                     *gorm.DB
	mu                     sync.Mutex
	logger                 *slog.Logger
	enableConcurrentWrites bool
}

func newDatabase(db *gorm.DB, log *slog.Logger, enableConcurrentWrites bool) *database {
	if log == nil {
		log = slog.Default()
	}
	return &database{
		db:                     db,
		logger:                 log.With(loggerNameKey, "writedb"),
		enableConcurrentWrites: enableConcurrentWrites,
	}
}

func (d *database) DB() *gorm.DB {
	return d.db
}

func (d *database) Lock() {
	if d.enableConcurrentWrites {
		return
	}
	d.mu.Lock()
}

func (d *database) Unlock() {
	if d.enableConcurrentWrites {
		return
	}
	d.mu.Unlock()
}

// State loads the BotState row, creating it if this is the first run.
func (d *database) State(ctx context.Context) (*BotState, error) {
	var state BotState
	err := d.db.WithContext(ctx).Last(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		d.Lock()
		defer d.Unlock()
		if err = d.db.WithContext(ctx).Create(&state).Error; err != nil {
			return nil, err
		}
		return &state, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// SetPaused flips the persisted pause flag.
func (d *database) SetPaused(ctx context.Context, state *BotState, paused bool) error {
	d.Lock()
	defer d.Unlock()
	state.Paused = paused
	return d.db.WithContext(ctx).Save(state).Error
}

// RecordAction appends an audit record. Failures are logged rather than
// propagated, since the Discord-side effect already happened.
func (d *database) RecordAction(ctx context.Context, action *ModerationAction) {
	d.Lock()
	defer d.Unlock()
	if err := d.db.WithContext(ctx).Create(action).Error; err != nil {
		d.logger.ErrorContext(
			ctx,
			"error recording moderation action",
			tint.Err(err),
			"action", action.Action,
			"message_id", action.MessageID,
		)
	}
}

// CreateDB initializes the database connection and runs migrations.
// databaseType must be 'sqlite' or 'postgres'; database is the
// connection string, or SQLite file path.
func CreateDB(ctx context.Context, databaseType string, database string) (*gorm.DB, error) {
	handler := newLogHandler(os.Stdout, slog.LevelWarn)
	gormLogger := newGORMLogger(handler, DefaultDatabaseSlowThreshold)
	dbLogger := slog.New(handler)

	dbLogger.InfoContext(
		ctx,
		"Initializing database",
		"database_type", databaseType,
		"database", database,
	)
	db, err := getDB(databaseType, database, gormLogger)
	if err != nil {
		return db, err
	}

	if databaseType == dbTypeSQLite {
		sqlDB, e := db.DB()
		if e != nil {
			return db, fmt.Errorf("error getting database connection: %w", e)
		}
		sqlDB.SetMaxOpenConns(sqliteMaxOpenConns)
		sqlDB.SetMaxIdleConns(sqliteMaxIdleConns)
		sqlDB.SetConnMaxLifetime(sqliteMaxConnLifetime)
		pragmaErrors := make([]error, 0, len(sqliteExecPragma))
		for _, p := range sqliteExecPragma {
			pragmaErrors = append(pragmaErrors, db.WithContext(ctx).Exec(p).Error)
		}
		if pragmaErr := errors.Join(pragmaErrors...); pragmaErr != nil {
			return db, pragmaErr
		}
	}

	txn := db.WithContext(ctx).Begin()

	mg := txn.Migrator()
	err = mg.AutoMigrate(
		&BotState{},
		&ModerationAction{},
	)
	if err != nil {
		return db, err
	}

	if commitErr := txn.Commit().Error; commitErr != nil {
		return db, commitErr
	}

	return db, nil
}

func getDB(
	databaseType string,
	database string,
	gormLogger *gormStructuredLogger,
) (*gorm.DB, error) {
	switch databaseType {
	case dbTypeSQLite:
		if dir := filepath.Dir(database); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				if !errors.Is(err, os.ErrExist) {
					return nil, err
				}
			}
		}
		return gorm.Open(
			sqlite.Open(database),
			&gorm.Config{
				Logger: gormLogger,
				NowFunc: func() time.Time {
					return time.Now().UTC()
				},
			},
		)
	case dbTypePostgres:
		return gorm.Open(
			postgres.Open(database), &gorm.Config{
				Logger: gormLogger,
				NowFunc: func() time.Time {
					return time.Now().UTC()
				},
			},
		)
	default:
		return nil, fmt.Errorf(
			"unsupported database type: %s (must be %q or %q)",
			databaseType, dbTypeSQLite, dbTypePostgres,
		)
	}
}
