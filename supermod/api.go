package supermod

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/lmittmann/tint"
)

const (
	apiPrefix          = "/api"
	apiHealthCheck     = "/healthz"
	apiPathStatus      = "/status"
	apiPathPause       = "/pause"
	apiPathResume      = "/resume"
	apiPathQuit        = "/quit"
	apiPathSyncSheets  = "/sync/sheets"
	apiPathActions     = "/actions"
	apiPathNewsPreview = "/news/preview"
)

const xRequestIDHeader = "X-Request-ID"

var structValidator = validator.New()

//nolint:gochecknoinits // validator tag registration
func init() {
	structValidator.SetTagName("binding")
}

type httpError struct {
	Error string `json:"error"`
}

// API is the operator-facing HTTP server. It exposes health, status and
// a few moderation controls behind a bearer token.
type API struct {
	config     *APIConfig
	su         *Supermod
	engine     *gin.Engine
	httpServer *http.Server
	listener   net.Listener
	logger     *slog.Logger
}

func newAPI(su *Supermod, config *APIConfig) (*API, error) {
	logger := slog.New(
		tint.NewHandler(
			defaultLogWriter, &tint.Options{
				Level:     config.LogLevel,
				AddSource: true,
			},
		),
	).With(loggerNameKey, "api")

	if !config.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	api := &API{
		config: config,
		su:     su,
		engine: r,
		logger: logger,
		httpServer: &http.Server{
			Addr:              config.Listen,
			Handler:           r,
			WriteTimeout:      config.WriteTimeout,
			IdleTimeout:       config.IdleTimeout,
			ReadTimeout:       config.ReadTimeout,
			ReadHeaderTimeout: config.ReadHeaderTimeout,
		},
	}

	corsConfig := config.CORS.GINConfig()
	if len(corsConfig.AllowOrigins) == 0 && config.Development {
		corsConfig.AllowOrigins = []string{"*"}
	}

	if !config.Development {
		r.Use(gin.Recovery())
	}
	r.Use(
		requestIDMiddleware(),
		ginLoggingMiddleware(),
		cors.New(corsConfig),
	)

	r.GET(apiHealthCheck, api.healthCheck)

	protected := r.Group(apiPrefix)
	protected.Use(tokenAuthMiddleware(config.Token))
	protected.GET(apiPathStatus, api.getStatus)
	protected.POST(apiPathPause, api.botPause)
	protected.POST(apiPathResume, api.botResume)
	protected.POST(apiPathQuit, api.botQuit)
	protected.POST(apiPathSyncSheets, api.triggerSheetSync)
	protected.GET(apiPathActions, api.getActions)
	protected.GET(apiPathNewsPreview, api.getNewsPreview)

	return api, nil
}

func (a *API) Serve(ctx context.Context) error {
	if a.listener == nil {
		listenCfg := &net.ListenConfig{}
		ln, err := listenCfg.Listen(
			ctx, a.config.ListenNetwork, a.config.Listen,
		)
		if err != nil {
			return err
		}
		a.listener = ln
	}
	a.logger.InfoContext(ctx, "api listening", "address", a.config.Listen)
	return a.httpServer.Serve(a.listener)
}

func (a *API) Shutdown(ctx context.Context) error {
	return a.httpServer.Shutdown(ctx)
}

func (a *API) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type botStatus struct {
	Version   string    `json:"version"`
	StartedAt time.Time `json:"started_at"`
	Uptime    string    `json:"uptime"`
	Paused    bool      `json:"paused"`
	Connected bool      `json:"connected"`
}

func (a *API) getStatus(c *gin.Context) {
	c.JSON(
		http.StatusOK, botStatus{
			Version:   Version,
			StartedAt: a.su.startedAt,
			Uptime:    time.Since(a.su.startedAt).String(),
			Paused:    a.su.Paused(),
			Connected: a.su.discord.connected.Load(),
		},
	)
}

func (a *API) botPause(c *gin.Context) {
	if err := a.su.SetPaused(c.Request.Context(), true); err != nil {
		ginContextLogger(c).Error("error pausing bot", tint.Err(err))
		c.JSON(http.StatusInternalServerError, httpError{Error: "pause failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"paused": true})
}

func (a *API) botResume(c *gin.Context) {
	if err := a.su.SetPaused(c.Request.Context(), false); err != nil {
		ginContextLogger(c).Error("error resuming bot", tint.Err(err))
		c.JSON(http.StatusInternalServerError, httpError{Error: "resume failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"paused": false})
}

func (a *API) botQuit(c *gin.Context) {
	ginContextLogger(c).Warn("quit requested via api")
	c.JSON(http.StatusOK, gin.H{"stopping": true})
	go func() {
		select {
		case a.su.signalStop <- struct{}{}:
		case <-time.After(5 * time.Second):
		}
	}()
}

func (a *API) triggerSheetSync(c *gin.Context) {
	ctx := context.WithoutCancel(c.Request.Context())
	go a.su.runSheetSync(ctx)
	c.JSON(http.StatusAccepted, gin.H{"sync": "started"})
}

func (a *API) getActions(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 500 {
		c.JSON(http.StatusBadRequest, httpError{Error: "invalid limit"})
		return
	}
	var actions []ModerationAction
	rv := a.su.db.WithContext(c.Request.Context()).
		Order("created_at desc").
		Limit(limit).
		Find(&actions)
	if rv.Error != nil {
		ginContextLogger(c).Error("error listing actions", tint.Err(rv.Error))
		c.JSON(http.StatusInternalServerError, httpError{Error: "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"actions": actions})
}

func (a *API) getNewsPreview(c *gin.Context) {
	date := a.su.now()
	if arg := c.Query("date"); arg != "" {
		parsed, err := parseSheetDate(arg)
		if err != nil {
			c.JSON(
				http.StatusBadRequest,
				httpError{Error: "date must be M/D/YYYY"},
			)
			return
		}
		date = parsed
	}
	wks := a.su.sheets.Worksheet(
		a.su.config.Sheets.NewsURL, newsWorksheetTitle(date.Year()),
	)
	rows, err := wks.Rows(c.Request.Context())
	if err != nil {
		ginContextLogger(c).Error("error reading news worksheet", tint.Err(err))
		c.JSON(http.StatusInternalServerError, httpError{Error: "worksheet read failed"})
		return
	}
	posts, errorsMessage := newsletterCreate(rows, date, newsletterOptions{})
	c.JSON(
		http.StatusOK, gin.H{
			"posts":  posts,
			"errors": errorsMessage,
		},
	)
}

// tokenAuthMiddleware rejects requests without the configured bearer
// token.
func tokenAuthMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.AbortWithStatusJSON(
				http.StatusServiceUnavailable,
				httpError{Error: "api token not configured"},
			)
			return
		}
		header := c.GetHeader("Authorization")
		provided, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare(
			[]byte(provided), []byte(token),
		) != 1 {
			c.AbortWithStatusJSON(
				http.StatusUnauthorized,
				httpError{Error: "unauthorized"},
			)
			return
		}
		c.Next()
	}
}

// requestIDMiddleware assigns a random request ID to each request and
// echoes it back as a response header.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := generateRandomHexString(32)
		if err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Set(xRequestIDHeader, id)
		c.Header(xRequestIDHeader, id)
		c.Next()
	}
}

// ginContextLogger returns a request-scoped logger, creating and caching
// it in the gin context on first use.
func ginContextLogger(c *gin.Context) *slog.Logger {
	if logger, ok := c.Get(string(loggerContextKey)); ok {
		if requestLogger, isLogger := logger.(*slog.Logger); isLogger {
			return requestLogger
		}
	}
	requestID, _ := c.Get(xRequestIDHeader)
	path := c.Request.URL.Path
	if raw := c.Request.URL.RawQuery; raw != "" {
		path = path + "?" + raw
	}
	requestLogger := slog.Default().With(
		slog.Group(
			"request",
			"method", c.Request.Method,
			"path", path,
			"remote_addr", c.Request.RemoteAddr,
			"remote_ip", c.RemoteIP(),
			"user_agent", c.Request.UserAgent(),
		),
		slog.Any(xRequestIDHeader, requestID),
	)
	c.Set(string(loggerContextKey), requestLogger)
	return requestLogger
}

// ginLoggingMiddleware logs each request with its latency and status.
func ginLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestLogger := ginContextLogger(c)
		c.Next()
		requestLogger.Info(
			"request complete",
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"errors", c.Errors.Errors(),
		)
	}
}

// generateRandomHexString returns a random hex string of the given
// length.
func generateRandomHexString(length int) (string, error) {
	bytes := make([]byte, length/2)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
