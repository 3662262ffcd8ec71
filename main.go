package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"

	"github.com/padraicbc/luckydraw/config"
	"github.com/padraicbc/luckydraw/db"
	"github.com/padraicbc/luckydraw/draw"
	"github.com/padraicbc/luckydraw/handlers"
	applog "github.com/padraicbc/luckydraw/logger"
	mw "github.com/padraicbc/luckydraw/middleware"
	"github.com/padraicbc/luckydraw/pool"
)

func main() {
	cfg := config.Load()
	logger, err := applog.New(cfg.Debug, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	tiers, err := pool.LoadTiers(cfg.TiersFile)
	if err != nil {
		logger.Fatal("load tiers failed", zap.Error(err))
	}

	bdb, err := db.Setup(cfg)
	if bdb == nil {
		logger.Fatal("open database failed", zap.Error(err))
	}
	defer bdb.Close()
	if err != nil {
		// Draws answer 503 until the database comes back.
		logger.Warn("database not reachable at startup", zap.Error(err))
	} else if err := db.CreateTables(context.Background(), bdb); err != nil {
		logger.Fatal("create tables failed", zap.Error(err))
	}

	engine := draw.New(db.NewSignStore(bdb), draw.WithLogger(logger.Named("draw")))
	h := handlers.New(bdb, engine, tiers, cfg.LogDraws)
	h.JWTKey = cfg.JWTKey()
	h.IsAdmin = cfg.IsAdmin

	e := newServer(cfg, h, logger)

	if cfg.Debug || len(cfg.TLSDomains) == 0 {
		logger.Info("starting server", zap.Bool("debug", cfg.Debug), zap.String("addr", cfg.Port))
		if err := e.Start(cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server exited", zap.Error(err))
		}
		return
	}

	autoTLS := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		Cache:      autocert.DirCache(".cache"),
		HostPolicy: autocert.HostWhitelist(cfg.TLSDomains...),
	}

	s := &http.Server{
		Addr:         ":443",
		Handler:      e,
		TLSConfig:    autoTLS.TLSConfig(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	logger.Info("starting tls server", zap.Strings("domains", cfg.TLSDomains))
	if err := s.ListenAndServeTLS("", ""); err != http.ErrServerClosed {
		logger.Error("tls server exited", zap.Error(err))
		os.Exit(1)
	}
}

// newServer wires middleware and routes. Admin routes are only mounted when a
// JWT secret is configured.
func newServer(cfg *config.Config, h *handlers.Handler, logger *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod: true,
		LogURI:    true,
		LogStatus: true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.Int("status", v.Status),
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			switch {
			case v.Status >= 500:
				logger.Error("http request", fields...)
			case v.Status >= 400:
				logger.Warn("http request", fields...)
			default:
				logger.Debug("http request", fields...)
			}
			return nil
		},
	}))
	e.Use(echomw.Recover())
	e.Use(mw.CORS(cfg.CORSOrigins))

	// Public
	e.GET("/", h.Root)
	e.GET("/.well-known/appspecific/com.chrome.devtools.json", h.DevtoolsProbe)
	e.GET("/api/ping", h.Ping)
	e.POST("/draw", h.Draw)
	e.POST("/api/draw", h.DisplayDraw)

	if !cfg.AdminEnabled() {
		logger.Info("JWT_SECRET not set, admin routes disabled")
		return e
	}

	e.POST("/admin/signin", h.Signin)

	// Protected – require valid JWT in Authorization header
	admin := e.Group("/admin", mw.JWT(cfg.JWTKey()))
	admin.GET("/pool", h.PoolStatus)
	admin.POST("/password-hash", h.PasswordHash)

	return e
}
