package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mohammad-safakhou/sitesearch/config"
	"github.com/mohammad-safakhou/sitesearch/internal/history"
	"github.com/mohammad-safakhou/sitesearch/internal/index"
	"github.com/mohammad-safakhou/sitesearch/internal/runtime"
	"github.com/mohammad-safakhou/sitesearch/internal/search"
	"github.com/mohammad-safakhou/sitesearch/internal/session"
	"github.com/mohammad-safakhou/sitesearch/internal/suggest"
)

// Run wires the whole service and blocks serving HTTP.
func Run(cfg *config.Config) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Cookie"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	if cfg.Telemetry.Enabled {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}

	ctx := context.Background()

	// History persists to redis; when redis is down at startup the service
	// degrades to in-process memory instead of refusing to start.
	var storage history.Storage
	rdb, err := history.Conn(ctx, cfg.Storage.Redis.Addr(), cfg.Storage.Redis.Password, cfg.Storage.Redis.DB, cfg.Storage.Redis.Timeout)
	if err != nil {
		baseLogger.Printf("redis unavailable (%s), falling back to in-memory history: %v", cfg.Storage.Redis.Addr(), err)
		storage = history.NewMemoryStorage()
	} else {
		storage = history.NewRedisStorage(rdb)
	}
	hist := history.NewStore(storage, cfg.Search.HistoryMax)

	store := index.NewStore(cfg.Index)
	var events session.EventSink
	if cfg.Telemetry.Enabled {
		m := runtime.NewMetrics()
		events = m
		store.SetReloadObserver(func(err error) {
			outcome := "success"
			if err != nil {
				outcome = "failure"
			}
			m.IndexReloads.WithLabelValues(outcome).Inc()
		})
	}
	if err := store.Load(ctx); err != nil {
		// Searches report loading/unavailable until the refresher succeeds.
		baseLogger.Printf("initial index load failed, continuing degraded: %v", err)
	}
	if err := store.StartRefresher(ctx, cfg.Index.RefreshCron); err != nil {
		return err
	}

	engine := search.NewEngine(store, cfg.Search.MaxResults)
	suggester := suggest.NewEngine(store, hist, cfg.Index.CommonTopics, cfg.Search.SuggestionLimit)

	sessions := NewSessionManager(session.Deps{
		Index:           store,
		Search:          engine,
		Suggest:         suggester,
		History:         hist,
		Events:          events,
		SearchDebounce:  cfg.Search.SearchDebounce,
		SuggestDebounce: cfg.Search.SuggestDebounce,
	})
	defer sessions.Close()

	secret, err := runtime.LoadJWTSecret(cfg)
	if err != nil {
		return err
	}

	api := e.Group("/api")
	sh := &SearchHandler{Sessions: sessions, Engine: engine, Suggest: suggester}
	sh.Register(api)
	hh := &HistoryHandler{Store: hist}
	hh.Register(api)
	ah := &AdminHandler{History: hist, Index: store, Secret: secret, PasswordHash: cfg.Server.AdminPasswordHash}
	ah.Register(api.Group("/admin"))

	addr := cfg.Server.Address
	if addr == "" {
		addr = ":10030"
	}
	log.Printf("listening on %s", addr)
	return e.Start(addr)
}
