package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mbolis/quest-editor/app"
	"github.com/mbolis/quest-editor/config"
	"github.com/mbolis/quest-editor/database"
	"github.com/mbolis/quest-editor/httpx"
	"github.com/mbolis/quest-editor/log"
	"github.com/mbolis/quest-editor/routes"
	"github.com/mbolis/quest-editor/sessions"
)

const limiterIdle = 2 * time.Hour

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	if cfg.LogJSON {
		log.SetJSON()
	}

	db, err := database.Open(cfg.DBUrl)
	if err != nil {
		log.Fatal("main.db.open:", err)
	}
	defer db.Close()

	ctx := context.Background()
	err = httpx.SeedAdmin(ctx, db, cfg)
	if err != nil {
		log.Fatal("main.db.seed_admin:", err)
	}

	var store sessions.Store
	var memStore *sessions.MemoryStore
	if cfg.RedisURL != "" {
		redisStore, err := sessions.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal("main.redis:", err)
		}
		defer redisStore.Close()
		store = redisStore
	} else {
		memStore = sessions.NewMemoryStore()
		store = memStore
	}

	limiter := httpx.NewRateLimiter(cfg.RateLimit, cfg.RateBurst)

	sweeper, err := startSweeper(cfg, db, memStore, limiter)
	if err != nil {
		log.Fatal("main.cron:", err)
	}
	defer sweeper.Stop()

	app := app.App{
		DB:           db,
		BearerServer: httpx.NewBearerServer(db, cfg),
		Config:       cfg,
		Sessions:     sessions.NewManager(store, cfg.SessionTTL),
		Limiter:      limiter,
	}

	handler := routes.Wire(app)

	err = runServer(cfg, handler)
	if !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("main.server:", err)
	}
}

// startSweeper schedules the periodic cleanup of idle sessions, rate
// limiters and expired refresh tokens.
func startSweeper(cfg config.Config, db *database.DB, memStore *sessions.MemoryStore, limiter *httpx.RateLimiter) (*cron.Cron, error) {
	c := cron.New(cron.WithLogger(cronLogger{}), cron.WithChain(cron.Recover(cronLogger{})))
	_, err := c.AddFunc(cfg.SweepSchedule, func() {
		var swept int
		if memStore != nil {
			swept = memStore.Sweep()
		}
		idle := limiter.Sweep(limiterIdle)
		tokens, err := db.DeleteExpiredTokens(context.Background(), time.Now())
		if err != nil {
			log.Errorf("sweep.tokens: %s", err)
		}
		log.WithFields(log.Fields{
			"sessions": swept,
			"limiters": idle,
			"tokens":   tokens,
		}).Debug("sweep")
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	log.Infof("Sweeping idle sessions on %q", cfg.SweepSchedule)
	return c, nil
}

func runServer(cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Info("Listening on " + cfg.Url())
	return srv.ListenAndServe()
}

// cronLogger routes the scheduler's own logging through logrus.
type cronLogger struct{}

func cronFields(keysAndValues []any) log.Fields {
	fields := log.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	log.WithFields(cronFields(keysAndValues)).Debug("cron." + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	log.WithFields(cronFields(keysAndValues)).Errorf("cron.%s: %s", msg, err)
}
