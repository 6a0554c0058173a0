package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	cataloghandlers "github.com/example/series-platform/internal/catalog/handlers"
	catalogstore "github.com/example/series-platform/internal/catalog/store"
	commenthandlers "github.com/example/series-platform/internal/comments/handlers"
	commentstore "github.com/example/series-platform/internal/comments/store"
	"github.com/example/series-platform/internal/feed"
	"github.com/example/series-platform/internal/platform/analytics"
	"github.com/example/series-platform/internal/platform/auth"
	"github.com/example/series-platform/internal/platform/cache"
	"github.com/example/series-platform/internal/platform/config"
	"github.com/example/series-platform/internal/platform/db"
	"github.com/example/series-platform/internal/platform/httpserver"
	"github.com/example/series-platform/internal/platform/logging"
	"github.com/example/series-platform/internal/platform/natsconn"
	"github.com/example/series-platform/internal/platform/run"
	"github.com/example/series-platform/internal/viewer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	isProd := strings.EqualFold(strings.TrimSpace(os.Getenv("APP_ENV")), "production")

	adminCode := strings.TrimSpace(os.Getenv("ADMIN_CODE"))
	if adminCode == "" {
		log.Error("ADMIN_CODE is required")
		_ = log.Sync()
		os.Exit(1)
	}

	jwtSecret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if jwtSecret == "" && isProd {
		log.Error("JWT_SECRET is required in production")
		_ = log.Sync()
		os.Exit(1)
	}

	pool := initPool(log, isProd)
	if pool != nil {
		defer pool.Close()
	}

	var catalog catalogstore.CatalogStore
	var comments commentstore.CommentStore
	if pool != nil {
		log.Info("stores: postgres")
		catalog = catalogstore.NewPostgresCatalogStore(pool, adminCode)
		comments = commentstore.NewPostgresCommentStore(pool)
	} else {
		log.Warn("stores: in-memory (development only)")
		mc := catalogstore.NewInMemoryCatalogStore(adminCode)
		ms := commentstore.NewInMemoryCommentStore()
		seedDemo(mc, ms, log)
		catalog, comments = mc, ms
	}

	readCache := initCache(log)
	prefs := initPrefs(log)

	verifier := auth.JWTVerifier{Secret: []byte(jwtSecret)}

	hub := feed.NewHub(log)
	var publisher *feed.Publisher
	var events *analytics.Publisher
	nc, err := natsconn.Connect(natsconn.Options{})
	if err != nil {
		log.Warn("nats unavailable, change feed disabled", zap.Error(err))
	} else {
		defer nc.Close()
		publisher = feed.NewPublisher(nc, log)
		if js, err := nc.JetStream(); err != nil {
			log.Warn("jetstream unavailable, analytics disabled", zap.Error(err))
		} else {
			events = analytics.New(js, log)
		}
		drain, err := hub.AttachNATS(nc)
		if err != nil {
			log.Warn("feed subscription failed", zap.Error(err))
		} else {
			defer drain()
		}
	}

	writeLimit := httpserver.NewRateLimiter(1, 5)

	r := chi.NewRouter()
	httpserver.SetupRouter(r, httpserver.RouterConfig{ReadyFunc: readyFunc(pool)})

	// Catalog (public)
	r.Get("/v1/series", cataloghandlers.ListSeries(catalog))
	r.Get("/v1/series/{series_id}", cataloghandlers.GetSeries(catalog, readCache))
	r.Get("/v1/series/{series_id}/episodes", cataloghandlers.ListEpisodes(catalog))
	r.Post("/v1/series/{series_id}/view", cataloghandlers.IncrementView(catalog, events, log))
	r.Post("/v1/series/{series_id}/rating", cataloghandlers.RateSeries(catalog, readCache, events))

	// Comments (public read, rate-limited anonymous write)
	r.Get("/v1/series/{series_id}/comments", commenthandlers.ListComments(comments))
	r.Get("/v1/comments/{comment_id}/replies", commenthandlers.ListReplies(comments))
	r.Group(func(r chi.Router) {
		r.Use(writeLimit.Middleware)
		r.Post("/v1/series/{series_id}/comments", commenthandlers.CreateComment(comments, publisher, events))
		r.Post("/v1/comments/{comment_id}/like", commenthandlers.ToggleLike(comments, publisher))
	})

	// Viewer preferences
	r.Get("/v1/viewers/{viewer_id}/prefs", viewer.GetPrefs(prefs))
	r.Put("/v1/viewers/{viewer_id}/prefs", viewer.PutPrefs(prefs))

	// Realtime change feed
	r.Get("/v1/feed", hub.Handler())

	// Editorial routes sit behind JWT admin auth on top of the stored
	// admin code check.
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser(verifier))
		r.Use(auth.RequireAdmin)
		r.Use(writeLimit.Middleware)
		r.Patch("/v1/admin/series/{series_id}/status", cataloghandlers.UpdateSeriesStatus(catalog, readCache))
	})

	srv := httpserver.New(httpserver.Options{Addr: cfg.HTTP.Addr, ServiceName: cfg.ServiceName, Logger: log, Router: r})

	runner := run.New(log)
	code := runner.WithSignals(func(ctx context.Context) error {
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		return srv.Start(log)
	})

	log.Info("exit", zap.Int("code", code))
	run.Exit(code)
}

// initPool connects to Postgres. In production (APP_ENV=production) a
// working connection is mandatory and the process terminates without one;
// in development a nil pool selects the in-memory stores.
func initPool(log *zap.Logger, isProd bool) *pgxpool.Pool {
	pool, err := db.Open(context.Background())
	if err != nil {
		if isProd {
			log.Error("postgres is required in production but unavailable", zap.Error(err))
			_ = log.Sync()
			os.Exit(1)
		}
		log.Warn("postgres unavailable", zap.Error(err))
		return nil
	}
	return pool
}

// initCache builds the series read cache from REDIS_URL. A nil cache is a
// no-op; every read falls through to the store.
func initCache(log *zap.Logger) *cache.RedisCache {
	url := strings.TrimSpace(os.Getenv("REDIS_URL"))
	if url == "" {
		log.Warn("REDIS_URL not set, series read cache disabled")
		return nil
	}
	rc, err := cache.NewRedisCache(url, 5*time.Minute)
	if err != nil {
		log.Warn("redis unavailable, series read cache disabled", zap.Error(err))
		return nil
	}
	log.Info("series read cache: redis")
	return rc
}

// initPrefs selects the viewer preference backend, preferring Redis.
func initPrefs(log *zap.Logger) viewer.PrefStore {
	url := strings.TrimSpace(os.Getenv("REDIS_URL"))
	if url != "" {
		ps, err := viewer.NewRedisPrefStore(url, 90*24*time.Hour)
		if err == nil {
			log.Info("viewer prefs: redis")
			return ps
		}
		log.Warn("redis unavailable, using in-memory viewer prefs", zap.Error(err))
	}
	return viewer.NewInMemoryPrefStore()
}

func readyFunc(pool *pgxpool.Pool) func() error {
	if pool == nil {
		return func() error { return nil }
	}
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return pool.Ping(ctx)
	}
}

// seedDemo loads a small fixture so the development API has something to
// serve without Postgres.
func seedDemo(mc *catalogstore.InMemoryCatalogStore, ms *commentstore.InMemoryCommentStore, log *zap.Logger) {
	yt := "dQw4w9WgXcQ"
	sr := mc.SeedSeries(catalogstore.Series{
		Title:             "Demo Series",
		Description:       "Seeded development fixture.",
		YouTubePlaylistID: &yt,
	})
	ep := mc.SeedEpisode(catalogstore.Episode{
		SeriesID:       sr.ID,
		Title:          "Episode 1",
		Season:         1,
		Number:         1,
		YouTubeVideoID: &yt,
	})
	ms.RegisterSeries(sr.ID)
	ms.RegisterEpisode(sr.ID, ep.ID)
	log.Info("seeded demo series", zap.String("series_id", sr.ID))
}
