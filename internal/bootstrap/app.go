package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	handler "matchroom/internal/handler/http"
	httpcatalog "matchroom/internal/infra/catalog/http"
	rediscatalog "matchroom/internal/infra/catalog/redis"
	gormpersistence "matchroom/internal/infra/persistence/gorm"
	"matchroom/internal/infra/setup"
	"matchroom/internal/middleware"
	"matchroom/internal/notify"
	"matchroom/internal/service"
	"matchroom/internal/tasks"
	"matchroom/internal/worker"
)

// App holds the wired application: HTTP server, background worker and the
// shared infrastructure clients.
type App struct {
	cfg         *Config
	db          *gorm.DB
	redisClient *redis.Client
	asynqClient *asynq.Client

	httpServer   *http.Server
	workerServer *asynq.Server
	workerMux    *asynq.ServeMux
	scheduler    *asynq.Scheduler
}

// NewApp builds the full dependency graph from configuration.
func NewApp(cfg *Config) (*App, error) {
	// 1. Infrastructure clients.
	db, err := setup.InitDB(cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return nil, err
	}
	if err := setup.MigrateDB(db); err != nil {
		return nil, err
	}
	redisClient, err := setup.InitRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, err
	}
	redisOpt := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	asynqClient := asynq.NewClient(redisOpt)

	// 2. Repositories and collaborators.
	roomRepo := gormpersistence.NewGormRoomRepository(db)
	memberRepo := gormpersistence.NewGormMemberRepository(db)
	voteRepo := gormpersistence.NewGormVoteRepository(db)
	matchRepo := gormpersistence.NewGormMatchRepository(db)

	gateway := httpcatalog.NewHTTPCatalogGateway(cfg.CatalogBaseURL, cfg.CatalogAPIKey, cfg.CatalogTimeout)
	cache := rediscatalog.NewRedisCatalogCache(redisClient, "mr:", cfg.CatalogCacheTTL)
	notifier := notify.NewAsynqNotifier(asynqClient)

	// 3. Services.
	activitySvc := service.NewActivityService(memberRepo, cfg.ActivityThresholds)
	playlistSvc := service.NewPlaylistService(roomRepo, gateway, cache)
	shuffleSvc := service.NewShuffleService(roomRepo, memberRepo)
	roomSvc := service.NewRoomService(roomRepo, memberRepo, playlistSvc, shuffleSvc, notifier)
	matchSvc := service.NewMatchService(matchRepo, voteRepo, roomRepo, memberRepo, activitySvc, gateway, notifier)
	refreshSvc := service.NewRefreshService(roomRepo, memberRepo, playlistSvc, shuffleSvc, activitySvc, notifier, cfg.RefreshThreshold)

	// 4. HTTP surface.
	roomHandler := handler.NewRoomHandler(roomSvc, shuffleSvc)
	voteHandler := handler.NewVoteHandler(matchSvc, shuffleSvc, playlistSvc)
	matchHandler := handler.NewMatchHandler(matchSvc)
	activityHandler := handler.NewActivityHandler(activitySvc)
	refreshHandler := handler.NewRefreshHandler(refreshSvc)

	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery(), loggerMiddleware())
	registerRoutes(router, cfg, redisClient, roomHandler, voteHandler, matchHandler, activityHandler, refreshHandler)

	// 5. Background processing.
	eventHandler := worker.NewRoomEventHandler(redisClient)
	sweepHandler := worker.NewActivitySweepHandler(roomRepo, activitySvc)
	refreshCheckHandler := worker.NewRefreshCheckHandler(roomRepo, refreshSvc)

	workerServer := worker.NewServer(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	workerMux := worker.NewMux(eventHandler, sweepHandler, refreshCheckHandler)
	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{Location: time.UTC})

	return &App{
		cfg:          cfg,
		db:           db,
		redisClient:  redisClient,
		asynqClient:  asynqClient,
		httpServer:   &http.Server{Addr: ":" + cfg.ServerPort, Handler: router},
		workerServer: workerServer,
		workerMux:    workerMux,
		scheduler:    scheduler,
	}, nil
}

// Start runs the HTTP server, the worker and the periodic task scheduler.
// Blocks until the HTTP server stops.
func (a *App) Start() error {
	if _, err := a.scheduler.Register("@every 5m", tasks.NewActivitySweepTask(), asynq.Queue("low")); err != nil {
		return fmt.Errorf("failed to register activity sweep: %w", err)
	}
	if _, err := a.scheduler.Register("@every 2m", tasks.NewRefreshCheckTask(), asynq.Queue("default")); err != nil {
		return fmt.Errorf("failed to register refresh check: %w", err)
	}

	go func() {
		if err := a.scheduler.Run(); err != nil {
			logrus.WithError(err).Fatal("Scheduler stopped")
		}
	}()
	go func() {
		if err := a.workerServer.Run(a.workerMux); err != nil {
			logrus.WithError(err).Fatal("Worker stopped")
		}
	}()

	logrus.WithField("port", a.cfg.ServerPort).Info("HTTP server starting")
	if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops every component, newest consumers first.
func (a *App) Shutdown(ctx context.Context) {
	if err := a.httpServer.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("HTTP server shutdown failed")
	}
	a.scheduler.Shutdown()
	a.workerServer.Shutdown()
	if err := a.asynqClient.Close(); err != nil {
		logrus.WithError(err).Error("Failed to close asynq client")
	}
	if err := a.redisClient.Close(); err != nil {
		logrus.WithError(err).Error("Failed to close redis client")
	}
	if sqlDB, err := a.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logrus.WithError(err).Error("Failed to close database")
		}
	}
	logrus.Info("Shutdown complete")
}

// registerRoutes mounts the API. Everything under /api requires a valid
// token; the rate limiter sits behind auth so it can key by user id.
func registerRoutes(
	router *gin.Engine,
	cfg *Config,
	redisClient *redis.Client,
	rooms *handler.RoomHandler,
	votes *handler.VoteHandler,
	matches *handler.MatchHandler,
	activity *handler.ActivityHandler,
	refresh *handler.RefreshHandler,
) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.Use(
		middleware.JWTAuth(cfg.JWTSecret),
		middleware.RateLimit(redisClient, cfg.RateLimitRequests, cfg.RateLimitWindow),
	)
	{
		api.POST("/rooms", rooms.Create)
		api.POST("/rooms/join", rooms.Join)
		api.GET("/rooms/:roomId", rooms.Get)
		api.GET("/rooms/:roomId/members", rooms.Members)
		api.POST("/rooms/:roomId/start", rooms.Start)
		api.POST("/rooms/:roomId/close", rooms.Close)
		api.POST("/rooms/:roomId/content", rooms.Inject)
		api.GET("/rooms/:roomId/consistency", rooms.Consistency)

		api.POST("/rooms/:roomId/votes", votes.Cast)
		api.GET("/rooms/:roomId/list", votes.Queue)
		api.GET("/rooms/:roomId/content/:contentId", votes.Content)

		api.GET("/rooms/:roomId/matches", matches.RoomMatches)
		api.GET("/me/matches", matches.MyMatches)

		api.POST("/rooms/:roomId/heartbeat", activity.Heartbeat)
		api.GET("/rooms/:roomId/activity", activity.Summary)

		api.GET("/rooms/:roomId/refresh", refresh.Stats)
		api.POST("/rooms/:roomId/refresh", refresh.Trigger)
	}
}

// loggerMiddleware logs one structured line per request.
func loggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logrus.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"client":  c.ClientIP(),
		}).Info("Request handled")
	}
}
