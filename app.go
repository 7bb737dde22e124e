package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"opsboard/internal/cache"
	"opsboard/internal/config"
	"opsboard/internal/database"
	"opsboard/internal/handlers"
	"opsboard/internal/middleware"
	"opsboard/internal/monitoring"
	"opsboard/internal/retention"
	"opsboard/internal/services"
	"opsboard/internal/storage"
	"opsboard/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm/logger"
)

// App owns every long-lived component of the server process.
type App struct {
	config      *config.Config
	pool        *database.DatabasePool
	files       *storage.LocalStore
	cache       *cache.MultiLevelCache
	redis       *redis.Client
	queue       *worker.JobQueue
	worker      *worker.Worker
	sweeper     *retention.Sweeper
	attachments *services.AttachmentServiceImpl
	users       *services.UserServiceImpl
	router      *gin.Engine
}

func openDatabase(cfg *config.Config) (*database.DatabasePool, error) {
	level := logger.Info
	if cfg.IsProduction() {
		level = logger.Warn
	}

	if cfg.Database.Driver == config.DriverSQLite && cfg.Database.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	pool, err := database.NewDatabasePool(&database.PoolConfig{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.GetDatabaseDSN(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		LogLevel:        level,
	})
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(pool.DB); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return pool, nil
}

func NewApp(cfg *config.Config) (*App, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	pool, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}
	app := &App{config: cfg, pool: pool}

	app.files, err = storage.NewLocalStore(cfg.Storage.UploadsPath)
	if err != nil {
		app.Close()
		return nil, err
	}

	var redisCache *cache.RedisCache
	if cfg.Redis.Enabled {
		redisCache = cache.NewRedisCache(&cache.CacheConfig{
			Addr:         cfg.GetRedisAddr(),
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			KeyPrefix:    "opsboard:cache:",
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		app.redis = redis.NewClient(&redis.Options{
			Addr:        cfg.GetRedisAddr(),
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			PoolSize:    cfg.Redis.PoolSize,
			DialTimeout: cfg.Redis.DialTimeout,
			// BLPOP blocks for the poll interval.
			ReadTimeout: cfg.Worker.PollInterval + cfg.Redis.ReadTimeout,
		})
		app.queue = worker.NewJobQueue(app.redis)
	}
	app.cache = cache.NewMultiLevelCache(redisCache)

	db := pool.DB
	activity := services.NewActivityRecorder(db)
	inline := services.NewInlineFolderCleaner(app.files)

	var cleaner services.FolderCleaner = inline
	var folderQueue *worker.FolderQueue
	if app.queue != nil {
		folderQueue = worker.NewFolderQueue(app.queue, inline)
		cleaner = folderQueue
	}

	boards := services.NewCachedBoardService(services.NewBoardService(db, cleaner), app.cache)
	labels := services.NewCachedLabelService(services.NewLabelService(db, activity), app.cache)
	columns := services.NewColumnService(db, activity)
	tasks := services.NewTaskService(db, activity, cleaner)
	app.users = services.NewUserService(db)
	app.attachments = services.NewAttachmentService(db, app.files, activity, services.AttachmentConfig{
		RetentionWindow: cfg.Retention.Window,
		MaxUploadSize:   cfg.Storage.MaxUploadSize,
	})

	app.sweeper, err = retention.NewSweeper(app.attachments, retention.Config{
		Window:     cfg.Retention.Window,
		Schedule:   cfg.Retention.Schedule,
		RunOnStart: cfg.Retention.RunOnStart,
	})
	if err != nil {
		app.Close()
		return nil, err
	}

	var enqueuer handlers.SweepEnqueuer
	if app.queue != nil {
		app.worker = worker.NewWorker(worker.WorkerConfig{
			RedisClient:  app.redis,
			Concurrency:  cfg.Worker.Concurrency,
			PollInterval: cfg.Worker.PollInterval,
			JobTimeout:   cfg.Worker.JobTimeout,
		})
		app.worker.RegisterHandler(worker.JobTypeFolderCleanup, worker.NewFolderCleanupHandler(inline))
		app.worker.RegisterHandler(worker.JobTypeAttachmentSweep, worker.NewSweepHandler(app.sweeper))
		enqueuer = folderQueue
	}

	h := handlers.Handlers{
		Boards:      handlers.NewBoardHandler(boards),
		Columns:     handlers.NewColumnHandler(columns),
		Tasks:       handlers.NewTaskHandler(tasks),
		Labels:      handlers.NewLabelHandler(labels),
		Users:       handlers.NewUserHandler(app.users),
		Attachments: handlers.NewAttachmentHandler(app.attachments, cfg.Storage.MaxUploadSize),
		Maintenance: handlers.NewMaintenanceHandler(app.sweeper, enqueuer),
	}
	if cfg.Auth.Enabled {
		h.Auth = handlers.NewAuthHandler(app.users, cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(middleware.RateLimitConfig{
			RequestsPerMin:  cfg.RateLimit.RequestsPerMin,
			BurstSize:       cfg.RateLimit.BurstSize,
			CleanupInterval: cfg.RateLimit.CleanupInterval,
		})
	}

	app.router = handlers.NewRouter(h, handlers.RouterConfig{
		CORSOrigins: cfg.CORS.Origins,
		Identity: middleware.IdentityConfig{
			Enabled: cfg.Auth.Enabled,
			Secret:  cfg.Auth.JWTSecret,
			Issuer:  cfg.Auth.Issuer,
		},
		RateLimiter:          limiter,
		UploadsRoot:          app.files.Root(),
		ExposeInternalErrors: !cfg.IsProduction(),
	})

	app.registerMonitoring(boards)
	return app, nil
}

func (a *App) registerMonitoring(boards *services.CachedBoardService) {
	monitoring.RegisterHealthCheck("database", func(ctx context.Context) error {
		return a.pool.Health()
	})
	monitoring.RegisterHealthCheck("uploads", func(ctx context.Context) error {
		return a.files.Health()
	})
	if a.redis != nil {
		monitoring.RegisterHealthCheck("redis", func(ctx context.Context) error {
			return a.redis.Ping(ctx).Err()
		})
	}

	monitoring.RegisterStats("database", a.pool.Stats)
	monitoring.RegisterStats("cache", boards.CacheStats)
	monitoring.RegisterStats("sweeper", a.sweeper.Stats)
	if a.queue != nil {
		monitoring.RegisterStats("jobs", func() map[string]interface{} {
			return a.queue.Stats(context.Background())
		})
	}
}

// Run starts the background components and serves HTTP until ctx is
// cancelled, then shuts everything down in reverse order.
func (a *App) Run(ctx context.Context) error {
	if err := a.sweeper.Start(ctx); err != nil {
		return err
	}
	defer a.sweeper.Stop()

	if a.worker != nil {
		a.worker.Start(a.config.Worker.Concurrency)
		defer a.worker.Stop()
	}

	server := &http.Server{
		Addr:         a.config.GetServerAddr(),
		Handler:      a.router,
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
		IdleTimeout:  a.config.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("OpsBoard listening on %s (%s)", server.Addr, a.config.Server.Environment)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func (a *App) Router() http.Handler {
	return a.router
}

func (a *App) Close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			log.Printf("[cache] close: %v", err)
		}
	}
	if a.redis != nil {
		a.redis.Close()
	}
	if a.pool != nil {
		if err := a.pool.Close(); err != nil {
			log.Printf("database close: %v", err)
		}
	}
}
