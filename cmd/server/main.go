package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"tasktrack/backend/internal/cache"
	"tasktrack/backend/internal/config"
	"tasktrack/backend/internal/database"
	"tasktrack/backend/internal/monitoring"
	"tasktrack/backend/internal/router"
	"tasktrack/backend/internal/services"
	"tasktrack/backend/internal/worker"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pool, err := database.NewDatabasePool(database.PoolConfigFromApp(cfg))
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := pool.Migrate(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	redisCache := cache.NewRedisCache(cache.CacheConfigFromApp(cfg))
	defer redisCache.Close()

	if err := redisCache.Health(); err != nil {
		log.Printf("Redis unavailable, task reads will go to the database: %v", err)
	}

	monitoring.RegisterHealthCheck("database", func(ctx context.Context) error {
		return pool.Health()
	})
	monitoring.RegisterHealthCheck("redis", func(ctx context.Context) error {
		return redisCache.Health()
	})
	monitoring.RegisterStatsProvider("database_pool", pool.Stats)
	monitoring.RegisterStatsProvider("redis_pool", redisCache.Stats)

	jobs := worker.NewJobQueue(redisCache.Client())

	w := worker.NewWorker(worker.WorkerConfig{
		RedisClient: redisCache.Client(),
		Queues:      cfg.Worker.Queues,
	})
	w.RegisterHandler(worker.JobTypeTaskReminder, worker.TaskReminderHandler)
	w.RegisterHandler(worker.JobTypeCleanup, worker.NewCleanupHandler(redisCache.Client(), 1000))
	w.Start(cfg.Worker.Concurrency)
	defer w.Stop()

	tokens := services.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	taskService := services.NewCachedTaskService(services.NewTaskService(jobs), redisCache)
	monitoring.RegisterStatsProvider("task_cache", taskService.Stats)

	r := router.NewRouter(router.Dependencies{
		DB:              pool.DB,
		Config:          cfg,
		Tokens:          tokens,
		AuthService:     services.NewAuthService(),
		RegisterService: services.NewRegisterService(cfg.Auth.BCryptCost),
		UserService:     services.NewUserService(),
		TaskService:     taskService,
	})

	server := &http.Server{
		Addr:         cfg.GetServerAddr(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	jobs.ScheduleCleanup(ctx, "maintenance", 24*time.Hour)

	go func() {
		log.Printf("Listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
}
