package router

import (
	"time"

	"tasktrack/backend/internal/config"
	"tasktrack/backend/internal/handlers"
	"tasktrack/backend/internal/middleware"
	"tasktrack/backend/internal/monitoring"
	"tasktrack/backend/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Dependencies struct {
	DB              *gorm.DB
	Config          *config.Config
	Tokens          *services.TokenService
	AuthService     services.AuthService
	RegisterService services.RegisterService
	UserService     services.UserService
	TaskService     services.TaskService
}

func NewRouter(deps Dependencies) *gin.Engine {
	if deps.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RecoveryWithLog())
	r.Use(middleware.RateLimit(deps.Config.RateLimit))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	authHandler := handlers.NewAuthHandler(deps.DB, deps.AuthService, deps.RegisterService, deps.Tokens)
	userHandler := handlers.NewUserHandler(deps.DB, deps.UserService)
	taskHandler := handlers.NewTaskHandler(deps.DB, deps.TaskService)

	api := r.Group("/api", monitoring.MetricsMiddleware())
	{
		api.GET("/health", handlers.HealthCheck)

		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.GET("/me", middleware.Auth(deps.Tokens), authHandler.Me)
		}

		users := api.Group("/users", middleware.Auth(deps.Tokens))
		{
			users.GET("", userHandler.GetUsers)
			users.GET("/:id", userHandler.GetUserByID)
		}

		tasks := api.Group("/tasks", middleware.Auth(deps.Tokens))
		{
			tasks.GET("", taskHandler.GetTasks)
			tasks.GET("/assigned", taskHandler.GetAssignedTasks)
			tasks.GET("/:id", taskHandler.GetTaskByID)
			tasks.POST("", taskHandler.CreateTask)
			tasks.PUT("/:id", taskHandler.UpdateTask)
			tasks.PATCH("/:id/complete", taskHandler.CompleteTask)
			tasks.DELETE("/:id", taskHandler.DeleteTask)
		}

		api.GET("/metrics", middleware.Auth(deps.Tokens), middleware.RequireAdmin(), handlers.GetMetrics)
	}

	return r
}
