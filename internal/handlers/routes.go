package handlers

import (
	"time"

	"opsboard/internal/middleware"
	"opsboard/internal/monitoring"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Boards      *BoardHandler
	Columns     *ColumnHandler
	Tasks       *TaskHandler
	Labels      *LabelHandler
	Users       *UserHandler
	Attachments *AttachmentHandler
	Maintenance *MaintenanceHandler
	// Auth is optional; the token endpoint is mounted only when set.
	Auth *AuthHandler
}

type RouterConfig struct {
	CORSOrigins []string
	Identity    middleware.IdentityConfig
	RateLimiter *middleware.RateLimiter
	UploadsRoot string
	// ExposeInternalErrors returns storage fault details to clients.
	ExposeInternalErrors bool
}

func NewRouter(h Handlers, config RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RecoveryWithLog())
	router.Use(monitoring.MetricsMiddleware())
	router.Use(cors.New(corsConfig(config.CORSOrigins)))

	router.GET("/health", monitoring.HealthHandler())
	router.GET("/health/live", monitoring.LivenessHandler())
	router.GET("/health/ready", monitoring.ReadinessHandler())
	router.GET("/metrics", monitoring.MetricsHandler())

	if config.UploadsRoot != "" {
		uploads := router.Group("/uploads", downloadHeaders())
		uploads.StaticFS("/", gin.Dir(config.UploadsRoot, false))
	}

	api := router.Group("/api", exposeInternalErrors(config.ExposeInternalErrors))
	if config.RateLimiter != nil {
		api.Use(config.RateLimiter.Middleware())
	}

	if h.Auth != nil {
		api.POST("/auth/token", h.Auth.Token)
	}

	api.Use(middleware.Identity(config.Identity))
	RegisterRoutes(api, h)
	return router
}

func RegisterRoutes(api *gin.RouterGroup, h Handlers) {
	api.GET("/users", h.Users.ListUsers)
	api.POST("/users", h.Users.CreateUser)
	api.DELETE("/users/:id", h.Users.DeleteUser)

	api.GET("/boards", h.Boards.ListBoards)
	api.POST("/boards", h.Boards.CreateBoard)
	api.GET("/boards/:id", h.Boards.GetBoard)
	api.PUT("/boards/:id", h.Boards.RenameBoard)
	api.DELETE("/boards/:id", h.Boards.DeleteBoard)
	api.GET("/boards/:id/columns", h.Columns.ListColumns)

	api.POST("/columns", h.Columns.CreateColumn)
	api.POST("/columns/reorder", h.Columns.ReorderColumns)
	api.PUT("/columns/:id", h.Columns.RenameColumn)
	api.DELETE("/columns/:id", h.Columns.DeleteColumn)

	api.POST("/tasks", h.Tasks.CreateTask)
	api.GET("/tasks/:id", h.Tasks.GetTask)
	api.PUT("/tasks/:id", h.Tasks.UpdateTask)
	api.DELETE("/tasks/:id", h.Tasks.DeleteTask)
	api.PATCH("/tasks/:id/move", h.Tasks.MoveTask)
	api.PATCH("/tasks/:id/archive", h.Tasks.ArchiveTask)
	api.PATCH("/tasks/:id/restore", h.Tasks.RestoreTask)
	api.GET("/archived-tasks", h.Tasks.ListArchived)

	api.GET("/labels", h.Labels.ListLabels)
	api.POST("/labels", h.Labels.CreateLabel)
	api.DELETE("/labels/:id", h.Labels.DeleteLabel)
	api.POST("/tasks/:id/labels", h.Labels.AddTaskLabel)
	api.DELETE("/tasks/:id/labels/:labelId", h.Labels.RemoveTaskLabel)

	api.POST("/tasks/:id/attachments", h.Attachments.UploadAttachment)
	api.DELETE("/tasks/:id/attachments/:attachmentId", h.Attachments.DeleteAttachment)

	api.POST("/maintenance/sweep", h.Maintenance.Sweep)
	api.GET("/maintenance/sweep", h.Maintenance.LastSweep)
}

func corsConfig(origins []string) cors.Config {
	config := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "PATCH"},
		AllowHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		config.AllowAllOrigins = true
		return config
	}
	config.AllowOrigins = origins
	config.AllowCredentials = true
	return config
}

// downloadHeaders forces uploads to download instead of rendering inline.
func downloadHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Disposition", "attachment")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Next()
	}
}
