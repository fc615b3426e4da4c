package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/wso2/idcard-reissue-api/internal/admin"
	"github.com/wso2/idcard-reissue-api/internal/config"
	"github.com/wso2/idcard-reissue-api/internal/events"
	"github.com/wso2/idcard-reissue-api/internal/handlers"
	"github.com/wso2/idcard-reissue-api/internal/middleware"
	"github.com/wso2/idcard-reissue-api/internal/wizard"
)

const healthTimeout = 2 * time.Second

// HealthChecker reports whether the request store can be read
type HealthChecker func(ctx context.Context) error

// Dependencies are the components the routes are served from
type Dependencies struct {
	Config   *config.Config
	Logger   *logrus.Logger
	Wizards  *wizard.Registry
	Consoles *admin.Registry
	Events   *events.Hub
	Health   HealthChecker
}

// SetupRouter configures all API routes
func SetupRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationIDMiddleware())
	router.Use(middleware.RequestLogger(deps.Logger))
	if deps.Config.CORS.Enabled {
		router.Use(middleware.CORSMiddleware(deps.Config.CORS))
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		if deps.Health != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
			defer cancel()
			if err := deps.Health(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	if deps.Config.Metrics.Enabled {
		router.GET(deps.Config.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	// Create handlers
	wizardHandler := handlers.NewWizardHandler(deps.Wizards, &deps.Config.Wizard, deps.Logger)
	adminHandler := handlers.NewAdminHandler(deps.Consoles, deps.Logger)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		if deps.Events != nil {
			v1.GET("/events", gin.WrapH(deps.Events))
		}

		// Employee wizard routes
		v1.GET("/wizard/options", wizardHandler.GetOptions)
		sessions := v1.Group("/wizard/sessions")
		{
			sessions.POST("", wizardHandler.CreateSession)
			sessions.GET("/:sessionId", wizardHandler.GetSession)
			sessions.DELETE("/:sessionId", wizardHandler.CloseSession)
			sessions.POST("/:sessionId/start", wizardHandler.Start)
			sessions.PUT("/:sessionId/reason", wizardHandler.SelectReason)
			sessions.POST("/:sessionId/document", wizardHandler.AttachDocument)
			sessions.POST("/:sessionId/next", wizardHandler.Next)
			sessions.POST("/:sessionId/camera", wizardHandler.OpenCamera)
			sessions.POST("/:sessionId/camera/frame", wizardHandler.PushFrame)
			sessions.POST("/:sessionId/camera/cancel", wizardHandler.CancelCamera)
			sessions.POST("/:sessionId/capture", wizardHandler.Capture)
			sessions.PUT("/:sessionId/edits", wizardHandler.UpdateEdits)
			sessions.GET("/:sessionId/photo", wizardHandler.GetPhoto)
			sessions.POST("/:sessionId/confirm", wizardHandler.Confirm)
			sessions.PUT("/:sessionId/address", wizardHandler.SetAddress)
			sessions.POST("/:sessionId/back", wizardHandler.Back)
			sessions.POST("/:sessionId/back-to-editor", wizardHandler.BackToEditor)
			sessions.POST("/:sessionId/submit", wizardHandler.Submit)
		}

		// Admin console routes
		adminGroup := v1.Group("/admin")
		{
			adminGroup.GET("/requests", adminHandler.ListRequests)
			adminGroup.GET("/requests/:requestId/audit", adminHandler.GetHistory)
			adminGroup.GET("/stats", adminHandler.GetStats)
			adminGroup.GET("/statuses", adminHandler.ListStatuses)

			adminGroup.POST("/consoles", adminHandler.CreateConsole)
			adminGroup.GET("/consoles/:consoleId", adminHandler.GetConsole)
			adminGroup.DELETE("/consoles/:consoleId", adminHandler.CloseConsole)
			adminGroup.POST("/consoles/:consoleId/modal/:requestId", adminHandler.OpenModal)
			adminGroup.DELETE("/consoles/:consoleId/modal", adminHandler.CloseModal)
			adminGroup.PUT("/consoles/:consoleId/status", adminHandler.UpdateStatus)
		}
	}

	return router
}
