package server

import (
	"log/slog"
	"net/http"

	glog "github.com/gin-contrib/slog"
	"github.com/gin-gonic/gin"

	"github.com/signoff-io/signoff/internal/events"
	"github.com/signoff-io/signoff/internal/store"
	"github.com/signoff-io/signoff/internal/workflow"
)

// Server implements the HTTP API for the approval workflow service
type Server struct {
	workflows *workflow.Service
	checkps   *store.RedisStore
	hub       *events.RedisHub
}

// NewServer creates a new HTTP API server
func NewServer(
	svc *workflow.Service, st *store.RedisStore, hub *events.RedisHub,
) *Server {
	return &Server{
		workflows: svc,
		checkps:   st,
		hub:       hub,
	}
}

// SetupRoutes configures and returns the HTTP router with all endpoints
func (s *Server) SetupRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(glog.SetLogger(
		glog.WithLogger(func(c *gin.Context, l *slog.Logger) *slog.Logger {
			return slog.Default()
		}),
	))

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set(
			"Access-Control-Allow-Methods",
			"GET, POST, OPTIONS",
		)
		c.Writer.Header().Set(
			"Access-Control-Allow-Headers",
			"Content-Type, Authorization",
		)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	})

	// Health check
	router.GET("/health", s.handleHealth)

	// Manager callback; resumes a suspended workflow
	router.GET("/callback", s.handleCallback)

	api := router.Group("/api")
	{
		api.POST("/expenses", s.handleSubmit)
		api.GET("/workflows/:workflowID", s.getWorkflow)
		api.GET("/ws", s.handleWebSocket)
	}

	return router
}
