// Package api is the HTTP and websocket surface of the ordering assistant.
package api

import (
	"net/http"

	"maitred/internal/assistant"
	"maitred/internal/monitoring"

	"github.com/gin-gonic/gin"
)

// Server wires the assistant and agent into a gin router.
type Server struct {
	router    *gin.Engine
	assistant *assistant.Assistant
	agent     *assistant.Agent
	monitor   *monitoring.Monitor
}

// NewServer creates the HTTP server and configures all routes.
func NewServer(a *assistant.Assistant, agent *assistant.Agent, monitor *monitoring.Monitor) *Server {
	s := &Server{
		router:    gin.Default(),
		assistant: a,
		agent:     agent,
		monitor:   monitor,
	}
	s.setupRoutes()
	return s
}

// Router returns the gin router.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// setupRoutes configures all API endpoints
func (s *Server) setupRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "maitred API is running"})
	})

	s.router.GET("/status", s.handleStatus)

	s.router.GET("/ws/chat", s.handleChat)

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/menu", s.handleGetMenu)
		v1.GET("/menu/search", s.handleSearchMenu)

		v1.POST("/orders/parse", s.handleParseOrder)
		v1.POST("/orders", s.handleCreateOrder)
		v1.GET("/orders/:id", s.handleGetOrder)
		v1.PUT("/orders/:id/status", s.handleUpdateOrderStatus)

		v1.GET("/analytics", s.handleAnalytics)

		v1.POST("/sessions", s.handleCreateSession)
		v1.DELETE("/sessions/:id", s.handleDestroySession)
	}
}
