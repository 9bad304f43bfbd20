package api

import (
	"errors"
	"net/http"
	"strconv"

	"maitred/internal/assistant"
	"maitred/internal/models"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.monitor.GetMetrics())
}

func (s *Server) handleGetMenu(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"menu": s.assistant.GetMenu()})
}

func (s *Server) handleSearchMenu(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'q' is required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": s.assistant.Search(c.Request.Context(), query)})
}

type parseOrderRequest struct {
	Utterance string `json:"utterance" binding:"required"`
}

func (s *Server) handleParseOrder(c *gin.Context) {
	var req parseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.assistant.ParseOrder(c.Request.Context(), req.Utterance))
}

type createOrderRequest struct {
	SessionID    string `json:"session_id"`
	CustomerName string `json:"customer_name"`
	Utterance    string `json:"utterance" binding:"required"`
}

func (s *Server) handleCreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	customerName := req.CustomerName
	if req.SessionID != "" {
		session, err := s.agent.Sessions().Get(req.SessionID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		customerName = session.CustomerName
	}
	if customerName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "customer_name or session_id is required"})
		return
	}

	parsed := s.assistant.ParseOrder(c.Request.Context(), req.Utterance)
	if parsed.Status == models.StatusUnresolved {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "no menu items could be resolved from the utterance",
			"parsed": parsed,
		})
		return
	}

	id, err := s.assistant.SubmitOrder(customerName, parsed)
	if err != nil {
		abortWithError(c, err)
		return
	}
	s.monitor.RecordMetric("last_order_id", id)
	c.JSON(http.StatusCreated, gin.H{"order_id": id, "parsed": parsed})
}

func (s *Server) handleGetOrder(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	order, err := s.assistant.GetOrder(uint(id))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (s *Server) handleUpdateOrderStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.assistant.UpdateOrderStatus(uint(id), models.OrderStatus(req.Status)); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_id": id, "status": req.Status})
}

func (s *Server) handleAnalytics(c *gin.Context) {
	report, err := s.assistant.GetAnalytics()
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

type createSessionRequest struct {
	CustomerName string `json:"customer_name" binding:"required"`
}

func (s *Server) handleCreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	session := s.agent.Sessions().Create(req.CustomerName)
	greeting := assistant.Greeting(session.CustomerName)
	if err := s.agent.Sessions().AppendTurn(session.ID, "assistant", greeting); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session_id": session.ID, "greeting": greeting})
}

func (s *Server) handleDestroySession(c *gin.Context) {
	s.agent.Sessions().Destroy(c.Param("id"))
	c.Status(http.StatusNoContent)
}

// abortWithError maps core errors to HTTP statuses.
func abortWithError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrInvalidTransition):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
