package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// WebSocket upgrader configuration
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// chatConnection maintains one websocket chat with a customer session.
type chatConnection struct {
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
	server    *Server
}

// chatRequest is an incoming customer message.
type chatRequest struct {
	Content string `json:"content"`
}

// chatReply is an outgoing assistant message.
type chatReply struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Error   string `json:"error,omitempty"`
}

// handleChat upgrades the connection and relays messages to the agent.
func (s *Server) handleChat(c *gin.Context) {
	sessionID := c.Query("session")
	if _, err := s.agent.Sessions().Get(sessionID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection: %v", err)
		return
	}

	chat := &chatConnection{
		conn:      conn,
		send:      make(chan []byte, 16),
		sessionID: sessionID,
		server:    s,
	}

	go chat.writePump()
	go chat.readPump()
}

// readPump pumps customer messages from the websocket to the agent.
func (c *chatConnection) readPump() {
	defer func() {
		close(c.send)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(32 * 1024)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}
		c.handleMessage(message)
	}
}

// writePump pumps assistant replies to the websocket connection.
func (c *chatConnection) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage relays one customer message through the agent.
func (c *chatConnection) handleMessage(message []byte) {
	var req chatRequest
	if err := json.Unmarshal(message, &req); err != nil {
		c.reply(chatReply{Error: "invalid message"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	content, err := c.server.agent.Respond(ctx, c.sessionID, req.Content)
	if err != nil {
		log.Printf("chat respond failed: %v", err)
		c.reply(chatReply{Error: "sorry, something went wrong, please try again"})
		return
	}
	c.reply(chatReply{Role: "assistant", Content: content})
}

// reply queues one message for the write pump. The send blocks rather than
// dropping: a processed message (possibly an order confirmation) must reach
// the customer. A connection that cannot drain within the deadline is
// closed so the client knows to reconnect.
func (c *chatConnection) reply(r chatReply) {
	data, err := json.Marshal(r)
	if err != nil {
		log.Printf("Error marshaling reply: %v", err)
		return
	}
	timer := time.NewTimer(10 * time.Second)
	defer timer.Stop()
	select {
	case c.send <- data:
	case <-timer.C:
		log.Printf("chat send stalled, closing connection")
		c.conn.Close()
	}
}
