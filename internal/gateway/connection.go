package gateway

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// ClientMessage is the inbound frame schema. Only guesses are accepted over
// the socket; everything else goes through HTTP.
type ClientMessage struct {
	Type    string `json:"type"`
	Payload string `json:"payload"`
}

// serverAck reports the fate of an inbound frame back to its sender.
type serverAck struct {
	Type  string `json:"type"`
	Error string `json:"error,omitempty"`
}

// writePump pumps messages from the Send channel to the WebSocket connection.
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case message := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to WebSocket")
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump consumes frames from the client. Guess frames are handed to the
// manager's guess handler, throttled per connection.
func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).
					Str("connection_id", c.ID).
					Msg("WebSocket connection closed unexpectedly")
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendAck(serverAck{Type: "error", Error: "malformed frame"})
			continue
		}

		switch msg.Type {
		case "guess":
			c.handleGuess(msg.Payload)
		default:
			c.sendAck(serverAck{Type: "error", Error: "unknown message type"})
		}
	}
}

func (c *Connection) handleGuess(payload string) {
	if !c.limiter.Allow() {
		c.sendAck(serverAck{Type: "error", Error: "rate limited"})
		return
	}
	if c.Manager.guessHandler == nil {
		c.sendAck(serverAck{Type: "error", Error: "guesses not accepted"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Manager.guessHandler(ctx, c.SessionID, c.PlayerID, payload); err != nil {
		c.sendAck(serverAck{Type: "error", Error: err.Error()})
		return
	}
	c.sendAck(serverAck{Type: "ack"})
}

func (c *Connection) sendAck(ack serverAck) {
	data, err := json.Marshal(ack)
	if err != nil {
		return
	}
	select {
	case c.Send <- data:
	case <-c.done:
	default:
	}
}
