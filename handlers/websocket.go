package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"home-price-api/models"
	"home-price-api/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// SessionStream relays prediction events for ?session_token= over a
// WebSocket. Events for other sessions are dropped server-side.
func SessionStream(cache *services.CacheService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("session_token")
		if token == "" {
			services.RecordRejection(services.ErrorMissingSessionToken)
			c.JSON(http.StatusBadRequest, gin.H{"error": "session_token query parameter is required"})
			return
		}
		if !cache.Available() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "live updates unavailable"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("websocket upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(c.Request.Context())
		defer cancel()

		// Read pump: detect client disconnect
		go func() {
			defer cancel()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		pubsub := cache.Subscribe(ctx, services.EventsChannel)
		defer pubsub.Close()
		if _, err := pubsub.Receive(ctx); err != nil {
			log.Printf("prediction event subscribe failed: %v", err)
			return
		}

		ch := pubsub.Channel()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event models.PredictionEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					log.Printf("dropping malformed prediction event: %v", err)
					continue
				}
				if event.SessionToken != token {
					continue
				}
				if err := conn.WriteJSON(event); err != nil {
					log.Printf("ws write error: %v", err)
					return
				}
			}
		}
	}
}
