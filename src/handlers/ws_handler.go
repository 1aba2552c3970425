package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"photogram_services/src/logger"
	"photogram_services/src/viewcache"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1048,
	WriteBufferSize: 1048,
}

type ConnectionState struct {
	Conn   *websocket.Conn
	Active bool
}

// WebSocketPayload is the envelope published on both view channels. Keys is
// set on invalidations, Payload on engagement events; UserID always names
// the user the message belongs to and is what the per-socket filter keys on.
type WebSocketPayload struct {
	Operation string      `json:"operation"`
	Type      string      `json:"type"`
	UserID    string      `json:"user_id"`
	Keys      []string    `json:"keys,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
}

func WebSocketEndpointHandler(ctx context.Context, cache *viewcache.Cache) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)
		if !ok {
			logger.Errorf("Failed to get validated claims")
			return
		}
		switch r.URL.Path {
		case "/ws":
			WebSocket(w, r, cache, ctx, claims.RegisteredClaims.Subject, viewcache.EventsChannel)
		case "/ws/sync":
			WebSocket(w, r, cache, ctx, claims.RegisteredClaims.Subject, viewcache.InvalidationsChannel)
		}
	})
}

func WebSocket(w http.ResponseWriter, r *http.Request, cache *viewcache.Cache, ctx context.Context, uid string, channel string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		w.WriteHeader(500)
		fmt.Fprintf(w, "failed to upgrade websocket: %s", err)
		return
	}

	var newConnection = ConnectionState{Conn: conn, Active: true}

	quit := make(chan int)
	go newConnection.ListenAndWrite(ctx, conn, cache, uid, quit, channel)
	go newConnection.CheckConnectionStatus(ctx, conn, quit)
}

func (connectionState *ConnectionState) ListenAndWrite(ctx context.Context, conn *websocket.Conn, cache *viewcache.Cache, uid string, quit chan int, channel string) {
	pubSub := cache.Subscribe(ctx, channel)
	messageChannel := pubSub.Channel(redis.WithChannelSize(250))

	for connectionState.Active {
		select {
		case message := <-messageChannel:
			err := sendWebSocketMessage(conn, message, uid)
			if err != nil {
				logger.Errorf("ListenAndWriteError: %v", err)
				connectionState.Active = false
			}
		case <-quit:
			connectionState.Active = false
		}
	}

	err := pubSub.Close()
	if err != nil {
		logger.Errorf("Error closing redis channel: %v with error: %v", channel, err)
		return
	}
	err = conn.Close()
	if err != nil {
		logger.Errorf("Error closing websocket: %v", err)
		return
	}
}

// CheckConnectionStatus blocks on the socket's read side until it fails.
// Any read error is terminal: the peer hung up, or ListenAndWrite already
// tore the connection down after a send error. Retrying the read would
// return the same error forever, so the watcher signals quit and exits.
// Closing quit instead of sending on it keeps the signal from blocking
// when the writer is already gone.
func (connectionState *ConnectionState) CheckConnectionStatus(ctx context.Context, conn *websocket.Conn, quit chan int) {
	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Errorf("error: %v", err)
			} else {
				logger.Infof("Closing: %v", err)
			}
			close(quit)
			return
		}
	}
}

// sendWebSocketMessage forwards a published payload when it belongs to the
// connected user. Every socket on a channel sees every publish; the filter
// here is what scopes delivery.
func sendWebSocketMessage(conn *websocket.Conn, message *redis.Message, uid string) error {
	var wsPayload WebSocketPayload
	err := json.Unmarshal([]byte(message.Payload), &wsPayload)
	if err != nil {
		return err
	}

	if wsPayload.UserID == uid {
		err = conn.WriteMessage(websocket.TextMessage, []byte(message.Payload))
		if err != nil {
			logger.Errorf("sendWebSocketMessage: %v", err)
			return err
		}
	}
	return nil
}
