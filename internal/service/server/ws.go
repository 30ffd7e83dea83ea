package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"e2e_relay/internal/model"
	"e2e_relay/internal/service/relay"
	"e2e_relay/internal/utils/log"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// wsChannel serializes writes: the reader goroutine (error frames) and
// dispatcher goroutines of other connections share the same conn.
type wsChannel struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsChannel) Send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *wsChannel) Close() error {
	return c.conn.Close()
}

// HandleInitWS authenticates the connect-time token, upgrades the connection,
// and hands it to a per-connection read loop. A bad token is fatal: the
// channel is refused before it ever reaches the registry.
func (s *HttpServer) HandleInitWS() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		userID, err := s.deps.Auth.Validate(r.Context(), token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already replied to the client.
			log.Debug("websocket upgrade failed", zap.Error(err))
			return
		}

		ch := &wsChannel{conn: conn}
		s.deps.Registry.Register(userID, ch)
		go s.readLoop(userID, ch, conn)
	}
}

// readLoop processes one connection's frames serially, which is what preserves
// per-connection send ordering.
func (s *HttpServer) readLoop(userID string, ch *wsChannel, conn *websocket.Conn) {
	defer func() {
		s.deps.Registry.Unregister(userID, ch)
		conn.Close()
	}()

	idle := s.cfg.Server.IdleTimeout.Duration
	for {
		if idle > 0 {
			conn.SetReadDeadline(time.Now().Add(idle))
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			log.Debug("client web socket closed", zap.String("user", userID), zap.Error(err))
			return
		}

		s.handleFrame(userID, ch, data)
	}
}

func (s *HttpServer) handleFrame(senderID string, ch *wsChannel, data []byte) {
	var frame model.SendFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		log.Debug("unmarshal frame failed", zap.Error(err))
		s.writeError(ch, "malformed frame")
		return
	}

	if frame.Type != model.FrameSendMessage {
		s.writeError(ch, fmt.Sprintf("unsupported frame type %q", frame.Type))
		return
	}

	// The sender identity comes from the authenticated channel, never from
	// the frame.
	if _, err := s.deps.Dispatcher.Send(context.Background(), senderID, frame.ReceiverID, frame.Content); err != nil {
		log.Debug("send rejected", zap.String("sender", senderID), zap.Error(err))
		s.writeError(ch, sendFailureReason(err))
	}
}

func (s *HttpServer) writeError(ch *wsChannel, reason string) {
	if err := ch.Send(model.NewErrorFrame(reason)); err != nil {
		log.Debug("error frame dropped", zap.Error(err))
	}
}

func sendFailureReason(err error) string {
	switch {
	case errors.Is(err, relay.ErrInvalidRequest), errors.Is(err, relay.ErrBlocked):
		return err.Error()
	default:
		return "message could not be stored, try again"
	}
}
