package realtime

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

func NewUpgrader(allowedOrigins []string) websocket.Upgrader {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || len(allowed) == 0 {
				return true
			}
			_, ok := allowed[origin]
			return ok
		},
	}
}

// WatchClosed reads (and discards) client frames until the connection fails,
// then closes the returned channel.
func WatchClosed(conn *websocket.Conn) <-chan struct{} {
	return ReadFrames(conn, nil)
}

// ReadFrames hands every client text frame to handle, in order, until the
// connection fails, then closes the returned channel. A nil handle discards.
func ReadFrames(conn *websocket.Conn, handle func(data []byte)) <-chan struct{} {
	closed := make(chan struct{})
	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go func() {
		defer close(closed)
		for {
			kind, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if handle != nil && kind == websocket.TextMessage {
				handle(data)
			}
		}
	}()
	return closed
}

// Pump forwards every message from sub to conn until the client goes away,
// ctx is done, or the subscription ends. The subscription is closed on return.
func Pump(ctx context.Context, conn *websocket.Conn, sub *Subscription, log *zap.Logger) {
	defer sub.Close()

	clientClosed := WatchClosed(conn)
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-sub.C():
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg.Payload); err != nil {
				log.Debug("websocket write failed", zap.String("channel", msg.Channel), zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-clientClosed:
			return
		case <-ctx.Done():
			return
		}
	}
}

// WriteJSON writes a single JSON frame with the standard write deadline.
func WriteJSON(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

// KeepAlive pings conn until stop is closed or a ping fails. WriteControl is
// safe to call alongside the connection's single writer.
func KeepAlive(conn *websocket.Conn, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return
				}
			case <-stop:
				return
			}
		}
	}()
}
