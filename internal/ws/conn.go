package ws

import (
	"context"
	"errors"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	PingInterval = 25 * time.Second
	writeTimeout = 10 * time.Second
	pingTimeout  = 5 * time.Second
)

// Serve subscribes conn to topics and writes events to it until ctx ends,
// the peer goes away or a write fails. It owns conn and closes it.
//
// The feed is push-only; CloseRead keeps control frames flowing and
// cancels the returned context when the peer closes.
func (h *Hub) Serve(ctx context.Context, conn *websocket.Conn, topics []string) error {
	sub := h.Subscribe(topics...)
	defer h.Unsubscribe(sub)

	ctx = conn.CloseRead(ctx)

	ticker := time.NewTicker(PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "bye")
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case ev, ok := <-sub.C():
			if !ok {
				conn.Close(websocket.StatusGoingAway, "unsubscribed")
				return nil
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(writeCtx, conn, ev)
			cancel()
			if err != nil {
				conn.Close(websocket.StatusInternalError, "write failed")
				return err
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				conn.Close(websocket.StatusGoingAway, "ping failed")
				return err
			}
		}
	}
}
