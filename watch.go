package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	watchPushInterval = time.Second
	watchWriteTimeout = 5 * time.Second
)

var watchUpgrader = websocket.Upgrader{
	ReadBufferSize:  4 * 1024,
	WriteBufferSize: 4 * 1024,
	CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
}

// matchWatchHandler streams snapshots of one match over a websocket until
// the match finishes or the client goes away. Spectators only, no input
// is accepted on the socket.
func matchWatchHandler(mm *Matchmaker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matchID := r.URL.Query().Get("matchId")
		if matchID == "" {
			http.Error(w, "matchId is required", http.StatusBadRequest)
			return
		}
		if _, ok := mm.MatchStatus(matchID); !ok {
			http.Error(w, "match not found", http.StatusNotFound)
			return
		}

		conn, err := watchUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Reader loop only exists to notice the peer closing.
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					cancel()
					return
				}
			}
		}()

		ticker := time.NewTicker(watchPushInterval)
		defer ticker.Stop()

		if !pushMatchSnapshot(conn, mm, matchID) {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !pushMatchSnapshot(conn, mm, matchID) {
					return
				}
			}
		}
	}
}

// pushMatchSnapshot writes the current session state. Returns false when
// the stream should stop: write failure, match gone, or match finished
// (the final snapshot is still delivered before stopping).
func pushMatchSnapshot(conn *websocket.Conn, mm *Matchmaker, matchID string) bool {
	snap, ok := mm.MatchStatus(matchID)
	if !ok {
		closeWatch(conn, "match expired")
		return false
	}

	b, err := json.Marshal(snap)
	if err != nil {
		log.Println("watch snapshot marshal failed:", err)
		return false
	}
	_ = conn.SetWriteDeadline(time.Now().Add(watchWriteTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		return false
	}

	if snap.Status == GameFinished {
		closeWatch(conn, "match finished")
		return false
	}
	return true
}

func closeWatch(conn *websocket.Conn, reason string) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}
