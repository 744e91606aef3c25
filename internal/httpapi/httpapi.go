// Package httpapi wires the room server's external HTTP surface: the health
// check, the websocket upgrade endpoint, and a fallback static-asset
// handler.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"roomforge/internal/auth"
	"roomforge/internal/ids"
	"roomforge/internal/registry"
	"roomforge/internal/room"
	"roomforge/logging"
)

// Config parameterizes the HTTP surface.
type Config struct {
	Registry   *registry.Registry
	AuthConfig auth.Config
	Assets     http.Handler
	Publisher  logging.Publisher
	Upgrader   websocket.Upgrader
}

// Handler builds the root http.Handler for the room server.
func Handler(cfg Config) http.Handler {
	assets := cfg.Assets
	if assets == nil {
		assets = http.NotFoundHandler()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", handleHealth)
	mux.HandleFunc("/api/rooms/", newRoomWSHandler(cfg))
	mux.Handle("/", assets)
	return mux
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"ok": true, "timestamp": time.Now().UnixMilli()})
}

func newRoomWSHandler(cfg Config) http.HandlerFunc {
	upgrader := cfg.Upgrader
	if upgrader.ReadBufferSize == 0 && upgrader.WriteBufferSize == 0 {
		upgrader = websocket.Upgrader{ReadBufferSize: 4096, WriteBufferSize: 4096, CheckOrigin: func(*http.Request) bool { return true }}
	}

	return func(w http.ResponseWriter, r *http.Request) {
		code, ok := ids.ParseRoomCodeFromPath(r.URL.Path)
		if !ok {
			http.NotFound(w, r)
			return
		}
		if !isWebsocketUpgrade(r) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUpgradeRequired)
			json.NewEncoder(w).Encode(map[string]string{"error": "Expected websocket upgrade."})
			return
		}

		playerID, err := auth.Authenticate(r.Context(), r.URL.Query(), cfg.AuthConfig)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}

		rm, err := cfg.Registry.Get(r.Context(), code)
		if err != nil {
			http.Error(w, "room unavailable", http.StatusInternalServerError)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		now := time.Now()
		if err := rm.Attach(r.Context(), conn, playerID, now); err != nil {
			conn.Close()
			return
		}

		go readLoop(rm, conn)
	}
}

func isWebsocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

// readLoop pumps inbound messages for one socket until it closes, then
// detaches it from the room.
func readLoop(rm *room.Room, conn *websocket.Conn) {
	ctx := context.Background()
	defer func() {
		rm.Detach(ctx, conn, time.Now())
		conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		rm.HandleMessage(ctx, conn, raw, time.Now())
	}
}
