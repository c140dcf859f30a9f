package net

import (
	"encoding/json"
	nethttp "net/http"
	"time"

	"github.com/gorilla/mux"

	server "oni-rush/server"
	"oni-rush/server/internal/net/ws"
	"oni-rush/server/internal/telemetry"
)

type HTTPHandlerConfig struct {
	ClientDir string
	Logger    telemetry.Logger
}

// NewHTTPHandler wires the join, websocket, health, and diagnostics routes.
func NewHTTPHandler(hub *server.Hub, cfg HTTPHandlerConfig) nethttp.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.LoggerFunc(func(string, ...any) {})
	}

	wsHandler := ws.NewHandler(hub, logger)

	router := mux.NewRouter()

	router.HandleFunc("/join", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodPost {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}
		resp := hub.Join()
		writeJSON(w, logger, resp)
	})

	router.HandleFunc("/ws", wsHandler.Handle)

	router.HandleFunc("/health", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	router.HandleFunc("/diagnostics", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		payload := struct {
			Status      string                     `json:"status"`
			ServerTime  int64                      `json:"serverTime"`
			TickRate    int                        `json:"tickRate"`
			Heartbeat   int64                      `json:"heartbeatMillis"`
			Diagnostics server.DiagnosticsSnapshot `json:"diagnostics"`
		}{
			Status:      "ok",
			ServerTime:  time.Now().UnixMilli(),
			TickRate:    server.TickRate(),
			Heartbeat:   server.HeartbeatInterval().Milliseconds(),
			Diagnostics: hub.DiagnosticsSnapshot(),
		}
		writeJSON(w, logger, payload)
	})

	if cfg.ClientDir != "" {
		router.PathPrefix("/").Handler(nethttp.FileServer(nethttp.Dir(cfg.ClientDir)))
	}

	return router
}

func writeJSON(w nethttp.ResponseWriter, logger telemetry.Logger, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Printf("failed to encode response: %v", err)
		httpError(w, "failed to encode", nethttp.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func httpError(w nethttp.ResponseWriter, message string, code int) {
	nethttp.Error(w, message, code)
}
