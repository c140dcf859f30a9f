package ws

import (
	"encoding/json"
	nethttp "net/http"
	"time"

	"github.com/gorilla/websocket"

	server "oni-rush/server"
	"oni-rush/server/internal/telemetry"
)

type clientMessage struct {
	Ver     int     `json:"ver,omitempty"`
	Type    string  `json:"type"`
	MoveX   float64 `json:"moveX"`
	MoveZ   float64 `json:"moveZ"`
	Yaw     float64 `json:"yaw"`
	Pitch   float64 `json:"pitch"`
	Jump    bool    `json:"jump"`
	Dash    bool    `json:"dash"`
	Jetpack bool    `json:"jetpack"`
	Beacon  bool    `json:"beacon"`
	SentAt  int64   `json:"sentAt"`
}

type heartbeatMessage struct {
	Ver        int    `json:"ver"`
	Type       string `json:"type"`
	ServerTime int64  `json:"serverTime"`
	ClientTime int64  `json:"clientTime"`
	RTTMillis  int64  `json:"rtt"`
}

// Handler upgrades connections and runs the per-session read loop.
type Handler struct {
	hub      *server.Hub
	logger   telemetry.Logger
	upgrader websocket.Upgrader
}

func NewHandler(hub *server.Hub, logger telemetry.Logger) *Handler {
	if logger == nil {
		logger = telemetry.LoggerFunc(func(string, ...any) {})
	}
	return &Handler{
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *nethttp.Request) bool {
				return true
			},
		},
	}
}

func (h *Handler) Handle(w nethttp.ResponseWriter, r *nethttp.Request) {
	playerID := r.URL.Query().Get("id")
	if playerID == "" {
		nethttp.Error(w, "missing id", nethttp.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("upgrade failed for %s: %v", playerID, err)
		return
	}

	sub, ok := h.hub.Subscribe(playerID, conn)
	if !ok {
		message := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unknown participant")
		conn.WriteMessage(websocket.CloseMessage, message)
		conn.Close()
		return
	}

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			h.hub.Disconnect(playerID, "read_failed")
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			h.logger.Printf("discarding malformed message from %s: %v", playerID, err)
			continue
		}

		switch msg.Type {
		case "input":
			h.hub.UpdateIntent(playerID, server.ClientInput{
				MoveX:   msg.MoveX,
				MoveZ:   msg.MoveZ,
				Yaw:     msg.Yaw,
				Pitch:   msg.Pitch,
				Jump:    msg.Jump,
				Dash:    msg.Dash,
				Jetpack: msg.Jetpack,
				Beacon:  msg.Beacon,
			})
		case "heartbeat":
			now := time.Now()
			rtt, ok := h.hub.UpdateHeartbeat(playerID, now, msg.SentAt)
			if !ok {
				continue
			}
			reply := heartbeatMessage{
				Ver:        server.ProtocolVersion,
				Type:       "heartbeat",
				ServerTime: now.UnixMilli(),
				ClientTime: msg.SentAt,
				RTTMillis:  rtt.Milliseconds(),
			}
			data, err := json.Marshal(reply)
			if err != nil {
				continue
			}
			if err := sub.WriteMessage(websocket.TextMessage, data); err != nil {
				h.hub.Disconnect(playerID, "write_failed")
				return
			}
		default:
			h.logger.Printf("unknown message type %q from %s", msg.Type, playerID)
		}
	}
}
