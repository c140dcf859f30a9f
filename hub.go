package server

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	uuid "github.com/satori/go.uuid"

	"oni-rush/server/logging"
	"oni-rush/server/logging/network"
)

// broadcastEvery is how many ticks elapse between delta broadcasts.
const broadcastEvery = int(broadcastInterval / (time.Second / tickRate))

// Hub owns the world, its subscribers, and the staged command queue. The
// tick loop is the only writer of world state; handlers stage commands and
// read snapshots under the mutex.
type Hub struct {
	mu          sync.Mutex
	world       *World
	subscribers map[string]*subscriber
	commands    []Command
	compressor  *StateCompressor
	telemetry   *telemetryCounters
	publisher   logging.Publisher
}

type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// WriteMessage serializes writes to the underlying socket with the standard
// write deadline applied.
func (s *subscriber) WriteMessage(messageType int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(messageType, data)
}

// NewHub wires a hub around the supplied geometry and event publisher.
func NewHub(cfg WorldConfig, env *Environment, publisher logging.Publisher) *Hub {
	return newHub(cfg, env, publisher)
}

func newHub(cfg WorldConfig, env *Environment, publisher logging.Publisher) *Hub {
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	return &Hub{
		world:       newWorld(cfg, env, publisher),
		subscribers: make(map[string]*subscriber),
		compressor:  newStateCompressor(),
		telemetry:   newTelemetryCounters(),
		publisher:   publisher,
	}
}

// Join registers a new participant and returns the full-state response a
// client needs before it can consume deltas.
func (h *Hub) Join() JoinResponse {
	playerID := fmt.Sprintf("player-%s", uuid.NewV4().String())
	now := time.Now()

	h.mu.Lock()
	p := h.world.AddParticipant(playerID, false, now)
	h.world.publishJoined(playerID, p.Position)
	h.maybeStartRoundLocked(now)
	resp := JoinResponse{
		Ver:          ProtocolVersion,
		ID:           playerID,
		RoundID:      h.world.RoundID(),
		Phase:        h.world.Phase(),
		Participants: h.world.Snapshot(),
		Buildings:    h.world.env.Buildings,
		Bridges:      h.world.env.Bridges,
		WaterAreas:   h.world.env.Water,
		Obstacles:    h.world.env.DynamicObstacles(),
		Config:       h.world.Config(),
	}
	h.mu.Unlock()
	return resp
}

// maybeStartRoundLocked starts play once the quorum is met. Roles are only
// dealt at this transition; later joiners enter as Runners mid-round.
func (h *Hub) maybeStartRoundLocked(now time.Time) {
	if h.world.Phase() != RoundNotStarted {
		return
	}
	if len(h.world.participants) < minParticipants {
		return
	}
	if err := h.world.AssignRoles(); err != nil {
		return
	}
	h.world.StartRound(now)
}

// Subscribe associates a WebSocket connection with an existing participant.
func (h *Hub) Subscribe(playerID string, conn *websocket.Conn) (*subscriber, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.world.participants[playerID]
	if !ok {
		return nil, false
	}
	p.lastHeartbeat = time.Now()

	if existing, ok := h.subscribers[playerID]; ok {
		existing.conn.Close()
	}

	sub := &subscriber{conn: conn}
	h.subscribers[playerID] = sub
	return sub, true
}

// Disconnect removes a participant and closes any live subscriber socket.
func (h *Hub) Disconnect(playerID string, reason string) {
	h.mu.Lock()
	sub, subOK := h.subscribers[playerID]
	if subOK {
		delete(h.subscribers, playerID)
	}
	if h.world.RemoveParticipant(playerID) {
		h.world.publishDisconnected(playerID, reason)
	}
	h.compressor.Forget(playerID)
	h.mu.Unlock()

	if subOK {
		sub.conn.Close()
	}
}

// UpdateIntent stages the latest movement and ability input for the next
// tick. Commands from a participant that has since left are dropped by the
// world when applied.
func (h *Hub) UpdateIntent(playerID string, input ClientInput) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.world.HasParticipant(playerID) {
		return false
	}
	now := time.Now()
	h.commands = append(h.commands,
		Command{
			ActorID:  playerID,
			Type:     CommandMove,
			IssuedAt: now,
			Move:     &MoveCommand{DX: input.MoveX, DZ: input.MoveZ, Yaw: input.Yaw, Pitch: input.Pitch},
		},
		Command{
			ActorID:  playerID,
			Type:     CommandAbility,
			IssuedAt: now,
			Ability:  &AbilityCommand{Jump: input.Jump, Dash: input.Dash, Jetpack: input.Jetpack, Beacon: input.Beacon},
		},
	)
	return true
}

// UpdateHeartbeat records liveness and derives RTT from the client's send
// timestamp when it is plausible.
func (h *Hub) UpdateHeartbeat(playerID string, receivedAt time.Time, clientSent int64) (time.Duration, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.world.participants[playerID]
	if !ok {
		return 0, false
	}

	var rtt time.Duration
	if clientSent > 0 {
		clientTime := time.UnixMilli(clientSent)
		if clientTime.Before(receivedAt.Add(5 * time.Second)) {
			rtt = receivedAt.Sub(clientTime)
			if rtt < 0 {
				rtt = 0
			}
		}
	}
	h.commands = append(h.commands, Command{
		ActorID: playerID,
		Type:    CommandHeartbeat,
		Heartbeat: &HeartbeatCommand{
			ReceivedAt: receivedAt,
			ClientSent: clientSent,
			RTT:        rtt,
		},
	})
	return p.lastRTT, true
}

// advance runs one simulation step and returns the sockets of participants
// the world pruned for heartbeat timeouts.
func (h *Hub) advance(tick uint64, now time.Time, dt float64) []*subscriber {
	h.mu.Lock()
	staged := h.commands
	h.commands = nil

	removed := h.world.Step(tick, now, dt, staged)

	toClose := make([]*subscriber, 0, len(removed))
	for _, id := range removed {
		if sub, ok := h.subscribers[id]; ok {
			toClose = append(toClose, sub)
			delete(h.subscribers, id)
		}
		h.compressor.Forget(id)
	}
	h.mu.Unlock()
	return toClose
}

// RunSimulation drives the fixed-rate tick loop until the stop channel
// closes. Broadcasts run on a slower cadence than the simulation itself.
func (h *Hub) RunSimulation(stop <-chan struct{}) {
	ticker := time.NewTicker(time.Second / tickRate)
	defer ticker.Stop()

	var tick uint64
	last := time.Now()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			if dt <= 0 {
				dt = 1.0 / float64(tickRate)
			}
			last = now
			tick++

			started := time.Now()
			toClose := h.advance(tick, now, dt)
			for _, sub := range toClose {
				sub.conn.Close()
			}
			if broadcastEvery <= 1 || tick%uint64(broadcastEvery) == 0 {
				h.broadcastState(tick)
			}
			h.telemetry.RecordTickDuration(time.Since(started))
		}
	}
}

// broadcastState compresses the current snapshot against the last
// transmitted baseline and sends the delta to every subscriber.
func (h *Hub) broadcastState(tick uint64) {
	h.mu.Lock()
	snapshot := h.world.Snapshot()
	deltas := make([]*CompressedState, 0, len(snapshot))
	suppressed := 0
	for _, p := range snapshot {
		if delta := h.compressor.Compress(p.ID, p); delta != nil {
			deltas = append(deltas, delta)
		} else {
			suppressed++
		}
	}
	msg := stateMessage{
		Ver:          ProtocolVersion,
		Type:         "state",
		Participants: deltas,
		Obstacles:    h.world.env.DynamicObstacles(),
		TagEvents:    h.world.drainPendingTagEvents(),
		Phase:        h.world.Phase(),
		BeaconActive: h.world.BeaconRevealActive(),
		Tick:         tick,
		ServerTime:   time.Now().UnixMilli(),
	}
	subs := make(map[string]*subscriber, len(h.subscribers))
	for id, sub := range h.subscribers {
		subs[id] = sub
	}
	h.mu.Unlock()

	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.telemetry.RecordBroadcast(len(data)*len(subs), len(deltas), suppressed)
	h.telemetry.RecordTagEvents(len(msg.TagEvents))

	for id, sub := range subs {
		sub.mu.Lock()
		sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
		err := sub.conn.WriteMessage(websocket.TextMessage, data)
		sub.mu.Unlock()
		if err != nil {
			network.SlowConsumer(context.Background(), h.publisher, tick,
				logging.EntityRef{ID: id, Kind: logging.EntityKindParticipant},
				network.SlowConsumerPayload{Error: err.Error()}, nil)
			h.Disconnect(id, "write_failed")
		}
	}
}

// DiagnosticsSnapshot exposes connectivity and telemetry data for the
// diagnostics endpoint.
func (h *Hub) DiagnosticsSnapshot() DiagnosticsSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()

	participants := make([]DiagnosticsParticipant, 0, len(h.world.participants))
	for _, id := range h.world.sortedParticipantIDs() {
		p := h.world.participants[id]
		participants = append(participants, DiagnosticsParticipant{
			Ver:           ProtocolVersion,
			ID:            p.ID,
			IsAI:          p.IsAI,
			LastHeartbeat: p.lastHeartbeat.UnixMilli(),
			RTTMillis:     p.lastRTT.Milliseconds(),
		})
	}

	resp := DiagnosticsSnapshot{
		Ver:             ProtocolVersion,
		RoundID:         h.world.RoundID(),
		Phase:           h.world.Phase(),
		Tick:            h.world.currentTick,
		Participants:    participants,
		Telemetry:       h.telemetry.Snapshot(),
		SubscriberCount: len(h.subscribers),
		TagEventCount:   len(h.world.tagEvents),
	}
	if router, ok := h.publisher.(*logging.Router); ok {
		stats := router.Stats()
		resp.LoggingEvents = stats.EventsTotal
		resp.LoggingDropped = stats.DroppedTotal
	}
	return resp
}
