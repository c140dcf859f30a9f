package network

import (
	"context"

	"oni-rush/server/logging"
)

const (
	// EventClientJoined is emitted when a client joins the session.
	EventClientJoined logging.EventType = "network.client_joined"
	// EventClientDisconnected is emitted when a client leaves or times out.
	EventClientDisconnected logging.EventType = "network.client_disconnected"
	// EventSlowConsumer is emitted when a client's socket cannot keep up
	// with the broadcast cadence.
	EventSlowConsumer logging.EventType = "network.slow_consumer"
)

// JoinedPayload captures spawn metadata for a new client.
type JoinedPayload struct {
	SpawnX float64 `json:"spawnX"`
	SpawnZ float64 `json:"spawnZ"`
}

// DisconnectedPayload captures the reason a client left.
type DisconnectedPayload struct {
	Reason string `json:"reason"`
}

// SlowConsumerPayload captures the write failure detail.
type SlowConsumerPayload struct {
	Error string `json:"error"`
}

// ClientJoined publishes a join event.
func ClientJoined(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload JoinedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventClientJoined,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryNetwork,
		Payload:  payload,
		Extra:    extra,
	})
}

// ClientDisconnected publishes a disconnect event.
func ClientDisconnected(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload DisconnectedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventClientDisconnected,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryNetwork,
		Payload:  payload,
		Extra:    extra,
	})
}

// SlowConsumer publishes a warning for a socket that failed a timed write.
func SlowConsumer(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload SlowConsumerPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventSlowConsumer,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryNetwork,
		Payload:  payload,
		Extra:    extra,
	})
}
