package match

import (
	"context"

	"oni-rush/server/logging"
)

const (
	// EventRoundStarted is emitted when role assignment completes and play begins.
	EventRoundStarted logging.EventType = "match.round_started"
	// EventRoundEnded is emitted when the round timer lapses or the last runner falls.
	EventRoundEnded logging.EventType = "match.round_ended"
	// EventTagged is emitted when an oni converts a runner.
	EventTagged logging.EventType = "match.tagged"
	// EventBeaconActivated is emitted when an oni fires its reveal pulse.
	EventBeaconActivated logging.EventType = "match.beacon_activated"
)

// RoundStartedPayload captures the opening role split.
type RoundStartedPayload struct {
	RoundID      string  `json:"roundId"`
	OniCount     int     `json:"oniCount"`
	RunnerCount  int     `json:"runnerCount"`
	RoundSeconds float64 `json:"roundSeconds"`
}

// RoundEndedPayload captures why and when the round closed.
type RoundEndedPayload struct {
	RoundID string  `json:"roundId"`
	Reason  string  `json:"reason"`
	Elapsed float64 `json:"elapsed"`
}

// TaggedPayload captures a single conversion.
type TaggedPayload struct {
	SurvivedTime float64 `json:"survivedTime"`
}

// BeaconActivatedPayload captures the reveal window length.
type BeaconActivatedPayload struct {
	WindowSeconds float64 `json:"windowSeconds"`
}

// RoundStarted publishes a round start event.
func RoundStarted(ctx context.Context, pub logging.Publisher, tick uint64, payload RoundStartedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventRoundStarted,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindWorld},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryMatch,
		Payload:  payload,
		Extra:    extra,
	})
}

// RoundEnded publishes a round end event.
func RoundEnded(ctx context.Context, pub logging.Publisher, tick uint64, payload RoundEndedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventRoundEnded,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindWorld},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryMatch,
		Payload:  payload,
		Extra:    extra,
	})
}

// Tagged publishes a conversion event with the tagged runner as target.
func Tagged(ctx context.Context, pub logging.Publisher, tick uint64, tagger, tagged logging.EntityRef, payload TaggedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventTagged,
		Tick:     tick,
		Actor:    tagger,
		Targets:  []logging.EntityRef{tagged},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryMatch,
		Payload:  payload,
		Extra:    extra,
	})
}

// BeaconActivated publishes a beacon pulse event.
func BeaconActivated(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload BeaconActivatedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventBeaconActivated,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryMatch,
		Payload:  payload,
		Extra:    extra,
	})
}
