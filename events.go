package server

import (
	"context"
	"time"

	"oni-rush/server/logging"
	"oni-rush/server/logging/match"
	"oni-rush/server/logging/network"
)

func (w *World) entityRef(id string) logging.EntityRef {
	kind := logging.EntityKindParticipant
	if p, ok := w.participants[id]; ok && p.IsAI {
		kind = logging.EntityKindAI
	}
	return logging.EntityRef{ID: id, Kind: kind}
}

func (w *World) publishRoundStarted(now time.Time) {
	match.RoundStarted(context.Background(), w.publisher, w.currentTick, match.RoundStartedPayload{
		RoundID:      w.roundID,
		OniCount:     w.CountOniPlayers(),
		RunnerCount:  w.CountRunnerPlayers(),
		RoundSeconds: w.roundDuration,
	}, map[string]any{"startedAt": now})
}

func (w *World) publishRoundEnded(now time.Time) {
	reason := "time_expired"
	if w.areAllParticipantsOni() {
		reason = "all_tagged"
	}
	match.RoundEnded(context.Background(), w.publisher, w.currentTick, match.RoundEndedPayload{
		RoundID: w.roundID,
		Reason:  reason,
		Elapsed: w.roundElapsed,
	}, map[string]any{"endedAt": now})
}

func (w *World) publishTagged(event TagEvent) {
	match.Tagged(context.Background(), w.publisher, w.currentTick,
		w.entityRef(event.TaggerID), w.entityRef(event.TaggedID),
		match.TaggedPayload{SurvivedTime: event.SurvivedTime}, nil)
}

func (w *World) publishBeaconActivated(id string) {
	match.BeaconActivated(context.Background(), w.publisher, w.currentTick,
		w.entityRef(id), match.BeaconActivatedPayload{WindowSeconds: beaconActiveWindow}, nil)
}

func (w *World) publishJoined(id string, spawn Vec3) {
	network.ClientJoined(context.Background(), w.publisher, w.currentTick,
		w.entityRef(id), network.JoinedPayload{SpawnX: spawn.X, SpawnZ: spawn.Z}, nil)
}

func (w *World) publishDisconnected(id, reason string) {
	network.ClientDisconnected(context.Background(), w.publisher, w.currentTick,
		w.entityRef(id), network.DisconnectedPayload{Reason: reason}, nil)
}
