package server

import (
	"fmt"
	"sort"
	"time"
)

// RoundPhase is the round-level state machine.
type RoundPhase string

const (
	RoundNotStarted RoundPhase = "not_started"
	RoundPlaying    RoundPhase = "playing"
	RoundEnded      RoundPhase = "ended"
)

// TagEvent records a Runner-to-Oni conversion. Entries are append-only and
// immutable once created.
type TagEvent struct {
	TaggerID     string    `json:"taggerId"`
	TaggedID     string    `json:"taggedId"`
	Tick         uint64    `json:"tick"`
	Timestamp    time.Time `json:"timestamp"`
	SurvivedTime float64   `json:"survivedTime"`
}

// pairKey builds an order-independent cooldown key for a participant pair.
func pairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}

// AssignRoles splits the current participant set into Oni and Runners at
// round start. It fails fast when the round cannot satisfy the role
// minimums; an invalid round must not start.
func (w *World) AssignRoles() error {
	n := len(w.participants)
	if n < minParticipants {
		return fmt.Errorf("need at least %d participants to assign roles, have %d", minParticipants, n)
	}

	oniCount := n / 4
	if oniCount < minOniCount {
		oniCount = minOniCount
	}
	if n-oniCount < minRunnerCount {
		oniCount = n - minRunnerCount
	}

	ids := w.sortedParticipantIDs()
	w.rng.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})

	for index, id := range ids {
		p := w.participants[id]
		p.SurvivedTime = 0
		p.WasTagged = false
		p.TagCount = 0
		p.IsDashing = false
		if index < oniCount {
			p.IsOni = true
			p.beacon.resetOnBecameOni()
		} else {
			p.IsOni = false
			p.beacon = beaconState{}
		}
		p.version++
	}
	return nil
}

// StartRound transitions to Playing and arms the post-start grace period.
func (w *World) StartRound(now time.Time) {
	w.phase = RoundPlaying
	w.roundElapsed = 0
	w.graceRemaining = tagGracePeriod
	w.publishRoundStarted(now)
}

// detectTags scans every Oni/Runner pair for proximity conversions. Oni are
// visited in ascending ID order, so when two taggers reach the same Runner
// on the same tick the lowest ID wins deterministically; the isOni guard
// drops the later candidate.
func (w *World) detectTags(tick uint64, now time.Time, dt float64) {
	for key, remaining := range w.pairCooldowns {
		remaining -= dt
		if remaining <= 0 {
			delete(w.pairCooldowns, key)
			continue
		}
		w.pairCooldowns[key] = remaining
	}

	if w.phase != RoundPlaying || w.graceRemaining > 0 {
		return
	}

	ids := w.sortedParticipantIDs()
	for _, oniID := range ids {
		oni := w.participants[oniID]
		if !oni.IsOni {
			continue
		}
		for _, runnerID := range ids {
			runner := w.participants[runnerID]
			if runner.IsOni {
				continue
			}
			if distance(oni.Position, runner.Position) > tagDistance {
				continue
			}
			key := pairKey(oniID, runnerID)
			if _, cooling := w.pairCooldowns[key]; cooling {
				continue
			}
			w.convertRunner(oni, runner, tick, now)
			w.pairCooldowns[key] = tagPairCooldown
		}
	}
}

// convertRunner flips a Runner to Oni and applies every conversion side
// effect: survival freeze, dash kill, beacon reset, tagger credit.
func (w *World) convertRunner(oni, runner *participantState, tick uint64, now time.Time) {
	runner.IsOni = true
	runner.WasTagged = true
	runner.IsDashing = false
	runner.beacon.resetOnBecameOni()
	runner.version++
	oni.TagCount++
	oni.version++

	event := TagEvent{
		TaggerID:     oni.ID,
		TaggedID:     runner.ID,
		Tick:         tick,
		Timestamp:    now,
		SurvivedTime: runner.SurvivedTime,
	}
	w.tagEvents = append(w.tagEvents, event)
	w.pendingTagEvents = append(w.pendingTagEvents, event)
	w.publishTagged(event)
}

// advanceRound accrues survival time for Runners, burns the grace period,
// and settles the end condition. A Runner's survivedTime freezes at the
// instant of tagging because accrual stops the tick it becomes Oni.
func (w *World) advanceRound(now time.Time, dt float64) {
	if w.phase != RoundPlaying {
		return
	}
	if w.graceRemaining > 0 {
		w.graceRemaining -= dt
	}
	w.roundElapsed += dt
	for _, p := range w.participants {
		if !p.IsOni {
			p.SurvivedTime += dt
		}
	}
	if w.ShouldGameEnd() {
		w.phase = RoundEnded
		w.publishRoundEnded(now)
	}
}

// IsPlaying reports whether the round is live.
func (w *World) IsPlaying() bool {
	return w.phase == RoundPlaying
}

// Phase returns the round-level state.
func (w *World) Phase() RoundPhase {
	return w.phase
}

// CountRunnerPlayers counts participants still evading.
func (w *World) CountRunnerPlayers() int {
	count := 0
	for _, p := range w.participants {
		if !p.IsOni {
			count++
		}
	}
	return count
}

// CountOniPlayers counts the hunting side.
func (w *World) CountOniPlayers() int {
	return len(w.participants) - w.CountRunnerPlayers()
}

// areAllParticipantsOni reports whether the Runner set is empty.
func (w *World) areAllParticipantsOni() bool {
	return w.CountRunnerPlayers() == 0
}

// ShouldGameEnd is true once the Runner set empties or the round timer
// expires, whichever happens first.
func (w *World) ShouldGameEnd() bool {
	if w.phase == RoundEnded {
		return true
	}
	if w.phase != RoundPlaying {
		return false
	}
	if w.areAllParticipantsOni() {
		return true
	}
	return w.roundElapsed >= w.roundDuration
}

// TagEvents returns the append-only conversion log for the round.
func (w *World) TagEvents() []TagEvent {
	events := make([]TagEvent, len(w.tagEvents))
	copy(events, w.tagEvents)
	return events
}

// drainPendingTagEvents hands the unbroadcast conversions to the hub.
func (w *World) drainPendingTagEvents() []TagEvent {
	if len(w.pendingTagEvents) == 0 {
		return nil
	}
	drained := make([]TagEvent, len(w.pendingTagEvents))
	copy(drained, w.pendingTagEvents)
	w.pendingTagEvents = w.pendingTagEvents[:0]
	return drained
}

func (w *World) sortedParticipantIDs() []string {
	ids := make([]string, 0, len(w.participants))
	for id := range w.participants {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
