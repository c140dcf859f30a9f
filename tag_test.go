package server

import (
	"testing"
	"time"
)

func newTagWorld(t *testing.T, participants int) *World {
	t.Helper()
	env := newTestEnvironment(t)
	w := newWorld(WorldConfig{Seed: "tag", AICount: 0, Traffic: false}, env, nil)
	for i := 0; i < participants; i++ {
		id := string(rune('a' + i))
		p := w.AddParticipant(id, false, time.Time{})
		p.Position = Vec3{X: 200 + float64(i)*20, Z: -200}
	}
	return w
}

func startedTagWorld(t *testing.T, participants int) *World {
	t.Helper()
	w := newTagWorld(t, participants)
	if err := w.AssignRoles(); err != nil {
		t.Fatalf("AssignRoles: %v", err)
	}
	w.StartRound(time.Now())
	w.graceRemaining = 0
	return w
}

func forceRoles(w *World, oniID string) {
	for id, p := range w.participants {
		p.IsOni = id == oniID
		if p.IsOni {
			p.beacon.resetOnBecameOni()
		}
	}
}

func TestAssignRolesRequiresQuorum(t *testing.T) {
	w := newTagWorld(t, 2)
	if err := w.AssignRoles(); err == nil {
		t.Fatalf("expected error with %d participants", len(w.participants))
	}
}

func TestAssignRolesSatisfiesMinimums(t *testing.T) {
	for _, n := range []int{3, 4, 8, 12} {
		w := newTagWorld(t, n)
		if err := w.AssignRoles(); err != nil {
			t.Fatalf("n=%d: AssignRoles: %v", n, err)
		}
		oni := w.CountOniPlayers()
		runners := w.CountRunnerPlayers()
		if oni < minOniCount {
			t.Fatalf("n=%d: oni count %d below minimum", n, oni)
		}
		if runners < minRunnerCount {
			t.Fatalf("n=%d: runner count %d below minimum", n, runners)
		}
		if oni+runners != n {
			t.Fatalf("n=%d: role split %d+%d does not cover everyone", n, oni, runners)
		}
	}
}

func TestAssignRolesVariesAcrossReruns(t *testing.T) {
	w := newTagWorld(t, 8)
	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		if err := w.AssignRoles(); err != nil {
			t.Fatalf("AssignRoles: %v", err)
		}
		key := ""
		for _, id := range w.sortedParticipantIDs() {
			if w.participants[id].IsOni {
				key += id
			}
		}
		seen[key] = true
	}
	if len(seen) < 2 {
		t.Fatalf("10 reruns produced a single oni set; shuffle is not advancing")
	}
}

func TestAssignRolesResetsRoundState(t *testing.T) {
	w := newTagWorld(t, 4)
	for _, p := range w.participants {
		p.SurvivedTime = 99
		p.WasTagged = true
		p.TagCount = 3
		p.IsDashing = true
	}
	if err := w.AssignRoles(); err != nil {
		t.Fatalf("AssignRoles: %v", err)
	}
	for id, p := range w.participants {
		if p.SurvivedTime != 0 || p.WasTagged || p.TagCount != 0 || p.IsDashing {
			t.Fatalf("%s: stale round state survived assignment: %+v", id, p.Participant)
		}
	}
}

func TestDetectTagsConvertsRunnerInRange(t *testing.T) {
	w := startedTagWorld(t, 4)
	forceRoles(w, "a")
	oni := w.participants["a"]
	runner := w.participants["b"]
	oni.Position = Vec3{X: 0, Z: 300}
	runner.Position = Vec3{X: tagDistance - 1, Z: 300}
	runner.SurvivedTime = 42
	runner.IsDashing = true

	now := time.Now()
	w.detectTags(10, now, 1.0/15)

	if !runner.IsOni {
		t.Fatalf("runner in range was not converted")
	}
	if !runner.WasTagged {
		t.Fatalf("wasTagged not set on conversion")
	}
	if runner.IsDashing {
		t.Fatalf("dash survived conversion")
	}
	if runner.SurvivedTime != 42 {
		t.Fatalf("survivedTime changed at conversion: %v", runner.SurvivedTime)
	}
	if oni.TagCount != 1 {
		t.Fatalf("tagger credit = %d, want 1", oni.TagCount)
	}

	events := w.TagEvents()
	if len(events) != 1 {
		t.Fatalf("tag event count = %d, want 1", len(events))
	}
	e := events[0]
	if e.TaggerID != "a" || e.TaggedID != "b" || e.Tick != 10 || e.SurvivedTime != 42 {
		t.Fatalf("unexpected tag event: %+v", e)
	}
}

func TestDetectTagsRespectsDistance(t *testing.T) {
	w := startedTagWorld(t, 4)
	forceRoles(w, "a")
	w.participants["a"].Position = Vec3{X: 0, Z: 300}
	w.participants["b"].Position = Vec3{X: tagDistance + 0.1, Z: 300}

	w.detectTags(1, time.Now(), 1.0/15)

	if w.participants["b"].IsOni {
		t.Fatalf("runner outside tag distance was converted")
	}
}

func TestDetectTagsUses3DDistance(t *testing.T) {
	w := startedTagWorld(t, 4)
	forceRoles(w, "a")
	w.participants["a"].Position = Vec3{X: 0, Y: 0, Z: 300}
	// Horizontally close but vertically separated beyond range.
	w.participants["b"].Position = Vec3{X: 1, Y: tagDistance + 1, Z: 300}

	w.detectTags(1, time.Now(), 1.0/15)

	if w.participants["b"].IsOni {
		t.Fatalf("vertical separation must count toward tag distance")
	}
}

func TestDetectTagsPairCooldown(t *testing.T) {
	w := startedTagWorld(t, 4)
	forceRoles(w, "a")
	oni := w.participants["a"]
	runner := w.participants["b"]
	oni.Position = Vec3{X: 0, Z: 300}
	runner.Position = Vec3{X: 1, Z: 300}

	now := time.Now()
	w.detectTags(1, now, 1.0/15)
	if got := len(w.TagEvents()); got != 1 {
		t.Fatalf("first pass events = %d, want 1", got)
	}

	// Same pair again within the cooldown window; the runner is already
	// Oni, but the cooldown must also hold for the reverse direction.
	runner.IsOni = false
	w.detectTags(2, now, 1.0/15)
	if got := len(w.TagEvents()); got != 1 {
		t.Fatalf("pair retag inside cooldown produced %d events", got)
	}

	// Let the cooldown lapse.
	w.detectTags(3, now, tagPairCooldown+0.1)
	w.detectTags(4, now, 1.0/15)
	if got := len(w.TagEvents()); got != 2 {
		t.Fatalf("pair retag after cooldown produced %d events, want 2", got)
	}
}

func TestDetectTagsGracePeriod(t *testing.T) {
	w := startedTagWorld(t, 4)
	forceRoles(w, "a")
	w.graceRemaining = tagGracePeriod
	w.participants["a"].Position = Vec3{X: 0, Z: 300}
	w.participants["b"].Position = Vec3{X: 1, Z: 300}

	w.detectTags(1, time.Now(), 1.0/15)

	if w.participants["b"].IsOni {
		t.Fatalf("tag landed during the grace period")
	}
}

func TestDetectTagsLowestIDWinsContested(t *testing.T) {
	w := startedTagWorld(t, 5)
	for id, p := range w.participants {
		p.IsOni = id == "a" || id == "c"
	}
	// Both oni in range of the same runner.
	w.participants["a"].Position = Vec3{X: 0, Z: 300}
	w.participants["c"].Position = Vec3{X: 2, Z: 300}
	w.participants["b"].Position = Vec3{X: 1, Z: 300}

	w.detectTags(1, time.Now(), 1.0/15)

	events := w.TagEvents()
	if len(events) != 1 {
		t.Fatalf("contested tag produced %d events, want 1", len(events))
	}
	if events[0].TaggerID != "a" {
		t.Fatalf("contested tag went to %s, want a", events[0].TaggerID)
	}
}

func TestAdvanceRoundAccruesSurvivalForRunnersOnly(t *testing.T) {
	w := startedTagWorld(t, 4)
	forceRoles(w, "a")

	w.advanceRound(time.Now(), 2.0)

	if got := w.participants["a"].SurvivedTime; got != 0 {
		t.Fatalf("oni accrued survival time: %v", got)
	}
	if got := w.participants["b"].SurvivedTime; got != 2.0 {
		t.Fatalf("runner survival = %v, want 2.0", got)
	}
}

func TestRoundEndsWhenAllTagged(t *testing.T) {
	w := startedTagWorld(t, 3)
	for _, p := range w.participants {
		p.IsOni = true
	}

	w.advanceRound(time.Now(), 1.0/15)

	if w.Phase() != RoundEnded {
		t.Fatalf("phase = %q, want ended", w.Phase())
	}
	if !w.ShouldGameEnd() {
		t.Fatalf("ShouldGameEnd must hold after the end transition")
	}
}

func TestRoundEndsOnTimer(t *testing.T) {
	w := startedTagWorld(t, 4)
	forceRoles(w, "a")
	w.roundDuration = 5

	w.advanceRound(time.Now(), 5.1)

	if w.Phase() != RoundEnded {
		t.Fatalf("phase = %q, want ended after timer expiry", w.Phase())
	}
}

func TestNoTagsAfterRoundEnds(t *testing.T) {
	w := startedTagWorld(t, 4)
	forceRoles(w, "a")
	w.phase = RoundEnded
	w.participants["a"].Position = Vec3{X: 0, Z: 300}
	w.participants["b"].Position = Vec3{X: 1, Z: 300}

	w.detectTags(1, time.Now(), 1.0/15)

	if w.participants["b"].IsOni {
		t.Fatalf("tag landed after the round ended")
	}
}

func TestDrainPendingTagEvents(t *testing.T) {
	w := startedTagWorld(t, 4)
	forceRoles(w, "a")
	w.participants["a"].Position = Vec3{X: 0, Z: 300}
	w.participants["b"].Position = Vec3{X: 1, Z: 300}
	w.detectTags(1, time.Now(), 1.0/15)

	first := w.drainPendingTagEvents()
	if len(first) != 1 {
		t.Fatalf("drain = %d events, want 1", len(first))
	}
	if second := w.drainPendingTagEvents(); second != nil {
		t.Fatalf("second drain should be empty, got %d", len(second))
	}
	if got := len(w.TagEvents()); got != 1 {
		t.Fatalf("round log lost events on drain: %d", got)
	}
}

func TestPairKeyIsOrderIndependent(t *testing.T) {
	if pairKey("x", "y") != pairKey("y", "x") {
		t.Fatalf("pair key depends on argument order")
	}
}
