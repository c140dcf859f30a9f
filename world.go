package server

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	uuid "github.com/satori/go.uuid"

	"oni-rush/server/logging"
)

// CommandType enumerates the supported simulation commands.
type CommandType string

const (
	CommandMove      CommandType = "Move"
	CommandAbility   CommandType = "Ability"
	CommandHeartbeat CommandType = "Heartbeat"
)

// Command represents an intent captured for processing on the next tick.
type Command struct {
	OriginTick uint64
	ActorID    string
	Type       CommandType
	IssuedAt   time.Time
	Move       *MoveCommand
	Ability    *AbilityCommand
	Heartbeat  *HeartbeatCommand
}

// MoveCommand carries the desired movement vector and view rotation.
type MoveCommand struct {
	DX    float64
	DZ    float64
	Yaw   float64
	Pitch float64
}

// AbilityCommand carries the held ability flags for the tick.
type AbilityCommand struct {
	Jump    bool
	Dash    bool
	Jetpack bool
	Beacon  bool
}

// HeartbeatCommand updates connectivity metadata for an actor.
type HeartbeatCommand struct {
	ReceivedAt time.Time
	ClientSent int64
	RTT        time.Duration
}

// World owns the authoritative simulation state. A single tick loop mutates
// it; everything else observes through snapshots and deltas.
type World struct {
	participants map[string]*participantState
	env          *Environment
	traffic      *trafficController

	config    WorldConfig
	rng       *rand.Rand
	seed      string
	roundID   string
	publisher logging.Publisher

	currentTick    uint64
	phase          RoundPhase
	roundElapsed   float64
	graceRemaining float64
	roundDuration  float64

	pairCooldowns    map[string]float64
	tagEvents        []TagEvent
	pendingTagEvents []TagEvent

	nextAIID uint64
}

// newWorld constructs a world around the supplied static geometry and seeds
// the configured AI participants.
func newWorld(cfg WorldConfig, env *Environment, publisher logging.Publisher) *World {
	normalized := cfg.normalized()
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	if env == nil {
		env = &Environment{}
	}

	w := &World{
		participants:  make(map[string]*participantState),
		env:           env,
		config:        normalized,
		rng:           newDeterministicRNG(normalized.Seed, "world"),
		seed:          normalized.Seed,
		roundID:       uuid.NewV4().String(),
		publisher:     publisher,
		phase:         RoundNotStarted,
		roundDuration: normalized.RoundSeconds,
		pairCooldowns: make(map[string]float64),
	}
	if normalized.Traffic {
		w.traffic = newTrafficController(env, w.subsystemRNG("traffic"))
	}
	w.spawnAIParticipants(normalized.AICount)
	return w
}

// RoundID identifies this round for diagnostics and join payloads.
func (w *World) RoundID() string {
	return w.roundID
}

// Config returns the normalized world configuration.
func (w *World) Config() WorldConfig {
	return w.config
}

// HasParticipant reports whether the world currently tracks the given id.
func (w *World) HasParticipant(id string) bool {
	_, ok := w.participants[id]
	return ok
}

// AddParticipant registers a participant at a safe spawn position.
func (w *World) AddParticipant(id string, isAI bool, now time.Time) *participantState {
	p := &participantState{
		Participant: Participant{
			ID:       id,
			IsAI:     isAI,
			Position: w.spawnPosition(),
			Fuel:     maxFuel,
		},
		lastHeartbeat: now,
	}
	if isAI {
		p.ai = &aiState{
			retargetIn:    w.randomRange(aiRetargetMin, aiRetargetMax),
			wanderHeading: w.randomFloat() * 2 * math.Pi,
		}
	}
	w.participants[id] = p
	return p
}

// RemoveParticipant drops a participant and reports whether it was present.
func (w *World) RemoveParticipant(id string) bool {
	if _, ok := w.participants[id]; !ok {
		return false
	}
	delete(w.participants, id)
	return true
}

func (w *World) spawnAIParticipants(count int) {
	for i := 0; i < count; i++ {
		w.nextAIID++
		w.AddParticipant(fmt.Sprintf("ai-%d", w.nextAIID), true, time.Time{})
	}
}

// spawnPosition draws a random point in the central region and walks it out
// of any building it landed inside.
func (w *World) spawnPosition() Vec3 {
	pos := Vec3{
		X: w.randomRange(-spawnSafeRadius, spawnSafeRadius),
		Z: w.randomRange(-spawnSafeRadius, spawnSafeRadius),
	}
	if isInsideBuilding(w.env, pos, participantRadius) {
		pos = nearestSafePosition(w.env, pos, participantRadius)
	}
	return pos
}

// Snapshot copies every participant into broadcast-friendly structs.
func (w *World) Snapshot() []Participant {
	participants := make([]Participant, 0, len(w.participants))
	for _, id := range w.sortedParticipantIDs() {
		participants = append(participants, w.participants[id].snapshot())
	}
	return participants
}

// SetIntent stores the latest movement and ability intent for a
// participant. Unknown ids are a no-op so one disconnect never stalls the
// tick for everyone else.
func (w *World) SetIntent(id string, intent Intent) bool {
	p, ok := w.participants[id]
	if !ok {
		return false
	}
	length := math.Hypot(intent.MoveX, intent.MoveZ)
	if length > 1 {
		intent.MoveX /= length
		intent.MoveZ /= length
	}
	p.intent = intent
	p.Rotation = Rotation{Yaw: intent.Yaw, Pitch: intent.Pitch}.Clamped()
	return true
}

// Step advances the simulation by a single tick applying all staged
// commands. Large frame gaps are clamped so a stall causes a stutter, not a
// physics explosion. It returns the ids of participants pruned for
// heartbeat timeouts.
func (w *World) Step(tick uint64, now time.Time, dt float64, commands []Command) []string {
	if dt <= 0 {
		dt = 1.0 / float64(tickRate)
	}
	if dt > maxTickDelta {
		dt = maxTickDelta
	}
	w.currentTick = tick

	aiCommands := w.runAI(tick, now, dt)
	if len(aiCommands) > 0 {
		combined := make([]Command, 0, len(aiCommands)+len(commands))
		combined = append(combined, aiCommands...)
		combined = append(combined, commands...)
		commands = combined
	}

	for _, cmd := range commands {
		w.applyCommand(cmd, now)
	}

	if w.traffic != nil {
		w.traffic.advance(dt)
	}

	for _, id := range w.sortedParticipantIDs() {
		w.stepMovement(w.participants[id], dt)
	}

	// The role state machine and ability economy halt once the round ends;
	// movement keeps running so the results screen isn't frozen mid-air.
	if w.phase == RoundPlaying {
		w.detectTags(tick, now, dt)
		for _, id := range w.sortedParticipantIDs() {
			w.advanceAbilities(w.participants[id], dt)
		}
	}
	w.advanceRound(now, dt)

	return w.pruneStaleParticipants(now)
}

func (w *World) applyCommand(cmd Command, now time.Time) {
	p, ok := w.participants[cmd.ActorID]
	if !ok {
		return
	}
	switch cmd.Type {
	case CommandMove:
		if cmd.Move == nil {
			return
		}
		intent := p.intent
		intent.MoveX = cmd.Move.DX
		intent.MoveZ = cmd.Move.DZ
		intent.Yaw = cmd.Move.Yaw
		intent.Pitch = cmd.Move.Pitch
		w.SetIntent(p.ID, intent)
		if !cmd.IssuedAt.IsZero() {
			p.lastInput = cmd.IssuedAt
		} else {
			p.lastInput = now
		}
	case CommandAbility:
		if cmd.Ability == nil {
			return
		}
		p.intent.Jump = cmd.Ability.Jump
		p.intent.Dash = cmd.Ability.Dash
		p.intent.Jetpack = cmd.Ability.Jetpack
		p.intent.Beacon = cmd.Ability.Beacon
	case CommandHeartbeat:
		if cmd.Heartbeat == nil {
			return
		}
		p.lastHeartbeat = cmd.Heartbeat.ReceivedAt
		p.lastRTT = cmd.Heartbeat.RTT
	}
}

// stepMovement runs steering, ability forces, integration, and collision
// for one participant. AI and human participants share this path.
func (w *World) stepMovement(p *participantState, dt float64) {
	dirX, dirZ := p.intent.MoveX, p.intent.MoveZ
	length := math.Hypot(dirX, dirZ)
	if length > 1 {
		dirX /= length
		dirZ /= length
	}

	if dirX != 0 || dirZ != 0 {
		currentSpeed := p.Velocity.HorizontalLength()
		if p.IsDashing || (!p.IsOni && currentSpeed > moveSpeed+0.5) {
			speed := dashSpeedTarget(currentSpeed, p.IsDashing, dt)
			p.Velocity.X = dirX * speed
			p.Velocity.Z = dirZ * speed
		} else {
			blend := lerpFactor(moveAccelRate, dt)
			p.Velocity.X += (dirX*moveSpeed - p.Velocity.X) * blend
			p.Velocity.Z += (dirZ*moveSpeed - p.Velocity.Z) * blend
		}
	} else if p.IsOnSurface {
		p.Velocity = applyFriction(p.Velocity, groundFrictionRate, dt)
	}

	if p.intent.Jump && p.IsOnSurface {
		p.Velocity = applyJumpImpulse(p.Velocity, p.IsOni)
		p.intent.Jump = false
	}
	// Fuel accounting only runs during a round, so the thrust it pays for
	// is gated the same way; holding jetpack in the lobby does nothing.
	jetpacking := p.intent.Jetpack && p.Fuel > 0 && w.phase == RoundPlaying
	if jetpacking {
		p.Velocity = applyJetpackForce(p.Velocity, dt)
	}
	p.Velocity = clampVelocity(p.Velocity)

	pos, vel, surface := integrateMotion(p.Position, p.Velocity, dt, jetpacking, w.env)

	result := resolveCollision(w.env, pos, participantRadius)
	if result.Collided {
		vel = applySlidingMovement(vel, result.Normal)
		// Re-run to catch residual penetration after the slide.
		result = resolveCollision(w.env, result.Position, participantRadius)
	}

	p.Position = result.Position
	p.Velocity = vel
	p.surface = surface
	p.IsOnSurface = surface.OnSurface()
	p.version++
}

// pruneStaleParticipants removes humans whose heartbeat lapsed. AI
// participants never heartbeat and are exempt.
func (w *World) pruneStaleParticipants(now time.Time) []string {
	cutoff := now.Add(-disconnectAfter)
	removed := make([]string, 0)
	for id, p := range w.participants {
		if p.IsAI || p.lastHeartbeat.IsZero() {
			continue
		}
		if p.lastHeartbeat.Before(cutoff) {
			w.publishDisconnected(id, "timeout")
			delete(w.participants, id)
			removed = append(removed, id)
		}
	}
	return removed
}
