package server

import (
	"math"
	"time"
)

// aiState is the per-agent blackboard for the heuristic controller. All
// timers are tick-advanced durations in seconds.
type aiState struct {
	retargetIn    float64
	targetID      string
	fleeing       bool
	wanderHeading float64
	dashHold      float64
	dashCooldown  float64
	jetpackHold   float64
}

// runAI re-evaluates every AI participant and emits the same Command stream
// human input produces. Agents never take a privileged physics path; their
// commands flow through the identical movement and collision pipeline.
func (w *World) runAI(tick uint64, now time.Time, dt float64) []Command {
	commands := make([]Command, 0)
	for _, id := range w.sortedParticipantIDs() {
		p := w.participants[id]
		if !p.IsAI || p.ai == nil {
			continue
		}
		commands = append(commands, w.stepAgent(p, tick, now, dt)...)
	}
	return commands
}

// stepAgent advances one agent's timers and, when its decision window
// elapses, re-targets and re-rolls ability use. Between decisions the agent
// keeps its previous intent, which produces human-like hesitation instead of
// per-tick thrash.
func (w *World) stepAgent(p *participantState, tick uint64, now time.Time, dt float64) []Command {
	agent := p.ai
	agent.retargetIn -= dt
	agent.dashCooldown -= dt

	commands := make([]Command, 0, 2)

	if agent.dashHold > 0 {
		agent.dashHold -= dt
		if agent.dashHold <= 0 {
			agent.dashCooldown = aiDashCooldown
			commands = append(commands, abilityCommand(p.ID, tick, now, Intent{
				MoveX: p.intent.MoveX, MoveZ: p.intent.MoveZ,
				Jetpack: p.intent.Jetpack,
			}))
		}
	}
	if agent.jetpackHold > 0 {
		agent.jetpackHold -= dt
		if agent.jetpackHold <= 0 {
			commands = append(commands, abilityCommand(p.ID, tick, now, Intent{
				MoveX: p.intent.MoveX, MoveZ: p.intent.MoveZ,
				Dash: p.intent.Dash,
			}))
		}
	}

	if agent.retargetIn > 0 {
		return commands
	}
	agent.retargetIn = aiRetargetMin + w.randomFloat()*(aiRetargetMax-aiRetargetMin)

	dirX, dirZ, targetDist := w.steerAgent(p)
	intent := Intent{
		MoveX:   dirX,
		MoveZ:   dirZ,
		Yaw:     math.Atan2(dirX, dirZ),
		Dash:    p.intent.Dash && agent.dashHold > 0,
		Jetpack: p.intent.Jetpack && agent.jetpackHold > 0,
	}

	// Jetpack roll: fleeing at close range, or chasing from a distance.
	if p.Fuel >= aiJetpackFuelFloor && agent.targetID != "" {
		pressured := agent.fleeing && targetDist < aiFleeDistance/2
		closingIn := !agent.fleeing && targetDist > aiVisionDistance/2
		if (pressured || closingIn) && w.randomFloat() < aiJetpackChance {
			intent.Jetpack = true
			agent.jetpackHold = 1.0
		}
	}

	// Dash roll: Runner-only burst inside the chase/flee band.
	if !p.IsOni && p.Fuel >= aiDashFuelFloor && agent.dashCooldown <= 0 &&
		agent.targetID != "" && targetDist < aiFleeDistance &&
		w.randomFloat() < aiDashChance {
		intent.Dash = true
		agent.dashHold = aiDashHold
	}

	commands = append(commands,
		moveCommand(p.ID, tick, now, intent),
		abilityCommand(p.ID, tick, now, intent))
	return commands
}

// steerAgent picks the pursue/flee/wander direction for an agent and
// returns it with the distance to the chosen target.
func (w *World) steerAgent(p *participantState) (float64, float64, float64) {
	agent := p.ai
	if p.IsOni {
		target, dist := w.nearestParticipant(p, func(other *participantState) bool {
			return !other.IsOni
		}, aiVisionDistance)
		if target == nil {
			agent.targetID = ""
			return w.wanderDirection(agent)
		}
		agent.targetID = target.ID
		agent.fleeing = false
		dx, dz := headingToward(p.Position, target.Position)
		return dx, dz, dist
	}

	threat, dist := w.nearestParticipant(p, func(other *participantState) bool {
		return other.IsOni
	}, aiFleeDistance)
	if threat == nil {
		agent.targetID = ""
		agent.fleeing = false
		return w.wanderDirection(agent)
	}
	agent.targetID = threat.ID
	agent.fleeing = true
	dx, dz := headingToward(threat.Position, p.Position) // inverted: away
	return dx, dz, dist
}

// wanderDirection drifts the agent's heading with bounded random turns.
func (w *World) wanderDirection(agent *aiState) (float64, float64, float64) {
	agent.fleeing = false
	agent.wanderHeading += (w.randomFloat() - 0.5) * 2 * aiWanderDriftRate
	return math.Sin(agent.wanderHeading), math.Cos(agent.wanderHeading), 0
}

// nearestParticipant finds the closest other participant accepted by the
// filter within maxDist, by full 3D distance.
func (w *World) nearestParticipant(from *participantState, accept func(*participantState) bool, maxDist float64) (*participantState, float64) {
	var nearest *participantState
	nearestDist := maxDist
	for _, id := range w.sortedParticipantIDs() {
		other := w.participants[id]
		if other == from || !accept(other) {
			continue
		}
		d := distance(from.Position, other.Position)
		if d <= nearestDist {
			nearest = other
			nearestDist = d
		}
	}
	if nearest == nil {
		return nil, 0
	}
	return nearest, nearestDist
}

func headingToward(from, to Vec3) (float64, float64) {
	dx := to.X - from.X
	dz := to.Z - from.Z
	length := math.Hypot(dx, dz)
	if length == 0 {
		return 0, 0
	}
	return dx / length, dz / length
}

func moveCommand(actorID string, tick uint64, now time.Time, intent Intent) Command {
	return Command{
		OriginTick: tick,
		ActorID:    actorID,
		Type:       CommandMove,
		IssuedAt:   now,
		Move:       &MoveCommand{DX: intent.MoveX, DZ: intent.MoveZ, Yaw: intent.Yaw, Pitch: intent.Pitch},
	}
}

func abilityCommand(actorID string, tick uint64, now time.Time, intent Intent) Command {
	return Command{
		OriginTick: tick,
		ActorID:    actorID,
		Type:       CommandAbility,
		IssuedAt:   now,
		Ability: &AbilityCommand{
			Jump:    intent.Jump,
			Dash:    intent.Dash,
			Jetpack: intent.Jetpack,
			Beacon:  intent.Beacon,
		},
	}
}
