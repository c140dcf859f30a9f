package server

import "time"

// Participant is the broadcast-facing view of one player or AI agent.
type Participant struct {
	ID           string   `json:"id"`
	IsOni        bool     `json:"isOni"`
	IsAI         bool     `json:"isAI"`
	Position     Vec3     `json:"position"`
	Velocity     Vec3     `json:"velocity"`
	Rotation     Rotation `json:"rotation"`
	Fuel         float64  `json:"fuel"`
	SurvivedTime float64  `json:"survivedTime"`
	WasTagged    bool     `json:"wasTagged"`
	IsOnSurface  bool     `json:"isOnSurface"`
	IsDashing    bool     `json:"isDashing"`
	IsJetpacking bool     `json:"isJetpacking"`
	// BeaconCooldown is the seconds remaining until the beacon can fire
	// again; zero while ready or active, and always zero for Runners.
	BeaconCooldown float64 `json:"beaconCooldown"`
	TagCount       int     `json:"tagCount"`
}

// Intent is the per-tick input captured from a client or the AI controller.
// The movement vector is normalized on intake; ability flags reflect held
// buttons.
type Intent struct {
	MoveX   float64
	MoveZ   float64
	Yaw     float64
	Pitch   float64
	Jump    bool
	Dash    bool
	Jetpack bool
	Beacon  bool
}

type participantState struct {
	Participant
	intent  Intent
	surface SurfaceInfo
	beacon  beaconState
	ai      *aiState

	lastInput     time.Time
	lastHeartbeat time.Time
	lastRTT       time.Duration
	version       uint64
}

func (s *participantState) snapshot() Participant {
	return s.Participant
}

// setFuel writes fuel through the clamp so the [0,100] invariant holds for
// every drain/recharge sequence.
func (s *participantState) setFuel(fuel float64) {
	s.Fuel = clamp(fuel, 0, maxFuel)
}
