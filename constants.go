package server

import "time"

const (
	ProtocolVersion   = 1
	writeWait         = 10 * time.Second
	tickRate          = 15 // ticks per second
	maxTickDelta      = 0.1
	broadcastInterval = 200 * time.Millisecond
	heartbeatInterval = 2 * time.Second
	disconnectAfter   = 3 * heartbeatInterval

	// World geometry. The map is a square centred on the origin; x/z are
	// clamped to ±worldExtent and y is floored at ground level.
	worldExtent        = 500.0
	participantRadius  = 0.5
	gravityAccel       = 20.0 // units/s²
	surfaceTolerance   = 0.5
	waterSurfaceHeight = 2.0
	waterDrag          = 0.5

	// Movement tuning.
	moveSpeed          = 10.0 // units/s baseline run speed
	moveAccelRate      = 8.0  // per-second exponential approach to intent
	groundFrictionRate = 6.0
	maxHorizontalSpeed = 40.0
	maxVerticalSpeed   = 50.0

	// Ability economy.
	maxFuel              = 100.0
	jetpackDrainRate     = 25.0 // fuel/s
	dashDrainRate        = 20.0
	fuelRechargeRate     = 15.0
	runnerRechargeSpeed  = 0.5  // Runners only recharge when near stationary
	runnerJumpImpulse    = 12.0
	oniJumpImpulse       = 8.0
	jetpackForce         = 35.0 // must exceed gravityAccel for net lift
	dashTargetSpeed      = 28.0
	dashEngageRate       = 9.0 // fast accel
	dashDecayRate        = 3.0 // slow decel
	beaconInitialDelay   = 30.0 // seconds
	beaconActiveWindow   = 15.0
	beaconCooldownLength = 30.0

	// Tag system.
	tagDistance          = 5.0
	tagPairCooldown      = 1.0 // seconds
	tagGracePeriod       = 3.0
	minParticipants      = 3
	minOniCount          = 1
	minRunnerCount       = 2
	defaultRoundDuration = 300.0 // seconds

	// AI controller.
	aiVisionDistance   = 50.0
	aiFleeDistance     = 30.0
	aiRetargetMin      = 2.0 // seconds
	aiRetargetMax      = 4.0
	aiWanderDriftRate  = 1.2 // radians/s of random heading drift
	aiJetpackFuelFloor = 30.0
	aiDashFuelFloor    = 10.0
	aiDashHold         = 1.5
	aiDashCooldown     = 4.0
	aiJetpackChance    = 0.35
	aiDashChance       = 0.5

	// Dynamic obstacles (vehicles, pedestrians).
	dynamicHeightGate = 2.0 // skip collision when height delta exceeds this
	vehicleRadius     = 1.6
	pedestrianRadius  = 0.4
	vehicleSpeed      = 8.0
	pedestrianSpeed   = 1.4

	// Spawn placement.
	spawnSafeRadius = 40.0
	spawnEscapeMax  = 10 // bounded repulsion iterations
)

// TickRate exposes the simulation rate for diagnostics payloads.
func TickRate() int {
	return tickRate
}

// HeartbeatInterval exposes the expected client heartbeat cadence.
func HeartbeatInterval() time.Duration {
	return heartbeatInterval
}
