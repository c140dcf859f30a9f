package server

import "math"

// beaconPhase tracks the Oni-only reveal ability through its timed cycle.
type beaconPhase uint8

const (
	beaconDelay beaconPhase = iota
	beaconReady
	beaconActive
	beaconCoolingDown
)

// beaconState is explicit duration state advanced by the tick loop; there
// are no wall-clock reads so the cycle is testable with synthetic time.
type beaconState struct {
	phase     beaconPhase
	remaining float64
}

// resetOnBecameOni restarts the full cycle from the initial delay.
func (b *beaconState) resetOnBecameOni() {
	b.phase = beaconDelay
	b.remaining = beaconInitialDelay
}

// advance moves the phase machine forward by dt seconds.
func (b *beaconState) advance(dt float64) {
	if b.phase == beaconReady {
		return
	}
	b.remaining -= dt
	if b.remaining > 0 {
		return
	}
	switch b.phase {
	case beaconDelay:
		b.phase = beaconReady
		b.remaining = 0
	case beaconActive:
		b.phase = beaconCoolingDown
		b.remaining = beaconCooldownLength + b.remaining
	case beaconCoolingDown:
		b.phase = beaconReady
		b.remaining = 0
	}
}

// activate fires the beacon if the cycle permits it. It reports whether the
// active window started.
func (b *beaconState) activate() bool {
	if b.phase != beaconReady {
		return false
	}
	b.phase = beaconActive
	b.remaining = beaconActiveWindow
	return true
}

func (b *beaconState) available() bool {
	return b.phase == beaconReady
}

func (b *beaconState) active() bool {
	return b.phase == beaconActive
}

// cooldownSeconds is the broadcast-facing remaining wait; zero while the
// beacon is ready or currently active.
func (b *beaconState) cooldownSeconds() float64 {
	switch b.phase {
	case beaconDelay, beaconCoolingDown:
		return math.Max(0, b.remaining)
	default:
		return 0
	}
}

// advanceAbilities debits and credits the shared fuel pool and runs the
// dash/jetpack/beacon state for one participant. Runs after movement so
// surface contact reflects this tick's classification.
func (w *World) advanceAbilities(p *participantState, dt float64) {
	// Jetpack: sustained force, gated only by fuel. The force itself is
	// applied during movement; here the flag is settled and fuel drained.
	jetpacking := p.intent.Jetpack && p.Fuel > 0
	p.IsJetpacking = jetpacking
	if jetpacking {
		p.setFuel(p.Fuel - jetpackDrainRate*dt)
	}

	// Dash is Runner-only; conversion force-disables it and this guard
	// keeps an Oni from re-engaging.
	if p.IsOni {
		p.IsDashing = false
	} else {
		moving := p.intent.MoveX != 0 || p.intent.MoveZ != 0
		if p.intent.Dash && moving && p.Fuel > 0 {
			p.IsDashing = true
		} else {
			p.IsDashing = false
		}
		if p.IsDashing {
			p.setFuel(p.Fuel - dashDrainRate*dt)
			if p.Fuel <= 0 {
				p.IsDashing = false
			}
		}
	}

	// Recharge requires surface contact and no active drain. Oni recharge
	// while moving; Runners must be close to stationary.
	if p.IsOnSurface && !p.IsJetpacking && !p.IsDashing {
		eligible := p.IsOni || p.Velocity.HorizontalLength() <= runnerRechargeSpeed
		if eligible {
			p.setFuel(p.Fuel + fuelRechargeRate*dt)
		}
	}

	if p.IsOni {
		p.beacon.advance(dt)
		if p.intent.Beacon && p.beacon.activate() {
			w.publishBeaconActivated(p.ID)
		}
		p.BeaconCooldown = p.beacon.cooldownSeconds()
	} else {
		p.BeaconCooldown = 0
	}
}

// dashSpeedTarget shapes horizontal steering while a dash is held or
// decaying: velocity approaches the dash speed quickly and falls back to run
// speed slowly.
func dashSpeedTarget(current float64, dashing bool, dt float64) float64 {
	target := moveSpeed
	rate := dashDecayRate
	if dashing {
		target = dashTargetSpeed
		rate = dashEngageRate
	}
	return current + (target-current)*lerpFactor(rate, dt)
}

// lerpFactor converts a per-second exponential rate into a per-tick blend.
func lerpFactor(rate, dt float64) float64 {
	return 1 - math.Exp(-rate*dt)
}

// BeaconRevealActive reports whether any Oni currently has the reveal window
// open; the visual layer shows every Runner to every Oni while true.
func (w *World) BeaconRevealActive() bool {
	for _, p := range w.participants {
		if p.IsOni && p.beacon.active() {
			return true
		}
	}
	return false
}
