package server

import "math"

// SurfaceType classifies what, if anything, supports a participant.
type SurfaceType string

const (
	SurfaceNone    SurfaceType = "none"
	SurfaceGround  SurfaceType = "ground"
	SurfaceRooftop SurfaceType = "rooftop"
	SurfaceBridge  SurfaceType = "bridge"
	SurfaceWater   SurfaceType = "water"
)

// SurfaceInfo is the transient result of a classification pass. It is
// recomputed every tick and never stored as authoritative state.
type SurfaceInfo struct {
	Type   SurfaceType `json:"type"`
	Height float64     `json:"height"`
}

// OnSurface reports whether the classification found any support.
func (s SurfaceInfo) OnSurface() bool {
	return s.Type != SurfaceNone
}

// integrateMotion advances one participant by dt: linear integration, then
// gravity (suppressed while jetpacking), map bounds, surface classification
// with snap, and water drag. No sub-stepping is performed, so a very large
// dt or velocity can tunnel through thin geometry; the tick loop clamps dt
// to keep that bounded.
func integrateMotion(pos, vel Vec3, dt float64, jetpacking bool, env *Environment) (Vec3, Vec3, SurfaceInfo) {
	pos = pos.Add(vel.Scale(dt))
	if !jetpacking {
		vel.Y -= gravityAccel * dt
	}

	pos.X = clamp(pos.X, -worldExtent, worldExtent)
	pos.Z = clamp(pos.Z, -worldExtent, worldExtent)
	if pos.Y < 0 {
		pos.Y = 0
	}

	surface := classifySurface(pos, vel.Y, env)
	if surface.OnSurface() && surface.Type != SurfaceWater {
		pos.Y = surface.Height
		vel.Y = 0
	}

	if env != nil && env.inWater(pos) {
		vel.X *= waterDrag
		vel.Z *= waterDrag
		if vel.Y < 0 {
			vel.Y *= waterDrag
		}
	}

	return pos, vel, surface
}

// classifySurface finds the support under a position in fixed priority
// order: ground beats bridge beats rooftop, with water as the fallback for a
// submerged mover. Landing only happens while vertical velocity is
// non-positive.
func classifySurface(pos Vec3, verticalVel float64, env *Environment) SurfaceInfo {
	if verticalVel > 0 {
		return SurfaceInfo{Type: SurfaceNone}
	}

	if pos.Y <= surfaceTolerance {
		if env != nil && env.inWater(pos) {
			return SurfaceInfo{Type: SurfaceWater, Height: 0}
		}
		return SurfaceInfo{Type: SurfaceGround, Height: 0}
	}

	if env != nil {
		for _, bridge := range env.Bridges {
			deck := bridge.Position.Y + bridge.Height
			if math.Abs(pos.Y-deck) > surfaceTolerance {
				continue
			}
			if math.Abs(pos.X-bridge.Position.X) <= bridge.Width/2 &&
				math.Abs(pos.Z-bridge.Position.Z) <= bridge.Depth/2 {
				return SurfaceInfo{Type: SurfaceBridge, Height: deck}
			}
		}
		for _, body := range env.bodies {
			roof := body.top()
			if math.Abs(pos.Y-roof) > surfaceTolerance {
				continue
			}
			if body.containsFootprint(pos.X, pos.Z) {
				return SurfaceInfo{Type: SurfaceRooftop, Height: roof}
			}
		}
		if env.inWater(pos) {
			return SurfaceInfo{Type: SurfaceWater, Height: 0}
		}
	}

	return SurfaceInfo{Type: SurfaceNone}
}

// applyJumpImpulse sets vertical velocity to the role's jump impulse.
// Runners get the larger kick.
func applyJumpImpulse(vel Vec3, isOni bool) Vec3 {
	if isOni {
		vel.Y = oniJumpImpulse
	} else {
		vel.Y = runnerJumpImpulse
	}
	return vel
}

// applyJetpackForce adds the sustained upward force for one tick. The force
// constant exceeds gravity so holding the ability produces net lift.
func applyJetpackForce(vel Vec3, dt float64) Vec3 {
	vel.Y += jetpackForce * dt
	return vel
}

// clampVelocity caps horizontal magnitude and vertical speed independently.
func clampVelocity(vel Vec3) Vec3 {
	horizontal := vel.HorizontalLength()
	if horizontal > maxHorizontalSpeed {
		scale := maxHorizontalSpeed / horizontal
		vel.X *= scale
		vel.Z *= scale
	}
	vel.Y = clamp(vel.Y, -maxVerticalSpeed, maxVerticalSpeed)
	return vel
}

// applyFriction decays horizontal velocity exponentially.
func applyFriction(vel Vec3, rate, dt float64) Vec3 {
	factor := math.Exp(-rate * dt)
	vel.X *= factor
	vel.Z *= factor
	return vel
}
