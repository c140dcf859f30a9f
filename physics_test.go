package server

import (
	"math"
	"testing"
)

func newTestEnvironment(t *testing.T) *Environment {
	t.Helper()
	env, err := NewEnvironment(
		[]BuildingData{
			{ID: "tower", Position: Vec3{X: 0, Z: 0}, Width: 20, Height: 10, Depth: 20, Shape: ShapeBox},
			{ID: "silo", Position: Vec3{X: 100, Z: 0}, Width: 8, Height: 18, Depth: 8, Shape: ShapeCylinder},
		},
		[]BridgeData{
			{ID: "walkway", Position: Vec3{X: 50, Y: 7, Z: 0}, Width: 30, Height: 1, Depth: 4},
		},
		[]WaterArea{
			{X: -300, Z: 200, Width: 200, Depth: 100},
		},
	)
	if err != nil {
		t.Fatalf("NewEnvironment returned error: %v", err)
	}
	return env
}

func TestIntegrateMotionLandsOnRooftop(t *testing.T) {
	env := newTestEnvironment(t)

	pos := Vec3{X: 0, Y: 10.5, Z: 0}
	vel := Vec3{Y: -3}

	pos, vel, surface := integrateMotion(pos, vel, 0.2, false, env)

	if surface.Type != SurfaceRooftop {
		t.Fatalf("expected rooftop surface, got %q", surface.Type)
	}
	if pos.Y != 10 {
		t.Fatalf("expected snap to roof height 10, got %v", pos.Y)
	}
	if vel.Y != 0 {
		t.Fatalf("expected vertical velocity zeroed on landing, got %v", vel.Y)
	}
}

func TestIntegrateMotionNoLandingWhileRising(t *testing.T) {
	env := newTestEnvironment(t)

	pos := Vec3{X: 0, Y: 10.2, Z: 0}
	vel := Vec3{Y: 5}

	_, _, surface := integrateMotion(pos, vel, 1.0/15, false, env)

	if surface.OnSurface() {
		t.Fatalf("rising mover must not land, classified as %q", surface.Type)
	}
}

func TestIntegrateMotionSnapIsIdempotent(t *testing.T) {
	env := newTestEnvironment(t)

	pos := Vec3{X: 0, Y: 10, Z: 0}
	vel := Vec3{}

	for i := 0; i < 30; i++ {
		var surface SurfaceInfo
		pos, vel, surface = integrateMotion(pos, vel, 1.0/15, false, env)
		if surface.Type != SurfaceRooftop {
			t.Fatalf("tick %d: expected rooftop, got %q", i, surface.Type)
		}
		if pos.Y != 10 {
			t.Fatalf("tick %d: resting position drifted to %v", i, pos.Y)
		}
	}
}

func TestIntegrateMotionGroundBeatsEverything(t *testing.T) {
	env := newTestEnvironment(t)

	pos := Vec3{X: 200, Y: 0.3, Z: 200}
	_, _, surface := integrateMotion(pos, Vec3{Y: -1}, 1.0/15, false, env)

	if surface.Type != SurfaceGround {
		t.Fatalf("expected ground, got %q", surface.Type)
	}
	if surface.Height != 0 {
		t.Fatalf("ground height must be 0, got %v", surface.Height)
	}
}

func TestIntegrateMotionBridgeLanding(t *testing.T) {
	env := newTestEnvironment(t)

	// Deck top sits at 7 + 1 = 8.
	pos := Vec3{X: 50, Y: 8.3, Z: 0}
	pos, vel, surface := integrateMotion(pos, Vec3{Y: -1}, 1.0/15, false, env)

	if surface.Type != SurfaceBridge {
		t.Fatalf("expected bridge, got %q", surface.Type)
	}
	if pos.Y != 8 || vel.Y != 0 {
		t.Fatalf("expected snap to deck at 8 with zeroed fall, got y=%v vy=%v", pos.Y, vel.Y)
	}
}

func TestIntegrateMotionWaterDrag(t *testing.T) {
	env := newTestEnvironment(t)

	pos := Vec3{X: -250, Y: 1, Z: 250}
	vel := Vec3{X: 10, Z: 5}

	_, vel, surface := integrateMotion(pos, vel, 1.0/15, false, env)

	if surface.Type != SurfaceWater {
		t.Fatalf("expected water surface, got %q", surface.Type)
	}
	// Water halves horizontal velocity, exactly.
	if vel.X != 5 || vel.Z != 2.5 {
		t.Fatalf("water drag should halve horizontal velocity, got vx=%v vz=%v", vel.X, vel.Z)
	}
	if vel.Y >= 0 {
		t.Fatalf("sinking velocity should stay negative, got %v", vel.Y)
	}
}

func TestIntegrateMotionWaterDoesNotSnap(t *testing.T) {
	env := newTestEnvironment(t)

	pos := Vec3{X: -250, Y: 1.5, Z: 250}
	next, _, surface := integrateMotion(pos, Vec3{Y: -0.5}, 1.0/15, false, env)

	if surface.Type != SurfaceWater {
		t.Fatalf("expected water surface, got %q", surface.Type)
	}
	if next.Y == surface.Height && pos.Y != surface.Height {
		t.Fatalf("water must not snap the mover to a height")
	}
}

func TestIntegrateMotionClampsToWorldBounds(t *testing.T) {
	pos := Vec3{X: worldExtent - 1, Y: 5, Z: -worldExtent + 1}
	vel := Vec3{X: 30, Z: -30}

	pos, _, _ = integrateMotion(pos, vel, 1.0, false, nil)

	if pos.X != worldExtent {
		t.Fatalf("expected x clamped to %v, got %v", worldExtent, pos.X)
	}
	if pos.Z != -worldExtent {
		t.Fatalf("expected z clamped to %v, got %v", -worldExtent, pos.Z)
	}
}

func TestIntegrateMotionFloorsAtGroundLevel(t *testing.T) {
	pos := Vec3{Y: 0.1}
	vel := Vec3{Y: -50}

	pos, _, _ = integrateMotion(pos, vel, 1.0/15, false, nil)

	if pos.Y < 0 {
		t.Fatalf("position fell below ground: %v", pos.Y)
	}
}

func TestJetpackSuppressesGravity(t *testing.T) {
	vel := Vec3{Y: 0}
	vel = applyJetpackForce(vel, 1.0/15)
	_, after, _ := integrateMotion(Vec3{Y: 20}, vel, 1.0/15, true, nil)

	if after.Y != vel.Y {
		t.Fatalf("gravity applied while jetpacking: before=%v after=%v", vel.Y, after.Y)
	}
	if jetpackForce <= gravityAccel {
		t.Fatalf("jetpack force %v must exceed gravity %v for net lift", jetpackForce, gravityAccel)
	}
}

func TestApplyJumpImpulseByRole(t *testing.T) {
	runner := applyJumpImpulse(Vec3{}, false)
	oni := applyJumpImpulse(Vec3{}, true)

	if runner.Y != runnerJumpImpulse {
		t.Fatalf("runner jump = %v, want %v", runner.Y, runnerJumpImpulse)
	}
	if oni.Y != oniJumpImpulse {
		t.Fatalf("oni jump = %v, want %v", oni.Y, oniJumpImpulse)
	}
	if oni.Y >= runner.Y {
		t.Fatalf("oni jump must be weaker than runner jump")
	}
}

func TestClampVelocityPreservesDirection(t *testing.T) {
	vel := clampVelocity(Vec3{X: 60, Y: -80, Z: 80})

	if got := vel.HorizontalLength(); math.Abs(got-maxHorizontalSpeed) > 1e-9 {
		t.Fatalf("horizontal magnitude = %v, want %v", got, maxHorizontalSpeed)
	}
	if vel.X <= 0 || vel.Z <= 0 {
		t.Fatalf("horizontal direction flipped: %+v", vel)
	}
	if vel.Y != -maxVerticalSpeed {
		t.Fatalf("vertical speed = %v, want %v", vel.Y, -maxVerticalSpeed)
	}
}

func TestApplyFrictionDecaysHorizontalOnly(t *testing.T) {
	vel := applyFriction(Vec3{X: 10, Y: -3, Z: -10}, groundFrictionRate, 1.0/15)

	if math.Abs(vel.X) >= 10 || math.Abs(vel.Z) >= 10 {
		t.Fatalf("friction did not decay horizontal velocity: %+v", vel)
	}
	if vel.Y != -3 {
		t.Fatalf("friction must not touch vertical velocity, got %v", vel.Y)
	}
}
