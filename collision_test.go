package server

import (
	"math"
	"testing"
)

func TestResolveCollisionPushesOutOfBox(t *testing.T) {
	env := newTestEnvironment(t)

	// Just inside the tower's east face (half width 10).
	result := resolveCollision(env, Vec3{X: 10.2, Y: 1, Z: 0}, participantRadius)

	if !result.Collided {
		t.Fatalf("expected collision inside box footprint")
	}
	if result.Position.X < 10+participantRadius-1e-9 {
		t.Fatalf("still penetrating after push-out: x=%v", result.Position.X)
	}
	if isInsideBuilding(env, result.Position, participantRadius) {
		t.Fatalf("corrected position still inside a building")
	}
}

func TestResolveCollisionIgnoresBodiesAboveMover(t *testing.T) {
	env := newTestEnvironment(t)

	// Over the tower footprint but above its roof.
	result := resolveCollision(env, Vec3{X: 0, Y: 15, Z: 0}, participantRadius)

	if result.Collided {
		t.Fatalf("mover above the roof must not collide with the building")
	}
}

func TestResolveCollisionSkipsMoverOnRoof(t *testing.T) {
	env := newTestEnvironment(t)

	// Standing exactly on the top face (tower height 10) is walkable, not a
	// wall hit, even inside the footprint.
	result := resolveCollision(env, Vec3{X: 9.8, Y: 10, Z: 0}, participantRadius)
	if result.Collided {
		t.Fatalf("mover on the roof surface pushed laterally to %+v", result.Position)
	}

	// Just below the roof plane the body is solid again.
	result = resolveCollision(env, Vec3{X: 9.8, Y: 9.4, Z: 0}, participantRadius)
	if !result.Collided {
		t.Fatalf("mover inside the wall just under the roof did not collide")
	}
}

func TestResolveCollisionCylinder(t *testing.T) {
	env := newTestEnvironment(t)

	result := resolveCollision(env, Vec3{X: 102, Y: 1, Z: 0}, participantRadius)

	if !result.Collided {
		t.Fatalf("expected collision inside cylinder")
	}
	dx := result.Position.X - 100
	dz := result.Position.Z
	dist := math.Sqrt(dx*dx + dz*dz)
	want := 4 + participantRadius
	if dist < want-1e-9 {
		t.Fatalf("corrected distance %v, want at least %v", dist, want)
	}
}

func TestResolveCollisionDegenerateCenterOverlap(t *testing.T) {
	env := newTestEnvironment(t)

	// Exactly on the cylinder axis; the push normal must not be NaN.
	result := resolveCollision(env, Vec3{X: 100, Y: 1, Z: 0}, participantRadius)

	if !result.Collided {
		t.Fatalf("expected collision on the axis")
	}
	if math.IsNaN(result.Position.X) || math.IsNaN(result.Position.Z) {
		t.Fatalf("push-out produced NaN: %+v", result.Position)
	}
	if math.IsNaN(result.Normal.X) || math.IsNaN(result.Normal.Z) {
		t.Fatalf("push normal is NaN: %+v", result.Normal)
	}
}

func TestResolveDynamicCircleHeightGate(t *testing.T) {
	obstacle := DynamicObstacle{ID: "v1", Kind: DynamicVehicle, Position: Vec3{X: 0, Z: 0}, Radius: vehicleRadius}

	if _, _, hit := resolveDynamicCircle(Vec3{X: 0.5, Y: 0, Z: 0}, participantRadius, obstacle); !hit {
		t.Fatalf("expected ground-level overlap to collide")
	}
	if _, _, hit := resolveDynamicCircle(Vec3{X: 0.5, Y: dynamicHeightGate + 1, Z: 0}, participantRadius, obstacle); hit {
		t.Fatalf("mover above the height gate must pass over a vehicle")
	}
}

func TestApplySlidingMovementRemovesNormalComponent(t *testing.T) {
	normal := Vec3{X: 1}
	vel := applySlidingMovement(Vec3{X: -5, Z: 3}, normal)

	if vel.X != 0 {
		t.Fatalf("normal component survived: %v", vel.X)
	}
	if vel.Z != 3 {
		t.Fatalf("tangential component altered: %v", vel.Z)
	}
}

func TestApplySlidingMovementKeepsOutwardMotion(t *testing.T) {
	normal := Vec3{X: 1}
	vel := applySlidingMovement(Vec3{X: 4, Z: 1}, normal)

	if vel.X != 0 {
		t.Fatalf("projection should remove the full normal component, got %v", vel.X)
	}
}

func TestNearestSafePositionEscapesBuilding(t *testing.T) {
	env := newTestEnvironment(t)

	pos := nearestSafePosition(env, Vec3{X: 9, Y: 0, Z: 0}, participantRadius)

	if isInsideBuilding(env, pos, participantRadius) {
		t.Fatalf("escape left the mover inside a building at %+v", pos)
	}
}

func TestNearestSafePositionNoopWhenClear(t *testing.T) {
	env := newTestEnvironment(t)

	start := Vec3{X: 200, Y: 0, Z: -200}
	pos := nearestSafePosition(env, start, participantRadius)

	if pos != start {
		t.Fatalf("clear position moved from %+v to %+v", start, pos)
	}
}
