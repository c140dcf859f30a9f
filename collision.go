package server

import "math"

// CollisionResult reports where a proposed move ended up after push-out.
// Normal is the last contact normal seen and is only meaningful when
// Collided is true; when several bodies overlap at once the tie-break is
// deliberately unspecified and callers re-run collision after sliding.
type CollisionResult struct {
	Position Vec3
	Collided bool
	Normal   Vec3
}

// resolveCollision pushes a circular mover out of every penetrated static
// building and dynamic obstacle. Bodies resolve sequentially: the corrected
// position from one check feeds the next.
func resolveCollision(env *Environment, proposed Vec3, radius float64) CollisionResult {
	result := CollisionResult{Position: proposed}
	if env == nil {
		return result
	}

	for _, body := range env.bodies {
		corrected, normal, hit := body.resolveCircle(result.Position, radius)
		if hit {
			result.Position = corrected
			result.Normal = normal
			result.Collided = true
		}
	}

	for _, obstacle := range env.dynamic {
		corrected, normal, hit := resolveDynamicCircle(result.Position, radius, obstacle)
		if hit {
			result.Position = corrected
			result.Normal = normal
			result.Collided = true
		}
	}

	return result
}

// resolveDynamicCircle applies the circular push-out against a vehicle or
// pedestrian. Airborne movers pass over ground traffic: the test is skipped
// when the height delta exceeds the gate.
func resolveDynamicCircle(pos Vec3, radius float64, obstacle DynamicObstacle) (Vec3, Vec3, bool) {
	if math.Abs(pos.Y-obstacle.Position.Y) > dynamicHeightGate {
		return pos, Vec3{}, false
	}
	dx := pos.X - obstacle.Position.X
	dz := pos.Z - obstacle.Position.Z
	distSq := dx*dx + dz*dz
	combined := obstacle.Radius + radius
	if distSq >= combined*combined {
		return pos, Vec3{}, false
	}
	normal := pushOutNormal(dx, dz, distSq)
	pos.X = obstacle.Position.X + normal.X*combined
	pos.Z = obstacle.Position.Z + normal.Z*combined
	return pos, normal, true
}

// applySlidingMovement removes the velocity component parallel to the
// surface normal, leaving tangential motion intact.
func applySlidingMovement(vel, normal Vec3) Vec3 {
	return vel.Sub(normal.Scale(vel.Dot(normal)))
}

// isInsideBuilding reports whether the position penetrates any building at
// its height.
func isInsideBuilding(env *Environment, pos Vec3, radius float64) bool {
	if env == nil {
		return false
	}
	for _, body := range env.bodies {
		if _, _, hit := body.resolveCircle(pos, radius); hit {
			return true
		}
	}
	return false
}

// nearestSafePosition walks a stuck mover radially away from the nearest
// offending building with a bounded repulsion loop. Used for spawn placement
// and AI stuck-recovery, not per-tick movement.
func nearestSafePosition(env *Environment, pos Vec3, radius float64) Vec3 {
	if env == nil {
		return pos
	}
	for i := 0; i < spawnEscapeMax; i++ {
		offending, found := nearestOffendingBody(env, pos, radius)
		if !found {
			return pos
		}
		cx, cz := offending.centre()
		dx := pos.X - cx
		dz := pos.Z - cz
		dir := pushOutNormal(dx, dz, dx*dx+dz*dz)
		step := radius * 2
		pos.X = clamp(pos.X+dir.X*step, -worldExtent, worldExtent)
		pos.Z = clamp(pos.Z+dir.Z*step, -worldExtent, worldExtent)
	}
	return pos
}

func nearestOffendingBody(env *Environment, pos Vec3, radius float64) (staticBody, bool) {
	var nearest staticBody
	nearestDistSq := math.MaxFloat64
	for _, body := range env.bodies {
		if _, _, hit := body.resolveCircle(pos, radius); !hit {
			continue
		}
		cx, cz := body.centre()
		dx := pos.X - cx
		dz := pos.Z - cz
		distSq := dx*dx + dz*dz
		if distSq < nearestDistSq {
			nearestDistSq = distSq
			nearest = body
		}
	}
	return nearest, nearest != nil
}
