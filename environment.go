package server

import (
	"fmt"
	"math"
)

// BuildingShape tags the footprint primitive used for a building.
type BuildingShape string

const (
	ShapeBox      BuildingShape = "box"
	ShapeCylinder BuildingShape = "cylinder"
)

// BuildingData describes a static building as supplied by the environment
// collaborator. Position is the footprint centre at the building's base.
type BuildingData struct {
	ID       string        `json:"id"`
	Position Vec3          `json:"position"`
	Width    float64       `json:"width"`
	Height   float64       `json:"height"`
	Depth    float64       `json:"depth"`
	Shape    BuildingShape `json:"shape"`
}

// BridgeData describes a walkable deck. Position is the deck centre at the
// underside; the walking surface sits at Position.Y + Height.
type BridgeData struct {
	ID       string  `json:"id"`
	Position Vec3    `json:"position"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Depth    float64 `json:"depth"`
}

// WaterArea is an axis-aligned rectangle on the ground plane. X/Z are the
// minimum corner.
type WaterArea struct {
	X     float64 `json:"x"`
	Z     float64 `json:"z"`
	Width float64 `json:"width"`
	Depth float64 `json:"depth"`
}

func (w WaterArea) contains(x, z float64) bool {
	return x >= w.X && x <= w.X+w.Width && z >= w.Z && z <= w.Z+w.Depth
}

// DynamicKind distinguishes the moving obstacle classes.
type DynamicKind string

const (
	DynamicVehicle    DynamicKind = "vehicle"
	DynamicPedestrian DynamicKind = "pedestrian"
)

// DynamicObstacle is a moving collision body (vehicle or pedestrian).
type DynamicObstacle struct {
	ID       string      `json:"id"`
	Kind     DynamicKind `json:"kind"`
	Position Vec3        `json:"position"`
	Radius   float64     `json:"radius"`
}

// staticBody is the collision-side view of a building. The string-tagged
// BuildingData is converted once at registration; each variant carries only
// the fields its test needs.
type staticBody interface {
	// resolveCircle pushes a circular mover out of the body, returning the
	// corrected position, the push normal, and whether contact occurred.
	resolveCircle(pos Vec3, radius float64) (Vec3, Vec3, bool)
	// containsFootprint reports whether (x,z) lies over the body.
	containsFootprint(x, z float64) bool
	top() float64
	base() float64
	centre() (float64, float64)
}

// Environment holds the static geometry for the round plus the live dynamic
// obstacle set. Static members are immutable once registered.
type Environment struct {
	Buildings []BuildingData
	Bridges   []BridgeData
	Water     []WaterArea

	bodies  []staticBody
	dynamic []DynamicObstacle
}

// NewEnvironment converts the raw geometry into collision bodies. Unknown
// building shapes are rejected so a malformed round fails before it starts.
func NewEnvironment(buildings []BuildingData, bridges []BridgeData, water []WaterArea) (*Environment, error) {
	env := &Environment{
		Buildings: append([]BuildingData(nil), buildings...),
		Bridges:   append([]BridgeData(nil), bridges...),
		Water:     append([]WaterArea(nil), water...),
		bodies:    make([]staticBody, 0, len(buildings)),
	}
	for _, b := range buildings {
		switch b.Shape {
		case ShapeBox:
			env.bodies = append(env.bodies, boxBody{
				cx:    b.Position.X,
				cz:    b.Position.Z,
				halfW: b.Width / 2,
				halfD: b.Depth / 2,
				baseY: b.Position.Y,
				topY:  b.Position.Y + b.Height,
			})
		case ShapeCylinder:
			env.bodies = append(env.bodies, cylinderBody{
				cx:     b.Position.X,
				cz:     b.Position.Z,
				radius: b.Width / 2,
				baseY:  b.Position.Y,
				topY:   b.Position.Y + b.Height,
			})
		default:
			return nil, fmt.Errorf("building %q has unknown shape %q", b.ID, b.Shape)
		}
	}
	return env, nil
}

// SetDynamicObstacles replaces the live vehicle/pedestrian set for the tick.
func (e *Environment) SetDynamicObstacles(obstacles []DynamicObstacle) {
	e.dynamic = obstacles
}

// DynamicObstacles returns the current dynamic obstacle set.
func (e *Environment) DynamicObstacles() []DynamicObstacle {
	return e.dynamic
}

// inWater reports whether the position falls inside a registered water
// rectangle at swimming depth.
func (e *Environment) inWater(pos Vec3) bool {
	if pos.Y >= waterSurfaceHeight {
		return false
	}
	for _, area := range e.Water {
		if area.contains(pos.X, pos.Z) {
			return true
		}
	}
	return false
}

type boxBody struct {
	cx, cz       float64
	halfW, halfD float64
	baseY, topY  float64
}

func (b boxBody) containsFootprint(x, z float64) bool {
	return x >= b.cx-b.halfW && x <= b.cx+b.halfW && z >= b.cz-b.halfD && z <= b.cz+b.halfD
}

func (b boxBody) top() float64               { return b.topY }
func (b boxBody) base() float64              { return b.baseY }
func (b boxBody) centre() (float64, float64) { return b.cx, b.cz }

func (b boxBody) resolveCircle(pos Vec3, radius float64) (Vec3, Vec3, bool) {
	// The top face is walkable: a mover snapped onto the roof sits at
	// exactly topY and must not be pushed out through the walls.
	if pos.Y < b.baseY || pos.Y >= b.topY {
		return pos, Vec3{}, false
	}
	closestX := clamp(pos.X, b.cx-b.halfW, b.cx+b.halfW)
	closestZ := clamp(pos.Z, b.cz-b.halfD, b.cz+b.halfD)
	dx := pos.X - closestX
	dz := pos.Z - closestZ
	distSq := dx*dx + dz*dz
	if distSq >= radius*radius {
		return pos, Vec3{}, false
	}
	normal := pushOutNormal(dx, dz, distSq)
	pos.X = closestX + normal.X*radius
	pos.Z = closestZ + normal.Z*radius
	return pos, normal, true
}

type cylinderBody struct {
	cx, cz      float64
	radius      float64
	baseY, topY float64
}

func (c cylinderBody) containsFootprint(x, z float64) bool {
	dx := x - c.cx
	dz := z - c.cz
	return dx*dx+dz*dz <= c.radius*c.radius
}

func (c cylinderBody) top() float64               { return c.topY }
func (c cylinderBody) base() float64              { return c.baseY }
func (c cylinderBody) centre() (float64, float64) { return c.cx, c.cz }

func (c cylinderBody) resolveCircle(pos Vec3, radius float64) (Vec3, Vec3, bool) {
	if pos.Y < c.baseY || pos.Y >= c.topY {
		return pos, Vec3{}, false
	}
	dx := pos.X - c.cx
	dz := pos.Z - c.cz
	distSq := dx*dx + dz*dz
	combined := c.radius + radius
	if distSq >= combined*combined {
		return pos, Vec3{}, false
	}
	normal := pushOutNormal(dx, dz, distSq)
	pos.X = c.cx + normal.X*combined
	pos.Z = c.cz + normal.Z*combined
	return pos, normal, true
}

// pushOutNormal normalises the planar displacement, substituting a fixed unit
// normal when the mover sits exactly on the body axis so callers never see
// NaN.
func pushOutNormal(dx, dz, distSq float64) Vec3 {
	if distSq == 0 {
		return Vec3{X: 1}
	}
	dist := math.Sqrt(distSq)
	return Vec3{X: dx / dist, Z: dz / dist}
}
