package server

import (
	"fmt"
	"math"
	"math/rand"
)

const (
	trafficVehicleCount    = 6
	trafficPedestrianCount = 10
	trafficLaneOffset      = 6.0
	pedestrianTurnChance   = 0.02
)

// trafficMover is one patrolling obstacle. Vehicles run straight lanes and
// flip direction at the world edge; pedestrians wander and occasionally pick
// a new heading.
type trafficMover struct {
	obstacle DynamicObstacle
	heading  float64
	speed    float64
}

// trafficController animates ambient city traffic and republishes the
// obstacle set into the environment every tick. It never consults
// participant state, so the simulation stays deterministic for a given
// seed regardless of who is connected.
type trafficController struct {
	env    *Environment
	rng    *rand.Rand
	movers []*trafficMover
}

func newTrafficController(env *Environment, rng *rand.Rand) *trafficController {
	tc := &trafficController{env: env, rng: rng}

	for i := 0; i < trafficVehicleCount; i++ {
		lane := trafficLaneOffset * float64(i+1)
		if i%2 == 1 {
			lane = -lane
		}
		heading := 0.0
		if i%2 == 1 {
			heading = math.Pi
		}
		tc.movers = append(tc.movers, &trafficMover{
			obstacle: DynamicObstacle{
				ID:       fmt.Sprintf("vehicle-%d", i+1),
				Kind:     DynamicVehicle,
				Position: Vec3{X: tc.randomCoord(), Z: lane},
				Radius:   vehicleRadius,
			},
			heading: heading,
			speed:   vehicleSpeed,
		})
	}
	for i := 0; i < trafficPedestrianCount; i++ {
		tc.movers = append(tc.movers, &trafficMover{
			obstacle: DynamicObstacle{
				ID:       fmt.Sprintf("pedestrian-%d", i+1),
				Kind:     DynamicPedestrian,
				Position: Vec3{X: tc.randomCoord(), Z: tc.randomCoord()},
				Radius:   pedestrianRadius,
			},
			heading: tc.randFloat() * 2 * math.Pi,
			speed:   pedestrianSpeed,
		})
	}

	tc.publish()
	return tc
}

func (tc *trafficController) randomCoord() float64 {
	return (tc.randFloat()*2 - 1) * spawnSafeRadius * 2
}

func (tc *trafficController) randFloat() float64 {
	if tc.rng == nil {
		return 0.5
	}
	return tc.rng.Float64()
}

func (tc *trafficController) advance(dt float64) {
	for _, m := range tc.movers {
		m.obstacle.Position.X += math.Cos(m.heading) * m.speed * dt
		m.obstacle.Position.Z += math.Sin(m.heading) * m.speed * dt

		switch m.obstacle.Kind {
		case DynamicVehicle:
			// Lanes run along X; bounce at the world edge.
			if m.obstacle.Position.X > worldExtent || m.obstacle.Position.X < -worldExtent {
				m.obstacle.Position.X = clamp(m.obstacle.Position.X, -worldExtent, worldExtent)
				m.heading = math.Mod(m.heading+math.Pi, 2*math.Pi)
			}
		case DynamicPedestrian:
			if tc.randFloat() < pedestrianTurnChance {
				m.heading = tc.randFloat() * 2 * math.Pi
			}
			if m.obstacle.Position.X > worldExtent || m.obstacle.Position.X < -worldExtent ||
				m.obstacle.Position.Z > worldExtent || m.obstacle.Position.Z < -worldExtent {
				m.obstacle.Position.X = clamp(m.obstacle.Position.X, -worldExtent, worldExtent)
				m.obstacle.Position.Z = clamp(m.obstacle.Position.Z, -worldExtent, worldExtent)
				m.heading = math.Mod(m.heading+math.Pi, 2*math.Pi)
			}
		}
	}
	tc.publish()
}

func (tc *trafficController) publish() {
	obstacles := make([]DynamicObstacle, 0, len(tc.movers))
	for _, m := range tc.movers {
		obstacles = append(obstacles, m.obstacle)
	}
	tc.env.SetDynamicObstacles(obstacles)
}
