package server

import "math"

// Field thresholds for delta compression. A field is only worth sending
// when it moved further than the client could perceive.
const (
	positionThreshold = 0.01
	velocityThreshold = 0.01
	rotationThreshold = 0.01
	fuelThreshold     = 0.01
)

// Flag bits for the packed boolean mask.
const (
	flagOni uint8 = 1 << iota
	flagDashing
	flagJetpacking
	flagOnSurface
	flagTagged
)

// CompressedState is the minimal wire payload for one participant. Absent
// fields mean "unchanged since the last transmitted state".
type CompressedState struct {
	ID             string    `json:"id"`
	Position       *Vec3     `json:"p,omitempty"`
	Velocity       *Vec3     `json:"v,omitempty"`
	Rotation       *Rotation `json:"r,omitempty"`
	Fuel           *float64  `json:"f,omitempty"`
	Flags          *uint8    `json:"flags,omitempty"`
	BeaconCooldown *float64  `json:"bc,omitempty"`
	SurvivedTime   *float64  `json:"st,omitempty"`
}

// StateCompressor diffs candidate states against the last state actually
// transmitted per participant, not the last state computed, so small drifts
// accumulate against the baseline until they cross a threshold. The zero
// value is not usable; construct with newStateCompressor. Callers serialise
// access (the hub holds its mutex across a broadcast).
type StateCompressor struct {
	transmitted map[string]Participant
}

func newStateCompressor() *StateCompressor {
	return &StateCompressor{transmitted: make(map[string]Participant)}
}

// Compress returns the delta payload for a participant, or nil when nothing
// crossed a threshold; the caller must skip transmission entirely in that
// case. A participant never seen before produces a full payload. The
// baseline advances per field: a field omitted from the payload was never
// transmitted, so its baseline stays put and its drift keeps accumulating
// even while other fields force sends.
func (c *StateCompressor) Compress(id string, state Participant) *CompressedState {
	baseline, seen := c.transmitted[id]

	payload := &CompressedState{ID: id}
	changed := !seen

	if !seen || vecDelta(state.Position, baseline.Position) > positionThreshold {
		pos := state.Position
		payload.Position = &pos
		baseline.Position = state.Position
		changed = true
	}
	if !seen || vecDelta(state.Velocity, baseline.Velocity) > velocityThreshold {
		vel := state.Velocity
		payload.Velocity = &vel
		baseline.Velocity = state.Velocity
		changed = true
	}
	if !seen || rotationDelta(state.Rotation, baseline.Rotation) > rotationThreshold {
		rot := state.Rotation
		payload.Rotation = &rot
		baseline.Rotation = state.Rotation
		changed = true
	}
	if !seen || math.Abs(state.Fuel-baseline.Fuel) > fuelThreshold {
		fuel := state.Fuel
		payload.Fuel = &fuel
		baseline.Fuel = state.Fuel
		changed = true
	}
	flags := packFlags(state)
	if !seen || flags != packFlags(baseline) {
		payload.Flags = &flags
		baseline.IsOni = state.IsOni
		baseline.IsDashing = state.IsDashing
		baseline.IsJetpacking = state.IsJetpacking
		baseline.IsOnSurface = state.IsOnSurface
		baseline.WasTagged = state.WasTagged
		changed = true
	}

	if !changed {
		return nil
	}

	// Low-frequency, high-importance fields ride along unthresholded on
	// every payload that goes out.
	bc := state.BeaconCooldown
	st := state.SurvivedTime
	payload.BeaconCooldown = &bc
	payload.SurvivedTime = &st
	baseline.BeaconCooldown = state.BeaconCooldown
	baseline.SurvivedTime = state.SurvivedTime

	baseline.ID = state.ID
	c.transmitted[id] = baseline
	return payload
}

// Forget drops the baseline for a departed participant.
func (c *StateCompressor) Forget(id string) {
	delete(c.transmitted, id)
}

// DecompressState overlays the fields present in a partial payload onto the
// last known full state. Fields absent in a long run of partials keep their
// last known value; there is no extrapolation.
func DecompressState(partial *CompressedState, previous Participant) Participant {
	state := previous
	if partial == nil {
		return state
	}
	if partial.ID != "" {
		state.ID = partial.ID
	}
	if partial.Position != nil {
		state.Position = *partial.Position
	}
	if partial.Velocity != nil {
		state.Velocity = *partial.Velocity
	}
	if partial.Rotation != nil {
		state.Rotation = *partial.Rotation
	}
	if partial.Fuel != nil {
		state.Fuel = *partial.Fuel
	}
	if partial.Flags != nil {
		state.IsOni = *partial.Flags&flagOni != 0
		state.IsDashing = *partial.Flags&flagDashing != 0
		state.IsJetpacking = *partial.Flags&flagJetpacking != 0
		state.IsOnSurface = *partial.Flags&flagOnSurface != 0
		state.WasTagged = *partial.Flags&flagTagged != 0
	}
	if partial.BeaconCooldown != nil {
		state.BeaconCooldown = *partial.BeaconCooldown
	}
	if partial.SurvivedTime != nil {
		state.SurvivedTime = *partial.SurvivedTime
	}
	return state
}

func packFlags(state Participant) uint8 {
	var flags uint8
	if state.IsOni {
		flags |= flagOni
	}
	if state.IsDashing {
		flags |= flagDashing
	}
	if state.IsJetpacking {
		flags |= flagJetpacking
	}
	if state.IsOnSurface {
		flags |= flagOnSurface
	}
	if state.WasTagged {
		flags |= flagTagged
	}
	return flags
}

func vecDelta(a, b Vec3) float64 {
	return math.Max(math.Abs(a.X-b.X), math.Max(math.Abs(a.Y-b.Y), math.Abs(a.Z-b.Z)))
}

func rotationDelta(a, b Rotation) float64 {
	return math.Max(math.Abs(a.Yaw-b.Yaw), math.Abs(a.Pitch-b.Pitch))
}
