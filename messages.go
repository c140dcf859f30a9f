package server

// JoinResponse is the first message a client receives. It carries the full
// world so the client can render before the first delta arrives.
type JoinResponse struct {
	Ver          int              `json:"ver"`
	ID           string           `json:"id"`
	RoundID      string           `json:"roundId"`
	Phase        RoundPhase       `json:"phase"`
	Participants []Participant    `json:"participants"`
	Buildings    []BuildingData   `json:"buildings"`
	Bridges      []BridgeData     `json:"bridges"`
	WaterAreas   []WaterArea      `json:"waterAreas"`
	Obstacles    []DynamicObstacle `json:"obstacles,omitempty"`
	Config       WorldConfig      `json:"config"`
}

// stateMessage is the periodic broadcast. Participants carries compressed
// deltas only; a participant absent from the slice had no reportable change.
type stateMessage struct {
	Ver          int                `json:"ver"`
	Type         string             `json:"type"`
	Participants []*CompressedState `json:"participants,omitempty"`
	Obstacles    []DynamicObstacle  `json:"obstacles,omitempty"`
	TagEvents    []TagEvent         `json:"tagEvents,omitempty"`
	Phase        RoundPhase         `json:"phase"`
	BeaconActive bool               `json:"beaconActive,omitempty"`
	Tick         uint64             `json:"t"`
	ServerTime   int64              `json:"serverTime"`
}

// ClientInput is one frame of decoded input from a client session.
type ClientInput struct {
	MoveX   float64
	MoveZ   float64
	Yaw     float64
	Pitch   float64
	Jump    bool
	Dash    bool
	Jetpack bool
	Beacon  bool
}

type DiagnosticsParticipant struct {
	Ver           int    `json:"ver"`
	ID            string `json:"id"`
	IsAI          bool   `json:"isAI"`
	LastHeartbeat int64  `json:"lastHeartbeat"`
	RTTMillis     int64  `json:"rttMillis"`
}

// DiagnosticsSnapshot is the payload served by the diagnostics endpoint.
type DiagnosticsSnapshot struct {
	Ver             int                      `json:"ver"`
	RoundID         string                   `json:"roundId"`
	Phase           RoundPhase               `json:"phase"`
	Tick            uint64                   `json:"tick"`
	Participants    []DiagnosticsParticipant `json:"participants"`
	Telemetry       TelemetrySnapshot        `json:"telemetry"`
	LoggingEvents   uint64                   `json:"loggingEvents"`
	LoggingDropped  uint64                   `json:"loggingDropped"`
	SubscriberCount int                      `json:"subscriberCount"`
	TagEventCount   int                      `json:"tagEventCount"`
}
