package server

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"
)

type telemetryCounters struct {
	bytesSent             atomic.Uint64
	statesSent            atomic.Uint64
	statesSuppressed      atomic.Uint64
	tagEventsSent         atomic.Uint64
	tickDurationMillis    atomic.Int64
	lastBroadcastBytes    atomic.Uint64
	lastBroadcastEntities atomic.Uint64
	debug                 bool
}

type TelemetrySnapshot struct {
	BytesSent        uint64 `json:"bytesSent"`
	StatesSent       uint64 `json:"statesSent"`
	StatesSuppressed uint64 `json:"statesSuppressed"`
	TagEventsSent    uint64 `json:"tagEventsSent"`
	TickDuration     int64  `json:"tickDurationMillis"`
}

func newTelemetryCounters() *telemetryCounters {
	t := &telemetryCounters{}
	if os.Getenv("DEBUG_TELEMETRY") == "1" {
		t.debug = true
	}
	return t
}

// RecordBroadcast tracks one delta broadcast: how many participant payloads
// went on the wire and how many were suppressed by the compressor.
func (t *telemetryCounters) RecordBroadcast(bytes, sent, suppressed int) {
	if bytes < 0 {
		bytes = 0
	}
	if sent < 0 {
		sent = 0
	}
	if suppressed < 0 {
		suppressed = 0
	}
	t.bytesSent.Add(uint64(bytes))
	t.statesSent.Add(uint64(sent))
	t.statesSuppressed.Add(uint64(suppressed))
	t.lastBroadcastBytes.Store(uint64(bytes))
	t.lastBroadcastEntities.Store(uint64(sent))
}

func (t *telemetryCounters) RecordTagEvents(count int) {
	if count <= 0 {
		return
	}
	t.tagEventsSent.Add(uint64(count))
}

func (t *telemetryCounters) RecordTickDuration(duration time.Duration) {
	millis := duration.Milliseconds()
	if millis < 0 {
		millis = 0
	}
	t.tickDurationMillis.Store(millis)
	if t.debug {
		fmt.Printf(
			"[telemetry] tick=%dms bytes=%d totalBytes=%d states=%d suppressed=%d\n",
			millis,
			t.lastBroadcastBytes.Load(),
			t.bytesSent.Load(),
			t.statesSent.Load(),
			t.statesSuppressed.Load(),
		)
	}
}

func (t *telemetryCounters) Snapshot() TelemetrySnapshot {
	return TelemetrySnapshot{
		BytesSent:        t.bytesSent.Load(),
		StatesSent:       t.statesSent.Load(),
		StatesSuppressed: t.statesSuppressed.Load(),
		TagEventsSent:    t.tagEventsSent.Load(),
		TickDuration:     t.tickDurationMillis.Load(),
	}
}
