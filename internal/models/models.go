package models

import "time"

// Vec3 is a point in simulator space: X lateral, Y altitude, Z forward.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// DroneState is the single shared state of the simulated drone. Position and
// heading are authoritative; roll/pitch carry only the cosmetic wobble tilt
// for the renderer.
type DroneState struct {
	Position Vec3    `json:"position"`
	Heading  float64 `json:"heading_rad"` // yaw, wrapped to [0, 2*pi)
	Armed    bool    `json:"armed"`
	Throttle float64 `json:"throttle"` // normalized [0,1], cosmetic
	Crashed  bool    `json:"crashed"`
	Roll     float64 `json:"roll_rad"`
	Pitch    float64 `json:"pitch_rad"`
}

// Variant selects the airframe type. Wings are mandatory only for fixed-wing.
type Variant string

const (
	VariantQuad      Variant = "quad"
	VariantFixedWing Variant = "fixed_wing"
)

// Part is one installable component in the build registry.
type Part struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Installed   bool    `json:"installed"`
	WeightGrams float64 `json:"weight_grams"`
	ThrustGrams float64 `json:"thrust_grams,omitempty"`
}

// BuildSummary is derived from the registry on demand, never stored.
type BuildSummary struct {
	Variant          Variant  `json:"variant"`
	TotalWeightGrams float64  `json:"total_weight_grams"`
	MaxThrustGrams   float64  `json:"max_thrust_grams"`
	TWR              float64  `json:"twr"`
	IsFullyBuilt     bool     `json:"is_fully_built"`
	CanFly           bool     `json:"can_fly"`
	MissingParts     []string `json:"missing_parts,omitempty"`
}

// Environment holds the session-scoped, user-adjustable flavoring inputs.
type Environment struct {
	WindX float64 `json:"wind_x"` // m/s, clamped to [-5,5]
	WindZ float64 `json:"wind_z"` // m/s, clamped to [-5,5]
	PGain float64 `json:"p_gain"` // clamped to [0.1,2.5], 1.0 nominal
}

// Mission is the active mission mode.
type Mission string

const (
	MissionFreeFlight    Mission = "free_flight"
	MissionHoopChallenge Mission = "hoop_challenge"
)

// InterpreterState is the script interpreter's run state.
type InterpreterState string

const (
	InterpreterIdle    InterpreterState = "idle"
	InterpreterRunning InterpreterState = "running"
	InterpreterStopped InterpreterState = "stopped"
)

// Telemetry is the display read model; recomputed per request, not
// authoritative state.
type Telemetry struct {
	Armed              bool    `json:"armed"`
	AltitudeM          float64 `json:"altitude_m"`
	HeadingDeg         float64 `json:"heading_deg"` // [0,360)
	Voltage            float64 `json:"voltage"`
	ThrottlePct        float64 `json:"throttle_pct"`
	WindDriftMagnitude float64 `json:"wind_drift_magnitude"`
	Crashed            bool    `json:"crashed"`
	Mission            Mission `json:"mission"`
}

// LogEntry is one line of the append-only flight log.
type LogEntry struct {
	Seq  int       `json:"seq"`
	At   time.Time `json:"at"`
	Text string    `json:"text"`
}

// SessionState is the full state snapshot served to the frontend.
type SessionState struct {
	Drone       DroneState       `json:"drone"`
	Environment Environment      `json:"environment"`
	Mission     Mission          `json:"mission"`
	Interpreter InterpreterState `json:"interpreter"`
	Build       BuildSummary     `json:"build"`
	Tick        int              `json:"tick"`
	TickRunning bool             `json:"tick_running"`
}
