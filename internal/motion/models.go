package motion

import "time"

// Fix is one reported device position. SpeedKmh is the device-reported
// speed and may be zero/absent; the classifier prefers speed derived from
// the previous fix.
type Fix struct {
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	SpeedKmh   float64   `json:"speed_kmh,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

type State int

const (
	StateIdle State = iota
	StateWalking
	StateAccelerating
	StateInVehicle
	StateDecelerating
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWalking:
		return "walking"
	case StateAccelerating:
		return "accelerating"
	case StateInVehicle:
		return "in_vehicle"
	case StateDecelerating:
		return "decelerating"
	default:
		return "unknown"
	}
}

type EventKind string

const (
	EventBoarded  EventKind = "boarded"
	EventAlighted EventKind = "alighted"
)

// Event is emitted by the classifier when the rider boards or leaves a
// vehicle. Line is set only on boarding.
type Event struct {
	Kind EventKind `json:"kind"`
	Line string    `json:"line,omitempty"`
}

// Thresholds are the speed bands (km/h) of the state machine and the number
// of consecutive sub-WalkMax samples required to confirm an exit while in a
// vehicle.
type Thresholds struct {
	IdleMax     float64
	WalkMax     float64
	VehicleMin  float64
	VehicleMax  float64
	ExitSamples int
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		IdleMax:     5,
		WalkMax:     15,
		VehicleMin:  30,
		VehicleMax:  120,
		ExitSamples: 3,
	}
}
