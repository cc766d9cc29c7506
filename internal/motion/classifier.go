// Package motion turns a stream of noisy position fixes into
// high-confidence boarded/alighted events. One Classifier instance per
// rider; there is no package-level state.
package motion

import (
	"time"

	"github.com/RyujiTanaka899/train-chat-app/internal/shared/geo"
)

const (
	// Speeds above this are treated as fix-jump artifacts.
	artifactKmh = 200
	// Substituted for artifacts: midpoint of the plausible 40-80 km/h
	// vehicle band, deterministic so runs are reproducible.
	artifactSubstituteKmh = 60
)

// LineResolver reports the transit line covering a coordinate, if any.
type LineResolver interface {
	Resolve(lat, lng float64) (string, bool)
}

// Classifier is the per-rider motion state machine. Not safe for concurrent
// use; a rider's fixes form a single logical stream.
type Classifier struct {
	resolver LineResolver
	th       Thresholds

	state            State
	line             string
	lowSpeedSamples  int
	prev             *Fix
	lastSpeedKmh     float64
	lastTransitionAt time.Time
}

func New(resolver LineResolver, th Thresholds) *Classifier {
	if th.ExitSamples <= 0 {
		th = DefaultThresholds()
	}
	return &Classifier{resolver: resolver, th: th, state: StateIdle}
}

func (c *Classifier) State() State   { return c.state }
func (c *Classifier) Line() string   { return c.line }
func (c *Classifier) Speed() float64 { return c.lastSpeedKmh }

// LastTransitionAt reports when the state last changed; zero before the
// first transition.
func (c *Classifier) LastTransitionAt() time.Time { return c.lastTransitionAt }

// Observe consumes one fix and returns the classification events it
// produced, if any. Never blocks; sensor artifacts and unresolvable lines
// are absorbed, not surfaced.
func (c *Classifier) Observe(fix Fix) []Event {
	speed, hadPrev, ok := c.speedFor(fix)
	if !ok {
		// Zero elapsed time between fixes: carry the previous state
		// forward, no transition.
		return nil
	}
	prevSpeed := c.lastSpeedKmh
	c.lastSpeedKmh = speed
	c.prev = &fix

	if c.state == StateInVehicle {
		return c.observeInVehicle(speed, fix.RecordedAt)
	}

	// A vehicle-range speed alone is not enough to board: the speed must
	// come from a real delta and the position must resolve to a line.
	if hadPrev && speed >= c.th.VehicleMin && speed <= c.th.VehicleMax {
		if label, found := c.resolver.Resolve(fix.Lat, fix.Lng); found {
			c.transition(StateInVehicle, fix.RecordedAt)
			c.line = label
			c.lowSpeedSamples = 0
			return []Event{{Kind: EventBoarded, Line: label}}
		}
	}

	c.transition(c.stateForSpeed(speed, prevSpeed), fix.RecordedAt)
	return nil
}

func (c *Classifier) observeInVehicle(speed float64, at time.Time) []Event {
	if speed >= c.th.WalkMax {
		c.lowSpeedSamples = 0
		return nil
	}

	// Exit hysteresis: a traffic stop, tunnel, or GPS jitter produces a
	// single low reading; only a run of them confirms alighting.
	c.lowSpeedSamples++
	if c.lowSpeedSamples < c.th.ExitSamples {
		return nil
	}

	c.transition(c.stateForSpeed(speed, c.lastSpeedKmh), at)
	c.line = ""
	c.lowSpeedSamples = 0
	return []Event{{Kind: EventAlighted}}
}

// speedFor computes the speed for a fix in km/h. hadPrev reports whether
// the speed came from a position delta; ok is false when the fix repeats
// the previous timestamp and must be ignored.
func (c *Classifier) speedFor(fix Fix) (speed float64, hadPrev, ok bool) {
	if c.prev == nil {
		return fix.SpeedKmh, false, true
	}

	elapsed := fix.RecordedAt.Sub(c.prev.RecordedAt).Seconds()
	if elapsed <= 0 {
		return 0, true, false
	}

	distKm := geo.HaversineKm(c.prev.Lat, c.prev.Lng, fix.Lat, fix.Lng)
	kmh := distKm / (elapsed / 3600)
	if kmh > artifactKmh {
		kmh = artifactSubstituteKmh
	}
	return kmh, true, true
}

func (c *Classifier) stateForSpeed(speed, prevSpeed float64) State {
	switch {
	case speed < c.th.IdleMax:
		return StateIdle
	case speed < c.th.WalkMax:
		return StateWalking
	case speed < prevSpeed:
		return StateDecelerating
	default:
		return StateAccelerating
	}
}

func (c *Classifier) transition(next State, at time.Time) {
	if next == c.state {
		return
	}
	c.state = next
	c.lastTransitionAt = at
}
