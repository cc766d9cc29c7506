package motion

import (
	"testing"
	"time"
)

type stubResolver struct {
	label string
	found bool
}

func (s stubResolver) Resolve(_, _ float64) (string, bool) {
	return s.label, s.found
}

const (
	sampleInterval = 10 * time.Second
	kmPerDegLat    = 111.19493
)

// ride generates fixes spaced sampleInterval apart whose haversine-derived
// speeds match the requested km/h values.
type ride struct {
	at  time.Time
	lat float64
	lng float64
}

func newRide() *ride {
	return &ride{at: time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC), lat: -6.3, lng: 106.82}
}

func (r *ride) first(reportedKmh float64) Fix {
	return Fix{Lat: r.lat, Lng: r.lng, SpeedKmh: reportedKmh, RecordedAt: r.at}
}

func (r *ride) next(kmh float64) Fix {
	r.at = r.at.Add(sampleInterval)
	distKm := kmh * sampleInterval.Hours()
	r.lat += distKm / kmPerDegLat
	return Fix{Lat: r.lat, Lng: r.lng, RecordedAt: r.at}
}

func TestLowSpeedNeverBoards(t *testing.T) {
	c := New(stubResolver{label: "Bogor Line", found: true}, DefaultThresholds())
	r := newRide()

	if events := c.Observe(r.first(3)); len(events) != 0 {
		t.Fatalf("unexpected events on first fix: %v", events)
	}
	for i := 0; i < 10; i++ {
		if events := c.Observe(r.next(3)); len(events) != 0 {
			t.Fatalf("unexpected events at fix %d: %v", i, events)
		}
	}
	if c.State() != StateIdle {
		t.Fatalf("expected idle, got %v", c.State())
	}
}

func TestArtifactClamp(t *testing.T) {
	c := New(stubResolver{label: "Bogor Line", found: true}, DefaultThresholds())
	r := newRide()

	c.Observe(r.first(10))
	c.Observe(r.next(10))

	// Fix jump: ~1 degree of latitude in one interval is ~40000 km/h.
	jump := r.next(10)
	jump.Lat += 1
	r.lat += 1
	c.Observe(jump)

	if c.Speed() > 80 {
		t.Fatalf("artifact speed not clamped: %v km/h", c.Speed())
	}
	if c.Speed() < 40 {
		t.Fatalf("clamped speed below plausible band: %v km/h", c.Speed())
	}
}

func TestBoardAndAlightSequence(t *testing.T) {
	c := New(stubResolver{label: "Bogor Line", found: true}, DefaultThresholds())
	r := newRide()

	speeds := []float64{10, 40, 50, 45, 8, 8, 8}
	var perFix [][]Event
	perFix = append(perFix, c.Observe(r.first(0)))
	for _, kmh := range speeds {
		perFix = append(perFix, c.Observe(r.next(kmh)))
	}

	for i, events := range perFix {
		switch i {
		case 2:
			if len(events) != 1 || events[0].Kind != EventBoarded || events[0].Line != "Bogor Line" {
				t.Fatalf("expected boarded at fix %d, got %v", i, events)
			}
		case 7:
			if len(events) != 1 || events[0].Kind != EventAlighted {
				t.Fatalf("expected alighted at fix %d, got %v", i, events)
			}
		default:
			if len(events) != 0 {
				t.Fatalf("unexpected events at fix %d: %v", i, events)
			}
		}
	}
	if c.Line() != "" {
		t.Fatalf("line not cleared after alighting: %q", c.Line())
	}
	if c.State() == StateInVehicle {
		t.Fatalf("still in vehicle after alighting")
	}
}

func TestBoardedIsEdgeTriggered(t *testing.T) {
	c := New(stubResolver{label: "Cikarang Line", found: true}, DefaultThresholds())
	r := newRide()

	c.Observe(r.first(0))
	boarded := 0
	for i := 0; i < 20; i++ {
		for _, ev := range c.Observe(r.next(60)) {
			if ev.Kind == EventBoarded {
				boarded++
			}
		}
	}
	if boarded != 1 {
		t.Fatalf("expected exactly one boarded event, got %d", boarded)
	}
}

func TestNoLineSuppressesBoarding(t *testing.T) {
	c := New(stubResolver{found: false}, DefaultThresholds())
	r := newRide()

	c.Observe(r.first(0))
	for i := 0; i < 5; i++ {
		if events := c.Observe(r.next(60)); len(events) != 0 {
			t.Fatalf("boarding fired without a resolvable line: %v", events)
		}
	}
	if c.State() == StateInVehicle {
		t.Fatalf("entered in_vehicle without a line")
	}
}

func TestFirstFixCannotBoard(t *testing.T) {
	c := New(stubResolver{label: "Bogor Line", found: true}, DefaultThresholds())
	r := newRide()

	if events := c.Observe(r.first(60)); len(events) != 0 {
		t.Fatalf("first fix must not board: %v", events)
	}
	if c.State() == StateInVehicle {
		t.Fatalf("first fix must not enter in_vehicle")
	}
}

func TestRepeatedFixNoTransition(t *testing.T) {
	c := New(stubResolver{label: "Bogor Line", found: true}, DefaultThresholds())
	r := newRide()

	c.Observe(r.first(0))
	fix := r.next(60)
	c.Observe(fix)
	before := c.State()

	if events := c.Observe(fix); len(events) != 0 {
		t.Fatalf("repeated fix produced events: %v", events)
	}
	if c.State() != before {
		t.Fatalf("repeated fix changed state: %v -> %v", before, c.State())
	}
}

func TestExitHysteresisResetsOnRecovery(t *testing.T) {
	c := New(stubResolver{label: "Bogor Line", found: true}, DefaultThresholds())
	r := newRide()

	c.Observe(r.first(0))
	c.Observe(r.next(40))
	c.Observe(r.next(50))

	// Two low readings, then recovery: the counter must reset.
	for _, kmh := range []float64{8, 8, 40, 8, 8} {
		if events := c.Observe(r.next(kmh)); len(events) != 0 {
			t.Fatalf("premature exit at %v km/h: %v", kmh, events)
		}
	}
	if c.State() != StateInVehicle {
		t.Fatalf("expected still in vehicle, got %v", c.State())
	}

	events := c.Observe(r.next(8))
	if len(events) != 1 || events[0].Kind != EventAlighted {
		t.Fatalf("expected alighted after third consecutive low sample, got %v", events)
	}
}

func TestSecondRideBoardsAgain(t *testing.T) {
	c := New(stubResolver{label: "Bogor Line", found: true}, DefaultThresholds())
	r := newRide()

	c.Observe(r.first(0))
	c.Observe(r.next(10))
	c.Observe(r.next(40))
	for i := 0; i < 3; i++ {
		c.Observe(r.next(5))
	}

	events := c.Observe(r.next(45))
	if len(events) != 1 || events[0].Kind != EventBoarded {
		t.Fatalf("expected boarding on second ride, got %v", events)
	}
}
