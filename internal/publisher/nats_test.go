package publisher

import "testing"

func TestNewNATSPublisherUnreachable(t *testing.T) {
	if _, err := NewNATSPublisher("nats://127.0.0.1:1"); err == nil {
		t.Fatalf("expected connection error")
	}
}

func TestSubjectToken(t *testing.T) {
	cases := map[string]string{
		"bogor-line": "bogor-line",
		"Bogor Line": "Bogor_Line",
		"a.b>c*d/e":  "a_b_c_d_e",
		"   ":        "_",
	}
	for in, want := range cases {
		if got := subjectToken(in); got != want {
			t.Fatalf("subjectToken(%q) = %q, want %q", in, got, want)
		}
	}
}
