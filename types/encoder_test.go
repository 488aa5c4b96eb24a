package types

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/zeu5/wumpus-rl/wumpus"
)

func TestEncodeIdempotent(t *testing.T) {
	s := NewStateEncoder()
	o := wumpus.Observation{Position: wumpus.Position{X: 2, Y: 3}, Direction: wumpus.North, Glitter: true}
	first := s.Encode(o)
	second := s.Encode(o)
	if first != second {
		t.Errorf("encoding is not idempotent: %d != %d", first, second)
	}
	if s.Size() != 1 {
		t.Errorf("expected size 1, got %d", s.Size())
	}
}

func TestEncodeContiguous(t *testing.T) {
	s := NewStateEncoder()
	seen := make(map[int]bool)
	n := 0
	for x := 1; x <= 4; x++ {
		for _, d := range []wumpus.Direction{wumpus.North, wumpus.East, wumpus.South, wumpus.West} {
			for _, gold := range []bool{false, true} {
				o := wumpus.Observation{Position: wumpus.Position{X: x, Y: 1}, Direction: d, HasTreasure: gold}
				code := s.Encode(o)
				if code != n {
					t.Fatalf("expected code %d, got %d", n, code)
				}
				seen[code] = true
				n++
			}
		}
	}
	if len(seen) != n || s.Size() != n {
		t.Errorf("expected %d distinct codes, got %d (size %d)", n, len(seen), s.Size())
	}
}

func TestDecode(t *testing.T) {
	s := NewStateEncoder()
	o := wumpus.Observation{Position: wumpus.Position{X: 1, Y: 2}, Direction: wumpus.West, Stench: true}
	code := s.Encode(o)
	decoded, ok := s.Decode(code)
	if !ok {
		t.Fatalf("expected code %d to decode", code)
	}
	if diff := cmp.Diff(o, decoded); diff != "" {
		t.Errorf("decode mismatch (-want +got):\n%s", diff)
	}
	if _, ok := s.Decode(code + 1); ok {
		t.Errorf("expected unknown code to miss")
	}
	if _, ok := s.Decode(-1); ok {
		t.Errorf("expected negative code to miss")
	}
	if _, ok := s.Lookup(wumpus.Observation{}); ok {
		t.Errorf("lookup should not assign codes")
	}
}

func TestTraceReturn(t *testing.T) {
	tr := NewTrace()
	tr.Append(0, wumpus.MoveForward, -1, 1)
	tr.Append(1, wumpus.Grab, 1000, 2)
	tr.Append(2, wumpus.Climb, -1, 2)
	if tr.Return() != 998 {
		t.Errorf("expected return 998, got %f", tr.Return())
	}
	s, a, r, ns, ok := tr.Get(2)
	if !ok || s != 2 || a != wumpus.Climb || r != -1 || ns != 2 {
		t.Errorf("unexpected last transition")
	}
	if got := tr.String(); got != "0 -FORWARD(-1)-> 1 1 -GRAB(1000)-> 2 2 -CLIMB(-1)-> 2" {
		t.Errorf("unexpected rendering %q", got)
	}
	if _, _, _, _, ok := tr.Get(3); ok {
		t.Errorf("expected out of range get to fail")
	}
}
