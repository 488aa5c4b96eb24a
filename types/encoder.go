package types

import "github.com/zeu5/wumpus-rl/wumpus"

// StateEncoder assigns dense integer keys to observations in the order
// they are first seen. Codes start at 0 and are never reused.
type StateEncoder struct {
	codes        map[wumpus.Observation]int
	observations []wumpus.Observation
}

func NewStateEncoder() *StateEncoder {
	return &StateEncoder{
		codes:        make(map[wumpus.Observation]int),
		observations: make([]wumpus.Observation, 0),
	}
}

// Encode returns the code of the observation, assigning the next free
// code if it has not been seen before
func (s *StateEncoder) Encode(o wumpus.Observation) int {
	if code, ok := s.codes[o]; ok {
		return code
	}
	code := len(s.observations)
	s.codes[o] = code
	s.observations = append(s.observations, o)
	return code
}

// Lookup returns the code without assigning one
func (s *StateEncoder) Lookup(o wumpus.Observation) (int, bool) {
	code, ok := s.codes[o]
	return code, ok
}

func (s *StateEncoder) Decode(code int) (wumpus.Observation, bool) {
	if code < 0 || code >= len(s.observations) {
		return wumpus.Observation{}, false
	}
	return s.observations[code], true
}

func (s *StateEncoder) Size() int {
	return len(s.observations)
}
