package types

import (
	"fmt"
	"strings"

	"github.com/zeu5/wumpus-rl/wumpus"
)

// Trace of an episode as tuples (state, action, reward, nextState)
// over encoded states
type Trace struct {
	states     []int
	actions    []wumpus.Action
	rewards    []float64
	nextStates []int
}

func NewTrace() *Trace {
	return &Trace{
		states:     make([]int, 0),
		actions:    make([]wumpus.Action, 0),
		rewards:    make([]float64, 0),
		nextStates: make([]int, 0),
	}
}

func (t *Trace) Append(state int, action wumpus.Action, reward float64, nextState int) {
	t.states = append(t.states, state)
	t.actions = append(t.actions, action)
	t.rewards = append(t.rewards, reward)
	t.nextStates = append(t.nextStates, nextState)
}

func (t *Trace) Len() int {
	return len(t.states)
}

func (t *Trace) Get(i int) (int, wumpus.Action, float64, int, bool) {
	if i < 0 || i >= len(t.states) {
		return 0, 0, 0, 0, false
	}
	return t.states[i], t.actions[i], t.rewards[i], t.nextStates[i], true
}

// String renders the transitions as "state -ACTION(reward)-> next" joined by spaces
func (t *Trace) String() string {
	parts := make([]string, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		s, a, r, ns, _ := t.Get(i)
		parts = append(parts, fmt.Sprintf("%d -%s(%g)-> %d", s, a, r, ns))
	}
	return strings.Join(parts, " ")
}

// Return is the undiscounted sum of rewards
func (t *Trace) Return() float64 {
	sum := 0.0
	for _, r := range t.rewards {
		sum += r
	}
	return sum
}
