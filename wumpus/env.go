package wumpus

import "fmt"

// Direction the agent is facing. Turning moves one step around the
// North, East, South, West cycle.
type Direction int

const (
	North Direction = iota
	East
	South
	West
)

const numDirections = 4

func (d Direction) String() string {
	switch d {
	case North:
		return "NORTH"
	case East:
		return "EAST"
	case South:
		return "SOUTH"
	case West:
		return "WEST"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

func (d Direction) Left() Direction {
	return Direction((int(d) + numDirections - 1) % numDirections)
}

func (d Direction) Right() Direction {
	return Direction((int(d) + 1) % numDirections)
}

// Action is one of the five moves available in every state
type Action int

const (
	MoveForward Action = iota
	TurnLeft
	TurnRight
	Grab
	Climb
)

// NumActions fixes the width of every action-value row
const NumActions = 5

var AllActions = []Action{MoveForward, TurnLeft, TurnRight, Grab, Climb}

func (a Action) String() string {
	switch a {
	case MoveForward:
		return "FORWARD"
	case TurnLeft:
		return "TURN_LEFT"
	case TurnRight:
		return "TURN_RIGHT"
	case Grab:
		return "GRAB"
	case Climb:
		return "CLIMB"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// ParseAction is the inverse of Action.String
func ParseAction(s string) (Action, bool) {
	for _, a := range AllActions {
		if a.String() == s {
			return a, true
		}
	}
	return 0, false
}

type Position struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

func (p Position) Eq(other Position) bool {
	return p.X == other.X && p.Y == other.Y
}

// Adjacent is true when the two cells share an edge
func (p Position) Adjacent(other Position) bool {
	return abs(p.X-other.X)+abs(p.Y-other.Y) == 1
}

func (p Position) String() string {
	return fmt.Sprintf("(%d, %d)", p.X, p.Y)
}

func abs(a int) int {
	if a < 0 {
		return -a
	}
	return a
}

type Percepts struct {
	Stench  bool `json:"stench"`
	Breeze  bool `json:"breeze"`
	Glitter bool `json:"glitter"`
}

// Observation is what the agent sees. Distinct worlds that project to
// the same observation are indistinguishable to the agent.
type Observation struct {
	Position    Position  `json:"position"`
	Direction   Direction `json:"direction"`
	HasTreasure bool      `json:"has_treasure"`
	Stench      bool      `json:"stench"`
	Breeze      bool      `json:"breeze"`
	Glitter     bool      `json:"glitter"`
}

func (o Observation) String() string {
	return fmt.Sprintf("pos=%s dir=%s gold=%t stench=%t breeze=%t glitter=%t",
		o.Position, o.Direction, o.HasTreasure, o.Stench, o.Breeze, o.Glitter)
}

// Reasons reported in StepInfo
const (
	ReasonPlaying = "still_playing"
	ReasonSuccess = "success"
	ReasonWumpus  = "killed_by_wumpus"
	ReasonPit     = "fell_in_pit"
)

const (
	StepReward     float64 = -1
	TreasureReward float64 = 1000
	DeathReward    float64 = -1000
)

type StepInfo struct {
	Reason string `json:"reason"`
}

// Environment is the deterministic wumpus grid. The hazard layout is
// fixed; only the agent's position, orientation and inventory change.
type Environment struct {
	layout *Layout

	pos         Position
	dir         Direction
	hasTreasure bool
	alive       bool
	done        bool
	steps       int
}

// NewEnvironment creates an environment over the layout, already reset.
// A nil layout uses the reference layout.
func NewEnvironment(layout *Layout) *Environment {
	if layout == nil {
		layout = DefaultLayout()
	}
	e := &Environment{layout: layout}
	e.Reset()
	return e
}

func (e *Environment) Layout() *Layout {
	return e.layout
}

// Reset abandons any running episode and returns the initial observation
func (e *Environment) Reset() Observation {
	e.pos = e.layout.Start
	e.dir = East
	e.hasTreasure = false
	e.alive = true
	e.done = false
	e.steps = 0
	return e.Observation()
}

func (e *Environment) Percepts() Percepts {
	p := Percepts{
		Stench:  e.pos.Adjacent(e.layout.Wumpus),
		Glitter: e.pos.Eq(e.layout.Treasure),
	}
	for _, pit := range e.layout.Pits {
		if e.pos.Adjacent(pit) {
			p.Breeze = true
			break
		}
	}
	return p
}

func (e *Environment) Observation() Observation {
	p := e.Percepts()
	return Observation{
		Position:    e.pos,
		Direction:   e.dir,
		HasTreasure: e.hasTreasure,
		Stench:      p.Stench,
		Breeze:      p.Breeze,
		Glitter:     p.Glitter,
	}
}

// ValidActions is always the full action set, illegal moves are no-ops
func (e *Environment) ValidActions() []Action {
	out := make([]Action, len(AllActions))
	copy(out, AllActions)
	return out
}

func (e *Environment) Alive() bool { return e.alive }

func (e *Environment) Done() bool { return e.done }

func (e *Environment) Steps() int { return e.steps }

// Step applies one action and returns the next observation, the reward,
// whether the episode ended and the reason
func (e *Environment) Step(a Action) (Observation, float64, bool, StepInfo) {
	reward := StepReward
	info := StepInfo{Reason: ReasonPlaying}

	switch a {
	case MoveForward:
		e.forward()
	case TurnLeft:
		e.dir = e.dir.Left()
	case TurnRight:
		e.dir = e.dir.Right()
	case Grab:
		if e.pos.Eq(e.layout.Treasure) && !e.hasTreasure {
			e.hasTreasure = true
			reward = TreasureReward
		}
	case Climb:
		if e.pos.Eq(e.layout.Start) && e.hasTreasure {
			e.done = true
			info.Reason = ReasonSuccess
		}
	}

	// hazards override whatever the action earned
	if e.pos.Eq(e.layout.Wumpus) {
		reward = DeathReward
		e.alive = false
		e.done = true
		info.Reason = ReasonWumpus
	} else if e.layout.IsPit(e.pos) {
		reward = DeathReward
		e.alive = false
		e.done = true
		info.Reason = ReasonPit
	}

	e.steps += 1
	return e.Observation(), reward, e.done, info
}

func (e *Environment) forward() {
	next := e.pos
	switch e.dir {
	case North:
		next.Y += 1
	case East:
		next.X += 1
	case South:
		next.Y -= 1
	case West:
		next.X -= 1
	}
	if e.layout.InBounds(next) {
		e.pos = next
	}
}
