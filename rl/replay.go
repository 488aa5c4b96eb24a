package rl

import (
	"github.com/zeu5/wumpus-rl/policies"
	"github.com/zeu5/wumpus-rl/types"
	"github.com/zeu5/wumpus-rl/wumpus"
)

// StartAction labels the synthetic first entry of a replayed path
const StartAction = "Start"

type PathStep struct {
	Position  []int  `json:"position"`
	Action    string `json:"action"`
	Direction string `json:"direction"`
}

func newPathStep(obs wumpus.Observation, action string) PathStep {
	return PathStep{
		Position:  []int{obs.Position.X, obs.Position.Y},
		Action:    action,
		Direction: obs.Direction.String(),
	}
}

// ReplayPath follows the greedy action of the table from the initial
// observation. Ties go to the first action so replays are deterministic.
// The rollout stops on a terminal step, on a state missing from the table
// and on the first revisit of a state.
func ReplayPath(q *policies.QTable, encoder *types.StateEncoder, env *wumpus.Environment) []PathStep {
	obs := env.Reset()
	path := []PathStep{newPathStep(obs, StartAction)}
	visited := make(map[int]bool)

	for {
		state, ok := encoder.Lookup(obs)
		if !ok || !q.Has(state) {
			break
		}
		if visited[state] {
			break
		}
		visited[state] = true

		action, _ := q.Best(state)
		next, _, done, _ := env.Step(action)
		path = append(path, newPathStep(next, action.String()))
		obs = next
		if done {
			break
		}
	}
	return path
}
