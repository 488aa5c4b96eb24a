package policies

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/zeu5/wumpus-rl/wumpus"
)

var ErrUnknownAlgorithm = errors.New("unknown algorithm")

// Algorithm selects which update rule drives training
type Algorithm string

const (
	QLearning Algorithm = "qlearning"
	SARSA     Algorithm = "sarsa"
)

func ParseAlgorithm(name string) (Algorithm, error) {
	switch Algorithm(strings.ToLower(name)) {
	case QLearning:
		return QLearning, nil
	case SARSA:
		return SARSA, nil
	}
	return "", errors.Wrapf(ErrUnknownAlgorithm, "%q", name)
}

func (a Algorithm) DisplayName() string {
	switch a {
	case QLearning:
		return "Q-Learning"
	case SARSA:
		return "SARSA"
	}
	return string(a)
}

// QLearningUpdate bootstraps from the best action in the next state,
// whatever action is taken there. Returns the new value.
func QLearningUpdate(q *QTable, p LearningParams, state int, action wumpus.Action, reward float64, nextState int, terminal bool) float64 {
	target := reward
	if !terminal {
		target = reward + p.Gamma*q.Max(nextState)
	}
	return step(q, p, state, action, target)
}

// SARSAUpdate bootstraps from the action actually chosen in the next
// state. nextAction must be the action executed on the following step.
func SARSAUpdate(q *QTable, p LearningParams, state int, action wumpus.Action, reward float64, nextState int, nextAction wumpus.Action, terminal bool) float64 {
	target := reward
	if !terminal {
		target = reward + p.Gamma*q.Get(nextState, nextAction)
	}
	return step(q, p, state, action, target)
}

func step(q *QTable, p LearningParams, state int, action wumpus.Action, target float64) float64 {
	cur := q.Get(state, action)
	newVal := cur + p.Alpha*(target-cur)
	q.Set(state, action, newVal)
	return newVal
}
