package policies

import (
	"time"

	"github.com/pkg/errors"
	"github.com/zeu5/wumpus-rl/wumpus"
	"golang.org/x/exp/rand"
)

var ErrInvalidHyperparams = errors.New("invalid hyperparameters")

type AgentConfig struct {
	// learning rate, (0, 1]
	Alpha float64
	// discount factor, [0, 1]
	Gamma float64
	// initial exploration rate, [0, 1]
	Epsilon      float64
	EpsilonDecay float64
	EpsilonMin   float64
	// 0 seeds from the clock
	Seed uint64
}

func (c *AgentConfig) Validate() error {
	if c.Alpha <= 0 || c.Alpha > 1 {
		return errors.Wrapf(ErrInvalidHyperparams, "learning rate %v not in (0, 1]", c.Alpha)
	}
	if c.Gamma < 0 || c.Gamma > 1 {
		return errors.Wrapf(ErrInvalidHyperparams, "discount factor %v not in [0, 1]", c.Gamma)
	}
	if c.Epsilon < 0 || c.Epsilon > 1 {
		return errors.Wrapf(ErrInvalidHyperparams, "exploration rate %v not in [0, 1]", c.Epsilon)
	}
	if c.EpsilonDecay <= 0 || c.EpsilonDecay > 1 {
		return errors.Wrapf(ErrInvalidHyperparams, "exploration decay %v not in (0, 1]", c.EpsilonDecay)
	}
	if c.EpsilonMin < 0 || c.EpsilonMin > 1 {
		return errors.Wrapf(ErrInvalidHyperparams, "exploration floor %v not in [0, 1]", c.EpsilonMin)
	}
	return nil
}

// LearningParams are the step size and discount used by the update rules
type LearningParams struct {
	Alpha float64
	Gamma float64
}

// Agent owns the q table and the exploration schedule. It does not know
// how the table is updated; see QLearningUpdate and SARSAUpdate.
type Agent struct {
	qTable       *QTable
	alpha        float64
	gamma        float64
	epsilon      float64
	epsilonDecay float64
	epsilonMin   float64
	rand         *rand.Rand
}

func NewAgent(config *AgentConfig) *Agent {
	seed := config.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Agent{
		qTable:       NewQTable(),
		alpha:        config.Alpha,
		gamma:        config.Gamma,
		epsilon:      config.Epsilon,
		epsilonDecay: config.EpsilonDecay,
		epsilonMin:   config.EpsilonMin,
		rand:         rand.New(rand.NewSource(seed)),
	}
}

func (a *Agent) Table() *QTable {
	return a.qTable
}

func (a *Agent) Params() LearningParams {
	return LearningParams{Alpha: a.alpha, Gamma: a.gamma}
}

func (a *Agent) Epsilon() float64 {
	return a.epsilon
}

// SelectAction is epsilon-greedy. Ties between maximizers are broken
// uniformly at random so unvisited states do not favour the first action.
func (a *Agent) SelectAction(state int) wumpus.Action {
	if a.rand.Float64() < a.epsilon {
		return wumpus.AllActions[a.rand.Intn(wumpus.NumActions)]
	}
	best := a.qTable.Maximizers(state)
	return best[a.rand.Intn(len(best))]
}

// DecayExploration is called once at the end of every episode
func (a *Agent) DecayExploration() {
	a.epsilon = max(a.epsilonMin, a.epsilon*a.epsilonDecay)
}

type PolicyEntry struct {
	BestAction  string              `json:"best_action"`
	BestValue   float64             `json:"best_q_value"`
	AllValues   map[string]float64  `json:"all_q_values"`
	Observation *wumpus.Observation `json:"observation,omitempty"`
}

// ExtractPolicy returns the greedy action for every visited state
func (a *Agent) ExtractPolicy() map[int]PolicyEntry {
	return ExtractPolicy(a.qTable)
}

func (a *Agent) ExportTable() map[int][]float64 {
	return a.qTable.Export()
}

// ExtractPolicy reads the table without modifying it
func ExtractPolicy(q *QTable) map[int]PolicyEntry {
	out := make(map[int]PolicyEntry, q.Len())
	for _, s := range q.States() {
		row := q.rows[s]
		action, val := q.Best(s)
		all := make(map[string]float64, len(row))
		for i, v := range row {
			all[wumpus.Action(i).String()] = v
		}
		out[s] = PolicyEntry{
			BestAction: action.String(),
			BestValue:  val,
			AllValues:  all,
		}
	}
	return out
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
