package rl

import (
	"os"

	"github.com/pkg/errors"
	"github.com/zeu5/wumpus-rl/policies"
	"github.com/zeu5/wumpus-rl/wumpus"
	"gopkg.in/yaml.v3"
)

const (
	// ExplorationFloor is the minimum epsilon reached by decay
	ExplorationFloor = 0.1
	// DefaultHorizon caps the number of steps of an episode
	DefaultHorizon = 500

	longRunEpisodes = 1000
)

// ExplorationDecay keeps long runs exploring for longer
func ExplorationDecay(episodes int) float64 {
	if episodes > longRunEpisodes {
		return 0.999
	}
	return 0.995
}

type Hyperparams struct {
	LearningRate   float64 `json:"learningRate" yaml:"learningRate"`
	DiscountFactor float64 `json:"discountFactor" yaml:"discountFactor"`
	Epsilon        float64 `json:"epsilon" yaml:"epsilon"`
	Episodes       int     `json:"episodes" yaml:"episodes"`
}

func DefaultHyperparams() Hyperparams {
	return Hyperparams{
		LearningRate:   0.1,
		DiscountFactor: 0.95,
		Epsilon:        1.0,
		Episodes:       5000,
	}
}

// Request describes one training run
type Request struct {
	Algorithm   string      `json:"algorithm" yaml:"algorithm"`
	Hyperparams Hyperparams `json:"hyperparams" yaml:"hyperparams"`

	// Optional run options
	Seed    uint64         `json:"seed,omitempty" yaml:"seed"`
	Horizon int            `json:"horizon,omitempty" yaml:"horizon"`
	Layout  *wumpus.Layout `json:"layout,omitempty" yaml:"layout"`
}

// Validate rejects the request before any training starts
func (r *Request) Validate() error {
	if _, err := policies.ParseAlgorithm(r.Algorithm); err != nil {
		return err
	}
	if r.Hyperparams.Episodes <= 0 {
		return errors.Wrapf(policies.ErrInvalidHyperparams, "episodes %d not positive", r.Hyperparams.Episodes)
	}
	if r.Horizon < 0 {
		return errors.Wrapf(policies.ErrInvalidHyperparams, "horizon %d negative", r.Horizon)
	}
	if err := r.AgentConfig().Validate(); err != nil {
		return err
	}
	if r.Layout != nil {
		if err := r.Layout.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (r *Request) AgentConfig() *policies.AgentConfig {
	return &policies.AgentConfig{
		Alpha:        r.Hyperparams.LearningRate,
		Gamma:        r.Hyperparams.DiscountFactor,
		Epsilon:      r.Hyperparams.Epsilon,
		EpsilonDecay: ExplorationDecay(r.Hyperparams.Episodes),
		EpsilonMin:   ExplorationFloor,
		Seed:         r.Seed,
	}
}

func (r *Request) horizon() int {
	if r.Horizon == 0 {
		return DefaultHorizon
	}
	return r.Horizon
}

// LoadRequest reads a YAML request file. Missing hyperparameters take
// their default values.
func LoadRequest(path string) (*Request, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading request")
	}
	r := &Request{
		Algorithm:   string(policies.QLearning),
		Hyperparams: DefaultHyperparams(),
	}
	if err := yaml.Unmarshal(bs, r); err != nil {
		return nil, errors.Wrap(err, "parsing request")
	}
	return r, nil
}
