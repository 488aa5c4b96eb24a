package rl

import (
	"context"

	"github.com/pkg/errors"
	"github.com/zeu5/wumpus-rl/policies"
	"github.com/zeu5/wumpus-rl/types"
	"github.com/zeu5/wumpus-rl/wumpus"
)

// OutcomeHorizon marks an episode cut by the step budget
const OutcomeHorizon = "horizon"

type TrainerConfig struct {
	Algorithm policies.Algorithm
	Episodes  int
	// Horizon of each episode, 0 for no cap
	Horizon int
	// Progress, if set, is called after every episode
	Progress func(episode int, record EpisodeRecord)
}

type EpisodeRecord struct {
	Return  float64 `json:"return"`
	Steps   int     `json:"steps"`
	Outcome string  `json:"outcome"`
}

type TrainingLog struct {
	Episodes []EpisodeRecord
	// trace of the final episode
	LastTrace *types.Trace
}

func (l *TrainingLog) Returns() []float64 {
	out := make([]float64, len(l.Episodes))
	for i, e := range l.Episodes {
		out[i] = e.Return
	}
	return out
}

func (l *TrainingLog) Outcomes() map[string]int {
	out := make(map[string]int)
	for _, e := range l.Episodes {
		out[e.Outcome] += 1
	}
	return out
}

// Learner is the part of the agent the trainer drives
type Learner interface {
	Table() *policies.QTable
	Params() policies.LearningParams
	SelectAction(state int) wumpus.Action
	DecayExploration()
}

// Trainer runs episodes of the environment with the agent. The trainer
// owns none of its collaborators exclusively, but nothing else should
// touch them while training runs.
type Trainer struct {
	config      *TrainerConfig
	agent       Learner
	environment *wumpus.Environment
	encoder     *types.StateEncoder
}

func NewTrainer(config *TrainerConfig, agent Learner, env *wumpus.Environment, encoder *types.StateEncoder) *Trainer {
	return &Trainer{
		config:      config,
		agent:       agent,
		environment: env,
		encoder:     encoder,
	}
}

// Train runs the configured number of episodes. The context is checked
// between episodes only.
func (t *Trainer) Train(ctx context.Context) (*TrainingLog, error) {
	switch t.config.Algorithm {
	case policies.QLearning, policies.SARSA:
	default:
		return nil, errors.Wrapf(policies.ErrUnknownAlgorithm, "%q", t.config.Algorithm)
	}

	log := &TrainingLog{
		Episodes: make([]EpisodeRecord, 0, t.config.Episodes),
	}
	for i := 0; i < t.config.Episodes; i++ {
		select {
		case <-ctx.Done():
			return log, errors.Wrapf(ctx.Err(), "training stopped after %d episodes", i)
		default:
		}
		trace, outcome := t.runEpisode()
		record := EpisodeRecord{
			Return:  trace.Return(),
			Steps:   trace.Len(),
			Outcome: outcome,
		}
		log.Episodes = append(log.Episodes, record)
		log.LastTrace = trace
		if t.config.Progress != nil {
			t.config.Progress(i+1, record)
		}
	}
	return log, nil
}

// run a single episode and return the resulting trace and outcome
func (t *Trainer) runEpisode() (*types.Trace, string) {
	params := t.agent.Params()
	table := t.agent.Table()
	trace := types.NewTrace()
	outcome := OutcomeHorizon

	state := t.encoder.Encode(t.environment.Reset())

	// SARSA picks its first action before the loop and then threads the
	// chosen next action forward
	var action wumpus.Action
	if t.config.Algorithm == policies.SARSA {
		action = t.agent.SelectAction(state)
	}

	for step := 0; t.config.Horizon <= 0 || step < t.config.Horizon; step++ {
		if t.config.Algorithm == policies.QLearning {
			action = t.agent.SelectAction(state)
		}

		obs, reward, done, info := t.environment.Step(action)
		nextState := t.encoder.Encode(obs)

		var nextAction wumpus.Action
		switch t.config.Algorithm {
		case policies.QLearning:
			policies.QLearningUpdate(table, params, state, action, reward, nextState, done)
		case policies.SARSA:
			nextAction = t.agent.SelectAction(nextState)
			policies.SARSAUpdate(table, params, state, action, reward, nextState, nextAction, done)
		}

		trace.Append(state, action, reward, nextState)
		state = nextState
		action = nextAction

		if done {
			outcome = info.Reason
			break
		}
	}

	t.agent.DecayExploration()
	return trace, outcome
}
