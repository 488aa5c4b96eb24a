package rl

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/zeu5/wumpus-rl/policies"
	"github.com/zeu5/wumpus-rl/types"
	"github.com/zeu5/wumpus-rl/wumpus"
	"gonum.org/v1/gonum/stat"
)

type Metadata struct {
	Algorithm     string         `json:"algorithm"`
	Episodes      int            `json:"episodes"`
	Horizon       int            `json:"horizon"`
	FinalEpsilon  float64        `json:"final_epsilon"`
	StatesVisited int            `json:"states_visited"`
	Outcomes      map[string]int `json:"outcomes"`
	MeanReturn    float64        `json:"mean_return"`
	Layout        *wumpus.Layout `json:"layout"`
}

// Result is everything reported about a finished training run
type Result struct {
	Success     bool                         `json:"success"`
	Message     string                       `json:"message"`
	QTable      map[int][]float64            `json:"q_table"`
	Policy      map[int]policies.PolicyEntry `json:"policy"`
	PolicyStats PolicyStats                  `json:"policy_stats"`
	OptimalPath []PathStep                   `json:"optimal_path"`
	Training    Metadata                     `json:"training"`
	TrainingLog []EpisodeRecord              `json:"training_log"`
}

// Run validates the request, trains a fresh agent and replays the greedy
// path. Every call builds its own environment, encoder and agent.
func Run(ctx context.Context, req *Request, logger log.Logger) (*Result, error) {
	return RunWithProgress(ctx, req, logger, nil)
}

// RunWithProgress is Run reporting every finished episode to progress
func RunWithProgress(ctx context.Context, req *Request, logger log.Logger, progress func(int, EpisodeRecord)) (*Result, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	algorithm, _ := policies.ParseAlgorithm(req.Algorithm)

	layout := req.Layout
	if layout == nil {
		layout = wumpus.DefaultLayout()
	}
	env := wumpus.NewEnvironment(layout)
	encoder := types.NewStateEncoder()
	agent := policies.NewAgent(req.AgentConfig())

	trainer := NewTrainer(&TrainerConfig{
		Algorithm: algorithm,
		Episodes:  req.Hyperparams.Episodes,
		Horizon:   req.horizon(),
		Progress:  progress,
	}, agent, env, encoder)

	level.Info(logger).Log(
		"msg", "training started",
		"algorithm", algorithm,
		"episodes", req.Hyperparams.Episodes,
		"alpha", req.Hyperparams.LearningRate,
		"gamma", req.Hyperparams.DiscountFactor,
		"epsilon", req.Hyperparams.Epsilon,
	)
	trainingLog, err := trainer.Train(ctx)
	if err != nil {
		level.Warn(logger).Log("msg", "training aborted", "err", err)
		return nil, err
	}

	if last := trainingLog.LastTrace; last != nil {
		level.Debug(logger).Log("msg", "last episode", "return", last.Return(), "transitions", last.String())
	}

	table := agent.Table()
	policy := agent.ExtractPolicy()
	for state, entry := range policy {
		if obs, ok := encoder.Decode(state); ok {
			entry.Observation = &obs
			policy[state] = entry
		}
	}
	path := ReplayPath(table, encoder, env)

	outcomes := trainingLog.Outcomes()
	meanReturn := stat.Mean(trainingLog.Returns(), nil)

	level.Info(logger).Log(
		"msg", "training finished",
		"algorithm", algorithm,
		"states", encoder.Size(),
		"final_epsilon", agent.Epsilon(),
		"successes", outcomes[wumpus.ReasonSuccess],
		"path_length", len(path)-1,
	)

	return &Result{
		Success:     true,
		Message:     fmt.Sprintf("Training with %s completed.", strings.ToUpper(string(algorithm))),
		QTable:      agent.ExportTable(),
		Policy:      policy,
		PolicyStats: ComputePolicyStats(policy),
		OptimalPath: path,
		Training: Metadata{
			Algorithm:     algorithm.DisplayName(),
			Episodes:      req.Hyperparams.Episodes,
			Horizon:       req.horizon(),
			FinalEpsilon:  agent.Epsilon(),
			StatesVisited: encoder.Size(),
			Outcomes:      outcomes,
			MeanReturn:    meanReturn,
			Layout:        layout,
		},
		TrainingLog: trainingLog.Episodes,
	}, nil
}
