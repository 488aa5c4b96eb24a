package rl

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/zeu5/wumpus-rl/policies"
	"github.com/zeu5/wumpus-rl/types"
	"github.com/zeu5/wumpus-rl/wumpus"
)

func newTrainer(alg policies.Algorithm, episodes, horizon int, seed uint64) (*Trainer, *policies.Agent, *types.StateEncoder) {
	agent := policies.NewAgent(&policies.AgentConfig{
		Alpha:        0.1,
		Gamma:        0.95,
		Epsilon:      1.0,
		EpsilonDecay: ExplorationDecay(episodes),
		EpsilonMin:   ExplorationFloor,
		Seed:         seed,
	})
	encoder := types.NewStateEncoder()
	trainer := NewTrainer(&TrainerConfig{
		Algorithm: alg,
		Episodes:  episodes,
		Horizon:   horizon,
	}, agent, wumpus.NewEnvironment(nil), encoder)
	return trainer, agent, encoder
}

func TestTrainEpisodeBudget(t *testing.T) {
	for _, alg := range []policies.Algorithm{policies.QLearning, policies.SARSA} {
		trainer, agent, encoder := newTrainer(alg, 10, DefaultHorizon, 11)
		trainingLog, err := trainer.Train(context.Background())
		if err != nil {
			t.Fatalf("%s: unexpected error: %s", alg, err)
		}
		if len(trainingLog.Episodes) != 10 {
			t.Errorf("%s: expected 10 episodes, got %d", alg, len(trainingLog.Episodes))
		}
		if math.Abs(agent.Epsilon()-math.Pow(0.995, 10)) > 1e-9 {
			t.Errorf("%s: expected epsilon decayed once per episode, got %f", alg, agent.Epsilon())
		}
		if encoder.Size() == 0 || agent.Table().Len() == 0 {
			t.Errorf("%s: expected states to be visited", alg)
		}
		if trainingLog.LastTrace == nil || trainingLog.LastTrace.Len() != trainingLog.Episodes[9].Steps {
			t.Errorf("%s: last trace does not match the last episode", alg)
		}
	}
}

func TestTrainHorizon(t *testing.T) {
	trainer, _, _ := newTrainer(policies.SARSA, 200, 5, 5)
	trainingLog, err := trainer.Train(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	for i, e := range trainingLog.Episodes {
		if e.Steps > 5 {
			t.Fatalf("episode %d ran %d steps past the horizon", i, e.Steps)
		}
		if e.Steps < 5 && e.Outcome == OutcomeHorizon {
			t.Errorf("episode %d ended early but is marked as horizon", i)
		}
	}
	if trainingLog.Outcomes()[OutcomeHorizon] == 0 {
		t.Errorf("expected some episodes to hit the horizon")
	}
}

func TestTrainQLearningLearns(t *testing.T) {
	trainer, _, _ := newTrainer(policies.QLearning, 5000, DefaultHorizon, 1)
	trainingLog, err := trainer.Train(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if trainingLog.Outcomes()[wumpus.ReasonSuccess] == 0 {
		t.Errorf("expected at least one successful episode, outcomes %v", trainingLog.Outcomes())
	}
}

func TestTrainDeterministic(t *testing.T) {
	first, agentA, _ := newTrainer(policies.SARSA, 300, DefaultHorizon, 99)
	second, agentB, _ := newTrainer(policies.SARSA, 300, DefaultHorizon, 99)
	if _, err := first.Train(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := second.Train(context.Background()); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(agentA.ExportTable(), agentB.ExportTable()); diff != "" {
		t.Errorf("same seed produced different tables (-first +second):\n%s", diff)
	}
}

func TestTrainErrors(t *testing.T) {
	trainer, _, _ := newTrainer("dqn", 10, DefaultHorizon, 1)
	if _, err := trainer.Train(context.Background()); errors.Cause(err) != policies.ErrUnknownAlgorithm {
		t.Errorf("expected unknown algorithm, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	trainer, _, _ = newTrainer(policies.QLearning, 10, DefaultHorizon, 1)
	trainingLog, err := trainer.Train(ctx)
	if errors.Cause(err) != context.Canceled {
		t.Errorf("expected cancellation, got %v", err)
	}
	if trainingLog == nil || len(trainingLog.Episodes) != 0 {
		t.Errorf("expected no episodes after cancellation")
	}
}

var optimalActions = []wumpus.Action{
	wumpus.MoveForward, wumpus.TurnLeft, wumpus.MoveForward, wumpus.MoveForward, wumpus.Grab,
	wumpus.TurnLeft, wumpus.TurnLeft, wumpus.MoveForward, wumpus.MoveForward, wumpus.TurnRight,
	wumpus.MoveForward, wumpus.Climb,
}

func TestReplayEmptyTable(t *testing.T) {
	path := ReplayPath(policies.NewQTable(), types.NewStateEncoder(), wumpus.NewEnvironment(nil))
	expected := []PathStep{{Position: []int{1, 1}, Action: StartAction, Direction: "EAST"}}
	if diff := cmp.Diff(expected, path); diff != "" {
		t.Errorf("unexpected path (-want +got):\n%s", diff)
	}
}

func TestReplayOptimal(t *testing.T) {
	env := wumpus.NewEnvironment(nil)
	encoder := types.NewStateEncoder()
	q := policies.NewQTable()

	obs := env.Reset()
	for _, a := range optimalActions {
		q.Set(encoder.Encode(obs), a, 1)
		obs, _, _, _ = env.Step(a)
	}

	path := ReplayPath(q, encoder, env)
	if len(path) != len(optimalActions)+1 {
		t.Fatalf("expected %d steps, got %d: %v", len(optimalActions)+1, len(path), path)
	}
	for i, a := range optimalActions {
		if path[i+1].Action != a.String() {
			t.Errorf("step %d: expected %s, got %s", i+1, a, path[i+1].Action)
		}
	}
	last := path[len(path)-1]
	if diff := cmp.Diff(PathStep{Position: []int{1, 1}, Action: "CLIMB", Direction: "WEST"}, last); diff != "" {
		t.Errorf("unexpected last step (-want +got):\n%s", diff)
	}
}

func TestReplayStops(t *testing.T) {
	env := wumpus.NewEnvironment(nil)
	encoder := types.NewStateEncoder()
	q := policies.NewQTable()

	// spinning in place revisits the start observation
	obs := env.Reset()
	for i := 0; i < 4; i++ {
		q.Set(encoder.Encode(obs), wumpus.TurnLeft, 1)
		obs, _, _, _ = env.Step(wumpus.TurnLeft)
	}
	path := ReplayPath(q, encoder, env)
	if len(path) != 5 {
		t.Errorf("expected the cycle guard to stop after 4 turns, got %d steps", len(path))
	}

	// the state after one move has never been seen
	encoder = types.NewStateEncoder()
	q = policies.NewQTable()
	q.Set(encoder.Encode(env.Reset()), wumpus.MoveForward, 1)
	path = ReplayPath(q, encoder, env)
	if len(path) != 2 || path[1].Action != "FORWARD" {
		t.Errorf("expected replay to stop at the unseen state, got %v", path)
	}

	// ties go to the first action
	encoder = types.NewStateEncoder()
	q = policies.NewQTable()
	q.Set(encoder.Encode(env.Reset()), wumpus.Climb, 0)
	path = ReplayPath(q, encoder, env)
	if len(path) != 2 || path[1].Action != "FORWARD" {
		t.Errorf("expected first index tie-break, got %v", path)
	}
}

func TestPolicyStats(t *testing.T) {
	policy := map[int]policies.PolicyEntry{
		0: {BestAction: "FORWARD", BestValue: 1},
		1: {BestAction: "FORWARD", BestValue: 3},
		2: {BestAction: "GRAB", BestValue: 5},
		3: {BestAction: "CLIMB", BestValue: 7},
	}
	stats := ComputePolicyStats(policy)
	if stats.TotalStates != 4 {
		t.Errorf("expected 4 states, got %d", stats.TotalStates)
	}
	if s := stats.ActionDistribution["FORWARD"]; s.Count != 2 || s.Percentage != 50 {
		t.Errorf("unexpected FORWARD share %+v", s)
	}
	if s := stats.ActionDistribution["TURN_LEFT"]; s.Count != 0 || s.Percentage != 0 {
		t.Errorf("unexpected TURN_LEFT share %+v", s)
	}
	expected := ValueSummary{Mean: 4, Std: math.Sqrt(5), Min: 1, Max: 7}
	if diff := cmp.Diff(expected, stats.BestValues, cmp.Comparer(func(a, b float64) bool {
		return math.Abs(a-b) < 1e-9
	})); diff != "" {
		t.Errorf("unexpected value summary (-want +got):\n%s", diff)
	}

	empty := ComputePolicyStats(map[int]policies.PolicyEntry{})
	if empty.TotalStates != 0 || len(empty.ActionDistribution) != wumpus.NumActions {
		t.Errorf("unexpected stats for an empty policy: %+v", empty)
	}
}

func TestExplorationDecay(t *testing.T) {
	if ExplorationDecay(1000) != 0.995 || ExplorationDecay(1001) != 0.999 {
		t.Errorf("unexpected decay schedule")
	}
}

func TestRequestValidate(t *testing.T) {
	valid := Request{Algorithm: "qlearning", Hyperparams: DefaultHyperparams()}
	if err := valid.Validate(); err != nil {
		t.Errorf("unexpected error: %s", err)
	}

	bad := valid
	bad.Algorithm = "montecarlo"
	if err := bad.Validate(); errors.Cause(err) != policies.ErrUnknownAlgorithm {
		t.Errorf("expected unknown algorithm, got %v", err)
	}

	cases := []Hyperparams{
		{LearningRate: 0, DiscountFactor: 0.9, Epsilon: 1, Episodes: 10},
		{LearningRate: 0.1, DiscountFactor: 1.1, Epsilon: 1, Episodes: 10},
		{LearningRate: 0.1, DiscountFactor: 0.9, Epsilon: -0.5, Episodes: 10},
		{LearningRate: 0.1, DiscountFactor: 0.9, Epsilon: 1, Episodes: 0},
	}
	for i, h := range cases {
		r := Request{Algorithm: "sarsa", Hyperparams: h}
		if err := r.Validate(); errors.Cause(err) != policies.ErrInvalidHyperparams {
			t.Errorf("case %d: expected invalid hyperparameters, got %v", i, err)
		}
	}

	layout := wumpus.DefaultLayout()
	layout.Start = wumpus.Position{X: 3, Y: 1}
	r := Request{Algorithm: "sarsa", Hyperparams: DefaultHyperparams(), Layout: layout}
	if err := r.Validate(); errors.Cause(err) != wumpus.ErrInvalidLayout {
		t.Errorf("expected invalid layout, got %v", err)
	}
}

func TestRun(t *testing.T) {
	req := &Request{
		Algorithm: "SARSA",
		Hyperparams: Hyperparams{
			LearningRate:   0.2,
			DiscountFactor: 0.9,
			Epsilon:        1.0,
			Episodes:       50,
		},
		Seed: 3,
	}
	res, err := Run(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if !res.Success || res.Training.Algorithm != "SARSA" || res.Training.Episodes != 50 {
		t.Errorf("unexpected metadata %+v", res.Training)
	}
	if math.Abs(res.Training.FinalEpsilon-math.Pow(0.995, 50)) > 1e-9 {
		t.Errorf("unexpected final epsilon %f", res.Training.FinalEpsilon)
	}
	if len(res.QTable) != len(res.Policy) || res.PolicyStats.TotalStates != len(res.Policy) {
		t.Errorf("table, policy and stats disagree on the number of states")
	}
	if res.Training.StatesVisited < len(res.QTable) {
		t.Errorf("encoder saw %d states but the table has %d", res.Training.StatesVisited, len(res.QTable))
	}
	for state, entry := range res.Policy {
		if entry.Observation == nil {
			t.Errorf("state %d has no decoded observation", state)
		}
	}
	if len(res.OptimalPath) == 0 || res.OptimalPath[0].Action != StartAction {
		t.Errorf("path must start with the synthetic start step")
	}
	if len(res.TrainingLog) != 50 {
		t.Errorf("expected 50 log entries, got %d", len(res.TrainingLog))
	}

	_, err = Run(context.Background(), &Request{Algorithm: "dqn", Hyperparams: DefaultHyperparams()}, nil)
	if errors.Cause(err) != policies.ErrUnknownAlgorithm {
		t.Errorf("expected unknown algorithm, got %v", err)
	}
}

func TestLoadRequest(t *testing.T) {
	file := filepath.Join(t.TempDir(), "request.yaml")
	content := `
algorithm: sarsa
hyperparams:
  episodes: 200
seed: 4
layout:
  size: 4
  start: {x: 1, y: 1}
  wumpus: {x: 1, y: 3}
  treasure: {x: 2, y: 3}
  pits: [{x: 4, y: 4}]
`
	if err := os.WriteFile(file, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	req, err := LoadRequest(file)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if req.Algorithm != "sarsa" || req.Hyperparams.Episodes != 200 || req.Hyperparams.LearningRate != 0.1 || req.Seed != 4 {
		t.Errorf("unexpected request %+v", req)
	}
	if req.Layout == nil || len(req.Layout.Pits) != 1 {
		t.Errorf("layout not parsed")
	}
	if err := req.Validate(); err != nil {
		t.Errorf("unexpected validation error: %s", err)
	}
}

func TestPlotReturns(t *testing.T) {
	avg := MovingAverage([]float64{1, 3, 5, 7}, 2)
	if diff := cmp.Diff([]float64{1, 2, 4, 6}, avg); diff != "" {
		t.Errorf("unexpected moving average (-want +got):\n%s", diff)
	}

	out := filepath.Join(t.TempDir(), "returns.png")
	if err := PlotReturns("test", []float64{-10, -5, 0, 998}, 2, out); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("plot not written: %s", err)
	}
}

func TestRunWithProgress(t *testing.T) {
	req := &Request{Algorithm: "sarsa", Hyperparams: DefaultHyperparams(), Seed: 6}
	req.Hyperparams.Episodes = 15

	seen := make([]EpisodeRecord, 0)
	last := 0
	res, err := RunWithProgress(context.Background(), req, nil, func(episode int, record EpisodeRecord) {
		if episode != last+1 {
			t.Errorf("progress out of order, got %d after %d", episode, last)
		}
		last = episode
		seen = append(seen, record)
	})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if !cmp.Equal(seen, res.TrainingLog) {
		t.Errorf("progress does not match the training log: %s", cmp.Diff(seen, res.TrainingLog))
	}
}

func TestRunLogsLastEpisode(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := level.NewFilter(log.NewLogfmtLogger(buf), level.AllowDebug())
	req := &Request{Algorithm: "qlearning", Hyperparams: DefaultHyperparams(), Seed: 3}
	req.Hyperparams.Episodes = 5
	if _, err := Run(context.Background(), req, logger); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	out := buf.String()
	for _, expected := range []string{"training started", "last episode", "transitions=", "training finished"} {
		if !strings.Contains(out, expected) {
			t.Errorf("expected log to contain %q, got %s", expected, out)
		}
	}
}

// selectionRecorder remembers every action the agent chose
type selectionRecorder struct {
	*policies.Agent
	selected []wumpus.Action
}

func (r *selectionRecorder) SelectAction(state int) wumpus.Action {
	a := r.Agent.SelectAction(state)
	r.selected = append(r.selected, a)
	return a
}

func TestTrainActionThreading(t *testing.T) {
	for _, alg := range []policies.Algorithm{policies.QLearning, policies.SARSA} {
		recorder := &selectionRecorder{
			Agent: policies.NewAgent(&policies.AgentConfig{
				Alpha:        0.1,
				Gamma:        0.95,
				Epsilon:      0.5,
				EpsilonDecay: 0.995,
				EpsilonMin:   0.1,
				Seed:         17,
			}),
		}
		trainer := NewTrainer(&TrainerConfig{
			Algorithm: alg,
			Episodes:  1,
			Horizon:   40,
		}, recorder, wumpus.NewEnvironment(nil), types.NewStateEncoder())
		// replaying the transitions with the recorded choices must rebuild the same values
		shadow := policies.NewQTable()
		params := recorder.Params()

		for episode := 0; episode < 50; episode++ {
			recorder.selected = nil
			trace, outcome := trainer.runEpisode()

			// SARSA chooses one action ahead, so the last choice is never executed
			expected := trace.Len()
			if alg == policies.SARSA {
				expected += 1
			}
			if len(recorder.selected) != expected {
				t.Fatalf("%s: episode %d made %d choices for %d steps", alg, episode, len(recorder.selected), trace.Len())
			}
			for i := 0; i < trace.Len(); i++ {
				_, executed, _, _, _ := trace.Get(i)
				if executed != recorder.selected[i] {
					t.Fatalf("%s: episode %d step %d executed %s but %s was chosen", alg, episode, i, executed, recorder.selected[i])
				}
			}

			for i := 0; i < trace.Len(); i++ {
				state, action, reward, next, _ := trace.Get(i)
				terminal := i == trace.Len()-1 && outcome != OutcomeHorizon
				if alg == policies.SARSA {
					policies.SARSAUpdate(shadow, params, state, action, reward, next, recorder.selected[i+1], terminal)
				} else {
					policies.QLearningUpdate(shadow, params, state, action, reward, next, terminal)
				}
			}
			for _, state := range recorder.Table().States() {
				if diff := cmp.Diff(shadow.Values(state), recorder.Table().Values(state)); diff != "" {
					t.Fatalf("%s: episode %d state %d values differ (-replayed +trained):\n%s", alg, episode, state, diff)
				}
			}
		}
	}
}
