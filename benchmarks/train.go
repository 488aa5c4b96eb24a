package benchmarks

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path"
	"sort"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"
	"github.com/zeu5/wumpus-rl/policies"
	"github.com/zeu5/wumpus-rl/rl"
	"github.com/zeu5/wumpus-rl/util"
	"github.com/zeu5/wumpus-rl/wumpus"
)

const (
	// plotWindow is the moving average window of the return plots
	plotWindow = 100
	// csvFlushEvery episodes the returns file is appended to
	csvFlushEvery = 500
)

type trainFlags struct {
	algorithm    string
	learningRate float64
	discount     float64
	epsilon      float64
	configFile   string
	plot         bool
	cpuprofile   string
	memprofile   string
}

// signalContext is cancelled on an interrupt or when done is called
func signalContext() (context.Context, func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt) // channel for interrupts from os

	doneCh := make(chan struct{}) // channel for done signal from application

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-sigCh:
		case <-doneCh:
		}
		signal.Stop(sigCh)
		cancel()
	}()
	return ctx, func() { close(doneCh) }
}

// buildRequest starts from the config file, if any, and applies the
// flags that were set explicitly
func buildRequest(cmd *cobra.Command, f *trainFlags) (*rl.Request, error) {
	req := &rl.Request{
		Algorithm:   f.algorithm,
		Hyperparams: rl.DefaultHyperparams(),
	}
	if f.configFile != "" {
		loaded, err := rl.LoadRequest(f.configFile)
		if err != nil {
			return nil, err
		}
		req = loaded
		if cmd.Flags().Changed("algorithm") {
			req.Algorithm = f.algorithm
		}
	}

	flags := cmd.Flags()
	if f.configFile == "" || flags.Changed("episodes") {
		req.Hyperparams.Episodes = episodes
	}
	if f.configFile == "" || flags.Changed("horizon") {
		req.Horizon = horizon
	}
	if f.configFile == "" || flags.Changed("seed") {
		req.Seed = seed
	}
	if f.configFile == "" || flags.Changed("learning-rate") {
		req.Hyperparams.LearningRate = f.learningRate
	}
	if f.configFile == "" || flags.Changed("discount") {
		req.Hyperparams.DiscountFactor = f.discount
	}
	if f.configFile == "" || flags.Changed("epsilon") {
		req.Hyperparams.Epsilon = f.epsilon
	}
	if layoutFile != "" {
		layout, err := wumpus.LoadLayout(layoutFile)
		if err != nil {
			return nil, err
		}
		req.Layout = layout
	}
	return req, nil
}

func addTrainFlags(cmd *cobra.Command, f *trainFlags) {
	defaults := rl.DefaultHyperparams()
	cmd.Flags().Float64Var(&f.learningRate, "learning-rate", defaults.LearningRate, "Learning rate (alpha)")
	cmd.Flags().Float64Var(&f.discount, "discount", defaults.DiscountFactor, "Discount factor (gamma)")
	cmd.Flags().Float64Var(&f.epsilon, "epsilon", defaults.Epsilon, "Initial exploration rate")
	cmd.Flags().StringVarP(&f.configFile, "config", "c", "", "YAML training request")
}

func Train(ctx context.Context, logger log.Logger, req *rl.Request, f *trainFlags) error {
	algorithm, err := policies.ParseAlgorithm(req.Algorithm)
	if err != nil {
		return err
	}
	name := string(algorithm)
	if err := util.EnsureDir(saveFile); err != nil {
		return err
	}

	// rows are flushed while training so an interrupted run keeps its curve
	csvPath := path.Join(saveFile, name+"_returns.csv")
	if err := util.WriteToFile(csvPath, "episode,return,steps,outcome"); err != nil {
		return err
	}
	pending := make([]string, 0, csvFlushEvery)
	var csvErr error
	flush := func() {
		if csvErr == nil && len(pending) > 0 {
			csvErr = util.AppendToFile(csvPath, pending...)
		}
		pending = pending[:0]
	}
	progress := func(episode int, e rl.EpisodeRecord) {
		pending = append(pending, fmt.Sprintf("%d,%f,%d,%s", episode, e.Return, e.Steps, e.Outcome))
		if len(pending) == csvFlushEvery {
			flush()
		}
	}

	stopProfiling, err := startProfiling(logger, f.cpuprofile, f.memprofile)
	if err != nil {
		return err
	}
	result, err := rl.RunWithProgress(ctx, req, logger, progress)
	stopProfiling()
	flush()
	if err != nil {
		return err
	}
	if csvErr != nil {
		return csvErr
	}

	if err := util.WriteJSON(path.Join(saveFile, name+"_result.json"), result); err != nil {
		return err
	}
	if f.plot {
		returns := make([]float64, len(result.TrainingLog))
		for i, e := range result.TrainingLog {
			returns[i] = e.Return
		}
		if err := rl.PlotReturns(result.Training.Algorithm, returns, plotWindow, path.Join(saveFile, name+"_returns.png")); err != nil {
			return err
		}
	}

	fmt.Println(ResultPrintable(result))
	return nil
}

// ResultPrintable renders the training summary and the greedy path
func ResultPrintable(result *rl.Result) string {
	t := result.Training
	out := fmt.Sprintf("%s\nAlgorithm: %s, Episodes: %d, Final epsilon: %.4f, States: %d, Mean return: %.2f\n",
		result.Message, t.Algorithm, t.Episodes, t.FinalEpsilon, t.StatesVisited, t.MeanReturn)

	outcomes := make([]string, 0, len(t.Outcomes))
	for o := range t.Outcomes {
		outcomes = append(outcomes, o)
	}
	sort.Strings(outcomes)
	for _, o := range outcomes {
		out += fmt.Sprintf("\t%s: %d\n", o, t.Outcomes[o])
	}

	out += "Greedy path:\n"
	for i, step := range result.OptimalPath {
		out += fmt.Sprintf("%3d. %-10s (%d, %d) facing %s\n", i, step.Action, step.Position[0], step.Position[1], step.Direction)
	}
	return out
}

func TrainCommand() *cobra.Command {
	f := &trainFlags{}
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train an agent and replay its greedy path",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			req, err := buildRequest(cmd, f)
			if err != nil {
				return err
			}

			ctx, done := signalContext()
			defer done()

			if err := Train(ctx, logger, req, f); err != nil {
				level.Error(logger).Log("msg", "training failed", "err", err)
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&f.algorithm, "algorithm", "a", "qlearning", "Algorithm to train with (qlearning, sarsa)")
	addTrainFlags(cmd, f)
	cmd.Flags().BoolVar(&f.plot, "plot", true, "Plot the returns of each episode")
	cmd.Flags().StringVar(&f.cpuprofile, "cpuprofile", "", "write cpu profile to `file`")
	cmd.Flags().StringVar(&f.memprofile, "memprofile", "", "write memory profile to `file`")
	return cmd
}
