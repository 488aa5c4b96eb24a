package benchmarks

import (
	"context"
	"fmt"
	"io"
	"path"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/gosuri/uilive"
	"github.com/spf13/cobra"
	"github.com/zeu5/wumpus-rl/policies"
	"github.com/zeu5/wumpus-rl/rl"
	"github.com/zeu5/wumpus-rl/util"
	"github.com/zeu5/wumpus-rl/wumpus"
	"golang.org/x/sync/errgroup"
)

// progress of one run, updated by the trainer and read by the printer
type progress struct {
	mu        sync.Mutex
	name      string
	total     int
	episode   int
	successes int
	lastSteps int
}

func (p *progress) update(episode int, record rl.EpisodeRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.episode = episode
	p.lastSteps = record.Steps
	if record.Outcome == wumpus.ReasonSuccess {
		p.successes += 1
	}
}

func (p *progress) String() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return fmt.Sprintf("%-10s episode %d/%d, successes: %d, last episode steps: %d", p.name, p.episode, p.total, p.successes, p.lastSteps)
}

// printer refreshes the progress lines in place until stopped
type printer struct {
	runs    []*progress
	writer  *uilive.Writer
	writers []io.Writer
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func newPrinter(runs []*progress) *printer {
	writer := uilive.New()
	writers := make([]io.Writer, len(runs))
	writers[0] = writer
	for i := 1; i < len(runs); i++ {
		writers[i] = writer.Newline()
	}
	return &printer{
		runs:    runs,
		writer:  writer,
		writers: writers,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

func (p *printer) Start(frequency time.Duration) {
	go func() {
		defer close(p.doneCh)
		for {
			select {
			case <-p.stopCh:
				p.print()
				return
			case <-time.After(frequency):
				p.print()
			}
		}
	}()
}

func (p *printer) Stop() {
	close(p.stopCh)
	<-p.doneCh
}

func (p *printer) print() {
	for i, run := range p.runs {
		fmt.Fprintln(p.writers[i], run.String())
	}
	p.writer.Flush()
}

// Compare trains both algorithms on the same request concurrently and
// plots their learning curves against each other
func Compare(ctx context.Context, logger log.Logger, base *rl.Request) error {
	if err := util.EnsureDir(saveFile); err != nil {
		return err
	}
	algorithms := []policies.Algorithm{policies.QLearning, policies.SARSA}

	runs := make([]*progress, len(algorithms))
	results := make([]*rl.Result, len(algorithms))
	for i, a := range algorithms {
		runs[i] = &progress{name: a.DisplayName(), total: base.Hyperparams.Episodes}
	}

	p := newPrinter(runs)
	p.Start(500 * time.Millisecond)

	g, gctx := errgroup.WithContext(ctx)
	for i, a := range algorithms {
		i, a := i, a
		req := *base
		req.Algorithm = string(a)
		g.Go(func() error {
			result, err := rl.RunWithProgress(gctx, &req, log.NewNopLogger(), runs[i].update)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	err := g.Wait()
	p.Stop()
	if err != nil {
		return err
	}

	names := make([]string, len(algorithms))
	returns := make([][]float64, len(algorithms))
	summary := make(map[string]rl.Metadata)
	for i, result := range results {
		names[i] = result.Training.Algorithm
		returns[i] = make([]float64, len(result.TrainingLog))
		for j, e := range result.TrainingLog {
			returns[i][j] = e.Return
		}
		summary[string(algorithms[i])] = result.Training
		level.Info(logger).Log(
			"msg", "run finished",
			"algorithm", result.Training.Algorithm,
			"mean_return", result.Training.MeanReturn,
			"path_length", len(result.OptimalPath)-1,
		)
	}

	if err := util.WriteJSON(path.Join(saveFile, "comparison.json"), summary); err != nil {
		return err
	}
	if err := rl.PlotComparison(names, returns, plotWindow, path.Join(saveFile, "comparison.png")); err != nil {
		return err
	}
	for _, result := range results {
		fmt.Println(ResultPrintable(result))
	}
	return nil
}

func CompareCommand() *cobra.Command {
	f := &trainFlags{}
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Train Q-learning and SARSA side by side",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			req, err := buildRequest(cmd, f)
			if err != nil {
				return err
			}

			ctx, done := signalContext()
			defer done()

			if err := Compare(ctx, logger, req); err != nil {
				level.Error(logger).Log("msg", "comparison failed", "err", err)
				return err
			}
			return nil
		},
	}
	addTrainFlags(cmd, f)
	return cmd
}
