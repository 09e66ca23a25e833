package backtest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kenykau/reinforcement-forex/config"
	"github.com/kenykau/reinforcement-forex/market"
	"github.com/kenykau/reinforcement-forex/pkg/id"
)

// Job is one run of a sweep.
type Job struct {
	Name     string
	Strategy string
	Seed     int64
}

// Sink receives every finished session of a sweep, e.g. to journal it. It
// is called from worker goroutines and must be safe for concurrent use.
type Sink func(Result, *Session) error

// RunOne prepares, runs and summarizes a single job.
func RunOne(ctx context.Context, cfg *config.Config, rows []market.RawRow, job Job, logger *zap.Logger) (Result, *Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	env, err := Prepare(cfg, rows, job.Seed)
	if err != nil {
		return Result{}, nil, err
	}
	opts, err := OptionsFromConfig(cfg)
	if err != nil {
		return Result{}, nil, err
	}
	strat, err := StrategyFromConfig(cfg, job.Strategy)
	if err != nil {
		return Result{}, nil, err
	}

	runID := id.New()
	s, err := NewSession(env.Data, env.Symbol, opts, logger.With(zap.String("run_id", runID)))
	if err != nil {
		return Result{}, nil, err
	}
	if err := s.Run(ctx, strat); err != nil {
		return Result{}, s, err
	}

	r := Summarize(s)
	r.RunID = runID
	r.Name = job.Name
	r.Strategy = job.Strategy
	if r.Strategy == "" {
		r.Strategy = cfg.Simulation.Strategy
	}
	r.Seed = job.Seed
	return r, s, nil
}

// Sweep runs jobs in parallel, at most limit at a time (no limit when
// limit <= 0). Each job owns its dataset, cursor and portfolio. The first
// error cancels the remaining jobs. Results keep the order of jobs.
func Sweep(ctx context.Context, cfg *config.Config, rows []market.RawRow, jobs []Job, limit int, sink Sink, logger *zap.Logger) ([]Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	results := make([]Result, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	started := time.Now()
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			r, s, err := RunOne(ctx, cfg, rows, job, logger)
			if err != nil {
				return fmt.Errorf("sweep %s: %w", job.Name, err)
			}
			results[i] = r
			if sink != nil {
				if err := sink(r, s); err != nil {
					return fmt.Errorf("sweep %s: %w", job.Name, err)
				}
			}
			logger.Debug("sweep job done", zap.String("name", job.Name), zap.Float64("net_pl", r.NetPL))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Info("sweep finished", zap.Int("jobs", len(jobs)), zap.Duration("elapsed", time.Since(started)))
	return results, nil
}

// Grid crosses strategies with seeds into jobs named "strategy/seed".
func Grid(strategyNames []string, seeds []int64) []Job {
	jobs := make([]Job, 0, len(strategyNames)*len(seeds))
	for _, name := range strategyNames {
		for _, seed := range seeds {
			jobs = append(jobs, Job{Name: fmt.Sprintf("%s/%d", name, seed), Strategy: name, Seed: seed})
		}
	}
	return jobs
}
