// Package simulate replays many selection rounds offline and compares the
// adaptive selector against a uniform sampler over the same pool.
package simulate

import (
	"context"
	"fmt"

	"github.com/okian/eventdraw/internal/domain/selector"
	"github.com/okian/eventdraw/internal/domain/tuning"
	"github.com/okian/eventdraw/pkg/logger"
)

// Uniform is the result name of the baseline sampler.
const Uniform = "uniform"

// Config describes one simulation run.
type Config struct {
	PoolSize int      // distinct events in the pool
	Count    int      // events drawn per round
	Rounds   int      // rounds per sampler
	Presets  []string // adaptive presets to compare; empty means balanced
	Seed     uint64   // 0 picks a random seed
}

// Validate checks the run parameters.
func (c Config) Validate() error {
	switch {
	case c.PoolSize <= 0:
		return fmt.Errorf("%w: pool must be positive", ErrInvalidConfig)
	case c.Count <= 0:
		return fmt.Errorf("%w: count must be positive", ErrInvalidConfig)
	case c.Rounds <= 0:
		return fmt.Errorf("%w: rounds must be positive", ErrInvalidConfig)
	}
	for _, p := range c.Presets {
		if _, err := tuning.Resolve(p); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}

// Result summarizes one sampler.
type Result struct {
	Name              string  `json:"name" yaml:"name"`
	AverageRepeatRate float64 `json:"averageRepeatRate" yaml:"averageRepeatRate"`
	LongestStreak     int     `json:"longestStreak" yaml:"longestStreak"`
	MaxPicks          int     `json:"maxPicks" yaml:"maxPicks"`
	MinPicks          int     `json:"minPicks" yaml:"minPicks"`
	CV                float64 `json:"coefficientOfVariation" yaml:"coefficientOfVariation"`
}

// Report is the outcome of Run.
type Report struct {
	PoolSize int      `json:"pool" yaml:"pool"`
	Count    int      `json:"count" yaml:"count"`
	Rounds   int      `json:"rounds" yaml:"rounds"`
	Seed     uint64   `json:"seed" yaml:"seed"`
	Results  []Result `json:"results" yaml:"results"`
}

// Run draws cfg.Rounds rounds with every requested preset and with the
// uniform baseline. Every sampler sees the same pool.
func Run(ctx context.Context, cfg Config) (Report, error) {
	if err := cfg.Validate(); err != nil {
		return Report{}, err
	}
	presets := cfg.Presets
	if len(presets) == 0 {
		presets = []string{string(tuning.PresetBalanced)}
	}
	seed := cfg.Seed
	for seed == 0 {
		seed = randomSeed()
	}

	log := logger.Get().Named("simulate")
	log.Info(ctx, "simulation started",
		logger.Int("pool", cfg.PoolSize),
		logger.Int("count", cfg.Count),
		logger.Int("rounds", cfg.Rounds),
		logger.Strings("presets", presets),
	)

	pool := Pool(cfg.PoolSize)
	report := Report{PoolSize: cfg.PoolSize, Count: cfg.Count, Rounds: cfg.Rounds, Seed: seed}

	for _, name := range presets {
		tc, err := tuning.Resolve(name)
		if err != nil {
			return Report{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		sel := selector.New(tc, selector.WithSeed(seed))
		sel.InitializeWeights(ctx, pool)

		res, err := run(ctx, pool, cfg.Rounds, func() []string {
			return sel.SelectEvents(ctx, pool, cfg.Count)
		})
		if err != nil {
			return Report{}, err
		}
		res.Name = string(tc.Preset)
		report.Results = append(report.Results, res)
	}

	src := selector.NewSeededSource(seed)
	res, err := run(ctx, pool, cfg.Rounds, func() []string {
		return uniformDraw(src, pool, cfg.Count)
	})
	if err != nil {
		return Report{}, err
	}
	res.Name = Uniform
	report.Results = append(report.Results, res)

	log.Info(ctx, "simulation finished", logger.Int("samplers", len(report.Results)))
	return report, nil
}

func run(ctx context.Context, pool []string, rounds int, draw func() []string) (Result, error) {
	t := newTally(pool)
	for i := 0; i < rounds; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("simulation interrupted after %d rounds: %w", i, err)
		}
		t.add(draw())
	}
	return t.result(), nil
}

// Pool names n events event_000, event_001, ...
func Pool(n int) []string {
	width := len(fmt.Sprint(n - 1))
	if width < 3 {
		width = 3
	}
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("event_%0*d", width, i)
	}
	return out
}

// uniformDraw picks up to count distinct items with equal probability.
func uniformDraw(src selector.Source, pool []string, count int) []string {
	work := append([]string(nil), pool...)
	if count > len(work) {
		count = len(work)
	}
	for i := 0; i < count; i++ {
		j := i + src.IntN(len(work)-i)
		work[i], work[j] = work[j], work[i]
	}
	return work[:count]
}
