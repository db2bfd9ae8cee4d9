// Package selector implements the adaptive weighted item selector.
//
// A Selector owns a weight table, a bounded history of rounds and derived
// statistics. Every SelectEvents call first relaxes and penalizes weights from
// history, then samples distinct items without replacement over a working copy
// of the table, and finally records the round. Recently and repeatedly chosen
// items therefore become less likely while never becoming impossible.
//
// A Selector is safe for concurrent use: each operation runs atomically under
// a per-instance lock. Distinct selectors share no state.
package selector

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/okian/eventdraw/internal/domain/model"
	"github.com/okian/eventdraw/internal/domain/tuning"
	"github.com/okian/eventdraw/pkg/logger"
	"github.com/okian/eventdraw/pkg/metrics"
)

// Selection multiplier applied to a chosen item's working weight so it cannot
// be drawn twice within one round.
const intraRoundSuppression = 0.01

// Severe penalty base: a streak of n consecutive rounds scales weight by base^n.
const severePenaltyBase = 0.1

// Stats is a snapshot of selector statistics.
type Stats struct {
	TotalSelections   int                 `json:"totalSelections" yaml:"totalSelections"`
	UniqueEvents      int                 `json:"uniqueEvents" yaml:"uniqueEvents"`
	AverageRepeatRate float64             `json:"averageRepeatRate" yaml:"averageRepeatRate"`
	WeightAdjustments int                 `json:"weightAdjustments" yaml:"weightAdjustments"`
	Rounds            int                 `json:"rounds" yaml:"rounds"`
	HistoryLength     int                 `json:"historyLength" yaml:"historyLength"`
	Strategy          tuning.StrategyName `json:"strategy" yaml:"strategy"`
	Effective         tuning.Strategy     `json:"effectiveStrategy" yaml:"effectiveStrategy"`
}

// WeightEntry reports one tracked item.
type WeightEntry struct {
	Item        string  `json:"item" yaml:"item"`
	Weight      float64 `json:"weight" yaml:"weight"`
	Consecutive int     `json:"consecutiveStreak" yaml:"consecutiveStreak"`
}

// Selector picks items from a pool while suppressing recent repeats.
type Selector struct {
	mu sync.Mutex

	cfg       tuning.Config
	strategy  tuning.StrategyName
	effective tuning.Strategy

	weights     map[string]float64
	history     [][]string // oldest first, at most cfg.HistoryLength rounds
	consecutive map[string]int
	last        model.Round

	rounds            int
	totalSelections   int
	uniqueEvents      int
	averageRepeatRate float64
	weightAdjustments int

	src     Source
	log     logger.Logger
	now     func() time.Time
	onRound func(context.Context, model.Round)
}

// New creates a Selector running with cfg. The effective strategy starts as
// the configured named strategy and is re-derived on every InitializeWeights.
func New(cfg tuning.Config, opts ...Option) *Selector {
	s := &Selector{
		cfg:         cfg,
		strategy:    cfg.Strategy,
		weights:     make(map[string]float64),
		consecutive: make(map[string]int),
		src:         NewSource(),
		log:         logger.Discard(),
		now:         time.Now,
	}
	if _, _, ok := tuning.LookupStrategy(string(s.strategy)); !ok {
		s.strategy = tuning.StrategyBalanced
	}
	s.effective = s.namedStrategy()

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Config returns the parameter set the selector runs with.
func (s *Selector) Config() tuning.Config {
	return s.cfg
}

// namedStrategy returns the raw triple of the current strategy name. The
// configured strategy takes its decay from DECAY_FACTOR.
func (s *Selector) namedStrategy() tuning.Strategy {
	if s.strategy == s.cfg.Strategy {
		return s.cfg.NamedStrategy()
	}
	_, st, _ := tuning.LookupStrategy(string(s.strategy))
	return st
}

// InitializeWeights clears the weight table, seeds every pool item at
// BASE_WEIGHT and derives the effective strategy from the pool size.
func (s *Selector) InitializeWeights(ctx context.Context, pool []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initializeWeights(ctx, dedupe(pool))
}

func (s *Selector) initializeWeights(ctx context.Context, pool []string) {
	s.weights = make(map[string]float64, len(pool))
	for _, item := range pool {
		s.weights[item] = s.cfg.BaseWeight
	}
	s.effective = s.namedStrategy().ForPoolSize(len(pool))

	metrics.RecordWeightInitialization()
	s.log.Debug(ctx, "weights initialized",
		logger.Int("pool_size", len(pool)),
		logger.String("strategy", string(s.strategy)),
		logger.Float64("decay", s.effective.Decay),
		logger.Float64("recovery", s.effective.Recovery),
	)
}

// SelectEvents picks up to count distinct items from pool. An empty pool or a
// non-positive count returns an empty slice and leaves state untouched. Fewer
// distinct candidates than count yields a shorter result. pool is never
// modified.
func (s *Selector) SelectEvents(ctx context.Context, pool []string, count int) []string {
	r, _ := s.Draw(ctx, pool, count)
	return r.Items
}

// Draw is SelectEvents returning the recorded round. ok is false when the
// input was rejected.
func (s *Selector) Draw(ctx context.Context, pool []string, count int) (model.Round, bool) {
	if len(pool) == 0 {
		metrics.RecordInvalidDraw("empty_pool")
		s.log.Warn(ctx, "no events available")
		return model.Round{Items: []string{}}, false
	}
	if count <= 0 {
		metrics.RecordInvalidDraw("non_positive_count")
		s.log.Warn(ctx, "selection count must be positive", logger.Int("count", count))
		return model.Round{Items: []string{}}, false
	}

	start := time.Now()
	candidates := dedupe(pool)

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.weights) == 0 {
		s.initializeWeights(ctx, candidates)
	}

	s.updateWeights(ctx)
	chosen := s.sample(candidates, count)
	if len(chosen) < count {
		s.log.Debug(ctx, "pool exhausted before count was reached",
			logger.Int("requested", count), logger.Int("selected", len(chosen)))
	}
	s.recordRound(chosen, len(candidates))
	s.updateStats(chosen)

	metrics.RecordRound(string(s.strategy), len(chosen), count, len(candidates),
		float64(time.Since(start).Microseconds())/1000)
	metrics.UpdateRoundStats(s.averageRepeatRate, s.uniqueEvents)
	s.log.Debug(ctx, "round selected",
		logger.Int("round", s.rounds),
		logger.Strings("items", chosen),
		logger.Float64("repeat_rate", s.averageRepeatRate),
	)

	r := s.last
	r.Items = append([]string(nil), chosen...)
	if s.onRound != nil {
		s.onRound(ctx, r)
	}
	return r, true
}

// SetStrategy adopts the raw triple of a known strategy as the effective
// strategy, bypassing pool-size derivation. The configured strategy keeps its
// decay from DECAY_FACTOR, as on initialization. Unknown names are ignored
// with a warning. It reports whether the strategy changed.
func (s *Selector) SetStrategy(ctx context.Context, name string) bool {
	n, _, ok := tuning.LookupStrategy(name)
	if !ok {
		metrics.RecordUnknownStrategy()
		s.log.Warn(ctx, "unknown strategy ignored", logger.String("strategy", name))
		return false
	}

	s.mu.Lock()
	s.strategy = n
	s.effective = s.namedStrategy()
	s.mu.Unlock()

	metrics.RecordStrategyChange(string(n))
	s.log.Info(ctx, "strategy switched", logger.String("strategy", string(n)))
	return true
}

// Reset returns the selector to its uninitialized state. The strategy name is
// kept.
func (s *Selector) Reset(ctx context.Context) {
	s.mu.Lock()
	s.weights = make(map[string]float64)
	s.history = nil
	s.consecutive = make(map[string]int)
	s.last = model.Round{}
	s.rounds = 0
	s.totalSelections = 0
	s.uniqueEvents = 0
	s.averageRepeatRate = 0
	s.weightAdjustments = 0
	s.mu.Unlock()

	metrics.RecordReset()
	s.log.Info(ctx, "selector reset")
}

// Stats returns the current statistics.
func (s *Selector) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stats()
}

func (s *Selector) stats() Stats {
	return Stats{
		TotalSelections:   s.totalSelections,
		UniqueEvents:      s.uniqueEvents,
		AverageRepeatRate: s.averageRepeatRate,
		WeightAdjustments: s.weightAdjustments,
		Rounds:            s.rounds,
		HistoryLength:     len(s.history),
		Strategy:          s.strategy,
		Effective:         s.effective,
	}
}

// WeightInfo lists every tracked item by descending weight. Ties are ordered by
// item for stable output.
func (s *Selector) WeightInfo() []WeightEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]WeightEntry, 0, len(s.weights))
	for item, w := range s.weights {
		out = append(out, WeightEntry{Item: item, Weight: w, Consecutive: s.consecutive[item]})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Item < out[j].Item
	})
	return out
}

// History returns a copy of the recorded rounds, oldest first.
func (s *Selector) History() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([][]string, len(s.history))
	for i, r := range s.history {
		out[i] = append([]string(nil), r...)
	}
	return out
}

// LastRound returns the most recent round. Its Number is 0 before any round.
func (s *Selector) LastRound() model.Round {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.last
	r.Items = append([]string(nil), r.Items...)
	return r
}

// dedupe copies pool dropping repeated items, keeping first occurrences.
func dedupe(pool []string) []string {
	seen := make(map[string]struct{}, len(pool))
	out := make([]string, 0, len(pool))
	for _, item := range pool {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
