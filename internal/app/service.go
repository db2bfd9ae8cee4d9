// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/eventdraw/internal/adapters/journal"
	"github.com/okian/eventdraw/internal/adapters/mq/queue"
	"github.com/okian/eventdraw/internal/adapters/mq/worker"
	repository "github.com/okian/eventdraw/internal/adapters/repository"
	"github.com/okian/eventdraw/internal/domain/model"
	"github.com/okian/eventdraw/internal/domain/selector"
	"github.com/okian/eventdraw/internal/domain/tuning"
	"github.com/okian/eventdraw/internal/domain/types"
	"github.com/okian/eventdraw/pkg/logger"
	"github.com/okian/eventdraw/pkg/metrics"
)

// Journal pipeline timeouts.
const (
	journalShutdownTimeout = 10 * time.Second
	statsFlushTimeout      = time.Second
)

// Sentinel kinds for service errors.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrJournalDisabled = errors.New("round journal disabled")
	ErrNotStarted      = errors.New("service not started")
)

// Service implements the API dependencies for the event draw system.
type Service struct {
	mu sync.RWMutex

	// Core components
	sessions repository.Store
	journal  *journal.Journal
	records  atomic.Pointer[queue.InMemoryQueue]
	writer   *worker.InMemoryWorker

	// Configuration
	defaults    tuning.Config
	maxSessions int
	maxPoolSize int
	maxCount    int
	sessionTTL  time.Duration
	journalPath string
	queueSize   int
	seed        uint64
	now         func() time.Time

	// State
	started bool
	created atomic.Uint64

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDefaults sets the parameters used by sessions created without a preset
// or scenario.
func WithDefaults(cfg tuning.Config) Option {
	return func(s *Service) {
		s.defaults = cfg
	}
}

// WithMaxSessions bounds the number of live sessions.
func WithMaxSessions(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSessions = n
		}
	}
}

// WithMaxPoolSize caps the candidate pool accepted per request.
func WithMaxPoolSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxPoolSize = n
		}
	}
}

// WithMaxCount caps the items requested in one draw.
func WithMaxCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxCount = n
		}
	}
}

// WithSessionTTL evicts sessions idle for longer than ttl. Zero disables it.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl >= 0 {
			s.sessionTTL = ttl
		}
	}
}

// WithJournalPath enables the SQLite round journal.
func WithJournalPath(path string) Option {
	return func(s *Service) {
		s.journalPath = path
	}
}

// WithJournalQueueSize bounds the rounds waiting to be journaled. Rounds
// beyond it are dropped and counted.
func WithJournalQueueSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.queueSize = n
		}
	}
}

// WithSeed makes sampling replicable. Each session derives its own seed.
func WithSeed(seed uint64) Option {
	return func(s *Service) {
		s.seed = seed
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		defaults:    tuning.Default(),
		maxSessions: 1_000,
		maxPoolSize: 10_000,
		maxCount:    100,
		sessionTTL:  2 * time.Hour,
		queueSize:   1_024,
		now:         time.Now,
		logger:      nil, // Will be replaced when service starts
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the session store and, when configured, the journal.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting event draw service...")

	if s.journalPath != "" {
		j, err := journal.Open(s.journalPath)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		s.journal = j
		q := queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
		s.records.Store(q)
		s.writer = worker.NewInMemoryWorker(q, j, worker.WithLogger(s.logger.Named("journal")))
		// the writer outlives ctx so Stop can drain it
		go s.writer.Run(context.WithoutCancel(ctx))
		s.logger.Info(ctx, "round journal enabled",
			logger.String("path", s.journalPath),
			logger.Int("queueSize", s.queueSize))
	}

	s.sessions = repository.NewMemoryStore(ctx,
		repository.WithMaxSessions(s.maxSessions),
		repository.WithIdleTTL(s.sessionTTL),
	)

	s.started = true
	s.logger.Info(ctx, "event draw service started",
		logger.String("preset", string(s.defaults.Preset)),
		logger.Int("maxSessions", s.maxSessions),
		logger.Int("maxPoolSize", s.maxPoolSize),
		logger.Int("maxCount", s.maxCount),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping event draw service...")

	if closer, ok := s.sessions.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	if s.journal != nil {
		_ = s.records.Swap(nil).Close()
		ctx, cancel := context.WithTimeout(context.Background(), journalShutdownTimeout)
		if err := s.writer.Shutdown(ctx); err != nil {
			s.logger.Error(ctx, "journal writer did not drain", logger.Error(err))
		}
		cancel()
		if err := s.journal.Close(); err != nil {
			s.logger.Error(context.Background(), "journal close failed", logger.Error(err))
		}
		s.journal = nil
		s.writer = nil
	}

	s.started = false
	s.logger.Info(context.Background(), "event draw service stopped")
}

func (s *Service) store() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.sessions, nil
}

func (s *Service) session(ctx context.Context, id string) (*repository.Session, error) {
	st, err := s.store()
	if err != nil {
		return nil, err
	}
	return st.Get(ctx, id)
}

// resolve builds session parameters from a request. Scenario wins over
// preset; an unknown preset falls back to the service defaults.
func (s *Service) resolve(ctx context.Context, req types.CreateSessionRequest) (tuning.Config, error) {
	cfg := s.defaults
	switch {
	case req.Scenario != "":
		c, err := tuning.ApplyScenario(req.Scenario)
		if err != nil {
			return tuning.Config{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		cfg = c
	case req.Preset != "":
		c, err := tuning.Resolve(req.Preset)
		if err != nil {
			s.logger.Warn(ctx, "unknown preset; using defaults",
				logger.String("preset", req.Preset),
				logger.String("fallback", string(s.defaults.Preset)))
			break
		}
		cfg = c
	}

	o, err := tuning.OverridesFromMap(req.Overrides)
	if err != nil {
		return tuning.Config{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return tuning.Merge(cfg, o), nil
}

func (s *Service) checkPool(pool []string) error {
	if len(pool) > s.maxPoolSize {
		return fmt.Errorf("%w: pool of %d exceeds limit %d", ErrInvalidInput, len(pool), s.maxPoolSize)
	}
	return nil
}

// CreateSession registers a new session with its own selector.
func (s *Service) CreateSession(ctx context.Context, req types.CreateSessionRequest) (types.SessionInfo, error) {
	st, err := s.store()
	if err != nil {
		return types.SessionInfo{}, err
	}
	if err := s.checkPool(req.Pool); err != nil {
		return types.SessionInfo{}, err
	}
	cfg, err := s.resolve(ctx, req)
	if err != nil {
		return types.SessionInfo{}, err
	}
	return s.register(ctx, st, cfg, req.Scenario, req.Pool)
}

// ImportSession registers a session from an exported configuration snapshot.
func (s *Service) ImportSession(ctx context.Context, data []byte) (types.SessionInfo, error) {
	st, err := s.store()
	if err != nil {
		return types.SessionInfo{}, err
	}
	snap, err := tuning.DecodeSnapshot(data)
	if err != nil {
		return types.SessionInfo{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	cfg, err := tuning.Import(snap)
	if err != nil {
		return types.SessionInfo{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return s.register(ctx, st, cfg, "", nil)
}

func (s *Service) register(ctx context.Context, st repository.Store, cfg tuning.Config, scenario string, pool []string) (types.SessionInfo, error) {
	sess := &repository.Session{Preset: cfg.Preset, Scenario: scenario}

	opts := []selector.Option{
		selector.WithLogger(s.logger.Named("selector")),
		selector.WithClock(s.now),
		// IDs are assigned before the first draw can run
		selector.WithRoundHook(func(ctx context.Context, r model.Round) { s.record(ctx, sess.ID, r) }),
	}
	if s.seed != 0 {
		opts = append(opts, selector.WithSeed(s.seed+s.created.Add(1)-1))
	}
	sess.Selector = selector.New(cfg, opts...)

	if err := st.Create(ctx, sess); err != nil {
		return types.SessionInfo{}, err
	}
	if len(pool) > 0 {
		sess.Selector.InitializeWeights(ctx, pool)
	}

	s.logger.Info(ctx, "session created",
		logger.String("session", sess.ID),
		logger.String("preset", string(cfg.Preset)),
		logger.String("scenario", scenario),
	)
	return info(sess), nil
}

func info(sess *repository.Session) types.SessionInfo {
	return types.SessionInfo{
		ID:        sess.ID,
		Preset:    string(sess.Preset),
		Scenario:  sess.Scenario,
		Config:    sess.Selector.Config(),
		Stats:     sess.Selector.Stats(),
		CreatedAt: sess.CreatedAt,
		LastUsed:  sess.LastUsed(),
	}
}

// Session returns a session's description and statistics.
func (s *Service) Session(ctx context.Context, id string) (types.SessionInfo, error) {
	sess, err := s.session(ctx, id)
	if err != nil {
		return types.SessionInfo{}, err
	}
	return info(sess), nil
}

// ListSessions describes every live session.
func (s *Service) ListSessions(ctx context.Context) ([]types.SessionInfo, error) {
	st, err := s.store()
	if err != nil {
		return nil, err
	}
	list := st.List(ctx)
	out := make([]types.SessionInfo, 0, len(list))
	for _, sess := range list {
		out = append(out, info(sess))
	}
	return out, nil
}

// DeleteSession removes a session. Journaled rounds are kept.
func (s *Service) DeleteSession(ctx context.Context, id string) error {
	st, err := s.store()
	if err != nil {
		return err
	}
	if err := st.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info(ctx, "session deleted", logger.String("session", id))
	return nil
}

// Draw runs one selection round. An empty pool or a non-positive count is not
// an error: the result is empty and the session is unchanged.
func (s *Service) Draw(ctx context.Context, id string, req types.DrawRequest) (types.DrawResult, error) {
	if err := s.checkPool(req.Pool); err != nil {
		return types.DrawResult{}, err
	}
	if req.Count > s.maxCount {
		return types.DrawResult{}, fmt.Errorf("%w: count %d exceeds limit %d", ErrInvalidInput, req.Count, s.maxCount)
	}
	sess, err := s.session(ctx, id)
	if err != nil {
		return types.DrawResult{}, err
	}

	round, ok := sess.Selector.Draw(ctx, req.Pool, req.Count)
	stats := sess.Selector.Stats()
	if !ok {
		return types.DrawResult{SessionID: id, Round: stats.Rounds, Items: round.Items, Stats: stats}, nil
	}

	return types.DrawResult{SessionID: id, Round: round.Number, Items: round.Items, Stats: stats}, nil
}

// record queues a round for the journal. It runs under the session's selector
// lock so a session's rounds are queued in order. Failures never fail the draw.
func (s *Service) record(ctx context.Context, id string, round model.Round) {
	q := s.records.Load()
	if q == nil {
		return
	}
	if !q.Enqueue(ctx, queue.Record{SessionID: id, Round: round}) {
		metrics.RecordJournalDropped()
		s.logger.Warn(ctx, "journal queue full; round not journaled",
			logger.String("session", id), logger.Int("round", round.Number))
	}
}

// InitPool resets a session's weight table to pool.
func (s *Service) InitPool(ctx context.Context, id string, req types.InitRequest) (types.SessionInfo, error) {
	if len(req.Pool) == 0 {
		return types.SessionInfo{}, fmt.Errorf("%w: pool must not be empty", ErrInvalidInput)
	}
	if err := s.checkPool(req.Pool); err != nil {
		return types.SessionInfo{}, err
	}
	sess, err := s.session(ctx, id)
	if err != nil {
		return types.SessionInfo{}, err
	}
	sess.Selector.InitializeWeights(ctx, req.Pool)
	return info(sess), nil
}

// SetStrategy switches a session's strategy. Unknown names leave it unchanged
// and report Applied false.
func (s *Service) SetStrategy(ctx context.Context, id string, req types.StrategyRequest) (types.StrategyResult, error) {
	sess, err := s.session(ctx, id)
	if err != nil {
		return types.StrategyResult{}, err
	}
	applied := sess.Selector.SetStrategy(ctx, req.Strategy)
	return types.StrategyResult{Applied: applied, Stats: sess.Selector.Stats()}, nil
}

// Reset clears a session's selector state.
func (s *Service) Reset(ctx context.Context, id string) (types.SessionInfo, error) {
	sess, err := s.session(ctx, id)
	if err != nil {
		return types.SessionInfo{}, err
	}
	sess.Selector.Reset(ctx)
	return info(sess), nil
}

// Weights lists a session's tracked items by descending weight.
func (s *Service) Weights(ctx context.Context, id string) (types.WeightsResult, error) {
	sess, err := s.session(ctx, id)
	if err != nil {
		return types.WeightsResult{}, err
	}
	return types.WeightsResult{SessionID: id, Weights: sess.Selector.WeightInfo()}, nil
}

// ExportConfig captures a session's parameters as a snapshot.
func (s *Service) ExportConfig(ctx context.Context, id string) (tuning.Snapshot, error) {
	sess, err := s.session(ctx, id)
	if err != nil {
		return tuning.Snapshot{}, err
	}
	return tuning.Export(sess.Selector.Config(), s.now()), nil
}

// Journal returns a session's journaled rounds, newest first. Rounds queued
// before the call are written first. The call holds off Stop, so the writer
// cannot be torn down while it waits.
func (s *Service) Journal(ctx context.Context, id string, limit int) ([]journal.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return nil, ErrNotStarted
	}
	q := s.records.Load()
	if s.journal == nil || q == nil {
		return nil, ErrJournalDisabled
	}
	if err := q.Flush(ctx); err != nil {
		return nil, fmt.Errorf("flush journal queue: %w", err)
	}
	return s.journal.Rounds(ctx, id, limit)
}

// Catalog lists presets, scenarios, tunables and strategies.
func (s *Service) Catalog(_ context.Context) types.Catalog {
	names := tuning.StrategyNames()
	strategies := make([]string, len(names))
	for i, n := range names {
		strategies[i] = string(n)
	}
	return types.Catalog{
		Presets:    tuning.Presets(),
		Scenarios:  tuning.Scenarios(),
		Tunables:   tuning.Describe(),
		Strategies: strategies,
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":       s.started,
		"defaultPreset": string(s.defaults.Preset),
		"maxSessions":   s.maxSessions,
		"maxPoolSize":   s.maxPoolSize,
		"maxCount":      s.maxCount,
		"journal":       s.journalPath != "",
	}

	if s.started {
		active := s.sessions.Count(ctx)
		rounds := 0
		for _, sess := range s.sessions.List(ctx) {
			rounds += sess.Selector.Stats().Rounds
		}
		stats["activeSessions"] = active
		stats["liveRounds"] = rounds

		if q := s.records.Load(); s.journal != nil && q != nil {
			stats["journalQueue"] = q.Len(ctx)
			flushCtx, cancel := context.WithTimeout(ctx, statsFlushTimeout)
			if err := q.Flush(flushCtx); err == nil {
				if n, err := s.journal.Count(ctx); err == nil {
					stats["journaledRounds"] = n
				}
			}
			cancel()
		}

		metrics.UpdateActiveSessions(active)
	}

	return stats
}
