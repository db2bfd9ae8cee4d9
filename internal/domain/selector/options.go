package selector

import (
	"context"
	"time"

	"github.com/okian/eventdraw/internal/domain/model"
	"github.com/okian/eventdraw/pkg/logger"
)

// Option applies a configuration option to the Selector.
type Option func(*Selector)

// WithLogger sets the logger used for warnings and round summaries.
func WithLogger(l logger.Logger) Option {
	return func(s *Selector) {
		if l != nil {
			s.log = l
		}
	}
}

// WithSource sets the random source.
func WithSource(src Source) Option {
	return func(s *Selector) {
		if src != nil {
			s.src = src
		}
	}
}

// WithSeed makes sampling replicable. A zero seed keeps the random source.
func WithSeed(seed uint64) Option {
	return func(s *Selector) {
		if seed != 0 {
			s.src = NewSeededSource(seed)
		}
	}
}

// WithClock sets the time source stamped on rounds.
func WithClock(now func() time.Time) Option {
	return func(s *Selector) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRoundHook registers fn to receive every recorded round. fn runs while
// the selector is locked, so rounds arrive in order and fn must not block or
// call back into the selector.
func WithRoundHook(fn func(context.Context, model.Round)) Option {
	return func(s *Selector) {
		s.onRound = fn
	}
}
