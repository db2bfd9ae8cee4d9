package selector

import (
	"context"
	"math"

	"github.com/okian/eventdraw/pkg/logger"
	"github.com/okian/eventdraw/pkg/metrics"
)

// updateWeights applies recovery, history penalties and streak suppression.
// It is a no-op until the first round has been recorded.
func (s *Selector) updateWeights(ctx context.Context) {
	if len(s.history) == 0 {
		return
	}

	s.recover()
	s.penalize()
	s.handleConsecutiveRepeats(ctx)

	s.weightAdjustments++
	metrics.RecordWeightAdjustment()
}

// recover moves every weight a Recovery fraction of the way back to BASE_WEIGHT.
func (s *Selector) recover() {
	base := s.cfg.BaseWeight
	next := make(map[string]float64, len(s.weights))
	for item, w := range s.weights {
		next[item] = math.Min(w+(base-w)*s.effective.Recovery, base)
	}
	s.weights = next
}

// penalize walks the history window oldest first. The previous round (age 1)
// uses IMMEDIATE_PENALTY, older rounds RECENT_PENALTY, both scaled by
// decay^(age-1).
func (s *Selector) penalize() {
	window := s.history
	if n := s.cfg.HistoryLength; len(window) > n {
		window = window[len(window)-n:]
	}

	for i, round := range window {
		age := len(window) - i
		ageFactor := math.Pow(s.effective.Decay, float64(age-1))
		rate := s.cfg.RecentPenalty
		if age == 1 {
			rate = s.cfg.ImmediatePenalty
		}
		penalty := rate * ageFactor

		for _, item := range round {
			w, ok := s.weights[item]
			if !ok {
				continue
			}
			s.weights[item] = math.Max(w*(1-penalty), s.cfg.MinWeight)
		}
	}
}

// handleConsecutiveRepeats recomputes every tracked item's streak over the
// last CRITICAL_REPEAT_THRESHOLD rounds and suppresses items whose streak
// reaches the threshold down to the severe floor.
func (s *Selector) handleConsecutiveRepeats(ctx context.Context) {
	threshold := s.cfg.CriticalRepeatThreshold
	recent := s.history
	if len(recent) > threshold {
		recent = recent[len(recent)-threshold:]
	}

	sets := make([]map[string]struct{}, len(recent))
	for i, round := range recent {
		sets[i] = make(map[string]struct{}, len(round))
		for _, item := range round {
			sets[i][item] = struct{}{}
		}
	}

	streaks := make(map[string]int)
	for item, w := range s.weights {
		streak := 0
		for i := len(sets) - 1; i >= 0; i-- {
			if _, ok := sets[i][item]; !ok {
				break
			}
			streak++
		}
		if streak == 0 {
			continue
		}
		streaks[item] = streak

		if streak >= threshold {
			severe := math.Pow(severePenaltyBase, float64(streak))
			s.weights[item] = math.Max(w*severe, s.cfg.SevereFloor())
			metrics.RecordSeverePenalty()
			s.log.Debug(ctx, "consecutive repeat suppressed",
				logger.String("item", item), logger.Int("streak", streak))
		}
	}
	s.consecutive = streaks
}
