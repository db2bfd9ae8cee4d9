package selector

import "github.com/okian/eventdraw/internal/domain/model"

// recordRound appends chosen to the history, evicting the oldest rounds past
// HISTORY_LENGTH.
func (s *Selector) recordRound(chosen []string, poolSize int) {
	s.history = append(s.history, append([]string(nil), chosen...))
	if over := len(s.history) - s.cfg.HistoryLength; over > 0 {
		s.history = append([][]string(nil), s.history[over:]...)
	}

	s.rounds++
	s.last = model.Round{
		Number:   s.rounds,
		Items:    chosen,
		Strategy: string(s.strategy),
		PoolSize: poolSize,
		At:       s.now(),
	}
}

// updateStats recomputes the history-derived statistics so they always equal a
// full recompute over the current window.
func (s *Selector) updateStats(chosen []string) {
	s.totalSelections += len(chosen)

	seen := make(map[string]struct{})
	for _, round := range s.history {
		for _, item := range round {
			seen[item] = struct{}{}
		}
	}
	s.uniqueEvents = len(seen)

	s.averageRepeatRate = repeatRate(s.history)
}

// repeatRate is the percentage of items, over every adjacent pair of rounds,
// that also appeared in the preceding round. Zero without any comparison.
func repeatRate(history [][]string) float64 {
	repeats, compared := 0, 0
	for i := 1; i < len(history); i++ {
		prev := model.Round{Items: history[i-1]}
		cur := model.Round{Items: history[i]}
		repeats += cur.Overlap(prev)
		compared += len(cur.Items)
	}
	if compared == 0 {
		return 0
	}
	return float64(repeats) / float64(compared) * 100
}
