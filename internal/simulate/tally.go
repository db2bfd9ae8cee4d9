package simulate

import (
	"math"
	"math/rand/v2"

	"github.com/okian/eventdraw/internal/domain/model"
)

// tally accumulates pick counts and round-to-round repeats.
type tally struct {
	picks    map[string]int
	streaks  map[string]int
	longest  int
	prev     model.Round
	repeats  int
	compared int
}

func newTally(pool []string) *tally {
	picks := make(map[string]int, len(pool))
	for _, item := range pool {
		picks[item] = 0
	}
	return &tally{picks: picks, streaks: make(map[string]int)}
}

func (t *tally) add(items []string) {
	cur := model.Round{Items: items}
	if t.prev.Items != nil {
		t.repeats += cur.Overlap(t.prev)
		t.compared += len(items)
	}

	streaks := make(map[string]int, len(items))
	for _, item := range items {
		t.picks[item]++
		streaks[item] = t.streaks[item] + 1
		if streaks[item] > t.longest {
			t.longest = streaks[item]
		}
	}
	t.streaks = streaks
	t.prev = cur
}

func (t *tally) result() Result {
	r := Result{LongestStreak: t.longest, MinPicks: math.MaxInt}
	if t.compared > 0 {
		r.AverageRepeatRate = float64(t.repeats) / float64(t.compared) * 100
	}

	sum := 0
	for _, n := range t.picks {
		sum += n
		r.MaxPicks = max(r.MaxPicks, n)
		r.MinPicks = min(r.MinPicks, n)
	}
	if len(t.picks) == 0 {
		r.MinPicks = 0
		return r
	}

	mean := float64(sum) / float64(len(t.picks))
	if mean == 0 {
		return r
	}
	variance := 0.0
	for _, n := range t.picks {
		d := float64(n) - mean
		variance += d * d
	}
	variance /= float64(len(t.picks))
	r.CV = math.Sqrt(variance) / mean
	return r
}

func randomSeed() uint64 {
	return rand.Uint64()
}
