package selector

// sample draws up to count distinct candidates by roulette wheel over a
// working copy of the weights. Candidates without a tracked weight enter the
// copy at BASE_WEIGHT; the persisted table is never touched.
func (s *Selector) sample(candidates []string, count int) []string {
	working := make(map[string]float64, len(s.weights)+len(candidates))
	for item, w := range s.weights {
		working[item] = w
	}
	for _, item := range candidates {
		if _, ok := working[item]; !ok {
			working[item] = s.cfg.BaseWeight
		}
	}

	remaining := append([]string(nil), candidates...)
	chosen := make([]string, 0, min(count, len(remaining)))
	for i := 0; i < count && len(remaining) > 0; i++ {
		idx := s.pick(remaining, working)
		item := remaining[idx]
		chosen = append(chosen, item)
		remaining = append(remaining[:idx], remaining[idx+1:]...)
		working[item] *= intraRoundSuppression
	}
	return chosen
}

// pick returns the index of one item chosen with probability proportional to
// its weight. A zero total falls back to a uniform pick and floating-point
// drift past the last cumulative value falls back to the last item.
func (s *Selector) pick(items []string, weights map[string]float64) int {
	cumulative := make([]float64, len(items))
	total := 0.0
	for i, item := range items {
		total += weights[item]
		cumulative[i] = total
	}

	if total == 0 {
		return s.src.IntN(len(items))
	}

	r := s.src.Float64() * total
	for i, c := range cumulative {
		if r <= c {
			return i
		}
	}
	return len(items) - 1
}
