// Package model contains domain models passed between layers.
package model

import "time"

// Round is one completed selection: the items chosen together, in pick order.
type Round struct {
	Number   int       // 1-based round counter of the owning selector
	Items    []string  // chosen items, no duplicates
	Strategy string    // strategy name in force when the round was drawn
	PoolSize int       // distinct candidates offered
	At       time.Time // completion time
}

// Contains reports whether item was chosen in r.
func (r Round) Contains(item string) bool {
	for _, it := range r.Items {
		if it == item {
			return true
		}
	}
	return false
}

// Overlap counts the items of r that also appear in prev.
func (r Round) Overlap(prev Round) int {
	seen := make(map[string]struct{}, len(prev.Items))
	for _, it := range prev.Items {
		seen[it] = struct{}{}
	}
	n := 0
	for _, it := range r.Items {
		if _, ok := seen[it]; ok {
			n++
		}
	}
	return n
}
