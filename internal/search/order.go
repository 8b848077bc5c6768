// Package search manages the result views of the resume and vacancy pages:
// relevance ordering, cached snapshots, pagination and dropping of stale or
// orphaned responses.
package search

import "sort"

// Scored is a result record carrying a relevance score.
type Scored interface {
	GetScore() float64
}

// Ordered returns items sorted by descending score when any score is positive,
// otherwise in source order. Ties keep source order. items is not modified.
func Ordered[T Scored](items []T) []T {
	out := make([]T, len(items))
	copy(out, items)

	ranked := false
	for _, it := range out {
		if it.GetScore() > 0 {
			ranked = true
			break
		}
	}
	if !ranked {
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].GetScore() > out[j].GetScore()
	})
	return out
}
