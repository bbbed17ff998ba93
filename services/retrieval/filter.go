package retrieval

// FilterByScore drops matches scoring below the threshold. Pure and
// order-preserving: the index's own ranking (including tie-breaking) is
// authoritative and must survive filtering untouched.
func FilterByScore(matches []Match, threshold float64) []Match {
	filtered := make([]Match, 0, len(matches))
	for _, m := range matches {
		if m.Score < threshold {
			continue
		}
		filtered = append(filtered, m)
	}
	return filtered
}

// ClampTopK bounds a caller-supplied result count to [1, max], applying
// def when the caller left it unset. Values above max are clamped
// silently so the index never sees an unbounded limit.
func ClampTopK(topK, def, max int) int {
	if topK <= 0 {
		topK = def
	}
	if topK > max {
		topK = max
	}
	return topK
}
