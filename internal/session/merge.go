package session

import "sort"

// #region max-merges
// MaxConfidence is the monotonic confidence merge: the session floor
// never drops once raised.
func MaxConfidence(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// MaxMode is the monotonic mode merge under none < cautious < aggressive.
func MaxMode(a, b Mode) Mode {
	if a > b {
		return a
	}
	return b
}

// #endregion max-merges

// #region union
// UnionIntelligence merges src into a copy of dst per category and
// returns the merged map plus the number of values that were new.
// The union is commutative and idempotent: replaying the same turn or
// applying two turns in either order converges to the same set.
func UnionIntelligence(dst, src Intelligence) (Intelligence, int) {
	merged := dst.Clone()
	if merged == nil {
		merged = Intelligence{}
	}
	added := 0
	for cat, values := range src {
		for _, v := range values {
			if v == "" {
				continue
			}
			if !contains(merged[cat], v) {
				merged[cat] = append(merged[cat], v)
				added++
			}
		}
		sort.Strings(merged[cat])
	}
	return merged, added
}

// #endregion union

// #region helpers
// Clone deep-copies the intelligence map.
func (in Intelligence) Clone() Intelligence {
	if in == nil {
		return nil
	}
	out := make(Intelligence, len(in))
	for cat, values := range in {
		cp := make([]string, len(values))
		copy(cp, values)
		out[cat] = cp
	}
	return out
}

// Count returns the total number of accumulated values across categories.
func (in Intelligence) Count() int {
	n := 0
	for _, values := range in {
		n += len(values)
	}
	return n
}

// Has reports whether the category holds at least one value.
func (in Intelligence) Has(cat Category) bool {
	return len(in[cat]) > 0
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

// #endregion helpers

// #region apply-merge
// applyMerge is the single merge choke point for per-turn session
// mutation. Both store implementations route ApplyTurn through it.
func applyMerge(s Session, turn TurnUpdate) Session {
	s.TurnCount++
	s.LastConfidence = MaxConfidence(s.LastConfidence, turn.Confidence)
	s.LastMode = MaxMode(s.LastMode, turn.Mode)
	if turn.Category != "" {
		s.LastCategory = turn.Category
	}
	merged, added := UnionIntelligence(s.Intelligence, turn.Intelligence)
	s.Intelligence = merged
	if added > 0 {
		s.LastIntelTurn = s.TurnCount
	}
	return s
}

// #endregion apply-merge
