package chunk

// Reconcile compares a freshly computed chunk list against the previous
// one and returns the merged list plus the indices that must re-render.
//
// A chunk keeps its previous identity only while the prefix matches: on
// the first content mismatch every later index is treated as changed,
// because an upstream mismatch means downstream boundaries may have
// shifted. The final chunk is always provisional (it may still be
// growing) and is never reused.
func Reconcile(prev, next []string) (merged []string, changed []int) {
	merged = make([]string, len(next))
	changed = make([]int, 0, len(next))

	stable := true
	for i := range next {
		if stable && i < len(next)-1 && i < len(prev) && prev[i] == next[i] {
			merged[i] = prev[i]
			continue
		}
		stable = false
		merged[i] = next[i]
		changed = append(changed, i)
	}
	return merged, changed
}
