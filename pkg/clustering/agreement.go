package clustering

import "sort"

// Agreement returns the Rand index of two partitions over the vertices both
// assign: the fraction of vertex pairs placed together in both or apart in both.
// It is invariant to cluster relabelling. Fewer than two common vertices yield 1.
func Agreement(a, b Assignment) float64 {
	common := make([]int, 0, len(a))
	for v := range a {
		if _, ok := b[v]; ok {
			common = append(common, v)
		}
	}
	sort.Ints(common)

	if len(common) < 2 {
		return 1
	}

	agree, total := 0, 0
	for i := 0; i < len(common); i++ {
		for j := i + 1; j < len(common); j++ {
			u, v := common[i], common[j]
			if (a[u] == a[v]) == (b[u] == b[v]) {
				agree++
			}
			total++
		}
	}

	return float64(agree) / float64(total)
}
