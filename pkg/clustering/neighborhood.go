package clustering

import "sort"

// VertexSet is a set of vertex identifiers kept in ascending order
type VertexSet []int

// Contains reports whether v is a member of s
func (s VertexSet) Contains(v int) bool {
	i := sort.SearchInts(s, v)
	return i < len(s) && s[i] == v
}

// IntersectionSize returns |s ∩ o| with a linear merge
func (s VertexSet) IntersectionSize(o VertexSet) int {
	count := 0
	i, j := 0, 0
	for i < len(s) && j < len(o) {
		switch {
		case s[i] == o[j]:
			count++
			i++
			j++
		case s[i] < o[j]:
			i++
		default:
			j++
		}
	}
	return count
}

// IsSupersetOf reports whether every member of o is in s. Every set is a superset
// of the empty set and of itself.
func (s VertexSet) IsSupersetOf(o VertexSet) bool {
	if len(o) > len(s) {
		return false
	}
	return s.IntersectionSize(o) == len(o)
}

// Clone returns an independent copy of s
func (s VertexSet) Clone() VertexSet {
	if s == nil {
		return nil
	}
	out := make(VertexSet, len(s))
	copy(out, s)
	return out
}

// Neighborhoods holds the closed neighborhood of every vertex, indexed by vertex
type Neighborhoods []VertexSet

// ClosedNeighborhoods derives nb(v) = {u : d(v,u) <= 1} for every vertex. Each set
// contains v itself since the diagonal is zero.
func ClosedNeighborhoods(dm *DistanceMatrix) Neighborhoods {
	n := dm.Size()
	nb := make(Neighborhoods, n)

	for v := 0; v < n; v++ {
		set := make(VertexSet, 0)
		for u := 0; u < n; u++ {
			if dm.At(v, u) <= 1 {
				set = append(set, u)
			}
		}
		nb[v] = set
	}

	return nb
}
