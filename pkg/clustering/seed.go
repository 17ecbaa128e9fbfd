package clustering

import "context"

// AdmissionPolicy decides whether a candidate vertex joins the trial group grown
// from a seed vertex, given both closed neighborhoods.
type AdmissionPolicy interface {
	Admit(seed, candidate VertexSet) bool
}

// ToleranceAdmission admits a candidate j when
//
//	|nb(i) ∩ nb(j)| >= |nb(j)| - floor(|nb(j)| / Divisor)
//
// so all but a 1/Divisor share of j's neighborhood must be shared with the seed.
// The divisor defaults to the cluster count; a larger divisor is stricter.
type ToleranceAdmission struct {
	Divisor int
}

func (p ToleranceAdmission) Admit(seed, candidate VertexSet) bool {
	divisor := max(p.Divisor, 1)
	size := len(candidate)
	return seed.IntersectionSize(candidate) >= size-size/divisor
}

// Placement is the outcome of offering a trial group to the slot table
type Placement int

const (
	// Dropped: no slot accepted the trial, its seed stays unclustered for now
	Dropped Placement = iota
	// Replaced: the trial was a superset of a slot and took its place
	Replaced
	// Subsumed: a slot already contained the whole trial
	Subsumed
	// Occupied: the trial filled an empty slot
	Occupied
)

func (p Placement) String() string {
	switch p {
	case Replaced:
		return "replaced"
	case Subsumed:
		return "subsumed"
	case Occupied:
		return "occupied"
	default:
		return "dropped"
	}
}

// matchSlot applies the per-slot rules in precedence order
// superset-replace > subset-discard > empty-fill. ok is false when no rule applies
// and the next slot should be tried.
func matchSlot(slot, trial VertexSet) (placement Placement, ok bool) {
	switch {
	case len(slot) > 0 && trial.IsSupersetOf(slot):
		return Replaced, true
	case len(slot) > 0 && slot.IsSupersetOf(trial):
		return Subsumed, true
	case len(slot) == 0:
		return Occupied, true
	}
	return Dropped, false
}

// SlotTable is the ordered list of at most K candidate groups built during seeding
type SlotTable struct {
	slots []VertexSet
}

// NewSlotTable creates k empty slots
func NewSlotTable(k int) *SlotTable {
	return &SlotTable{slots: make([]VertexSet, k)}
}

// Place offers trial to the slots in order 0..K-1; the first matching rule wins.
// The returned index is -1 when the trial was dropped. The table keeps its own copy
// of the trial, so vertices admitted to the trial after it was placed do not join
// the slot; a slot sharing the growing list would pick them up as well.
func (t *SlotTable) Place(trial VertexSet) (Placement, int) {
	for i, slot := range t.slots {
		placement, ok := matchSlot(slot, trial)
		if !ok {
			continue
		}
		if placement == Replaced || placement == Occupied {
			t.slots[i] = trial.Clone()
		}
		return placement, i
	}
	return Dropped, -1
}

// Slots returns copies of the current slot contents
func (t *SlotTable) Slots() []VertexSet {
	out := make([]VertexSet, len(t.slots))
	for i, s := range t.slots {
		out[i] = s.Clone()
	}
	return out
}

// Lookup returns the lowest-indexed slot holding v
func (t *SlotTable) Lookup(v int) (int, bool) {
	for i, s := range t.slots {
		if s.Contains(v) {
			return i, true
		}
	}
	return -1, false
}

// SeedResult is the partial clustering produced by the seed clusterer
type SeedResult struct {
	Slots      []VertexSet
	Assignment Assignment
	Pending    []int // ascending, unassigned vertices
	Placements map[Placement]int
}

// SeedClusters greedily groups vertices whose neighborhoods overlap enough.
//
// For each vertex i in ascending order a trial group {i} is grown with every later
// vertex j the policy admits. Each time a j is rejected the trial built so far is
// offered to the slot table. Vertices found in no slot are reported as pending.
// ctx is checked once per seed vertex.
func SeedClusters(ctx context.Context, nb Neighborhoods, k int, policy AdmissionPolicy) (*SeedResult, error) {
	n := len(nb)
	table := NewSlotTable(k)
	placements := make(map[Placement]int)

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		trial := VertexSet{i}
		for j := i + 1; j < n; j++ {
			if policy.Admit(nb[i], nb[j]) {
				trial = append(trial, j)
				continue
			}

			placement, _ := table.Place(trial)
			placements[placement]++
		}
	}

	result := &SeedResult{
		Slots:      table.Slots(),
		Assignment: make(Assignment, n),
		Pending:    make([]int, 0),
		Placements: placements,
	}

	for v := 0; v < n; v++ {
		if slot, ok := table.Lookup(v); ok {
			result.Assignment[v] = slot
		} else {
			result.Pending = append(result.Pending, v)
		}
	}

	return result, nil
}
