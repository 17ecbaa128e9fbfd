package clustering

import "context"

// resolveVertex votes over the labels already known in v's closed neighborhood.
// resolved is false when no neighbor carries a label yet; otherwise label is the
// most frequent one, ties going to the lowest cluster index.
func resolveVertex(v int, nb Neighborhoods, assignment Assignment) (label int, resolved bool) {
	votes := make(map[int]int)
	for _, u := range nb[v] {
		if c, ok := assignment[u]; ok {
			votes[c]++
		}
	}

	if len(votes) == 0 {
		return 0, false
	}

	best, bestVotes := -1, 0
	for c, count := range votes {
		if count > bestVotes || (count == bestVotes && c < best) {
			best, bestVotes = c, count
		}
	}
	return best, true
}

// PropagateResiduals assigns every pending vertex by neighbor majority vote,
// iterating rounds over the worklist until it is empty. Labels assigned earlier in
// a round are visible to later vertices of the same round. A round that assigns
// nothing fails with a *ConvergenceError instead of looping forever.
//
// assignment is mutated in place; the number of rounds is returned. ctx is checked
// before every round.
func PropagateResiduals(ctx context.Context, nb Neighborhoods, assignment Assignment, pending []int) (int, error) {
	worklist := make([]int, len(pending))
	copy(worklist, pending)

	rounds := 0
	for len(worklist) > 0 {
		if err := ctx.Err(); err != nil {
			return rounds, err
		}
		rounds++
		next := worklist[:0:0]

		for _, v := range worklist {
			label, resolved := resolveVertex(v, nb, assignment)
			if !resolved {
				next = append(next, v)
				continue
			}
			assignment[v] = label
		}

		if len(next) == len(worklist) {
			return rounds, &ConvergenceError{
				Round:    rounds,
				Pending:  next,
				Assigned: len(pending) - len(next),
			}
		}
		worklist = next
	}

	return rounds, nil
}
