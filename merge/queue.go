package merge

import "github.com/grailbio/bwmerge/bigwig"

// queue is the merge queue: an ordered, non-overlapping, start-sorted
// sequence of pending intervals awaiting emission. After any operation, for
// all adjacent q.items[i], q.items[i+1]: q.items[i].End <= q.items[i+1].Start.
type queue struct {
	items []bigwig.Interval
}

// insert places nv into the queue, splitting it against any queue entries it
// overlaps and re-driving on the resulting overhang until the incoming
// interval (or its last overhang) has been fully absorbed. This always
// terminates: each successive overhang's Start is strictly greater than the
// previous round's, so the queue scan it triggers starts further right every
// time.
func (q *queue) insert(nv bigwig.Interval) {
	for {
		if len(q.items) == 0 || q.items[len(q.items)-1].End <= nv.Start {
			// Insert-disjoint: nv starts at or after the tail.
			q.items = append(q.items, nv)
			return
		}
		overhang, hasOverhang := q.insertOverlapping(nv)
		if !hasOverhang {
			return
		}
		nv = overhang
	}
}

// insertOverlapping handles the three subcases of an overlapping insert: it
// scans forward for the first queue element overlapping nv (or the slot
// immediately before which nv belongs, if none overlaps), and on overlap
// calls the Splitter exactly once, writing its results back into the queue.
// The second return value reports whether an overhang remains to be
// reinserted.
func (q *queue) insertOverlapping(nv bigwig.Interval) (bigwig.Interval, bool) {
	for idx := 0; idx < len(q.items); idx++ {
		queued := q.items[idx]
		if nv.End <= queued.Start {
			// Pure insert before q[idx]; no overlap with anything.
			q.items = insertAt(q.items, idx, nv)
			return bigwig.Interval{}, false
		}
		if queued.End <= nv.Start {
			// Keep scanning: q[idx] ends before nv begins.
			continue
		}
		// Overlap: take q[idx] out, split, and write primary back in place.
		result := Split(queued, nv)
		q.items[idx] = result.Primary
		// third, then second, are inserted right after idx, in that order, so
		// that second ends up preceding third.
		if result.Third != nil {
			q.items = insertAt(q.items, idx+1, *result.Third)
		}
		if result.Second != nil {
			q.items = insertAt(q.items, idx+1, *result.Second)
		}
		if result.Overhang != nil {
			return *result.Overhang, true
		}
		return bigwig.Interval{}, false
	}
	// Unreachable: insert is only called with nv.Start < tail.End, so the scan
	// above must either find an insertion point or an overlapping entry by
	// the time it reaches the last element.
	panic("merge: queue invariant violated, no overlap or insertion point found")
}

// drainSafe removes and returns the maximal prefix of the queue whose
// entries can no longer be modified by future insertions, i.e. those with
// End <= frontier (the safety frontier below which no future source pull
// can land).
func (q *queue) drainSafe(frontier uint32) []bigwig.Interval {
	i := 0
	for i < len(q.items) && q.items[i].End <= frontier {
		i++
	}
	if i == 0 {
		return nil
	}
	drained := append([]bigwig.Interval(nil), q.items[:i]...)
	q.items = q.items[i:]
	return drained
}

// drainAll removes and returns every remaining queue entry, used once all
// sources are exhausted.
func (q *queue) drainAll() []bigwig.Interval {
	drained := q.items
	q.items = nil
	return drained
}

// insertAt inserts v at position idx in items, shifting later elements right.
func insertAt(items []bigwig.Interval, idx int, v bigwig.Interval) []bigwig.Interval {
	items = append(items, bigwig.Interval{})
	copy(items[idx+1:], items[idx:])
	items[idx] = v
	return items
}
