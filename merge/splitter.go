package merge

import (
	"fmt"

	"github.com/grailbio/bwmerge/bigwig"
)

// SplitResult is the output of the pairwise splitter: a primary interval
// that is always present, up to two further continuations already known
// not to overlap anything else in the region, and an optional overhang —
// the unreconciled tail of the later interval that must be reinserted into
// the queue and may itself split further.
type SplitResult struct {
	Primary  bigwig.Interval
	Second   *bigwig.Interval
	Third    *bigwig.Interval
	Overhang *bigwig.Interval
}

// Split combines two overlapping intervals, one and two, summing their
// values in the region they share and absorbing zero-valued regions that are
// fully dominated by an adjacent or enclosing non-zero region. one.End >
// two.Start is required; Split panics otherwise, since a disjoint pair
// indicates a caller bug rather than a data error. Callers are responsible
// for routing genuinely disjoint pairs around Split entirely (see queue.go).
//
// The case analysis below is keyed on the sign of one.Start-two.Start and
// one.End-two.End, covering every relative placement of two overlapping
// intervals.
func Split(one, two bigwig.Interval) SplitResult {
	if one.End <= two.Start {
		panic(fmt.Sprintf("merge: Split called with non-overlapping intervals %v, %v", one, two))
	}
	switch {
	case one.Start == two.Start:
		return splitSameStart(one, two)
	case one.Start < two.Start:
		return splitOneFirst(one, two)
	default:
		return splitTwoFirst(one, two)
	}
}

// splitSameStart handles one.Start == two.Start (table rows 1-4).
func splitSameStart(one, two bigwig.Interval) SplitResult {
	switch {
	case one.End == two.End:
		// |---|
		// |---|
		return SplitResult{Primary: sum(one.Start, one.End, one, two)}
	case one.End < two.End:
		// |--|
		// |---|
		overhang := bigwig.Interval{Start: one.End, End: two.End, Value: two.Value}
		return SplitResult{
			Primary:  sum(one.Start, one.End, one, two),
			Overhang: &overhang,
		}
	default:
		// |---|
		// |--|
		if two.Value == 0 {
			return SplitResult{Primary: one}
		}
		second := bigwig.Interval{Start: two.End, End: one.End, Value: one.Value}
		return SplitResult{
			Primary: sum(two.Start, two.End, one, two),
			Second:  &second,
		}
	}
}

// splitOneFirst handles one.Start < two.Start (table rows 5-12).
func splitOneFirst(one, two bigwig.Interval) SplitResult {
	switch {
	case one.End == two.End:
		// |---|
		//  |--|
		if two.Value == 0 {
			return SplitResult{Primary: one}
		}
		second := sum(two.Start, two.End, one, two)
		return SplitResult{
			Primary: bigwig.Interval{Start: one.Start, End: two.Start, Value: one.Value},
			Second:  &second,
		}
	case one.End < two.End:
		// |---|
		//  |---|
		switch {
		case one.Value == 0 && two.Value == 0:
			overhang := bigwig.Interval{Start: one.End, End: two.End, Value: 0}
			return SplitResult{Primary: one, Overhang: &overhang}
		case one.Value == 0:
			second := bigwig.Interval{Start: two.Start, End: one.End, Value: two.Value}
			overhang := bigwig.Interval{Start: one.End, End: two.End, Value: two.Value}
			return SplitResult{
				Primary:  bigwig.Interval{Start: one.Start, End: two.Start, Value: 0},
				Second:   &second,
				Overhang: &overhang,
			}
		case two.Value == 0:
			overhang := bigwig.Interval{Start: one.End, End: two.End, Value: 0}
			return SplitResult{Primary: one, Overhang: &overhang}
		default:
			second := sum(two.Start, one.End, one, two)
			overhang := bigwig.Interval{Start: one.End, End: two.End, Value: two.Value}
			return SplitResult{
				Primary:  bigwig.Interval{Start: one.Start, End: two.Start, Value: one.Value},
				Second:   &second,
				Overhang: &overhang,
			}
		}
	default:
		// |----|
		//  |--|
		if two.Value == 0 {
			return SplitResult{Primary: one}
		}
		second := sum(two.Start, two.End, one, two)
		third := bigwig.Interval{Start: two.End, End: one.End, Value: one.Value}
		return SplitResult{
			Primary: bigwig.Interval{Start: one.Start, End: two.Start, Value: one.Value},
			Second:  &second,
			Third:   &third,
		}
	}
}

// splitTwoFirst handles one.Start > two.Start (table rows 13-20).
func splitTwoFirst(one, two bigwig.Interval) SplitResult {
	switch {
	case one.End == two.End:
		//  |--|
		// |---|
		if one.Value == 0 {
			return SplitResult{Primary: two}
		}
		second := sum(one.Start, one.End, one, two)
		return SplitResult{
			Primary: bigwig.Interval{Start: two.Start, End: one.Start, Value: two.Value},
			Second:  &second,
		}
	case one.End < two.End:
		//  |--|
		// |----|
		if one.Value == 0 {
			return SplitResult{Primary: two}
		}
		second := sum(one.Start, one.End, one, two)
		overhang := bigwig.Interval{Start: one.End, End: two.End, Value: two.Value}
		return SplitResult{
			Primary:  bigwig.Interval{Start: two.Start, End: one.Start, Value: two.Value},
			Second:   &second,
			Overhang: &overhang,
		}
	default:
		//  |---|
		// |---|
		switch {
		case one.Value == 0 && two.Value == 0:
			return SplitResult{Primary: bigwig.Interval{Start: two.Start, End: one.End, Value: 0}}
		case one.Value == 0:
			second := bigwig.Interval{Start: two.End, End: one.End, Value: one.Value}
			return SplitResult{Primary: two, Second: &second}
		case two.Value == 0:
			second := bigwig.Interval{Start: one.Start, End: one.End, Value: one.Value}
			return SplitResult{
				Primary: bigwig.Interval{Start: two.Start, End: one.Start, Value: 0},
				Second:  &second,
			}
		default:
			second := sum(one.Start, two.End, one, two)
			third := bigwig.Interval{Start: two.End, End: one.End, Value: one.Value}
			return SplitResult{
				Primary: bigwig.Interval{Start: two.Start, End: one.Start, Value: two.Value},
				Second:  &second,
				Third:   &third,
			}
		}
	}
}

// sum builds the [start, end) interval carrying one.Value + two.Value.
func sum(start, end uint32, one, two bigwig.Interval) bigwig.Interval {
	return bigwig.Interval{Start: start, End: end, Value: one.Value + two.Value}
}
