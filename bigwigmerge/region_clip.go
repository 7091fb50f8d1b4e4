package bigwigmerge

import (
	"github.com/grailbio/bwmerge/bigwig"
	"github.com/grailbio/bwmerge/interval"
)

// regionClip narrows a chromosome's merged interval stream to the portions
// overlapping a BED-derived region restriction, reusing this repository's
// existing interval package rather than inventing a new one — see
// interval.UnionScanner.
//
// Merged intervals arrive with non-decreasing End values, which is exactly
// what UnionScanner.Scan requires of its limit argument to advance
// correctly and efficiently.
type regionClip struct {
	scanner interval.UnionScanner
}

func newRegionClip(endpoints []interval.PosType) *regionClip {
	return &regionClip{scanner: interval.NewUnionScanner(endpoints)}
}

// clip returns the zero or more sub-intervals of v that overlap the
// region, in Start order. A single input interval can straddle several
// disjoint region segments (or a gap in the middle of one), so this calls
// the underlying scanner in a loop rather than once.
func (c *regionClip) clip(v bigwig.Interval) []bigwig.Interval {
	var out []bigwig.Interval
	for {
		var start, end interval.PosType
		if !c.scanner.Scan(&start, &end, interval.PosType(v.End)) {
			return out
		}
		s, e := uint32(start), uint32(end)
		if s < v.Start {
			s = v.Start
		}
		if e > v.End {
			e = v.End
		}
		if s < e {
			out = append(out, bigwig.Interval{Start: s, End: e, Value: v.Value})
		}
	}
}
