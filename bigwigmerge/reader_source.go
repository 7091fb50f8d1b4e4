package bigwigmerge

import (
	"github.com/grailbio/base/errors"
	"github.com/grailbio/bwmerge/bigwig"
	"github.com/grailbio/bwmerge/merge"
)

// readerSource adapts one bigwig.Reader's [1, length] interval stream on a
// single chromosome into a merge.Source: it fetches every overlapping block
// once, up front, decodes each in turn, and hands out the resulting
// intervals one at a time.
//
// Handling overlapping intervals within a single source is out of scope;
// readerSource does not sort or merge what a reader returns, it only
// flattens block boundaries.
type readerSource struct {
	r      bigwig.Reader
	cursor bigwig.ByteReader
	blocks []bigwig.BlockDescriptor
	bi     int

	pending []bigwig.Interval
	cur     bigwig.Interval
	err     error
}

// newReaderSource returns nil if r declares no data for chrom, so that
// callers can omit it from the Merger's source list entirely.
func newReaderSource(r bigwig.Reader, chrom string, length uint32) merge.Source {
	blocks, err := r.OverlappingBlocks(chrom, 1, length)
	if err != nil {
		return &readerSource{r: r, err: errors.E(err, "bigwigmerge: OverlappingBlocks", chrom)}
	}
	if len(blocks) == 0 {
		return nil
	}
	return &readerSource{r: r, blocks: blocks}
}

func (s *readerSource) Scan() bool {
	if s.err != nil {
		return false
	}
	for len(s.pending) == 0 {
		if s.bi >= len(s.blocks) {
			return false
		}
		if s.cursor == nil {
			cur, err := s.r.Cursor()
			if err != nil {
				s.err = errors.E(err, "bigwigmerge: opening cursor")
				return false
			}
			s.cursor = cur
		}
		block := s.blocks[s.bi]
		s.bi++
		vals, err := s.r.BlockValues(s.cursor, block)
		if err != nil {
			s.err = errors.E(err, "bigwigmerge: ReaderFailure decoding block")
			return false
		}
		s.pending = vals
	}
	s.cur, s.pending = s.pending[0], s.pending[1:]
	return true
}

func (s *readerSource) Interval() bigwig.Interval { return s.cur }
func (s *readerSource) Err() error                { return s.err }
