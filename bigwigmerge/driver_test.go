package bigwigmerge

import (
	"testing"

	"github.com/grailbio/bwmerge/bigwig"
	"github.com/grailbio/bwmerge/interval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReader is an in-memory bigwig.Reader: each chromosome's values are
// stored as a single block. A block's Offset is the index into the
// reader's own blockVals table, so BlockValues can look the values back up
// without any actual byte decoding.
type fakeReader struct {
	chroms []bigwig.ChromInfo
	values map[string][]bigwig.Interval // keyed by chromosome name

	blockVals [][]bigwig.Interval
}

func (f *fakeReader) Chromosomes() ([]bigwig.ChromInfo, error) { return f.chroms, nil }

func (f *fakeReader) OverlappingBlocks(chrom string, start, end uint32) ([]bigwig.BlockDescriptor, error) {
	vals, ok := f.values[chrom]
	if !ok || len(vals) == 0 {
		return nil, nil
	}
	f.blockVals = append(f.blockVals, vals)
	return []bigwig.BlockDescriptor{{Offset: uint64(len(f.blockVals) - 1)}}, nil
}

func (f *fakeReader) Cursor() (bigwig.ByteReader, error) { return &fakeCursor{}, nil }

func (f *fakeReader) BlockValues(r bigwig.ByteReader, block bigwig.BlockDescriptor) ([]bigwig.Interval, error) {
	return f.blockVals[block.Offset], nil
}

func (f *fakeReader) Endianness() bigwig.Endianness { return bigwig.LittleEndian }
func (f *fakeReader) Close() error                  { return nil }

// fakeCursor satisfies bigwig.ByteReader; fakeReader.BlockValues never
// actually reads through it, since it resolves values from its own table.
type fakeCursor struct{}

func (c *fakeCursor) Read(p []byte) (int, error)     { return 0, nil }
func (c *fakeCursor) Seek(int64, int) (int64, error) { return 0, nil }

func drainDriver(t *testing.T, d *Driver) []bigwig.ValueWithChrom {
	var out []bigwig.ValueWithChrom
	for d.Scan() {
		out = append(out, d.Interval())
	}
	require.NoError(t, d.Err())
	return out
}

func vwc(chrom string, start, end uint32, value float32) bigwig.ValueWithChrom {
	return bigwig.ValueWithChrom{Chrom: chrom, Interval: bigwig.Interval{Start: start, End: end, Value: value}}
}

func TestDriverOrdersChromosomesLexicographically(t *testing.T) {
	r := &fakeReader{
		chroms: []bigwig.ChromInfo{{Name: "chr2", Length: 100}, {Name: "chr1", Length: 100}},
		values: map[string][]bigwig.Interval{
			"chr1": {{Start: 0, End: 10, Value: 1}},
			"chr2": {{Start: 0, End: 10, Value: 2}},
		},
	}
	d := New([]bigwig.Reader{r}, nil)
	assert.Equal(t, []bigwig.ValueWithChrom{
		vwc("chr1", 0, 10, 1),
		vwc("chr2", 0, 10, 2),
	}, drainDriver(t, d))
}

func TestDriverSumsAcrossReaders(t *testing.T) {
	r1 := &fakeReader{
		chroms: []bigwig.ChromInfo{{Name: "chr1", Length: 100}},
		values: map[string][]bigwig.Interval{"chr1": {{Start: 0, End: 20, Value: 1}}},
	}
	r2 := &fakeReader{
		chroms: []bigwig.ChromInfo{{Name: "chr1", Length: 100}},
		values: map[string][]bigwig.Interval{"chr1": {{Start: 10, End: 30, Value: 2}}},
	}
	d := New([]bigwig.Reader{r1, r2}, nil)
	assert.Equal(t, []bigwig.ValueWithChrom{
		vwc("chr1", 0, 10, 1),
		vwc("chr1", 10, 20, 3),
		vwc("chr1", 20, 30, 2),
	}, drainDriver(t, d))
}

func TestDriverDetectsMetadataConflict(t *testing.T) {
	r1 := &fakeReader{chroms: []bigwig.ChromInfo{{Name: "chr1", Length: 100}}}
	r2 := &fakeReader{chroms: []bigwig.ChromInfo{{Name: "chr1", Length: 200}}}
	d := New([]bigwig.Reader{r1, r2}, nil)
	assert.False(t, d.Scan())
	require.Error(t, d.Err())
	assert.Contains(t, d.Err().Error(), "MetadataConflict")
}

func TestDriverSkipsChromosomesOutsideRegion(t *testing.T) {
	r := &fakeReader{
		chroms: []bigwig.ChromInfo{{Name: "chr1", Length: 100}, {Name: "chr2", Length: 100}},
		values: map[string][]bigwig.Interval{
			"chr1": {{Start: 0, End: 10, Value: 1}},
			"chr2": {{Start: 0, End: 10, Value: 2}},
		},
	}
	region, err := interval.NewBEDUnionFromEntries([]interval.Entry{
		{ChrName: "chr1", Start0: 0, End: 10},
	})
	require.NoError(t, err)

	d := New([]bigwig.Reader{r}, &region)
	assert.Equal(t, []bigwig.ValueWithChrom{vwc("chr1", 0, 10, 1)}, drainDriver(t, d))
}

func TestDriverClipsIntervalToRegion(t *testing.T) {
	r := &fakeReader{
		chroms: []bigwig.ChromInfo{{Name: "chr1", Length: 100}},
		values: map[string][]bigwig.Interval{
			"chr1": {{Start: 0, End: 100, Value: 5}},
		},
	}
	region, err := interval.NewBEDUnionFromEntries([]interval.Entry{
		{ChrName: "chr1", Start0: 10, End: 20},
		{ChrName: "chr1", Start0: 50, End: 60},
	})
	require.NoError(t, err)

	d := New([]bigwig.Reader{r}, &region)
	assert.Equal(t, []bigwig.ValueWithChrom{
		vwc("chr1", 10, 20, 5),
		vwc("chr1", 50, 60, 5),
	}, drainDriver(t, d))
}
