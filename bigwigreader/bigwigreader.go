// Package bigwigreader implements bigwig.Reader against a small
// self-describing binary container (bigwig-lite): a chromosome table, a
// block table keyed by chromosome and genomic range, and gzip-compressed
// value blocks. Decoding the real bigWig binary format is an external
// collaborator's concern, surfaced only via the reader interface; this
// package exists so the merge pipeline has a genuine, round-trippable
// on-disk reader to build and test against, in the spirit of
// encoding/bam's .gbai side-index (magic bytes, a table of fixed-width
// entries, gzip-compressed payload).
package bigwigreader

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/bwmerge/bigwig"
	"github.com/klauspost/compress/gzip"
	errorspkg "github.com/pkg/errors"
)

var magic = [8]byte{'B', 'W', 'G', 'L', 0x1, 0xf1, 0x78, 0x5c}

// blockEntry is one row of the on-disk block table: a byte range on disk
// containing values for [Start, End) on the chromosome named at ChromIdx.
type blockEntry struct {
	ChromIdx uint32
	Start    uint32
	End      uint32
	Offset   uint64
	Size     uint64
}

// blockEntrySize is sizeof(blockEntry) when encoded via binary.Write: three
// uint32 fields and two uint64 fields, 4+4+4+8+8 bytes.
const blockEntrySize = 28

// Reader implements bigwig.Reader by reading a bigwig-lite file through a
// single *os.File handle.
type Reader struct {
	f          *os.File
	endianness bigwig.Endianness
	byteOrder  binary.ByteOrder
	chroms     []bigwig.ChromInfo
	blocks     []blockEntry
}

// Open opens path as a bigwig-lite file, reading and validating its
// header, chromosome table, and block table up front; block payloads are
// decoded lazily by BlockValues.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.E(err, "bigwigreader: opening", path)
	}
	r := &Reader{f: f}
	if err := r.readHeader(); err != nil {
		f.Close()
		return nil, errors.E(err, "bigwigreader: reading header", path)
	}
	return r, nil
}

func (r *Reader) readHeader() error {
	var hdr [9]byte
	if _, err := io.ReadFull(r.f, hdr[:]); err != nil {
		return errorspkg.Wrap(err, "reading magic/endianness")
	}
	if !bytes.Equal(hdr[:8], magic[:]) {
		return errorspkg.New("bad magic: not a bigwig-lite file")
	}
	switch hdr[8] {
	case 0:
		r.endianness = bigwig.LittleEndian
		r.byteOrder = binary.LittleEndian
	case 1:
		r.endianness = bigwig.BigEndian
		r.byteOrder = binary.BigEndian
	default:
		return errorspkg.Errorf("bad endianness tag %d", hdr[8])
	}

	var chromCount uint32
	if err := binary.Read(r.f, r.byteOrder, &chromCount); err != nil {
		return errorspkg.Wrap(err, "reading chromosome count")
	}
	r.chroms = make([]bigwig.ChromInfo, chromCount)
	for i := range r.chroms {
		name, err := r.readString()
		if err != nil {
			return errorspkg.Wrap(err, "reading chromosome name")
		}
		var length uint32
		if err := binary.Read(r.f, r.byteOrder, &length); err != nil {
			return errorspkg.Wrap(err, "reading chromosome length")
		}
		r.chroms[i] = bigwig.ChromInfo{Name: name, Length: length}
	}

	var blockCount uint32
	if err := binary.Read(r.f, r.byteOrder, &blockCount); err != nil {
		return errorspkg.Wrap(err, "reading block count")
	}
	r.blocks = make([]blockEntry, blockCount)
	for i := range r.blocks {
		if err := binary.Read(r.f, r.byteOrder, &r.blocks[i]); err != nil {
			return errorspkg.Wrap(err, "reading block table entry")
		}
	}
	return nil
}

func (r *Reader) readString() (string, error) {
	var n uint16
	if err := binary.Read(r.f, r.byteOrder, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.f, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// Chromosomes implements bigwig.Reader.
func (r *Reader) Chromosomes() ([]bigwig.ChromInfo, error) {
	return r.chroms, nil
}

// OverlappingBlocks implements bigwig.Reader. The block table is small
// enough (one entry per stored block, not per value) to scan linearly;
// real bigWig files instead walk an R-tree, which is exactly the part of
// the format this reader does not attempt to reproduce.
func (r *Reader) OverlappingBlocks(chrom string, start, end uint32) ([]bigwig.BlockDescriptor, error) {
	idx := -1
	for i, c := range r.chroms {
		if c.Name == chrom {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, nil
	}
	var out []bigwig.BlockDescriptor
	for _, b := range r.blocks {
		if int(b.ChromIdx) != idx {
			continue
		}
		// start is 1-based, so the block overlaps when b.End > start-1.
		if b.Start < end && start <= b.End {
			out = append(out, bigwig.BlockDescriptor{Offset: b.Offset, Size: b.Size})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	return out, nil
}

// Cursor implements bigwig.Reader, returning the reader's own file handle;
// bigwig-lite files are read sequentially block by block so one shared
// handle, reseeked per block, is all BlockValues needs.
func (r *Reader) Cursor() (bigwig.ByteReader, error) {
	return r.f, nil
}

// BlockValues implements bigwig.Reader: it seeks r to block.Offset, reads
// block.Size bytes of gzip-compressed (start, end, value) triples, and
// decodes them in the file's declared byte order.
func (r *Reader) BlockValues(br bigwig.ByteReader, block bigwig.BlockDescriptor) ([]bigwig.Interval, error) {
	if _, err := br.Seek(int64(block.Offset), io.SeekStart); err != nil {
		return nil, errorspkg.Wrap(err, "seeking to block")
	}
	raw := make([]byte, block.Size)
	if _, err := io.ReadFull(br, raw); err != nil {
		return nil, errorspkg.Wrap(err, "reading block bytes")
	}
	gz, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, errorspkg.Wrap(err, "opening block gzip stream")
	}
	defer gz.Close()
	var vals []bigwig.Interval
	for {
		var rec struct {
			Start uint32
			End   uint32
			Value float32
		}
		if err := binary.Read(gz, r.byteOrder, &rec); err != nil {
			if err == io.EOF {
				break
			}
			return nil, errorspkg.Wrap(err, "decoding value record")
		}
		vals = append(vals, bigwig.Interval{Start: rec.Start, End: rec.End, Value: rec.Value})
	}
	return vals, nil
}

// Endianness implements bigwig.Reader.
func (r *Reader) Endianness() bigwig.Endianness { return r.endianness }

// Close implements bigwig.Reader.
func (r *Reader) Close() error {
	if err := r.f.Close(); err != nil {
		return errors.E(err, "bigwigreader: closing", fmt.Sprintf("fd %v", r.f.Name()))
	}
	return nil
}
