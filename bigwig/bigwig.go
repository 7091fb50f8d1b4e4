// Package bigwig defines the data model shared by the bigWig merge tools in
// this repository: half-open value intervals, chromosome metadata, and the
// reader interface that the merge core (package merge) and the chromosome
// driver (package bigwigmerge) consume without depending on any concrete
// bigWig decoder.
package bigwig

import "fmt"

// Interval is a half-open [Start, End) genomic interval carrying a single
// floating-point value. Start and End are 0-based, Start < End.
//
// Interval is plain data; callers copy it freely.
type Interval struct {
	Start uint32
	End   uint32
	Value float32
}

// Len returns End - Start.
func (iv Interval) Len() uint32 { return iv.End - iv.Start }

// Overlaps reports whether iv and other share any position.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start < other.End && other.Start < iv.End
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%d,%d)=%v", iv.Start, iv.End, iv.Value)
}

// ValueWithChrom is an Interval tagged with the chromosome it belongs to.
// This is the type emitted by the chromosome driver (bigwigmerge package)
// and consumed by a downstream bigWig/bedGraph writer.
type ValueWithChrom struct {
	Chrom string
	Interval
}

func (v ValueWithChrom) String() string {
	return fmt.Sprintf("%s:%s", v.Chrom, v.Interval.String())
}

// ChromInfo describes one chromosome: its name and declared length.
type ChromInfo struct {
	Name   string
	Length uint32
}

// Endianness identifies the byte order a bigWig file's header declares for
// its value blocks. Real bigWig files are little-endian on essentially all
// modern hardware, but the format reserves the right to be big-endian, and
// the reader resolves it once from the header and hands it to block
// decoders.
type Endianness int

const (
	// LittleEndian is the byte order used by essentially every bigWig file
	// encountered in practice.
	LittleEndian Endianness = iota
	// BigEndian is permitted by the format but rare.
	BigEndian
)

// BlockDescriptor locates one compressed (or raw) data block inside a bigWig
// file; it is opaque to the merge core, passed back into BlockValues
// unmodified.
type BlockDescriptor struct {
	Offset uint64
	Size   uint64
}

// Reader is the external collaborator this repository consumes rather than
// implements: a per-file bigWig reader. The merge core and chromosome
// driver depend only on this interface, never on a concrete decoder;
// bigwigreader.Reader is one implementation, and tests use an in-memory
// fake.
type Reader interface {
	// Chromosomes returns every chromosome this file declares, in the order
	// the file stores them (not necessarily sorted).
	Chromosomes() ([]ChromInfo, error)

	// OverlappingBlocks returns the block descriptors whose data may contain
	// values overlapping [start, end) on chrom. start is 1-based; implementations
	// are free to return more blocks than strictly necessary, never fewer.
	OverlappingBlocks(chrom string, start, end uint32) ([]BlockDescriptor, error)

	// Cursor returns a byte-oriented cursor over the file, suitable for
	// passing into BlockValues, which seeks it to whatever block it is about
	// to decode; reusing one cursor across many blocks avoids reopening the
	// file per block.
	Cursor() (ByteReader, error)

	// BlockValues decodes one block (previously returned by
	// OverlappingBlocks) into its constituent intervals, reading through r.
	// Decoding honors Endianness(), resolved once from the file header.
	BlockValues(r ByteReader, block BlockDescriptor) ([]Interval, error)

	// Endianness reports the byte order block values are encoded in.
	Endianness() Endianness

	// Close releases any resources (open file handles) held by the reader.
	Close() error
}

// ByteReader is the minimal byte-oriented cursor BlockValues needs; an
// *os.File or any io.ReadSeeker satisfies it.
type ByteReader interface {
	Read(p []byte) (int, error)
	Seek(offset int64, whence int) (int64, error)
}
