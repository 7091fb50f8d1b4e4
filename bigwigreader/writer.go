package bigwigreader

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/bwmerge/bigwig"
	"github.com/klauspost/compress/gzip"
)

// Block is one chromosome's worth of values to be stored as a single
// gzip-compressed block in a bigwig-lite file.
type Block struct {
	Chrom  string
	Start  uint32 // must cover every value's Start.
	End    uint32 // must cover every value's End.
	Values []bigwig.Interval
}

// Write encodes chroms and blocks into a bigwig-lite file at path, in the
// layout Reader expects: header, chromosome table, block table, then
// gzip-compressed value blocks back to back. It exists so tests can build
// fixtures without hand-assembling bytes; it is not part of the merge
// pipeline itself.
func Write(path string, endianness bigwig.Endianness, chroms []bigwig.ChromInfo, blocks []Block) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.E(err, "bigwigreader: creating", path)
	}
	defer f.Close()

	byteOrder := binary.ByteOrder(binary.LittleEndian)
	endiannessTag := byte(0)
	if endianness == bigwig.BigEndian {
		byteOrder = binary.BigEndian
		endiannessTag = 1
	}

	if _, err := f.Write(magic[:]); err != nil {
		return errors.E(err, "bigwigreader: writing magic")
	}
	if _, err := f.Write([]byte{endiannessTag}); err != nil {
		return errors.E(err, "bigwigreader: writing endianness tag")
	}
	if err := binary.Write(f, byteOrder, uint32(len(chroms))); err != nil {
		return errors.E(err, "bigwigreader: writing chromosome count")
	}
	chromIdx := map[string]uint32{}
	for i, c := range chroms {
		chromIdx[c.Name] = uint32(i)
		if err := writeString(f, byteOrder, c.Name); err != nil {
			return errors.E(err, "bigwigreader: writing chromosome name")
		}
		if err := binary.Write(f, byteOrder, c.Length); err != nil {
			return errors.E(err, "bigwigreader: writing chromosome length")
		}
	}

	payloads := make([][]byte, len(blocks))
	for i, b := range blocks {
		var raw bytes.Buffer
		gz := gzip.NewWriter(&raw)
		for _, v := range b.Values {
			rec := struct {
				Start uint32
				End   uint32
				Value float32
			}{v.Start, v.End, v.Value}
			if err := binary.Write(gz, byteOrder, rec); err != nil {
				return errors.E(err, "bigwigreader: encoding value record")
			}
		}
		if err := gz.Close(); err != nil {
			return errors.E(err, "bigwigreader: closing block gzip stream")
		}
		payloads[i] = raw.Bytes()
	}

	if err := binary.Write(f, byteOrder, uint32(len(blocks))); err != nil {
		return errors.E(err, "bigwigreader: writing block count")
	}
	offset := uint64(0)
	// Block table entries hold absolute file offsets. The data section
	// begins right after the table itself, so its base is the current
	// position plus the table's own size.
	tableSize := uint64(len(blocks)) * blockEntrySize
	dataBase, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return errors.E(err, "bigwigreader: seeking")
	}
	dataBase += int64(tableSize)
	for i, b := range blocks {
		entry := blockEntry{
			ChromIdx: chromIdx[b.Chrom],
			Start:    b.Start,
			End:      b.End,
			Offset:   uint64(dataBase) + offset,
			Size:     uint64(len(payloads[i])),
		}
		if err := binary.Write(f, byteOrder, entry); err != nil {
			return errors.E(err, "bigwigreader: writing block table entry")
		}
		offset += entry.Size
	}
	for _, p := range payloads {
		if _, err := f.Write(p); err != nil {
			return errors.E(err, "bigwigreader: writing block payload")
		}
	}
	return nil
}

func writeString(f *os.File, byteOrder binary.ByteOrder, s string) error {
	if err := binary.Write(f, byteOrder, uint16(len(s))); err != nil {
		return err
	}
	_, err := f.Write([]byte(s))
	return err
}
