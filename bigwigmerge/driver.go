// Package bigwigmerge implements the chromosome driver: it
// takes a set of bigwig.Reader handles, reconciles their chromosome
// metadata, and drives one package-merge Merger per chromosome in
// lexicographic order, concatenating the results into a single lazy
// ValueWithChrom stream. An optional region restriction narrows the output
// to a BED-derived interval union, reusing this repository's existing
// interval package rather than a bespoke clipping routine.
package bigwigmerge

import (
	"fmt"
	"sort"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/bwmerge/bigwig"
	"github.com/grailbio/bwmerge/interval"
	"github.com/grailbio/bwmerge/merge"
)

// Driver is the chromosome driver. It implements the Scanner idiom: call
// Scan before each Interval/Err, exactly like merge.Merger or
// encoding/fastq.Scanner.
type Driver struct {
	readers []bigwig.Reader
	region  *interval.BEDUnion // nil: no restriction, every position passes.

	chroms []string // lexicographically sorted, computed once on first Scan.
	built  bool

	chromIdx int
	cur      chromPipeline // live pipeline for chroms[chromIdx-1]; nil Merger before the first chromosome is built.
	clipped  []bigwig.Interval

	curVal bigwig.ValueWithChrom
	err    error
	done   bool
}

// New returns a Driver over readers. region may be nil to disable the BED
// region restriction.
func New(readers []bigwig.Reader, region *interval.BEDUnion) *Driver {
	return &Driver{readers: readers, region: region}
}

// Scan advances to the next merged, chromosome-tagged interval. It returns
// false once every chromosome's pipeline is exhausted or a failure (either
// a metadata conflict, discovered on the first call, or a read failure
// surfaced by a chromosome's Merger) has occurred.
func (d *Driver) Scan() bool {
	if d.err != nil || d.done {
		return false
	}
	if !d.built {
		if err := d.build(); err != nil {
			d.err = err
			return false
		}
		d.built = true
	}
	for {
		if len(d.clipped) > 0 {
			iv := d.clipped[0]
			d.clipped = d.clipped[1:]
			d.curVal = bigwig.ValueWithChrom{Chrom: d.cur.chrom, Interval: iv}
			return true
		}
		if d.cur.merger != nil && d.cur.merger.Scan() {
			iv := d.cur.merger.Interval()
			if d.cur.clip == nil {
				d.curVal = bigwig.ValueWithChrom{Chrom: d.cur.chrom, Interval: iv}
				return true
			}
			d.clipped = d.cur.clip.clip(iv)
			continue
		}
		if d.cur.merger != nil {
			if err := d.cur.merger.Err(); err != nil {
				d.err = errors.E(err, "bigwigmerge: chromosome", d.cur.chrom)
				return false
			}
		}
		if !d.advanceChrom() {
			d.done = true
			return false
		}
	}
}

// Interval returns the record produced by the most recent successful Scan.
func (d *Driver) Interval() bigwig.ValueWithChrom { return d.curVal }

// Err returns the first metadata conflict or read failure encountered, if
// any.
func (d *Driver) Err() error { return d.err }

// chromPipeline is the live state for one chromosome: its Merger, tagged
// with the region clip (if any) that narrows its output.
type chromPipeline struct {
	chrom  string
	merger *merge.Merger
	clip   *regionClip
}

// build computes the union of chromosome names across every reader,
// verifies length agreement across every reader that declares it (failing
// with a metadata conflict otherwise), and records the lexicographic
// chromosome order to drive.
func (d *Driver) build() error {
	lengths := map[string]uint32{}
	order := []string{}
	for ri, r := range d.readers {
		chroms, err := r.Chromosomes()
		if err != nil {
			return errors.E(err, fmt.Sprintf("bigwigmerge: reading chromosome list for input %d", ri))
		}
		for _, c := range chroms {
			if prev, ok := lengths[c.Name]; ok {
				if prev != c.Length {
					return errors.E(errors.Invalid, fmt.Sprintf(
						"bigwigmerge: MetadataConflict: chromosome %s has conflicting lengths across inputs: %d vs %d",
						c.Name, prev, c.Length))
				}
				continue
			}
			lengths[c.Name] = c.Length
			order = append(order, c.Name)
		}
	}
	sort.Strings(order)
	d.chroms = order
	log.Printf("bigwigmerge: %d chromosomes across %d inputs", len(order), len(d.readers))
	return nil
}

// advanceChrom tears down the exhausted pipeline (if any) and builds the
// next chromosome's Merger, skipping chromosomes the region restriction
// rules out entirely. It returns false once every chromosome has been
// visited.
func (d *Driver) advanceChrom() bool {
	for d.chromIdx < len(d.chroms) {
		chrom := d.chroms[d.chromIdx]
		d.chromIdx++
		if d.region != nil && !d.region.HasChrom(chrom) {
			continue
		}
		length, err := d.chromLength(chrom)
		if err != nil {
			d.err = err
			return false
		}
		sources := make([]merge.Source, 0, len(d.readers))
		for _, r := range d.readers {
			if s := newReaderSource(r, chrom, length); s != nil {
				sources = append(sources, s)
			}
		}
		d.cur = chromPipeline{chrom: chrom, merger: merge.NewMerger(sources)}
		if d.region != nil {
			d.cur.clip = newRegionClip(d.region.EndpointsForChrom(chrom))
		}
		return true
	}
	return false
}

// chromLength looks up the (already-reconciled) declared length for chrom
// by asking the first reader that has it.
func (d *Driver) chromLength(chrom string) (uint32, error) {
	for _, r := range d.readers {
		chroms, err := r.Chromosomes()
		if err != nil {
			return 0, errors.E(err, "bigwigmerge: reading chromosome list")
		}
		for _, c := range chroms {
			if c.Name == chrom {
				return c.Length, nil
			}
		}
	}
	return 0, errors.Errorf("bigwigmerge: internal: chromosome %s not found after build", chrom)
}
