// Package merge implements the overlap-aware streaming interval merger: the
// Pairwise Splitter, the Merge Queue, and the Multi-Source Merger that
// drives them. The package is intentionally free of logging, I/O, and
// chromosome bookkeeping — those live in package bigwigmerge, one layer up
// — so it stays pure, deterministic and unit-testable in isolation.
package merge

import "github.com/grailbio/bwmerge/bigwig"

// Source is one input's interval stream for a single chromosome. Sources
// are assumed already sorted by Start and non-overlapping within
// themselves; overlap resolution within a single source is out of scope
// here.
//
// Source follows this repository's Scanner idiom (see
// encoding/fastq.Scanner): call Scan before each call to Interval, and once
// Scan returns false, call Err to distinguish a clean end of stream from a
// read failure.
type Source interface {
	Scan() bool
	Interval() bigwig.Interval
	Err() error
}

// Merger lazily combines any number of Sources into a single
// non-overlapping, Start-sorted stream whose pointwise value at every
// position is the sum of the inputs' values there. A Merger is itself a
// Source-shaped Scanner, so mergers can be composed or, as package
// bigwigmerge does, wrapped to tag output with a chromosome name.
//
// Merger is single-threaded and holds no interior concurrency: all state
// advances synchronously inside Scan.
type Merger struct {
	sources   []Source
	exhausted []bool
	q         queue
	pending   []bigwig.Interval
	cur       bigwig.Interval
	err       error
	allDone   bool
}

// NewMerger returns a Merger over sources. Each source is pulled from at
// most once per round until it reports end of stream.
func NewMerger(sources []Source) *Merger {
	return &Merger{
		sources:   sources,
		exhausted: make([]bool, len(sources)),
	}
}

// Scan advances to the next merged interval, returning false once every
// source is exhausted (or a read failure occurs, see Err). Scan runs rounds
// of pulling from every source and draining the safe queue prefix until it
// has an interval to yield.
func (m *Merger) Scan() bool {
	for len(m.pending) == 0 {
		if m.err != nil || m.allDone {
			return false
		}
		m.round()
	}
	m.cur, m.pending = m.pending[0], m.pending[1:]
	return true
}

// Interval returns the interval produced by the most recent successful
// Scan.
func (m *Merger) Interval() bigwig.Interval { return m.cur }

// Err returns the first error encountered pulling from any source, if any.
// The merge core does not retry: once set, Scan will not produce any
// further output.
func (m *Merger) Err() error { return m.err }

// round runs one pass of the round structure: pull up to one interval from
// every still-active source, insert each into the queue, then drain
// whatever prefix is now provably safe from future mutation.
func (m *Merger) round() {
	var (
		earliest    uint32
		hasEarliest bool
		anyActive   bool
	)
	for i, src := range m.sources {
		if m.exhausted[i] {
			continue
		}
		anyActive = true
		if !src.Scan() {
			if err := src.Err(); err != nil {
				m.err = err
				return
			}
			m.exhausted[i] = true
			continue
		}
		iv := src.Interval()
		if !hasEarliest || iv.Start < earliest {
			earliest, hasEarliest = iv.Start, true
		}
		m.q.insert(iv)
	}
	if !anyActive || !hasEarliest {
		// Every source is exhausted (or all pulls this round came back empty):
		// nothing further can ever arrive before anything currently queued, so
		// the whole queue is now safe to emit.
		m.pending = append(m.pending, m.q.drainAll()...)
		m.allDone = true
		return
	}
	m.pending = append(m.pending, m.q.drainSafe(earliest)...)
}
