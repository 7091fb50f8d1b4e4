// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

/*
bio-bigwigmerge merges the per-position signal of two or more bigWig-lite
files, summing values at every overlapping position, and writes the result
as a bedGraph-style stream.
*/

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/file/s3file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/bwmerge/bigwig"
	"github.com/grailbio/bwmerge/bigwigmerge"
	"github.com/grailbio/bwmerge/bigwigreader"
	"github.com/grailbio/bwmerge/interval"
	"github.com/grailbio/bwmerge/tempfilebuffer"
	"github.com/klauspost/compress/gzip"
)

var (
	bedPath = flag.String("bed", "", "Restrict output to regions in this BED file; mutually exclusive with -region")
	region  = flag.String("region", "", "Restrict output to one region, formatted as <chrom>:<1-based first pos>-<last pos>, <chrom>:<1-based pos>, or just <chrom>; mutually exclusive with -bed")
	out     = flag.String("out", "", "Output bedGraph path (required); a .gz suffix gzip-compresses it; may be an s3:// URL")
	tempDir = flag.String("temp-dir", "", "Directory for the spill file written before -out is known to be ready (default os.TempDir())")
)

func bioBigwigmergeUsage() {
	fmt.Printf("Usage: %s [OPTIONS] bigwig-lite-path [bigwig-lite-path ...]\n", os.Args[0])
	fmt.Printf("Other options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = bioBigwigmergeUsage
	shutdown := grail.Init()
	defer shutdown()

	file.RegisterImplementation("s3", func() file.Implementation {
		return s3file.NewImplementation(s3file.NewDefaultProvider(session.Options{}), s3file.Options{})
	})

	inputs := flag.Args()
	if len(inputs) < 2 {
		log.Fatalf("at least two input paths required; got %d", len(inputs))
	}
	if *out == "" {
		log.Fatalf("-out is required")
	}
	if *bedPath != "" && *region != "" {
		log.Fatalf("-bed and -region are mutually exclusive")
	}

	ctx := vcontext.Background()

	readers := make([]bigwig.Reader, 0, len(inputs))
	for _, p := range inputs {
		r, err := bigwigreader.Open(p)
		if err != nil {
			log.Panicf("%v", err)
		}
		defer r.Close()
		readers = append(readers, r)
	}

	regionUnion, err := loadRegion(*bedPath, *region)
	if err != nil {
		log.Panicf("%v", err)
	}

	if err := run(ctx, readers, regionUnion, *out, *tempDir); err != nil {
		log.Panicf("%v", err)
	}
	log.Debug.Printf("exiting")
}

// loadRegion builds the region restriction from whichever of -bed/-region
// was given, or returns nil when neither was (no restriction).
func loadRegion(bedPath, region string) (*interval.BEDUnion, error) {
	switch {
	case bedPath != "":
		u, err := interval.NewBEDUnionFromPath(bedPath, interval.NewBEDOpts{})
		if err != nil {
			return nil, err
		}
		return &u, nil
	case region != "":
		entry, err := interval.ParseRegionString(region)
		if err != nil {
			return nil, err
		}
		u, err := interval.NewBEDUnionFromEntries([]interval.Entry{entry})
		if err != nil {
			return nil, err
		}
		return &u, nil
	default:
		return nil, nil
	}
}

// run drives the merge and streams its bedGraph-formatted output through
// the write-before-destination buffer into out, in the meantime leaving
// both the producer (this goroutine's writer side) and the owner (the
// caller, below) free to run concurrently. The final destination is opened
// via file.Create, so out may be a local path or an s3:// URL
// interchangeably.
func run(ctx context.Context, readers []bigwig.Reader, region *interval.BEDUnion, outPath, tempDir string) (err error) {
	buf, writer, err := tempfilebuffer.New(tempDir)
	if err != nil {
		return err
	}

	writeErrCh := make(chan error, 1)
	go func() {
		defer writer.Close()
		writeErrCh <- writeBedGraph(readers, region, writer)
	}()

	dst, err := file.Create(ctx, outPath)
	if err != nil {
		return err
	}
	defer file.CloseAndReport(ctx, dst, &err)

	var w io.Writer = dst.Writer(ctx)
	if fileio.DetermineType(outPath) == fileio.Gzip {
		gz := gzip.NewWriter(w)
		defer gz.Close()
		w = gz
	}

	if err := buf.ExpectClosedWrite(w); err != nil {
		return err
	}
	return <-writeErrCh
}

// writeBedGraph drives the chromosome driver to completion, formatting
// each ValueWithChrom as a bedGraph line.
func writeBedGraph(readers []bigwig.Reader, region *interval.BEDUnion, w io.Writer) error {
	bw := bufio.NewWriter(w)
	driver := bigwigmerge.New(readers, region)
	for driver.Scan() {
		v := driver.Interval()
		if _, err := fmt.Fprintf(bw, "%s\t%d\t%d\t%v\n", v.Chrom, v.Start, v.End, v.Value); err != nil {
			return err
		}
	}
	if err := driver.Err(); err != nil {
		return err
	}
	return bw.Flush()
}
