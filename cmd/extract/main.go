// Copyright 2025 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2025 Department of Linguistics,
//                Faculty of Arts, Charles University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"unicode/utf8"

	"github.com/czcorpus/cnc-gokit/logging"
	"github.com/czcorpus/ngramstat/archive"
	"github.com/czcorpus/ngramstat/lingproc"
	"github.com/czcorpus/ngramstat/pipeline"
	"github.com/czcorpus/ngramstat/record"
	"github.com/czcorpus/ngramstat/storage"
	"github.com/rs/zerolog/log"
)

type stage struct {
	name string
	run  func() error
}

func runStages(ctx context.Context, stages []stage) {
	for _, s := range stages {
		select {
		case <-ctx.Done():
			fmt.Fprintf(os.Stderr, "interrupted before stage %s, partial output retained\n", s.name)
			os.Exit(130)
		default:
		}
		if err := s.run(); err != nil {
			fmt.Fprintln(os.Stderr, "ERROR: ", err)
			if errors.Is(err, pipeline.ErrInvariantViolation) {
				os.Exit(2)
			}
			os.Exit(1)
		}
	}
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "extract - mine statistically significant word bigram/trigram collocations from a document corpus.\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n  %s [options] <corpus_dir> <out_dir>\n\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	suffix := flag.String("suffix", ".zip", "corpus file name suffix accepted by Convert")
	from := flag.Int("from", 0, "skip this many input files before starting")
	limit := flag.Int("limit", 0, "process at most this many input files (0 = unlimited)")
	biTh1 := flag.Int("bi-th1", 1000, "bigram doc-count threshold")
	biTh2 := flag.Float64("bi-th2", 0.01, "bigram weight threshold")
	triTh1 := flag.Int("tri-th1", 1000, "trigram doc-count threshold")
	triTh2 := flag.Float64("tri-th2", 0.003, "trigram weight threshold")
	version := flag.String("version", "v1.10", "version tag embedded in the output stat map")
	format := flag.String("format", "zip", "input corpus format: zip or vertical")
	serveDB := flag.Bool("serve-db", true, "also build a BadgerDB serving-index mirror of the stat map")
	logLevel := flag.String("log-level", "info", "set log level (debug, info, warn, error)")
	flag.Parse()

	logging.SetupLogging(logging.LoggingConf{
		Level: logging.LogLevel(*logLevel),
	})

	corpusDir := flag.Arg(0)
	outDir := flag.Arg(1)
	if corpusDir == "" || outDir == "" {
		flag.Usage()
		os.Exit(1)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR: ", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := pipeline.DefaultConvertConfig()
	cfg.Suffix = *suffix
	cfg.From = *from
	cfg.Limit = *limit

	proc := &lingproc.Simple{}
	var reader archive.DocReader
	if *format == "vertical" {
		reader = archive.VerticalReader{}
	} else {
		reader = archive.ZipReader{}
	}

	var totalCount uint64
	stages := []stage{
		{"convert", func() error {
			err := pipeline.Convert(corpusDir, outDir, cfg, proc, reader)
			if err != nil {
				return err
			}
			tc, err := readTotalCount(outDir)
			totalCount = tc
			return err
		}},
		{"lemmatize", func() error { return pipeline.Lemmatize(outDir, proc) }},
		{"bigramstat", func() error { return pipeline.BigramStat(outDir) }},
		{"grouplem2", func() error { return pipeline.GroupLem2(outDir, *biTh2) }},
		{"bifreqstat", func() error { return pipeline.BiFreqStat(outDir) }},
		{"filterbi", func() error { return pipeline.FilterBi(outDir, *biTh1, *biTh2) }},
		{"trigramstat", func() error { return pipeline.TrigramStat(outDir) }},
		{"grouplem3", func() error { return pipeline.GroupLem3(outDir, *triTh2) }},
		{"trifreqstat", func() error { return pipeline.TriFreqStat(outDir) }},
		{"filtertri", func() error { return pipeline.FilterTri(outDir, *triTh1, *triTh2) }},
		{"emit", func() error { return pipeline.Emit(outDir, *version, totalCount) }},
	}
	runStages(ctx, stages)

	if *serveDB {
		if err := buildServingIndex(outDir); err != nil {
			fmt.Fprintln(os.Stderr, "ERROR: ", err)
			os.Exit(1)
		}
	}

	log.Info().Str("outDir", outDir).Msg("extract finished")
}

func readTotalCount(outDir string) (uint64, error) {
	data, err := os.ReadFile(filepath.Join(outDir, "total_count.txt"))
	if err != nil {
		return 0, fmt.Errorf("failed to read total_count.txt: %w", err)
	}
	var n uint64
	if _, err := fmt.Sscanf(string(data), "%d", &n); err != nil {
		return 0, fmt.Errorf("failed to parse total_count.txt: %w", err)
	}
	return n, nil
}

func buildServingIndex(outDir string) error {
	sdb, err := storage.OpenStatDB(filepath.Join(outDir, "statdb"))
	if err != nil {
		return fmt.Errorf("failed to open serving index: %w", err)
	}
	defer sdb.Close()

	lemStrs := make(map[uint32]string)
	lr, err := record.OpenTable(filepath.Join(outDir, "lemid.tbl"), record.LemIdCodec)
	if err != nil {
		return fmt.Errorf("failed to open lemid.tbl: %w", err)
	}
	for {
		l, err := lr.Next()
		if err != nil {
			break
		}
		lemStrs[l.Id] = l.Str
	}
	lr.Close()

	uniStrs := make(map[uint32]string)
	ur, err := record.OpenTable(filepath.Join(outDir, "uni.tbl"), record.UnigramCodec)
	if err != nil {
		return fmt.Errorf("failed to open uni.tbl: %w", err)
	}
	for {
		u, err := ur.Next()
		if err != nil {
			break
		}
		uniStrs[u.Wid] = u.Str
	}
	ur.Close()

	txn := sdb.NewWriteTransaction()
	commit := func() error {
		if err := txn.Commit(); err != nil {
			return err
		}
		txn = sdb.NewWriteTransaction()
		return nil
	}

	lfr, err := record.OpenTable(filepath.Join(outDir, "lemfreq.tbl"), record.LemFreqCodec)
	if err != nil {
		return fmt.Errorf("failed to open lemfreq.tbl: %w", err)
	}
	n := 0
	for {
		lf, err := lfr.Next()
		if err != nil {
			break
		}
		if lf.DocCount <= 2 {
			continue
		}
		if err := sdb.PutUnigramTx(txn, lf.Str, lf.DocCount); err != nil {
			if err := commit(); err != nil {
				lfr.Close()
				return err
			}
			if err := sdb.PutUnigramTx(txn, lf.Str, lf.DocCount); err != nil {
				lfr.Close()
				return err
			}
		}
		n++
		if n%1000 == 0 {
			if err := commit(); err != nil {
				lfr.Close()
				return err
			}
		}
	}
	lfr.Close()

	bf, err := record.OpenTable(filepath.Join(outDir, "bifiltered.tbl"), record.Lem2GroupCodec)
	if err != nil {
		return fmt.Errorf("failed to open bifiltered.tbl: %w", err)
	}
	bdc, err := record.OpenTable(filepath.Join(outDir, "bifreq.tbl"), record.LemPairFreqCodec)
	if err != nil {
		bf.Close()
		return fmt.Errorf("failed to open bifreq.tbl: %w", err)
	}
	shortSurface := func(s string) bool { return utf8.RuneCountInString(s) < 3 }
	biDC := make(map[[2]uint32]uint32)
	for {
		f, err := bdc.Next()
		if err != nil {
			break
		}
		biDC[[2]uint32{f.Lid1, f.Lid2}] = f.DocCount
	}
	bdc.Close()
	for {
		g, err := bf.Next()
		if err != nil {
			break
		}
		rep := g.Cases[0]
		for _, c := range g.Cases[1:] {
			if c.Count > rep.Count {
				rep = c
			}
		}
		if shortSurface(uniStrs[rep.Wid1]) || shortSurface(uniStrs[rep.Wid2]) {
			continue
		}
		dc := biDC[[2]uint32{g.Lid1, g.Lid2}]
		txt := uniStrs[rep.Wid1] + " " + uniStrs[rep.Wid2]
		if err := sdb.PutBigramTx(txn, lemStrs[g.Lid1], lemStrs[g.Lid2], dc, txt); err != nil {
			if err := commit(); err != nil {
				bf.Close()
				return err
			}
			if err := sdb.PutBigramTx(txn, lemStrs[g.Lid1], lemStrs[g.Lid2], dc, txt); err != nil {
				bf.Close()
				return err
			}
		}
		n++
		if n%1000 == 0 {
			if err := commit(); err != nil {
				bf.Close()
				return err
			}
		}
	}
	bf.Close()

	tf, err := record.OpenTable(filepath.Join(outDir, "trifiltered.tbl"), record.Lem3GroupCodec)
	if err != nil {
		return fmt.Errorf("failed to open trifiltered.tbl: %w", err)
	}
	tdc, err := record.OpenTable(filepath.Join(outDir, "trifreq.tbl"), record.LemTripleFreqCodec)
	if err != nil {
		tf.Close()
		return fmt.Errorf("failed to open trifreq.tbl: %w", err)
	}
	triDC := make(map[[3]uint32]uint32)
	for {
		f, err := tdc.Next()
		if err != nil {
			break
		}
		triDC[[3]uint32{f.Lid1, f.Lid2, f.Lid3}] = f.DocCount
	}
	tdc.Close()
	for {
		g, err := tf.Next()
		if err != nil {
			break
		}
		rep := g.Cases[0]
		for _, c := range g.Cases[1:] {
			if c.Count > rep.Count {
				rep = c
			}
		}
		if shortSurface(uniStrs[rep.Wid1]) || shortSurface(uniStrs[rep.Wid2]) || shortSurface(uniStrs[rep.Wid3]) {
			continue
		}
		dc := triDC[[3]uint32{g.Lid1, g.Lid2, g.Lid3}]
		txt := uniStrs[rep.Wid1] + " " + uniStrs[rep.Wid2] + " " + uniStrs[rep.Wid3]
		if err := sdb.PutTrigramTx(txn, lemStrs[g.Lid1], lemStrs[g.Lid2], lemStrs[g.Lid3], dc, txt); err != nil {
			if err := commit(); err != nil {
				tf.Close()
				return err
			}
			if err := sdb.PutTrigramTx(txn, lemStrs[g.Lid1], lemStrs[g.Lid2], lemStrs[g.Lid3], dc, txt); err != nil {
				tf.Close()
				return err
			}
		}
		n++
		if n%1000 == 0 {
			if err := commit(); err != nil {
				tf.Close()
				return err
			}
		}
	}
	tf.Close()

	if err := txn.Commit(); err != nil {
		return fmt.Errorf("failed to commit final serving-index batch: %w", err)
	}
	log.Info().Int("entries", n).Msg("serving index build complete")
	return nil
}
