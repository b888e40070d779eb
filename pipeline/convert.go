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

package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/czcorpus/ngramstat/archive"
	"github.com/czcorpus/ngramstat/lingproc"
	"github.com/czcorpus/ngramstat/record"
	"github.com/rs/zerolog/log"
)

// ConvertConfig configures the Convert stage.
type ConvertConfig struct {
	Suffix string // default ".zip"
	From   int    // skip this many matching files before processing
	Limit  int    // stop after processing this many files, 0 = unlimited
	Range  record.AcceptRange
}

// DefaultConvertConfig returns the conventional archive-scan defaults.
func DefaultConvertConfig() ConvertConfig {
	return ConvertConfig{Suffix: ".zip", From: 0, Limit: 0, Range: record.DefaultAcceptRange}
}

// Convert walks corpusDir recursively for files matching cfg.Suffix, reads
// every contained document through reader, tokenizes with proc, and builds
// the word dictionary and tokenized corpus stream. It writes corpus.seq,
// uni.tbl and total_count.txt under outDir.
func Convert(corpusDir, outDir string, cfg ConvertConfig, proc lingproc.Processor, reader archive.DocReader) error {
	files, err := listFiles(corpusDir, cfg.Suffix, cfg.From, cfg.Limit)
	if err != nil {
		return fmt.Errorf("convert: failed to list corpus files: %w", err)
	}

	uni := record.NewUnigramCounts(cfg.Range)
	corpusPath := filepath.Join(outDir, "corpus.seq")
	cw, err := record.CreateTable(corpusPath, record.PhraseCodec, 0)
	if err != nil {
		return fmt.Errorf("convert: %w", err)
	}

	totalDocs := 0
	for _, path := range files {
		docs, err := reader.Documents(path)
		if err != nil {
			return fmt.Errorf("convert: failed to read archive %s: %w", path, err)
		}
		for _, doc := range docs {
			wrote, err := convertDocument(doc, uni, proc, cw)
			if err != nil {
				return fmt.Errorf("convert: failed to write corpus stream: %w", err)
			}
			if wrote {
				totalDocs++
			}
		}
	}

	if err := cw.Close(); err != nil {
		return fmt.Errorf("convert: failed to close corpus stream: %w", err)
	}

	uniPath := filepath.Join(outDir, "uni.tbl")
	uw, err := record.CreateTable(uniPath, record.UnigramCodec, uint64(uni.Len()))
	if err != nil {
		return fmt.Errorf("convert: %w", err)
	}
	for _, u := range uni.All() {
		if err := uw.Write(*u); err != nil {
			uw.Close()
			return fmt.Errorf("convert: failed to write uni.tbl: %w", err)
		}
	}
	if err := uw.Close(); err != nil {
		return fmt.Errorf("convert: %w", err)
	}

	if err := os.WriteFile(
		filepath.Join(outDir, "total_count.txt"), []byte(strconv.Itoa(totalDocs)), 0o644,
	); err != nil {
		return fmt.Errorf("convert: failed to write total_count.txt: %w", err)
	}

	log.Info().
		Int("documents", totalDocs).
		Int("words", uni.Len()).
		Msg("convert stage complete")
	return nil
}

// convertDocument tokenizes one document, applies the accept filter,
// assembles phrase buffers, and writes them (plus the trailing document
// boundary) to cw. It returns true iff the document contributed at least
// one non-empty phrase (i.e. counts toward total_count.txt).
func convertDocument(doc string, uni *record.UnigramCounts, proc lingproc.Processor, cw *record.TableWriter[record.Phrase]) (bool, error) {
	toks := proc.Tokenize(doc)
	var buf []uint32
	sawAny := false
	var flushErr error
	flush := func() {
		if len(buf) > 0 {
			if err := cw.Write(record.Phrase{Ids: buf}); err != nil && flushErr == nil {
				flushErr = err
			}
			buf = nil
		}
	}
	for _, t := range toks {
		wid := uni.UpdateWord(t.Surface, t.IsPunct)
		if wid == 0 {
			flush()
			continue
		}
		sawAny = true
		buf = append(buf, wid)
	}
	flush()
	if flushErr != nil {
		return false, flushErr
	}
	if sawAny {
		if err := cw.Write(record.Phrase{Ids: nil}); err != nil { // document boundary
			return false, err
		}
	}
	return sawAny, nil
}

// listFiles recursively collects files under dir whose name ends with
// suffix, in lexical order, skipping the first `from` matches and stopping
// once `limit` files have been collected (limit == 0 means unlimited).
func listFiles(dir, suffix string, from, limit int) ([]string, error) {
	var all []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(d.Name(), suffix) {
			all = append(all, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if from >= len(all) {
		return nil, nil
	}
	all = all[from:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}
