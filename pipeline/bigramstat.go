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

	"github.com/czcorpus/ngramstat/extsort"
	"github.com/czcorpus/ngramstat/record"
	"github.com/rs/zerolog/log"
)

const (
	bigramFlushEveryDocs = 40_000
	progressEveryDocs    = 100
)

// bigramKeyLess orders two Bigrams ascending by (wid1, wid2), the order
// BigramStat's chunk flush uses and merge_files<Bigram> expects.
func bigramKeyLess(a, b record.Bigram) bool {
	if a.Wid1 != b.Wid1 {
		return a.Wid1 < b.Wid1
	}
	return a.Wid2 < b.Wid2
}

func bigramKeyEq(a, b record.Bigram) bool {
	return a.Wid1 == b.Wid1 && a.Wid2 == b.Wid2
}

func bigramCombine(a, b record.Bigram) record.Bigram {
	a.Count += b.Count
	return a
}

// BigramStat scans corpus.seq, counting adjacent word-id pairs within each
// phrase, periodically spilling to chunk files, then merges the chunks into
// bi.tbl.
func BigramStat(outDir string) error {
	corpusPath := filepath.Join(outDir, "corpus.seq")
	cr, err := record.OpenTable(corpusPath, record.PhraseCodec)
	if err != nil {
		return fmt.Errorf("bigramstat: %w", err)
	}
	defer cr.Close()

	partsDir := filepath.Join(outDir, "bi_parts")
	if err := os.RemoveAll(partsDir); err != nil {
		return fmt.Errorf("bigramstat: failed to clear %s: %w", partsDir, err)
	}
	if err := os.MkdirAll(partsDir, 0o755); err != nil {
		return fmt.Errorf("bigramstat: failed to create %s: %w", partsDir, err)
	}

	counts := make(map[[2]uint32]uint32)
	docCount := 0
	var parts []string
	flush := func() error {
		if len(counts) == 0 {
			return nil
		}
		bigrams := make([]record.Bigram, 0, len(counts))
		for k, c := range counts {
			bigrams = append(bigrams, record.Bigram{Wid1: k[0], Wid2: k[1], Count: c})
		}
		path, err := spillSortedBigramChunk(bigrams, partsDir, len(parts))
		if err != nil {
			return err
		}
		parts = append(parts, path)
		counts = make(map[[2]uint32]uint32)
		return nil
	}

	for {
		ph, err := cr.Next()
		if err != nil {
			break
		}
		if len(ph.Ids) == 0 {
			docCount++
			if docCount%progressEveryDocs == 0 {
				fmt.Printf("\r%d: %d\n", docCount, len(counts))
			}
			if docCount%bigramFlushEveryDocs == 0 {
				if err := flush(); err != nil {
					return fmt.Errorf("bigramstat: %w", err)
				}
			}
			continue
		}
		for i := 0; i+1 < len(ph.Ids); i++ {
			k := [2]uint32{ph.Ids[i], ph.Ids[i+1]}
			counts[k]++
		}
	}
	if err := flush(); err != nil {
		return fmt.Errorf("bigramstat: %w", err)
	}

	cursor, err := extsort.MergeParts(parts, record.BigramCodec, bigramKeyLess)
	if err != nil {
		return fmt.Errorf("bigramstat: %w", err)
	}
	defer cursor.Close()

	outPath := filepath.Join(outDir, "bi.tbl")
	bw, err := record.CreateTable(outPath, record.BigramCodec, 0)
	if err != nil {
		return fmt.Errorf("bigramstat: %w", err)
	}
	n := 0
	if err := extsort.GroupBySave[record.Bigram](cursor, bigramKeyEq, bigramCombine, func(b record.Bigram) error {
		n++
		return bw.Write(b)
	}); err != nil {
		bw.Close()
		return fmt.Errorf("bigramstat: %w", err)
	}
	if err := bw.Close(); err != nil {
		return fmt.Errorf("bigramstat: %w", err)
	}

	log.Info().Int("documents", docCount).Int("bigrams", n).Msg("bigramstat stage complete")
	return nil
}

func spillSortedBigramChunk(bigrams []record.Bigram, dir string, idx int) (string, error) {
	extsort.SortSlice(bigrams, bigramKeyLess)
	path := filepath.Join(dir, fmt.Sprintf("%d_bi.bin", idx))
	tw, err := record.CreateTable(path, record.BigramCodec, uint64(len(bigrams)))
	if err != nil {
		return "", fmt.Errorf("failed to spill bigram chunk: %w", err)
	}
	for _, b := range bigrams {
		if err := tw.Write(b); err != nil {
			tw.Close()
			return "", fmt.Errorf("failed to spill bigram chunk: %w", err)
		}
	}
	if err := tw.Close(); err != nil {
		return "", fmt.Errorf("failed to spill bigram chunk: %w", err)
	}
	return path, nil
}
