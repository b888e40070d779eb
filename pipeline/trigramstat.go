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

const trigramFlushEveryDocs = 40_000

func trigramKeyLess(a, b record.Trigram) bool {
	if a.Wid1 != b.Wid1 {
		return a.Wid1 < b.Wid1
	}
	if a.Wid2 != b.Wid2 {
		return a.Wid2 < b.Wid2
	}
	return a.Wid3 < b.Wid3
}

func trigramKeyEq(a, b record.Trigram) bool {
	return a.Wid1 == b.Wid1 && a.Wid2 == b.Wid2 && a.Wid3 == b.Wid3
}

func trigramCombine(a, b record.Trigram) record.Trigram {
	a.Count += b.Count
	return a
}

// loadAnchorSet reads bifiltered.tbl and builds the set B of (wid1,wid2)
// surface pairs that survived bigram filtering — every case of every
// surviving Lem2Group.
func loadAnchorSet(outDir string) (map[[2]uint32]struct{}, error) {
	path := filepath.Join(outDir, "bifiltered.tbl")
	r, err := record.OpenTable(path, record.Lem2GroupCodec)
	if err != nil {
		return nil, fmt.Errorf("failed to open bifiltered.tbl: %w", err)
	}
	defer r.Close()
	b := make(map[[2]uint32]struct{})
	for {
		g, err := r.Next()
		if err != nil {
			break
		}
		for _, c := range g.Cases {
			b[[2]uint32{c.Wid1, c.Wid2}] = struct{}{}
		}
	}
	return b, nil
}

// TrigramStat scans corpus.seq for trigrams anchored on a bigram already
// known to survive filtering, including the found-flag
// state machine controlling left-context emission.
func TrigramStat(outDir string) error {
	anchors, err := loadAnchorSet(outDir)
	if err != nil {
		return fmt.Errorf("trigramstat: %w", err)
	}

	corpusPath := filepath.Join(outDir, "corpus.seq")
	cr, err := record.OpenTable(corpusPath, record.PhraseCodec)
	if err != nil {
		return fmt.Errorf("trigramstat: %w", err)
	}
	defer cr.Close()

	partsDir := filepath.Join(outDir, "tri_parts")
	if err := os.RemoveAll(partsDir); err != nil {
		return fmt.Errorf("trigramstat: failed to clear %s: %w", partsDir, err)
	}
	if err := os.MkdirAll(partsDir, 0o755); err != nil {
		return fmt.Errorf("trigramstat: failed to create %s: %w", partsDir, err)
	}

	counts := make(map[[3]uint32]uint32)
	docCount := 0
	var parts []string
	flush := func() error {
		if len(counts) == 0 {
			return nil
		}
		trigrams := make([]record.Trigram, 0, len(counts))
		for k, c := range counts {
			trigrams = append(trigrams, record.Trigram{Wid1: k[0], Wid2: k[1], Wid3: k[2], Count: c})
		}
		extsort.SortSlice(trigrams, trigramKeyLess)
		path := filepath.Join(partsDir, fmt.Sprintf("%d.bin", len(parts)))
		tw, err := record.CreateTable(path, record.TrigramCodec, uint64(len(trigrams)))
		if err != nil {
			return err
		}
		for _, t := range trigrams {
			if err := tw.Write(t); err != nil {
				tw.Close()
				return err
			}
		}
		if err := tw.Close(); err != nil {
			return err
		}
		parts = append(parts, path)
		counts = make(map[[3]uint32]uint32)
		return nil
	}

	for {
		ph, err := cr.Next()
		if err != nil {
			break
		}
		if len(ph.Ids) == 0 {
			docCount++
			if docCount%trigramFlushEveryDocs == 0 {
				if err := flush(); err != nil {
					return fmt.Errorf("trigramstat: %w", err)
				}
			}
			continue
		}
		contributeTrigrams(ph.Ids, anchors, counts)
	}
	if err := flush(); err != nil {
		return fmt.Errorf("trigramstat: %w", err)
	}

	cursor, err := extsort.MergeParts(parts, record.TrigramCodec, trigramKeyLess)
	if err != nil {
		return fmt.Errorf("trigramstat: %w", err)
	}
	defer cursor.Close()

	outPath := filepath.Join(outDir, "tri.tbl")
	tw, err := record.CreateTable(outPath, record.TrigramCodec, 0)
	if err != nil {
		return fmt.Errorf("trigramstat: %w", err)
	}
	n := 0
	if err := extsort.GroupBySave[record.Trigram](cursor, trigramKeyEq, trigramCombine, func(t record.Trigram) error {
		n++
		return tw.Write(t)
	}); err != nil {
		tw.Close()
		return fmt.Errorf("trigramstat: %w", err)
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("trigramstat: %w", err)
	}

	log.Info().Int("documents", docCount).Int("trigrams", n).Msg("trigramstat stage complete")
	return nil
}

// contributeTrigrams implements the anchor/found state machine over a
// single phrase's word-id sequence.
func contributeTrigrams(ids []uint32, anchors map[[2]uint32]struct{}, counts map[[3]uint32]uint32) {
	found := false
	for i := 0; i+1 < len(ids); i++ {
		a, b := ids[i], ids[i+1]
		_, isAnchor := anchors[[2]uint32{a, b}]
		if !isAnchor {
			found = false
			continue
		}
		if !found && i >= 1 {
			prev := ids[i-1]
			counts[[3]uint32{prev, a, b}]++
		}
		found = true
		if i+2 < len(ids) {
			next := ids[i+2]
			counts[[3]uint32{a, b, next}]++
		}
	}
}
