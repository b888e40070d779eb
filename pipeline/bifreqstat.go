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
	"path/filepath"

	"github.com/czcorpus/cnc-gokit/collections"
	"github.com/czcorpus/ngramstat/record"
	"github.com/rs/zerolog/log"
)

// BiFreqStat seeds a bigram doc-count map from every (lid1,lid2) key in
// extended2.tbl and a lemma doc-count map from every lemma id in
// lemid.tbl, rescans corpus.seq counting each bigram key (gated on
// membership in the seeded set) and every lemma (unconditionally) at most
// once per document, and writes bifreq.tbl and lemfreq.tbl. Unlike biFreq,
// lemFreq is not restricted to lemmas that happen to survive into some
// extended2.tbl group — a lemma's corpus-wide document frequency is
// independent of whether it took part in a bigram GroupLem2 scored above
// zero.
func BiFreqStat(outDir string) error {
	lemSets, _, err := loadLemSets(outDir)
	if err != nil {
		return fmt.Errorf("bifreqstat: %w", err)
	}

	extPath := filepath.Join(outDir, "extended2.tbl")
	er, err := record.OpenTable(extPath, record.Lem2GroupCodec)
	if err != nil {
		return fmt.Errorf("bifreqstat: %w", err)
	}
	biFreq := make(map[[2]uint32]uint32)
	for {
		g, err := er.Next()
		if err != nil {
			break
		}
		biFreq[[2]uint32{g.Lid1, g.Lid2}] = 0
	}
	er.Close()

	lemidPath := filepath.Join(outDir, "lemid.tbl")
	lir, err := record.OpenTable(lemidPath, record.LemIdCodec)
	if err != nil {
		return fmt.Errorf("bifreqstat: %w", err)
	}
	lemFreq := make(map[uint32]uint32)
	lemStr := make(map[uint32]string)
	for {
		l, err := lir.Next()
		if err != nil {
			break
		}
		lemFreq[l.Id] = 0
		lemStr[l.Id] = l.Str
	}
	lir.Close()

	corpusPath := filepath.Join(outDir, "corpus.seq")
	cr, err := record.OpenTable(corpusPath, record.PhraseCodec)
	if err != nil {
		return fmt.Errorf("bifreqstat: %w", err)
	}
	defer cr.Close()

	uniset := collections.NewSet[uint32]()
	biset := collections.NewSet[[2]uint32]()
	for {
		ph, err := cr.Next()
		if err != nil {
			break
		}
		if len(ph.Ids) == 0 {
			for lid := range uniset.Iterate {
				lemFreq[lid]++
			}
			for k := range biset.Iterate {
				if _, ok := biFreq[k]; ok {
					biFreq[k]++
				}
			}
			uniset = collections.NewSet[uint32]()
			biset = collections.NewSet[[2]uint32]()
			continue
		}
		for i, wid := range ph.Ids {
			for _, lid := range lemSets[wid-1] {
				uniset.Add(lid)
			}
			if i+1 < len(ph.Ids) {
				wid2 := ph.Ids[i+1]
				for _, l1 := range lemSets[wid-1] {
					for _, l2 := range lemSets[wid2-1] {
						k := [2]uint32{l1, l2}
						if _, ok := biFreq[k]; ok {
							biset.Add(k)
						}
					}
				}
			}
		}
	}

	for k, c := range biFreq {
		if c == 0 {
			return fmt.Errorf("bifreqstat: %w: bigram (%d,%d) never observed in document-frequency rescan", ErrInvariantViolation, k[0], k[1])
		}
	}

	bfPath := filepath.Join(outDir, "bifreq.tbl")
	bw, err := record.CreateTable(bfPath, record.LemPairFreqCodec, uint64(len(biFreq)))
	if err != nil {
		return fmt.Errorf("bifreqstat: %w", err)
	}
	for k, c := range biFreq {
		if err := bw.Write(record.LemPairFreq{Lid1: k[0], Lid2: k[1], DocCount: c}); err != nil {
			bw.Close()
			return fmt.Errorf("bifreqstat: %w", err)
		}
	}
	if err := bw.Close(); err != nil {
		return fmt.Errorf("bifreqstat: %w", err)
	}

	lfPath := filepath.Join(outDir, "lemfreq.tbl")
	lw, err := record.CreateTable(lfPath, record.LemFreqCodec, uint64(len(lemFreq)))
	if err != nil {
		return fmt.Errorf("bifreqstat: %w", err)
	}
	for lid, c := range lemFreq {
		if err := lw.Write(record.LemFreq{Str: lemStr[lid], Id: lid, DocCount: c}); err != nil {
			lw.Close()
			return fmt.Errorf("bifreqstat: %w", err)
		}
	}
	if err := lw.Close(); err != nil {
		return fmt.Errorf("bifreqstat: %w", err)
	}

	log.Info().Int("bigramKeys", len(biFreq)).Int("lemmas", len(lemFreq)).Msg("bifreqstat stage complete")
	return nil
}
