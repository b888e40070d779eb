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

	"github.com/czcorpus/ngramstat/record"
	"github.com/rs/zerolog/log"
)

// TriFreqStat seeds a doc-count map from every (lid1,lid2,lid3) key in
// extended3.tbl and rescans corpus.seq once with a sliding three-word
// window, counting each key at most once per document. Unlike BiFreqStat,
// no separate unigram pass is needed here.
func TriFreqStat(outDir string) error {
	lemSets, _, err := loadLemSets(outDir)
	if err != nil {
		return fmt.Errorf("trifreqstat: %w", err)
	}

	extPath := filepath.Join(outDir, "extended3.tbl")
	er, err := record.OpenTable(extPath, record.Lem3GroupCodec)
	if err != nil {
		return fmt.Errorf("trifreqstat: %w", err)
	}
	triFreq := make(map[[3]uint32]uint32)
	for {
		g, err := er.Next()
		if err != nil {
			break
		}
		triFreq[[3]uint32{g.Lid1, g.Lid2, g.Lid3}] = 0
	}
	er.Close()

	corpusPath := filepath.Join(outDir, "corpus.seq")
	cr, err := record.OpenTable(corpusPath, record.PhraseCodec)
	if err != nil {
		return fmt.Errorf("trifreqstat: %w", err)
	}
	defer cr.Close()

	triset := make(map[[3]uint32]struct{})
	for {
		ph, err := cr.Next()
		if err != nil {
			break
		}
		if len(ph.Ids) == 0 {
			for k := range triset {
				triFreq[k]++
			}
			triset = make(map[[3]uint32]struct{})
			continue
		}
		for i := 0; i+2 < len(ph.Ids); i++ {
			w1, w2, w3 := ph.Ids[i], ph.Ids[i+1], ph.Ids[i+2]
			for _, l1 := range lemSets[w1-1] {
				for _, l2 := range lemSets[w2-1] {
					for _, l3 := range lemSets[w3-1] {
						k := [3]uint32{l1, l2, l3}
						if _, ok := triFreq[k]; ok {
							triset[k] = struct{}{}
						}
					}
				}
			}
		}
	}

	for k, c := range triFreq {
		if c == 0 {
			return fmt.Errorf("trifreqstat: %w: trigram (%d,%d,%d) never observed in document-frequency rescan", ErrInvariantViolation, k[0], k[1], k[2])
		}
	}

	outPath := filepath.Join(outDir, "trifreq.tbl")
	tw, err := record.CreateTable(outPath, record.LemTripleFreqCodec, uint64(len(triFreq)))
	if err != nil {
		return fmt.Errorf("trifreqstat: %w", err)
	}
	for k, c := range triFreq {
		if err := tw.Write(record.LemTripleFreq{Lid1: k[0], Lid2: k[1], Lid3: k[2], DocCount: c}); err != nil {
			tw.Close()
			return fmt.Errorf("trifreqstat: %w", err)
		}
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("trifreqstat: %w", err)
	}

	log.Info().Int("trigramKeys", len(triFreq)).Msg("trifreqstat stage complete")
	return nil
}
