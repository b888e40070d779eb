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

	"github.com/czcorpus/ngramstat/lingproc"
	"github.com/czcorpus/ngramstat/record"
	"github.com/rs/zerolog/log"
)

const lemmatizeBatchSize = 10_000

// Lemmatize reads uni.tbl in wid order, hands words to proc in batches of
// 10,000, and writes lemid.tbl and lems.tbl. An empty lemma set returned for
// a word Convert accepted is treated as a fatal invariant violation rather
// than silently skipped, preserving the wid-1 positional alignment between
// uni.tbl and lems.tbl unconditionally.
func Lemmatize(outDir string, proc lingproc.Processor) error {
	uniPath := filepath.Join(outDir, "uni.tbl")
	ur, err := record.OpenTable(uniPath, record.UnigramCodec)
	if err != nil {
		return fmt.Errorf("lemmatize: %w", err)
	}
	var words []record.Unigram
	for {
		u, err := ur.Next()
		if err != nil {
			break
		}
		words = append(words, u)
	}
	if err := ur.Close(); err != nil {
		return fmt.Errorf("lemmatize: %w", err)
	}

	lemids := make(map[string]uint32)
	var lemidOrder []string
	lemsByWid := make([][]uint32, len(words))

	internLemma := func(s string) uint32 {
		if id, ok := lemids[s]; ok {
			return id
		}
		id := uint32(len(lemidOrder) + 1)
		lemids[s] = id
		lemidOrder = append(lemidOrder, s)
		return id
	}

	for start := 0; start < len(words); start += lemmatizeBatchSize {
		end := min(start+lemmatizeBatchSize, len(words))
		batch := make([]string, end-start)
		for i := start; i < end; i++ {
			batch[i-start] = words[i].Str
		}
		lemmaSets, err := proc.Lemmatize(batch)
		if err != nil {
			return fmt.Errorf("lemmatize: linguistic processor failed: %w", err)
		}
		if len(lemmaSets) != len(batch) {
			return fmt.Errorf(
				"lemmatize: %w: processor returned %d lemma sets for %d words",
				ErrLingProcFailure, len(lemmaSets), len(batch))
		}
		for i, lems := range lemmaSets {
			wid := words[start+i].Wid
			if len(lems) == 0 {
				return fmt.Errorf(
					"lemmatize: %w: word %q (wid=%d) got an empty lemma set from the linguistic processor",
					ErrInvariantViolation, words[start+i].Str, wid)
			}
			ids := make([]uint32, len(lems))
			for j, l := range lems {
				ids[j] = internLemma(l)
			}
			lemsByWid[wid-1] = ids
		}
	}

	lemidPath := filepath.Join(outDir, "lemid.tbl")
	lw, err := record.CreateTable(lemidPath, record.LemIdCodec, uint64(len(lemidOrder)))
	if err != nil {
		return fmt.Errorf("lemmatize: %w", err)
	}
	for i, s := range lemidOrder {
		if err := lw.Write(record.LemId{Str: s, Id: uint32(i + 1)}); err != nil {
			lw.Close()
			return fmt.Errorf("lemmatize: failed to write lemid.tbl: %w", err)
		}
	}
	if err := lw.Close(); err != nil {
		return fmt.Errorf("lemmatize: %w", err)
	}

	lemsPath := filepath.Join(outDir, "lems.tbl")
	sw, err := record.CreateTable(lemsPath, record.PhraseCodec, uint64(len(lemsByWid)))
	if err != nil {
		return fmt.Errorf("lemmatize: %w", err)
	}
	for _, ids := range lemsByWid {
		if len(ids) == 0 {
			return fmt.Errorf("lemmatize: %w: a word's lemma set is missing after lemmatization", ErrInvariantViolation)
		}
		if err := sw.Write(record.Phrase{Ids: ids}); err != nil {
			sw.Close()
			return fmt.Errorf("lemmatize: failed to write lems.tbl: %w", err)
		}
	}
	if err := sw.Close(); err != nil {
		return fmt.Errorf("lemmatize: %w", err)
	}

	log.Info().
		Int("words", len(words)).
		Int("lemmas", len(lemidOrder)).
		Msg("lemmatize stage complete")
	return nil
}
