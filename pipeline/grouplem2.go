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
	"encoding/binary"
	"fmt"
	"io"
	"path/filepath"

	"github.com/czcorpus/ngramstat/extsort"
	"github.com/czcorpus/ngramstat/record"
	"github.com/rs/zerolog/log"
)

const groupLem2MaxElems = 80_000_000

// lemWeights maps lemma id to its distributed weight.
type lemWeights map[uint32]float64

// loadLemSets reads lems.tbl into a wid-indexed slice of lemma-id sets and
// simultaneously computes the distributed lemma weight map from uni.tbl.
func loadLemSets(outDir string) ([][]uint32, lemWeights, error) {
	uniPath := filepath.Join(outDir, "uni.tbl")
	ur, err := record.OpenTable(uniPath, record.UnigramCodec)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open uni.tbl: %w", err)
	}
	var unis []record.Unigram
	for {
		u, err := ur.Next()
		if err != nil {
			break
		}
		unis = append(unis, u)
	}
	ur.Close()

	lemsPath := filepath.Join(outDir, "lems.tbl")
	lr, err := record.OpenTable(lemsPath, record.PhraseCodec)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open lems.tbl: %w", err)
	}
	lemSets := make([][]uint32, len(unis))
	idx := 0
	for {
		ph, err := lr.Next()
		if err != nil {
			break
		}
		if idx >= len(lemSets) {
			return nil, nil, fmt.Errorf("%w: lems.tbl has more records than uni.tbl", ErrInvariantViolation)
		}
		lemSets[idx] = ph.Ids
		idx++
	}
	lr.Close()
	if idx != len(lemSets) {
		return nil, nil, fmt.Errorf("%w: lems.tbl has fewer records than uni.tbl", ErrInvariantViolation)
	}

	weights := make(lemWeights)
	for i, u := range unis {
		lems := lemSets[i]
		if len(lems) == 0 {
			return nil, nil, fmt.Errorf("%w: word %q (wid=%d) has no lemma set", ErrInvariantViolation, u.Str, u.Wid)
		}
		share := float64(u.Weight) / float64(len(lems))
		for _, lid := range lems {
			weights[lid] += share
		}
	}
	return lemSets, weights, nil
}

// lem2Exploded is one exploded candidate from bi.tbl, carrying both the
// lemma-pair key to sort/group by and the surface case it came from.
type lem2Exploded struct {
	Lid1, Lid2 uint32
	Wid1, Wid2 uint32
	Count      uint32
}

var lem2ExplodedCodec = record.Codec[lem2Exploded]{
	MsgType: "Lem2Exploded",
	Encode: func(w io.Writer, v lem2Exploded) error {
		return binary.Write(w, binary.BigEndian, v)
	},
	Decode: func(r io.Reader) (lem2Exploded, error) {
		var v lem2Exploded
		if err := binary.Read(r, binary.BigEndian, &v); err != nil {
			if err == io.ErrUnexpectedEOF {
				err = io.EOF
			}
			return lem2Exploded{}, err
		}
		return v, nil
	},
}

// GroupLem2 streams bi.tbl, explodes each surface bigram into one candidate
// per (lid1,lid2) pair of its words' lemma sets, external-sorts by lemma
// pair, and emits one scored Lem2Group per distinct pair.
func GroupLem2(outDir string, threshold float64) error {
	lemSets, weights, err := loadLemSets(outDir)
	if err != nil {
		return fmt.Errorf("grouplem2: %w", err)
	}
	n := uint32(len(weights))

	biPath := filepath.Join(outDir, "bi.tbl")
	br, err := record.OpenTable(biPath, record.BigramCodec)
	if err != nil {
		return fmt.Errorf("grouplem2: %w", err)
	}
	defer br.Close()

	explode := func(b record.Bigram, emit func(lem2Exploded)) {
		for _, a := range lemSets[b.Wid1-1] {
			for _, c := range lemSets[b.Wid2-1] {
				emit(lem2Exploded{Lid1: a, Lid2: c, Wid1: b.Wid1, Wid2: b.Wid2, Count: b.Count})
			}
		}
	}
	tr := extsort.NewTransformer[record.Bigram, lem2Exploded](br, explode)

	partsDir := filepath.Join(outDir, "extended2_parts")
	less := func(a, b lem2Exploded) bool {
		if a.Lid1 != b.Lid1 {
			return a.Lid1 > b.Lid1 // descending, per step C
		}
		return a.Lid2 > b.Lid2
	}
	sorter, err := extsort.NewSorter(lem2ExplodedCodec, less, groupLem2MaxElems, partsDir)
	if err != nil {
		return fmt.Errorf("grouplem2: %w", err)
	}
	cursor, err := sorter.SortUnstable(tr)
	if err != nil {
		return fmt.Errorf("grouplem2: %w", err)
	}
	defer cursor.Close()

	outPath := filepath.Join(outDir, "extended2.tbl")
	gw, err := record.CreateTable(outPath, record.Lem2GroupCodec, 0)
	if err != nil {
		return fmt.Errorf("grouplem2: %w", err)
	}

	type acc2 struct {
		lid1, lid2 uint32
		weight     float64
		cases      []record.Case2
	}
	var acc *acc2
	emitted := 0
	finalize := func() error {
		if acc == nil {
			return nil
		}
		w1, w2 := weights[acc.lid1], weights[acc.lid2]
		if w1 > 0 && w2 > 0 {
			score := float64(n) * (acc.weight - threshold) / (w1 * w2)
			if score < 0 {
				score = 0
			}
			if score > 0 {
				if err := gw.Write(record.Lem2Group{Lid1: acc.lid1, Lid2: acc.lid2, Weight: score, Cases: acc.cases}); err != nil {
					return err
				}
				emitted++
			}
		}
		return nil
	}

	next, nerr := cursor.Next()
	for nerr == nil {
		if acc == nil || acc.lid1 != next.Lid1 || acc.lid2 != next.Lid2 {
			if err := finalize(); err != nil {
				gw.Close()
				return fmt.Errorf("grouplem2: %w", err)
			}
			acc = &acc2{lid1: next.Lid1, lid2: next.Lid2}
		}
		acc.weight += float64(next.Count) / float64(len(lemSets[next.Wid1-1])*len(lemSets[next.Wid2-1]))
		acc.cases = append(acc.cases, record.Case2{Wid1: next.Wid1, Wid2: next.Wid2, Count: next.Count})
		next, nerr = cursor.Next()
	}
	if err := finalize(); err != nil {
		gw.Close()
		return fmt.Errorf("grouplem2: %w", err)
	}
	if err := gw.Close(); err != nil {
		return fmt.Errorf("grouplem2: %w", err)
	}
	log.Info().Int("groups", emitted).Msg("grouplem2 stage complete")
	return nil
}
