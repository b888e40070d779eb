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

const groupLem3MaxElems = 80_000_000

type lem3Exploded struct {
	Lid1, Lid2, Lid3 uint32
	Wid1, Wid2, Wid3 uint32
	Count            uint32
}

var lem3ExplodedCodec = record.Codec[lem3Exploded]{
	MsgType: "Lem3Exploded",
	Encode: func(w io.Writer, v lem3Exploded) error {
		return binary.Write(w, binary.BigEndian, v)
	},
	Decode: func(r io.Reader) (lem3Exploded, error) {
		var v lem3Exploded
		if err := binary.Read(r, binary.BigEndian, &v); err != nil {
			if err == io.ErrUnexpectedEOF {
				err = io.EOF
			}
			return lem3Exploded{}, err
		}
		return v, nil
	},
}

// GroupLem3 mirrors GroupLem2 over tri.tbl with three-way lemma-set
// explosion and the asymmetric double-N scoring formula
// score = N * (N * (weight - threshold) / (W1 * W2)) / W3.
func GroupLem3(outDir string, threshold float64) error {
	lemSets, weights, err := loadLemSets(outDir)
	if err != nil {
		return fmt.Errorf("grouplem3: %w", err)
	}
	n := uint32(len(weights))

	triPath := filepath.Join(outDir, "tri.tbl")
	tr0, err := record.OpenTable(triPath, record.TrigramCodec)
	if err != nil {
		return fmt.Errorf("grouplem3: %w", err)
	}
	defer tr0.Close()

	explode := func(t record.Trigram, emit func(lem3Exploded)) {
		for _, a := range lemSets[t.Wid1-1] {
			for _, b := range lemSets[t.Wid2-1] {
				for _, c := range lemSets[t.Wid3-1] {
					emit(lem3Exploded{
						Lid1: a, Lid2: b, Lid3: c,
						Wid1: t.Wid1, Wid2: t.Wid2, Wid3: t.Wid3, Count: t.Count,
					})
				}
			}
		}
	}
	tr := extsort.NewTransformer[record.Trigram, lem3Exploded](tr0, explode)

	partsDir := filepath.Join(outDir, "extended3_parts")
	less := func(a, b lem3Exploded) bool {
		if a.Lid1 != b.Lid1 {
			return a.Lid1 > b.Lid1
		}
		if a.Lid2 != b.Lid2 {
			return a.Lid2 > b.Lid2
		}
		return a.Lid3 > b.Lid3
	}
	sorter, err := extsort.NewSorter(lem3ExplodedCodec, less, groupLem3MaxElems, partsDir)
	if err != nil {
		return fmt.Errorf("grouplem3: %w", err)
	}
	cursor, err := sorter.SortUnstable(tr)
	if err != nil {
		return fmt.Errorf("grouplem3: %w", err)
	}
	defer cursor.Close()

	outPath := filepath.Join(outDir, "extended3.tbl")
	gw, err := record.CreateTable(outPath, record.Lem3GroupCodec, 0)
	if err != nil {
		return fmt.Errorf("grouplem3: %w", err)
	}

	type acc3 struct {
		lid1, lid2, lid3 uint32
		weight           float64
		cases            []record.Case3
	}
	var acc *acc3
	emitted := 0
	finalize := func() error {
		if acc == nil {
			return nil
		}
		w1, w2, w3 := weights[acc.lid1], weights[acc.lid2], weights[acc.lid3]
		if w1 > 0 && w2 > 0 && w3 > 0 {
			inner := float64(n) * (acc.weight - threshold) / (w1 * w2)
			score := float64(n) * inner / w3
			if score < 0 {
				score = 0
			}
			if score > 0 {
				if err := gw.Write(record.Lem3Group{
					Lid1: acc.lid1, Lid2: acc.lid2, Lid3: acc.lid3, Weight: score, Cases: acc.cases,
				}); err != nil {
					return err
				}
				emitted++
			}
		}
		return nil
	}

	next, nerr := cursor.Next()
	for nerr == nil {
		if acc == nil || acc.lid1 != next.Lid1 || acc.lid2 != next.Lid2 || acc.lid3 != next.Lid3 {
			if err := finalize(); err != nil {
				gw.Close()
				return fmt.Errorf("grouplem3: %w", err)
			}
			acc = &acc3{lid1: next.Lid1, lid2: next.Lid2, lid3: next.Lid3}
		}
		denom := len(lemSets[next.Wid1-1]) * len(lemSets[next.Wid2-1]) * len(lemSets[next.Wid3-1])
		acc.weight += float64(next.Count) / float64(denom)
		acc.cases = append(acc.cases, record.Case3{Wid1: next.Wid1, Wid2: next.Wid2, Wid3: next.Wid3, Count: next.Count})
		next, nerr = cursor.Next()
	}
	if err := finalize(); err != nil {
		gw.Close()
		return fmt.Errorf("grouplem3: %w", err)
	}
	if err := gw.Close(); err != nil {
		return fmt.Errorf("grouplem3: %w", err)
	}
	log.Info().Int("groups", emitted).Msg("grouplem3 stage complete")
	return nil
}
