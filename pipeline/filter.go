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
	"sort"

	"github.com/czcorpus/ngramstat/extsort"
	"github.com/czcorpus/ngramstat/record"
	"github.com/rs/zerolog/log"
)

func lem2GroupLess(a, b record.Lem2Group) bool {
	return a.Weight < b.Weight
}

func lem3GroupLess(a, b record.Lem3Group) bool {
	return a.Weight < b.Weight
}

func loadBiFreq(outDir string) (map[[2]uint32]uint32, error) {
	path := filepath.Join(outDir, "bifreq.tbl")
	r, err := record.OpenTable(path, record.LemPairFreqCodec)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	m := make(map[[2]uint32]uint32)
	for {
		f, err := r.Next()
		if err != nil {
			break
		}
		m[[2]uint32{f.Lid1, f.Lid2}] = f.DocCount
	}
	return m, nil
}

func loadTriFreq(outDir string) (map[[3]uint32]uint32, error) {
	path := filepath.Join(outDir, "trifreq.tbl")
	r, err := record.OpenTable(path, record.LemTripleFreqCodec)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	m := make(map[[3]uint32]uint32)
	for {
		f, err := r.Next()
		if err != nil {
			break
		}
		m[[3]uint32{f.Lid1, f.Lid2, f.Lid3}] = f.DocCount
	}
	return m, nil
}

// FilterBi external-sorts extended2.tbl ascending by weight and keeps only
// groups whose doc-count and weight both clear the given thresholds.
func FilterBi(outDir string, th1 int, th2 float64) error {
	biFreq, err := loadBiFreq(outDir)
	if err != nil {
		return fmt.Errorf("filterbi: %w", err)
	}

	extPath := filepath.Join(outDir, "extended2.tbl")
	er, err := record.OpenTable(extPath, record.Lem2GroupCodec)
	if err != nil {
		return fmt.Errorf("filterbi: %w", err)
	}
	defer er.Close()

	partsDir := filepath.Join(outDir, "filterbi_parts")
	sorter, err := extsort.NewSorter(record.Lem2GroupCodec, lem2GroupLess, 20_000_000, partsDir)
	if err != nil {
		return fmt.Errorf("filterbi: %w", err)
	}
	cursor, err := sorter.SortUnstable(er)
	if err != nil {
		return fmt.Errorf("filterbi: %w", err)
	}
	defer cursor.Close()

	outPath := filepath.Join(outDir, "bifiltered.tbl")
	fw, err := record.CreateTable(outPath, record.Lem2GroupCodec, 0)
	if err != nil {
		return fmt.Errorf("filterbi: %w", err)
	}
	n := 0
	for {
		g, err := cursor.Next()
		if err != nil {
			break
		}
		docCount, ok := biFreq[[2]uint32{g.Lid1, g.Lid2}]
		if !ok {
			fw.Close()
			return fmt.Errorf("filterbi: %w: (%d,%d) missing from bifreq.tbl", ErrInvariantViolation, g.Lid1, g.Lid2)
		}
		if int(docCount) > th1 && g.Weight > th2 {
			if err := fw.Write(g); err != nil {
				fw.Close()
				return fmt.Errorf("filterbi: %w", err)
			}
			n++
		}
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("filterbi: %w", err)
	}

	log.Info().Int("kept", n).Msg("filterbi stage complete")
	return nil
}

// FilterTri mirrors FilterBi but sorts extended3.tbl in memory, since the
// trigram candidate set is small enough to fit after GroupLem3's reduction.
func FilterTri(outDir string, th1 int, th2 float64) error {
	triFreq, err := loadTriFreq(outDir)
	if err != nil {
		return fmt.Errorf("filtertri: %w", err)
	}

	extPath := filepath.Join(outDir, "extended3.tbl")
	er, err := record.OpenTable(extPath, record.Lem3GroupCodec)
	if err != nil {
		return fmt.Errorf("filtertri: %w", err)
	}
	var groups []record.Lem3Group
	for {
		g, err := er.Next()
		if err != nil {
			break
		}
		groups = append(groups, g)
	}
	er.Close()

	sort.Slice(groups, func(i, j int) bool { return lem3GroupLess(groups[i], groups[j]) })

	outPath := filepath.Join(outDir, "trifiltered.tbl")
	fw, err := record.CreateTable(outPath, record.Lem3GroupCodec, 0)
	if err != nil {
		return fmt.Errorf("filtertri: %w", err)
	}
	n := 0
	for _, g := range groups {
		docCount, ok := triFreq[[3]uint32{g.Lid1, g.Lid2, g.Lid3}]
		if !ok {
			fw.Close()
			return fmt.Errorf("filtertri: %w: (%d,%d,%d) missing from trifreq.tbl", ErrInvariantViolation, g.Lid1, g.Lid2, g.Lid3)
		}
		if int(docCount) > th1 && g.Weight > th2 {
			if err := fw.Write(g); err != nil {
				fw.Close()
				return fmt.Errorf("filtertri: %w", err)
			}
			n++
		}
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("filtertri: %w", err)
	}

	log.Info().Int("kept", n).Msg("filtertri stage complete")
	return nil
}
