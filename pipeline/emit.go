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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/czcorpus/ngramstat/record"
	"github.com/rs/zerolog/log"
)

// statBanner is the fixed 30-byte header written before the serialized map.
const statBanner = "*** Global term statistics ***"

const minSurfaceCodepoints = 3

// StatEntry is one serving-map value: a document frequency plus, for
// bigrams and trigrams, a representative surface rendering.
type StatEntry struct {
	DocCount uint32 `json:"dc"`
	Txt      string `json:"txt,omitempty"`
}

// StatMap is the final Emit artifact: a flat keyed map plus run metadata.
type StatMap struct {
	Version    string               `json:"version"`
	TotalCount uint64               `json:"total_count"`
	Entries    map[string]StatEntry `json:"entries"`
}

func loadStrTable[T any](path string, codec record.Codec[T], keyOf func(T) uint32, strOf func(T) string) (map[uint32]string, error) {
	r, err := record.OpenTable(path, codec)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	m := make(map[uint32]string)
	for {
		v, err := r.Next()
		if err != nil {
			break
		}
		m[keyOf(v)] = strOf(v)
	}
	return m, nil
}

func shortSurface(s string) bool {
	return utf8.RuneCountInString(s) < minSurfaceCodepoints
}

// Emit assembles the final serving map from the filtered bigram/trigram
// groups and the surviving lemma doc-count table, and writes the banner-
// prefixed stat_<version>.map artifact.
func Emit(outDir, version string, totalCount uint64) error {
	uniStrs, err := loadStrTable(filepath.Join(outDir, "uni.tbl"), record.UnigramCodec,
		func(u record.Unigram) uint32 { return u.Wid }, func(u record.Unigram) string { return u.Str })
	if err != nil {
		return fmt.Errorf("emit: %w", err)
	}
	lemStrs, err := loadStrTable(filepath.Join(outDir, "lemid.tbl"), record.LemIdCodec,
		func(l record.LemId) uint32 { return l.Id }, func(l record.LemId) string { return l.Str })
	if err != nil {
		return fmt.Errorf("emit: %w", err)
	}

	entries := make(map[string]StatEntry)

	nUni, err := emitUnigrams(outDir, lemStrs, entries)
	if err != nil {
		return fmt.Errorf("emit: %w", err)
	}

	biFreq, err := loadBiFreq(outDir)
	if err != nil {
		return fmt.Errorf("emit: %w", err)
	}
	nBi, err := emitBigrams(outDir, lemStrs, uniStrs, biFreq, entries)
	if err != nil {
		return fmt.Errorf("emit: %w", err)
	}

	triFreq, err := loadTriFreq(outDir)
	if err != nil {
		return fmt.Errorf("emit: %w", err)
	}
	nTri, err := emitTrigrams(outDir, lemStrs, uniStrs, triFreq, entries)
	if err != nil {
		return fmt.Errorf("emit: %w", err)
	}

	m := StatMap{Version: version, TotalCount: totalCount, Entries: entries}
	body, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("emit: failed to serialize stat map: %w", err)
	}

	outPath := filepath.Join(outDir, fmt.Sprintf("stat_%s.map", version))
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("emit: %w", err)
	}
	defer f.Close()
	banner := make([]byte, 30)
	copy(banner, statBanner)
	if _, err := f.Write(banner); err != nil {
		return fmt.Errorf("emit: failed to write banner: %w", err)
	}
	if _, err := f.Write(body); err != nil {
		return fmt.Errorf("emit: failed to write stat map body: %w", err)
	}

	fmt.Printf("uni: %d bi: %d tri: %d\n", nUni, nBi, nTri)
	log.Info().Int("uni", nUni).Int("bi", nBi).Int("tri", nTri).Str("out", outPath).Msg("emit stage complete")
	return nil
}

// emitUnigrams writes each surviving lemma's doc-count entry.
func emitUnigrams(outDir string, lemStrs map[uint32]string, entries map[string]StatEntry) (int, error) {
	path := filepath.Join(outDir, "lemfreq.tbl")
	r, err := record.OpenTable(path, record.LemFreqCodec)
	if err != nil {
		return 0, err
	}
	defer r.Close()
	n := 0
	for {
		lf, err := r.Next()
		if err != nil {
			break
		}
		if lf.DocCount <= 2 {
			continue
		}
		str, ok := lemStrs[lf.Id]
		if !ok || str == "" {
			return 0, fmt.Errorf("%w: lemma id %d missing string", ErrInvariantViolation, lf.Id)
		}
		entries[str] = StatEntry{DocCount: lf.DocCount}
		n++
	}
	return n, nil
}

func emitBigrams(outDir string, lemStrs, uniStrs map[uint32]string, biFreq map[[2]uint32]uint32, entries map[string]StatEntry) (int, error) {
	path := filepath.Join(outDir, "bifiltered.tbl")
	r, err := record.OpenTable(path, record.Lem2GroupCodec)
	if err != nil {
		return 0, err
	}
	defer r.Close()
	n := 0
	for {
		g, err := r.Next()
		if err != nil {
			break
		}
		rep := g.Cases[0]
		for _, c := range g.Cases[1:] {
			if c.Count > rep.Count {
				rep = c
			}
		}
		docCount, ok := biFreq[[2]uint32{g.Lid1, g.Lid2}]
		if !ok || docCount == 0 {
			return 0, fmt.Errorf("%w: bigram (%d,%d) missing doc count", ErrInvariantViolation, g.Lid1, g.Lid2)
		}
		s1, s2 := uniStrs[rep.Wid1], uniStrs[rep.Wid2]
		if s1 == "" || s2 == "" {
			return 0, fmt.Errorf("%w: bigram surface strings missing for wids (%d,%d)", ErrInvariantViolation, rep.Wid1, rep.Wid2)
		}
		if shortSurface(s1) || shortSurface(s2) {
			continue
		}
		l1, l2 := lemStrs[g.Lid1], lemStrs[g.Lid2]
		if l1 == "" || l2 == "" {
			return 0, fmt.Errorf("%w: bigram lemma strings missing for lids (%d,%d)", ErrInvariantViolation, g.Lid1, g.Lid2)
		}
		entries[l1+l2] = StatEntry{DocCount: docCount, Txt: s1 + " " + s2}
		n++
	}
	return n, nil
}

func emitTrigrams(outDir string, lemStrs, uniStrs map[uint32]string, triFreq map[[3]uint32]uint32, entries map[string]StatEntry) (int, error) {
	path := filepath.Join(outDir, "trifiltered.tbl")
	r, err := record.OpenTable(path, record.Lem3GroupCodec)
	if err != nil {
		return 0, err
	}
	defer r.Close()
	n := 0
	for {
		g, err := r.Next()
		if err != nil {
			break
		}
		rep := g.Cases[0]
		for _, c := range g.Cases[1:] {
			if c.Count > rep.Count {
				rep = c
			}
		}
		docCount, ok := triFreq[[3]uint32{g.Lid1, g.Lid2, g.Lid3}]
		if !ok || docCount == 0 {
			return 0, fmt.Errorf("%w: trigram (%d,%d,%d) missing doc count", ErrInvariantViolation, g.Lid1, g.Lid2, g.Lid3)
		}
		s1, s2, s3 := uniStrs[rep.Wid1], uniStrs[rep.Wid2], uniStrs[rep.Wid3]
		if s1 == "" || s2 == "" || s3 == "" {
			return 0, fmt.Errorf("%w: trigram surface strings missing for wids (%d,%d,%d)", ErrInvariantViolation, rep.Wid1, rep.Wid2, rep.Wid3)
		}
		if shortSurface(s1) || shortSurface(s2) || shortSurface(s3) {
			continue
		}
		l1, l2, l3 := lemStrs[g.Lid1], lemStrs[g.Lid2], lemStrs[g.Lid3]
		if l1 == "" || l2 == "" || l3 == "" {
			return 0, fmt.Errorf("%w: trigram lemma strings missing for lids (%d,%d,%d)", ErrInvariantViolation, g.Lid1, g.Lid2, g.Lid3)
		}
		entries[l1+l2+l3] = StatEntry{DocCount: docCount, Txt: s1 + " " + s2 + " " + s3}
		n++
	}
	return n, nil
}
