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
	"os"
	"path/filepath"
	"testing"

	"github.com/czcorpus/ngramstat/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLemIdTable(t *testing.T, dir string, entries []record.LemId) {
	t.Helper()
	w, err := record.CreateTable(filepath.Join(dir, "lemid.tbl"), record.LemIdCodec, 0)
	require.NoError(t, err)
	for _, e := range entries {
		require.NoError(t, w.Write(e))
	}
	require.NoError(t, w.Close())
}

func writeUnigramTable(t *testing.T, dir string, entries []record.Unigram) {
	t.Helper()
	w, err := record.CreateTable(filepath.Join(dir, "uni.tbl"), record.UnigramCodec, 0)
	require.NoError(t, err)
	for _, e := range entries {
		require.NoError(t, w.Write(e))
	}
	require.NoError(t, w.Close())
}

func writeLemFreqTable(t *testing.T, dir string, entries []record.LemFreq) {
	t.Helper()
	w, err := record.CreateTable(filepath.Join(dir, "lemfreq.tbl"), record.LemFreqCodec, 0)
	require.NoError(t, err)
	for _, e := range entries {
		require.NoError(t, w.Write(e))
	}
	require.NoError(t, w.Close())
}

func writeEmptyBifilteredAndTrifiltered(t *testing.T, dir string) {
	t.Helper()
	bw, err := record.CreateTable(filepath.Join(dir, "bifiltered.tbl"), record.Lem2GroupCodec, 0)
	require.NoError(t, err)
	require.NoError(t, bw.Close())
	tw, err := record.CreateTable(filepath.Join(dir, "trifiltered.tbl"), record.Lem3GroupCodec, 0)
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	bfw, err := record.CreateTable(filepath.Join(dir, "bifreq.tbl"), record.LemPairFreqCodec, 0)
	require.NoError(t, err)
	require.NoError(t, bfw.Close())
	tfw, err := record.CreateTable(filepath.Join(dir, "trifreq.tbl"), record.LemTripleFreqCodec, 0)
	require.NoError(t, err)
	require.NoError(t, tfw.Close())
}

// TestEmitUnigramDocCountFilter confirms lemmas observed in two or fewer
// documents are dropped from the serving map, while lemmas above the
// threshold are kept keyed by their bare lemma string.
func TestEmitUnigramDocCountFilter(t *testing.T) {
	dir := t.TempDir()
	writeLemIdTable(t, dir, []record.LemId{
		{Str: "frequent", Id: 1},
		{Str: "rare", Id: 2},
	})
	writeUnigramTable(t, dir, nil)
	writeLemFreqTable(t, dir, []record.LemFreq{
		{Str: "frequent", Id: 1, DocCount: 10},
		{Str: "rare", Id: 2, DocCount: 2}, // <= 2, must be dropped
	})
	writeEmptyBifilteredAndTrifiltered(t, dir)

	require.NoError(t, Emit(dir, "v-test", 1000))

	outPath := filepath.Join(dir, "stat_v-test.map")
	raw, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.True(t, len(raw) > 30)
	assert.Equal(t, statBanner, string(raw[:len(statBanner)]))

	var m StatMap
	require.NoError(t, json.Unmarshal(raw[30:], &m))
	assert.Equal(t, "v-test", m.Version)
	assert.Equal(t, uint64(1000), m.TotalCount)

	require.Contains(t, m.Entries, "frequent")
	assert.Equal(t, uint32(10), m.Entries["frequent"].DocCount)
	assert.NotContains(t, m.Entries, "rare")
}

// TestEmitBigramSkipsShortSurfaceWords confirms a representative surface
// pair with a word under the minimum code-point length is excluded.
func TestEmitBigramSkipsShortSurfaceWords(t *testing.T) {
	dir := t.TempDir()
	writeLemIdTable(t, dir, []record.LemId{{Str: "go", Id: 1}, {Str: "lang", Id: 2}})
	writeUnigramTable(t, dir, []record.Unigram{
		{Str: "go", Wid: 1, Weight: 5},    // < 3 codepoints, must be skipped
		{Str: "language", Wid: 2, Weight: 5},
	})
	writeLemFreqTable(t, dir, nil)

	bw, err := record.CreateTable(filepath.Join(dir, "bifiltered.tbl"), record.Lem2GroupCodec, 0)
	require.NoError(t, err)
	require.NoError(t, bw.Write(record.Lem2Group{
		Lid1: 1, Lid2: 2, Weight: 1.0,
		Cases: []record.Case2{{Wid1: 1, Wid2: 2, Count: 3}},
	}))
	require.NoError(t, bw.Close())

	tw, err := record.CreateTable(filepath.Join(dir, "trifiltered.tbl"), record.Lem3GroupCodec, 0)
	require.NoError(t, err)
	require.NoError(t, tw.Close())

	bfw, err := record.CreateTable(filepath.Join(dir, "bifreq.tbl"), record.LemPairFreqCodec, 0)
	require.NoError(t, err)
	require.NoError(t, bfw.Write(record.LemPairFreq{Lid1: 1, Lid2: 2, DocCount: 5}))
	require.NoError(t, bfw.Close())

	tfw, err := record.CreateTable(filepath.Join(dir, "trifreq.tbl"), record.LemTripleFreqCodec, 0)
	require.NoError(t, err)
	require.NoError(t, tfw.Close())

	require.NoError(t, Emit(dir, "v-short", 1))

	raw, err := os.ReadFile(filepath.Join(dir, "stat_v-short.map"))
	require.NoError(t, err)
	var m StatMap
	require.NoError(t, json.Unmarshal(raw[30:], &m))
	assert.Empty(t, m.Entries)
}

func TestShortSurface(t *testing.T) {
	assert.True(t, shortSurface("go"))
	assert.True(t, shortSurface(""))
	assert.False(t, shortSurface("lang"))
	assert.False(t, shortSurface("abc"))
}
