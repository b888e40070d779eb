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
	"io"
	"path/filepath"
	"testing"

	"github.com/czcorpus/ngramstat/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupBiFreqFixture builds a three-word corpus: "a"/"b" (lemmas lemA/lemB,
// the only pair seeded into extended2.tbl) plus "c" (lemma lemC), which
// never appears in any extended2.tbl group and exists purely to exercise
// lemfreq.tbl's unconditional, ungated lemma doc-count accounting.
func setupBiFreqFixture(t *testing.T, dir string, corpusDocs [][]uint32) {
	t.Helper()
	uw, err := record.CreateTable(filepath.Join(dir, "uni.tbl"), record.UnigramCodec, 0)
	require.NoError(t, err)
	require.NoError(t, uw.Write(record.Unigram{Str: "a", Wid: 1, Weight: 1}))
	require.NoError(t, uw.Write(record.Unigram{Str: "b", Wid: 2, Weight: 1}))
	require.NoError(t, uw.Write(record.Unigram{Str: "c", Wid: 3, Weight: 1}))
	require.NoError(t, uw.Close())

	lw, err := record.CreateTable(filepath.Join(dir, "lems.tbl"), record.PhraseCodec, 0)
	require.NoError(t, err)
	require.NoError(t, lw.Write(record.Phrase{Ids: []uint32{10}}))
	require.NoError(t, lw.Write(record.Phrase{Ids: []uint32{20}}))
	require.NoError(t, lw.Write(record.Phrase{Ids: []uint32{30}}))
	require.NoError(t, lw.Close())

	li, err := record.CreateTable(filepath.Join(dir, "lemid.tbl"), record.LemIdCodec, 0)
	require.NoError(t, err)
	require.NoError(t, li.Write(record.LemId{Str: "lemA", Id: 10}))
	require.NoError(t, li.Write(record.LemId{Str: "lemB", Id: 20}))
	require.NoError(t, li.Write(record.LemId{Str: "lemC", Id: 30}))
	require.NoError(t, li.Close())

	ew, err := record.CreateTable(filepath.Join(dir, "extended2.tbl"), record.Lem2GroupCodec, 0)
	require.NoError(t, err)
	require.NoError(t, ew.Write(record.Lem2Group{Lid1: 10, Lid2: 20, Weight: 1.0}))
	require.NoError(t, ew.Close())

	cw, err := record.CreateTable(filepath.Join(dir, "corpus.seq"), record.PhraseCodec, 0)
	require.NoError(t, err)
	for _, doc := range corpusDocs {
		require.NoError(t, cw.Write(record.Phrase{Ids: doc}))
		require.NoError(t, cw.Write(record.Phrase{Ids: nil})) // document boundary
	}
	require.NoError(t, cw.Close())
}

// TestBiFreqStatCountsEachDocumentAtMostOnce confirms a bigram occurring
// multiple times within a single document only advances its doc-count by
// one, while the same bigram appearing in two documents scores two.
func TestBiFreqStatCountsEachDocumentAtMostOnce(t *testing.T) {
	dir := t.TempDir()
	setupBiFreqFixture(t, dir, [][]uint32{
		{1, 2, 1, 2}, // doc 1: (a,b) occurs twice within the same document
		{1, 2},       // doc 2: (a,b) occurs once
	})

	require.NoError(t, BiFreqStat(dir))

	br, err := record.OpenTable(filepath.Join(dir, "bifreq.tbl"), record.LemPairFreqCodec)
	require.NoError(t, err)
	defer br.Close()
	f, err := br.Next()
	require.NoError(t, err)
	assert.Equal(t, record.LemPairFreq{Lid1: 10, Lid2: 20, DocCount: 2}, f)
	_, err = br.Next()
	assert.ErrorIs(t, err, io.EOF)

	lr, err := record.OpenTable(filepath.Join(dir, "lemfreq.tbl"), record.LemFreqCodec)
	require.NoError(t, err)
	defer lr.Close()
	var freqs []record.LemFreq
	for {
		lf, err := lr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		freqs = append(freqs, lf)
	}
	require.Len(t, freqs, 3)
}

// TestBiFreqStatCountsLemmaNotInAnyBigramGroup confirms a lemma that never
// participates in a seeded extended2.tbl group still receives a
// lemfreq.tbl entry with its true corpus-wide doc count, rather than being
// silently dropped because its id is absent from the seeded bigram map.
func TestBiFreqStatCountsLemmaNotInAnyBigramGroup(t *testing.T) {
	dir := t.TempDir()
	setupBiFreqFixture(t, dir, [][]uint32{
		{1, 2, 3}, // doc 1: (a,b) plus unpaired "c"
		{3},       // doc 2: "c" alone
	})

	require.NoError(t, BiFreqStat(dir))

	lr, err := record.OpenTable(filepath.Join(dir, "lemfreq.tbl"), record.LemFreqCodec)
	require.NoError(t, err)
	defer lr.Close()
	var got *record.LemFreq
	for {
		lf, err := lr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		if lf.Id == 30 {
			v := lf
			got = &v
		}
	}
	require.NotNil(t, got, "lemC (id 30) missing from lemfreq.tbl despite never appearing in any extended2.tbl group")
	assert.Equal(t, record.LemFreq{Str: "lemC", Id: 30, DocCount: 2}, *got)
}

// TestBiFreqStatFatalsWhenSeededBigramNeverObserved confirms a bigram
// present in extended2.tbl but never found while rescanning the corpus is
// treated as an invariant violation, not silently zeroed.
func TestBiFreqStatFatalsWhenSeededBigramNeverObserved(t *testing.T) {
	dir := t.TempDir()
	setupBiFreqFixture(t, dir, [][]uint32{
		{2, 1}, // only (b,a) occurs, never (a,b)
	})

	err := BiFreqStat(dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvariantViolation)
}
