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

// TestGroupLem2HomonymyDiscounting exercises the case where the first word
// of a bigram is a homonym resolving to two distinct lemmas: its corpus
// weight is split evenly between them, and each resulting lemma pair is
// scored independently using the same discounted co-occurrence weight.
func TestGroupLem2HomonymyDiscounting(t *testing.T) {
	dir := t.TempDir()

	uw, err := record.CreateTable(filepath.Join(dir, "uni.tbl"), record.UnigramCodec, 0)
	require.NoError(t, err)
	require.NoError(t, uw.Write(record.Unigram{Str: "bank", Wid: 1, Weight: 4}))
	require.NoError(t, uw.Write(record.Unigram{Str: "river", Wid: 2, Weight: 3}))
	require.NoError(t, uw.Close())

	lw, err := record.CreateTable(filepath.Join(dir, "lems.tbl"), record.PhraseCodec, 0)
	require.NoError(t, err)
	require.NoError(t, lw.Write(record.Phrase{Ids: []uint32{10, 20}})) // "bank" -> two lemmas
	require.NoError(t, lw.Write(record.Phrase{Ids: []uint32{30}}))     // "river" -> one lemma
	require.NoError(t, lw.Close())

	bw, err := record.CreateTable(filepath.Join(dir, "bi.tbl"), record.BigramCodec, 0)
	require.NoError(t, err)
	require.NoError(t, bw.Write(record.Bigram{Wid1: 1, Wid2: 2, Count: 4}))
	require.NoError(t, bw.Close())

	require.NoError(t, GroupLem2(dir, 0.5))

	gr, err := record.OpenTable(filepath.Join(dir, "extended2.tbl"), record.Lem2GroupCodec)
	require.NoError(t, err)
	defer gr.Close()

	var groups []record.Lem2Group
	for {
		g, err := gr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		groups = append(groups, g)
	}
	require.Len(t, groups, 2)

	byLid1 := map[uint32]record.Lem2Group{}
	for _, g := range groups {
		byLid1[g.Lid1] = g
	}
	require.Contains(t, byLid1, uint32(10))
	require.Contains(t, byLid1, uint32(20))

	// weight per lemma: bank(4)/2 lemmas = 2, river(3)/1 lemma = 3.
	// group weight = count/(cardinality1*cardinality2) = 4/(2*1) = 2.0
	// score = n*(weight-threshold)/(w1*w2) = 3*(2.0-0.5)/(2*3) = 0.75
	assert.InDelta(t, 0.75, byLid1[10].Weight, 1e-9)
	assert.InDelta(t, 0.75, byLid1[20].Weight, 1e-9)
	assert.Equal(t, uint32(30), byLid1[10].Lid2)
	assert.Equal(t, uint32(30), byLid1[20].Lid2)
	require.Len(t, byLid1[10].Cases, 1)
	assert.Equal(t, record.Case2{Wid1: 1, Wid2: 2, Count: 4}, byLid1[10].Cases[0])
}

// TestGroupLem2ZeroOrNegativeScoreIsDropped confirms groups whose discounted
// weight does not exceed the threshold are not written out.
func TestGroupLem2ZeroOrNegativeScoreIsDropped(t *testing.T) {
	dir := t.TempDir()

	uw, err := record.CreateTable(filepath.Join(dir, "uni.tbl"), record.UnigramCodec, 0)
	require.NoError(t, err)
	require.NoError(t, uw.Write(record.Unigram{Str: "a", Wid: 1, Weight: 1}))
	require.NoError(t, uw.Write(record.Unigram{Str: "b", Wid: 2, Weight: 1}))
	require.NoError(t, uw.Close())

	lw, err := record.CreateTable(filepath.Join(dir, "lems.tbl"), record.PhraseCodec, 0)
	require.NoError(t, err)
	require.NoError(t, lw.Write(record.Phrase{Ids: []uint32{10}}))
	require.NoError(t, lw.Write(record.Phrase{Ids: []uint32{20}}))
	require.NoError(t, lw.Close())

	bw, err := record.CreateTable(filepath.Join(dir, "bi.tbl"), record.BigramCodec, 0)
	require.NoError(t, err)
	require.NoError(t, bw.Write(record.Bigram{Wid1: 1, Wid2: 2, Count: 1}))
	require.NoError(t, bw.Close())

	require.NoError(t, GroupLem2(dir, 10.0)) // threshold far above observed weight

	gr, err := record.OpenTable(filepath.Join(dir, "extended2.tbl"), record.Lem2GroupCodec)
	require.NoError(t, err)
	defer gr.Close()
	_, err = gr.Next()
	assert.ErrorIs(t, err, io.EOF)
}
