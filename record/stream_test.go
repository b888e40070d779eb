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

package record

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uni.tbl")
	tw, err := CreateTable(path, UnigramCodec, 0)
	require.NoError(t, err)
	want := []Unigram{
		{Str: "foo", Wid: 1, Weight: 3},
		{Str: "bar", Wid: 2, Weight: 7},
	}
	for _, u := range want {
		require.NoError(t, tw.Write(u))
	}
	require.NoError(t, tw.Close())

	tr, err := OpenTable(path, UnigramCodec)
	require.NoError(t, err)
	defer tr.Close()
	assert.Equal(t, uint64(len(want)), tr.Header.Total)

	var got []Unigram
	for {
		u, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, u)
	}
	assert.Equal(t, want, got)
}

func TestOpenTableTypeMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bi.tbl")
	tw, err := CreateTable(path, BigramCodec, 0)
	require.NoError(t, err)
	require.NoError(t, tw.Write(Bigram{Wid1: 1, Wid2: 2, Count: 1}))
	require.NoError(t, tw.Close())

	_, err = OpenTable(path, TrigramCodec)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestPeekHeaderDoesNotRequireCodec(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tri.tbl")
	tw, err := CreateTable(path, TrigramCodec, 2)
	require.NoError(t, err)
	require.NoError(t, tw.Write(Trigram{Wid1: 1, Wid2: 2, Wid3: 3, Count: 1}))
	require.NoError(t, tw.Close())

	hdr, err := PeekHeader(path)
	require.NoError(t, err)
	assert.Equal(t, "Trigram", hdr.MsgType)
	assert.Equal(t, uint64(1), hdr.Total)
}

func TestPhraseEmptyIsDocumentBoundary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.seq")
	tw, err := CreateTable(path, PhraseCodec, 0)
	require.NoError(t, err)
	require.NoError(t, tw.Write(Phrase{Ids: []uint32{1, 2, 3}}))
	require.NoError(t, tw.Write(Phrase{Ids: nil}))
	require.NoError(t, tw.Close())

	tr, err := OpenTable(path, PhraseCodec)
	require.NoError(t, err)
	defer tr.Close()

	p1, err := tr.Next()
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 2, 3}, p1.Ids)

	p2, err := tr.Next()
	require.NoError(t, err)
	assert.Empty(t, p2.Ids)

	_, err = tr.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestLem2GroupCasesRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extended2.tbl")
	tw, err := CreateTable(path, Lem2GroupCodec, 0)
	require.NoError(t, err)
	want := Lem2Group{
		Lid1: 1, Lid2: 2, Weight: 0.125,
		Cases: []Case2{{Wid1: 10, Wid2: 20, Count: 3}, {Wid1: 11, Wid2: 21, Count: 1}},
	}
	require.NoError(t, tw.Write(want))
	require.NoError(t, tw.Close())

	tr, err := OpenTable(path, Lem2GroupCodec)
	require.NoError(t, err)
	defer tr.Close()
	got, err := tr.Next()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
