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

package lingproc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleTokenizeSplitsOnSpaceAndTagsPunctuation(t *testing.T) {
	s := &Simple{}
	toks := s.Tokenize("Hello, world!")
	want := []Token{
		{Surface: "Hello", IsPunct: false},
		{Surface: ",", IsPunct: true},
		{Surface: "world", IsPunct: false},
		{Surface: "!", IsPunct: true},
	}
	assert.Equal(t, want, toks)
}

func TestSimpleTokenizeTagsStandalonePunctuation(t *testing.T) {
	s := &Simple{}
	toks := s.Tokenize("a . b")
	require.Len(t, toks, 3)
	assert.Equal(t, Token{Surface: "a", IsPunct: false}, toks[0])
	assert.Equal(t, Token{Surface: ".", IsPunct: true}, toks[1])
	assert.Equal(t, Token{Surface: "b", IsPunct: false}, toks[2])
}

func TestSimpleLemmatizeDefaultsToIdentity(t *testing.T) {
	s := &Simple{}
	out, err := s.Lemmatize([]string{"run", "dog"})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"run"}, {"dog"}}, out)
}

func TestSimpleLemmatizeHomonymOverride(t *testing.T) {
	s := &Simple{Homonyms: map[string][]string{
		"bank": {"bank_river", "bank_money"},
	}}
	out, err := s.Lemmatize([]string{"bank", "river"})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"bank_river", "bank_money"}, {"river"}}, out)
}
