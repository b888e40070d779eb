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

package extsort

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drainInts(t *testing.T, src Source[int]) []int {
	t.Helper()
	var got []int
	for {
		v, err := src.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, v)
	}
	return got
}

func TestTransformerExplodesEachInputIntoMultipleOutputs(t *testing.T) {
	src := &intSlice{vs: []int{1, 2, 3}}
	tr := NewTransformer[int, int](src, func(in int, emit func(int)) {
		for i := 0; i < in; i++ {
			emit(in * 10)
		}
	})
	// 1 -> [10], 2 -> [20, 20], 3 -> [30, 30, 30]
	assert.Equal(t, []int{10, 20, 20, 30, 30, 30}, drainInts(t, tr))
}

func TestTransformerSkipsInputsThatEmitNothing(t *testing.T) {
	src := &intSlice{vs: []int{1, 2, 3, 4}}
	tr := NewTransformer[int, int](src, func(in int, emit func(int)) {
		if in%2 == 0 {
			emit(in)
		}
	})
	assert.Equal(t, []int{2, 4}, drainInts(t, tr))
}

func TestTransformerOnEmptySource(t *testing.T) {
	src := &intSlice{}
	tr := NewTransformer[int, int](src, func(in int, emit func(int)) { emit(in) })
	assert.Empty(t, drainInts(t, tr))
}
