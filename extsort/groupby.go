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

import "io"

// Eq reports whether a and b share the same grouping key.
type Eq[T any] func(a, b T) bool

// Combine merges b's count/weight into a's, returning the updated record.
type Combine[T any] func(a, b T) T

// GroupBySave collapses consecutive equal-key records from a sorted cursor,
// summing via combine, and invokes emit once per distinct key. It assumes
// cursor yields records in key order, which Sorter.SortUnstable guarantees.
func GroupBySave[T any](cursor Source[T], eq Eq[T], combine Combine[T], emit func(T) error) error {
	first, err := cursor.Next()
	if err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}
	acc := first
	for {
		v, err := cursor.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return err
		}
		if eq(acc, v) {
			acc = combine(acc, v)
		} else {
			if err := emit(acc); err != nil {
				return err
			}
			acc = v
		}
	}
	return emit(acc)
}
