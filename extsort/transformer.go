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

// Transformer adapts a Source[I] into a Source[O]: on each pull it invokes
// fn on the next upstream record, letting fn push zero or more derived
// records into the provided queue, then drains that queue before pulling
// upstream again. This is how surface n-gram records are exploded into
// lemma-id n-gram candidates without materializing
// the whole exploded stream up front.
type Transformer[I, O any] struct {
	src   Source[I]
	fn    func(in I, emit func(O))
	queue []O
	pos   int
	done  bool
}

// NewTransformer wraps src, applying fn to each upstream record.
func NewTransformer[I, O any](src Source[I], fn func(in I, emit func(O))) *Transformer[I, O] {
	return &Transformer[I, O]{src: src, fn: fn}
}

// Next returns the next queued derived record, pulling and exploding
// further upstream records as needed, until the upstream source and the
// queue are both exhausted.
func (t *Transformer[I, O]) Next() (O, error) {
	for t.pos >= len(t.queue) {
		if t.done {
			var zero O
			return zero, io.EOF
		}
		t.queue = t.queue[:0]
		t.pos = 0
		in, err := t.src.Next()
		if err != nil {
			if err == io.EOF {
				t.done = true
				continue
			}
			var zero O
			return zero, err
		}
		t.fn(in, func(o O) { t.queue = append(t.queue, o) })
	}
	v := t.queue[t.pos]
	t.pos++
	return v, nil
}
