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

// Package extsort implements the out-of-core external sort / k-way merge
// machinery shared by the bigram and trigram pipeline stages: chunked
// in-memory sort with disk spill, a lazy heap-based k-way merge cursor, and
// a pull-based explode adapter.
package extsort

import (
	"container/heap"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/czcorpus/ngramstat/record"
)

// Source is anything that yields a sequence of T, terminated by io.EOF.
// record.TableReader[T] satisfies this.
type Source[T any] interface {
	Next() (T, error)
}

// Less is a strict-weak-ordering comparator: it reports whether a sorts
// before b.
type Less[T any] func(a, b T) bool

// Sorter performs the chunked sort + spill + k-way merge: accumulate up to
// maxElems records in memory, sort and spill each chunk to disk, then merge
// the sorted chunks lazily through a MergeCursor.
type Sorter[T any] struct {
	codec    record.Codec[T]
	less     Less[T]
	maxElems int
	saveDir  string
}

// NewSorter creates a Sorter. saveDir is wiped and recreated so re-runs are
// deterministic.
func NewSorter[T any](codec record.Codec[T], less Less[T], maxElems int, saveDir string) (*Sorter[T], error) {
	if err := os.RemoveAll(saveDir); err != nil {
		return nil, fmt.Errorf("failed to clear sort chunk directory %s: %w", saveDir, err)
	}
	if err := os.MkdirAll(saveDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create sort chunk directory %s: %w", saveDir, err)
	}
	return &Sorter[T]{codec: codec, less: less, maxElems: maxElems, saveDir: saveDir}, nil
}

// SortUnstable drains src in chunks of at most maxElems, sorts each chunk in
// memory, spills it to saveDir/<k>.bin, and returns a MergeCursor over the
// union of all chunks in sorted order.
func (s *Sorter[T]) SortUnstable(src Source[T]) (*MergeCursor[T], error) {
	var partPaths []string
	buf := make([]T, 0, s.maxElems)
	flush := func() error {
		if len(buf) == 0 {
			return nil
		}
		sortSlice(buf, s.less)
		path := filepath.Join(s.saveDir, fmt.Sprintf("%d.bin", len(partPaths)))
		tw, err := record.CreateTable(path, s.codec, uint64(len(buf)))
		if err != nil {
			return err
		}
		for _, v := range buf {
			if err := tw.Write(v); err != nil {
				tw.Close()
				return err
			}
		}
		if err := tw.Close(); err != nil {
			return err
		}
		partPaths = append(partPaths, path)
		buf = buf[:0]
		return nil
	}

	for {
		v, err := src.Next()
		if err != nil {
			if isEOF(err) {
				break
			}
			return nil, err
		}
		buf = append(buf, v)
		if len(buf) >= s.maxElems {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return newMergeCursor(partPaths, s.codec, s.less)
}

func sortSlice[T any](vs []T, less Less[T]) {
	sort.Slice(vs, func(i, j int) bool { return less(vs[i], vs[j]) })
}

// SortSlice sorts vs in place according to less. Exported so pipeline
// stages that pre-aggregate their own sort chunks (rather than going
// through Sorter.SortUnstable) can still share the ordering primitive.
func SortSlice[T any](vs []T, less Less[T]) {
	sortSlice(vs, less)
}

func isEOF(err error) bool {
	return err == io.EOF
}

// --- k-way merge ---

type heapItem[T any] struct {
	val      T
	partIdx  int
}

type mergeHeap[T any] struct {
	items []heapItem[T]
	less  Less[T]
}

func (h *mergeHeap[T]) Len() int            { return len(h.items) }
func (h *mergeHeap[T]) Less(i, j int) bool  { return h.less(h.items[i].val, h.items[j].val) }
func (h *mergeHeap[T]) Swap(i, j int)       { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *mergeHeap[T]) Push(x interface{})  { h.items = append(h.items, x.(heapItem[T])) }
func (h *mergeHeap[T]) Pop() interface{} {
	old := h.items
	n := len(old)
	it := old[n-1]
	h.items = old[:n-1]
	return it
}

// MergeCursor is a lazy, forward-only cursor over a k-way merge of sorted
// parts. Next is its only read primitive; there is no peek. Memory usage is
// O(#parts).
type MergeCursor[T any] struct {
	parts []*record.TableReader[T]
	h     *mergeHeap[T]
}

// MergeParts opens a k-way MergeCursor directly over a set of already
// sorted part files, without going through Sorter.SortUnstable. Used by
// stages that build their own pre-sorted, pre-aggregated chunk files, such
// as BigramStat/TrigramStat's periodic map-flush cadence.
func MergeParts[T any](partPaths []string, codec record.Codec[T], less Less[T]) (*MergeCursor[T], error) {
	return newMergeCursor(partPaths, codec, less)
}

func newMergeCursor[T any](partPaths []string, codec record.Codec[T], less Less[T]) (*MergeCursor[T], error) {
	mc := &MergeCursor[T]{h: &mergeHeap[T]{less: less}}
	for _, p := range partPaths {
		tr, err := record.OpenTable(p, codec)
		if err != nil {
			return nil, err
		}
		mc.parts = append(mc.parts, tr)
		idx := len(mc.parts) - 1
		v, err := tr.Next()
		if err == nil {
			heap.Push(mc.h, heapItem[T]{val: v, partIdx: idx})
		} else if !isEOF(err) {
			return nil, err
		}
	}
	heap.Init(mc.h)
	return mc, nil
}

// Next returns the next record in merged order, or io.EOF when exhausted.
func (mc *MergeCursor[T]) Next() (T, error) {
	if mc.h.Len() == 0 {
		var zero T
		return zero, io.EOF
	}
	top := heap.Pop(mc.h).(heapItem[T])
	nv, err := mc.parts[top.partIdx].Next()
	if err == nil {
		heap.Push(mc.h, heapItem[T]{val: nv, partIdx: top.partIdx})
	} else if !isEOF(err) {
		var zero T
		return zero, err
	}
	return top.val, nil
}

// Close releases every underlying part file.
func (mc *MergeCursor[T]) Close() error {
	var firstErr error
	for _, p := range mc.parts {
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
