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
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// Header is the fixed framing record every table file begins with. MsgType
// is checked on open; Total is informational and may be zero.
type Header struct {
	MsgType string
	Total   uint64
}

// Codec describes how to encode/decode a single record of type T on the
// underlying stream. Records are written back to back with no per-record
// length prefix, so each encoding must be self-delimiting (fixed-width
// fields, length-prefixed strings and id lists). MsgType identifies the
// record kind and is what Header.MsgType is checked against on open.
type Codec[T any] struct {
	MsgType string
	Encode  func(w io.Writer, v T) error
	Decode  func(r io.Reader) (T, error)
}

func writeHeader(w io.Writer, h Header) error {
	if err := writeString(w, h.MsgType); err != nil {
		return err
	}
	return binary.Write(w, binary.BigEndian, h.Total)
}

func readHeader(r io.Reader) (Header, error) {
	msgType, err := readString(r)
	if err != nil {
		return Header{}, err
	}
	var total uint64
	if err := binary.Read(r, binary.BigEndian, &total); err != nil {
		return Header{}, fmt.Errorf("failed to read stream header total: %w", err)
	}
	return Header{MsgType: msgType, Total: total}, nil
}

func writeString(w io.Writer, s string) error {
	b := []byte(s)
	if err := binary.Write(w, binary.BigEndian, uint32(len(b))); err != nil {
		return fmt.Errorf("failed to write string length: %w", err)
	}
	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("failed to write string bytes: %w", err)
	}
	return nil
}

func readString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return "", fmt.Errorf("failed to read string length: %w", err)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", fmt.Errorf("failed to read string bytes: %w", err)
	}
	return string(b), nil
}

// WriteUint32Slice writes a length-prefixed slice of uint32 values, used by
// record kinds whose payload is a variable-length id list (Phrase, the
// per-word lemma set records in lems.tbl).
func WriteUint32Slice(w io.Writer, vs []uint32) error {
	if err := binary.Write(w, binary.BigEndian, uint32(len(vs))); err != nil {
		return fmt.Errorf("failed to write slice length: %w", err)
	}
	for _, v := range vs {
		if err := binary.Write(w, binary.BigEndian, v); err != nil {
			return fmt.Errorf("failed to write slice element: %w", err)
		}
	}
	return nil
}

// ReadUint32Slice is the reverse of WriteUint32Slice.
func ReadUint32Slice(r io.Reader) ([]uint32, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, fmt.Errorf("failed to read slice length: %w", err)
	}
	vs := make([]uint32, n)
	for i := range vs {
		if err := binary.Read(r, binary.BigEndian, &vs[i]); err != nil {
			return nil, fmt.Errorf("failed to read slice element: %w", err)
		}
	}
	return vs, nil
}

// PeekHeader reads and returns just the leading header of a table file,
// without committing to a record type. Used by tools (gramcat, read_total)
// that dispatch their decoding logic on whatever MsgType a file reports.
func PeekHeader(path string) (Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, fmt.Errorf("failed to open table %s: %w", path, err)
	}
	defer f.Close()
	return readHeader(bufio.NewReader(f))
}

// TableWriter writes a header followed by a sequence of records of a single
// type to an on-disk table file.
type TableWriter[T any] struct {
	f     *os.File
	w     *bufio.Writer
	codec Codec[T]
	count uint64
}

// CreateTable creates (truncating any existing file) a new table at path,
// writing a provisional header with the given expected total (0 if unknown).
// The header's Total field is rewritten with the true count on Close.
func CreateTable[T any](path string, codec Codec[T], expectedTotal uint64) (*TableWriter[T], error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create table %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	if err := writeHeader(w, Header{MsgType: codec.MsgType, Total: expectedTotal}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write table header for %s: %w", path, err)
	}
	return &TableWriter[T]{f: f, w: w, codec: codec}, nil
}

func (tw *TableWriter[T]) Write(v T) error {
	if err := tw.codec.Encode(tw.w, v); err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	tw.count++
	return nil
}

// Close flushes buffered output, patches the header's Total with the actual
// record count written, and closes the underlying file.
func (tw *TableWriter[T]) Close() error {
	if err := tw.w.Flush(); err != nil {
		return fmt.Errorf("failed to flush table: %w", err)
	}
	// patch header total in place: 4-byte msgType length + msgType bytes precede it
	if _, err := tw.f.Seek(int64(4+len(tw.codec.MsgType)), io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to patch table header: %w", err)
	}
	if err := binary.Write(tw.f, binary.BigEndian, tw.count); err != nil {
		return fmt.Errorf("failed to patch table header total: %w", err)
	}
	return tw.f.Close()
}

// TableReader reads a header-checked sequence of records of a single type
// from an on-disk table file.
type TableReader[T any] struct {
	f      *os.File
	r      *bufio.Reader
	codec  Codec[T]
	Header Header
}

// OpenTable opens path for reading, verifying the header's MsgType matches
// codec.MsgType. Opening a file as the wrong type is a type-mismatch error.
func OpenTable[T any](path string, codec Codec[T]) (*TableReader[T], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open table %s: %w", path, err)
	}
	r := bufio.NewReader(f)
	hdr, err := readHeader(r)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read table header of %s: %w", path, err)
	}
	if hdr.MsgType != codec.MsgType {
		f.Close()
		return nil, fmt.Errorf(
			"%w: table %s has type %q, expected %q", ErrTypeMismatch, path, hdr.MsgType, codec.MsgType)
	}
	return &TableReader[T]{f: f, r: r, codec: codec, Header: hdr}, nil
}

// Next reads the following record, returning io.EOF once the stream is
// exhausted.
func (tr *TableReader[T]) Next() (T, error) {
	v, err := tr.codec.Decode(tr.r)
	if err != nil && err != io.EOF {
		var zero T
		return zero, fmt.Errorf("failed to decode record: %w", err)
	}
	return v, err
}

func (tr *TableReader[T]) Close() error {
	return tr.f.Close()
}
