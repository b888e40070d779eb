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
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Unigram is a word-dictionary entry: its surface string, its dense id and
// its corpus-wide frequency.
type Unigram struct {
	Str    string
	Wid    uint32
	Weight uint32
}

var UnigramCodec = Codec[Unigram]{
	MsgType: "Unigram",
	Encode: func(w io.Writer, v Unigram) error {
		if err := writeString(w, v.Str); err != nil {
			return err
		}
		if err := binary.Write(w, binary.BigEndian, v.Wid); err != nil {
			return err
		}
		return binary.Write(w, binary.BigEndian, v.Weight)
	},
	Decode: func(r io.Reader) (Unigram, error) {
		str, err := readString(r)
		if err != nil {
			return Unigram{}, translateEOF(err)
		}
		var wid, weight uint32
		if err := binary.Read(r, binary.BigEndian, &wid); err != nil {
			return Unigram{}, fmt.Errorf("failed to read unigram wid: %w", err)
		}
		if err := binary.Read(r, binary.BigEndian, &weight); err != nil {
			return Unigram{}, fmt.Errorf("failed to read unigram weight: %w", err)
		}
		return Unigram{Str: str, Wid: wid, Weight: weight}, nil
	},
}

// LemId is a lemma-dictionary entry: its canonical string and dense id.
type LemId struct {
	Str string
	Id  uint32
}

var LemIdCodec = Codec[LemId]{
	MsgType: "LemId",
	Encode: func(w io.Writer, v LemId) error {
		if err := writeString(w, v.Str); err != nil {
			return err
		}
		return binary.Write(w, binary.BigEndian, v.Id)
	},
	Decode: func(r io.Reader) (LemId, error) {
		str, err := readString(r)
		if err != nil {
			return LemId{}, translateEOF(err)
		}
		var id uint32
		if err := binary.Read(r, binary.BigEndian, &id); err != nil {
			return LemId{}, fmt.Errorf("failed to read lemid id: %w", err)
		}
		return LemId{Str: str, Id: id}, nil
	},
}

// LemFreq is a surviving lemma's document-frequency record.
type LemFreq struct {
	Str      string
	Id       uint32
	DocCount uint32
}

var LemFreqCodec = Codec[LemFreq]{
	MsgType: "LemFreq",
	Encode: func(w io.Writer, v LemFreq) error {
		if err := writeString(w, v.Str); err != nil {
			return err
		}
		if err := binary.Write(w, binary.BigEndian, v.Id); err != nil {
			return err
		}
		return binary.Write(w, binary.BigEndian, v.DocCount)
	},
	Decode: func(r io.Reader) (LemFreq, error) {
		str, err := readString(r)
		if err != nil {
			return LemFreq{}, translateEOF(err)
		}
		var id, dc uint32
		if err := binary.Read(r, binary.BigEndian, &id); err != nil {
			return LemFreq{}, fmt.Errorf("failed to read lemfreq id: %w", err)
		}
		if err := binary.Read(r, binary.BigEndian, &dc); err != nil {
			return LemFreq{}, fmt.Errorf("failed to read lemfreq doc count: %w", err)
		}
		return LemFreq{Str: str, Id: id, DocCount: dc}, nil
	},
}

// Phrase is an ordered run of word ids. An empty Ids slice is the document
// boundary sentinel on the corpus stream; on lems.tbl a Phrase instead holds
// one word's lemma-id set, the i-th record corresponding to wid = i+1.
type Phrase struct {
	Ids []uint32
}

var PhraseCodec = Codec[Phrase]{
	MsgType: "Phrase",
	Encode: func(w io.Writer, v Phrase) error {
		return WriteUint32Slice(w, v.Ids)
	},
	Decode: func(r io.Reader) (Phrase, error) {
		ids, err := ReadUint32Slice(r)
		if err != nil {
			return Phrase{}, translateEOF(err)
		}
		return Phrase{Ids: ids}, nil
	},
}

// Bigram is a surface-level adjacent word-id pair count.
type Bigram struct {
	Wid1, Wid2 uint32
	Count      uint32
}

var BigramCodec = Codec[Bigram]{
	MsgType: "Bigram",
	Encode: func(w io.Writer, v Bigram) error {
		return binary.Write(w, binary.BigEndian, v)
	},
	Decode: func(r io.Reader) (Bigram, error) {
		var v Bigram
		if err := binary.Read(r, binary.BigEndian, &v); err != nil {
			return Bigram{}, translateEOF(err)
		}
		return v, nil
	},
}

// Trigram is a surface-level adjacent word-id triple count.
type Trigram struct {
	Wid1, Wid2, Wid3 uint32
	Count            uint32
}

var TrigramCodec = Codec[Trigram]{
	MsgType: "Trigram",
	Encode: func(w io.Writer, v Trigram) error {
		return binary.Write(w, binary.BigEndian, v)
	},
	Decode: func(r io.Reader) (Trigram, error) {
		var v Trigram
		if err := binary.Read(r, binary.BigEndian, &v); err != nil {
			return Trigram{}, translateEOF(err)
		}
		return v, nil
	},
}

// Case2 is a surface-level witness inside a Lem2Group: the word-id pair that
// contributed Count occurrences to the lemma pair's weight.
type Case2 struct {
	Wid1, Wid2 uint32
	Count      uint32
}

// Lem2Group is a lemma-bigram's scored group: its final weight (or, before
// scoring, the accumulated raw weight) and the surface cases that built it.
type Lem2Group struct {
	Lid1, Lid2 uint32
	Weight     float64
	Cases      []Case2
}

var Lem2GroupCodec = Codec[Lem2Group]{
	MsgType: "Lem2Group",
	Encode: func(w io.Writer, v Lem2Group) error {
		if err := binary.Write(w, binary.BigEndian, v.Lid1); err != nil {
			return err
		}
		if err := binary.Write(w, binary.BigEndian, v.Lid2); err != nil {
			return err
		}
		if err := binary.Write(w, binary.BigEndian, v.Weight); err != nil {
			return err
		}
		if err := binary.Write(w, binary.BigEndian, uint32(len(v.Cases))); err != nil {
			return err
		}
		for _, c := range v.Cases {
			if err := binary.Write(w, binary.BigEndian, c); err != nil {
				return err
			}
		}
		return nil
	},
	Decode: func(r io.Reader) (Lem2Group, error) {
		var v Lem2Group
		if err := binary.Read(r, binary.BigEndian, &v.Lid1); err != nil {
			return Lem2Group{}, translateEOF(err)
		}
		if err := binary.Read(r, binary.BigEndian, &v.Lid2); err != nil {
			return Lem2Group{}, fmt.Errorf("failed to read lem2group lid2: %w", err)
		}
		if err := binary.Read(r, binary.BigEndian, &v.Weight); err != nil {
			return Lem2Group{}, fmt.Errorf("failed to read lem2group weight: %w", err)
		}
		var n uint32
		if err := binary.Read(r, binary.BigEndian, &n); err != nil {
			return Lem2Group{}, fmt.Errorf("failed to read lem2group case count: %w", err)
		}
		v.Cases = make([]Case2, n)
		for i := range v.Cases {
			if err := binary.Read(r, binary.BigEndian, &v.Cases[i]); err != nil {
				return Lem2Group{}, fmt.Errorf("failed to read lem2group case: %w", err)
			}
		}
		return v, nil
	},
}

// Case3 is the trigram analogue of Case2.
type Case3 struct {
	Wid1, Wid2, Wid3 uint32
	Count            uint32
}

// Lem3Group is the trigram analogue of Lem2Group.
type Lem3Group struct {
	Lid1, Lid2, Lid3 uint32
	Weight           float64
	Cases            []Case3
}

var Lem3GroupCodec = Codec[Lem3Group]{
	MsgType: "Lem3Group",
	Encode: func(w io.Writer, v Lem3Group) error {
		if err := binary.Write(w, binary.BigEndian, v.Lid1); err != nil {
			return err
		}
		if err := binary.Write(w, binary.BigEndian, v.Lid2); err != nil {
			return err
		}
		if err := binary.Write(w, binary.BigEndian, v.Lid3); err != nil {
			return err
		}
		if err := binary.Write(w, binary.BigEndian, v.Weight); err != nil {
			return err
		}
		if err := binary.Write(w, binary.BigEndian, uint32(len(v.Cases))); err != nil {
			return err
		}
		for _, c := range v.Cases {
			if err := binary.Write(w, binary.BigEndian, c); err != nil {
				return err
			}
		}
		return nil
	},
	Decode: func(r io.Reader) (Lem3Group, error) {
		var v Lem3Group
		if err := binary.Read(r, binary.BigEndian, &v.Lid1); err != nil {
			return Lem3Group{}, translateEOF(err)
		}
		if err := binary.Read(r, binary.BigEndian, &v.Lid2); err != nil {
			return Lem3Group{}, fmt.Errorf("failed to read lem3group lid2: %w", err)
		}
		if err := binary.Read(r, binary.BigEndian, &v.Lid3); err != nil {
			return Lem3Group{}, fmt.Errorf("failed to read lem3group lid3: %w", err)
		}
		if err := binary.Read(r, binary.BigEndian, &v.Weight); err != nil {
			return Lem3Group{}, fmt.Errorf("failed to read lem3group weight: %w", err)
		}
		var n uint32
		if err := binary.Read(r, binary.BigEndian, &n); err != nil {
			return Lem3Group{}, fmt.Errorf("failed to read lem3group case count: %w", err)
		}
		v.Cases = make([]Case3, n)
		for i := range v.Cases {
			if err := binary.Read(r, binary.BigEndian, &v.Cases[i]); err != nil {
				return Lem3Group{}, fmt.Errorf("failed to read lem3group case: %w", err)
			}
		}
		return v, nil
	},
}

// LemPairFreq is a (lid1, lid2) doc-count record, as persisted to
// bifreq.tbl.
type LemPairFreq struct {
	Lid1, Lid2 uint32
	DocCount   uint32
}

var LemPairFreqCodec = Codec[LemPairFreq]{
	MsgType: "LemPairFreq",
	Encode: func(w io.Writer, v LemPairFreq) error {
		return binary.Write(w, binary.BigEndian, v)
	},
	Decode: func(r io.Reader) (LemPairFreq, error) {
		var v LemPairFreq
		if err := binary.Read(r, binary.BigEndian, &v); err != nil {
			return LemPairFreq{}, translateEOF(err)
		}
		return v, nil
	},
}

// LemTripleFreq is the trigram analogue of LemPairFreq, as persisted to
// trifreq.tbl.
type LemTripleFreq struct {
	Lid1, Lid2, Lid3 uint32
	DocCount         uint32
}

var LemTripleFreqCodec = Codec[LemTripleFreq]{
	MsgType: "LemTripleFreq",
	Encode: func(w io.Writer, v LemTripleFreq) error {
		return binary.Write(w, binary.BigEndian, v)
	},
	Decode: func(r io.Reader) (LemTripleFreq, error) {
		var v LemTripleFreq
		if err := binary.Read(r, binary.BigEndian, &v); err != nil {
			return LemTripleFreq{}, translateEOF(err)
		}
		return v, nil
	},
}

func translateEOF(err error) error {
	if err == io.ErrUnexpectedEOF || errors.Is(err, io.EOF) {
		return io.EOF
	}
	return err
}
