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

import "strings"

// AcceptRange is the inclusive code-point range a word must lie entirely
// within to pass the Convert word filter. The zero value is invalid; use
// DefaultAcceptRange for the configured Cyrillic default.
type AcceptRange struct {
	Lo, Hi rune
}

// DefaultAcceptRange is U+0400..U+0451, the Cyrillic block configured by
// default.
var DefaultAcceptRange = AcceptRange{Lo: 0x0400, Hi: 0x0451}

const maxWordCodepoints = 50

// AcceptWord reports whether a token (already known not to be punctuation)
// passes the Convert word filter: code-point length at most 50 and every
// code point inside rng.
func AcceptWord(tok string, rng AcceptRange) bool {
	n := 0
	for _, r := range tok {
		n++
		if n > maxWordCodepoints {
			return false
		}
		if r < rng.Lo || r > rng.Hi {
			return false
		}
	}
	return n > 0
}

// UnigramCounts is the growing word dictionary built by Convert: a map from
// lowercased surface string to (wid, count), with ids assigned in first-seen
// order starting at 1.
type UnigramCounts struct {
	byStr  map[string]*Unigram
	byWid  []*Unigram // index i holds wid = i+1
	Range  AcceptRange
}

func NewUnigramCounts(rng AcceptRange) *UnigramCounts {
	return &UnigramCounts{
		byStr: make(map[string]*Unigram),
		Range: rng,
	}
}

// UpdateWord records one occurrence of tok if it passes the accept filter
// (not punctuation, handled by the caller; length and code-point range
// checked here) and returns the assigned wid, or 0 if the token was
// rejected.
func (u *UnigramCounts) UpdateWord(tok string, isPunct bool) uint32 {
	if isPunct {
		return 0
	}
	lower := strings.ToLower(tok)
	if !AcceptWord(lower, u.Range) {
		return 0
	}
	if e, ok := u.byStr[lower]; ok {
		e.Weight++
		return e.Wid
	}
	e := &Unigram{Str: lower, Wid: uint32(len(u.byWid) + 1), Weight: 1}
	u.byStr[lower] = e
	u.byWid = append(u.byWid, e)
	return e.Wid
}

// Len returns the number of distinct accepted words seen so far.
func (u *UnigramCounts) Len() int {
	return len(u.byWid)
}

// ByWid returns the unigram record for the given 1-based wid, in insertion
// order. It panics if wid is out of range, since every wid handed out by
// UpdateWord must resolve here.
func (u *UnigramCounts) ByWid(wid uint32) *Unigram {
	return u.byWid[wid-1]
}

// All returns every unigram record in ascending wid order.
func (u *UnigramCounts) All() []*Unigram {
	return u.byWid
}
