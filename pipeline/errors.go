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

// Package pipeline implements the nine out-of-core stages that turn a
// corpus of documents into a filtered, scored n-gram collocation table.
package pipeline

import "errors"

// ErrInvariantViolation covers a zero count in a seeded freq map after its
// producing scan, an empty string / zero docCount at emit time, or an empty
// lemma set reaching lems.tbl.
var ErrInvariantViolation = errors.New("pipeline invariant violation")

// ErrLingProcFailure covers the linguistic processor returning a number of
// lemma sets different from the number of words it was given. An empty
// lemma set for a single word is reported as ErrInvariantViolation instead.
var ErrLingProcFailure = errors.New("linguistic processor contract violation")
