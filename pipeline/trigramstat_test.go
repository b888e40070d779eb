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

package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestContributeTrigramsLeftContextEmittedOnceForContiguousAnchorRun checks
// the found-flag state machine: a run of consecutive anchored bigrams only
// contributes its left-context triple once, at the run's start, while the
// right-context triple is contributed for every anchored pair in the run.
func TestContributeTrigramsLeftContextEmittedOnceForContiguousAnchorRun(t *testing.T) {
	ids := []uint32{10, 20, 30, 40, 50}
	anchors := map[[2]uint32]struct{}{
		{20, 30}: {},
		{30, 40}: {},
	}
	counts := make(map[[3]uint32]uint32)
	contributeTrigrams(ids, anchors, counts)

	assert.Equal(t, map[[3]uint32]uint32{
		{10, 20, 30}: 1, // left context of the run, emitted once
		{20, 30, 40}: 1, // right context of first anchored pair
		{30, 40, 50}: 1, // right context of second anchored pair
	}, counts)
}

// TestContributeTrigramsNoAnchorsContributesNothing confirms a phrase with
// no bigram in the anchor set never produces trigram candidates.
func TestContributeTrigramsNoAnchorsContributesNothing(t *testing.T) {
	ids := []uint32{1, 2, 3, 4}
	counts := make(map[[3]uint32]uint32)
	contributeTrigrams(ids, map[[2]uint32]struct{}{}, counts)
	assert.Empty(t, counts)
}

// TestContributeTrigramsAnchorAtPhraseStartHasNoLeftContext confirms the
// left-context triple is only contributed when there is a preceding word.
func TestContributeTrigramsAnchorAtPhraseStartHasNoLeftContext(t *testing.T) {
	ids := []uint32{20, 30, 40}
	anchors := map[[2]uint32]struct{}{{20, 30}: {}}
	counts := make(map[[3]uint32]uint32)
	contributeTrigrams(ids, anchors, counts)

	assert.Equal(t, map[[3]uint32]uint32{
		{20, 30, 40}: 1,
	}, counts)
}

// TestContributeTrigramsTwoSeparateAnchoredPairsBothGetLeftContext confirms
// that a gap (non-anchored bigram) between two anchored bigrams resets the
// found flag, so each isolated anchored pair gets its own left context.
func TestContributeTrigramsTwoSeparateAnchoredPairsBothGetLeftContext(t *testing.T) {
	ids := []uint32{1, 2, 3, 4, 5, 6}
	anchors := map[[2]uint32]struct{}{
		{1, 2}: {},
		{4, 5}: {},
	}
	counts := make(map[[3]uint32]uint32)
	contributeTrigrams(ids, anchors, counts)

	assert.Equal(t, map[[3]uint32]uint32{
		{1, 2, 3}: 1, // right context of (1,2); no left context (start of phrase)
		{3, 4, 5}: 1, // left context of (4,5)
		{4, 5, 6}: 1, // right context of (4,5)
	}, counts)
}
