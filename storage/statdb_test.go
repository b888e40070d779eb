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

package storage

import (
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInMemoryStatDB(t *testing.T) *StatDB {
	t.Helper()
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(ZerologWrapper{})
	bdb, err := badger.Open(opts)
	require.NoError(t, err, "failed to open in-memory database")
	t.Cleanup(func() { bdb.Close() })
	return &StatDB{bdb: bdb}
}

func TestStatDBUnigramRoundTrip(t *testing.T) {
	db := newInMemoryStatDB(t)

	txn := db.NewWriteTransaction()
	require.NoError(t, db.PutUnigramTx(txn, "example", 42))
	require.NoError(t, txn.Commit())

	dc, found, err := db.LookupUnigram("example")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, uint32(42), dc)

	_, found, err = db.LookupUnigram("missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStatDBBigramAndTrigramRoundTrip(t *testing.T) {
	db := newInMemoryStatDB(t)

	txn := db.NewWriteTransaction()
	require.NoError(t, db.PutBigramTx(txn, "go", "lang", 7, "go language"))
	require.NoError(t, db.PutTrigramTx(txn, "go", "is", "fun", 3, "go is fun"))
	require.NoError(t, txn.Commit())

	dc, txt, found, err := db.LookupBigram("go", "lang")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, uint32(7), dc)
	assert.Equal(t, "go language", txt)

	dc3, txt3, found3, err := db.LookupTrigram("go", "is", "fun")
	require.NoError(t, err)
	assert.True(t, found3)
	assert.Equal(t, uint32(3), dc3)
	assert.Equal(t, "go is fun", txt3)

	_, _, found, err = db.LookupBigram("no", "such")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStatDBKeyNamespacesDoNotCollide(t *testing.T) {
	db := newInMemoryStatDB(t)

	txn := db.NewWriteTransaction()
	require.NoError(t, db.PutUnigramTx(txn, "x", 1))
	require.NoError(t, db.PutBigramTx(txn, "x", "", 2, ""))
	require.NoError(t, txn.Commit())

	dc1, found1, err := db.LookupUnigram("x")
	require.NoError(t, err)
	require.True(t, found1)
	assert.Equal(t, uint32(1), dc1)

	dc2, _, found2, err := db.LookupBigram("x", "")
	require.NoError(t, err)
	require.True(t, found2)
	assert.Equal(t, uint32(2), dc2)
}

func TestStatDBCloseIsNilSafe(t *testing.T) {
	var db *StatDB
	assert.NoError(t, db.Close())
}
