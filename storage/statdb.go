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

// Package storage provides the optional BadgerDB-backed mirror of the
// final serving map, for single-key lookups against output too large to
// load into memory.
package storage

import (
	"encoding/binary"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog/log"
)

// statPrefix discriminates key namespaces within the single badger
// keyspace, one byte per entry kind ahead of its lemma-string key.
type statPrefix byte

const (
	prefixUnigram statPrefix = 1
	prefixBigram  statPrefix = 2
	prefixTrigram statPrefix = 3
)

// StatDB is a BadgerDB-backed mirror of a stat map: one key per serving
// entry, value-encoded as a compact fixed-width doc-count plus the
// representative surface text.
type StatDB struct {
	bdb *badger.DB
}

// ZerologWrapper adapts zerolog's global logger to badger.Logger.
type ZerologWrapper struct{}

func (ZerologWrapper) Errorf(f string, v ...interface{})   { log.Error().Msgf(f, v...) }
func (ZerologWrapper) Warningf(f string, v ...interface{}) { log.Warn().Msgf(f, v...) }
func (ZerologWrapper) Infof(f string, v ...interface{})    { log.Info().Msgf(f, v...) }
func (ZerologWrapper) Debugf(f string, v ...interface{})   { log.Debug().Msgf(f, v...) }

// OpenStatDB opens (creating if necessary) the serving-index database at
// path, with read-optimized cache sizing for a store that is written once
// per extraction run and then served read-only.
func OpenStatDB(path string) (*StatDB, error) {
	opts := badger.DefaultOptions(path).
		WithValueLogFileSize(1 << 30).
		WithBlockCacheSize(512 << 20).
		WithIndexCacheSize(256 << 20).
		WithNumMemtables(2).
		WithNumLevelZeroTables(2).
		WithLogger(ZerologWrapper{})
	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open stat db: %w", err)
	}
	return &StatDB{bdb: bdb}, nil
}

// Close closes the underlying Badger database. It is a NOP on a nil
// receiver or an unopened StatDB.
func (db *StatDB) Close() error {
	if db != nil && db.bdb != nil {
		return db.bdb.Close()
	}
	return nil
}

func unigramKey(lemma string) []byte {
	k := make([]byte, 0, 1+len(lemma))
	k = append(k, byte(prefixUnigram))
	return append(k, lemma...)
}

func bigramKey(lemma1, lemma2 string) []byte {
	k := make([]byte, 0, 1+len(lemma1)+len(lemma2))
	k = append(k, byte(prefixBigram))
	k = append(k, lemma1...)
	return append(k, lemma2...)
}

func trigramKey(lemma1, lemma2, lemma3 string) []byte {
	k := make([]byte, 0, 1+len(lemma1)+len(lemma2)+len(lemma3))
	k = append(k, byte(prefixTrigram))
	k = append(k, lemma1...)
	k = append(k, lemma2...)
	return append(k, lemma3...)
}

// encodeEntry packs a doc-count and representative surface text into a
// compact fixed-width-prefixed value: 4 bytes big-endian doc-count,
// followed by the raw UTF-8 text bytes (empty for unigram entries).
func encodeEntry(docCount uint32, txt string) []byte {
	v := make([]byte, 4+len(txt))
	binary.BigEndian.PutUint32(v, docCount)
	copy(v[4:], txt)
	return v
}

func decodeEntry(v []byte) (uint32, string) {
	if len(v) < 4 {
		return 0, ""
	}
	return binary.BigEndian.Uint32(v), string(v[4:])
}

// PutUnigramTx stores a lemma-level serving entry within an existing
// transaction, so callers can batch many entries per commit.
func (db *StatDB) PutUnigramTx(txn *badger.Txn, lemma string, docCount uint32) error {
	return txn.Set(unigramKey(lemma), encodeEntry(docCount, ""))
}

// PutBigramTx stores a bigram serving entry within an existing transaction.
func (db *StatDB) PutBigramTx(txn *badger.Txn, lemma1, lemma2 string, docCount uint32, txt string) error {
	return txn.Set(bigramKey(lemma1, lemma2), encodeEntry(docCount, txt))
}

// PutTrigramTx stores a trigram serving entry within an existing
// transaction.
func (db *StatDB) PutTrigramTx(txn *badger.Txn, lemma1, lemma2, lemma3 string, docCount uint32, txt string) error {
	return txn.Set(trigramKey(lemma1, lemma2, lemma3), encodeEntry(docCount, txt))
}

// NewWriteTransaction starts a new read-write transaction for batched
// writes.
func (db *StatDB) NewWriteTransaction() *badger.Txn {
	return db.bdb.NewTransaction(true)
}

// LookupUnigram retrieves a single lemma's doc-count entry.
func (db *StatDB) LookupUnigram(lemma string) (uint32, bool, error) {
	return db.lookup(unigramKey(lemma))
}

// LookupBigram retrieves a single lemma-pair entry, returning its doc-count
// and representative surface text.
func (db *StatDB) LookupBigram(lemma1, lemma2 string) (uint32, string, bool, error) {
	dc, txt, found, err := db.lookupWithText(bigramKey(lemma1, lemma2))
	return dc, txt, found, err
}

// LookupTrigram retrieves a single lemma-triple entry.
func (db *StatDB) LookupTrigram(lemma1, lemma2, lemma3 string) (uint32, string, bool, error) {
	dc, txt, found, err := db.lookupWithText(trigramKey(lemma1, lemma2, lemma3))
	return dc, txt, found, err
}

func (db *StatDB) lookup(key []byte) (uint32, bool, error) {
	dc, _, found, err := db.lookupWithText(key)
	return dc, found, err
}

func (db *StatDB) lookupWithText(key []byte) (uint32, string, bool, error) {
	var dc uint32
	var txt string
	found := true
	err := db.bdb.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err == badger.ErrKeyNotFound {
			found = false
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			dc, txt = decodeEntry(val)
			return nil
		})
	})
	if err != nil {
		return 0, "", false, fmt.Errorf("failed to look up stat entry: %w", err)
	}
	return dc, txt, found, nil
}
