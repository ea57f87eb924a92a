// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package accounts is the keyed record substrate both engines read and
// write. Records live at 32-byte addresses under a per-kind key prefix;
// every instruction runs inside a Tx whose writes either all commit in one
// batch or are discarded.
package accounts

import (
	"encoding/binary"
	"errors"

	"github.com/luxfi/database"
	"github.com/luxfi/database/badgerdb"
	"github.com/luxfi/database/memdb"

	"github.com/adxyz/admarket/pkg/ids"
	"github.com/adxyz/admarket/pkg/log"
)

var (
	ErrNotFound          = errors.New("account not found")
	ErrAlreadyExists     = errors.New("account already exists")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrBalanceOverflow   = errors.New("balance overflow")
)

// Kind namespaces record addresses so different record types can share
// an address without clashing.
type Kind string

const (
	KindSlot    Kind = "slot"
	KindAd      Kind = "ad"
	KindEscrow  Kind = "escrow"
	KindBalance Kind = "balance"
)

var kindPrefixes = map[Kind][]byte{
	KindSlot:    []byte("slot:"),
	KindAd:      []byte("ad:"),
	KindEscrow:  []byte("escr:"),
	KindBalance: []byte("bal:"),
}

// Prefix returns the raw key prefix for a record kind
func (k Kind) Prefix() []byte {
	return kindPrefixes[k]
}

func recordKey(kind Kind, id ids.ID) []byte {
	prefix := kindPrefixes[kind]
	key := make([]byte, 0, len(prefix)+len(id))
	key = append(key, prefix...)
	key = append(key, id.Bytes()...)
	return key
}

// Store wraps a luxfi database as the persistent account substrate
type Store struct {
	db  database.Database
	log log.Logger
}

// New creates a store backed by the requested database type
func New(dbType string, path string, logger log.Logger) (*Store, error) {
	var db database.Database
	var err error

	switch dbType {
	case "memory":
		db = memdb.New()
	case "badger":
		db, err = badgerdb.New(path, nil, "", nil)
		if err != nil {
			return nil, err
		}
	default:
		db, err = badgerdb.New(path, nil, "", nil)
		if err != nil {
			return nil, err
		}
	}

	return &Store{db: db, log: logger}, nil
}

// NewMemory creates an in-memory store, used by tests
func NewMemory() *Store {
	return &Store{db: memdb.New(), log: log.NoOp()}
}

// Begin opens a new instruction transaction against committed state
func (s *Store) Begin() *Tx {
	return &Tx{
		store: s,
		dirty: make(map[string][]byte),
	}
}

// Has reports whether a record exists in committed state
func (s *Store) Has(kind Kind, id ids.ID) (bool, error) {
	return s.db.Has(recordKey(kind, id))
}

// Get reads a committed record, bypassing any open transaction
func (s *Store) Get(kind Kind, id ids.ID, out interface{}) error {
	data, err := s.db.Get(recordKey(kind, id))
	if errors.Is(err, database.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return decodeRecord(data, out)
}

// BalanceOf reads a committed balance; absent accounts hold zero
func (s *Store) BalanceOf(id ids.ID) (uint64, error) {
	data, err := s.db.Get(recordKey(KindBalance, id))
	if errors.Is(err, database.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(data) != 8 {
		return 0, errors.New("corrupt balance record")
	}
	return binary.BigEndian.Uint64(data), nil
}

// Scan iterates all committed records of a kind. The callback receives the
// record address and raw value; returning false stops the scan.
func (s *Store) Scan(kind Kind, fn func(id ids.ID, value []byte) bool) error {
	prefix := kindPrefixes[kind]
	it := s.db.NewIteratorWithPrefix(prefix)
	defer it.Release()

	for it.Next() {
		key := it.Key()
		if len(key) != len(prefix)+32 {
			continue
		}
		var id ids.ID
		copy(id[:], key[len(prefix):])
		if !fn(id, it.Value()) {
			break
		}
	}
	return it.Error()
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}
