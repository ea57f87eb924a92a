// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package accounts

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"math"

	"github.com/luxfi/database"

	"github.com/adxyz/admarket/pkg/core"
	"github.com/adxyz/admarket/pkg/ids"
)

// Tx buffers the record mutations of a single instruction. Reads see the
// buffer first, then committed state. Commit applies the whole buffer
// through one database batch; abandoning the Tx discards everything, so a
// failed precondition can never leave partial state behind.
type Tx struct {
	store  *Store
	dirty  map[string][]byte
	events []core.Event
}

func decodeRecord(data []byte, out interface{}) error {
	return json.Unmarshal(data, out)
}

func encodeRecord(rec interface{}) ([]byte, error) {
	return json.Marshal(rec)
}

func (tx *Tx) get(key []byte) ([]byte, error) {
	if v, ok := tx.dirty[string(key)]; ok {
		return v, nil
	}
	v, err := tx.store.db.Get(key)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrNotFound
	}
	return v, err
}

func (tx *Tx) has(key []byte) (bool, error) {
	if _, ok := tx.dirty[string(key)]; ok {
		return true, nil
	}
	return tx.store.db.Has(key)
}

// Load reads a record into out, failing with ErrNotFound if absent
func (tx *Tx) Load(kind Kind, id ids.ID, out interface{}) error {
	data, err := tx.get(recordKey(kind, id))
	if err != nil {
		return err
	}
	return decodeRecord(data, out)
}

// Create writes a record at a fresh address, failing with
// ErrAlreadyExists if the address is occupied.
func (tx *Tx) Create(kind Kind, id ids.ID, rec interface{}) error {
	key := recordKey(kind, id)
	exists, err := tx.has(key)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyExists
	}
	data, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	tx.dirty[string(key)] = data
	return nil
}

// Store updates a record in place, failing with ErrNotFound if absent
func (tx *Tx) Store(kind Kind, id ids.ID, rec interface{}) error {
	key := recordKey(kind, id)
	exists, err := tx.has(key)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	data, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	tx.dirty[string(key)] = data
	return nil
}

// Balance returns the current balance of an account; absent accounts hold zero
func (tx *Tx) Balance(id ids.ID) (uint64, error) {
	data, err := tx.get(recordKey(KindBalance, id))
	if errors.Is(err, ErrNotFound) {
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

func (tx *Tx) setBalance(id ids.ID, amount uint64) {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, amount)
	tx.dirty[string(recordKey(KindBalance, id))] = buf
}

// Credit adds funds to an account, failing with ErrBalanceOverflow if the
// result would not fit in a uint64.
func (tx *Tx) Credit(id ids.ID, amount uint64) error {
	bal, err := tx.Balance(id)
	if err != nil {
		return err
	}
	if amount > math.MaxUint64-bal {
		return ErrBalanceOverflow
	}
	tx.setBalance(id, bal+amount)
	return nil
}

// Debit removes funds from an account, failing with ErrInsufficientFunds
func (tx *Tx) Debit(id ids.ID, amount uint64) error {
	bal, err := tx.Balance(id)
	if err != nil {
		return err
	}
	if bal < amount {
		return ErrInsufficientFunds
	}
	tx.setBalance(id, bal-amount)
	return nil
}

// Transfer atomically debits the payer and credits the recipient
func (tx *Tx) Transfer(from, to ids.ID, amount uint64) error {
	if err := tx.Debit(from, amount); err != nil {
		return err
	}
	return tx.Credit(to, amount)
}

// Emit queues a domain event for publication after commit
func (tx *Tx) Emit(evt core.Event) {
	tx.events = append(tx.events, evt)
}

// Events returns the queued events
func (tx *Tx) Events() []core.Event {
	return tx.events
}

// Commit writes the whole buffer through one database batch
func (tx *Tx) Commit() error {
	batch := tx.store.db.NewBatch()
	for key, value := range tx.dirty {
		if err := batch.Put([]byte(key), value); err != nil {
			return err
		}
	}
	return batch.Write()
}
