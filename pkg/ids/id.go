// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ids

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// ID represents a unique 32-byte account address
type ID [32]byte

// Empty is the zero ID, used where an identity is absent
// (e.g. an auction with no bids yet).
var Empty ID

// GenerateTestID creates a random ID for testing
func GenerateTestID() ID {
	var id ID
	rand.Read(id[:])
	return id
}

// FromPublicKey derives an account address from a signer public key
func FromPublicKey(pub []byte) ID {
	return ID(sha256.Sum256(pub))
}

// Derive computes a deterministic address from a tuple of seeds.
// Each seed is length-prefixed before hashing so distinct tuples
// can never collide ("ab","c" vs "a","bc").
func Derive(seeds ...[]byte) ID {
	h := sha256.New()
	var lenBuf [4]byte
	for _, seed := range seeds {
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(seed)))
		h.Write(lenBuf[:])
		h.Write(seed)
	}
	var id ID
	copy(id[:], h.Sum(nil))
	return id
}

// String returns the hex representation of the ID
func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// Bytes returns the byte representation of the ID
func (id ID) Bytes() []byte {
	return id[:]
}

// IsZero reports whether the ID is the empty ID
func (id ID) IsZero() bool {
	return id == Empty
}

// MarshalText implements encoding.TextMarshaler so IDs render as hex in JSON
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := FromString(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// FromString creates an ID from a hex string
func FromString(s string) (ID, error) {
	var id ID
	bytes, err := hex.DecodeString(s)
	if err != nil {
		return id, err
	}
	if len(bytes) != 32 {
		return id, fmt.Errorf("invalid ID length: expected 32, got %d", len(bytes))
	}
	copy(id[:], bytes)
	return id, nil
}
