// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package instruction defines the signed instruction envelope callers
// submit and the runtime that executes envelopes one at a time against the
// account store.
package instruction

import (
	"crypto/ed25519"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"

	"github.com/adxyz/admarket/pkg/ids"
)

// Op names a ledger operation
type Op string

const (
	OpCreateAdSlot   Op = "create_ad_slot"
	OpCreateAd       Op = "create_ad"
	OpBuyFixedPrice  Op = "buy_fixed_price"
	OpPlaceBid       Op = "place_bid"
	OpCloseAuction   Op = "close_auction"
	OpDeactivateSlot Op = "deactivate_slot"
	OpIncrementView  Op = "increment_view"
	OpSetAdActive    Op = "set_ad_active"
	OpEscrowPayment  Op = "escrow_payment"
	OpReleaseEscrow  Op = "release_escrow"
	OpRefundEscrow   Op = "refund_escrow"
)

var (
	ErrInvalidSignature = errors.New("invalid instruction signature")
	ErrUnknownOp        = errors.New("unknown op")
)

// HexBytes marshals as a hex string in JSON
type HexBytes []byte

func (h HexBytes) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString(h)), nil
}

func (h *HexBytes) UnmarshalText(text []byte) error {
	decoded, err := hex.DecodeString(string(text))
	if err != nil {
		return err
	}
	*h = decoded
	return nil
}

// Envelope is one signed instruction. The nonce salts the signature so
// identical instructions don't share signatures; replay protection beyond
// that is a host-ledger concern.
type Envelope struct {
	Op        Op              `json:"op"`
	Args      json.RawMessage `json:"args"`
	Nonce     uint64          `json:"nonce"`
	PublicKey HexBytes        `json:"public_key"`
	Signature HexBytes        `json:"signature"`
}

func signingBytes(op Op, nonce uint64, args []byte) []byte {
	buf := make([]byte, 0, len(op)+8+len(args)+12)
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(op)))
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, op...)
	var nonceBuf [8]byte
	binary.BigEndian.PutUint64(nonceBuf[:], nonce)
	buf = append(buf, nonceBuf[:]...)
	buf = append(buf, args...)
	return buf
}

// Sign builds a signed envelope for op with the given args
func Sign(priv ed25519.PrivateKey, op Op, nonce uint64, args interface{}) (*Envelope, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	pub := priv.Public().(ed25519.PublicKey)
	sig := ed25519.Sign(priv, signingBytes(op, nonce, raw))
	return &Envelope{
		Op:        op,
		Args:      raw,
		Nonce:     nonce,
		PublicKey: HexBytes(pub),
		Signature: HexBytes(sig),
	}, nil
}

// Verify checks the envelope signature
func (e *Envelope) Verify() error {
	if len(e.PublicKey) != ed25519.PublicKeySize {
		return ErrInvalidSignature
	}
	if !ed25519.Verify(ed25519.PublicKey(e.PublicKey), signingBytes(e.Op, e.Nonce, e.Args), e.Signature) {
		return ErrInvalidSignature
	}
	return nil
}

// Signer returns the ledger identity bound to the envelope signature
func (e *Envelope) Signer() ids.ID {
	return ids.FromPublicKey(e.PublicKey)
}

// Per-op argument payloads. Addresses are caller-resolved, including
// derived escrow addresses.

type CreateAdSlotArgs struct {
	Slot         ids.ID `json:"slot"`
	SlotID       string `json:"slot_id"`
	Price        uint64 `json:"price"`
	Duration     uint64 `json:"duration"`
	IsAuction    bool   `json:"is_auction"`
	AuctionEnd   int64  `json:"auction_end"`
	Category     string `json:"category"`
	AudienceSize uint64 `json:"audience_size"`
}

type CreateAdArgs struct {
	AdID     string `json:"ad_id"`
	Slot     ids.ID `json:"slot"`
	MediaCID string `json:"media_cid"`
}

type BuyFixedPriceArgs struct {
	Slot ids.ID `json:"slot"`
}

type PlaceBidArgs struct {
	Slot   ids.ID `json:"slot"`
	Amount uint64 `json:"amount"`
}

type CloseAuctionArgs struct {
	Slot ids.ID `json:"slot"`
}

type DeactivateSlotArgs struct {
	Slot ids.ID `json:"slot"`
}

type IncrementViewArgs struct {
	Slot ids.ID `json:"slot"`
}

type SetAdActiveArgs struct {
	Ad     ids.ID `json:"ad"`
	Active bool   `json:"active"`
}

type EscrowPaymentArgs struct {
	Slot   ids.ID `json:"slot"`
	Amount uint64 `json:"amount"`
}

type ReleaseEscrowArgs struct {
	Escrow ids.ID `json:"escrow"`
	Slot   ids.ID `json:"slot"`
}

type RefundEscrowArgs struct {
	Escrow ids.ID `json:"escrow"`
	Slot   ids.ID `json:"slot"`
}
