// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package escrow implements the escrow engine: payment lock-up against a
// slot, release to the publisher, and refund to the advertiser. An escrow
// address is derived from (advertiser, slot), so at most one escrow record
// can ever exist per pair.
package escrow

import (
	"github.com/adxyz/admarket/pkg/accounts"
	"github.com/adxyz/admarket/pkg/core"
	"github.com/adxyz/admarket/pkg/ids"
	"github.com/adxyz/admarket/pkg/log"
)

var escrowSeed = []byte("escrow")

// Address derives the unique escrow address for an (advertiser, slot) pair
func Address(advertiser, slot ids.ID) ids.ID {
	return ids.Derive(escrowSeed, advertiser.Bytes(), slot.Bytes())
}

// Engine executes escrow instructions against an instruction transaction
type Engine struct {
	clock core.Clock
	log   log.Logger
}

// NewEngine creates an escrow engine
func NewEngine(clock core.Clock, logger log.Logger) *Engine {
	return &Engine{clock: clock, log: logger}
}

// EscrowPayment locks amount of the advertiser's funds against a slot.
// Funds are held on the escrow record's own balance account, mirroring how
// the record and its holdings settle or roll back together. Auction slots
// are rejected: their escrow is created by the auction close itself, and a
// direct escrow would squat on the derived address the close needs.
func (e *Engine) EscrowPayment(tx *accounts.Tx, advertiser, slot ids.ID, amount uint64) (ids.ID, error) {
	if amount == 0 {
		return ids.Empty, ErrInvalidAmount
	}

	var slotRec core.AdSlot
	if err := tx.Load(accounts.KindSlot, slot, &slotRec); err != nil {
		return ids.Empty, err
	}
	if slotRec.IsAuction {
		return ids.Empty, ErrInvalidPurchaseType
	}

	return e.open(tx, advertiser, slot, slotRec.Owner, amount, advertiser)
}

// FinalizeBid converts a winning bid held on the slot's balance account
// into a settled escrow. Called by the marketplace engine at auction close.
func (e *Engine) FinalizeBid(tx *accounts.Tx, bidder, slot, publisher ids.ID, amount uint64) (ids.ID, error) {
	if amount == 0 {
		return ids.Empty, ErrInvalidAmount
	}
	return e.open(tx, bidder, slot, publisher, amount, slot)
}

func (e *Engine) open(tx *accounts.Tx, advertiser, slot, publisher ids.ID, amount uint64, source ids.ID) (ids.ID, error) {
	addr := Address(advertiser, slot)

	rec := core.Escrow{
		Amount:     amount,
		Advertiser: advertiser,
		Publisher:  publisher,
		IsReleased: false,
	}
	if err := tx.Create(accounts.KindEscrow, addr, rec); err != nil {
		return ids.Empty, err
	}
	if err := tx.Transfer(source, addr, amount); err != nil {
		return ids.Empty, err
	}

	tx.Emit(core.NewEvent(core.EventEscrowCreated, e.clock.Now(), core.EscrowCreated{
		Escrow:     addr,
		Advertiser: advertiser,
		Publisher:  publisher,
		Amount:     amount,
	}))

	e.log.Debug("escrow created",
		log.Stringer("escrow", addr),
		log.Stringer("advertiser", advertiser),
		log.Uint64("amount", amount))

	return addr, nil
}

// ReleaseEscrow pays the held amount out to the publisher. Permitted to the
// publisher or the advertiser, and only once the underlying slot is no
// longer active. IsReleased latches: a settled escrow rejects both release
// and refund forever after.
func (e *Engine) ReleaseEscrow(tx *accounts.Tx, escrowAddr, slotAddr, authority ids.ID) error {
	var esc core.Escrow
	if err := tx.Load(accounts.KindEscrow, escrowAddr, &esc); err != nil {
		return err
	}
	var slot core.AdSlot
	if err := tx.Load(accounts.KindSlot, slotAddr, &slot); err != nil {
		return err
	}

	if slot.Owner != esc.Publisher {
		return ErrInvalidEscrow
	}
	if authority != esc.Publisher && authority != esc.Advertiser {
		return ErrUnauthorized
	}
	if esc.IsReleased {
		return ErrEscrowAlreadyReleased
	}
	if slot.IsActive {
		return ErrSlotActive
	}

	if err := tx.Transfer(escrowAddr, esc.Publisher, esc.Amount); err != nil {
		return err
	}
	esc.IsReleased = true
	if err := tx.Store(accounts.KindEscrow, escrowAddr, esc); err != nil {
		return err
	}

	tx.Emit(core.NewEvent(core.EventEscrowReleased, e.clock.Now(), core.EscrowReleased{
		Escrow:    escrowAddr,
		Publisher: esc.Publisher,
		Amount:    esc.Amount,
	}))

	e.log.Info("escrow released",
		log.Stringer("escrow", escrowAddr),
		log.Stringer("publisher", esc.Publisher),
		log.Uint64("amount", esc.Amount))

	return nil
}

// RefundEscrow returns the held amount to the advertiser, used when a slot
// is withdrawn before fulfillment. Only the advertiser may refund.
func (e *Engine) RefundEscrow(tx *accounts.Tx, escrowAddr, slotAddr, authority ids.ID) error {
	var esc core.Escrow
	if err := tx.Load(accounts.KindEscrow, escrowAddr, &esc); err != nil {
		return err
	}
	var slot core.AdSlot
	if err := tx.Load(accounts.KindSlot, slotAddr, &slot); err != nil {
		return err
	}

	if slot.Owner != esc.Publisher {
		return ErrInvalidEscrow
	}
	if authority != esc.Advertiser {
		return ErrUnauthorized
	}
	if esc.IsReleased {
		return ErrEscrowAlreadyReleased
	}

	if err := tx.Transfer(escrowAddr, esc.Advertiser, esc.Amount); err != nil {
		return err
	}
	esc.IsReleased = true
	if err := tx.Store(accounts.KindEscrow, escrowAddr, esc); err != nil {
		return err
	}

	tx.Emit(core.NewEvent(core.EventEscrowRefunded, e.clock.Now(), core.EscrowRefunded{
		Escrow:     escrowAddr,
		Advertiser: esc.Advertiser,
		Amount:     esc.Amount,
	}))

	e.log.Info("escrow refunded",
		log.Stringer("escrow", escrowAddr),
		log.Stringer("advertiser", esc.Advertiser),
		log.Uint64("amount", esc.Amount))

	return nil
}
