// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package marketplace implements the ad-slot state machine: creation,
// fixed-price purchase, bidding, auction close, deactivation, view counting,
// and ad creation. Every operation runs inside one instruction transaction;
// a failed precondition aborts the whole instruction.
package marketplace

import (
	"github.com/adxyz/admarket/pkg/accounts"
	"github.com/adxyz/admarket/pkg/core"
	"github.com/adxyz/admarket/pkg/escrow"
	"github.com/adxyz/admarket/pkg/ids"
	"github.com/adxyz/admarket/pkg/log"
)

var adSeed = []byte("ad")

// AdAddress derives the unique ad address for an (owner, ad_id) pair
func AdAddress(owner ids.ID, adID string) ids.ID {
	return ids.Derive(adSeed, owner.Bytes(), []byte(adID))
}

// Engine executes marketplace instructions
type Engine struct {
	escrow *escrow.Engine
	clock  core.Clock
	log    log.Logger
}

// NewEngine creates a marketplace engine. The escrow engine is invoked
// in-transaction for purchase and auction settlement.
func NewEngine(esc *escrow.Engine, clock core.Clock, logger log.Logger) *Engine {
	return &Engine{escrow: esc, clock: clock, log: logger}
}

// CreateSlotParams are the caller-supplied fields of a new slot listing
type CreateSlotParams struct {
	SlotID       string `json:"slot_id"`
	Price        uint64 `json:"price"`
	Duration     uint64 `json:"duration"`
	IsAuction    bool   `json:"is_auction"`
	AuctionEnd   int64  `json:"auction_end"`
	Category     string `json:"category"`
	AudienceSize uint64 `json:"audience_size"`
}

// CreateAdSlot lists a new slot at a caller-chosen fresh address. Auction
// slots must carry an end time strictly in the future.
func (m *Engine) CreateAdSlot(tx *accounts.Tx, slotAddr ids.ID, owner ids.ID, p CreateSlotParams) error {
	now := m.clock.Now()
	if p.IsAuction && p.AuctionEnd <= now.Unix() {
		return ErrInvalidPurchaseType
	}

	rec := core.AdSlot{
		Owner:        owner,
		SlotID:       p.SlotID,
		Price:        p.Price,
		Duration:     p.Duration,
		IsAuction:    p.IsAuction,
		IsActive:     true,
		Category:     p.Category,
		AudienceSize: p.AudienceSize,
		CreatedAt:    now.Unix(),
	}
	if p.IsAuction {
		rec.AuctionEnd = p.AuctionEnd
	} else {
		// Fixed-price slots record the owner until a buyer takes over.
		rec.HighestBidder = owner
	}

	if err := tx.Create(accounts.KindSlot, slotAddr, rec); err != nil {
		return err
	}

	tx.Emit(core.NewEvent(core.EventSlotCreated, now, core.SlotCreated{
		Slot:   slotAddr,
		SlotID: p.SlotID,
		Owner:  owner,
	}))

	m.log.Info("slot created",
		log.Stringer("slot", slotAddr),
		log.String("slot_id", p.SlotID),
		log.Stringer("owner", owner))

	return nil
}

// BuyFixedPrice consumes a fixed-price slot: the first buyer deactivates it
// and the price moves into escrow in the same instruction, so no second
// purchase can ever observe an active slot.
func (m *Engine) BuyFixedPrice(tx *accounts.Tx, slotAddr, buyer ids.ID) error {
	var slot core.AdSlot
	if err := tx.Load(accounts.KindSlot, slotAddr, &slot); err != nil {
		return err
	}

	if slot.IsAuction {
		return ErrInvalidPurchaseType
	}
	if !slot.IsActive {
		return ErrSlotNotActive
	}

	if _, err := m.escrow.EscrowPayment(tx, buyer, slotAddr, slot.Price); err != nil {
		return err
	}

	slot.IsActive = false
	slot.HighestBidder = buyer
	if err := tx.Store(accounts.KindSlot, slotAddr, slot); err != nil {
		return err
	}

	tx.Emit(core.NewEvent(core.EventSlotPurchased, m.clock.Now(), core.SlotPurchased{
		Slot:   slotAddr,
		SlotID: slot.SlotID,
		Buyer:  buyer,
		Price:  slot.Price,
	}))

	m.log.Info("slot purchased",
		log.Stringer("slot", slotAddr),
		log.Stringer("buyer", buyer),
		log.Uint64("price", slot.Price))

	return nil
}

// PlaceBid records a strictly higher bid on an open auction. The bid amount
// is held on the slot's balance account; the displaced bidder's hold is
// refunded in the same instruction.
func (m *Engine) PlaceBid(tx *accounts.Tx, slotAddr, bidder ids.ID, amount uint64) error {
	var slot core.AdSlot
	if err := tx.Load(accounts.KindSlot, slotAddr, &slot); err != nil {
		return err
	}

	if !slot.IsAuction {
		return ErrInvalidPurchaseType
	}
	if !slot.IsActive {
		return ErrSlotNotActive
	}
	if m.clock.Now().Unix() >= slot.AuctionEnd {
		return ErrAuctionEnded
	}
	if amount <= slot.HighestBid {
		return ErrBidTooLow
	}

	if err := tx.Transfer(bidder, slotAddr, amount); err != nil {
		return err
	}
	if !slot.HighestBidder.IsZero() && slot.HighestBid > 0 {
		if err := tx.Transfer(slotAddr, slot.HighestBidder, slot.HighestBid); err != nil {
			return err
		}
	}

	slot.HighestBid = amount
	slot.HighestBidder = bidder
	if err := tx.Store(accounts.KindSlot, slotAddr, slot); err != nil {
		return err
	}

	tx.Emit(core.NewEvent(core.EventBidPlaced, m.clock.Now(), core.BidPlaced{
		Slot:   slotAddr,
		SlotID: slot.SlotID,
		Bidder: bidder,
		Amount: amount,
	}))

	m.log.Debug("bid placed",
		log.Stringer("slot", slotAddr),
		log.Stringer("bidder", bidder),
		log.Uint64("amount", amount))

	return nil
}

// CloseAuction finalizes an ended auction. Permissionless: anyone may close
// once the deadline has passed; closing an already-closed auction is a
// no-op. The winning hold becomes a settled escrow owed to the publisher;
// with no bids the slot simply deactivates.
func (m *Engine) CloseAuction(tx *accounts.Tx, slotAddr, caller ids.ID) error {
	var slot core.AdSlot
	if err := tx.Load(accounts.KindSlot, slotAddr, &slot); err != nil {
		return err
	}

	if !slot.IsAuction {
		return ErrInvalidPurchaseType
	}
	if m.clock.Now().Unix() < slot.AuctionEnd {
		return ErrAuctionNotEnded
	}
	if !slot.IsActive {
		return nil
	}

	slot.IsActive = false
	if err := tx.Store(accounts.KindSlot, slotAddr, slot); err != nil {
		return err
	}

	if !slot.HighestBidder.IsZero() && slot.HighestBid > 0 {
		if _, err := m.escrow.FinalizeBid(tx, slot.HighestBidder, slotAddr, slot.Owner, slot.HighestBid); err != nil {
			return err
		}
	}

	tx.Emit(core.NewEvent(core.EventAuctionClosed, m.clock.Now(), core.AuctionClosed{
		Slot:   slotAddr,
		SlotID: slot.SlotID,
		Winner: slot.HighestBidder,
		Amount: slot.HighestBid,
	}))

	m.log.Info("auction closed",
		log.Stringer("slot", slotAddr),
		log.Stringer("winner", slot.HighestBidder),
		log.Uint64("amount", slot.HighestBid))

	return nil
}

// DeactivateSlot withdraws unsold inventory. Owner only; no funds move.
func (m *Engine) DeactivateSlot(tx *accounts.Tx, slotAddr, caller ids.ID) error {
	var slot core.AdSlot
	if err := tx.Load(accounts.KindSlot, slotAddr, &slot); err != nil {
		return err
	}

	if !slot.IsActive {
		return ErrSlotNotActive
	}
	if slot.Owner != caller {
		return ErrUnauthorized
	}

	slot.IsActive = false
	if err := tx.Store(accounts.KindSlot, slotAddr, slot); err != nil {
		return err
	}

	m.log.Info("slot deactivated",
		log.Stringer("slot", slotAddr),
		log.Stringer("owner", caller))

	return nil
}

// IncrementView bumps the impression counter. Permissionless: it carries no
// value transfer, so there is no authorization gate.
func (m *Engine) IncrementView(tx *accounts.Tx, slotAddr ids.ID) error {
	var slot core.AdSlot
	if err := tx.Load(accounts.KindSlot, slotAddr, &slot); err != nil {
		return err
	}
	slot.ViewCount++
	return tx.Store(accounts.KindSlot, slotAddr, slot)
}

// CreateAd binds an advertiser creative to a slot. The derived address
// enforces (owner, ad_id) uniqueness. Purchase completion is not
// re-verified here; creating an Ad is evidence of a completed purchase,
// not a purchase action.
func (m *Engine) CreateAd(tx *accounts.Tx, owner ids.ID, adID string, slotAddr ids.ID, mediaCID string) (ids.ID, error) {
	var slot core.AdSlot
	if err := tx.Load(accounts.KindSlot, slotAddr, &slot); err != nil {
		return ids.Empty, err
	}

	now := m.clock.Now()
	addr := AdAddress(owner, adID)
	rec := core.Ad{
		Owner:     owner,
		AdID:      adID,
		MediaCID:  mediaCID,
		SlotKey:   slotAddr,
		IsActive:  true,
		CreatedAt: now.Unix(),
	}
	if err := tx.Create(accounts.KindAd, addr, rec); err != nil {
		return ids.Empty, err
	}

	tx.Emit(core.NewEvent(core.EventAdCreated, now, core.AdCreated{
		Ad:    addr,
		AdID:  adID,
		Owner: owner,
		Slot:  slotAddr,
	}))

	m.log.Info("ad created",
		log.Stringer("ad", addr),
		log.String("ad_id", adID),
		log.Stringer("slot", slotAddr))

	return addr, nil
}

// SetAdActive toggles the creative's active flag. Owner only.
func (m *Engine) SetAdActive(tx *accounts.Tx, adAddr, caller ids.ID, active bool) error {
	var ad core.Ad
	if err := tx.Load(accounts.KindAd, adAddr, &ad); err != nil {
		return err
	}
	if ad.Owner != caller {
		return ErrUnauthorized
	}
	ad.IsActive = active
	return tx.Store(accounts.KindAd, adAddr, ad)
}
