// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package core

import (
	"time"

	"github.com/google/uuid"

	"github.com/adxyz/admarket/pkg/ids"
)

// EventType identifies a domain event emitted by the engines
type EventType string

const (
	EventSlotCreated    EventType = "slot_created"
	EventAdCreated      EventType = "ad_created"
	EventSlotPurchased  EventType = "slot_purchased"
	EventBidPlaced      EventType = "bid_placed"
	EventAuctionClosed  EventType = "auction_closed"
	EventEscrowCreated  EventType = "escrow_created"
	EventEscrowReleased EventType = "escrow_released"
	EventEscrowRefunded EventType = "escrow_refunded"
)

// Event is a committed domain event. Payload holds one of the typed
// event structs below.
type Event struct {
	Type      EventType   `json:"type"`
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// NewEvent stamps a payload with a fresh event ID
func NewEvent(typ EventType, at time.Time, payload interface{}) Event {
	return Event{
		Type:      typ,
		ID:        uuid.NewString(),
		Timestamp: at,
		Payload:   payload,
	}
}

type SlotCreated struct {
	Slot   ids.ID `json:"slot"`
	SlotID string `json:"slot_id"`
	Owner  ids.ID `json:"owner"`
}

type AdCreated struct {
	Ad    ids.ID `json:"ad"`
	AdID  string `json:"ad_id"`
	Owner ids.ID `json:"owner"`
	Slot  ids.ID `json:"slot"`
}

type SlotPurchased struct {
	Slot   ids.ID `json:"slot"`
	SlotID string `json:"slot_id"`
	Buyer  ids.ID `json:"buyer"`
	Price  uint64 `json:"price"`
}

type BidPlaced struct {
	Slot   ids.ID `json:"slot"`
	SlotID string `json:"slot_id"`
	Bidder ids.ID `json:"bidder"`
	Amount uint64 `json:"amount"`
}

type AuctionClosed struct {
	Slot   ids.ID `json:"slot"`
	SlotID string `json:"slot_id"`
	Winner ids.ID `json:"winner"` // Empty when the auction had no bids
	Amount uint64 `json:"amount"`
}

type EscrowCreated struct {
	Escrow     ids.ID `json:"escrow"`
	Advertiser ids.ID `json:"advertiser"`
	Publisher  ids.ID `json:"publisher"`
	Amount     uint64 `json:"amount"`
}

type EscrowReleased struct {
	Escrow    ids.ID `json:"escrow"`
	Publisher ids.ID `json:"publisher"`
	Amount    uint64 `json:"amount"`
}

type EscrowRefunded struct {
	Escrow     ids.ID `json:"escrow"`
	Advertiser ids.ID `json:"advertiser"`
	Amount     uint64 `json:"amount"`
}
