// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package core

import (
	"time"

	"github.com/adxyz/admarket/pkg/ids"
)

// AdSlot is a publisher's sellable inventory unit. A slot is sold either
// at a fixed price to its first buyer or by open ascending auction.
type AdSlot struct {
	Owner         ids.ID `json:"owner"`
	SlotID        string `json:"slot_id"`
	Price         uint64 `json:"price"`    // minor currency units
	Duration      uint64 `json:"duration"` // seconds the purchased ad may run
	IsAuction     bool   `json:"is_auction"`
	AuctionEnd    int64  `json:"auction_end"` // unix seconds, 0 for fixed-price
	HighestBid    uint64 `json:"highest_bid"`
	HighestBidder ids.ID `json:"highest_bidder"`
	IsActive      bool   `json:"is_active"`
	ViewCount     uint64 `json:"view_count"`
	Category      string `json:"category"`
	AudienceSize  uint64 `json:"audience_size"`
	CreatedAt     int64  `json:"created_at"`
}

// Ad is an advertiser's creative bound to a slot. Created once after the
// advertiser acquired slot rights; immutable except for the active flag.
type Ad struct {
	Owner     ids.ID `json:"owner"`
	AdID      string `json:"ad_id"`
	MediaCID  string `json:"media_cid"` // opaque content identifier
	SlotKey   ids.ID `json:"slot_key"`
	IsActive  bool   `json:"is_active"`
	CreatedAt int64  `json:"created_at"`
}

// Escrow holds funds bridging one advertiser and one publisher for one slot.
// IsReleased is a one-way latch: exactly one of release/refund ever succeeds.
type Escrow struct {
	Amount     uint64 `json:"amount"`
	Advertiser ids.ID `json:"advertiser"`
	Publisher  ids.ID `json:"publisher"`
	IsReleased bool   `json:"is_released"`
}

// Clock is the ledger time source. Engines never estimate time themselves.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the host wall clock
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// MockClock is a settable clock for tests
type MockClock struct {
	Time time.Time
}

func (c *MockClock) Now() time.Time { return c.Time }

// Advance moves the mock clock forward
func (c *MockClock) Advance(d time.Duration) { c.Time = c.Time.Add(d) }
