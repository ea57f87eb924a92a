// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package query is the read-only listing layer dashboards poll. It scans
// committed state only and never mutates it.
package query

import (
	"encoding/json"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/adxyz/admarket/pkg/accounts"
	"github.com/adxyz/admarket/pkg/core"
	"github.com/adxyz/admarket/pkg/ids"
)

// Service answers point-in-time reads against committed state
type Service struct {
	store *accounts.Store
}

// NewService creates a query service over the account store
func NewService(store *accounts.Store) *Service {
	return &Service{store: store}
}

// SlotView pairs a slot record with its address
type SlotView struct {
	Address ids.ID `json:"address"`
	core.AdSlot
}

// AdView pairs an ad record with its address
type AdView struct {
	Address ids.ID `json:"address"`
	core.Ad
}

// EscrowView pairs an escrow record with its address and held balance
type EscrowView struct {
	Address ids.ID `json:"address"`
	Held    uint64 `json:"held"`
	core.Escrow
}

// SlotFilter narrows a slot listing. Zero values match everything.
type SlotFilter struct {
	Owner       *ids.ID
	Category    string
	OnlyActive  bool
	Auction     *bool
	MinAudience uint64
}

func (f SlotFilter) matches(slot *core.AdSlot) bool {
	if f.Owner != nil && slot.Owner != *f.Owner {
		return false
	}
	if f.Category != "" && slot.Category != f.Category {
		return false
	}
	if f.OnlyActive && !slot.IsActive {
		return false
	}
	if f.Auction != nil && slot.IsAuction != *f.Auction {
		return false
	}
	if slot.AudienceSize < f.MinAudience {
		return false
	}
	return true
}

// ListSlots returns all slots matching the filter
func (s *Service) ListSlots(f SlotFilter) ([]SlotView, error) {
	var out []SlotView
	err := s.store.Scan(accounts.KindSlot, func(id ids.ID, value []byte) bool {
		var slot core.AdSlot
		if json.Unmarshal(value, &slot) != nil {
			return true
		}
		if f.matches(&slot) {
			out = append(out, SlotView{Address: id, AdSlot: slot})
		}
		return true
	})
	return out, err
}

// GetSlot reads one slot by address
func (s *Service) GetSlot(id ids.ID) (*SlotView, error) {
	var slot core.AdSlot
	if err := s.store.Get(accounts.KindSlot, id, &slot); err != nil {
		return nil, err
	}
	return &SlotView{Address: id, AdSlot: slot}, nil
}

// ListAds returns ads, optionally restricted to one advertiser
func (s *Service) ListAds(owner *ids.ID) ([]AdView, error) {
	var out []AdView
	err := s.store.Scan(accounts.KindAd, func(id ids.ID, value []byte) bool {
		var ad core.Ad
		if json.Unmarshal(value, &ad) != nil {
			return true
		}
		if owner == nil || ad.Owner == *owner {
			out = append(out, AdView{Address: id, Ad: ad})
		}
		return true
	})
	return out, err
}

// GetEscrow reads one escrow by address, including its held balance
func (s *Service) GetEscrow(id ids.ID) (*EscrowView, error) {
	var esc core.Escrow
	if err := s.store.Get(accounts.KindEscrow, id, &esc); err != nil {
		return nil, err
	}
	held, err := s.store.BalanceOf(id)
	if err != nil {
		return nil, err
	}
	return &EscrowView{Address: id, Held: held, Escrow: esc}, nil
}

// ListEscrows returns escrows, optionally restricted to one advertiser
func (s *Service) ListEscrows(advertiser *ids.ID) ([]EscrowView, error) {
	var out []EscrowView
	err := s.store.Scan(accounts.KindEscrow, func(id ids.ID, value []byte) bool {
		var esc core.Escrow
		if json.Unmarshal(value, &esc) != nil {
			return true
		}
		if advertiser == nil || esc.Advertiser == *advertiser {
			out = append(out, EscrowView{Address: id, Escrow: esc})
		}
		return true
	})
	return out, err
}

// Balance reads a committed account balance
func (s *Service) Balance(id ids.ID) (uint64, error) {
	return s.store.BalanceOf(id)
}

// MarketStats summarizes the marketplace for dashboards
type MarketStats struct {
	TotalSlots      int             `json:"total_slots"`
	ActiveSlots     int             `json:"active_slots"`
	AuctionSlots    int             `json:"auction_slots"`
	TotalViews      uint64          `json:"total_views"`
	TotalAds        int             `json:"total_ads"`
	EscrowedVolume  uint64          `json:"escrowed_volume"`
	SettledVolume   uint64          `json:"settled_volume"`
	AveragePrice    decimal.Decimal `json:"average_price"`
	AverageAudience decimal.Decimal `json:"average_audience"`
}

// Stats aggregates marketplace totals in one pass per record kind
func (s *Service) Stats() (*MarketStats, error) {
	stats := &MarketStats{
		AveragePrice:    decimal.Zero,
		AverageAudience: decimal.Zero,
	}

	var priceSum, audienceSum uint64
	err := s.store.Scan(accounts.KindSlot, func(id ids.ID, value []byte) bool {
		var slot core.AdSlot
		if json.Unmarshal(value, &slot) != nil {
			return true
		}
		stats.TotalSlots++
		if slot.IsActive {
			stats.ActiveSlots++
		}
		if slot.IsAuction {
			stats.AuctionSlots++
		}
		stats.TotalViews += slot.ViewCount
		priceSum += slot.Price
		audienceSum += slot.AudienceSize
		return true
	})
	if err != nil {
		return nil, err
	}

	err = s.store.Scan(accounts.KindEscrow, func(id ids.ID, value []byte) bool {
		var esc core.Escrow
		if json.Unmarshal(value, &esc) != nil {
			return true
		}
		if esc.IsReleased {
			stats.SettledVolume += esc.Amount
		} else {
			stats.EscrowedVolume += esc.Amount
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	err = s.store.Scan(accounts.KindAd, func(id ids.ID, value []byte) bool {
		stats.TotalAds++
		return true
	})
	if err != nil {
		return nil, err
	}

	if stats.TotalSlots > 0 {
		n := decimal.NewFromInt(int64(stats.TotalSlots))
		stats.AveragePrice = decimal.NewFromBigInt(new(big.Int).SetUint64(priceSum), 0).Div(n).Round(2)
		stats.AverageAudience = decimal.NewFromBigInt(new(big.Int).SetUint64(audienceSum), 0).Div(n).Round(2)
	}
	return stats, nil
}
