// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package query

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/adxyz/admarket/pkg/accounts"
	"github.com/adxyz/admarket/pkg/core"
	"github.com/adxyz/admarket/pkg/ids"
)

func seedStore(t *testing.T) (*accounts.Store, *Service) {
	t.Helper()
	store := accounts.NewMemory()
	t.Cleanup(func() { store.Close() })
	return store, NewService(store)
}

func putSlot(t *testing.T, store *accounts.Store, slot core.AdSlot) ids.ID {
	t.Helper()
	addr := ids.GenerateTestID()
	tx := store.Begin()
	require.NoError(t, tx.Create(accounts.KindSlot, addr, slot))
	require.NoError(t, tx.Commit())
	return addr
}

func TestListSlotsFilters(t *testing.T) {
	store, svc := seedStore(t)

	alice := ids.GenerateTestID()
	bob := ids.GenerateTestID()

	putSlot(t, store, core.AdSlot{Owner: alice, Category: "news", IsActive: true, AudienceSize: 1000})
	putSlot(t, store, core.AdSlot{Owner: alice, Category: "video", IsActive: false, AudienceSize: 50000, IsAuction: true})
	putSlot(t, store, core.AdSlot{Owner: bob, Category: "news", IsActive: true, AudienceSize: 200})

	all, err := svc.ListSlots(SlotFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	byOwner, err := svc.ListSlots(SlotFilter{Owner: &alice})
	require.NoError(t, err)
	require.Len(t, byOwner, 2)

	news, err := svc.ListSlots(SlotFilter{Category: "news"})
	require.NoError(t, err)
	require.Len(t, news, 2)

	active, err := svc.ListSlots(SlotFilter{OnlyActive: true})
	require.NoError(t, err)
	require.Len(t, active, 2)

	auctionsOnly := true
	auctions, err := svc.ListSlots(SlotFilter{Auction: &auctionsOnly})
	require.NoError(t, err)
	require.Len(t, auctions, 1)

	big, err := svc.ListSlots(SlotFilter{MinAudience: 10000})
	require.NoError(t, err)
	require.Len(t, big, 1)

	// Filters compose.
	none, err := svc.ListSlots(SlotFilter{Owner: &bob, Category: "video"})
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestGetSlot(t *testing.T) {
	store, svc := seedStore(t)
	addr := putSlot(t, store, core.AdSlot{SlotID: "sidebar", IsActive: true})

	view, err := svc.GetSlot(addr)
	require.NoError(t, err)
	require.Equal(t, addr, view.Address)
	require.Equal(t, "sidebar", view.SlotID)

	_, err = svc.GetSlot(ids.GenerateTestID())
	require.ErrorIs(t, err, accounts.ErrNotFound)
}

func TestListAds(t *testing.T) {
	store, svc := seedStore(t)
	alice := ids.GenerateTestID()
	bob := ids.GenerateTestID()

	tx := store.Begin()
	require.NoError(t, tx.Create(accounts.KindAd, ids.GenerateTestID(), core.Ad{Owner: alice, AdID: "a1"}))
	require.NoError(t, tx.Create(accounts.KindAd, ids.GenerateTestID(), core.Ad{Owner: alice, AdID: "a2"}))
	require.NoError(t, tx.Create(accounts.KindAd, ids.GenerateTestID(), core.Ad{Owner: bob, AdID: "b1"}))
	require.NoError(t, tx.Commit())

	all, err := svc.ListAds(nil)
	require.NoError(t, err)
	require.Len(t, all, 3)

	mine, err := svc.ListAds(&alice)
	require.NoError(t, err)
	require.Len(t, mine, 2)
}

func TestGetEscrowIncludesHeldBalance(t *testing.T) {
	store, svc := seedStore(t)
	addr := ids.GenerateTestID()

	tx := store.Begin()
	require.NoError(t, tx.Create(accounts.KindEscrow, addr, core.Escrow{Amount: 900}))
	require.NoError(t, tx.Credit(addr, 900))
	require.NoError(t, tx.Commit())

	view, err := svc.GetEscrow(addr)
	require.NoError(t, err)
	require.Equal(t, uint64(900), view.Amount)
	require.Equal(t, uint64(900), view.Held)

	_, err = svc.GetEscrow(ids.GenerateTestID())
	require.ErrorIs(t, err, accounts.ErrNotFound)
}

func TestBalance(t *testing.T) {
	store, svc := seedStore(t)
	acct := ids.GenerateTestID()

	bal, err := svc.Balance(acct)
	require.NoError(t, err)
	require.Zero(t, bal)

	tx := store.Begin()
	require.NoError(t, tx.Credit(acct, 777))
	require.NoError(t, tx.Commit())

	bal, err = svc.Balance(acct)
	require.NoError(t, err)
	require.Equal(t, uint64(777), bal)
}

func TestStats(t *testing.T) {
	store, svc := seedStore(t)

	putSlot(t, store, core.AdSlot{Price: 100, IsActive: true, ViewCount: 10, AudienceSize: 1000})
	putSlot(t, store, core.AdSlot{Price: 300, IsActive: false, ViewCount: 5, AudienceSize: 3000, IsAuction: true})

	tx := store.Begin()
	require.NoError(t, tx.Create(accounts.KindEscrow, ids.GenerateTestID(), core.Escrow{Amount: 500}))
	require.NoError(t, tx.Create(accounts.KindEscrow, ids.GenerateTestID(), core.Escrow{Amount: 200, IsReleased: true}))
	require.NoError(t, tx.Create(accounts.KindAd, ids.GenerateTestID(), core.Ad{}))
	require.NoError(t, tx.Commit())

	stats, err := svc.Stats()
	require.NoError(t, err)
	require.Equal(t, 2, stats.TotalSlots)
	require.Equal(t, 1, stats.ActiveSlots)
	require.Equal(t, 1, stats.AuctionSlots)
	require.Equal(t, uint64(15), stats.TotalViews)
	require.Equal(t, 1, stats.TotalAds)
	require.Equal(t, uint64(500), stats.EscrowedVolume)
	require.Equal(t, uint64(200), stats.SettledVolume)
	require.True(t, stats.AveragePrice.Equal(decimal.NewFromInt(200)))
	require.True(t, stats.AverageAudience.Equal(decimal.NewFromInt(2000)))
}

func TestStatsEmptyStore(t *testing.T) {
	_, svc := seedStore(t)

	stats, err := svc.Stats()
	require.NoError(t, err)
	require.Zero(t, stats.TotalSlots)
	require.True(t, stats.AveragePrice.IsZero())
}
