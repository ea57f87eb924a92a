// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package accounts

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/adxyz/admarket/pkg/core"
	"github.com/adxyz/admarket/pkg/ids"
)

func TestCreateRejectsDuplicates(t *testing.T) {
	store := NewMemory()
	defer store.Close()

	addr := ids.GenerateTestID()
	slot := core.AdSlot{SlotID: "homepage", IsActive: true}

	tx := store.Begin()
	require.NoError(t, tx.Create(KindSlot, addr, slot))
	require.ErrorIs(t, tx.Create(KindSlot, addr, slot), ErrAlreadyExists)
	require.NoError(t, tx.Commit())

	// A later transaction sees the committed record as occupied too.
	tx2 := store.Begin()
	require.ErrorIs(t, tx2.Create(KindSlot, addr, slot), ErrAlreadyExists)
}

func TestStoreRequiresExisting(t *testing.T) {
	store := NewMemory()
	defer store.Close()

	tx := store.Begin()
	err := tx.Store(KindSlot, ids.GenerateTestID(), core.AdSlot{})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLoadMissingRecord(t *testing.T) {
	store := NewMemory()
	defer store.Close()

	tx := store.Begin()
	var slot core.AdSlot
	require.ErrorIs(t, tx.Load(KindSlot, ids.GenerateTestID(), &slot), ErrNotFound)
}

func TestKindsDoNotCollide(t *testing.T) {
	store := NewMemory()
	defer store.Close()

	addr := ids.GenerateTestID()

	tx := store.Begin()
	require.NoError(t, tx.Create(KindSlot, addr, core.AdSlot{SlotID: "s"}))
	require.NoError(t, tx.Create(KindAd, addr, core.Ad{AdID: "a"}))
	require.NoError(t, tx.Commit())

	var slot core.AdSlot
	require.NoError(t, store.Get(KindSlot, addr, &slot))
	require.Equal(t, "s", slot.SlotID)

	var ad core.Ad
	require.NoError(t, store.Get(KindAd, addr, &ad))
	require.Equal(t, "a", ad.AdID)
}

func TestAbandonedTxLeavesNoState(t *testing.T) {
	store := NewMemory()
	defer store.Close()

	addr := ids.GenerateTestID()
	payer := ids.GenerateTestID()

	tx := store.Begin()
	require.NoError(t, tx.Create(KindSlot, addr, core.AdSlot{SlotID: "s"}))
	require.NoError(t, tx.Credit(payer, 500))
	// Dropped without commit.

	ok, err := store.Has(KindSlot, addr)
	require.NoError(t, err)
	require.False(t, ok)

	bal, err := store.BalanceOf(payer)
	require.NoError(t, err)
	require.Zero(t, bal)
}

func TestTxReadsItsOwnWrites(t *testing.T) {
	store := NewMemory()
	defer store.Close()

	addr := ids.GenerateTestID()

	tx := store.Begin()
	require.NoError(t, tx.Create(KindSlot, addr, core.AdSlot{SlotID: "s", ViewCount: 1}))

	var slot core.AdSlot
	require.NoError(t, tx.Load(KindSlot, addr, &slot))
	slot.ViewCount++
	require.NoError(t, tx.Store(KindSlot, addr, slot))
	require.NoError(t, tx.Load(KindSlot, addr, &slot))
	require.Equal(t, uint64(2), slot.ViewCount)
}

func TestBalances(t *testing.T) {
	store := NewMemory()
	defer store.Close()

	alice := ids.GenerateTestID()
	bob := ids.GenerateTestID()

	tx := store.Begin()

	// Absent accounts hold zero.
	bal, err := tx.Balance(alice)
	require.NoError(t, err)
	require.Zero(t, bal)

	require.NoError(t, tx.Credit(alice, 1000))
	require.ErrorIs(t, tx.Debit(alice, 1001), ErrInsufficientFunds)
	require.NoError(t, tx.Transfer(alice, bob, 400))
	require.NoError(t, tx.Commit())

	aliceBal, err := store.BalanceOf(alice)
	require.NoError(t, err)
	require.Equal(t, uint64(600), aliceBal)

	bobBal, err := store.BalanceOf(bob)
	require.NoError(t, err)
	require.Equal(t, uint64(400), bobBal)
}

func TestCreditOverflow(t *testing.T) {
	store := NewMemory()
	defer store.Close()

	alice := ids.GenerateTestID()

	tx := store.Begin()
	require.NoError(t, tx.Credit(alice, math.MaxUint64-10))
	require.ErrorIs(t, tx.Credit(alice, 11), ErrBalanceOverflow)

	// The failed credit left the balance intact.
	bal, err := tx.Balance(alice)
	require.NoError(t, err)
	require.Equal(t, uint64(math.MaxUint64-10), bal)

	require.NoError(t, tx.Credit(alice, 10))
	bal, err = tx.Balance(alice)
	require.NoError(t, err)
	require.Equal(t, uint64(math.MaxUint64), bal)
}

func TestTransferInsufficientFunds(t *testing.T) {
	store := NewMemory()
	defer store.Close()

	tx := store.Begin()
	err := tx.Transfer(ids.GenerateTestID(), ids.GenerateTestID(), 1)
	require.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestScan(t *testing.T) {
	store := NewMemory()
	defer store.Close()

	tx := store.Begin()
	for i := 0; i < 5; i++ {
		require.NoError(t, tx.Create(KindSlot, ids.GenerateTestID(), core.AdSlot{ViewCount: uint64(i)}))
	}
	require.NoError(t, tx.Create(KindAd, ids.GenerateTestID(), core.Ad{}))
	require.NoError(t, tx.Commit())

	var slots int
	require.NoError(t, store.Scan(KindSlot, func(id ids.ID, value []byte) bool {
		slots++
		return true
	}))
	require.Equal(t, 5, slots)

	// Early termination.
	var seen int
	require.NoError(t, store.Scan(KindSlot, func(id ids.ID, value []byte) bool {
		seen++
		return seen < 2
	}))
	require.Equal(t, 2, seen)
}

func TestEventsBuffered(t *testing.T) {
	store := NewMemory()
	defer store.Close()

	tx := store.Begin()
	require.Empty(t, tx.Events())

	tx.Emit(core.NewEvent(core.EventSlotCreated, core.SystemClock{}.Now(), core.SlotCreated{}))
	tx.Emit(core.NewEvent(core.EventBidPlaced, core.SystemClock{}.Now(), core.BidPlaced{}))
	require.Len(t, tx.Events(), 2)
	require.Equal(t, core.EventSlotCreated, tx.Events()[0].Type)
}
