// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/adxyz/admarket/pkg/core"
	"github.com/adxyz/admarket/pkg/log"
)

func TestSubscribePublish(t *testing.T) {
	bus := NewBus(log.NoOp())

	ch, cancel := bus.Subscribe(4)
	defer cancel()

	bus.Publish(
		core.NewEvent(core.EventSlotCreated, time.Now(), core.SlotCreated{SlotID: "a"}),
		core.NewEvent(core.EventBidPlaced, time.Now(), core.BidPlaced{Amount: 5}),
	)

	evt := <-ch
	require.Equal(t, core.EventSlotCreated, evt.Type)
	evt = <-ch
	require.Equal(t, core.EventBidPlaced, evt.Type)
}

func TestMultipleSubscribers(t *testing.T) {
	bus := NewBus(log.NoOp())

	a, cancelA := bus.Subscribe(1)
	defer cancelA()
	b, cancelB := bus.Subscribe(1)
	defer cancelB()

	bus.Publish(core.NewEvent(core.EventAuctionClosed, time.Now(), core.AuctionClosed{}))

	require.Equal(t, core.EventAuctionClosed, (<-a).Type)
	require.Equal(t, core.EventAuctionClosed, (<-b).Type)
}

func TestCancelClosesChannel(t *testing.T) {
	bus := NewBus(log.NoOp())

	ch, cancel := bus.Subscribe(1)
	cancel()

	_, open := <-ch
	require.False(t, open)

	// Publishing after cancel must not panic.
	bus.Publish(core.NewEvent(core.EventSlotCreated, time.Now(), core.SlotCreated{}))

	// Double cancel is safe.
	cancel()
}

func TestSlowSubscriberDropsEvents(t *testing.T) {
	bus := NewBus(log.NoOp())

	ch, cancel := bus.Subscribe(1)
	defer cancel()

	// Nobody reads; the second publish overflows the buffer and is dropped
	// instead of blocking.
	done := make(chan struct{})
	go func() {
		bus.Publish(core.NewEvent(core.EventSlotCreated, time.Now(), core.SlotCreated{SlotID: "kept"}))
		bus.Publish(core.NewEvent(core.EventSlotCreated, time.Now(), core.SlotCreated{SlotID: "dropped"}))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}

	evt := <-ch
	require.Equal(t, "kept", evt.Payload.(core.SlotCreated).SlotID)
	select {
	case <-ch:
		t.Fatal("overflow event should have been dropped")
	default:
	}
}
