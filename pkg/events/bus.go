// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package events is the in-process bus carrying committed domain events to
// subscribers (websocket feed, metrics, external indexers).
package events

import (
	"sync"

	"github.com/adxyz/admarket/pkg/core"
	"github.com/adxyz/admarket/pkg/log"
)

// Bus fans committed events out to subscribers. A slow subscriber drops
// events rather than blocking the ledger commit path.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]chan core.Event
	nextID int
	log    log.Logger
}

// NewBus creates an event bus
func NewBus(logger log.Logger) *Bus {
	return &Bus{
		subs: make(map[int]chan core.Event),
		log:  logger,
	}
}

// Subscribe registers a subscriber with the given channel buffer. The
// returned cancel func unregisters and closes the channel.
func (b *Bus) Subscribe(buffer int) (<-chan core.Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan core.Event, buffer)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

// Publish delivers events to every subscriber
func (b *Bus) Publish(evts ...core.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, evt := range evts {
		for _, ch := range b.subs {
			select {
			case ch <- evt:
			default:
				b.log.Warn("event dropped for slow subscriber",
					log.String("type", string(evt.Type)))
			}
		}
	}
}
