// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package instruction

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/adxyz/admarket/pkg/accounts"
	"github.com/adxyz/admarket/pkg/core"
	"github.com/adxyz/admarket/pkg/escrow"
	"github.com/adxyz/admarket/pkg/events"
	"github.com/adxyz/admarket/pkg/ids"
	"github.com/adxyz/admarket/pkg/log"
	"github.com/adxyz/admarket/pkg/marketplace"
	"github.com/adxyz/admarket/pkg/metric"
)

// Result reports a committed instruction
type Result struct {
	Op      Op           `json:"op"`
	Address *ids.ID      `json:"address,omitempty"` // record created by the op, if any
	Events  []core.Event `json:"events,omitempty"`
}

// Runtime executes instruction envelopes. A single commit mutex serializes
// instructions: every op re-reads committed state, validates its
// preconditions, and commits its whole write buffer before the next op
// starts. Engines rely on that ordering for race safety.
type Runtime struct {
	mu      sync.Mutex
	store   *accounts.Store
	market  *marketplace.Engine
	escrow  *escrow.Engine
	bus     *events.Bus
	metrics *metric.Metrics
	log     log.Logger
}

// NewRuntime wires the engines to the store and event bus. metrics may be
// nil (tests).
func NewRuntime(store *accounts.Store, market *marketplace.Engine, esc *escrow.Engine, bus *events.Bus, m *metric.Metrics, logger log.Logger) *Runtime {
	return &Runtime{
		store:   store,
		market:  market,
		escrow:  esc,
		bus:     bus,
		metrics: m,
		log:     logger,
	}
}

// Execute verifies, runs, and commits one instruction. Any error aborts
// the instruction with nothing persisted.
func (r *Runtime) Execute(ctx context.Context, env *Envelope) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := env.Verify(); err != nil {
		return nil, err
	}
	signer := env.Signer()

	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	tx := r.store.Begin()
	res, err := r.dispatch(tx, signer, env)
	if err != nil {
		r.countOp(env.Op, "rejected")
		r.log.Debug("instruction rejected",
			log.String("op", string(env.Op)),
			log.Stringer("signer", signer),
			log.Error(err))
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		r.countOp(env.Op, "error")
		return nil, err
	}

	committed := tx.Events()
	if r.bus != nil {
		r.bus.Publish(committed...)
	}
	r.observe(env.Op, committed, time.Since(start))

	res.Op = env.Op
	res.Events = committed
	return res, nil
}

func (r *Runtime) dispatch(tx *accounts.Tx, signer ids.ID, env *Envelope) (*Result, error) {
	switch env.Op {
	case OpCreateAdSlot:
		var args CreateAdSlotArgs
		if err := json.Unmarshal(env.Args, &args); err != nil {
			return nil, err
		}
		err := r.market.CreateAdSlot(tx, args.Slot, signer, marketplace.CreateSlotParams{
			SlotID:       args.SlotID,
			Price:        args.Price,
			Duration:     args.Duration,
			IsAuction:    args.IsAuction,
			AuctionEnd:   args.AuctionEnd,
			Category:     args.Category,
			AudienceSize: args.AudienceSize,
		})
		if err != nil {
			return nil, err
		}
		return &Result{Address: &args.Slot}, nil

	case OpCreateAd:
		var args CreateAdArgs
		if err := json.Unmarshal(env.Args, &args); err != nil {
			return nil, err
		}
		addr, err := r.market.CreateAd(tx, signer, args.AdID, args.Slot, args.MediaCID)
		if err != nil {
			return nil, err
		}
		return &Result{Address: &addr}, nil

	case OpBuyFixedPrice:
		var args BuyFixedPriceArgs
		if err := json.Unmarshal(env.Args, &args); err != nil {
			return nil, err
		}
		return &Result{}, r.market.BuyFixedPrice(tx, args.Slot, signer)

	case OpPlaceBid:
		var args PlaceBidArgs
		if err := json.Unmarshal(env.Args, &args); err != nil {
			return nil, err
		}
		return &Result{}, r.market.PlaceBid(tx, args.Slot, signer, args.Amount)

	case OpCloseAuction:
		var args CloseAuctionArgs
		if err := json.Unmarshal(env.Args, &args); err != nil {
			return nil, err
		}
		return &Result{}, r.market.CloseAuction(tx, args.Slot, signer)

	case OpDeactivateSlot:
		var args DeactivateSlotArgs
		if err := json.Unmarshal(env.Args, &args); err != nil {
			return nil, err
		}
		return &Result{}, r.market.DeactivateSlot(tx, args.Slot, signer)

	case OpIncrementView:
		var args IncrementViewArgs
		if err := json.Unmarshal(env.Args, &args); err != nil {
			return nil, err
		}
		return &Result{}, r.market.IncrementView(tx, args.Slot)

	case OpSetAdActive:
		var args SetAdActiveArgs
		if err := json.Unmarshal(env.Args, &args); err != nil {
			return nil, err
		}
		return &Result{}, r.market.SetAdActive(tx, args.Ad, signer, args.Active)

	case OpEscrowPayment:
		var args EscrowPaymentArgs
		if err := json.Unmarshal(env.Args, &args); err != nil {
			return nil, err
		}
		addr, err := r.escrow.EscrowPayment(tx, signer, args.Slot, args.Amount)
		if err != nil {
			return nil, err
		}
		return &Result{Address: &addr}, nil

	case OpReleaseEscrow:
		var args ReleaseEscrowArgs
		if err := json.Unmarshal(env.Args, &args); err != nil {
			return nil, err
		}
		return &Result{}, r.escrow.ReleaseEscrow(tx, args.Escrow, args.Slot, signer)

	case OpRefundEscrow:
		var args RefundEscrowArgs
		if err := json.Unmarshal(env.Args, &args); err != nil {
			return nil, err
		}
		return &Result{}, r.escrow.RefundEscrow(tx, args.Escrow, args.Slot, signer)

	default:
		return nil, ErrUnknownOp
	}
}

// Airdrop credits an account directly. Development faucet, not a ledger op.
func (r *Runtime) Airdrop(to ids.ID, amount uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx := r.store.Begin()
	if err := tx.Credit(to, amount); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *Runtime) countOp(op Op, status string) {
	if r.metrics == nil {
		return
	}
	r.metrics.InstructionsProcessed.WithLabelValues(string(op), status).Inc()
}

func (r *Runtime) observe(op Op, committed []core.Event, elapsed time.Duration) {
	if r.metrics == nil {
		return
	}
	r.countOp(op, "ok")
	r.metrics.InstructionDuration.Observe(elapsed.Seconds())
	for _, evt := range committed {
		switch evt.Type {
		case core.EventSlotCreated:
			r.metrics.SlotsCreated.Inc()
		case core.EventSlotPurchased:
			r.metrics.SlotsPurchased.Inc()
		case core.EventBidPlaced:
			r.metrics.BidsPlaced.Inc()
		case core.EventAuctionClosed:
			r.metrics.AuctionsClosed.Inc()
		case core.EventAdCreated:
			r.metrics.AdsCreated.Inc()
		case core.EventEscrowCreated:
			r.metrics.EscrowsCreated.Inc()
			if p, ok := evt.Payload.(core.EscrowCreated); ok {
				r.metrics.EscrowVolume.Add(float64(p.Amount))
			}
		case core.EventEscrowReleased:
			r.metrics.EscrowsReleased.Inc()
		case core.EventEscrowRefunded:
			r.metrics.EscrowsRefunded.Inc()
		}
	}
}
