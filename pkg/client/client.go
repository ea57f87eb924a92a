// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package client is the Go SDK for the marketplace daemon: it signs and
// submits instructions, reads back account state, and subscribes to the
// committed event feed.
package client

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/adxyz/admarket/pkg/core"
	"github.com/adxyz/admarket/pkg/ids"
	"github.com/adxyz/admarket/pkg/instruction"
	"github.com/adxyz/admarket/pkg/query"
)

// APIError is a structured rejection returned by the daemon
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Client talks to one marketplace daemon
type Client struct {
	baseURL    string
	key        ed25519.PrivateKey
	httpClient *http.Client
}

// New creates a client. key signs every submitted instruction; a read-only
// client may pass nil.
func New(baseURL string, key ed25519.PrivateKey) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     key,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Identity returns the client's ledger identity
func (c *Client) Identity() ids.ID {
	return ids.FromPublicKey(c.key.Public().(ed25519.PublicKey))
}

// NewAddress returns a fresh random account address for record creation
func NewAddress() ids.ID {
	var id ids.ID
	rand.Read(id[:])
	return id
}

func freshNonce() uint64 {
	var buf [8]byte
	rand.Read(buf[:])
	return binary.BigEndian.Uint64(buf[:])
}

// Submit signs args as op and posts the envelope to the daemon
func (c *Client) Submit(ctx context.Context, op instruction.Op, args interface{}) (*instruction.Result, error) {
	if c.key == nil {
		return nil, fmt.Errorf("client has no signing key")
	}
	env, err := instruction.Sign(c.key, op, freshNonce(), args)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(env)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/tx", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr APIError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Code == "" {
			return nil, fmt.Errorf("instruction failed: %s", resp.Status)
		}
		return nil, &apiErr
	}

	var result instruction.Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateAdSlot lists a new slot at a fresh address and returns the address
func (c *Client) CreateAdSlot(ctx context.Context, args instruction.CreateAdSlotArgs) (ids.ID, error) {
	if args.Slot.IsZero() {
		args.Slot = NewAddress()
	}
	res, err := c.Submit(ctx, instruction.OpCreateAdSlot, args)
	if err != nil {
		return ids.Empty, err
	}
	return *res.Address, nil
}

// CreateAd binds a creative to a slot and returns the derived ad address
func (c *Client) CreateAd(ctx context.Context, adID string, slot ids.ID, mediaCID string) (ids.ID, error) {
	res, err := c.Submit(ctx, instruction.OpCreateAd, instruction.CreateAdArgs{
		AdID:     adID,
		Slot:     slot,
		MediaCID: mediaCID,
	})
	if err != nil {
		return ids.Empty, err
	}
	return *res.Address, nil
}

// BuyFixedPrice purchases a fixed-price slot
func (c *Client) BuyFixedPrice(ctx context.Context, slot ids.ID) error {
	_, err := c.Submit(ctx, instruction.OpBuyFixedPrice, instruction.BuyFixedPriceArgs{Slot: slot})
	return err
}

// PlaceBid bids on an open auction
func (c *Client) PlaceBid(ctx context.Context, slot ids.ID, amount uint64) error {
	_, err := c.Submit(ctx, instruction.OpPlaceBid, instruction.PlaceBidArgs{Slot: slot, Amount: amount})
	return err
}

// CloseAuction finalizes an ended auction
func (c *Client) CloseAuction(ctx context.Context, slot ids.ID) error {
	_, err := c.Submit(ctx, instruction.OpCloseAuction, instruction.CloseAuctionArgs{Slot: slot})
	return err
}

// DeactivateSlot withdraws a slot
func (c *Client) DeactivateSlot(ctx context.Context, slot ids.ID) error {
	_, err := c.Submit(ctx, instruction.OpDeactivateSlot, instruction.DeactivateSlotArgs{Slot: slot})
	return err
}

// IncrementView records one impression
func (c *Client) IncrementView(ctx context.Context, slot ids.ID) error {
	_, err := c.Submit(ctx, instruction.OpIncrementView, instruction.IncrementViewArgs{Slot: slot})
	return err
}

// SetAdActive toggles a creative's active flag
func (c *Client) SetAdActive(ctx context.Context, ad ids.ID, active bool) error {
	_, err := c.Submit(ctx, instruction.OpSetAdActive, instruction.SetAdActiveArgs{Ad: ad, Active: active})
	return err
}

// EscrowPayment locks funds against a slot and returns the escrow address
func (c *Client) EscrowPayment(ctx context.Context, slot ids.ID, amount uint64) (ids.ID, error) {
	res, err := c.Submit(ctx, instruction.OpEscrowPayment, instruction.EscrowPaymentArgs{Slot: slot, Amount: amount})
	if err != nil {
		return ids.Empty, err
	}
	return *res.Address, nil
}

// ReleaseEscrow pays an escrow out to the publisher
func (c *Client) ReleaseEscrow(ctx context.Context, escrow, slot ids.ID) error {
	_, err := c.Submit(ctx, instruction.OpReleaseEscrow, instruction.ReleaseEscrowArgs{Escrow: escrow, Slot: slot})
	return err
}

// RefundEscrow returns an escrow to the advertiser
func (c *Client) RefundEscrow(ctx context.Context, escrow, slot ids.ID) error {
	_, err := c.Submit(ctx, instruction.OpRefundEscrow, instruction.RefundEscrowArgs{Escrow: escrow, Slot: slot})
	return err
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr APIError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Code == "" {
			return fmt.Errorf("request failed: %s", resp.Status)
		}
		return &apiErr
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// SlotQuery narrows a slot listing
type SlotQuery struct {
	Owner       string
	Category    string
	OnlyActive  bool
	MinAudience uint64
}

// Slots lists slots matching the query
func (c *Client) Slots(ctx context.Context, q SlotQuery) ([]query.SlotView, error) {
	params := url.Values{}
	if q.Owner != "" {
		params.Set("owner", q.Owner)
	}
	if q.Category != "" {
		params.Set("category", q.Category)
	}
	if q.OnlyActive {
		params.Set("active", "true")
	}
	if q.MinAudience > 0 {
		params.Set("min_audience", fmt.Sprintf("%d", q.MinAudience))
	}
	path := "/v1/slots"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}
	var out []query.SlotView
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Slot reads one slot by address
func (c *Client) Slot(ctx context.Context, id ids.ID) (*query.SlotView, error) {
	var out query.SlotView
	return &out, c.getJSON(ctx, "/v1/slots/"+id.String(), &out)
}

// Ads lists ads, optionally by owner
func (c *Client) Ads(ctx context.Context, owner string) ([]query.AdView, error) {
	path := "/v1/ads"
	if owner != "" {
		path += "?owner=" + url.QueryEscape(owner)
	}
	var out []query.AdView
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Escrow reads one escrow by address
func (c *Client) Escrow(ctx context.Context, id ids.ID) (*query.EscrowView, error) {
	var out query.EscrowView
	return &out, c.getJSON(ctx, "/v1/escrows/"+id.String(), &out)
}

// Balance reads an account balance
func (c *Client) Balance(ctx context.Context, id ids.ID) (uint64, error) {
	var out struct {
		Balance uint64 `json:"balance"`
	}
	if err := c.getJSON(ctx, "/v1/balances/"+id.String(), &out); err != nil {
		return 0, err
	}
	return out.Balance, nil
}

// Stats reads marketplace aggregates
func (c *Client) Stats(ctx context.Context) (*query.MarketStats, error) {
	var out query.MarketStats
	return &out, c.getJSON(ctx, "/v1/stats", &out)
}

// SubscribeEvents opens the websocket event feed. The channel closes when
// the context is canceled or the connection drops.
func (c *Client) SubscribeEvents(ctx context.Context) (<-chan core.Event, error) {
	wsURL := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/v1/events/ws"

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, err
	}

	events := make(chan core.Event, 64)
	go func() {
		defer close(events)
		defer conn.Close()
		for {
			var evt core.Event
			if err := conn.ReadJSON(&evt); err != nil {
				return
			}
			select {
			case events <- evt:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	return events, nil
}
