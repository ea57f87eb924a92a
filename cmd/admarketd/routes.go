// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/adxyz/admarket/pkg/ids"
	"github.com/adxyz/admarket/pkg/instruction"
	"github.com/adxyz/admarket/pkg/log"
	"github.com/adxyz/admarket/pkg/query"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func (n *Node) setupRoutes() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", n.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(n.metrics.GetGatherer(), promhttp.HandlerOpts{}))

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/tx", n.handleSubmitTx).Methods(http.MethodPost)
	v1.HandleFunc("/slots", n.handleListSlots).Methods(http.MethodGet)
	v1.HandleFunc("/slots/{id}", n.handleGetSlot).Methods(http.MethodGet)
	v1.HandleFunc("/ads", n.handleListAds).Methods(http.MethodGet)
	v1.HandleFunc("/escrows", n.handleListEscrows).Methods(http.MethodGet)
	v1.HandleFunc("/escrows/{id}", n.handleGetEscrow).Methods(http.MethodGet)
	v1.HandleFunc("/balances/{id}", n.handleGetBalance).Methods(http.MethodGet)
	v1.HandleFunc("/stats", n.handleStats).Methods(http.MethodGet)
	v1.HandleFunc("/events/ws", n.handleEventFeed).Methods(http.MethodGet)

	if n.cfg.App.EnableFaucet {
		v1.HandleFunc("/faucet", n.handleFaucet).Methods(http.MethodPost)
	}

	return r
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, instruction.HTTPStatus(err), map[string]string{
		"code":    instruction.ErrorCode(err),
		"message": err.Error(),
	})
}

func (n *Node) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (n *Node) handleSubmitTx(w http.ResponseWriter, r *http.Request) {
	var env instruction.Envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"code":    "BadRequest",
			"message": "malformed envelope: " + err.Error(),
		})
		return
	}

	result, err := n.runtime.Execute(r.Context(), &env)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func pathID(r *http.Request) (ids.ID, error) {
	return ids.FromString(mux.Vars(r)["id"])
}

func (n *Node) handleListSlots(w http.ResponseWriter, r *http.Request) {
	f := query.SlotFilter{
		Category:   r.URL.Query().Get("category"),
		OnlyActive: r.URL.Query().Get("active") == "true",
	}
	if ownerHex := r.URL.Query().Get("owner"); ownerHex != "" {
		owner, err := ids.FromString(ownerHex)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"code": "BadRequest", "message": "bad owner id",
			})
			return
		}
		f.Owner = &owner
	}
	if auctionParam := r.URL.Query().Get("auction"); auctionParam != "" {
		isAuction := auctionParam == "true"
		f.Auction = &isAuction
	}
	if minAudience := r.URL.Query().Get("min_audience"); minAudience != "" {
		if v, err := strconv.ParseUint(minAudience, 10, 64); err == nil {
			f.MinAudience = v
		}
	}

	slots, err := n.queries.ListSlots(f)
	if err != nil {
		writeError(w, err)
		return
	}
	if slots == nil {
		slots = []query.SlotView{}
	}
	writeJSON(w, http.StatusOK, slots)
}

func (n *Node) handleGetSlot(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"code": "BadRequest", "message": "bad slot id"})
		return
	}
	slot, err := n.queries.GetSlot(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, slot)
}

func (n *Node) handleListAds(w http.ResponseWriter, r *http.Request) {
	var owner *ids.ID
	if ownerHex := r.URL.Query().Get("owner"); ownerHex != "" {
		parsed, err := ids.FromString(ownerHex)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"code": "BadRequest", "message": "bad owner id"})
			return
		}
		owner = &parsed
	}
	ads, err := n.queries.ListAds(owner)
	if err != nil {
		writeError(w, err)
		return
	}
	if ads == nil {
		ads = []query.AdView{}
	}
	writeJSON(w, http.StatusOK, ads)
}

func (n *Node) handleListEscrows(w http.ResponseWriter, r *http.Request) {
	var advertiser *ids.ID
	if advHex := r.URL.Query().Get("advertiser"); advHex != "" {
		parsed, err := ids.FromString(advHex)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"code": "BadRequest", "message": "bad advertiser id"})
			return
		}
		advertiser = &parsed
	}
	escrows, err := n.queries.ListEscrows(advertiser)
	if err != nil {
		writeError(w, err)
		return
	}
	if escrows == nil {
		escrows = []query.EscrowView{}
	}
	writeJSON(w, http.StatusOK, escrows)
}

func (n *Node) handleGetEscrow(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"code": "BadRequest", "message": "bad escrow id"})
		return
	}
	esc, err := n.queries.GetEscrow(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, esc)
}

func (n *Node) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"code": "BadRequest", "message": "bad account id"})
		return
	}
	balance, err := n.queries.Balance(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"balance": balance})
}

func (n *Node) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := n.queries.Stats()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (n *Node) handleFaucet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		To     ids.ID `json:"to"`
		Amount uint64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"code": "BadRequest", "message": err.Error()})
		return
	}
	if err := n.runtime.Airdrop(req.To, req.Amount); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleEventFeed streams committed domain events over a websocket
func (n *Node) handleEventFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	events, cancel := n.bus.Subscribe(256)
	defer cancel()

	// Drain client frames so pings and close messages are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	for evt := range events {
		if err := conn.WriteJSON(evt); err != nil {
			n.log.Debug("event feed subscriber dropped", log.Error(err))
			return
		}
	}
}
