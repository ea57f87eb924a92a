// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package instruction

import (
	"errors"
	"net/http"

	"github.com/adxyz/admarket/pkg/accounts"
	"github.com/adxyz/admarket/pkg/escrow"
	"github.com/adxyz/admarket/pkg/marketplace"
)

// ErrorCode maps an engine rejection to its stable wire code. Clients key
// UI feedback off the code, never the message text.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, marketplace.ErrInvalidPurchaseType), errors.Is(err, escrow.ErrInvalidPurchaseType):
		return "InvalidPurchaseType"
	case errors.Is(err, marketplace.ErrSlotNotActive):
		return "SlotNotActive"
	case errors.Is(err, marketplace.ErrBidTooLow):
		return "BidTooLow"
	case errors.Is(err, marketplace.ErrAuctionEnded):
		return "AuctionEnded"
	case errors.Is(err, marketplace.ErrAuctionNotEnded):
		return "AuctionNotEnded"
	case errors.Is(err, marketplace.ErrUnauthorized), errors.Is(err, escrow.ErrUnauthorized):
		return "Unauthorized"
	case errors.Is(err, escrow.ErrInvalidEscrow):
		return "InvalidEscrow"
	case errors.Is(err, escrow.ErrSlotActive):
		return "SlotActive"
	case errors.Is(err, escrow.ErrInvalidAmount):
		return "InvalidAmount"
	case errors.Is(err, escrow.ErrEscrowAlreadyReleased):
		return "EscrowAlreadyReleased"
	case errors.Is(err, accounts.ErrInsufficientFunds):
		return "InsufficientFunds"
	case errors.Is(err, accounts.ErrNotFound):
		return "NotFound"
	case errors.Is(err, accounts.ErrAlreadyExists):
		return "AlreadyExists"
	case errors.Is(err, ErrInvalidSignature):
		return "InvalidSignature"
	case errors.Is(err, ErrUnknownOp):
		return "UnknownOp"
	default:
		return "Internal"
	}
}

// HTTPStatus maps a rejection to an HTTP status for the daemon API
func HTTPStatus(err error) int {
	switch ErrorCode(err) {
	case "Unauthorized", "InvalidSignature":
		return http.StatusForbidden
	case "NotFound":
		return http.StatusNotFound
	case "AlreadyExists":
		return http.StatusConflict
	case "Internal":
		return http.StatusInternalServerError
	default:
		return http.StatusUnprocessableEntity
	}
}
