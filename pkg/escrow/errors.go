// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package escrow

import "errors"

var (
	ErrInvalidEscrow         = errors.New("invalid escrow state")
	ErrInvalidPurchaseType   = errors.New("invalid purchase type for escrow")
	ErrSlotActive            = errors.New("ad slot still active")
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrEscrowAlreadyReleased = errors.New("escrow already released")
	ErrUnauthorized          = errors.New("unauthorized action")
)
