// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package marketplace

import "errors"

var (
	ErrInvalidPurchaseType = errors.New("invalid purchase type")
	ErrSlotNotActive       = errors.New("ad slot not active")
	ErrBidTooLow           = errors.New("bid too low")
	ErrAuctionEnded        = errors.New("auction has ended")
	ErrAuctionNotEnded     = errors.New("auction has not ended")
	ErrUnauthorized        = errors.New("unauthorized action")
)
