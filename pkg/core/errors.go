// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package core

import "errors"

// Business-rule failures surfaced by the engine. Every rejected
// operation aborts with one of these kinds and no state change.
var (
	ErrInvalidAuthority       = errors.New("invalid authority")
	ErrOracleNotConfigured    = errors.New("oracle authority not configured")
	ErrInvalidOracleAuthority = errors.New("invalid oracle authority")
	ErrUnauthorized           = errors.New("unauthorized operation")

	ErrCampaignNotActive         = errors.New("campaign is not active")
	ErrCampaignHasActiveBookings = errors.New("campaign has active bookings")
	ErrInsufficientBudget        = errors.New("insufficient campaign budget")

	ErrLocationUnavailable   = errors.New("location is unavailable")
	ErrLocationInactive      = errors.New("location is inactive")
	ErrLocationAlreadyBooked = errors.New("location already booked")

	ErrInvalidTimeRange = errors.New("invalid time range")
	ErrSlotOverlap      = errors.New("slot overlaps with existing slot")
	ErrSlotUnavailable  = errors.New("slot is unavailable")
	ErrSlotNotFound     = errors.New("no slots found in range")
	ErrSlotInPast       = errors.New("slot time is in the past")
	ErrScheduleFull     = errors.New("schedule has reached maximum slots")

	ErrInvalidOracleDevice  = errors.New("invalid oracle device")
	ErrOracleDeviceInactive = errors.New("oracle device inactive")

	ErrBookingNotActive  = errors.New("booking not active")
	ErrSettlementTooHigh = errors.New("settlement amount exceeds escrow")

	ErrInvalidParameters   = errors.New("invalid parameters")
	ErrInvalidStringLength = errors.New("invalid string length")
	ErrNotFound            = errors.New("record not found")
	ErrAlreadyExists       = errors.New("record already exists")
)
